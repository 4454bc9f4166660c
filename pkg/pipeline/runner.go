package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/orbweave/orbweave/pkg/cache"
	oerrors "github.com/orbweave/orbweave/pkg/errors"
	"github.com/orbweave/orbweave/pkg/layout"
	"github.com/orbweave/orbweave/pkg/mindmap"
	"github.com/orbweave/orbweave/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → arrange pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	m, err := r.Load(opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.EntryCount = len(m.Entries)
	result.Stats.ConnectionCount = len(m.Connections)

	// Compute map hash for cache keys and API responses
	if data, err := mindmap.Marshal(m); err == nil {
		result.MapHash = cache.Hash(data)
	}

	r.Logger.Info("loaded mind map",
		"entries", len(m.Entries),
		"connections", len(m.Connections),
		"duration", result.Stats.LoadTime)

	// Stage 2: Arrange
	arrangeStart := time.Now()
	res, hit, err := r.ArrangeWithCacheInfo(ctx, m, result.MapHash, opts)
	if err != nil {
		return nil, fmt.Errorf("arrange: %w", err)
	}
	result.Layout = res
	result.Stats.ArrangeTime = time.Since(arrangeStart)
	result.CacheInfo.ArrangeHit = hit

	r.Logger.Info("arranged entries",
		"positioned", len(res.NewPositions),
		"cached", hit,
		"duration", result.Stats.ArrangeTime)

	result.Map = applyPositions(m, res)
	return result, nil
}

// Load reads and validates the mind map named by the options, applying
// the RootID override if present.
func (r *Runner) Load(opts Options) (*mindmap.MindMap, error) {
	var m *mindmap.MindMap
	if opts.Map != nil {
		m = opts.Map.Clone()
		if err := m.Validate(); err != nil {
			return nil, oerrors.Wrap(oerrors.ErrCodeInvalidGraph, err, "invalid mind map")
		}
	} else {
		loaded, err := mindmap.ReadFile(opts.Path)
		if err != nil {
			return nil, err
		}
		m = loaded
	}

	if opts.RootID != "" {
		if _, ok := m.Entry(opts.RootID); !ok {
			return nil, oerrors.New(oerrors.ErrCodeEntryNotFound, "root entry %q not found", opts.RootID)
		}
		m.RootID = opts.RootID
	}
	if m.RootID == "" {
		return nil, oerrors.New(oerrors.ErrCodeInvalidGraph, "mind map has no root entry")
	}
	return m, nil
}

// ArrangeWithCacheInfo computes the arrangement with caching and returns
// cache hit info. mapHash fingerprints the map content; it is combined
// with the arrangement options to form the cache key.
func (r *Runner) ArrangeWithCacheInfo(ctx context.Context, m *mindmap.MindMap, mapHash string, opts Options) (*layout.Result, bool, error) {
	cacheKey := r.Keyer.ArrangeKey(mapHash, opts.ArrangeKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh && mapHash != "" {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached layout.Result
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "arrange")
				if opts.Progress != nil {
					opts.Progress(1)
				}
				return &cached, true, nil
			}
			// If deserialization fails, fall through to recompute
		}
	}
	observability.Cache().OnCacheMiss(ctx, "arrange")

	// Compute
	start := time.Now()
	observability.Arrange().OnArrangeStart(ctx, m.RootID, len(m.Entries))
	res, err := layout.ArrangeMap(m, func(f float64) {
		observability.Arrange().OnArrangeProgress(ctx, m.RootID, f)
		if opts.Progress != nil {
			opts.Progress(f)
		}
	})
	observability.Arrange().OnArrangeComplete(ctx, m.RootID, resultSize(res), time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	// Cache the result
	if mapHash != "" {
		if data, err := json.Marshal(res); err == nil {
			if r.Cache.Set(ctx, cacheKey, data, cache.ArrangeTTL) == nil {
				observability.Cache().OnCacheSet(ctx, "arrange", len(data))
			}
		}
	}

	return res, false, nil
}

// Arrange is a convenience wrapper that discards the cache hit info.
func (r *Runner) Arrange(ctx context.Context, m *mindmap.MindMap, mapHash string, opts Options) (*layout.Result, error) {
	res, _, err := r.ArrangeWithCacheInfo(ctx, m, mapHash, opts)
	return res, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// applyPositions returns a copy of m with the computed positions set.
func applyPositions(m *mindmap.MindMap, res *layout.Result) *mindmap.MindMap {
	out := m.Clone()
	for i := range out.Entries {
		if pos, ok := res.NewPositions[out.Entries[i].ID]; ok {
			out.Entries[i].Position = pos
		}
	}
	return out
}

func resultSize(res *layout.Result) int {
	if res == nil {
		return 0
	}
	return len(res.NewPositions)
}
