// Package pipeline provides the core arrangement pipeline for Orbweave.
//
// This package implements the load → arrange flow shared by the CLI and
// the API server. By centralizing this logic, we ensure consistent
// caching and logging behavior across all entry points.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Load: Read and validate a mind map from a file or an in-memory value
//  2. Arrange: Compute new 3D positions for every entry reachable from the root
//
// Arrangement results are cached keyed by the map content hash and the
// arrangement options, so re-running the pipeline on an unchanged map is
// a cache lookup instead of a simulation.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{Path: "map.json"}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	arranged := result.Map
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/orbweave/orbweave/pkg/cache"
	"github.com/orbweave/orbweave/pkg/layout"
	"github.com/orbweave/orbweave/pkg/mindmap"
)

// Options contains all configuration for the arrangement pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Path is the mind map file to load. Ignored when Map is set.
	Path string `json:"path,omitempty"`

	// RootID overrides the map's own root entry.
	RootID string `json:"root_id,omitempty"`

	// Refresh bypasses the cache and recomputes the arrangement.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Map      *mindmap.MindMap    `json:"-"`
	Progress layout.ProgressFunc `json:"-"`
	Logger   *log.Logger         `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Map is the arranged mind map, positions applied.
	Map *mindmap.MindMap

	// MapHash is the content hash of the input map.
	MapHash string

	// Layout is the raw arrangement result.
	Layout *layout.Result

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks whether the arrangement came from cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	EntryCount      int
	ConnectionCount int
	LoadTime        time.Duration
	ArrangeTime     time.Duration
}

// CacheInfo tracks cache hits for the pipeline.
type CacheInfo struct {
	ArrangeHit bool // Whether the arrangement came from cache
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Path == "" && o.Map == nil {
		return fmt.Errorf("path or map is required")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ArrangeKeyOpts returns cache key options for the arrangement.
func (o *Options) ArrangeKeyOpts() cache.ArrangeKeyOpts {
	return cache.ArrangeKeyOpts{
		RootID: o.RootID,
	}
}
