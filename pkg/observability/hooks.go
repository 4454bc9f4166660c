// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register
// hooks at startup to receive events about arrangement runs, cache
// operations, and API traffic.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so the core packages
// stay free of observability framework imports and any backend
// (OpenTelemetry, Prometheus, DataDog, etc.) can be plugged in.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetArrangeHooks(&myArrangeHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Arrange().OnArrangeStart(ctx, rootID, entryCount)
//	// ... run the layout ...
//	observability.Arrange().OnArrangeComplete(ctx, rootID, positioned, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Arrange Hooks
// =============================================================================

// ArrangeHooks receives events from arrangement runs.
type ArrangeHooks interface {
	// OnArrangeStart records the start of an arrangement over entryCount entries.
	OnArrangeStart(ctx context.Context, rootID string, entryCount int)

	// OnArrangeProgress records a progress report, fraction in [0, 1].
	OnArrangeProgress(ctx context.Context, rootID string, fraction float64)

	// OnArrangeComplete records the end of an arrangement. positioned is
	// the number of entries that received new positions.
	OnArrangeComplete(ctx context.Context, rootID string, positioned int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the API server.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records a served response.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopArrangeHooks is a no-op implementation of ArrangeHooks.
type NoopArrangeHooks struct{}

func (NoopArrangeHooks) OnArrangeStart(context.Context, string, int)                            {}
func (NoopArrangeHooks) OnArrangeProgress(context.Context, string, float64)                     {}
func (NoopArrangeHooks) OnArrangeComplete(context.Context, string, int, time.Duration, error)   {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                        {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration)   {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	arrangeHooks ArrangeHooks = NoopArrangeHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	httpHooks    HTTPHooks    = NoopHTTPHooks{}
	hooksMu      sync.RWMutex
)

// SetArrangeHooks registers custom arrangement hooks.
// This should be called once at application startup before any arrangement runs.
func SetArrangeHooks(h ArrangeHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		arrangeHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before the server starts.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Arrange returns the registered arrangement hooks.
func Arrange() ArrangeHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return arrangeHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	arrangeHooks = NoopArrangeHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
