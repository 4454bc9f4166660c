// Package cache provides caching for arrangement results.
//
// Layouts are expensive to compute for large maps, so the pipeline caches
// them keyed by a hash of the mind map content plus the arrangement
// options. Three backends are provided:
//   - file: directory-based cache for CLI usage
//   - redis: shared cache for server deployments
//   - null: no-op cache for tests or when caching is disabled
//
// Key generation is separated into the Keyer interface so deployments can
// namespace keys (see ScopedKeyer) without touching the storage backends.
package cache

import (
	"context"
	"time"
)

// Default TTLs per content class. Arrangements are pure functions of
// their input, so they can live a long time; HTTP responses carry
// client-visible state and expire sooner.
const (
	// ArrangeTTL is the lifetime of cached arrangement results.
	ArrangeTTL = 7 * 24 * time.Hour

	// HTTPTTL is the lifetime of cached HTTP responses.
	HTTPTTL = 15 * time.Minute
)

// Cache is the storage interface shared by all backends.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present; a miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means no
	// expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ArrangeKeyOpts are the inputs, besides the map content itself, that
// change an arrangement result. Two runs with the same map hash and the
// same opts produce the same layout.
type ArrangeKeyOpts struct {
	// RootID selects the anchor entry for the traversal.
	RootID string `json:"root_id"`
}

// Keyer generates cache keys.
type Keyer interface {
	// ArrangeKey generates a key for a cached arrangement result.
	ArrangeKey(mapHash string, opts ArrangeKeyOpts) string

	// HTTPKey generates a key for a cached HTTP response.
	HTTPKey(namespace, key string) string
}

// DefaultKeyer is the standard key generation scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ArrangeKey hashes the map hash and options into an "arrange:" key.
func (k *DefaultKeyer) ArrangeKey(mapHash string, opts ArrangeKeyOpts) string {
	return hashKey("arrange", mapHash, opts)
}

// HTTPKey builds an "http:" key from the namespace and key verbatim.
func (k *DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
