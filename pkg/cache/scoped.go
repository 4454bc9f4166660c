package cache

// ScopedKeyer wraps a Keyer with a prefix so different users or
// deployments get separate cache namespaces on a shared backend.
//
// Example usage:
//
//	// Per-user keys for private maps
//	userKeyer := NewScopedKeyer(NewDefaultKeyer(), "user:abc123:")
//
//	// Unscoped keys for shared maps
//	globalKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to every
// generated key. A nil inner defaults to the standard keyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ArrangeKey generates a prefixed key for arrangement results.
func (k *ScopedKeyer) ArrangeKey(mapHash string, opts ArrangeKeyOpts) string {
	return k.prefix + k.inner.ArrangeKey(mapHash, opts)
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}
