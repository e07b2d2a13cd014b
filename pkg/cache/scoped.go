package cache

// ScopedKeyer wraps a Keyer with a prefix, namespacing entries in a cache
// shared with other applications.
//
//	k := NewScopedKeyer(NewDefaultKeyer(), "moto:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// AuditKey generates a prefixed audit key.
func (k *ScopedKeyer) AuditKey(model, description string) string {
	return k.prefix + k.inner.AuditKey(model, description)
}

// SnapshotKey generates a prefixed snapshot key.
func (k *ScopedKeyer) SnapshotKey(opts SnapshotKeyOpts) string {
	return k.prefix + k.inner.SnapshotKey(opts)
}
