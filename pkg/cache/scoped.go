package cache

// ScopedKeyer wraps a Keyer with a prefix. The CLI scopes keys by release
// so that a scene-loader change never reads bounds computed by an older
// build out of a shared Redis instance.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "nadir:v1:")
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

// BoundsKey generates a prefixed bounds key.
func (k *ScopedKeyer) BoundsKey(contentHash string, opts BoundsKeyOpts) string {
	return k.prefix + k.inner.BoundsKey(contentHash, opts)
}
