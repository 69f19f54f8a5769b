package cache

// Keyer builds cache keys.
type Keyer interface {
	// BoundsKey is the key of a scene's bounding box. contentHash is the
	// hash of the scene file (see [HashFile]).
	BoundsKey(contentHash string, opts BoundsKeyOpts) string
}

// BoundsKeyOpts are the load options that change a scene's bounds.
type BoundsKeyOpts struct {
	Convention string `json:"convention"`
}

// DefaultKeyer builds unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// BoundsKey returns "bounds:<sha256 of hash and options>".
func (DefaultKeyer) BoundsKey(contentHash string, opts BoundsKeyOpts) string {
	return hashKey("bounds", contentHash, opts)
}
