// Package cache stores intermediate pipeline results between runs.
//
// Loading a large scene only to learn its bounding box is the slowest part
// of fitting a camera, so the pipeline caches bounding boxes keyed by the
// scene file's content hash. Three backends implement [Cache]:
//
//   - [FileCache]: JSON entries under a directory, used by the CLI
//   - [RedisCache]: a shared Redis instance, for batch farms and the API
//   - [NullCache]: stores nothing; used with --no-cache and in tests
//
// Keys are built by a [Keyer] so that callers sharing a backend can be
// scoped apart with [NewScopedKeyer].
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key. hit is false on a miss or an expired
	// entry; err is reserved for backend failures.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// TTLs for cached values.
const (
	// TTLBounds applies to scene bounding boxes. Keys include the
	// content hash, so a stale entry can only be an unused one.
	TTLBounds = 30 * 24 * time.Hour
)
