// Package cache stores ranking results keyed by their inputs.
//
// A ranking is a pure function of the circuit, the device pool (topology and
// calibration) and the search options, so its result can be reused until the
// calibration changes. Keys are content hashes of exactly those inputs; a new
// calibration snapshot yields a new device fingerprint and therefore a new key.
//
// # Backends
//
//   - [FileCache] keeps entries as JSON files under a directory. The CLI uses it.
//   - [RedisCache] keeps entries in Redis with native expiry. The HTTP server
//     uses it when a Redis URL is configured.
//   - [NullCache] stores nothing and is the default when caching is disabled.
//
// # Keys
//
// Backends never build keys themselves. A [Keyer] turns inputs into keys, and
// [ScopedKeyer] prefixes another keyer so several tenants can share a backend.
package cache

import (
	"context"
	"time"
)

// Default lifetimes for cached entries.
const (
	// TTLRank bounds how long a ranking is reused. Calibration changes
	// already invalidate keys, so this only caps staleness of unchanged pools.
	TTLRank = 24 * time.Hour

	// TTLDeflate is the lifetime of a deflation result. Deflation does not
	// depend on devices, so entries live longer.
	TTLDeflate = 7 * 24 * time.Hour

	// TTLRender is the lifetime of a rendered layout image.
	TTLRender = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
//
// Get reports a miss as (nil, false, nil); an error means the backend itself
// failed. A ttl of zero means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
