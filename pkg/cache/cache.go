// Package cache provides result caching for solve runs.
//
// Solving is deterministic: the same content profile, page geometry, range
// configuration, and starting parameters always converge to the same final
// layout. That makes solve results safe to cache aggressively; the TTL only
// bounds storage, never correctness.
//
// Three backends are provided:
//   - [NullCache]: caching disabled
//   - [FileCache]: per-user on-disk cache for the CLI
//   - [RedisCache]: shared cache for the HTTP API
//
// Keys are produced by a [Keyer] so that every input that can change the
// result participates in the key. Wrap any backend with [Instrument] to
// forward hit, miss, and write events to the registered observability hooks.
package cache

import (
	"context"
	"time"
)

// TTLSolve is the default lifetime of cached solve results.
const TTLSolve = 24 * time.Hour

// Cache is the storage interface shared by all backends.
type Cache interface {
	// Get retrieves a value. The second return value is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
