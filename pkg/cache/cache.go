// Package cache provides artifact caching for rendered diagrams.
//
// Rendering requires launching a browser, so repeated renders of unchanged
// sources are worth avoiding. The cache stores the rendered bytes keyed by
// a hash of the diagram source plus every option that affects the output.
// Only successful renders are stored; failures are never cached.
//
// Two backends are provided: FileCache for CLI usage and RedisCache for the
// render service. NullCache disables caching entirely.
package cache

import (
	"context"
	"time"
)

// TTLArtifact is how long rendered artifacts stay cached. Diagram sources
// are hashed into the key, so stale entries only cost disk space, never
// correctness.
const TTLArtifact = 7 * 24 * time.Hour

// Cache is the storage interface for rendered artifacts and bundled assets.
type Cache interface {
	// Get retrieves a value. The second return value reports whether the
	// key was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A TTL of zero or less means
	// the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the backend.
	Close() error
}
