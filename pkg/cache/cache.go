// Package cache provides the storage used to memoize layout passes and
// rendered artifacts.
//
// Layout is a pure function of the item list and the geometry, so a board
// computed once for a given input can be served from cache on later runs.
// This is memoization only: interactive view state (scroll offset, pending
// passes) is never cached.
//
// # Backends
//
//   - [FileCache]: JSON entries under a directory, for the CLI
//   - [RedisCache]: shared cache for the API server
//   - [NullCache]: disables caching (--no-cache)
//
// # Keys
//
// A [Keyer] derives keys from content hashes and the options that affect
// the output. Use [NewScopedKeyer] to give a deployment its own namespace.
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry type.
const (
	// TTLItems applies to item lists loaded from remote sources.
	TTLItems = time.Hour

	// TTLLayout applies to computed boards.
	TTLLayout = 7 * 24 * time.Hour

	// TTLArtifact applies to rendered SVG and JSON output.
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key-value store with expiration.
type Cache interface {
	// Get returns the value for key. A miss is reported as (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}
