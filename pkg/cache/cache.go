// Package cache stores rendered artifacts keyed by content.
//
// A rendered view depends only on the dataset, the cluster state, and the
// render options, so the same inputs always produce the same bytes. Keys are
// built from a hash of those inputs by a [Keyer], which lets the CLI and the
// HTTP server skip the Graphviz layout when nothing changed.
//
// Three backends are provided:
//
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: one file per entry under a local directory
//   - [RedisCache]: a shared Redis instance for server deployments
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is reported as (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
