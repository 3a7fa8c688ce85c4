// Package cache provides the value cache backends used by the query layer:
// an in-process TTL store with a capacity bound, and an optional Redis
// backend for deployments where replicas share the read cache.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss indicates the requested key was not found or has expired.
var ErrCacheMiss = errors.New("cache miss")

// Store is a byte-value cache with per-entry TTL. Implementations must
// treat expired entries as misses and support proactive invalidation so
// mutations can evict related keys without waiting for the TTL.
type Store interface {
	// Get returns the value for key, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl. Non-positive ttl is not cached.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Invalidate removes key. Removing an absent key is not an error.
	Invalidate(ctx context.Context, key string) error

	// InvalidateAll removes every entry owned by this store.
	InvalidateAll(ctx context.Context) error
}
