// Package cache defines the quote cache contract used by the rate aggregation
// layer. Implementations live under infra/cache.
package cache

import (
	"context"
	"time"
)

// Cache is a keyed store with per-entry TTL. A value is present only while its
// TTL has not elapsed; expired entries behave exactly like missing ones.
// Entries are replaced wholesale on Set, never mutated in place.
type Cache[T any] interface {
	// Get returns the cached value for key and whether it is still fresh.
	Get(ctx context.Context, key string) (T, bool, error)

	// Set stores value under key for the given TTL.
	Set(ctx context.Context, key string, value T, ttl time.Duration) error
}
