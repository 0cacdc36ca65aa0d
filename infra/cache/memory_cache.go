package cache

import (
	"context"
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// MemoryCache is an in-memory TTL cache. Expiry is lazy: expired entries are
// reported as misses on Get and overwritten by the next Set. The keyspace is
// small and bounded (one entry per quote resource), so there is no eviction
// beyond TTL.
type MemoryCache[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	now     func() time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache[T any]() *MemoryCache[T] {
	return &MemoryCache[T]{
		entries: make(map[string]entry[T]),
		now:     time.Now,
	}
}

// Get returns the value stored under key if its TTL has not elapsed.
func (c *MemoryCache[T]) Get(_ context.Context, key string) (T, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		var zero T
		return zero, false, nil
	}
	return e.value, true, nil
}

// Set stores value under key, replacing any previous entry wholesale.
func (c *MemoryCache[T]) Set(_ context.Context, key string, value T, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[T]{value: value, expiresAt: c.now().Add(ttl)}
	return nil
}
