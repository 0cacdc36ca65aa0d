package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a Redis-backed quote cache. Entries are stored as JSON with a
// native Redis TTL, so expiry needs no bookkeeping on our side. Used when the
// service runs with more than one replica and duplicate upstream fetches are
// worth avoiding; the in-memory cache is the default.
type RedisCache[T any] struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisCache creates a RedisCache from client options.
func NewRedisCache[T any](opt *redis.Options, prefix string, logger *slog.Logger) *RedisCache[T] {
	return &RedisCache[T]{
		client: redis.NewClient(opt),
		prefix: prefix,
		logger: logger,
	}
}

func (c *RedisCache[T]) key(key string) string {
	return c.prefix + key
}

// Get returns the value stored under key if present and unexpired.
func (c *RedisCache[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	val, err := c.client.Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		c.logger.Error("redis cache get failed", "key", key, "error", err)
		return zero, false, err
	}

	var value T
	if err := json.Unmarshal([]byte(val), &value); err != nil {
		c.logger.Error("redis cache entry corrupted", "key", key, "error", err)
		return zero, false, err
	}
	return value, true, nil
}

// Set stores value under key with the given TTL.
func (c *RedisCache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		c.logger.Error("redis cache set failed", "key", key, "error", err)
		return err
	}
	return nil
}
