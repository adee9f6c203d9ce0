package cache

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-streamone/core"
	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of redis.Cmdable used by RedisCache.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisCache shares cached responses between processes.
type RedisCache struct {
	client RedisClient
	opts   options
}

func NewRedisCache(client RedisClient, opts ...Option) *RedisCache {
	return &RedisCache{client: client, opts: resolveOptions(opts)}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	entry, ok := c.entry(ctx, key)
	if !ok {
		return nil, false
	}
	return entry.Value, true
}

func (c *RedisCache) Age(ctx context.Context, key string) time.Duration {
	entry, ok := c.entry(ctx, key)
	if !ok {
		return core.MissingAge
	}
	return c.opts.age(entry)
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := c.opts.encode(value)
	if err != nil {
		c.opts.warn(ctx, "redis", "encode", key, err)
		return
	}
	if err := c.client.Set(ctx, c.opts.key(key), raw, c.opts.ttl).Err(); err != nil {
		c.opts.warn(ctx, "redis", "set", key, err)
	}
}

func (c *RedisCache) entry(ctx context.Context, key string) (core.CacheEntry, bool) {
	if c == nil || c.client == nil {
		return core.CacheEntry{}, false
	}
	raw, err := c.client.Get(ctx, c.opts.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.opts.warn(ctx, "redis", "get", key, err)
		}
		return core.CacheEntry{}, false
	}
	entry, err := core.DecodeCacheEntry(raw)
	if err != nil {
		c.opts.warn(ctx, "redis", "decode", key, err)
		return core.CacheEntry{}, false
	}
	return entry, true
}
