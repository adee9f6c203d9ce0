package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/goliatone/go-streamone/core"
)

// memcached treats expirations above 30 days as absolute unix times.
const memcacheRelativeLimit = 30 * 24 * time.Hour

// MemcacheClient is the subset of *memcache.Client used by MemcacheCache.
type MemcacheClient interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
}

// MemcacheCache stores entries in memcached. Keys are hashed since request
// cache keys can exceed the 250 byte key limit and contain spaces.
type MemcacheCache struct {
	client MemcacheClient
	opts   options
}

func NewMemcacheCache(client MemcacheClient, opts ...Option) *MemcacheCache {
	return &MemcacheCache{client: client, opts: resolveOptions(opts)}
}

func (c *MemcacheCache) Get(ctx context.Context, key string) ([]byte, bool) {
	entry, ok := c.entry(ctx, key)
	if !ok {
		return nil, false
	}
	return entry.Value, true
}

func (c *MemcacheCache) Age(ctx context.Context, key string) time.Duration {
	entry, ok := c.entry(ctx, key)
	if !ok {
		return core.MissingAge
	}
	return c.opts.age(entry)
}

func (c *MemcacheCache) Set(ctx context.Context, key string, value []byte) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := c.opts.encode(value)
	if err != nil {
		c.opts.warn(ctx, "memcache", "encode", key, err)
		return
	}
	err = c.client.Set(&memcache.Item{
		Key:        c.memcacheKey(key),
		Value:      raw,
		Expiration: memcacheExpiration(c.opts.ttl, c.opts.now()),
	})
	if err != nil {
		c.opts.warn(ctx, "memcache", "set", key, err)
	}
}

func (c *MemcacheCache) entry(ctx context.Context, key string) (core.CacheEntry, bool) {
	if c == nil || c.client == nil {
		return core.CacheEntry{}, false
	}
	item, err := c.client.Get(c.memcacheKey(key))
	if err != nil {
		if !errors.Is(err, memcache.ErrCacheMiss) {
			c.opts.warn(ctx, "memcache", "get", key, err)
		}
		return core.CacheEntry{}, false
	}
	entry, err := core.DecodeCacheEntry(item.Value)
	if err != nil {
		c.opts.warn(ctx, "memcache", "decode", key, err)
		return core.CacheEntry{}, false
	}
	return entry, true
}

func (c *MemcacheCache) memcacheKey(key string) string {
	sum := sha1.Sum([]byte(key))
	return c.opts.prefix + hex.EncodeToString(sum[:])
}

func memcacheExpiration(ttl time.Duration, now time.Time) int32 {
	if ttl <= 0 {
		return 0
	}
	if ttl > memcacheRelativeLimit {
		return int32(now.Add(ttl).Unix())
	}
	return int32(ttlSeconds(ttl))
}
