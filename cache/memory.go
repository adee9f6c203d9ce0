package cache

import (
	"context"
	"time"

	"github.com/goliatone/go-streamone/core"
	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps entries in process memory for the lifetime of the value.
type MemoryCache struct {
	items *gocache.Cache
	opts  options
}

func NewMemoryCache(opts ...Option) *MemoryCache {
	resolved := resolveOptions(opts)
	expiration := gocache.NoExpiration
	cleanup := time.Duration(0)
	if resolved.ttl > 0 {
		expiration = resolved.ttl
		cleanup = resolved.ttl
	}
	return &MemoryCache{
		items: gocache.New(expiration, cleanup),
		opts:  resolved,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	entry, ok := c.entry(key)
	if !ok {
		return nil, false
	}
	return cloneBytes(entry.Value), true
}

func (c *MemoryCache) Age(_ context.Context, key string) time.Duration {
	entry, ok := c.entry(key)
	if !ok {
		return core.MissingAge
	}
	return c.opts.age(entry)
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte) {
	if c == nil || c.items == nil {
		return
	}
	c.items.SetDefault(c.opts.key(key), core.CacheEntry{
		StoredAt: c.opts.now(),
		Value:    cloneBytes(value),
	})
}

// ItemCount includes entries that expired but were not cleaned up yet.
func (c *MemoryCache) ItemCount() int {
	if c == nil || c.items == nil {
		return 0
	}
	return c.items.ItemCount()
}

func (c *MemoryCache) entry(key string) (core.CacheEntry, bool) {
	if c == nil || c.items == nil {
		return core.CacheEntry{}, false
	}
	raw, ok := c.items.Get(c.opts.key(key))
	if !ok {
		return core.CacheEntry{}, false
	}
	entry, ok := raw.(core.CacheEntry)
	return entry, ok
}
