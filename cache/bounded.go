package cache

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/coocood/freecache"
	"github.com/goliatone/go-streamone/core"
)

// DefaultBoundedCacheSize is used when NewBoundedCache receives a non
// positive size. freecache raises anything below 512KiB to that minimum.
const DefaultBoundedCacheSize = 32 << 20

// BoundedCache is an in-memory cache with a fixed byte budget. The oldest
// entries are evicted once the budget is used.
type BoundedCache struct {
	items *freecache.Cache
	opts  options
}

func NewBoundedCache(sizeBytes int, opts ...Option) *BoundedCache {
	if sizeBytes <= 0 {
		sizeBytes = DefaultBoundedCacheSize
	}
	return &BoundedCache{
		items: freecache.NewCache(sizeBytes),
		opts:  resolveOptions(opts),
	}
}

func (c *BoundedCache) Get(ctx context.Context, key string) ([]byte, bool) {
	entry, ok := c.entry(ctx, key)
	if !ok {
		return nil, false
	}
	return entry.Value, true
}

func (c *BoundedCache) Age(ctx context.Context, key string) time.Duration {
	entry, ok := c.entry(ctx, key)
	if !ok {
		return core.MissingAge
	}
	return c.opts.age(entry)
}

func (c *BoundedCache) Set(ctx context.Context, key string, value []byte) {
	if c == nil || c.items == nil {
		return
	}
	raw, err := c.opts.encode(value)
	if err != nil {
		c.opts.warn(ctx, "freecache", "encode", key, err)
		return
	}
	if err := c.items.Set([]byte(c.opts.key(key)), raw, ttlSeconds(c.opts.ttl)); err != nil {
		c.opts.warn(ctx, "freecache", "set", key, err)
	}
}

func (c *BoundedCache) entry(ctx context.Context, key string) (core.CacheEntry, bool) {
	if c == nil || c.items == nil {
		return core.CacheEntry{}, false
	}
	raw, err := c.items.Get([]byte(c.opts.key(key)))
	if err != nil {
		if !errors.Is(err, freecache.ErrNotFound) {
			c.opts.warn(ctx, "freecache", "get", key, err)
		}
		return core.CacheEntry{}, false
	}
	entry, err := core.DecodeCacheEntry(raw)
	if err != nil {
		c.opts.warn(ctx, "freecache", "decode", key, err)
		return core.CacheEntry{}, false
	}
	return entry, true
}

// ttlSeconds rounds up so a sub second TTL still expires rather than
// meaning "forever".
func ttlSeconds(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	seconds := math.Ceil(ttl.Seconds())
	if seconds > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(seconds)
}
