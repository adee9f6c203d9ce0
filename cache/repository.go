package cache

import (
	"context"
	"errors"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-streamone/core"
)

var errRepositoryMiss = errors.New("cache: repository cache miss")

// RepositoryCache adapts a go-repository-cache CacheService. The service
// only fills keys through GetOrFetch, so Set replaces the key and fetches the
// new entry into place.
type RepositoryCache struct {
	service repositorycache.CacheService
	opts    options
}

func NewRepositoryCache(service repositorycache.CacheService, opts ...Option) *RepositoryCache {
	return &RepositoryCache{service: service, opts: resolveOptions(opts)}
}

// NewDefaultRepositoryCache builds a CacheService from the library defaults,
// applying WithTTL when given.
func NewDefaultRepositoryCache(opts ...Option) (*RepositoryCache, error) {
	resolved := resolveOptions(opts)
	config := repositorycache.DefaultConfig()
	if resolved.ttl > 0 {
		config.TTL = resolved.ttl
	}
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		return nil, err
	}
	return &RepositoryCache{service: service, opts: resolved}, nil
}

func (c *RepositoryCache) Get(ctx context.Context, key string) ([]byte, bool) {
	entry, ok := c.entry(ctx, key)
	if !ok {
		return nil, false
	}
	return cloneBytes(entry.Value), true
}

func (c *RepositoryCache) Age(ctx context.Context, key string) time.Duration {
	entry, ok := c.entry(ctx, key)
	if !ok {
		return core.MissingAge
	}
	return c.opts.age(entry)
}

func (c *RepositoryCache) Set(ctx context.Context, key string, value []byte) {
	if c == nil || c.service == nil {
		return
	}
	cacheKey := c.opts.key(key)
	if err := c.service.Delete(ctx, cacheKey); err != nil {
		c.opts.warn(ctx, "repository", "delete", key, err)
	}
	entry := core.CacheEntry{StoredAt: c.opts.now(), Value: cloneBytes(value)}
	_, err := repositorycache.GetOrFetch(ctx, c.service, cacheKey, func(context.Context) (core.CacheEntry, error) {
		return entry, nil
	})
	if err != nil {
		c.opts.warn(ctx, "repository", "set", key, err)
	}
}

func (c *RepositoryCache) entry(ctx context.Context, key string) (core.CacheEntry, bool) {
	if c == nil || c.service == nil {
		return core.CacheEntry{}, false
	}
	entry, err := repositorycache.GetOrFetch(ctx, c.service, c.opts.key(key), func(context.Context) (core.CacheEntry, error) {
		return core.CacheEntry{}, errRepositoryMiss
	})
	if err != nil {
		if !errors.Is(err, errRepositoryMiss) {
			c.opts.warn(ctx, "repository", "get", key, err)
		}
		return core.CacheEntry{}, false
	}
	return entry, true
}
