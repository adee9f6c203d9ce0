package cache

import (
	"github.com/bradfitz/gomemcache/memcache"
	"github.com/dgraph-io/badger/v4"
	"github.com/goliatone/go-streamone/core"
	"github.com/redis/go-redis/v9"
)

var (
	_ core.Cache = (*MemoryCache)(nil)
	_ core.Cache = (*BoundedCache)(nil)
	_ core.Cache = (*FileCache)(nil)
	_ core.Cache = (*RedisCache)(nil)
	_ core.Cache = (*MemcacheCache)(nil)
	_ core.Cache = (*BadgerCache)(nil)
	_ core.Cache = (*RepositoryCache)(nil)

	_ RedisClient    = (*redis.Client)(nil)
	_ RedisClient    = redis.UniversalClient(nil)
	_ MemcacheClient = (*memcache.Client)(nil)
	_ badger.Logger  = badgerLogger{}
)
