package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goliatone/go-streamone/core"
)

// BadgerCache persists entries in an embedded badger database, so cached
// responses survive restarts.
type BadgerCache struct {
	db    *badger.DB
	owned bool
	opts  options
}

// NewBadgerCache wraps a database owned by the caller.
func NewBadgerCache(db *badger.DB, opts ...Option) *BadgerCache {
	return &BadgerCache{db: db, opts: resolveOptions(opts)}
}

// OpenBadgerCache opens a database at dir. An empty dir keeps everything in
// memory. Close releases the database.
func OpenBadgerCache(dir string, opts ...Option) (*BadgerCache, error) {
	resolved := resolveOptions(opts)
	badgerOpts := badger.DefaultOptions(dir).WithLogger(badgerLogger{logger: resolved.logger})
	if dir == "" {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("cache: open badger: %w", err)
	}
	return &BadgerCache{db: db, owned: true, opts: resolved}, nil
}

func (c *BadgerCache) Close() error {
	if c == nil || c.db == nil || !c.owned {
		return nil
	}
	return c.db.Close()
}

func (c *BadgerCache) Get(ctx context.Context, key string) ([]byte, bool) {
	entry, ok := c.entry(ctx, key)
	if !ok {
		return nil, false
	}
	return entry.Value, true
}

func (c *BadgerCache) Age(ctx context.Context, key string) time.Duration {
	entry, ok := c.entry(ctx, key)
	if !ok {
		return core.MissingAge
	}
	return c.opts.age(entry)
}

func (c *BadgerCache) Set(ctx context.Context, key string, value []byte) {
	if c == nil || c.db == nil {
		return
	}
	raw, err := c.opts.encode(value)
	if err != nil {
		c.opts.warn(ctx, "badger", "encode", key, err)
		return
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		item := badger.NewEntry([]byte(c.opts.key(key)), raw)
		if c.opts.ttl > 0 {
			item = item.WithTTL(c.opts.ttl)
		}
		return txn.SetEntry(item)
	})
	if err != nil {
		c.opts.warn(ctx, "badger", "set", key, err)
	}
}

func (c *BadgerCache) entry(ctx context.Context, key string) (core.CacheEntry, bool) {
	if c == nil || c.db == nil {
		return core.CacheEntry{}, false
	}
	var raw []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(c.opts.key(key)))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.opts.warn(ctx, "badger", "get", key, err)
		}
		return core.CacheEntry{}, false
	}
	entry, err := core.DecodeCacheEntry(raw)
	if err != nil {
		c.opts.warn(ctx, "badger", "decode", key, err)
		return core.CacheEntry{}, false
	}
	return entry, true
}

// badgerLogger forwards badger's internal logging to glog. Info and debug
// output is dropped.
type badgerLogger struct {
	logger core.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	if l.logger != nil {
		l.logger.Error(fmt.Sprintf(format, args...), "component", "badger")
	}
}

func (l badgerLogger) Warningf(format string, args ...any) {
	if l.logger != nil {
		l.logger.Warn(fmt.Sprintf(format, args...), "component", "badger")
	}
}

func (badgerLogger) Infof(string, ...any) {}

func (badgerLogger) Debugf(string, ...any) {}
