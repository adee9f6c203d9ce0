package core

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// NoopCache stores nothing.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) ([]byte, bool) { return nil, false }

func (NoopCache) Age(context.Context, string) time.Duration { return MissingAge }

func (NoopCache) Set(context.Context, string, []byte) {}

// CacheEntry is the stored form for backends that cannot report the age of
// a value themselves.
type CacheEntry struct {
	StoredAt time.Time `json:"time"`
	Value    []byte    `json:"value"`
}

func EncodeCacheEntry(value []byte, at time.Time) ([]byte, error) {
	return json.Marshal(CacheEntry{StoredAt: at.UTC(), Value: value})
}

func DecodeCacheEntry(raw []byte) (CacheEntry, error) {
	var entry CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return CacheEntry{}, err
	}
	return entry, nil
}

// Age is the time elapsed since the entry was stored, never negative.
func (e CacheEntry) Age(now time.Time) time.Duration {
	age := now.Sub(e.StoredAt)
	if age < 0 {
		return 0
	}
	return age
}

// SessionCache keeps cached values inside a session store, so they live and
// die with the session.
type SessionCache struct {
	store SessionStore
	clock Clock
}

func NewSessionCache(store SessionStore) *SessionCache {
	return &SessionCache{store: store, clock: systemClock{}}
}

func newSessionCacheWithClock(store SessionStore, clock Clock) *SessionCache {
	if clock == nil {
		clock = systemClock{}
	}
	return &SessionCache{store: store, clock: clock}
}

func (c *SessionCache) Get(ctx context.Context, key string) ([]byte, bool) {
	entry, ok := c.entry(ctx, key)
	if !ok {
		return nil, false
	}
	return entry.Value, true
}

func (c *SessionCache) Age(ctx context.Context, key string) time.Duration {
	entry, ok := c.entry(ctx, key)
	if !ok {
		return MissingAge
	}
	return entry.Age(c.clock.Now())
}

func (c *SessionCache) Set(ctx context.Context, key string, value []byte) {
	if c == nil || c.store == nil {
		return
	}
	raw, err := EncodeCacheEntry(value, c.clock.Now())
	if err != nil {
		return
	}
	_ = c.store.SetCacheValue(ctx, key, raw)
}

func (c *SessionCache) entry(ctx context.Context, key string) (CacheEntry, bool) {
	if c == nil || c.store == nil {
		return CacheEntry{}, false
	}
	if ok, err := c.store.HasCacheKey(ctx, key); err != nil || !ok {
		return CacheEntry{}, false
	}
	raw, err := c.store.CacheValue(ctx, key)
	if err != nil {
		return CacheEntry{}, false
	}
	entry, err := DecodeCacheEntry(raw)
	if err != nil {
		return CacheEntry{}, false
	}
	return entry, true
}
