// Package redisstore keeps a StreamOne session in redis so several processes
// can share it.
package redisstore

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-streamone/core"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultKeyPrefix = "streamone:session:"

	fieldID       = "id"
	fieldKey      = "key"
	fieldUserID   = "user_id"
	fieldDeadline = "deadline_ms"
)

// Client is the subset of redis.Cmdable used by SessionStore.
type Client interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	HSet(ctx context.Context, key string, values ...any) *redis.IntCmd
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HExists(ctx context.Context, key, field string) *redis.BoolCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	PExpireAt(ctx context.Context, key string, tm time.Time) *redis.BoolCmd
}

type Option func(*SessionStore)

// WithName separates sessions that share one redis database.
func WithName(name string) Option {
	return func(s *SessionStore) {
		if strings.TrimSpace(name) != "" {
			s.name = strings.TrimSpace(name)
		}
	}
}

func WithKeyPrefix(prefix string) Option {
	return func(s *SessionStore) {
		s.prefix = prefix
	}
}

func WithClock(clock core.Clock) Option {
	return func(s *SessionStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger receives store failures that cannot be returned to the caller.
func WithLogger(logger core.Logger) Option {
	return func(s *SessionStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// SessionStore stores the identity in one hash and cached values in a
// second hash. Both keys expire at the session deadline.
type SessionStore struct {
	client Client
	prefix string
	name   string
	clock  core.Clock
	logger core.Logger
}

type sessionState struct {
	identity core.SessionIdentity
	deadline time.Time
}

func NewSessionStore(client Client, opts ...Option) *SessionStore {
	store := &SessionStore{
		client: client,
		prefix: DefaultKeyPrefix,
		name:   "default",
		clock:  core.ClockFunc(time.Now),
		logger: glog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

func (s *SessionStore) identityKey() string {
	return s.prefix + s.name
}

func (s *SessionStore) cacheKey() string {
	return s.prefix + s.name + ":cache"
}

func (s *SessionStore) HasSession(ctx context.Context) bool {
	_, err := s.active(ctx)
	return err == nil
}

func (s *SessionStore) ClearSession(ctx context.Context) error {
	if err := s.client.Del(ctx, s.identityKey(), s.cacheKey()).Err(); err != nil {
		return core.StoreFailure(err, "redisstore: clear session")
	}
	return nil
}

// SetSession keeps any cached values; they expire with the new deadline.
func (s *SessionStore) SetSession(ctx context.Context, identity core.SessionIdentity, timeout time.Duration) error {
	deadline := s.clock.Now().Add(timeout)
	err := s.client.HSet(ctx, s.identityKey(),
		fieldID, identity.ID,
		fieldKey, identity.Key,
		fieldUserID, identity.UserID,
		fieldDeadline, strconv.FormatInt(deadline.UnixMilli(), 10),
	).Err()
	if err != nil {
		return core.StoreFailure(err, "redisstore: set session")
	}
	return s.expireAt(ctx, deadline)
}

func (s *SessionStore) SetTimeout(ctx context.Context, timeout time.Duration) error {
	if _, err := s.active(ctx); err != nil {
		return err
	}
	deadline := s.clock.Now().Add(timeout)
	err := s.client.HSet(ctx, s.identityKey(), fieldDeadline, strconv.FormatInt(deadline.UnixMilli(), 10)).Err()
	if err != nil {
		return core.StoreFailure(err, "redisstore: set timeout")
	}
	return s.expireAt(ctx, deadline)
}

func (s *SessionStore) ID(ctx context.Context) (string, error) {
	state, err := s.active(ctx)
	if err != nil {
		return "", err
	}
	return state.identity.ID, nil
}

func (s *SessionStore) Key(ctx context.Context) (string, error) {
	state, err := s.active(ctx)
	if err != nil {
		return "", err
	}
	return state.identity.Key, nil
}

func (s *SessionStore) UserID(ctx context.Context) (string, error) {
	state, err := s.active(ctx)
	if err != nil {
		return "", err
	}
	return state.identity.UserID, nil
}

func (s *SessionStore) Timeout(ctx context.Context) (time.Duration, error) {
	state, err := s.active(ctx)
	if err != nil {
		return 0, err
	}
	return state.deadline.Sub(s.clock.Now()), nil
}

func (s *SessionStore) HasCacheKey(ctx context.Context, key string) (bool, error) {
	if _, err := s.active(ctx); err != nil {
		return false, err
	}
	exists, err := s.client.HExists(ctx, s.cacheKey(), key).Result()
	if err != nil {
		return false, core.StoreFailure(err, "redisstore: check cache key")
	}
	return exists, nil
}

func (s *SessionStore) CacheValue(ctx context.Context, key string) ([]byte, error) {
	if _, err := s.active(ctx); err != nil {
		return nil, err
	}
	value, err := s.client.HGet(ctx, s.cacheKey(), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.NoSuchCacheKey(key)
	}
	if err != nil {
		return nil, core.StoreFailure(err, "redisstore: read cache value")
	}
	return value, nil
}

func (s *SessionStore) SetCacheValue(ctx context.Context, key string, value []byte) error {
	state, err := s.active(ctx)
	if err != nil {
		return err
	}
	if err := s.client.HSet(ctx, s.cacheKey(), key, value).Err(); err != nil {
		return core.StoreFailure(err, "redisstore: write cache value")
	}
	if err := s.client.PExpireAt(ctx, s.cacheKey(), state.deadline).Err(); err != nil {
		return core.StoreFailure(err, "redisstore: expire cache")
	}
	return nil
}

func (s *SessionStore) UnsetCacheKey(ctx context.Context, key string) error {
	if _, err := s.active(ctx); err != nil {
		return err
	}
	if err := s.client.HDel(ctx, s.cacheKey(), key).Err(); err != nil {
		return core.StoreFailure(err, "redisstore: delete cache value")
	}
	return nil
}

// active loads the session and clears it once the deadline passed, covering
// clock skew between this process and redis key expiry.
func (s *SessionStore) active(ctx context.Context) (sessionState, error) {
	if s == nil || s.client == nil {
		return sessionState{}, core.NoActiveSession()
	}
	fields, err := s.client.HGetAll(ctx, s.identityKey()).Result()
	if err != nil {
		return sessionState{}, core.StoreFailure(err, "redisstore: load session")
	}
	state, ok := parseState(fields)
	if !ok {
		return sessionState{}, core.NoActiveSession()
	}
	if s.clock.Now().After(state.deadline) {
		if err := s.ClearSession(ctx); err != nil {
			s.logger.Warn("redisstore: expired session clear failed", "store", s.name, "error", err)
		}
		return sessionState{}, core.NoActiveSession()
	}
	return state, nil
}

func (s *SessionStore) expireAt(ctx context.Context, deadline time.Time) error {
	for _, key := range []string{s.identityKey(), s.cacheKey()} {
		if err := s.client.PExpireAt(ctx, key, deadline).Err(); err != nil {
			return core.StoreFailure(err, "redisstore: expire session")
		}
	}
	return nil
}

func parseState(fields map[string]string) (sessionState, bool) {
	identity := core.SessionIdentity{
		ID:     fields[fieldID],
		Key:    fields[fieldKey],
		UserID: fields[fieldUserID],
	}
	if identity.ID == "" || identity.Key == "" || identity.UserID == "" {
		return sessionState{}, false
	}
	millis, err := strconv.ParseInt(fields[fieldDeadline], 10, 64)
	if err != nil {
		return sessionState{}, false
	}
	return sessionState{identity: identity, deadline: time.UnixMilli(millis)}, true
}

var (
	_ core.SessionStore = (*SessionStore)(nil)
	_ Client            = (*redis.Client)(nil)
)
