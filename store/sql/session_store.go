// Package sqlstore persists StreamOne sessions and their cached values with
// bun, on sqlite or postgres.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-streamone/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const DefaultStoreName = "default"

type Option func(*SessionStore)

// WithStoreName lets several sessions share the same tables.
func WithStoreName(name string) Option {
	return func(s *SessionStore) {
		if strings.TrimSpace(name) != "" {
			s.name = strings.TrimSpace(name)
		}
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

// SessionStore keeps one session row per store name and one cache row per
// cached key.
type SessionStore struct {
	db        *bun.DB
	sessions  repository.Repository[*sessionRecord]
	cacheRows repository.Repository[*sessionCacheRecord]
	name      string
	clock     core.Clock
	logger    core.Logger
}

// NewSessionStore accepts a *bun.DB or anything exposing DB() *bun.DB, such
// as a go-persistence-bun client.
func NewSessionStore(persistenceClient any, opts ...Option) (*SessionStore, error) {
	db, err := resolveBunDB(persistenceClient)
	if err != nil {
		return nil, err
	}
	sessions := repository.NewRepository[*sessionRecord](db, sessionHandlers())
	if validator, ok := sessions.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid session repository wiring: %w", err)
		}
	}
	cacheRows := repository.NewRepository[*sessionCacheRecord](db, sessionCacheHandlers())
	if validator, ok := cacheRows.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid session cache repository wiring: %w", err)
		}
	}
	store := &SessionStore{
		db:        db,
		sessions:  sessions,
		cacheRows: cacheRows,
		name:      DefaultStoreName,
		clock:     core.ClockFunc(time.Now),
		logger:    glog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

func (s *SessionStore) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

func (s *SessionStore) HasSession(ctx context.Context) bool {
	_, err := s.active(ctx)
	return err == nil
}

func (s *SessionStore) ClearSession(ctx context.Context) error {
	if s == nil || s.db == nil {
		return core.StoreFailure(nil, "sqlstore: session store is not configured")
	}
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*sessionCacheRecord)(nil)).
			Where("store_name = ?", s.name).
			Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewDelete().
			Model((*sessionRecord)(nil)).
			Where("store_name = ?", s.name).
			Exec(ctx)
		return err
	})
	if err != nil {
		return core.StoreFailure(err, "sqlstore: clear session")
	}
	return nil
}

// SetSession keeps cached values, matching the in-memory store.
func (s *SessionStore) SetSession(ctx context.Context, identity core.SessionIdentity, timeout time.Duration) error {
	if s == nil || s.db == nil {
		return core.StoreFailure(nil, "sqlstore: session store is not configured")
	}
	now := s.clock.Now().UTC()
	current, err := s.findSession(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return core.StoreFailure(err, "sqlstore: load session")
	}
	if current == nil {
		_, err = s.sessions.Create(ctx, &sessionRecord{
			ID:         uuid.NewString(),
			StoreName:  s.name,
			SessionID:  identity.ID,
			SessionKey: identity.Key,
			UserID:     identity.UserID,
			ExpiresAt:  now.Add(timeout),
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			return core.StoreFailure(err, "sqlstore: create session")
		}
		return nil
	}
	current.SessionID = identity.ID
	current.SessionKey = identity.Key
	current.UserID = identity.UserID
	current.ExpiresAt = now.Add(timeout)
	current.UpdatedAt = now
	if _, err := s.sessions.Update(ctx, current, repository.UpdateByID(current.ID)); err != nil {
		return core.StoreFailure(err, "sqlstore: update session")
	}
	return nil
}

func (s *SessionStore) SetTimeout(ctx context.Context, timeout time.Duration) error {
	current, err := s.active(ctx)
	if err != nil {
		return err
	}
	now := s.clock.Now().UTC()
	current.ExpiresAt = now.Add(timeout)
	current.UpdatedAt = now
	if _, err := s.sessions.Update(ctx, current, repository.UpdateByID(current.ID)); err != nil {
		return core.StoreFailure(err, "sqlstore: update session timeout")
	}
	return nil
}

func (s *SessionStore) ID(ctx context.Context) (string, error) {
	current, err := s.active(ctx)
	if err != nil {
		return "", err
	}
	return current.SessionID, nil
}

func (s *SessionStore) Key(ctx context.Context) (string, error) {
	current, err := s.active(ctx)
	if err != nil {
		return "", err
	}
	return current.SessionKey, nil
}

func (s *SessionStore) UserID(ctx context.Context) (string, error) {
	current, err := s.active(ctx)
	if err != nil {
		return "", err
	}
	return current.UserID, nil
}

func (s *SessionStore) Timeout(ctx context.Context) (time.Duration, error) {
	current, err := s.active(ctx)
	if err != nil {
		return 0, err
	}
	return current.ExpiresAt.Sub(s.clock.Now()), nil
}

func (s *SessionStore) HasCacheKey(ctx context.Context, key string) (bool, error) {
	if _, err := s.active(ctx); err != nil {
		return false, err
	}
	exists, err := s.db.NewSelect().
		Model((*sessionCacheRecord)(nil)).
		Where("?TableAlias.store_name = ?", s.name).
		Where("?TableAlias.cache_key = ?", key).
		Exists(ctx)
	if err != nil {
		return false, core.StoreFailure(err, "sqlstore: check cache key")
	}
	return exists, nil
}

func (s *SessionStore) CacheValue(ctx context.Context, key string) ([]byte, error) {
	if _, err := s.active(ctx); err != nil {
		return nil, err
	}
	record, err := s.findCacheRow(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NoSuchCacheKey(key)
	}
	if err != nil {
		return nil, core.StoreFailure(err, "sqlstore: read cache value")
	}
	return record.Value, nil
}

func (s *SessionStore) SetCacheValue(ctx context.Context, key string, value []byte) error {
	if _, err := s.active(ctx); err != nil {
		return err
	}
	now := s.clock.Now().UTC()
	record, err := s.findCacheRow(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = s.cacheRows.Create(ctx, &sessionCacheRecord{
			ID:        uuid.NewString(),
			StoreName: s.name,
			CacheKey:  key,
			Value:     value,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return core.StoreFailure(err, "sqlstore: create cache value")
		}
		return nil
	}
	if err != nil {
		return core.StoreFailure(err, "sqlstore: load cache value")
	}
	record.Value = value
	record.UpdatedAt = now
	if _, err := s.cacheRows.Update(ctx, record, repository.UpdateByID(record.ID)); err != nil {
		return core.StoreFailure(err, "sqlstore: update cache value")
	}
	return nil
}

func (s *SessionStore) UnsetCacheKey(ctx context.Context, key string) error {
	if _, err := s.active(ctx); err != nil {
		return err
	}
	_, err := s.db.NewDelete().
		Model((*sessionCacheRecord)(nil)).
		Where("store_name = ?", s.name).
		Where("cache_key = ?", key).
		Exec(ctx)
	if err != nil {
		return core.StoreFailure(err, "sqlstore: delete cache value")
	}
	return nil
}

// active returns the session row, removing it once it has expired.
func (s *SessionStore) active(ctx context.Context) (*sessionRecord, error) {
	if s == nil || s.db == nil {
		return nil, core.NoActiveSession()
	}
	current, err := s.findSession(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NoActiveSession()
	}
	if err != nil {
		return nil, core.StoreFailure(err, "sqlstore: load session")
	}
	if current.SessionID == "" || current.SessionKey == "" || current.UserID == "" {
		return nil, core.NoActiveSession()
	}
	if s.clock.Now().After(current.ExpiresAt) {
		if err := s.ClearSession(ctx); err != nil {
			s.logger.Warn("sqlstore: expired session clear failed", "store", s.name, "error", err)
		}
		return nil, core.NoActiveSession()
	}
	return current, nil
}

func (s *SessionStore) findSession(ctx context.Context) (*sessionRecord, error) {
	record := &sessionRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.store_name = ?", s.name).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *SessionStore) findCacheRow(ctx context.Context, key string) (*sessionCacheRecord, error) {
	record := &sessionCacheRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.store_name = ?", s.name).
		Where("?TableAlias.cache_key = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}
