package core

import (
	"context"
	"sync"
	"time"
)

type MemorySessionStoreOption func(*MemorySessionStore)

func WithSessionStoreClock(clock Clock) MemorySessionStoreOption {
	return func(s *MemorySessionStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// MemorySessionStore keeps the session in process memory.
type MemorySessionStore struct {
	mu       sync.Mutex
	clock    Clock
	identity SessionIdentity
	deadline time.Time
	cache    map[string][]byte
}

func NewMemorySessionStore(opts ...MemorySessionStoreOption) *MemorySessionStore {
	store := &MemorySessionStore{
		clock: systemClock{},
		cache: map[string][]byte{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

func (s *MemorySessionStore) HasSession(context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked()
}

// activeLocked clears an expired session as a side effect.
func (s *MemorySessionStore) activeLocked() bool {
	if s.identity.ID == "" || s.identity.Key == "" || s.identity.UserID == "" || s.deadline.IsZero() {
		return false
	}
	if s.clock.Now().After(s.deadline) {
		s.clearLocked()
		return false
	}
	return true
}

func (s *MemorySessionStore) clearLocked() {
	s.identity = SessionIdentity{}
	s.deadline = time.Time{}
	s.cache = map[string][]byte{}
}

func (s *MemorySessionStore) ClearSession(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	return nil
}

func (s *MemorySessionStore) SetSession(_ context.Context, identity SessionIdentity, timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = identity
	s.deadline = s.clock.Now().Add(timeout)
	return nil
}

func (s *MemorySessionStore) SetTimeout(_ context.Context, timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked() {
		return NoActiveSession()
	}
	s.deadline = s.clock.Now().Add(timeout)
	return nil
}

func (s *MemorySessionStore) ID(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked() {
		return "", NoActiveSession()
	}
	return s.identity.ID, nil
}

func (s *MemorySessionStore) Key(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked() {
		return "", NoActiveSession()
	}
	return s.identity.Key, nil
}

func (s *MemorySessionStore) UserID(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked() {
		return "", NoActiveSession()
	}
	return s.identity.UserID, nil
}

// Timeout returns the time left before the session expires.
func (s *MemorySessionStore) Timeout(context.Context) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked() {
		return 0, NoActiveSession()
	}
	return s.deadline.Sub(s.clock.Now()), nil
}

func (s *MemorySessionStore) HasCacheKey(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked() {
		return false, NoActiveSession()
	}
	_, ok := s.cache[key]
	return ok, nil
}

func (s *MemorySessionStore) CacheValue(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked() {
		return nil, NoActiveSession()
	}
	value, ok := s.cache[key]
	if !ok {
		return nil, NoSuchCacheKey(key)
	}
	return append([]byte(nil), value...), nil
}

func (s *MemorySessionStore) SetCacheValue(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked() {
		return NoActiveSession()
	}
	s.cache[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemorySessionStore) UnsetCacheKey(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked() {
		return NoActiveSession()
	}
	delete(s.cache, key)
	return nil
}
