// Package ratelimit backs off from the API after it reports the caller as
// rate limited, failing further calls locally until the window has passed.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-streamone/core"
)

var ErrStateNotFound = errors.New("ratelimit: state not found")

type State struct {
	Bucket         string
	ThrottledUntil *time.Time
	LastStatus     core.Status
	Attempts       int
	UpdatedAt      time.Time
}

type StateStore interface {
	Get(ctx context.Context, bucket string) (State, error)
	Upsert(ctx context.Context, state State) error
}

// BucketFunc maps a call to the bucket its throttling state is kept in.
type BucketFunc func(key core.RateLimitKey) string

// ByCommand shares one bucket between all actions of a command, per
// authenticator.
func ByCommand(key core.RateLimitKey) string {
	return normalize(key.AuthenticatorID) + "|" + normalize(key.Command)
}

// ByAuthenticator shares one bucket between every call of an authenticator.
func ByAuthenticator(key core.RateLimitKey) string {
	return normalize(key.AuthenticatorID)
}

// ThrottlePolicy never resends a call. It only refuses calls locally while
// the API keeps a bucket rate limited.
type ThrottlePolicy struct {
	Store         StateStore
	Bucket        BucketFunc
	Now           func() time.Time
	InitialWindow time.Duration
	MaxWindow     time.Duration
}

func NewThrottlePolicy(store StateStore) *ThrottlePolicy {
	return &ThrottlePolicy{
		Store:         store,
		Bucket:        ByCommand,
		Now:           func() time.Time { return time.Now().UTC() },
		InitialWindow: time.Second,
		MaxWindow:     time.Minute,
	}
}

// BeforeRequest refuses calls while their bucket is throttled.
func (p *ThrottlePolicy) BeforeRequest(ctx context.Context, key core.RateLimitKey) error {
	if p == nil || p.Store == nil {
		return nil
	}
	state, err := p.Store.Get(ctx, p.bucket(key))
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return nil
		}
		return err
	}

	now := p.now()
	if until := state.ThrottledUntil; until != nil && now.Before(*until) {
		return core.RateLimited(key, until.Sub(now))
	}
	return nil
}

// AfterResponse extends the throttle window on every rate limited status and
// resets it on any other valid response. Invalid responses leave the state
// untouched.
func (p *ThrottlePolicy) AfterResponse(ctx context.Context, key core.RateLimitKey, resp *core.Response) error {
	if p == nil || p.Store == nil || !resp.Valid() {
		return nil
	}
	bucket := p.bucket(key)
	now := p.now()
	state, err := p.Store.Get(ctx, bucket)
	if err != nil && !errors.Is(err, ErrStateNotFound) {
		return err
	}
	if errors.Is(err, ErrStateNotFound) {
		state = State{Bucket: bucket}
	}

	state.LastStatus = resp.Status()
	state.UpdatedAt = now

	if resp.Status() == core.StatusRateLimited {
		state.Attempts++
		until := now.Add(p.throttleWindow(state.Attempts))
		state.ThrottledUntil = &until
		return p.Store.Upsert(ctx, state)
	}

	state.Attempts = 0
	state.ThrottledUntil = nil
	return p.Store.Upsert(ctx, state)
}

func (p *ThrottlePolicy) bucket(key core.RateLimitKey) string {
	if p.Bucket != nil {
		return p.Bucket(key)
	}
	return ByCommand(key)
}

func (p *ThrottlePolicy) now() time.Time {
	if p != nil && p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

func (p *ThrottlePolicy) throttleWindow(attempt int) time.Duration {
	initial := p.InitialWindow
	if initial <= 0 {
		initial = time.Second
	}
	maximum := p.MaxWindow
	if maximum <= 0 {
		maximum = time.Minute
	}
	window := initial
	for i := 1; i < attempt; i++ {
		window *= 2
		if window >= maximum {
			return maximum
		}
	}
	if window > maximum {
		return maximum
	}
	return window
}

func normalize(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}

type MemoryStateStore struct {
	mu    sync.RWMutex
	items map[string]State
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{items: map[string]State{}}
}

func (s *MemoryStateStore) Get(_ context.Context, bucket string) (State, error) {
	if s == nil {
		return State{}, fmt.Errorf("ratelimit: state store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.items[bucket]
	if !ok {
		return State{}, ErrStateNotFound
	}
	return state, nil
}

func (s *MemoryStateStore) Upsert(_ context.Context, state State) error {
	if s == nil {
		return fmt.Errorf("ratelimit: state store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[state.Bucket] = state
	return nil
}

var _ core.RateLimitPolicy = (*ThrottlePolicy)(nil)
