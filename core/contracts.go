package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// MissingAge is returned by Cache.Age when the key is absent or expired.
// Present entries never report a negative age, so callers can test age < 0.
const MissingAge = -time.Second

// Cache stores raw response bodies and resolver results. Backend failures are
// reported as misses.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Age(ctx context.Context, key string) time.Duration
	Set(ctx context.Context, key string, value []byte)
}

// SessionIdentity is what the API hands back from session/create.
type SessionIdentity struct {
	ID     string
	Key    string
	UserID string
}

// SessionStore persists a single session. Reads on an inactive store fail
// with NoActiveSession, cache misses with NoSuchCacheKey.
type SessionStore interface {
	HasSession(ctx context.Context) bool
	ClearSession(ctx context.Context) error
	SetSession(ctx context.Context, identity SessionIdentity, timeout time.Duration) error
	SetTimeout(ctx context.Context, timeout time.Duration) error
	ID(ctx context.Context) (string, error)
	Key(ctx context.Context) (string, error)
	UserID(ctx context.Context) (string, error)
	Timeout(ctx context.Context) (time.Duration, error)
	HasCacheKey(ctx context.Context, key string) (bool, error)
	CacheValue(ctx context.Context, key string) ([]byte, error)
	SetCacheValue(ctx context.Context, key string, value []byte) error
	UnsetCacheKey(ctx context.Context, key string) error
}

// HTTPExecutor posts a form encoded body and returns the raw response
// payload.
type HTTPExecutor interface {
	Send(ctx context.Context, url string, body []byte) ([]byte, error)
}

type HTTPExecutorFunc func(ctx context.Context, url string, body []byte) ([]byte, error)

func (fn HTTPExecutorFunc) Send(ctx context.Context, url string, body []byte) ([]byte, error) {
	return fn(ctx, url, body)
}

// RateLimitKey identifies the call a throttling decision applies to.
type RateLimitKey struct {
	AuthenticatorID string
	Command         string
	Action          string
}

// RateLimitPolicy may refuse a request before it is signed and observes the
// response of every call that reached the network.
type RateLimitPolicy interface {
	BeforeRequest(ctx context.Context, key RateLimitKey) error
	AfterResponse(ctx context.Context, key RateLimitKey, resp *Response) error
}

type RequestFactory interface {
	NewRequest(platform *Platform, command string, action string) *Request
	NewSessionRequest(platform *Platform, command string, action string, store SessionStore) (*Request, error)
}

// PasswordHasher answers the session/initialize challenge. ok is false when
// the salt cannot be used.
type PasswordHasher interface {
	ChallengeResponse(password string, salt string, challenge string) (response string, ok bool)
	V2Hash(password string) string
}

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (fn ClockFunc) Now() time.Time {
	return fn()
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}
