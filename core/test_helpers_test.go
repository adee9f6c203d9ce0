package core

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0).UTC()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentRequest struct {
	URL   *url.URL
	Path  string
	Query url.Values
	Body  url.Values
}

// recordingExecutor answers by API path ("session/initialize") and records
// every call.
type recordingExecutor struct {
	mu        sync.Mutex
	responses map[string]string
	failures  map[string]error
	sent      []sentRequest
}

func newRecordingExecutor() *recordingExecutor {
	return &recordingExecutor{responses: map[string]string{}, failures: map[string]error{}}
}

func (e *recordingExecutor) respond(path string, payload string) *recordingExecutor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.responses[path] = payload
	return e
}

func (e *recordingExecutor) fail(path string, err error) *recordingExecutor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures[path] = err
	return e
}

func (e *recordingExecutor) Send(_ context.Context, rawURL string, body []byte) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	form, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, err
	}
	path := strings.TrimPrefix(parsed.Path, "/api/")

	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, sentRequest{URL: parsed, Path: path, Query: parsed.Query(), Body: form})
	if failure, ok := e.failures[path]; ok {
		return nil, failure
	}
	payload, ok := e.responses[path]
	if !ok {
		return []byte(`{"header":{"status":5,"statusmessage":"invalid action"},"body":null}`), nil
	}
	return []byte(payload), nil
}

func (e *recordingExecutor) calls(path string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, req := range e.sent {
		if req.Path == path {
			n++
		}
	}
	return n
}

func (e *recordingExecutor) total() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sent)
}

func (e *recordingExecutor) last() sentRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.sent) == 0 {
		return sentRequest{}
	}
	return e.sent[len(e.sent)-1]
}

type fakeHasher struct {
	ok       bool
	password string
	salt     string
}

func (h *fakeHasher) ChallengeResponse(password string, salt string, challenge string) (string, bool) {
	h.password = password
	h.salt = salt
	if !h.ok {
		return "", false
	}
	return "response-for-" + challenge, true
}

func (h *fakeHasher) V2Hash(password string) string {
	return "v2-" + password
}

// memoryCache is a minimal Cache used to observe request caching.
type memoryCache struct {
	mu     sync.Mutex
	values map[string][]byte
	sets   int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.values[key]
	return value, ok
}

func (c *memoryCache) Age(_ context.Context, key string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.values[key]; !ok {
		return MissingAge
	}
	return 0
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.values[key] = append([]byte(nil), value...)
}

func okEnvelope(body string) string {
	return `{"header":{"status":0,"statusmessage":"OK"},"body":` + body + `}`
}

func applicationConfig() Config {
	return Config{
		APIURL:             "https://api.example.test",
		AuthenticationType: AuthenticationTypeApplication,
		AuthenticatorID:    "app",
		AuthenticatorPSK:   "psk",
	}
}

func newTestPlatform(t *testing.T, cfg Config, opts ...Option) *Platform {
	t.Helper()
	platform, err := NewPlatform(cfg, opts...)
	if err != nil {
		t.Fatalf("new platform: %v", err)
	}
	return platform
}
