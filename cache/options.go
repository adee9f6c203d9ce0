// Package cache holds core.Cache backends. Every backend reports failures as
// misses, so a broken cache degrades to uncached requests.
package cache

import (
	"context"
	"time"

	"github.com/goliatone/go-streamone/core"
)

type Option func(*options)

type options struct {
	ttl    time.Duration
	prefix string
	clock  core.Clock
	logger core.Logger
}

// WithTTL bounds how long entries are kept. Zero keeps them until evicted.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithPrefix namespaces keys in shared backends.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

func WithClock(clock core.Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger receives backend failures that would otherwise be swallowed.
func WithLogger(logger core.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func resolveOptions(opts []Option) options {
	resolved := options{
		clock: core.ClockFunc(time.Now),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&resolved)
		}
	}
	return resolved
}

func (o options) key(key string) string {
	return o.prefix + key
}

func (o options) now() time.Time {
	return o.clock.Now()
}

func (o options) warn(ctx context.Context, backend string, op string, key string, err error) {
	if o.logger == nil || err == nil {
		return
	}
	o.logger.WithContext(ctx).Warn("streamone cache backend failure",
		"backend", backend,
		"operation", op,
		"key", key,
		"error", err,
	)
}

func (o options) encode(value []byte) ([]byte, error) {
	return core.EncodeCacheEntry(value, o.now())
}

func (o options) age(entry core.CacheEntry) time.Duration {
	return entry.Age(o.now())
}

func cloneBytes(value []byte) []byte {
	if value == nil {
		return nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out
}
