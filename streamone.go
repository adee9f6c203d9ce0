// Package streamone is the entry point of the StreamOne platform client.
// It re-exports the core types and wires sessions and actors into
// go-command handlers.
package streamone

import (
	"github.com/goliatone/go-streamone/config"
	"github.com/goliatone/go-streamone/core"
)

type Config = core.Config

type Option = core.Option

type Platform = core.Platform
type Session = core.Session
type Actor = core.Actor
type Request = core.Request
type Response = core.Response
type Status = core.Status

type AuthenticationType = core.AuthenticationType
type ActorType = core.ActorType
type RoleInActor = core.RoleInActor

type Cache = core.Cache
type SessionStore = core.SessionStore
type SessionIdentity = core.SessionIdentity
type HTTPExecutor = core.HTTPExecutor
type PasswordHasher = core.PasswordHasher
type MetricsRecorder = core.MetricsRecorder
type RateLimitPolicy = core.RateLimitPolicy

const (
	AuthenticationTypeUser        = core.AuthenticationTypeUser
	AuthenticationTypeApplication = core.AuthenticationTypeApplication
)

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithRequestFactory    = core.WithRequestFactory
	WithRequestCache      = core.WithRequestCache
	WithTokenCache        = core.WithTokenCache
	WithCache             = core.WithCache
	WithSessionStore      = core.WithSessionStore
	WithHTTPExecutor      = core.WithHTTPExecutor
	WithPasswordHasher    = core.WithPasswordHasher
	WithClock             = core.WithClock
	WithRateLimitPolicy   = core.WithRateLimitPolicy
	WithSessionTokenCache = core.WithSessionTokenCache
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewPlatform(cfg Config, opts ...Option) (*Platform, error) {
	return core.NewPlatform(cfg, opts...)
}

// WithConfigFile loads a YAML file and STREAMONE_ prefixed environment
// variables beneath the runtime config.
func WithConfigFile(path string) Option {
	return core.WithConfigProvider(core.NewCfgxConfigProvider(config.NewKoanfLoader(config.WithFile(path))))
}

// WithEnvConfig loads only environment variables with the given prefix.
func WithEnvConfig(prefix string) Option {
	return core.WithConfigProvider(core.NewCfgxConfigProvider(config.NewKoanfLoader(config.WithEnvPrefix(prefix))))
}
