package core

import (
	"context"

	"github.com/goliatone/go-streamone/adapters/gologger"
	"github.com/goliatone/go-streamone/password"
	"github.com/goliatone/go-streamone/transport"
)

// Platform holds the resolved configuration and the collaborators shared by
// requests, sessions and actors.
type Platform struct {
	config         Config
	logger         Logger
	loggerProvider LoggerProvider
	metrics        MetricsRecorder
	factory        RequestFactory
	requestCache   Cache
	tokenCache     Cache
	sessionStore   SessionStore
	executor       HTTPExecutor
	hasher         PasswordHasher
	rateLimit      RateLimitPolicy
	clock          Clock
}

// NewPlatform resolves configuration through the config provider and the
// options resolver, then validates the result.
func NewPlatform(cfg Config, opts ...Option) (*Platform, error) {
	builder := defaultPlatformBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := gologger.Resolve("streamone", builder.loggerProvider, builder.logger)

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, MapError(err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, MapError(err)
	}
	if builder.sessionTokenCache != nil {
		finalConfig.UseSessionForTokenCache = *builder.sessionTokenCache
	}
	if err := finalConfig.Validate(); err != nil {
		return nil, MapError(err)
	}

	if builder.clock == nil {
		builder.clock = systemClock{}
	}
	if builder.requestFactory == nil {
		builder.requestFactory = StandardRequestFactory{}
	}
	if builder.requestCache == nil {
		builder.requestCache = NoopCache{}
	}
	if builder.tokenCache == nil {
		builder.tokenCache = NoopCache{}
	}
	if builder.sessionStore == nil {
		builder.sessionStore = NewMemorySessionStore(WithSessionStoreClock(builder.clock))
	}
	if builder.executor == nil {
		builder.executor = transport.NewHTTPExecutor(nil, transport.WithTimeout(finalConfig.RequestTimeout))
	}
	if builder.passwordHasher == nil {
		builder.passwordHasher = password.Hasher{}
	}

	return &Platform{
		config:         finalConfig,
		logger:         logger,
		loggerProvider: provider,
		metrics:        builder.metricsRecorder,
		factory:        builder.requestFactory,
		requestCache:   builder.requestCache,
		tokenCache:     builder.tokenCache,
		sessionStore:   builder.sessionStore,
		executor:       builder.executor,
		hasher:         builder.passwordHasher,
		rateLimit:      builder.rateLimitPolicy,
		clock:          builder.clock,
	}, nil
}

func (p *Platform) Config() Config {
	if p == nil {
		return Config{}
	}
	return p.config
}

func (p *Platform) Logger() Logger {
	return p.logger
}

func (p *Platform) RequestCache() Cache {
	return p.requestCache
}

func (p *Platform) TokenCache() Cache {
	return p.tokenCache
}

func (p *Platform) SessionStore() SessionStore {
	return p.sessionStore
}

func (p *Platform) NewRequest(command string, action string) *Request {
	return p.factory.NewRequest(p, command, action)
}

// NewSession uses the platform session store.
func (p *Platform) NewSession() *Session {
	return newSession(p, p.sessionStore)
}

func (p *Platform) NewSessionWithStore(store SessionStore) *Session {
	if store == nil {
		store = p.sessionStore
	}
	return newSession(p, store)
}

// NewActor returns an actor acting through session, or through the
// platform credentials when session is nil.
func (p *Platform) NewActor(session *Session) *Actor {
	return newActor(p, session)
}
