package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type platformBuilder struct {
	runtimeConfig     Config
	sessionTokenCache *bool
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	requestFactory    RequestFactory
	requestCache      Cache
	tokenCache        Cache
	sessionStore      SessionStore
	executor          HTTPExecutor
	passwordHasher    PasswordHasher
	rateLimitPolicy   RateLimitPolicy
	clock             Clock
}

type Option func(*platformBuilder)

func WithLogger(logger Logger) Option {
	return func(b *platformBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *platformBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *platformBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *platformBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *platformBuilder) {
		b.optionsResolver = resolver
	}
}

func WithRequestFactory(factory RequestFactory) Option {
	return func(b *platformBuilder) {
		b.requestFactory = factory
	}
}

func WithRequestCache(cache Cache) Option {
	return func(b *platformBuilder) {
		b.requestCache = cache
	}
}

func WithTokenCache(cache Cache) Option {
	return func(b *platformBuilder) {
		b.tokenCache = cache
	}
}

// WithCache uses one cache for both requests and tokens.
func WithCache(cache Cache) Option {
	return func(b *platformBuilder) {
		b.requestCache = cache
		b.tokenCache = cache
	}
}

func WithSessionStore(store SessionStore) Option {
	return func(b *platformBuilder) {
		b.sessionStore = store
	}
}

func WithHTTPExecutor(executor HTTPExecutor) Option {
	return func(b *platformBuilder) {
		b.executor = executor
	}
}

func WithPasswordHasher(hasher PasswordHasher) Option {
	return func(b *platformBuilder) {
		b.passwordHasher = hasher
	}
}

// WithRateLimitPolicy consults policy around every network call. Cached
// responses bypass it.
func WithRateLimitPolicy(policy RateLimitPolicy) Option {
	return func(b *platformBuilder) {
		b.rateLimitPolicy = policy
	}
}

func WithClock(clock Clock) Option {
	return func(b *platformBuilder) {
		b.clock = clock
	}
}

// WithSessionTokenCache overrides use_session_for_token_cache after config
// resolution, so it can be switched off regardless of loaded values.
func WithSessionTokenCache(enabled bool) Option {
	return func(b *platformBuilder) {
		b.sessionTokenCache = &enabled
	}
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

// NewStaticConfigLoader serves a fixed raw map, mostly useful in tests.
func NewStaticConfigLoader(values map[string]any) RawConfigLoader {
	return staticRawConfigLoader{Values: values}
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

// Load merges raw values over defaults. Validation runs once the runtime
// layer has been applied, since credentials are often supplied there.
func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
	)
	if err != nil {
		return Config{}, err
	}
	return resolved, nil
}

// configToLayerMap drops zero values from non default layers so they do not
// mask lower layers. A false boolean is therefore only expressible through
// WithSessionTokenCache.
func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	setString := func(key string, value string) {
		if includeZero || strings.TrimSpace(value) != "" {
			layer[key] = value
		}
	}
	setString("api_url", cfg.APIURL)
	setString("authentication_type", cfg.AuthenticationType.String())
	setString("authenticator_id", cfg.AuthenticatorID)
	setString("authenticator_psk", cfg.AuthenticatorPSK)
	setString("default_account_id", cfg.DefaultAccountID)
	if includeZero || cfg.UseSessionForTokenCache {
		layer["use_session_for_token_cache"] = cfg.UseSessionForTokenCache
	}
	if includeZero || cfg.RequestTimeout > 0 {
		layer["request_timeout"] = cfg.RequestTimeout
	}
	return layer
}

func defaultPlatformBuilder(runtime Config) platformBuilder {
	loggerProvider, logger := glog.Resolve("streamone", nil, nil)
	return platformBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
		requestFactory:  StandardRequestFactory{},
		requestCache:    NoopCache{},
		tokenCache:      NoopCache{},
		clock:           systemClock{},
	}
}
