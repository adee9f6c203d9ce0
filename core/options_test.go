package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fixedConfigProvider struct {
	cfg Config
	err error
}

func (p *fixedConfigProvider) Load(context.Context, Config) (Config, error) {
	return p.cfg, p.err
}

func TestNewPlatformDefaults(t *testing.T) {
	platform := newTestPlatform(t, Config{
		AuthenticatorID:  "user-1",
		AuthenticatorPSK: "psk",
	})
	cfg := platform.Config()
	if cfg.APIURL != DefaultAPIURL {
		t.Fatalf("expected default api url, got %q", cfg.APIURL)
	}
	if cfg.AuthenticationType != AuthenticationTypeUser {
		t.Fatalf("expected user authentication by default, got %q", cfg.AuthenticationType)
	}
	if !cfg.UseSessionForTokenCache || cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("unexpected defaults %#v", cfg)
	}
	if platform.Logger() == nil {
		t.Fatalf("expected default logger")
	}
	if _, ok := platform.RequestCache().(NoopCache); !ok {
		t.Fatalf("expected noop request cache, got %T", platform.RequestCache())
	}
	if _, ok := platform.SessionStore().(*MemorySessionStore); !ok {
		t.Fatalf("expected memory session store, got %T", platform.SessionStore())
	}
}

func TestNewPlatformRejectsInvalidConfig(t *testing.T) {
	cases := map[string]Config{
		"missing id":    {AuthenticatorPSK: "psk"},
		"missing psk":   {AuthenticatorID: "app"},
		"bad auth type": {AuthenticatorID: "app", AuthenticatorPSK: "psk", AuthenticationType: "robot"},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewPlatform(cfg)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !HasTextCode(err, ErrorBadInput) {
				t.Fatalf("expected bad input, got %v", err)
			}
		})
	}
}

func TestNewPlatformLayersConfig(t *testing.T) {
	loader := NewStaticConfigLoader(map[string]any{
		"api_url":             "https://loaded.example.test",
		"authentication_type": "application",
		"authenticator_id":    "loaded-app",
		"authenticator_psk":   "loaded-psk",
		"default_account_id":  "loaded-account",
	})
	platform := newTestPlatform(t,
		Config{AuthenticatorID: "runtime-app"},
		WithConfigProvider(NewCfgxConfigProvider(loader)),
	)
	cfg := platform.Config()
	if cfg.APIURL != "https://loaded.example.test" || cfg.AuthenticatorPSK != "loaded-psk" {
		t.Fatalf("expected loaded values, got %#v", cfg)
	}
	if cfg.AuthenticatorID != "runtime-app" {
		t.Fatalf("expected runtime to win, got %q", cfg.AuthenticatorID)
	}
	if cfg.AuthenticationType != AuthenticationTypeApplication || cfg.DefaultAccountID != "loaded-account" {
		t.Fatalf("unexpected layered config %#v", cfg)
	}
}

func TestNewPlatformConfigProviderErrors(t *testing.T) {
	_, err := NewPlatform(applicationConfig(), WithConfigProvider(&fixedConfigProvider{err: errors.New("config unreadable")}))
	if err == nil {
		t.Fatalf("expected config provider error")
	}
}

func TestWithSessionTokenCacheOverridesConfig(t *testing.T) {
	platform := newTestPlatform(t, applicationConfig(), WithSessionTokenCache(false))
	if platform.Config().UseSessionForTokenCache {
		t.Fatalf("expected session token cache to be disabled")
	}
}

func TestWithCacheSharesOneBackend(t *testing.T) {
	cache := newMemoryCache()
	platform := newTestPlatform(t, applicationConfig(), WithCache(cache))
	if platform.RequestCache() != Cache(cache) || platform.TokenCache() != Cache(cache) {
		t.Fatalf("expected shared cache")
	}
}

func TestParseAuthenticationType(t *testing.T) {
	if got, ok := ParseAuthenticationType(" Application "); !ok || got != AuthenticationTypeApplication {
		t.Fatalf("unexpected parse %q %v", got, ok)
	}
	if _, ok := ParseAuthenticationType("robot"); ok {
		t.Fatalf("expected unknown type to be rejected")
	}
}
