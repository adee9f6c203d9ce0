package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultAPIURL         = "https://api.streamonecloud.net"
	defaultRequestTimeout = 30 * time.Second
)

type Config struct {
	APIURL                  string             `koanf:"api_url" mapstructure:"api_url"`
	AuthenticationType      AuthenticationType `koanf:"authentication_type" mapstructure:"authentication_type"`
	AuthenticatorID         string             `koanf:"authenticator_id" mapstructure:"authenticator_id"`
	AuthenticatorPSK        string             `koanf:"authenticator_psk" mapstructure:"authenticator_psk"`
	DefaultAccountID        string             `koanf:"default_account_id" mapstructure:"default_account_id"`
	UseSessionForTokenCache bool               `koanf:"use_session_for_token_cache" mapstructure:"use_session_for_token_cache"`
	RequestTimeout          time.Duration      `koanf:"request_timeout" mapstructure:"request_timeout"`
}

func DefaultConfig() Config {
	return Config{
		APIURL:                  DefaultAPIURL,
		AuthenticationType:      AuthenticationTypeUser,
		UseSessionForTokenCache: true,
		RequestTimeout:          defaultRequestTimeout,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return fmt.Errorf("core: api_url is required")
	}
	if !c.AuthenticationType.Valid() {
		return fmt.Errorf("core: invalid authentication_type %q", c.AuthenticationType)
	}
	if strings.TrimSpace(c.AuthenticatorID) == "" {
		return fmt.Errorf("core: authenticator_id is required")
	}
	if c.AuthenticatorPSK == "" {
		return fmt.Errorf("core: authenticator_psk is required")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("core: request_timeout must not be negative")
	}
	return nil
}

// HasDefaultAccount reports whether requests should be scoped to an account
// when none is set explicitly.
func (c Config) HasDefaultAccount() bool {
	return strings.TrimSpace(c.DefaultAccountID) != ""
}
