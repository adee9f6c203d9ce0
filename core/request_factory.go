package core

// StandardRequestFactory builds requests signed with the platform
// credentials, optionally bound to a session store.
type StandardRequestFactory struct{}

func (StandardRequestFactory) NewRequest(platform *Platform, command string, action string) *Request {
	return newRequest(platform, command, action, NewDirectAuth(platform.Config()))
}

// NewSessionRequest refuses user authenticated configurations: sessions are
// only available to applications.
func (StandardRequestFactory) NewSessionRequest(
	platform *Platform,
	command string,
	action string,
	store SessionStore,
) (*Request, error) {
	cfg := platform.Config()
	if cfg.AuthenticationType == AuthenticationTypeUser {
		return nil, UnsupportedAuthentication(cfg.AuthenticationType)
	}
	if store == nil {
		return nil, InternalError("core: session store is required")
	}
	auth := NewSessionAuth(cfg, store)
	auth.logger = platform.logger
	return newRequest(platform, command, action, auth), nil
}
