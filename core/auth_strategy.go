package core

import (
	"context"
	"time"
)

// AuthStrategy contributes the signing key and the identity parameters of a
// request, and observes the response once it arrives.
type AuthStrategy interface {
	SigningKey(ctx context.Context) (string, error)
	SigningParameters(ctx context.Context, params map[string]string) error
	OnResponse(ctx context.Context, resp *Response)
}

// DirectAuth signs with the configured pre-shared key alone.
type DirectAuth struct {
	AuthenticationType AuthenticationType
	AuthenticatorID    string
	PSK                string
}

func NewDirectAuth(cfg Config) DirectAuth {
	return DirectAuth{
		AuthenticationType: cfg.AuthenticationType,
		AuthenticatorID:    cfg.AuthenticatorID,
		PSK:                cfg.AuthenticatorPSK,
	}
}

func (a DirectAuth) SigningKey(context.Context) (string, error) {
	return a.PSK, nil
}

func (a DirectAuth) SigningParameters(_ context.Context, params map[string]string) error {
	params[a.AuthenticationType.String()] = a.AuthenticatorID
	return nil
}

func (DirectAuth) OnResponse(context.Context, *Response) {}

// SessionAuth extends DirectAuth with the session id and key from a store.
type SessionAuth struct {
	DirectAuth
	Store  SessionStore
	logger Logger
}

func NewSessionAuth(cfg Config, store SessionStore) *SessionAuth {
	return &SessionAuth{DirectAuth: NewDirectAuth(cfg), Store: store}
}

func (a *SessionAuth) SigningKey(ctx context.Context) (string, error) {
	key, err := a.Store.Key(ctx)
	if err != nil {
		return "", err
	}
	return a.PSK + key, nil
}

func (a *SessionAuth) SigningParameters(ctx context.Context, params map[string]string) error {
	if err := a.DirectAuth.SigningParameters(ctx, params); err != nil {
		return err
	}
	id, err := a.Store.ID(ctx)
	if err != nil {
		return err
	}
	params["session"] = id
	return nil
}

// OnResponse extends the session lifetime when the API reports a new
// timeout.
func (a *SessionAuth) OnResponse(ctx context.Context, resp *Response) {
	header, ok := resp.Header()
	if !ok {
		return
	}
	seconds, ok := header.Number("sessiontimeout")
	if !ok {
		return
	}
	timeout := time.Duration(seconds * float64(time.Second))
	if err := a.Store.SetTimeout(ctx, timeout); err != nil && a.logger != nil {
		a.logger.Warn("session timeout refresh failed", "error", err)
	}
}
