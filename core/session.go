package core

import (
	"context"
	"time"
)

// Session manages a login session against the API. Whether it is active
// depends entirely on its store.
type Session struct {
	platform *Platform
	store    SessionStore
}

func newSession(platform *Platform, store SessionStore) *Session {
	return &Session{platform: platform, store: store}
}

func (s *Session) Store() SessionStore {
	return s.store
}

func (s *Session) IsActive(ctx context.Context) bool {
	return s.store.HasSession(ctx)
}

// Start logs in with a username and password. ip identifies the client for
// rate limiting and may be any stable device identifier. The last response
// received is returned alongside any failure.
func (s *Session) Start(ctx context.Context, username string, password string, ip string) (*Response, error) {
	startedAt := time.Now()
	fields := map[string]any{"username": username}

	resp, err := s.start(ctx, username, password, ip)
	s.platform.observeOperation(ctx, startedAt, OperationSessionStart, err, fields)
	return resp, err
}

func (s *Session) start(ctx context.Context, username string, password string, ip string) (*Response, error) {
	initialize := s.platform.NewRequest("session", "initialize").
		SetArgument("user", username).
		SetArgument("userip", ip)

	initResp := initialize.Execute(ctx)
	if err := ResponseError(initResp); err != nil {
		return initResp, err
	}
	challenge, err := decodeBody[SessionInitialize](initResp)
	if err != nil {
		return initResp, err
	}

	answer, ok := s.platform.hasher.ChallengeResponse(password, challenge.Salt, challenge.Challenge)
	if !ok {
		return initResp, ChallengeFailure("core: password challenge could not be computed")
	}

	create := s.platform.NewRequest("session", "create").
		SetArgument("challenge", challenge.Challenge).
		SetArgument("response", answer)
	if challenge.NeedsV2Hash {
		create.SetArgument("v2hash", s.platform.hasher.V2Hash(password))
	}

	createResp := create.Execute(ctx)
	if err := ResponseError(createResp); err != nil {
		return createResp, err
	}
	created, err := decodeBody[SessionCreate](createResp)
	if err != nil {
		return createResp, err
	}

	identity := SessionIdentity{ID: created.ID, Key: created.Key, UserID: created.User}
	timeout := time.Duration(*created.Timeout) * time.Second
	if err := s.store.SetSession(ctx, identity, timeout); err != nil {
		return createResp, MapError(err)
	}
	return createResp, nil
}

// End deletes the session in the API. The local session is cleared whether
// or not the delete call succeeds; the returned error reports the call.
func (s *Session) End(ctx context.Context) error {
	startedAt := time.Now()
	err := s.end(ctx)
	s.platform.observeOperation(ctx, startedAt, OperationSessionEnd, err, nil)
	return err
}

func (s *Session) end(ctx context.Context) error {
	if !s.IsActive(ctx) {
		return NoActiveSession()
	}
	defer s.clear(ctx)
	req, err := s.NewRequest(ctx, "session", "delete")
	if err != nil {
		return err
	}
	return ResponseError(req.Execute(ctx))
}

func (s *Session) clear(ctx context.Context) {
	if err := s.store.ClearSession(ctx); err != nil {
		s.platform.logger.Warn("session clear failed", "error", err)
	}
}

// NewRequest returns a request signed with the active session.
func (s *Session) NewRequest(ctx context.Context, command string, action string) (*Request, error) {
	if !s.IsActive(ctx) {
		return nil, NoActiveSession()
	}
	return s.platform.factory.NewSessionRequest(s.platform, command, action, s.store)
}
