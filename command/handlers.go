package command

import (
	"context"
	"time"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-streamone/core"
)

// SessionManager is satisfied by *core.Session.
type SessionManager interface {
	Start(ctx context.Context, username string, password string, ip string) (*core.Response, error)
	End(ctx context.Context) error
}

// StartSessionResult is stored in the go-command result collector after a
// successful login.
type StartSessionResult struct {
	Response *core.Response
	UserID   string
	Timeout  int
}

type StartSessionCommand struct {
	session SessionManager
	store   core.SessionStore
}

// NewStartSessionCommand logs in through session. store is optional and only
// used to report the stored user and timeout in the result.
func NewStartSessionCommand(session SessionManager, store core.SessionStore) *StartSessionCommand {
	return &StartSessionCommand{session: session, store: store}
}

func (c *StartSessionCommand) Execute(ctx context.Context, msg StartSessionMessage) error {
	if c == nil || c.session == nil {
		return core.InternalError("command: session is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	resp, err := c.session.Start(ctx, msg.Username, msg.Password, msg.IP)
	if err != nil {
		return err
	}
	result := StartSessionResult{Response: resp}
	if c.store != nil {
		if userID, err := c.store.UserID(ctx); err == nil {
			result.UserID = userID
		}
		if timeout, err := c.store.Timeout(ctx); err == nil {
			result.Timeout = remainingSeconds(timeout)
		}
	}
	storeResult(ctx, result)
	return nil
}

type EndSessionCommand struct {
	session SessionManager
}

func NewEndSessionCommand(session SessionManager) *EndSessionCommand {
	return &EndSessionCommand{session: session}
}

func (c *EndSessionCommand) Execute(ctx context.Context, _ EndSessionMessage) error {
	if c == nil || c.session == nil {
		return core.InternalError("command: session is required")
	}
	return c.session.End(ctx)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}

// remainingSeconds rounds to the nearest second, since the deadline has
// already moved by the time it is read back.
func remainingSeconds(timeout time.Duration) int {
	if timeout <= 0 {
		return 0
	}
	return int(timeout.Round(time.Second) / time.Second)
}
