package command

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-streamone/core"
)

const (
	TypeStartSession = "streamone.command.session.start"
	TypeEndSession   = "streamone.command.session.end"
)

type StartSessionMessage struct {
	Username string
	Password string
	// IP identifies the client to the API rate limiter. Any stable device
	// identifier works.
	IP string
}

func (StartSessionMessage) Type() string { return TypeStartSession }

// Validate reports all missing credentials at once.
func (m StartSessionMessage) Validate() error {
	var fields goerrors.ValidationErrors
	if strings.TrimSpace(m.Username) == "" {
		fields = append(fields, goerrors.FieldError{Field: "username", Message: "username is required"})
	}
	if m.Password == "" {
		fields = append(fields, goerrors.FieldError{Field: "password", Message: "password is required"})
	}
	if strings.TrimSpace(m.IP) == "" {
		fields = append(fields, goerrors.FieldError{Field: "ip", Message: "ip is required"})
	}
	if len(fields) > 0 {
		return core.InvalidMessage(TypeStartSession, fields)
	}
	return nil
}

type EndSessionMessage struct{}

func (EndSessionMessage) Type() string { return TypeEndSession }

func (EndSessionMessage) Validate() error { return nil }
