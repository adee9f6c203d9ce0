package query

import (
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-streamone/core"
)

const (
	TypeHasToken = "streamone.query.actor.has_token"
	TypeMyTokens = "streamone.query.actor.my_tokens"
	TypeRoles    = "streamone.query.actor.roles"
)

// Scope selects the customer or the accounts an actor query runs in. An
// empty scope uses the actor defaults.
type Scope struct {
	Customer string
	Accounts []string
}

func (s Scope) fieldErrors() goerrors.ValidationErrors {
	var fields goerrors.ValidationErrors
	if strings.TrimSpace(s.Customer) != "" && len(s.Accounts) > 0 {
		fields = append(fields, goerrors.FieldError{Field: "scope", Message: "customer and accounts are mutually exclusive"})
	}
	for i, account := range s.Accounts {
		if strings.TrimSpace(account) == "" {
			fields = append(fields, goerrors.FieldError{Field: fmt.Sprintf("scope.accounts[%d]", i), Message: "account id is required"})
		}
	}
	return fields
}

func invalid(messageType string, fields goerrors.ValidationErrors) error {
	if len(fields) == 0 {
		return nil
	}
	return core.InvalidMessage(messageType, fields)
}

type HasTokenMessage struct {
	Token string
	Scope Scope
}

func (HasTokenMessage) Type() string { return TypeHasToken }

func (m HasTokenMessage) Validate() error {
	var fields goerrors.ValidationErrors
	if strings.TrimSpace(m.Token) == "" {
		fields = append(fields, goerrors.FieldError{Field: "token", Message: "token is required"})
	}
	return invalid(TypeHasToken, append(fields, m.Scope.fieldErrors()...))
}

type MyTokensMessage struct {
	Scope Scope
}

func (MyTokensMessage) Type() string { return TypeMyTokens }

func (m MyTokensMessage) Validate() error {
	return invalid(TypeMyTokens, m.Scope.fieldErrors())
}

type RolesMessage struct{}

func (RolesMessage) Type() string { return TypeRoles }

func (RolesMessage) Validate() error { return nil }
