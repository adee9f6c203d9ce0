package core

import "strings"

type AuthenticationType string

const (
	AuthenticationTypeUser        AuthenticationType = "user"
	AuthenticationTypeApplication AuthenticationType = "application"
)

func (t AuthenticationType) Valid() bool {
	switch t {
	case AuthenticationTypeUser, AuthenticationTypeApplication:
		return true
	default:
		return false
	}
}

// ParseAuthenticationType accepts the lowercase API names and is lenient
// about surrounding whitespace and case.
func ParseAuthenticationType(value string) (AuthenticationType, bool) {
	t := AuthenticationType(strings.ToLower(strings.TrimSpace(value)))
	return t, t.Valid()
}

func (t AuthenticationType) String() string {
	return string(t)
}

type ActorType string

const (
	ActorTypeUser        ActorType = "User"
	ActorTypeApplication ActorType = "Application"
)

// APICommand is the command namespace used for actor scoped calls such as
// getmyroles.
func (t ActorType) APICommand() string {
	if t == ActorTypeUser {
		return "user"
	}
	return "application"
}
