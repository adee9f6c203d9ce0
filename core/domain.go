package core

import (
	"fmt"
	"strings"
)

type BasicAccount struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type BasicCustomer struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DateCreated  string `json:"datecreated"`
	DateModified string `json:"datemodified"`
}

type Role struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Customer *BasicCustomer `json:"customer,omitempty"`
	Tokens   []string       `json:"tokens"`
}

func (r Role) HasToken(token string) bool {
	for _, candidate := range r.Tokens {
		if candidate == token {
			return true
		}
	}
	return false
}

// RoleInActor is a role assignment, optionally scoped to a customer or an
// account.
type RoleInActor struct {
	Role     Role           `json:"role"`
	Customer *BasicCustomer `json:"customer,omitempty"`
	Account  *BasicAccount  `json:"account,omitempty"`
}

func (r RoleInActor) ValidateBody() error {
	if strings.TrimSpace(r.Role.ID) == "" {
		return fmt.Errorf("missing key role.id")
	}
	if r.Role.Tokens == nil {
		return fmt.Errorf("missing key role.tokens")
	}
	if r.Customer != nil && r.Customer.ID == "" {
		return fmt.Errorf("missing key customer.id")
	}
	if r.Account != nil && r.Account.ID == "" {
		return fmt.Errorf("missing key account.id")
	}
	return nil
}

// IsSuperOf reports whether the assignment covers the given customer or
// account. A customer scoped role does not cover accounts: there is no way to
// tell which customer owns an account from the role list alone.
func (r RoleInActor) IsSuperOf(customer *string, account *string) bool {
	if r.Customer == nil && r.Account == nil {
		return true
	}
	if r.Account == nil && customer != nil && r.Customer != nil && r.Customer.ID == *customer {
		return true
	}
	if r.Account != nil && account != nil && r.Account.ID == *account {
		return true
	}
	return false
}

type SessionInitialize struct {
	Challenge   string `json:"challenge"`
	Salt        string `json:"salt"`
	NeedsV2Hash bool   `json:"needsv2hash"`
}

func (s SessionInitialize) ValidateBody() error {
	if s.Challenge == "" {
		return fmt.Errorf("missing key challenge")
	}
	if s.Salt == "" {
		return fmt.Errorf("missing key salt")
	}
	return nil
}

type SessionCreate struct {
	ID      string `json:"id"`
	Key     string `json:"key"`
	// Timeout is nil when the key is absent. Zero is accepted and yields an
	// already expired session.
	Timeout *int   `json:"timeout"`
	User    string `json:"user"`
}

func (s SessionCreate) ValidateBody() error {
	switch {
	case s.ID == "":
		return fmt.Errorf("missing key id")
	case s.Key == "":
		return fmt.Errorf("missing key key")
	case s.User == "":
		return fmt.Errorf("missing key user")
	case s.Timeout == nil:
		return fmt.Errorf("missing key timeout")
	}
	return nil
}
