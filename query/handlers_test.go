package query

import (
	"context"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-streamone/core"
)

func TestHasTokenQuery_AppliesScopeAndDelegates(t *testing.T) {
	actor := &stubActor{hasToken: true}
	qry := NewHasTokenQuery(ActorSourceFunc(func(context.Context) (TokenReader, error) {
		return actor, nil
	}))

	allowed, err := qry.Query(context.Background(), HasTokenMessage{
		Token: "item-view",
		Scope: Scope{Accounts: []string{"acc1", "acc2"}},
	})
	if err != nil {
		t.Fatalf("query has token: %v", err)
	}
	if !allowed {
		t.Fatalf("expected token to be granted")
	}
	if actor.lastToken != "item-view" {
		t.Fatalf("unexpected token: %q", actor.lastToken)
	}
	if strings.Join(actor.accounts, ",") != "acc1,acc2" || actor.customer != "" {
		t.Fatalf("unexpected scope: customer=%q accounts=%v", actor.customer, actor.accounts)
	}
}

func TestMyTokensQuery_CustomerScope(t *testing.T) {
	actor := &stubActor{tokens: []string{"item-view", "item-edit"}}
	qry := NewMyTokensQuery(ActorSourceFunc(func(context.Context) (TokenReader, error) {
		return actor, nil
	}))

	tokens, err := qry.Query(context.Background(), MyTokensMessage{Scope: Scope{Customer: " cust1 "}})
	if err != nil {
		t.Fatalf("query my tokens: %v", err)
	}
	if len(tokens) != 2 || actor.customer != "cust1" {
		t.Fatalf("unexpected tokens %v for customer %q", tokens, actor.customer)
	}
}

func TestRolesQuery_Delegates(t *testing.T) {
	actor := &stubActor{roles: []core.RoleInActor{{Role: core.Role{ID: "r1", Tokens: []string{"a"}}}}}
	roles, err := NewRolesQuery(ActorSourceFunc(func(context.Context) (TokenReader, error) {
		return actor, nil
	})).Query(context.Background(), RolesMessage{})
	if err != nil {
		t.Fatalf("query roles: %v", err)
	}
	if len(roles) != 1 || roles[0].Role.ID != "r1" {
		t.Fatalf("unexpected roles: %#v", roles)
	}
}

func TestActorQueries_ValidationEnvelope(t *testing.T) {
	source := ActorSourceFunc(func(context.Context) (TokenReader, error) {
		t.Fatalf("actor should not be resolved for invalid input")
		return nil, nil
	})
	cases := []struct {
		name string
		run  func() error
	}{
		{name: "missing token", run: func() error {
			_, err := NewHasTokenQuery(source).Query(context.Background(), HasTokenMessage{})
			return err
		}},
		{name: "customer and accounts", run: func() error {
			_, err := NewHasTokenQuery(source).Query(context.Background(), HasTokenMessage{
				Token: "t",
				Scope: Scope{Customer: "c", Accounts: []string{"a"}},
			})
			return err
		}},
		{name: "blank account", run: func() error {
			_, err := NewMyTokensQuery(source).Query(context.Background(), MyTokensMessage{Scope: Scope{Accounts: []string{" "}}})
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.run()
			var rich *goerrors.Error
			if !goerrors.As(err, &rich) {
				t.Fatalf("expected go-errors envelope, got %T", err)
			}
			if rich.Category != goerrors.CategoryValidation || rich.TextCode != core.ErrorBadInput {
				t.Fatalf("unexpected envelope: %q %q", rich.Category, rich.TextCode)
			}
		})
	}
}

func TestActorQueries_NilSourceReturnsRichError(t *testing.T) {
	var qry *RolesQuery
	_, err := qry.Query(context.Background(), RolesMessage{})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != core.ErrorInternal {
		t.Fatalf("expected internal envelope, got %v", err)
	}

	_, err = NewHasTokenQuery(ActorSourceFunc(func(context.Context) (TokenReader, error) {
		return nil, nil
	})).Query(context.Background(), HasTokenMessage{Token: "t"})
	if !goerrors.As(err, &rich) || rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal envelope for missing actor, got %v", err)
	}
}

func TestHasTokenQuery_AgainstPlatformActor(t *testing.T) {
	calls := map[string]int{}
	executor := core.HTTPExecutorFunc(func(_ context.Context, url string, _ []byte) ([]byte, error) {
		switch {
		case strings.Contains(url, "/application/getmyroles"):
			calls["roles"]++
			return []byte(`{"header":{"status":0,"statusmessage":"OK"},"body":[` +
				`{"role":{"id":"r1","name":"editor","tokens":["item-view"]},"account":{"id":"acc1","name":"Account"}}]}`), nil
		}
		t.Fatalf("unexpected url %q", url)
		return nil, nil
	})
	platform, err := core.NewPlatform(core.Config{
		AuthenticationType: core.AuthenticationTypeApplication,
		AuthenticatorID:    "app",
		AuthenticatorPSK:   "psk",
	}, core.WithHTTPExecutor(executor))
	if err != nil {
		t.Fatalf("new platform: %v", err)
	}
	qry := NewHasTokenQuery(ActorSourceFunc(func(context.Context) (TokenReader, error) {
		return platform.NewActor(nil), nil
	}))

	allowed, err := qry.Query(context.Background(), HasTokenMessage{Token: "item-view", Scope: Scope{Accounts: []string{"acc1"}}})
	if err != nil || !allowed {
		t.Fatalf("expected token on acc1, got %v %v", allowed, err)
	}
	allowed, err = qry.Query(context.Background(), HasTokenMessage{Token: "item-view", Scope: Scope{Accounts: []string{"acc2"}}})
	if err != nil || allowed {
		t.Fatalf("expected no token on acc2, got %v %v", allowed, err)
	}
	if calls["roles"] != 2 {
		t.Fatalf("expected uncached role lookups, got %d", calls["roles"])
	}
}

type stubActor struct {
	customer  string
	accounts  []string
	lastToken string
	hasToken  bool
	tokens    []string
	roles     []core.RoleInActor
}

func (s *stubActor) SetCustomer(id string) {
	s.customer = id
	s.accounts = nil
}

func (s *stubActor) SetAccounts(ids []string) {
	s.accounts = append([]string(nil), ids...)
	s.customer = ""
}

func (s *stubActor) HasToken(_ context.Context, token string) (bool, error) {
	s.lastToken = token
	return s.hasToken, nil
}

func (s *stubActor) MyTokens(context.Context) ([]string, error) {
	return s.tokens, nil
}

func (s *stubActor) Roles(context.Context) ([]core.RoleInActor, error) {
	return s.roles, nil
}
