package core

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Actor is a user or application acting within a customer or a set of
// accounts. It answers whether the identity holds a permission token in
// that scope.
type Actor struct {
	platform   *Platform
	session    *Session
	tokenCache Cache

	mu       sync.RWMutex
	customer string
	accounts []string
}

func newActor(platform *Platform, session *Session) *Actor {
	a := &Actor{platform: platform, session: session}
	if session != nil && platform.Config().UseSessionForTokenCache {
		a.tokenCache = newSessionCacheWithClock(session.Store(), platform.clock)
	} else {
		a.tokenCache = platform.tokenCache
	}
	if cfg := platform.Config(); cfg.HasDefaultAccount() {
		a.accounts = []string{cfg.DefaultAccountID}
	}
	return a
}

func (a *Actor) Session() *Session {
	return a.session
}

func (a *Actor) TokenCache() Cache {
	return a.tokenCache
}

// Customer returns the customer scope, if any.
func (a *Actor) Customer() (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.customer, a.customer != ""
}

// SetCustomer scopes the actor to a customer and clears the accounts.
func (a *Actor) SetCustomer(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.customer = id
	a.accounts = nil
}

func (a *Actor) Accounts() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string(nil), a.accounts...)
}

// SetAccounts scopes the actor to the given accounts and clears the
// customer.
func (a *Actor) SetAccounts(ids []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.accounts = append([]string(nil), ids...)
	a.customer = ""
}

func (a *Actor) SetAccount(id string) {
	a.SetAccounts([]string{id})
}

func (a *Actor) scope() (string, []string) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.customer, append([]string(nil), a.accounts...)
}

func (a *Actor) Type() ActorType {
	if a.session != nil || a.platform.Config().AuthenticationType == AuthenticationTypeUser {
		return ActorTypeUser
	}
	return ActorTypeApplication
}

// NewRequest builds a request carrying the actor scope. Without a customer
// or accounts the configured default account is removed as well.
func (a *Actor) NewRequest(ctx context.Context, command string, action string) (*Request, error) {
	req, err := a.cleanRequest(ctx, command, action)
	if err != nil {
		return nil, err
	}
	customer, accounts := a.scope()
	switch {
	case customer != "":
		req.SetCustomer(customer)
	case len(accounts) > 0:
		req.SetAccounts(accounts)
	default:
		req.ClearAccount()
	}
	return req, nil
}

func (a *Actor) cleanRequest(ctx context.Context, command string, action string) (*Request, error) {
	if a.session != nil {
		return a.session.NewRequest(ctx, command, action)
	}
	return a.platform.NewRequest(command, action), nil
}

// HasToken reports whether the actor holds token in its current scope.
func (a *Actor) HasToken(ctx context.Context, token string) (bool, error) {
	startedAt := time.Now()
	customer, accounts := a.scope()
	fields := map[string]any{
		"token":      token,
		"actor_type": string(a.Type()),
	}

	ok, err := a.hasToken(ctx, token, customer, accounts)
	fields["has_token"] = ok
	a.platform.observeOperation(ctx, startedAt, OperationHasToken, err, fields)
	return ok, err
}

func (a *Actor) hasToken(ctx context.Context, token string, customer string, accounts []string) (bool, error) {
	roles, err := a.Roles(ctx)
	if err != nil {
		return false, err
	}

	if needsTokenLookup(roles, accounts) {
		tokens, err := a.MyTokens(ctx)
		if err != nil {
			return false, err
		}
		for _, candidate := range tokens {
			if candidate == token {
				return true, nil
			}
		}
		return false, nil
	}

	if len(accounts) == 0 {
		var customerRef *string
		if customer != "" {
			customerRef = &customer
		}
		for _, role := range roles {
			if role.IsSuperOf(customerRef, nil) && role.Role.HasToken(token) {
				return true, nil
			}
		}
		return false, nil
	}

	for _, account := range accounts {
		if !anyRoleGrants(roles, token, account) {
			return false, nil
		}
	}
	return true, nil
}

// needsTokenLookup detects account scoped checks where a customer role is
// present. Roles do not say which customer owns an account, so the API has
// to resolve those tokens.
func needsTokenLookup(roles []RoleInActor, accounts []string) bool {
	if len(accounts) == 0 {
		return false
	}
	for _, role := range roles {
		if role.Customer != nil {
			return true
		}
	}
	return false
}

func anyRoleGrants(roles []RoleInActor, token string, account string) bool {
	for _, role := range roles {
		if role.IsSuperOf(nil, &account) && role.Role.HasToken(token) {
			return true
		}
	}
	return false
}

// Roles returns the role assignments of the authenticated identity.
func (a *Actor) Roles(ctx context.Context) ([]RoleInActor, error) {
	actorType := a.Type()
	key := a.rolesCacheKey(actorType)
	return loadCached[[]RoleInActor](ctx, a, key, func(ctx context.Context) (*Request, error) {
		return a.NewRequest(ctx, actorType.APICommand(), "getmyroles")
	})
}

// MyTokens returns the tokens the API grants in the current scope.
func (a *Actor) MyTokens(ctx context.Context) ([]string, error) {
	return loadCached[[]string](ctx, a, a.tokensCacheKey(), func(ctx context.Context) (*Request, error) {
		return a.NewRequest(ctx, "api", "mytokens")
	})
}

func (a *Actor) rolesCacheKey(actorType ActorType) string {
	return "s1:roles:" + string(actorType) + ":" + a.platform.Config().AuthenticatorID
}

func (a *Actor) tokensCacheKey() string {
	customer, accounts := a.scope()
	return "s1:tokens:" + a.platform.Config().AuthenticationType.String() + ":" + customer + ":" + strings.Join(accounts, ",")
}

// loadCached serves a typed body from the token cache, or fetches it and
// stores the whole response payload on success.
func loadCached[T any](
	ctx context.Context,
	a *Actor,
	key string,
	build func(ctx context.Context) (*Request, error),
) (T, error) {
	if raw, ok := a.tokenCache.Get(ctx, key); ok {
		if value, err := decodeBody[T](ParseResponse(raw, nil)); err == nil {
			return value, nil
		}
	}

	var zero T
	req, err := build(ctx)
	if err != nil {
		return zero, err
	}
	resp := req.Execute(ctx)
	if err := ResponseError(resp); err != nil {
		return zero, err
	}
	value, err := decodeBody[T](resp)
	if err != nil {
		return zero, err
	}
	a.tokenCache.Set(ctx, key, resp.Raw())
	return value, nil
}
