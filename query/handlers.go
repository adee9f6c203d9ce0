package query

import (
	"context"
	"strings"

	"github.com/goliatone/go-streamone/core"
)

// TokenReader is satisfied by *core.Actor.
type TokenReader interface {
	SetCustomer(id string)
	SetAccounts(ids []string)
	HasToken(ctx context.Context, token string) (bool, error)
	MyTokens(ctx context.Context) ([]string, error)
	Roles(ctx context.Context) ([]core.RoleInActor, error)
}

// ActorSource returns a fresh actor for every query so scopes never leak
// between calls.
type ActorSource interface {
	Actor(ctx context.Context) (TokenReader, error)
}

type ActorSourceFunc func(ctx context.Context) (TokenReader, error)

func (fn ActorSourceFunc) Actor(ctx context.Context) (TokenReader, error) {
	return fn(ctx)
}

type HasTokenQuery struct {
	actors ActorSource
}

func NewHasTokenQuery(actors ActorSource) *HasTokenQuery {
	return &HasTokenQuery{actors: actors}
}

func (q *HasTokenQuery) Query(ctx context.Context, msg HasTokenMessage) (bool, error) {
	if q == nil || q.actors == nil {
		return false, core.InternalError("query: actor source is required")
	}
	if err := msg.Validate(); err != nil {
		return false, err
	}
	actor, err := scopedActor(ctx, q.actors, msg.Scope)
	if err != nil {
		return false, err
	}
	return actor.HasToken(ctx, msg.Token)
}

type MyTokensQuery struct {
	actors ActorSource
}

func NewMyTokensQuery(actors ActorSource) *MyTokensQuery {
	return &MyTokensQuery{actors: actors}
}

func (q *MyTokensQuery) Query(ctx context.Context, msg MyTokensMessage) ([]string, error) {
	if q == nil || q.actors == nil {
		return nil, core.InternalError("query: actor source is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	actor, err := scopedActor(ctx, q.actors, msg.Scope)
	if err != nil {
		return nil, err
	}
	return actor.MyTokens(ctx)
}

type RolesQuery struct {
	actors ActorSource
}

func NewRolesQuery(actors ActorSource) *RolesQuery {
	return &RolesQuery{actors: actors}
}

func (q *RolesQuery) Query(ctx context.Context, _ RolesMessage) ([]core.RoleInActor, error) {
	if q == nil || q.actors == nil {
		return nil, core.InternalError("query: actor source is required")
	}
	actor, err := q.actors.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, core.InternalError("query: actor source returned no actor")
	}
	return actor.Roles(ctx)
}

func scopedActor(ctx context.Context, actors ActorSource, scope Scope) (TokenReader, error) {
	actor, err := actors.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, core.InternalError("query: actor source returned no actor")
	}
	switch {
	case strings.TrimSpace(scope.Customer) != "":
		actor.SetCustomer(strings.TrimSpace(scope.Customer))
	case len(scope.Accounts) > 0:
		actor.SetAccounts(scope.Accounts)
	}
	return actor, nil
}
