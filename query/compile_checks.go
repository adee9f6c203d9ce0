package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-streamone/core"
)

var (
	_ gocmd.Querier[HasTokenMessage, bool]            = (*HasTokenQuery)(nil)
	_ gocmd.Querier[MyTokensMessage, []string]        = (*MyTokensQuery)(nil)
	_ gocmd.Querier[RolesMessage, []core.RoleInActor] = (*RolesQuery)(nil)
	_ TokenReader                                     = (*core.Actor)(nil)
	_ ActorSource                                     = ActorSourceFunc(nil)
)
