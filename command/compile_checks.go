package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-streamone/core"
)

var (
	_ gocmd.Commander[StartSessionMessage] = (*StartSessionCommand)(nil)
	_ gocmd.Commander[EndSessionMessage]   = (*EndSessionCommand)(nil)
	_ SessionManager                       = (*core.Session)(nil)
)
