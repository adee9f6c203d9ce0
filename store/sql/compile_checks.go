package sqlstore

import "github.com/goliatone/go-streamone/core"

var _ core.SessionStore = (*SessionStore)(nil)
