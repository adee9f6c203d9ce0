package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ Cache          = NoopCache{}
	_ Cache          = (*SessionCache)(nil)
	_ SessionStore   = (*MemorySessionStore)(nil)
	_ RequestFactory = StandardRequestFactory{}
	_ AuthStrategy   = DirectAuth{}
	_ AuthStrategy   = (*SessionAuth)(nil)
	_ HTTPExecutor   = HTTPExecutorFunc(nil)
	_ Clock          = ClockFunc(nil)

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
