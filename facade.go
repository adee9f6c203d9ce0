package streamone

import (
	"context"
	"fmt"

	"github.com/goliatone/go-streamone/adapters/gocommand"
	streamonecommand "github.com/goliatone/go-streamone/command"
	"github.com/goliatone/go-streamone/core"
	streamonequery "github.com/goliatone/go-streamone/query"
)

type Commands struct {
	StartSession *streamonecommand.StartSessionCommand
	EndSession   *streamonecommand.EndSessionCommand
}

type Queries struct {
	HasToken *streamonequery.HasTokenQuery
	MyTokens *streamonequery.MyTokensQuery
	Roles    *streamonequery.RolesQuery
}

// Facade binds one platform and one session to the command and query
// handlers. Actor queries run through the session while it is active and
// through the platform credentials otherwise.
type Facade struct {
	platform *core.Platform
	session  *core.Session
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	session *core.Session
}

// WithSession binds an existing session instead of a new one on the
// platform session store.
func WithSession(session *core.Session) FacadeOption {
	return func(options *facadeOptions) {
		options.session = session
	}
}

func NewFacade(platform *core.Platform, opts ...FacadeOption) (*Facade, error) {
	if platform == nil {
		return nil, fmt.Errorf("streamone: platform is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	session := cfg.session
	if session == nil {
		session = platform.NewSession()
	}

	facade := &Facade{platform: platform, session: session}
	actors := streamonequery.ActorSourceFunc(facade.actor)
	facade.commands = Commands{
		StartSession: streamonecommand.NewStartSessionCommand(session, session.Store()),
		EndSession:   streamonecommand.NewEndSessionCommand(session),
	}
	facade.queries = Queries{
		HasToken: streamonequery.NewHasTokenQuery(actors),
		MyTokens: streamonequery.NewMyTokensQuery(actors),
		Roles:    streamonequery.NewRolesQuery(actors),
	}
	return facade, nil
}

// New builds a platform from cfg and opts and returns its facade.
func New(cfg Config, opts ...Option) (*Facade, error) {
	platform, err := core.NewPlatform(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return NewFacade(platform)
}

func (f *Facade) Platform() *core.Platform {
	if f == nil {
		return nil
	}
	return f.platform
}

func (f *Facade) Session() *core.Session {
	if f == nil {
		return nil
	}
	return f.session
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

// Actor returns a fresh actor for the current session state.
func (f *Facade) Actor(ctx context.Context) *core.Actor {
	if f.session != nil && f.session.IsActive(ctx) {
		return f.platform.NewActor(f.session)
	}
	return f.platform.NewActor(nil)
}

func (f *Facade) actor(ctx context.Context) (streamonequery.TokenReader, error) {
	if f == nil || f.platform == nil {
		return nil, core.InternalError("streamone: facade is not configured")
	}
	return f.Actor(ctx), nil
}

// Register adds every handler to the registry and subscribes it to the
// go-command dispatcher. On failure the subscriptions made so far are
// released.
func (f *Facade) Register(adapter *gocommand.RegistryAdapter) (gocommand.Subscriptions, error) {
	if f == nil {
		return nil, fmt.Errorf("streamone: facade is required")
	}
	if adapter == nil {
		adapter = gocommand.NewRegistryAdapter(nil)
	}
	var subscriptions gocommand.Subscriptions
	register := func(subscribe func() (gocommand.Subscription, error)) error {
		subscription, err := subscribe()
		if err != nil {
			return err
		}
		subscriptions.Add(subscription)
		return nil
	}
	steps := []func() (gocommand.Subscription, error){
		func() (gocommand.Subscription, error) {
			return gocommand.RegisterAndSubscribe[streamonecommand.StartSessionMessage](adapter, f.commands.StartSession)
		},
		func() (gocommand.Subscription, error) {
			return gocommand.RegisterAndSubscribe[streamonecommand.EndSessionMessage](adapter, f.commands.EndSession)
		},
		func() (gocommand.Subscription, error) {
			return gocommand.RegisterAndSubscribeQuery[streamonequery.HasTokenMessage, bool](adapter, f.queries.HasToken)
		},
		func() (gocommand.Subscription, error) {
			return gocommand.RegisterAndSubscribeQuery[streamonequery.MyTokensMessage, []string](adapter, f.queries.MyTokens)
		},
		func() (gocommand.Subscription, error) {
			return gocommand.RegisterAndSubscribeQuery[streamonequery.RolesMessage, []core.RoleInActor](adapter, f.queries.Roles)
		},
	}
	for _, step := range steps {
		if err := register(step); err != nil {
			subscriptions.Unsubscribe()
			return nil, err
		}
	}
	return subscriptions, nil
}
