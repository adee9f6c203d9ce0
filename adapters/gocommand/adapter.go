// Package gocommand exposes the StreamOne session commands and actor queries
// through the go-command registry and dispatcher.
package gocommand

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	"github.com/goliatone/go-streamone/core"
)

type Subscription = commanddispatcher.Subscription

// RegistryAdapter records which StreamOne message types were bound to a
// go-command registry.
type RegistryAdapter struct {
	registry *command.Registry

	mu    sync.Mutex
	types map[string]struct{}
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{
		registry: registry,
		types:    map[string]struct{}{},
	}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

// MessageTypes lists the bound message types in lexical order.
func (a *RegistryAdapter) MessageTypes() []string {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.types))
	for messageType := range a.types {
		out = append(out, messageType)
	}
	sort.Strings(out)
	return out
}

// Initialize runs the registry resolvers once every handler is bound.
func (a *RegistryAdapter) Initialize() error {
	if err := a.ready(); err != nil {
		return err
	}
	return a.registry.Initialize()
}

func (a *RegistryAdapter) ready() error {
	if a == nil || a.registry == nil {
		return core.InternalError("gocommand: registry is not configured")
	}
	return nil
}

// bind registers handler and keeps the dispatcher subscription only when the
// registry accepted it.
func (a *RegistryAdapter) bind(messageType string, handler any, subscribe func() Subscription) (Subscription, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	messageType = strings.TrimSpace(messageType)
	if messageType == "" {
		return nil, core.InternalError("gocommand: message type is required")
	}
	subscription := subscribe()
	if err := a.registry.RegisterCommand(handler); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	a.mu.Lock()
	a.types[messageType] = struct{}{}
	a.mu.Unlock()
	return subscription, nil
}

// RegisterAndSubscribe binds a session command.
func RegisterAndSubscribe[T command.Message](adapter *RegistryAdapter, cmd command.Commander[T], runnerOpts ...runner.Option) (Subscription, error) {
	if cmd == nil {
		return nil, core.InternalError("gocommand: command handler is required")
	}
	var msg T
	return adapter.bind(msg.Type(), cmd, func() Subscription {
		return commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
	})
}

// RegisterAndSubscribeQuery binds an actor query.
func RegisterAndSubscribeQuery[T command.Message, R any](adapter *RegistryAdapter, qry command.Querier[T, R], runnerOpts ...runner.Option) (Subscription, error) {
	if qry == nil {
		return nil, core.InternalError("gocommand: query handler is required")
	}
	var msg T
	return adapter.bind(msg.Type(), qry, func() Subscription {
		return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
	})
}

// Dispatch validates msg before handing it to the dispatcher, so malformed
// session commands never reach the platform.
func Dispatch[T command.Message](ctx context.Context, msg T) error {
	if err := command.ValidateMessage(msg); err != nil {
		return core.MapError(err)
	}
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T command.Message, R any](ctx context.Context, msg T) (R, error) {
	if err := command.ValidateMessage(msg); err != nil {
		var zero R
		return zero, core.MapError(err)
	}
	return commanddispatcher.Query[T, R](ctx, msg)
}

// Subscriptions releases dispatcher subscriptions in reverse order.
type Subscriptions []Subscription

func (s *Subscriptions) Add(subscription Subscription) {
	if s == nil || subscription == nil {
		return
	}
	*s = append(*s, subscription)
}

func (s Subscriptions) Unsubscribe() {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] != nil {
			s[i].Unsubscribe()
		}
	}
}
