// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/obsmenu/lib/clock"
	"github.com/bureau-foundation/obsmenu/lib/menu"
	"github.com/bureau-foundation/obsmenu/lib/queue"
)

// DefaultTickInterval is how long an idle actor waits between loop
// iterations.
const DefaultTickInterval = 100 * time.Millisecond

// ErrActorStopped is returned by Post after the actor loop exited.
var ErrActorStopped = errors.New("service: actor stopped")

// Service is the concrete behavior run by an Actor.
type Service interface {
	// Step does one bounded unit of work. progressed reports whether
	// anything happened; an idle Step lets the actor sleep until the
	// next tick. A non-nil error disables further Step calls.
	Step(ctx context.Context) (progressed bool, err error)
}

// Activator is implemented by services whose menus have interactive
// items. Activate is called on the actor goroutine with a copy of the
// item.
type Activator interface {
	Activate(ctx context.Context, menuID int, item menu.Item)
}

// CommandHandler is implemented by services that understand commands
// beyond the built-in ones. HandleCommand reports whether the command
// was recognized.
type CommandHandler interface {
	HandleCommand(ctx context.Context, command Command) bool
}

// Closer is implemented by services holding resources that must be
// released when the actor exits.
type Closer interface {
	Close() error
}

// ActorOptions configures an Actor.
type ActorOptions struct {
	// DisplayName is the human-readable service name. Defaults to the
	// actor name.
	DisplayName string

	// Clock drives the idle wait. Defaults to the real clock.
	Clock clock.Clock

	// TickInterval is the idle wait. Defaults to DefaultTickInterval.
	TickInterval time.Duration

	// LogLevel is the minimum level forwarded as Log events. Defaults
	// to debug: the host decides what to print.
	LogLevel slog.Leveler
}

// Actor runs one Service on its own goroutine.
type Actor struct {
	name         string
	displayName  string
	clock        clock.Clock
	tickInterval time.Duration

	inbound  *queue.Queue[Command]
	outbound *queue.Queue[Event]
	logger   *slog.Logger

	available atomic.Bool

	startOnce sync.Once
	started   atomic.Bool
	done      chan struct{}

	// Owned by the actor goroutine.
	menus    *menu.Tree
	service  Service
	quit     bool
	stepping bool
}

// NewActor returns an actor that has not been started.
func NewActor(name string, options ActorOptions) *Actor {
	if options.DisplayName == "" {
		options.DisplayName = name
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.TickInterval <= 0 {
		options.TickInterval = DefaultTickInterval
	}
	if options.LogLevel == nil {
		options.LogLevel = slog.LevelDebug
	}

	actor := &Actor{
		name:         name,
		displayName:  options.DisplayName,
		clock:        options.Clock,
		tickInterval: options.TickInterval,
		inbound:      queue.New[Command](),
		outbound:     queue.New[Event](),
		done:         make(chan struct{}),
		menus:        menu.NewTree(),
	}
	actor.logger = slog.New(newEventLogHandler(options.LogLevel, actor.Emit))
	return actor
}

// Name returns the actor's identifier.
func (a *Actor) Name() string { return a.name }

// DisplayName returns the human-readable service name.
func (a *Actor) DisplayName() string { return a.displayName }

// Logger returns a logger whose records become Log events.
func (a *Actor) Logger() *slog.Logger { return a.logger }

// Clock returns the actor's clock.
func (a *Actor) Clock() clock.Clock { return a.clock }

// Available reports whether the service last emitted Ready rather than
// Disconnected.
func (a *Actor) Available() bool { return a.available.Load() }

// Post enqueues a command without blocking.
func (a *Actor) Post(command Command) error {
	if err := a.inbound.Push(command); err != nil {
		return ErrActorStopped
	}
	return nil
}

// Emit enqueues an outbound event without blocking. Ready and
// Disconnected also flip the availability flag.
func (a *Actor) Emit(event Event) {
	switch event.(type) {
	case Ready:
		a.available.Store(true)
	case Disconnected:
		a.available.Store(false)
	}
	// The outbound queue is never closed.
	_ = a.outbound.Push(event)
}

// Notify emits a UserNotification.
func (a *Actor) Notify(message string) {
	a.Emit(UserNotification{Message: message})
}

// NextEvent pops the oldest outbound event.
func (a *Actor) NextEvent() (Event, bool) {
	return a.outbound.TryPop()
}

// DrainEvents pops every queued outbound event.
func (a *Actor) DrainEvents() []Event {
	return a.outbound.Drain()
}

// EventsReady is signalled after events are emitted.
func (a *Actor) EventsReady() <-chan struct{} {
	return a.outbound.Ready()
}

// Done is closed once the loop has exited and the service was closed.
func (a *Actor) Done() <-chan struct{} {
	return a.done
}

// Start launches the loop running svc. Calling Start twice is an
// error.
func (a *Actor) Start(ctx context.Context, svc Service) error {
	if svc == nil {
		return fmt.Errorf("starting actor %q: nil service", a.name)
	}
	started := false
	a.startOnce.Do(func() {
		started = true
		a.service = svc
		a.stepping = true
		a.started.Store(true)
		go a.run(ctx)
	})
	if !started {
		return fmt.Errorf("starting actor %q: already started", a.name)
	}
	return nil
}

// Terminate posts Quit and blocks until the loop has exited and the
// service's Close has returned. Safe to call more than once, and on an
// actor that was never started.
func (a *Actor) Terminate() {
	if !a.started.Load() {
		a.inbound.Close()
		return
	}
	_ = a.Post(Quit{})
	<-a.done
}

func (a *Actor) run(ctx context.Context) {
	defer close(a.done)
	defer a.closeService()
	defer a.inbound.Close()

	for !a.quit {
		if ctx.Err() != nil {
			a.logger.Debug("actor context cancelled", "actor", a.name)
			return
		}

		handled := a.handleOne(ctx)
		if a.quit {
			return
		}

		progressed := false
		if a.stepping {
			progressed = a.step(ctx)
		}
		if handled || progressed {
			continue
		}

		idle := a.clock.NewTimer(a.tickInterval)
		select {
		case <-ctx.Done():
		case <-a.inbound.Ready():
		case <-idle.C:
		}
		idle.Stop()
	}
}

// step calls Step once, demoting the actor on error or panic.
func (a *Actor) step(ctx context.Context) (progressed bool) {
	defer func() {
		if recovered := recover(); recovered != nil {
			a.stepping = false
			progressed = false
			a.logger.Error("service step panicked, stepping disabled",
				"actor", a.name,
				"panic", fmt.Sprint(recovered),
			)
		}
	}()

	progressed, err := a.service.Step(ctx)
	if err != nil {
		a.stepping = false
		a.logger.Error("service step failed, stepping disabled",
			"actor", a.name,
			"error", err,
		)
		return false
	}
	return progressed
}

// handleOne pops and handles at most one inbound command.
func (a *Actor) handleOne(ctx context.Context) bool {
	command, ok := a.inbound.TryPop()
	if !ok {
		return false
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			a.logger.Error("command handling panicked",
				"command", command.Kind(),
				"panic", fmt.Sprint(recovered),
			)
		}
	}()

	switch command := command.(type) {
	case Quit:
		a.quit = true

	case MenuGetItems:
		current, found := a.menus.Get(command.MenuID)
		if !found {
			a.logger.Warn("items requested for unknown menu", "menu", command.MenuID)
			current = menu.Menu{ID: command.MenuID}
		}
		a.Emit(MenuItemsList{Menu: current, Found: found})

	case MenuActivate:
		a.activate(ctx, command)

	case MenuListRequest:
		a.Emit(MenuListChanged{Menus: a.menus.Refs()})

	default:
		handler, ok := a.service.(CommandHandler)
		if !ok || !a.stepping || !handler.HandleCommand(ctx, command) {
			a.logger.Warn("unhandled command", "command", command.Kind())
		}
	}
	return true
}

func (a *Actor) activate(ctx context.Context, command MenuActivate) {
	item, found := a.menus.Item(command.MenuID, command.ItemIndex)
	if !found {
		a.logger.Warn("activation of unknown menu item",
			"menu", command.MenuID,
			"index", command.ItemIndex,
		)
		return
	}
	if command.Label != "" && command.Label != item.Label {
		a.logger.Warn("menu item changed before activation",
			"menu", command.MenuID,
			"index", command.ItemIndex,
			"expected", command.Label,
			"label", item.Label,
		)
		return
	}
	if !item.Interactive() {
		a.logger.Debug("activation of informational item", "label", item.Label)
		return
	}
	if !a.stepping {
		a.logger.Warn("activation ignored, service is disabled", "label", item.Label)
		return
	}
	activator, ok := a.service.(Activator)
	if !ok {
		a.logger.Warn("service has interactive items but no activator", "action", item.Action)
		return
	}
	activator.Activate(ctx, command.MenuID, item)
}

func (a *Actor) closeService() {
	closer, ok := a.service.(Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		a.logger.Warn("closing service", "error", err)
	}
}
