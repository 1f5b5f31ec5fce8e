// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package host runs service actors and keeps a per-service view of
// what they publish.
//
// The host is the other side of the actor boundary. It starts each
// actor, drains its outbound queue on a ticker, re-logs Log events
// through the host logger with a "service" attribute, and folds menu
// and notification events into a [ServiceView] that the control socket
// serves. Commands reach an actor only through [service.Actor.Post].
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/bureau-foundation/obsmenu/lib/clock"
	"github.com/bureau-foundation/obsmenu/lib/menu"
	"github.com/bureau-foundation/obsmenu/lib/service"
)

const (
	// DefaultPumpInterval is how often outbound queues are drained.
	DefaultPumpInterval = 50 * time.Millisecond

	// DefaultNotificationLimit is how many notifications each service
	// view retains.
	DefaultNotificationLimit = 64
)

var (
	// ErrUnknownService is returned for a service name that was never
	// started.
	ErrUnknownService = errors.New("host: unknown service")

	// ErrUnknownMenu is returned when a service has no menu with the
	// requested id.
	ErrUnknownMenu = errors.New("host: unknown menu")
)

// Options configures a Host.
type Options struct {
	Logger            *slog.Logger
	Clock             clock.Clock
	PumpInterval      time.Duration
	NotificationLimit int
}

// Notification is one user-facing announcement, numbered per service.
type Notification struct {
	Seq     uint64    `json:"seq"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// ServiceInfo summarizes one running service.
type ServiceInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	// Available mirrors the actor's flag, which flips as soon as the
	// service emits Ready or Disconnected.
	Available bool `json:"available"`
	// Ready is true once the host has drained a Ready event not yet
	// followed by Disconnected.
	Ready bool `json:"ready"`
}

// ServiceView is what the host knows about one service after draining
// its events.
type ServiceView struct {
	Ready         bool
	Menus         []menu.Ref
	Notifications []Notification
}

type entry struct {
	actor *service.Actor

	// Guarded by Host.mu.
	view    ServiceView
	nextSeq uint64
	waiters map[int][]chan service.MenuItemsList
}

// Host owns a set of actors.
type Host struct {
	logger            *slog.Logger
	clock             clock.Clock
	pumpInterval      time.Duration
	notificationLimit int

	mu      sync.Mutex
	entries []*entry
	byName  map[string]*entry
}

// New returns a host with no services.
func New(options Options) *Host {
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.PumpInterval <= 0 {
		options.PumpInterval = DefaultPumpInterval
	}
	if options.NotificationLimit <= 0 {
		options.NotificationLimit = DefaultNotificationLimit
	}
	return &Host{
		logger:            options.Logger,
		clock:             options.Clock,
		pumpInterval:      options.PumpInterval,
		notificationLimit: options.NotificationLimit,
		byName:            make(map[string]*entry),
	}
}

// Start registers actor under its name and starts it running svc.
func (h *Host) Start(ctx context.Context, actor *service.Actor, svc service.Service) error {
	h.mu.Lock()
	if _, exists := h.byName[actor.Name()]; exists {
		h.mu.Unlock()
		return fmt.Errorf("starting service %q: already registered", actor.Name())
	}
	e := &entry{
		actor:   actor,
		waiters: make(map[int][]chan service.MenuItemsList),
	}
	h.entries = append(h.entries, e)
	h.byName[actor.Name()] = e
	h.mu.Unlock()

	if err := actor.Start(ctx, svc); err != nil {
		h.mu.Lock()
		h.entries = slices.DeleteFunc(h.entries, func(other *entry) bool { return other == e })
		delete(h.byName, actor.Name())
		h.mu.Unlock()
		return err
	}
	h.logger.Info("service started", "service", actor.Name(), "display_name", actor.DisplayName())
	return nil
}

// Run drains outbound queues every pump interval until ctx is
// cancelled, then terminates every actor and drains what they emitted
// while shutting down.
func (h *Host) Run(ctx context.Context) error {
	ticker := h.clock.NewTicker(h.pumpInterval)
	defer ticker.Stop()

	for {
		h.Pump()
		select {
		case <-ctx.Done():
			h.Terminate()
			h.Pump()
			return nil
		case <-ticker.C:
		}
	}
}

// Pump drains every actor's outbound queue once and returns the number
// of events handled.
func (h *Host) Pump() int {
	h.mu.Lock()
	entries := slices.Clone(h.entries)
	h.mu.Unlock()

	handled := 0
	for _, e := range entries {
		for _, event := range e.actor.DrainEvents() {
			h.apply(e, event)
			handled++
		}
	}
	return handled
}

// Terminate stops every actor, waiting for each to exit.
func (h *Host) Terminate() {
	h.mu.Lock()
	entries := slices.Clone(h.entries)
	h.mu.Unlock()

	for _, e := range entries {
		e.actor.Terminate()
		h.logger.Debug("service terminated", "service", e.actor.Name())
	}
}

func (h *Host) apply(e *entry, event service.Event) {
	name := e.actor.Name()

	if logged, ok := event.(service.Log); ok {
		h.logger.Log(context.Background(), logged.Level, logged.Message, "service", name)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	switch event := event.(type) {
	case service.Ready:
		e.view.Ready = true
	case service.Disconnected:
		e.view.Ready = false
		e.view.Menus = nil
	case service.MenuListChanged:
		e.view.Menus = slices.Clone(event.Menus)
	case service.MenuUpdate:
		// The view keeps only refs; items are fetched on demand.
	case service.MenuItemsList:
		for _, waiter := range e.waiters[event.Menu.ID] {
			select {
			case waiter <- event:
			default:
			}
		}
		delete(e.waiters, event.Menu.ID)
	case service.UserNotification:
		e.nextSeq++
		e.view.Notifications = append(e.view.Notifications, Notification{
			Seq:     e.nextSeq,
			Message: event.Message,
			Time:    h.clock.Now(),
		})
		if excess := len(e.view.Notifications) - h.notificationLimit; excess > 0 {
			e.view.Notifications = slices.Delete(e.view.Notifications, 0, excess)
		}
	default:
		h.logger.Warn("unhandled service event", "service", name, "kind", event.Kind())
	}
}

func (h *Host) lookup(name string) (*entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownService, name)
	}
	return e, nil
}

// Services lists the running services in start order.
func (h *Host) Services() []ServiceInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	infos := make([]ServiceInfo, 0, len(h.entries))
	for _, e := range h.entries {
		infos = append(infos, ServiceInfo{
			Name:        e.actor.Name(),
			DisplayName: e.actor.DisplayName(),
			Available:   e.actor.Available(),
			Ready:       e.view.Ready,
		})
	}
	return infos
}

// View returns a copy of the named service's view.
func (h *Host) View(name string) (ServiceView, error) {
	e, err := h.lookup(name)
	if err != nil {
		return ServiceView{}, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return ServiceView{
		Ready:         e.view.Ready,
		Menus:         slices.Clone(e.view.Menus),
		Notifications: slices.Clone(e.view.Notifications),
	}, nil
}

// Menus returns the named service's menu list as of the last pump.
// The result is never nil.
func (h *Host) Menus(name string) ([]menu.Ref, error) {
	view, err := h.View(name)
	if err != nil {
		return nil, err
	}
	if view.Menus == nil {
		return []menu.Ref{}, nil
	}
	return view.Menus, nil
}

// Notifications returns the retained notifications with a sequence
// number greater than after.
func (h *Host) Notifications(name string, after uint64) ([]Notification, error) {
	view, err := h.View(name)
	if err != nil {
		return nil, err
	}
	recent := []Notification{}
	for _, notification := range view.Notifications {
		if notification.Seq > after {
			recent = append(recent, notification)
		}
	}
	return recent, nil
}

// Items asks the named service for one menu and waits until a pump
// delivers the answer or ctx is done. Something must be pumping,
// normally Run.
func (h *Host) Items(ctx context.Context, name string, menuID int) (menu.Menu, error) {
	e, err := h.lookup(name)
	if err != nil {
		return menu.Menu{}, err
	}

	waiter := make(chan service.MenuItemsList, 1)
	h.mu.Lock()
	e.waiters[menuID] = append(e.waiters[menuID], waiter)
	h.mu.Unlock()

	if err := e.actor.Post(service.MenuGetItems{MenuID: menuID}); err != nil {
		h.dropWaiter(e, menuID, waiter)
		return menu.Menu{}, fmt.Errorf("requesting items of menu %d from %q: %w", menuID, name, err)
	}

	select {
	case list := <-waiter:
		if !list.Found {
			return menu.Menu{}, fmt.Errorf("%w: %d in %q", ErrUnknownMenu, menuID, name)
		}
		return list.Menu, nil
	case <-ctx.Done():
		h.dropWaiter(e, menuID, waiter)
		return menu.Menu{}, fmt.Errorf("waiting for items of menu %d from %q: %w", menuID, name, ctx.Err())
	}
}

func (h *Host) dropWaiter(e *entry, menuID int, waiter chan service.MenuItemsList) {
	h.mu.Lock()
	defer h.mu.Unlock()
	remaining := slices.DeleteFunc(e.waiters[menuID], func(other chan service.MenuItemsList) bool {
		return other == waiter
	})
	if len(remaining) == 0 {
		delete(e.waiters, menuID)
		return
	}
	e.waiters[menuID] = remaining
}

// Activate posts a MenuActivate command. A non-empty label is checked
// against the item by the actor. The outcome is observed through later
// events.
func (h *Host) Activate(name string, menuID, index int, label string) error {
	return h.post(name, service.MenuActivate{MenuID: menuID, ItemIndex: index, Label: label})
}

// Refresh posts a Refresh command.
func (h *Host) Refresh(name string) error {
	return h.post(name, service.Refresh{})
}

func (h *Host) post(name string, command service.Command) error {
	e, err := h.lookup(name)
	if err != nil {
		return err
	}
	if err := e.actor.Post(command); err != nil {
		return fmt.Errorf("posting %s to %q: %w", command.Kind(), name, err)
	}
	return nil
}
