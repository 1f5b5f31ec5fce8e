// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"log/slog"

	"github.com/bureau-foundation/obsmenu/lib/menu"
)

// Event is a message from an actor to its host. Events from one actor
// are delivered in the order they were emitted; there is no ordering
// between actors.
type Event interface {
	// Kind names the event in logs and on the control socket.
	Kind() string
}

// Log is an operator-facing log line.
type Log struct {
	Level   slog.Level
	Message string
}

// Disconnected reports that the service lost its remote peer. Every
// menu the service published has been removed by the time the host
// sees this.
type Disconnected struct{}

// Ready reports that the service completed its handshake and is
// usable.
type Ready struct{}

// UserNotification is a user-facing announcement.
type UserNotification struct {
	Message string
}

// MenuListChanged carries the full ordered menu list after a menu was
// added or removed, or in answer to [MenuListRequest].
type MenuListChanged struct {
	Menus []menu.Ref
}

// MenuUpdate carries one menu whose items changed.
type MenuUpdate struct {
	Menu menu.Menu
}

// MenuItemsList answers [MenuGetItems]. Found is false when the
// requested menu does not exist; Menu then carries only the requested
// id.
type MenuItemsList struct {
	Menu  menu.Menu
	Found bool
}

func (Log) Kind() string              { return "log" }
func (Disconnected) Kind() string     { return "disconnected" }
func (Ready) Kind() string            { return "ready" }
func (UserNotification) Kind() string { return "user_notification" }
func (MenuListChanged) Kind() string  { return "menu_list_changed" }
func (MenuUpdate) Kind() string       { return "menu_update" }
func (MenuItemsList) Kind() string    { return "menu_items_list" }
