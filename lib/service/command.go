// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

// Command is a message from the host to an actor. The commands in this
// file are understood by every actor; a service may define more and
// receives them through [CommandHandler].
type Command interface {
	// Kind names the command in logs.
	Kind() string
}

// Quit stops the actor loop at the next iteration boundary.
type Quit struct{}

// MenuGetItems asks for the current items of one menu. The actor
// answers with [MenuItemsList].
type MenuGetItems struct {
	MenuID int
}

// MenuActivate asks the service to perform the action of one item.
// A non-empty Label must match the item's current label; otherwise the
// menu changed since the caller read it and nothing is activated.
type MenuActivate struct {
	MenuID    int
	ItemIndex int
	Label     string
}

// MenuListRequest asks for the current menu list. The actor answers
// with [MenuListChanged].
type MenuListRequest struct{}

// Refresh asks the service to re-read its remote state.
type Refresh struct{}

func (Quit) Kind() string            { return "quit" }
func (MenuGetItems) Kind() string    { return "menu_get_items" }
func (MenuActivate) Kind() string    { return "menu_activate" }
func (MenuListRequest) Kind() string { return "menu_list_request" }
func (Refresh) Kind() string         { return "refresh" }
