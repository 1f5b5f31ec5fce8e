// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"fmt"

	"github.com/bureau-foundation/obsmenu/lib/menu"
)

// The menu primitives below must only be called from the actor
// goroutine, which in practice means from Step, Activate or
// HandleCommand.

// AddMenu appends a menu and emits MenuListChanged. An empty name is
// replaced by "menu <id>".
func (a *Actor) AddMenu(name string, items []menu.Item) int {
	id := a.menus.Add(name, items)
	if name == "" {
		fallback := fmt.Sprintf("menu %d", id)
		a.logger.Warn("menu added without a name", "menu", id, "name", fallback)
		a.menus.Rename(id, fallback)
	}
	a.Emit(MenuListChanged{Menus: a.menus.Refs()})
	return id
}

// RemoveMenu deletes a menu and emits MenuListChanged. Unknown ids are
// ignored.
func (a *Actor) RemoveMenu(id int) bool {
	if !a.menus.Remove(id) {
		return false
	}
	a.Emit(MenuListChanged{Menus: a.menus.Refs()})
	return true
}

// SetMenuItems replaces a menu's items and emits MenuUpdate when the
// content changed. Reports whether it did.
func (a *Actor) SetMenuItems(id int, items []menu.Item) bool {
	changed, found := a.menus.SetItems(id, items)
	if !found {
		a.logger.Warn("items set on unknown menu", "menu", id)
		return false
	}
	if !changed {
		return false
	}
	updated, _ := a.menus.Get(id)
	a.Emit(MenuUpdate{Menu: updated})
	return true
}

// ClearMenus removes every menu, emitting one MenuListChanged when
// there was anything to remove.
func (a *Actor) ClearMenus() {
	if a.menus.Clear() > 0 {
		a.Emit(MenuListChanged{Menus: a.menus.Refs()})
	}
}

// Menu returns a copy of one menu.
func (a *Actor) Menu(id int) (menu.Menu, bool) {
	return a.menus.Get(id)
}

// Menus returns the current menu list.
func (a *Actor) Menus() []menu.Ref {
	return a.menus.Refs()
}
