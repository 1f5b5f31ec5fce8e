// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package menu is the menu model a service actor publishes to its host:
// an ordered list of named, id-addressed menus, each holding an ordered
// list of labeled items.
//
// The model is plain data owned by a single actor goroutine. [Tree]
// does no locking; values returned from it are copies, so a snapshot
// sent to the host is never mutated afterwards. Item lists are replaced
// wholesale, never patched.
package menu

import (
	"fmt"
	"maps"
)

// Item is one row of a menu. An empty Action marks an informational
// row that cannot be activated.
type Item struct {
	Label      string         `json:"label"`
	Action     string         `json:"action,omitempty"`
	ActionData map[string]any `json:"action_data,omitempty"`
}

// Info returns a non-interactive item.
func Info(label string) Item {
	return Item{Label: label}
}

// Interactive reports whether the item carries an action.
func (i Item) Interactive() bool {
	return i.Action != ""
}

// String returns the label, for logs.
func (i Item) String() string {
	if i.Action == "" {
		return i.Label
	}
	return fmt.Sprintf("%s [%s]", i.Label, i.Action)
}

// Menu is a named list of items.
type Menu struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// Ref is the (id, name) pair carried in menu list events.
type Ref struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CloneItems copies items and their action data maps.
func CloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	cloned := make([]Item, len(items))
	for index, item := range items {
		cloned[index] = Item{
			Label:      item.Label,
			Action:     item.Action,
			ActionData: maps.Clone(item.ActionData),
		}
	}
	return cloned
}

// Clone returns a deep copy of m.
func (m Menu) Clone() Menu {
	return Menu{ID: m.ID, Name: m.Name, Items: CloneItems(m.Items)}
}

// Ref returns the menu's (id, name) pair.
func (m Menu) Ref() Ref {
	return Ref{ID: m.ID, Name: m.Name}
}
