// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menu

// Tree holds an actor's menus in creation order. IDs are assigned
// monotonically starting at 1 and are never reused for the lifetime of
// the Tree, including across Clear.
type Tree struct {
	lastID int
	order  []int
	menus  map[int]*entry
}

type entry struct {
	menu        Menu
	fingerprint Fingerprint
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{menus: make(map[int]*entry)}
}

// Add appends a menu and returns its id.
func (t *Tree) Add(name string, items []Item) int {
	t.lastID++
	id := t.lastID
	items = CloneItems(items)
	t.menus[id] = &entry{
		menu:        Menu{ID: id, Name: name, Items: items},
		fingerprint: FingerprintItems(items),
	}
	t.order = append(t.order, id)
	return id
}

// Remove deletes a menu. Reports false for unknown ids.
func (t *Tree) Remove(id int) bool {
	if _, exists := t.menus[id]; !exists {
		return false
	}
	delete(t.menus, id)
	for index, candidate := range t.order {
		if candidate == id {
			t.order = append(t.order[:index], t.order[index+1:]...)
			break
		}
	}
	return true
}

// Rename changes the display name of a menu.
func (t *Tree) Rename(id int, name string) bool {
	current, exists := t.menus[id]
	if !exists {
		return false
	}
	current.menu.Name = name
	return true
}

// SetItems replaces the item list of a menu. found is false for
// unknown ids; changed is false when the new list has the same content
// as the current one, in which case nothing is replaced.
func (t *Tree) SetItems(id int, items []Item) (changed, found bool) {
	current, exists := t.menus[id]
	if !exists {
		return false, false
	}
	fingerprint := FingerprintItems(items)
	if fingerprint == current.fingerprint {
		return false, true
	}
	current.menu.Items = CloneItems(items)
	current.fingerprint = fingerprint
	return true, true
}

// Get returns a copy of the menu with the given id.
func (t *Tree) Get(id int) (Menu, bool) {
	current, exists := t.menus[id]
	if !exists {
		return Menu{}, false
	}
	return current.menu.Clone(), true
}

// Item returns a copy of one item of a menu.
func (t *Tree) Item(id, index int) (Item, bool) {
	current, exists := t.menus[id]
	if !exists || index < 0 || index >= len(current.menu.Items) {
		return Item{}, false
	}
	return CloneItems(current.menu.Items[index : index+1])[0], true
}

// Refs returns the (id, name) list in creation order. Never nil.
func (t *Tree) Refs() []Ref {
	refs := make([]Ref, 0, len(t.order))
	for _, id := range t.order {
		refs = append(refs, t.menus[id].menu.Ref())
	}
	return refs
}

// Clear removes every menu and returns how many were removed.
func (t *Tree) Clear() int {
	removed := len(t.order)
	t.order = nil
	t.menus = make(map[int]*entry)
	return removed
}

// Len returns the number of menus.
func (t *Tree) Len() int {
	return len(t.order)
}
