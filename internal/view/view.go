// Package view derives the read-side projection of the frame log:
// addressable items and their stack groupings.
package view

import "github.com/roach88/stash/internal/frame"

// Item is the read-side materialization of a frame. An item whose
// StackID is empty acts as a stack: a grouping parent for the items
// that reference its id.
type Item struct {
	ID      string
	StackID string
	Hash    string
}

// IsStack reports whether the item is a grouping parent.
func (i Item) IsStack() bool {
	return i.StackID == ""
}

// View is an in-memory projection over merged frames.
//
// Merging is idempotent: a frame whose id is already present updates
// that item in place and never creates a duplicate. Child ordering is
// first-merge order.
//
// View is not safe for concurrent use on its own; callers serialize
// access through the appstate lock.
type View struct {
	items map[string]Item
	order []string // ids in first-merge order
}

// New creates an empty view.
func New() *View {
	return &View{items: make(map[string]Item)}
}

// Merge upserts the item for f. New ids are recorded in merge order;
// existing ids update hash and stack membership in place.
func (v *View) Merge(f frame.Frame) {
	if _, ok := v.items[f.ID]; !ok {
		v.order = append(v.order, f.ID)
	}
	v.items[f.ID] = Item{ID: f.ID, StackID: f.StackID, Hash: f.Hash}
}

// Lookup returns the item for id, if present.
func (v *View) Lookup(id string) (Item, bool) {
	item, ok := v.items[id]
	return item, ok
}

// Children returns the items belonging to the given stack, in
// first-merge order.
func (v *View) Children(stackID string) []Item {
	var children []Item
	for _, id := range v.order {
		item := v.items[id]
		if item.StackID == stackID && stackID != "" {
			children = append(children, item)
		}
	}
	return children
}

// Len returns the number of items in the projection.
func (v *View) Len() int {
	return len(v.items)
}
