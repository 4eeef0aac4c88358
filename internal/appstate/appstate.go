// Package appstate bundles the mutable core of the application — the
// frame log handle, the blob cache, the view projection, and the UI
// stack selection — behind one coarse mutex.
//
// Serializing every mutator through one lock is a deliberate
// simplicity tradeoff: writes are rare relative to reads, and a single
// critical section keeps the ordering and idempotent-merge invariants
// trivial. If profiling ever shows contention, the split points are
// log vs view vs selection. Blocking I/O (blob streaming in
// particular) must happen outside the lock; WithLock sections should
// only resolve ids, merge frames, and do log writes.
package appstate

import (
	"sync"

	"github.com/roach88/stash/internal/blob"
	"github.com/roach88/stash/internal/framelog"
	"github.com/roach88/stash/internal/view"
)

// Inner is the guarded state. It is only ever reachable from inside a
// WithLock section.
type Inner struct {
	Log   *framelog.Log
	Cache *blob.Cache
	View  *view.View

	// selection is the id of the "current stack" new captures attach
	// to. Empty means unset: a new capture starts a top-level stack.
	selection string
}

// CurrStack returns the currently selected stack id, or "" if none.
func (in *Inner) CurrStack() string {
	return in.selection
}

// Select sets the current stack selection. Pass "" to clear.
func (in *Inner) Select(id string) {
	in.selection = id
}

// State is the shared handle passed to every component that mutates
// or consistently reads the core state. Constructed once at startup;
// there are no package-level instances.
type State struct {
	mu    sync.Mutex
	inner Inner
}

// New creates the shared state around an opened log and cache.
func New(log *framelog.Log, cache *blob.Cache) *State {
	return &State{inner: Inner{Log: log, Cache: cache, View: view.New()}}
}

// WithLock runs fn inside the critical section. fn must not block on
// I/O beyond log/cache writes and must not call WithLock re-entrantly.
func (s *State) WithLock(fn func(in *Inner)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.inner)
}
