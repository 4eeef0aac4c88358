// Package broadcast fans newly appended frames out to live
// subscribers. The Broadcaster keeps the accumulated backlog and the
// subscriber registry under its own lock, separate from the appstate
// lock, so a slow network subscriber never stalls a writer appending
// to the frame log.
package broadcast

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/stash/internal/frame"
)

// subscriberBuffer is the per-subscriber channel capacity. A
// subscriber that falls this far behind is treated as disconnected
// and deregistered; delivery to everyone else is unaffected.
const subscriberBuffer = 256

// Broadcaster delivers every published event to every live
// subscriber: nothing missed after subscribing, nothing delivered
// twice across the subscribe boundary.
type Broadcaster struct {
	mu      sync.Mutex
	backlog []frame.Event
	subs    map[uuid.UUID]chan frame.Event
}

// New creates an empty broadcaster.
func New() *Broadcaster {
	return &Broadcaster{subs: make(map[uuid.UUID]chan frame.Event)}
}

// Subscribe atomically captures the current backlog and registers a
// live channel. Because both happen under one critical section, an
// event published concurrently lands either in the returned backlog
// or on the channel — exactly one of the two.
//
// cancel deregisters and closes the channel; it is safe to call more
// than once and safe to call while a publish is in flight.
func (b *Broadcaster) Subscribe() (backlog []frame.Event, ch <-chan frame.Event, cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	backlog = make([]frame.Event, len(b.backlog))
	copy(backlog, b.backlog)

	id := uuid.New()
	sub := make(chan frame.Event, subscriberBuffer)
	b.subs[id] = sub

	cancel = func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}

	return backlog, sub, cancel
}

// Publish appends the event to the backlog and forwards it to every
// registered subscriber. Sends never block: a subscriber whose buffer
// is full is pruned, and only that subscriber is affected.
func (b *Broadcaster) Publish(ev frame.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.backlog = append(b.backlog, ev)

	for id, sub := range b.subs {
		select {
		case sub <- ev:
		default:
			slog.Warn("pruning stalled subscriber", "subscriber", id)
			delete(b.subs, id)
			close(sub)
		}
	}
}

// Subscribers returns the number of live subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// BacklogLen returns the number of accumulated events.
func (b *Broadcaster) BacklogLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.backlog)
}
