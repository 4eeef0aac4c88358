// Package ingest implements the streaming ingestion packet: a
// provisional capture that accumulates bytes chunk by chunk and is
// committed into the blob cache and frame log when the stream ends.
//
// A packet moves Open → Finalizing → Committed. The placeholder frame
// minted at Begin and the committed entry share one id end-to-end, so
// downstream consumers address one logical capture throughout its
// life.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/stash/internal/appstate"
	"github.com/roach88/stash/internal/blob"
	"github.com/roach88/stash/internal/broadcast"
	"github.com/roach88/stash/internal/frame"
	"github.com/roach88/stash/internal/preview"
)

// Packet errors.
var (
	// ErrNotOpen is returned when a chunk is appended to a packet
	// that has left the Open state.
	ErrNotOpen = errors.New("packet is not open")
	// ErrCommitted is returned when EndStream is called a second
	// time on the same packet.
	ErrCommitted = errors.New("packet already committed")
)

// packetState tracks the commit lifecycle.
type packetState int

const (
	stateOpen packetState = iota + 1
	stateFinalizing
	stateCommitted
)

// Packet is one in-flight streaming capture.
//
// A packet belongs to the single goroutine driving its upload; it is
// not safe for concurrent use. The appstate and broadcaster it talks
// to handle their own locking.
type Packet struct {
	Frame frame.Frame // the placeholder; Hash empty until committed

	state   packetState
	content []byte
	render  preview.RenderFunc
}

// Begin starts a capture: it appends a provisional frame (no hash)
// attached to the currently selected stack, clears the selection so
// the next independent capture defaults to top level, merges the
// placeholder into the view, and announces a refresh. With no
// selection, a fresh top-level stack is minted and the capture
// attaches to it.
//
// The returned packet's buffer is seeded with initial.
func Begin(ctx context.Context, st *appstate.State, bus *broadcast.Broadcaster, render preview.RenderFunc, initial []byte) (*Packet, error) {
	var placeholder frame.Frame
	var err error
	st.WithLock(func(in *appstate.Inner) {
		stack := in.CurrStack()
		in.Select("")
		if stack == "" {
			var sf frame.Frame
			sf, err = in.Log.Append(ctx, frame.TopicStack, "", "")
			if err != nil {
				return
			}
			in.View.Merge(sf)
			stack = sf.ID
		}
		placeholder, err = in.Log.Append(ctx, frame.TopicStream, stack, "")
		if err != nil {
			return
		}
		in.View.Merge(placeholder)
	})
	if err != nil {
		return nil, fmt.Errorf("begin packet: %w", err)
	}

	bus.Publish(frame.RefreshRequested())

	p := &Packet{
		Frame:  placeholder,
		state:  stateOpen,
		render: render,
	}
	p.content = append(p.content, initial...)
	return p, nil
}

// Append adds a chunk to the accumulation buffer and publishes a
// streaming update carrying the recomputed derived view data, giving
// subscribers incremental visibility into the growing capture.
func (p *Packet) Append(bus *broadcast.Broadcaster, chunk []byte) error {
	if p.state != stateOpen {
		return fmt.Errorf("append chunk to %s: %w", p.Frame.ID, ErrNotOpen)
	}

	p.content = append(p.content, chunk...)

	update := deriveUpdate(p.Frame.ID, p.content, p.render)
	bus.Publish(frame.StreamingUpdate(update))
	return nil
}

// Content returns the bytes accumulated so far.
func (p *Packet) Content() []byte {
	return p.content
}

// EndStream commits the capture: the accumulated buffer goes into the
// blob cache, the placeholder frame's hash is resolved in the log
// (same id), the committed frame is merged into the view, and
// subscribers are notified. Exactly-once: a second call returns
// ErrCommitted.
//
// Delivery to subscribers is at-least-once: if the tailer's cursor
// has not yet passed the placeholder id, its next poll republishes the
// committed frame. Consumers key on the frame id, and the view merge
// is idempotent, so the duplicate collapses downstream.
func (p *Packet) EndStream(ctx context.Context, st *appstate.State, bus *broadcast.Broadcaster) (frame.Frame, error) {
	if p.state != stateOpen {
		return frame.Frame{}, fmt.Errorf("end stream for %s: %w", p.Frame.ID, ErrCommitted)
	}
	p.state = stateFinalizing

	var committed frame.Frame
	var err error
	st.WithLock(func(in *appstate.Inner) {
		var hash string
		hash, err = in.Cache.Put(p.content, blob.Meta{MimeType: "text/plain", ContentType: "Text"})
		if err != nil {
			err = fmt.Errorf("cache streamed content: %w", err)
			return
		}

		committed, err = in.Log.Resolve(ctx, p.Frame.ID, hash)
		if err != nil {
			err = fmt.Errorf("commit streamed frame: %w", err)
			return
		}

		in.View.Merge(committed)
	})
	if err != nil {
		// Leave Finalizing: the commit did not happen, but the
		// packet is no longer appendable either.
		return frame.Frame{}, err
	}

	p.state = stateCommitted
	p.Frame = committed

	bus.Publish(frame.ItemAppended(committed))
	bus.Publish(frame.RefreshRequested())
	return committed, nil
}
