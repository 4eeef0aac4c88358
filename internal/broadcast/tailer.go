package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/stash/internal/appstate"
	"github.com/roach88/stash/internal/frame"
)

// DefaultPollInterval is how often the tailer re-reads the log when
// no interval is configured.
const DefaultPollInterval = 100 * time.Millisecond

// Tailer polls the frame log and republishes each new frame exactly
// once: into the view projection (under the appstate lock) and to the
// broadcaster.
//
// The cursor only ever advances. Stopping and restarting the tailer
// (Run returning and being called again on the same Tailer) does not
// republish frames already seen — scenario: a supervisor restarting
// the poll loop after a transient failure. If the whole process
// restarts the backlog is rebuilt from log replay instead, which is
// safe because the broadcaster is a pure projection of the durable
// log.
type Tailer struct {
	state    *appstate.State
	bus      *Broadcaster
	interval time.Duration

	mu     sync.Mutex
	cursor string
}

// NewTailer creates a tailer over state publishing to bus. A zero
// interval means DefaultPollInterval.
func NewTailer(state *appstate.State, bus *Broadcaster, interval time.Duration) *Tailer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Tailer{state: state, bus: bus, interval: interval}
}

// Cursor returns the id of the last frame the tailer has published,
// or "" if none yet. Safe to call while Run is polling.
func (t *Tailer) Cursor() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursor
}

func (t *Tailer) advance(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cursor = id
}

// Run polls until ctx is cancelled. An initial poll happens
// immediately so startup backlog is published without waiting one
// interval. Poll errors are logged and retried on the next tick,
// never fatal to the loop.
func (t *Tailer) Run(ctx context.Context) {
	slog.Info("tailer starting", "interval", t.interval, "cursor", t.Cursor())

	if err := t.Poll(ctx); err != nil {
		slog.Error("tailer poll failed", "error", err)
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("tailer stopping: context cancelled", "cursor", t.Cursor())
			return
		case <-ticker.C:
			if err := t.Poll(ctx); err != nil {
				slog.Error("tailer poll failed", "error", err)
			}
		}
	}
}

// Poll reads frames past the cursor, merges them into the view, and
// publishes each one. Resilient to an empty log. The cursor advances
// to the highest id seen and is never rewound.
func (t *Tailer) Poll(ctx context.Context) error {
	cursor := t.Cursor()

	var frames []frame.Frame
	var err error
	t.state.WithLock(func(in *appstate.Inner) {
		frames, err = in.Log.ReadFrom(ctx, cursor)
		if err != nil {
			return
		}
		for _, f := range frames {
			in.View.Merge(f)
		}
	})
	if err != nil {
		return err
	}

	for _, f := range frames {
		t.bus.Publish(frame.ItemAppended(f))
		t.advance(f.ID)
	}
	return nil
}
