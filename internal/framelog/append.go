package framelog

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/stash/internal/frame"
)

// Append mints the next frame id and durably persists a new frame
// before returning it. stackID and hash may be empty: an empty stackID
// means a top-level frame, an empty hash means a provisional frame
// whose content is still being received (see Resolve).
//
// The returned frame's id is strictly greater than that of every
// frame previously appended to this log, including frames appended
// before a restart.
func (l *Log) Append(ctx context.Context, topic, stackID, hash string) (frame.Frame, error) {
	f := frame.Frame{
		ID:      l.minter.Next(),
		Topic:   topic,
		StackID: stackID,
		Hash:    hash,
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO frames (id, topic, stack_id, hash, appended_at)
		VALUES (?, ?, ?, ?, ?)
	`, f.ID, f.Topic, nullable(f.StackID), nullable(f.Hash), time.Now().UnixMilli())
	if err != nil {
		return frame.Frame{}, fmt.Errorf("append frame: %w", err)
	}

	return f, nil
}

// Resolve sets the final content hash of a provisional frame. The
// frame keeps its id, topic, and stack, so the placeholder and the
// committed entry are addressable by one stable id end-to-end.
//
// Returns ErrNotFound if no frame exists for id.
func (l *Log) Resolve(ctx context.Context, id, hash string) (frame.Frame, error) {
	result, err := l.db.ExecContext(ctx, `
		UPDATE frames SET hash = ? WHERE id = ?
	`, hash, id)
	if err != nil {
		return frame.Frame{}, fmt.Errorf("resolve frame: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return frame.Frame{}, fmt.Errorf("resolve frame: rows affected: %w", err)
	}
	if affected == 0 {
		return frame.Frame{}, fmt.Errorf("resolve frame %s: %w", id, ErrNotFound)
	}

	return l.Get(ctx, id)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
