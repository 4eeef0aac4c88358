package framelog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/stash/internal/frame"
)

// ReadFrom returns every frame with id greater than cursor, in
// ascending id order. An empty cursor reads from the beginning.
//
// The result is a finite snapshot, not a live stream: callers needing
// liveness re-invoke ReadFrom with the last id they saw. The cursor
// contract: no returned frame has id <= cursor, and no frame with
// id > cursor present at query time is omitted.
func (l *Log) ReadFrom(ctx context.Context, cursor string) ([]frame.Frame, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, topic, stack_id, hash
		FROM frames
		WHERE id > ?
		ORDER BY id COLLATE BINARY ASC
	`, cursor)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	var frames []frame.Frame
	for rows.Next() {
		f, err := scanFrame(rows)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate frames: %w", err)
	}

	// Return empty slice instead of nil
	if frames == nil {
		frames = []frame.Frame{}
	}

	return frames, nil
}

// Get retrieves a single frame by id. Returns ErrNotFound if absent.
func (l *Log) Get(ctx context.Context, id string) (frame.Frame, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT id, topic, stack_id, hash
		FROM frames
		WHERE id = ?
	`, id)

	var f frame.Frame
	var stackID, hash sql.NullString
	if err := row.Scan(&f.ID, &f.Topic, &stackID, &hash); err != nil {
		if err == sql.ErrNoRows {
			return frame.Frame{}, fmt.Errorf("frame %s: %w", id, ErrNotFound)
		}
		return frame.Frame{}, fmt.Errorf("scan frame: %w", err)
	}
	f.StackID = stackID.String
	f.Hash = hash.String

	return validated(f)
}

// scanFrame scans a row into a Frame.
func scanFrame(rows *sql.Rows) (frame.Frame, error) {
	var f frame.Frame
	var stackID, hash sql.NullString

	if err := rows.Scan(&f.ID, &f.Topic, &stackID, &hash); err != nil {
		return frame.Frame{}, fmt.Errorf("scan frame: %w", err)
	}
	f.StackID = stackID.String
	f.Hash = hash.String

	return validated(f)
}

// validated rejects structurally invalid persisted records. A row
// whose id does not parse is reported as ErrCorrupt, distinct from
// ErrNotFound.
func validated(f frame.Frame) (frame.Frame, error) {
	if _, err := frame.ParseID(f.ID); err != nil {
		return frame.Frame{}, fmt.Errorf("%w: id %q", ErrCorrupt, f.ID)
	}
	if f.Topic == "" {
		return frame.Frame{}, fmt.Errorf("%w: empty topic on %s", ErrCorrupt, f.ID)
	}
	return f, nil
}
