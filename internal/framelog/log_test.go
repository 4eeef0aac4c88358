package framelog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewLog(t *testing.T) {
	dir := t.TempDir()

	l, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer l.Close()

	if _, err := os.Stat(filepath.Join(dir, dbFileName)); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	dir := t.TempDir()

	for i := 0; i < 3; i++ {
		l, err := Open(dir)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		l.Close()
	}
}

func TestAppend_ReturnsCommittedFrame(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	f, err := l.Append(ctx, "clipboard", "", "")
	if err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
	if f.ID == "" {
		t.Fatal("Append() returned empty id")
	}
	if f.Topic != "clipboard" {
		t.Errorf("topic = %q, want %q", f.Topic, "clipboard")
	}

	got, err := l.Get(ctx, f.ID)
	if err != nil {
		t.Fatalf("Get() after Append failed: %v", err)
	}
	if got != f {
		t.Errorf("persisted frame %+v != returned frame %+v", got, f)
	}
}

func TestAppend_IdsStrictlyAscending(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	var prev string
	for i := 0; i < 100; i++ {
		f, err := l.Append(ctx, "clipboard", "", "")
		if err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
		if f.ID <= prev {
			t.Fatalf("id %q not greater than previous %q", f.ID, prev)
		}
		prev = f.ID
	}
}

func TestAppend_MonotonicAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	l1, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	last, err := l1.Append(ctx, "clipboard", "", "")
	if err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
	l1.Close()

	l2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer l2.Close()

	f, err := l2.Append(ctx, "clipboard", "", "")
	if err != nil {
		t.Fatalf("Append() after reopen failed: %v", err)
	}
	if f.ID <= last.ID {
		t.Errorf("post-reopen id %q not greater than %q", f.ID, last.ID)
	}
}

func TestReadFrom_CursorContract(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 10; i++ {
		f, err := l.Append(ctx, "clipboard", "", "")
		if err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
		ids = append(ids, f.ID)
	}

	// From the beginning: everything, ascending.
	all, err := l.ReadFrom(ctx, "")
	if err != nil {
		t.Fatalf("ReadFrom(\"\") failed: %v", err)
	}
	if len(all) != len(ids) {
		t.Fatalf("ReadFrom(\"\") returned %d frames, want %d", len(all), len(ids))
	}
	for i, f := range all {
		if f.ID != ids[i] {
			t.Errorf("frame %d: id %q, want %q", i, f.ID, ids[i])
		}
	}

	// From a mid cursor: only frames with id > cursor, ascending.
	cursor := ids[4]
	tail, err := l.ReadFrom(ctx, cursor)
	if err != nil {
		t.Fatalf("ReadFrom(%q) failed: %v", cursor, err)
	}
	if len(tail) != 5 {
		t.Fatalf("ReadFrom(%q) returned %d frames, want 5", cursor, len(tail))
	}
	prev := cursor
	for _, f := range tail {
		if f.ID <= prev {
			t.Errorf("frame id %q not greater than %q", f.ID, prev)
		}
		prev = f.ID
	}

	// Past the end: empty, not an error.
	empty, err := l.ReadFrom(ctx, ids[len(ids)-1])
	if err != nil {
		t.Fatalf("ReadFrom(last) failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("ReadFrom(last) returned %d frames, want 0", len(empty))
	}
}

func TestReadFrom_EmptyLog(t *testing.T) {
	l := openTestLog(t)

	frames, err := l.ReadFrom(context.Background(), "")
	if err != nil {
		t.Fatalf("ReadFrom on empty log failed: %v", err)
	}
	if frames == nil {
		t.Error("ReadFrom returned nil, want empty slice")
	}
	if len(frames) != 0 {
		t.Errorf("ReadFrom returned %d frames, want 0", len(frames))
	}
}

func TestResolve_SameIDEndToEnd(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	placeholder, err := l.Append(ctx, "stream", "", "")
	if err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
	if placeholder.Hash != "" {
		t.Fatalf("placeholder hash = %q, want empty", placeholder.Hash)
	}

	committed, err := l.Resolve(ctx, placeholder.ID, "deadbeef")
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if committed.ID != placeholder.ID {
		t.Errorf("committed id %q != placeholder id %q", committed.ID, placeholder.ID)
	}
	if committed.Hash != "deadbeef" {
		t.Errorf("committed hash = %q, want %q", committed.Hash, "deadbeef")
	}
	if committed.Topic != placeholder.Topic {
		t.Errorf("topic changed on resolve: %q -> %q", placeholder.Topic, committed.Topic)
	}
}

func TestResolve_UnknownID(t *testing.T) {
	l := openTestLog(t)

	_, err := l.Resolve(context.Background(), "01HZZZZZZZZZZZZZZZZZZZZZZZ", "deadbeef")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve(unknown) = %v, want ErrNotFound", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	l := openTestLog(t)

	_, err := l.Get(context.Background(), "01HZZZZZZZZZZZZZZZZZZZZZZZ")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(unknown) = %v, want ErrNotFound", err)
	}
}

func TestReadFrom_CorruptRecord(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	// Bypass Append to plant a structurally invalid row.
	_, err := l.DB().Exec(`
		INSERT INTO frames (id, topic, stack_id, hash, appended_at)
		VALUES ('not-a-ulid', 'clipboard', NULL, NULL, 0)
	`)
	if err != nil {
		t.Fatalf("planting corrupt row failed: %v", err)
	}

	_, err = l.ReadFrom(ctx, "")
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("ReadFrom over corrupt row = %v, want ErrCorrupt", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("corrupt record must not be reported as not-found")
	}
}

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}
