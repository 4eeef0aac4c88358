// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/roach88/stash/internal/appstate"
	"github.com/roach88/stash/internal/blob"
	"github.com/roach88/stash/internal/frame"
	"github.com/roach88/stash/internal/framelog"
)

// OpenState builds a shared-state fixture over a fresh frame log and
// blob cache in temp directories. Everything is cleaned up with the
// test.
func OpenState(t *testing.T) *appstate.State {
	t.Helper()

	log, err := framelog.Open(t.TempDir())
	if err != nil {
		t.Fatalf("opening frame log fixture: %v", err)
	}
	t.Cleanup(func() { log.Close() })

	cache, err := blob.Open(t.TempDir())
	if err != nil {
		t.Fatalf("opening blob cache fixture: %v", err)
	}

	return appstate.New(log, cache)
}

// AppendMerged appends a frame under the state lock and merges it
// into the view, the way the tailer would. Returns the committed
// frame.
func AppendMerged(t *testing.T, st *appstate.State, topic, stackID, hash string) frame.Frame {
	t.Helper()

	var f frame.Frame
	var err error
	st.WithLock(func(in *appstate.Inner) {
		f, err = in.Log.Append(context.Background(), topic, stackID, hash)
		if err != nil {
			return
		}
		in.View.Merge(f)
	})
	if err != nil {
		t.Fatalf("appending %s frame fixture: %v", topic, err)
	}
	return f
}

// PutContent stores bytes in the state's blob cache and returns the
// content hash.
func PutContent(t *testing.T, st *appstate.State, content string, meta blob.Meta) string {
	t.Helper()

	var hash string
	var err error
	st.WithLock(func(in *appstate.Inner) {
		hash, err = in.Cache.Put([]byte(content), meta)
	})
	if err != nil {
		t.Fatalf("storing content fixture: %v", err)
	}
	return hash
}
