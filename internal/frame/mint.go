package frame

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Minter issues frame ids: ULIDs guaranteed strictly greater than
// every id the minter has seen, regardless of what the wall clock
// does between calls.
//
// ULIDs are time-ordered by construction, but the wall clock can step
// backwards (NTP adjustment, suspend/resume). When the freshly minted
// ULID does not sort after the last issued id, the minter falls back
// to incrementing the last id instead, preserving the monotonic
// invariant at the cost of a slightly-future timestamp component.
//
// Thread-safety: all methods are safe for concurrent use.
type Minter struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	last    ulid.ULID
	haslast bool
	now     func() time.Time
}

// NewMinter creates a minter with no history. The first id is minted
// from the current wall clock.
func NewMinter() *Minter {
	return &Minter{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// NewMinterAfter creates a minter seeded with the highest id already
// persisted, so ids stay monotonic across process restarts. An empty
// last id means an empty log.
func NewMinterAfter(last string) (*Minter, error) {
	m := NewMinter()
	if last == "" {
		return m, nil
	}
	id, err := ulid.ParseStrict(last)
	if err != nil {
		return nil, err
	}
	m.last = id
	m.haslast = true
	return m, nil
}

// SetNow overrides the minter's clock. Tests use this to simulate
// clock adjustments.
func (m *Minter) SetNow(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Next mints the next frame id, strictly greater than all prior ids.
func (m *Minter) Next() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(m.now()), m.entropy)
	if err != nil || (m.haslast && id.Compare(m.last) <= 0) {
		// Clock went backwards (or entropy overflowed within the
		// millisecond): derive the next id from the last one.
		id = increment(m.last)
	}

	m.last = id
	m.haslast = true
	return id.String()
}

// increment returns the ULID one greater than id, treating the 16
// bytes as a big-endian integer.
func increment(id ulid.ULID) ulid.ULID {
	for i := len(id) - 1; i >= 0; i-- {
		id[i]++
		if id[i] != 0 {
			break
		}
	}
	return id
}
