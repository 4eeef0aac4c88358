// Package frame defines the core record types of the capture store:
// the immutable Frame appended to the log, the id scheme that orders
// frames, and the event vocabulary published to live subscribers.
package frame

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// Topics used by the built-in writers. External writers may use any
// free-form topic string.
const (
	TopicClipboard = "clipboard"
	TopicCommand   = "command"
	TopicStream    = "stream"
	TopicStack     = "stack"
)

// ErrMalformedID is returned when a string is not a valid frame id.
var ErrMalformedID = errors.New("malformed frame id")

// Frame is one immutable record in the append-only log.
//
// ID and Topic never change after append. Hash is empty for a
// provisional frame (an in-flight streaming capture) and is resolved
// to its final value when the capture commits; the id stays the same.
type Frame struct {
	ID      string `json:"id"`
	Topic   string `json:"topic"`
	StackID string `json:"stack_id,omitempty"`
	Hash    string `json:"hash,omitempty"`
}

// ParseID validates a frame id. Ids are 26-character Crockford base32
// ULIDs; anything else is ErrMalformedID.
func ParseID(s string) (string, error) {
	id, err := ulid.ParseStrict(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrMalformedID, s)
	}
	return id.String(), nil
}

// Encode serializes a frame to its wire form (the form handed to
// subscribers in backlogs and live events).
func (f Frame) Encode() ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return data, nil
}

// Decode parses a frame from its wire form.
func Decode(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if _, err := ParseID(f.ID); err != nil {
		return Frame{}, err
	}
	return f, nil
}
