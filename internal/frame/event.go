package frame

import (
	"encoding/json"
	"fmt"
)

// EventType distinguishes the event variants crossing the live
// subscriber boundary. The set is closed: every event carries exactly
// one of the payload fields below, determined by its type.
type EventType string

const (
	// EventItemAppended announces a frame newly visible in the log.
	EventItemAppended EventType = "item-appended"
	// EventStreamingUpdate carries the derived stats of a growing
	// in-flight capture.
	EventStreamingUpdate EventType = "streaming-update"
	// EventRefreshRequested tells consumers to re-read their view.
	EventRefreshRequested EventType = "refresh-requested"
)

// ContentUpdate is the payload of a streaming-update event: the
// derived view data recomputed after each appended chunk.
type ContentUpdate struct {
	ID          string `json:"id"`
	MimeType    string `json:"mime_type"`
	ContentType string `json:"content_type"`
	Terse       string `json:"terse"`
	Words       int    `json:"words"`
	Chars       int    `json:"chars"`
	Preview     string `json:"preview"`
}

// Event is one record published to subscribers.
type Event struct {
	Type   EventType      `json:"type"`
	Frame  *Frame         `json:"frame,omitempty"`
	Update *ContentUpdate `json:"update,omitempty"`
}

// ItemAppended builds an item-appended event for f.
func ItemAppended(f Frame) Event {
	return Event{Type: EventItemAppended, Frame: &f}
}

// StreamingUpdate builds a streaming-update event.
func StreamingUpdate(u ContentUpdate) Event {
	return Event{Type: EventStreamingUpdate, Update: &u}
}

// RefreshRequested builds a refresh-requested event.
func RefreshRequested() Event {
	return Event{Type: EventRefreshRequested}
}

// Encode serializes the event to its wire form.
func (e Event) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return data, nil
}
