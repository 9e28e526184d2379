package reading

import (
	"encoding/json"
	"fmt"
)

// EventType identifies a stream event frame.
type EventType string

const (
	EventMeta      EventType = "meta"
	EventSnapshot  EventType = "snapshot"
	EventDelta     EventType = "delta"
	EventReasoning EventType = "reasoning"
	EventDone      EventType = "done"
	EventError     EventType = "error"
)

// Meta carries generation context sent once near the start of a stream.
type Meta struct {
	Provider      string   `json:"provider"`
	Themes        []string `json:"themes,omitempty"`
	SpreadNotes   string   `json:"spreadAnalysis,omitempty"`
	EmotionalTone string   `json:"emotionalTone,omitempty"`
	RequestID     string   `json:"requestId,omitempty"`
	Ephemeris     string   `json:"ephemeris,omitempty"`
	Place         string   `json:"place,omitempty"`
}

// Event is one parsed frame from the generation stream.
//
// ID is the stream cursor: events are applied in ascending ID order, and an
// event whose ID is at or below the stored cursor is a duplicate and must be
// ignored.
type Event struct {
	Type EventType
	ID   int64

	// Text carries the payload for delta (append), snapshot (replace),
	// reasoning, and done (final full text) events.
	Text string

	// Replace marks a reasoning event as a full replacement rather than an
	// increment.
	Replace bool

	Meta      *Meta  // meta events only
	Provider  string // done events
	RequestID string // done events
	Message   string // error events
}

// eventEnvelope is the wire shape shared by all event payloads.
type eventEnvelope struct {
	EventID   int64    `json:"eventId"`
	Text      string   `json:"text,omitempty"`
	Replace   bool     `json:"replace,omitempty"`
	Provider  string   `json:"provider,omitempty"`
	RequestID string   `json:"requestId,omitempty"`
	Message   string   `json:"message,omitempty"`
	Themes    []string `json:"themes,omitempty"`

	SpreadNotes   string `json:"spreadAnalysis,omitempty"`
	EmotionalTone string `json:"emotionalTone,omitempty"`
	Ephemeris     string `json:"ephemeris,omitempty"`
	Place         string `json:"place,omitempty"`
}

// parseEvent decodes the data payload of a frame into a typed Event.
func parseEvent(eventType string, data []byte) (Event, error) {
	var env eventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Event{}, fmt.Errorf("malformed %s event payload: %w", eventType, err)
	}

	ev := Event{
		Type:      EventType(eventType),
		ID:        env.EventID,
		Text:      env.Text,
		Replace:   env.Replace,
		Provider:  env.Provider,
		RequestID: env.RequestID,
		Message:   env.Message,
	}

	switch ev.Type {
	case EventMeta:
		ev.Meta = &Meta{
			Provider:      env.Provider,
			Themes:        env.Themes,
			SpreadNotes:   env.SpreadNotes,
			EmotionalTone: env.EmotionalTone,
			RequestID:     env.RequestID,
			Ephemeris:     env.Ephemeris,
			Place:         env.Place,
		}
	case EventSnapshot, EventDelta, EventReasoning, EventDone, EventError:
		// envelope fields suffice
	default:
		return Event{}, fmt.Errorf("unknown event type %q", eventType)
	}

	return ev, nil
}
