package domain

import "time"

type EventType string

const (
	EventRequested EventType = "REQUESTED"
	EventGranted   EventType = "GRANTED"
	EventReleased  EventType = "RELEASED"
)

// Event is an append-only audit record of a state transition. Payload is
// an opaque snapshot of the before/after state; it is never interpreted by
// the core, only stored.
type Event struct {
	ID        int64
	RequestID *string
	Type      EventType
	ClientTS  *int64
	ServerTS  time.Time
	Payload   map[string]any
}
