package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// BookingEventType classifies an entry of a booking's audit trail
type BookingEventType string

const (
	EventCreated   BookingEventType = "created"
	EventConfirmed BookingEventType = "confirmed"
	EventModified  BookingEventType = "modified"
	EventCancelled BookingEventType = "cancelled"
	EventCompleted BookingEventType = "completed"
	EventPayment   BookingEventType = "payment"
	EventRefund    BookingEventType = "refund"
)

// IsValid reports whether t is a known event type
func (t BookingEventType) IsValid() bool {
	switch t {
	case EventCreated, EventConfirmed, EventModified, EventCancelled,
		EventCompleted, EventPayment, EventRefund:
		return true
	}
	return false
}

// BookingEvent is one immutable entry in a booking's audit trail
type BookingEvent struct {
	ID          string                 `json:"id" db:"id"`
	BookingID   string                 `json:"booking_id" db:"booking_id"`
	Sequence    int                    `json:"sequence" db:"seq"`
	Type        BookingEventType       `json:"type" db:"type"`
	Description string                 `json:"description" db:"description"`
	Timestamp   time.Time              `json:"timestamp" db:"created_at"`
	UserID      string                 `json:"user_id" db:"user_id"`
	UserName    string                 `json:"user_name" db:"user_name"`
	Metadata    map[string]interface{} `json:"metadata,omitempty" db:"-"`
}

// AddEventRequest represents a caller-supplied timeline entry. The id,
// sequence and timestamp are assigned server-side.
type AddEventRequest struct {
	Type        BookingEventType       `json:"type" binding:"required"`
	Description string                 `json:"description" binding:"required"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Timeline is the append-only event log of a booking, kept in causal
// (ascending sequence) order. Append is the only mutation it exposes.
type Timeline struct {
	events []BookingEvent
}

// NewTimeline builds a timeline from already-persisted events in ascending order
func NewTimeline(events ...BookingEvent) Timeline {
	t := Timeline{events: make([]BookingEvent, len(events))}
	for i, e := range events {
		t.events[i] = cloneEvent(e)
	}
	return t
}

// Append adds ev at the end of the log, assigning the next sequence number
// and an id when the event has none. It returns the stored copy.
func (t *Timeline) Append(ev BookingEvent) BookingEvent {
	ev.Sequence = len(t.events) + 1
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	ev = cloneEvent(ev)
	t.events = append(t.events, ev)
	return cloneEvent(ev)
}

// Len returns the number of events
func (t Timeline) Len() int {
	return len(t.events)
}

// Events returns a copy of the events in causal order
func (t Timeline) Events() []BookingEvent {
	out := make([]BookingEvent, len(t.events))
	for i, e := range t.events {
		out[i] = cloneEvent(e)
	}
	return out
}

// Descending returns a copy of the events newest first, for display
func (t Timeline) Descending() []BookingEvent {
	out := make([]BookingEvent, len(t.events))
	for i, e := range t.events {
		out[len(t.events)-1-i] = cloneEvent(e)
	}
	return out
}

// Last returns the most recent event
func (t Timeline) Last() (BookingEvent, bool) {
	if len(t.events) == 0 {
		return BookingEvent{}, false
	}
	return cloneEvent(t.events[len(t.events)-1]), true
}

// Clone returns an independent copy
func (t Timeline) Clone() Timeline {
	return NewTimeline(t.events...)
}

// MarshalJSON encodes the timeline as an array in causal order
func (t Timeline) MarshalJSON() ([]byte, error) {
	if t.events == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t.events)
}

// UnmarshalJSON decodes an array of events
func (t *Timeline) UnmarshalJSON(data []byte) error {
	var events []BookingEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return err
	}
	*t = NewTimeline(events...)
	return nil
}

func cloneEvent(e BookingEvent) BookingEvent {
	if e.Metadata != nil {
		md := make(map[string]interface{}, len(e.Metadata))
		for k, v := range e.Metadata {
			md[k] = v
		}
		e.Metadata = md
	}
	return e
}
