package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event sources
const (
	SourceTimer  = "timer"
	SourceLedger = "ledger"
)

// Event represents one state change published by the timer registry or the
// energy ledger.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Source names the publishing component (timer, ledger)
	Source string `json:"source"`

	// Type is the state change, e.g. "timer.started" or "energy.applied"
	Type string `json:"type"`

	// TaskID is the task the change concerns, if any
	TaskID string `json:"task_id,omitempty"`

	// Payload contains event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload,omitempty"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates a new Event with the given source, type, task and payload.
// A nil payload produces an event without a payload.
func NewEvent(source, eventType, taskID string, payload interface{}) (*Event, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = b
	}

	return &Event{
		ID:        uuid.New(),
		Source:    source,
		Type:      eventType,
		TaskID:    taskID,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts an ordinary function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows publishers to notify listeners without direct knowledge of them.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *Event) error
}
