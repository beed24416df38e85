package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Source identifies this service on every envelope.
const Source = "arcticflow-dispatch"

var (
	ErrMissingAggregate = errors.New("events: aggregate is required")
	ErrNilEvent         = errors.New("events: event is required")
	ErrMissingEventType = errors.New("events: event type is required")
)

// CanonicalEvent is a versioned lifecycle event. EventType names end in
// ".v<N>".
type CanonicalEvent interface {
	EventType() string
}

// BookingAggregate keys events about one booking.
func BookingAggregate(id string) string { return "booking:" + strings.TrimSpace(id) }

// CallAggregate keys events about one outbound call.
func CallAggregate(id string) string { return "call:" + strings.TrimSpace(id) }

// Envelope is the wire shape published to the events queue.
type Envelope struct {
	EventID         uuid.UUID       `json:"event_id"`
	EventType       string          `json:"event_type"`
	Version         int             `json:"version"`
	Source          string          `json:"source"`
	Aggregate       string          `json:"aggregate"`
	TimestampMicros int64           `json:"timestamp"`
	CorrelationID   string          `json:"correlation_id,omitempty"`
	Payload         json.RawMessage `json:"payload"`
}

// OccurredAt returns the envelope timestamp.
func (e Envelope) OccurredAt() time.Time {
	return time.UnixMicro(e.TimestampMicros).UTC()
}

type EnvelopeOption func(*Envelope)

func WithEventID(id uuid.UUID) EnvelopeOption {
	return func(e *Envelope) {
		if id != uuid.Nil {
			e.EventID = id
		}
	}
}

// WithCorrelationID ties the event to a chat session or call.
func WithCorrelationID(id string) EnvelopeOption {
	return func(e *Envelope) { e.CorrelationID = strings.TrimSpace(id) }
}

func WithOccurredAt(ts time.Time) EnvelopeOption {
	return func(e *Envelope) {
		if !ts.IsZero() {
			e.TimestampMicros = ts.UTC().UnixMicro()
		}
	}
}

// NewEnvelope wraps evt for aggregate, stamped now unless overridden.
func NewEnvelope(aggregate string, evt CanonicalEvent, opts ...EnvelopeOption) (Envelope, error) {
	aggregate = strings.TrimSpace(aggregate)
	if aggregate == "" || strings.HasSuffix(aggregate, ":") {
		return Envelope{}, ErrMissingAggregate
	}
	if evt == nil {
		return Envelope{}, ErrNilEvent
	}
	eventType := strings.TrimSpace(evt.EventType())
	if eventType == "" {
		return Envelope{}, ErrMissingEventType
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return Envelope{}, fmt.Errorf("events: marshal payload: %w", err)
	}
	env := Envelope{
		EventID:         uuid.New(),
		EventType:       eventType,
		Version:         typeVersion(eventType),
		Source:          Source,
		Aggregate:       aggregate,
		TimestampMicros: time.Now().UTC().UnixMicro(),
		Payload:         payload,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&env)
		}
	}
	return env, nil
}

// typeVersion reads N from a ".vN" suffix; unversioned types are version 1.
func typeVersion(eventType string) int {
	idx := strings.LastIndex(eventType, ".v")
	if idx < 0 {
		return 1
	}
	n, err := strconv.Atoi(eventType[idx+2:])
	if err != nil || n < 1 {
		return 1
	}
	return n
}
