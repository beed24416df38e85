package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"

	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

type badEvent struct{}

func (badEvent) EventType() string { return "" }

type stubSQS struct {
	input *sqs.SendMessageInput
	err   error
}

func (s *stubSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	s.input = params
	if s.err != nil {
		return nil, s.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestNewEnvelope(t *testing.T) {
	fixedNow := time.Unix(0, 123456000).UTC()
	id := uuid.MustParse("9a20d7d1-bf6a-4d33-bd55-5d25a816f1a8")
	env, err := NewEnvelope(BookingAggregate(" b-1 "), BookingCreatedV1{
		BookingID:        "b-1",
		CustomerName:     "John Doe",
		TeamType:         "Repair",
		Slot:             "2025-05-20 09:00",
		AssignedStaffIDs: []string{"s1"},
		CreatedAt:        fixedNow,
	}, WithEventID(id), WithCorrelationID(" sess-1 "), WithOccurredAt(fixedNow))
	if err != nil {
		t.Fatalf("NewEnvelope failed: %v", err)
	}
	if env.EventID != id {
		t.Fatalf("expected event id override, got %s", env.EventID)
	}
	if !env.OccurredAt().Equal(fixedNow) {
		t.Fatalf("unexpected timestamp: %v", env.OccurredAt())
	}
	if env.Aggregate != "booking:b-1" || env.Source != Source || env.Version != 1 {
		t.Fatalf("unexpected envelope header %#v", env)
	}
	if env.EventType != "bookings.booking.created.v1" {
		t.Fatalf("unexpected type: %s", env.EventType)
	}
	if env.CorrelationID != "sess-1" {
		t.Fatalf("unexpected correlation id: %q", env.CorrelationID)
	}
	if len(env.Payload) == 0 {
		t.Fatal("expected payload bytes")
	}
}

func TestNewEnvelopeValidation(t *testing.T) {
	tests := []struct {
		name      string
		aggregate string
		evt       CanonicalEvent
		want      error
	}{
		{"blank aggregate", " ", BookingReassignedV1{}, ErrMissingAggregate},
		{"aggregate without id", CallAggregate(""), OutboundCallCompletedV1{}, ErrMissingAggregate},
		{"nil event", BookingAggregate("1"), nil, ErrNilEvent},
		{"unnamed event", BookingAggregate("1"), badEvent{}, ErrMissingEventType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewEnvelope(tt.aggregate, tt.evt); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

type futureEvent struct{}

func (futureEvent) EventType() string { return "bookings.booking.archived.v3" }

func TestEnvelopeVersionFromType(t *testing.T) {
	env, err := NewEnvelope(BookingAggregate("7"), futureEvent{})
	if err != nil {
		t.Fatalf("NewEnvelope failed: %v", err)
	}
	if env.Version != 3 {
		t.Fatalf("expected version 3, got %d", env.Version)
	}
	if typeVersion("bookings.booking.created") != 1 || typeVersion("x.vbad") != 1 {
		t.Fatal("unversioned types should default to 1")
	}
}

func TestSQSPublisherSendsEnvelope(t *testing.T) {
	stub := &stubSQS{}
	pub := newSQSPublisher(stub, "https://sqs.local/queue")
	err := pub.Publish(context.Background(), "booking:b-2", BookingStatusChangedV1{BookingID: "b-2", From: "Assigned", To: "In Progress"})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if aws.ToString(stub.input.QueueUrl) != "https://sqs.local/queue" {
		t.Fatalf("unexpected queue url %q", aws.ToString(stub.input.QueueUrl))
	}
	var env Envelope
	if err := json.Unmarshal([]byte(aws.ToString(stub.input.MessageBody)), &env); err != nil {
		t.Fatalf("body is not an envelope: %v", err)
	}
	if env.EventType != "bookings.booking.status_changed.v1" || env.Aggregate != "booking:b-2" {
		t.Fatalf("unexpected envelope %#v", env)
	}
	if got := aws.ToString(stub.input.MessageAttributes["event_type"].StringValue); got != env.EventType {
		t.Fatalf("expected event_type attribute, got %q", got)
	}
}

func TestSQSPublisherWrapsErrors(t *testing.T) {
	stub := &stubSQS{err: errors.New("throttled")}
	pub := newSQSPublisher(stub, "q")
	if err := pub.Publish(context.Background(), "booking:1", BookingReassignedV1{BookingID: "1"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestLogPublisher(t *testing.T) {
	pub := NewLogPublisher(logging.Discard())
	if err := pub.Publish(context.Background(), "call:c-1", OutboundCallCompletedV1{CallID: "c-1"}); err != nil {
		t.Fatalf("log publish failed: %v", err)
	}
}
