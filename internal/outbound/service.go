// Package outbound places AI voice calls to customers and records what the
// calls concluded.
package outbound

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/arcticflow-dispatch/internal/availability"
	"github.com/wolfman30/arcticflow-dispatch/internal/bookings"
	"github.com/wolfman30/arcticflow-dispatch/internal/events"
	"github.com/wolfman30/arcticflow-dispatch/internal/observability/metrics"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

var outboundTracer = otel.Tracer("arcticflow.internal.outbound")

const noteAuthor = "AI Outbound Call"

// Caller places calls with a voice provider.
type Caller interface {
	StartCall(ctx context.Context, req CallRequest) (string, error)
}

// BookingLedger is the slice of the ledger outbound calls touch.
type BookingLedger interface {
	Get(ctx context.Context, id string) (*bookings.Booking, error)
	AddNote(ctx context.Context, id, author, text string) (*bookings.Booking, error)
}

// DigestSource supplies the availability digest read to customers.
type DigestSource interface {
	Summary(ctx context.Context) (availability.Digest, error)
}

// Service places outbound calls and ingests their results.
type Service struct {
	caller    Caller
	store     CallStore
	ledger    BookingLedger
	digests   DigestSource
	publisher events.Publisher
	metrics   *metrics.DispatchMetrics
	logger    *logging.Logger
	now       func() time.Time
	region    string
}

type ServiceOption func(*Service)

func WithPublisher(p events.Publisher) ServiceOption {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(m *metrics.DispatchMetrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

func WithNow(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

func WithRegion(region string) ServiceOption {
	return func(s *Service) {
		if region != "" {
			s.region = region
		}
	}
}

// NewService builds the outbound service. A nil caller leaves outbound
// calling disabled; every attempt then fails with ErrProviderUnavailable.
func NewService(caller Caller, store CallStore, ledger BookingLedger, digests DigestSource, logger *logging.Logger, opts ...ServiceOption) *Service {
	if store == nil || ledger == nil || digests == nil {
		panic("outbound: store, ledger and digests required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		caller:  caller,
		store:   store,
		ledger:  ledger,
		digests: digests,
		logger:  logger,
		now:     time.Now,
		region:  DefaultRegion,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// CallBooking calls the customer of an existing booking.
func (s *Service) CallBooking(ctx context.Context, bookingID, reason string) (CallRecord, error) {
	b, err := s.ledger.Get(ctx, bookingID)
	if err != nil {
		return CallRecord{}, err
	}
	if strings.TrimSpace(reason) == "" {
		reason = "Follow up on your service request"
	}
	return s.Call(ctx, CallRequest{
		PhoneNumber:  b.Phone,
		CustomerName: b.Name,
		JobType:      b.ServiceType,
		CallReason:   reason,
		BookingID:    b.ID,
	})
}

// Call normalizes the number, fills the time slots from the availability
// digest when absent, and places the call.
func (s *Service) Call(ctx context.Context, req CallRequest) (CallRecord, error) {
	ctx, span := outboundTracer.Start(ctx, "outbound.start_call")
	defer span.End()
	span.SetAttributes(attribute.String("arcticflow.booking_id", req.BookingID))

	if strings.TrimSpace(req.CustomerName) == "" {
		return CallRecord{}, ErrMissingName
	}
	phone, err := NormalizePhone(req.PhoneNumber, s.region)
	if err != nil {
		return CallRecord{}, err
	}
	req.PhoneNumber = phone
	if strings.TrimSpace(req.TimeSlots) == "" {
		digest, err := s.digests.Summary(ctx)
		if err != nil {
			span.RecordError(err)
			return CallRecord{}, fmt.Errorf("outbound: availability digest: %w", err)
		}
		req.TimeSlots = digest.String()
	}
	if s.caller == nil {
		s.metrics.ObserveOutboundCall("failed")
		return CallRecord{}, fmt.Errorf("%w: outbound calling is not configured", ErrProviderUnavailable)
	}

	callID, err := s.caller.StartCall(ctx, req)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveOutboundCall("failed")
		s.logger.Error("outbound call failed", "booking_id", req.BookingID, "to", maskPhone(phone), "error", err)
		if !errors.Is(err, ErrProviderUnavailable) {
			err = fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		return CallRecord{}, err
	}
	rec := CallRecord{
		ID:           callID,
		BookingID:    req.BookingID,
		PhoneNumber:  phone,
		CustomerName: req.CustomerName,
		Status:       StatusQueued,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Save(ctx, rec); err != nil {
		s.logger.Warn("failed to record outbound call", "call_id", callID, "error", err)
	}
	s.metrics.ObserveOutboundCall(StatusQueued)
	span.SetAttributes(attribute.String("arcticflow.call_id", callID))
	return rec, nil
}

// HandleWebhook ingests a provider webhook. Non-completion events return
// (nil, nil). A completed call is recorded, published, and noted on its
// booking.
func (s *Service) HandleWebhook(ctx context.Context, body []byte) (*CallRecord, error) {
	rec, err := ParseWebhook(body, s.now())
	if err != nil || rec == nil {
		return nil, err
	}
	if summary := webhookSummary(body); summary != "" {
		s.logger.Info("outbound call summary", "call_id", rec.ID, "summary", summary)
	}
	if prior, err := s.store.Get(ctx, rec.ID); err == nil {
		if rec.BookingID == "" {
			rec.BookingID = prior.BookingID
		}
		if rec.PhoneNumber == "Unknown" {
			rec.PhoneNumber = prior.PhoneNumber
		}
		if rec.CustomerName == "Client" && prior.CustomerName != "" {
			rec.CustomerName = prior.CustomerName
		}
	}
	if err := s.store.Save(ctx, *rec); err != nil {
		return nil, err
	}
	s.metrics.ObserveOutboundCall(StatusCompleted)

	selected := ""
	if rec.Result.SelectedTime != nil {
		selected = *rec.Result.SelectedTime
	}
	if s.publisher != nil {
		evt := events.OutboundCallCompletedV1{
			CallID:           rec.ID,
			BookingID:        rec.BookingID,
			BookingConfirmed: rec.Result.BookingConfirmed,
			SelectedTime:     selected,
			Urgency:          rec.Result.Urgency,
			CompletedAt:      rec.CreatedAt,
		}
		if err := s.publisher.Publish(ctx, events.CallAggregate(rec.ID), evt, events.WithOccurredAt(rec.CreatedAt)); err != nil {
			s.logger.Warn("failed to publish call completion", "call_id", rec.ID, "error", err)
		}
	}
	if rec.BookingID != "" {
		if _, err := s.ledger.AddNote(ctx, rec.BookingID, noteAuthor, callNote(*rec.Result, selected)); err != nil {
			s.logger.Warn("failed to note call result on booking", "call_id", rec.ID, "booking_id", rec.BookingID, "error", err)
		}
	}
	return rec, nil
}

func callNote(r CallResult, selected string) string {
	var b strings.Builder
	if r.BookingConfirmed {
		b.WriteString("Outbound call: customer confirmed")
		if selected != "" {
			b.WriteString(" for " + selected)
		}
	} else {
		b.WriteString("Outbound call: no booking confirmed")
	}
	b.WriteString(". Urgency: " + r.Urgency + ".")
	if notes := strings.TrimSpace(r.Notes); notes != "" {
		b.WriteString(" " + notes)
	}
	return b.String()
}

func (s *Service) Get(ctx context.Context, id string) (CallRecord, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Recent(ctx context.Context, limit int) ([]CallRecord, error) {
	return s.store.Recent(ctx, limit)
}
