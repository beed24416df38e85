// Package intake decides when a conversation may create a booking. Each
// session commits at most once, and only after the customer confirmed a
// complete summary.
package intake

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/arcticflow-dispatch/internal/bookings"
	"github.com/wolfman30/arcticflow-dispatch/internal/observability/metrics"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

var intakeTracer = otel.Tracer("arcticflow.internal.intake")

// Extractor reads booking fields out of a transcript.
type Extractor interface {
	Extract(ctx context.Context, transcript Transcript) (Extraction, error)
}

// Committer creates bookings.
type Committer interface {
	Create(ctx context.Context, c bookings.Candidate) (*bookings.Booking, bool, error)
}

// State is a session's commit state.
type State string

const (
	StateGathering  State = "gathering"
	StateCommitting State = "committing"
	StateCommitted  State = "committed"
	StateClosed     State = "closed"
)

// Outcome reports what a checkpoint did.
type Outcome string

const (
	OutcomePending          Outcome = "pending"
	OutcomeCommitted        Outcome = "committed"
	OutcomeCommitFailed     Outcome = "commit_failed"
	OutcomeIgnored          Outcome = "ignored"
	OutcomeExtractionFailed Outcome = "extraction_failed"
	OutcomeSkipped          Outcome = "skipped"
)

// Session guards booking creation for one conversation.
type Session struct {
	id        string
	channel   string
	extractor Extractor
	committer Committer
	logger    *logging.Logger
	metrics   *metrics.DispatchMetrics

	// checkpoint serialises checkpoints; mu guards the fields below.
	checkpoint sync.Mutex
	mu         sync.Mutex
	state      State
	closed     bool
	booking    *bookings.Booking
}

// SessionOption customizes a session.
type SessionOption func(*Session)

func WithMetrics(m *metrics.DispatchMetrics) SessionOption {
	return func(s *Session) { s.metrics = m }
}

// NewSession starts a session in the gathering state. channel labels logs
// and the created booking's source ("chat", "voice").
func NewSession(id, channel string, extractor Extractor, committer Committer, logger *logging.Logger, opts ...SessionOption) *Session {
	if extractor == nil || committer == nil {
		panic("intake: extractor and committer required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Session{
		id:        id,
		channel:   channel,
		extractor: extractor,
		committer: committer,
		logger:    logger,
		state:     StateGathering,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Session) ID() string { return s.id }

// State returns the current state. A closed session that never committed
// reports StateClosed.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed && s.state == StateGathering {
		return StateClosed
	}
	return s.state
}

// Booking returns the booking created by this session, if any.
func (s *Session) Booking() *bookings.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.booking == nil {
		return nil
	}
	b := s.booking.Clone()
	return &b
}

// Close stops further checkpoints. A commit already made stands.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Checkpoint runs extraction over the transcript and commits when the
// customer has confirmed a complete booking. Checkpoints on one session run
// one at a time. Extraction errors are logged and reported as
// OutcomeExtractionFailed; the next checkpoint retries with a longer
// transcript. An error is returned only when the commit itself fails.
func (s *Session) Checkpoint(ctx context.Context, transcript Transcript) (Outcome, error) {
	s.checkpoint.Lock()
	defer s.checkpoint.Unlock()

	ctx, span := intakeTracer.Start(ctx, "intake.checkpoint")
	defer span.End()
	span.SetAttributes(
		attribute.String("arcticflow.session_id", s.id),
		attribute.String("arcticflow.channel", s.channel),
		attribute.Int("arcticflow.turns", len(transcript)),
	)

	if !s.open() {
		return s.done(span, OutcomeIgnored), nil
	}

	started := time.Now()
	extraction, err := s.extractor.Extract(ctx, transcript.Clone())
	s.metrics.ObserveExtraction(time.Since(started).Seconds(), err)
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("extraction failed", "session_id", s.id, "channel", s.channel, "error", err)
		return s.done(span, OutcomeExtractionFailed), nil
	}
	if !extraction.Ready() {
		return s.done(span, OutcomePending), nil
	}

	if !s.begin() {
		return s.done(span, OutcomeIgnored), nil
	}
	booking, created, err := s.committer.Create(ctx, extraction.Candidate(s.channel))
	s.finish(booking)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("booking commit failed", "session_id", s.id, "channel", s.channel, "error", err)
		return s.done(span, OutcomeCommitFailed), err
	}
	bookingID := ""
	if booking != nil {
		bookingID = booking.ID
	}
	s.logger.Info("booking committed from conversation",
		"session_id", s.id,
		"channel", s.channel,
		"booking_id", bookingID,
		"created", created,
	)
	return s.done(span, OutcomeCommitted), nil
}

func (s *Session) open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.state == StateGathering
}

// begin moves gathering to committing. Only one caller can win.
func (s *Session) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateGathering {
		return false
	}
	s.state = StateCommitting
	return true
}

func (s *Session) finish(b *bookings.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateCommitted
	s.booking = b
}

func (s *Session) done(span trace.Span, outcome Outcome) Outcome {
	span.SetAttributes(attribute.String("arcticflow.outcome", string(outcome)))
	s.metrics.ObserveCheckpoint(s.channel, string(outcome))
	return outcome
}
