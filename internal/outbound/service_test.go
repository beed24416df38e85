package outbound

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/arcticflow-dispatch/internal/availability"
	"github.com/wolfman30/arcticflow-dispatch/internal/bookings"
	"github.com/wolfman30/arcticflow-dispatch/internal/events"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

type stubCaller struct {
	reqs []CallRequest
	err  error
}

func (c *stubCaller) StartCall(ctx context.Context, req CallRequest) (string, error) {
	c.reqs = append(c.reqs, req)
	if c.err != nil {
		return "", c.err
	}
	return "call_1", nil
}

type stubLedger struct {
	mu      sync.Mutex
	booking bookings.Booking
	notes   []string
}

func (l *stubLedger) Get(ctx context.Context, id string) (*bookings.Booking, error) {
	if id != l.booking.ID {
		return nil, bookings.ErrBookingNotFound
	}
	b := l.booking
	return &b, nil
}

func (l *stubLedger) AddNote(ctx context.Context, id, author, text string) (*bookings.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if id != l.booking.ID {
		return nil, bookings.ErrBookingNotFound
	}
	l.notes = append(l.notes, author+": "+text)
	b := l.booking
	return &b, nil
}

type stubDigests struct{}

func (stubDigests) Summary(context.Context) (availability.Digest, error) {
	return availability.Digest{Days: []availability.Day{{
		Date:  "2025-05-20",
		Cells: []availability.Cell{{Time: "09:00", Repair: 1}},
	}}}, nil
}

type capturePublisher struct {
	events []events.CanonicalEvent
}

func (p *capturePublisher) Publish(ctx context.Context, aggregate string, evt events.CanonicalEvent, opts ...events.EnvelopeOption) error {
	p.events = append(p.events, evt)
	return nil
}

func newTestService(caller Caller) (*Service, *stubLedger, *capturePublisher, *MemoryCallStore) {
	ledger := &stubLedger{booking: bookings.Booking{ID: "1", Name: "John Doe", Phone: "0412 345 678", ServiceType: "Repair / Maintenance"}}
	pub := &capturePublisher{}
	store := NewMemoryCallStore()
	svc := NewService(caller, store, ledger, stubDigests{}, logging.Discard(),
		WithPublisher(pub),
		WithNow(func() time.Time { return time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC) }),
	)
	return svc, ledger, pub, store
}

func TestCallBookingUsesBookingAndDigest(t *testing.T) {
	caller := &stubCaller{}
	svc, _, _, store := newTestService(caller)

	rec, err := svc.CallBooking(context.Background(), "1", "")
	require.NoError(t, err)
	assert.Equal(t, "call_1", rec.ID)
	assert.Equal(t, StatusQueued, rec.Status)
	assert.Equal(t, "+61412345678", rec.PhoneNumber)

	require.Len(t, caller.reqs, 1)
	req := caller.reqs[0]
	assert.Equal(t, "+61412345678", req.PhoneNumber)
	assert.Equal(t, "Repair / Maintenance", req.JobType)
	assert.Equal(t, "1", req.BookingID)
	assert.Contains(t, req.TimeSlots, "2025-05-20: [09:00: 1R 0I]")
	assert.NotEmpty(t, req.CallReason)

	stored, err := store.Get(context.Background(), "call_1")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", stored.CustomerName)

	_, err = svc.CallBooking(context.Background(), "missing", "")
	assert.ErrorIs(t, err, bookings.ErrBookingNotFound)
}

func TestCallFailuresSurfaceAsProviderUnavailable(t *testing.T) {
	svc, _, _, _ := newTestService(&stubCaller{err: errors.New("boom")})
	_, err := svc.CallBooking(context.Background(), "1", "reminder")
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	disabled, _, _, _ := newTestService(nil)
	_, err = disabled.CallBooking(context.Background(), "1", "reminder")
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	_, err = disabled.Call(context.Background(), CallRequest{PhoneNumber: "555-0101", CustomerName: "A"})
	assert.ErrorIs(t, err, ErrInvalidPhone)
	_, err = disabled.Call(context.Background(), CallRequest{PhoneNumber: "0412 345 678"})
	assert.ErrorIs(t, err, ErrMissingName)
}

func TestHandleWebhookRecordsPublishesAndNotes(t *testing.T) {
	svc, ledger, pub, store := newTestService(&stubCaller{})
	ctx := context.Background()
	_, err := svc.CallBooking(ctx, "1", "confirm")
	require.NoError(t, err)

	body := `{"type":"call.completed","call":{"id":"call_1",
		"analysis":{"structuredData":{"booking_confirmed":true,"selected_time":"2025-05-21 11:00","urgency":"medium","notes":"gate code 1234"}}}}`
	rec, err := svc.HandleWebhook(ctx, []byte(body))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "1", rec.BookingID)
	assert.Equal(t, "+61412345678", rec.PhoneNumber)
	assert.Equal(t, "John Doe", rec.CustomerName)

	stored, err := store.Get(ctx, "call_1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status)

	require.Len(t, pub.events, 1)
	evt := pub.events[0].(events.OutboundCallCompletedV1)
	assert.True(t, evt.BookingConfirmed)
	assert.Equal(t, "2025-05-21 11:00", evt.SelectedTime)

	require.Len(t, ledger.notes, 1)
	assert.Equal(t, "AI Outbound Call: Outbound call: customer confirmed for 2025-05-21 11:00. Urgency: medium. gate code 1234", ledger.notes[0])

	rec, err = svc.HandleWebhook(ctx, []byte(`{"type":"status-update","call":{"id":"call_1"}}`))
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Len(t, pub.events, 1)
}
