package bookings

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/arcticflow-dispatch/internal/events"
	"github.com/wolfman30/arcticflow-dispatch/internal/observability/metrics"
	"github.com/wolfman30/arcticflow-dispatch/internal/roster"
	"github.com/wolfman30/arcticflow-dispatch/internal/schedule"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

var bookingsTracer = otel.Tracer("arcticflow.internal.bookings")

// StaffResolver picks eligible staff for a slot against a given collection.
type StaffResolver interface {
	AvailableAmong(ctx context.Context, current []Booking, slot schedule.Slot, team roster.TeamType) ([]roster.StaffMember, error)
}

// StaffDirectory looks up roster members by ID.
type StaffDirectory interface {
	Get(ctx context.Context, id string) (*roster.StaffMember, error)
}

// Ledger is the only writer of the booking collection. Every operation is a
// load-modify-save of the whole collection under one mutex.
type Ledger struct {
	store    Store
	resolver StaffResolver
	staff    StaffDirectory
	clock    schedule.Clock
	events   events.Publisher
	metrics  *metrics.DispatchMetrics
	logger   *logging.Logger
	newID    func() string
	mu       sync.Mutex
}

// Option customizes a Ledger.
type Option func(*Ledger)

func WithClock(c schedule.Clock) Option {
	return func(l *Ledger) {
		if c != nil {
			l.clock = c
		}
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(l *Ledger) { l.events = p }
}

func WithMetrics(m *metrics.DispatchMetrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithIDGenerator overrides identity generation (tests).
func WithIDGenerator(fn func() string) Option {
	return func(l *Ledger) {
		if fn != nil {
			l.newID = fn
		}
	}
}

// NewLedger wires a ledger over its store, availability resolver and roster.
func NewLedger(store Store, resolver StaffResolver, staff StaffDirectory, logger *logging.Logger, opts ...Option) *Ledger {
	if store == nil {
		panic("bookings: store required")
	}
	if resolver == nil {
		panic("bookings: staff resolver required")
	}
	if staff == nil {
		panic("bookings: staff directory required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	l := &Ledger{
		store:    store,
		resolver: resolver,
		staff:    staff,
		clock:    schedule.NewSystemClock(schedule.DefaultTimezone),
		logger:   logger,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Create normalizes a candidate and inserts it at the head of the ledger.
// A duplicate of a live booking is a silent no-op that returns the existing
// booking with created=false.
func (l *Ledger) Create(ctx context.Context, c Candidate) (*Booking, bool, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.create")
	defer span.End()

	slot := ResolveSlot(c.PreferredDateTime)
	name := orDefault(c.Name, defaultName)
	location := ResolveLocation(c)
	team := ResolveTeam(c)
	span.SetAttributes(
		attribute.String("arcticflow.slot", slot.String()),
		attribute.String("arcticflow.team", string(team)),
	)

	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.store.Load(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, false, err
	}
	for i := range current {
		if IsDuplicate(&current[i], name, location.Address, slot) {
			existing := current[i].Clone()
			l.metrics.ObserveCreate(false, existing.Assigned())
			l.logger.Info("booking create suppressed as duplicate", "booking_id", existing.ID, "slot", slot.String())
			return &existing, false, nil
		}
	}

	assigned := cleanIDs(c.AssignedStaffIDs)
	if len(assigned) == 0 {
		free, err := l.resolver.AvailableAmong(ctx, current, slot, team)
		if err != nil {
			span.RecordError(err)
			return nil, false, fmt.Errorf("bookings: resolve availability: %w", err)
		}
		if len(free) > 0 {
			assigned = []string{free[0].ID}
		}
	}

	status := StatusNew
	if len(assigned) > 0 {
		status = StatusAssigned
	}
	booking := Booking{
		ID:                l.newID(),
		Name:              name,
		Phone:             orDefault(c.Phone, defaultPhone),
		Email:             strings.TrimSpace(c.Email),
		ServiceType:       orDefault(c.ServiceType, DefaultServiceType),
		SystemType:        strings.TrimSpace(c.SystemType),
		TeamType:          team,
		Description:       orDefault(c.Description, defaultDescription),
		Location:          location,
		PreferredDateTime: slot,
		Status:            status,
		CreatedAt:         schedule.Stamp(l.clock),
		AssignedStaffIDs:  assigned,
		Notes:             append([]string{}, c.Notes...),
		InternalNotes:     []InternalNote{},
		EstimatedCost:     strings.TrimSpace(c.EstimatedCost),
		LineItems:         append([]LineItem{}, c.LineItems...),
		Payments:          append([]Payment{}, c.Payments...),
		IsInvoiced:        false,
		Attachments:       []Attachment{},
		LaborHours:        c.LaborHours,
		EquipmentUsed:     append([]string(nil), c.EquipmentUsed...),
	}

	next := make([]Booking, 0, len(current)+1)
	next = append(next, booking)
	next = append(next, current...)
	if err := l.store.SaveAll(ctx, next); err != nil {
		span.RecordError(err)
		return nil, false, err
	}

	span.SetAttributes(attribute.String("arcticflow.booking_id", booking.ID))
	l.metrics.ObserveCreate(true, booking.Assigned())
	l.logger.Info("booking created",
		"booking_id", booking.ID,
		"slot", slot.String(),
		"team", team,
		"status", booking.Status,
		"assigned_staff", strings.Join(booking.AssignedStaffIDs, ","),
		"source", c.Source,
	)
	l.publish(ctx, booking.ID, events.BookingCreatedV1{
		BookingID:        booking.ID,
		CustomerName:     booking.Name,
		TeamType:         string(booking.TeamType),
		Slot:             booking.PreferredDateTime.String(),
		AssignedStaffIDs: booking.AssignedStaffIDs,
		Source:           c.Source,
		CreatedAt:        l.clock.Now(),
	})
	out := booking.Clone()
	return &out, true, nil
}

// Update replaces a booking by ID with a complete, already merged record.
func (l *Ledger) Update(ctx context.Context, b Booking) error {
	ctx, span := bookingsTracer.Start(ctx, "bookings.update")
	defer span.End()
	span.SetAttributes(attribute.String("arcticflow.booking_id", b.ID))

	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.replace(ctx, b.ID, func(old *Booking) (Booking, error) {
		return b.Clone(), nil
	})
	if err != nil {
		span.RecordError(err)
	}
	l.metrics.ObserveLedgerOp("update", err)
	return err
}

// Apply edits a copy of the booking with fn and saves it, reading and
// writing under the ledger lock. op names the change in traces and metrics.
func (l *Ledger) Apply(ctx context.Context, op, id string, fn func(next *Booking) error) (*Booking, error) {
	return l.mutate(ctx, op, id, fn)
}

// Delete removes a booking. Its payments and attachments go with it.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	ctx, span := bookingsTracer.Start(ctx, "bookings.delete")
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.store.Load(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}
	next := make([]Booking, 0, len(current))
	found := false
	for _, b := range current {
		if b.ID == id {
			found = true
			continue
		}
		next = append(next, b)
	}
	if !found {
		return ErrBookingNotFound
	}
	if err := l.store.SaveAll(ctx, next); err != nil {
		span.RecordError(err)
		return err
	}
	l.metrics.ObserveLedgerOp("delete", nil)
	l.logger.Info("booking deleted", "booking_id", id)
	return nil
}

// reassignAllowed gates manual reassignment. Every status is accepted,
// including Completed and Cancelled.
func reassignAllowed(JobStatus) bool {
	return true
}

// Reassign hands the booking to staffID, or clears the assignment when
// staffID is empty, and records an audit note.
func (l *Ledger) Reassign(ctx context.Context, id, staffID, author string) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.reassign")
	defer span.End()
	span.SetAttributes(attribute.String("arcticflow.booking_id", id))

	staffID = strings.TrimSpace(staffID)
	label := "Unassigned"
	if staffID != "" {
		member, err := l.staff.Get(ctx, staffID)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		label = member.Name
	}
	author = orDefault(author, "Admin Dashboard")

	l.mu.Lock()
	defer l.mu.Unlock()

	updated, err := l.replace(ctx, id, func(old *Booking) (Booking, error) {
		if !reassignAllowed(old.Status) {
			return Booking{}, ErrInvalidTransition
		}
		next := old.Clone()
		if staffID != "" {
			next.AssignedStaffIDs = []string{staffID}
			next.Status = StatusAssigned
		} else {
			next.AssignedStaffIDs = []string{}
			next.Status = StatusNew
		}
		next.InternalNotes = l.prependNote(next.InternalNotes, author, fmt.Sprintf("Personnel Reassignment: [%s]", label))
		return next, nil
	})
	l.metrics.ObserveLedgerOp("reassign", err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	l.logger.Info("booking reassigned", "booking_id", id, "staff_id", staffID, "author", author)
	l.publish(ctx, id, events.BookingReassignedV1{
		BookingID:    id,
		StaffID:      staffID,
		Author:       author,
		ReassignedAt: l.clock.Now(),
	})
	return updated, nil
}

// Start moves an assigned job into progress.
func (l *Ledger) Start(ctx context.Context, id string) (*Booking, error) {
	return l.transition(ctx, "start", id, func(old *Booking) (Booking, error) {
		if old.Status != StatusAssigned {
			return Booking{}, fmt.Errorf("%w: cannot start a %s job", ErrInvalidTransition, old.Status)
		}
		next := old.Clone()
		next.Status = StatusInProgress
		return next, nil
	})
}

// Complete signs off an in-progress job. The electrical safety check and a
// customer signature are mandatory.
func (l *Ledger) Complete(ctx context.Context, id string, report CompletionReport) (*Booking, error) {
	if !report.SafetyChecks.Electrical {
		return nil, ErrSafetyAttestation
	}
	if strings.TrimSpace(report.CustomerSignature) == "" {
		return nil, ErrCustomerConfirmation
	}
	return l.transition(ctx, "complete", id, func(old *Booking) (Booking, error) {
		if old.Status != StatusInProgress {
			return Booking{}, fmt.Errorf("%w: cannot complete a %s job", ErrInvalidTransition, old.Status)
		}
		next := old.Clone()
		final := report
		final.ARCLicense = l.technicianLicense(ctx, old.AssignedStaffIDs)
		final.CompletedAt = schedule.Stamp(l.clock)
		next.CompletionReport = &final
		next.Status = StatusCompleted
		return next, nil
	})
}

// Cancel withdraws a job that has not been completed and releases its staff.
func (l *Ledger) Cancel(ctx context.Context, id, author string) (*Booking, error) {
	author = orDefault(author, "Admin Dashboard")
	return l.transition(ctx, "cancel", id, func(old *Booking) (Booking, error) {
		if old.Status == StatusCompleted || old.Status == StatusCancelled {
			return Booking{}, fmt.Errorf("%w: cannot cancel a %s job", ErrInvalidTransition, old.Status)
		}
		next := old.Clone()
		next.Status = StatusCancelled
		next.AssignedStaffIDs = []string{}
		next.InternalNotes = l.prependNote(next.InternalNotes, author, "Booking cancelled")
		return next, nil
	})
}

// AddNote prepends an internal note.
func (l *Ledger) AddNote(ctx context.Context, id, author, text string) (*Booking, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: note text", ErrMissingField)
	}
	author = orDefault(author, "Field Technician")
	return l.mutate(ctx, "add_note", id, func(next *Booking) error {
		next.InternalNotes = l.prependNote(next.InternalNotes, author, text)
		return nil
	})
}

// RecordPayment appends a payment. Amounts must be positive.
func (l *Ledger) RecordPayment(ctx context.Context, id string, p Payment) (*Booking, error) {
	if p.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	p.ID = l.newID()
	p.Method = orDefault(p.Method, "Cash")
	if p.Date == "" {
		p.Date = schedule.Stamp(l.clock)
	}
	return l.mutate(ctx, "record_payment", id, func(next *Booking) error {
		next.Payments = append(next.Payments, p)
		return nil
	})
}

// AddLineItem appends a manual charge and marks the booking as needing a
// fresh invoice.
func (l *Ledger) AddLineItem(ctx context.Context, id, description string, amount float64) (*Booking, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: line item description", ErrMissingField)
	}
	item := LineItem{ID: l.newID(), Description: description, Amount: amount, Origin: OriginManual}
	return l.mutate(ctx, "add_line_item", id, func(next *Booking) error {
		next.LineItems = append(next.LineItems, item)
		next.IsInvoiced = false
		return nil
	})
}

// SetLabor records the labour hours used for derivation.
func (l *Ledger) SetLabor(ctx context.Context, id string, hours float64) (*Booking, error) {
	if hours < 0 {
		return nil, ErrInvalidAmount
	}
	return l.mutate(ctx, "set_labor", id, func(next *Booking) error {
		next.LaborHours = hours
		return nil
	})
}

// SetEquipment replaces the list of catalog models used on the job.
func (l *Ledger) SetEquipment(ctx context.Context, id string, models []string) (*Booking, error) {
	cleaned := cleanIDs(models)
	return l.mutate(ctx, "set_equipment", id, func(next *Booking) error {
		next.EquipmentUsed = cleaned
		return nil
	})
}

// AddAttachment appends attachment metadata.
func (l *Ledger) AddAttachment(ctx context.Context, id string, a Attachment) (*Booking, error) {
	if strings.TrimSpace(a.Name) == "" {
		return nil, fmt.Errorf("%w: attachment name", ErrMissingField)
	}
	a.ID = l.newID()
	if a.Type != "image" {
		a.Type = "document"
	}
	if a.UploadedAt == "" {
		a.UploadedAt = schedule.Stamp(l.clock)
	}
	return l.mutate(ctx, "add_attachment", id, func(next *Booking) error {
		next.Attachments = append(next.Attachments, a)
		return nil
	})
}

// Get returns a copy of one booking.
func (l *Ledger) Get(ctx context.Context, id string) (*Booking, error) {
	current, err := l.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range current {
		if current[i].ID == id {
			b := current[i].Clone()
			return &b, nil
		}
	}
	return nil, ErrBookingNotFound
}

// List returns bookings newest first, narrowed by f.
func (l *Ledger) List(ctx context.Context, f Filter) ([]Booking, error) {
	current, err := l.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Booking, 0, len(current))
	for i := range current {
		if f.matches(&current[i]) {
			out = append(out, current[i].Clone())
		}
	}
	return out, nil
}

// Snapshot returns the full collection for read-only consumers.
func (l *Ledger) Snapshot(ctx context.Context) ([]Booking, error) {
	return l.List(ctx, Filter{})
}

// AssignedTo lists the jobs a staff member holds that are not cancelled.
func (l *Ledger) AssignedTo(ctx context.Context, staffID string) ([]Booking, error) {
	all, err := l.List(ctx, Filter{StaffID: staffID})
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, b := range all {
		if b.Status != StatusCancelled {
			out = append(out, b)
		}
	}
	return out, nil
}

func (l *Ledger) transition(ctx context.Context, op, id string, fn func(old *Booking) (Booking, error)) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings."+op)
	defer span.End()
	span.SetAttributes(attribute.String("arcticflow.booking_id", id))

	l.mu.Lock()
	defer l.mu.Unlock()

	var from JobStatus
	updated, err := l.replace(ctx, id, func(old *Booking) (Booking, error) {
		from = old.Status
		return fn(old)
	})
	l.metrics.ObserveLedgerOp(op, err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	l.logger.Info("booking status changed", "booking_id", id, "from", from, "to", updated.Status)
	l.publish(ctx, id, events.BookingStatusChangedV1{
		BookingID:        id,
		From:             string(from),
		To:               string(updated.Status),
		AssignedStaffIDs: updated.AssignedStaffIDs,
		ChangedAt:        l.clock.Now(),
	})
	return updated, nil
}

func (l *Ledger) mutate(ctx context.Context, op, id string, fn func(next *Booking) error) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings."+op)
	defer span.End()
	span.SetAttributes(attribute.String("arcticflow.booking_id", id))

	l.mu.Lock()
	defer l.mu.Unlock()

	updated, err := l.replace(ctx, id, func(old *Booking) (Booking, error) {
		next := old.Clone()
		if err := fn(&next); err != nil {
			return Booking{}, err
		}
		return next, nil
	})
	l.metrics.ObserveLedgerOp(op, err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return updated, nil
}

// replace loads the collection, swaps in the record produced by fn after
// validating it, and saves. Callers hold l.mu.
func (l *Ledger) replace(ctx context.Context, id string, fn func(old *Booking) (Booking, error)) (*Booking, error) {
	current, err := l.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range current {
		if current[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrBookingNotFound
	}
	next, err := fn(&current[idx])
	if err != nil {
		return nil, err
	}
	next.ID = id
	if err := normalizeAssignment(&next); err != nil {
		return nil, err
	}
	if !notesPreserved(current[idx].InternalNotes, next.InternalNotes) {
		return nil, ErrNotesRewritten
	}
	applyDefaults(&next)
	current[idx] = next
	if err := l.store.SaveAll(ctx, current); err != nil {
		return nil, err
	}
	out := next.Clone()
	return &out, nil
}

// normalizeAssignment enforces that staffed statuses carry an assignment and
// unstaffed ones do not. Confirmed without staff folds into New.
func normalizeAssignment(b *Booking) error {
	b.AssignedStaffIDs = cleanIDs(b.AssignedStaffIDs)
	staffed := len(b.AssignedStaffIDs) > 0
	switch {
	case b.Status == "":
		if staffed {
			b.Status = StatusAssigned
		} else {
			b.Status = StatusNew
		}
	case b.Status == StatusConfirmed:
		if staffed {
			b.Status = StatusAssigned
		} else {
			b.Status = StatusNew
		}
	case b.Status == StatusCancelled:
		b.AssignedStaffIDs = []string{}
	case staffed != b.Status.Staffed():
		return fmt.Errorf("%w: %s with %d staff", ErrInconsistentAssignment, b.Status, len(b.AssignedStaffIDs))
	}
	return nil
}

// notesPreserved reports whether every existing note survives, in order, as
// the tail of the new list. New notes may only be prepended.
func notesPreserved(old, next []InternalNote) bool {
	if len(next) < len(old) {
		return false
	}
	offset := len(next) - len(old)
	for i := range old {
		if next[offset+i] != old[i] {
			return false
		}
	}
	return true
}

func (l *Ledger) prependNote(notes []InternalNote, author, text string) []InternalNote {
	note := InternalNote{
		ID:        l.newID(),
		Text:      text,
		Author:    author,
		Timestamp: schedule.Stamp(l.clock),
	}
	return append([]InternalNote{note}, notes...)
}

func (l *Ledger) technicianLicense(ctx context.Context, staffIDs []string) string {
	for _, id := range staffIDs {
		member, err := l.staff.Get(ctx, id)
		if err != nil {
			continue
		}
		if member.ARCLicense != "" {
			return member.ARCLicense
		}
	}
	return "N/A"
}

func (l *Ledger) publish(ctx context.Context, bookingID string, evt events.CanonicalEvent) {
	if l.events == nil {
		return
	}
	if err := l.events.Publish(ctx, events.BookingAggregate(bookingID), evt); err != nil {
		l.logger.Warn("failed to publish booking event", "booking_id", bookingID, "event_type", evt.EventType(), "error", err)
	}
}

func cleanIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
