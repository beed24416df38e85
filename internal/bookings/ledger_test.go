package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/arcticflow-dispatch/internal/docstore"
	"github.com/wolfman30/arcticflow-dispatch/internal/roster"
	"github.com/wolfman30/arcticflow-dispatch/internal/schedule"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

// rosterResolver applies the availability rule directly against the roster.
type rosterResolver struct {
	staff *roster.Service
}

func (r rosterResolver) AvailableAmong(ctx context.Context, current []Booking, slot schedule.Slot, team roster.TeamType) ([]roster.StaffMember, error) {
	members, err := r.staff.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []roster.StaffMember
	for _, m := range members {
		if !m.Dispatchable(team) {
			continue
		}
		taken := false
		for i := range current {
			if !current[i].HoldsSlot(slot) {
				continue
			}
			for _, id := range current[i].AssignedStaffIDs {
				if id == m.ID {
					taken = true
				}
			}
		}
		if !taken {
			out = append(out, m)
		}
	}
	return out, nil
}

type ledgerFixture struct {
	ledger *Ledger
	roster *roster.Service
	store  *DocumentStore
	clock  schedule.FixedClock
}

func newLedgerFixture(t *testing.T, staff []roster.StaffMember) *ledgerFixture {
	t.Helper()
	docs := docstore.NewMemoryStore()
	logger := logging.Discard()
	rs := roster.NewService(docs, logger)
	if _, err := rs.Seed(context.Background(), staff); err != nil {
		t.Fatalf("seed roster: %v", err)
	}
	store := NewDocumentStore(docs, logger)
	clock := schedule.FixedClock{At: time.Date(2025, 5, 19, 10, 0, 0, 0, schedule.BusinessLocation(""))}
	var mu sync.Mutex
	seq := 0
	ids := func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	ledger := NewLedger(store, rosterResolver{staff: rs}, rs, logger, WithClock(clock), WithIDGenerator(ids))
	return &ledgerFixture{ledger: ledger, roster: rs, store: store, clock: clock}
}

func repairRequest() Candidate {
	return Candidate{
		Name:              "Jane Citizen",
		Phone:             "0400 111 222",
		ServiceType:       "Repair / Maintenance",
		Description:       "Split system blowing warm air",
		Address:           "12 Example St",
		Suburb:            "Belconnen",
		PreferredDateTime: "2025-05-20 09:00",
	}
}

func assertConsistent(t *testing.T, l *Ledger) {
	t.Helper()
	all, err := l.Snapshot(context.Background())
	require.NoError(t, err)
	for _, b := range all {
		if b.Assigned() != b.Status.Staffed() {
			t.Fatalf("booking %s has status %s with staff %v", b.ID, b.Status, b.AssignedStaffIDs)
		}
	}
}

func TestCreateAutoAssignsFirstAvailable(t *testing.T) {
	f := newLedgerFixture(t, roster.DemoStaff())

	b, created, err := f.ledger.Create(context.Background(), repairRequest())
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, []string{"s1"}, b.AssignedStaffIDs)
	assert.Equal(t, StatusAssigned, b.Status)
	assert.Equal(t, roster.TeamRepair, b.TeamType)
	assert.Equal(t, schedule.Slot("2025-05-20 09:00"), b.PreferredDateTime)
	assert.Equal(t, "2025-05-19T10:00:00+10:00", b.CreatedAt)
	assert.False(t, b.IsInvoiced)
	assert.Empty(t, b.LineItems)
	assert.Empty(t, b.Payments)
}

func TestCreateDuplicateIsNoOp(t *testing.T) {
	f := newLedgerFixture(t, roster.DemoStaff())
	ctx := context.Background()

	first, created, err := f.ledger.Create(ctx, repairRequest())
	require.NoError(t, err)
	require.True(t, created)

	again := repairRequest()
	again.Name = "  JANE citizen "
	again.Address = "12 EXAMPLE st"
	again.PreferredDateTime = "2025-05-20T9:00"
	second, created, err := f.ledger.Create(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	all, err := f.ledger.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateIsIdempotentForRepeatedCandidates(t *testing.T) {
	f := newLedgerFixture(t, roster.DemoStaff())
	ctx := context.Background()
	candidates := []Candidate{repairRequest(), repairRequest(), {
		Name: "Bob", Address: "1 Other Rd", PreferredDateTime: "2025-05-21 11:00",
	}, {
		Name: "bob", Location: LocationInput{Address: "1 other rd"}, PreferredDateTime: "2025-05-21 11:00",
	}}
	for _, c := range candidates {
		_, _, err := f.ledger.Create(ctx, c)
		require.NoError(t, err)
	}
	all, err := f.ledger.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCreateAfterCancellationIsNotDuplicate(t *testing.T) {
	f := newLedgerFixture(t, roster.DemoStaff())
	ctx := context.Background()

	first, _, err := f.ledger.Create(ctx, repairRequest())
	require.NoError(t, err)
	_, err = f.ledger.Cancel(ctx, first.ID, "")
	require.NoError(t, err)

	second, created, err := f.ledger.Create(ctx, repairRequest())
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, []string{"s1"}, second.AssignedStaffIDs, "cancelled bookings release staff")
}

func TestCreateLeavesUnassignedWhenNobodyFree(t *testing.T) {
	f := newLedgerFixture(t, roster.DemoStaff())
	ctx := context.Background()

	_, _, err := f.ledger.Create(ctx, repairRequest())
	require.NoError(t, err)

	other := repairRequest()
	other.Name = "Second Customer"
	b, created, err := f.ledger.Create(ctx, other)
	require.NoError(t, err)
	require.True(t, created)
	assert.Empty(t, b.AssignedStaffIDs)
	assert.Equal(t, StatusNew, b.Status)

	all, err := f.ledger.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID, all[0].ID, "new bookings go to the head of the ledger")
}

func TestCreateInfersInstallationTeam(t *testing.T) {
	f := newLedgerFixture(t, roster.DemoStaff())
	c := repairRequest()
	c.ServiceType = "New installation"
	b, _, err := f.ledger.Create(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, roster.TeamInstallation, b.TeamType)
	assert.Equal(t, []string{"s2"}, b.AssignedStaffIDs)
}

func TestCreateAppliesDefaults(t *testing.T) {
	f := newLedgerFixture(t, roster.DemoStaff())
	b, created, err := f.ledger.Create(context.Background(), Candidate{
		Location:          LocationInput{Text: "7 String Location Ave"},
		PreferredDateTime: "2025-05-22 13:00",
	})
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, "Unknown Client", b.Name)
	assert.Equal(t, "N/A", b.Phone)
	assert.Equal(t, "Repair / Maintenance", b.ServiceType)
	assert.Equal(t, "No description provided.", b.Description)
	assert.Equal(t, "7 String Location Ave", b.Location.Address)
}

func TestCreateKeepsBookingWithoutSlot(t *testing.T) {
	f := newLedgerFixture(t, roster.DemoStaff())
	c := repairRequest()
	c.PreferredDateTime = " "
	b, created, err := f.ledger.Create(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, schedule.Slot(""), b.PreferredDateTime)

	_, created, err = f.ledger.Create(context.Background(), c)
	require.NoError(t, err)
	assert.False(t, created, "same customer without a slot is still a duplicate")
	all, err := f.ledger.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateHonoursExplicitAssignment(t *testing.T) {
	f := newLedgerFixture(t, roster.DemoStaff())
	c := repairRequest()
	c.AssignedStaffIDs = []string{"s2"}
	b, _, err := f.ledger.Create(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, []string{"s2"}, b.AssignedStaffIDs)
	assert.Equal(t, StatusAssigned, b.Status)
}

func TestReassignToEmptyReturnsToNew(t *testing.T) {
	f := newLedgerFixture(t, roster.DemoStaff())
	ctx := context.Background()
	b, _, err := f.ledger.Create(ctx, repairRequest())
	require.NoError(t, err)
	require.Equal(t, []string{"s1"}, b.AssignedStaffIDs)

	updated, err := f.ledger.Reassign(ctx, b.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, StatusNew, updated.Status)
	assert.Empty(t, updated.AssignedStaffIDs)
	require.Len(t, updated.InternalNotes, 1)
	assert.Equal(t, "Personnel Reassignment: [Unassigned]", updated.InternalNotes[0].Text)
	assert.Equal(t, "Admin Dashboard", updated.InternalNotes[0].Author)
}

func TestReassignPermittedFromCompleted(t *testing.T) {
	f := newLedgerFixture(t, roster.DemoStaff())
	ctx := context.Background()
	b, _, err := f.ledger.Create(ctx, repairRequest())
	require.NoError(t, err)
	_, err = f.ledger.Start(ctx, b.ID)
	require.NoError(t, err)
	_, err = f.ledger.Complete(ctx, b.ID, CompletionReport{SafetyChecks: SafetyChecks{Electrical: true}, CustomerSignature: "J.C."})
	require.NoError(t, err)

	updated, err := f.ledger.Reassign(ctx, b.ID, "s2", "Ops")
	require.NoError(t, err)
	assert.Equal(t, StatusAssigned, updated.Status)
	assert.Equal(t, []string{"s2"}, updated.AssignedStaffIDs)
	assert.Equal(t, "Personnel Reassignment: [Sarah Build]", updated.InternalNotes[0].Text)

	_, err = f.ledger.Reassign(ctx, b.ID, "ghost", "Ops")
	assert.ErrorIs(t, err, roster.ErrStaffNotFound)
}

func TestStartRequiresAssigned(t *testing.T) {
	f := newLedgerFixture(t, nil)
	b, _, err := f.ledger.Create(context.Background(), repairRequest())
	require.NoError(t, err)
	require.Equal(t, StatusNew, b.Status)

	_, err = f.ledger.Start(context.Background(), b.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCompleteValidation(t *testing.T) {
	f := newLedgerFixture(t, roster.DemoStaff())
	ctx := context.Background()
	b, _, err := f.ledger.Create(ctx, repairRequest())
	require.NoError(t, err)

	_, err = f.ledger.Complete(ctx, b.ID, CompletionReport{SafetyChecks: SafetyChecks{Electrical: true}, CustomerSignature: "sig"})
	assert.ErrorIs(t, err, ErrInvalidTransition, "must be in progress first")

	_, err = f.ledger.Start(ctx, b.ID)
	require.NoError(t, err)

	_, err = f.ledger.Complete(ctx, b.ID, CompletionReport{CustomerSignature: "sig"})
	assert.ErrorIs(t, err, ErrSafetyAttestation)

	_, err = f.ledger.Complete(ctx, b.ID, CompletionReport{SafetyChecks: SafetyChecks{Electrical: true}})
	assert.ErrorIs(t, err, ErrCustomerConfirmation)

	unchanged, err := f.ledger.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, unchanged.Status)

	done, err := f.ledger.Complete(ctx, b.ID, CompletionReport{
		WorkPerformed:     "Regassed and tested",
		SafetyChecks:      SafetyChecks{Electrical: true, LeakCheck: true},
		CustomerSignature: "J.C.",
		ARCLicense:        "forged",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	require.NotNil(t, done.CompletionReport)
	assert.Equal(t, "AU12345", done.CompletionReport.ARCLicense)
	assert.Equal(t, "2025-05-19T10:00:00+10:00", done.CompletionReport.CompletedAt)
}

func TestUpdateReplacesWholeRecord(t *testing.T) {
	f := newLedgerFixture(t, roster.DemoStaff())
	ctx := context.Background()
	b, _, err := f.ledger.Create(ctx, repairRequest())
	require.NoError(t, err)

	edited := b.Clone()
	edited.Description = "Unit leaking water"
	edited.Phone = "0499 000 000"
	require.NoError(t, f.ledger.Update(ctx, edited))

	got, err := f.ledger.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Unit leaking water", got.Description)
	assert.Equal(t, "0499 000 000", got.Phone)

	edited.ID = "missing"
	assert.ErrorIs(t, f.ledger.Update(ctx, edited), ErrBookingNotFound)
}

func TestUpdateRejectsRewrittenNotes(t *testing.T) {
	f := newLedgerFixture(t, roster.DemoStaff())
	ctx := context.Background()
	b, _, err := f.ledger.Create(ctx, repairRequest())
	require.NoError(t, err)
	b, err = f.ledger.AddNote(ctx, b.ID, "Mike Tech", "Customer has a dog")
	require.NoError(t, err)

	dropped := b.Clone()
	dropped.InternalNotes = nil
	assert.ErrorIs(t, f.ledger.Update(ctx, dropped), ErrNotesRewritten)

	edited := b.Clone()
	edited.InternalNotes[0].Text = "Customer has a cat"
	assert.ErrorIs(t, f.ledger.Update(ctx, edited), ErrNotesRewritten)

	appended := b.Clone()
	appended.InternalNotes = append([]InternalNote{{ID: "n-new", Text: "Gate code 1234", Author: "Admin HQ"}}, appended.InternalNotes...)
	require.NoError(t, f.ledger.Update(ctx, appended))
}

func TestUpdateEnforcesAssignmentConsistency(t *testing.T) {
	f := newLedgerFixture(t, roster.DemoStaff())
	ctx := context.Background()
	b, _, err := f.ledger.Create(ctx, repairRequest())
	require.NoError(t, err)

	orphaned := b.Clone()
	orphaned.AssignedStaffIDs = nil
	orphaned.Status = StatusInProgress
	assert.ErrorIs(t, f.ledger.Update(ctx, orphaned), ErrInconsistentAssignment)

	cancelled := b.Clone()
	cancelled.Status = StatusCancelled
	require.NoError(t, f.ledger.Update(ctx, cancelled))
	got, err := f.ledger.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, got.AssignedStaffIDs)

	confirmed := got.Clone()
	confirmed.Status = StatusConfirmed
	require.NoError(t, f.ledger.Update(ctx, confirmed))
	got, err = f.ledger.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNew, got.Status)
}

func TestAssignmentStatusConsistencyAcrossOperations(t *testing.T) {
	f := newLedgerFixture(t, roster.DemoStaff())
	ctx := context.Background()

	a, _, err := f.ledger.Create(ctx, repairRequest())
	require.NoError(t, err)
	assertConsistent(t, f.ledger)

	other := repairRequest()
	other.Name = "Unassigned Customer"
	u, _, err := f.ledger.Create(ctx, other)
	require.NoError(t, err)
	assertConsistent(t, f.ledger)

	steps := []func() error{
		func() error { _, err := f.ledger.Reassign(ctx, u.ID, "s2", ""); return err },
		func() error { _, err := f.ledger.Start(ctx, a.ID); return err },
		func() error { _, err := f.ledger.RecordPayment(ctx, a.ID, Payment{Amount: 50}); return err },
		func() error {
			_, err := f.ledger.Complete(ctx, a.ID, CompletionReport{SafetyChecks: SafetyChecks{Electrical: true}, CustomerSignature: "x"})
			return err
		},
		func() error { _, err := f.ledger.Reassign(ctx, a.ID, "", ""); return err },
		func() error { _, err := f.ledger.Cancel(ctx, u.ID, "Ops"); return err },
		func() error { return f.ledger.Delete(ctx, a.ID) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
		assertConsistent(t, f.ledger)
	}
}

func TestCancelRejectsCompleted(t *testing.T) {
	f := newLedgerFixture(t, roster.DemoStaff())
	ctx := context.Background()
	b, _, err := f.ledger.Create(ctx, repairRequest())
	require.NoError(t, err)
	_, err = f.ledger.Start(ctx, b.ID)
	require.NoError(t, err)
	_, err = f.ledger.Complete(ctx, b.ID, CompletionReport{SafetyChecks: SafetyChecks{Electrical: true}, CustomerSignature: "x"})
	require.NoError(t, err)

	_, err = f.ledger.Cancel(ctx, b.ID, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestFieldMutations(t *testing.T) {
	f := newLedgerFixture(t, roster.DemoStaff())
	ctx := context.Background()
	b, _, err := f.ledger.Create(ctx, repairRequest())
	require.NoError(t, err)

	_, err = f.ledger.RecordPayment(ctx, b.ID, Payment{Amount: 0})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	b, err = f.ledger.RecordPayment(ctx, b.ID, Payment{Amount: 120, Note: "deposit", RecordedBy: "Mike Tech"})
	require.NoError(t, err)
	require.Len(t, b.Payments, 1)
	assert.Equal(t, "Cash", b.Payments[0].Method)
	assert.NotEmpty(t, b.Payments[0].Date)

	b.IsInvoiced = true
	require.NoError(t, f.ledger.Update(ctx, *b))
	b, err = f.ledger.AddLineItem(ctx, b.ID, "Call-out fee", 80)
	require.NoError(t, err)
	assert.False(t, b.IsInvoiced, "new charges invalidate the invoice")
	assert.Equal(t, OriginManual, b.LineItems[0].Origin)

	b, err = f.ledger.SetLabor(ctx, b.ID, 2.5)
	require.NoError(t, err)
	assert.Equal(t, 2.5, b.LaborHours)

	b, err = f.ledger.SetEquipment(ctx, b.ID, []string{"Ducted Zone Controller", " "})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ducted Zone Controller"}, b.EquipmentUsed)

	b, err = f.ledger.AddAttachment(ctx, b.ID, Attachment{Name: "before.jpg", Type: "image", URL: "s3://bucket/before.jpg"})
	require.NoError(t, err)
	require.Len(t, b.Attachments, 1)
	assert.Equal(t, "image", b.Attachments[0].Type)

	_, err = f.ledger.AddNote(ctx, b.ID, "", "  ")
	assert.Error(t, err)
}

func TestAssignedToAndList(t *testing.T) {
	f := newLedgerFixture(t, roster.DemoStaff())
	ctx := context.Background()
	a, _, err := f.ledger.Create(ctx, repairRequest())
	require.NoError(t, err)
	install := repairRequest()
	install.Name = "Priya Nair"
	install.Address = "3 Wattle Cres"
	install.ServiceType = "Ducted installation"
	_, _, err = f.ledger.Create(ctx, install)
	require.NoError(t, err)

	jobs, err := f.ledger.AssignedTo(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, a.ID, jobs[0].ID)

	assigned, err := f.ledger.List(ctx, Filter{Status: StatusAssigned, Team: roster.TeamInstallation})
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, []string{"s2"}, assigned[0].AssignedStaffIDs)

	_, err = f.ledger.Cancel(ctx, a.ID, "")
	require.NoError(t, err)
	jobs, err = f.ledger.AssignedTo(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestApplyEditsStoredRecord(t *testing.T) {
	f := newLedgerFixture(t, roster.DemoStaff())
	ctx := context.Background()
	b, _, err := f.ledger.Create(ctx, repairRequest())
	require.NoError(t, err)
	stale := *b

	_, err = f.ledger.RecordPayment(ctx, b.ID, Payment{Amount: 40})
	require.NoError(t, err)

	// fn sees the payment recorded after the caller's copy was taken.
	updated, err := f.ledger.Apply(ctx, "mark_invoiced", stale.ID, func(next *Booking) error {
		assert.Len(t, next.Payments, 1)
		next.IsInvoiced = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, updated.IsInvoiced)
	assert.Len(t, updated.Payments, 1)

	boom := errors.New("rejected")
	_, err = f.ledger.Apply(ctx, "noop", b.ID, func(*Booking) error { return boom })
	assert.ErrorIs(t, err, boom)
	_, err = f.ledger.Apply(ctx, "noop", "missing", func(*Booking) error { return nil })
	assert.ErrorIs(t, err, ErrBookingNotFound)

	stored, err := f.ledger.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsInvoiced)
}

func TestDeleteUnknown(t *testing.T) {
	f := newLedgerFixture(t, roster.DemoStaff())
	err := f.ledger.Delete(context.Background(), "nope")
	if !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
}

func TestConcurrentCreatesKeepOneBooking(t *testing.T) {
	f := newLedgerFixture(t, roster.DemoStaff())
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := f.ledger.Create(ctx, repairRequest()); err != nil {
				t.Errorf("create: %v", err)
			}
		}()
	}
	wg.Wait()
	all, err := f.ledger.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.True(t, strings.HasPrefix(all[0].ID, "id-"))
}
