// Package availability answers which staff can take a slot. Results are
// recomputed from the current roster and booking collection on every call.
package availability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/arcticflow-dispatch/internal/bookings"
	"github.com/wolfman30/arcticflow-dispatch/internal/roster"
	"github.com/wolfman30/arcticflow-dispatch/internal/schedule"
)

var availabilityTracer = otel.Tracer("arcticflow.internal.availability")

// SummaryDays is how far ahead the digest looks.
const SummaryDays = 7

// StaffSource lists the roster in enlistment order.
type StaffSource interface {
	List(ctx context.Context) ([]roster.StaffMember, error)
}

// BookingSource reads the current booking collection.
type BookingSource interface {
	Load(ctx context.Context) ([]bookings.Booking, error)
}

// Resolver computes eligible staff for (slot, team) queries.
type Resolver struct {
	staff    StaffSource
	bookings BookingSource
	clock    schedule.Clock
}

// NewResolver builds a resolver over the roster and the booking store.
func NewResolver(staff StaffSource, source BookingSource, clock schedule.Clock) *Resolver {
	if staff == nil || source == nil {
		panic("availability: staff and booking sources required")
	}
	if clock == nil {
		clock = schedule.NewSystemClock(schedule.DefaultTimezone)
	}
	return &Resolver{staff: staff, bookings: source, clock: clock}
}

// Available returns active staff of the given team who hold no live booking
// at slot, in roster order. A team with nobody free yields an empty slice.
func (r *Resolver) Available(ctx context.Context, slot schedule.Slot, team roster.TeamType) ([]roster.StaffMember, error) {
	ctx, span := availabilityTracer.Start(ctx, "availability.available")
	defer span.End()
	span.SetAttributes(
		attribute.String("arcticflow.slot", slot.String()),
		attribute.String("arcticflow.team", string(team)),
	)

	current, err := r.bookings.Load(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("availability: load bookings: %w", err)
	}
	return r.AvailableAmong(ctx, current, slot, team)
}

// AvailableAmong is Available against a caller-supplied collection. The
// ledger uses it while it holds its write lock.
func (r *Resolver) AvailableAmong(ctx context.Context, current []bookings.Booking, slot schedule.Slot, team roster.TeamType) ([]roster.StaffMember, error) {
	staff, err := r.staff.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("availability: load roster: %w", err)
	}
	return Eligible(staff, current, slot, team), nil
}

// Eligible is the pure availability rule.
func Eligible(staff []roster.StaffMember, current []bookings.Booking, slot schedule.Slot, team roster.TeamType) []roster.StaffMember {
	busy := make(map[string]struct{})
	for i := range current {
		if !current[i].HoldsSlot(slot) {
			continue
		}
		for _, id := range current[i].AssignedStaffIDs {
			busy[id] = struct{}{}
		}
	}
	out := make([]roster.StaffMember, 0, len(staff))
	for _, member := range staff {
		if !member.Dispatchable(team) {
			continue
		}
		if _, taken := busy[member.ID]; taken {
			continue
		}
		out = append(out, member)
	}
	return out
}

// Summary counts free Repair and Installation staff over the next
// SummaryDays days at the representative times.
func (r *Resolver) Summary(ctx context.Context) (Digest, error) {
	ctx, span := availabilityTracer.Start(ctx, "availability.summary")
	defer span.End()

	staff, err := r.staff.List(ctx)
	if err != nil {
		span.RecordError(err)
		return Digest{}, fmt.Errorf("availability: load roster: %w", err)
	}
	current, err := r.bookings.Load(ctx)
	if err != nil {
		span.RecordError(err)
		return Digest{}, fmt.Errorf("availability: load bookings: %w", err)
	}
	return BuildDigest(schedule.NextNDays(r.clock, SummaryDays), staff, current), nil
}

// BuildDigest evaluates the grid for the given dates.
func BuildDigest(dates []string, staff []roster.StaffMember, current []bookings.Booking) Digest {
	digest := Digest{Days: make([]Day, 0, len(dates))}
	for _, date := range dates {
		day := Day{Date: date, Cells: make([]Cell, 0, len(schedule.SummaryTimes))}
		for _, clock := range schedule.SummaryTimes {
			slot := schedule.Slot(date + " " + clock)
			day.Cells = append(day.Cells, Cell{
				Time:         clock,
				Repair:       len(Eligible(staff, current, slot, roster.TeamRepair)),
				Installation: len(Eligible(staff, current, slot, roster.TeamInstallation)),
			})
		}
		digest.Days = append(digest.Days, day)
	}
	return digest
}
