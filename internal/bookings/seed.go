package bookings

import (
	"context"
	"fmt"

	"github.com/wolfman30/arcticflow-dispatch/internal/roster"
	"github.com/wolfman30/arcticflow-dispatch/internal/schedule"
)

// DemoBookings is the starter ledger shown on a fresh install.
func DemoBookings(clock schedule.Clock) []Booking {
	now := schedule.Stamp(clock)
	lat, lng := -35.2809, 149.1300
	return []Booking{{
		ID:                "1",
		Name:              "John Doe",
		Phone:             "555-0101",
		Email:             "john@example.com",
		ServiceType:       DefaultServiceType,
		SystemType:        "Ducted",
		TeamType:          roster.TeamRepair,
		Description:       "AC making strange rattling noises.",
		Location:          Location{Address: "123 Maple St", Suburb: "Springfield", Lat: &lat, Lng: &lng},
		PreferredDateTime: "2025-05-20 09:00",
		Status:            StatusAssigned,
		CreatedAt:         now,
		AssignedStaffIDs:  []string{"s1"},
		Notes:             []string{},
		InternalNotes:     []InternalNote{{ID: "in1", Text: "Customer sounds urgent.", Author: "System", Timestamp: now}},
		EstimatedCost:     "$250 - $400",
		LineItems: []LineItem{
			{ID: "li1", Description: "Diagnostic Fee", Amount: 80, Origin: OriginManual},
			{ID: "li2", Description: "Refrigerant Refill", Amount: 120, Origin: OriginManual},
		},
		Payments:      []Payment{{ID: "p1", Amount: 200, Method: "Credit Card", Date: now}},
		IsInvoiced:    true,
		Attachments:   []Attachment{{ID: "a1", Name: "Unit_Photo_Front.jpg", Type: "image", URL: "https://picsum.photos/seed/hvac1/400/300", UploadedAt: now}},
		LaborHours:    2.5,
		EquipmentUsed: []string{"5kW Split System Unit"},
	}}
}

// Seed writes bookings only when the store holds none.
func Seed(ctx context.Context, store Store, seed []Booking) (bool, error) {
	current, err := store.Load(ctx)
	if err != nil {
		return false, err
	}
	if len(current) > 0 {
		return false, nil
	}
	if err := store.SaveAll(ctx, seed); err != nil {
		return false, fmt.Errorf("bookings: seed: %w", err)
	}
	return true, nil
}
