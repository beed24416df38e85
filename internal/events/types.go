package events

import "time"

type BookingCreatedV1 struct {
	BookingID        string    `json:"booking_id"`
	CustomerName     string    `json:"customer_name"`
	TeamType         string    `json:"team_type"`
	Slot             string    `json:"slot"`
	AssignedStaffIDs []string  `json:"assigned_staff_ids"`
	Source           string    `json:"source,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func (BookingCreatedV1) EventType() string { return "bookings.booking.created.v1" }

type BookingStatusChangedV1 struct {
	BookingID        string    `json:"booking_id"`
	From             string    `json:"from"`
	To               string    `json:"to"`
	AssignedStaffIDs []string  `json:"assigned_staff_ids"`
	ChangedAt        time.Time `json:"changed_at"`
}

func (BookingStatusChangedV1) EventType() string { return "bookings.booking.status_changed.v1" }

type BookingReassignedV1 struct {
	BookingID    string    `json:"booking_id"`
	StaffID      string    `json:"staff_id,omitempty"`
	Author       string    `json:"author"`
	ReassignedAt time.Time `json:"reassigned_at"`
}

func (BookingReassignedV1) EventType() string { return "bookings.booking.reassigned.v1" }

type OutboundCallCompletedV1 struct {
	CallID           string    `json:"call_id"`
	BookingID        string    `json:"booking_id,omitempty"`
	BookingConfirmed bool      `json:"booking_confirmed"`
	SelectedTime     string    `json:"selected_time,omitempty"`
	Urgency          string    `json:"urgency"`
	CompletedAt      time.Time `json:"completed_at"`
}

func (OutboundCallCompletedV1) EventType() string { return "outbound.call.completed.v1" }
