package bookings

import "errors"

var (
	// ErrBookingNotFound is returned when no booking has the requested ID.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrInvalidTransition is returned when a lifecycle action does not apply
	// to the booking's current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrSafetyAttestation is returned when completing without the electrical
	// safety check.
	ErrSafetyAttestation = errors.New("electrical safety check must be attested")

	// ErrCustomerConfirmation is returned when completing without a customer
	// signature.
	ErrCustomerConfirmation = errors.New("customer signature is required")

	// ErrNotesRewritten is returned when an update edits or drops existing
	// internal notes.
	ErrNotesRewritten = errors.New("internal notes are append-only")

	// ErrInconsistentAssignment is returned when status and assigned staff
	// disagree.
	ErrInconsistentAssignment = errors.New("status does not match staff assignment")

	// ErrInvalidAmount is returned for non-positive payments and non-numeric
	// charges.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrMissingField is returned when a note, line item or attachment lacks
	// its required text.
	ErrMissingField = errors.New("required field missing")
)
