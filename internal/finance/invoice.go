package finance

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/wolfman30/arcticflow-dispatch/internal/bookings"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

// Invoice is a read-only projection of a booking's charges.
type Invoice struct {
	Number    string              `json:"number"`
	Business  Settings            `json:"business"`
	BookingID string              `json:"bookingId"`
	Customer  string              `json:"customer"`
	Phone     string              `json:"phone"`
	Email     string              `json:"email,omitempty"`
	Address   string              `json:"address"`
	Suburb    string              `json:"suburb"`
	Service   string              `json:"service"`
	Lines     []bookings.LineItem `json:"lines"`
	Payments  []bookings.Payment  `json:"payments"`
	Summary   Summary             `json:"summary"`
	Committed bool                `json:"committed"`
}

// BuildInvoice projects the invoice. Bookings whose charges have not been
// committed show the lines a commit would produce.
func BuildInvoice(b bookings.Booking, s Settings) Invoice {
	lines := b.LineItems
	if !b.IsInvoiced {
		preview := 0
		lines = CommitCharges(b, s, func() string {
			preview++
			return fmt.Sprintf("preview-%d", preview)
		}).LineItems
	}
	return Invoice{
		Number:    "INV-" + strings.ToUpper(b.ID),
		Business:  s,
		BookingID: b.ID,
		Customer:  b.Name,
		Phone:     b.Phone,
		Email:     b.Email,
		Address:   b.Location.Address,
		Suburb:    b.Location.Suburb,
		Service:   b.ServiceType,
		Lines:     append([]bookings.LineItem{}, lines...),
		Payments:  append([]bookings.Payment{}, b.Payments...),
		Summary:   Derive(b, s),
		Committed: b.IsInvoiced,
	}
}

// BookingLedger is the subset of the ledger the finance service needs.
type BookingLedger interface {
	Get(ctx context.Context, id string) (*bookings.Booking, error)
	Apply(ctx context.Context, op, id string, fn func(next *bookings.Booking) error) (*bookings.Booking, error)
}

// SettingsSource returns the current business settings.
type SettingsSource interface {
	Get(ctx context.Context) (Settings, error)
}

// Service applies financial operations to stored bookings.
type Service struct {
	ledger   BookingLedger
	settings SettingsSource
	logger   *logging.Logger
}

func NewService(ledger BookingLedger, settings SettingsSource, logger *logging.Logger) *Service {
	if ledger == nil || settings == nil {
		panic("finance: ledger and settings required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{ledger: ledger, settings: settings, logger: logger}
}

// Summary derives the current totals for a booking.
func (s *Service) Summary(ctx context.Context, id string) (Summary, error) {
	b, settings, err := s.load(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	return Derive(*b, settings), nil
}

// CommitCharges snapshots derived charges into the booking's line items.
// The snapshot is taken from the stored record inside the ledger's write,
// so payments or items recorded concurrently are kept.
func (s *Service) CommitCharges(ctx context.Context, id string) (*bookings.Booking, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	updated, err := s.ledger.Apply(ctx, "commit_charges", id, func(next *bookings.Booking) error {
		*next = CommitCharges(*next, settings, uuid.NewString)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("finance: commit charges: %w", err)
	}
	s.logger.Info("charges committed", "booking_id", id, "total", Derive(*updated, settings).Total)
	return updated, nil
}

// Invoice builds the invoice projection for a booking.
func (s *Service) Invoice(ctx context.Context, id string) (Invoice, error) {
	b, settings, err := s.load(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	return BuildInvoice(*b, settings), nil
}

func (s *Service) load(ctx context.Context, id string) (*bookings.Booking, Settings, error) {
	b, err := s.ledger.Get(ctx, id)
	if err != nil {
		return nil, Settings{}, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, Settings{}, err
	}
	return b, settings, nil
}
