package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/arcticflow-dispatch/internal/docstore"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

// Store loads and saves the whole booking collection.
type Store interface {
	Load(ctx context.Context) ([]Booking, error)
	SaveAll(ctx context.Context, bookings []Booking) error
}

// DocumentStore keeps the collection as one JSON document.
type DocumentStore struct {
	docs   docstore.Store
	key    string
	logger *logging.Logger
}

// NewDocumentStore stores bookings under the hvac_bookings key.
func NewDocumentStore(docs docstore.Store, logger *logging.Logger) *DocumentStore {
	if docs == nil {
		panic("bookings: document store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DocumentStore{docs: docs, key: docstore.KeyBookings, logger: logger}
}

func (s *DocumentStore) Load(ctx context.Context) ([]Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.store.load")
	defer span.End()

	data, err := s.docs.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return []Booking{}, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("bookings: load: %w", err)
	}
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("bookings: decode collection: %w", err)
	}
	out := make([]Booking, 0, len(records))
	repaired := 0
	for _, raw := range records {
		b, ok := decodeBooking(raw)
		if !ok {
			repaired++
		}
		out = append(out, b)
	}
	if repaired > 0 {
		s.logger.Warn("bookings: repaired malformed records on load", "count", repaired)
	}
	span.SetAttributes(attribute.Int("arcticflow.bookings.count", len(out)))
	return out, nil
}

func (s *DocumentStore) SaveAll(ctx context.Context, bookings []Booking) error {
	ctx, span := bookingsTracer.Start(ctx, "bookings.store.save")
	defer span.End()

	if bookings == nil {
		bookings = []Booking{}
	}
	data, err := json.Marshal(bookings)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("bookings: encode collection: %w", err)
	}
	if err := s.docs.Put(ctx, s.key, data); err != nil {
		span.RecordError(err)
		return fmt.Errorf("bookings: save: %w", err)
	}
	return nil
}

// decodeBooking decodes one stored record. Records that fail strict decoding
// are rebuilt one field at a time so a single bad field does not lose the
// booking. The bool is false when repair was needed.
func decodeBooking(raw json.RawMessage) (Booking, bool) {
	var b Booking
	if err := json.Unmarshal(raw, &b); err == nil {
		applyDefaults(&b)
		return b, true
	}

	b = Booking{}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err == nil {
		for key, value := range fields {
			single, err := json.Marshal(map[string]json.RawMessage{key: value})
			if err != nil {
				continue
			}
			var partial Booking
			if err := json.Unmarshal(single, &partial); err != nil {
				continue
			}
			_ = json.Unmarshal(single, &b)
		}
	}
	applyDefaults(&b)
	return b, false
}

func applyDefaults(b *Booking) {
	if b.LineItems == nil {
		b.LineItems = []LineItem{}
	}
	if b.Payments == nil {
		b.Payments = []Payment{}
	}
	if b.Attachments == nil {
		b.Attachments = []Attachment{}
	}
	if b.InternalNotes == nil {
		b.InternalNotes = []InternalNote{}
	}
	if b.AssignedStaffIDs == nil {
		b.AssignedStaffIDs = []string{}
	}
	if b.Notes == nil {
		b.Notes = []string{}
	}
	if b.Status == "" {
		if len(b.AssignedStaffIDs) > 0 {
			b.Status = StatusAssigned
		} else {
			b.Status = StatusNew
		}
	}
}
