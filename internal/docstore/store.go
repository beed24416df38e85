// Package docstore persists opaque JSON documents under fixed keys. It is the
// only persistence contract the dispatch engine relies on.
package docstore

import (
	"context"
	"errors"
)

// Well-known document keys.
const (
	KeyBookings         = "hvac_bookings"
	KeyStaff            = "hvac_staff"
	KeyBusinessSettings = "hvac_business_settings"
	KeyMasterPrompt     = "hvac_master_prompt"
)

// ErrNotFound is returned when no document exists for a key.
var ErrNotFound = errors.New("docstore: document not found")

// Store reads and writes whole documents by key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}
