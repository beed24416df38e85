package outbound

import "errors"

var (
	// ErrProviderUnavailable wraps every failure to start a call at the provider.
	ErrProviderUnavailable = errors.New("outbound: call provider unavailable")
	ErrInvalidPhone        = errors.New("outbound: invalid phone number")
	ErrCallNotFound        = errors.New("outbound: call not found")
	ErrMissingName         = errors.New("outbound: customer name required")
	ErrInvalidWebhook      = errors.New("outbound: malformed webhook payload")
)
