// Package handlers exposes the dispatch engine over HTTP. Handlers are thin:
// they decode, call one service operation and map sentinel errors to status
// codes.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/wolfman30/arcticflow-dispatch/internal/bookings"
	"github.com/wolfman30/arcticflow-dispatch/internal/conversation"
	"github.com/wolfman30/arcticflow-dispatch/internal/docstore"
	"github.com/wolfman30/arcticflow-dispatch/internal/finance"
	"github.com/wolfman30/arcticflow-dispatch/internal/outbound"
	"github.com/wolfman30/arcticflow-dispatch/internal/roster"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	return dec.Decode(dst)
}

// errorStatus maps domain sentinels to HTTP statuses. Anything unknown is a
// 500.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, bookings.ErrBookingNotFound),
		errors.Is(err, roster.ErrStaffNotFound),
		errors.Is(err, conversation.ErrUnknownConversation),
		errors.Is(err, outbound.ErrCallNotFound),
		errors.Is(err, docstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, bookings.ErrInvalidTransition),
		errors.Is(err, bookings.ErrNotesRewritten),
		errors.Is(err, conversation.ErrConversationClosed):
		return http.StatusConflict
	case errors.Is(err, bookings.ErrSafetyAttestation),
		errors.Is(err, bookings.ErrCustomerConfirmation),
		errors.Is(err, bookings.ErrInconsistentAssignment):
		return http.StatusUnprocessableEntity
	case errors.Is(err, bookings.ErrInvalidAmount),
		errors.Is(err, bookings.ErrMissingField),
		errors.Is(err, roster.ErrInvalidName),
		errors.Is(err, roster.ErrInvalidTeam),
		errors.Is(err, roster.ErrInvalidRole),
		errors.Is(err, finance.ErrInvalidSettings),
		errors.Is(err, conversation.ErrEmptyMessage),
		errors.Is(err, outbound.ErrInvalidPhone),
		errors.Is(err, outbound.ErrMissingName),
		errors.Is(err, outbound.ErrInvalidWebhook):
		return http.StatusBadRequest
	case errors.Is(err, conversation.ErrAssistantOffline):
		return http.StatusServiceUnavailable
	case errors.Is(err, outbound.ErrProviderUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError logs server faults and answers with the mapped status.
func writeError(w http.ResponseWriter, logger *logging.Logger, op string, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "op", op, "error", err)
	}
	jsonError(w, err.Error(), status)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
