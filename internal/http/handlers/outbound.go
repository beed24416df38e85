package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/arcticflow-dispatch/internal/outbound"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

// OutboundHandler places AI follow-up calls and ingests provider webhooks.
type OutboundHandler struct {
	svc    *outbound.Service
	logger *logging.Logger
}

func NewOutboundHandler(svc *outbound.Service, logger *logging.Logger) *OutboundHandler {
	if svc == nil {
		panic("handlers: outbound service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &OutboundHandler{svc: svc, logger: logger}
}

// StartCallRequest either names a booking or carries the customer details
// directly.
type StartCallRequest struct {
	BookingID    string `json:"bookingId"`
	PhoneNumber  string `json:"phoneNumber"`
	CustomerName string `json:"customerName"`
	JobType      string `json:"jobType"`
	Reason       string `json:"reason"`
	TimeSlots    string `json:"timeSlots"`
}

// Start handles POST /admin/calls.
func (h *OutboundHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartCallRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var (
		rec outbound.CallRecord
		err error
	)
	if strings.TrimSpace(req.PhoneNumber) == "" && req.BookingID != "" {
		rec, err = h.svc.CallBooking(r.Context(), req.BookingID, req.Reason)
	} else {
		rec, err = h.svc.Call(r.Context(), outbound.CallRequest{
			PhoneNumber:  req.PhoneNumber,
			CustomerName: req.CustomerName,
			JobType:      req.JobType,
			CallReason:   req.Reason,
			TimeSlots:    req.TimeSlots,
			BookingID:    req.BookingID,
		})
	}
	if err != nil {
		writeError(w, h.logger, "start_call", err)
		return
	}
	writeJSON(w, http.StatusAccepted, rec)
}

type recentCallsResponse struct {
	Calls []outbound.CallRecord `json:"calls"`
}

// Recent handles GET /admin/calls?limit=20.
func (h *OutboundHandler) Recent(w http.ResponseWriter, r *http.Request) {
	calls, err := h.svc.Recent(r.Context(), queryInt(r, "limit", 20))
	if err != nil {
		writeError(w, h.logger, "recent_calls", err)
		return
	}
	writeJSON(w, http.StatusOK, recentCallsResponse{Calls: calls})
}

// Get handles GET /admin/calls/{id}.
func (h *OutboundHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, "get_call", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Webhook handles POST /webhooks/vapi. Events other than call completion
// are acknowledged and ignored.
func (h *OutboundHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	rec, err := h.svc.HandleWebhook(r.Context(), body)
	if err != nil {
		writeError(w, h.logger, "call_webhook", err)
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusOK, map[string]any{"received": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"received": true, "callId": rec.ID})
}
