package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/arcticflow-dispatch/internal/finance"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

// FinanceHandler serves derived totals, invoices and business settings.
type FinanceHandler struct {
	svc      *finance.Service
	settings *finance.SettingsStore
	logger   *logging.Logger
}

func NewFinanceHandler(svc *finance.Service, settings *finance.SettingsStore, logger *logging.Logger) *FinanceHandler {
	if svc == nil || settings == nil {
		panic("handlers: finance service and settings required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FinanceHandler{svc: svc, settings: settings, logger: logger}
}

// Summary handles GET /admin/bookings/{id}/financials.
func (h *FinanceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, "financial_summary", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// CommitCharges handles POST /admin/bookings/{id}/invoice. Repeating it
// yields the same line items.
func (h *FinanceHandler) CommitCharges(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.CommitCharges(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, "commit_charges", err)
		return
	}
	writeJSON(w, http.StatusOK, BookingResponse{Booking: b})
}

// Invoice handles GET /admin/bookings/{id}/invoice.
func (h *FinanceHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.svc.Invoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, "invoice", err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// GetSettings handles GET /admin/settings.
func (h *FinanceHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Get(r.Context())
	if err != nil {
		writeError(w, h.logger, "get_settings", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// PutSettings handles PUT /admin/settings.
func (h *FinanceHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var s finance.Settings
	if err := decodeJSON(r, &s); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.settings.Put(r.Context(), s); err != nil {
		writeError(w, h.logger, "put_settings", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
