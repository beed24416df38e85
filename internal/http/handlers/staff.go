package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/arcticflow-dispatch/internal/roster"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

// StaffHandler manages the roster. Members are never deleted, only
// deactivated.
type StaffHandler struct {
	roster *roster.Service
	logger *logging.Logger
}

func NewStaffHandler(svc *roster.Service, logger *logging.Logger) *StaffHandler {
	if svc == nil {
		panic("handlers: roster service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &StaffHandler{roster: svc, logger: logger}
}

type staffResponse struct {
	Staff []roster.StaffMember `json:"staff"`
}

// List handles GET /admin/staff.
func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.roster.List(r.Context())
	if err != nil {
		writeError(w, h.logger, "list_staff", err)
		return
	}
	writeJSON(w, http.StatusOK, staffResponse{Staff: members})
}

// Enlist handles POST /admin/staff.
func (h *StaffHandler) Enlist(w http.ResponseWriter, r *http.Request) {
	var req roster.EnlistRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	member, err := h.roster.Enlist(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, "enlist_staff", err)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

// Get handles GET /admin/staff/{id}.
func (h *StaffHandler) Get(w http.ResponseWriter, r *http.Request) {
	member, err := h.roster.Get(r.Context(), chi.URLParam(r, "id"))
	h.reply(w, "get_staff", member, err)
}

// Toggle handles POST /admin/staff/{id}/toggle.
func (h *StaffHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	member, err := h.roster.Toggle(r.Context(), chi.URLParam(r, "id"))
	h.reply(w, "toggle_staff", member, err)
}

type statusRequest struct {
	Status roster.Availability `json:"status"`
}

// SetStatus handles PUT /admin/staff/{id}/status. The tag is informational
// and does not affect dispatch.
func (h *StaffHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	switch req.Status {
	case roster.StatusAvailable, roster.StatusBusy, roster.StatusOffline:
	default:
		jsonError(w, "status must be Available, Busy or Offline", http.StatusBadRequest)
		return
	}
	member, err := h.roster.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	h.reply(w, "set_staff_status", member, err)
}

func (h *StaffHandler) reply(w http.ResponseWriter, op string, member *roster.StaffMember, err error) {
	if err != nil {
		writeError(w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}
