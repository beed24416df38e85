package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/arcticflow-dispatch/internal/bookings"
	"github.com/wolfman30/arcticflow-dispatch/internal/http/middleware"
	"github.com/wolfman30/arcticflow-dispatch/internal/roster"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

// BookingsHandler serves the booking ledger to the admin dashboard and the
// staff job list.
type BookingsHandler struct {
	ledger *bookings.Ledger
	logger *logging.Logger
}

// NewBookingsHandler creates a bookings handler.
func NewBookingsHandler(ledger *bookings.Ledger, logger *logging.Logger) *BookingsHandler {
	if ledger == nil {
		panic("handlers: ledger required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingsHandler{ledger: ledger, logger: logger}
}

// BookingResponse wraps a single booking. Created is only meaningful for
// POST; false means the candidate matched an existing booking.
type BookingResponse struct {
	Booking *bookings.Booking `json:"booking"`
	Created bool              `json:"created,omitempty"`
}

type listBookingsResponse struct {
	Bookings []bookings.Booking `json:"bookings"`
	Total    int                `json:"total"`
}

// List handles GET /admin/bookings?status=&team=&staff=.
func (h *BookingsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := bookings.Filter{
		Status:  bookings.JobStatus(q.Get("status")),
		StaffID: q.Get("staff"),
	}
	if raw := q.Get("team"); raw != "" {
		team, ok := roster.ParseTeamType(raw)
		if !ok {
			jsonError(w, roster.ErrInvalidTeam.Error(), http.StatusBadRequest)
			return
		}
		filter.Team = team
	}
	list, err := h.ledger.List(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, "list_bookings", err)
		return
	}
	writeJSON(w, http.StatusOK, listBookingsResponse{Bookings: list, Total: len(list)})
}

// Create handles POST /admin/bookings. A duplicate answers 200 with the
// existing booking instead of 201.
func (h *BookingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var c bookings.Candidate
	if err := decodeJSON(r, &c); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	c.Source = "admin"
	b, created, err := h.ledger.Create(r.Context(), c)
	if err != nil {
		writeError(w, h.logger, "create_booking", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, BookingResponse{Booking: b, Created: created})
}

// Get handles GET /admin/bookings/{id}.
func (h *BookingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.ledger.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, "get_booking", err)
		return
	}
	writeJSON(w, http.StatusOK, BookingResponse{Booking: b})
}

// Update handles PUT /admin/bookings/{id} with a complete record.
func (h *BookingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var b bookings.Booking
	if err := decodeJSON(r, &b); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	b.ID = chi.URLParam(r, "id")
	if err := h.ledger.Update(r.Context(), b); err != nil {
		writeError(w, h.logger, "update_booking", err)
		return
	}
	h.respond(w, r, "update_booking", b.ID)
}

// Delete handles DELETE /admin/bookings/{id}.
func (h *BookingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, "delete_booking", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reassignRequest struct {
	StaffID string `json:"staffId"`
}

// Reassign handles POST /admin/bookings/{id}/assign. An empty staffId clears
// the assignment.
func (h *BookingsHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	var req reassignRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	b, err := h.ledger.Reassign(r.Context(), chi.URLParam(r, "id"), req.StaffID, author(r, ""))
	h.reply(w, "reassign_booking", b, err)
}

// Start handles POST /staff/jobs/{id}/start.
func (h *BookingsHandler) Start(w http.ResponseWriter, r *http.Request) {
	b, err := h.ledger.Start(r.Context(), chi.URLParam(r, "id"))
	h.reply(w, "start_booking", b, err)
}

// Complete handles POST /staff/jobs/{id}/complete with the completion report.
func (h *BookingsHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var report bookings.CompletionReport
	if err := decodeJSON(r, &report); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	b, err := h.ledger.Complete(r.Context(), chi.URLParam(r, "id"), report)
	h.reply(w, "complete_booking", b, err)
}

// Cancel handles POST /admin/bookings/{id}/cancel.
func (h *BookingsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	b, err := h.ledger.Cancel(r.Context(), chi.URLParam(r, "id"), author(r, ""))
	h.reply(w, "cancel_booking", b, err)
}

type noteRequest struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

// AddNote handles POST /{admin,staff}/bookings/{id}/notes.
func (h *BookingsHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	b, err := h.ledger.AddNote(r.Context(), chi.URLParam(r, "id"), author(r, req.Author), req.Text)
	h.reply(w, "add_note", b, err)
}

// RecordPayment handles POST .../payments.
func (h *BookingsHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var p bookings.Payment
	if err := decodeJSON(r, &p); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if p.RecordedBy == "" {
		p.RecordedBy = author(r, "")
	}
	b, err := h.ledger.RecordPayment(r.Context(), chi.URLParam(r, "id"), p)
	h.reply(w, "record_payment", b, err)
}

type lineItemRequest struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// AddLineItem handles POST .../line-items.
func (h *BookingsHandler) AddLineItem(w http.ResponseWriter, r *http.Request) {
	var req lineItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	b, err := h.ledger.AddLineItem(r.Context(), chi.URLParam(r, "id"), req.Description, req.Amount)
	h.reply(w, "add_line_item", b, err)
}

type laborRequest struct {
	Hours float64 `json:"hours"`
}

// SetLabor handles PUT .../labor.
func (h *BookingsHandler) SetLabor(w http.ResponseWriter, r *http.Request) {
	var req laborRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	b, err := h.ledger.SetLabor(r.Context(), chi.URLParam(r, "id"), req.Hours)
	h.reply(w, "set_labor", b, err)
}

type equipmentRequest struct {
	Models []string `json:"models"`
}

// SetEquipment handles PUT .../equipment.
func (h *BookingsHandler) SetEquipment(w http.ResponseWriter, r *http.Request) {
	var req equipmentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	b, err := h.ledger.SetEquipment(r.Context(), chi.URLParam(r, "id"), req.Models)
	h.reply(w, "set_equipment", b, err)
}

// AddAttachment handles POST .../attachments. Only metadata is stored; the
// file itself lives wherever URL points.
func (h *BookingsHandler) AddAttachment(w http.ResponseWriter, r *http.Request) {
	var a bookings.Attachment
	if err := decodeJSON(r, &a); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	b, err := h.ledger.AddAttachment(r.Context(), chi.URLParam(r, "id"), a)
	h.reply(w, "add_attachment", b, err)
}

// MyJobs handles GET /staff/jobs for the authenticated technician.
func (h *BookingsHandler) MyJobs(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok || claims.Subject == "" {
		jsonError(w, "missing staff identity", http.StatusUnauthorized)
		return
	}
	h.jobsFor(w, r, claims.Subject)
}

// StaffJobs handles GET /admin/staff/{id}/jobs.
func (h *BookingsHandler) StaffJobs(w http.ResponseWriter, r *http.Request) {
	h.jobsFor(w, r, chi.URLParam(r, "id"))
}

func (h *BookingsHandler) jobsFor(w http.ResponseWriter, r *http.Request, staffID string) {
	list, err := h.ledger.AssignedTo(r.Context(), staffID)
	if err != nil {
		writeError(w, h.logger, "staff_jobs", err)
		return
	}
	writeJSON(w, http.StatusOK, listBookingsResponse{Bookings: list, Total: len(list)})
}

func (h *BookingsHandler) respond(w http.ResponseWriter, r *http.Request, op, id string) {
	b, err := h.ledger.Get(r.Context(), id)
	h.reply(w, op, b, err)
}

func (h *BookingsHandler) reply(w http.ResponseWriter, op string, b *bookings.Booking, err error) {
	if err != nil {
		writeError(w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, BookingResponse{Booking: b})
}

// author prefers an explicit name, then the token subject.
func author(r *http.Request, explicit string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		return claims.Subject
	}
	return ""
}
