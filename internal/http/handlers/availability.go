package handlers

import (
	"net/http"

	"github.com/wolfman30/arcticflow-dispatch/internal/availability"
	"github.com/wolfman30/arcticflow-dispatch/internal/roster"
	"github.com/wolfman30/arcticflow-dispatch/internal/schedule"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

// AvailabilityHandler answers "who is free" queries.
type AvailabilityHandler struct {
	resolver *availability.Resolver
	logger   *logging.Logger
}

func NewAvailabilityHandler(resolver *availability.Resolver, logger *logging.Logger) *AvailabilityHandler {
	if resolver == nil {
		panic("handlers: resolver required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AvailabilityHandler{resolver: resolver, logger: logger}
}

type availableResponse struct {
	Slot  schedule.Slot        `json:"slot"`
	Team  roster.TeamType      `json:"team"`
	Staff []roster.StaffMember `json:"staff"`
}

// Available handles GET /admin/availability?date=2025-05-20&time=09:00&team=Repair.
// A bare slot=... parameter is accepted as well.
func (h *AvailabilityHandler) Available(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		slot schedule.Slot
		err  error
	)
	if raw := q.Get("slot"); raw != "" {
		slot, err = schedule.ParseSlot(raw)
	} else {
		slot, err = schedule.NormalizeSlot(q.Get("date"), q.Get("time"))
	}
	if err != nil {
		jsonError(w, "invalid slot: "+err.Error(), http.StatusBadRequest)
		return
	}
	team, ok := roster.ParseTeamType(q.Get("team"))
	if !ok {
		jsonError(w, roster.ErrInvalidTeam.Error(), http.StatusBadRequest)
		return
	}
	staff, err := h.resolver.Available(r.Context(), slot, team)
	if err != nil {
		writeError(w, h.logger, "available_staff", err)
		return
	}
	writeJSON(w, http.StatusOK, availableResponse{Slot: slot, Team: team, Staff: staff})
}

type summaryResponse struct {
	availability.Digest
	Text string `json:"text"`
}

// Summary handles GET /admin/availability/summary.
func (h *AvailabilityHandler) Summary(w http.ResponseWriter, r *http.Request) {
	digest, err := h.resolver.Summary(r.Context())
	if err != nil {
		writeError(w, h.logger, "availability_summary", err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{Digest: digest, Text: digest.String()})
}
