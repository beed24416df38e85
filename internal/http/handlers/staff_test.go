package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/arcticflow-dispatch/internal/availability"
	"github.com/wolfman30/arcticflow-dispatch/internal/finance"
	"github.com/wolfman30/arcticflow-dispatch/internal/roster"
)

func TestEnlistAndToggleStaff(t *testing.T) {
	e := newTestEngine(t)

	rec := e.do(t, http.MethodPost, "/staff", map[string]string{"name": "Nina Install", "teamType": "Installation"})
	require.Equal(t, http.StatusCreated, rec.Code)
	member := decode[roster.StaffMember](t, rec)
	assert.True(t, member.Active)
	assert.Equal(t, roster.RoleStaff, member.Role)

	rec = e.do(t, http.MethodPost, "/staff/"+member.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[roster.StaffMember](t, rec).Active)

	list := decode[staffResponse](t, e.do(t, http.MethodGet, "/staff", nil))
	assert.Len(t, list.Staff, 4, "deactivated members stay on the roster")

	rec = e.do(t, http.MethodGet, "/availability?slot=2025-05-21+09:00&team=Installation", nil)
	free := decode[availableResponse](t, rec).Staff
	require.Len(t, free, 1)
	assert.Equal(t, "s2", free[0].ID)
}

func TestEnlistValidation(t *testing.T) {
	e := newTestEngine(t)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/staff", map[string]string{"teamType": "Repair"}).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/staff", map[string]string{"name": "X", "teamType": "Plumbing"}).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/staff/ghost", nil).Code)
}

func TestSetStaffStatus(t *testing.T) {
	e := newTestEngine(t)

	rec := e.do(t, http.MethodPut, "/staff/s1/status", map[string]string{"status": "Busy"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, roster.StatusBusy, decode[roster.StaffMember](t, rec).Status)

	rec = e.do(t, http.MethodPut, "/staff/s1/status", map[string]string{"status": "Asleep"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The tag does not affect dispatch.
	rec = e.do(t, http.MethodGet, "/availability?slot=2025-05-21+09:00&team=Repair", nil)
	assert.Len(t, decode[availableResponse](t, rec).Staff, 1)
}

func TestAvailabilitySummary(t *testing.T) {
	e := newTestEngine(t)
	createBooking(t, e, "2025-05-20 09:00")

	rec := e.do(t, http.MethodGet, "/availability/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[summaryResponse](t, rec)
	require.Len(t, body.Days, availability.SummaryDays)
	assert.Equal(t, "2025-05-20", body.Days[0].Date)
	assert.Equal(t, 0, body.Days[0].Cells[0].Repair)
	assert.Equal(t, 1, body.Days[0].Cells[0].Installation)
	assert.Contains(t, body.Text, "2025-05-20: [09:00: 0R 1I]")
}

func TestAvailabilityRejectsBadQuery(t *testing.T) {
	e := newTestEngine(t)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/availability?slot=tomorrow&team=Repair", nil).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/availability?slot=2025-05-21+09:00", nil).Code)
}

func TestBusinessSettingsRoundTrip(t *testing.T) {
	e := newTestEngine(t)

	got := decode[finance.Settings](t, e.do(t, http.MethodGet, "/settings", nil))
	assert.Equal(t, finance.DefaultSettings().Name, got.Name)

	got.HourlyRate = 125
	rec := e.do(t, http.MethodPut, "/settings", got)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 125, decode[finance.Settings](t, e.do(t, http.MethodGet, "/settings", nil)).HourlyRate, 0.001)

	got.HourlyRate = -1
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPut, "/settings", got).Code)
}
