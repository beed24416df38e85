package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/arcticflow-dispatch/internal/availability"
	"github.com/wolfman30/arcticflow-dispatch/internal/bookings"
	"github.com/wolfman30/arcticflow-dispatch/internal/docstore"
	"github.com/wolfman30/arcticflow-dispatch/internal/finance"
	"github.com/wolfman30/arcticflow-dispatch/internal/roster"
	"github.com/wolfman30/arcticflow-dispatch/internal/schedule"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

type testEngine struct {
	docs     *docstore.MemoryStore
	roster   *roster.Service
	resolver *availability.Resolver
	ledger   *bookings.Ledger
	finance  *finance.Service
	settings *finance.SettingsStore
	router   chi.Router
}

func testClock() schedule.FixedClock {
	return schedule.FixedClock{At: time.Date(2025, 5, 20, 8, 0, 0, 0, schedule.BusinessLocation(""))}
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	logger := logging.Discard()
	docs := docstore.NewMemoryStore()
	rs := roster.NewService(docs, logger)
	_, err := rs.Seed(context.Background(), roster.DemoStaff())
	require.NoError(t, err)
	store := bookings.NewDocumentStore(docs, logger)
	resolver := availability.NewResolver(rs, store, testClock())
	ledger := bookings.NewLedger(store, resolver, rs, logger, bookings.WithClock(testClock()))
	settings := finance.NewSettingsStore(docs, finance.DefaultSettings())
	fin := finance.NewService(ledger, settings, logger)

	e := &testEngine{docs: docs, roster: rs, resolver: resolver, ledger: ledger, finance: fin, settings: settings}

	bh := NewBookingsHandler(ledger, logger)
	sh := NewStaffHandler(rs, logger)
	ah := NewAvailabilityHandler(resolver, logger)
	fh := NewFinanceHandler(fin, settings, logger)

	r := chi.NewRouter()
	r.Get("/bookings", bh.List)
	r.Post("/bookings", bh.Create)
	r.Get("/bookings/{id}", bh.Get)
	r.Put("/bookings/{id}", bh.Update)
	r.Delete("/bookings/{id}", bh.Delete)
	r.Post("/bookings/{id}/assign", bh.Reassign)
	r.Post("/bookings/{id}/start", bh.Start)
	r.Post("/bookings/{id}/complete", bh.Complete)
	r.Post("/bookings/{id}/cancel", bh.Cancel)
	r.Post("/bookings/{id}/notes", bh.AddNote)
	r.Post("/bookings/{id}/payments", bh.RecordPayment)
	r.Post("/bookings/{id}/line-items", bh.AddLineItem)
	r.Put("/bookings/{id}/labor", bh.SetLabor)
	r.Put("/bookings/{id}/equipment", bh.SetEquipment)
	r.Post("/bookings/{id}/attachments", bh.AddAttachment)
	r.Get("/bookings/{id}/financials", fh.Summary)
	r.Post("/bookings/{id}/invoice", fh.CommitCharges)
	r.Get("/bookings/{id}/invoice", fh.Invoice)
	r.Get("/settings", fh.GetSettings)
	r.Put("/settings", fh.PutSettings)
	r.Get("/staff", sh.List)
	r.Post("/staff", sh.Enlist)
	r.Get("/staff/{id}", sh.Get)
	r.Post("/staff/{id}/toggle", sh.Toggle)
	r.Put("/staff/{id}/status", sh.SetStatus)
	r.Get("/staff/{id}/jobs", bh.StaffJobs)
	r.Get("/availability", ah.Available)
	r.Get("/availability/summary", ah.Summary)
	e.router = r
	return e
}

func (e *testEngine) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return serve(t, e.router, method, path, body)
}

func serve(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out), rec.Body.String())
	return out
}
