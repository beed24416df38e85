package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/arcticflow-dispatch/internal/availability"
	"github.com/wolfman30/arcticflow-dispatch/internal/bookings"
	"github.com/wolfman30/arcticflow-dispatch/internal/docstore"
	"github.com/wolfman30/arcticflow-dispatch/internal/finance"
	"github.com/wolfman30/arcticflow-dispatch/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/arcticflow-dispatch/internal/http/middleware"
	"github.com/wolfman30/arcticflow-dispatch/internal/outbound"
	"github.com/wolfman30/arcticflow-dispatch/internal/roster"
	"github.com/wolfman30/arcticflow-dispatch/internal/schedule"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

const testSecret = "router-test-secret"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.Discard()
	clock := schedule.FixedClock{At: time.Date(2025, 5, 20, 8, 0, 0, 0, schedule.BusinessLocation(""))}
	docs := docstore.NewMemoryStore()
	rs := roster.NewService(docs, logger)
	if _, err := rs.Seed(context.Background(), roster.DemoStaff()); err != nil {
		t.Fatalf("seed roster: %v", err)
	}
	store := bookings.NewDocumentStore(docs, logger)
	if _, err := bookings.Seed(context.Background(), store, bookings.DemoBookings(clock)); err != nil {
		t.Fatalf("seed bookings: %v", err)
	}
	resolver := availability.NewResolver(rs, store, clock)
	ledger := bookings.NewLedger(store, resolver, rs, logger, bookings.WithClock(clock))
	settings := finance.NewSettingsStore(docs, finance.DefaultSettings())
	calls := outbound.NewService(nil, outbound.NewMemoryCallStore(), ledger, resolver, logger)

	return New(&Config{
		Logger:             logger,
		Bookings:           handlers.NewBookingsHandler(ledger, logger),
		Staff:              handlers.NewStaffHandler(rs, logger),
		Availability:       handlers.NewAvailabilityHandler(resolver, logger),
		Finance:            handlers.NewFinanceHandler(finance.NewService(ledger, settings, logger), settings, logger),
		Outbound:           handlers.NewOutboundHandler(calls, logger),
		AuthSecret:         testSecret,
		WebhookSecret:      "hook-secret",
		MetricsHandler:     promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{}),
		CORSAllowedOrigins: []string{"https://dash.arcticflow.ai"},
	})
}

func token(t *testing.T, subject, role string) string {
	t.Helper()
	tok, err := httpmiddleware.IssueToken(testSecret, subject, role, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return "Bearer " + tok
}

func get(router http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRouterHealthEndpoint(t *testing.T) {
	rr := get(newTestRouter(t), "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	if rr := get(newTestRouter(t), "/metrics", ""); rr.Code != http.StatusOK {
		t.Fatalf("expected metrics to be served, got %d", rr.Code)
	}
}

func TestRouterAdminRequiresAdminRole(t *testing.T) {
	router := newTestRouter(t)

	if rr := get(router, "/admin/bookings", ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}
	if rr := get(router, "/admin/bookings", token(t, "s1", httpmiddleware.RoleStaff)); rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff token, got %d", rr.Code)
	}

	rr := get(router, "/admin/bookings", token(t, "admin1", httpmiddleware.RoleAdmin))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin token, got %d", rr.Code)
	}
	var body struct {
		Total int `json:"total"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 1 {
		t.Fatalf("expected seeded booking, got %d", body.Total)
	}

	if rr := get(router, "/admin/bookings/1", token(t, "admin1", httpmiddleware.RoleAdmin)); rr.Code != http.StatusOK {
		t.Fatalf("expected booking detail route, got %d", rr.Code)
	}
	if rr := get(router, "/admin/bookings/1/invoice", token(t, "admin1", httpmiddleware.RoleAdmin)); rr.Code != http.StatusOK {
		t.Fatalf("expected invoice route, got %d", rr.Code)
	}
}

func TestRouterStaffSeesOwnJobs(t *testing.T) {
	router := newTestRouter(t)

	rr := get(router, "/staff/jobs", token(t, "s1", httpmiddleware.RoleStaff))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body struct {
		Total int `json:"total"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 1 {
		t.Fatalf("expected one job for s1, got %d", body.Total)
	}

	rr = get(router, "/staff/jobs", token(t, "s2", httpmiddleware.RoleStaff))
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 0 {
		t.Fatalf("expected no jobs for s2, got %d", body.Total)
	}
}

func TestRouterWebhookRequiresSecret(t *testing.T) {
	router := newTestRouter(t)
	payload := `{"type":"call.started","call":{"id":"c1"}}`

	req := httptest.NewRequest(http.MethodPost, "/webhooks/vapi", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without secret, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/webhooks/vapi", strings.NewReader(payload))
	req.Header.Set(vapiSecretHeader, "hook-secret")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with secret, got %d", rr.Code)
	}
}

func TestRouterChatRoutesAbsentWithoutHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/chat/sessions", nil))
	if rr.Code != http.StatusNotFound && rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected chat routes to be unregistered, got %d", rr.Code)
	}
}

func TestRouterWithoutSecretMountsNoAdmin(t *testing.T) {
	router := New(&Config{Logger: logging.Discard()})
	if rr := get(router, "/admin/bookings", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected admin routes to be absent, got %d", rr.Code)
	}
}
