package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfman30/arcticflow-dispatch/internal/availability"
	"github.com/wolfman30/arcticflow-dispatch/internal/bookings"
	appconfig "github.com/wolfman30/arcticflow-dispatch/internal/config"
	"github.com/wolfman30/arcticflow-dispatch/internal/docstore"
	"github.com/wolfman30/arcticflow-dispatch/internal/events"
	"github.com/wolfman30/arcticflow-dispatch/internal/finance"
	"github.com/wolfman30/arcticflow-dispatch/internal/observability/metrics"
	"github.com/wolfman30/arcticflow-dispatch/internal/roster"
	"github.com/wolfman30/arcticflow-dispatch/internal/schedule"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

// Engine is the booking core every entry point shares.
type Engine struct {
	Clock    schedule.Clock
	Roster   *roster.Service
	Store    *bookings.DocumentStore
	Resolver *availability.Resolver
	Ledger   *bookings.Ledger
	Settings *finance.SettingsStore
	Finance  *finance.Service
}

// EngineOptions carries the optional collaborators of BuildEngine.
type EngineOptions struct {
	Clock     schedule.Clock
	Publisher events.Publisher
	Metrics   *metrics.DispatchMetrics
}

// BuildEngine wires roster, ledger, availability and finance over docs.
func BuildEngine(ctx context.Context, cfg *appconfig.Config, docs docstore.Store, opts EngineOptions, logger *logging.Logger) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if docs == nil {
		return nil, fmt.Errorf("bootstrap: document store is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = schedule.NewSystemClock(cfg.BusinessTimezone)
	}

	fallback := finance.DefaultSettings()
	if path := strings.TrimSpace(cfg.BusinessSettingsFile); path != "" {
		loaded, err := finance.LoadSettingsFile(path)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: business settings: %w", err)
		}
		fallback = loaded
		logger.Info("business settings loaded", "path", path)
	}

	e := &Engine{Clock: clock}
	e.Roster = roster.NewService(docs, logger)
	e.Store = bookings.NewDocumentStore(docs, logger)
	e.Resolver = availability.NewResolver(e.Roster, e.Store, clock)
	e.Ledger = bookings.NewLedger(e.Store, e.Resolver, e.Roster, logger,
		bookings.WithClock(clock),
		bookings.WithPublisher(opts.Publisher),
		bookings.WithMetrics(opts.Metrics),
	)
	e.Settings = finance.NewSettingsStore(docs, fallback)
	e.Finance = finance.NewService(e.Ledger, e.Settings, logger)

	if cfg.SeedDemoData {
		if err := e.SeedDemo(ctx, logger); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// SeedDemo installs the starter roster and ledger into an empty store.
func (e *Engine) SeedDemo(ctx context.Context, logger *logging.Logger) error {
	if logger == nil {
		logger = logging.Default()
	}
	staffSeeded, err := e.Roster.Seed(ctx, roster.DemoStaff())
	if err != nil {
		return fmt.Errorf("bootstrap: seed roster: %w", err)
	}
	jobsSeeded, err := bookings.Seed(ctx, e.Store, bookings.DemoBookings(e.Clock))
	if err != nil {
		return fmt.Errorf("bootstrap: seed bookings: %w", err)
	}
	logger.Info("demo data checked", "staff_seeded", staffSeeded, "bookings_seeded", jobsSeeded)
	return nil
}
