package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/arcticflow-dispatch/cmd/mainconfig"
	"github.com/wolfman30/arcticflow-dispatch/internal/api/router"
	"github.com/wolfman30/arcticflow-dispatch/internal/app/bootstrap"
	appconfig "github.com/wolfman30/arcticflow-dispatch/internal/config"
	"github.com/wolfman30/arcticflow-dispatch/internal/conversation"
	"github.com/wolfman30/arcticflow-dispatch/internal/http/handlers"
	"github.com/wolfman30/arcticflow-dispatch/internal/observability/metrics"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

func main() {
	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, FilePath: cfg.LogFile})
	logger.Info("starting arcticflow dispatch API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"store", cfg.StoreBackend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler, cleanup, err := buildServer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build server", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// buildServer wires storage, the booking engine and the optional AI
// surfaces into a router. cleanup releases every opened connection.
func buildServer(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (http.Handler, func(), error) {
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("load aws config: %w", err)
	}

	var (
		metricsHandler  http.Handler
		dispatchMetrics *metrics.DispatchMetrics
	)
	if cfg.MetricsEnabled {
		metricsHandler, dispatchMetrics = setupDispatchMetrics()
	}

	storage, err := bootstrap.OpenStorage(ctx, cfg, awsCfg, logger)
	if err != nil {
		return nil, nil, err
	}
	publisher := bootstrap.BuildPublisher(cfg, awsCfg, logger)

	engine, err := bootstrap.BuildEngine(ctx, cfg, storage.Docs, bootstrap.EngineOptions{
		Publisher: publisher,
		Metrics:   dispatchMetrics,
	}, logger)
	if err != nil {
		storage.Close()
		return nil, nil, err
	}

	llm, err := bootstrap.BuildLLMStack(ctx, cfg, awsCfg, logger)
	if err != nil {
		storage.Close()
		return nil, nil, err
	}
	cleanup := func() {
		llm.Close()
		storage.Close()
	}

	calls, err := bootstrap.BuildOutboundService(cfg, bootstrap.OutboundDeps{
		Ledger:    engine.Ledger,
		Resolver:  engine.Resolver,
		Redis:     storage.Redis,
		Publisher: publisher,
		Metrics:   dispatchMetrics,
	}, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	routerCfg := &router.Config{
		Logger:             logger,
		Bookings:           handlers.NewBookingsHandler(engine.Ledger, logger),
		Staff:              handlers.NewStaffHandler(engine.Roster, logger),
		Availability:       handlers.NewAvailabilityHandler(engine.Resolver, logger),
		Finance:            handlers.NewFinanceHandler(engine.Finance, engine.Settings, logger),
		Outbound:           handlers.NewOutboundHandler(calls, logger),
		AuthSecret:         cfg.AdminJWTSecret,
		WebhookSecret:      cfg.VAPIWebhookSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		ChatRatePerSecond:  cfg.ChatRatePerSecond,
		ChatBurst:          cfg.ChatBurst,
	}

	directives := conversation.NewDirectiveStore(storage.Docs)
	manager := bootstrap.BuildConversationManager(cfg, llm, bootstrap.ConversationDeps{
		Directives: directives,
		Resolver:   engine.Resolver,
		Ledger:     engine.Ledger,
		Clock:      engine.Clock,
		Redis:      storage.Redis,
		Metrics:    dispatchMetrics,
	}, logger)
	if manager != nil {
		routerCfg.Chat = handlers.NewChatHandler(manager, directives, logger)
	}

	if cfg.AdminJWTSecret == "" {
		logger.Warn("ADMIN_JWT_SECRET not set; admin and staff routes disabled")
	}
	return router.New(routerCfg), cleanup, nil
}

// setupDispatchMetrics registers the dispatch collectors plus the Go runtime
// collectors on a private registry.
func setupDispatchMetrics() (http.Handler, *metrics.DispatchMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewDispatchMetrics(reg)
}
