package bootstrap

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/arcticflow-dispatch/internal/availability"
	"github.com/wolfman30/arcticflow-dispatch/internal/bookings"
	appconfig "github.com/wolfman30/arcticflow-dispatch/internal/config"
	"github.com/wolfman30/arcticflow-dispatch/internal/events"
	"github.com/wolfman30/arcticflow-dispatch/internal/observability/metrics"
	"github.com/wolfman30/arcticflow-dispatch/internal/outbound"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

// BuildPublisher sends lifecycle events to SQS when a queue is configured and
// to the log otherwise.
func BuildPublisher(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) events.Publisher {
	if cfg == nil || strings.TrimSpace(cfg.EventsQueueURL) == "" {
		return events.NewLogPublisher(logger)
	}
	return events.NewSQSPublisher(sqs.NewFromConfig(awsCfg), cfg.EventsQueueURL)
}

// BuildCallStore keeps call records in Redis when available.
func BuildCallStore(rdb *redis.Client) outbound.CallStore {
	if rdb == nil {
		return outbound.NewMemoryCallStore()
	}
	return outbound.NewRedisCallStore(rdb)
}

// OutboundDeps are the collaborators the outbound call service needs.
type OutboundDeps struct {
	Ledger    *bookings.Ledger
	Resolver  *availability.Resolver
	Redis     *redis.Client
	Publisher events.Publisher
	Metrics   *metrics.DispatchMetrics
}

// BuildOutboundService always returns a service so call history and webhooks
// keep working; without VAPI_API_KEY every new call fails as unavailable.
func BuildOutboundService(cfg *appconfig.Config, deps OutboundDeps, logger *logging.Logger) (*outbound.Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	var caller outbound.Caller
	if strings.TrimSpace(cfg.VAPIAPIKey) != "" {
		client, err := outbound.NewVAPIClient(outbound.VAPIClientConfig{
			APIKey:  cfg.VAPIAPIKey,
			BaseURL: cfg.VAPIBaseURL,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("bootstrap: vapi client: %w", err)
		}
		caller = client
	} else {
		logger.Warn("VAPI_API_KEY not set; outbound calls disabled")
	}

	return outbound.NewService(caller, BuildCallStore(deps.Redis), deps.Ledger, deps.Resolver, logger,
		outbound.WithPublisher(deps.Publisher),
		outbound.WithMetrics(deps.Metrics),
		outbound.WithRegion(cfg.PhoneRegion),
	), nil
}
