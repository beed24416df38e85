package main

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/wolfman30/arcticflow-dispatch/cmd/mainconfig"
	"github.com/wolfman30/arcticflow-dispatch/internal/app/bootstrap"
	appconfig "github.com/wolfman30/arcticflow-dispatch/internal/config"
	"github.com/wolfman30/arcticflow-dispatch/internal/outbound"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

const (
	webhookPath  = "/webhooks/vapi"
	secretHeader = "x-vapi-secret"
)

type webhookProcessor interface {
	HandleWebhook(ctx context.Context, body []byte) (*outbound.CallRecord, error)
}

type handler struct {
	calls  webhookProcessor
	secret string
	logger *logging.Logger
}

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	ctx := context.Background()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	storage, err := bootstrap.OpenStorage(ctx, cfg, awsCfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer storage.Close()

	publisher := bootstrap.BuildPublisher(cfg, awsCfg, logger)
	engine, err := bootstrap.BuildEngine(ctx, cfg, storage.Docs, bootstrap.EngineOptions{Publisher: publisher}, logger)
	if err != nil {
		logger.Error("failed to build engine", "error", err)
		os.Exit(1)
	}
	calls, err := bootstrap.BuildOutboundService(cfg, bootstrap.OutboundDeps{
		Ledger:    engine.Ledger,
		Resolver:  engine.Resolver,
		Redis:     storage.Redis,
		Publisher: publisher,
	}, logger)
	if err != nil {
		logger.Error("failed to build outbound service", "error", err)
		os.Exit(1)
	}

	h := &handler{calls: calls, secret: cfg.VAPIWebhookSecret, logger: logger}
	lambda.Start(h.handle)
}

func (h *handler) handle(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := strings.ToUpper(strings.TrimSpace(evt.RequestContext.HTTP.Method))
	path := strings.TrimSpace(evt.RawPath)
	if path == "" {
		path = strings.TrimSpace(evt.RequestContext.HTTP.Path)
	}

	if path == "/health" || path == "/_health" {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusOK, Body: "ok"}, nil
	}
	if path != webhookPath {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusNotFound}, nil
	}
	if method != http.MethodPost {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusMethodNotAllowed}, nil
	}
	if h.secret != "" {
		got := headerValue(evt.Headers, secretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			return jsonResponse(http.StatusUnauthorized, map[string]any{"error": "invalid webhook secret"}), nil
		}
	}

	body, err := decodeBody(evt)
	if err != nil {
		return jsonResponse(http.StatusBadRequest, map[string]any{"error": "invalid body"}), nil
	}

	rec, err := h.calls.HandleWebhook(ctx, body)
	switch {
	case errors.Is(err, outbound.ErrInvalidWebhook):
		return jsonResponse(http.StatusBadRequest, map[string]any{"error": err.Error()}), nil
	case err != nil:
		h.logger.Error("call webhook failed", "error", err)
		return jsonResponse(http.StatusInternalServerError, map[string]any{"error": "internal error"}), nil
	case rec == nil:
		return jsonResponse(http.StatusOK, map[string]any{"received": true}), nil
	}
	h.logger.Info("call result stored", "call_id", rec.ID, "booking_id", rec.BookingID)
	return jsonResponse(http.StatusOK, map[string]any{"received": true, "callId": rec.ID}), nil
}

func jsonResponse(status int, body any) events.APIGatewayV2HTTPResponse {
	data, _ := json.Marshal(body)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Body:       string(data),
		Headers:    map[string]string{"content-type": "application/json"},
	}
}

func decodeBody(evt events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !evt.IsBase64Encoded {
		return []byte(evt.Body), nil
	}
	return base64.StdEncoding.DecodeString(evt.Body)
}

func headerValue(headers map[string]string, key string) string {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
