package outbound

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

const (
	defaultVAPIBaseURL = "https://api.vapi.ai"
	vapiCallTimeout    = 15 * time.Second
)

// CallRequest describes an outbound call to place.
type CallRequest struct {
	PhoneNumber  string
	CustomerName string
	JobType      string
	CallReason   string
	TimeSlots    string
	BookingID    string
}

// VAPIClient starts outbound AI calls through the VAPI API.
type VAPIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// VAPIClientConfig configures the outbound voice client.
type VAPIClientConfig struct {
	APIKey string
	// BaseURL overrides the VAPI API base URL (for testing).
	BaseURL    string
	HTTPClient *http.Client
	Logger     *logging.Logger
}

func NewVAPIClient(cfg VAPIClientConfig) (*VAPIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("vapi client: API key required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultVAPIBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: vapiCallTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &VAPIClient{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

type vapiCallBody struct {
	PhoneNumber string        `json:"phoneNumber"`
	Assistant   vapiAssistant `json:"assistant"`
	Metadata    vapiMetadata  `json:"metadata"`
}

type vapiAssistant struct {
	Model        vapiModel `json:"model"`
	Voice        string    `json:"voice"`
	FirstMessage string    `json:"firstMessage"`
}

type vapiModel struct {
	Provider string        `json:"provider"`
	Model    string        `json:"model"`
	Messages []vapiMessage `json:"messages"`
}

type vapiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type vapiMetadata struct {
	BookingID    string `json:"bookingId,omitempty"`
	CustomerName string `json:"customerName"`
	Reason       string `json:"reason"`
}

// StartCall places the call and returns the provider's call id.
func (c *VAPIClient) StartCall(ctx context.Context, req CallRequest) (string, error) {
	if req.PhoneNumber == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPhone)
	}
	body, err := json.Marshal(vapiCallBody{
		PhoneNumber: req.PhoneNumber,
		Assistant: vapiAssistant{
			Model: vapiModel{
				Provider: "openai",
				Model:    "gpt-4",
				Messages: []vapiMessage{{Role: "system", Content: RenderPrompt(req)}},
			},
			Voice:        "jennifer-playht",
			FirstMessage: FirstMessage(req),
		},
		Metadata: vapiMetadata{
			BookingID:    req.BookingID,
			CustomerName: req.CustomerName,
			Reason:       req.CallReason,
		},
	})
	if err != nil {
		return "", fmt.Errorf("vapi: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/call/phone", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("vapi: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Info("vapi: initiating outbound call",
		"to", maskPhone(req.PhoneNumber),
		"booking_id", req.BookingID,
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrProviderUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		msg := "VAPI Request Failed"
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			msg = apiErr.Message
		}
		c.logger.Error("vapi: API error", "status", resp.StatusCode, "message", msg)
		return "", fmt.Errorf("%w: %d %s", ErrProviderUnavailable, resp.StatusCode, msg)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrProviderUnavailable, err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("%w: response missing call id", ErrProviderUnavailable)
	}

	c.logger.Info("vapi: outbound call initiated", "call_id", out.ID, "to", maskPhone(req.PhoneNumber))
	return out.ID, nil
}
