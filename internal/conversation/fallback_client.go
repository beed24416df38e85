package conversation

import (
	"context"
	"errors"

	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

// FallbackLLMClient sends each request to the primary provider and retries
// once on the secondary when the primary errors. Model IDs are provider
// specific, so the retry drops req.Model and lets the secondary use its own
// default.
type FallbackLLMClient struct {
	primary   LLMClient
	secondary LLMClient
	logger    *logging.Logger
}

func NewFallbackLLMClient(primary, secondary LLMClient, logger *logging.Logger) *FallbackLLMClient {
	if primary == nil {
		panic("conversation: primary llm client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackLLMClient{primary: primary, secondary: secondary, logger: logger}
}

func (c *FallbackLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	resp, err := c.primary.Complete(ctx, req)
	if err == nil || c.secondary == nil {
		return resp, err
	}
	// A cancelled session gains nothing from a second provider.
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return LLMResponse{}, err
	}

	c.logger.WarnContext(ctx, "primary llm failed, retrying on secondary", "error", err)
	retry := req
	retry.Model = ""
	resp, secondaryErr := c.secondary.Complete(ctx, retry)
	if secondaryErr != nil {
		c.logger.ErrorContext(ctx, "secondary llm failed", "primary_error", err, "secondary_error", secondaryErr)
		return LLMResponse{}, secondaryErr
	}
	return resp, nil
}
