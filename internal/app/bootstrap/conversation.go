package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/arcticflow-dispatch/internal/availability"
	"github.com/wolfman30/arcticflow-dispatch/internal/bookings"
	appconfig "github.com/wolfman30/arcticflow-dispatch/internal/config"
	"github.com/wolfman30/arcticflow-dispatch/internal/conversation"
	"github.com/wolfman30/arcticflow-dispatch/internal/intake"
	"github.com/wolfman30/arcticflow-dispatch/internal/observability/metrics"
	"github.com/wolfman30/arcticflow-dispatch/internal/schedule"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

// LLMStack is the chat model wiring chosen from config.
type LLMStack struct {
	Chat      conversation.LLMClient
	ChatModel string
	// Gemini is kept separately so extraction can use structured output.
	Gemini *conversation.GeminiLLMClient
}

// Close releases the Gemini client when one was opened.
func (s LLMStack) Close() {
	if s.Gemini != nil {
		_ = s.Gemini.Close()
	}
}

// BuildLLMStack wires the configured provider with the other one as
// fallback when both are configured. An empty stack means the assistant is
// unavailable.
func BuildLLMStack(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (LLMStack, error) {
	if cfg == nil {
		return LLMStack{}, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		gemini  *conversation.GeminiLLMClient
		bedrock conversation.LLMClient
	)
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		client, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiChatModel)
		if err != nil {
			return LLMStack{}, fmt.Errorf("bootstrap: gemini: %w", err)
		}
		gemini = client
	}
	if strings.TrimSpace(cfg.BedrockModelID) != "" {
		bedrock = conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
	}

	stack := LLMStack{Gemini: gemini}
	switch {
	case gemini == nil && bedrock == nil:
		logger.Warn("no LLM provider configured; chat and voice intake disabled")
		return LLMStack{}, nil
	case gemini != nil && bedrock != nil:
		if cfg.LLMProvider == "bedrock" {
			stack.Chat = conversation.NewFallbackLLMClient(bedrock, gemini, logger)
			stack.ChatModel = cfg.BedrockModelID
		} else {
			stack.Chat = conversation.NewFallbackLLMClient(gemini, bedrock, logger)
		}
	case gemini != nil:
		stack.Chat = gemini
	default:
		stack.Chat = bedrock
		stack.ChatModel = cfg.BedrockModelID
	}
	logger.Info("llm provider ready", "provider", cfg.LLMProvider, "gemini", gemini != nil, "bedrock", bedrock != nil)
	return stack, nil
}

// BuildExtractor prefers Gemini's schema-constrained extraction and falls
// back to prompting the chat model for JSON.
func BuildExtractor(cfg *appconfig.Config, stack LLMStack) intake.Extractor {
	if stack.Gemini != nil {
		return conversation.NewGeminiExtractor(stack.Gemini, cfg.GeminiExtractionModel)
	}
	if stack.Chat == nil {
		return nil
	}
	return conversation.NewLLMExtractor(stack.Chat, stack.ChatModel)
}

// ConversationDeps are the collaborators a conversation manager needs.
type ConversationDeps struct {
	Directives *conversation.DirectiveStore
	Resolver   *availability.Resolver
	Ledger     *bookings.Ledger
	Clock      schedule.Clock
	Redis      *redis.Client
	Metrics    *metrics.DispatchMetrics
}

// BuildConversationManager returns nil when no LLM is configured.
func BuildConversationManager(cfg *appconfig.Config, stack LLMStack, deps ConversationDeps, logger *logging.Logger) *conversation.Manager {
	if cfg == nil || stack.Chat == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	extractor := BuildExtractor(cfg, stack)
	briefing := conversation.NewBriefing(deps.Directives, deps.Resolver, deps.Clock)

	opts := []conversation.Option{
		conversation.WithClock(deps.Clock),
		conversation.WithChatModel(stack.ChatModel),
		conversation.WithVoiceCheckpoints(cfg.VoiceCheckInterval, cfg.VoiceMinTurns),
		conversation.WithMetrics(deps.Metrics),
	}
	if deps.Redis != nil {
		opts = append(opts, conversation.WithTranscriptStore(conversation.NewRedisTranscriptStore(deps.Redis, nil)))
		logger.Info("conversation transcripts persisted to redis")
	}
	return conversation.NewManager(stack.Chat, briefing, extractor, deps.Ledger, logger, opts...)
}
