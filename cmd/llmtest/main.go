// Command llmtest checks the configured LLM providers end to end: one chat
// completion and one extraction over a sample HVAC intake transcript.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/wolfman30/arcticflow-dispatch/cmd/mainconfig"
	"github.com/wolfman30/arcticflow-dispatch/internal/app/bootstrap"
	appconfig "github.com/wolfman30/arcticflow-dispatch/internal/config"
	"github.com/wolfman30/arcticflow-dispatch/internal/conversation"
	"github.com/wolfman30/arcticflow-dispatch/internal/intake"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

func sampleTranscript() intake.Transcript {
	return intake.Transcript{
		{Role: intake.SpeakerAssistant, Text: "Hi, you've reached ArcticFlow. What can we help with today?"},
		{Role: intake.SpeakerUser, Text: "My ducted air con is blowing warm air. I'm Dana Wright, 0412 345 678."},
		{Role: intake.SpeakerAssistant, Text: "Thanks Dana. What's the address, and when suits you?"},
		{Role: intake.SpeakerUser, Text: "14 Banksia St, Turner. Thursday at 11 if you have it."},
		{Role: intake.SpeakerAssistant, Text: "So that's a repair for Dana Wright, 0412 345 678, at 14 Banksia St on Thursday 11:00. Shall I book it?"},
		{Role: intake.SpeakerUser, Text: "Yes please."},
	}
}

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		fmt.Printf("failed to load AWS config: %v\n", err)
		os.Exit(1)
	}
	stack, err := bootstrap.BuildLLMStack(ctx, cfg, awsCfg, logger)
	if err != nil {
		fmt.Printf("failed to build LLM stack: %v\n", err)
		os.Exit(1)
	}
	defer stack.Close()
	if stack.Chat == nil {
		fmt.Println("no provider configured: set GEMINI_API_KEY and/or BEDROCK_MODEL_ID")
		os.Exit(1)
	}

	transcript := sampleTranscript()

	fmt.Println("[1] chat completion")
	start := time.Now()
	resp, err := stack.Chat.Complete(ctx, conversation.LLMRequest{
		Model:       stack.ChatModel,
		System:      []string{conversation.DefaultDirective},
		Messages:    conversation.MessagesFromTranscript(transcript[:4]),
		MaxTokens:   200,
		Temperature: 0.7,
	})
	if err != nil {
		fmt.Printf("    chat failed: %v\n", err)
	} else {
		fmt.Printf("    %s (%v, in=%d out=%d)\n", resp.Text, time.Since(start).Round(time.Millisecond), resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}

	fmt.Println("[2] extraction")
	start = time.Now()
	extraction, err := bootstrap.BuildExtractor(cfg, stack).Extract(ctx, transcript)
	if err != nil {
		fmt.Printf("    extraction failed: %v\n", err)
		os.Exit(1)
	}
	out, _ := json.MarshalIndent(extraction, "    ", "  ")
	fmt.Printf("    %s (%v)\n", out, time.Since(start).Round(time.Millisecond))
	fmt.Printf("    ready to commit: %t\n", extraction.Ready())
}
