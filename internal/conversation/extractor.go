package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/arcticflow-dispatch/internal/intake"
)

// extractionField describes one field the extraction oracle must return.
type extractionField struct {
	Name        string
	Boolean     bool
	Description string
}

var extractionFields = []extractionField{
	{Name: "name"},
	{Name: "phone"},
	{Name: "service_type"},
	{Name: "description"},
	{Name: "address"},
	{Name: "preferred_date_time", Description: "Must be in format YYYY-MM-DD HH:mm. DO NOT accept ASAP or relative dates. If user says ASAP, use the next available slot you suggested."},
	{Name: "isComplete", Boolean: true, Description: "True if all 6 core fields are collected AND user has been shown a summary."},
	{Name: "isConfirmed", Boolean: true, Description: "True ONLY if the user has explicitly said 'Yes', 'Confirm', 'Proceed', or similar AFTER being shown the summary."},
}

const extractionInstruction = "Analyze the conversation history. Verify if the user has provided: Name, Phone, Service, Description, Address, and Date/Time. Confirm if the agent presented a summary and if the user explicitly confirmed it."

var errNoExtraction = errors.New("conversation: extraction response held no JSON object")

// extractionPrompt is the user message sent to the oracle.
func extractionPrompt(t intake.Transcript) string {
	return extractionInstruction + "\n\nCONVERSATION:\n" + t.Render()
}

// schemaDescription spells the schema out for providers without native
// structured output.
func schemaDescription() string {
	var b strings.Builder
	b.WriteString("Respond with a single JSON object and nothing else. Every field is required:\n")
	for _, f := range extractionFields {
		kind := "string"
		if f.Boolean {
			kind = "boolean"
		}
		fmt.Fprintf(&b, "- %s (%s)", f.Name, kind)
		if f.Description != "" {
			b.WriteString(": ")
			b.WriteString(f.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// LLMExtractor runs extraction through any LLMClient and parses the JSON
// object out of the reply.
type LLMExtractor struct {
	llm   LLMClient
	model string
}

func NewLLMExtractor(llm LLMClient, model string) *LLMExtractor {
	if llm == nil {
		panic("conversation: llm client required")
	}
	return &LLMExtractor{llm: llm, model: model}
}

func (e *LLMExtractor) Extract(ctx context.Context, t intake.Transcript) (intake.Extraction, error) {
	resp, err := e.llm.Complete(ctx, LLMRequest{
		Model:       e.model,
		System:      []string{schemaDescription()},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: extractionPrompt(t)}},
		MaxTokens:   512,
		Temperature: 0,
	})
	if err != nil {
		return intake.Extraction{}, fmt.Errorf("conversation: extraction call: %w", err)
	}
	return ParseExtraction(resp.Text)
}

// ParseExtraction decodes an oracle reply, tolerating code fences and prose
// around the JSON object.
func ParseExtraction(raw string) (intake.Extraction, error) {
	text := extractJSONObject(stripCodeFence(raw))
	if !strings.HasPrefix(text, "{") {
		return intake.Extraction{}, errNoExtraction
	}
	var out intake.Extraction
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return intake.Extraction{}, fmt.Errorf("conversation: decode extraction: %w", err)
	}
	return out, nil
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func extractJSONObject(text string) string {
	if strings.HasPrefix(text, "{") {
		return text
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}
