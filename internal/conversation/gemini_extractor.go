package conversation

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"

	"github.com/wolfman30/arcticflow-dispatch/internal/intake"
)

// GeminiExtractor uses Gemini structured output: JSON MIME type plus a
// response schema, so the reply needs no cleanup beyond decoding.
type GeminiExtractor struct {
	client  *genai.Client
	modelID string
}

// NewGeminiExtractor shares the chat client's connection.
func NewGeminiExtractor(llm *GeminiLLMClient, modelID string) *GeminiExtractor {
	if llm == nil || llm.client == nil {
		panic("conversation: gemini client required")
	}
	if modelID == "" {
		modelID = llm.modelID
	}
	return &GeminiExtractor{client: llm.client, modelID: modelID}
}

func (e *GeminiExtractor) Extract(ctx context.Context, t intake.Transcript) (intake.Extraction, error) {
	model := e.client.GenerativeModel(e.modelID)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = extractionSchema()

	resp, err := model.GenerateContent(ctx, genai.Text(extractionPrompt(t)))
	if err != nil {
		return intake.Extraction{}, fmt.Errorf("conversation: gemini extraction: %w", err)
	}
	text, _, err := geminiResponseText(resp)
	if err != nil {
		return intake.Extraction{}, err
	}
	return ParseExtraction(text)
}

func extractionSchema() *genai.Schema {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(extractionFields)),
	}
	for _, f := range extractionFields {
		prop := &genai.Schema{Type: genai.TypeString, Description: f.Description}
		if f.Boolean {
			prop.Type = genai.TypeBoolean
		}
		schema.Properties[f.Name] = prop
		schema.Required = append(schema.Required, f.Name)
	}
	return schema
}
