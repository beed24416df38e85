// Package conversation runs the AI booking assistant: chat and voice
// sessions against an LLM provider, the system directive they follow, and
// the extraction oracle that reads booking fields out of a transcript.
package conversation

import (
	"context"

	"github.com/wolfman30/arcticflow-dispatch/internal/intake"
)

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one provider-neutral turn. System text travels in
// LLMRequest.System, never as a message.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MessagesFromTranscript maps intake turns onto chat roles.
func MessagesFromTranscript(t intake.Transcript) []ChatMessage {
	out := make([]ChatMessage, 0, len(t))
	for _, turn := range t {
		role := ChatRoleUser
		if turn.Role == intake.SpeakerAssistant {
			role = ChatRoleAssistant
		}
		out = append(out, ChatMessage{Role: role, Content: turn.Text})
	}
	return out
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// LLMRequest leaves Model empty to use the provider default.
type LLMRequest struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

type LLMResponse struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// LLMClient is a chat-completion provider.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}
