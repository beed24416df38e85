package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/wolfman30/arcticflow-dispatch/internal/intake"
)

const (
	introRequest   = "Introduce yourself and offer to help with an HVAC service booking."
	offlineReply   = "System intelligence is currently offline."
	gatewayReply   = "Gateway Error: Unable to establish AI connection."
	apologyReply   = "An unexpected error occurred. Please repeat your last request."
	committedReply = "Dispatch Initialized. Your request has been permanently recorded and assigned to a technician."
)

var errEmptyCompletion = errors.New("conversation: empty completion")

// ChatReply is what the customer sees after a chat call.
type ChatReply struct {
	ConversationID string   `json:"conversationId"`
	Messages       []string `json:"messages"`
	Offline        bool     `json:"offline,omitempty"`
	Committed      bool     `json:"committed,omitempty"`
	BookingID      string   `json:"bookingId,omitempty"`
}

type chat struct {
	mu         sync.Mutex
	system     string
	offline    bool
	history    []ChatMessage
	transcript intake.Transcript
	session    *intake.Session
}

// StartChat opens a chat session and returns the assistant's greeting. A
// blank directive opens the session offline.
func (m *Manager) StartChat(ctx context.Context) (ChatReply, error) {
	system, err := m.prompter.Build(ctx)
	if err != nil {
		return ChatReply{}, fmt.Errorf("conversation: start chat: %w", err)
	}
	id := m.newID()
	c := &chat{system: system, session: m.newSession(id, channelChat)}
	m.mu.Lock()
	m.chats[id] = c
	m.mu.Unlock()

	reply := ChatReply{ConversationID: id}
	if strings.TrimSpace(system) == "" {
		c.offline = true
		reply.Offline = true
		reply.Messages = []string{offlineReply}
		return reply, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	intro := []ChatMessage{{Role: ChatRoleUser, Content: introRequest}}
	resp, err := m.complete(ctx, c.system, intro)
	if err != nil {
		m.logger.Error("chat greeting failed", "conversation_id", id, "error", err)
		reply.Messages = []string{gatewayReply}
		return reply, nil
	}
	c.history = append(intro, ChatMessage{Role: ChatRoleAssistant, Content: resp.Text})
	c.transcript = append(c.transcript, m.turn(intake.SpeakerAssistant, resp.Text))
	reply.Messages = []string{resp.Text}
	return reply, nil
}

// Send relays a customer message, then checkpoints the transcript. A
// provider failure yields the apology reply and leaves the session open.
func (m *Manager) Send(ctx context.Context, id, text string) (ChatReply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ChatReply{}, ErrEmptyMessage
	}
	m.mu.Lock()
	c, ok := m.chats[id]
	m.mu.Unlock()
	if !ok {
		return ChatReply{}, fmt.Errorf("%w: %s", ErrUnknownConversation, id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.offline {
		return ChatReply{}, ErrAssistantOffline
	}
	if c.session.State() != intake.StateGathering {
		return ChatReply{}, ErrConversationClosed
	}

	reply := ChatReply{ConversationID: id}
	c.transcript = append(c.transcript, m.turn(intake.SpeakerUser, text))
	messages := append(append([]ChatMessage(nil), c.history...), ChatMessage{Role: ChatRoleUser, Content: text})
	resp, err := m.complete(ctx, c.system, messages)
	if err != nil {
		m.logger.Warn("chat reply failed", "conversation_id", id, "error", err)
		c.transcript = append(c.transcript, m.turn(intake.SpeakerAssistant, apologyReply))
		m.saveTranscript(ctx, id, c.transcript)
		reply.Messages = []string{apologyReply}
		return reply, nil
	}
	c.history = append(messages, ChatMessage{Role: ChatRoleAssistant, Content: resp.Text})
	c.transcript = append(c.transcript, m.turn(intake.SpeakerAssistant, resp.Text))
	m.saveTranscript(ctx, id, c.transcript)
	reply.Messages = []string{resp.Text}

	outcome, err := c.session.Checkpoint(ctx, c.transcript)
	if err != nil {
		// The session stays committed and is not retried.
		c.transcript = append(c.transcript, m.turn(intake.SpeakerAssistant, apologyReply))
		m.saveTranscript(ctx, id, c.transcript)
		reply.Messages = append(reply.Messages, apologyReply)
		return reply, nil
	}
	if outcome == intake.OutcomeCommitted {
		reply.Committed = true
		if b := c.session.Booking(); b != nil {
			reply.BookingID = b.ID
		}
		reply.Messages = append(reply.Messages, committedReply)
	}
	return reply, nil
}

// EndChat closes the session and keeps its transcript in the store.
func (m *Manager) EndChat(ctx context.Context, id string) error {
	m.mu.Lock()
	c, ok := m.chats[id]
	delete(m.chats, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConversation, id)
	}
	c.session.Close()
	c.mu.Lock()
	defer c.mu.Unlock()
	m.saveTranscript(ctx, id, c.transcript)
	return nil
}

func (m *Manager) complete(ctx context.Context, system string, messages []ChatMessage) (LLMResponse, error) {
	resp, err := m.llm.Complete(ctx, LLMRequest{
		Model:       m.model,
		System:      []string{system},
		Messages:    messages,
		MaxTokens:   1024,
		Temperature: 0.7,
	})
	if err != nil {
		return LLMResponse{}, err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return LLMResponse{}, errEmptyCompletion
	}
	return resp, nil
}
