package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/arcticflow-dispatch/internal/bookings"
	"github.com/wolfman30/arcticflow-dispatch/internal/conversation"
	"github.com/wolfman30/arcticflow-dispatch/internal/intake"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

// ChatHandler serves the customer-facing AI intake channels and the admin
// view of the master prompt.
type ChatHandler struct {
	manager    *conversation.Manager
	directives *conversation.DirectiveStore
	logger     *logging.Logger
}

func NewChatHandler(manager *conversation.Manager, directives *conversation.DirectiveStore, logger *logging.Logger) *ChatHandler {
	if manager == nil || directives == nil {
		panic("handlers: conversation manager and directive store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatHandler{manager: manager, directives: directives, logger: logger}
}

// Start handles POST /chat/sessions.
func (h *ChatHandler) Start(w http.ResponseWriter, r *http.Request) {
	reply, err := h.manager.StartChat(r.Context())
	if err != nil {
		writeError(w, h.logger, "start_chat", err)
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}

type chatMessageRequest struct {
	Text string `json:"text"`
}

// Message handles POST /chat/sessions/{id}/messages.
func (h *ChatHandler) Message(w http.ResponseWriter, r *http.Request) {
	var req chatMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	reply, err := h.manager.Send(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		writeError(w, h.logger, "chat_message", err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// End handles DELETE /chat/sessions/{id}.
func (h *ChatHandler) End(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.EndChat(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, "end_chat", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type transcriptResponse struct {
	ConversationID string            `json:"conversationId"`
	Turns          intake.Transcript `json:"turns"`
}

// Transcript handles GET /admin/conversations/{id}.
func (h *ChatHandler) Transcript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, err := h.manager.Transcript(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, "transcript", err)
		return
	}
	writeJSON(w, http.StatusOK, transcriptResponse{ConversationID: id, Turns: t})
}

type directiveBody struct {
	Template string `json:"template"`
}

// GetDirective handles GET /admin/directive.
func (h *ChatHandler) GetDirective(w http.ResponseWriter, r *http.Request) {
	template, err := h.directives.Get(r.Context())
	if err != nil {
		writeError(w, h.logger, "get_directive", err)
		return
	}
	writeJSON(w, http.StatusOK, directiveBody{Template: template})
}

// PutDirective handles PUT /admin/directive. Saving a blank template takes
// the assistant offline.
func (h *ChatHandler) PutDirective(w http.ResponseWriter, r *http.Request) {
	var body directiveBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.directives.Put(r.Context(), body.Template); err != nil {
		writeError(w, h.logger, "put_directive", err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// VoiceFrame is one transcription fragment from the speech transport.
type VoiceFrame struct {
	Role         string `json:"role"`
	Text         string `json:"text"`
	TurnComplete bool   `json:"turnComplete"`
}

// VoiceEvent is sent back to the speech transport.
type VoiceEvent struct {
	Type           string            `json:"type"`
	ConversationID string            `json:"conversationId,omitempty"`
	Directive      string            `json:"directive,omitempty"`
	Booking        *bookings.Booking `json:"booking,omitempty"`
	Text           string            `json:"text,omitempty"`
}

const (
	voiceCloseTimeout     = 10 * time.Second
	voiceCommitFailedText = "booking could not be recorded"
)

// Voice handles GET /voice/ws. The transport receives the rendered
// directive first, then streams transcription frames; a "committed" event
// follows once the booking is recorded, or an "error" event if recording
// it failed.
func (h *ChatHandler) Voice(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveVoice(conn, r)
	}).ServeHTTP(w, r)
}

func (h *ChatHandler) serveVoice(conn *websocket.Conn, r *http.Request) {
	ctx := r.Context()
	var sendMu sync.Mutex
	send := func(evt VoiceEvent) {
		sendMu.Lock()
		defer sendMu.Unlock()
		if err := websocket.JSON.Send(conn, evt); err != nil {
			h.logger.Debug("voice send failed", "type", evt.Type, "error", err)
		}
	}

	call, err := h.manager.OpenVoice(ctx, conversation.VoiceHooks{
		OnCommit: func(b *bookings.Booking) {
			send(VoiceEvent{Type: "committed", Booking: b})
		},
		OnCommitFailed: func(error) {
			send(VoiceEvent{Type: "error", Text: voiceCommitFailedText})
		},
	})
	if err != nil {
		if !errors.Is(err, conversation.ErrAssistantOffline) {
			h.logger.Error("voice open failed", "error", err)
		}
		send(VoiceEvent{Type: "error", Text: err.Error()})
		return
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), voiceCloseTimeout)
		defer cancel()
		call.Close(closeCtx)
	}()

	send(VoiceEvent{Type: "session", ConversationID: call.ID(), Directive: call.Directive()})

	for {
		var frame VoiceFrame
		if err := websocket.JSON.Receive(conn, &frame); err != nil {
			if !errors.Is(err, io.EOF) {
				h.logger.Debug("voice receive ended", "conversation_id", call.ID(), "error", err)
			}
			return
		}
		role := intake.SpeakerUser
		if strings.EqualFold(frame.Role, string(intake.SpeakerAssistant)) || strings.EqualFold(frame.Role, "model") {
			role = intake.SpeakerAssistant
		}
		if err := call.Hear(ctx, role, frame.Text, frame.TurnComplete); err != nil {
			send(VoiceEvent{Type: "error", Text: err.Error()})
			return
		}
	}
}
