package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/wolfman30/arcticflow-dispatch/internal/bookings"
	"github.com/wolfman30/arcticflow-dispatch/internal/intake"
)

// VoiceCall is a live voice conversation. The speech transport feeds it
// transcription fragments; a watcher goroutine checkpoints the transcript
// on every completed turn and on a timer.
type VoiceCall struct {
	id        string
	directive string
	session   *intake.Session
	manager   *Manager

	mu         sync.Mutex
	closed     bool
	transcript intake.Transcript
	updates    chan intake.Update
	done       chan struct{}
}

// VoiceHooks observe the end of a voice call's booking flow. Each hook
// runs at most once, on the watcher goroutine.
type VoiceHooks struct {
	// OnCommit runs after the call's booking is recorded.
	OnCommit func(*bookings.Booking)
	// OnCommitFailed runs when the confirmed booking could not be recorded.
	// The call is not checkpointed again.
	OnCommitFailed func(error)
}

// OpenVoice starts a voice call.
func (m *Manager) OpenVoice(ctx context.Context, hooks VoiceHooks) (*VoiceCall, error) {
	system, err := m.prompter.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("conversation: open voice: %w", err)
	}
	if strings.TrimSpace(system) == "" {
		return nil, ErrAssistantOffline
	}
	id := m.newID()
	call := &VoiceCall{
		id:        id,
		directive: system,
		session:   m.newSession(id, channelVoice),
		manager:   m,
		updates:   make(chan intake.Update),
		done:      make(chan struct{}),
	}

	opts := m.voice
	opts.OnOutcome = func(outcome intake.Outcome, err error) {
		switch outcome {
		case intake.OutcomeCommitted:
			if hooks.OnCommit != nil {
				hooks.OnCommit(call.session.Booking())
			}
		case intake.OutcomeCommitFailed:
			if hooks.OnCommitFailed != nil {
				hooks.OnCommitFailed(err)
			}
		}
	}
	go func() {
		defer close(call.done)
		intake.Watch(ctx, call.session, call.updates, opts)
	}()
	m.logger.Info("voice call opened", "conversation_id", id)
	return call, nil
}

func (c *VoiceCall) ID() string { return c.id }

// Directive is the system instruction for the speech model.
func (c *VoiceCall) Directive() string { return c.directive }

// Done is closed once the call stops checkpointing.
func (c *VoiceCall) Done() <-chan struct{} { return c.done }

// Booking returns the booking this call created, if any.
func (c *VoiceCall) Booking() *bookings.Booking { return c.session.Booking() }

// Hear appends a transcription fragment. An empty fragment with
// turnComplete set only signals the end of a turn.
func (c *VoiceCall) Hear(ctx context.Context, role intake.Speaker, text string, turnComplete bool) error {
	text = strings.TrimSpace(text)
	if text == "" && !turnComplete {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConversationClosed
	}
	if text != "" {
		c.transcript = append(c.transcript, c.manager.turn(role, text))
	}
	select {
	case c.updates <- intake.Update{Transcript: c.transcript.Clone(), TurnComplete: turnComplete}:
	case <-c.done:
		// Watcher finished (committed); the fragment is still kept.
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Transcript returns a copy of the call transcript.
func (c *VoiceCall) Transcript() intake.Transcript {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.Clone()
}

// Close ends the call, waits for the watcher and stores the transcript.
// A checkpoint already in flight is allowed to finish.
func (c *VoiceCall) Close(ctx context.Context) {
	c.session.Close()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.updates)
	transcript := c.transcript.Clone()
	c.mu.Unlock()

	<-c.done
	c.manager.saveTranscript(ctx, c.id, transcript)
	c.manager.logger.Info("voice call closed",
		"conversation_id", c.id,
		"turns", len(transcript),
		"state", string(c.session.State()),
	)
}
