package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/arcticflow-dispatch/internal/intake"
	"github.com/wolfman30/arcticflow-dispatch/internal/observability/metrics"
	"github.com/wolfman30/arcticflow-dispatch/internal/schedule"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

const (
	channelChat  = "chat"
	channelVoice = "voice"
)

var (
	// ErrAssistantOffline is returned when the directive is blank.
	ErrAssistantOffline = errors.New("conversation: assistant is offline")
	// ErrConversationClosed is returned once a session committed or ended.
	ErrConversationClosed = errors.New("conversation: conversation no longer accepts messages")
	ErrEmptyMessage       = errors.New("conversation: message is empty")
)

// SystemPrompter renders the instruction a new session starts with.
type SystemPrompter interface {
	Build(ctx context.Context) (string, error)
}

// Manager owns live chat and voice sessions.
type Manager struct {
	llm         LLMClient
	model       string
	prompter    SystemPrompter
	extractor   intake.Extractor
	committer   intake.Committer
	transcripts TranscriptStore
	clock       schedule.Clock
	metrics     *metrics.DispatchMetrics
	logger      *logging.Logger
	newID       func() string
	voice       intake.WatchOptions

	mu    sync.Mutex
	chats map[string]*chat
}

// Option customizes a Manager.
type Option func(*Manager)

func WithChatModel(model string) Option {
	return func(m *Manager) { m.model = model }
}

func WithTranscriptStore(s TranscriptStore) Option {
	return func(m *Manager) {
		if s != nil {
			m.transcripts = s
		}
	}
}

func WithClock(c schedule.Clock) Option {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

func WithMetrics(dm *metrics.DispatchMetrics) Option {
	return func(m *Manager) { m.metrics = dm }
}

func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// WithVoiceCheckpoints sets how often a voice call is checkpointed and the
// transcript length below which checkpoints are skipped.
func WithVoiceCheckpoints(interval time.Duration, minTurns int) Option {
	return func(m *Manager) {
		m.voice.Interval = interval
		m.voice.MinTurns = minTurns
	}
}

func NewManager(llm LLMClient, prompter SystemPrompter, extractor intake.Extractor, committer intake.Committer, logger *logging.Logger, opts ...Option) *Manager {
	if llm == nil || prompter == nil || extractor == nil || committer == nil {
		panic("conversation: llm, prompter, extractor and committer required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	m := &Manager{
		llm:         llm,
		prompter:    prompter,
		extractor:   extractor,
		committer:   committer,
		transcripts: NewMemoryTranscriptStore(),
		clock:       schedule.NewSystemClock(schedule.DefaultTimezone),
		logger:      logger,
		newID:       uuid.NewString,
		voice:       intake.WatchOptions{Interval: 12 * time.Second, MinTurns: 5},
		chats:       make(map[string]*chat),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

func (m *Manager) newSession(id, channel string) *intake.Session {
	return intake.NewSession(id, channel, m.extractor, m.committer, m.logger, intake.WithMetrics(m.metrics))
}

func (m *Manager) turn(role intake.Speaker, text string) intake.Turn {
	return intake.Turn{Role: role, Text: text, At: m.clock.Now()}
}

// Transcript returns a live conversation's transcript, or the stored copy
// of one that ended.
func (m *Manager) Transcript(ctx context.Context, id string) (intake.Transcript, error) {
	m.mu.Lock()
	c, ok := m.chats[id]
	m.mu.Unlock()
	if ok {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.transcript.Clone(), nil
	}
	return m.transcripts.Load(ctx, id)
}

func (m *Manager) saveTranscript(ctx context.Context, id string, t intake.Transcript) {
	if err := m.transcripts.Save(ctx, id, t); err != nil {
		m.logger.Warn("failed to save transcript", "conversation_id", id, "error", err)
	}
}
