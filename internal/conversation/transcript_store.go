package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/arcticflow-dispatch/internal/intake"
)

const transcriptTTL = 24 * time.Hour

// ErrUnknownConversation is returned for ids with no live or stored transcript.
var ErrUnknownConversation = errors.New("conversation: unknown conversation")

// TranscriptStore keeps conversation transcripts for review after a session ends.
type TranscriptStore interface {
	Save(ctx context.Context, conversationID string, t intake.Transcript) error
	Load(ctx context.Context, conversationID string) (intake.Transcript, error)
}

// RedisTranscriptStore expires transcripts after a day.
type RedisTranscriptStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

func NewRedisTranscriptStore(rdb *redis.Client, tracer trace.Tracer) *RedisTranscriptStore {
	if rdb == nil {
		panic("conversation: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("arcticflow.internal.conversation.transcripts")
	}
	return &RedisTranscriptStore{redis: rdb, tracer: tracer}
}

func (s *RedisTranscriptStore) Save(ctx context.Context, conversationID string, t intake.Transcript) error {
	ctx, span := s.tracer.Start(ctx, "conversation.save_transcript")
	defer span.End()

	data, err := json.Marshal(t)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to marshal transcript: %w", err)
	}
	if err := s.redis.Set(ctx, transcriptKey(conversationID), data, transcriptTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to persist transcript: %w", err)
	}
	return nil
}

func (s *RedisTranscriptStore) Load(ctx context.Context, conversationID string) (intake.Transcript, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.load_transcript")
	defer span.End()

	data, err := s.redis.Get(ctx, transcriptKey(conversationID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownConversation, conversationID)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to load transcript: %w", err)
	}

	var t intake.Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to decode transcript: %w", err)
	}
	return t, nil
}

func transcriptKey(id string) string {
	return fmt.Sprintf("transcript:%s", id)
}

// MemoryTranscriptStore keeps transcripts for the life of the process.
type MemoryTranscriptStore struct {
	mu   sync.RWMutex
	data map[string]intake.Transcript
}

func NewMemoryTranscriptStore() *MemoryTranscriptStore {
	return &MemoryTranscriptStore{data: make(map[string]intake.Transcript)}
}

func (s *MemoryTranscriptStore) Save(_ context.Context, conversationID string, t intake.Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[conversationID] = t.Clone()
	return nil
}

func (s *MemoryTranscriptStore) Load(_ context.Context, conversationID string) (intake.Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.data[conversationID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownConversation, conversationID)
	}
	return t.Clone(), nil
}
