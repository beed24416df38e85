package outbound

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	callKeyPrefix = "outbound:call:"
	callIndexKey  = "outbound:calls"
	callTTL       = 24 * time.Hour
	recentCalls   = 100
)

// CallStore keeps recent outbound call records.
type CallStore interface {
	Save(ctx context.Context, rec CallRecord) error
	Get(ctx context.Context, id string) (CallRecord, error)
	// Recent returns the newest records first.
	Recent(ctx context.Context, limit int) ([]CallRecord, error)
}

// RedisCallStore keeps call records for a day.
type RedisCallStore struct {
	rdb *redis.Client
}

func NewRedisCallStore(rdb *redis.Client) *RedisCallStore {
	if rdb == nil {
		panic("outbound: redis client cannot be nil")
	}
	return &RedisCallStore{rdb: rdb}
}

func callKey(id string) string {
	return callKeyPrefix + id
}

func (s *RedisCallStore) Save(ctx context.Context, rec CallRecord) error {
	if rec.ID == "" {
		return errors.New("outbound call record: id required")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("outbound call record: marshal: %w", err)
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, callKey(rec.ID), data, callTTL)
	pipe.LRem(ctx, callIndexKey, 0, rec.ID)
	pipe.LPush(ctx, callIndexKey, rec.ID)
	pipe.LTrim(ctx, callIndexKey, 0, recentCalls-1)
	pipe.Expire(ctx, callIndexKey, callTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("outbound call record: save: %w", err)
	}
	return nil
}

func (s *RedisCallStore) Get(ctx context.Context, id string) (CallRecord, error) {
	data, err := s.rdb.Get(ctx, callKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return CallRecord{}, ErrCallNotFound
		}
		return CallRecord{}, fmt.Errorf("outbound call record: get: %w", err)
	}
	var rec CallRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return CallRecord{}, fmt.Errorf("outbound call record: unmarshal: %w", err)
	}
	return rec, nil
}

func (s *RedisCallStore) Recent(ctx context.Context, limit int) ([]CallRecord, error) {
	if limit <= 0 || limit > recentCalls {
		limit = recentCalls
	}
	ids, err := s.rdb.LRange(ctx, callIndexKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("outbound call record: list: %w", err)
	}
	out := make([]CallRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if errors.Is(err, ErrCallNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// MemoryCallStore is the in-process CallStore.
type MemoryCallStore struct {
	mu      sync.Mutex
	records map[string]CallRecord
	order   []string
}

func NewMemoryCallStore() *MemoryCallStore {
	return &MemoryCallStore{records: make(map[string]CallRecord)}
}

func (s *MemoryCallStore) Save(_ context.Context, rec CallRecord) error {
	if rec.ID == "" {
		return errors.New("outbound call record: id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range s.order {
		if id == rec.ID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.order = append(s.order, rec.ID)
	s.records[rec.ID] = rec
	return nil
}

func (s *MemoryCallStore) Get(_ context.Context, id string) (CallRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return CallRecord{}, ErrCallNotFound
	}
	return rec, nil
}

func (s *MemoryCallStore) Recent(_ context.Context, limit int) ([]CallRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > recentCalls {
		limit = recentCalls
	}
	out := make([]CallRecord, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.records[s.order[i]])
	}
	return out, nil
}
