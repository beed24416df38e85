package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const redisKeyPrefix = "arcticflow:doc:"

// RedisStore keeps documents as plain string values without expiry.
type RedisStore struct {
	rdb    *redis.Client
	tracer trace.Tracer
}

// NewRedisStore wraps an existing client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	if rdb == nil {
		panic("docstore: redis client cannot be nil")
	}
	return &RedisStore{rdb: rdb, tracer: otel.Tracer("arcticflow.internal.docstore")}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "docstore.redis.get")
	defer span.End()
	span.SetAttributes(attribute.String("docstore.key", key))

	data, err := s.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("docstore: redis get %s: %w", key, err)
	}
	return data, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, data []byte) error {
	ctx, span := s.tracer.Start(ctx, "docstore.redis.put")
	defer span.End()
	span.SetAttributes(attribute.String("docstore.key", key))

	if err := s.rdb.Set(ctx, redisKeyPrefix+key, data, 0).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("docstore: redis put %s: %w", key, err)
	}
	return nil
}
