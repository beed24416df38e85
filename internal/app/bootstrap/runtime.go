package bootstrap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/arcticflow-dispatch/internal/config"
	"github.com/wolfman30/arcticflow-dispatch/internal/docstore"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

// Supported document store backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
	BackendS3       = "s3"
)

// ErrUnknownBackend is returned for a STORE_BACKEND value nothing can serve.
var ErrUnknownBackend = errors.New("bootstrap: unknown store backend")

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis not available", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// ConnectPostgresPool opens a pgx pool, or returns nil when the URL is empty
// or the database cannot be reached.
func ConnectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if strings.TrimSpace(databaseURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Error("postgres not reachable", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

// Storage is the document store plus the connections it holds open.
type Storage struct {
	Docs    docstore.Store
	Backend string
	// Redis is set when a verified Redis connection is available, whichever
	// backend holds the documents.
	Redis *redis.Client

	closers []func()
}

// Close releases every connection opened by OpenStorage.
func (s *Storage) Close() {
	if s == nil {
		return
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// OpenStorage selects the document store named by cfg.StoreBackend.
// A Redis connection is attempted regardless so transcripts and call
// records can survive restarts.
func OpenStorage(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	st := &Storage{Backend: cfg.StoreBackend}
	if st.Backend == "" {
		st.Backend = BackendMemory
	}

	verifyRedis := st.Backend != BackendRedis
	if rdb := BuildRedisClient(ctx, cfg, logger, verifyRedis); rdb != nil {
		st.Redis = rdb
		st.closers = append(st.closers, func() { _ = rdb.Close() })
	}

	switch st.Backend {
	case BackendMemory:
		st.Docs = docstore.NewMemoryStore()
	case BackendRedis:
		if st.Redis == nil {
			return nil, fmt.Errorf("bootstrap: redis backend requires REDIS_ADDR")
		}
		st.Docs = docstore.NewRedisStore(st.Redis)
	case BackendPostgres:
		pool := ConnectPostgresPool(ctx, cfg.DatabaseURL, logger)
		if pool == nil {
			st.Close()
			return nil, fmt.Errorf("bootstrap: postgres backend requires a reachable DATABASE_URL")
		}
		st.closers = append(st.closers, pool.Close)
		st.Docs = docstore.NewPostgresStore(pool)
	case BackendSQLite:
		lite, err := docstore.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("bootstrap: open sqlite: %w", err)
		}
		st.closers = append(st.closers, func() { _ = lite.Close() })
		st.Docs = lite
	case BackendDynamoDB:
		st.Docs = docstore.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.DocumentsTable)
	case BackendS3:
		if strings.TrimSpace(cfg.DocumentsBucket) == "" {
			st.Close()
			return nil, fmt.Errorf("bootstrap: s3 backend requires DOCUMENTS_BUCKET")
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.UsePathStyle = cfg.AWSEndpointOverride != ""
		})
		st.Docs = docstore.NewS3Store(client, cfg.DocumentsBucket, "arcticflow/")
	default:
		st.Close()
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.StoreBackend)
	}

	logger.Info("document store ready", "backend", st.Backend, "redis", st.Redis != nil)
	return st, nil
}
