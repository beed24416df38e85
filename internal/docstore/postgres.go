package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps documents in the documents table created by migrations.
type PostgresStore struct {
	pool rowQuerier
}

// NewPostgresStore creates a store backed by a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("docstore: pgx pool required")
	}
	return &PostgresStore{pool: pool}
}

func newPostgresStoreWithExec(exec rowQuerier) *PostgresStore {
	if exec == nil {
		panic("docstore: exec required")
	}
	return &PostgresStore{pool: exec}
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, `SELECT body FROM documents WHERE doc_key = $1`, key).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("docstore: postgres get %s: %w", key, err)
	}
	return body, nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, data []byte) error {
	query := `
		INSERT INTO documents (doc_key, body, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (doc_key) DO UPDATE SET body = EXCLUDED.body, updated_at = now()
	`
	if _, err := s.pool.Exec(ctx, query, key, data); err != nil {
		return fmt.Errorf("docstore: postgres put %s: %w", key, err)
	}
	return nil
}
