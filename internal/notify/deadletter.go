package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DeadLetterStore records email jobs whose delivery attempts were
// exhausted, so operators can discover and replay them.
type DeadLetterStore struct {
	db execer
}

// NewDeadLetterStore creates a store backed by a pgx pool.
func NewDeadLetterStore(pool *pgxpool.Pool) *DeadLetterStore {
	if pool == nil {
		panic("notify: pgx pool required")
	}
	return &DeadLetterStore{db: pool}
}

// NewDeadLetterStoreWithDB allows injecting a mock database for testing.
func NewDeadLetterStoreWithDB(db execer) *DeadLetterStore {
	return &DeadLetterStore{db: db}
}

// Record persists an exhausted email job with its last error.
func (s *DeadLetterStore) Record(ctx context.Context, job EmailJob, lastError string) error {
	query := `
		INSERT INTO notification_dead_letters (id, recipient, subject, body, attempts, last_error)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.db.Exec(ctx, query, uuid.New(), job.To, job.Subject, job.Body, job.Attempts, lastError); err != nil {
		return fmt.Errorf("notify: record dead letter: %w", err)
	}
	return nil
}
