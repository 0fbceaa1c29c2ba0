package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDateNotBlocked is returned when removing a date that is not on the
// blocked list.
var ErrDateNotBlocked = errors.New("schedule: date not blocked")

// BlockedDate is a calendar date the clinic excluded from booking.
type BlockedDate struct {
	ID        uuid.UUID `json:"id"`
	Date      string    `json:"date"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists blocked dates.
type Store struct {
	db querier
}

// NewStore creates a store backed by a pgx pool.
func NewStore(pool *pgxpool.Pool) *Store {
	if pool == nil {
		panic("schedule: pgx pool required")
	}
	return &Store{db: pool}
}

// NewStoreWithDB allows injecting a mock database for testing.
func NewStoreWithDB(db querier) *Store {
	return &Store{db: db}
}

// IsBlocked reports whether the date is on the blocked list. Read errors
// propagate; the availability check fails closed on them.
func (s *Store) IsBlocked(ctx context.Context, date string) (bool, error) {
	query := `SELECT 1 FROM blocked_dates WHERE date = $1 LIMIT 1`
	var exists int
	if err := s.db.QueryRow(ctx, query, date).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("schedule: check blocked date: %w", err)
	}
	return true, nil
}

// List returns all blocked dates ordered by date.
func (s *Store) List(ctx context.Context) ([]BlockedDate, error) {
	query := `SELECT id, date::text, COALESCE(reason, ''), created_at FROM blocked_dates ORDER BY date`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("schedule: list blocked dates: %w", err)
	}
	defer rows.Close()

	var out []BlockedDate
	for rows.Next() {
		var bd BlockedDate
		if err := rows.Scan(&bd.ID, &bd.Date, &bd.Reason, &bd.CreatedAt); err != nil {
			return nil, fmt.Errorf("schedule: scan blocked date: %w", err)
		}
		out = append(out, bd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schedule: list blocked dates: %w", err)
	}
	return out, nil
}

// Add blocks a date. Blocking an already-blocked date is a no-op.
func (s *Store) Add(ctx context.Context, date, reason string) error {
	query := `
		INSERT INTO blocked_dates (id, date, reason)
		VALUES ($1, $2, NULLIF($3, ''))
		ON CONFLICT (date) DO NOTHING
	`
	if _, err := s.db.Exec(ctx, query, uuid.New(), date, reason); err != nil {
		return fmt.Errorf("schedule: block date: %w", err)
	}
	return nil
}

// Remove unblocks a date.
func (s *Store) Remove(ctx context.Context, date string) error {
	ct, err := s.db.Exec(ctx, `DELETE FROM blocked_dates WHERE date = $1`, date)
	if err != nil {
		return fmt.Errorf("schedule: unblock date: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrDateNotBlocked
	}
	return nil
}
