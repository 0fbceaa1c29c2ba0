package admin

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cliniqueselma/booking-server/pkg/logging"
)

// Stats aggregates appointment counts for the reception dashboard.
type Stats struct {
	Total              int64 `json:"total"`
	Pending            int64 `json:"pending"`
	Confirmed          int64 `json:"confirmed"`
	Cancelled          int64 `json:"cancelled"`
	Today              int64 `json:"today"`
	Upcoming           int64 `json:"upcoming"`
	EmergenciesPending int64 `json:"emergenciesPending"`
}

type statsDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StatsRepository queries appointment metrics from the database.
type StatsRepository struct {
	db statsDB
}

// NewStatsRepository creates a new stats repository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	if pool == nil {
		panic("admin: pgx pool required for stats")
	}
	return &StatsRepository{db: pool}
}

// NewStatsRepositoryWithDB allows injecting a mock database for testing.
func NewStatsRepositoryWithDB(db statsDB) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetStats retrieves aggregated appointment metrics.
func (r *StatsRepository) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	countsQuery := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'confirmed'),
		       COUNT(*) FILTER (WHERE status = 'cancelled')
		FROM appointments`
	if err := r.db.QueryRow(ctx, countsQuery).Scan(
		&stats.Total, &stats.Pending, &stats.Confirmed, &stats.Cancelled,
	); err != nil {
		return nil, fmt.Errorf("admin stats: count by status: %w", err)
	}

	todayQuery := `SELECT COUNT(*) FROM appointments WHERE appointment_date = CURRENT_DATE AND status <> 'cancelled'`
	if err := r.db.QueryRow(ctx, todayQuery).Scan(&stats.Today); err != nil {
		return nil, fmt.Errorf("admin stats: count today: %w", err)
	}

	upcomingQuery := `SELECT COUNT(*) FROM appointments WHERE appointment_date > CURRENT_DATE AND status <> 'cancelled'`
	if err := r.db.QueryRow(ctx, upcomingQuery).Scan(&stats.Upcoming); err != nil {
		return nil, fmt.Errorf("admin stats: count upcoming: %w", err)
	}

	emergencyQuery := `SELECT COUNT(*) FROM appointments WHERE is_emergency AND status = 'pending'`
	if err := r.db.QueryRow(ctx, emergencyQuery).Scan(&stats.EmergenciesPending); err != nil {
		return nil, fmt.Errorf("admin stats: count emergencies: %w", err)
	}

	return stats, nil
}

// StatsHandler provides the HTTP endpoint for appointment statistics.
type StatsHandler struct {
	repo   *StatsRepository
	logger *logging.Logger
}

// NewStatsHandler creates a stats handler.
func NewStatsHandler(repo *StatsRepository, logger *logging.Logger) *StatsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &StatsHandler{repo: repo, logger: logger}
}

// Get returns aggregated appointment metrics.
// GET /admin/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.GetStats(r.Context())
	if err != nil {
		h.logger.Error("failed to load appointment stats", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
