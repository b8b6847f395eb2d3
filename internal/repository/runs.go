package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/youngcitybandit/nj-health-monitor/constants"
	"github.com/youngcitybandit/nj-health-monitor/internal/common"
	"github.com/youngcitybandit/nj-health-monitor/internal/entity"
)

// RunSchema creates the check_runs table. Applied by Init.
const RunSchema = `
CREATE TABLE IF NOT EXISTS check_runs (
	id UUID PRIMARY KEY,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	status TEXT NOT NULL,
	entries_found INT NOT NULL DEFAULT 0,
	processed INT NOT NULL DEFAULT 0,
	failed INT NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_check_runs_started ON check_runs(started_at DESC);
`

// RunStore records check-run lifecycle rows.
type RunStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewRunStore(pool *pgxpool.Pool, logger *slog.Logger) *RunStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunStore{pool: pool, logger: logger}
}

func (s *RunStore) Init(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, RunSchema); err != nil {
		return common.NewAppError("DB_INIT", "applying check_runs schema", err)
	}
	return nil
}

// Start inserts a new RUNNING row and returns it.
func (s *RunStore) Start(ctx context.Context) (entity.CheckRun, error) {
	run := entity.CheckRun{
		ID:        uuid.New(),
		StartedAt: time.Now().UTC(),
		Status:    constants.RunStatusRunning,
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO check_runs (id, started_at, status) VALUES ($1, $2, $3)`,
		run.ID, run.StartedAt, run.Status)
	if err != nil {
		return entity.CheckRun{}, common.NewAppError("DB_WRITE", "starting check run", err)
	}
	return run, nil
}

// Finish closes a run with its final status and counters.
func (s *RunStore) Finish(ctx context.Context, run entity.CheckRun) error {
	now := time.Now().UTC()
	run.FinishedAt = &now
	_, err := s.pool.Exec(ctx, `
		UPDATE check_runs SET
			finished_at = $2, status = $3, entries_found = $4,
			processed = $5, failed = $6, error_message = $7
		WHERE id = $1`,
		run.ID, run.FinishedAt, run.Status, run.EntriesFound,
		run.Processed, run.Failed, run.ErrorMessage)
	if err != nil {
		return common.NewAppError("DB_WRITE", "finishing check run", err)
	}
	return nil
}

// ListRecent returns the most recent runs, newest first.
func (s *RunStore) ListRecent(ctx context.Context, limit int) ([]entity.CheckRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, started_at, finished_at, status, entries_found, processed, failed, error_message
		FROM check_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, common.NewAppError("DB_READ", "listing check runs", err)
	}
	defer rows.Close()

	var runs []entity.CheckRun
	for rows.Next() {
		var run entity.CheckRun
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Status,
			&run.EntriesFound, &run.Processed, &run.Failed, &run.ErrorMessage); err != nil {
			return nil, common.NewAppError("DB_READ", "scanning check run", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewAppError("DB_READ", "iterating check runs", err)
	}
	return runs, nil
}
