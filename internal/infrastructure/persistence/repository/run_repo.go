package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/invoicedesk/internal/application/port"
	"github.com/garyjia/invoicedesk/internal/domain/entity"
	"github.com/garyjia/invoicedesk/internal/infrastructure/persistence/sqlite"
)

// DefaultRetention is the number of runs kept when none is configured
const DefaultRetention = 500

// RunRepository implements port.RunRepository
type RunRepository struct {
	db        *sqlite.DB
	retention int
	logger    *zap.Logger
}

// NewRunRepository creates a run repository that keeps at most retention
// rows; retention <= 0 means DefaultRetention.
func NewRunRepository(db *sqlite.DB, retention int, logger *zap.Logger) *RunRepository {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &RunRepository{db: db, retention: retention, logger: logger}
}

// Create stores the run and trims history beyond the retention limit
func (r *RunRepository) Create(ctx context.Context, run *entity.Run) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context) error {
		exec := r.db.Executor(ctx)

		result, err := exec.ExecContext(ctx, `
			INSERT INTO automation_runs (action, source, status, message, started_at, finished_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			string(run.Action),
			string(run.Source),
			string(run.Status),
			run.Message,
			run.StartedAt.UTC(),
			run.FinishedAt.UTC(),
		)
		if err != nil {
			r.logger.Error("Failed to create run record", zap.String("action", run.Action.String()), zap.Error(err))
			return fmt.Errorf("failed to create run: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}

		if _, err := exec.ExecContext(ctx, `
			DELETE FROM automation_runs
			WHERE id NOT IN (SELECT id FROM automation_runs ORDER BY id DESC LIMIT ?)
		`, r.retention); err != nil {
			return fmt.Errorf("failed to trim run history: %w", err)
		}

		run.ID = id
		return nil
	})
}

// ListRecent returns the newest runs first
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]*entity.Run, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `
		SELECT id, action, source, status, message, started_at, finished_at
		FROM automation_runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		r.logger.Error("Failed to list runs", zap.Error(err))
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []*entity.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LastByAction returns the latest run of an action, or nil when it never ran
func (r *RunRepository) LastByAction(ctx context.Context, action entity.Action) (*entity.Run, error) {
	row := r.db.Executor(ctx).QueryRowContext(ctx, `
		SELECT id, action, source, status, message, started_at, finished_at
		FROM automation_runs
		WHERE action = ?
		ORDER BY id DESC
		LIMIT 1
	`, string(action))

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*entity.Run, error) {
	var run entity.Run
	var action, source, status string
	err := s.Scan(
		&run.ID,
		&action,
		&source,
		&status,
		&run.Message,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.Action = entity.Action(action)
	run.Source = entity.RunSource(source)
	run.Status = entity.RunStatus(status)
	return &run, nil
}

var _ port.RunRepository = (*RunRepository)(nil)
