package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/david/scholarhub/internal/models"
)

const (
	RunRunning = "running"
	RunSuccess = "success"
	RunPartial = "partial"
	RunFailed  = "failed"
)

func (s *Store) StartImportRun(ctx context.Context, sourceID string) (uuid.UUID, error) {
	var runID uuid.UUID
	err := s.db.QueryRow(ctx,
		"INSERT INTO import_runs (source_id, status) VALUES ($1, $2) RETURNING run_id",
		sourceID, RunRunning,
	).Scan(&runID)
	if err != nil {
		return uuid.Nil, wrap("start import run", err)
	}
	return runID, nil
}

func (s *Store) FinishImportRun(ctx context.Context, runID uuid.UUID, status string, found, saved, errs int) error {
	_, err := s.db.Exec(ctx, `
		UPDATE import_runs
		SET status = $2, items_found = $3, items_saved = $4, errors = $5, completed_at = NOW()
		WHERE run_id = $1`,
		runID, status, found, saved, errs,
	)
	return wrap("finish import run", err)
}

func (s *Store) RecentImportRuns(ctx context.Context, limit int) ([]models.ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(ctx, `
		SELECT run_id, source_id, status, items_found, items_saved, errors, started_at, completed_at
		FROM import_runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, wrap("recent import runs", err)
	}
	defer rows.Close()

	runs := []models.ImportRun{}
	for rows.Next() {
		var r models.ImportRun
		if err := rows.Scan(&r.RunID, &r.SourceID, &r.Status, &r.ItemsFound, &r.ItemsSaved, &r.Errors, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return runs, nil
}
