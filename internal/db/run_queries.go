package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"

	maxRunErrorLength = 4000
)

// SyncCounts are the per-run counters recorded on completion.
type SyncCounts struct {
	Fetched    int `json:"fetched"`
	Duplicates int `json:"duplicates"`
	Inserted   int `json:"inserted"`
	Updated    int `json:"updated"`
	Skipped    int `json:"skipped"`
}

func (p *Pool) InsertSyncRun(ctx context.Context, entity string, startedAt time.Time) (string, error) {
	const q = `
INSERT INTO sync_runs (
	id,
	entity,
	status,
	started_at,
	fetched,
	duplicates,
	inserted,
	updated,
	skipped,
	created_at,
	updated_at
)
VALUES (?, ?, ?, ?, 0, 0, 0, 0, 0, ?, ?)
`
	runID := uuid.NewString()
	if _, err := p.Exec(ctx, q, runID, entity, RunStatusRunning, startedAt, startedAt, startedAt); err != nil {
		return "", fmt.Errorf("insert sync run: %w", err)
	}
	return runID, nil
}

func (p *Pool) MarkSyncRunCompleted(ctx context.Context, runID string, counts SyncCounts, finishedAt time.Time) error {
	const q = `
UPDATE sync_runs
SET
	status = ?,
	fetched = ?,
	duplicates = ?,
	inserted = ?,
	updated = ?,
	skipped = ?,
	finished_at = ?,
	updated_at = ?,
	error_message = NULL
WHERE id = ?
`
	_, err := p.Exec(
		ctx,
		q,
		RunStatusCompleted,
		counts.Fetched,
		counts.Duplicates,
		counts.Inserted,
		counts.Updated,
		counts.Skipped,
		finishedAt,
		finishedAt,
		runID,
	)
	if err != nil {
		return fmt.Errorf("mark sync run completed: %w", err)
	}
	return nil
}

func (p *Pool) MarkSyncRunFailed(ctx context.Context, runID string, counts SyncCounts, cause error, finishedAt time.Time) error {
	const q = `
UPDATE sync_runs
SET
	status = ?,
	fetched = ?,
	duplicates = ?,
	inserted = ?,
	updated = ?,
	skipped = ?,
	error_message = ?,
	finished_at = ?,
	updated_at = ?
WHERE id = ?
`
	msg := ""
	if cause != nil {
		msg = strings.TrimSpace(cause.Error())
	}
	if len(msg) > maxRunErrorLength {
		msg = msg[:maxRunErrorLength]
	}

	_, err := p.Exec(
		ctx,
		q,
		RunStatusFailed,
		counts.Fetched,
		counts.Duplicates,
		counts.Inserted,
		counts.Updated,
		counts.Skipped,
		msg,
		finishedAt,
		finishedAt,
		runID,
	)
	if err != nil {
		return fmt.Errorf("mark sync run failed: %w", err)
	}
	return nil
}

func (p *Pool) ListRecentSyncRuns(ctx context.Context, limit int) ([]SyncRun, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}
	if limit <= 0 {
		limit = 20
	}
	var rows []SyncRun
	if err := p.gdb.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	return rows, nil
}
