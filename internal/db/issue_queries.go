package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ListIssues returns every issue ordered by id, which fixes the primary-issue
// tie-break to the lowest id.
func (p *Pool) ListIssues(ctx context.Context) ([]Issue, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}
	var rows []Issue
	if err := p.gdb.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	return rows, nil
}

type UpsertIssueParams struct {
	Slug     string
	Name     string
	Subjects []string
}

// UpsertIssueTx writes one issue by slug, replacing its name and subjects.
func UpsertIssueTx(ctx context.Context, tx Tx, row UpsertIssueParams, now time.Time) (bool, error) {
	const q = `
INSERT INTO issues (id, slug, name, subjects, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (slug) DO UPDATE
SET
	name = excluded.name,
	subjects = excluded.subjects,
	updated_at = excluded.updated_at
`
	existed := false
	var existingID string
	if err := tx.QueryRow(ctx, `SELECT id FROM issues WHERE slug = ?`, row.Slug).Scan(&existingID); err == nil {
		existed = true
	} else if !IsNoRows(err) {
		return false, fmt.Errorf("lookup issue %q: %w", row.Slug, err)
	}

	if _, err := tx.Exec(ctx, q, uuid.NewString(), row.Slug, row.Name, StringList(row.Subjects), now, now); err != nil {
		return false, fmt.Errorf("upsert issue %q: %w", row.Slug, err)
	}
	return !existed, nil
}
