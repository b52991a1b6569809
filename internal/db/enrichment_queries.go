package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func (p *Pool) GetBillEnrichment(ctx context.Context, billID string) (*BillEnrichment, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}
	var row BillEnrichment
	if err := p.gdb.WithContext(ctx).Where("bill_id = ?", billID).Take(&row).Error; err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get enrichment for bill %s: %w", billID, err)
	}
	return &row, nil
}

type StoreEnrichmentParams struct {
	BillID  string
	Text    *string
	Summary *string
	At      time.Time
}

// StoreBillEnrichment creates the enrichment row or fills its empty columns.
// Populated text and summary values are never replaced.
func (p *Pool) StoreBillEnrichment(ctx context.Context, row StoreEnrichmentParams) error {
	const q = `
INSERT INTO bill_enrichments (
	id,
	bill_id,
	text,
	summary,
	text_fetched_at,
	summarized_at,
	created_at,
	updated_at
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (bill_id) DO UPDATE
SET
	text = COALESCE(bill_enrichments.text, excluded.text),
	summary = COALESCE(bill_enrichments.summary, excluded.summary),
	text_fetched_at = COALESCE(bill_enrichments.text_fetched_at, excluded.text_fetched_at),
	summarized_at = COALESCE(bill_enrichments.summarized_at, excluded.summarized_at),
	updated_at = excluded.updated_at
`
	var textFetchedAt, summarizedAt *time.Time
	if row.Text != nil {
		textFetchedAt = &row.At
	}
	if row.Summary != nil {
		summarizedAt = &row.At
	}

	if _, err := p.Exec(
		ctx,
		q,
		uuid.NewString(),
		row.BillID,
		row.Text,
		row.Summary,
		textFetchedAt,
		summarizedAt,
		row.At,
		row.At,
	); err != nil {
		return fmt.Errorf("store enrichment for bill %s: %w", row.BillID, err)
	}
	return nil
}
