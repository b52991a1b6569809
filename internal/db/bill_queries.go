package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"horse.fit/breakdown/internal/globaltime"
)

func (p *Pool) FindBillByNaturalKey(ctx context.Context, key string) (*Bill, error) {
	var row Bill
	if err := p.findByNaturalKey(ctx, &row, key); err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("find bill %q: %w", key, err)
	}
	return &row, nil
}

func (p *Pool) InsertBill(ctx context.Context, row *Bill) (bool, error) {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	inserted, err := p.insertByNaturalKey(ctx, row)
	if err != nil {
		return false, fmt.Errorf("insert bill %q: %w", row.NaturalKey, err)
	}
	return inserted, nil
}

// MergeBill coalesces every provider-sourced column. PrimaryIssueID is owned
// by issue matching and is not touched here.
func (p *Pool) MergeBill(ctx context.Context, id string, in *Bill) error {
	err := p.mergeByID(ctx, &Bill{}, id, map[string]any{
		"slug":                     in.Slug,
		"bill_type":                in.BillType,
		"number":                   in.Number,
		"chamber":                  in.Chamber,
		"congress":                 in.Congress,
		"title":                    in.Title,
		"short_title":              in.ShortTitle,
		"sponsor_id":               in.SponsorID,
		"sponsor_title":            in.SponsorTitle,
		"sponsor_name":             in.SponsorName,
		"sponsor_state":            in.SponsorState,
		"sponsor_party":            in.SponsorParty,
		"gpo_pdf_uri":              in.GpoPdfURI,
		"congressdotgov_url":       in.CongressDotGovURL,
		"govtrack_url":             in.GovtrackURL,
		"introduced_date":          in.IntroducedDate,
		"active":                   in.Active,
		"last_vote":                in.LastVote,
		"house_passage":            in.HousePassage,
		"senate_passage":           in.SenatePassage,
		"enacted":                  in.Enacted,
		"vetoed":                   in.Vetoed,
		"cosponsors":               in.Cosponsors,
		"cosponsors_d":             in.CosponsorsD,
		"cosponsors_r":             in.CosponsorsR,
		"committees":               in.Committees,
		"committee_codes":          in.CommitteeCodes,
		"subcommittee_codes":       in.SubcommitteeCodes,
		"primary_subject":          in.PrimarySubject,
		"subjects":                 in.Subjects,
		"summary":                  in.Summary,
		"summary_short":            in.SummaryShort,
		"latest_major_action_date": in.LatestMajorActionDate,
		"latest_major_action":      in.LatestMajorAction,
	})
	if err != nil {
		return fmt.Errorf("merge bill %s: %w", id, err)
	}
	return nil
}

func (p *Pool) ListBills(ctx context.Context) ([]Bill, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}
	var rows []Bill
	if err := p.gdb.WithContext(ctx).Order("natural_key").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	return rows, nil
}

func (p *Pool) SetBillPrimaryIssue(ctx context.Context, billID, issueID string) error {
	const q = `
UPDATE bills
SET
	primary_issue_id = ?,
	updated_at = ?
WHERE id = ?
`
	if _, err := p.Exec(ctx, q, issueID, globaltime.UTC(), billID); err != nil {
		return fmt.Errorf("set primary issue for bill %s: %w", billID, err)
	}
	return nil
}

// LinkBillIssue inserts one junction row and reports whether it was new.
func (p *Pool) LinkBillIssue(ctx context.Context, billID, issueID string) (bool, error) {
	const q = `
INSERT INTO bill_issues (bill_id, issue_id, created_at)
VALUES (?, ?, ?)
ON CONFLICT (bill_id, issue_id) DO NOTHING
`
	tag, err := p.Exec(ctx, q, billID, issueID, globaltime.UTC())
	if err != nil {
		return false, fmt.Errorf("link bill %s to issue %s: %w", billID, issueID, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (p *Pool) ListBillIssueIDs(ctx context.Context, billID string) ([]string, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}
	var ids []string
	err := p.gdb.WithContext(ctx).
		Model(&BillIssue{}).
		Where("bill_id = ?", billID).
		Order("issue_id").
		Pluck("issue_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list issues for bill %s: %w", billID, err)
	}
	return ids, nil
}

// AddCosponsor records one (bill, legislator) pair, ignoring repeats.
func (p *Pool) AddCosponsor(ctx context.Context, billID, legislatorID string) (bool, error) {
	const q = `
INSERT INTO cosponsors (bill_id, legislator_id, created_at)
VALUES (?, ?, ?)
ON CONFLICT (bill_id, legislator_id) DO NOTHING
`
	tag, err := p.Exec(ctx, q, billID, legislatorID, globaltime.UTC())
	if err != nil {
		return false, fmt.Errorf("add cosponsor %s to bill %s: %w", legislatorID, billID, err)
	}
	return tag.RowsAffected() == 1, nil
}
