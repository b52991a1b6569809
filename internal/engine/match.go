package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"horse.fit/breakdown/internal/db"
)

// Match is the computed association between one bill and the issue set.
type Match struct {
	PrimaryIssueID *string
	IssueIDs       []string
}

// MatchIssues computes associations for a bill. Issues are expected in id
// order; the first issue containing the primary subject becomes primary. An
// issue that contains the primary subject is also a secondary association.
// ok is false when the bill has neither a primary subject nor subjects.
func MatchIssues(primarySubject *string, subjects []string, issues []db.Issue) (Match, bool) {
	primary := strings.TrimSpace(deref(primarySubject))
	if primary == "" && len(subjects) == 0 {
		return Match{}, false
	}

	billSubjects := make(map[string]struct{}, len(subjects))
	for _, subject := range subjects {
		if trimmed := strings.TrimSpace(subject); trimmed != "" {
			billSubjects[trimmed] = struct{}{}
		}
	}

	var out Match
	for _, issue := range issues {
		containsPrimary := primary != "" && issue.Subjects.Contains(primary)
		if containsPrimary && out.PrimaryIssueID == nil {
			id := issue.ID
			out.PrimaryIssueID = &id
		}
		if containsPrimary || intersects(issue.Subjects, billSubjects) {
			out.IssueIDs = append(out.IssueIDs, issue.ID)
		}
	}
	return out, true
}

func intersects(issueSubjects db.StringList, billSubjects map[string]struct{}) bool {
	for _, subject := range issueSubjects {
		if _, ok := billSubjects[subject]; ok {
			return true
		}
	}
	return false
}

// MatchStore is the persistence surface of the relationship matcher.
type MatchStore interface {
	LinkBillIssue(ctx context.Context, billID, issueID string) (bool, error)
	SetBillPrimaryIssue(ctx context.Context, billID, issueID string) error
}

// MatchResult reports what one Apply call wrote.
type MatchResult struct {
	Skipped  bool
	Linked   int
	Primary  bool
	IssueIDs []string
}

// RelationshipMatcher persists bill to issue associations. Linking is
// insert-or-skip so repeated runs are no-ops.
type RelationshipMatcher struct {
	store  MatchStore
	logger zerolog.Logger
}

func NewRelationshipMatcher(store MatchStore, logger zerolog.Logger) *RelationshipMatcher {
	return &RelationshipMatcher{store: store, logger: logger}
}

func (m *RelationshipMatcher) Apply(ctx context.Context, bill *db.Bill, issues []db.Issue) (MatchResult, error) {
	if m == nil || m.store == nil {
		return MatchResult{}, fmt.Errorf("relationship matcher is not initialized")
	}
	if bill == nil {
		return MatchResult{}, fmt.Errorf("bill is required")
	}

	match, ok := MatchIssues(bill.PrimarySubject, bill.Subjects, issues)
	if !ok {
		m.logger.Debug().Str("natural_key", bill.NaturalKey).Msg("bill has no subjects; skipping issue match")
		return MatchResult{Skipped: true}, nil
	}

	result := MatchResult{IssueIDs: match.IssueIDs}
	for _, issueID := range match.IssueIDs {
		linked, err := m.store.LinkBillIssue(ctx, bill.ID, issueID)
		if err != nil {
			return result, fmt.Errorf("link bill %s to issue %s: %w", bill.NaturalKey, issueID, err)
		}
		if linked {
			result.Linked++
		}
	}
	if match.PrimaryIssueID != nil {
		if err := m.store.SetBillPrimaryIssue(ctx, bill.ID, *match.PrimaryIssueID); err != nil {
			return result, fmt.Errorf("set primary issue for bill %s: %w", bill.NaturalKey, err)
		}
		result.Primary = true
	}
	return result, nil
}
