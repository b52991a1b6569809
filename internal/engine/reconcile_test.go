package engine

import (
	"testing"
	"time"

	"horse.fit/breakdown/internal/congress"
)

func TestVotePosition(t *testing.T) {
	t.Parallel()

	str := func(s string) *string { return &s }
	if got := votePosition(str("Yes")); got == nil || !*got {
		t.Fatalf("Yes should map to true, got %v", got)
	}
	if got := votePosition(str(" no ")); got == nil || *got {
		t.Fatalf("No should map to false, got %v", got)
	}
	for _, in := range []*string{nil, str("Not Voting"), str("Present")} {
		if got := votePosition(in); got != nil {
			t.Fatalf("expected nil position, got %v", *got)
		}
	}
}

func TestVotedAt(t *testing.T) {
	t.Parallel()

	str := func(s string) *string { return &s }
	got := votedAt(str("2023-01-09"), str("18:30:12"))
	if got == nil || !got.Equal(time.Date(2023, 1, 9, 18, 30, 12, 0, time.UTC)) {
		t.Fatalf("unexpected voted_at %v", got)
	}
	if got := votedAt(str("2023-01-09"), nil); got == nil || got.Hour() != 0 {
		t.Fatalf("date-only vote should parse at midnight, got %v", got)
	}
	if got := votedAt(nil, str("18:30:12")); got != nil {
		t.Fatalf("expected nil without date, got %v", got)
	}
	if got := votedAt(str("yesterday"), nil); got != nil {
		t.Fatalf("expected nil for malformed date, got %v", got)
	}
}

func TestCongressFromKey(t *testing.T) {
	t.Parallel()

	tests := map[string]int{"hr1-118": 118, "sjres12-117": 117}
	for key, want := range tests {
		if got := congressFromKey(key); got == nil || *got != want {
			t.Fatalf("congressFromKey(%q) = %v, want %d", key, got, want)
		}
	}
	for _, key := range []string{"hr1", "hr1-", "hr1-abc", "hr1-+118", "hr1-99999999999999999999999"} {
		if got := congressFromKey(key); got != nil {
			t.Fatalf("congressFromKey(%q) = %d, want nil", key, *got)
		}
	}
}

func TestBillFromRecordCleansLists(t *testing.T) {
	t.Parallel()

	id, billType, blank := "s5-118", "s", " "
	d, r := 3, 4
	row := billFromRecord(congress.BillRecord{
		BillID:            &id,
		BillType:          &billType,
		Title:             &blank,
		CommitteeCodes:    []string{"SSFI", " ", "SSFI"},
		CosponsorsByParty: &congress.CosponsorsByParty{D: &d, R: &r},
	}, nil, []string{"Taxes", ""})

	if row.Title != nil {
		t.Fatalf("blank title should be nil, got %q", *row.Title)
	}
	if len(row.CommitteeCodes) != 1 || row.CommitteeCodes[0] != "SSFI" {
		t.Fatalf("unexpected committee codes %v", row.CommitteeCodes)
	}
	if len(row.Subjects) != 1 || *row.Chamber != "Senate" || *row.CosponsorsD != 3 || *row.CosponsorsR != 4 {
		t.Fatalf("unexpected bill row %+v", row)
	}
}
