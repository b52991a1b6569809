package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/breakdown/internal/congress"
	"horse.fit/breakdown/internal/db"
	"horse.fit/breakdown/internal/lock"
	"horse.fit/breakdown/internal/metrics"
)

var (
	// ErrUnresolvedReference marks a record whose foreign key does not match
	// any local entity. The record is skipped and the batch continues.
	ErrUnresolvedReference = errors.New("unresolved reference")
	// ErrSponsorNotFound is the bill form of ErrUnresolvedReference.
	ErrSponsorNotFound = fmt.Errorf("sponsor not found: %w", ErrUnresolvedReference)
	// ErrNotApplicable marks records the engine ignores by policy, such as
	// votes that are not on a bill.
	ErrNotApplicable     = errors.New("record not applicable")
	ErrMissingNaturalKey = errors.New("missing natural key")
)

// Status is the result of reconciling one record.
type Status string

const (
	StatusNew     Status = "new"
	StatusUpdated Status = "updated"
)

// Outcome carries the reconciled entity as persisted after the write.
type Outcome[E any] struct {
	Entity *E
	Status Status
}

// isSkip reports whether err only disqualifies the current record. A key
// still locked by another writer after the lock wait is skipped; the next
// run picks it up. Lock backend errors are not skips.
func isSkip(err error) bool {
	return errors.Is(err, lock.ErrLockNotAcquired) ||
		errors.Is(err, ErrUnresolvedReference) ||
		errors.Is(err, ErrNotApplicable) ||
		errors.Is(err, ErrMissingNaturalKey)
}

// ReconcileStore is the persistence surface the reconciler needs.
type ReconcileStore interface {
	FindLegislatorByNaturalKey(ctx context.Context, key string) (*db.Legislator, error)
	InsertLegislator(ctx context.Context, row *db.Legislator) (bool, error)
	MergeLegislator(ctx context.Context, id string, in *db.Legislator) error

	FindBillByNaturalKey(ctx context.Context, key string) (*db.Bill, error)
	InsertBill(ctx context.Context, row *db.Bill) (bool, error)
	MergeBill(ctx context.Context, id string, in *db.Bill) error

	FindVoteByNaturalKey(ctx context.Context, key string) (*db.Vote, error)
	InsertVote(ctx context.Context, row *db.Vote) (bool, error)
	MergeVote(ctx context.Context, id string, in *db.Vote) error
}

// Reconciler upserts external records into local entities by natural key.
// Absent entities are inserted; present ones are coalesce-merged so that a
// null or empty incoming value never replaces a known local value.
type Reconciler struct {
	store  ReconcileStore
	locker lock.KeyLocker
	logger zerolog.Logger
}

func NewReconciler(store ReconcileStore, locker lock.KeyLocker, logger zerolog.Logger) *Reconciler {
	if locker == nil {
		locker = lock.Noop{}
	}
	return &Reconciler{
		store:  store,
		locker: locker,
		logger: logger,
	}
}

type entityOps[E any] struct {
	find   func(ctx context.Context, key string) (*E, error)
	insert func(ctx context.Context, row *E) (bool, error)
	merge  func(ctx context.Context, existing *E) error
	// precondition runs only on the insert path; a non-nil error means
	// the entity cannot be created.
	precondition func() error
}

// upsert runs find, then insert or merge, then reload, under the per-key lock.
// An insert that loses a unique-key race falls back to a merge.
func upsert[E any](ctx context.Context, locker lock.KeyLocker, entity, key string, row *E, ops entityOps[E]) (Outcome[E], error) {
	var out Outcome[E]
	err := locker.WithLock(ctx, entity+":"+key, func(ctx context.Context) error {
		existing, err := ops.find(ctx, key)
		switch {
		case err == nil:
			if err := ops.merge(ctx, existing); err != nil {
				return err
			}
			out.Status = StatusUpdated
		case db.IsNoRows(err):
			if ops.precondition != nil {
				if err := ops.precondition(); err != nil {
					return err
				}
			}
			inserted, err := ops.insert(ctx, row)
			if err != nil {
				return err
			}
			if inserted {
				out.Status = StatusNew
				break
			}
			existing, err := ops.find(ctx, key)
			if err != nil {
				return fmt.Errorf("reload %s %s after insert conflict: %w", entity, key, err)
			}
			if err := ops.merge(ctx, existing); err != nil {
				return err
			}
			out.Status = StatusUpdated
		default:
			return err
		}

		reloaded, err := ops.find(ctx, key)
		if err != nil {
			return fmt.Errorf("reload %s %s: %w", entity, key, err)
		}
		out.Entity = reloaded
		return nil
	})
	if err != nil {
		return Outcome[E]{}, err
	}
	metrics.RecordReconcile(entity, string(out.Status))
	return out, nil
}

func (r *Reconciler) ReconcileLegislator(ctx context.Context, rec congress.LegislatorRecord) (Outcome[db.Legislator], error) {
	if r == nil || r.store == nil {
		return Outcome[db.Legislator]{}, fmt.Errorf("reconciler is not initialized")
	}
	key := rec.NaturalKey()
	if key == "" {
		return Outcome[db.Legislator]{}, ErrMissingNaturalKey
	}

	row := legislatorFromRecord(rec)
	return upsert(ctx, r.locker, "legislator", key, row, entityOps[db.Legislator]{
		find:   r.store.FindLegislatorByNaturalKey,
		insert: r.store.InsertLegislator,
		merge: func(ctx context.Context, existing *db.Legislator) error {
			return r.store.MergeLegislator(ctx, existing.ID, row)
		},
	})
}

// ReconcileBill upserts a bill. subjects must be fetched by the caller before
// the call so no network request runs while the key is locked.
func (r *Reconciler) ReconcileBill(ctx context.Context, rec congress.BillRecord, subjects []string) (Outcome[db.Bill], error) {
	if r == nil || r.store == nil {
		return Outcome[db.Bill]{}, fmt.Errorf("reconciler is not initialized")
	}
	key := rec.NaturalKey()
	if key == "" {
		return Outcome[db.Bill]{}, ErrMissingNaturalKey
	}

	var sponsorErr error
	var sponsorID *string
	if sponsorKey := strings.TrimSpace(deref(rec.SponsorID)); sponsorKey != "" {
		sponsor, err := r.store.FindLegislatorByNaturalKey(ctx, sponsorKey)
		switch {
		case err == nil:
			sponsorID = &sponsor.ID
		case db.IsNoRows(err):
			sponsorErr = fmt.Errorf("bill %s sponsor %s: %w", key, sponsorKey, ErrSponsorNotFound)
		default:
			return Outcome[db.Bill]{}, fmt.Errorf("find sponsor %s: %w", sponsorKey, err)
		}
	}

	row := billFromRecord(rec, sponsorID, subjects)
	return upsert(ctx, r.locker, "bill", key, row, entityOps[db.Bill]{
		find:   r.store.FindBillByNaturalKey,
		insert: r.store.InsertBill,
		merge: func(ctx context.Context, existing *db.Bill) error {
			return r.store.MergeBill(ctx, existing.ID, row)
		},
		precondition: func() error { return sponsorErr },
	})
}

// ReconcileVote upserts one member position. Both the voting legislator and
// the bill must already exist locally for a new vote to be inserted.
func (r *Reconciler) ReconcileVote(ctx context.Context, rec congress.VoteRecord) (Outcome[db.Vote], error) {
	if r == nil || r.store == nil {
		return Outcome[db.Vote]{}, fmt.Errorf("reconciler is not initialized")
	}
	billKey := rec.BillKey()
	if billKey == "" {
		return Outcome[db.Vote]{}, ErrNotApplicable
	}
	key := rec.NaturalKey()
	if key == "" {
		return Outcome[db.Vote]{}, ErrMissingNaturalKey
	}

	row := voteFromRecord(rec)
	var refErr error
	if legislator, err := r.store.FindLegislatorByNaturalKey(ctx, deref(rec.MemberID)); err == nil {
		row.LegislatorID = legislator.ID
	} else if db.IsNoRows(err) {
		refErr = fmt.Errorf("vote %s legislator: %w", key, ErrUnresolvedReference)
	} else {
		return Outcome[db.Vote]{}, fmt.Errorf("find legislator for vote %s: %w", key, err)
	}
	if bill, err := r.store.FindBillByNaturalKey(ctx, billKey); err == nil {
		row.BillID = bill.ID
	} else if db.IsNoRows(err) {
		if refErr == nil {
			refErr = fmt.Errorf("vote %s bill %s: %w", key, billKey, ErrUnresolvedReference)
		}
	} else {
		return Outcome[db.Vote]{}, fmt.Errorf("find bill for vote %s: %w", key, err)
	}

	return upsert(ctx, r.locker, "vote", key, row, entityOps[db.Vote]{
		find:   r.store.FindVoteByNaturalKey,
		insert: r.store.InsertVote,
		merge: func(ctx context.Context, existing *db.Vote) error {
			return r.store.MergeVote(ctx, existing.ID, row)
		},
		precondition: func() error { return refErr },
	})
}

func legislatorFromRecord(rec congress.LegislatorRecord) *db.Legislator {
	row := &db.Legislator{
		NaturalKey:           rec.NaturalKey(),
		Title:                nullable(rec.Title),
		ShortTitle:           nullable(rec.ShortTitle),
		FirstName:            nullable(rec.FirstName),
		MiddleName:           nullable(rec.MiddleName),
		LastName:             nullable(rec.LastName),
		Suffix:               nullable(rec.Suffix),
		DateOfBirth:          nullable(rec.DateOfBirth),
		Gender:               nullable(rec.Gender),
		Party:                nullable(rec.Party),
		LeadershipRole:       nullable(rec.LeadershipRole),
		TwitterAccount:       nullable(rec.TwitterAccount),
		FacebookAccount:      nullable(rec.FacebookAccount),
		YoutubeAccount:       nullable(rec.YoutubeAccount),
		URL:                  nullable(rec.URL),
		ContactForm:          nullable(rec.ContactForm),
		InOffice:             rec.InOffice,
		NextElection:         nullable(rec.NextElection),
		TotalVotes:           wholeNumber(rec.TotalVotes),
		MissedVotes:          wholeNumber(rec.MissedVotes),
		MissedVotesPct:       rec.MissedVotesPct,
		VotesWithPartyPct:    rec.VotesWithPartyPct,
		VotesAgainstPartyPct: rec.VotesAgainstPartyPct,
		Office:               nullable(rec.Office),
		Phone:                nullable(rec.Phone),
		State:                nullable(rec.State),
		District:             nullable(rec.District),
	}
	if rec.Chamber != congress.ChamberUnknown {
		chamber := rec.Chamber.String()
		row.Chamber = &chamber
	}
	return row
}

func billFromRecord(rec congress.BillRecord, sponsorID *string, subjects []string) *db.Bill {
	row := &db.Bill{
		NaturalKey:            rec.NaturalKey(),
		Slug:                  nullable(rec.BillSlug),
		BillType:              nullable(rec.BillType),
		Number:                nullable(rec.Number),
		Congress:              congressFromKey(rec.NaturalKey()),
		Title:                 nullable(rec.Title),
		ShortTitle:            nullable(rec.ShortTitle),
		SponsorID:             sponsorID,
		SponsorTitle:          nullable(rec.SponsorTitle),
		SponsorName:           nullable(rec.SponsorName),
		SponsorState:          nullable(rec.SponsorState),
		SponsorParty:          nullable(rec.SponsorParty),
		GpoPdfURI:             nullable(rec.GpoPdfURI),
		CongressDotGovURL:     nullable(rec.CongressDotGovURL),
		GovtrackURL:           nullable(rec.GovtrackURL),
		IntroducedDate:        nullable(rec.IntroducedDate),
		Active:                rec.Active,
		LastVote:              nullable(rec.LastVote),
		HousePassage:          nullable(rec.HousePassage),
		SenatePassage:         nullable(rec.SenatePassage),
		Enacted:               nullable(rec.Enacted),
		Vetoed:                nullable(rec.Vetoed),
		Cosponsors:            rec.Cosponsors,
		Committees:            nullable(rec.Committees),
		CommitteeCodes:        cleanList(rec.CommitteeCodes),
		SubcommitteeCodes:     cleanList(rec.SubcommitteeCodes),
		PrimarySubject:        nullable(rec.PrimarySubject),
		Subjects:              cleanList(subjects),
		Summary:               nullable(rec.Summary),
		SummaryShort:          nullable(rec.SummaryShort),
		LatestMajorActionDate: nullable(rec.LatestMajorActionDate),
		LatestMajorAction:     nullable(rec.LatestMajorAction),
	}
	if rec.CosponsorsByParty != nil {
		row.CosponsorsD = rec.CosponsorsByParty.D
		row.CosponsorsR = rec.CosponsorsByParty.R
	}
	if chamber := congress.ChamberFromBillType(deref(rec.BillType)); chamber != congress.ChamberUnknown {
		name := chamber.String()
		row.Chamber = &name
	}
	return row
}

const voteTimeLayout = "2006-01-02 15:04:05"

func voteFromRecord(rec congress.VoteRecord) *db.Vote {
	return &db.Vote{
		NaturalKey: rec.NaturalKey(),
		Chamber:    nullable(rec.Chamber),
		Congress:   nullable(rec.Congress),
		Session:    nullable(rec.Session),
		RollCall:   nullable(rec.RollCall),
		VoteURI:    nullable(rec.VoteURI),
		Question:   nullable(rec.Question),
		Result:     nullable(rec.Result),
		Position:   votePosition(rec.Position),
		VotedAt:    votedAt(rec.Date, rec.Time),
	}
}

// votePosition maps "Yes" and "No"; other positions such as "Not Voting"
// carry no boolean value.
func votePosition(position *string) *bool {
	switch strings.ToLower(strings.TrimSpace(deref(position))) {
	case "yes":
		v := true
		return &v
	case "no":
		v := false
		return &v
	default:
		return nil
	}
}

func votedAt(date, clock *string) *time.Time {
	d := strings.TrimSpace(deref(date))
	if d == "" {
		return nil
	}
	c := strings.TrimSpace(deref(clock))
	if c == "" {
		c = "00:00:00"
	}
	t, err := time.ParseInLocation(voteTimeLayout, d+" "+c, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

// congressFromKey reads the congress number suffix of a bill id ("hr1-118").
func congressFromKey(key string) *int {
	idx := strings.LastIndex(key, "-")
	if idx < 0 {
		return nil
	}
	digits := key[idx+1:]
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &n
}

func nullable(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func wholeNumber(value *float64) *int {
	if value == nil {
		return nil
	}
	n := int(*value)
	return &n
}

func cleanList(values []string) db.StringList {
	out := make(db.StringList, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
