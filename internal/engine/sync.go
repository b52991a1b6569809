package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"horse.fit/breakdown/internal/congress"
	"horse.fit/breakdown/internal/db"
	"horse.fit/breakdown/internal/enrich"
	"horse.fit/breakdown/internal/metrics"
)

// SyncLegislators fetches House and Senate members and reconciles them.
func (e *Engine) SyncLegislators(ctx context.Context) (RunSummary, error) {
	return e.run(ctx, EntityLegislators, func(ctx context.Context, logger zerolog.Logger, counts *db.SyncCounts) error {
		chambers := []congress.Chamber{congress.ChamberHouse, congress.ChamberSenate}
		sets := make([][]congress.LegislatorRecord, 0, len(chambers))
		for _, chamber := range chambers {
			records := congress.FetchPages[congress.LegislatorRecord](ctx, e.fetcher, congress.PageRequest{
				URL:      e.endpoints.Members(chamber),
				Category: "members_" + chamber.PathSegment(),
			}, "members")
			for i := range records {
				records[i].Chamber = chamber
			}
			sets = append(sets, records)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		candidates := Aggregate(sets...)
		counts.Fetched = len(candidates)
		records := dedupStage(logger, EntityLegislators, candidates, congress.LegislatorRecord.NaturalKey, counts)

		for _, rec := range records {
			outcome, err := e.reconciler.ReconcileLegislator(ctx, rec)
			if err := countOutcome(logger, counts, rec.NaturalKey(), outcome.Status, err); err != nil {
				return fmt.Errorf("reconcile legislator %s: %w", rec.NaturalKey(), err)
			}
		}
		return nil
	})
}

// SyncBills fetches every bill category, then reconciles in throttled
// chunks. New bills are matched to issues and dispatched for enrichment.
func (e *Engine) SyncBills(ctx context.Context) (RunSummary, error) {
	return e.run(ctx, EntityBills, func(ctx context.Context, logger zerolog.Logger, counts *db.SyncCounts) error {
		sets := e.fetchCategories(ctx, e.opts.BillCategories, func(category string) string {
			return e.endpoints.Bills(e.opts.BillChamber, category)
		})
		if err := ctx.Err(); err != nil {
			return err
		}

		candidates := Aggregate(sets...)
		counts.Fetched = len(candidates)
		records := dedupStage(logger, EntityBills, candidates, congress.BillRecord.NaturalKey, counts)

		issues, err := e.store.ListIssues(ctx)
		if err != nil {
			return err
		}

		return Throttle(ctx, e.throttler, records, func(ctx context.Context, rec congress.BillRecord) (Pending, error) {
			return e.syncBill(ctx, logger, rec, issues, counts)
		})
	})
}

func (e *Engine) syncBill(ctx context.Context, logger zerolog.Logger, rec congress.BillRecord, issues []db.Issue, counts *db.SyncCounts) (Pending, error) {
	key := rec.NaturalKey()

	var subjects []string
	if e.subjects != nil && rec.BillSlug != nil {
		subjects = e.subjects.Subjects(ctx, *rec.BillSlug)
	}

	outcome, err := e.reconciler.ReconcileBill(ctx, rec, subjects)
	if err := countOutcome(logger, counts, key, outcome.Status, err); err != nil {
		return nil, fmt.Errorf("reconcile bill %s: %w", key, err)
	}
	if err != nil || outcome.Status != StatusNew {
		return nil, nil
	}

	if _, err := e.matcher.Apply(ctx, outcome.Entity, issues); err != nil {
		return nil, err
	}
	if e.dispatcher == nil {
		return nil, nil
	}
	return e.dispatcher.Dispatch(enrich.TargetFromBill(outcome.Entity)), nil
}

// SyncVotes fetches each known legislator's recent positions and reconciles
// them. Legislators are processed in throttled chunks.
func (e *Engine) SyncVotes(ctx context.Context) (RunSummary, error) {
	return e.run(ctx, EntityVotes, func(ctx context.Context, logger zerolog.Logger, counts *db.SyncCounts) error {
		legislators, err := e.store.ListLegislators(ctx)
		if err != nil {
			return err
		}

		dedup := NewDeduplicator(congress.VoteRecord.NaturalKey, func(k string) {
			logger.Debug().Str("natural_key", k).Msg("duplicate vote dropped")
		})
		defer func() {
			counts.Duplicates += dedup.Duplicates()
			metrics.RecordDuplicates(EntityVotes, dedup.Duplicates())
		}()

		return Throttle(ctx, e.throttler, legislators, func(ctx context.Context, legislator db.Legislator) (Pending, error) {
			candidates := congress.FetchPages[congress.VoteRecord](ctx, e.fetcher, congress.PageRequest{
				URL:      e.endpoints.MemberVotes(legislator.NaturalKey),
				Category: "votes",
				PageSize: e.opts.PageSize,
				Total:    e.opts.VoteTotal,
			}, "votes")
			counts.Fetched += len(candidates)

			for _, rec := range candidates {
				if rec.BillKey() == "" {
					counts.Skipped++
					continue
				}
				if rec.NaturalKey() == "" {
					counts.Skipped++
					logger.Error().Str("member_id", legislator.NaturalKey).Msg("vote without natural key skipped")
					continue
				}
				if !dedup.Keep(rec) {
					continue
				}
				outcome, err := e.reconciler.ReconcileVote(ctx, rec)
				if err := countOutcome(logger, counts, rec.NaturalKey(), outcome.Status, err); err != nil {
					return nil, fmt.Errorf("reconcile vote %s: %w", rec.NaturalKey(), err)
				}
			}
			return nil, nil
		})
	})
}

// SyncCosponsors records (bill, legislator) cosponsor pairs for bills that
// are already known locally.
func (e *Engine) SyncCosponsors(ctx context.Context) (RunSummary, error) {
	return e.run(ctx, EntityCosponsors, func(ctx context.Context, logger zerolog.Logger, counts *db.SyncCounts) error {
		legislators, err := e.store.ListLegislators(ctx)
		if err != nil {
			return err
		}

		return Throttle(ctx, e.throttler, legislators, func(ctx context.Context, legislator db.Legislator) (Pending, error) {
			sets := e.fetchCategories(ctx, e.opts.CosponsorCategories, func(category string) string {
				return e.endpoints.MemberBills(legislator.NaturalKey, category)
			})
			candidates := Aggregate(sets...)
			counts.Fetched += len(candidates)
			records := dedupStage(logger, EntityCosponsors, candidates, congress.BillRecord.NaturalKey, counts)

			for _, rec := range records {
				bill, err := e.store.FindBillByNaturalKey(ctx, rec.NaturalKey())
				if err != nil {
					if db.IsNoRows(err) {
						counts.Skipped++
						logger.Debug().Str("natural_key", rec.NaturalKey()).Msg("cosponsored bill not synced; skipping")
						continue
					}
					return nil, fmt.Errorf("find cosponsored bill %s: %w", rec.NaturalKey(), err)
				}
				added, err := e.store.AddCosponsor(ctx, bill.ID, legislator.ID)
				if err != nil {
					return nil, err
				}
				if added {
					counts.Inserted++
				} else {
					counts.Updated++
				}
			}
			return nil, nil
		})
	})
}

// BackfillIssues runs the relationship matcher over every bill.
func (e *Engine) BackfillIssues(ctx context.Context) (RunSummary, error) {
	return e.run(ctx, EntityIssues, func(ctx context.Context, logger zerolog.Logger, counts *db.SyncCounts) error {
		bills, err := e.store.ListBills(ctx)
		if err != nil {
			return err
		}
		issues, err := e.store.ListIssues(ctx)
		if err != nil {
			return err
		}
		counts.Fetched = len(bills)

		for i := range bills {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := e.matcher.Apply(ctx, &bills[i], issues)
			if err != nil {
				return err
			}
			switch {
			case result.Skipped:
				counts.Skipped++
			case result.Linked > 0:
				counts.Inserted += result.Linked
			default:
				counts.Updated++
			}
		}
		logger.Debug().Int("issues", len(issues)).Msg("issue backfill matched")
		return nil
	})
}
