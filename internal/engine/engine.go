package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/breakdown/internal/congress"
	"horse.fit/breakdown/internal/db"
	"horse.fit/breakdown/internal/enrich"
	"horse.fit/breakdown/internal/globaltime"
	"horse.fit/breakdown/internal/lock"
	"horse.fit/breakdown/internal/metrics"
	"horse.fit/breakdown/internal/notify"
)

// Entity names accepted by Run. They double as sync_runs.entity values.
const (
	EntityLegislators = "reps"
	EntityBills       = "bills"
	EntityVotes       = "votes"
	EntityCosponsors  = "cosponsors"
	EntityIssues      = "issues"
)

// Entities lists every entry point in the order a full sync runs them.
// Bills need sponsors, votes and cosponsors need bills.
var Entities = []string{EntityLegislators, EntityBills, EntityCosponsors, EntityVotes, EntityIssues}

// Category is one provider list and how many records to request from it.
type Category struct {
	Name  string
	Total int
}

var (
	DefaultBillCategories = []Category{
		{Name: "introduced", Total: 50},
		{Name: "updated", Total: 50},
		{Name: "active", Total: 50},
		{Name: "enacted", Total: 50},
		{Name: "passed", Total: 50},
		{Name: "vetoed", Total: 20},
	}
	DefaultCosponsorCategories = []Category{
		{Name: "introduced", Total: 40},
		{Name: "updated", Total: 40},
	}
)

const (
	DefaultBillChamber = "both"
	DefaultVoteTotal   = 20
	DefaultPageSize    = 20
)

// Store is the persistence surface of the engine. *db.Pool implements it.
type Store interface {
	ReconcileStore
	MatchStore

	ListLegislators(ctx context.Context) ([]db.Legislator, error)
	ListBills(ctx context.Context) ([]db.Bill, error)
	ListIssues(ctx context.Context) ([]db.Issue, error)
	AddCosponsor(ctx context.Context, billID, legislatorID string) (bool, error)

	InsertSyncRun(ctx context.Context, entity string, startedAt time.Time) (string, error)
	MarkSyncRunCompleted(ctx context.Context, runID string, counts db.SyncCounts, finishedAt time.Time) error
	MarkSyncRunFailed(ctx context.Context, runID string, counts db.SyncCounts, cause error, finishedAt time.Time) error
}

// SubjectLookup returns a bill's subject terms; nil means no data.
type SubjectLookup interface {
	Subjects(ctx context.Context, slug string) []string
}

// Dispatcher starts enrichment for a new bill without blocking.
type Dispatcher interface {
	Dispatch(target enrich.Target) *enrich.Task
}

type Options struct {
	PageSize            int
	BillChamber         string
	BillCategories      []Category
	CosponsorCategories []Category
	VoteTotal           int
	ChunkSize           int
	ChunkDelay          time.Duration
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.BillChamber == "" {
		o.BillChamber = DefaultBillChamber
	}
	if len(o.BillCategories) == 0 {
		o.BillCategories = DefaultBillCategories
	}
	if len(o.CosponsorCategories) == 0 {
		o.CosponsorCategories = DefaultCosponsorCategories
	}
	if o.VoteTotal <= 0 {
		o.VoteTotal = DefaultVoteTotal
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	return o
}

// Deps wires the engine. Subjects, Dispatcher, Locker and Notifier are
// optional.
type Deps struct {
	Store      Store
	Fetcher    *congress.PageFetcher
	Endpoints  congress.Endpoints
	Subjects   SubjectLookup
	Dispatcher Dispatcher
	Locker     lock.KeyLocker
	Notifier   notify.Notifier
	Logger     zerolog.Logger
}

// Engine holds no state between entry point invocations.
type Engine struct {
	store      Store
	fetcher    *congress.PageFetcher
	endpoints  congress.Endpoints
	subjects   SubjectLookup
	dispatcher Dispatcher
	notifier   notify.Notifier
	reconciler *Reconciler
	matcher    *RelationshipMatcher
	throttler  Throttler
	opts       Options
	logger     zerolog.Logger
}

func New(deps Deps, opts Options) (*Engine, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("engine store is required")
	}
	if deps.Fetcher == nil {
		return nil, fmt.Errorf("engine page fetcher is required")
	}
	opts = opts.withDefaults()
	return &Engine{
		store:      deps.Store,
		fetcher:    deps.Fetcher,
		endpoints:  deps.Endpoints,
		subjects:   deps.Subjects,
		dispatcher: deps.Dispatcher,
		notifier:   deps.Notifier,
		reconciler: NewReconciler(deps.Store, deps.Locker, deps.Logger),
		matcher:    NewRelationshipMatcher(deps.Store, deps.Logger),
		throttler:  NewThrottler(opts.ChunkSize, opts.ChunkDelay),
		opts:       opts,
		logger:     deps.Logger,
	}, nil
}

// RunSummary is the ledger view of one finished entry point invocation.
type RunSummary struct {
	RunID      string        `json:"run_id"`
	Entity     string        `json:"entity"`
	Status     string        `json:"status"`
	Counts     db.SyncCounts `json:"counts"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Error      string        `json:"error,omitempty"`
}

// Run invokes the entry point named by entity.
func (e *Engine) Run(ctx context.Context, entity string) (RunSummary, error) {
	switch entity {
	case EntityLegislators:
		return e.SyncLegislators(ctx)
	case EntityBills:
		return e.SyncBills(ctx)
	case EntityVotes:
		return e.SyncVotes(ctx)
	case EntityCosponsors:
		return e.SyncCosponsors(ctx)
	case EntityIssues:
		return e.BackfillIssues(ctx)
	default:
		return RunSummary{}, fmt.Errorf("unknown sync entity %q", entity)
	}
}

// run records the ledger row around body and emits the completion signal.
func (e *Engine) run(ctx context.Context, entity string, body func(ctx context.Context, logger zerolog.Logger, counts *db.SyncCounts) error) (RunSummary, error) {
	if e == nil || e.store == nil {
		return RunSummary{}, fmt.Errorf("engine is not initialized")
	}

	started := globaltime.UTC()
	runID, err := e.store.InsertSyncRun(ctx, entity, started)
	if err != nil {
		return RunSummary{}, fmt.Errorf("insert sync run: %w", err)
	}
	logger := e.logger.With().Str("entity", entity).Str("run_id", runID).Logger()
	logger.Info().Msg("sync run started")

	var counts db.SyncCounts
	runErr := body(ctx, logger, &counts)
	finished := globaltime.UTC()

	summary := RunSummary{
		RunID:      runID,
		Entity:     entity,
		Status:     db.RunStatusCompleted,
		Counts:     counts,
		StartedAt:  started,
		FinishedAt: finished,
	}

	// The ledger row is closed even when ctx was cancelled mid-run.
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if runErr != nil {
		summary.Status = db.RunStatusFailed
		summary.Error = runErr.Error()
		if err := e.store.MarkSyncRunFailed(markCtx, runID, counts, runErr, finished); err != nil {
			return summary, fmt.Errorf("sync %s failed (%v); failed to mark run failed: %w", entity, runErr, err)
		}
	} else if err := e.store.MarkSyncRunCompleted(markCtx, runID, counts, finished); err != nil {
		return summary, fmt.Errorf("mark sync run completed: %w", err)
	}

	metrics.RecordSyncRun(entity, summary.Status, finished.Sub(started))
	e.notify(markCtx, logger, summary)

	event := logger.Info()
	if runErr != nil {
		event = logger.Error().Err(runErr)
	}
	event.
		Str("status", summary.Status).
		Int("fetched", counts.Fetched).
		Int("duplicates", counts.Duplicates).
		Int("inserted", counts.Inserted).
		Int("updated", counts.Updated).
		Int("skipped", counts.Skipped).
		Dur("elapsed", finished.Sub(started)).
		Msg("sync run finished")

	return summary, runErr
}

func (e *Engine) notify(ctx context.Context, logger zerolog.Logger, summary RunSummary) {
	if e.notifier == nil {
		return
	}
	err := e.notifier.SyncCompleted(ctx, notify.SyncCompleted{
		RunID:      summary.RunID,
		Entity:     summary.Entity,
		Status:     summary.Status,
		Fetched:    summary.Counts.Fetched,
		Duplicates: summary.Counts.Duplicates,
		Inserted:   summary.Counts.Inserted,
		Updated:    summary.Counts.Updated,
		Skipped:    summary.Counts.Skipped,
		Error:      summary.Error,
		FinishedAt: summary.FinishedAt,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("sync completion notification failed")
	}
}

// countOutcome tallies a reconcile result. Skip-class errors are logged and
// swallowed; any other error is returned and aborts the run.
func countOutcome(logger zerolog.Logger, counts *db.SyncCounts, key string, status Status, err error) error {
	if err != nil {
		if isSkip(err) {
			counts.Skipped++
			logger.Error().Err(err).Str("natural_key", key).Msg("record skipped")
			return nil
		}
		return err
	}
	switch status {
	case StatusNew:
		counts.Inserted++
	case StatusUpdated:
		counts.Updated++
	}
	return nil
}

func (e *Engine) fetchCategories(ctx context.Context, categories []Category, url func(category string) string) [][]congress.BillRecord {
	sets := make([][]congress.BillRecord, 0, len(categories))
	for _, category := range categories {
		sets = append(sets, congress.FetchPages[congress.BillRecord](ctx, e.fetcher, congress.PageRequest{
			URL:      url(category.Name),
			Category: category.Name,
			PageSize: e.opts.PageSize,
			Total:    category.Total,
		}, "bills"))
	}
	return sets
}

func dedupStage[T any](logger zerolog.Logger, entity string, items []T, key func(T) string, counts *db.SyncCounts) []T {
	keyed, keyless := dropKeyless(items, key)
	if keyless > 0 {
		counts.Skipped += keyless
		logger.Error().Int("records", keyless).Msg("records without natural key skipped")
	}
	d := NewDeduplicator(key, func(k string) {
		logger.Debug().Str("natural_key", k).Msg("duplicate record dropped")
	})
	kept := d.Filter(keyed)
	counts.Duplicates += d.Duplicates()
	metrics.RecordDuplicates(entity, d.Duplicates())
	return kept
}
