package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// SyncAll runs the named entry points in order. A failed entry point does
// not stop the ones after it; cancellation does.
func (e *Engine) SyncAll(ctx context.Context, entities []string) ([]RunSummary, error) {
	if len(entities) == 0 {
		entities = Entities
	}
	summaries := make([]RunSummary, 0, len(entities))
	var errs []error
	for _, entity := range entities {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		summary, err := e.Run(ctx, entity)
		if summary.RunID != "" {
			summaries = append(summaries, summary)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("sync %s: %w", entity, err))
		}
	}
	return summaries, errors.Join(errs...)
}

// Scheduler fires a job immediately and then on every interval. Ticks that
// arrive while the job is still running are dropped, so runs never overlap.
type Scheduler struct {
	interval time.Duration
	job      func(ctx context.Context) error
	logger   zerolog.Logger
}

func NewScheduler(interval time.Duration, job func(ctx context.Context) error, logger zerolog.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("schedule interval must be > 0")
	}
	if job == nil {
		return nil, fmt.Errorf("scheduled job is required")
	}
	return &Scheduler{interval: interval, job: job, logger: logger}, nil
}

// Run blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scheduler stopped")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	started := time.Now()
	if err := s.job(ctx); err != nil {
		s.logger.Error().Err(err).Dur("elapsed", time.Since(started)).Msg("scheduled sync failed")
		return
	}
	s.logger.Info().Dur("elapsed", time.Since(started)).Dur("next_in", s.interval).Msg("scheduled sync finished")
}
