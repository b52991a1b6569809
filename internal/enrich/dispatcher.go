package enrich

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"horse.fit/breakdown/internal/metrics"
)

const DefaultWorkers = 4

var ErrDispatcherClosed = errors.New("enrichment dispatcher is closed")

type Enricher interface {
	Enrich(ctx context.Context, t Target) (Result, error)
}

// Dispatcher runs enrichment tasks detached from the caller. Tasks share the
// dispatcher's own context, so cancelling a sync call does not cancel them;
// Close does.
type Dispatcher struct {
	enricher Enricher
	sem      *semaphore.Weighted
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(enricher Enricher, workers int, logger zerolog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		enricher: enricher,
		sem:      semaphore.NewWeighted(int64(workers)),
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Task is one dispatched enrichment.
type Task struct {
	Target Target

	done   chan struct{}
	result Result
	err    error
}

// Wait blocks until the task finishes or ctx is done. It returns only ctx
// errors; the task's own failure is reported by Err.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the task finishes.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

func (t *Task) Result() Result {
	select {
	case <-t.done:
		return t.result
	default:
		return ""
	}
}

// Dispatch starts enrichment for target and returns immediately.
func (d *Dispatcher) Dispatch(target Target) *Task {
	task := &Task{Target: target, done: make(chan struct{})}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		task.finish(ResultFailed, ErrDispatcherClosed)
		return task
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go d.run(task)
	return task
}

func (d *Dispatcher) run(task *Task) {
	defer d.wg.Done()

	result, err := ResultFailed, error(nil)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("enrichment panic: %v", r)
			result = ResultFailed
		}
		if err != nil {
			d.logger.Error().Err(err).Str("natural_key", task.Target.NaturalKey).Msg("enrichment task failed")
		}
		metrics.RecordEnrichment(string(result))
		task.finish(result, err)
	}()

	if err = d.sem.Acquire(d.ctx, 1); err != nil {
		return
	}
	defer d.sem.Release(1)

	metrics.EnrichmentInFlight.Inc()
	defer metrics.EnrichmentInFlight.Dec()

	result, err = d.enricher.Enrich(d.ctx, task.Target)
}

func (t *Task) finish(result Result, err error) {
	t.result = result
	t.err = err
	close(t.done)
}

// Wait blocks until every dispatched task has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close stops accepting tasks, cancels in-flight ones and waits for them up
// to the deadline of ctx.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.cancel()

	drained := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain enrichment tasks: %w", ctx.Err())
	}
}

// Drain waits for in-flight tasks without cancelling them, up to timeout,
// then closes the dispatcher.
func (d *Dispatcher) Drain(timeout time.Duration) error {
	drained := make(chan struct{})
	go func() {
		d.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(timeout):
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return d.Close(ctx)
}
