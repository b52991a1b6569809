package engine

import (
	"context"
	"time"
)

const (
	DefaultChunkSize  = 20
	DefaultChunkDelay = 10 * time.Second
)

// Pending is work started for an item that the throttler waits on before
// the chunk is considered finished.
type Pending interface {
	Wait(ctx context.Context) error
}

// Throttler processes items in fixed-size chunks with a fixed pause between
// chunks. It is a window throttle, not a rate limiter.
type Throttler struct {
	ChunkSize int
	Delay     time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

func NewThrottler(chunkSize int, delay time.Duration) Throttler {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if delay < 0 {
		delay = 0
	}
	return Throttler{ChunkSize: chunkSize, Delay: delay, sleep: sleepContext}
}

// Throttle calls fn for each item in order. After every chunk it waits for
// the chunk's pending work, then pauses for Delay unless it was the last
// chunk. An error from fn aborts the run.
func Throttle[T any](ctx context.Context, t Throttler, items []T, fn func(ctx context.Context, item T) (Pending, error)) error {
	size := t.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	sleep := t.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for start := 0; start < len(items); start += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+size, len(items))

		pending := make([]Pending, 0, end-start)
		for _, item := range items[start:end] {
			p, err := fn(ctx, item)
			if err != nil {
				return err
			}
			if p != nil {
				pending = append(pending, p)
			}
		}
		for _, p := range pending {
			if err := p.Wait(ctx); err != nil {
				return err
			}
		}

		if end < len(items) && t.Delay > 0 {
			if err := sleep(ctx, t.Delay); err != nil {
				return err
			}
		}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
