package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSchedulerRunsImmediatelyAndRepeats(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	var running atomic.Int32
	var overlapped atomic.Bool
	scheduler, err := NewScheduler(5*time.Millisecond, func(context.Context) error {
		if running.Add(1) > 1 {
			overlapped.Store(true)
		}
		defer running.Add(-1)
		if runs.Add(1) >= 3 {
			cancel()
		}
		time.Sleep(8 * time.Millisecond)
		return errors.New("keeps going")
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewScheduler returned error: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- scheduler.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	if runs.Load() < 3 {
		t.Fatalf("expected at least 3 runs, got %d", runs.Load())
	}
	if overlapped.Load() {
		t.Fatal("scheduled runs overlapped")
	}
}

func TestNewSchedulerValidates(t *testing.T) {
	t.Parallel()

	if _, err := NewScheduler(0, func(context.Context) error { return nil }, zerolog.Nop()); err == nil {
		t.Fatal("expected interval error")
	}
	if _, err := NewScheduler(time.Second, nil, zerolog.Nop()); err == nil {
		t.Fatal("expected job error")
	}
}
