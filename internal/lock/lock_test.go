package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestNoopRunsFunction(t *testing.T) {
	t.Parallel()

	called := false
	err := Noop{}.WithLock(context.Background(), "hr1-118", func(context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Fatalf("expected fn to run, called=%v err=%v", called, err)
	}
}

func TestNoopPropagatesError(t *testing.T) {
	t.Parallel()

	want := errors.New("write failed")
	if err := (Noop{}).WithLock(context.Background(), "k", func(context.Context) error { return want }); !errors.Is(err, want) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRedisLockerFailsWithoutServer(t *testing.T) {
	t.Parallel()

	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()

	locker := NewRedisLocker(rdb, "", time.Second, 100*time.Millisecond)
	called := false
	err := locker.WithLock(context.Background(), "hr1-118", func(context.Context) error {
		called = true
		return nil
	})
	if err == nil {
		t.Fatalf("expected acquire error without redis")
	}
	if called {
		t.Fatalf("fn must not run without the lock")
	}
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisLockerSerializesSameKey(t *testing.T) {
	t.Parallel()

	_, rdb := newTestRedis(t)
	locker := NewRedisLocker(rdb, "test:", 5*time.Second, 5*time.Second)

	var inFlight, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithLock(context.Background(), "hr1-118", func(context.Context) error {
				n := inFlight.Add(1)
				for {
					seen := peak.Load()
					if n <= seen || peak.CompareAndSwap(seen, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				inFlight.Add(-1)
				return nil
			})
			if err != nil {
				t.Errorf("WithLock returned error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := peak.Load(); got != 1 {
		t.Fatalf("expected one holder at a time, peak was %d", got)
	}
}

func TestRedisLockerReleasesAfterRun(t *testing.T) {
	t.Parallel()

	mr, rdb := newTestRedis(t)
	locker := NewRedisLocker(rdb, "test:", 5*time.Second, time.Second)

	err := locker.WithLock(context.Background(), "hr1-118", func(context.Context) error {
		if !mr.Exists("test:hr1-118") {
			t.Errorf("expected lock key while fn runs")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithLock returned error: %v", err)
	}
	if mr.Exists("test:hr1-118") {
		t.Fatalf("expected lock key to be released")
	}
}

func TestRedisLockerTimesOutWhileHeld(t *testing.T) {
	t.Parallel()

	_, rdb := newTestRedis(t)
	holder := NewRedisLocker(rdb, "test:", 5*time.Second, time.Second)
	waiter := NewRedisLocker(rdb, "test:", 5*time.Second, 50*time.Millisecond)

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- holder.WithLock(context.Background(), "s9-118", func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	called := false
	started := time.Now()
	err := waiter.WithLock(context.Background(), "s9-118", func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrLockNotAcquired) {
		t.Fatalf("expected ErrLockNotAcquired, got %v", err)
	}
	if called {
		t.Fatalf("fn must not run without the lock")
	}
	if elapsed := time.Since(started); elapsed < 50*time.Millisecond {
		t.Fatalf("gave up before the wait elapsed: %s", elapsed)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("holder returned error: %v", err)
	}
}

func TestRedisLockerExpiredHolderDoesNotReleaseNewOwner(t *testing.T) {
	t.Parallel()

	mr, rdb := newTestRedis(t)
	locker := NewRedisLocker(rdb, "test:", time.Second, 100*time.Millisecond)

	var newToken string
	err := locker.WithLock(context.Background(), "hr7-118", func(ctx context.Context) error {
		mr.FastForward(2 * time.Second)
		if mr.Exists("test:hr7-118") {
			t.Errorf("expected lock key to expire after ttl")
		}
		token, err := locker.acquire(ctx, "test:hr7-118")
		newToken = token
		return err
	})
	if err != nil {
		t.Fatalf("WithLock returned error: %v", err)
	}

	got, err := mr.Get("test:hr7-118")
	if err != nil {
		t.Fatalf("new owner's key was deleted: %v", err)
	}
	if got != newToken {
		t.Fatalf("lock key holds %q, want new owner token %q", got, newToken)
	}
}

func TestRedisLockerReacquiresAfterTTL(t *testing.T) {
	t.Parallel()

	mr, rdb := newTestRedis(t)
	locker := NewRedisLocker(rdb, "test:", time.Second, 50*time.Millisecond)

	if _, err := locker.acquire(context.Background(), "test:hr8-118"); err != nil {
		t.Fatalf("acquire returned error: %v", err)
	}
	if ttl := mr.TTL("test:hr8-118"); ttl != time.Second {
		t.Fatalf("unexpected lock ttl %s", ttl)
	}
	mr.FastForward(1100 * time.Millisecond)

	called := false
	if err := locker.WithLock(context.Background(), "hr8-118", func(context.Context) error {
		called = true
		return nil
	}); err != nil || !called {
		t.Fatalf("expected abandoned lock to be reacquired, called=%v err=%v", called, err)
	}
}
