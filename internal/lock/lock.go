// Package lock serializes reconciliation of one natural key across
// concurrent sync runs.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired is returned when a lock cannot be acquired in time.
var ErrLockNotAcquired = errors.New("lock not acquired")

// KeyLocker runs fn while holding an exclusive lock on key.
type KeyLocker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Noop runs fn without locking. It is used when Redis is not configured and
// the store's unique natural-key index is the only guard.
type Noop struct{}

func (Noop) WithLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisLocker holds locks as SET NX keys with a random owner token.
type RedisLocker struct {
	rdb       redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	wait      time.Duration
}

func NewRedisLocker(rdb redis.UniversalClient, keyPrefix string, ttl, wait time.Duration) *RedisLocker {
	if keyPrefix == "" {
		keyPrefix = "breakdown:lock:"
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if wait <= 0 {
		wait = ttl
	}
	return &RedisLocker{rdb: rdb, keyPrefix: keyPrefix, ttl: ttl, wait: wait}
}

func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	token, err := l.acquire(ctx, l.keyPrefix+key)
	if err != nil {
		return err
	}
	defer func() {
		// ctx may already be cancelled here
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, _ = releaseScript.Run(releaseCtx, l.rdb, []string{l.keyPrefix + key}, token).Int64()
	}()
	return fn(ctx)
}

func (l *RedisLocker) acquire(ctx context.Context, lockKey string) (string, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)
	backoff := 10 * time.Millisecond

	for {
		ok, err := l.rdb.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return "", err
		}
		if ok {
			return token, nil
		}
		if !time.Now().Before(deadline) {
			return "", ErrLockNotAcquired
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
			if backoff > 500*time.Millisecond {
				backoff = 500 * time.Millisecond
			}
		}
	}
}
