package cache

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func TestHashKeyIsStableAndPrefixed(t *testing.T) {
	t.Parallel()

	a := HashKey("breakdown:subjects:", "https://api.test/118/bills/hr1/subjects.json?offset=0")
	b := HashKey("breakdown:subjects:", " https://api.test/118/bills/hr1/subjects.json?offset=0 ")
	c := HashKey("breakdown:subjects:", "https://api.test/118/bills/hr2/subjects.json?offset=0")

	if a != b {
		t.Fatalf("expected whitespace-insensitive keys: %s vs %s", a, b)
	}
	if a == c {
		t.Fatalf("expected distinct keys for distinct urls")
	}
	if !strings.HasPrefix(a, "breakdown:subjects:") || len(a) != len("breakdown:subjects:")+64 {
		t.Fatalf("unexpected key shape: %s", a)
	}
}

func TestNilSubjectCacheIsANoop(t *testing.T) {
	t.Parallel()

	cache := NewSubjectCache(nil, 0, zerolog.Nop())
	cache.Set(context.Background(), "k", []string{"Health"})
	if _, ok := cache.Get(context.Background(), "k"); ok {
		t.Fatalf("expected miss without redis client")
	}
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestSubjectCacheRoundTrip(t *testing.T) {
	t.Parallel()

	mr, rdb := newTestRedis(t)
	cache := NewSubjectCache(rdb, time.Hour, zerolog.Nop())
	ctx := context.Background()
	key := "https://api.test/118/bills/hr1/subjects.json?offset=0"

	if _, ok := cache.Get(ctx, key); ok {
		t.Fatalf("expected miss before set")
	}
	cache.Set(ctx, key, []string{"Health", "Medicare"})

	got, ok := cache.Get(ctx, key)
	if !ok || !reflect.DeepEqual(got, []string{"Health", "Medicare"}) {
		t.Fatalf("unexpected cached subjects %v (hit=%v)", got, ok)
	}
	if ttl := mr.TTL(HashKey(subjectKeyPrefix, key)); ttl != time.Hour {
		t.Fatalf("unexpected entry ttl %s", ttl)
	}

	mr.FastForward(time.Hour + time.Second)
	if _, ok := cache.Get(ctx, key); ok {
		t.Fatalf("expected miss after ttl")
	}
}

func TestSubjectCacheMissesOnCorruptEntry(t *testing.T) {
	t.Parallel()

	mr, rdb := newTestRedis(t)
	cache := NewSubjectCache(rdb, 0, zerolog.Nop())
	key := "https://api.test/118/bills/s9/subjects.json?offset=0"

	if err := mr.Set(HashKey(subjectKeyPrefix, key), "{not json"); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}
	if got, ok := cache.Get(context.Background(), key); ok {
		t.Fatalf("expected miss on corrupt entry, got %v", got)
	}
}

func TestNewRedisClient(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisClient returned error: %v", err)
	}
	_ = client.Close()

	if _, err := NewRedisClient(context.Background(), "not a url"); err == nil {
		t.Fatalf("expected parse error")
	}
}
