// Package cache memoizes provider lookups in Redis.
package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/blake2b"
)

const (
	DefaultSubjectTTL = 24 * time.Hour
	subjectKeyPrefix  = "breakdown:subjects:"
)

// SubjectCache stores bill subject lists keyed by the provider URL they came from.
type SubjectCache struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger zerolog.Logger
}

func NewSubjectCache(rdb redis.UniversalClient, ttl time.Duration, logger zerolog.Logger) *SubjectCache {
	if ttl <= 0 {
		ttl = DefaultSubjectTTL
	}
	return &SubjectCache{rdb: rdb, ttl: ttl, logger: logger}
}

// Get returns the cached subjects for key. Misses and Redis errors both
// report false; errors are logged.
func (c *SubjectCache) Get(ctx context.Context, key string) ([]string, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, HashKey(subjectKeyPrefix, key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Msg("subject cache read failed")
		}
		return nil, false
	}
	var subjects []string
	if err := json.Unmarshal(raw, &subjects); err != nil {
		c.logger.Warn().Err(err).Msg("subject cache entry is corrupt")
		return nil, false
	}
	return subjects, true
}

func (c *SubjectCache) Set(ctx context.Context, key string, subjects []string) {
	if c == nil || c.rdb == nil {
		return
	}
	encoded, err := json.Marshal(subjects)
	if err != nil {
		c.logger.Warn().Err(err).Msg("encode subject cache entry")
		return
	}
	if err := c.rdb.Set(ctx, HashKey(subjectKeyPrefix, key), encoded, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("subject cache write failed")
	}
}

// HashKey returns prefix plus the hex BLAKE2b-256 digest of raw.
func HashKey(prefix, raw string) string {
	sum := blake2b.Sum256([]byte(strings.TrimSpace(raw)))
	return prefix + hex.EncodeToString(sum[:])
}

// NewRedisClient parses a redis:// URL and verifies the server responds.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(redisURL))
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
