// Package dbtest opens throwaway in-memory stores for package tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm/logger"

	"horse.fit/breakdown/internal/db"
)

// Open returns a migrated pool backed by a private in-memory SQLite database.
// The pool holds a single connection so the database lives as long as the test.
func Open(t testing.TB) *db.Pool {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.Open(ctx, sqlite.Open("file::memory:"), db.PoolOptions{
		MinConns: 1,
		MaxConns: 1,
		LogLevel: logger.Silent,
	})
	if err != nil {
		t.Fatalf("open sqlite pool: %v", err)
	}
	t.Cleanup(func() {
		_ = pool.Close()
	})
	return pool
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
