// Package testutil provides helpers for integration tests that need real
// Redis or Postgres instances. Tests are skipped when the backing service
// is unavailable unless TEST_REQUIRE_INFRA is set.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"testing"
	"time"

	// Import pgx driver for database/sql compatibility in tests.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func requireInfra() bool {
	return os.Getenv("TEST_REQUIRE_INFRA") != ""
}

// SetupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func SetupTestRedis(t testing.TB) *redis.Client {
	t.Helper()

	addr := getEnvOrDefault("TEST_REDIS_ADDR", "localhost:6379")
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   15, // keep test keys away from any local dev data
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if cerr := client.Close(); cerr != nil {
			t.Logf("warning: failed to close redis client after ping error: %v", cerr)
		}
		if requireInfra() {
			t.Fatalf("Redis not available for testing at %s: %v", addr, err)
		}
		t.Skipf("Redis not available for testing at %s: %v", addr, err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush test redis db: %v", err)
	}
	return client
}

// SetupTestDB creates a Postgres connection for testing.
// Tests will be skipped if Postgres is not available.
func SetupTestDB(t testing.TB) *sql.DB {
	t.Helper()

	host := getEnvOrDefault("TEST_DB_HOST", "localhost")
	port := getEnvOrDefault("TEST_DB_PORT", "5432")
	user := getEnvOrDefault("TEST_DB_USER", "storefront")
	password := getEnvOrDefault("TEST_DB_PASSWORD", "storefront")
	name := getEnvOrDefault("TEST_DB_NAME", "storefront_test")

	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		user, password, net.JoinHostPort(host, port), name)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if cerr := db.Close(); cerr != nil {
			t.Logf("warning: failed to close db after ping error: %v", cerr)
		}
		if requireInfra() {
			t.Fatalf("Postgres not available for testing at %s:%s: %v", host, port, err)
		}
		t.Skipf("Postgres not available for testing at %s:%s: %v", host, port, err)
	}

	// Start each test from a clean table.
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS kv_entries"); err != nil {
		t.Fatalf("reset kv_entries: %v", err)
	}
	return db
}
