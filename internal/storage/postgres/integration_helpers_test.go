package postgres

import (
	"context"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"
)

// integrationConfigFromEnv читает параметры тестовой БД. Без SQL_TEST_HOSTNAME
// (или SQL_HOSTNAME) интеграционные тесты пропускаются.
func integrationConfigFromEnv(t *testing.T) Config {
	t.Helper()

	get := func(keys ...string) string {
		for _, key := range keys {
			if v := strings.TrimSpace(os.Getenv(key)); v != "" {
				return v
			}
		}
		return ""
	}

	cfg := DefaultConfig()
	cfg.Host = get("SQL_TEST_HOSTNAME", "SQL_HOSTNAME")
	if cfg.Host == "" {
		t.Skip("postgres is not configured for integration tests: set SQL_TEST_HOSTNAME")
	}
	if port := get("SQL_TEST_PORT", "SQL_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	cfg.User = get("SQL_TEST_USER", "SQL_USER")
	cfg.Password = get("SQL_TEST_PASSWORD", "SQL_PASSWORD")
	cfg.Database = get("SQL_TEST_DBNAME", "SQL_DBNAME")
	if mode := get("SQL_TEST_SSLMODE", "SQL_SSLMODE"); mode != "" {
		cfg.SSLMode = mode
	}
	cfg.SSLRootCert = get("SQL_TEST_SSLROOTCERT", "SQL_SSLROOTCERT")
	cfg.ConnectTimeout = 2 * time.Second
	return cfg
}

func openRawStoreForIntegrationTest(t *testing.T) *Store {
	t.Helper()

	cfg := integrationConfigFromEnv(t)
	store, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		t.Skipf("postgres is not available for integration tests: %v", err)
	}
	return store
}

func openStoreForIntegrationTest(t *testing.T) *Store {
	t.Helper()

	store := openRawStoreForIntegrationTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := store.MigrateUp(ctx, 0); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	truncateOrdersForIntegrationTest(t, store)

	return store
}

// truncateOrdersForIntegrationTest очищает таблицу, не сбрасывая identity:
// id никогда не переиспользуются.
func truncateOrdersForIntegrationTest(t *testing.T, store *Store) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := store.Connect(ctx)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer release(conn)

	if _, err := conn.Exec(ctx, `TRUNCATE TABLE orders CONTINUE IDENTITY`); err != nil {
		t.Fatalf("truncate orders: %v", err)
	}
}
