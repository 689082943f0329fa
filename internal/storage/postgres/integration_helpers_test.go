package postgres

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// envIntegrationDSN задаёт базу для тестов, которым нужен живой PostgreSQL.
const envIntegrationDSN = "WEBSTORE_POSTGRES_TEST_DSN"

// integrationTables очищаются между тестами; каталог и сотрудники остаются из seed-миграции.
var integrationTables = []string{
	"outbox_messages",
	"order_items",
	"orders",
	"user_claims",
	"user_roles",
	"user_logins",
	"roles",
	"users",
}

func openPostgresStoreForIntegrationTest(t *testing.T) *Store {
	t.Helper()

	store := openRawPostgresStoreForIntegrationTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, store.MigrateUp(ctx, 0), "migrate up")
	_, err := store.DB().ExecContext(ctx,
		"TRUNCATE TABLE "+strings.Join(integrationTables, ", ")+" RESTART IDENTITY CASCADE")
	require.NoError(t, err, "truncate integration tables")

	return store
}

func openRawPostgresStoreForIntegrationTest(t *testing.T) *Store {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv(envIntegrationDSN))
	if dsn == "" {
		t.Skipf("%s is not set", envIntegrationDSN)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := Open(ctx, dsn, PoolOptions{MaxOpenConns: 4})
	if err != nil {
		t.Skipf("postgres is not available: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
