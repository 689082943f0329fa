package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrator_PostgresLifecycle(t *testing.T) {
	store := openRawPostgresStoreForIntegrationTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	status := func() MigrationState {
		t.Helper()
		state, err := store.MigrationStatus(ctx)
		require.NoError(t, err)
		return state
	}

	require.NoError(t, store.MigrateDown(ctx, 100))
	assert.Equal(t, MigrationState{Available: 3}, status())

	require.NoError(t, store.MigrateUp(ctx, 2))
	assert.Equal(t, int64(2), status().Version)

	require.NoError(t, store.MigrateUp(ctx, 0))
	require.NoError(t, store.MigrateUp(ctx, 0))
	state := status()
	assert.Equal(t, int64(3), state.Version)
	assert.Zero(t, state.Pending())

	require.NoError(t, store.MigrateDown(ctx, 2))
	assert.Equal(t, MigrationState{Version: 1, Applied: 1, Available: 3}, status())

	require.NoError(t, store.MigrateDown(ctx, 0))
	assert.Equal(t, 0, status().Applied)

	require.NoError(t, store.MigrateDown(ctx, 1), "rollback on empty schema is a no-op")
	require.NoError(t, store.MigrateUp(ctx, 0))
}
