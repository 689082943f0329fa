package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/webstore/internal/app"
	"github.com/vladislavdragonenkov/webstore/internal/storage/postgres"
)

func mapLookup(values map[string]string) app.EnvLookup {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

type fakeMigrator struct {
	state    postgres.MigrationState
	upSteps  []int
	down     []int
	upErr    error
	statsErr error
}

func (f *fakeMigrator) MigrateUp(_ context.Context, steps int) error {
	f.upSteps = append(f.upSteps, steps)
	return f.upErr
}

func (f *fakeMigrator) MigrateDown(_ context.Context, steps int) error {
	f.down = append(f.down, steps)
	return nil
}

func (f *fakeMigrator) MigrationStatus(context.Context) (postgres.MigrationState, error) {
	return f.state, f.statsErr
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"-direction=DOWN"}, mapLookup(map[string]string{
		app.EnvPostgresDSN: " postgres://env ",
	}))
	require.NoError(t, err)
	assert.Equal(t, "down", opts.direction)
	assert.Equal(t, 1, opts.steps)
	assert.Equal(t, "postgres://env", opts.dsn)

	opts, err = parseOptions([]string{"-steps=2", "-dsn=postgres://flag"}, mapLookup(map[string]string{
		app.EnvPostgresDSN: "postgres://env",
	}))
	require.NoError(t, err)
	assert.Equal(t, "up", opts.direction)
	assert.Equal(t, 2, opts.steps)
	assert.Equal(t, "postgres://flag", opts.dsn)
}

func TestParseOptions_Errors(t *testing.T) {
	_, err := parseOptions([]string{"-direction=status"}, mapLookup(nil))
	assert.ErrorContains(t, err, app.EnvPostgresDSN)

	_, err = parseOptions([]string{"-direction=bad", "-dsn=x"}, mapLookup(nil))
	assert.ErrorContains(t, err, "unsupported direction")

	_, err = parseOptions([]string{"-steps=many"}, mapLookup(nil))
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	m := &fakeMigrator{state: postgres.MigrationState{Version: 2, Applied: 2, Available: 3}}
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), m, options{direction: "up", steps: 1}, &out))
	assert.Equal(t, []int{1}, m.upSteps)
	assert.Equal(t, "migrate up ok: version=2 applied=2 pending=1\n", out.String())

	out.Reset()
	require.NoError(t, run(context.Background(), m, options{direction: "status"}, &out))
	assert.Equal(t, "migration status: version=2 applied=2 pending=1\n", out.String())

	out.Reset()
	require.NoError(t, run(context.Background(), m, options{direction: "down", steps: 1}, &out))
	assert.Equal(t, []int{1}, m.down)
}

func TestRun_PropagatesErrors(t *testing.T) {
	m := &fakeMigrator{upErr: errors.New("locked")}
	err := run(context.Background(), m, options{direction: "up"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "migrate up failed: locked")

	m = &fakeMigrator{statsErr: errors.New("gone")}
	err = run(context.Background(), m, options{direction: "status"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "migration status failed: gone")
}

func TestFailExits(t *testing.T) {
	if os.Getenv("MIGRATE_TEST_FAIL_EXIT") == "1" {
		fail("forced failure %d", 42)
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestFailExits")
	cmd.Env = append(os.Environ(), "MIGRATE_TEST_FAIL_EXIT=1")
	err := cmd.Run()
	require.Error(t, err)
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.NotZero(t, exitErr.ExitCode())
}
