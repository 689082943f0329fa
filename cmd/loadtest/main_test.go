package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/webstore/internal/app"
	"github.com/vladislavdragonenkov/webstore/internal/domain"
	"github.com/vladislavdragonenkov/webstore/internal/resilience"
	"github.com/vladislavdragonenkov/webstore/internal/webapi"
)

func mapLookup(values map[string]string) app.EnvLookup {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	logger, _ := test.NewNullLogger()
	entry := logger.WithField("test", "loadtest")

	local, err := app.NewLocalServices(context.Background(), app.DefaultConfig(), prometheus.NewRegistry(), entry)
	require.NoError(t, err)
	srv := httptest.NewServer(webapi.NewRouter(local.Services, webapi.WithLogger(entry)))
	t.Cleanup(func() {
		srv.Close()
		_ = local.Close()
	})
	return srv
}

func TestParseMode(t *testing.T) {
	for _, value := range []string{"browse", "order", "mixed"} {
		mode, err := parseMode(value)
		require.NoError(t, err)
		assert.Equal(t, loadMode(value), mode)
	}

	_, err := parseMode("stress")
	assert.EqualError(t, err, "unsupported mode: stress")
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := parseConfig(nil, mapLookup(nil))
	require.NoError(t, err)

	assert.Equal(t, app.DefaultRemoteConfig().APIURL, cfg.apiURL)
	assert.Equal(t, modeMixed, cfg.mode)
	assert.Equal(t, 200, cfg.total)
	assert.False(t, cfg.totalSet)
	assert.Equal(t, 8, cfg.concurrency)
	assert.Equal(t, 3*time.Second, cfg.timeout)
	assert.Equal(t, 2, cfg.sectionID)
}

func TestParseConfig_EnvAndFlags(t *testing.T) {
	cfg, err := parseConfig(
		[]string{"--mode", "order", "--total", "5", "--rps", "20", "--output", "r.json"},
		mapLookup(map[string]string{app.EnvAPIURL: "http://api:9000"}),
	)
	require.NoError(t, err)

	assert.Equal(t, "http://api:9000", cfg.apiURL)
	assert.Equal(t, modeOrder, cfg.mode)
	assert.Equal(t, 5, cfg.total)
	assert.True(t, cfg.totalSet)
	assert.InDelta(t, 20.0, cfg.rps, 0.0001)
	assert.Equal(t, "r.json", cfg.output)
}

func TestParseConfig_Invalid(t *testing.T) {
	cases := map[string][]string{
		"mode":        {"--mode", "x"},
		"total":       {"--total", "0"},
		"duration":    {"--duration", "-1s"},
		"concurrency": {"--concurrency", "0"},
		"rps":         {"--rps", "-1"},
		"timeout":     {"--timeout", "0s"},
		"users":       {"--users", "0"},
		"unknown":     {"--nope"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseConfig(args, mapLookup(nil))
			assert.Error(t, err)
		})
	}
}

func TestDispatchJobs_CountMode(t *testing.T) {
	cfg := config{total: 50, concurrency: 4}

	var mu sync.Mutex
	seen := make(map[int]int)
	err := dispatchJobs(context.Background(), cfg, func(_ context.Context, index int) {
		mu.Lock()
		seen[index]++
		mu.Unlock()
	})
	require.NoError(t, err)

	require.Len(t, seen, 50)
	for index := range 50 {
		assert.Equal(t, 1, seen[index], "index %d", index)
	}
}

func TestDispatchJobs_DurationMode(t *testing.T) {
	cfg := config{duration: 50 * time.Millisecond, concurrency: 2}

	var calls atomic.Int64
	start := time.Now()
	err := dispatchJobs(context.Background(), cfg, func(context.Context, int) {
		calls.Add(1)
		time.Sleep(time.Millisecond)
	})
	require.NoError(t, err)

	assert.Positive(t, calls.Load())
	assert.Less(t, time.Since(start), time.Second)
}

func TestDispatchJobs_DurationWithTotalCap(t *testing.T) {
	cfg := config{duration: time.Minute, total: 7, totalSet: true, concurrency: 3}

	var calls atomic.Int64
	err := dispatchJobs(context.Background(), cfg, func(context.Context, int) { calls.Add(1) })
	require.NoError(t, err)
	assert.EqualValues(t, 7, calls.Load())
}

func TestDispatchJobs_RateLimited(t *testing.T) {
	cfg := config{total: 5, concurrency: 5, rps: 50}

	start := time.Now()
	err := dispatchJobs(context.Background(), cfg, func(context.Context, int) {})
	require.NoError(t, err)

	// первый токен доступен сразу, остальные четыре по 20ms
	assert.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)
}

func TestDispatchJobs_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := dispatchJobs(ctx, config{total: 1000, concurrency: 2}, func(context.Context, int) {})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCollectorAndReport(t *testing.T) {
	col := newCollector()
	col.record(scenarioKey, 10*time.Millisecond, nil)
	col.record(scenarioKey, 30*time.Millisecond, domain.ErrNotFound)
	col.record("GetProducts", 5*time.Millisecond, nil)
	col.record("GetProducts", 7*time.Millisecond, &resilience.OpenError{Endpoint: "webstore-api"})

	result := col.buildReport(time.Unix(0, 0), 2*time.Second)

	assert.EqualValues(t, 2, result.TotalScenarios)
	assert.EqualValues(t, 1, result.SuccessScenarios)
	assert.EqualValues(t, 1, result.FailedScenarios)
	assert.InDelta(t, 0.5, result.ErrorRate, 0.0001)
	assert.InDelta(t, 1.0, result.RPS, 0.0001)
	assert.InDelta(t, 10.0, result.ScenarioLatencyMs.Min, 0.0001)
	assert.InDelta(t, 30.0, result.ScenarioLatencyMs.Max, 0.0001)
	assert.InDelta(t, 20.0, result.ScenarioLatencyMs.P50, 0.0001)

	products := result.Operations["GetProducts"]
	assert.EqualValues(t, 2, products.Calls)
	assert.Equal(t, map[string]int64{"ok": 1, "circuit_open": 1}, products.Classes)
	assert.Equal(t, map[string]int64{"ok": 1, "not_found": 1}, result.Operations[scenarioKey].Classes)
}

func TestPercentile(t *testing.T) {
	assert.Zero(t, percentile(nil, 50))
	assert.InDelta(t, 4.0, percentile([]float64{4}, 99), 0.0001)

	sorted := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 3.0, percentile(sorted, 50), 0.0001)
	assert.InDelta(t, 4.8, percentile(sorted, 95), 0.0001)
	assert.InDelta(t, 5.0, percentile(sorted, 100), 0.0001)

	assert.Equal(t, latencySummary{}, summarize(nil))
	assert.Zero(t, ratio(1, 0))
}

func TestErrorClass(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{&resilience.OpenError{Endpoint: "webstore-api"}, "circuit_open"},
		{fmt.Errorf("call: %w", context.DeadlineExceeded), "timeout"},
		{domain.ErrNotFound, "not_found"},
		{domain.ErrConflict, "conflict"},
		{domain.ErrBadRequest, "bad_request"},
		{domain.ErrMalformedData, "malformed"},
		{domain.ErrTransport, "transport"},
		{errors.New("boom"), "other"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, errorClass(tc.err), "%v", tc.err)
	}
}

func TestWriteJSONReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, writeJSONReport(path, report{TotalScenarios: 3, Breakers: "healthy"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.EqualValues(t, 3, decoded.TotalScenarios)
	assert.Equal(t, "healthy", decoded.Breakers)

	assert.Error(t, writeJSONReport(".", report{}))
	assert.Error(t, writeJSONReport("../escape.json", report{}))
}

func TestPrintReport(t *testing.T) {
	result := report{
		TotalScenarios:   4,
		SuccessScenarios: 4,
		Breakers:         "healthy",
		Operations: map[string]operationReport{
			scenarioKey:   {Calls: 4},
			"GetProducts": {Calls: 4, Classes: map[string]int64{"ok": 4}},
		},
	}

	var out bytes.Buffer
	printReport(&out, result, config{mode: modeBrowse, total: 4})

	text := out.String()
	assert.Contains(t, text, "mode=browse run=count:4 total=4 success=4 failed=0")
	assert.Contains(t, text, "GetProducts: calls=4 failed=0")
	assert.Contains(t, text, "classes=ok:4")
	assert.NotContains(t, text, scenarioKey+":")
	assert.Contains(t, text, "breakers: healthy")
}

func TestRunTarget(t *testing.T) {
	assert.Equal(t, "count:10", runTarget(config{total: 10}))
	assert.Equal(t, "duration:1s", runTarget(config{duration: time.Second, total: 10}))
	assert.Equal(t, "duration:1s,max-total:10", runTarget(config{duration: time.Second, total: 10, totalSet: true}))
}

func TestRun_AgainstLocalAPI(t *testing.T) {
	srv := newAPI(t)
	output := filepath.Join(t.TempDir(), "report.json")

	var out bytes.Buffer
	err := run(context.Background(),
		[]string{"--api-url", srv.URL, "--mode", "mixed", "--total", "8", "--concurrency", "2", "--output", output},
		mapLookup(nil), &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "total=8 success=8 failed=0")
	assert.Contains(t, text, "CreateOrder: calls=2 failed=0")
	assert.Contains(t, text, "GetProductByID: calls=6 failed=0")
	assert.Contains(t, text, "breakers: healthy")
	assert.FileExists(t, output)
}

func TestRun_UnreachableAPIOpensBreaker(t *testing.T) {
	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()

	env := map[string]string{
		app.EnvRetryMaxAttempts: "1",
		app.EnvBreakerThreshold: "2",
		app.EnvBreakerDuration:  "1m",
	}

	var out bytes.Buffer
	err := run(context.Background(),
		[]string{"--api-url", url, "--mode", "browse", "--total", "6", "--concurrency", "1"},
		mapLookup(env), &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "total=6 success=0 failed=6")
	assert.Contains(t, text, "classes=circuit_open:4,transport:2")
	assert.Contains(t, text, "breakers: degraded (webstore-api=open)")
}
