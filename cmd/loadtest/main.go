// Command loadtest нагружает Web API через типизированные клиенты
// с общей resilience-цепочкой и печатает сводку по операциям.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/vladislavdragonenkov/webstore/internal/app"
	"github.com/vladislavdragonenkov/webstore/internal/metrics"
)

type config struct {
	apiURL      string
	mode        loadMode
	total       int
	totalSet    bool
	duration    time.Duration
	concurrency int
	rps         float64
	timeout     time.Duration
	sectionID   int
	users       int
	userTag     string
	output      string
}

func main() {
	_ = godotenv.Load()
	log.SetLevel(log.WarnLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.LookupEnv, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "loadtest: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, lookup app.EnvLookup, out io.Writer) error {
	cfg, err := parseConfig(args, lookup)
	if err != nil {
		return err
	}

	remoteCfg, warnings := app.ReadRemoteConfig(lookup)
	for _, w := range warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	remoteCfg.APIURL = cfg.apiURL
	remoteCfg.IdentityURL = cfg.apiURL
	remoteCfg.AttemptTimeout = cfg.timeout

	services, err := app.NewRemoteServices(remoteCfg,
		app.WithClientMetrics(metrics.NewClientMetricsWithRegisterer(prometheus.NewRegistry())),
		app.WithRemoteLogger(log.WithField("component", "loadtest")),
	)
	if err != nil {
		return err
	}

	col := newCollector()
	t := target{products: services.Products, orders: services.Orders}
	runID := uuid.NewString()[:8]

	startedAt := time.Now()
	if err := dispatchJobs(ctx, cfg, func(ctx context.Context, index int) {
		_ = runScenario(ctx, t, cfg, index, runID, col)
	}); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	result := col.buildReport(startedAt, time.Since(startedAt))

	check := services.BreakerChecker().Check(context.Background())
	result.Breakers = string(check.Status)
	if check.Message != "" {
		result.Breakers += " (" + check.Message + ")"
	}

	printReport(out, result, cfg)
	if cfg.output != "" {
		if err := writeJSONReport(cfg.output, result); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(out, "report saved to %s\n", cfg.output)
	}
	return nil
}

func parseConfig(args []string, lookup app.EnvLookup) (config, error) {
	apiURL := app.DefaultRemoteConfig().APIURL
	if v, ok := lookup(app.EnvAPIURL); ok && strings.TrimSpace(v) != "" {
		apiURL = v
	}

	fs := flag.NewFlagSet("loadtest", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		cfg  config
		mode string
	)
	fs.StringVar(&cfg.apiURL, "api-url", apiURL, "Web API base URL")
	fs.StringVar(&mode, "mode", string(modeMixed), "scenario: browse, order or mixed")
	fs.IntVar(&cfg.total, "total", 200, "number of scenarios (max in duration mode)")
	fs.DurationVar(&cfg.duration, "duration", 0, "run for the given time instead of a fixed count")
	fs.IntVar(&cfg.concurrency, "concurrency", 8, "parallel workers")
	fs.Float64Var(&cfg.rps, "rps", 0, "scenario start rate limit, 0 disables it")
	fs.DurationVar(&cfg.timeout, "timeout", 3*time.Second, "per-call timeout")
	fs.IntVar(&cfg.sectionID, "section", 2, "catalog section used by scenarios")
	fs.IntVar(&cfg.users, "users", 10, "distinct user names for orders")
	fs.StringVar(&cfg.userTag, "user-tag", "load", "user name prefix")
	fs.StringVar(&cfg.output, "output", "", "JSON report path")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "total" {
			cfg.totalSet = true
		}
	})

	parsed, err := parseMode(mode)
	if err != nil {
		return config{}, err
	}
	cfg.mode = parsed

	switch {
	case strings.TrimSpace(cfg.apiURL) == "":
		return config{}, errors.New("--api-url is required")
	case cfg.duration < 0:
		return config{}, errors.New("--duration must be >= 0")
	case cfg.duration == 0 && cfg.total <= 0:
		return config{}, errors.New("--total must be > 0")
	case cfg.concurrency <= 0:
		return config{}, errors.New("--concurrency must be > 0")
	case cfg.rps < 0:
		return config{}, errors.New("--rps must be >= 0")
	case cfg.timeout <= 0:
		return config{}, errors.New("--timeout must be > 0")
	case cfg.users <= 0:
		return config{}, errors.New("--users must be > 0")
	}
	return cfg, nil
}

// dispatchJobs раздаёт индексы сценариев воркерам. В режиме duration
// запуск новых сценариев прекращается по истечении времени или после
// total сценариев, если --total задан явно.
func dispatchJobs(ctx context.Context, cfg config, job func(ctx context.Context, index int)) error {
	stopCtx := ctx
	if cfg.duration > 0 {
		var cancel context.CancelFunc
		stopCtx, cancel = context.WithTimeout(ctx, cfg.duration)
		defer cancel()
	}

	var limiter *rate.Limiter
	if cfg.rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.rps), 1)
	}

	jobs := make(chan int)
	g, gctx := errgroup.WithContext(ctx)
	for range cfg.concurrency {
		g.Go(func() error {
			for index := range jobs {
				job(gctx, index)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		for index := 0; cfg.duration > 0 && !cfg.totalSet || index < cfg.total; index++ {
			if limiter != nil {
				if err := limiter.Wait(stopCtx); err != nil {
					return nil
				}
			}
			select {
			case jobs <- index:
			case <-stopCtx.Done():
				return nil
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
