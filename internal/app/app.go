// Package app — корень композиции WebStore: выбирает реализации хранилищ
// для Web API или собирает типизированных клиентов удалённого API.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	healthcheck "github.com/vladislavdragonenkov/webstore/internal/health"
	"github.com/vladislavdragonenkov/webstore/internal/metrics"
	"github.com/vladislavdragonenkov/webstore/internal/service/outbox"
	"github.com/vladislavdragonenkov/webstore/internal/version"
	"github.com/vladislavdragonenkov/webstore/internal/webapi"
)

// Run поднимает Web API, gRPC health, сервер метрик и outbox worker и
// работает до отмены ctx или падения любого из них.
func Run(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := log.WithField("component", "app")
	registerer := prometheus.DefaultRegisterer

	services, err := NewLocalServices(ctx, cfg, registerer, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := services.Close(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}()

	sinks := newEventSinks(cfg, logger)
	defer sinks.close(logger)

	healthHandler := healthcheck.NewHandler(version.Get().Version)
	if services.StorageChecker != nil {
		healthHandler.RegisterChecker("storage", services.StorageChecker)
	}

	listeners, err := listen(cfg.HTTPAddr, cfg.GRPCAddr, cfg.MetricsAddr)
	if err != nil {
		return err
	}

	apiServer := &http.Server{
		Handler: webapi.NewRouter(services.Services,
			webapi.WithLogger(logger.WithField("layer", "http")),
			webapi.WithMetrics(metrics.NewHTTPMetricsWithRegisterer(registerer)),
		),
		ReadHeaderTimeout: 5 * time.Second,
	}
	metricsServer := &http.Server{Handler: newMetricsMux(healthHandler), ReadHeaderTimeout: 5 * time.Second}
	grpcServer, grpcHealth := newGRPCServer(registerer, logger)

	outboxMetrics := metrics.NewOutboxMetricsWithRegisterer(registerer)
	worker := outbox.NewWorker(services.Outbox, sinks.publisher, sinks.workerOptions(
		outbox.WithLogger(logger.WithField("component", "outbox-worker")),
		outbox.WithMetrics(outboxMetrics),
		outbox.WithPollInterval(cfg.OutboxPollInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
	)...)
	cleanup := outbox.NewCleanupWorker(services.Outbox,
		outbox.WithCleanupLogger(logger.WithField("component", "outbox-cleanup")),
		outbox.WithCleanupMetrics(outboxMetrics),
		outbox.WithCleanupInterval(cfg.OutboxCleanupInterval),
		outbox.WithRetention(cfg.OutboxRetention),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("web api слушает %s", listeners[0].Addr())
		return serveHTTP(apiServer, listeners[0])
	})
	g.Go(func() error {
		logger.Infof("gRPC сервер слушает %s", listeners[1].Addr())
		return grpcServer.Serve(listeners[1])
	})
	g.Go(func() error {
		logger.Infof("метрики и health checks доступны по адресу %s", listeners[2].Addr())
		return serveHTTP(metricsServer, listeners[2])
	})
	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})
	g.Go(func() error {
		cleanup.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("получен сигнал остановки, останавливаем серверы")
		grpcHealth.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		shutdownHTTP(apiServer, cfg.shutdownTimeout(), logger)
		shutdownHTTP(metricsServer, cfg.shutdownTimeout(), logger)
		stopGRPC(grpcServer, cfg.shutdownTimeout(), logger)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func listen(addrs ...string) ([]net.Listener, error) {
	listeners := make([]net.Listener, 0, len(addrs))
	for _, addr := range addrs {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			for _, l := range listeners {
				_ = l.Close()
			}
			return nil, err
		}
		listeners = append(listeners, lis)
	}
	return listeners, nil
}

func newMetricsMux(healthHandler *healthcheck.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	return mux
}

func serveHTTP(srv *http.Server, lis net.Listener) error {
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, timeout time.Duration, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}

type grpcStopper interface {
	GracefulStop()
	Stop()
}

func stopGRPC(server grpcStopper, timeout time.Duration, logger *log.Entry) {
	stopped := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(timeout):
		logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
		server.Stop()
	}
}
