package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/IBM/sarama/mocks"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	healthcheck "github.com/vladislavdragonenkov/webstore/internal/health"
	"github.com/vladislavdragonenkov/webstore/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/webstore/internal/service/outbox"
	"github.com/vladislavdragonenkov/webstore/internal/version"
)

func TestRun_MemoryGracefulShutdown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.GRPCAddr = "127.0.0.1:0"
	cfg.MetricsAddr = "127.0.0.1:0"
	cfg.ShutdownTimeout = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(150 * time.Millisecond)
		cancel()
	}()

	err := Run(ctx, cfg)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_InvalidStorageDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StorageDriver = "invalid-driver"

	err := Run(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage driver")
}

func TestRun_AddressInUse(t *testing.T) {
	busy := httptest.NewServer(http.NotFoundHandler())
	defer busy.Close()

	cfg := DefaultConfig()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.GRPCAddr = "127.0.0.1:0"
	cfg.MetricsAddr = busy.Listener.Addr().String()

	err := Run(context.Background(), cfg)
	require.Error(t, err)
	assert.False(t, errors.Is(err, context.Canceled))
}

func TestMetricsMux_Endpoints(t *testing.T) {
	handler := healthcheck.NewHandler(version.GetVersion())
	srv := httptest.NewServer(newMetricsMux(handler))
	defer srv.Close()

	for _, path := range []string{"/metrics", "/healthz", "/livez", "/readyz"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err, path)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

type stopRecorder struct {
	graceful chan struct{}
	stopped  bool
}

func (s *stopRecorder) GracefulStop() { <-s.graceful }
func (s *stopRecorder) Stop() {
	s.stopped = true
	close(s.graceful)
}

func TestStopGRPC_ForcesAfterTimeout(t *testing.T) {
	logger, hook := test.NewNullLogger()
	server := &stopRecorder{graceful: make(chan struct{})}

	stopGRPC(server, 10*time.Millisecond, logger.WithField("test", "grpc"))

	assert.True(t, server.stopped)
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "принудительно")
}

func TestShutdownHelpers_Nil(t *testing.T) {
	logger, _ := test.NewNullLogger()
	shutdownHTTP(nil, time.Second, logger.WithField("test", "shutdown"))
	eventSinks{}.close(logger.WithField("test", "shutdown"))
}

func TestEventSinks_WithoutKafka(t *testing.T) {
	logger, _ := test.NewNullLogger()

	sinks := newEventSinks(DefaultConfig(), logger.WithField("test", "kafka"))

	assert.NotNil(t, sinks.publisher)
	assert.Nil(t, sinks.dlq)
	assert.Nil(t, sinks.producer)
	assert.Len(t, sinks.workerOptions(outbox.WithBatchSize(1)), 1)
}

func TestEventSinks_WithProducer(t *testing.T) {
	logger, hook := test.NewNullLogger()
	sync := mocks.NewSyncProducer(t, nil)
	producer := kafka.NewProducerWithSync(sync)

	sinks := eventSinks{
		publisher: kafka.NewOutboxPublisher(producer, ""),
		dlq:       kafka.NewOutboxPublisher(producer, kafka.TopicDeadLetterQueue),
		producer:  producer,
	}
	assert.Len(t, sinks.workerOptions(outbox.WithBatchSize(1)), 2)

	sinks.close(logger.WithField("test", "kafka"))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "kafka producer closed", hook.LastEntry().Message)
}
