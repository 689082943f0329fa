package clients_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/webstore/internal/addresses"
	"github.com/vladislavdragonenkov/webstore/internal/metrics"
	"github.com/vladislavdragonenkov/webstore/internal/resilience"
	"github.com/vladislavdragonenkov/webstore/internal/service/orders"
	"github.com/vladislavdragonenkov/webstore/internal/storage/memory"
	"github.com/vladislavdragonenkov/webstore/internal/transport"
	"github.com/vladislavdragonenkov/webstore/internal/webapi"
)

func noSleep(context.Context, time.Duration) error { return nil }

func newRegistry(maxAttempts, threshold int) *resilience.Registry {
	return resilience.NewRegistry(
		resilience.RetryConfig{MaxAttempts: maxAttempts, Base: 2, Unit: time.Millisecond},
		resilience.BreakerConfig{FailureThreshold: threshold, BreakDuration: time.Minute},
		resilience.WithRegistrySleep(noSleep),
	)
}

func newTransport(t *testing.T, registry *resilience.Registry, name, baseURL string) *transport.Client {
	t.Helper()
	c, err := transport.New(
		transport.Endpoint{Name: name, BaseURL: baseURL},
		transport.WithPolicy(registry.Pipeline(name)),
		transport.WithCallTimeout(5*time.Second),
	)
	require.NoError(t, err)
	return c
}

// newWebAPI поднимает настоящий роутер Web API над in-memory хранилищами.
func newWebAPI(t *testing.T) *httptest.Server {
	t.Helper()
	registry := prometheus.NewRegistry()
	catalog := memory.NewSeededProductData()
	users, roles := memory.NewIdentityStores()
	logger, _ := test.NewNullLogger()

	router := webapi.NewRouter(webapi.Services{
		Employees: memory.NewEmployeesData(memory.SeedEmployees()),
		Products:  catalog,
		Orders: orders.NewService(memory.NewOrderRepository(), catalog,
			orders.WithOutbox(memory.NewOutboxRepository()),
			orders.WithMetrics(metrics.NewOrderMetricsWithRegisterer(registry))),
		Values: memory.NewValuesService(5),
		Users:  users,
		Roles:  roles,
	}, webapi.WithLogger(log.NewEntry(logger)))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

// newAPIClient возвращает транспорт к Web API с быстрыми повторами.
func newAPIClient(t *testing.T) *transport.Client {
	t.Helper()
	srv := newWebAPI(t)
	return newTransport(t, newRegistry(3, 5), addresses.EndpointAPI, srv.URL)
}
