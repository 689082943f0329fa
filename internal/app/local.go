package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/webstore/internal/health"
	"github.com/vladislavdragonenkov/webstore/internal/metrics"
	"github.com/vladislavdragonenkov/webstore/internal/service/orders"
	"github.com/vladislavdragonenkov/webstore/internal/storage/memory"
	"github.com/vladislavdragonenkov/webstore/internal/storage/postgres"
	"github.com/vladislavdragonenkov/webstore/internal/webapi"
)

// LocalServices — реализации ресурсов, которые Web API обслуживает сам.
type LocalServices struct {
	webapi.Services

	Outbox domain.OutboxRepository
	// StorageChecker проверяет базу данных; nil для in-memory хранилищ.
	StorageChecker healthcheck.Checker

	orderRepo domain.OrderRepository
	closeFn   func() error
}

// Close освобождает подключения хранилища.
func (s *LocalServices) Close() error {
	if s == nil || s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

// NewLocalServices собирает хранилища по cfg.StorageDriver.
func NewLocalServices(ctx context.Context, cfg Config, registerer prometheus.Registerer, logger *log.Entry) (*LocalServices, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	var (
		services *LocalServices
		err      error
	)
	switch cfg.StorageDriver {
	case StorageDriverMemory:
		services = newMemoryServices()
	case StorageDriverPostgres:
		services, err = newPostgresServices(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	// Тестовый ресурс values в базе не хранится.
	services.Values = memory.NewValuesService(cfg.ValuesCount)
	services.Orders = orders.NewService(services.orderRepo, services.Products,
		orders.WithOutbox(services.Outbox),
		orders.WithMetrics(metrics.NewOrderMetricsWithRegisterer(registerer)),
		orders.WithLogger(logger.WithField("layer", "orders")),
	)

	logger.WithField("storage", cfg.StorageDriver).Info("storage initialized")
	return services, nil
}

func newMemoryServices() *LocalServices {
	users, roles := memory.NewIdentityStores()
	return &LocalServices{
		Services: webapi.Services{
			Employees: memory.NewEmployeesData(memory.SeedEmployees()),
			Products:  memory.NewSeededProductData(),
			Users:     users,
			Roles:     roles,
		},
		Outbox:    memory.NewOutboxRepository(),
		orderRepo: memory.NewOrderRepository(),
	}
}

func newPostgresServices(ctx context.Context, cfg Config, logger *log.Entry) (*LocalServices, error) {
	store, err := postgres.Open(ctx, cfg.PostgresDSN, postgres.PoolOptions{MaxOpenConns: cfg.PostgresMaxConns})
	if err != nil {
		return nil, err
	}
	if cfg.PostgresAutoMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply postgres migrations: %w", err)
		}
		logger.Info("postgres migrations applied")
	}

	return &LocalServices{
		Services: webapi.Services{
			Employees: postgres.NewEmployeesData(store),
			Products:  postgres.NewProductData(store),
			Users:     postgres.NewUserStore(store),
			Roles:     postgres.NewRoleStore(store),
		},
		Outbox:         postgres.NewOutboxRepository(store),
		StorageChecker: healthcheck.NewPingChecker("postgres", store),
		orderRepo:      postgres.NewOrderRepository(store),
		closeFn:        store.Close,
	}, nil
}
