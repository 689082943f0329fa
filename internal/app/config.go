package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/webstore/internal/resilience"
)

// StorageDriver выбирает реализацию хранилищ Web API.
type StorageDriver string

const (
	StorageDriverMemory   StorageDriver = "memory"
	StorageDriverPostgres StorageDriver = "postgres"
)

// Config описывает настройки процесса Web API.
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	MetricsAddr string

	StorageDriver       StorageDriver
	PostgresDSN         string
	PostgresAutoMigrate bool
	// PostgresMaxConns ограничивает пул; 0 оставляет значение по умолчанию.
	PostgresMaxConns int

	KafkaBrokers     []string
	OrderEventsTopic string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration
	// OutboxRetention — сколько хранить отправленные и failed сообщения.
	OutboxRetention       time.Duration
	OutboxCleanupInterval time.Duration

	// ValuesCount — сколько тестовых значений создаётся при старте.
	ValuesCount     int
	ShutdownTimeout time.Duration
}

// DefaultConfig возвращает настройки по умолчанию: in-memory хранилища,
// outbox публикуется в лог.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:              ":8080",
		GRPCAddr:              ":50051",
		MetricsAddr:           ":9090",
		StorageDriver:         StorageDriverMemory,
		PostgresAutoMigrate:   true,
		OrderEventsTopic:      "webstore.order.events",
		OutboxPollInterval:    time.Second,
		OutboxBatchSize:       100,
		OutboxMaxAttempts:     3,
		OutboxRetryDelay:      100 * time.Millisecond,
		OutboxRetention:       24 * time.Hour,
		OutboxCleanupInterval: 10 * time.Minute,
		ValuesCount:           2,
		ShutdownTimeout:       5 * time.Second,
	}
}

// Validate проверяет согласованность настроек до запуска.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("postgres storage requires a dsn")
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", c.StorageDriver)
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("http address is required")
	}
	return nil
}

func (c Config) shutdownTimeout() time.Duration {
	if c.ShutdownTimeout <= 0 {
		return 5 * time.Second
	}
	return c.ShutdownTimeout
}

// RemoteConfig описывает подключение клиентов к удалённому Web API.
type RemoteConfig struct {
	APIURL string
	// IdentityURL — адрес хранилищ пользователей и ролей. Пустой означает APIURL.
	IdentityURL string

	Retry   resilience.RetryConfig
	Breaker resilience.BreakerConfig

	CallTimeout    time.Duration
	AttemptTimeout time.Duration
}

// DefaultRemoteConfig возвращает настройки клиентов по умолчанию.
func DefaultRemoteConfig() RemoteConfig {
	return RemoteConfig{
		APIURL:         "http://localhost:8080",
		Retry:          resilience.DefaultRetryConfig(),
		Breaker:        resilience.DefaultBreakerConfig(),
		CallTimeout:    time.Minute,
		AttemptTimeout: 10 * time.Second,
	}
}

func (c RemoteConfig) identityURL() string {
	if strings.TrimSpace(c.IdentityURL) == "" {
		return c.APIURL
	}
	return c.IdentityURL
}
