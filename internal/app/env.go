package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EnvLookup читает переменную окружения; совместим с os.LookupEnv.
type EnvLookup func(key string) (string, bool)

const (
	EnvHTTPAddr            = "WEBSTORE_HTTP_ADDR"
	EnvGRPCAddr            = "WEBSTORE_GRPC_ADDR"
	EnvMetricsAddr         = "WEBSTORE_METRICS_ADDR"
	EnvStorageDriver       = "WEBSTORE_STORAGE_DRIVER"
	EnvPostgresDSN         = "WEBSTORE_POSTGRES_DSN"
	EnvPostgresAutoMigrate = "WEBSTORE_POSTGRES_AUTO_MIGRATE"
	EnvPostgresMaxConns    = "WEBSTORE_POSTGRES_MAX_CONNS"
	EnvKafkaBrokers        = "WEBSTORE_KAFKA_BROKERS"
	EnvOrderEventsTopic    = "WEBSTORE_ORDER_EVENTS_TOPIC"
	EnvOutboxPollInterval  = "WEBSTORE_OUTBOX_POLL_INTERVAL"
	EnvOutboxBatchSize     = "WEBSTORE_OUTBOX_BATCH_SIZE"
	EnvOutboxMaxAttempts   = "WEBSTORE_OUTBOX_MAX_ATTEMPTS"
	EnvOutboxRetention     = "WEBSTORE_OUTBOX_RETENTION"
	EnvOutboxCleanup       = "WEBSTORE_OUTBOX_CLEANUP_INTERVAL"

	EnvAPIURL           = "WEBSTORE_API_URL"
	EnvIdentityURL      = "WEBSTORE_IDENTITY_URL"
	EnvRetryMaxAttempts = "WEBSTORE_RETRY_MAX_ATTEMPTS"
	EnvRetryBase        = "WEBSTORE_RETRY_BASE"
	EnvRetryUnit        = "WEBSTORE_RETRY_UNIT"
	EnvRetryJitter      = "WEBSTORE_RETRY_JITTER"
	EnvBreakerThreshold = "WEBSTORE_BREAKER_THRESHOLD"
	EnvBreakerDuration  = "WEBSTORE_BREAKER_DURATION"
	EnvBreakerWindow    = "WEBSTORE_BREAKER_WINDOW"
	EnvCallTimeout      = "WEBSTORE_CALL_TIMEOUT"
	EnvAttemptTimeout   = "WEBSTORE_ATTEMPT_TIMEOUT"
)

func positiveInt(v int) bool                { return v > 0 }
func positiveDuration(v time.Duration) bool { return v > 0 }
func nonNegativeDuration(v time.Duration) bool {
	return v >= 0
}

// ReadConfig накладывает переменные окружения на DefaultConfig.
// Некорректные значения не применяются и возвращаются как предупреждения.
func ReadConfig(lookup EnvLookup) (Config, []string) {
	cfg := DefaultConfig()
	env := envReader{lookup: lookup}

	env.str(EnvHTTPAddr, &cfg.HTTPAddr)
	env.str(EnvGRPCAddr, &cfg.GRPCAddr)
	env.str(EnvMetricsAddr, &cfg.MetricsAddr)
	if v, ok := env.value(EnvStorageDriver); ok {
		cfg.StorageDriver = StorageDriver(strings.ToLower(v))
	}
	env.str(EnvPostgresDSN, &cfg.PostgresDSN)
	env.boolean(EnvPostgresAutoMigrate, &cfg.PostgresAutoMigrate)
	env.integer(EnvPostgresMaxConns, &cfg.PostgresMaxConns, positiveInt, "must be > 0")
	if v, ok := env.value(EnvKafkaBrokers); ok {
		cfg.KafkaBrokers = splitList(v)
	}
	env.str(EnvOrderEventsTopic, &cfg.OrderEventsTopic)
	env.duration(EnvOutboxPollInterval, &cfg.OutboxPollInterval, positiveDuration, "must be > 0")
	env.integer(EnvOutboxBatchSize, &cfg.OutboxBatchSize, positiveInt, "must be > 0")
	env.integer(EnvOutboxMaxAttempts, &cfg.OutboxMaxAttempts, positiveInt, "must be > 0")
	env.duration(EnvOutboxRetention, &cfg.OutboxRetention, positiveDuration, "must be > 0")
	env.duration(EnvOutboxCleanup, &cfg.OutboxCleanupInterval, positiveDuration, "must be > 0")

	return cfg, env.warnings
}

// ReadRemoteConfig накладывает переменные окружения на DefaultRemoteConfig.
func ReadRemoteConfig(lookup EnvLookup) (RemoteConfig, []string) {
	cfg := DefaultRemoteConfig()
	env := envReader{lookup: lookup}

	env.str(EnvAPIURL, &cfg.APIURL)
	env.str(EnvIdentityURL, &cfg.IdentityURL)
	env.integer(EnvRetryMaxAttempts, &cfg.Retry.MaxAttempts, positiveInt, "must be > 0")
	env.float(EnvRetryBase, &cfg.Retry.Base, func(v float64) bool { return v >= 1 }, "must be >= 1")
	env.duration(EnvRetryUnit, &cfg.Retry.Unit, nonNegativeDuration, "must be >= 0")
	env.duration(EnvRetryJitter, &cfg.Retry.JitterBound, nonNegativeDuration, "must be >= 0")
	env.integer(EnvBreakerThreshold, &cfg.Breaker.FailureThreshold, positiveInt, "must be > 0")
	env.duration(EnvBreakerDuration, &cfg.Breaker.BreakDuration, positiveDuration, "must be > 0")
	env.duration(EnvBreakerWindow, &cfg.Breaker.FailureWindow, nonNegativeDuration, "must be >= 0")
	env.duration(EnvCallTimeout, &cfg.CallTimeout, nonNegativeDuration, "must be >= 0")
	env.duration(EnvAttemptTimeout, &cfg.AttemptTimeout, nonNegativeDuration, "must be >= 0")

	return cfg, env.warnings
}

type envReader struct {
	lookup   EnvLookup
	warnings []string
}

func (r *envReader) value(key string) (string, bool) {
	if r.lookup == nil {
		return "", false
	}
	v, ok := r.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (r *envReader) warn(key, value string, err error) {
	r.warnings = append(r.warnings, fmt.Sprintf("%s=%q ignored: %v", key, value, err))
}

func (r *envReader) str(key string, dst *string) {
	if v, ok := r.value(key); ok {
		*dst = v
	}
}

func (r *envReader) boolean(key string, dst *bool) {
	v, ok := r.value(key)
	if !ok {
		return
	}
	parsed, err := ParseBool(v)
	if err != nil {
		r.warn(key, v, err)
		return
	}
	*dst = parsed
}

func (r *envReader) integer(key string, dst *int, valid func(int) bool, rule string) {
	v, ok := r.value(key)
	if !ok {
		return
	}
	parsed, err := strconv.Atoi(v)
	if err == nil && !valid(parsed) {
		err = fmt.Errorf("%s", rule)
	}
	if err != nil {
		r.warn(key, v, err)
		return
	}
	*dst = parsed
}

func (r *envReader) float(key string, dst *float64, valid func(float64) bool, rule string) {
	v, ok := r.value(key)
	if !ok {
		return
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err == nil && !valid(parsed) {
		err = fmt.Errorf("%s", rule)
	}
	if err != nil {
		r.warn(key, v, err)
		return
	}
	*dst = parsed
}

func (r *envReader) duration(key string, dst *time.Duration, valid func(time.Duration) bool, rule string) {
	v, ok := r.value(key)
	if !ok {
		return
	}
	parsed, err := time.ParseDuration(v)
	if err == nil && !valid(parsed) {
		err = fmt.Errorf("%s", rule)
	}
	if err != nil {
		r.warn(key, v, err)
		return
	}
	*dst = parsed
}

// ParseBool понимает true/false, 1/0, yes/no, on/off.
func ParseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value %q", raw)
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
