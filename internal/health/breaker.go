package health

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/webstore/internal/resilience"
)

// BreakerSource — источник состояний circuit breaker, обычно resilience.Registry.
type BreakerSource interface {
	Snapshot() []resilience.BreakerStatus
}

// BreakerChecker сообщает degraded, пока хотя бы один удалённый endpoint
// отключён breaker. Процесс при этом остаётся ready.
type BreakerChecker struct {
	source BreakerSource
}

// NewBreakerChecker создаёт проверку состояний breaker.
func NewBreakerChecker(source BreakerSource) *BreakerChecker {
	return &BreakerChecker{source: source}
}

func (c *BreakerChecker) Check(_ context.Context) Check {
	start := time.Now()
	var open []string
	for _, status := range c.source.Snapshot() {
		if status.State != resilience.StateClosed {
			open = append(open, fmt.Sprintf("%s=%s", status.Endpoint, status.State))
		}
	}

	check := Check{
		Name:       "circuit-breakers",
		Status:     StatusHealthy,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if len(open) > 0 {
		check.Status = StatusDegraded
		check.Message = strings.Join(open, ", ")
	}
	return check
}
