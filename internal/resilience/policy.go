// Package resilience содержит политики устойчивости исходящих вызовов:
// повтор с экспоненциальной задержкой и jitter и circuit breaker,
// общий для всех клиентов одного endpoint.
package resilience

import (
	"context"
	"errors"
	"net"
)

// Operation — один сетевой вызов под защитой политики.
type Operation func(ctx context.Context) error

// Policy оборачивает выполнение операции.
type Policy interface {
	Execute(ctx context.Context, op Operation) error
}

// PolicyFunc позволяет использовать функцию как Policy.
type PolicyFunc func(ctx context.Context, op Operation) error

// Execute вызывает f.
func (f PolicyFunc) Execute(ctx context.Context, op Operation) error {
	return f(ctx, op)
}

type chain struct {
	policies []Policy
}

// Chain компонует политики: outer решает, выполнять ли вызов вообще,
// inner применяются по порядку ближе к сети.
func Chain(outer Policy, inner ...Policy) Policy {
	return &chain{policies: append([]Policy{outer}, inner...)}
}

func (c *chain) Execute(ctx context.Context, op Operation) error {
	return c.execute(ctx, 0, op)
}

func (c *chain) execute(ctx context.Context, i int, op Operation) error {
	if i == len(c.policies) {
		return op(ctx)
	}
	return c.policies[i].Execute(ctx, func(ctx context.Context) error {
		return c.execute(ctx, i+1, op)
	})
}

// IsTransient сообщает, стоит ли повторять вызов после ошибки: сетевые
// сбои, таймауты запроса и ошибки сервера. Отмена вызова клиентом
// временной не считается.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var t interface{ Transient() bool }
	if errors.As(err, &t) {
		return t.Transient()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
