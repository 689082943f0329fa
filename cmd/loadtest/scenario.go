package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
	"github.com/vladislavdragonenkov/webstore/internal/resilience"
)

type loadMode string

const (
	modeBrowse loadMode = "browse"
	modeOrder  loadMode = "order"
	modeMixed  loadMode = "mixed"
)

func parseMode(value string) (loadMode, error) {
	switch mode := loadMode(value); mode {
	case modeBrowse, modeOrder, modeMixed:
		return mode, nil
	default:
		return "", fmt.Errorf("unsupported mode: %s", value)
	}
}

// target — операции Web API, которые нагружает сценарий.
type target struct {
	products domain.ProductData
	orders   domain.OrderService
}

// errorClass сводит ошибку клиента к классу для отчёта.
func errorClass(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrBadRequest):
		return "bad_request"
	case errors.Is(err, domain.ErrMalformedData):
		return "malformed"
	case errors.Is(err, domain.ErrTransport):
		return "transport"
	default:
		return "other"
	}
}

func timed[T any](ctx context.Context, col *collector, name string, timeout time.Duration, call func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	result, err := call(ctx)
	col.record(name, time.Since(start), err)
	return result, err
}

func runScenario(ctx context.Context, t target, cfg config, index int, runID string, col *collector) (err error) {
	start := time.Now()
	defer func() {
		col.record(scenarioKey, time.Since(start), err)
	}()

	mode := cfg.mode
	if mode == modeMixed {
		mode = modeBrowse
		if index%4 == 0 {
			mode = modeOrder
		}
	}

	sectionID := cfg.sectionID
	products, err := timed(ctx, col, "GetProducts", cfg.timeout, func(ctx context.Context) ([]domain.Product, error) {
		return t.products.GetProducts(ctx, &domain.ProductFilter{SectionID: &sectionID})
	})
	if err != nil {
		return err
	}
	if len(products) == 0 {
		return fmt.Errorf("section %d: %w", sectionID, domain.ErrNotFound)
	}
	product := products[index%len(products)]

	if mode == modeBrowse {
		_, err = timed(ctx, col, "GetProductByID", cfg.timeout, func(ctx context.Context) (*domain.Product, error) {
			return t.products.GetProductByID(ctx, product.ID)
		})
		return err
	}

	cart := domain.CartView{Items: []domain.CartLine{{
		ProductID:   product.ID,
		ProductName: product.Name,
		Price:       product.Price,
		Quantity:    1 + index%3,
	}}}
	info := domain.OrderInfo{Phone: "+70000000000", Address: "load test"}
	userName := fmt.Sprintf("%s-%s-%d", cfg.userTag, runID, index%cfg.users)

	order, err := timed(ctx, col, "CreateOrder", cfg.timeout, func(ctx context.Context) (*domain.Order, error) {
		return t.orders.CreateOrder(ctx, userName, cart, info)
	})
	if err != nil {
		return err
	}
	if !order.TotalPrice().Equal(cart.TotalPrice()) {
		return fmt.Errorf("order %d total %s, cart %s", order.ID, order.TotalPrice(), cart.TotalPrice())
	}

	_, err = timed(ctx, col, "GetUserOrders", cfg.timeout, func(ctx context.Context) ([]domain.Order, error) {
		return t.orders.GetUserOrders(ctx, userName)
	})
	return err
}
