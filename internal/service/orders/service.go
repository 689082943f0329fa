// Package orders реализует локальный сервис заказов поверх хранилищ:
// проверка корзины по каталогу, сохранение заказа и постановка события
// order.created в outbox.
package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
	"github.com/vladislavdragonenkov/webstore/internal/dto"
	"github.com/vladislavdragonenkov/webstore/internal/metrics"
)

// Service — локальная реализация domain.OrderService.
type Service struct {
	repo    domain.OrderRepository
	catalog domain.ProductData
	outbox  domain.OutboxRepository
	metrics *metrics.OrderMetrics
	logger  *log.Entry
	now     func() time.Time
}

var _ domain.OrderService = (*Service)(nil)

// Option настраивает Service.
type Option func(*Service)

// WithOutbox включает постановку событий order.created в outbox.
func WithOutbox(outbox domain.OutboxRepository) Option {
	return func(s *Service) {
		s.outbox = outbox
	}
}

// WithMetrics задаёт метрики заказов.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock подменяет источник времени даты заказа.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.now = clock
	}
}

// NewService создаёт сервис заказов. catalog используется для проверки
// товаров корзины.
func NewService(repo domain.OrderRepository, catalog domain.ProductData, options ...Option) *Service {
	s := &Service{
		repo:    repo,
		catalog: catalog,
		now:     time.Now,
	}
	for _, option := range options {
		option(s)
	}
	if s.logger == nil {
		s.logger = log.WithField("component", "order-service")
	}
	if s.metrics == nil {
		s.metrics = metrics.NewOrderMetrics()
	}
	return s
}

// GetUserOrders возвращает заказы пользователя в порядке оформления.
func (s *Service) GetUserOrders(ctx context.Context, userName string) ([]domain.Order, error) {
	return s.repo.ListByUser(ctx, userName)
}

// GetOrderByID возвращает nil без ошибки, если заказа нет.
func (s *Service) GetOrderByID(ctx context.Context, id int) (*domain.Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// CreateOrder оформляет заказ из корзины. Цены и количество берутся из
// корзины, товар обязан существовать в каталоге.
func (s *Service) CreateOrder(ctx context.Context, userName string, cart domain.CartView, info domain.OrderInfo) (*domain.Order, error) {
	order, err := s.buildOrder(ctx, userName, cart, info)
	if err != nil {
		s.metrics.RecordOrderFailed()
		return nil, err
	}

	if err := s.repo.Create(ctx, order); err != nil {
		s.metrics.RecordOrderFailed()
		return nil, fmt.Errorf("save order: %w", err)
	}

	total, _ := order.TotalPrice().Float64()
	s.metrics.RecordOrderCreated(total, order.ItemsCount())
	s.logger.WithFields(log.Fields{
		"order_id":  order.ID,
		"user_name": order.UserName,
		"items":     order.ItemsCount(),
		"total":     order.TotalPrice().String(),
	}).Info("order created")

	// Заказ уже сохранён: сбой outbox не отменяет его.
	if err := s.enqueueCreated(ctx, *order); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to enqueue order.created event")
	}
	return order, nil
}

func (s *Service) buildOrder(ctx context.Context, userName string, cart domain.CartView, info domain.OrderInfo) (*domain.Order, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return nil, fmt.Errorf("%w: user name is required", domain.ErrValidation)
	}
	if len(cart.Items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", domain.ErrValidation)
	}
	if err := dto.Validate(info); err != nil {
		return nil, err
	}

	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %d has quantity %d", domain.ErrValidation, line.ProductID, line.Quantity)
		}
		if line.Price.IsNegative() {
			return nil, fmt.Errorf("%w: product %d has negative price", domain.ErrValidation, line.ProductID)
		}

		name := line.ProductName
		if s.catalog != nil {
			product, err := s.catalog.GetProductByID(ctx, line.ProductID)
			if err != nil {
				return nil, fmt.Errorf("load product %d: %w", line.ProductID, err)
			}
			if product == nil {
				return nil, fmt.Errorf("%w: product %d does not exist", domain.ErrValidation, line.ProductID)
			}
			if name == "" {
				name = product.Name
			}
		}

		items = append(items, domain.OrderItem{
			ProductID:   line.ProductID,
			ProductName: name,
			Price:       line.Price,
			Quantity:    line.Quantity,
		})
	}

	return &domain.Order{
		UserName:    userName,
		Phone:       info.Phone,
		Address:     info.Address,
		Description: info.Description,
		Date:        s.now().UTC(),
		Items:       items,
	}, nil
}

func (s *Service) enqueueCreated(ctx context.Context, order domain.Order) error {
	if s.outbox == nil {
		return nil
	}
	payload, err := json.Marshal(domain.NewOrderCreatedEvent(order))
	if err != nil {
		return fmt.Errorf("marshal order.created: %w", err)
	}
	if _, err := s.outbox.Enqueue(ctx, domain.OutboxMessage{
		AggregateType: domain.AggregateOrder,
		AggregateID:   strconv.Itoa(order.ID),
		EventType:     domain.EventTypeOrderCreated,
		Payload:       payload,
	}); err != nil {
		return err
	}
	s.metrics.RecordOutboxEvent()
	return nil
}
