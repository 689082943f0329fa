package clients

import (
	"context"
	"fmt"

	"github.com/vladislavdragonenkov/webstore/internal/addresses"
	"github.com/vladislavdragonenkov/webstore/internal/domain"
	"github.com/vladislavdragonenkov/webstore/internal/dto"
	"github.com/vladislavdragonenkov/webstore/internal/transport"
)

// Orders — удалённая реализация domain.OrderService.
type Orders struct {
	client  *transport.Client
	address string
}

var _ domain.OrderService = (*Orders)(nil)

// NewOrders создаёт клиент заказов.
func NewOrders(client *transport.Client) *Orders {
	return &Orders{client: client, address: addresses.Orders}
}

func (c *Orders) GetUserOrders(ctx context.Context, userName string) ([]domain.Order, error) {
	var items []dto.OrderDTO
	if _, err := c.client.Get(ctx, addresses.Join(c.address, "user", userName), &items); err != nil {
		return nil, fmt.Errorf("get orders of %q: %w", userName, err)
	}
	orders, err := dto.OrdersFromDTO(items)
	if err != nil {
		return nil, fmt.Errorf("get orders of %q: %w", userName, err)
	}
	return orders, nil
}

func (c *Orders) GetOrderByID(ctx context.Context, id int) (*domain.Order, error) {
	item, err := transport.GetJSON[dto.OrderDTO](ctx, c.client, addresses.ID(c.address, id))
	if err != nil || item == nil {
		return nil, wrapf(err, "get order %d", id)
	}
	order, err := dto.OrderFromDTO(*item)
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}
	return &order, nil
}

// CreateOrder отправляет строки корзины и метаданные заказа одним вызовом.
// Повтор после сбоя на стороне сервера может создать заказ повторно.
func (c *Orders) CreateOrder(ctx context.Context, userName string, cart domain.CartView, info domain.OrderInfo) (*domain.Order, error) {
	req := dto.CreateOrderDTO{
		Items: dto.CartToDTO(cart),
		Order: info,
	}
	resp, err := c.client.Post(ctx, addresses.Join(c.address, userName), req)
	if err != nil {
		return nil, fmt.Errorf("create order for %q: %w", userName, err)
	}
	var item dto.OrderDTO
	if err := resp.Decode(&item); err != nil {
		return nil, fmt.Errorf("create order for %q: %w", userName, err)
	}
	order, err := dto.OrderFromDTO(item)
	if err != nil {
		return nil, fmt.Errorf("create order for %q: %w", userName, err)
	}
	return &order, nil
}
