package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderCreatedItem — позиция в событии order.created.
type OrderCreatedItem struct {
	ProductID   int             `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// OrderCreatedEvent — payload события order.created в outbox.
type OrderCreatedEvent struct {
	OrderID    int                `json:"order_id"`
	UserName   string             `json:"user_name"`
	ItemsCount int                `json:"items_count"`
	Total      decimal.Decimal    `json:"total"`
	Items      []OrderCreatedItem `json:"items"`
	CreatedAt  time.Time          `json:"created_at"`
}

// NewOrderCreatedEvent собирает событие по сохранённому заказу.
func NewOrderCreatedEvent(order Order) OrderCreatedEvent {
	items := make([]OrderCreatedItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderCreatedItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Price:       item.Price,
			Quantity:    item.Quantity,
		})
	}
	return OrderCreatedEvent{
		OrderID:    order.ID,
		UserName:   order.UserName,
		ItemsCount: order.ItemsCount(),
		Total:      order.TotalPrice(),
		Items:      items,
		CreatedAt:  order.Date,
	}
}
