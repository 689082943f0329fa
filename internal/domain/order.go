package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem — позиция заказа. Цена фиксируется на момент оформления.
type OrderItem struct {
	ID          int
	ProductID   int
	ProductName string
	Price       decimal.Decimal
	Quantity    int
}

// TotalPrice возвращает стоимость позиции: цена * количество.
func (i OrderItem) TotalPrice() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order агрегирует заказ пользователя и его позиции.
type Order struct {
	ID          int
	UserName    string
	Phone       string
	Address     string
	Description string
	Date        time.Time
	Items       []OrderItem
}

// TotalPrice суммирует стоимость всех позиций заказа.
func (o Order) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.TotalPrice())
	}
	return total
}

// ItemsCount возвращает общее количество единиц товара в заказе.
func (o Order) ItemsCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

// OrderInfo — метаданные заказа, которые пользователь вводит при оформлении.
type OrderInfo struct {
	Phone       string `json:"phone" validate:"required,max=200"`
	Address     string `json:"address" validate:"required,max=500"`
	Description string `json:"description,omitempty" validate:"max=1000"`
}

// CartLine — строка корзины, переданная внешним хранилищем корзины.
type CartLine struct {
	ProductID   int
	ProductName string
	Price       decimal.Decimal
	Quantity    int
}

// TotalPrice возвращает стоимость строки корзины.
func (l CartLine) TotalPrice() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartView — упорядоченное содержимое корзины.
type CartView struct {
	Items []CartLine
}

// TotalPrice суммирует стоимость корзины.
func (c CartView) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Items {
		total = total.Add(line.TotalPrice())
	}
	return total
}

// ItemsCount возвращает количество единиц товара в корзине.
func (c CartView) ItemsCount() int {
	count := 0
	for _, line := range c.Items {
		count += line.Quantity
	}
	return count
}
