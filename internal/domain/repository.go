package domain

import "context"

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ и записывает назначенные идентификаторы
	// заказа и позиций в переданную сущность.
	Create(ctx context.Context, order *Order) error
	// Get возвращает заказ по идентификатору или ErrNotFound, если его нет.
	Get(ctx context.Context, id int) (Order, error)
	// ListByUser возвращает заказы пользователя в порядке оформления.
	ListByUser(ctx context.Context, userName string) ([]Order, error)
}
