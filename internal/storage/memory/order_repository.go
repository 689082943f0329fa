package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
)

// orderStore держит заказы в порядке оформления и индекс по пользователю.
type orderStore struct {
	mu       sync.RWMutex
	orders   []domain.Order
	byUser   map[string][]int
	lastItem int
}

var _ domain.OrderRepository = (*orderStore)(nil)

// NewOrderRepository возвращает in-memory репозиторий заказов.
func NewOrderRepository() domain.OrderRepository {
	return &orderStore{byUser: make(map[string][]int)}
}

// Create назначает идентификаторы заказу и позициям. Идентификатор
// заказа совпадает с его номером в orders плюс один.
func (r *orderStore) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order.ID = len(r.orders) + 1
	if order.Date.IsZero() {
		order.Date = time.Now().UTC()
	}
	for i := range order.Items {
		r.lastItem++
		order.Items[i].ID = r.lastItem
	}

	r.orders = append(r.orders, cloneOrder(*order))
	r.byUser[order.UserName] = append(r.byUser[order.UserName], len(r.orders)-1)
	return nil
}

func (r *orderStore) Get(_ context.Context, id int) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id < 1 || id > len(r.orders) {
		return domain.Order{}, domain.ErrNotFound
	}
	return cloneOrder(r.orders[id-1]), nil
}

// ListByUser возвращает заказы пользователя по дате оформления.
func (r *orderStore) ListByUser(_ context.Context, userName string) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indexes := r.byUser[userName]
	result := make([]domain.Order, 0, len(indexes))
	for _, idx := range indexes {
		result = append(result, cloneOrder(r.orders[idx]))
	}
	slices.SortStableFunc(result, func(a, b domain.Order) int { return a.Date.Compare(b.Date) })
	return result, nil
}

func cloneOrder(order domain.Order) domain.Order {
	order.Items = slices.Clone(order.Items)
	return order
}
