package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
)

// EmployeesData — in-memory реализация domain.EmployeesData.
type EmployeesData struct {
	mu     sync.RWMutex
	items  map[int]domain.Employee
	nextID int
}

var _ domain.EmployeesData = (*EmployeesData)(nil)

// NewEmployeesData создаёт хранилище, заполненное переданными сотрудниками.
// Идентификаторы сохраняются; новые назначаются после максимального.
func NewEmployeesData(seed []domain.Employee) *EmployeesData {
	d := &EmployeesData{items: make(map[int]domain.Employee, len(seed)), nextID: 1}
	for _, e := range seed {
		d.items[e.ID] = e
		if e.ID >= d.nextID {
			d.nextID = e.ID + 1
		}
	}
	return d
}

func (d *EmployeesData) GetAll(_ context.Context) ([]domain.Employee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]domain.Employee, 0, len(d.items))
	for _, e := range d.items {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (d *EmployeesData) GetByID(_ context.Context, id int) (*domain.Employee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	e, ok := d.items[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (d *EmployeesData) Add(_ context.Context, employee *domain.Employee) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	employee.ID = d.nextID
	d.nextID++
	d.items[employee.ID] = *employee
	return employee.ID, nil
}

func (d *EmployeesData) Edit(_ context.Context, employee domain.Employee) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.items[employee.ID]; !ok {
		return false, nil
	}
	d.items[employee.ID] = employee
	return true, nil
}

func (d *EmployeesData) Delete(_ context.Context, id int) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.items[id]; !ok {
		return false, nil
	}
	delete(d.items, id)
	return true, nil
}
