package clients

import (
	"context"
	"fmt"

	"github.com/vladislavdragonenkov/webstore/internal/addresses"
	"github.com/vladislavdragonenkov/webstore/internal/domain"
	"github.com/vladislavdragonenkov/webstore/internal/transport"
)

// Employees — удалённая реализация domain.EmployeesData.
type Employees struct {
	client  *transport.Client
	address string
}

var _ domain.EmployeesData = (*Employees)(nil)

// NewEmployees создаёт клиент сотрудников.
func NewEmployees(client *transport.Client) *Employees {
	return &Employees{client: client, address: addresses.Employees}
}

// GetAll возвращает всех сотрудников.
func (c *Employees) GetAll(ctx context.Context) ([]domain.Employee, error) {
	var employees []domain.Employee
	if _, err := c.client.Get(ctx, c.address, &employees); err != nil {
		return nil, fmt.Errorf("get employees: %w", err)
	}
	if employees == nil {
		employees = []domain.Employee{}
	}
	return employees, nil
}

// GetByID возвращает сотрудника или nil, если его нет.
func (c *Employees) GetByID(ctx context.Context, id int) (*domain.Employee, error) {
	employee, err := transport.GetJSON[domain.Employee](ctx, c.client, addresses.ID(c.address, id))
	if err != nil {
		return nil, fmt.Errorf("get employee %d: %w", id, err)
	}
	return employee, nil
}

// Add создаёт сотрудника и записывает назначенный backend идентификатор
// в переданную сущность.
func (c *Employees) Add(ctx context.Context, employee *domain.Employee) (int, error) {
	if employee == nil {
		return 0, fmt.Errorf("add employee: %w: nil employee", domain.ErrValidation)
	}
	resp, err := c.client.Post(ctx, c.address, employee)
	if err != nil {
		return 0, fmt.Errorf("add employee: %w", err)
	}
	var created domain.Employee
	if err := resp.Decode(&created); err != nil {
		return 0, fmt.Errorf("add employee: %w", err)
	}
	employee.ID = created.ID
	return created.ID, nil
}

// Edit обновляет сотрудника.
func (c *Employees) Edit(ctx context.Context, employee domain.Employee) (bool, error) {
	resp, err := c.client.Put(ctx, c.address, employee)
	if err != nil {
		if transport.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("edit employee %d: %w", employee.ID, err)
	}
	ok, err := transport.DecodeBool(resp)
	if err != nil {
		return false, fmt.Errorf("edit employee %d: %w", employee.ID, err)
	}
	return ok, nil
}

// Delete удаляет сотрудника; false, если его не было.
func (c *Employees) Delete(ctx context.Context, id int) (bool, error) {
	return deleteResource(ctx, c.client, addresses.ID(c.address, id))
}

func deleteResource(ctx context.Context, client *transport.Client, path string) (bool, error) {
	resp, err := client.Delete(ctx, path)
	if err != nil {
		if transport.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("delete %s: %w", path, err)
	}
	ok, err := transport.DecodeBool(resp)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", path, err)
	}
	return ok, nil
}
