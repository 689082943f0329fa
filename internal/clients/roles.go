package clients

import (
	"context"
	"fmt"

	"github.com/vladislavdragonenkov/webstore/internal/addresses"
	"github.com/vladislavdragonenkov/webstore/internal/domain"
	"github.com/vladislavdragonenkov/webstore/internal/transport"
)

// Roles — удалённая реализация domain.RoleStore.
type Roles struct {
	client  *transport.Client
	address string
}

var _ domain.RoleStore = (*Roles)(nil)

// NewRoles создаёт клиент ролей.
func NewRoles(client *transport.Client) *Roles {
	return &Roles{client: client, address: addresses.Roles}
}

func (c *Roles) save(ctx context.Context, op string, role *domain.Role, send func() (*transport.Response, error)) error {
	if role == nil {
		return fmt.Errorf("%s: %w: nil role", op, domain.ErrValidation)
	}
	resp, err := send()
	if err != nil {
		return fmt.Errorf("%s %q: %w", op, role.Name, err)
	}
	var saved domain.Role
	if err := resp.Decode(&saved); err != nil {
		return fmt.Errorf("%s %q: %w", op, role.Name, err)
	}
	*role = saved
	return nil
}

func (c *Roles) CreateRole(ctx context.Context, role *domain.Role) error {
	return c.save(ctx, "create role", role, func() (*transport.Response, error) {
		return c.client.Post(ctx, c.address, role)
	})
}

func (c *Roles) UpdateRole(ctx context.Context, role *domain.Role) error {
	return c.save(ctx, "update role", role, func() (*transport.Response, error) {
		return c.client.Put(ctx, c.address, role)
	})
}

// DeleteRole удаляет роль; отсутствие роли не ошибка.
func (c *Roles) DeleteRole(ctx context.Context, role *domain.Role) error {
	if role == nil {
		return fmt.Errorf("delete role: %w: nil role", domain.ErrValidation)
	}
	if _, err := deleteResource(ctx, c.client, addresses.Join(c.address, role.ID)); err != nil {
		return err
	}
	return nil
}

func (c *Roles) FindRoleByID(ctx context.Context, id string) (*domain.Role, error) {
	role, err := transport.GetJSON[domain.Role](ctx, c.client, addresses.Join(c.address, id))
	if err != nil {
		return nil, fmt.Errorf("find role by id: %w", err)
	}
	return role, nil
}

func (c *Roles) FindRoleByName(ctx context.Context, normalizedName string) (*domain.Role, error) {
	role, err := transport.GetJSON[domain.Role](ctx, c.client, addresses.Join(c.address, "name", normalizedName))
	if err != nil {
		return nil, fmt.Errorf("find role by name: %w", err)
	}
	return role, nil
}

func (c *Roles) GetRoles(ctx context.Context) ([]domain.Role, error) {
	var roles []domain.Role
	if _, err := c.client.Get(ctx, c.address, &roles); err != nil {
		return nil, fmt.Errorf("get roles: %w", err)
	}
	if roles == nil {
		roles = []domain.Role{}
	}
	return roles, nil
}
