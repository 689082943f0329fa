package clients

import (
	"context"
	"fmt"

	"github.com/vladislavdragonenkov/webstore/internal/addresses"
	"github.com/vladislavdragonenkov/webstore/internal/domain"
	"github.com/vladislavdragonenkov/webstore/internal/transport"
)

// Values — удалённая реализация domain.ValuesService.
type Values struct {
	client  *transport.Client
	address string
}

var _ domain.ValuesService = (*Values)(nil)

// NewValues создаёт клиент тестового API значений.
func NewValues(client *transport.Client) *Values {
	return &Values{client: client, address: addresses.Values}
}

func (c *Values) GetAll(ctx context.Context) ([]string, error) {
	var values []string
	if _, err := c.client.Get(ctx, c.address, &values); err != nil {
		return nil, fmt.Errorf("get values: %w", err)
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

func (c *Values) GetByID(ctx context.Context, id int) (string, bool, error) {
	value, err := transport.GetJSON[string](ctx, c.client, addresses.ID(c.address, id))
	if err != nil {
		return "", false, fmt.Errorf("get value %d: %w", id, err)
	}
	if value == nil {
		return "", false, nil
	}
	return *value, true, nil
}

func (c *Values) Add(ctx context.Context, value string) error {
	if _, err := c.client.Post(ctx, c.address, value); err != nil {
		return fmt.Errorf("add value: %w", err)
	}
	return nil
}

func (c *Values) Edit(ctx context.Context, id int, value string) (bool, error) {
	if _, err := c.client.Put(ctx, addresses.ID(c.address, id), value); err != nil {
		if transport.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("edit value %d: %w", id, err)
	}
	return true, nil
}

func (c *Values) Delete(ctx context.Context, id int) (bool, error) {
	return deleteResource(ctx, c.client, addresses.ID(c.address, id))
}
