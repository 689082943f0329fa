package clients

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/webstore/internal/addresses"
	"github.com/vladislavdragonenkov/webstore/internal/domain"
	"github.com/vladislavdragonenkov/webstore/internal/dto"
	"github.com/vladislavdragonenkov/webstore/internal/transport"
)

// Products — удалённая реализация domain.ProductData.
type Products struct {
	client  *transport.Client
	address string
}

var _ domain.ProductData = (*Products)(nil)

// NewProducts создаёт клиент каталога.
func NewProducts(client *transport.Client) *Products {
	return &Products{client: client, address: addresses.Products}
}

func (c *Products) GetSections(ctx context.Context) ([]domain.Section, error) {
	var sections []dto.SectionDTO
	if _, err := c.client.Get(ctx, addresses.Join(c.address, "sections"), &sections); err != nil {
		return nil, fmt.Errorf("get sections: %w", err)
	}
	return dto.SectionsFromDTO(sections), nil
}

func (c *Products) GetSectionByID(ctx context.Context, id int) (*domain.Section, error) {
	section, err := transport.GetJSON[dto.SectionDTO](ctx, c.client, addresses.Join(c.address, "sections", fmt.Sprint(id)))
	if err != nil || section == nil {
		return nil, wrapf(err, "get section %d", id)
	}
	s := dto.SectionFromDTO(*section)
	return &s, nil
}

func (c *Products) GetBrands(ctx context.Context) ([]domain.Brand, error) {
	var brands []dto.BrandDTO
	if _, err := c.client.Get(ctx, addresses.Join(c.address, "brands"), &brands); err != nil {
		return nil, fmt.Errorf("get brands: %w", err)
	}
	return dto.BrandsFromDTO(brands), nil
}

func (c *Products) GetBrandByID(ctx context.Context, id int) (*domain.Brand, error) {
	brand, err := transport.GetJSON[dto.BrandDTO](ctx, c.client, addresses.Join(c.address, "brands", fmt.Sprint(id)))
	if err != nil || brand == nil {
		return nil, wrapf(err, "get brand %d", id)
	}
	b := dto.BrandFromDTO(*brand)
	return &b, nil
}

// GetProducts передаёт фильтр телом POST-запроса. nil означает пустой фильтр.
func (c *Products) GetProducts(ctx context.Context, filter *domain.ProductFilter) ([]domain.Product, error) {
	if filter == nil {
		filter = &domain.ProductFilter{}
	}
	resp, err := c.client.Post(ctx, c.address, filter)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	var items []dto.ProductDTO
	if err := resp.Decode(&items); err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	products, err := dto.ProductsFromDTO(items)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	return products, nil
}

func (c *Products) GetProductByID(ctx context.Context, id int) (*domain.Product, error) {
	item, err := transport.GetJSON[dto.ProductDTO](ctx, c.client, addresses.ID(c.address, id))
	if err != nil || item == nil {
		return nil, wrapf(err, "get product %d", id)
	}
	product, err := dto.ProductFromDTO(*item)
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return &product, nil
}

// CreateProduct создаёт товар и возвращает его с назначенным идентификатором.
func (c *Products) CreateProduct(ctx context.Context, name string, order int, price decimal.Decimal, imageURL, section, brand string) (*domain.Product, error) {
	resp, err := c.client.Post(ctx, addresses.Join(c.address, "new"),
		dto.CreateProductToDTO(name, order, price, imageURL, section, brand))
	if err != nil {
		return nil, fmt.Errorf("create product %q: %w", name, err)
	}
	var item dto.ProductDTO
	if err := resp.Decode(&item); err != nil {
		return nil, fmt.Errorf("create product %q: %w", name, err)
	}
	product, err := dto.ProductFromDTO(item)
	if err != nil {
		return nil, fmt.Errorf("create product %q: %w", name, err)
	}
	return &product, nil
}

func wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
