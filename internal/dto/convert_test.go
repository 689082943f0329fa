package dto

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestProductRoundTrip(t *testing.T) {
	product := domain.Product{
		ID:        15,
		Name:      "Widget",
		Order:     1,
		Price:     decimal.RequireFromString("9.99"),
		ImageURL:  "widget.png",
		SectionID: 3,
		Section:   &domain.Section{ID: 3, Name: "Tools", Order: 2, ParentID: intPtr(1)},
		BrandID:   intPtr(4),
		Brand:     &domain.Brand{ID: 4, Name: "Acme", Order: 0},
	}

	got, err := ProductFromDTO(ProductToDTO(product))
	require.NoError(t, err)
	assert.Equal(t, product, got)
}

func TestProductFromDTOFillsKeysFromRelations(t *testing.T) {
	got, err := ProductFromDTO(ProductDTO{
		ID:      1,
		Price:   decimal.NewFromInt(5),
		Section: &SectionDTO{ID: 7, Name: "Shoes"},
		Brand:   &BrandDTO{ID: 2, Name: "Acme"},
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got.SectionID)
	require.NotNil(t, got.BrandID)
	assert.Equal(t, 2, *got.BrandID)
}

func TestProductFromDTORejectsNegativePrice(t *testing.T) {
	_, err := ProductFromDTO(ProductDTO{ID: 1, Price: decimal.NewFromInt(-1)})
	assert.True(t, errors.Is(err, domain.ErrMalformedData))

	_, err = ProductsFromDTO([]ProductDTO{{ID: 1}, {ID: 2, Price: decimal.NewFromInt(-3)}})
	assert.True(t, errors.Is(err, domain.ErrMalformedData))
}

func TestOrderRoundTrip(t *testing.T) {
	order := domain.Order{
		ID:          3,
		UserName:    "alice",
		Phone:       "+100",
		Address:     "Main st. 1",
		Description: "ring twice",
		Date:        time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Items: []domain.OrderItem{
			{ID: 1, ProductID: 10, ProductName: "Widget", Price: decimal.RequireFromString("9.99"), Quantity: 2},
			{ID: 2, ProductID: 11, ProductName: "Gadget", Price: decimal.RequireFromString("1.50"), Quantity: 1},
		},
	}

	got, err := OrderFromDTO(OrderToDTO(order))
	require.NoError(t, err)
	assert.Equal(t, order, got)
}

func TestOrderFromDTORejectsBadQuantity(t *testing.T) {
	_, err := OrderFromDTO(OrderDTO{ID: 1, Items: []OrderItemDTO{{ProductID: 1, Quantity: 0}}})
	assert.True(t, errors.Is(err, domain.ErrMalformedData))
}

func TestCartConversionKeepsOrder(t *testing.T) {
	cart := domain.CartView{Items: []domain.CartLine{
		{ProductID: 2, ProductName: "B", Price: decimal.NewFromInt(2), Quantity: 1},
		{ProductID: 1, ProductName: "A", Price: decimal.NewFromInt(1), Quantity: 3},
	}}

	items := CartToDTO(cart)
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].ProductID)
	assert.Equal(t, 0, items[0].ID)

	back, err := ToCartView(items)
	require.NoError(t, err)
	assert.Equal(t, cart, back)
}

func TestToCartViewRejectsMalformedLines(t *testing.T) {
	_, err := ToCartView([]OrderItemDTO{{ProductID: 1, Quantity: -1}})
	assert.True(t, errors.Is(err, domain.ErrMalformedData))

	_, err = ToCartView([]OrderItemDTO{{ProductID: 1, Quantity: 1, Price: decimal.NewFromInt(-1)}})
	assert.True(t, errors.Is(err, domain.ErrMalformedData))
}

func TestSectionsAndBrandsRoundTrip(t *testing.T) {
	sections := []domain.Section{{ID: 1, Name: "A"}, {ID: 2, Name: "B", ParentID: intPtr(1)}}
	brands := []domain.Brand{{ID: 1, Name: "Acme", Order: 3}}

	assert.Equal(t, sections, SectionsFromDTO(SectionsToDTO(sections)))
	assert.Equal(t, brands, BrandsFromDTO(BrandsToDTO(brands)))
}
