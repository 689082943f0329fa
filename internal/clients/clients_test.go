package clients_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/webstore/internal/clients"
	"github.com/vladislavdragonenkov/webstore/internal/domain"
)

func TestEmployees_RemoteCRUD(t *testing.T) {
	ctx := context.Background()
	employees := clients.NewEmployees(newAPIClient(t))

	all, err := employees.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	missing, err := employees.GetByID(ctx, 404)
	require.NoError(t, err)
	assert.Nil(t, missing)

	deleted, err := employees.Delete(ctx, 404)
	require.NoError(t, err)
	assert.False(t, deleted)

	employee := &domain.Employee{LastName: "Кузнецов", FirstName: "Андрей", Age: 35}
	id, err := employees.Add(ctx, employee)
	require.NoError(t, err)
	assert.Equal(t, 4, id)
	assert.Equal(t, 4, employee.ID)

	employee.Age = 36
	ok, err := employees.Edit(ctx, *employee)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := employees.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 36, got.Age)

	ok, err = employees.Edit(ctx, domain.Employee{ID: 500, LastName: "Нет", FirstName: "Такого", Age: 20})
	require.NoError(t, err)
	assert.False(t, ok)

	deleted, err = employees.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestEmployees_ValidationNotRetried(t *testing.T) {
	employees := clients.NewEmployees(newAPIClient(t))

	_, err := employees.Add(context.Background(), &domain.Employee{FirstName: "Без фамилии", Age: 30})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestProducts_CreateWidget(t *testing.T) {
	ctx := context.Background()
	products := clients.NewProducts(newAPIClient(t))

	price := decimal.RequireFromString("9.99")
	created, err := products.CreateProduct(ctx, "Widget", 1, price, "widget.png", "Спорт", "Acne")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, 13, created.ID)
	assert.Equal(t, "Widget", created.Name)
	assert.Equal(t, 1, created.Order)
	assert.True(t, price.Equal(created.Price))
	require.NotNil(t, created.Section)
	assert.Equal(t, 1, created.Section.ID)
	require.NotNil(t, created.Brand)
	assert.Equal(t, "Acne", created.Brand.Name)

	got, err := products.GetProductByID(ctx, 13)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, price.Equal(got.Price))

	missing, err := products.GetProductByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProducts_Catalog(t *testing.T) {
	ctx := context.Background()
	products := clients.NewProducts(newAPIClient(t))

	sections, err := products.GetSections(ctx)
	require.NoError(t, err)
	assert.Len(t, sections, 15)

	section, err := products.GetSectionByID(ctx, 9)
	require.NoError(t, err)
	require.NotNil(t, section)
	assert.Equal(t, "Dior", section.Name)
	require.NotNil(t, section.ParentID)
	assert.Equal(t, 8, *section.ParentID)

	brands, err := products.GetBrands(ctx)
	require.NoError(t, err)
	assert.Len(t, brands, 7)

	brand, err := products.GetBrandByID(ctx, 100)
	require.NoError(t, err)
	assert.Nil(t, brand)

	sectionID := 9
	filtered, err := products.GetProducts(ctx, &domain.ProductFilter{SectionID: &sectionID})
	require.NoError(t, err)
	ids := make([]int, 0, len(filtered))
	for _, p := range filtered {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int{9, 10}, ids)

	all, err := products.GetProducts(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 12)
}

func TestOrders_CreateForAlice(t *testing.T) {
	ctx := context.Background()
	orders := clients.NewOrders(newAPIClient(t))

	cart := domain.CartView{Items: []domain.CartLine{
		{ProductID: 1, ProductName: "Белое платье", Price: decimal.NewFromInt(1025), Quantity: 2},
		{ProductID: 5, ProductName: "Лёгкая майка", Price: decimal.RequireFromString("499.90"), Quantity: 1},
	}}
	info := domain.OrderInfo{Phone: "+7 900 123-45-67", Address: "Санкт-Петербург, Невский пр., 1", Description: "после 18:00"}

	order, err := orders.CreateOrder(ctx, "alice", cart, info)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Positive(t, order.ID)
	assert.Equal(t, "alice", order.UserName)
	assert.Equal(t, cart.ItemsCount(), order.ItemsCount())
	assert.True(t, cart.TotalPrice().Equal(order.TotalPrice()), "total %s, want %s", order.TotalPrice(), cart.TotalPrice())
	assert.Equal(t, info.Address, order.Address)

	list, err := orders.GetUserOrders(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, order.ID, list[0].ID)

	empty, err := orders.GetUserOrders(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, empty)

	got, err := orders.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Items, 2)

	missing, err := orders.GetOrderByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestValues_Remote(t *testing.T) {
	ctx := context.Background()
	values := clients.NewValues(newAPIClient(t))

	all, err := values.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	value, ok, err := values.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "value-2", value)

	_, ok, err = values.GetByID(ctx, 100)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, values.Add(ctx, "extra"))

	edited, err := values.Edit(ctx, 6, "changed")
	require.NoError(t, err)
	assert.True(t, edited)

	edited, err = values.Edit(ctx, 100, "nope")
	require.NoError(t, err)
	assert.False(t, edited)

	deleted, err := values.Delete(ctx, 1)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = values.Delete(ctx, 1)
	require.NoError(t, err)
	assert.False(t, deleted)
}
