package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
)

func TestOrderRepository_PostgresCreateGetList(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)
	ctx := context.Background()

	now := time.Now().UTC().Round(time.Microsecond)
	order1 := sampleOrder("alice", now.Add(-2*time.Minute))
	order2 := sampleOrder("alice", now.Add(-time.Minute))

	if err := repo.Create(ctx, order1); err != nil {
		t.Fatalf("create order1: %v", err)
	}
	if err := repo.Create(ctx, order2); err != nil {
		t.Fatalf("create order2: %v", err)
	}
	if order1.ID == 0 || order1.Items[0].ID == 0 {
		t.Fatalf("expected assigned ids, got %+v", order1)
	}

	got, err := repo.Get(ctx, order1.ID)
	if err != nil {
		t.Fatalf("get order1: %v", err)
	}
	if got.UserName != "alice" || len(got.Items) != 2 {
		t.Fatalf("unexpected order payload: %+v", got)
	}
	if !got.TotalPrice().Equal(decimal.RequireFromString("29.97")) {
		t.Fatalf("unexpected total: %s", got.TotalPrice())
	}
	if got.ItemsCount() != 3 {
		t.Fatalf("unexpected items count: %d", got.ItemsCount())
	}

	listed, err := repo.ListByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(listed) != 2 || listed[0].ID != order1.ID || listed[1].ID != order2.ID {
		t.Fatalf("unexpected list result: %+v", listed)
	}

	none, err := repo.ListByUser(ctx, "bob")
	if err != nil {
		t.Fatalf("list by other user: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no orders for bob, got %d", len(none))
	}
}

func TestOrderRepository_PostgresMissing(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	if _, err := repo.Get(context.Background(), 987654); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPgErrorClassification(t *testing.T) {
	if !isUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("expected unique violation for code 23505")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "22001"}) {
		t.Fatal("unexpected unique violation for non-unique code")
	}
	if !isForeignKeyViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("expected foreign key violation for code 23503")
	}
	if isUniqueViolation(errors.New("plain error")) {
		t.Fatal("plain error must not be unique violation")
	}
}

func sampleOrder(userName string, date time.Time) *domain.Order {
	return &domain.Order{
		UserName: userName,
		Phone:    "+7 900 000-00-00",
		Address:  "Москва, ул. Тверская, 1",
		Date:     date,
		Items: []domain.OrderItem{
			{ProductID: 1, ProductName: "Белое платье", Price: decimal.RequireFromString("9.99"), Quantity: 2},
			{ProductID: 2, ProductName: "Розовое платье", Price: decimal.RequireFromString("9.99"), Quantity: 1},
		},
	}
}
