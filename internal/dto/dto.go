// Package dto описывает формы данных, передаваемые по сети между Web API
// и типизированными клиентами, и чистые функции их преобразования в
// доменные сущности и обратно.
package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
)

// SectionDTO — раздел каталога на проводе.
type SectionDTO struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Order    int    `json:"order"`
	ParentID *int   `json:"parentId,omitempty"`
}

// BrandDTO — бренд на проводе.
type BrandDTO struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// ProductDTO — товар вместе с разделом и брендом.
type ProductDTO struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Order     int             `json:"order"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"imageUrl,omitempty"`
	SectionID int             `json:"sectionId"`
	Section   *SectionDTO     `json:"section,omitempty"`
	BrandID   *int            `json:"brandId,omitempty"`
	Brand     *BrandDTO       `json:"brand,omitempty"`
}

// CreateProductDTO — тело POST api/products/new.
type CreateProductDTO struct {
	Name     string          `json:"name" validate:"required,max=200"`
	Order    int             `json:"order" validate:"gte=0"`
	Price    decimal.Decimal `json:"price" validate:"gte=0"`
	ImageURL string          `json:"imageUrl,omitempty" validate:"max=500"`
	Section  string          `json:"section" validate:"required,max=200"`
	Brand    string          `json:"brand,omitempty" validate:"max=200"`
}

// OrderItemDTO — позиция заказа или строка корзины.
type OrderItemDTO struct {
	ID          int             `json:"id"`
	ProductID   int             `json:"productId" validate:"gt=0"`
	ProductName string          `json:"productName,omitempty"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	Quantity    int             `json:"quantity" validate:"gt=0"`
}

// OrderDTO — созданный заказ.
type OrderDTO struct {
	ID          int            `json:"id"`
	UserName    string         `json:"userName"`
	Phone       string         `json:"phone"`
	Address     string         `json:"address"`
	Description string         `json:"description,omitempty"`
	Date        time.Time      `json:"date"`
	Items       []OrderItemDTO `json:"items"`
}

// CreateOrderDTO — тело POST api/orders/{userName}: строки корзины и
// метаданные заказа, а не сохранённый заказ.
type CreateOrderDTO struct {
	Items []OrderItemDTO   `json:"items" validate:"required,min=1,dive"`
	Order domain.OrderInfo `json:"order"`
}

// UserValueDTO передаёт пользователя вместе с новым значением поля.
type UserValueDTO[T any] struct {
	User  domain.User `json:"user"`
	Value T           `json:"value"`
}

// LoginDTO — привязка внешнего входа к пользователю.
type LoginDTO struct {
	User  domain.User          `json:"user"`
	Login domain.UserLoginInfo `json:"login"`
}

// RemoveLoginDTO — отвязка внешнего входа.
type RemoveLoginDTO struct {
	User          domain.User `json:"user"`
	LoginProvider string      `json:"loginProvider"`
	ProviderKey   string      `json:"providerKey"`
}

// ClaimsDTO — набор утверждений пользователя.
type ClaimsDTO struct {
	User   domain.User    `json:"user"`
	Claims []domain.Claim `json:"claims"`
}

// ReplaceClaimDTO — замена одного утверждения другим.
type ReplaceClaimDTO struct {
	User     domain.User  `json:"user"`
	Claim    domain.Claim `json:"claim"`
	NewClaim domain.Claim `json:"newClaim"`
}
