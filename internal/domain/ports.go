package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// EmployeesData — работа с сотрудниками. Реализуется как хранилищем,
// так и удалённым клиентом Web API.
type EmployeesData interface {
	GetAll(ctx context.Context) ([]Employee, error)
	// GetByID возвращает nil без ошибки, если сотрудника нет.
	GetByID(ctx context.Context, id int) (*Employee, error)
	// Add сохраняет сотрудника и возвращает назначенный идентификатор.
	// Идентификатор также записывается в переданную сущность.
	Add(ctx context.Context, employee *Employee) (int, error)
	Edit(ctx context.Context, employee Employee) (bool, error)
	// Delete возвращает false, если удалять было нечего.
	Delete(ctx context.Context, id int) (bool, error)
}

// ProductData — каталог: разделы, бренды, товары.
type ProductData interface {
	GetSections(ctx context.Context) ([]Section, error)
	GetSectionByID(ctx context.Context, id int) (*Section, error)
	GetBrands(ctx context.Context) ([]Brand, error)
	GetBrandByID(ctx context.Context, id int) (*Brand, error)
	GetProducts(ctx context.Context, filter *ProductFilter) ([]Product, error)
	GetProductByID(ctx context.Context, id int) (*Product, error)
	// CreateProduct создаёт товар; раздел и бренд задаются по имени,
	// отсутствующие создаются. Пустой brand означает товар без бренда.
	CreateProduct(ctx context.Context, name string, order int, price decimal.Decimal, imageURL, section, brand string) (*Product, error)
}

// OrderService — заказы пользователей.
type OrderService interface {
	GetUserOrders(ctx context.Context, userName string) ([]Order, error)
	GetOrderByID(ctx context.Context, id int) (*Order, error)
	// CreateOrder оформляет заказ из содержимого корзины.
	CreateOrder(ctx context.Context, userName string, cart CartView, info OrderInfo) (*Order, error)
}

// ValuesService — тестовый API строковых значений.
type ValuesService interface {
	GetAll(ctx context.Context) ([]string, error)
	GetByID(ctx context.Context, id int) (string, bool, error)
	Add(ctx context.Context, value string) error
	Edit(ctx context.Context, id int, value string) (bool, error)
	Delete(ctx context.Context, id int) (bool, error)
}

// UserStore — базовые операции над учётными записями.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	UpdateUser(ctx context.Context, user *User) error
	DeleteUser(ctx context.Context, user *User) error
	// FindUserByID и FindUserByName возвращают nil, если пользователя нет.
	FindUserByID(ctx context.Context, id string) (*User, error)
	FindUserByName(ctx context.Context, normalizedName string) (*User, error)
	GetUserName(ctx context.Context, user *User) (string, error)
	SetUserName(ctx context.Context, user *User, name string) error
	GetNormalizedUserName(ctx context.Context, user *User) (string, error)
	SetNormalizedUserName(ctx context.Context, user *User, name string) error
}

// UserPasswordStore — хэш пароля.
type UserPasswordStore interface {
	GetPasswordHash(ctx context.Context, user *User) (string, error)
	SetPasswordHash(ctx context.Context, user *User, hash string) error
	HasPassword(ctx context.Context, user *User) (bool, error)
}

// UserEmailStore — адрес почты и его подтверждение.
type UserEmailStore interface {
	GetEmail(ctx context.Context, user *User) (string, error)
	SetEmail(ctx context.Context, user *User, email string) error
	GetEmailConfirmed(ctx context.Context, user *User) (bool, error)
	SetEmailConfirmed(ctx context.Context, user *User, confirmed bool) error
	GetNormalizedEmail(ctx context.Context, user *User) (string, error)
	SetNormalizedEmail(ctx context.Context, user *User, email string) error
	FindUserByEmail(ctx context.Context, normalizedEmail string) (*User, error)
}

// UserPhoneNumberStore — телефон и его подтверждение.
type UserPhoneNumberStore interface {
	GetPhoneNumber(ctx context.Context, user *User) (string, error)
	SetPhoneNumber(ctx context.Context, user *User, phone string) error
	GetPhoneNumberConfirmed(ctx context.Context, user *User) (bool, error)
	SetPhoneNumberConfirmed(ctx context.Context, user *User, confirmed bool) error
}

// UserLoginStore — внешние провайдеры входа.
type UserLoginStore interface {
	AddLogin(ctx context.Context, user *User, login UserLoginInfo) error
	RemoveLogin(ctx context.Context, user *User, loginProvider, providerKey string) error
	GetLogins(ctx context.Context, user *User) ([]UserLoginInfo, error)
	FindUserByLogin(ctx context.Context, loginProvider, providerKey string) (*User, error)
}

// UserRoleStore — членство пользователя в ролях.
type UserRoleStore interface {
	AddToRole(ctx context.Context, user *User, roleName string) error
	RemoveFromRole(ctx context.Context, user *User, roleName string) error
	GetRoles(ctx context.Context, user *User) ([]string, error)
	IsInRole(ctx context.Context, user *User, roleName string) (bool, error)
	GetUsersInRole(ctx context.Context, roleName string) ([]User, error)
}

// UserClaimStore — утверждения пользователя.
type UserClaimStore interface {
	GetClaims(ctx context.Context, user *User) ([]Claim, error)
	AddClaims(ctx context.Context, user *User, claims []Claim) error
	ReplaceClaim(ctx context.Context, user *User, claim, newClaim Claim) error
	RemoveClaims(ctx context.Context, user *User, claims []Claim) error
	GetUsersForClaim(ctx context.Context, claim Claim) ([]User, error)
}

// UserTwoFactorStore — признак двухфакторной аутентификации.
type UserTwoFactorStore interface {
	GetTwoFactorEnabled(ctx context.Context, user *User) (bool, error)
	SetTwoFactorEnabled(ctx context.Context, user *User, enabled bool) error
}

// UserStores объединяет все грани хранилища пользователей: фреймворк
// идентичности ожидает один объект, удовлетворяющий каждой из них.
type UserStores interface {
	UserStore
	UserPasswordStore
	UserEmailStore
	UserPhoneNumberStore
	UserLoginStore
	UserRoleStore
	UserClaimStore
	UserTwoFactorStore
}

// RoleStore — справочник ролей.
type RoleStore interface {
	CreateRole(ctx context.Context, role *Role) error
	UpdateRole(ctx context.Context, role *Role) error
	DeleteRole(ctx context.Context, role *Role) error
	FindRoleByID(ctx context.Context, id string) (*Role, error)
	FindRoleByName(ctx context.Context, normalizedName string) (*Role, error)
	GetRoles(ctx context.Context) ([]Role, error)
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(ctx context.Context, event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg OutboxMessage) (OutboxMessage, error)
	PullPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	Stats(ctx context.Context) (OutboxStats, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
	// DeleteProcessedBefore удаляет до limit отправленных или failed
	// сообщений, обновлённых раньше before, и возвращает их число.
	DeleteProcessedBefore(ctx context.Context, before time.Time, limit int) (int, error)
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	Attempts      int
	CreatedAt     time.Time
}

// OutboxDeadLetter — payload события, которое outbox не смог опубликовать.
// Исходное событие лежит в Payload без изменений.
type OutboxDeadLetter struct {
	OutboxID       string          `json:"outbox_id"`
	AggregateType  string          `json:"aggregate_type"`
	AggregateID    string          `json:"aggregate_id"`
	EventType      string          `json:"event_type"`
	Payload        json.RawMessage `json:"payload"`
	PublishError   string          `json:"publish_error,omitempty"`
	DLQPublishedAt string          `json:"dlq_published_at,omitempty"`
}

// DeadLetter оборачивает сообщение в OutboxDeadLetter.
func (m OutboxMessage) DeadLetter(publishErr error, at time.Time) OutboxDeadLetter {
	letter := OutboxDeadLetter{
		OutboxID:       m.ID,
		AggregateType:  m.AggregateType,
		AggregateID:    m.AggregateID,
		EventType:      m.EventType,
		Payload:        json.RawMessage(m.Payload),
		DLQPublishedAt: at.UTC().Format(time.RFC3339Nano),
	}
	if publishErr != nil {
		letter.PublishError = publishErr.Error()
	}
	return letter
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// Типы событий заказа, публикуемых через outbox.
const (
	AggregateOrder        = "order"
	EventTypeOrderCreated = "order.created"
)
