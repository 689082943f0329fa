package clients

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vladislavdragonenkov/webstore/internal/addresses"
	"github.com/vladislavdragonenkov/webstore/internal/domain"
	"github.com/vladislavdragonenkov/webstore/internal/dto"
	"github.com/vladislavdragonenkov/webstore/internal/transport"
)

// Users — удалённое хранилище пользователей. Один экземпляр реализует
// все восемь граней, которые ожидает фреймворк идентичности. Кэша нет:
// каждый вызов — один запрос к endpoint идентичности.
//
// Сеттеры возвращают обновлённого пользователя с сервера и копируют его
// в переданную сущность. Сохранение выполняет UpdateUser.
type Users struct {
	client  *transport.Client
	address string
}

var (
	_ domain.UserStore            = (*Users)(nil)
	_ domain.UserPasswordStore    = (*Users)(nil)
	_ domain.UserEmailStore       = (*Users)(nil)
	_ domain.UserPhoneNumberStore = (*Users)(nil)
	_ domain.UserLoginStore       = (*Users)(nil)
	_ domain.UserRoleStore        = (*Users)(nil)
	_ domain.UserClaimStore       = (*Users)(nil)
	_ domain.UserTwoFactorStore   = (*Users)(nil)
	_ domain.UserStores           = (*Users)(nil)
)

// NewUsers создаёт клиент пользователей.
func NewUsers(client *transport.Client) *Users {
	return &Users{client: client, address: addresses.Users}
}

func (c *Users) path(segments ...string) string {
	return addresses.Join(c.address, segments...)
}

// post отправляет body и разбирает ответ в out.
func (c *Users) post(ctx context.Context, op, path string, body, out any) error {
	resp, err := c.client.Post(ctx, path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if out == nil {
		return nil
	}
	if err := resp.Decode(out); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// replace отправляет body методом method и копирует ответ в user.
func (c *Users) replace(ctx context.Context, op, method, path string, user *domain.User, body any) error {
	if user == nil {
		return fmt.Errorf("%s: %w: nil user", op, domain.ErrValidation)
	}
	resp, err := c.client.Do(ctx, method, path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	var updated domain.User
	if err := resp.Decode(&updated); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	*user = updated
	return nil
}

func (c *Users) getField(ctx context.Context, user *domain.User, field string, out any) error {
	if user == nil {
		return fmt.Errorf("get %s: %w: nil user", field, domain.ErrValidation)
	}
	return c.post(ctx, "get "+field, c.path(field), user, out)
}

func setField[T any](ctx context.Context, c *Users, user *domain.User, field string, value T) error {
	if user == nil {
		return fmt.Errorf("set %s: %w: nil user", field, domain.ErrValidation)
	}
	return c.replace(ctx, "set "+field, http.MethodPut, c.path(field), user, dto.UserValueDTO[T]{User: *user, Value: value})
}

func (c *Users) findUser(ctx context.Context, op, path string) (*domain.User, error) {
	user, err := transport.GetJSON[domain.User](ctx, c.client, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (c *Users) listUsers(ctx context.Context, op, path string, body any) ([]domain.User, error) {
	var users []domain.User
	if body == nil {
		if _, err := c.client.Get(ctx, path, &users); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else if err := c.post(ctx, op, path, body, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// UserStore

func (c *Users) CreateUser(ctx context.Context, user *domain.User) error {
	return c.replace(ctx, "create user", http.MethodPost, c.path("user"), user, user)
}

func (c *Users) UpdateUser(ctx context.Context, user *domain.User) error {
	return c.replace(ctx, "update user", http.MethodPut, c.path("user"), user, user)
}

// DeleteUser удаляет пользователя; отсутствие пользователя не ошибка.
func (c *Users) DeleteUser(ctx context.Context, user *domain.User) error {
	if user == nil {
		return fmt.Errorf("delete user: %w: nil user", domain.ErrValidation)
	}
	if _, err := deleteResource(ctx, c.client, c.path("user", user.ID)); err != nil {
		return fmt.Errorf("delete user %s: %w", user.ID, err)
	}
	return nil
}

func (c *Users) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	return c.findUser(ctx, "find user by id", c.path("user", id))
}

func (c *Users) FindUserByName(ctx context.Context, normalizedName string) (*domain.User, error) {
	return c.findUser(ctx, "find user by name", c.path("user", "name", normalizedName))
}

func (c *Users) GetUserName(ctx context.Context, user *domain.User) (string, error) {
	var name string
	err := c.getField(ctx, user, addresses.FieldUserName, &name)
	return name, err
}

func (c *Users) SetUserName(ctx context.Context, user *domain.User, name string) error {
	return setField(ctx, c, user, addresses.FieldUserName, name)
}

func (c *Users) GetNormalizedUserName(ctx context.Context, user *domain.User) (string, error) {
	var name string
	err := c.getField(ctx, user, addresses.FieldNormalizedUserName, &name)
	return name, err
}

func (c *Users) SetNormalizedUserName(ctx context.Context, user *domain.User, name string) error {
	return setField(ctx, c, user, addresses.FieldNormalizedUserName, name)
}

// UserPasswordStore

func (c *Users) GetPasswordHash(ctx context.Context, user *domain.User) (string, error) {
	var hash string
	err := c.getField(ctx, user, addresses.FieldPasswordHash, &hash)
	return hash, err
}

func (c *Users) SetPasswordHash(ctx context.Context, user *domain.User, hash string) error {
	return setField(ctx, c, user, addresses.FieldPasswordHash, hash)
}

func (c *Users) HasPassword(ctx context.Context, user *domain.User) (bool, error) {
	var ok bool
	err := c.getField(ctx, user, addresses.FieldHasPassword, &ok)
	return ok, err
}

// UserEmailStore

func (c *Users) GetEmail(ctx context.Context, user *domain.User) (string, error) {
	var email string
	err := c.getField(ctx, user, addresses.FieldEmail, &email)
	return email, err
}

func (c *Users) SetEmail(ctx context.Context, user *domain.User, email string) error {
	return setField(ctx, c, user, addresses.FieldEmail, email)
}

func (c *Users) GetEmailConfirmed(ctx context.Context, user *domain.User) (bool, error) {
	var ok bool
	err := c.getField(ctx, user, addresses.FieldEmailConfirmed, &ok)
	return ok, err
}

func (c *Users) SetEmailConfirmed(ctx context.Context, user *domain.User, confirmed bool) error {
	return setField(ctx, c, user, addresses.FieldEmailConfirmed, confirmed)
}

func (c *Users) GetNormalizedEmail(ctx context.Context, user *domain.User) (string, error) {
	var email string
	err := c.getField(ctx, user, addresses.FieldNormalizedEmail, &email)
	return email, err
}

func (c *Users) SetNormalizedEmail(ctx context.Context, user *domain.User, email string) error {
	return setField(ctx, c, user, addresses.FieldNormalizedEmail, email)
}

func (c *Users) FindUserByEmail(ctx context.Context, normalizedEmail string) (*domain.User, error) {
	return c.findUser(ctx, "find user by email", c.path("user", "email", normalizedEmail))
}

// UserPhoneNumberStore

func (c *Users) GetPhoneNumber(ctx context.Context, user *domain.User) (string, error) {
	var phone string
	err := c.getField(ctx, user, addresses.FieldPhoneNumber, &phone)
	return phone, err
}

func (c *Users) SetPhoneNumber(ctx context.Context, user *domain.User, phone string) error {
	return setField(ctx, c, user, addresses.FieldPhoneNumber, phone)
}

func (c *Users) GetPhoneNumberConfirmed(ctx context.Context, user *domain.User) (bool, error) {
	var ok bool
	err := c.getField(ctx, user, addresses.FieldPhoneNumberConfirmed, &ok)
	return ok, err
}

func (c *Users) SetPhoneNumberConfirmed(ctx context.Context, user *domain.User, confirmed bool) error {
	return setField(ctx, c, user, addresses.FieldPhoneNumberConfirmed, confirmed)
}

// UserLoginStore

func (c *Users) AddLogin(ctx context.Context, user *domain.User, login domain.UserLoginInfo) error {
	if user == nil {
		return fmt.Errorf("add login: %w: nil user", domain.ErrValidation)
	}
	return c.post(ctx, "add login", c.path("logins", "add"), dto.LoginDTO{User: *user, Login: login}, nil)
}

func (c *Users) RemoveLogin(ctx context.Context, user *domain.User, loginProvider, providerKey string) error {
	if user == nil {
		return fmt.Errorf("remove login: %w: nil user", domain.ErrValidation)
	}
	return c.post(ctx, "remove login", c.path("logins", "remove"), dto.RemoveLoginDTO{
		User:          *user,
		LoginProvider: loginProvider,
		ProviderKey:   providerKey,
	}, nil)
}

func (c *Users) GetLogins(ctx context.Context, user *domain.User) ([]domain.UserLoginInfo, error) {
	if user == nil {
		return nil, fmt.Errorf("get logins: %w: nil user", domain.ErrValidation)
	}
	var logins []domain.UserLoginInfo
	if err := c.post(ctx, "get logins", c.path("logins"), user, &logins); err != nil {
		return nil, err
	}
	if logins == nil {
		logins = []domain.UserLoginInfo{}
	}
	return logins, nil
}

func (c *Users) FindUserByLogin(ctx context.Context, loginProvider, providerKey string) (*domain.User, error) {
	return c.findUser(ctx, "find user by login", c.path("user", "login", loginProvider, providerKey))
}

// UserRoleStore

func (c *Users) AddToRole(ctx context.Context, user *domain.User, roleName string) error {
	if user == nil {
		return fmt.Errorf("add to role: %w: nil user", domain.ErrValidation)
	}
	return c.post(ctx, "add to role "+roleName, c.path("roles", "add", roleName), user, nil)
}

func (c *Users) RemoveFromRole(ctx context.Context, user *domain.User, roleName string) error {
	if user == nil {
		return fmt.Errorf("remove from role: %w: nil user", domain.ErrValidation)
	}
	return c.post(ctx, "remove from role "+roleName, c.path("roles", "remove", roleName), user, nil)
}

func (c *Users) GetRoles(ctx context.Context, user *domain.User) ([]string, error) {
	if user == nil {
		return nil, fmt.Errorf("get roles: %w: nil user", domain.ErrValidation)
	}
	var roles []string
	if err := c.post(ctx, "get roles", c.path("roles"), user, &roles); err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []string{}
	}
	return roles, nil
}

func (c *Users) IsInRole(ctx context.Context, user *domain.User, roleName string) (bool, error) {
	if user == nil {
		return false, fmt.Errorf("is in role: %w: nil user", domain.ErrValidation)
	}
	var ok bool
	err := c.post(ctx, "is in role "+roleName, c.path("roles", "in", roleName), user, &ok)
	return ok, err
}

func (c *Users) GetUsersInRole(ctx context.Context, roleName string) ([]domain.User, error) {
	return c.listUsers(ctx, "get users in role "+roleName, c.path("in-role", roleName), nil)
}

// UserClaimStore

func (c *Users) GetClaims(ctx context.Context, user *domain.User) ([]domain.Claim, error) {
	if user == nil {
		return nil, fmt.Errorf("get claims: %w: nil user", domain.ErrValidation)
	}
	var claims []domain.Claim
	if err := c.post(ctx, "get claims", c.path("claims"), user, &claims); err != nil {
		return nil, err
	}
	if claims == nil {
		claims = []domain.Claim{}
	}
	return claims, nil
}

func (c *Users) AddClaims(ctx context.Context, user *domain.User, claims []domain.Claim) error {
	if user == nil {
		return fmt.Errorf("add claims: %w: nil user", domain.ErrValidation)
	}
	return c.post(ctx, "add claims", c.path("claims", "add"), dto.ClaimsDTO{User: *user, Claims: claims}, nil)
}

func (c *Users) ReplaceClaim(ctx context.Context, user *domain.User, claim, newClaim domain.Claim) error {
	if user == nil {
		return fmt.Errorf("replace claim: %w: nil user", domain.ErrValidation)
	}
	return c.post(ctx, "replace claim", c.path("claims", "replace"), dto.ReplaceClaimDTO{
		User:     *user,
		Claim:    claim,
		NewClaim: newClaim,
	}, nil)
}

func (c *Users) RemoveClaims(ctx context.Context, user *domain.User, claims []domain.Claim) error {
	if user == nil {
		return fmt.Errorf("remove claims: %w: nil user", domain.ErrValidation)
	}
	return c.post(ctx, "remove claims", c.path("claims", "remove"), dto.ClaimsDTO{User: *user, Claims: claims}, nil)
}

func (c *Users) GetUsersForClaim(ctx context.Context, claim domain.Claim) ([]domain.User, error) {
	return c.listUsers(ctx, "get users for claim", c.path("with-claim"), claim)
}

// UserTwoFactorStore

func (c *Users) GetTwoFactorEnabled(ctx context.Context, user *domain.User) (bool, error) {
	var ok bool
	err := c.getField(ctx, user, addresses.FieldTwoFactorEnabled, &ok)
	return ok, err
}

func (c *Users) SetTwoFactorEnabled(ctx context.Context, user *domain.User, enabled bool) error {
	return setField(ctx, c, user, addresses.FieldTwoFactorEnabled, enabled)
}
