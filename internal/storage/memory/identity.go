package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
)

type identityData struct {
	mu        sync.RWMutex
	users     map[string]domain.User
	logins    map[string][]domain.UserLoginInfo
	claims    map[string][]domain.Claim
	userRoles map[string]map[string]struct{}
	roles     map[string]domain.Role
}

// UserStore — in-memory хранилище пользователей, реализующее все грани
// domain.UserStores. Геттеры и сеттеры полей работают с переданной
// сущностью, сохранение выполняет UpdateUser.
type UserStore struct {
	domain.UserFields
	data *identityData
}

// RoleStore — in-memory справочник ролей, общий с UserStore.
type RoleStore struct {
	data *identityData
}

var (
	_ domain.UserStores = (*UserStore)(nil)
	_ domain.RoleStore  = (*RoleStore)(nil)
)

// NewIdentityStores создаёт связанные хранилища пользователей и ролей.
func NewIdentityStores() (*UserStore, *RoleStore) {
	data := &identityData{
		users:     make(map[string]domain.User),
		logins:    make(map[string][]domain.UserLoginInfo),
		claims:    make(map[string][]domain.Claim),
		userRoles: make(map[string]map[string]struct{}),
		roles:     make(map[string]domain.Role),
	}
	return &UserStore{data: data}, &RoleStore{data: data}
}

func (s *UserStore) CreateUser(_ context.Context, user *domain.User) error {
	d := s.data
	d.mu.Lock()
	defer d.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if _, exists := d.users[user.ID]; exists {
		return fmt.Errorf("user %s: %w", user.ID, domain.ErrConflict)
	}
	if user.NormalizedUserName == "" {
		user.NormalizedUserName = domain.Normalize(user.UserName)
	}
	if d.userByNameLocked(user.NormalizedUserName, "") != nil {
		return fmt.Errorf("user name %q: %w", user.UserName, domain.ErrConflict)
	}
	if user.SecurityStamp == "" {
		user.SecurityStamp = uuid.NewString()
	}
	user.ConcurrencyStamp = uuid.NewString()
	d.users[user.ID] = *user
	return nil
}

// UpdateUser сохраняет пользователя с проверкой ConcurrencyStamp.
func (s *UserStore) UpdateUser(_ context.Context, user *domain.User) error {
	d := s.data
	d.mu.Lock()
	defer d.mu.Unlock()

	stored, ok := d.users[user.ID]
	if !ok {
		return fmt.Errorf("user %s: %w", user.ID, domain.ErrNotFound)
	}
	if user.ConcurrencyStamp != "" && user.ConcurrencyStamp != stored.ConcurrencyStamp {
		return fmt.Errorf("user %s was modified concurrently: %w", user.ID, domain.ErrConflict)
	}
	if d.userByNameLocked(user.NormalizedUserName, user.ID) != nil {
		return fmt.Errorf("user name %q: %w", user.UserName, domain.ErrConflict)
	}
	user.ConcurrencyStamp = uuid.NewString()
	d.users[user.ID] = *user
	return nil
}

// DeleteUser удаляет пользователя и его связи; отсутствие не ошибка.
func (s *UserStore) DeleteUser(_ context.Context, user *domain.User) error {
	d := s.data
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.users, user.ID)
	delete(d.logins, user.ID)
	delete(d.claims, user.ID)
	delete(d.userRoles, user.ID)
	return nil
}

func (s *UserStore) FindUserByID(_ context.Context, id string) (*domain.User, error) {
	d := s.data
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *UserStore) FindUserByName(_ context.Context, normalizedName string) (*domain.User, error) {
	d := s.data
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.userByNameLocked(domain.Normalize(normalizedName), ""), nil
}

func (s *UserStore) FindUserByEmail(_ context.Context, normalizedEmail string) (*domain.User, error) {
	d := s.data
	d.mu.RLock()
	defer d.mu.RUnlock()

	email := domain.Normalize(normalizedEmail)
	for _, u := range d.users {
		if u.NormalizedEmail == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *UserStore) AddLogin(_ context.Context, user *domain.User, login domain.UserLoginInfo) error {
	d := s.data
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.users[user.ID]; !ok {
		return fmt.Errorf("user %s: %w", user.ID, domain.ErrNotFound)
	}
	if d.userByLoginLocked(login.LoginProvider, login.ProviderKey) != nil {
		return fmt.Errorf("login %s/%s: %w", login.LoginProvider, login.ProviderKey, domain.ErrConflict)
	}
	d.logins[user.ID] = append(d.logins[user.ID], login)
	return nil
}

func (s *UserStore) RemoveLogin(_ context.Context, user *domain.User, loginProvider, providerKey string) error {
	d := s.data
	d.mu.Lock()
	defer d.mu.Unlock()

	logins := d.logins[user.ID]
	kept := logins[:0]
	for _, l := range logins {
		if l.LoginProvider == loginProvider && l.ProviderKey == providerKey {
			continue
		}
		kept = append(kept, l)
	}
	d.logins[user.ID] = kept
	return nil
}

func (s *UserStore) GetLogins(_ context.Context, user *domain.User) ([]domain.UserLoginInfo, error) {
	d := s.data
	d.mu.RLock()
	defer d.mu.RUnlock()

	return append([]domain.UserLoginInfo{}, d.logins[user.ID]...), nil
}

func (s *UserStore) FindUserByLogin(_ context.Context, loginProvider, providerKey string) (*domain.User, error) {
	d := s.data
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.userByLoginLocked(loginProvider, providerKey), nil
}

// AddToRole добавляет пользователя в существующую роль.
func (s *UserStore) AddToRole(_ context.Context, user *domain.User, roleName string) error {
	d := s.data
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.users[user.ID]; !ok {
		return fmt.Errorf("user %s: %w", user.ID, domain.ErrNotFound)
	}
	role := d.roleByNameLocked(domain.Normalize(roleName))
	if role == nil {
		return fmt.Errorf("role %q does not exist: %w", roleName, domain.ErrValidation)
	}
	if d.userRoles[user.ID] == nil {
		d.userRoles[user.ID] = make(map[string]struct{})
	}
	d.userRoles[user.ID][role.ID] = struct{}{}
	return nil
}

func (s *UserStore) RemoveFromRole(_ context.Context, user *domain.User, roleName string) error {
	d := s.data
	d.mu.Lock()
	defer d.mu.Unlock()

	if role := d.roleByNameLocked(domain.Normalize(roleName)); role != nil {
		delete(d.userRoles[user.ID], role.ID)
	}
	return nil
}

func (s *UserStore) GetRoles(_ context.Context, user *domain.User) ([]string, error) {
	d := s.data
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.userRoles[user.ID]))
	for roleID := range d.userRoles[user.ID] {
		if role, ok := d.roles[roleID]; ok {
			names = append(names, role.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *UserStore) IsInRole(_ context.Context, user *domain.User, roleName string) (bool, error) {
	d := s.data
	d.mu.RLock()
	defer d.mu.RUnlock()

	role := d.roleByNameLocked(domain.Normalize(roleName))
	if role == nil {
		return false, nil
	}
	_, ok := d.userRoles[user.ID][role.ID]
	return ok, nil
}

func (s *UserStore) GetUsersInRole(_ context.Context, roleName string) ([]domain.User, error) {
	d := s.data
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]domain.User, 0)
	role := d.roleByNameLocked(domain.Normalize(roleName))
	if role == nil {
		return result, nil
	}
	for userID, roles := range d.userRoles {
		if _, ok := roles[role.ID]; !ok {
			continue
		}
		if u, ok := d.users[userID]; ok {
			result = append(result, u)
		}
	}
	sortUsers(result)
	return result, nil
}

func (s *UserStore) GetClaims(_ context.Context, user *domain.User) ([]domain.Claim, error) {
	d := s.data
	d.mu.RLock()
	defer d.mu.RUnlock()

	return append([]domain.Claim{}, d.claims[user.ID]...), nil
}

func (s *UserStore) AddClaims(_ context.Context, user *domain.User, claims []domain.Claim) error {
	d := s.data
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.users[user.ID]; !ok {
		return fmt.Errorf("user %s: %w", user.ID, domain.ErrNotFound)
	}
	d.claims[user.ID] = append(d.claims[user.ID], claims...)
	return nil
}

func (s *UserStore) ReplaceClaim(_ context.Context, user *domain.User, claim, newClaim domain.Claim) error {
	d := s.data
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, c := range d.claims[user.ID] {
		if c == claim {
			d.claims[user.ID][i] = newClaim
		}
	}
	return nil
}

func (s *UserStore) RemoveClaims(_ context.Context, user *domain.User, claims []domain.Claim) error {
	d := s.data
	d.mu.Lock()
	defer d.mu.Unlock()

	remove := make(map[domain.Claim]struct{}, len(claims))
	for _, c := range claims {
		remove[c] = struct{}{}
	}
	current := d.claims[user.ID]
	kept := current[:0]
	for _, c := range current {
		if _, ok := remove[c]; !ok {
			kept = append(kept, c)
		}
	}
	d.claims[user.ID] = kept
	return nil
}

func (s *UserStore) GetUsersForClaim(_ context.Context, claim domain.Claim) ([]domain.User, error) {
	d := s.data
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]domain.User, 0)
	for userID, claims := range d.claims {
		for _, c := range claims {
			if c == claim {
				if u, ok := d.users[userID]; ok {
					result = append(result, u)
				}
				break
			}
		}
	}
	sortUsers(result)
	return result, nil
}

func (s *RoleStore) CreateRole(_ context.Context, role *domain.Role) error {
	d := s.data
	d.mu.Lock()
	defer d.mu.Unlock()

	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	if role.NormalizedName == "" {
		role.NormalizedName = domain.Normalize(role.Name)
	}
	if _, exists := d.roles[role.ID]; exists || d.roleByNameLocked(role.NormalizedName) != nil {
		return fmt.Errorf("role %q: %w", role.Name, domain.ErrConflict)
	}
	d.roles[role.ID] = *role
	return nil
}

func (s *RoleStore) UpdateRole(_ context.Context, role *domain.Role) error {
	d := s.data
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.roles[role.ID]; !ok {
		return fmt.Errorf("role %s: %w", role.ID, domain.ErrNotFound)
	}
	if role.NormalizedName == "" {
		role.NormalizedName = domain.Normalize(role.Name)
	}
	if other := d.roleByNameLocked(role.NormalizedName); other != nil && other.ID != role.ID {
		return fmt.Errorf("role %q: %w", role.Name, domain.ErrConflict)
	}
	d.roles[role.ID] = *role
	return nil
}

// DeleteRole удаляет роль и членство в ней; отсутствие не ошибка.
func (s *RoleStore) DeleteRole(_ context.Context, role *domain.Role) error {
	d := s.data
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.roles, role.ID)
	for _, roles := range d.userRoles {
		delete(roles, role.ID)
	}
	return nil
}

func (s *RoleStore) FindRoleByID(_ context.Context, id string) (*domain.Role, error) {
	d := s.data
	d.mu.RLock()
	defer d.mu.RUnlock()

	role, ok := d.roles[id]
	if !ok {
		return nil, nil
	}
	return &role, nil
}

func (s *RoleStore) FindRoleByName(_ context.Context, normalizedName string) (*domain.Role, error) {
	d := s.data
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.roleByNameLocked(domain.Normalize(normalizedName)), nil
}

func (s *RoleStore) GetRoles(_ context.Context) ([]domain.Role, error) {
	d := s.data
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]domain.Role, 0, len(d.roles))
	for _, r := range d.roles {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (d *identityData) userByNameLocked(normalizedName, exceptID string) *domain.User {
	for _, u := range d.users {
		if u.NormalizedUserName == normalizedName && u.ID != exceptID {
			return &u
		}
	}
	return nil
}

func (d *identityData) userByLoginLocked(provider, key string) *domain.User {
	for userID, logins := range d.logins {
		for _, l := range logins {
			if l.LoginProvider == provider && l.ProviderKey == key {
				if u, ok := d.users[userID]; ok {
					return &u
				}
			}
		}
	}
	return nil
}

func (d *identityData) roleByNameLocked(normalizedName string) *domain.Role {
	for _, r := range d.roles {
		if r.NormalizedName == normalizedName {
			return &r
		}
	}
	return nil
}

func sortUsers(users []domain.User) {
	sort.Slice(users, func(i, j int) bool { return users[i].UserName < users[j].UserName })
}
