package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
)

const userColumns = `id, user_name, normalized_user_name, email, normalized_email, email_confirmed,
	password_hash, phone_number, phone_number_confirmed, two_factor_enabled,
	security_stamp, concurrency_stamp`

type userStore struct {
	domain.UserFields
	db *sql.DB
}

type roleStore struct {
	db *sql.DB
}

// NewUserStore создаёт PostgreSQL-реализацию всех граней хранилища пользователей.
func NewUserStore(store *Store) domain.UserStores {
	return &userStore{db: store.DB()}
}

// NewRoleStore создаёт PostgreSQL-реализацию справочника ролей.
func NewRoleStore(store *Store) domain.RoleStore {
	return &roleStore{db: store.DB()}
}

func (r *userStore) CreateUser(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.NormalizedUserName == "" {
		user.NormalizedUserName = domain.Normalize(user.UserName)
	}
	if user.SecurityStamp == "" {
		user.SecurityStamp = uuid.NewString()
	}
	user.ConcurrencyStamp = uuid.NewString()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, userArgs(user)...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user name %q: %w", user.UserName, domain.ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// UpdateUser сохраняет пользователя; устаревший ConcurrencyStamp даёт ErrConflict.
func (r *userStore) UpdateUser(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	newStamp := uuid.NewString()
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET user_name = $2, normalized_user_name = $3, email = $4, normalized_email = $5,
		    email_confirmed = $6, password_hash = $7, phone_number = $8,
		    phone_number_confirmed = $9, two_factor_enabled = $10,
		    security_stamp = $11, concurrency_stamp = $13
		WHERE id = $1 AND ($12 = '' OR concurrency_stamp = $12)
	`, append(userArgs(user), newStamp)...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user name %q: %w", user.UserName, domain.ErrConflict)
		}
		return fmt.Errorf("update user: %w", err)
	}

	updated, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if !updated {
		existing, err := r.FindUserByID(ctx, user.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("user %s: %w", user.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("user %s was modified concurrently: %w", user.ID, domain.ErrConflict)
	}

	user.ConcurrencyStamp = newStamp
	return nil
}

// DeleteUser удаляет пользователя; связи удаляются каскадно.
func (r *userStore) DeleteUser(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, user.ID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (r *userStore) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userStore) FindUserByName(ctx context.Context, normalizedName string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE normalized_user_name = $1`, domain.Normalize(normalizedName))
}

func (r *userStore) FindUserByEmail(ctx context.Context, normalizedEmail string) (*domain.User, error) {
	return r.findOne(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE normalized_email = $1
		ORDER BY user_name
		LIMIT 1
	`, domain.Normalize(normalizedEmail))
}

func (r *userStore) AddLogin(ctx context.Context, user *domain.User, login domain.UserLoginInfo) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_logins (login_provider, provider_key, display_name, user_id)
		VALUES ($1, $2, $3, $4)
	`, login.LoginProvider, login.ProviderKey, login.DisplayName, user.ID)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return fmt.Errorf("login %s/%s: %w", login.LoginProvider, login.ProviderKey, domain.ErrConflict)
		case isForeignKeyViolation(err):
			return fmt.Errorf("user %s: %w", user.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("insert user login: %w", err)
	}
	return nil
}

func (r *userStore) RemoveLogin(ctx context.Context, user *domain.User, loginProvider, providerKey string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `
		DELETE FROM user_logins
		WHERE user_id = $1 AND login_provider = $2 AND provider_key = $3
	`, user.ID, loginProvider, providerKey); err != nil {
		return fmt.Errorf("delete user login: %w", err)
	}
	return nil
}

func (r *userStore) GetLogins(ctx context.Context, user *domain.User) ([]domain.UserLoginInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT login_provider, provider_key, display_name
		FROM user_logins
		WHERE user_id = $1
		ORDER BY login_provider, provider_key
	`, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list user logins: %w", err)
	}
	defer rows.Close()

	result := make([]domain.UserLoginInfo, 0)
	for rows.Next() {
		var l domain.UserLoginInfo
		if err := rows.Scan(&l.LoginProvider, &l.ProviderKey, &l.DisplayName); err != nil {
			return nil, fmt.Errorf("scan user login: %w", err)
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user logins: %w", err)
	}
	return result, nil
}

func (r *userStore) FindUserByLogin(ctx context.Context, loginProvider, providerKey string) (*domain.User, error) {
	return r.findOne(ctx, `
		SELECT `+prefixed("u", userColumns)+`
		FROM users u
		JOIN user_logins l ON l.user_id = u.id
		WHERE l.login_provider = $1 AND l.provider_key = $2
	`, loginProvider, providerKey)
}

// AddToRole требует существующую роль, иначе ErrValidation.
func (r *userStore) AddToRole(ctx context.Context, user *domain.User, roleName string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM roles WHERE normalized_name = $2
		ON CONFLICT DO NOTHING
	`, user.ID, domain.Normalize(roleName))
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("user %s: %w", user.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("insert user role: %w", err)
	}

	added, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if !added {
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM roles WHERE normalized_name = $1)`, domain.Normalize(roleName)).Scan(&exists); err != nil {
			return fmt.Errorf("check role exists: %w", err)
		}
		if !exists {
			return fmt.Errorf("role %q does not exist: %w", roleName, domain.ErrValidation)
		}
	}
	return nil
}

func (r *userStore) RemoveFromRole(ctx context.Context, user *domain.User, roleName string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `
		DELETE FROM user_roles
		WHERE user_id = $1
		  AND role_id IN (SELECT id FROM roles WHERE normalized_name = $2)
	`, user.ID, domain.Normalize(roleName)); err != nil {
		return fmt.Errorf("delete user role: %w", err)
	}
	return nil
}

func (r *userStore) GetRoles(ctx context.Context, user *domain.User) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT r.name
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.name
	`, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list user roles: %w", err)
	}
	defer rows.Close()

	result := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan user role: %w", err)
		}
		result = append(result, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user roles: %w", err)
	}
	return result, nil
}

func (r *userStore) IsInRole(ctx context.Context, user *domain.User, roleName string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var inRole bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM user_roles ur
			JOIN roles r ON r.id = ur.role_id
			WHERE ur.user_id = $1 AND r.normalized_name = $2
		)
	`, user.ID, domain.Normalize(roleName)).Scan(&inRole)
	if err != nil {
		return false, fmt.Errorf("check user role: %w", err)
	}
	return inRole, nil
}

func (r *userStore) GetUsersInRole(ctx context.Context, roleName string) ([]domain.User, error) {
	return r.findMany(ctx, `
		SELECT `+prefixed("u", userColumns)+`
		FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		JOIN roles r ON r.id = ur.role_id
		WHERE r.normalized_name = $1
		ORDER BY u.user_name
	`, domain.Normalize(roleName))
}

func (r *userStore) GetClaims(ctx context.Context, user *domain.User) ([]domain.Claim, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT claim_type, claim_value
		FROM user_claims
		WHERE user_id = $1
		ORDER BY id
	`, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list user claims: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Claim, 0)
	for rows.Next() {
		var c domain.Claim
		if err := rows.Scan(&c.Type, &c.Value); err != nil {
			return nil, fmt.Errorf("scan user claim: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user claims: %w", err)
	}
	return result, nil
}

func (r *userStore) AddClaims(ctx context.Context, user *domain.User, claims []domain.Claim) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, c := range claims {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO user_claims (user_id, claim_type, claim_value)
				VALUES ($1, $2, $3)
			`, user.ID, c.Type, c.Value); err != nil {
				if isForeignKeyViolation(err) {
					return fmt.Errorf("user %s: %w", user.ID, domain.ErrNotFound)
				}
				return fmt.Errorf("insert user claim: %w", err)
			}
		}
		return nil
	})
}

func (r *userStore) ReplaceClaim(ctx context.Context, user *domain.User, claim, newClaim domain.Claim) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `
		UPDATE user_claims
		SET claim_type = $4, claim_value = $5
		WHERE user_id = $1 AND claim_type = $2 AND claim_value = $3
	`, user.ID, claim.Type, claim.Value, newClaim.Type, newClaim.Value); err != nil {
		return fmt.Errorf("replace user claim: %w", err)
	}
	return nil
}

func (r *userStore) RemoveClaims(ctx context.Context, user *domain.User, claims []domain.Claim) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	for _, c := range claims {
		if _, err := r.db.ExecContext(ctx, `
			DELETE FROM user_claims
			WHERE user_id = $1 AND claim_type = $2 AND claim_value = $3
		`, user.ID, c.Type, c.Value); err != nil {
			return fmt.Errorf("delete user claim: %w", err)
		}
	}
	return nil
}

func (r *userStore) GetUsersForClaim(ctx context.Context, claim domain.Claim) ([]domain.User, error) {
	return r.findMany(ctx, `
		SELECT `+prefixed("u", userColumns)+`
		FROM users u
		WHERE EXISTS (
			SELECT 1 FROM user_claims c
			WHERE c.user_id = u.id AND c.claim_type = $1 AND c.claim_value = $2
		)
		ORDER BY u.user_name
	`, claim.Type, claim.Value)
}

func (r *userStore) findOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userStore) findMany(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	result := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return result, nil
}

func (r *roleStore) CreateRole(ctx context.Context, role *domain.Role) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	if role.NormalizedName == "" {
		role.NormalizedName = domain.Normalize(role.Name)
	}

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO roles (id, name, normalized_name) VALUES ($1, $2, $3)
	`, role.ID, role.Name, role.NormalizedName); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("role %q: %w", role.Name, domain.ErrConflict)
		}
		return fmt.Errorf("insert role: %w", err)
	}
	return nil
}

func (r *roleStore) UpdateRole(ctx context.Context, role *domain.Role) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if role.NormalizedName == "" {
		role.NormalizedName = domain.Normalize(role.Name)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE roles SET name = $2, normalized_name = $3 WHERE id = $1
	`, role.ID, role.Name, role.NormalizedName)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("role %q: %w", role.Name, domain.ErrConflict)
		}
		return fmt.Errorf("update role: %w", err)
	}
	updated, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if !updated {
		return fmt.Errorf("role %s: %w", role.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *roleStore) DeleteRole(ctx context.Context, role *domain.Role) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, role.ID); err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	return nil
}

func (r *roleStore) FindRoleByID(ctx context.Context, id string) (*domain.Role, error) {
	return r.findOne(ctx, `SELECT id, name, normalized_name FROM roles WHERE id = $1`, id)
}

func (r *roleStore) FindRoleByName(ctx context.Context, normalizedName string) (*domain.Role, error) {
	return r.findOne(ctx, `SELECT id, name, normalized_name FROM roles WHERE normalized_name = $1`, domain.Normalize(normalizedName))
}

func (r *roleStore) GetRoles(ctx context.Context) ([]domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT id, name, normalized_name FROM roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Role, 0)
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.NormalizedName); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		result = append(result, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}
	return result, nil
}

func (r *roleStore) findOne(ctx context.Context, query string, args ...any) (*domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var role domain.Role
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&role.ID, &role.Name, &role.NormalizedName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select role: %w", err)
	}
	return &role, nil
}

func userArgs(u *domain.User) []any {
	return []any{
		u.ID, u.UserName, u.NormalizedUserName, u.Email, u.NormalizedEmail, u.EmailConfirmed,
		u.PasswordHash, u.PhoneNumber, u.PhoneNumberConfirmed, u.TwoFactorEnabled,
		u.SecurityStamp, u.ConcurrencyStamp,
	}
}

func scanUser(row rowScanner) (domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID, &u.UserName, &u.NormalizedUserName, &u.Email, &u.NormalizedEmail, &u.EmailConfirmed,
		&u.PasswordHash, &u.PhoneNumber, &u.PhoneNumberConfirmed, &u.TwoFactorEnabled,
		&u.SecurityStamp, &u.ConcurrencyStamp,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, err
		}
		return domain.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// prefixed добавляет алиас таблицы к списку колонок.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

var (
	_ domain.UserStores = (*userStore)(nil)
	_ domain.RoleStore  = (*roleStore)(nil)
)
