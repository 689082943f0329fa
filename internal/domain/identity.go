package domain

import "strings"

// User — учётная запись пользователя магазина. ID (UUID) назначает
// авторитетное хранилище идентичности.
type User struct {
	ID                   string `json:"id"`
	UserName             string `json:"userName"`
	NormalizedUserName   string `json:"normalizedUserName"`
	Email                string `json:"email,omitempty"`
	NormalizedEmail      string `json:"normalizedEmail,omitempty"`
	EmailConfirmed       bool   `json:"emailConfirmed"`
	PasswordHash         string `json:"passwordHash,omitempty"`
	PhoneNumber          string `json:"phoneNumber,omitempty"`
	PhoneNumberConfirmed bool   `json:"phoneNumberConfirmed"`
	TwoFactorEnabled     bool   `json:"twoFactorEnabled"`
	SecurityStamp        string `json:"securityStamp,omitempty"`
	ConcurrencyStamp     string `json:"concurrencyStamp,omitempty"`
}

// Role — роль пользователя.
type Role struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	NormalizedName string `json:"normalizedName"`
}

// Claim — утверждение о пользователе (тип + значение).
type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// UserLoginInfo — привязка пользователя к внешнему провайдеру входа.
type UserLoginInfo struct {
	LoginProvider string `json:"loginProvider"`
	ProviderKey   string `json:"providerKey"`
	DisplayName   string `json:"displayName,omitempty"`
}

// Normalize приводит имя, email или название роли к каноническому виду
// для поиска без учёта регистра.
func Normalize(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}
