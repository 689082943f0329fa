// Package addresses содержит корни ресурсов Web API. Константы общие для
// сервера и типизированных клиентов, поэтому маршруты не расходятся.
package addresses

import (
	"net/url"
	"strconv"
)

// Корни ресурсов относительно базового адреса endpoint.
const (
	Employees = "api/employees"
	Products  = "api/products"
	Orders    = "api/orders"
	Values    = "api/values"
	Users     = "api/users"
	Roles     = "api/roles"
)

// Имена endpoint, по которым разделяется состояние circuit breaker.
const (
	EndpointAPI      = "webstore-api"
	EndpointIdentity = "webstore-identity"
)

// Поля пользователя, доступные через пары POST (чтение) / PUT (запись)
// на маршруте Users + "/" + поле.
const (
	FieldUserName             = "user-name"
	FieldNormalizedUserName   = "normalized-user-name"
	FieldPasswordHash         = "password-hash"
	FieldHasPassword          = "has-password"
	FieldEmail                = "email"
	FieldEmailConfirmed       = "email-confirmed"
	FieldNormalizedEmail      = "normalized-email"
	FieldPhoneNumber          = "phone-number"
	FieldPhoneNumberConfirmed = "phone-number-confirmed"
	FieldTwoFactorEnabled     = "two-factor-enabled"
)

// Join склеивает корень ресурса и сегменты пути, экранируя сегменты.
func Join(root string, segments ...string) string {
	path := root
	for _, s := range segments {
		path += "/" + url.PathEscape(s)
	}
	return path
}

// ID форматирует целочисленный идентификатор как сегмент пути.
func ID(root string, id int, segments ...string) string {
	return Join(root, append([]string{strconv.Itoa(id)}, segments...)...)
}
