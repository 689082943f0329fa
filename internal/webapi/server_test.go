package webapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
	"github.com/vladislavdragonenkov/webstore/internal/dto"
	"github.com/vladislavdragonenkov/webstore/internal/metrics"
	"github.com/vladislavdragonenkov/webstore/internal/service/orders"
	"github.com/vladislavdragonenkov/webstore/internal/storage/memory"
	"github.com/vladislavdragonenkov/webstore/internal/webapi"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	registry := prometheus.NewRegistry()
	catalog := memory.NewSeededProductData()
	users, roles := memory.NewIdentityStores()
	logger, _ := test.NewNullLogger()

	router := webapi.NewRouter(webapi.Services{
		Employees: memory.NewEmployeesData(memory.SeedEmployees()),
		Products:  catalog,
		Orders: orders.NewService(memory.NewOrderRepository(), catalog,
			orders.WithMetrics(metrics.NewOrderMetricsWithRegisterer(registry))),
		Values: memory.NewValuesService(2),
		Users:  users,
		Roles:  roles,
	},
		webapi.WithLogger(log.NewEntry(logger)),
		webapi.WithMetrics(metrics.NewHTTPMetricsWithRegisterer(registry)),
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestRouter_Employees(t *testing.T) {
	srv := newServer(t)

	status, body := call(t, srv, http.MethodGet, "/api/employees", nil)
	require.Equal(t, http.StatusOK, status)
	var employees []domain.Employee
	require.NoError(t, json.Unmarshal(body, &employees))
	assert.Len(t, employees, 3)

	status, _ = call(t, srv, http.MethodGet, "/api/employees/100", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = call(t, srv, http.MethodPost, "/api/employees", domain.Employee{LastName: "Смирнов", FirstName: "Олег", Age: 40})
	require.Equal(t, http.StatusCreated, status)
	var created domain.Employee
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, 4, created.ID)

	status, body = call(t, srv, http.MethodDelete, "/api/employees/100", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "false", strings.TrimSpace(string(body)))

	status, body = call(t, srv, http.MethodDelete, "/api/employees/4", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "true", strings.TrimSpace(string(body)))
}

func TestRouter_ErrorMapping(t *testing.T) {
	srv := newServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{name: "non-integer id", method: http.MethodGet, path: "/api/employees/abc", status: http.StatusBadRequest},
		{name: "invalid employee", method: http.MethodPost, path: "/api/employees", body: domain.Employee{FirstName: "Без фамилии", Age: 30}, status: http.StatusBadRequest},
		{name: "invalid product", method: http.MethodPost, path: "/api/products/new", body: dto.CreateProductDTO{Name: "No section"}, status: http.StatusBadRequest},
		{name: "empty order", method: http.MethodPost, path: "/api/orders/alice", body: dto.CreateOrderDTO{}, status: http.StatusBadRequest},
		{name: "unknown route", method: http.MethodGet, path: "/api/unknown", status: http.StatusNotFound},
		{name: "unknown user field", method: http.MethodPost, path: "/api/users/favourite-color", body: domain.User{}, status: http.StatusNotFound},
		{name: "duplicate user", method: http.MethodPost, path: "/api/users/user", body: domain.User{UserName: "admin"}, status: http.StatusCreated},
		{name: "duplicate user again", method: http.MethodPost, path: "/api/users/user", body: domain.User{UserName: "ADMIN"}, status: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, status, string(body))
			if status >= http.StatusBadRequest {
				var payload map[string]any
				require.NoError(t, json.Unmarshal(body, &payload))
				assert.NotEmpty(t, payload["error"])
			}
		})
	}
}

func TestRouter_MalformedBody(t *testing.T) {
	srv := newServer(t)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/employees", strings.NewReader("{not json"))
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_ProductsFilter(t *testing.T) {
	srv := newServer(t)

	brand := 3
	status, body := call(t, srv, http.MethodPost, "/api/products", domain.ProductFilter{BrandID: &brand})
	require.Equal(t, http.StatusOK, status)
	var products []dto.ProductDTO
	require.NoError(t, json.Unmarshal(body, &products))
	require.Len(t, products, 3)
	assert.Equal(t, 10, products[0].ID)
	require.NotNil(t, products[0].Brand)
	assert.Equal(t, "Albiro", products[0].Brand.Name)

	status, _ = call(t, srv, http.MethodGet, "/api/products/sections/99", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRouter_UserFieldsDoNotPersist(t *testing.T) {
	srv := newServer(t)

	status, body := call(t, srv, http.MethodPost, "/api/users/user", domain.User{UserName: "bob"})
	require.Equal(t, http.StatusCreated, status)
	var user domain.User
	require.NoError(t, json.Unmarshal(body, &user))

	status, body = call(t, srv, http.MethodPut, "/api/users/email", dto.UserValueDTO[string]{User: user, Value: "bob@example.com"})
	require.Equal(t, http.StatusOK, status)
	var changed domain.User
	require.NoError(t, json.Unmarshal(body, &changed))
	assert.Equal(t, "bob@example.com", changed.Email)

	status, body = call(t, srv, http.MethodGet, "/api/users/user/"+user.ID, nil)
	require.Equal(t, http.StatusOK, status)
	var stored domain.User
	require.NoError(t, json.Unmarshal(body, &stored))
	assert.Empty(t, stored.Email)

	status, body = call(t, srv, http.MethodPost, "/api/users/has-password", user)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "false", strings.TrimSpace(string(body)))

	status, _ = call(t, srv, http.MethodPut, "/api/users/has-password", dto.UserValueDTO[bool]{User: user, Value: true})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRouter_EscapedPathSegments(t *testing.T) {
	srv := newServer(t)

	for _, name := range []string{"OPS/ADMINS", "100%", "A B"} {
		t.Run(name, func(t *testing.T) {
			status, body := call(t, srv, http.MethodPost, "/api/roles", domain.Role{Name: name, NormalizedName: name})
			require.Less(t, status, http.StatusBadRequest, string(body))

			status, body = call(t, srv, http.MethodGet, "/api/roles/name/"+url.PathEscape(name), nil)
			require.Equal(t, http.StatusOK, status, string(body))

			var role domain.Role
			require.NoError(t, json.Unmarshal(body, &role))
			assert.Equal(t, name, role.NormalizedName)
		})
	}
}
