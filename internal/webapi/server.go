// Package webapi — HTTP-хост ресурсов WebStore. Каждый ресурс обслуживается
// локальной реализацией доменного интерфейса: in-memory или PostgreSQL.
package webapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/webstore/internal/addresses"
	"github.com/vladislavdragonenkov/webstore/internal/domain"
	"github.com/vladislavdragonenkov/webstore/internal/metrics"
)

// Services — набор возможностей, которые публикует Web API.
type Services struct {
	Employees domain.EmployeesData
	Products  domain.ProductData
	Orders    domain.OrderService
	Values    domain.ValuesService
	Users     domain.UserStores
	Roles     domain.RoleStore
}

type routerOptions struct {
	logger  *log.Entry
	metrics *metrics.HTTPMetrics
}

// Option настраивает роутер.
type Option func(*routerOptions)

// WithLogger задаёт logger запросов.
func WithLogger(logger *log.Entry) Option {
	return func(o *routerOptions) {
		o.logger = logger
	}
}

// WithMetrics включает метрики запросов.
func WithMetrics(m *metrics.HTTPMetrics) Option {
	return func(o *routerOptions) {
		o.metrics = m
	}
}

// NewRouter собирает роутер Web API. Ресурс, для которого сервис не задан,
// не регистрируется.
func NewRouter(services Services, opts ...Option) http.Handler {
	options := routerOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = log.WithField("component", "webapi")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(options.logger, options.metrics))
	r.Use(middleware.Recoverer)

	api := &handlers{services: services, logger: options.logger}

	if services.Employees != nil {
		r.Route("/"+addresses.Employees, api.employeeRoutes)
	}
	if services.Products != nil {
		r.Route("/"+addresses.Products, api.productRoutes)
	}
	if services.Orders != nil {
		r.Route("/"+addresses.Orders, api.orderRoutes)
	}
	if services.Values != nil {
		r.Route("/"+addresses.Values, api.valueRoutes)
	}
	if services.Users != nil {
		r.Route("/"+addresses.Users, api.userRoutes)
	}
	if services.Roles != nil {
		r.Route("/"+addresses.Roles, api.roleRoutes)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "route not found"})
	})
	return r
}

type handlers struct {
	services Services
	logger   *log.Entry
}
