package app

import (
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/webstore/internal/addresses"
	"github.com/vladislavdragonenkov/webstore/internal/clients"
	"github.com/vladislavdragonenkov/webstore/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/webstore/internal/health"
	"github.com/vladislavdragonenkov/webstore/internal/metrics"
	"github.com/vladislavdragonenkov/webstore/internal/resilience"
	"github.com/vladislavdragonenkov/webstore/internal/transport"
)

// RemoteServices — доменные интерфейсы, реализованные типизированными
// клиентами удалённого Web API.
type RemoteServices struct {
	Employees domain.EmployeesData
	Products  domain.ProductData
	Orders    domain.OrderService
	Values    domain.ValuesService
	Users     domain.UserStores
	Roles     domain.RoleStore

	// Registry хранит breaker каждого endpoint; общий для всех клиентов.
	Registry *resilience.Registry
}

// BreakerChecker возвращает health-проверку состояний breaker.
func (s *RemoteServices) BreakerChecker() healthcheck.Checker {
	return healthcheck.NewBreakerChecker(s.Registry)
}

type remoteOptions struct {
	logger          *log.Entry
	metrics         *metrics.ClientMetrics
	httpClient      *http.Client
	registryOptions []resilience.RegistryOption
}

// RemoteOption настраивает NewRemoteServices.
type RemoteOption func(*remoteOptions)

// WithRemoteLogger задаёт базовый логгер клиентов.
func WithRemoteLogger(logger *log.Entry) RemoteOption {
	return func(o *remoteOptions) { o.logger = logger }
}

// WithClientMetrics включает метрики исходящих вызовов и событий политик.
func WithClientMetrics(m *metrics.ClientMetrics) RemoteOption {
	return func(o *remoteOptions) { o.metrics = m }
}

// WithRemoteHTTPClient задаёт HTTP-клиент для всех endpoint.
func WithRemoteHTTPClient(httpClient *http.Client) RemoteOption {
	return func(o *remoteOptions) { o.httpClient = httpClient }
}

// WithRegistryOptions передаёт дополнительные опции реестру политик.
func WithRegistryOptions(opts ...resilience.RegistryOption) RemoteOption {
	return func(o *remoteOptions) { o.registryOptions = append(o.registryOptions, opts...) }
}

// NewRemoteServices создаёт клиентов для всех ресурсов. Каждый клиент
// получает свой transport, но breaker endpoint у них общий.
func NewRemoteServices(cfg RemoteConfig, opts ...RemoteOption) (*RemoteServices, error) {
	options := remoteOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = log.WithField("component", "clients")
	}

	registryOptions := []resilience.RegistryOption{resilience.WithLogger(options.logger)}
	if options.metrics != nil {
		registryOptions = append(registryOptions, resilience.WithObserver(options.metrics))
	}
	registry := resilience.NewRegistry(cfg.Retry, cfg.Breaker, append(registryOptions, options.registryOptions...)...)

	newClient := func(name, baseURL string) (*transport.Client, error) {
		endpoint := transport.Endpoint{Name: name, BaseURL: baseURL}
		client, err := transport.New(endpoint,
			transport.WithHTTPClient(options.httpClient),
			transport.WithAttemptTimeout(cfg.AttemptTimeout),
			transport.WithCallTimeout(cfg.CallTimeout),
			transport.WithPolicy(registry.Pipeline(name)),
			transport.WithMetrics(options.metrics),
			transport.WithLogger(options.logger.WithField("endpoint", name)),
		)
		if err != nil {
			return nil, fmt.Errorf("create %s client: %w", name, err)
		}
		return client, nil
	}

	services := &RemoteServices{Registry: registry}
	apiClients := make([]*transport.Client, 4)
	for i := range apiClients {
		client, err := newClient(addresses.EndpointAPI, cfg.APIURL)
		if err != nil {
			return nil, err
		}
		apiClients[i] = client
	}
	services.Employees = clients.NewEmployees(apiClients[0])
	services.Products = clients.NewProducts(apiClients[1])
	services.Orders = clients.NewOrders(apiClients[2])
	services.Values = clients.NewValues(apiClients[3])

	usersClient, err := newClient(addresses.EndpointIdentity, cfg.identityURL())
	if err != nil {
		return nil, err
	}
	rolesClient, err := newClient(addresses.EndpointIdentity, cfg.identityURL())
	if err != nil {
		return nil, err
	}
	services.Users = clients.NewUsers(usersClient)
	services.Roles = clients.NewRoles(rolesClient)

	return services, nil
}
