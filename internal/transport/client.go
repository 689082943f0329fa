// Package transport — HTTP-адаптер типизированных клиентов: JSON-запросы
// к базовому адресу endpoint через цепочку политик устойчивости.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
	"github.com/vladislavdragonenkov/webstore/internal/metrics"
	"github.com/vladislavdragonenkov/webstore/internal/resilience"
	"github.com/vladislavdragonenkov/webstore/internal/version"
)

const (
	// HeaderRequestID передаётся в каждом запросе и в журналах сервера.
	HeaderRequestID = "X-Request-ID"

	defaultAttemptTimeout = 10 * time.Second
	maxResponseBytes      = 10 << 20
	maxErrorBodyBytes     = 512
)

// Endpoint — именованный логический backend.
type Endpoint struct {
	Name    string
	BaseURL string
}

// Response — прочитанный ответ удалённого сервиса.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode разбирает JSON-тело ответа.
func (r *Response) Decode(out any) error {
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrMalformedData, err)
	}
	return nil
}

// Client выполняет запросы к одному endpoint. Безопасен для
// одновременного использования.
type Client struct {
	endpoint    Endpoint
	base        *url.URL
	httpClient  *http.Client
	policy      resilience.Policy
	metrics     *metrics.ClientMetrics
	callTimeout time.Duration
	maxBody     int64
	logger      *log.Entry
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient задаёт HTTP-клиент.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithPolicy задаёт цепочку политик endpoint.
func WithPolicy(policy resilience.Policy) Option {
	return func(c *Client) {
		if policy != nil {
			c.policy = policy
		}
	}
}

// WithMetrics включает запись метрик запросов.
func WithMetrics(m *metrics.ClientMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithCallTimeout ограничивает логический вызов вместе со всеми повторами.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) { c.callTimeout = d }
}

// WithAttemptTimeout ограничивает одну сетевую попытку.
func WithAttemptTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			clone := *c.httpClient
			clone.Timeout = d
			c.httpClient = &clone
		}
	}
}

// WithMaxResponseBytes ограничивает размер читаемого тела ответа.
func WithMaxResponseBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithLogger задаёт логгер.
func WithLogger(logger *log.Entry) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New создаёт клиент для endpoint.
func New(endpoint Endpoint, opts ...Option) (*Client, error) {
	base, err := url.Parse(endpoint.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url of %s: %w", endpoint.Name, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url of %s must be absolute: %q", endpoint.Name, endpoint.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	c := &Client{
		endpoint:   endpoint,
		base:       base,
		httpClient: &http.Client{Timeout: defaultAttemptTimeout},
		maxBody:    maxResponseBytes,
		policy: resilience.PolicyFunc(func(ctx context.Context, op resilience.Operation) error {
			return op(ctx)
		}),
		logger: log.WithFields(log.Fields{"component": "transport", "endpoint": endpoint.Name}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint возвращает endpoint клиента.
func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// Get запрашивает ресурс и разбирает его в out. Отсутствие ресурса
// возвращается как found == false без ошибки.
func (c *Client) Get(ctx context.Context, path string, out any) (bool, error) {
	resp, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if out != nil {
		if err := resp.Decode(out); err != nil {
			return false, err
		}
	}
	return true, nil
}

// GetJSON запрашивает ресурс типа T; nil без ошибки, если ресурса нет.
func GetJSON[T any](ctx context.Context, c *Client, path string) (*T, error) {
	var out T
	found, err := c.Get(ctx, path, &out)
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

// Post отправляет body методом POST.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Put отправляет body методом PUT.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

// Delete удаляет ресурс.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// Do выполняет запрос через цепочку политик и блокирует вызывающую
// горутину до ответа или исчерпания повторов. Ответ с кодом 4xx/5xx
// возвращается как *StatusError.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	target, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: encode request: %v", domain.ErrMalformedData, err)
		}
	}

	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	var resp *Response
	err = c.policy.Execute(ctx, func(ctx context.Context) error {
		r, err := c.attempt(ctx, method, path, target, payload)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) resolve(path string) (string, error) {
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", fmt.Errorf("parse path %q: %w", path, err)
	}
	return c.base.ResolveReference(ref).String(), nil
}

func (c *Client) attempt(ctx context.Context, method, path, target string, payload []byte) (*Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set(HeaderRequestID, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, 0, time.Since(start))
		return nil, &NetworkError{Endpoint: c.endpoint.Name, Method: method, Path: path, Err: err}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, c.maxBody+1))
	c.observe(method, httpResp.StatusCode, time.Since(start))
	if err != nil {
		return nil, &NetworkError{Endpoint: c.endpoint.Name, Method: method, Path: path, Err: err}
	}
	oversized := int64(len(data)) > c.maxBody
	if oversized {
		data = data[:c.maxBody]
	}

	c.logger.WithFields(log.Fields{
		"method":     method,
		"path":       path,
		"status":     httpResp.StatusCode,
		"request_id": requestID,
		"duration":   time.Since(start),
	}).Debug("Remote call finished")

	if httpResp.StatusCode >= http.StatusBadRequest {
		return nil, &StatusError{
			Endpoint:   c.endpoint.Name,
			Method:     method,
			Path:       path,
			StatusCode: httpResp.StatusCode,
			Body:       errorBody(data),
		}
	}
	if oversized {
		return nil, fmt.Errorf("%w: %s %s: response body exceeds %d bytes",
			domain.ErrMalformedData, method, path, c.maxBody)
	}

	return &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: data}, nil
}

func (c *Client) observe(method string, status int, d time.Duration) {
	if c.metrics != nil {
		c.metrics.ObserveRequest(c.endpoint.Name, method, status, d)
	}
}

func errorBody(data []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	s := strings.TrimSpace(string(data))
	if len(s) > maxErrorBodyBytes {
		s = s[:maxErrorBodyBytes]
	}
	return s
}

// DecodeBool разбирает тело-булево значение; пустое тело означает true.
func DecodeBool(resp *Response) (bool, error) {
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return true, nil
	}
	var ok bool
	if err := resp.Decode(&ok); err != nil {
		return false, err
	}
	return ok, nil
}
