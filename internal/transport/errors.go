package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
)

// StatusError — ответ удалённого сервиса с кодом 4xx/5xx.
type StatusError struct {
	Endpoint   string
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: %s %s: unexpected status %d", e.Endpoint, e.Method, e.Path, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Unwrap сопоставляет код ответа с доменными ошибками. 409 остаётся
// отклонённым запросом и дополнительно совпадает с domain.ErrConflict.
func (e *StatusError) Unwrap() []error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return []error{domain.ErrNotFound}
	case e.Transient():
		return []error{domain.ErrTransport}
	case e.StatusCode == http.StatusConflict:
		return []error{domain.ErrBadRequest, domain.ErrConflict}
	default:
		return []error{domain.ErrBadRequest}
	}
}

// Transient сообщает, что запрос можно повторить: таймаут запроса и 5xx.
func (e *StatusError) Transient() bool {
	return e.StatusCode == http.StatusRequestTimeout || e.StatusCode >= http.StatusInternalServerError
}

// NetworkError — запрос не получил ответа.
type NetworkError struct {
	Endpoint string
	Method   string
	Path     string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", e.Endpoint, e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() []error {
	return []error{domain.ErrTransport, e.Err}
}

// Transient возвращает false только для отмены вызова клиентом.
// Истечение дедлайна, в том числе собственного WithCallTimeout, намеренно
// считается временным сбоем и учитывается breaker endpoint.
func (e *NetworkError) Transient() bool {
	return !errors.Is(e.Err, context.Canceled)
}

// IsNotFound сообщает, что удалённый ресурс отсутствует.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
