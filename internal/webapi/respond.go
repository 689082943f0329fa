package webapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithField("component", "webapi").WithError(err).Warn("failed to encode response")
	}
}

// statusOf сопоставляет доменную ошибку коду ответа.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrBadRequest),
		errors.Is(err, domain.ErrMalformedData):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", r.URL.Path).Error("Request handler failed")
		message = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: message})
}

func decodeJSON(r *http.Request, out any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", domain.ErrMalformedData, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode body: %v", domain.ErrMalformedData, err)
	}
	return nil
}

func intParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", domain.ErrBadRequest, name, raw)
	}
	return id, nil
}

// pathParam возвращает декодированный строковый параметр пути. chi
// маршрутизирует по RawPath, если он задан, и тогда параметр остаётся
// экранированным.
func pathParam(r *http.Request, name string) (string, error) {
	raw := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return raw, nil
	}
	value, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s is not a valid path segment: %v", domain.ErrBadRequest, name, err)
	}
	return value, nil
}

// writeFound отвечает 200 со значением или 404, если его нет.
func writeFound[T any](w http.ResponseWriter, value *T) {
	if value == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: domain.ErrNotFound.Error()})
		return
	}
	writeJSON(w, http.StatusOK, value)
}

// writeDeleted отвечает 200 true или 404 false.
func writeDeleted(w http.ResponseWriter, deleted bool) {
	if !deleted {
		writeJSON(w, http.StatusNotFound, false)
		return
	}
	writeJSON(w, http.StatusOK, true)
}
