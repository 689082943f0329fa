package domain

import "errors"

var (
	// ErrNotFound — запрошенный ресурс отсутствует (404). Не является сбоем:
	// на границе типизированного клиента превращается в пустой результат.
	ErrNotFound = errors.New("resource not found")
	// ErrServiceUnavailable — circuit breaker удалённого endpoint открыт,
	// вызов отклонён без обращения к сети.
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrTransport — сетевой сбой, таймаут или 5xx после исчерпания повторов.
	ErrTransport = errors.New("transport failure")
	// ErrBadRequest — удалённый сервис отклонил запрос (4xx, кроме 404).
	ErrBadRequest = errors.New("request rejected by remote service")
	// ErrMalformedData — тело ответа или DTO не удалось разобрать.
	ErrMalformedData = errors.New("malformed data")
	// ErrValidation — входные данные не прошли проверку.
	ErrValidation = errors.New("validation failed")
	// ErrConflict — ресурс с таким ключом уже существует.
	ErrConflict = errors.New("resource already exists")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsNotFound проверяет, означает ли ошибка отсутствие ресурса.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
