package resilience

import "time"

// Observer получает события политик для метрик и журналов.
type Observer interface {
	OnRetry(endpoint string, attempt int, delay time.Duration, err error)
	OnStateChange(endpoint string, from, to State)
	OnRejected(endpoint string)
}

// NopObserver игнорирует все события.
type NopObserver struct{}

func (NopObserver) OnRetry(string, int, time.Duration, error) {}
func (NopObserver) OnStateChange(string, State, State)        {}
func (NopObserver) OnRejected(string)                         {}
