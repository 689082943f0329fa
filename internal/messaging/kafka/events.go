package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
)

// Topics для Kafka
const (
	TopicOrderEvents     = "webstore.order.events"
	TopicDeadLetterQueue = "webstore.dlq" // Dead Letter Queue для failed messages
)

// Kafka headers
const (
	HeaderEventType     = "x-event-type"
	HeaderAggregateType = "x-aggregate-type"
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// Envelope — обёртка, в которой outbox-сообщение уходит в Kafka.
type Envelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishedAt   time.Time       `json:"published_at"`
}

// NewEnvelope оборачивает outbox-сообщение.
func NewEnvelope(event domain.OutboxMessage) Envelope {
	return Envelope{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       json.RawMessage(event.Payload),
		PublishedAt:   time.Now().UTC(),
	}
}

// ParseEnvelope разбирает Envelope из сообщения Kafka.
func ParseEnvelope(message *sarama.ConsumerMessage) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(message.Value, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	return &env, nil
}

// ParseOrderCreated извлекает payload order.created из Envelope.
func ParseOrderCreated(env *Envelope) (*domain.OrderCreatedEvent, error) {
	if env.EventType != domain.EventTypeOrderCreated {
		return nil, fmt.Errorf("unexpected event type %q", env.EventType)
	}
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(env.Payload, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order created event: %w", err)
	}
	return &event, nil
}
