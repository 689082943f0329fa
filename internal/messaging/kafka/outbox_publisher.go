package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
)

// OutboxTopicPublisher отправляет outbox-сообщения в один topic в виде Envelope.
type OutboxTopicPublisher struct {
	producer *Producer
	topic    string
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)

// NewOutboxPublisher создаёт паблишер; пустой topic означает TopicOrderEvents.
func NewOutboxPublisher(producer *Producer, topic string) *OutboxTopicPublisher {
	return &OutboxTopicPublisher{producer: producer, topic: firstNonEmpty(topic, TopicOrderEvents)}
}

// Topic возвращает topic назначения.
func (p *OutboxTopicPublisher) Topic() string { return p.topic }

func (p *OutboxTopicPublisher) Publish(ctx context.Context, event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return errProducerNotReady
	}
	value, err := json.Marshal(NewEnvelope(event))
	if err != nil {
		return fmt.Errorf("encode envelope %s: %w", event.ID, err)
	}
	return p.producer.Send(ctx, p.topic, partitionKey(event), value, eventHeaders(event)...)
}

// partitionKey держит события одного заказа в одной partition.
func partitionKey(event domain.OutboxMessage) string {
	return firstNonEmpty(event.AggregateID, event.ID)
}

func eventHeaders(event domain.OutboxMessage) []sarama.RecordHeader {
	return []sarama.RecordHeader{
		{Key: []byte(HeaderEventType), Value: []byte(event.EventType)},
		{Key: []byte(HeaderAggregateType), Value: []byte(event.AggregateType)},
	}
}
