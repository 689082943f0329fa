package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
	"github.com/vladislavdragonenkov/webstore/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/webstore/internal/service/outbox"
)

const kafkaClientID = "webstore-webapi"

// eventSinks — куда outbox worker отправляет события заказов.
// dlq и producer равны nil, если Kafka не используется.
type eventSinks struct {
	publisher domain.OutboxPublisher
	dlq       domain.OutboxPublisher
	producer  *kafka.Producer
}

// newEventSinks подключается к Kafka, если заданы brokers. Без брокеров
// или при ошибке подключения события пишутся в лог, процесс продолжает работу.
func newEventSinks(cfg Config, logger *log.Entry) eventSinks {
	fallback := eventSinks{publisher: outbox.NewLogPublisher(logger.WithField("component", "outbox-log"))}
	if len(cfg.KafkaBrokers) == 0 {
		return fallback
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, kafkaClientID)
	if err != nil {
		logger.WithError(err).WithField("brokers", cfg.KafkaBrokers).
			Warn("kafka is unavailable, order events go to log")
		return fallback
	}

	logger.WithFields(log.Fields{
		"brokers": cfg.KafkaBrokers,
		"topic":   cfg.OrderEventsTopic,
	}).Info("kafka producer initialized")
	return eventSinks{
		publisher: kafka.NewOutboxPublisher(producer, cfg.OrderEventsTopic),
		dlq:       kafka.NewOutboxPublisher(producer, kafka.TopicDeadLetterQueue),
		producer:  producer,
	}
}

// workerOptions дополняет base публикацией в DLQ, если она доступна.
func (s eventSinks) workerOptions(base ...outbox.Option) []outbox.Option {
	if s.dlq != nil {
		base = append(base, outbox.WithDLQPublisher(s.dlq))
	}
	return base
}

func (s eventSinks) close(logger *log.Entry) {
	if s.producer == nil {
		return
	}
	if err := s.producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
		return
	}
	logger.Info("kafka producer closed")
}
