package kafka

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

// MessageHandler обрабатывает одно сообщение из Kafka.
type MessageHandler func(ctx context.Context, message *sarama.ConsumerMessage) error

// ConsumerDeadLetter — запись в DLQ о сообщении, которое handler так и
// не обработал. Исходное значение хранится как строка.
type ConsumerDeadLetter struct {
	OriginalTopic     string `json:"original_topic"`
	OriginalPartition int32  `json:"original_partition"`
	OriginalOffset    int64  `json:"original_offset"`
	OriginalKey       string `json:"original_key"`
	OriginalValue     string `json:"original_value"`
	ErrorMessage      string `json:"error_message"`
	FailedAt          string `json:"failed_at"`
}

// ConsumerConfig задаёт параметры подключения consumer group.
type ConsumerConfig struct {
	Brokers    []string
	GroupID    string
	Topics     []string
	FromOldest bool
	MaxRetries int
}

// Consumer читает события WebStore из consumer group. Сообщение, которое
// handler не обработал за maxRetries повторов, уходит в DLQ и коммитится;
// без DLQ оно остаётся незакоммиченным.
type Consumer struct {
	group      sarama.ConsumerGroup
	topics     []string
	handler    MessageHandler
	dlq        *Producer
	maxRetries int
	logger     *log.Entry
	now        func() time.Time
	wg         sync.WaitGroup
}

// NewConsumer подключается к consumer group по cfg.
func NewConsumer(cfg ConsumerConfig, handler MessageHandler, dlq *Producer) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Return.Errors = true
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	if cfg.FromOldest {
		config.Consumer.Offsets.Initial = sarama.OffsetOldest
	}

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}
	return NewConsumerWithGroup(group, cfg.Topics, handler, dlq, cfg.MaxRetries), nil
}

// NewConsumerWithGroup оборачивает готовую consumer group.
func NewConsumerWithGroup(group sarama.ConsumerGroup, topics []string, handler MessageHandler, dlq *Producer, maxRetries int) *Consumer {
	return &Consumer{
		group:      group,
		topics:     topics,
		handler:    handler,
		dlq:        dlq,
		maxRetries: max(maxRetries, 0),
		logger:     log.WithField("component", "kafka-consumer"),
		now:        time.Now,
	}
}

// Start читает topics в фоне до отмены ctx или вызова Stop.
func (c *Consumer) Start(ctx context.Context) {
	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		// Consume возвращается после каждого rebalance.
		for ctx.Err() == nil {
			if err := c.group.Consume(ctx, c.topics, c); err != nil {
				c.logger.WithError(err).Error("error from consumer")
			}
		}
	}()
	go func() {
		defer c.wg.Done()
		for err := range c.group.Errors() {
			c.logger.WithError(err).Error("consumer error")
		}
	}()
	c.logger.WithField("topics", c.topics).Info("kafka consumer started")
}

// Stop закрывает group и ждёт фоновые горутины.
func (c *Consumer) Stop() error {
	if err := c.group.Close(); err != nil {
		return fmt.Errorf("failed to close kafka consumer: %w", err)
	}
	c.wg.Wait()
	c.logger.Info("kafka consumer stopped")
	return nil
}

func (c *Consumer) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := session.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case message, ok := <-claim.Messages():
			if !ok || message == nil {
				return nil
			}
			if c.process(ctx, message) {
				session.MarkMessage(message, "")
			}
		}
	}
}

// process возвращает true, если offset можно коммитить.
func (c *Consumer) process(ctx context.Context, message *sarama.ConsumerMessage) bool {
	logger := c.logger.WithFields(log.Fields{
		"topic":     message.Topic,
		"partition": message.Partition,
		"offset":    message.Offset,
	})
	logger.Debug("received message")

	var err error
	for attempt := range c.maxRetries + 1 {
		if err = c.handler(ctx, message); err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		logger.WithError(err).WithField("attempt", attempt+1).Warn("message processing failed")
	}

	if c.dlq == nil {
		logger.WithError(err).Error("message left uncommitted: no DLQ configured")
		return false
	}
	if dlqErr := c.deadLetter(ctx, message, err); dlqErr != nil {
		logger.WithError(dlqErr).Error("failed to send to DLQ")
		return false
	}
	logger.Info("message sent to DLQ after max retries")
	return true
}

func (c *Consumer) deadLetter(ctx context.Context, message *sarama.ConsumerMessage, cause error) error {
	failedAt := c.now().UTC().Format(time.RFC3339)
	letter := ConsumerDeadLetter{
		OriginalTopic:     message.Topic,
		OriginalPartition: message.Partition,
		OriginalOffset:    message.Offset,
		OriginalKey:       string(message.Key),
		OriginalValue:     string(message.Value),
		ErrorMessage:      cause.Error(),
		FailedAt:          failedAt,
	}
	headers := []sarama.RecordHeader{
		{Key: []byte(HeaderOriginalTopic), Value: []byte(message.Topic)},
		{Key: []byte(HeaderErrorMessage), Value: []byte(letter.ErrorMessage)},
		{Key: []byte(HeaderFailedAt), Value: []byte(failedAt)},
		{Key: []byte(HeaderRetryCount), Value: []byte(strconv.Itoa(retryCount(message) + 1))},
	}
	return c.dlq.PublishEvent(ctx, TopicDeadLetterQueue, letter.OriginalKey, letter, headers...)
}

// retryCount читает число предыдущих попадений сообщения в DLQ.
func retryCount(message *sarama.ConsumerMessage) int {
	for _, header := range message.Headers {
		if header == nil || string(header.Key) != HeaderRetryCount {
			continue
		}
		if n, err := strconv.Atoi(string(header.Value)); err == nil {
			return n
		}
	}
	return 0
}
