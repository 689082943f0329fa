package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
)

const (
	DefaultReplayLimit       = 100
	DefaultReplayIdleTimeout = 2 * time.Second
)

// ReplayConfig задаёт, какие сообщения DLQ и куда переотправлять.
type ReplayConfig struct {
	SourceTopic string
	TargetTopic string
	Limit       int
	// Execute выключает dry-run: без него кандидаты только логируются.
	Execute     bool
	FromNewest  bool
	IdleTimeout time.Duration
}

func (c ReplayConfig) validate() error {
	switch {
	case strings.TrimSpace(c.SourceTopic) == "":
		return errors.New("source topic is required")
	case strings.TrimSpace(c.TargetTopic) == "":
		return errors.New("target topic is required")
	case c.Limit <= 0:
		return errors.New("limit must be > 0")
	case c.IdleTimeout <= 0:
		return errors.New("idle timeout must be > 0")
	}
	return nil
}

// ReplayStats — итог прохода по DLQ.
type ReplayStats struct {
	Processed int
	Replayed  int
	Skipped   int
}

func (s *ReplayStats) add(other ReplayStats) {
	s.Processed += other.Processed
	s.Replayed += other.Replayed
	s.Skipped += other.Skipped
}

// OffsetSource — часть sarama.Client, нужная для границ партиций.
type OffsetSource interface {
	Partitions(topic string) ([]int32, error)
	GetOffset(topic string, partition int32, time int64) (int64, error)
}

// PartitionSource — часть sarama.Consumer.
type PartitionSource interface {
	ConsumePartition(topic string, partition int32, offset int64) (sarama.PartitionConsumer, error)
}

// Replayer читает DLQ по партициям от текущих границ и возвращает
// события заказов в рабочий topic.
type Replayer struct {
	cfg      ReplayConfig
	offsets  OffsetSource
	source   PartitionSource
	producer *Producer
	logger   *log.Entry
	closers  []func() error
}

// NewReplayer подключается к брокерам. Producer создаётся только в режиме Execute.
func NewReplayer(brokers []string, cfg ReplayConfig) (*Replayer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	config := sarama.NewConfig()
	config.Consumer.Return.Errors = true
	client, err := sarama.NewClient(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}

	var producer *Producer
	if cfg.Execute {
		if producer, err = NewProducer(brokers, "webstore-replay"); err != nil {
			_ = consumer.Close()
			_ = client.Close()
			return nil, err
		}
	}

	r := NewReplayerWith(cfg, client, consumer, producer)
	r.closers = []func() error{consumer.Close, client.Close}
	if producer != nil {
		r.closers = append([]func() error{producer.Close}, r.closers...)
	}
	return r, nil
}

// NewReplayerWith собирает Replayer из готовых зависимостей.
func NewReplayerWith(cfg ReplayConfig, offsets OffsetSource, source PartitionSource, producer *Producer) *Replayer {
	return &Replayer{
		cfg:      cfg,
		offsets:  offsets,
		source:   source,
		producer: producer,
		logger:   log.WithField("component", "dlq-replay"),
	}
}

// Close освобождает подключения, созданные NewReplayer.
func (r *Replayer) Close() error {
	var errs []error
	for _, closeFn := range r.closers {
		errs = append(errs, closeFn())
	}
	return errors.Join(errs...)
}

// Replay обходит партиции по возрастанию, пока не наберёт Limit сообщений.
func (r *Replayer) Replay(ctx context.Context) (ReplayStats, error) {
	var total ReplayStats
	if err := r.cfg.validate(); err != nil {
		return total, err
	}
	if r.offsets == nil || r.source == nil {
		return total, errors.New("kafka client and consumer are required")
	}
	if r.cfg.Execute && r.producer == nil {
		return total, errors.New("producer is required in execute mode")
	}

	partitions, err := r.offsets.Partitions(r.cfg.SourceTopic)
	if err != nil {
		return total, fmt.Errorf("get partitions for topic %s: %w", r.cfg.SourceTopic, err)
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })

	for _, partition := range partitions {
		if total.Processed >= r.cfg.Limit {
			break
		}
		stats, err := r.replayPartition(ctx, partition, r.cfg.Limit-total.Processed)
		total.add(stats)
		if err != nil {
			return total, err
		}
	}

	r.logger.WithFields(log.Fields{
		"execute":   r.cfg.Execute,
		"processed": total.Processed,
		"replayed":  total.Replayed,
		"skipped":   total.Skipped,
	}).Info("dlq replay finished")
	return total, nil
}

func (r *Replayer) replayPartition(ctx context.Context, partition int32, limit int) (ReplayStats, error) {
	var stats ReplayStats

	oldest, err := r.offsets.GetOffset(r.cfg.SourceTopic, partition, sarama.OffsetOldest)
	if err != nil {
		return stats, fmt.Errorf("get oldest offset for partition %d: %w", partition, err)
	}
	newest, err := r.offsets.GetOffset(r.cfg.SourceTopic, partition, sarama.OffsetNewest)
	if err != nil {
		return stats, fmt.Errorf("get newest offset for partition %d: %w", partition, err)
	}
	if newest <= oldest {
		return stats, nil
	}

	start := oldest
	if r.cfg.FromNewest {
		start = max(newest-int64(limit), oldest)
	}

	pc, err := r.source.ConsumePartition(r.cfg.SourceTopic, partition, start)
	if err != nil {
		return stats, fmt.Errorf("consume partition %d: %w", partition, err)
	}
	defer func() { _ = pc.Close() }()

	idle := time.NewTimer(r.cfg.IdleTimeout)
	defer idle.Stop()

	for stats.Processed < limit {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		case <-idle.C:
			return stats, nil
		case cerr, ok := <-pc.Errors():
			if ok && cerr != nil {
				return stats, fmt.Errorf("partition %d consumer error: %w", partition, cerr)
			}
		case message, ok := <-pc.Messages():
			if !ok || message == nil || message.Offset >= newest {
				return stats, nil
			}
			idle.Reset(r.cfg.IdleTimeout)

			stats.Processed++
			if err := r.replayMessage(ctx, message, &stats); err != nil {
				return stats, err
			}
			if message.Offset+1 >= newest {
				return stats, nil
			}
		}
	}
	return stats, nil
}

func (r *Replayer) replayMessage(ctx context.Context, message *sarama.ConsumerMessage, stats *ReplayStats) error {
	fields := log.Fields{"partition": message.Partition, "offset": message.Offset}

	replay, ok, err := ExtractReplay(message, r.cfg.TargetTopic)
	if err != nil || !ok {
		stats.Skipped++
		if err != nil {
			r.logger.WithError(err).WithFields(fields).Warn("skip unsupported dlq message")
		}
		return nil
	}

	fields["target_topic"] = replay.Topic
	fields["key"] = replay.Key
	if !r.cfg.Execute {
		r.logger.WithFields(fields).Info("dlq replay candidate")
		stats.Replayed++
		return nil
	}

	if err := r.producer.Send(ctx, replay.Topic, replay.Key, replay.Value, replay.Headers...); err != nil {
		return fmt.Errorf("publish replay message: %w", err)
	}
	stats.Replayed++
	return nil
}

// ReplayMessage — сообщение, восстановленное из DLQ.
type ReplayMessage struct {
	Topic   string
	Key     string
	Value   json.RawMessage
	Headers []sarama.RecordHeader
}

// ExtractReplay распознаёт два формата DLQ: запись Consumer.sendToDLQ
// с исходным сообщением и Envelope outbox-воркера, в payload которого
// лежит исходное событие. ok=false означает, что сообщение не из DLQ WebStore.
func ExtractReplay(message *sarama.ConsumerMessage, defaultTopic string) (ReplayMessage, bool, error) {
	var consumed ConsumerDeadLetter
	if err := json.Unmarshal(message.Value, &consumed); err == nil && consumed.OriginalValue != "" {
		if !json.Valid([]byte(consumed.OriginalValue)) {
			return ReplayMessage{}, false, errors.New("original value is not valid JSON")
		}
		topic := strings.TrimSpace(consumed.OriginalTopic)
		if topic == "" {
			topic = defaultTopic
		}
		return ReplayMessage{
			Topic: topic,
			Key:   consumed.OriginalKey,
			Value: json.RawMessage(consumed.OriginalValue),
		}, true, nil
	}

	var env Envelope
	if err := json.Unmarshal(message.Value, &env); err != nil || len(env.Payload) == 0 {
		return ReplayMessage{}, false, nil
	}

	var dlq domain.OutboxDeadLetter
	if err := json.Unmarshal(env.Payload, &dlq); err != nil {
		return ReplayMessage{}, false, fmt.Errorf("decode outbox dlq payload: %w", err)
	}
	if len(dlq.Payload) == 0 {
		return ReplayMessage{}, false, errors.New("outbox dlq payload does not contain original event payload")
	}

	event := domain.OutboxMessage{
		ID:            firstNonEmpty(dlq.OutboxID, env.ID),
		AggregateType: firstNonEmpty(dlq.AggregateType, env.AggregateType),
		AggregateID:   firstNonEmpty(dlq.AggregateID, env.AggregateID),
		EventType:     firstNonEmpty(dlq.EventType, env.EventType),
		Payload:       dlq.Payload,
	}
	value, err := json.Marshal(NewEnvelope(event))
	if err != nil {
		return ReplayMessage{}, false, fmt.Errorf("encode replay envelope: %w", err)
	}

	return ReplayMessage{
		Topic:   defaultTopic,
		Key:     partitionKey(event),
		Value:   value,
		Headers: eventHeaders(event),
	}, true, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
