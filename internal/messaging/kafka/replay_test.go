package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
)

type offsetRange struct{ oldest, newest int64 }

type fakeOffsets struct {
	partitions []int32
	ranges     map[int32]offsetRange
	err        error
}

func (f *fakeOffsets) Partitions(string) ([]int32, error) { return f.partitions, f.err }

func (f *fakeOffsets) GetOffset(_ string, partition int32, at int64) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	r := f.ranges[partition]
	if at == sarama.OffsetOldest {
		return r.oldest, nil
	}
	return r.newest, nil
}

type fakePartitionConsumer struct {
	sarama.PartitionConsumer
	messages chan *sarama.ConsumerMessage
	errors   chan *sarama.ConsumerError
}

func (f *fakePartitionConsumer) Messages() <-chan *sarama.ConsumerMessage { return f.messages }
func (f *fakePartitionConsumer) Errors() <-chan *sarama.ConsumerError     { return f.errors }
func (f *fakePartitionConsumer) Close() error                             { return nil }

func yielding(messages ...*sarama.ConsumerMessage) *fakePartitionConsumer {
	pc := &fakePartitionConsumer{
		messages: make(chan *sarama.ConsumerMessage, len(messages)),
		errors:   make(chan *sarama.ConsumerError),
	}
	for _, m := range messages {
		pc.messages <- m
	}
	close(pc.messages)
	return pc
}

type consumeCall struct {
	partition int32
	offset    int64
}

type fakePartitions struct {
	consumers map[int32]*fakePartitionConsumer
	err       error
	calls     []consumeCall
}

func (f *fakePartitions) ConsumePartition(_ string, partition int32, offset int64) (sarama.PartitionConsumer, error) {
	f.calls = append(f.calls, consumeCall{partition, offset})
	if f.err != nil {
		return nil, f.err
	}
	return f.consumers[partition], nil
}

func consumerDLQMessage(t *testing.T, partition int32, offset int64, key string) *sarama.ConsumerMessage {
	t.Helper()
	value, err := json.Marshal(map[string]any{
		"original_topic": TopicOrderEvents,
		"original_key":   key,
		"original_value": `{"id":"evt-` + key + `"}`,
		"error_message":  "handler failed",
	})
	require.NoError(t, err)
	return &sarama.ConsumerMessage{Partition: partition, Offset: offset, Value: value}
}

func replayConfig() ReplayConfig {
	return ReplayConfig{
		SourceTopic: TopicDeadLetterQueue,
		TargetTopic: TopicOrderEvents,
		Limit:       10,
		IdleTimeout: 20 * time.Millisecond,
	}
}

func TestExtractReplay_ConsumerDLQ(t *testing.T) {
	message := consumerDLQMessage(t, 0, 0, "42")

	replay, ok, err := ExtractReplay(message, "fallback")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, TopicOrderEvents, replay.Topic)
	assert.Equal(t, "42", replay.Key)
	assert.JSONEq(t, `{"id":"evt-42"}`, string(replay.Value))
}

func TestExtractReplay_OutboxDLQ(t *testing.T) {
	dlqPayload, err := json.Marshal(map[string]any{
		"outbox_id":      "outbox-7",
		"aggregate_type": domain.AggregateOrder,
		"aggregate_id":   "7",
		"event_type":     domain.EventTypeOrderCreated,
		"payload":        map[string]any{"order_id": 7},
		"publish_error":  "broker down",
	})
	require.NoError(t, err)
	value, err := json.Marshal(NewEnvelope(domain.OutboxMessage{
		ID:            "outbox-7",
		AggregateType: domain.AggregateOrder,
		AggregateID:   "7",
		EventType:     domain.EventTypeOrderCreated,
		Payload:       dlqPayload,
	}))
	require.NoError(t, err)

	replay, ok, err := ExtractReplay(&sarama.ConsumerMessage{Value: value}, TopicOrderEvents)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, TopicOrderEvents, replay.Topic)
	assert.Equal(t, "7", replay.Key)
	require.Len(t, replay.Headers, 2)
	assert.Equal(t, domain.EventTypeOrderCreated, string(replay.Headers[0].Value))

	var env Envelope
	require.NoError(t, json.Unmarshal(replay.Value, &env))
	assert.Equal(t, "outbox-7", env.ID)
	assert.JSONEq(t, `{"order_id":7}`, string(env.Payload))
}

func TestExtractReplay_Unsupported(t *testing.T) {
	_, ok, err := ExtractReplay(&sarama.ConsumerMessage{Value: []byte(`{"foo":"bar"}`)}, TopicOrderEvents)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = ExtractReplay(&sarama.ConsumerMessage{Value: []byte(`not json`)}, TopicOrderEvents)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = ExtractReplay(&sarama.ConsumerMessage{Value: []byte(`{"id":"x","payload":{"outbox_id":"x"}}`)}, TopicOrderEvents)
	assert.Error(t, err)
	assert.False(t, ok)

	_, ok, err = ExtractReplay(&sarama.ConsumerMessage{Value: []byte(`{"id":"x","payload":"text"}`)}, TopicOrderEvents)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestReplayer_DryRun(t *testing.T) {
	offsets := &fakeOffsets{
		partitions: []int32{1, 0},
		ranges:     map[int32]offsetRange{0: {0, 2}, 1: {0, 1}},
	}
	source := &fakePartitions{consumers: map[int32]*fakePartitionConsumer{
		0: yielding(consumerDLQMessage(t, 0, 0, "1"), &sarama.ConsumerMessage{Offset: 1, Value: []byte(`{}`)}),
		1: yielding(consumerDLQMessage(t, 1, 0, "2")),
	}}

	stats, err := NewReplayerWith(replayConfig(), offsets, source, nil).Replay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReplayStats{Processed: 3, Replayed: 2, Skipped: 1}, stats)
	assert.Equal(t, []consumeCall{{0, 0}, {1, 0}}, source.calls)
}

func TestReplayer_ExecutePublishes(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		assert.Equal(t, TopicOrderEvents, msg.Topic)
		key, err := msg.Key.Encode()
		require.NoError(t, err)
		assert.Equal(t, "5", string(key))
		return nil
	})

	cfg := replayConfig()
	cfg.Execute = true
	offsets := &fakeOffsets{partitions: []int32{0}, ranges: map[int32]offsetRange{0: {0, 1}}}
	source := &fakePartitions{consumers: map[int32]*fakePartitionConsumer{0: yielding(consumerDLQMessage(t, 0, 0, "5"))}}

	stats, err := NewReplayerWith(cfg, offsets, source, NewProducerWithSync(mockProducer)).Replay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Replayed)
	require.NoError(t, mockProducer.Close())
}

func TestReplayer_PublishFailure(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	cfg := replayConfig()
	cfg.Execute = true
	offsets := &fakeOffsets{partitions: []int32{0}, ranges: map[int32]offsetRange{0: {0, 1}}}
	source := &fakePartitions{consumers: map[int32]*fakePartitionConsumer{0: yielding(consumerDLQMessage(t, 0, 0, "5"))}}

	_, err := NewReplayerWith(cfg, offsets, source, NewProducerWithSync(mockProducer)).Replay(context.Background())
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, mockProducer.Close())
}

func TestReplayer_LimitAndFromNewest(t *testing.T) {
	cfg := replayConfig()
	cfg.Limit = 1
	cfg.FromNewest = true
	offsets := &fakeOffsets{partitions: []int32{0, 1}, ranges: map[int32]offsetRange{0: {3, 10}, 1: {0, 5}}}
	source := &fakePartitions{consumers: map[int32]*fakePartitionConsumer{
		0: yielding(consumerDLQMessage(t, 0, 9, "9")),
	}}

	stats, err := NewReplayerWith(cfg, offsets, source, nil).Replay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, []consumeCall{{0, 9}}, source.calls)
}

func TestReplayer_IdleTimeoutAndCancel(t *testing.T) {
	idle := &fakePartitionConsumer{
		messages: make(chan *sarama.ConsumerMessage),
		errors:   make(chan *sarama.ConsumerError),
	}
	offsets := &fakeOffsets{partitions: []int32{0}, ranges: map[int32]offsetRange{0: {0, 5}}}
	source := &fakePartitions{consumers: map[int32]*fakePartitionConsumer{0: idle}}
	replayer := NewReplayerWith(replayConfig(), offsets, source, nil)

	stats, err := replayer.Replay(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Processed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = replayer.Replay(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReplayer_Errors(t *testing.T) {
	ctx := context.Background()
	cfg := replayConfig()

	_, err := NewReplayerWith(ReplayConfig{}, nil, nil, nil).Replay(ctx)
	assert.EqualError(t, err, "source topic is required")

	_, err = NewReplayerWith(cfg, nil, nil, nil).Replay(ctx)
	assert.EqualError(t, err, "kafka client and consumer are required")

	executeCfg := cfg
	executeCfg.Execute = true
	_, err = NewReplayerWith(executeCfg, &fakeOffsets{}, &fakePartitions{}, nil).Replay(ctx)
	assert.EqualError(t, err, "producer is required in execute mode")

	boom := errors.New("boom")
	_, err = NewReplayerWith(cfg, &fakeOffsets{err: boom}, &fakePartitions{}, nil).Replay(ctx)
	assert.ErrorIs(t, err, boom)

	offsets := &fakeOffsets{partitions: []int32{0}, ranges: map[int32]offsetRange{0: {0, 2}}}
	_, err = NewReplayerWith(cfg, offsets, &fakePartitions{err: boom}, nil).Replay(ctx)
	assert.ErrorIs(t, err, boom)

	failing := &fakePartitionConsumer{
		messages: make(chan *sarama.ConsumerMessage),
		errors:   make(chan *sarama.ConsumerError, 1),
	}
	failing.errors <- &sarama.ConsumerError{Err: boom}
	_, err = NewReplayerWith(cfg, offsets, &fakePartitions{consumers: map[int32]*fakePartitionConsumer{0: failing}}, nil).Replay(ctx)
	assert.ErrorIs(t, err, boom)
}

func TestReplayer_EmptyPartition(t *testing.T) {
	offsets := &fakeOffsets{partitions: []int32{0}, ranges: map[int32]offsetRange{0: {4, 4}}}
	source := &fakePartitions{}

	stats, err := NewReplayerWith(replayConfig(), offsets, source, nil).Replay(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats)
	assert.Empty(t, source.calls)
}
