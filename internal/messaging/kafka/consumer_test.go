package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConsumerGroup struct {
	consumeFn func(context.Context, []string, sarama.ConsumerGroupHandler) error
	errorsCh  chan error
	closeErr  error
	closeOnce sync.Once
}

func (m *mockConsumerGroup) Consume(ctx context.Context, topics []string, handler sarama.ConsumerGroupHandler) error {
	if m.consumeFn != nil {
		return m.consumeFn(ctx, topics, handler)
	}
	<-ctx.Done()
	return nil
}

func (m *mockConsumerGroup) Errors() <-chan error { return m.errorsCh }

func (m *mockConsumerGroup) Close() error {
	if m.closeErr != nil {
		return m.closeErr
	}
	m.closeOnce.Do(func() { close(m.errorsCh) })
	return nil
}

func (m *mockConsumerGroup) Pause(map[string][]int32)  {}
func (m *mockConsumerGroup) Resume(map[string][]int32) {}
func (m *mockConsumerGroup) PauseAll()                 {}
func (m *mockConsumerGroup) ResumeAll()                {}

type mockSession struct {
	ctx    context.Context
	marked []*sarama.ConsumerMessage
}

func (m *mockSession) Claims() map[string][]int32               { return nil }
func (m *mockSession) MemberID() string                         { return "member" }
func (m *mockSession) GenerationID() int32                      { return 1 }
func (m *mockSession) MarkOffset(string, int32, int64, string)  {}
func (m *mockSession) Commit()                                  {}
func (m *mockSession) ResetOffset(string, int32, int64, string) {}
func (m *mockSession) Context() context.Context                 { return m.ctx }
func (m *mockSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	m.marked = append(m.marked, msg)
}

type mockClaim struct {
	messages chan *sarama.ConsumerMessage
}

func (m *mockClaim) Topic() string                            { return TopicOrderEvents }
func (m *mockClaim) Partition() int32                         { return 0 }
func (m *mockClaim) InitialOffset() int64                     { return 0 }
func (m *mockClaim) HighWaterMarkOffset() int64               { return 0 }
func (m *mockClaim) Messages() <-chan *sarama.ConsumerMessage { return m.messages }

func claimWith(messages ...*sarama.ConsumerMessage) *mockClaim {
	ch := make(chan *sarama.ConsumerMessage, len(messages))
	for _, m := range messages {
		ch <- m
	}
	close(ch)
	return &mockClaim{messages: ch}
}

func TestConsumerStartStop(t *testing.T) {
	group := &mockConsumerGroup{errorsCh: make(chan error, 1)}
	group.errorsCh <- errors.New("transient broker error")

	consumer := NewConsumerWithGroup(group, []string{TopicOrderEvents}, func(context.Context, *sarama.ConsumerMessage) error { return nil }, nil, 1)

	ctx, cancel := context.WithCancel(context.Background())
	consumer.Start(ctx)
	time.Sleep(10 * time.Millisecond)
	cancel()

	require.NoError(t, consumer.Stop())
}

func TestConsumerStopError(t *testing.T) {
	group := &mockConsumerGroup{errorsCh: make(chan error), closeErr: errors.New("close failed")}
	consumer := NewConsumerWithGroup(group, nil, nil, nil, 0)

	assert.Error(t, consumer.Stop())
}

func TestConsumeClaimMarksHandledMessages(t *testing.T) {
	var handled int
	consumer := NewConsumerWithGroup(nil, nil, func(context.Context, *sarama.ConsumerMessage) error {
		handled++
		return nil
	}, nil, 0)

	session := &mockSession{ctx: context.Background()}
	msg := &sarama.ConsumerMessage{Topic: TopicOrderEvents, Value: []byte(`{}`)}

	require.NoError(t, consumer.ConsumeClaim(session, claimWith(msg)))
	assert.Equal(t, 1, handled)
	assert.Equal(t, []*sarama.ConsumerMessage{msg}, session.marked)
}

func TestConsumeClaimFailedHandlerWithoutDLQ(t *testing.T) {
	var calls int
	consumer := NewConsumerWithGroup(nil, nil, func(context.Context, *sarama.ConsumerMessage) error {
		calls++
		return errors.New("boom")
	}, nil, 2)

	session := &mockSession{ctx: context.Background()}
	require.NoError(t, consumer.ConsumeClaim(session, claimWith(&sarama.ConsumerMessage{Topic: TopicOrderEvents})))

	assert.Equal(t, 3, calls)
	assert.Empty(t, session.marked)
}

func TestConsumeClaimSendsToDLQ(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		assert.Equal(t, TopicDeadLetterQueue, msg.Topic)
		var retry string
		for _, h := range msg.Headers {
			if string(h.Key) == HeaderRetryCount {
				retry = string(h.Value)
			}
		}
		assert.Equal(t, "3", retry)
		return nil
	})

	consumer := NewConsumerWithGroup(nil, nil, func(context.Context, *sarama.ConsumerMessage) error {
		return errors.New("boom")
	}, NewProducerWithSync(mockProducer), 0)

	session := &mockSession{ctx: context.Background()}
	msg := &sarama.ConsumerMessage{
		Topic:   TopicOrderEvents,
		Key:     []byte("1"),
		Headers: []*sarama.RecordHeader{{Key: []byte(HeaderRetryCount), Value: []byte("2")}},
	}
	require.NoError(t, consumer.ConsumeClaim(session, claimWith(msg)))

	assert.Len(t, session.marked, 1, "message sent to DLQ is treated as handled")
	require.NoError(t, mockProducer.Close())
}

func TestConsumeClaimStopsOnContextDone(t *testing.T) {
	consumer := NewConsumerWithGroup(nil, nil, nil, nil, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session := &mockSession{ctx: ctx}
	claim := &mockClaim{messages: make(chan *sarama.ConsumerMessage)}
	require.NoError(t, consumer.ConsumeClaim(session, claim))
}

func TestRetryCount(t *testing.T) {
	assert.Equal(t, 0, retryCount(&sarama.ConsumerMessage{}))
	assert.Equal(t, 0, retryCount(&sarama.ConsumerMessage{Headers: []*sarama.RecordHeader{{Key: []byte(HeaderRetryCount), Value: []byte("x")}}}))
	assert.Equal(t, 4, retryCount(&sarama.ConsumerMessage{Headers: []*sarama.RecordHeader{{Key: []byte(HeaderRetryCount), Value: []byte("4")}}}))
}

func TestConsumerDeadLetterIsReplayable(t *testing.T) {
	var captured []byte
	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		value, err := msg.Value.Encode()
		captured = value
		return err
	})

	consumer := NewConsumerWithGroup(nil, nil, func(context.Context, *sarama.ConsumerMessage) error {
		return errors.New("projection is down")
	}, NewProducerWithSync(mockProducer), 0)
	consumer.now = func() time.Time { return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) }

	original := &sarama.ConsumerMessage{
		Topic:     TopicOrderEvents,
		Partition: 2,
		Offset:    17,
		Key:       []byte("42"),
		Value:     []byte(`{"id":"evt-42"}`),
	}
	assert.True(t, consumer.process(context.Background(), original))

	var letter ConsumerDeadLetter
	require.NoError(t, json.Unmarshal(captured, &letter))
	assert.Equal(t, ConsumerDeadLetter{
		OriginalTopic:     TopicOrderEvents,
		OriginalPartition: 2,
		OriginalOffset:    17,
		OriginalKey:       "42",
		OriginalValue:     `{"id":"evt-42"}`,
		ErrorMessage:      "projection is down",
		FailedAt:          "2024-06-01T08:00:00Z",
	}, letter)

	replay, ok, err := ExtractReplay(&sarama.ConsumerMessage{Value: captured}, "fallback")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, TopicOrderEvents, replay.Topic)
	assert.Equal(t, "42", replay.Key)
	assert.JSONEq(t, `{"id":"evt-42"}`, string(replay.Value))
	require.NoError(t, mockProducer.Close())
}
