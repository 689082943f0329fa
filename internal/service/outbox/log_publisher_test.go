package outbox

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
)

func TestLogPublisher_Publish(t *testing.T) {
	logger, hook := test.NewNullLogger()
	publisher := NewLogPublisher(log.NewEntry(logger))

	err := publisher.Publish(context.Background(), domain.OutboxMessage{
		ID:            "msg-1",
		AggregateType: domain.AggregateOrder,
		AggregateID:   "7",
		EventType:     domain.EventTypeOrderCreated,
		Payload:       []byte(`{"order_id":7}`),
	})
	require.NoError(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "outbox event published", entry.Message)
	assert.Equal(t, "7", entry.Data["aggregate_id"])
	assert.Equal(t, domain.EventTypeOrderCreated, entry.Data["event_type"])
}

func TestLogPublisher_CanceledContext(t *testing.T) {
	logger, hook := test.NewNullLogger()
	publisher := NewLogPublisher(log.NewEntry(logger))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := publisher.Publish(ctx, domain.OutboxMessage{ID: "msg-2"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, hook.AllEntries())
}
