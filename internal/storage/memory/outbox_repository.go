package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
)

type outboxState uint8

const (
	statePending outboxState = iota
	stateSent
	stateFailed
)

type outboxEntry struct {
	msg       domain.OutboxMessage
	state     outboxState
	updatedAt time.Time
}

// OutboxRepository — outbox в памяти. Сообщения хранятся в порядке
// постановки, поэтому pending выдаются без сортировки.
type OutboxRepository struct {
	mu   sync.RWMutex
	log  []*outboxEntry
	byID map[string]*outboxEntry
	now  func() time.Time
}

var _ domain.OutboxRepository = (*OutboxRepository)(nil)

// OutboxOption настраивает OutboxRepository.
type OutboxOption func(*OutboxRepository)

// WithOutboxClock подменяет время создания и обновления записей.
func WithOutboxClock(now func() time.Time) OutboxOption {
	return func(r *OutboxRepository) { r.now = now }
}

func NewOutboxRepository(opts ...OutboxOption) *OutboxRepository {
	r := &OutboxRepository{byID: make(map[string]*outboxEntry), now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Enqueue ставит сообщение в очередь; повтор ID даёт ErrConflict.
func (r *OutboxRepository) Enqueue(_ context.Context, msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if _, dup := r.byID[msg.ID]; dup {
		return domain.OutboxMessage{}, fmt.Errorf("outbox message %s: %w", msg.ID, domain.ErrConflict)
	}
	msg.CreatedAt = r.now().UTC()
	msg.Attempts = 0
	msg.Payload = slices.Clone(msg.Payload)

	entry := &outboxEntry{msg: msg, updatedAt: msg.CreatedAt}
	r.log = append(r.log, entry)
	r.byID[msg.ID] = entry
	return msg, nil
}

func (r *OutboxRepository) PullPending(_ context.Context, limit int) ([]domain.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.pending(limit), nil
}

func (r *OutboxRepository) Stats(_ context.Context) (domain.OutboxStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats domain.OutboxStats
	for _, e := range r.log {
		if e.state != statePending {
			continue
		}
		if stats.PendingCount == 0 {
			stats.OldestPendingAt = e.msg.CreatedAt
		}
		stats.PendingCount++
	}
	return stats, nil
}

func (r *OutboxRepository) MarkSent(_ context.Context, id string) error {
	return r.settle(id, stateSent)
}

func (r *OutboxRepository) MarkFailed(_ context.Context, id string) error {
	return r.settle(id, stateFailed)
}

func (r *OutboxRepository) settle(id string, state outboxState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("outbox message %s: %w", id, domain.ErrOutboxPublish)
	}
	entry.state = state
	entry.msg.Attempts++
	entry.updatedAt = r.now().UTC()
	return nil
}

// DeleteProcessedBefore удаляет до limit обработанных записей, начиная
// с самых давно обновлённых.
func (r *OutboxRepository) DeleteProcessedBefore(_ context.Context, before time.Time, limit int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []*outboxEntry
	for _, e := range r.log {
		if e.state != statePending && e.updatedAt.Before(before) {
			expired = append(expired, e)
		}
	}
	slices.SortStableFunc(expired, func(a, b *outboxEntry) int { return a.updatedAt.Compare(b.updatedAt) })
	if limit > 0 {
		expired = expired[:min(len(expired), limit)]
	}
	if len(expired) == 0 {
		return 0, nil
	}

	for _, e := range expired {
		delete(r.byID, e.msg.ID)
	}
	r.log = slices.DeleteFunc(r.log, func(e *outboxEntry) bool {
		_, kept := r.byID[e.msg.ID]
		return !kept
	})
	return len(expired), nil
}

// AllPending возвращает все pending-сообщения в порядке постановки.
func (r *OutboxRepository) AllPending() []domain.OutboxMessage {
	return r.pending(0)
}

// pending копирует до limit pending-сообщений; limit<=0 означает все.
func (r *OutboxRepository) pending(limit int) []domain.OutboxMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.OutboxMessage
	for _, e := range r.log {
		if e.state != statePending {
			continue
		}
		if limit > 0 && len(result) == limit {
			break
		}
		msg := e.msg
		msg.Payload = slices.Clone(msg.Payload)
		result = append(result, msg)
	}
	return result
}
