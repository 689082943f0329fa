package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
)

// ValuesService — in-memory тестовый список строковых значений.
type ValuesService struct {
	mu     sync.RWMutex
	values map[int]string
	nextID int
}

var _ domain.ValuesService = (*ValuesService)(nil)

// NewValuesService создаёт список value-1 … value-count.
func NewValuesService(count int) *ValuesService {
	s := &ValuesService{values: make(map[int]string, count), nextID: 1}
	for i := 0; i < count; i++ {
		s.values[s.nextID] = fmt.Sprintf("value-%d", s.nextID)
		s.nextID++
	}
	return s
}

func (s *ValuesService) GetAll(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0, len(s.values))
	for id := range s.values {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	result := make([]string, 0, len(ids))
	for _, id := range ids {
		result = append(result, s.values[id])
	}
	return result, nil
}

func (s *ValuesService) GetByID(_ context.Context, id int) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[id]
	return v, ok, nil
}

func (s *ValuesService) Add(_ context.Context, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[s.nextID] = value
	s.nextID++
	return nil
}

func (s *ValuesService) Edit(_ context.Context, id int, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[id]; !ok {
		return false, nil
	}
	s.values[id] = value
	return true, nil
}

func (s *ValuesService) Delete(_ context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[id]; !ok {
		return false, nil
	}
	delete(s.values, id)
	return true, nil
}
