package audit

import (
	"context"
	"slices"
	"sync"
)

// InMemoryStore keeps denormalized rows. The in-memory role store appends to
// it while holding its own lock, so a record lands with its mutation.
type InMemoryStore struct {
	mu   sync.RWMutex
	rows []Row
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(row Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows), nil
}

func (s *InMemoryStore) ListPage(_ context.Context, limit, offset int) ([]Row, error) {
	s.mu.RLock()
	sorted := slices.Clone(s.rows)
	s.mu.RUnlock()

	// newest first; later appends win ties
	slices.Reverse(sorted)
	slices.SortStableFunc(sorted, func(a, b Row) int {
		return b.ChangedAt.Compare(a.ChangedAt)
	})

	if offset < 0 || offset >= len(sorted) || limit <= 0 {
		return []Row{}, nil
	}
	end := offset + min(limit, len(sorted)-offset)
	return sorted[offset:end], nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = nil
}
