package store

import (
	"context"
	"sync"
	"time"

	"gatekeeper/internal/ratelimit"
	"gatekeeper/pkg/requestcontext"
)

type memoryEntry struct {
	failures    int
	windowEnds  time.Time
	lockedUntil *time.Time
}

// InMemoryStore keeps failure counters in process memory. Expired windows and
// locks are dropped lazily on access.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]*memoryEntry)}
}

func (s *InMemoryStore) Get(ctx context.Context, key string) (*ratelimit.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.live(key, requestcontext.Now(ctx))
	if entry == nil {
		return nil, nil
	}
	return toRecord(key, entry), nil
}

func (s *InMemoryStore) RecordFailure(ctx context.Context, key string, window time.Duration) (*ratelimit.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := requestcontext.Now(ctx)
	entry := s.live(key, now)
	if entry == nil {
		entry = &memoryEntry{windowEnds: now.Add(window)}
		s.entries[key] = entry
	}
	entry.failures++
	return toRecord(key, entry), nil
}

func (s *InMemoryStore) Lock(_ context.Context, key string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		entry = &memoryEntry{}
		s.entries[key] = entry
	}
	entry.lockedUntil = &until
	if until.After(entry.windowEnds) {
		entry.windowEnds = until
	}
	return nil
}

func (s *InMemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// live returns the entry for key unless both its window and lock have passed.
// Callers hold s.mu.
func (s *InMemoryStore) live(key string, now time.Time) *memoryEntry {
	entry, ok := s.entries[key]
	if !ok {
		return nil
	}
	locked := entry.lockedUntil != nil && now.Before(*entry.lockedUntil)
	if !locked && !now.Before(entry.windowEnds) {
		delete(s.entries, key)
		return nil
	}
	return entry
}

func toRecord(key string, entry *memoryEntry) *ratelimit.Record {
	record := &ratelimit.Record{Key: key, Failures: entry.failures}
	if entry.lockedUntil != nil {
		until := *entry.lockedUntil
		record.LockedUntil = &until
	}
	return record
}
