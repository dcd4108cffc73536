package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gatekeeper/internal/mfa"
	"gatekeeper/internal/sentinel"
	id "gatekeeper/pkg/domain"
	"gatekeeper/pkg/requestcontext"
)

type pendingEntry struct {
	identityID id.IdentityID
	expiresAt  time.Time
}

// InMemoryPendingStore keeps pending tokens in process memory. Expired
// entries are dropped when read.
type InMemoryPendingStore struct {
	mu      sync.Mutex
	entries map[mfa.PendingToken]pendingEntry
}

func NewInMemoryPendingStore() *InMemoryPendingStore {
	return &InMemoryPendingStore{entries: make(map[mfa.PendingToken]pendingEntry)}
}

func (s *InMemoryPendingStore) Save(ctx context.Context, token mfa.PendingToken, identityID id.IdentityID, ttl time.Duration) error {
	if token == "" || ttl <= 0 {
		return fmt.Errorf("save pending token: %w", sentinel.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = pendingEntry{identityID: identityID, expiresAt: requestcontext.Now(ctx).Add(ttl)}
	return nil
}

func (s *InMemoryPendingStore) Find(ctx context.Context, token mfa.PendingToken) (id.IdentityID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(ctx, token)
}

func (s *InMemoryPendingStore) Consume(ctx context.Context, token mfa.PendingToken) (id.IdentityID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	identityID, err := s.lookup(ctx, token)
	if err != nil {
		return id.IdentityID{}, err
	}
	delete(s.entries, token)
	return identityID, nil
}

// lookup must be called with mu held.
func (s *InMemoryPendingStore) lookup(ctx context.Context, token mfa.PendingToken) (id.IdentityID, error) {
	entry, ok := s.entries[token]
	if !ok {
		return id.IdentityID{}, sentinel.ErrNotFound
	}
	if !requestcontext.Now(ctx).Before(entry.expiresAt) {
		delete(s.entries, token)
		return id.IdentityID{}, sentinel.ErrNotFound
	}
	return entry.identityID, nil
}
