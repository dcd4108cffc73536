package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatekeeper/internal/mfa"
	"gatekeeper/internal/sentinel"
	id "gatekeeper/pkg/domain"
	"gatekeeper/pkg/requestcontext"
)

func TestInMemoryPendingStoreLifecycle(t *testing.T) {
	store := NewInMemoryPendingStore()
	start := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), start)
	identityID := id.IdentityID(uuid.New())
	token := mfa.PendingToken("tok")

	require.NoError(t, store.Save(ctx, token, identityID, 10*time.Minute))

	found, err := store.Find(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, identityID, found)

	consumed, err := store.Consume(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, identityID, consumed)

	_, err = store.Find(ctx, token)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryPendingStoreExpiry(t *testing.T) {
	store := NewInMemoryPendingStore()
	start := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	identityID := id.IdentityID(uuid.New())
	token := mfa.PendingToken("tok")
	require.NoError(t, store.Save(requestcontext.WithTime(context.Background(), start), token, identityID, 10*time.Minute))

	_, err := store.Find(requestcontext.WithTime(context.Background(), start.Add(9*time.Minute+59*time.Second)), token)
	require.NoError(t, err)

	_, err = store.Consume(requestcontext.WithTime(context.Background(), start.Add(10*time.Minute)), token)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryPendingStoreRejectsEmpty(t *testing.T) {
	store := NewInMemoryPendingStore()
	err := store.Save(context.Background(), "", id.IdentityID(uuid.New()), time.Minute)
	assert.ErrorIs(t, err, sentinel.ErrInvalidInput)
}
