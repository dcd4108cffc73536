package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gatekeeper/internal/mfa"
	"gatekeeper/internal/sentinel"
	id "gatekeeper/pkg/domain"
	"gatekeeper/pkg/secrets"
)

const redisPendingKeyPrefix = "mfa:pending:"

// RedisPendingStore keeps pending tokens in Redis; expiry is the key TTL.
// Keys hold a digest of the token, never the token itself.
type RedisPendingStore struct {
	client *redis.Client
}

func NewRedisPendingStore(client *redis.Client) *RedisPendingStore {
	return &RedisPendingStore{client: client}
}

func (s *RedisPendingStore) Save(ctx context.Context, token mfa.PendingToken, identityID id.IdentityID, ttl time.Duration) error {
	if token == "" || ttl <= 0 {
		return fmt.Errorf("save pending token: %w", sentinel.ErrInvalidInput)
	}
	if err := s.client.Set(ctx, pendingKey(token), identityID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("save pending token: %w", err)
	}
	return nil
}

func (s *RedisPendingStore) Find(ctx context.Context, token mfa.PendingToken) (id.IdentityID, error) {
	value, err := s.client.Get(ctx, pendingKey(token)).Result()
	return parsePending(value, err)
}

// Consume reads and deletes the token in one round trip (GETDEL).
func (s *RedisPendingStore) Consume(ctx context.Context, token mfa.PendingToken) (id.IdentityID, error) {
	value, err := s.client.GetDel(ctx, pendingKey(token)).Result()
	return parsePending(value, err)
}

func parsePending(value string, err error) (id.IdentityID, error) {
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return id.IdentityID{}, sentinel.ErrNotFound
		}
		return id.IdentityID{}, fmt.Errorf("read pending token: %w", err)
	}
	identityID, err := id.ParseIdentityID(value)
	if err != nil {
		return id.IdentityID{}, fmt.Errorf("decode pending token: %w", err)
	}
	return identityID, nil
}

func pendingKey(token mfa.PendingToken) string {
	return redisPendingKeyPrefix + secrets.Digest(string(token))
}
