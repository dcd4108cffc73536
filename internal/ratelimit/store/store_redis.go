package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gatekeeper/internal/ratelimit"
)

const redisKeyPrefix = "ratelimit:"

// RedisStore shares failure counters across instances. The window is the TTL
// of the counter key and a lock is a second key expiring at its deadline.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*ratelimit.Record, error) {
	var failures, locked *redis.StringCmd
	_, err := s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		failures = p.Get(ctx, failuresKey(key))
		locked = p.Get(ctx, lockKey(key))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read lockout record: %w", err)
	}

	record := &ratelimit.Record{Key: key}
	found := false
	if n, err := failures.Int(); err == nil {
		record.Failures = n
		found = true
	}
	if raw, err := locked.Result(); err == nil {
		until, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("decode lock deadline: %w", err)
		}
		record.LockedUntil = &until
		found = true
	}
	if !found {
		return nil, nil
	}
	return record, nil
}

// RecordFailure increments the counter; the first failure of a window sets
// its TTL.
func (s *RedisStore) RecordFailure(ctx context.Context, key string, window time.Duration) (*ratelimit.Record, error) {
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, failuresKey(key))
		p.ExpireNX(ctx, failuresKey(key), window)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record failure: %w", err)
	}
	return &ratelimit.Record{Key: key, Failures: int(incr.Val())}, nil
}

func (s *RedisStore) Lock(ctx context.Context, key string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, lockKey(key), until.UTC().Format(time.RFC3339Nano), ttl).Err(); err != nil {
		return fmt.Errorf("lock key: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, failuresKey(key), lockKey(key)).Err(); err != nil {
		return fmt.Errorf("clear lockout record: %w", err)
	}
	return nil
}

func failuresKey(key string) string { return redisKeyPrefix + key + ":failures" }

func lockKey(key string) string { return redisKeyPrefix + key + ":locked" }
