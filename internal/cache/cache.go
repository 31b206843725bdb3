// Package cache is the Redis read-through cache in front of the CMS, plus
// the invalidation layer driven by CMS webhooks and admin actions.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store is a JSON read-through cache over Redis. Cache failures degrade
// silently: a miss or a Redis error both fall through to the loader.
type Store struct {
	client *redis.Client
	logger *zap.Logger
}

// NewStore creates a cache store.
func NewStore(client *redis.Client, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, logger: logger}
}

// GetOrLoad returns the cached value at key, or runs load, caches its result
// with the given TTL, and returns it. The out parameter receives the decoded
// value either way.
func (s *Store) GetOrLoad(ctx context.Context, key string, ttl time.Duration, out interface{}, load func(context.Context) (interface{}, error)) error {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err == nil {
		if jsonErr := json.Unmarshal(raw, out); jsonErr == nil {
			return nil
		}
		// Unreadable entry; drop it and reload.
		_ = s.client.Del(ctx, key).Err()
	} else if err != redis.Nil {
		s.logger.Warn("cache read failed", zap.Error(err), zap.String("key", key))
	}

	value, err := load(ctx)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(encoded, out); err != nil {
		return err
	}
	if err := s.client.Set(ctx, key, encoded, ttl).Err(); err != nil {
		s.logger.Warn("cache write failed", zap.Error(err), zap.String("key", key))
	}
	return nil
}

// DeleteByPattern removes all keys matching the glob pattern via SCAN,
// returning the number of keys removed. Idempotent: an empty match is zero,
// not an error.
func (s *Store) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	var deleted int
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	batch := make([]string, 0, 100)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := s.client.Del(ctx, batch...).Result()
		if err != nil {
			return err
		}
		deleted += int(n)
		batch = batch[:0]
		return nil
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= 100 {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}
	if err := flush(); err != nil {
		return deleted, err
	}
	return deleted, nil
}
