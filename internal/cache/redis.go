package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mkravets/orbita-api/internal/aim"
	"github.com/redis/go-redis/v9"
)

const defaultTTL = 15 * time.Minute

// RedisStore is the shared Store used when the API runs with more than one
// instance.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, ttl: defaultTTL}
}

func (s *RedisStore) Get(ctx context.Context, key Key) ([]aim.Aim, bool, error) {
	raw, err := s.client.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var aims []aim.Aim
	if err := json.Unmarshal(raw, &aims); err != nil {
		return nil, false, err
	}
	return aims, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key Key, aims []aim.Aim) error {
	raw, err := json.Marshal(aims)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key.String(), raw, s.ttl).Err()
}

func (s *RedisStore) Invalidate(ctx context.Context, keys ...Key) error {
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return s.client.Del(ctx, names...).Err()
}
