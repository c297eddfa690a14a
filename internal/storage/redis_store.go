package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"opentrends/internal/model"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore stores snapshots in Redis. A zero ttl keeps them forever.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func snapshotKey(key Key) string {
	return fmt.Sprintf("opentrends:snapshot:%s:%s", key.Mode, key.Slot)
}

// Get loads the snapshot stored under key.
func (s *RedisStore) Get(ctx context.Context, key Key) (*model.Snapshot, error) {
	b, err := s.rdb.Get(ctx, snapshotKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(key, b)
}

// Put replaces the snapshot stored under key.
func (s *RedisStore) Put(ctx context.Context, key Key, snap model.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, snapshotKey(key), b, s.ttl).Err()
}
