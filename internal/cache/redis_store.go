package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"redline/api/internal/compare"
)

// RedisStore persists snapshots in Redis so repeated comparisons stay
// cheap across process restarts and replicas.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection. A zero ttl
// keeps snapshots until evicted by Redis itself.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{client: client, prefix: "snapshot:", ttl: ttl}, nil
}

// NewRedisStoreWithClient wraps an existing client, mainly for tests.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: "snapshot:", ttl: ttl}
}

func (s *RedisStore) key(baselineHash, revisedHash string) string {
	return s.prefix + baselineHash + ":" + revisedHash
}

func (s *RedisStore) Get(ctx context.Context, baselineHash, revisedHash string) (*compare.Snapshot, bool, error) {
	payload, err := s.client.Get(ctx, s.key(baselineHash, revisedHash)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get snapshot: %w", err)
	}

	var snap compare.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, true, nil
}

func (s *RedisStore) Put(ctx context.Context, snap *compare.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key(snap.BaselineHash, snap.RevisedHash), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	return nil
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
