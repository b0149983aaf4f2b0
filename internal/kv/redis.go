package kv

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by a shared Redis instance, for
// deployments where several server replicas poll the same rooms.
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to Redis at addr and verifies the connection.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &RedisStore{client: client}, nil
}

// redisKey combines namespace and key into one Redis key.
func redisKey(namespace, key string) string {
	return namespace + ":" + key
}

// Get returns the value for key within namespace.
func (s *RedisStore) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, redisKey(namespace, key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get failed: %w", err)
	}
	return value, true, nil
}

// Put stores value under key within namespace, without expiry: room
// lifetime is governed by the leave transition, not TTLs.
func (s *RedisStore) Put(ctx context.Context, namespace, key, value string) error {
	if err := s.client.Set(ctx, redisKey(namespace, key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete removes key within namespace.
func (s *RedisStore) Delete(ctx context.Context, namespace, key string) (bool, error) {
	removed, err := s.client.Del(ctx, redisKey(namespace, key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis del failed: %w", err)
	}
	return removed > 0, nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
