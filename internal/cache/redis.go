package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps JSON-encoded entries in Redis so several processes can share a cache.
type RedisStore[V any] struct {
	client     redis.Cmdable
	prefix     string
	expiration time.Duration
}

// NewRedisClient opens a client for addr.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: addr,
	})
}

// NewRedisStore creates a store whose keys are namespaced by prefix.
// Expiration is passed to Redis so abandoned keys eventually disappear; zero keeps them forever.
func NewRedisStore[V any](client redis.Cmdable, prefix string, expiration time.Duration) *RedisStore[V] {
	return &RedisStore[V]{
		client:     client,
		prefix:     prefix,
		expiration: expiration,
	}
}

func (r *RedisStore[V]) key(key string) string {
	return r.prefix + ":" + key
}

// Load implements Store.
func (r *RedisStore[V]) Load(ctx context.Context, key string) (Entry[V], bool, error) {
	var entry Entry[V]

	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return entry, false, nil
	}
	if err != nil {
		return entry, false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, &entry); err != nil {
		return entry, false, fmt.Errorf("failed to decode cache key %s: %w", key, err)
	}

	return entry, true, nil
}

// Save implements Store.
func (r *RedisStore[V]) Save(ctx context.Context, key string, entry Entry[V]) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache key %s: %w", key, err)
	}

	if err := r.client.Set(ctx, r.key(key), raw, r.expiration).Err(); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}
