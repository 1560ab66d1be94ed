package draft

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKV is the subset of *redis.Client used by RedisBackend.
type redisKV interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisBackend stores drafts as string values that expire after ttl.
// A zero ttl keeps drafts until deleted.
type RedisBackend struct {
	client redisKV
	prefix string
	ttl    time.Duration
}

// NewRedisBackend wraps a go-redis client.
func NewRedisBackend(client redisKV, prefix string, ttl time.Duration) *RedisBackend {
	return &RedisBackend{client: client, prefix: prefix, ttl: ttl}
}

func (b *RedisBackend) Put(ctx context.Context, key string, data []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := b.client.Set(ctx, b.prefix+key, data, b.ttl).Err(); err != nil {
		return fmt.Errorf("draft: redis set: %w", err)
	}
	return nil
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	data, err := b.client.Get(ctx, b.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("draft: redis get: %w", err)
	}
	return data, nil
}

func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := b.client.Del(ctx, b.prefix+key).Err(); err != nil {
		return fmt.Errorf("draft: redis del: %w", err)
	}
	return nil
}
