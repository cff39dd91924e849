package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "hiddengems:pkce:"

// RedisBackend stores sessions as JSON strings with a Redis TTL.
type RedisBackend struct {
	client redis.Cmdable
	prefix string
}

var _ Backend = (*RedisBackend)(nil)

// NewRedisBackend creates a Redis-backed session backend. An empty prefix uses the default.
func NewRedisBackend(client redis.Cmdable, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisBackend{client: client, prefix: prefix}
}

func (b *RedisBackend) key(id string) string {
	return b.prefix + id
}

func (b *RedisBackend) Get(ctx context.Context, id string) (AuthSession, bool, error) {
	val, err := b.client.Get(ctx, b.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return AuthSession{}, false, nil
	}
	if err != nil {
		return AuthSession{}, false, fmt.Errorf("failed to get session: %w", err)
	}

	var s AuthSession
	if err := json.Unmarshal(val, &s); err != nil {
		return AuthSession{}, false, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return s, true, nil
}

func (b *RedisBackend) Put(ctx context.Context, id string, s AuthSession, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := b.client.Set(ctx, b.key(id), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, id string) error {
	if err := b.client.Del(ctx, b.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
