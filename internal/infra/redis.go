package infra

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// NewRedis connects to a standalone Redis and pings it once.
func NewRedis(ctx context.Context, addr, password string) (*redis.Client, error) {
	if addr == "" {
		return nil, errors.New("redis: addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
