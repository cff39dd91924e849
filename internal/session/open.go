package session

import (
	"context"
	"fmt"
	"time"

	"github.com/sopatech/hiddengems/internal/infra"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendValkey = "valkey"
	BackendDynamo = "dynamo"
)

// BackendConfig selects and configures the session backend.
type BackendConfig struct {
	Kind           string
	TTL            time.Duration
	KeyPrefix      string
	RedisAddr      string
	RedisPassword  string
	ValkeyAddr     string
	AWSRegion      string
	DynamoTable    string
	DynamoEndpoint string
}

// Open builds the backend named by cfg.Kind. The returned close func releases its client.
func Open(ctx context.Context, cfg BackendConfig) (Backend, func(), error) {
	noop := func() {}
	switch cfg.Kind {
	case "", BackendMemory:
		return NewCacheBackend(cfg.TTL), noop, nil
	case BackendRedis:
		client, err := infra.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, nil, fmt.Errorf("redis init: %w", err)
		}
		return NewRedisBackend(client, cfg.KeyPrefix), func() { _ = client.Close() }, nil
	case BackendValkey:
		client, err := infra.NewValkey(cfg.ValkeyAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("valkey init: %w", err)
		}
		return NewValkeyBackend(client, cfg.KeyPrefix), client.Close, nil
	case BackendDynamo:
		db, err := infra.NewDynamo(ctx, cfg.AWSRegion, cfg.DynamoEndpoint)
		if err != nil {
			return nil, nil, fmt.Errorf("dynamo init: %w", err)
		}
		// DynamoDB Local starts empty.
		if cfg.DynamoEndpoint != "" {
			if err := db.EnsureTable(ctx, cfg.DynamoTable); err != nil {
				return nil, nil, fmt.Errorf("dynamo ensure table: %w", err)
			}
		}
		return NewDynamoBackend(db, cfg.DynamoTable), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Kind)
	}
}
