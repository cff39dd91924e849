package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

const cacheCleanupInterval = time.Minute

// CacheBackend keeps sessions in process memory with per-entry expiry. Suitable for a
// single API instance.
type CacheBackend struct {
	c *cache.Cache
}

var _ Backend = (*CacheBackend)(nil)

// NewCacheBackend returns a CacheBackend whose entries default to defaultTTL.
func NewCacheBackend(defaultTTL time.Duration) *CacheBackend {
	return &CacheBackend{c: cache.New(defaultTTL, cacheCleanupInterval)}
}

func (b *CacheBackend) Get(_ context.Context, id string) (AuthSession, bool, error) {
	v, ok := b.c.Get(id)
	if !ok {
		return AuthSession{}, false, nil
	}
	s, ok := v.(AuthSession)
	return s, ok, nil
}

func (b *CacheBackend) Put(_ context.Context, id string, s AuthSession, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.DefaultExpiration
	}
	b.c.Set(id, s, ttl)
	return nil
}

func (b *CacheBackend) Delete(_ context.Context, id string) error {
	b.c.Delete(id)
	return nil
}
