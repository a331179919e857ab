package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const auditCachePrefix = "audit:cache:"

// CacheRepoImpl provides a concrete implementation for the AuditCacheRepository interface using Redis.
type CacheRepoImpl struct {
	client *redis.Client
}

// NewCacheRepo creates a new instance of CacheRepoImpl.
func NewCacheRepo(client *redis.Client) *CacheRepoImpl {
	return &CacheRepoImpl{client: client}
}

func (r *CacheRepoImpl) generateKey(key string) string {
	return fmt.Sprintf("%s%s", auditCachePrefix, key)
}

// Put maps key to reportID. SET with an expiry is atomic.
func (r *CacheRepoImpl) Put(ctx context.Context, key, reportID string, ttl time.Duration) error {
	return r.client.Set(ctx, r.generateKey(key), reportID, ttl).Err()
}

// Lookup returns the report id stored under key. Redis drops expired keys itself.
func (r *CacheRepoImpl) Lookup(ctx context.Context, key string) (string, bool, error) {
	id, err := r.client.Get(ctx, r.generateKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// Sweep is a no-op: Redis evicts expired keys on its own.
func (r *CacheRepoImpl) Sweep(context.Context) (int, error) {
	return 0, nil
}

// Len counts the live cache keys.
func (r *CacheRepoImpl) Len(ctx context.Context) (int, error) {
	n := 0
	iter := r.client.Scan(ctx, 0, auditCachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	return n, iter.Err()
}
