package memory

import (
	"context"
	"sync"
	"time"
)

type cacheEntry struct {
	reportID  string
	expiresAt time.Time
}

// CacheRepoImpl is an in-process AuditCacheRepository. Expired entries are
// treated as misses on lookup and removed by Sweep.
type CacheRepoImpl struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewCacheRepo creates a cache that reads the current time from now.
func NewCacheRepo(now func() time.Time) *CacheRepoImpl {
	if now == nil {
		now = time.Now
	}
	return &CacheRepoImpl{
		entries: make(map[string]cacheEntry),
		now:     now,
	}
}

func (c *CacheRepoImpl) Put(_ context.Context, key, reportID string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{reportID: reportID, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *CacheRepoImpl) Lookup(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || !c.now().Before(entry.expiresAt) {
		return "", false, nil
	}
	return entry.reportID, true, nil
}

func (c *CacheRepoImpl) Sweep(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (c *CacheRepoImpl) Len(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries), nil
}
