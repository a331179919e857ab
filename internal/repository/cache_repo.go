package repository

import (
	"context"
	"time"
)

// AuditCacheRepository maps a URL cache key to the id of a recent report.
type AuditCacheRepository interface {
	// Put records reportID under key for ttl.
	Put(ctx context.Context, key, reportID string, ttl time.Duration) error
	// Lookup returns the live report id for key. Expired entries are misses.
	Lookup(ctx context.Context, key string) (string, bool, error)
	// Sweep evicts expired entries and returns how many were removed.
	Sweep(ctx context.Context) (int, error)
	// Len returns the number of entries currently held.
	Len(ctx context.Context) (int, error)
}
