package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/audit-service/internal/repository"
	"github.com/user/audit-service/pkg/metrics"
)

// DefaultSweepInterval is how often expired cache entries are evicted.
const DefaultSweepInterval = 30 * time.Minute

// CacheSweeper periodically evicts expired audit cache entries.
type CacheSweeper struct {
	cache    repository.AuditCacheRepository
	interval time.Duration
	metrics  *metrics.Metrics
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCacheSweeper creates a sweeper. It does nothing until Start is called.
func NewCacheSweeper(cache repository.AuditCacheRepository, interval time.Duration, m *metrics.Metrics, logger *zap.Logger) *CacheSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &CacheSweeper{cache: cache, interval: interval, metrics: m, logger: logger}
}

// Start launches the sweep loop. Calling Start on a running sweeper is a no-op.
func (s *CacheSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
	s.logger.Info("Cache sweeper started", zap.Duration("interval", s.interval))
}

// Stop halts the sweep loop and waits for it to exit.
func (s *CacheSweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("Cache sweeper stopped")
}

func (s *CacheSweeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single eviction pass.
func (s *CacheSweeper) SweepOnce(ctx context.Context) int {
	removed, err := s.cache.Sweep(ctx)
	if err != nil {
		s.logger.Warn("Cache sweep failed", zap.Error(err))
		return 0
	}
	if removed > 0 {
		s.metrics.CacheEvictionsTotal.Add(float64(removed))
		s.logger.Debug("Cache sweep evicted entries", zap.Int("removed", removed))
	}
	return removed
}
