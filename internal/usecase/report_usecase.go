package usecase

import (
	"context"
	"math"
	"time"

	"github.com/user/audit-service/internal/entity"
	"github.com/user/audit-service/internal/integrity"
	"github.com/user/audit-service/internal/repository"
	"github.com/user/audit-service/pkg/utils"
)

// recentWindow bounds AuditStats.RecentAudits.
const recentWindow = 24 * time.Hour

// ReportQuery is the read path over stored reports.
type ReportQuery struct {
	reports repository.ReportRepository
	cache   repository.AuditCacheRepository
	now     func() time.Time
}

// NewReportQuery creates a new instance of ReportQuery.
func NewReportQuery(reports repository.ReportRepository, cache repository.AuditCacheRepository, now func() time.Time) *ReportQuery {
	if now == nil {
		now = time.Now
	}
	return &ReportQuery{reports: reports, cache: cache, now: now}
}

func (q *ReportQuery) Get(ctx context.Context, id string) (*entity.AuditReport, error) {
	return q.reports.Get(ctx, id)
}

// List returns every report, or only those for targetURL when it is non-empty.
func (q *ReportQuery) List(ctx context.Context, targetURL string) ([]*entity.AuditReport, error) {
	if targetURL == "" {
		return q.reports.List(ctx)
	}
	return q.reports.ListByTarget(ctx, utils.NormalizeURL(targetURL))
}

// Verify recomputes the integrity stamp and content digest of report id.
func (q *ReportQuery) Verify(ctx context.Context, id string) (bool, error) {
	report, err := q.reports.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return integrity.VerifyReport(report)
}

// Stats aggregates the store. CacheHitRateApprox compares live cache entries
// with the number of stored reports.
func (q *ReportQuery) Stats(ctx context.Context) (*entity.AuditStats, error) {
	reports, err := q.reports.List(ctx)
	if err != nil {
		return nil, err
	}
	cached, err := q.cache.Len(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := q.now().Add(-recentWindow)
	domains := make(map[string]struct{})
	var totalMS int64
	recent := 0
	for _, r := range reports {
		domains[utils.Hostname(r.Target)] = struct{}{}
		totalMS += r.ProcessingTimeMS
		if r.CreatedAt.After(cutoff) {
			recent++
		}
	}

	stats := &entity.AuditStats{
		TotalAudits:        len(reports),
		UniqueDomains:      len(domains),
		RecentAudits:       recent,
		CacheHitRateApprox: int(math.Round(float64(cached) / float64(max(len(reports), 1)) * 100)),
	}
	if len(reports) > 0 {
		stats.AvgProcessingTimeMS = int64(math.Round(float64(totalMS) / float64(len(reports))))
	}
	return stats, nil
}
