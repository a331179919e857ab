package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/user/audit-service/internal/entity"
	"github.com/user/audit-service/internal/repository"
)

// ReportRepoImpl keeps audit reports in process memory.
type ReportRepoImpl struct {
	mu      sync.RWMutex
	reports map[string]*entity.AuditReport
}

// NewReportRepo creates a new instance of ReportRepoImpl.
func NewReportRepo() *ReportRepoImpl {
	return &ReportRepoImpl{reports: make(map[string]*entity.AuditReport)}
}

// Put stores report. Reports are never replaced.
func (r *ReportRepoImpl) Put(_ context.Context, report *entity.AuditReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reports[report.ID]; ok {
		return repository.ErrDuplicateID
	}
	r.reports[report.ID] = report
	return nil
}

func (r *ReportRepoImpl) Get(_ context.Context, id string) (*entity.AuditReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report, ok := r.reports[id]
	if !ok {
		return nil, repository.ErrReportNotFound
	}
	return report, nil
}

func (r *ReportRepoImpl) List(_ context.Context) ([]*entity.AuditReport, error) {
	return r.filter(func(*entity.AuditReport) bool { return true }), nil
}

func (r *ReportRepoImpl) ListByTarget(_ context.Context, targetURL string) ([]*entity.AuditReport, error) {
	return r.filter(func(a *entity.AuditReport) bool { return a.Target == targetURL }), nil
}

// filter returns the matching reports, newest first.
func (r *ReportRepoImpl) filter(keep func(*entity.AuditReport) bool) []*entity.AuditReport {
	r.mu.RLock()
	out := make([]*entity.AuditReport, 0, len(r.reports))
	for _, report := range r.reports {
		if keep(report) {
			out = append(out, report)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
