package repository

import (
	"context"

	"github.com/user/audit-service/internal/entity"
)

// ReportRepository is an append-only store of composed audit reports.
type ReportRepository interface {
	// Put stores a new report. Storing an id twice is an error.
	Put(ctx context.Context, report *entity.AuditReport) error
	// Get returns the report with id or ErrReportNotFound.
	Get(ctx context.Context, id string) (*entity.AuditReport, error)
	// List returns every report, newest first.
	List(ctx context.Context) ([]*entity.AuditReport, error)
	// ListByTarget returns the reports for exactly targetURL, newest first.
	ListByTarget(ctx context.Context, targetURL string) ([]*entity.AuditReport, error)
}
