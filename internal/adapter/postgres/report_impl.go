package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/audit-service/internal/entity"
	"github.com/user/audit-service/internal/repository"
)

const schema = `
	CREATE TABLE IF NOT EXISTS audit_reports (
		id                 TEXT PRIMARY KEY,
		target             TEXT NOT NULL,
		created_at         TIMESTAMPTZ NOT NULL,
		processing_time_ms BIGINT NOT NULL,
		payload            JSONB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS audit_reports_target_idx ON audit_reports (target, created_at DESC);
	CREATE INDEX IF NOT EXISTS audit_reports_created_idx ON audit_reports (created_at DESC);
`

// ReportRepoImpl provides a concrete implementation for the ReportRepository interface using PostgreSQL.
type ReportRepoImpl struct {
	db *pgxpool.Pool
}

// NewReportRepo creates a new instance of ReportRepoImpl.
func NewReportRepo(db *pgxpool.Pool) *ReportRepoImpl {
	return &ReportRepoImpl{db: db}
}

// EnsureSchema creates the reports table if it does not exist.
func (r *ReportRepoImpl) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, schema)
	return err
}

// Put inserts report. Existing rows are never updated.
func (r *ReportRepoImpl) Put(ctx context.Context, report *entity.AuditReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO audit_reports (id, target, created_at, processing_time_ms, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING;
	`
	tag, err := r.db.Exec(ctx, query,
		report.ID,
		report.Target,
		report.CreatedAt,
		report.ProcessingTimeMS,
		payload,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrDuplicateID
	}
	return nil
}

// Get retrieves a single report by id.
func (r *ReportRepoImpl) Get(ctx context.Context, id string) (*entity.AuditReport, error) {
	query := `SELECT payload FROM audit_reports WHERE id = $1;`

	var payload []byte
	if err := r.db.QueryRow(ctx, query, id).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrReportNotFound
		}
		return nil, err
	}

	var report entity.AuditReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *ReportRepoImpl) List(ctx context.Context) ([]*entity.AuditReport, error) {
	query := `SELECT payload FROM audit_reports ORDER BY created_at DESC, id DESC;`
	return r.query(ctx, query)
}

func (r *ReportRepoImpl) ListByTarget(ctx context.Context, targetURL string) ([]*entity.AuditReport, error) {
	query := `SELECT payload FROM audit_reports WHERE target = $1 ORDER BY created_at DESC, id DESC;`
	return r.query(ctx, query, targetURL)
}

func (r *ReportRepoImpl) query(ctx context.Context, query string, args ...any) ([]*entity.AuditReport, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]*entity.AuditReport, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var report entity.AuditReport
		if err := json.Unmarshal(payload, &report); err != nil {
			return nil, err
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}
