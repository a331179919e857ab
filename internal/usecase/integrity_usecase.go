package usecase

import (
	"context"

	"github.com/user/audit-service/internal/entity"
	"github.com/user/audit-service/internal/integrity"
	"github.com/user/audit-service/internal/repository"
)

// IntegrityUseCase issues certificates and review proposals for stored reports.
type IntegrityUseCase struct {
	reports  repository.ReportRepository
	registry *integrity.Registry
}

// NewIntegrityUseCase creates a new instance of IntegrityUseCase.
func NewIntegrityUseCase(reports repository.ReportRepository, registry *integrity.Registry) *IntegrityUseCase {
	return &IntegrityUseCase{reports: reports, registry: registry}
}

func (uc *IntegrityUseCase) MintCertificate(ctx context.Context, reportID, owner string) (*entity.Certificate, error) {
	report, err := uc.reports.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}
	cert, err := uc.registry.MintCertificate(report, owner)
	if err != nil {
		return nil, wrapInvalid(err)
	}
	return cert, nil
}

func (uc *IntegrityUseCase) Certificate(_ context.Context, tokenID string) (*entity.Certificate, error) {
	return uc.registry.Certificate(tokenID)
}

func (uc *IntegrityUseCase) CertificateMetadata(ctx context.Context, reportID string) (*entity.CertificateMetadata, error) {
	report, err := uc.reports.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}
	meta := uc.registry.CertificateMetadata(report)
	return &meta, nil
}

func (uc *IntegrityUseCase) CreateProposal(ctx context.Context, reportID string, kind entity.ProposalType, description string) (*entity.Proposal, error) {
	if _, err := uc.reports.Get(ctx, reportID); err != nil {
		return nil, err
	}
	proposal, err := uc.registry.CreateProposal(reportID, kind, description)
	if err != nil {
		return nil, wrapInvalid(err)
	}
	return proposal, nil
}

func (uc *IntegrityUseCase) Proposals(ctx context.Context, reportID string) ([]*entity.Proposal, error) {
	if _, err := uc.reports.Get(ctx, reportID); err != nil {
		return nil, err
	}
	return uc.registry.Proposals(reportID), nil
}

// wrapInvalid tags registry validation failures as ErrInvalidInput while
// keeping their message.
func wrapInvalid(err error) error {
	return &invalidInputError{err: err}
}

type invalidInputError struct{ err error }

func (e *invalidInputError) Error() string { return e.err.Error() }

func (e *invalidInputError) Unwrap() []error { return []error{ErrInvalidInput, e.err} }
