package usecase

import (
	"errors"
	"fmt"

	"github.com/user/audit-service/internal/entity"
	"github.com/user/audit-service/internal/repository"
)

// ErrInvalidInput is returned for requests that fail validation before any stage runs.
var ErrInvalidInput = errors.New("invalid input")

// StageError records the pipeline stage at which an audit failed.
type StageError struct {
	Stage entity.AuditStage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("audit failed at %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Message returns a description of the failure that is safe to show to users.
func (e *StageError) Message() string {
	switch {
	case repository.IsFetchError(e.Err):
		return e.Err.Error()
	case errors.Is(e.Err, repository.ErrGenerationFailed):
		return "Failed to generate recommendations. The recommendation service is unavailable."
	case e.Stage == entity.StageAnalyzing:
		return "Failed to analyze the page markup"
	case e.Stage == entity.StageStamping:
		return "Failed to stamp the audit report"
	case e.Stage == entity.StageStored:
		return "Audit failed while saving the report"
	default:
		return fmt.Sprintf("Audit failed at the %s stage", e.Stage)
	}
}
