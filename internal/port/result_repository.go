package port

import (
	"context"

	"github.com/google/uuid"

	"markbench/internal/domain"
)

// ResultRepository persists per-submission grading results.
type ResultRepository interface {
	Save(ctx context.Context, sessionID uuid.UUID, result *domain.SubmissionResult) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.SubmissionResult, error)
}
