package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"markbench/internal/domain"
)

// MockResultRepo is a mock implementation of port.ResultRepository.
type MockResultRepo struct {
	mock.Mock
}

func (m *MockResultRepo) Save(ctx context.Context, sessionID uuid.UUID, result *domain.SubmissionResult) error {
	args := m.Called(ctx, sessionID, result)
	return args.Error(0)
}

func (m *MockResultRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.SubmissionResult, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SubmissionResult), args.Error(1)
}
