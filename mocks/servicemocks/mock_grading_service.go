package servicemocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"markbench/internal/domain"
	"markbench/internal/service"
)

// MockGradingService is a mock implementation of service.GradingService.
type MockGradingService struct {
	mock.Mock
}

func (m *MockGradingService) GradeBatch(ctx context.Context, req service.BatchRequest) (*domain.SessionDocument, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionDocument), args.Error(1)
}

func (m *MockGradingService) SessionResults(ctx context.Context, sessionID uuid.UUID) ([]domain.SubmissionResult, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SubmissionResult), args.Error(1)
}

func (m *MockGradingService) SessionSummary() domain.SessionSummary {
	args := m.Called()
	return args.Get(0).(domain.SessionSummary)
}
