package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"markbench/internal/port"
)

// MockLLMClient is a mock implementation of port.LLMClient.
type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Grade(ctx context.Context, req port.GradeRequest) (*port.GradeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.GradeResponse), args.Error(1)
}

func (m *MockLLMClient) AvailableProviders() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func (m *MockLLMClient) EstimateCost(provider, model string, inputTokens, outputTokens int) float64 {
	args := m.Called(provider, model, inputTokens, outputTokens)
	return args.Get(0).(float64)
}
