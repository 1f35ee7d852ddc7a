package grading

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"markbench/internal/config"
	"markbench/internal/domain"
	"markbench/internal/port"
	"markbench/mocks"
)

func testSpec() config.GraderSpec {
	return config.GraderSpec{
		Name:     "claude-sonnet",
		Provider: domain.ProviderAnthropic,
		Model:    "claude-3-5-sonnet",
		Weight:   2.0,
	}
}

func gradeResponse(content string, cost float64) *port.GradeResponse {
	return &port.GradeResponse{
		Content: content,
		Usage: port.Usage{
			InputTokens:      100,
			OutputTokens:     50,
			Cost:             cost,
			ResponseTimeSecs: 1.5,
		},
		Timestamp: time.Now(),
	}
}

func newTestExecutor(client port.LLMClient) (*Executor, *[]time.Duration) {
	e := NewExecutor(client)
	var slept []time.Duration
	e.sleep = func(d time.Duration) { slept = append(slept, d) }
	return e, &slept
}

func TestExecute_SuccessFirstAttempt(t *testing.T) {
	client := new(mocks.MockLLMClient)
	client.On("Grade", mock.Anything, mock.Anything).
		Return(gradeResponse("MARK: 80\nFEEDBACK: Nice work.", 0.012), nil).Once()

	e, slept := newTestExecutor(client)
	out := e.Execute(context.Background(), testSpec(), "prompt", 1, 100, RunPolicy{MaxAttempts: 3})

	require.True(t, out.Success)
	assert.Equal(t, 1, out.RunNumber)
	assert.Equal(t, 1, out.Attempt)
	assert.Equal(t, 80.0, out.Mark)
	assert.Equal(t, "Nice work.", out.Feedback)
	assert.Equal(t, 100.0, out.MaxMark)
	assert.Equal(t, 0.012, out.Cost)
	assert.Equal(t, 100, out.Usage.InputTokens)
	assert.Empty(t, *slept)
	client.AssertExpectations(t)
}

func TestExecute_RetriesWithBackoff(t *testing.T) {
	client := new(mocks.MockLLMClient)
	client.On("Grade", mock.Anything, mock.Anything).
		Return(nil, errors.New("transient failure")).Twice()
	client.On("Grade", mock.Anything, mock.Anything).
		Return(gradeResponse("MARK: 65\nFEEDBACK: Eventually fine.", 0.01), nil).Once()

	e, slept := newTestExecutor(client)
	out := e.Execute(context.Background(), testSpec(), "prompt", 2, 100, RunPolicy{MaxAttempts: 3})

	require.True(t, out.Success)
	assert.Equal(t, 3, out.Attempt)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
	client.AssertExpectations(t)
}

func TestExecute_AllAttemptsFail(t *testing.T) {
	client := new(mocks.MockLLMClient)
	client.On("Grade", mock.Anything, mock.Anything).
		Return(nil, errors.New("provider down")).Times(3)

	e, slept := newTestExecutor(client)
	out := e.Execute(context.Background(), testSpec(), "prompt", 1, 100, RunPolicy{MaxAttempts: 3})

	require.False(t, out.Success)
	assert.Equal(t, 3, out.Attempt)
	assert.Contains(t, out.Error, "provider down")
	assert.Equal(t, 0.0, out.Cost)
	assert.Len(t, *slept, 2)
	client.AssertExpectations(t)
}

func TestExecute_CanceledContext(t *testing.T) {
	client := new(mocks.MockLLMClient)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e, _ := newTestExecutor(client)
	out := e.Execute(ctx, testSpec(), "prompt", 1, 100, RunPolicy{MaxAttempts: 3})

	require.False(t, out.Success)
	assert.Contains(t, out.Error, "context canceled")
	client.AssertNotCalled(t, "Grade", mock.Anything, mock.Anything)
}

func TestExecute_ZeroAttemptsTreatedAsOne(t *testing.T) {
	client := new(mocks.MockLLMClient)
	client.On("Grade", mock.Anything, mock.Anything).
		Return(nil, errors.New("boom")).Once()

	e, _ := newTestExecutor(client)
	out := e.Execute(context.Background(), testSpec(), "prompt", 1, 100, RunPolicy{MaxAttempts: 0})

	require.False(t, out.Success)
	assert.Equal(t, 1, out.Attempt)
	client.AssertExpectations(t)
}
