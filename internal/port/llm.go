package port

import (
	"context"
	"time"
)

// GradeRequest carries one prompt to an LLM backend.
type GradeRequest struct {
	Provider     string
	Model        string
	Prompt       string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	// RateLimit is the grader's calls-per-minute ceiling; 0 means unlimited.
	RateLimit int
}

// Usage is the metering reported for one successful call.
type Usage struct {
	InputTokens      int
	OutputTokens     int
	Cost             float64
	ResponseTimeSecs float64
}

// GradeResponse is the raw text and metering from one successful call.
type GradeResponse struct {
	Content   string
	Usage     Usage
	Timestamp time.Time
}

// LLMClient abstracts the multi-provider text-generation capability.
type LLMClient interface {
	Grade(ctx context.Context, req GradeRequest) (*GradeResponse, error)
	AvailableProviders() []string
	EstimateCost(provider, model string, inputTokens, outputTokens int) float64
}
