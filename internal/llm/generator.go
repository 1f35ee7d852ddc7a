package llm

import "context"

// Request is one completion request to a single backend.
type Request struct {
	Model        string
	Prompt       string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// Completion is the raw text and token metering from one backend call.
type Completion struct {
	Content      string
	InputTokens  int
	OutputTokens int
}

// Generator abstracts one provider's text-generation API.
type Generator interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
}
