package grading

import (
	"context"
	"log"
	"time"

	"markbench/internal/config"
	"markbench/internal/domain"
	"markbench/internal/port"
)

// RunPolicy bounds one run's attempts.
type RunPolicy struct {
	Timeout     time.Duration
	MaxAttempts int
}

// Executor performs single grading runs with bounded retries and
// exponential backoff. It holds no mutable state between runs.
type Executor struct {
	llm port.LLMClient

	// sleep is replaceable in tests; defaults to time.Sleep.
	sleep func(time.Duration)
	// backoffBase is the delay before the second attempt; it doubles each
	// attempt after that (1s, 2s, 4s, ...).
	backoffBase time.Duration
}

// NewExecutor creates an Executor over the given LLM client.
func NewExecutor(client port.LLMClient) *Executor {
	return &Executor{
		llm:         client,
		sleep:       time.Sleep,
		backoffBase: time.Second,
	}
}

// Execute performs one grading run against one grader, retrying failed
// calls up to pol.MaxAttempts with exponential backoff. Remote failures are
// always converted into a failed RunOutcome, never propagated.
func (e *Executor) Execute(ctx context.Context, spec config.GraderSpec, prompt string, runNumber int, maxMark float64, pol RunPolicy) domain.RunOutcome {
	maxAttempts := pol.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return failedOutcome(runNumber, attempt, err)
		}

		resp, err := e.attempt(ctx, spec, prompt, pol.Timeout)
		if err == nil {
			parsed := ParseGradingResponse(resp.Content, maxMark)
			return domain.RunOutcome{
				RunNumber:        runNumber,
				Attempt:          attempt,
				Success:          true,
				Mark:             parsed.Mark,
				Feedback:         parsed.Feedback,
				MaxMark:          parsed.MaxMark,
				ResponseTimeSecs: resp.Usage.ResponseTimeSecs,
				Cost:             resp.Usage.Cost,
				Usage: domain.TokenUsage{
					InputTokens:  resp.Usage.InputTokens,
					OutputTokens: resp.Usage.OutputTokens,
				},
				Timestamp: resp.Timestamp,
			}
		}

		lastErr = err
		if attempt == maxAttempts {
			break
		}
		log.Printf("runExecutor: attempt %d failed for %s run %d, retrying: %v",
			attempt, spec.Name, runNumber, err)
		e.sleep(e.backoffBase << (attempt - 1))
	}

	log.Printf("runExecutor: all attempts failed for %s run %d: %v", spec.Name, runNumber, lastErr)
	return failedOutcome(runNumber, maxAttempts, lastErr)
}

// attempt performs one remote call under the per-run timeout.
func (e *Executor) attempt(ctx context.Context, spec config.GraderSpec, prompt string, timeout time.Duration) (*port.GradeResponse, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return e.llm.Grade(ctx, port.GradeRequest{
		Provider:     spec.Provider,
		Model:        spec.Model,
		Prompt:       prompt,
		SystemPrompt: spec.SystemPrompt,
		Temperature:  spec.Temperature,
		MaxTokens:    spec.MaxTokens,
		RateLimit:    spec.RateLimit,
	})
}

func failedOutcome(runNumber, attempt int, err error) domain.RunOutcome {
	return domain.RunOutcome{
		RunNumber: runNumber,
		Attempt:   attempt,
		Success:   false,
		Error:     err.Error(),
		Cost:      0,
		Timestamp: time.Now(),
	}
}
