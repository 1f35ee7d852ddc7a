package grading

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"markbench/internal/config"
	"markbench/internal/domain"
	"markbench/internal/port"
)

// Engine drives multi-grader, multi-run grading for a session. It owns the
// filtered policy, the run executor, and the session accountant. Submissions
// are processed one at a time; graders within a submission may run
// concurrently when the policy allows it.
type Engine struct {
	cfg        *config.GradingConfig
	llm        port.LLMClient
	exec       *Executor
	accountant *Accountant
}

// NewEngine builds an Engine, filtering the policy down to graders whose
// provider is actually available. Fails when no grader survives the filter.
func NewEngine(cfg *config.GradingConfig, client port.LLMClient) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	filtered, err := cfg.FilterByAvailability(client.AvailableProviders())
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:        filtered,
		llm:        client,
		exec:       NewExecutor(client),
		accountant: NewAccountant(),
	}, nil
}

// Config returns the engine's (filtered) policy.
func (e *Engine) Config() *config.GradingConfig {
	return e.cfg
}

// GradeSubmission grades one submission end to end: estimate, run all
// graders under the cost ceiling, reduce, and account. The returned result
// is always complete and well-formed, even when every run failed; it is
// never mutated afterwards. maxCostOverride replaces the policy ceiling
// when positive.
func (e *Engine) GradeSubmission(ctx context.Context, sub domain.Submission, assignmentSpec, rubric string, maxCostOverride float64) *domain.SubmissionResult {
	e.accountant.Begin()
	start := time.Now()

	state := domain.SubmissionPending
	log.Printf("engine: submission %s %s", sub.SubmissionID, state)

	graderNames := make([]string, 0, len(e.cfg.Graders))
	for _, g := range e.cfg.Graders {
		graderNames = append(graderNames, g.Name)
	}

	result := &domain.SubmissionResult{
		SubmissionID: sub.SubmissionID,
		Timestamp:    time.Now(),
		Config: domain.ConfigSnapshot{
			RunsPerGrader: e.cfg.RunsPerGrader,
			Estimator:     e.cfg.Estimator,
			Graders:       graderNames,
		},
		GraderResults: map[string]domain.GraderResult{},
	}

	if rubric == "" {
		rubric = ExtractRubric(assignmentSpec)
	}
	prompt := BuildGradingPrompt(sub, assignmentSpec, rubric)
	maxMark := ExtractMaxMark(assignmentSpec)

	maxCost := e.cfg.MaxCostPerSubmission
	if maxCostOverride > 0 {
		maxCost = maxCostOverride
	}

	// Soft ceiling: an estimate above the limit is recorded as a warning,
	// grading still proceeds. The hard ceiling is enforced per run below.
	state = domain.SubmissionEstimating
	log.Printf("engine: submission %s %s", sub.SubmissionID, state)
	estimated := EstimateSessionCost(prompt, e.cfg, e.llm)
	if estimated > maxCost {
		warning := fmt.Sprintf("Estimated cost $%.4f exceeds limit $%.4f", estimated, maxCost)
		log.Printf("engine: %s", warning)
		result.Metadata.Errors = append(result.Metadata.Errors, warning)
	}

	budget := NewBudgetTracker(maxCost)
	pol := RunPolicy{Timeout: e.cfg.TimeoutPerRun(), MaxAttempts: e.cfg.RetryAttempts}

	state = domain.SubmissionRunning
	log.Printf("engine: submission %s %s (%d graders, %d runs each)",
		sub.SubmissionID, state, len(e.cfg.Graders), e.cfg.RunsPerGrader)

	if e.cfg.Parallel && len(e.cfg.Graders) > 1 {
		var wg sync.WaitGroup
		var mu sync.Mutex
		for _, spec := range e.cfg.Graders {
			spec := spec
			wg.Add(1)
			go func() {
				defer wg.Done()
				gr := e.processGrader(ctx, spec, prompt, maxMark, budget, pol)
				mu.Lock()
				result.GraderResults[spec.Name] = gr
				mu.Unlock()
			}()
		}
		wg.Wait()
	} else {
		for _, spec := range e.cfg.Graders {
			result.GraderResults[spec.Name] = e.processGrader(ctx, spec, prompt, maxMark, budget, pol)
		}
	}

	state = domain.SubmissionReducing
	log.Printf("engine: submission %s %s", sub.SubmissionID, state)
	for _, gr := range result.GraderResults {
		result.Metadata.TotalRuns += gr.TotalRuns
		result.Metadata.SuccessfulRuns += gr.SuccessfulRuns
		result.Metadata.FailedRuns += gr.FailedRuns
		result.Metadata.TotalCost += gr.TotalCost
		result.Metadata.Errors = append(result.Metadata.Errors, gr.Errors...)
	}
	result.Metadata.ProcessingTimeSecs = time.Since(start).Seconds()

	result.Aggregate = ReduceAcrossGraders(result.GraderResults, e.cfg.Estimator, maxMark, e.cfg.FeedbackOfRecord())

	e.accountant.RecordSubmission(result)

	state = domain.SubmissionDone
	log.Printf("engine: submission %s %s: %d/%d runs, $%.4f",
		sub.SubmissionID, state, result.Metadata.SuccessfulRuns, result.Metadata.TotalRuns,
		result.Metadata.TotalCost)

	return result
}

// processGrader executes the configured number of runs for one grader,
// strictly sequentially: each run's budget check depends on the cost of the
// runs before it.
func (e *Engine) processGrader(ctx context.Context, spec config.GraderSpec, prompt string, maxMark float64, budget *BudgetTracker, pol RunPolicy) domain.GraderResult {
	gr := domain.GraderResult{
		GraderName: spec.Name,
		Provider:   spec.Provider,
		Model:      spec.Model,
		Weight:     spec.Weight,
	}
	if spec.TimeoutSecs > 0 {
		pol.Timeout = time.Duration(spec.TimeoutSecs) * time.Second
	}

	var successful []domain.RunOutcome
	var totalResponseSecs float64

	for run := 1; run <= e.cfg.RunsPerGrader; run++ {
		if err := ctx.Err(); err != nil {
			log.Printf("engine: cancellation requested, stopping runs for %s", spec.Name)
			break
		}
		if !budget.Allow() {
			log.Printf("engine: cost limit reached for %s, stopping runs", spec.Name)
			break
		}

		outcome := e.exec.Execute(ctx, spec, prompt, run, maxMark, pol)
		budget.Consume(outcome.Cost)

		gr.Runs = append(gr.Runs, outcome)
		gr.TotalRuns++
		gr.TotalCost += outcome.Cost

		if outcome.Success {
			successful = append(successful, outcome)
			gr.SuccessfulRuns++
			totalResponseSecs += outcome.ResponseTimeSecs
		} else {
			gr.FailedRuns++
			gr.Errors = append(gr.Errors, fmt.Sprintf("Run %d: %s", run, outcome.Error))
		}
	}

	if len(successful) > 0 {
		gr.AvgResponseSecs = totalResponseSecs / float64(len(successful))
		gr.Reduced = ReduceGraderRuns(successful, maxMark, e.cfg.Estimator)
	} else {
		gr.Reduced = EmptyReducedSummary(spec.Name, maxMark)
	}
	return gr
}

// SessionSummary reports the accumulated session statistics with a
// configuration echo.
func (e *Engine) SessionSummary() domain.SessionSummary {
	stats := e.accountant.Snapshot()
	var duration float64
	if !stats.StartTime.IsZero() {
		duration = stats.EndTime.Sub(stats.StartTime).Seconds()
	}
	return domain.SessionSummary{
		Stats:        stats,
		DurationSecs: duration,
		Config: domain.ConfigEcho{
			Graders:       len(e.cfg.Graders),
			RunsPerGrader: e.cfg.RunsPerGrader,
			Estimator:     e.cfg.Estimator,
		},
	}
}
