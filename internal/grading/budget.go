package grading

import (
	"sync"
	"time"

	"markbench/internal/config"
	"markbench/internal/domain"
)

// estimatedOutputTokens is the fixed output assumption used for pre-flight
// cost estimates.
const estimatedOutputTokens = 500

// CostEstimator prices hypothetical calls; satisfied by port.LLMClient.
type CostEstimator interface {
	EstimateCost(provider, model string, inputTokens, outputTokens int) float64
}

// EstimateSessionCost approximates the total cost of grading one submission
// under cfg: prompt length over 4 chars per token, a fixed output-token
// assumption, summed across all graders and their run counts.
func EstimateSessionCost(prompt string, cfg *config.GradingConfig, pricer CostEstimator) float64 {
	inputTokens := len(prompt) / 4

	var total float64
	for _, g := range cfg.Graders {
		perRun := pricer.EstimateCost(g.Provider, g.Model, inputTokens, estimatedOutputTokens)
		total += perRun * float64(cfg.RunsPerGrader)
	}
	return total
}

// BudgetTracker is the per-submission cost accumulator shared by
// concurrently running graders. All checks and updates go through one
// mutex so a consistent running total is observed.
//
// A grader that passes Allow and then spends concurrently with another can
// overrun the ceiling by at most one run's cost per grader; this bounded
// overrun is accepted.
type BudgetTracker struct {
	mu    sync.Mutex
	spent float64
	limit float64
}

// NewBudgetTracker creates a tracker with the given ceiling.
func NewBudgetTracker(limit float64) *BudgetTracker {
	return &BudgetTracker{limit: limit}
}

// Allow reports whether another run may start.
func (b *BudgetTracker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spent < b.limit
}

// Consume records the cost of a completed run.
func (b *BudgetTracker) Consume(cost float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.spent += cost
}

// Spent returns the running total.
func (b *BudgetTracker) Spent() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spent
}

// Limit returns the configured ceiling.
func (b *BudgetTracker) Limit() float64 {
	return b.limit
}

// Accountant maintains the session-scoped statistics for one engine.
// Counters accumulate monotonically; resetting means constructing a new
// engine.
type Accountant struct {
	mu    sync.Mutex
	stats domain.SessionStatistics
}

// NewAccountant creates an empty accountant.
func NewAccountant() *Accountant {
	return &Accountant{}
}

// Begin stamps the session start time on first use.
func (a *Accountant) Begin() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stats.StartTime.IsZero() {
		a.stats.StartTime = time.Now()
	}
}

// RecordSubmission folds one completed submission into the session totals.
// A submission counts as successful when any run succeeded or the aggregate
// carries a positive mark.
func (a *Accountant) RecordSubmission(res *domain.SubmissionResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats.SubmissionsProcessed++
	if res.Aggregate.Mark > 0 || res.Metadata.SuccessfulRuns > 0 {
		a.stats.SuccessfulSubmissions++
	} else {
		a.stats.FailedSubmissions++
	}
	a.stats.TotalCalls += res.Metadata.TotalRuns
	a.stats.TotalCost += res.Metadata.TotalCost
}

// Snapshot returns a copy of the current statistics with EndTime set to now.
func (a *Accountant) Snapshot() domain.SessionStatistics {
	a.mu.Lock()
	defer a.mu.Unlock()
	stats := a.stats
	stats.EndTime = time.Now()
	return stats
}
