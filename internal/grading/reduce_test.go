package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"markbench/internal/domain"
)

func outcomes(marks ...float64) []domain.RunOutcome {
	outs := make([]domain.RunOutcome, 0, len(marks))
	for i, m := range marks {
		outs = append(outs, domain.RunOutcome{
			RunNumber: i + 1,
			Success:   true,
			Mark:      m,
			Feedback:  "run feedback",
		})
	}
	return outs
}

func TestReduceGraderRuns_SingleRun(t *testing.T) {
	summary := ReduceGraderRuns(outcomes(75), 100, domain.EstimatorMean)

	assert.Equal(t, 75.0, summary.Mark)
	assert.Equal(t, 0.7, summary.Confidence)
	assert.Equal(t, 0.0, summary.MarkStdDev)
	assert.Equal(t, 1, summary.RunsUsed)
}

func TestReduceGraderRuns_MeanAndConfidence(t *testing.T) {
	summary := ReduceGraderRuns(outcomes(80, 84), 100, domain.EstimatorMean)

	assert.Equal(t, 82.0, summary.Mark)
	// sample stddev of [80, 84] is 2.8284...
	assert.Equal(t, 2.83, summary.MarkStdDev)
	assert.Equal(t, 0.972, summary.Confidence)
	assert.Equal(t, []float64{80, 84}, summary.RunMarks)
	assert.Equal(t, 2, summary.RunsUsed)
}

func TestReduceGraderRuns_ConfidenceFloor(t *testing.T) {
	// Wildly divergent runs must not push confidence below 0.1.
	summary := ReduceGraderRuns(outcomes(0, 100, 0, 100), 10, domain.EstimatorMean)
	assert.Equal(t, 0.1, summary.Confidence)
}

func TestReduceGraderRuns_Median(t *testing.T) {
	summary := ReduceGraderRuns(outcomes(60, 90, 70), 100, domain.EstimatorMedian)
	assert.Equal(t, 70.0, summary.Mark)
}

func TestReduceGraderRuns_TrimmedMean(t *testing.T) {
	summary := ReduceGraderRuns(outcomes(60, 70, 80, 90), 100, domain.EstimatorTrimmedMean)
	assert.Equal(t, 75.0, summary.Mark)
}

func TestReduceGraderRuns_TrimmedMeanFewValues(t *testing.T) {
	// With two or fewer values trimming would discard everything, so the
	// plain mean is used.
	summary := ReduceGraderRuns(outcomes(60, 90), 100, domain.EstimatorTrimmedMean)
	assert.Equal(t, 75.0, summary.Mark)
}

func TestReduceGraderRuns_WeightedMeanDegradesToMean(t *testing.T) {
	summary := ReduceGraderRuns(outcomes(70, 80), 100, domain.EstimatorWeightedMean)
	assert.Equal(t, 75.0, summary.Mark)
}

func TestReduceGraderRuns_LongestFeedbackWins(t *testing.T) {
	outs := []domain.RunOutcome{
		{Success: true, Mark: 70, Feedback: "short"},
		{Success: true, Mark: 72, Feedback: "a considerably longer feedback text"},
		{Success: true, Mark: 71, Feedback: "medium length one"},
	}
	summary := ReduceGraderRuns(outs, 100, domain.EstimatorMean)
	assert.Equal(t, "a considerably longer feedback text", summary.Feedback)
}

func TestEmptyReducedSummary(t *testing.T) {
	summary := EmptyReducedSummary("claude-sonnet", 50)

	assert.Equal(t, 0.0, summary.Mark)
	assert.Equal(t, 0.0, summary.Confidence)
	assert.Equal(t, 50.0, summary.MaxMark)
	assert.Equal(t, "All runs failed for claude-sonnet", summary.Feedback)
}

func graderResult(name string, weight, mark float64, successRuns, totalRuns int, feedback string) domain.GraderResult {
	return domain.GraderResult{
		GraderName:     name,
		Weight:         weight,
		TotalRuns:      totalRuns,
		SuccessfulRuns: successRuns,
		FailedRuns:     totalRuns - successRuns,
		Reduced: domain.ReducedSummary{
			Mark:     mark,
			Feedback: feedback,
		},
	}
}

func TestReduceAcrossGraders_WeightedMean(t *testing.T) {
	results := map[string]domain.GraderResult{
		"claude-sonnet": graderResult("claude-sonnet", 2.0, 80, 1, 1, "primary feedback"),
		"gpt4o-mini":    graderResult("gpt4o-mini", 1.0, 70, 1, 1, "secondary"),
	}

	agg := ReduceAcrossGraders(results, domain.EstimatorWeightedMean, 100, "claude-sonnet")

	// (80*2 + 70*1) / 3
	assert.Equal(t, 76.7, agg.Mark)
	assert.Equal(t, []float64{80, 70}, agg.GraderMarks)
	// sample stddev of [80, 70] is 7.07; base 0.929 + bonus 0.1 caps at 0.95
	assert.Equal(t, 7.07, agg.MarkStdDev)
	assert.Equal(t, 0.95, agg.Confidence)
	assert.Equal(t, "weighted_mean", agg.Method)
	assert.Equal(t, 2, agg.GradersUsed)
	assert.Equal(t, 2, agg.TotalRuns)
	assert.Equal(t, "primary feedback", agg.Feedback)
}

func TestReduceAcrossGraders_FailedGraderExcluded(t *testing.T) {
	results := map[string]domain.GraderResult{
		"alpha": graderResult("alpha", 1.0, 80, 2, 2, "alpha feedback"),
		"beta":  graderResult("beta", 1.0, 0, 0, 2, ""),
	}

	agg := ReduceAcrossGraders(results, domain.EstimatorMean, 100, "")

	assert.Equal(t, 80.0, agg.Mark)
	assert.Equal(t, 1, agg.GradersUsed)
	// Failed grader's runs still count toward the run total.
	assert.Equal(t, 4, agg.TotalRuns)
	// Single participant: base 1.0 capped to 0.95 after bonus.
	assert.Equal(t, 0.95, agg.Confidence)
}

func TestReduceAcrossGraders_AllFailed(t *testing.T) {
	results := map[string]domain.GraderResult{
		"alpha": graderResult("alpha", 1.0, 0, 0, 3, ""),
	}

	agg := ReduceAcrossGraders(results, domain.EstimatorMean, 100, "")

	assert.Equal(t, 0.0, agg.Mark)
	assert.Equal(t, 0.0, agg.Confidence)
	assert.Equal(t, "failed", agg.Method)
	assert.Equal(t, "No successful grading runs", agg.Feedback)
	assert.Equal(t, 3, agg.TotalRuns)
}

func TestReduceAcrossGraders_FeedbackOfRecordFailed(t *testing.T) {
	results := map[string]domain.GraderResult{
		"primary":   graderResult("primary", 2.0, 0, 0, 1, ""),
		"secondary": graderResult("secondary", 1.0, 65, 1, 1, "the only feedback available"),
	}

	agg := ReduceAcrossGraders(results, domain.EstimatorWeightedMean, 100, "primary")

	// Designated grader failed; the longest participant feedback is used.
	assert.Equal(t, "the only feedback available", agg.Feedback)
	assert.Equal(t, 65.0, agg.Mark)
}

func TestReduceAcrossGraders_DeterministicOrder(t *testing.T) {
	results := map[string]domain.GraderResult{
		"zeta":  graderResult("zeta", 1.0, 90, 1, 1, "z"),
		"alpha": graderResult("alpha", 1.0, 60, 1, 1, "a"),
		"mid":   graderResult("mid", 1.0, 75, 1, 1, "m"),
	}

	agg := ReduceAcrossGraders(results, domain.EstimatorMean, 100, "")

	// Marks follow sorted grader names regardless of map iteration order.
	assert.Equal(t, []float64{60, 75, 90}, agg.GraderMarks)
	assert.Equal(t, 75.0, agg.Mark)
}

func TestReduceAcrossGraders_ConfidenceBase(t *testing.T) {
	// Three agreeing graders: stddev 0, base 1.0, bonus 0.15, capped 0.95.
	results := map[string]domain.GraderResult{
		"a": graderResult("a", 1.0, 80, 1, 1, "x"),
		"b": graderResult("b", 1.0, 80, 1, 1, "y"),
		"c": graderResult("c", 1.0, 80, 1, 1, "z"),
	}
	agg := ReduceAcrossGraders(results, domain.EstimatorMean, 100, "")
	assert.Equal(t, 0.95, agg.Confidence)

	// Fully divergent graders: stddev 7.07 on a 10-mark scale floors the
	// base at 0.3; with the 0.1 participation bonus that is 0.4.
	results = map[string]domain.GraderResult{
		"a": graderResult("a", 1.0, 0, 1, 1, "x"),
		"b": graderResult("b", 1.0, 10, 1, 1, "y"),
	}
	agg = ReduceAcrossGraders(results, domain.EstimatorMean, 10, "")
	assert.Equal(t, 0.4, agg.Confidence)
}
