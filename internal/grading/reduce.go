package grading

import (
	"fmt"
	"math"
	"sort"

	"markbench/internal/domain"
)

// ReduceGraderRuns collapses one grader's successful runs into a single
// summary. Callers must pass only successful outcomes; the all-failed case
// is handled by EmptyReducedSummary.
func ReduceGraderRuns(outcomes []domain.RunOutcome, maxMark float64, estimator domain.Estimator) domain.ReducedSummary {
	marks := make([]float64, 0, len(outcomes))
	for _, o := range outcomes {
		marks = append(marks, o.Mark)
	}

	// Weights apply only across graders; within one grader weighted_mean
	// degrades to mean.
	est := estimator
	if est == domain.EstimatorWeightedMean {
		est = domain.EstimatorMean
	}
	mark := applyEstimator(marks, est)

	var confidence, stdDev float64
	if len(marks) > 1 {
		stdDev = sampleStdDev(marks)
		confidence = clamp(1.0-stdDev/maxMark, 0.1, 1.0)
	} else {
		confidence = 0.7 // single sample, low confidence by construction
	}

	// The longest feedback is taken as the representative one.
	var feedback string
	for _, o := range outcomes {
		if len(o.Feedback) > len(feedback) {
			feedback = o.Feedback
		}
	}

	return domain.ReducedSummary{
		Mark:       round1(mark),
		Feedback:   feedback,
		Confidence: round3(confidence),
		MaxMark:    maxMark,
		RunMarks:   marks,
		MarkStdDev: round2(stdDev),
		RunsUsed:   len(outcomes),
	}
}

// EmptyReducedSummary is the zero-confidence summary for a grader whose
// runs all failed.
func EmptyReducedSummary(graderName string, maxMark float64) domain.ReducedSummary {
	return domain.ReducedSummary{
		Mark:       0,
		Feedback:   fmt.Sprintf("All runs failed for %s", graderName),
		Confidence: 0,
		MaxMark:    maxMark,
	}
}

// ReduceAcrossGraders collapses per-grader summaries into the final
// submission aggregate. Only graders with at least one successful run
// participate. feedbackOfRecord names the grader whose feedback is preferred
// when it participated; "" means none is designated.
func ReduceAcrossGraders(results map[string]domain.GraderResult, estimator domain.Estimator, maxMark float64, feedbackOfRecord string) domain.AggregateSummary {
	// Sorted iteration keeps grader_marks deterministic for a given input.
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		marks     []float64
		weights   []float64
		feedbacks []string
		totalRuns int
	)
	for _, name := range names {
		r := results[name]
		totalRuns += r.TotalRuns
		if r.SuccessfulRuns == 0 {
			continue
		}
		marks = append(marks, r.Reduced.Mark)
		weights = append(weights, r.Weight)
		feedbacks = append(feedbacks, r.Reduced.Feedback)
	}

	if len(marks) == 0 {
		return domain.AggregateSummary{
			Mark:       0,
			Feedback:   "No successful grading runs",
			Confidence: 0,
			MaxMark:    maxMark,
			Method:     "failed",
			TotalRuns:  totalRuns,
		}
	}

	var finalMark float64
	if estimator == domain.EstimatorWeightedMean {
		var weightedSum, totalWeight float64
		for i, m := range marks {
			weightedSum += m * weights[i]
			totalWeight += weights[i]
		}
		finalMark = weightedSum / totalWeight
	} else {
		finalMark = applyEstimator(marks, estimator)
	}

	var stdDev float64
	if len(marks) > 1 {
		stdDev = sampleStdDev(marks)
	}
	base := math.Max(0.3, 1.0-stdDev/maxMark)
	bonus := math.Min(0.2, float64(len(marks))*0.05)
	confidence := math.Min(0.95, base+bonus)

	feedback := pickFeedback(results, names, feedbackOfRecord, feedbacks)

	return domain.AggregateSummary{
		Mark:        round1(finalMark),
		Feedback:    feedback,
		Confidence:  round3(confidence),
		MaxMark:     maxMark,
		GraderMarks: marks,
		MarkStdDev:  round2(stdDev),
		Method:      string(estimator),
		GradersUsed: len(marks),
		TotalRuns:   totalRuns,
	}
}

// pickFeedback prefers the feedback-of-record grader when it succeeded,
// falling back to the longest feedback among participants.
func pickFeedback(results map[string]domain.GraderResult, names []string, feedbackOfRecord string, feedbacks []string) string {
	if feedbackOfRecord != "" {
		if r, ok := results[feedbackOfRecord]; ok && r.SuccessfulRuns > 0 {
			return r.Reduced.Feedback
		}
	}
	best := ""
	for _, fb := range feedbacks {
		if len(fb) > len(best) {
			best = fb
		}
	}
	return best
}

// applyEstimator reduces marks with the non-weighted estimators.
func applyEstimator(marks []float64, estimator domain.Estimator) float64 {
	switch estimator {
	case domain.EstimatorMedian:
		return median(marks)
	case domain.EstimatorTrimmedMean:
		return trimmedMean(marks)
	default:
		return mean(marks)
	}
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// trimmedMean drops the single lowest and highest value, falling back to
// the plain mean when fewer than 3 values remain.
func trimmedMean(vals []float64) float64 {
	if len(vals) <= 2 {
		return mean(vals)
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	return mean(sorted[1 : len(sorted)-1])
}

// sampleStdDev is the n-1 standard deviation.
func sampleStdDev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	m := mean(vals)
	var sumSq float64
	for _, v := range vals {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(vals)-1))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
