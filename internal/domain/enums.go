package domain

// Provider identifies a supported LLM backend.
type Provider = string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGemini    Provider = "gemini"
)

// SupportedProviders is the set of providers a grader may be configured with.
var SupportedProviders = map[Provider]bool{
	ProviderAnthropic: true,
	ProviderOpenAI:    true,
	ProviderGemini:    true,
}

// Estimator selects the statistical method used to collapse marks.
type Estimator string

const (
	EstimatorMean         Estimator = "mean"
	EstimatorMedian       Estimator = "median"
	EstimatorWeightedMean Estimator = "weighted_mean"
	EstimatorTrimmedMean  Estimator = "trimmed_mean"
)

// Valid reports whether e is one of the supported estimators.
func (e Estimator) Valid() bool {
	switch e {
	case EstimatorMean, EstimatorMedian, EstimatorWeightedMean, EstimatorTrimmedMean:
		return true
	}
	return false
}

// SubmissionState tracks a submission through the grading pipeline.
// Every submission terminates in SubmissionDone; an all-failed submission
// is still a DONE result with a zero-confidence aggregate.
type SubmissionState string

const (
	SubmissionPending    SubmissionState = "pending"
	SubmissionEstimating SubmissionState = "estimating"
	SubmissionRunning    SubmissionState = "running"
	SubmissionReducing   SubmissionState = "reducing"
	SubmissionDone       SubmissionState = "done"
)
