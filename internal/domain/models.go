package domain

import (
	"time"

	"github.com/google/uuid"
)

// Submission is one student's extracted content, ready for grading.
// Content mirrors the shape produced by the extraction stage: section name
// (documents, code, web, repo_analysis, ...) to arbitrary payload.
type Submission struct {
	SubmissionID string                 `json:"submission_id"`
	Content      map[string]interface{} `json:"content"`
}

// TokenUsage records metered token counts for one remote call.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// RunOutcome is the immutable result of one grading run (including retries).
// On failure, Error is set and Cost is zero.
type RunOutcome struct {
	RunNumber        int        `json:"run_number"`
	Attempt          int        `json:"attempt"`
	Success          bool       `json:"success"`
	Mark             float64    `json:"mark,omitempty"`
	Feedback         string     `json:"feedback,omitempty"`
	MaxMark          float64    `json:"max_mark,omitempty"`
	ResponseTimeSecs float64    `json:"response_time_secs,omitempty"`
	Cost             float64    `json:"cost"`
	Usage            TokenUsage `json:"token_usage,omitempty"`
	Error            string     `json:"error,omitempty"`
	Timestamp        time.Time  `json:"timestamp"`
}

// ReducedSummary collapses one grader's successful runs into a single mark.
type ReducedSummary struct {
	Mark       float64   `json:"mark"`
	Feedback   string    `json:"feedback"`
	Confidence float64   `json:"confidence"`
	MaxMark    float64   `json:"max_mark"`
	RunMarks   []float64 `json:"run_marks,omitempty"`
	MarkStdDev float64   `json:"mark_std_dev"`
	RunsUsed   int       `json:"runs_used"`
}

// GraderResult aggregates all runs of one grader for one submission.
type GraderResult struct {
	GraderName       string         `json:"grader_name"`
	Provider         Provider       `json:"provider"`
	Model            string         `json:"model"`
	Weight           float64        `json:"weight"`
	Runs             []RunOutcome   `json:"runs"`
	Reduced          ReducedSummary `json:"aggregated"`
	TotalRuns        int            `json:"total_runs"`
	SuccessfulRuns   int            `json:"successful_runs"`
	FailedRuns       int            `json:"failed_runs"`
	TotalCost        float64        `json:"total_cost"`
	AvgResponseSecs  float64        `json:"average_response_time_secs"`
	Errors           []string       `json:"errors,omitempty"`
}

// AggregateSummary is the cross-grader reduction for one submission.
type AggregateSummary struct {
	Mark        float64   `json:"mark"`
	Feedback    string    `json:"feedback"`
	Confidence  float64   `json:"confidence"`
	MaxMark     float64   `json:"max_mark"`
	GraderMarks []float64 `json:"grader_marks"`
	MarkStdDev  float64   `json:"mark_std_dev"`
	Method      string    `json:"final_method"`
	GradersUsed int       `json:"graders_used"`
	TotalRuns   int       `json:"total_runs"`
}

// ConfigSnapshot echoes the policy a submission was graded under.
type ConfigSnapshot struct {
	RunsPerGrader int       `json:"runs_per_grader"`
	Estimator     Estimator `json:"averaging_method"`
	Graders       []string  `json:"graders_used"`
}

// SubmissionMetadata carries the session-level accounting for one submission.
type SubmissionMetadata struct {
	TotalRuns          int      `json:"total_runs"`
	SuccessfulRuns     int      `json:"successful_runs"`
	FailedRuns         int      `json:"failed_runs"`
	TotalCost          float64  `json:"total_cost"`
	ProcessingTimeSecs float64  `json:"processing_time_secs"`
	Errors             []string `json:"errors,omitempty"`
}

// SubmissionResult is the final, fully-populated output for one submission.
// It is never mutated after GradeSubmission returns it.
type SubmissionResult struct {
	SubmissionID  string                  `json:"submission_id"`
	Timestamp     time.Time               `json:"timestamp"`
	Config        ConfigSnapshot          `json:"config"`
	GraderResults map[string]GraderResult `json:"grader_results"`
	Aggregate     AggregateSummary        `json:"aggregate"`
	Metadata      SubmissionMetadata      `json:"metadata"`
}

// SessionStatistics accumulates monotonically across one engine's lifetime.
type SessionStatistics struct {
	SubmissionsProcessed  int       `json:"submissions_processed"`
	SuccessfulSubmissions int       `json:"successful_submissions"`
	FailedSubmissions     int       `json:"failed_submissions"`
	TotalCalls            int       `json:"total_api_calls"`
	TotalCost             float64   `json:"total_cost"`
	StartTime             time.Time `json:"start_time,omitempty"`
	EndTime               time.Time `json:"end_time,omitempty"`
}

// ConfigEcho is the condensed policy echo returned with session summaries.
type ConfigEcho struct {
	Graders       int       `json:"graders"`
	RunsPerGrader int       `json:"runs_per_grader"`
	Estimator     Estimator `json:"averaging_method"`
}

// SessionSummary answers the session summary query.
type SessionSummary struct {
	Stats        SessionStatistics `json:"session_stats"`
	DurationSecs float64           `json:"duration_seconds"`
	Config       ConfigEcho        `json:"config_summary"`
}

// SessionHeader describes one grading session in the durable result document.
type SessionHeader struct {
	SessionID        uuid.UUID  `json:"session_id"`
	Timestamp        time.Time  `json:"timestamp"`
	TotalSubmissions int        `json:"total_submissions"`
	Mode             string     `json:"grading_mode"`
	AssignmentRef    string     `json:"assignment_ref,omitempty"`
	RubricRef        string     `json:"rubric_ref,omitempty"`
	Config           ConfigEcho `json:"config"`
}

// SessionDocument is the durable output artifact for one grading session.
// Its shape is consumed downstream and must remain stable.
type SessionDocument struct {
	Session SessionHeader               `json:"grading_session"`
	Results map[string]SubmissionResult `json:"results"`
}
