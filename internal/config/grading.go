package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"markbench/internal/domain"
)

// GraderSpec configures a single grading participant.
type GraderSpec struct {
	Name            string  `mapstructure:"name" yaml:"name" json:"name"`
	Provider        string  `mapstructure:"provider" yaml:"provider" json:"provider"`
	Model           string  `mapstructure:"model" yaml:"model" json:"model"`
	Weight          float64 `mapstructure:"weight" yaml:"weight" json:"weight"`
	PrimaryFeedback bool    `mapstructure:"primary_feedback" yaml:"primary_feedback,omitempty" json:"primary_feedback"`
	RateLimit       int     `mapstructure:"rate_limit" yaml:"rate_limit,omitempty" json:"rate_limit,omitempty"`
	SystemPrompt    string  `mapstructure:"system_prompt" yaml:"system_prompt,omitempty" json:"system_prompt,omitempty"`
	Temperature     float64 `mapstructure:"temperature" yaml:"temperature,omitempty" json:"temperature"`
	MaxTokens       int     `mapstructure:"max_tokens" yaml:"max_tokens,omitempty" json:"max_tokens"`
	TimeoutSecs     int     `mapstructure:"timeout_secs" yaml:"timeout_secs,omitempty" json:"timeout_secs,omitempty"`
}

// GradingConfig is the full grading policy for one session. It is built once
// and treated as read-only afterwards; FilterByAvailability derives a new
// copy rather than mutating the original.
type GradingConfig struct {
	RunsPerGrader int              `json:"runs_per_grader"`
	Estimator     domain.Estimator `json:"averaging_method"`
	Parallel      bool             `json:"parallel_execution"`
	Graders       []GraderSpec     `json:"graders"`

	// Execution settings
	MaxCostPerSubmission float64 `json:"max_cost_per_submission"`
	TimeoutPerRunSecs    int     `json:"timeout_per_run_secs"`
	RetryAttempts        int     `json:"retry_attempts"`
	ShowProgress         bool    `json:"show_progress"`

	// Statistical settings
	ConfidenceThreshold  float64 `json:"confidence_threshold"`
	MaxVarianceThreshold float64 `json:"max_variance_threshold"`
}

// TimeoutPerRun returns the per-run timeout as a duration.
func (c *GradingConfig) TimeoutPerRun() time.Duration {
	return time.Duration(c.TimeoutPerRunSecs) * time.Second
}

// FeedbackOfRecord returns the name of the grader flagged primary_feedback,
// or "" if none is flagged.
func (c *GradingConfig) FeedbackOfRecord() string {
	for _, g := range c.Graders {
		if g.PrimaryFeedback {
			return g.Name
		}
	}
	return ""
}

// DefaultGradingConfig returns the built-in two-grader policy.
func DefaultGradingConfig() *GradingConfig {
	return &GradingConfig{
		RunsPerGrader: 1,
		Estimator:     domain.EstimatorMean,
		Parallel:      true,
		Graders: []GraderSpec{
			{
				Name:            "claude-sonnet",
				Provider:        domain.ProviderAnthropic,
				Model:           "claude-3-5-sonnet",
				Weight:          2.0,
				PrimaryFeedback: true,
				RateLimit:       50,
				Temperature:     0.1,
				MaxTokens:       2000,
			},
			{
				Name:        "gpt4o-mini",
				Provider:    domain.ProviderOpenAI,
				Model:       "gpt-4o-mini",
				Weight:      1.0,
				RateLimit:   100,
				Temperature: 0.1,
				MaxTokens:   2000,
			},
		},
		MaxCostPerSubmission: 0.50,
		TimeoutPerRunSecs:    60,
		RetryAttempts:        3,
		ShowProgress:         true,
		ConfidenceThreshold:  0.7,
		MaxVarianceThreshold: 0.15,
	}
}

// LoadGradingConfig reads the policy document at path. A missing, unreadable
// or invalid document falls back to the built-in defaults with a logged
// warning; use ParseGradingConfig when a hard failure is wanted.
func LoadGradingConfig(path string) *GradingConfig {
	if path == "" {
		return DefaultGradingConfig()
	}
	cfg, err := ParseGradingConfig(path)
	if err != nil {
		log.Printf("gradingConfig: %v, using defaults", err)
		return DefaultGradingConfig()
	}
	log.Printf("gradingConfig: loaded policy from %s (%d graders, %d runs each, %s averaging)",
		path, len(cfg.Graders), cfg.RunsPerGrader, cfg.Estimator)
	return cfg
}

// ParseGradingConfig reads and validates the policy document at path.
// Validation is all-or-nothing: on any violation the caller receives an
// error and no partial configuration.
func ParseGradingConfig(path string) (*GradingConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading grading policy %s: %w", path, err)
	}

	cfg := DefaultGradingConfig()

	if v.IsSet("grading.runs_per_grader") {
		cfg.RunsPerGrader = v.GetInt("grading.runs_per_grader")
	}
	if v.IsSet("grading.averaging_method") {
		cfg.Estimator = domain.Estimator(v.GetString("grading.averaging_method"))
	}
	if v.IsSet("grading.parallel_execution") {
		cfg.Parallel = v.GetBool("grading.parallel_execution")
	}
	if v.IsSet("execution.max_cost_per_submission") {
		cfg.MaxCostPerSubmission = v.GetFloat64("execution.max_cost_per_submission")
	}
	if v.IsSet("execution.timeout_per_run_secs") {
		cfg.TimeoutPerRunSecs = v.GetInt("execution.timeout_per_run_secs")
	}
	if v.IsSet("execution.retry_attempts") {
		cfg.RetryAttempts = v.GetInt("execution.retry_attempts")
	}
	if v.IsSet("execution.show_progress") {
		cfg.ShowProgress = v.GetBool("execution.show_progress")
	}

	if v.IsSet("graders") {
		var specs []GraderSpec
		if err := v.UnmarshalKey("graders", &specs); err != nil {
			return nil, fmt.Errorf("parsing graders section: %w", err)
		}
		for i := range specs {
			if specs[i].Weight == 0 {
				specs[i].Weight = 1.0
			}
			if specs[i].Temperature == 0 {
				specs[i].Temperature = 0.1
			}
			if specs[i].MaxTokens == 0 {
				specs[i].MaxTokens = 2000
			}
		}
		cfg.Graders = specs
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the policy as a whole.
func (c *GradingConfig) Validate() error {
	if len(c.Graders) == 0 {
		return domain.ErrNoGradersConfigured
	}
	if c.RunsPerGrader < 1 {
		return fmt.Errorf("runs_per_grader must be at least 1, got %d", c.RunsPerGrader)
	}
	if !c.Estimator.Valid() {
		return fmt.Errorf("invalid averaging_method: %q", c.Estimator)
	}

	primaryFeedback := 0
	for _, g := range c.Graders {
		if !domain.SupportedProviders[g.Provider] {
			return fmt.Errorf("grader %s: %w: %q", g.Name, domain.ErrUnknownProvider, g.Provider)
		}
		if g.Weight <= 0 {
			return fmt.Errorf("grader %s: weight must be positive, got %v", g.Name, g.Weight)
		}
		if g.PrimaryFeedback {
			primaryFeedback++
		}
	}
	if primaryFeedback > 1 {
		return fmt.Errorf("only one grader can be marked as primary_feedback, found %d", primaryFeedback)
	}
	return nil
}

// FilterByAvailability derives a copy of the policy keeping only graders
// whose provider is available. Relative order and all fields of retained
// graders are preserved. Fails if nothing would remain.
func (c *GradingConfig) FilterByAvailability(available []string) (*GradingConfig, error) {
	avail := make(map[string]bool, len(available))
	for _, p := range available {
		avail[p] = true
	}

	var kept []GraderSpec
	for _, g := range c.Graders {
		if avail[g.Provider] {
			kept = append(kept, g)
		}
	}
	if len(kept) == 0 {
		return nil, domain.ErrNoGradersAvailable
	}

	filtered := *c
	filtered.Graders = kept
	log.Printf("gradingConfig: filtered to %d available graders", len(kept))
	return &filtered, nil
}

// policyDocument is the on-disk YAML shape of the grading policy.
type policyDocument struct {
	Grading struct {
		RunsPerGrader     int    `yaml:"runs_per_grader"`
		AveragingMethod   string `yaml:"averaging_method"`
		ParallelExecution bool   `yaml:"parallel_execution"`
	} `yaml:"grading"`
	Graders   []GraderSpec `yaml:"graders"`
	Execution struct {
		MaxCostPerSubmission float64 `yaml:"max_cost_per_submission"`
		TimeoutPerRunSecs    int     `yaml:"timeout_per_run_secs"`
		RetryAttempts        int     `yaml:"retry_attempts"`
		ShowProgress         bool    `yaml:"show_progress"`
	} `yaml:"execution"`
}

// WriteDefaultPolicy writes the built-in policy document to path. Used for
// bootstrapping a config file operators can then edit. The written file must
// round-trip through ParseGradingConfig.
func WriteDefaultPolicy(path string) error {
	cfg := DefaultGradingConfig()

	var doc policyDocument
	doc.Grading.RunsPerGrader = cfg.RunsPerGrader
	doc.Grading.AveragingMethod = string(cfg.Estimator)
	doc.Grading.ParallelExecution = cfg.Parallel
	doc.Graders = cfg.Graders
	doc.Execution.MaxCostPerSubmission = cfg.MaxCostPerSubmission
	doc.Execution.TimeoutPerRunSecs = cfg.TimeoutPerRunSecs
	doc.Execution.RetryAttempts = cfg.RetryAttempts
	doc.Execution.ShowProgress = cfg.ShowProgress

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshaling default policy: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing default policy: %w", err)
	}
	log.Printf("gradingConfig: default policy saved to %s", path)
	return nil
}
