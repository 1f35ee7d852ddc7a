package domain

import "errors"

var (
	ErrNoGradersConfigured = errors.New("at least one grader must be configured")
	ErrNoGradersAvailable  = errors.New("no graders available with current provider configuration")
	ErrUnknownProvider     = errors.New("unknown provider")
	ErrBudgetExhausted     = errors.New("cost ceiling reached for submission")
	ErrSessionNotFound     = errors.New("grading session not found")
)
