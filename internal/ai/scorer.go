package ai

import (
	"context"
	"fmt"
)

const (
	// MaxMissingKeywords caps the keyword gap reported to the user.
	MaxMissingKeywords = 5
	// MinScore and MaxScore bound every reported score.
	MinScore = 0
	MaxScore = 100
)

// Result is the uniform outcome of any scoring strategy.
type Result struct {
	Score           int      `json:"score" yaml:"score"`
	MissingKeywords []string `json:"missing_keywords" yaml:"missing_keywords"`
	Summary         string   `json:"summary" yaml:"summary"`
}

// Scorer compares a CV against a job posting. Both texts are expected to be normalized already.
type Scorer interface {
	Name() string
	Score(ctx context.Context, cvText, jobText string) (*Result, error)
}

// ClampScore bounds score into [MinScore, MaxScore].
func ClampScore(score int) int {
	return max(MinScore, min(MaxScore, score))
}

// ParseError reports a model response that could not be read as JSON.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse model response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ConfigurationError reports a scorer that cannot be used with the current settings.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "scorer is not configured: " + e.Reason
}
