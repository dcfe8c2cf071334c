package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/ats-matcher/internal/ai"
	"github.com/spigell/ats-matcher/internal/ingest"
)

const (
	FieldCV  = "cv"
	FieldJob = "job"
)

// ValidationError lists the inputs that are missing before any scoring starts.
type ValidationError struct {
	Missing []string
	// Causes holds ingestion failures that left an input empty.
	Causes []error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing input: %s", strings.Join(e.Missing, ", "))
}

func (e *ValidationError) Unwrap() []error { return e.Causes }

// UserMessage converts an analysis error into text suitable for the end user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		validationErr *ValidationError
		fetchErr      *ingest.FetchError
		ingestErr     *ingest.IngestionError
		parseErr      *ai.ParseError
		cfgErr        *ai.ConfigurationError
	)

	switch {
	case errors.As(err, &validationErr):
		lines := make([]string, 0, len(validationErr.Missing)+len(validationErr.Causes))
		for _, cause := range validationErr.Causes {
			lines = append(lines, fmt.Sprintf("Could not read the CV document: %v", cause))
		}
		for _, field := range validationErr.Missing {
			switch field {
			case FieldCV:
				lines = append(lines, "Provide a CV file or paste the CV text.")
			case FieldJob:
				lines = append(lines, "Provide a job posting link or paste the job description.")
			}
		}
		return strings.Join(lines, "\n")
	case errors.As(err, &fetchErr):
		return fmt.Sprintf("Could not fetch the job posting from the link: %v", fetchErr)
	case errors.As(err, &ingestErr):
		return fmt.Sprintf("Could not read the CV document: %v", ingestErr)
	case errors.As(err, &parseErr):
		return fmt.Sprintf("Analysis failed: the model returned an unreadable answer (%v)", parseErr.Err)
	case errors.As(err, &cfgErr):
		return fmt.Sprintf("Analysis failed: %v", cfgErr)
	default:
		return fmt.Sprintf("Analysis failed: %v", err)
	}
}
