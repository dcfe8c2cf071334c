package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	FieldRequestID = "request_id"
	FieldScorer    = "scorer"
	FieldModel     = "ai_model"
)

// OrNop returns log, or a no-op logger when log is nil.
func OrNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

// ForScorer tags log with the scorer name and, for model-backed scorers, the
// model. Blank values are left out.
func ForScorer(log *zap.Logger, scorer, model string) *zap.Logger {
	return with(OrNop(log), FieldScorer, scorer, FieldModel, model)
}

// ForAnalysis tags log with the identifiers of a single analysis run.
func ForAnalysis(log *zap.Logger, requestID, scorer string) *zap.Logger {
	return with(OrNop(log), FieldRequestID, requestID, FieldScorer, scorer)
}

// with attaches key/value pairs, skipping pairs with a blank value.
func with(log *zap.Logger, kv ...string) *zap.Logger {
	var fields []zap.Field
	for i := 0; i+1 < len(kv); i += 2 {
		if value := strings.TrimSpace(kv[i+1]); value != "" {
			fields = append(fields, zap.String(kv[i], value))
		}
	}

	if len(fields) == 0 {
		return log
	}
	return log.With(fields...)
}

// Preview shortens s to at most limit runes for debug output, marking the cut
// with an ellipsis.
func Preview(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
