package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/ats-matcher/internal/ai"
	"github.com/spigell/ats-matcher/internal/ai/gemini"
	"github.com/spigell/ats-matcher/internal/ai/heuristic"
	"github.com/spigell/ats-matcher/internal/secrets"
)

const (
	scorerAuto      = "auto"
	scorerHeuristic = "heuristic"
	scorerGemini    = "gemini"
)

// newScorer picks the scorer named in the config. In auto mode a missing api
// key falls back to the heuristic scorer.
func newScorer(ctx context.Context, config *AIConfig, logger *zap.Logger) (ai.Scorer, error) {
	mode := strings.ToLower(strings.TrimSpace(config.Scorer))
	if mode == "" {
		mode = scorerAuto
	}

	switch mode {
	case scorerHeuristic:
		return heuristic.New(logger), nil
	case scorerAuto, scorerGemini:
	default:
		return nil, &ai.ConfigurationError{Reason: fmt.Sprintf("unknown scorer %q", config.Scorer)}
	}

	gc := config.Gemini
	if gc == nil {
		gc = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: gc.APIKey,
		File:  gc.APIKeyFile,
	})
	if err != nil {
		if mode == scorerAuto && errors.Is(err, secrets.ErrNotConfigured) {
			logger.Info("gemini api key is not configured, using the heuristic scorer",
				zap.String("hint", "set GEMINI_API_KEY or ai.gemini.api-key-file to enable the gemini scorer"),
			)
			return heuristic.New(logger), nil
		}
		return nil, &ai.ConfigurationError{Reason: err.Error()}
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, gc.Model, logger)
	if err != nil {
		return nil, err
	}

	return gemini.NewScorer(generator, logger, gemini.Options{
		Language:     gc.Language,
		MaxLogLength: gc.MaxLogLength,
	}), nil
}
