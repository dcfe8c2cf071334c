package heuristic

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/ats-matcher/internal/ai"
	"github.com/spigell/ats-matcher/internal/logger"
	"github.com/spigell/ats-matcher/internal/text"
)

const (
	name = "heuristic"

	summaryTooShort = "job description too short to extract keywords"
	summaryAdvice   = "Add the missing keywords from the job posting to your CV."
)

// Scorer ranks the job posting keywords and checks which of them appear in the CV.
type Scorer struct {
	logger *zap.Logger
}

func New(log *zap.Logger) *Scorer {
	return &Scorer{logger: logger.ForScorer(log, name, "")}
}

func (s *Scorer) Name() string { return name }

func (s *Scorer) Score(_ context.Context, cvText, jobText string) (*ai.Result, error) {
	keywords := text.RankKeywords(jobText, text.DefaultKeywordLimit)
	if len(keywords) == 0 {
		s.logger.Debug("no keywords extracted from job description")
		return &ai.Result{Score: 0, MissingKeywords: []string{}, Summary: summaryTooShort}, nil
	}

	result := Match(cvText, keywords)

	s.logger.Debug("heuristic scoring completed",
		zap.Strings("keywords", keywords),
		zap.Int("score", result.Score),
		zap.Strings("missing_keywords", result.MissingKeywords),
	)

	return result, nil
}

// Match scores cvText against an already ranked keyword list. Matching is a
// plain substring check on the lowercased CV, so "manage" matches "management".
func Match(cvText string, keywords []string) *ai.Result {
	if len(keywords) == 0 {
		return &ai.Result{Score: 0, MissingKeywords: []string{}, Summary: summaryTooShort}
	}

	cv := strings.ToLower(cvText)
	present := 0
	missing := make([]string, 0, ai.MaxMissingKeywords)

	for _, kw := range keywords {
		if strings.Contains(cv, kw) {
			present++
			continue
		}
		if len(missing) < ai.MaxMissingKeywords {
			missing = append(missing, kw)
		}
	}

	score := int(math.RoundToEven(100 * float64(present) / float64(len(keywords))))

	return &ai.Result{
		Score:           ai.ClampScore(score),
		MissingKeywords: missing,
		Summary:         summaryAdvice,
	}
}
