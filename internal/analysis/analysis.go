package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/ats-matcher/internal/ai"
	"github.com/spigell/ats-matcher/internal/ingest"
	"github.com/spigell/ats-matcher/internal/logger"
	"github.com/spigell/ats-matcher/internal/text"
)

// Band classifies a score for display.
type Band string

const (
	BandStrong  Band = "strong"
	BandPartial Band = "partial"
	BandWeak    Band = "weak"
)

// BandOf maps a score onto its display band.
func BandOf(score int) Band {
	switch {
	case score >= 75:
		return BandStrong
	case score >= 50:
		return BandPartial
	default:
		return BandWeak
	}
}

// Input carries every source the user may supply. Empty fields are ignored.
type Input struct {
	// CVDocument is an uploaded file; it wins over CVPath, CVLocation and CVText.
	CVDocument *ingest.Document
	// CVPath is a local CV document read at run time.
	CVPath string
	// CVLocation is an s3://bucket/key reference to a CV document.
	CVLocation string
	CVText     string
	// JobText wins over JobURL, which is only fetched when JobText is blank.
	JobText string
	JobURL  string
}

// Report is the scoring result with metadata about the analysis.
type Report struct {
	ai.Result `yaml:",inline"`

	RequestID string `json:"request_id" yaml:"request_id"`
	Scorer    string `json:"scorer" yaml:"scorer"`
	Band      Band   `json:"band" yaml:"band"`
	CVChars   int    `json:"cv_chars" yaml:"cv_chars"`
	JobChars  int    `json:"job_chars" yaml:"job_chars"`
}

type pageFetcher interface {
	FromURL(ctx context.Context, url string) (string, error)
}

type documentStore interface {
	Download(ctx context.Context, location string) (*ingest.Document, error)
}

// Config tunes the analyzer.
type Config struct {
	// MaxChars bounds both texts before scoring. Zero means text.MaxChars.
	MaxChars int
	// Timeout bounds the scorer call. Zero leaves the caller's context alone.
	Timeout time.Duration
}

// Deps aggregates the collaborators of an Analyzer.
type Deps struct {
	Scorer  ai.Scorer
	Fetcher pageFetcher
	Store   documentStore
	Logger  *zap.Logger
}

// Analyzer resolves inputs to text and runs the configured scorer.
type Analyzer struct {
	scorer   ai.Scorer
	fetcher  pageFetcher
	store    documentStore
	maxChars int
	timeout  time.Duration
	logger   *zap.Logger
}

func New(cfg Config, deps Deps) *Analyzer {
	maxChars := cfg.MaxChars
	if maxChars <= 0 {
		maxChars = text.MaxChars
	}

	return &Analyzer{
		scorer:   deps.Scorer,
		fetcher:  deps.Fetcher,
		store:    deps.Store,
		maxChars: maxChars,
		timeout:  cfg.Timeout,
		logger:   logger.OrNop(deps.Logger),
	}
}

// Run resolves the CV and job texts, validates them and scores the pair.
func (a *Analyzer) Run(ctx context.Context, in Input) (*Report, error) {
	if a.scorer == nil {
		return nil, &ai.ConfigurationError{Reason: "no scorer selected"}
	}

	requestID := uuid.NewString()
	log := logger.ForAnalysis(a.logger, requestID, a.scorer.Name())

	var causes []error

	cvText, err := a.resolveCV(ctx, in, log)
	if err != nil {
		causes = append(causes, err)
	}

	jobText, err := a.resolveJob(ctx, in, log)
	if err != nil {
		return nil, err
	}

	var missing []string
	if cvText == "" {
		missing = append(missing, FieldCV)
	}
	if jobText == "" {
		missing = append(missing, FieldJob)
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing, Causes: causes}
	}

	cvText = text.Trim(cvText, a.maxChars)
	jobText = text.Trim(jobText, a.maxChars)

	log.Info("starting analysis",
		zap.Int("cv_chars", utf8.RuneCountInString(cvText)),
		zap.Int("job_chars", utf8.RuneCountInString(jobText)),
	)

	scoreCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		scoreCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	result, err := a.scorer.Score(scoreCtx, cvText, jobText)
	if err != nil {
		return nil, fmt.Errorf("%s scorer: %w", a.scorer.Name(), err)
	}

	result = sanitize(result)

	log.Info("analysis completed",
		zap.Int("score", result.Score),
		zap.Strings("missing_keywords", result.MissingKeywords),
	)

	return &Report{
		Result:    *result,
		RequestID: requestID,
		Scorer:    a.scorer.Name(),
		Band:      BandOf(result.Score),
		CVChars:   utf8.RuneCountInString(cvText),
		JobChars:  utf8.RuneCountInString(jobText),
	}, nil
}

// resolveCV prefers document text over pasted text. A document that cannot be
// read is reported and treated as empty.
func (a *Analyzer) resolveCV(ctx context.Context, in Input, log *zap.Logger) (string, error) {
	var docErr error

	doc := in.CVDocument
	if doc == nil && strings.TrimSpace(in.CVPath) != "" {
		doc, docErr = ingest.ReadFile(strings.TrimSpace(in.CVPath))
	}
	if doc == nil && docErr == nil && strings.TrimSpace(in.CVLocation) != "" {
		if a.store == nil {
			docErr = &ingest.IngestionError{Source: in.CVLocation, Err: errors.New("object store is not configured")}
		} else {
			doc, docErr = a.store.Download(ctx, in.CVLocation)
		}
	}

	if doc != nil {
		extracted, err := ingest.FromDocument(doc)
		if err != nil {
			docErr = err
		} else if extracted != "" {
			log.Debug("using cv document", zap.String("name", doc.Name))
			return extracted, nil
		} else {
			log.Warn("cv document has no extractable text", zap.String("name", doc.Name))
		}
	}

	if docErr != nil {
		log.Warn("cv document could not be read, falling back to pasted text", zap.Error(docErr))
	}

	return strings.TrimSpace(in.CVText), docErr
}

// resolveJob prefers pasted text and fetches the URL only when none is given.
func (a *Analyzer) resolveJob(ctx context.Context, in Input, log *zap.Logger) (string, error) {
	if pasted := strings.TrimSpace(in.JobText); pasted != "" {
		return pasted, nil
	}

	url := strings.TrimSpace(in.JobURL)
	if url == "" {
		return "", nil
	}

	if a.fetcher == nil {
		return "", &ingest.FetchError{URL: url, Err: errors.New("fetcher is not configured")}
	}

	log.Info("fetching job posting", zap.String("url", url))

	return a.fetcher.FromURL(ctx, url)
}

func sanitize(result *ai.Result) *ai.Result {
	if result == nil {
		return &ai.Result{MissingKeywords: []string{}}
	}

	missing := make([]string, 0, len(result.MissingKeywords))
	for _, kw := range result.MissingKeywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		missing = append(missing, kw)
		if len(missing) == ai.MaxMissingKeywords {
			break
		}
	}

	return &ai.Result{
		Score:           ai.ClampScore(result.Score),
		MissingKeywords: missing,
		Summary:         strings.TrimSpace(result.Summary),
	}
}
