package analysis

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/ats-matcher/internal/ai"
	"github.com/spigell/ats-matcher/internal/ai/heuristic"
	"github.com/spigell/ats-matcher/internal/ingest"
)

type stubScorer struct {
	result *ai.Result
	err    error
	calls  int
	cv     string
	job    string
	ctx    context.Context
}

func (s *stubScorer) Name() string { return "stub" }

func (s *stubScorer) Score(ctx context.Context, cvText, jobText string) (*ai.Result, error) {
	s.calls++
	s.ctx = ctx
	s.cv = cvText
	s.job = jobText
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubFetcher struct {
	text  string
	err   error
	calls int
}

func (f *stubFetcher) FromURL(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.text, f.err
}

type stubStore struct {
	doc *ingest.Document
	err error
}

func (s *stubStore) Download(_ context.Context, _ string) (*ingest.Document, error) {
	return s.doc, s.err
}

func okScorer() *stubScorer {
	return &stubScorer{result: &ai.Result{Score: 80, MissingKeywords: []string{"go"}, Summary: "fine"}}
}

func TestRunPrefersDocumentAndPastedJob(t *testing.T) {
	scorer := okScorer()
	fetcher := &stubFetcher{text: "fetched job"}
	analyzer := New(Config{}, Deps{Scorer: scorer, Fetcher: fetcher, Logger: zap.NewNop()})

	report, err := analyzer.Run(context.Background(), Input{
		CVDocument: &ingest.Document{Name: "cv.txt", Data: []byte(" document cv ")},
		CVText:     "pasted cv",
		JobText:    " pasted job ",
		JobURL:     "https://example.com/job",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if scorer.cv != "document cv" {
		t.Fatalf("expected document text to win, got %q", scorer.cv)
	}
	if scorer.job != "pasted job" {
		t.Fatalf("expected pasted job text to win, got %q", scorer.job)
	}
	if fetcher.calls != 0 {
		t.Fatalf("did not expect url to be fetched")
	}

	if report.Score != 80 || report.Band != BandStrong || report.Scorer != "stub" {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.CVChars != len("document cv") || report.JobChars != len("pasted job") {
		t.Fatalf("unexpected char counts: %d %d", report.CVChars, report.JobChars)
	}
	if report.RequestID == "" {
		t.Fatalf("expected request id")
	}
}

func TestRunFetchesJobWhenNotPasted(t *testing.T) {
	scorer := okScorer()
	fetcher := &stubFetcher{text: "fetched job"}
	analyzer := New(Config{}, Deps{Scorer: scorer, Fetcher: fetcher})

	if _, err := analyzer.Run(context.Background(), Input{CVText: "cv", JobURL: "https://example.com/job"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fetcher.calls != 1 || scorer.job != "fetched job" {
		t.Fatalf("expected fetched job text, got %q (%d calls)", scorer.job, fetcher.calls)
	}
}

func TestRunFetchErrorSkipsScoring(t *testing.T) {
	scorer := okScorer()
	fetcher := &stubFetcher{err: &ingest.FetchError{URL: "https://example.com/job", StatusCode: 404}}
	analyzer := New(Config{}, Deps{Scorer: scorer, Fetcher: fetcher})

	_, err := analyzer.Run(context.Background(), Input{CVText: "cv", JobURL: "https://example.com/job"})

	var fetchErr *ingest.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if scorer.calls != 0 {
		t.Fatalf("scorer must not be called after a fetch error")
	}
	if msg := UserMessage(err); !strings.Contains(msg, "Could not fetch the job posting") || !strings.Contains(msg, "404") {
		t.Fatalf("unexpected user message: %q", msg)
	}
}

func TestRunValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   Input
		missing []string
	}{
		{name: "nothing supplied", input: Input{}, missing: []string{FieldCV, FieldJob}},
		{name: "blank strings", input: Input{CVText: "  ", JobText: "\n"}, missing: []string{FieldCV, FieldJob}},
		{name: "only cv", input: Input{CVText: "cv"}, missing: []string{FieldJob}},
		{name: "only job", input: Input{JobText: "job"}, missing: []string{FieldCV}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := okScorer()
			analyzer := New(Config{}, Deps{Scorer: scorer})

			_, err := analyzer.Run(context.Background(), tt.input)

			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !slices.Equal(validationErr.Missing, tt.missing) {
				t.Fatalf("expected missing %v, got %v", tt.missing, validationErr.Missing)
			}
			if scorer.calls != 0 {
				t.Fatalf("scorer must not be called on validation errors")
			}
		})
	}
}

func TestRunValidationMessageListsBothFields(t *testing.T) {
	_, err := New(Config{}, Deps{Scorer: okScorer()}).Run(context.Background(), Input{})

	msg := UserMessage(err)
	if !strings.Contains(msg, "CV") || !strings.Contains(msg, "job posting") {
		t.Fatalf("expected both fields in message, got %q", msg)
	}
}

func TestRunBrokenDocumentFallsBackToPastedText(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	scorer := okScorer()
	analyzer := New(Config{}, Deps{Scorer: scorer, Logger: zap.New(core)})

	_, err := analyzer.Run(context.Background(), Input{
		CVDocument: &ingest.Document{Name: "cv.pdf", Data: []byte("garbage")},
		CVText:     "pasted cv",
		JobText:    "job",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if scorer.cv != "pasted cv" {
		t.Fatalf("expected pasted cv fallback, got %q", scorer.cv)
	}
	if observed.FilterMessage("cv document could not be read, falling back to pasted text").Len() != 1 {
		t.Fatalf("expected fallback warning to be logged")
	}
}

func TestRunBrokenDocumentWithoutFallback(t *testing.T) {
	_, err := New(Config{}, Deps{Scorer: okScorer()}).Run(context.Background(), Input{
		CVDocument: &ingest.Document{Name: "cv.pdf", Data: []byte("garbage")},
		JobText:    "job",
	})

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}

	var ingestErr *ingest.IngestionError
	if !errors.As(err, &ingestErr) {
		t.Fatalf("expected ingestion cause to be kept, got %v", err)
	}

	if msg := UserMessage(err); !strings.Contains(msg, "Could not read the CV document") {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestRunReadsLocalCV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.txt")
	if err := os.WriteFile(path, []byte(" local cv\n"), 0o600); err != nil {
		t.Fatalf("write cv: %v", err)
	}

	scorer := okScorer()
	if _, err := New(Config{}, Deps{Scorer: scorer}).Run(context.Background(), Input{CVPath: path, CVText: "pasted", JobText: "job"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scorer.cv != "local cv" {
		t.Fatalf("expected local cv, got %q", scorer.cv)
	}
}

func TestRunUnreadableLocalCV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.pdf")

	t.Run("falls back to pasted text", func(t *testing.T) {
		scorer := okScorer()
		if _, err := New(Config{}, Deps{Scorer: scorer}).Run(context.Background(), Input{CVPath: path, CVText: "pasted", JobText: "job"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if scorer.cv != "pasted" {
			t.Fatalf("expected pasted cv, got %q", scorer.cv)
		}
	})

	t.Run("reported as validation cause", func(t *testing.T) {
		scorer := okScorer()
		_, err := New(Config{}, Deps{Scorer: scorer}).Run(context.Background(), Input{CVPath: path, JobText: "job"})

		var validationErr *ValidationError
		if !errors.As(err, &validationErr) || !slices.Equal(validationErr.Missing, []string{FieldCV}) {
			t.Fatalf("expected validation error for cv, got %v", err)
		}
		var ingestErr *ingest.IngestionError
		if !errors.As(err, &ingestErr) {
			t.Fatalf("expected ingestion cause, got %v", err)
		}
		if scorer.calls != 0 {
			t.Fatalf("scorer must not be called")
		}
	})
}

func TestRunUsesObjectStore(t *testing.T) {
	scorer := okScorer()
	store := &stubStore{doc: &ingest.Document{Name: "cv.txt", Data: []byte("stored cv")}}
	analyzer := New(Config{}, Deps{Scorer: scorer, Store: store})

	if _, err := analyzer.Run(context.Background(), Input{CVLocation: "s3://b/cv.txt", CVText: "pasted", JobText: "job"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scorer.cv != "stored cv" {
		t.Fatalf("expected stored cv, got %q", scorer.cv)
	}
}

func TestRunObjectStoreMissing(t *testing.T) {
	scorer := okScorer()
	analyzer := New(Config{}, Deps{Scorer: scorer})

	if _, err := analyzer.Run(context.Background(), Input{CVLocation: "s3://b/cv.txt", CVText: "pasted", JobText: "job"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scorer.cv != "pasted" {
		t.Fatalf("expected pasted cv, got %q", scorer.cv)
	}
}

func TestRunNormalizesTexts(t *testing.T) {
	scorer := okScorer()
	analyzer := New(Config{MaxChars: 5}, Deps{Scorer: scorer})

	if _, err := analyzer.Run(context.Background(), Input{CVText: "abcdefgh", JobText: "ijklmnop"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if scorer.cv != "abcde" || scorer.job != "ijklm" {
		t.Fatalf("expected truncated texts, got %q and %q", scorer.cv, scorer.job)
	}
}

func TestRunAppliesTimeout(t *testing.T) {
	scorer := okScorer()
	analyzer := New(Config{Timeout: time.Minute}, Deps{Scorer: scorer})

	if _, err := analyzer.Run(context.Background(), Input{CVText: "cv", JobText: "job"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := scorer.ctx.Deadline(); !ok {
		t.Fatalf("expected scorer context to carry a deadline")
	}
}

func TestRunSanitizesScorerResult(t *testing.T) {
	scorer := &stubScorer{result: &ai.Result{
		Score:           140,
		MissingKeywords: []string{" a ", "", "b", "c", "d", "e", "f"},
		Summary:         "  ok ",
	}}

	report, err := New(Config{}, Deps{Scorer: scorer}).Run(context.Background(), Input{CVText: "cv", JobText: "job"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Score != 100 {
		t.Fatalf("expected clamped score, got %d", report.Score)
	}
	if !slices.Equal(report.MissingKeywords, []string{"a", "b", "c", "d", "e"}) {
		t.Fatalf("unexpected missing keywords: %v", report.MissingKeywords)
	}
	if report.Summary != "ok" {
		t.Fatalf("unexpected summary: %q", report.Summary)
	}
}

func TestRunScorerErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{name: "parse", err: &ai.ParseError{Raw: "x", Err: errors.New("invalid character")}, message: "unreadable answer"},
		{name: "configuration", err: &ai.ConfigurationError{Reason: "gemini api key is required"}, message: "not configured"},
		{name: "other", err: errors.New("boom"), message: "Analysis failed: stub scorer: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := &stubScorer{err: tt.err}
			_, err := New(Config{}, Deps{Scorer: scorer}).Run(context.Background(), Input{CVText: "cv", JobText: "job"})
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected scorer error to be wrapped, got %v", err)
			}
			if msg := UserMessage(err); !strings.Contains(msg, tt.message) {
				t.Fatalf("unexpected message: %q", msg)
			}
		})
	}
}

func TestRunWithoutScorer(t *testing.T) {
	_, err := New(Config{}, Deps{}).Run(context.Background(), Input{CVText: "cv", JobText: "job"})

	var cfgErr *ai.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRunWithHeuristicScorer(t *testing.T) {
	analyzer := New(Config{}, Deps{Scorer: heuristic.New(zap.NewNop())})

	report, err := analyzer.Run(context.Background(), Input{
		CVText:  "Experienced Python developer with Docker and AWS",
		JobText: "Looking for Python, Docker, Kubernetes, AWS, Terraform expert",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Score != 43 || report.Band != BandWeak || report.Scorer != "heuristic" {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestBandOf(t *testing.T) {
	cases := map[int]Band{0: BandWeak, 49: BandWeak, 50: BandPartial, 74: BandPartial, 75: BandStrong, 100: BandStrong}
	for score, band := range cases {
		if got := BandOf(score); got != band {
			t.Fatalf("score %d: expected %s, got %s", score, band, got)
		}
	}
}

func TestUserMessageNil(t *testing.T) {
	if UserMessage(nil) != "" {
		t.Fatal("expected empty message for nil error")
	}
}
