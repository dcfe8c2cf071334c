package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/ats-matcher/internal/ai"
	"github.com/spigell/ats-matcher/internal/logger"
)

const (
	name = "gemini"

	defaultLanguage     = "English"
	defaultMaxLogLength = 200
)

//go:embed prompt.md
var promptTemplate string

var objectExpr = regexp.MustCompile(`(?s)\{.*\}`)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Options tune prompt construction and logging.
type Options struct {
	// Language of the summary sentence.
	Language     string
	MaxLogLength int
}

// Scorer asks Gemini to compare the CV with the job posting.
type Scorer struct {
	generator contentGenerator
	language  string
	maxLogLen int
	logger    *zap.Logger
}

type response struct {
	Score           float64  `mapstructure:"score"`
	MissingKeywords []string `mapstructure:"missing_keywords"`
	Summary         string   `mapstructure:"summary"`
}

func NewScorer(generator contentGenerator, log *zap.Logger, opts Options) *Scorer {
	language := strings.TrimSpace(opts.Language)
	if language == "" {
		language = defaultLanguage
	}

	maxLogLen := opts.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	model := ""
	if generator != nil {
		model = generator.Model()
	}

	return &Scorer{
		generator: generator,
		language:  language,
		maxLogLen: maxLogLen,
		logger:    logger.ForScorer(log, name, model),
	}
}

func (s *Scorer) Name() string { return name }

func (s *Scorer) Score(ctx context.Context, cvText, jobText string) (*ai.Result, error) {
	if s.generator == nil {
		return nil, &ai.ConfigurationError{Reason: "gemini generator is not available"}
	}

	prompt := buildPrompt(cvText, jobText, s.language)

	s.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.Preview(prompt, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.Preview(raw, s.maxLogLen)),
	)

	return parseResponse(raw, s.logger)
}

func buildPrompt(cvText, jobText, language string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "CV:\n{{CV}}\n\nJOB:\n{{JOB}}\n\nJSON Response (summary in {{LANGUAGE}}):"
	}

	return strings.NewReplacer(
		"{{LANGUAGE}}", language,
		"{{CV}}", cvText,
		"{{JOB}}", jobText,
	).Replace(template)
}

// parseResponse turns a raw model answer into a Result. Schema deviations are
// only logged, the coercion rules decide what is accepted.
func parseResponse(raw string, log *zap.Logger) (*ai.Result, error) {
	data, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	if err := checkSchema(data); err != nil && log != nil {
		log.Warn("gemini response does not follow the requested schema", zap.Error(err))
	}

	return coerceResult(raw, data)
}

// decodeObject parses raw as a JSON object. When raw carries prose around the
// object, the span from the first '{' to the last '}' is parsed instead.
func decodeObject(raw string) (map[string]any, error) {
	cleaned := strings.TrimSpace(raw)

	var data map[string]any
	err := json.Unmarshal([]byte(cleaned), &data)
	if err != nil {
		match := objectExpr.FindString(cleaned)
		if match == "" {
			return nil, &ai.ParseError{Raw: raw, Err: err}
		}

		data = nil
		if err := json.Unmarshal([]byte(match), &data); err != nil {
			return nil, &ai.ParseError{Raw: raw, Err: err}
		}
	}

	if data == nil {
		return nil, &ai.ParseError{Raw: raw, Err: errors.New("response is not a JSON object")}
	}

	return data, nil
}

func coerceResult(raw string, data map[string]any) (*ai.Result, error) {
	resp := response{MissingKeywords: []string{}}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       lenientHook,
		WeaklyTypedInput: true,
		Result:           &resp,
	})
	if err != nil {
		return nil, &ai.ParseError{Raw: raw, Err: err}
	}

	if err := decoder.Decode(data); err != nil {
		return nil, &ai.ParseError{Raw: raw, Err: err}
	}

	if math.IsNaN(resp.Score) {
		return nil, &ai.ParseError{Raw: raw, Err: errors.New("score is not a number")}
	}

	return &ai.Result{
		Score:           int(math.Max(ai.MinScore, math.Min(ai.MaxScore, math.Trunc(resp.Score)))),
		MissingKeywords: resp.MissingKeywords,
		Summary:         strings.TrimSpace(resp.Summary),
	}, nil
}

var stringsType = reflect.TypeOf([]string(nil))

// lenientHook prepares model values before weak decoding: numeric strings are
// trimmed, missing_keywords becomes a short list of non-empty strings and any
// other non-string value aimed at a string field is JSON-encoded.
func lenientHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	switch {
	case to == stringsType:
		return keywordList(data), nil
	case to.Kind() == reflect.String:
		if _, ok := data.(string); ok {
			return data, nil
		}
		return jsonString(data), nil
	case to.Kind() == reflect.Float64:
		if str, ok := data.(string); ok {
			return strings.TrimSpace(str), nil
		}
	}
	return data, nil
}

func keywordList(data any) []string {
	items, ok := data.([]any)
	if !ok {
		return []string{}
	}

	keywords := make([]string, 0, ai.MaxMissingKeywords)
	for _, item := range items {
		if item == nil {
			continue
		}

		kw, ok := item.(string)
		if !ok {
			kw = jsonString(item)
		}
		if kw = strings.TrimSpace(kw); kw == "" {
			continue
		}

		keywords = append(keywords, kw)
		if len(keywords) == ai.MaxMissingKeywords {
			break
		}
	}
	return keywords
}

func jsonString(v any) string {
	bytes, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(bytes)
}
