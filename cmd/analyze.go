package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/ats-matcher/internal/analysis"
	"github.com/spigell/ats-matcher/internal/ingest"
	"github.com/spigell/ats-matcher/internal/logger"
	"github.com/spigell/ats-matcher/internal/render"
	"github.com/spigell/ats-matcher/internal/secrets"
)

var errAnalysisFailed = errors.New("analysis failed")

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score a CV against a job posting",
	Example: `  ats-matcher analyze --cv cv.pdf --job-url https://example.com/jobs/42
  ats-matcher analyze --cv s3://cvs/jane.docx --job-file posting.txt --output json
  ats-matcher analyze --interactive`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return analyze(cmd)
	},
}

type analyzeOptions struct {
	CV          string
	CVText      string
	JobURL      string
	JobText     string
	JobFile     string
	Output      string
	Interactive bool
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("cv", "", "CV document: a .pdf, .docx or .txt file or an s3://bucket/key location")
	analyzeCmd.Flags().String("cv-text", "", "CV pasted as plain text, used when no document text is available")
	analyzeCmd.Flags().String("job-url", "", "link to the job posting")
	analyzeCmd.Flags().String("job-text", "", "job description pasted as plain text, wins over --job-url")
	analyzeCmd.Flags().String("job-file", "", "job description file (.txt, .pdf, .docx or .html), wins over --job-url")
	analyzeCmd.Flags().StringP("output", "o", string(render.FormatText), "report format: text, json or yaml")
	analyzeCmd.Flags().BoolP("interactive", "i", false, "ask for missing inputs")
	analyzeCmd.Flags().String("scorer", "", "scorer to use: auto, heuristic or gemini")

	viper.BindPFlag("ai.scorer", analyzeCmd.Flags().Lookup("scorer"))
}

func analyze(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync() //nolint:errcheck

	config, err := getConfig(viper.GetViper())
	if err != nil {
		return fmt.Errorf("getting a config: %w", err)
	}

	logger.Info("starting the ats-matcher", zap.String("version", version))

	if logger.Core().Enabled(zap.DebugLevel) {
		redacted := *config.AI.Gemini
		if redacted.APIKey != "" {
			redacted.APIKey = secrets.Mask(redacted.APIKey)
		}
		pretty, _ := json.MarshalIndent(redacted, "", "  ")
		logger.Debug(fmt.Sprintf("gemini config: \n %s", pretty))
	}

	opts := analyzeOptionsFromFlags(cmd)

	if opts.Interactive {
		if err := promptMissing(&opts); err != nil {
			return fmt.Errorf("reading inputs: %w", err)
		}
	}

	return runAnalysis(ctx, config, opts, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func analyzeOptionsFromFlags(cmd *cobra.Command) analyzeOptions {
	flags := cmd.Flags()

	get := func(name string) string {
		value, _ := flags.GetString(name)
		return value
	}
	interactive, _ := flags.GetBool("interactive")

	return analyzeOptions{
		CV:          get("cv"),
		CVText:      get("cv-text"),
		JobURL:      get("job-url"),
		JobText:     get("job-text"),
		JobFile:     get("job-file"),
		Output:      get("output"),
		Interactive: interactive,
	}
}

// runAnalysis wires the collaborators, runs the analysis and writes the report.
// Failures are explained on stderr and reported as errAnalysisFailed.
func runAnalysis(ctx context.Context, config *Config, opts analyzeOptions, logger *zap.Logger, stdout, stderr io.Writer) error {
	format, err := render.ParseFormat(opts.Output)
	if err != nil {
		return err
	}

	fail := func(err error) error {
		logger.Error("analysis failed", zap.Error(err))
		fmt.Fprintln(stderr, analysis.UserMessage(err))
		return errAnalysisFailed
	}

	in, err := buildInput(opts)
	if err != nil {
		return fail(err)
	}

	scorer, err := newScorer(ctx, config.AI, logger)
	if err != nil {
		return fail(err)
	}

	fetcher := ingest.NewFetcher(logger, config.Fetch.Timeout)
	if ua := strings.TrimSpace(config.Fetch.UserAgent); ua != "" {
		fetcher.UserAgent = ua
	}

	deps := analysis.Deps{
		Scorer:  scorer,
		Fetcher: fetcher,
		Logger:  logger,
	}

	if in.CVLocation != "" {
		store, err := ingest.NewObjectStore(ctx, config.Storage.S3Endpoint, logger)
		if err != nil {
			return fail(&ingest.IngestionError{Source: in.CVLocation, Err: err})
		}
		deps.Store = store
	}

	analyzer := analysis.New(analysis.Config{
		MaxChars: config.Analysis.MaxChars,
		Timeout:  config.Analysis.Timeout,
	}, deps)

	report, err := analyzer.Run(ctx, in)
	if err != nil {
		return fail(err)
	}

	return render.Report(stdout, format, report)
}

// buildInput turns command line options into analysis input. CV documents are
// read by the analyzer so an unreadable one falls back to --cv-text.
func buildInput(opts analyzeOptions) (analysis.Input, error) {
	in := analysis.Input{
		CVText:  opts.CVText,
		JobText: opts.JobText,
		JobURL:  strings.TrimSpace(opts.JobURL),
	}

	if cv := strings.TrimSpace(opts.CV); cv != "" {
		if ingest.IsS3Location(cv) {
			in.CVLocation = cv
		} else {
			in.CVPath = cv
		}
	}

	if strings.TrimSpace(in.JobText) == "" && strings.TrimSpace(opts.JobFile) != "" {
		jobText, err := readJobFile(opts.JobFile)
		if err != nil {
			return in, err
		}
		in.JobText = jobText
	}

	return in, nil
}

func readJobFile(path string) (string, error) {
	doc, err := ingest.ReadFile(path)
	if err != nil {
		return "", err
	}

	lower := strings.ToLower(doc.Name)
	if strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm") {
		return ingest.StripHTML(string(doc.Data)), nil
	}

	return ingest.FromDocument(doc)
}

func promptMissing(opts *analyzeOptions) error {
	if strings.TrimSpace(opts.CV) == "" && strings.TrimSpace(opts.CVText) == "" {
		cv, err := (&promptui.Prompt{Label: "CV file or s3:// location"}).Run()
		if err != nil {
			return err
		}
		opts.CV = cv
	}

	if strings.TrimSpace(opts.JobURL) == "" && strings.TrimSpace(opts.JobText) == "" && strings.TrimSpace(opts.JobFile) == "" {
		jobURL, err := (&promptui.Prompt{
			Label:    "Job posting link",
			Validate: validateJobURL,
		}).Run()
		if err != nil {
			return err
		}
		opts.JobURL = jobURL
	}

	return nil
}

func validateJobURL(input string) error {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		return errors.New("link must start with http:// or https://")
	}
	return nil
}
