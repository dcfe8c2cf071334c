package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/ats-matcher/internal/analysis"
	"github.com/spigell/ats-matcher/internal/ingest"
	"github.com/spigell/ats-matcher/internal/logger"
	"github.com/spigell/ats-matcher/internal/text"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "List the ranked keywords of a job posting",
	RunE: func(cmd *cobra.Command, _ []string) error {
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

		opts := analyzeOptionsFromFlags(cmd)
		limit, _ := cmd.Flags().GetInt("limit")

		jobText, err := resolveJobText(ctx, config, opts, logger)
		if err != nil {
			logger.Error("reading job posting", zap.Error(err))
			fmt.Fprintln(cmd.ErrOrStderr(), analysis.UserMessage(err))
			return errAnalysisFailed
		}

		for i, kw := range text.RankKeywords(jobText, limit) {
			fmt.Fprintf(cmd.OutOrStdout(), "%2d. %s\n", i+1, kw)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(keywordsCmd)

	keywordsCmd.Flags().String("job-url", "", "link to the job posting")
	keywordsCmd.Flags().String("job-text", "", "job description pasted as plain text")
	keywordsCmd.Flags().String("job-file", "", "job description file (.txt, .pdf, .docx or .html)")
	keywordsCmd.Flags().Int("limit", text.DefaultKeywordLimit, "maximum number of keywords")
}

func resolveJobText(ctx context.Context, config *Config, opts analyzeOptions, logger *zap.Logger) (string, error) {
	if jobText := strings.TrimSpace(opts.JobText); jobText != "" {
		return jobText, nil
	}

	if strings.TrimSpace(opts.JobFile) != "" {
		return readJobFile(opts.JobFile)
	}

	if jobURL := strings.TrimSpace(opts.JobURL); jobURL != "" {
		fetcher := ingest.NewFetcher(logger, config.Fetch.Timeout)
		if ua := strings.TrimSpace(config.Fetch.UserAgent); ua != "" {
			fetcher.UserAgent = ua
		}
		return fetcher.FromURL(ctx, jobURL)
	}

	return "", &analysis.ValidationError{Missing: []string{analysis.FieldJob}}
}
