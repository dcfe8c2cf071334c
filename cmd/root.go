package cmd

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/ats-matcher/internal/ai/gemini"
	"github.com/spigell/ats-matcher/internal/ingest"
	"github.com/spigell/ats-matcher/internal/text"
)

const (
	app = "ats-matcher"
)

type Config struct {
	AI       *AIConfig       `mapstructure:"ai"`
	Fetch    *FetchConfig    `mapstructure:"fetch"`
	Analysis *AnalysisConfig `mapstructure:"analysis"`
	Storage  *StorageConfig  `mapstructure:"storage"`
}

type AIConfig struct {
	// Scorer is auto, heuristic or gemini. Auto picks gemini when an api key is configured.
	Scorer string        `mapstructure:"scorer"`
	Gemini *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	Language     string `mapstructure:"language"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type FetchConfig struct {
	UserAgent string        `mapstructure:"user-agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type AnalysisConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxChars int           `mapstructure:"max-chars"`
}

type StorageConfig struct {
	S3Endpoint string `mapstructure:"s3-endpoint"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "ats-matcher scores how well a CV matches a job posting",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is ats-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.scorer", scorerAuto)
	v.SetDefault("ai.gemini.model", gemini.DefaultModel)
	v.SetDefault("ai.gemini.language", "English")
	v.SetDefault("ai.gemini.max-log-length", 200)
	v.SetDefault("fetch.user-agent", ingest.DefaultUserAgent)
	v.SetDefault("fetch.timeout", ingest.DefaultTimeout)
	v.SetDefault("analysis.max-chars", text.MaxChars)
	v.SetDefault("analysis.timeout", time.Duration(0))
	v.SetDefault("storage.s3-endpoint", "")

	for key, env := range map[string]string{
		"ai.gemini.api-key":      "GEMINI_API_KEY",
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"ai.gemini.model":        "GEMINI_MODEL",
		"ai.scorer":              "ATS_SCORER",
		"storage.s3-endpoint":    "ATS_S3_ENDPOINT",
	} {
		if err := v.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}
}

func initConfig() {
	// A missing .env file is fine; real environment variables still apply.
	_ = godotenv.Load()

	if err := readConfig(viper.GetViper(), cfgFile); err != nil {
		cobra.CheckErr(err)
	}
}

// readConfig loads an explicit config file or, when none is given, an optional
// ats-matcher.yaml from the current directory.
func readConfig(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %q: %w", file, err)
		}
		return nil
	}

	v.AddConfigPath(".")
	v.SetConfigName(app)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}

	return nil
}

func getConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.Fetch == nil {
		config.Fetch = &FetchConfig{}
	}
	if config.Analysis == nil {
		config.Analysis = &AnalysisConfig{}
	}
	if config.Storage == nil {
		config.Storage = &StorageConfig{}
	}

	return config, nil
}
