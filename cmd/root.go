package cmd

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "cv-ranker"
)

type Config struct {
	Matching    *MatchingConfig `mapstructure:"matching" validate:"required"`
	Dedup       *DedupConfig    `mapstructure:"dedup" validate:"required"`
	ExcludeFile string          `mapstructure:"exclude-file"`
	Store       *StoreConfig    `mapstructure:"store" validate:"required"`
	AI          *AIConfig       `mapstructure:"ai" validate:"required"`
}

type MatchingConfig struct {
	PreferAI            bool             `mapstructure:"prefer-ai"`
	TopCandidatesCount  int              `mapstructure:"top-candidates-count" validate:"gte=1"`
	SimilarityThreshold float64          `mapstructure:"similarity-threshold" validate:"gte=0,lte=1"`
	Fallback            *SelectionConfig `mapstructure:"fallback" validate:"required"`
}

type SelectionConfig struct {
	TopCandidatesCount  int     `mapstructure:"top-candidates-count" validate:"gte=1"`
	SimilarityThreshold float64 `mapstructure:"similarity-threshold" validate:"gte=0,lte=1"`
}

type DedupConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	Threshold float64 `mapstructure:"threshold" validate:"gt=0,lte=1"`
}

type StoreConfig struct {
	// Path to the SQLite database. Empty disables persistence.
	Path string `mapstructure:"path"`
}

type AIConfig struct {
	Provider     string            `mapstructure:"provider" validate:"oneof=gemini openrouter"`
	BatchSize    int               `mapstructure:"batch-size" validate:"gte=1"`
	MaxLogLength int               `mapstructure:"max-log-length" validate:"gte=0"`
	Gemini       *GeminiConfig     `mapstructure:"gemini" validate:"required"`
	OpenRouter   *OpenRouterConfig `mapstructure:"openrouter" validate:"required"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key" json:"-"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model" validate:"required"`
	MaxRetries int    `mapstructure:"max-retries" validate:"gte=1"`
}

type OpenRouterConfig struct {
	APIKey     string        `mapstructure:"api-key" json:"-"`
	APIKeyFile string        `mapstructure:"api-key-file"`
	Model      string        `mapstructure:"model" validate:"required"`
	BaseURL    string        `mapstructure:"base-url" validate:"required,url"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "cv-ranker ranks candidate resumes against a job description and removes duplicate submissions",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// .env is optional.
	_ = godotenv.Load()

	setDefaults()

	for key, env := range map[string]string{
		"ai.gemini.api-key":     "GEMINI_API_KEY",
		"ai.openrouter.api-key": "OPENROUTER_API_KEY",
		"store.path":            "CV_RANKER_STORE",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cv-ranker.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("matching.prefer-ai", true)
	viper.SetDefault("matching.top-candidates-count", 10)
	viper.SetDefault("matching.similarity-threshold", 0.1)
	viper.SetDefault("matching.fallback.top-candidates-count", 20)
	viper.SetDefault("matching.fallback.similarity-threshold", 0.01)
	viper.SetDefault("dedup.enabled", true)
	viper.SetDefault("dedup.threshold", 0.85)
	viper.SetDefault("store.path", app+".db")
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.batch-size", 5)
	viper.SetDefault("ai.max-log-length", 200)
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.max-retries", 3)
	viper.SetDefault("ai.openrouter.model", "openai/gpt-4o-mini")
	viper.SetDefault("ai.openrouter.base-url", "https://openrouter.ai/api/v1")
	viper.SetDefault("ai.openrouter.timeout", 90*time.Second)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional unless given explicitly; defaults cover everything.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		return nil, errors.New("empty configuration")
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}
