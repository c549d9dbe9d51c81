package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-ranker/internal/ai"
	"github.com/spigell/cv-ranker/internal/ai/gemini"
	"github.com/spigell/cv-ranker/internal/ai/openrouter"
	"github.com/spigell/cv-ranker/internal/candidate"
	"github.com/spigell/cv-ranker/internal/logger"
	"github.com/spigell/cv-ranker/internal/matching"
	"github.com/spigell/cv-ranker/internal/secrets"
	"github.com/spigell/cv-ranker/internal/store"
)

// setup builds the logger and reads the validated configuration. It exits on failure.
func setup() (*zap.Logger, *Config) {
	l, err := logger.New(logger.Options{JSON: viper.GetBool("json"), Debug: viper.GetBool("debug")})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}

	return l, config
}

func loadCandidates(logger *zap.Logger, path string) []*candidate.Candidate {
	candidates, err := candidate.LoadCandidates(path)
	if err != nil {
		logger.Fatal("loading candidates", zap.Error(err))
	}
	return candidates
}

// resolveJob reads the job description from path, or looks up a saved one by id.
func resolveJob(ctx context.Context, st *store.Store, path, id string) (*candidate.JobDescription, error) {
	if strings.TrimSpace(path) != "" {
		return candidate.LoadJobDescription(path)
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("either --job or --job-id is required")
	}
	if st == nil {
		return nil, fmt.Errorf("job %s: candidate store is not available", id)
	}

	job, err := st.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("job %s is not saved", id)
	}
	return job, nil
}

// openStore opens the configured database. Persistence is optional, so failures only warn.
func openStore(ctx context.Context, config *Config, logger *zap.Logger) *store.Store {
	path := strings.TrimSpace(config.Store.Path)
	if path == "" {
		return nil
	}

	st, err := store.Open(ctx, path)
	if err != nil {
		logger.Warn("candidate store is unavailable, continuing without persistence", zap.Error(err))
		return nil
	}
	return st
}

// hydrate fills candidates that only carry a resume path with a copy of the stored record
// for that path. The stored id is taken only while no pool entry holds it yet, so a
// resume listed twice stays two records with distinct ids.
func hydrate(ctx context.Context, st *store.Store, candidates []*candidate.Candidate, logger *zap.Logger) {
	if st == nil {
		return
	}

	var paths []string
	requested := make(map[string]struct{})
	for _, c := range candidates {
		if !pathOnly(c) {
			continue
		}
		if _, ok := requested[c.ResumePath]; !ok {
			requested[c.ResumePath] = struct{}{}
			paths = append(paths, c.ResumePath)
		}
	}
	if len(paths) == 0 {
		return
	}

	stored, err := st.LoadByResumePaths(ctx, paths)
	if err != nil {
		logger.Warn("loading stored candidates failed", zap.Error(err))
		return
	}

	byPath := make(map[string]*candidate.Candidate, len(stored))
	for _, c := range stored {
		byPath[c.ResumePath] = c
	}

	used := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		used[c.ID] = struct{}{}
	}

	hydrated := 0
	for i, c := range candidates {
		s, ok := byPath[c.ResumePath]
		if !ok || !pathOnly(c) {
			continue
		}

		record := *s
		if _, taken := used[record.ID]; taken && record.ID != c.ID {
			record.ID = c.ID
		}
		used[record.ID] = struct{}{}

		candidates[i] = &record
		hydrated++
	}

	logger.Info("hydrated candidates from store",
		zap.Int("requested", len(paths)),
		zap.Int("found", len(stored)),
		zap.Int("hydrated", hydrated),
	)
}

func pathOnly(c *candidate.Candidate) bool {
	return c.ResumePath != "" && strings.TrimSpace(c.ResumeText) == ""
}

func aiOptions(config *AIConfig, model string) ai.Options {
	opts := ai.DefaultOptions()
	opts.BatchSize = config.BatchSize
	opts.MaxLogLength = config.MaxLogLength
	opts.Provider = config.Provider
	opts.Model = model
	return opts
}

// resolveAPIKey returns the key for the configured provider.
func resolveAPIKey(config *AIConfig) (string, error) {
	switch config.Provider {
	case openrouter.Provider:
		return secrets.Load(secrets.Source{
			Name:  "openrouter api key",
			File:  config.OpenRouter.APIKeyFile,
			Value: config.OpenRouter.APIKey,
			Env:   "OPENROUTER_API_KEY",
		})
	default:
		return secrets.Load(secrets.Source{
			Name:  "gemini api key",
			File:  config.Gemini.APIKeyFile,
			Value: config.Gemini.APIKey,
			Env:   "GEMINI_API_KEY",
		})
	}
}

// newGenerator builds the text generator for the configured provider.
func newGenerator(ctx context.Context, config *AIConfig, logger *zap.Logger) (ai.Generator, string, error) {
	apiKey, err := resolveAPIKey(config)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ai.ErrConfiguration, err)
	}

	switch config.Provider {
	case openrouter.Provider:
		g, err := openrouter.NewGenerator(openrouter.Config{
			APIKey:  apiKey,
			Model:   config.OpenRouter.Model,
			BaseURL: config.OpenRouter.BaseURL,
			Timeout: config.OpenRouter.Timeout,
		}, logger)
		if err != nil {
			return nil, "", err
		}
		return g, g.Model(), nil
	case gemini.Provider:
		g, err := gemini.NewGenerator(ctx, gemini.Config{
			APIKey:     apiKey,
			Model:      config.Gemini.Model,
			MaxRetries: config.Gemini.MaxRetries,
		}, logger)
		if err != nil {
			return nil, "", err
		}
		return g, g.Model(), nil
	default:
		return nil, "", fmt.Errorf("%w: unsupported ai provider: %s", ai.ErrConfiguration, config.Provider)
	}
}

// newAIMatcherFactory returns the lazy AI matcher constructor used by the coordinator.
func newAIMatcherFactory(ctx context.Context, config *AIConfig, logger *zap.Logger) func() (matching.Matcher, error) {
	return func() (matching.Matcher, error) {
		generator, model, err := newGenerator(ctx, config, logger)
		if err != nil {
			return nil, err
		}

		oracle, err := ai.NewGeneratorOracle(generator)
		if err != nil {
			return nil, err
		}

		return ai.NewMatcher(oracle, logger, aiOptions(config, model))
	}
}
