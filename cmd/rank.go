package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-ranker/internal/candidate"
	"github.com/spigell/cv-ranker/internal/dedup"
	"github.com/spigell/cv-ranker/internal/filtering"
	"github.com/spigell/cv-ranker/internal/matching"
	"github.com/spigell/cv-ranker/internal/store"
)

const (
	PromptReport              = "Report by rank"
	PromptSave                = "Save ranking to store"
	PromptCandidatesToFile    = "Dump candidates to file"
	PromptAppendToExcludeFile = "Append all candidates to exclude file"
	PromptExit                = "Exit"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Procced?",
	Items: []string{PromptReport, PromptSave, PromptCandidatesToFile, PromptAppendToExcludeFile, PromptExit},
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank candidates against a job description",
	Run: func(cmd *cobra.Command, _ []string) {
		rank(cmd)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().String("job", "", "job description file (.json, .txt or .md)")
	rankCmd.Flags().String("job-id", "", "id of a job description saved by an earlier run, used when --job is unset")
	rankCmd.Flags().StringP("candidates", "c", "", "JSON file with extracted candidate records")
	rankCmd.Flags().Bool("lexical", false, "skip AI matching and rank lexically")
	rankCmd.Flags().BoolP("auto-approve", "y", false, "save and report the ranking without asking")
	rankCmd.Flags().StringP("exclude-file", "e", "", "special file with candidates to exclude. Default is unset.")

	rankCmd.MarkFlagRequired("candidates")

	viper.BindPFlag("exclude-file", rankCmd.Flags().Lookup("exclude-file"))
}

func rank(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config := setup()

	logger.Info("starting the cv-ranker", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	jobPath, _ := cmd.Flags().GetString("job")
	jobID, _ := cmd.Flags().GetString("job-id")
	candidatesPath, _ := cmd.Flags().GetString("candidates")

	st := openStore(ctx, config, logger)
	if st != nil {
		defer st.Close()
	}

	job, err := resolveJob(ctx, st, jobPath, jobID)
	if err != nil {
		logger.Fatal("loading job description", zap.Error(err))
	}

	candidates := loadCandidates(logger, candidatesPath)

	logger.Info("loaded candidates", zap.Int("count", len(candidates)), zap.String("job", job.DisplayName()))

	hydrate(ctx, st, candidates, logger)

	filters := prepareFilters(config, logger)
	for _, status := range filters.Describe() {
		logger.Debug("filter configured",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	pool, err := filters.RunFilters(ctx, candidate.NewPool(candidates))
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}

	if pool.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no candidates left after filters"))
		return
	}

	lexicalOnly, _ := cmd.Flags().GetBool("lexical")
	_, keyErr := resolveAPIKey(config.AI)
	if keyErr != nil && config.Matching.PreferAI && !lexicalOnly {
		logger.Warn("ai matching is unavailable", zap.Error(keyErr))
	}

	coordinator := matching.NewCoordinator(
		newAIMatcherFactory(ctx, config.AI, logger),
		matching.Selection{TopCount: config.Matching.TopCandidatesCount, Threshold: config.Matching.SimilarityThreshold},
		matching.Selection{TopCount: config.Matching.Fallback.TopCandidatesCount, Threshold: config.Matching.Fallback.SimilarityThreshold},
		logger,
	)

	result, err := coordinator.Run(ctx, job, pool.Items, config.Matching.PreferAI && !lexicalOnly, keyErr == nil)
	if err != nil {
		logger.Fatal("matching failed", zap.Error(err))
	}

	ranked, err := filtering.New([]filtering.Filter{filtering.NewTop(result.Selection, logger)}, logger).
		RunFilters(ctx, candidate.NewPool(result.Candidates))
	if err != nil {
		logger.Fatal("selecting top candidates", zap.Error(err))
	}

	logger.Info("ranking finished",
		zap.String("method", string(result.Method)),
		zap.Int("ranked", len(result.Candidates)),
		zap.Int("selected", ranked.Len()),
	)

	if ranked.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no candidates passed the selection"))
		return
	}

	autoApprove, _ := cmd.Flags().GetBool("auto-approve")
	if autoApprove {
		if err := save(ctx, st, logger, job, result.Candidates); err != nil {
			logger.Error("saving ranking", zap.Error(err))
		}
		report(logger, ranked)
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		logger.Info("current list of candidates", zap.Int("count", ranked.Len()))

		if err := handleAction(ctx, action, st, logger, job, result.Candidates, ranked); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(ctx context.Context, action string, st *store.Store, logger *zap.Logger, job *candidate.JobDescription, all []*candidate.Candidate, ranked *candidate.Pool) error {
	switch action {
	case PromptReport:
		report(logger, ranked)
		return nil
	case PromptSave:
		if err := save(ctx, st, logger, job, all); err != nil {
			logger.Error("saving ranking", zap.Error(err))
		}
		return nil
	case PromptCandidatesToFile:
		filename, err := ranked.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		excludeFile := viper.GetString("exclude-file")
		added, err := filtering.AppendToExcludeFile(excludeFile, ranked, candidate.ExcludeActorUser, "reviewed in "+job.DisplayName())
		if err != nil {
			logger.Error("appending to exclude file", zap.Error(err))
			return nil
		}
		logger.Info("appended to exclude file", zap.String("filename", excludeFile), zap.Int("count", added))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func report(logger *zap.Logger, pool *candidate.Pool) {
	pretty, _ := json.MarshalIndent(pool.ReportByRank(), "", "  ")
	logger.Info(string(pretty), zap.Int("candidates count", pool.Len()))
}

// save persists the full ranking and its job. A missing store is not an error.
func save(ctx context.Context, st *store.Store, logger *zap.Logger, job *candidate.JobDescription, candidates []*candidate.Candidate) error {
	if st == nil {
		logger.Warn("candidate store is not configured, nothing saved")
		return nil
	}

	if err := st.SaveJob(ctx, job); err != nil {
		return err
	}
	if err := st.Save(ctx, candidates); err != nil {
		return err
	}

	logger.Info("ranking saved", zap.Int("candidates", len(candidates)), zap.String("job_id", job.ID))
	return nil
}

func prepareFilters(config *Config, logger *zap.Logger) *filtering.Filtering {
	excludeFile := viper.GetString("exclude-file")
	if excludeFile == "" {
		excludeFile = config.ExcludeFile
	}

	duplicates := filtering.NewDuplicates(
		dedup.NewDetector(config.Dedup.Threshold, dedup.FileHasher{}, logger),
		config.Dedup.Threshold,
		logger,
	)

	f := filtering.New([]filtering.Filter{
		filtering.NewExcludeFile(excludeFile, logger),
		duplicates,
	}, logger)

	if !config.Dedup.Enabled {
		f.DisableByName(duplicates.Name(), "disabled in configuration")
	}

	return f
}
