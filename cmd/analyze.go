package cmd

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/cv-ranker/internal/ai"
	"github.com/spigell/cv-ranker/internal/candidate"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Ask the AI provider for a detailed analysis of one candidate",
	Run: func(cmd *cobra.Command, _ []string) {
		analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("job", "", "job description file (.json, .txt or .md)")
	analyzeCmd.Flags().String("job-id", "", "id of a saved job description, used when --job is unset")
	analyzeCmd.Flags().StringP("candidates", "c", "", "JSON file with extracted candidate records")
	analyzeCmd.Flags().String("id", "", "candidate id")

	analyzeCmd.MarkFlagRequired("candidates")
	analyzeCmd.MarkFlagRequired("id")
}

func analyze(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config := setup()

	jobPath, _ := cmd.Flags().GetString("job")
	jobID, _ := cmd.Flags().GetString("job-id")
	candidatesPath, _ := cmd.Flags().GetString("candidates")
	id, _ := cmd.Flags().GetString("id")

	c := candidate.NewPool(loadCandidates(logger, candidatesPath)).FindByID(id)
	if c == nil {
		logger.Fatal("candidate not found", zap.String("id", id))
	}

	st := openStore(ctx, config, logger)
	if st != nil {
		defer st.Close()

		stored, err := st.Get(ctx, id)
		if err != nil {
			logger.Warn("loading stored candidate", zap.Error(err))
		}
		if stored != nil && stored.HasScore() && !c.HasScore() {
			c.SetScore(stored.ScoreValue(), stored.ScoreOrigin)
		}
	}

	job, err := resolveJob(ctx, st, jobPath, jobID)
	if err != nil {
		logger.Fatal("loading job description", zap.Error(err))
	}

	generator, model, err := newGenerator(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building ai generator", zap.Error(err))
	}

	analyzer, err := ai.NewAnalyzer(generator, logger, aiOptions(config.AI, model))
	if err != nil {
		logger.Fatal("building analyzer", zap.Error(err))
	}

	analysis, err := analyzer.Analyze(ctx, job, c)
	if err != nil {
		logger.Fatal("analyzing candidate", zap.Error(err))
	}

	pretty, _ := json.MarshalIndent(analysis, "", "  ")
	logger.Info(string(pretty), zap.String("candidate", c.DisplayName()))
}
