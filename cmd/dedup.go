package cmd

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/cv-ranker/internal/candidate"
	"github.com/spigell/cv-ranker/internal/dedup"
)

var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Find duplicate submissions and show which candidates would be kept",
	Run: func(cmd *cobra.Command, _ []string) {
		runDedup(cmd)
	},
}

func init() {
	rootCmd.AddCommand(dedupCmd)

	dedupCmd.Flags().StringP("candidates", "c", "", "JSON file with extracted candidate records")
	dedupCmd.Flags().Float64("threshold", 0, "similarity threshold, overrides dedup.threshold")

	dedupCmd.MarkFlagRequired("candidates")
}

func runDedup(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config := setup()

	candidatesPath, _ := cmd.Flags().GetString("candidates")
	candidates := loadCandidates(logger, candidatesPath)

	st := openStore(ctx, config, logger)
	if st != nil {
		defer st.Close()
	}
	hydrate(ctx, st, candidates, logger)

	threshold := config.Dedup.Threshold
	if t, _ := cmd.Flags().GetFloat64("threshold"); t > 0 {
		threshold = t
	}

	pairs, err := dedup.NewDetector(threshold, dedup.FileHasher{}, logger).Detect(candidates)
	if err != nil {
		logger.Fatal("detecting duplicates", zap.Error(err))
	}

	for _, p := range pairs {
		logger.Info("duplicate pair",
			zap.String("first", p.A.DisplayName()),
			zap.String("second", p.B.DisplayName()),
			zap.Float64("similarity", p.Similarity),
		)
	}

	kept := candidate.NewPool(dedup.Resolve(candidates, pairs, logger))

	pretty, _ := json.MarshalIndent(kept.IDs(), "", "  ")
	logger.Info(string(pretty),
		zap.Int("candidates", len(candidates)),
		zap.Int("pairs", len(pairs)),
		zap.Int("kept", kept.Len()),
	)
}
