package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var forgetCmd = &cobra.Command{
	Use:   "forget",
	Short: "Deactivate a stored candidate",
	Run: func(cmd *cobra.Command, _ []string) {
		forget(cmd)
	},
}

func init() {
	rootCmd.AddCommand(forgetCmd)

	forgetCmd.Flags().String("id", "", "candidate id")
	forgetCmd.MarkFlagRequired("id")
}

func forget(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config := setup()

	id, _ := cmd.Flags().GetString("id")

	st := openStore(ctx, config, logger)
	if st == nil {
		logger.Fatal("candidate store is not available")
	}
	defer st.Close()

	found, err := st.Delete(ctx, id)
	if err != nil {
		logger.Fatal("deactivating candidate", zap.Error(err))
	}

	if !found {
		logger.Info("candidate not found", zap.String("id", id))
		return
	}

	logger.Info("candidate deactivated", zap.String("id", id))
}
