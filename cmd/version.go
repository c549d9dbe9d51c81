package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X github.com/spigell/cv-ranker/cmd.version=...".
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the cv-ranker version",
	Run: func(cmd *cobra.Command, _ []string) {
		short, _ := cmd.Flags().GetBool("short")
		fmt.Fprintln(cmd.OutOrStdout(), versionString(short))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().Bool("short", false, "print only the version number")
}

func versionString(short bool) string {
	if short {
		return version
	}
	return fmt.Sprintf("%s version: %s (%s %s/%s)", app, version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
