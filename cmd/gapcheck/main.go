package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gapcheck",
	Short: "Run estate gap recovery and scoring on local files",
	Long: `gapcheck runs the recovery, scoring and assembly steps of a gap analysis
against files on disk, without a database, queue or generator.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(recoverCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(assembleCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
