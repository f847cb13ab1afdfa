package main

import (
	"github.com/spf13/cobra"

	"estate-gap-backend/internal/analyses/scoring"
	"estate-gap-backend/internal/intake"
)

var scoreFlags struct {
	intake   string
	outdated int
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score an intake file deterministically",
	RunE:  runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.StringVar(&scoreFlags.intake, "intake", "", "Path to the intake JSON (required)")
	f.IntVar(&scoreFlags.outdated, "outdated", 0, "Number of outdated documents reported")

	_ = scoreCmd.MarkFlagRequired("intake")
}

func runScore(cmd *cobra.Command, _ []string) error {
	in, err := readIntake(scoreFlags.intake)
	if err != nil {
		return err
	}
	facts, anomalies := intake.Normalize(in)
	for _, a := range anomalies {
		cmd.PrintErrf("anomaly: %s: %s\n", a.Section, a.Reason)
	}
	report := scoring.Score(facts, scoring.IssueCounts{Outdated: scoreFlags.outdated})
	return writeJSON(cmd.OutOrStdout(), report)
}
