package main

import (
	"github.com/spf13/cobra"

	"estate-gap-backend/internal/analyses"
	"estate-gap-backend/internal/analyses/recovery"
	"estate-gap-backend/internal/analyses/scoring"
	"estate-gap-backend/internal/intake"
)

var assembleFlags struct {
	intake  string
	file    string
	console string
}

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Recover, score and assemble a full analysis record",
	RunE:  runAssemble,
}

func init() {
	f := assembleCmd.Flags()
	f.StringVar(&assembleFlags.intake, "intake", "", "Path to the intake JSON (required)")
	f.StringVar(&assembleFlags.file, "file", "", "Path to the generator's side file")
	f.StringVar(&assembleFlags.console, "console", "", "Path to the captured console stream")

	_ = assembleCmd.MarkFlagRequired("intake")
}

func runAssemble(cmd *cobra.Command, _ []string) error {
	in, err := readIntake(assembleFlags.intake)
	if err != nil {
		return err
	}
	raw, err := readRaw(assembleFlags.file, assembleFlags.console)
	if err != nil {
		return err
	}

	facts, _ := intake.Normalize(in)
	outcome := recovery.Recover(raw)
	report := scoring.Score(facts, scoring.IssueCounts{Outdated: analyses.OutdatedCount(outcome)})
	return writeJSON(cmd.OutOrStdout(), analyses.Assemble(outcome, report))
}
