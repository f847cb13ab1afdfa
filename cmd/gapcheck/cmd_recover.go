package main

import (
	"github.com/spf13/cobra"

	"estate-gap-backend/internal/analyses/recovery"
)

var recoverFlags struct {
	file    string
	console string
}

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Recover a structured record from generator output",
	RunE:  runRecover,
}

func init() {
	f := recoverCmd.Flags()
	f.StringVar(&recoverFlags.file, "file", "", "Path to the generator's side file")
	f.StringVar(&recoverFlags.console, "console", "", "Path to the captured console stream")
}

type recoverView struct {
	Recovered   bool                 `json:"recovered"`
	Provenance  *recovery.Provenance `json:"provenance,omitempty"`
	Reason      string               `json:"reason,omitempty"`
	Diagnostics recovery.Diagnostics `json:"diagnostics"`
	Record      recovery.Record      `json:"record,omitempty"`
}

func runRecover(cmd *cobra.Command, _ []string) error {
	raw, err := readRaw(recoverFlags.file, recoverFlags.console)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), newRecoverView(recovery.Recover(raw)))
}

func newRecoverView(o recovery.Outcome) recoverView {
	view := recoverView{Recovered: o.Recovered(), Diagnostics: o.Diagnostics}
	if o.Recovered() {
		prov := o.Provenance
		view.Provenance = &prov
		view.Record = o.Record
	} else if o.Err != nil {
		view.Reason = o.Err.Error()
	}
	return view
}
