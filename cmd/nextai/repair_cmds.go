package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/artifact"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/engine"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/history"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/ledger"
)

var repairCmd = &cobra.Command{
	Use:   "repair [id]",
	Short: "Compare ledger phases with the artifacts on disk",
	Long: `Detect drift between the ledger and the artifacts in each feature folder.
Without --apply this only reports. With --apply the ledger is moved to the
detected phase and a repair event is logged.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRepair,
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check ledger, history log and artifacts for problems",
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

var repairApply bool

func init() {
	repairCmd.Flags().BoolVar(&repairApply, "apply", false, "Write the detected phases to the ledger")
	rootCmd.AddCommand(repairCmd, doctorCmd)
}

func runRepair(cmd *cobra.Command, args []string) error {
	a, err := openApp(repairApply)
	if err != nil {
		return err
	}
	defer a.Close()

	var results []engine.RepairResult
	if len(args) == 1 {
		res, err := a.engine.Repair(args[0], repairApply)
		if err != nil {
			return err
		}
		results = []engine.RepairResult{res}
	} else {
		results, err = a.engine.RepairAll(repairApply)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return outputJSON(out, results)
	}
	drift := 0
	for _, r := range results {
		if !r.Drift {
			continue
		}
		drift++
		action := "would move"
		if r.Applied {
			action = "moved"
		}
		fmt.Fprintf(out, "%s: ledger says %s, artifacts say %s (%s)\n", r.ID, r.Ledger, r.Detected, action)
	}
	if drift == 0 {
		fmt.Fprintln(out, "No drift detected.")
	} else if !repairApply {
		fmt.Fprintln(out, "Run `nextai repair --apply` to update the ledger.")
	}
	return nil
}

// doctorReport is the machine-readable result of `nextai doctor`.
type doctorReport struct {
	LedgerError    string                `json:"ledger_error,omitempty"`
	MalformedLines []int                 `json:"malformed_lines"`
	Drift          []engine.RepairResult `json:"drift"`
	Unreadable     []artifactProblem     `json:"unreadable_artifacts"`
	Healthy        bool                  `json:"healthy"`
}

type artifactProblem struct {
	Feature string `json:"feature_id"`
	File    string `json:"file"`
	Error   string `json:"error"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	report := doctorReport{MalformedLines: []int{}, Drift: []engine.RepairResult{}, Unreadable: []artifactProblem{}}

	if _, err := a.store.Load(); err != nil {
		var corrupt *ledger.CorruptError
		if !errors.As(err, &corrupt) {
			return err
		}
		report.LedgerError = corrupt.Error()
	}

	if _, err := a.log.Read(history.WithSkipMalformed(func(bad *history.CorruptLineError) {
		report.MalformedLines = append(report.MalformedLines, bad.Line)
	})); err != nil {
		return err
	}

	if report.LedgerError == "" {
		results, err := a.engine.RepairAll(false)
		if err != nil {
			return err
		}
		for _, r := range results {
			if r.Drift {
				report.Drift = append(report.Drift, r)
			}
			for _, st := range artifactStates(a.layout.FeatureDir(r.ID), a.cfg.MinContentLength()) {
				if st.State == artifact.StateError {
					report.Unreadable = append(report.Unreadable, artifactProblem{Feature: r.ID, File: st.File, Error: st.Error})
				}
			}
		}
	}
	report.Healthy = report.LedgerError == "" && len(report.MalformedLines) == 0 &&
		len(report.Drift) == 0 && len(report.Unreadable) == 0

	out := cmd.OutOrStdout()
	if jsonOutput {
		if err := outputJSON(out, report); err != nil {
			return err
		}
	} else {
		printDoctor(cmd, a.log.Path(), report)
	}
	if !report.Healthy {
		return errSilent
	}
	return nil
}

func printDoctor(cmd *cobra.Command, historyPath string, report doctorReport) {
	out := cmd.OutOrStdout()
	if report.LedgerError != "" {
		fmt.Fprintln(out, blockedLabel.Render("✗ ledger"), report.LedgerError)
	} else {
		fmt.Fprintln(out, doneLabel.Render("✓ ledger"))
	}
	if len(report.MalformedLines) > 0 {
		fmt.Fprintln(out, blockedLabel.Render("✗ history"), fmt.Sprintf("%s has malformed lines %v", historyPath, report.MalformedLines))
	} else {
		fmt.Fprintln(out, doneLabel.Render("✓ history"))
	}
	switch {
	case report.LedgerError != "":
		fmt.Fprintln(out, mutedLabel.Render("- drift check skipped"))
	case len(report.Drift) > 0:
		fmt.Fprintln(out, blockedLabel.Render("✗ artifacts"), fmt.Sprintf("%d feature(s) drifted; run `nextai repair`", len(report.Drift)))
		for _, r := range report.Drift {
			fmt.Fprintf(out, "    %s: %s → %s\n", r.ID, r.Ledger, r.Detected)
		}
	case len(report.Unreadable) == 0:
		fmt.Fprintln(out, doneLabel.Render("✓ artifacts"))
	}
	for _, p := range report.Unreadable {
		fmt.Fprintln(out, blockedLabel.Render("✗ unreadable"), fmt.Sprintf("%s: %s (%s)", p.Feature, p.File, p.Error))
	}
}
