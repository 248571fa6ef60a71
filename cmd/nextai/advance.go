package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/engine"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/ledger"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/validation"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/workflow"
)

var validateCmd = &cobra.Command{
	Use:   "validate <id> [phase]",
	Short: "Check whether a feature may enter a phase",
	Long: `Run the validator for the target phase without changing anything.
The target defaults to the next phase in the lifecycle.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runValidate,
}

var advanceCmd = &cobra.Command{
	Use:   "advance <id> [phase]",
	Short: "Move a feature to its next phase",
	Long: `Validate and apply a phase transition. The target defaults to the next
phase in the lifecycle; loop-backs (review or testing back to implementation)
must be named explicitly.

--force applies the transition even when validation fails and records a
validation_bypass event. It never allows a move the lifecycle forbids, and a
FAIL review verdict still blocks entry to testing.

--skip-validation is accepted only when looping back from review or testing
to implementation.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runAdvance,
}

var completeCmd = &cobra.Command{
	Use:   "complete <id>",
	Short: "Complete a feature and archive it to nextai/done",
	Args:  cobra.ExactArgs(1),
	RunE:  runComplete,
}

var (
	advanceForce          bool
	advanceSkipValidation bool
	completeForce         bool
)

func init() {
	advanceCmd.Flags().BoolVar(&advanceForce, "force", false, "Apply even if validation fails (recorded as a bypass)")
	advanceCmd.Flags().BoolVar(&advanceSkipValidation, "skip-validation", false, "Do not run the validator (loop-backs to implementation only)")
	completeCmd.Flags().BoolVar(&completeForce, "force", false, "Complete even if testing has not passed (recorded as a bypass)")
	rootCmd.AddCommand(validateCmd, advanceCmd, completeCmd)
}

func targetPhase(a *app, id string, args []string) (workflow.Phase, error) {
	if len(args) > 1 {
		return workflow.ParsePhase(args[1])
	}
	f, err := a.engine.Get(id)
	if err != nil {
		return "", err
	}
	next, ok := workflow.Forward(f.Phase)
	if !ok {
		return "", fmt.Errorf("%s is %s; there is no next phase", f.ID, f.Phase)
	}
	return next, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	target, err := targetPhase(a, args[0], args)
	if err != nil {
		return err
	}
	res, err := a.engine.Validate(args[0], target)
	if err != nil {
		return err
	}
	if jsonOutput {
		if err := outputJSON(cmd.OutOrStdout(), map[string]any{"id": args[0], "phase": target, "result": res}); err != nil {
			return err
		}
	} else {
		printValidation(cmd.OutOrStdout(), args[0], target, res)
	}
	if !res.Valid {
		return errSilent
	}
	return nil
}

func runAdvance(cmd *cobra.Command, args []string) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	target, err := targetPhase(a, args[0], args)
	if err != nil {
		return err
	}
	res, err := a.engine.Transition(args[0], target, engine.TransitionOptions{
		Force:          advanceForce,
		SkipValidation: advanceSkipValidation,
	})
	return reportTransition(cmd.OutOrStdout(), res, err)
}

func runComplete(cmd *cobra.Command, args []string) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.engine.Complete(args[0], engine.TransitionOptions{Force: completeForce})
	if err == nil && (res.Applied || res.NoOp) {
		if serr := writeSummary(a.layout.FeatureDir(args[0]), res.Feature); serr != nil {
			a.logger.Printf("complete: write summary for %s: %v", args[0], serr)
		}
	}
	return reportTransition(cmd.OutOrStdout(), res, err)
}

func reportTransition(w io.Writer, res engine.TransitionResult, err error) error {
	if err != nil && !errors.Is(err, engine.ErrReviewFailed) {
		return err
	}
	if jsonOutput {
		payload := map[string]any{
			"id":         res.Feature.ID,
			"from":       res.From,
			"to":         res.To,
			"applied":    res.Applied,
			"no_op":      res.NoOp,
			"bypassed":   res.Bypassed,
			"validation": res.Validation,
		}
		if err != nil {
			payload["error"] = err.Error()
		}
		if jerr := outputJSON(w, payload); jerr != nil {
			return jerr
		}
		if err != nil || !(res.Applied || res.NoOp) {
			return errSilent
		}
		return nil
	}
	switch {
	case err != nil:
		printValidation(w, res.Feature.ID, res.To, res.Validation)
		return err
	case res.NoOp:
		fmt.Fprintf(w, "%s is already in %s\n", res.Feature.ID, res.To)
	case res.Applied:
		fmt.Fprintf(w, "%s: %s → %s\n", res.Feature.ID, res.From, res.To)
		if res.Bypassed {
			fmt.Fprintf(w, "  validation bypassed (%d errors overridden)\n", len(res.Validation.Errors))
		}
		for _, warn := range res.Validation.Warnings {
			fmt.Fprintf(w, "  warning: %s\n", warn)
		}
	default:
		printValidation(w, res.Feature.ID, res.To, res.Validation)
		return errSilent
	}
	return nil
}

func printValidation(w io.Writer, id string, target workflow.Phase, res validation.Result) {
	if res.Valid {
		fmt.Fprintf(w, "%s may enter %s\n", id, target)
	} else {
		fmt.Fprintf(w, "%s cannot enter %s:\n", id, target)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(w, "  error: %s\n", e)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warn)
	}
}

func writeSummary(dir string, f ledger.Feature) error {
	path := workflow.SummaryPath(dir)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", f.Title)
	fmt.Fprintf(&b, "- id: %s\n- type: %s\n", f.ID, f.Type)
	if f.ExternalID != "" {
		fmt.Fprintf(&b, "- external id: %s\n", f.ExternalID)
	}
	fmt.Fprintf(&b, "- created: %s\n- completed: %s\n", f.CreatedAt.Format(time.RFC3339), f.UpdatedAt.Format(time.RFC3339))
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
