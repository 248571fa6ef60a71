package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/artifact"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/history"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/ledger"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/metrics"
)

var (
	headStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	blockedLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	doneLabel    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	mutedLabel   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

var statusCmd = &cobra.Command{
	Use:   "status [id]",
	Short: "Show every feature, or the artifact checklist of one",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "Print the history log, optionally for one feature",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

var metricsCmd = &cobra.Command{
	Use:   "metrics [id]",
	Short: "Recompute metrics and print the project summary or one feature",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMetrics,
}

func init() {
	rootCmd.AddCommand(statusCmd, historyCmd, metricsCmd)
}

type featureStatus struct {
	ledger.Feature
	Dir       string                 `json:"dir"`
	Statuses  []artifact.PhaseStatus `json:"phases"`
	Artifacts []artifactState        `json:"artifacts"`
}

// artifactState is the printable form of an artifact.CheckResult.
type artifactState struct {
	ID    string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Kind        artifact.Kind  `json:"kind"`
	File        string         `json:"file"`
	State       artifact.State `json:"state"`
	Error       string         `json:"error,omitempty"`
}

func artifactStates(dir string, minLength int) []artifactState {
	checks := artifact.CheckAll(dir, minLength)
	out := make([]artifactState, 0, len(checks))
	for _, c := range checks {
		st := artifactState{
			ID:          c.Ref.ID,
			Name:        c.Ref.Name,
			Description: c.Ref.Description,
			Kind:        c.Ref.Kind,
			File:        c.Ref.File(),
			State:       c.State,
		}
		if c.Err != nil {
			st.Error = c.Err.Error()
		}
		out = append(out, st)
	}
	return out
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		f, err := a.engine.Get(args[0])
		if err != nil {
			return err
		}
		dir := a.layout.FeatureDir(f.ID)
		st := featureStatus{
			Feature:   f,
			Dir:       dir,
			Statuses:  artifact.PhaseStatuses(dir),
			Artifacts: artifactStates(dir, a.cfg.MinContentLength()),
		}
		if jsonOutput {
			return outputJSON(out, st)
		}
		printFeatureStatus(out, st)
		return nil
	}

	features, err := a.engine.List()
	if err != nil {
		return err
	}
	if jsonOutput {
		return outputJSON(out, features)
	}
	if len(features) == 0 {
		fmt.Fprintln(out, "No features yet. Run `nextai create <id>`.")
		return nil
	}
	fmt.Fprintln(out, headStyle.Render(fmt.Sprintf("%-28s %-8s %-20s %-5s %s", "ID", "TYPE", "PHASE", "RETRY", "STATUS")))
	for _, f := range features {
		status := ""
		switch {
		case f.IsBlocked():
			status = blockedLabel.Render("blocked: " + f.Blocked())
		case f.Phase.IsTerminal():
			status = doneLabel.Render("done")
		}
		fmt.Fprintf(out, "%-28s %-8s %-20s %-5d %s\n", f.ID, f.Type, f.Phase, f.RetryCount, status)
	}
	return nil
}

func printFeatureStatus(w io.Writer, st featureStatus) {
	fmt.Fprintf(w, "%s  %s\n", headStyle.Render(st.ID), st.Title)
	fmt.Fprintf(w, "type: %s  phase: %s  retries: %d\n", st.Type, st.Phase, st.RetryCount)
	if st.ExternalID != "" {
		fmt.Fprintf(w, "external id: %s\n", st.ExternalID)
	}
	if st.IsBlocked() {
		fmt.Fprintln(w, blockedLabel.Render("blocked: "+st.Blocked()))
	}
	fmt.Fprintf(w, "dir: %s\n\n", st.Dir)
	for _, ps := range st.Statuses {
		mark := mutedLabel.Render("[ ]")
		if ps.Complete {
			mark = doneLabel.Render("[x]")
		}
		line := fmt.Sprintf("%s %s", mark, ps.Phase.FriendlyName())
		if ps.Detail != "" {
			line += mutedLabel.Render("  " + ps.Detail)
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)
	for _, as := range st.Artifacts {
		label := mutedLabel.Render(fmt.Sprintf("%-8s", as.State))
		switch as.State {
		case artifact.StateReady:
			label = doneLabel.Render(fmt.Sprintf("%-8s", as.State))
		case artifact.StateError:
			label = blockedLabel.Render(fmt.Sprintf("%-8s", as.State))
		}
		line := fmt.Sprintf("%s %-28s %s", label, as.File, as.Name)
		switch {
		case as.Error != "":
			line += mutedLabel.Render("  " + as.Error)
		case as.State == artifact.StateMissing:
			line += mutedLabel.Render("  " + as.Description)
		}
		fmt.Fprintln(w, line)
	}
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	events, err := a.log.ReadAll()
	if err != nil {
		return fmt.Errorf("%w (run `nextai doctor` to list malformed lines)", err)
	}
	if len(args) == 1 {
		events = history.ForFeature(events, args[0])
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		if events == nil {
			events = []history.Event{}
		}
		return outputJSON(out, events)
	}
	for _, e := range events {
		fmt.Fprintf(out, "%s  %-18s %-20s %s\n", e.Time().Format(time.RFC3339), e.Kind(), e.FeatureID(), describeEvent(e))
	}
	return nil
}

func describeEvent(e history.Event) string {
	switch ev := e.(type) {
	case history.FeatureCreated:
		return fmt.Sprintf("%s %q", ev.Type, ev.Title)
	case history.PhaseTransition:
		return fmt.Sprintf("%s → %s", ev.From, ev.To)
	case history.Validation:
		return fmt.Sprintf("%s %s %s", ev.Phase, ev.Result, strings.Join(ev.Errors, "; "))
	case history.ValidationBypass:
		return fmt.Sprintf("%s → %s overriding %s", ev.From, ev.To, strings.Join(ev.Errors, "; "))
	case history.FeatureBlocked:
		return ev.Reason
	case history.RetryIncremented:
		return fmt.Sprintf("count=%d", ev.Count)
	case history.Repair:
		return fmt.Sprintf("%s → %s %s", ev.From, ev.To, ev.Detail)
	case history.Sync:
		return strings.TrimSpace(ev.Client + " " + ev.Detail)
	case history.Init:
		return ev.Project
	default:
		return ""
	}
}

func runMetrics(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		if err := a.metrics.RecomputeFeature(args[0]); err != nil {
			return err
		}
		m, err := a.metrics.Feature(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(out, m)
		}
		printFeatureMetrics(out, m)
		return nil
	}

	if err := a.metrics.RecomputeAll(); err != nil {
		return err
	}
	_, agg, err := a.metrics.Snapshot()
	if err != nil {
		return err
	}
	if jsonOutput {
		return outputJSON(out, agg)
	}
	printAggregate(out, agg)
	return nil
}

func printFeatureMetrics(w io.Writer, m metrics.FeatureMetrics) {
	fmt.Fprintf(w, "%s  %s (%s)\n", headStyle.Render(m.FeatureID), m.Phase, m.Type)
	for _, span := range m.Phases {
		d := time.Duration(span.DurationMs) * time.Millisecond
		fmt.Fprintf(w, "  %-20s visits=%d time=%s\n", span.Phase, span.Visits, d)
	}
	fmt.Fprintf(w, "review iterations: %d\n", m.Review.Iterations)
	fmt.Fprintf(w, "testing: %d attempts, %d failures (%d/%d sessions passed)\n",
		m.Testing.Attempts, m.Testing.Failures, m.Testing.SessionsPassed, m.Testing.SessionsPassed+m.Testing.SessionsFailed)
	fmt.Fprintf(w, "validation: %d passed, %d failed, %d bypassed\n", m.Validation.Passed, m.Validation.Failed, m.Validation.Bypassed)
	if m.TotalDurationMs != nil {
		fmt.Fprintf(w, "total: %s\n", time.Duration(*m.TotalDurationMs)*time.Millisecond)
	}
}

func printAggregate(w io.Writer, agg metrics.Aggregated) {
	fmt.Fprintln(w, headStyle.Render("Project metrics"))
	fmt.Fprintf(w, "features: %d (%d done, %d todo, %d blocked)\n", agg.TotalFeatures, agg.Done, agg.Todo, agg.Blocked)
	fmt.Fprintf(w, "completed with history: %d\n", agg.Completed)
	if agg.Completed > 0 {
		fmt.Fprintf(w, "avg duration: %s\n", time.Duration(agg.AvgTotalDurationMs)*time.Millisecond)
		fmt.Fprintf(w, "avg review iterations: %.2f\n", agg.AvgReviewIterations)
		fmt.Fprintf(w, "avg testing failures: %.2f\n", agg.AvgTestingFailures)
	}
	fmt.Fprintf(w, "bypassed validations: %d\n", agg.BypassedValidations)
}
