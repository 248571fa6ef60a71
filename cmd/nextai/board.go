package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/artifact"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/tui"
)

const boardLogLines = 8

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the live read-only board",
	Args:  cobra.NoArgs,
	RunE:  runBoard,
}

func init() {
	rootCmd.AddCommand(boardCmd)
}

func runBoard(cmd *cobra.Command, _ []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	var changes <-chan struct{}
	watcher, err := tui.Watch(a.cfg.StateDir(), func(err error) {
		a.logger.Printf("board watcher: %v", err)
	}, "ledger.json", "history.log")
	if err != nil {
		a.logger.Printf("board: falling back to polling: %v", err)
	} else {
		defer watcher.Close()
		changes = watcher.Changes()
	}

	board := tui.NewBoard(func() (tui.Snapshot, error) { return loadBoard(a) }, changes)
	p := tea.NewProgram(board, tea.WithAltScreen(), tea.WithOutput(cmd.OutOrStdout()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("board: %w", err)
	}
	return nil
}

// loadBoard reads the ledger, artifacts and history. It writes nothing.
func loadBoard(a *app) (tui.Snapshot, error) {
	features, err := a.engine.List()
	if err != nil {
		return tui.Snapshot{}, err
	}
	snap := tui.Snapshot{Project: a.cfg.Project.Project.Name, Log: a.log.Tail(boardLogLines)}
	for _, f := range features {
		snap.Items = append(snap.Items, tui.Item{
			Feature:  f,
			Archived: a.layout.IsArchived(f.ID),
			Statuses: artifact.PhaseStatuses(a.layout.FeatureDir(f.ID)),
		})
	}
	if _, agg, err := a.metrics.Snapshot(); err == nil {
		snap.Aggregate = agg
	} else {
		a.logger.Printf("board: metrics unavailable: %v", err)
	}
	return snap, nil
}
