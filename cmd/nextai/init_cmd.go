package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/config"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/history"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/ledger"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create .nextai/ in the project root",
	Long: `Create the .nextai directory, a default config.yaml, an empty ledger and
the nextai/todo and nextai/done feature directories. Running init again
leaves existing files untouched.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	projectDir := projectFlag
	if projectDir == "" {
		projectDir = os.Getenv(config.ProjectEnv)
	}
	if projectDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		projectDir = cwd
	}
	_, statErr := os.Stat(filepath.Join(projectDir, config.NextaiDir, "config.yaml"))
	fresh := errors.Is(statErr, fs.ErrNotExist)

	cfg, err := config.Init(projectDir)
	if err != nil {
		return err
	}
	a, err := openWithConfig(cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := os.Stat(cfg.LedgerPath()); errors.Is(err, fs.ErrNotExist) {
		if err := a.store.Save(ledger.Ledger{Features: []ledger.Feature{}}); err != nil {
			return err
		}
	}
	if fresh {
		if err := a.log.Append(history.NewInit(time.Now(), cfg.Project.Project.Name)); err != nil {
			return err
		}
	}
	a.logger.Printf("init: project %s at %s", cfg.Project.Project.Name, cfg.ProjectDir)

	if jsonOutput {
		return outputJSON(cmd.OutOrStdout(), map[string]any{
			"project":     cfg.Project.Project.Name,
			"project_dir": cfg.ProjectDir,
			"created":     fresh,
		})
	}
	if fresh {
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized nextai project %q in %s\n", cfg.Project.Project.Name, cfg.NextaiProjectDir)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "nextai project %q already initialized\n", cfg.Project.Project.Name)
	}
	return nil
}
