package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/engine"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/ledger"
)

var createCmd = &cobra.Command{
	Use:   "create <id>",
	Short: "Add a feature, bug or task at the created phase",
	Long: `Add a new entry to the ledger and scaffold nextai/todo/<id>/planning/.

Examples:
  nextai create login-flow --title "Login flow"
  nextai create crash-on-save --type bug`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

var (
	createTitle      string
	createType       string
	createExternalID string
)

func init() {
	createCmd.Flags().StringVar(&createTitle, "title", "", "Human-readable title (default: the id)")
	createCmd.Flags().StringVarP(&createType, "type", "t", "feature", "Type: feature, bug or task")
	createCmd.Flags().StringVar(&createExternalID, "external-id", "", "Reference in an external tracker")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	featureType, err := ledger.ParseType(createType)
	if err != nil {
		return err
	}
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	f, err := a.engine.Create(engine.CreateRequest{
		ID:         args[0],
		Title:      createTitle,
		Type:       featureType,
		ExternalID: createExternalID,
	})
	if err != nil {
		return err
	}
	dir, err := a.layout.Scaffold(f.ID)
	if err != nil {
		return err
	}
	if jsonOutput {
		return outputJSON(cmd.OutOrStdout(), f)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", f.Type, f.ID, f.Title)
	fmt.Fprintf(cmd.OutOrStdout(), "Next: write %s/planning/initialization.md and run `nextai advance %s`\n", dir, f.ID)
	return nil
}
