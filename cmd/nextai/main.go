// cmd/nextai/main.go
//
// Entry point for the nextai CLI. Every command resolves the project root,
// opens the ledger, history log and metrics engine, and hands off to the
// lifecycle engine. Mutating commands hold the ledger lock while they run.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	projectFlag string
	jsonOutput  bool
	verboseFlag bool
)

// errSilent marks failures that have already been reported to the user.
var errSilent = errors.New("")

var rootCmd = &cobra.Command{
	Use:   "nextai",
	Short: "Track features through the nextai lifecycle",
	Long: `nextai tracks features, bugs and tasks through a fixed lifecycle:

  created → product_refinement → tech_spec → implementation → review → testing → complete

Each transition is checked against the artifacts in nextai/todo/<id>/ and
recorded in .nextai/state/history.log.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectFlag, "project", "C", "", "Project root (default: $NEXTAI_PROJECT or search upward for .nextai)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Mirror diagnostic log lines to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errSilent) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
