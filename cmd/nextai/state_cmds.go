package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/engine"
)

var blockCmd = &cobra.Command{
	Use:   "block <id> <reason>",
	Short: "Flag a feature as needing operator attention",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runBlock,
}

var unblockCmd = &cobra.Command{
	Use:   "unblock <id>",
	Short: "Clear a block",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnblock,
}

var retryCmd = &cobra.Command{
	Use:   "retry <id>",
	Short: "Record a failed attempt, blocking the feature once retries run out",
	Long: `Increment the retry counter. When the counter reaches workflow.max_retries
the feature is blocked with a standard reason. --reset zeroes the counter.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetry,
}

var removeCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a feature from the ledger (artifacts stay on disk)",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

var retryReset bool

func init() {
	retryCmd.Flags().BoolVar(&retryReset, "reset", false, "Reset the retry counter to zero")
	rootCmd.AddCommand(blockCmd, unblockCmd, retryCmd, removeCmd)
}

func runBlock(cmd *cobra.Command, args []string) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	f, err := a.engine.Block(args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	if jsonOutput {
		return outputJSON(cmd.OutOrStdout(), f)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s blocked: %s\n", f.ID, f.Blocked())
	return nil
}

func runUnblock(cmd *cobra.Command, args []string) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	f, err := a.engine.Unblock(args[0])
	if err != nil {
		return err
	}
	if jsonOutput {
		return outputJSON(cmd.OutOrStdout(), f)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s unblocked (%s)\n", f.ID, f.Phase)
	return nil
}

func runRetry(cmd *cobra.Command, args []string) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	if retryReset {
		f, err := a.engine.ResetRetry(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), engine.RetryResult{Count: f.RetryCount})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s retry counter reset\n", f.ID)
		return nil
	}

	res, err := a.engine.IncrementRetry(args[0])
	if err != nil {
		return err
	}
	if res.ShouldBlock {
		if _, err := a.engine.Block(args[0], engine.BlockReasonRetries); err != nil {
			return err
		}
	}
	if jsonOutput {
		return outputJSON(cmd.OutOrStdout(), map[string]any{"id": args[0], "count": res.Count, "should_block": res.ShouldBlock, "blocked": res.ShouldBlock})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s retry %d/%d\n", args[0], res.Count, a.engine.MaxRetries())
	if res.ShouldBlock {
		fmt.Fprintf(cmd.OutOrStdout(), "%s blocked: %s\n", args[0], engine.BlockReasonRetries)
	}
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.engine.Remove(args[0]); err != nil {
		return err
	}
	if jsonOutput {
		return outputJSON(cmd.OutOrStdout(), map[string]any{"id": args[0], "removed": true})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from the ledger\n", args[0])
	return nil
}
