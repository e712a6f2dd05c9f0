package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/profilectl/internal/journal"
)

// defaultHistoryEntries bounds the history listing unless --limit is given.
const defaultHistoryEntries = 20

var flagHistoryLimit int

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the switch journal",
		Long: `Show recent profile switches and in-place updates, newest first.

Each switch entry records the previous and next profile and whether all
switch work was acknowledged cleanly.`,
		RunE: runHistory,
		Args: cobra.NoArgs,
	}

	cmd.Flags().IntVar(&flagHistoryLimit, "limit", defaultHistoryEntries, "maximum entries to show")

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := buildLogger()

	if flagHistoryLimit < 1 {
		return fmt.Errorf("--limit must be positive, got %d", flagHistoryLimit)
	}

	jnl, err := journal.Open(ctx, journal.Config{
		Path:   resolvedCfg.JournalPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer jnl.Close()

	entries, err := jnl.Recent(ctx, flagHistoryLimit)
	if err != nil {
		return fmt.Errorf("reading journal: %w", err)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("encoding JSON output: %w", err)
		}

		return nil
	}

	if len(entries) == 0 {
		statusf(flagQuiet, "No journal entries yet\n")

		return nil
	}

	printHistoryText(entries)

	return nil
}

func printHistoryText(entries []journal.Entry) {
	headers := []string{"AT", "KIND", "PROFILE", "FROM", "OUTCOME", "DETAIL"}
	rows := make([][]string, 0, len(entries))

	for _, e := range entries {
		rows = append(rows, []string{
			formatTime(e.At),
			e.Kind,
			e.ProfileName,
			e.PreviousName,
			e.Outcome,
			e.Detail,
		})
	}

	printTable(os.Stdout, headers, rows)
}
