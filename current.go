package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Print the current profile",
		Long: `Print the name of the current profile.

With --json, prints the full profile record including its id and short form.`,
		RunE: runCurrent,
		Args: cobra.NoArgs,
	}
}

func runCurrent(cmd *cobra.Command, _ []string) error {
	logger := buildLogger()
	store := newStore(logger)

	profiles, err := store.Load()
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	current := newWorkspaceManager(logger).ResolveInitial(profiles)

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if err := enc.Encode(current); err != nil {
			return fmt.Errorf("encoding JSON output: %w", err)
		}

		return nil
	}

	fmt.Println(current.Name)

	return nil
}
