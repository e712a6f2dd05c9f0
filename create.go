package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagShortName string

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a profile",
		Long: `Create a profile with the given display name and add it to the catalog.

The name must be unique within the catalog (comparison is case-insensitive).
An optional short name overrides the derived two-letter display form.

Examples:
  profilectl create work
  profilectl create "Client X" --short-name CX`,
		RunE: runCreate,
		Args: cobra.ExactArgs(1),
	}

	cmd.Flags().StringVar(&flagShortName, "short-name", "", "explicit short display form")

	return cmd
}

func runCreate(cmd *cobra.Command, args []string) error {
	logger := buildLogger()
	store := newStore(logger)

	created, err := store.Create(args[0], flagShortName)
	if err != nil {
		return fmt.Errorf("creating profile: %w", err)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if err := enc.Encode(created); err != nil {
			return fmt.Errorf("encoding JSON output: %w", err)
		}

		return nil
	}

	statusf(flagQuiet, "Created profile %q (%s)\n", created.Name, created.ID)

	return nil
}
