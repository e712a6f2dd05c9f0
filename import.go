package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/tonimelisma/profilectl/internal/profile"
)

var flagImportReplace bool

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import profiles from a YAML export",
		Long: `Merge profiles from a 'profilectl export' document into the catalog.

Entries whose id or name already exists are skipped. With --replace, the
document replaces the whole catalog instead (the default profile is always
kept).`,
		RunE: runImport,
		Args: cobra.ExactArgs(1),
	}

	cmd.Flags().BoolVar(&flagImportReplace, "replace", false, "replace the catalog instead of merging")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	logger := buildLogger()
	store := newStore(logger)

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	var doc exportDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}

	incoming := make([]profile.Profile, 0, len(doc.Profiles))
	for _, e := range doc.Profiles {
		incoming = append(incoming, e.profile())
	}

	if flagImportReplace {
		if err := store.Replace(incoming); err != nil {
			return fmt.Errorf("replacing catalog: %w", err)
		}

		statusf(flagQuiet, "Catalog replaced with %d profiles\n", len(incoming))

		return nil
	}

	added, skipped, err := store.Import(incoming)
	if err != nil {
		return fmt.Errorf("importing profiles: %w", err)
	}

	statusf(flagQuiet, "Imported %d profiles (%d skipped)\n", added, skipped)

	return nil
}
