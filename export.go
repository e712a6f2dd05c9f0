package main

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/tonimelisma/profilectl/internal/profile"
)

// exportFilePermissions is used when --output writes to a file.
const exportFilePermissions = 0o644

var flagExportOutput string

// exportDoc is the YAML document shape shared by export and import. Key
// names match the catalog file so the two formats read the same.
type exportDoc struct {
	Profiles []exportProfile `yaml:"profiles"`
}

type exportProfile struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	ShortName string    `yaml:"short_name,omitempty"`
	Default   bool      `yaml:"default,omitempty"`
	Created   time.Time `yaml:"created,omitempty"`
}

func toExportProfile(p profile.Profile) exportProfile {
	return exportProfile{
		ID:        p.ID,
		Name:      p.Name,
		ShortName: p.ShortName,
		Default:   p.IsDefault,
		Created:   p.CreatedAt,
	}
}

func (e exportProfile) profile() profile.Profile {
	return profile.Profile{
		ID:        e.ID,
		Name:      e.Name,
		ShortName: e.ShortName,
		IsDefault: e.Default,
		CreatedAt: e.Created,
	}
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog as YAML",
		Long: `Write the profile catalog as a YAML document, suitable for backup or for
importing on another machine with 'profilectl import'.

Writes to stdout unless --output is given.`,
		RunE: runExport,
		Args: cobra.NoArgs,
	}

	cmd.Flags().StringVarP(&flagExportOutput, "output", "o", "", "write to a file instead of stdout")

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	logger := buildLogger()
	store := newStore(logger)

	profiles, err := store.Load()
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	doc := exportDoc{Profiles: make([]exportProfile, 0, len(profiles))}
	for _, p := range profiles {
		doc.Profiles = append(doc.Profiles, toExportProfile(p))
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}

	if flagExportOutput == "" {
		if _, err := os.Stdout.Write(data); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}

		return nil
	}

	if err := os.WriteFile(flagExportOutput, data, exportFilePermissions); err != nil {
		return fmt.Errorf("writing %s: %w", flagExportOutput, err)
	}

	statusf(flagQuiet, "Exported %d profiles to %s\n", len(doc.Profiles), flagExportOutput)

	return nil
}
