package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/profilectl/internal/catalog"
	"github.com/tonimelisma/profilectl/internal/profile"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List profiles in the catalog",
		Long: `List every profile in the catalog with its short form and id.

The current profile is marked with an asterisk.`,
		RunE: runList,
		Args: cobra.NoArgs,
	}
}

// listEntry is the JSON shape of one listed profile.
type listEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ShortName string    `json:"short_name,omitempty"`
	Short     string    `json:"short"`
	Default   bool      `json:"default,omitempty"`
	Current   bool      `json:"current,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

func runList(cmd *cobra.Command, _ []string) error {
	logger := buildLogger()
	store := newStore(logger)

	profiles, err := store.Load()
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	current := newWorkspaceManager(logger).ResolveInitial(profiles)

	entries := make([]listEntry, 0, len(profiles))
	for _, p := range profiles {
		entries = append(entries, listEntry{
			ID:        p.ID,
			Name:      p.Name,
			ShortName: p.ShortName,
			Short:     p.Short(),
			Default:   p.IsDefault,
			Current:   p.ID == current.ID,
			CreatedAt: p.CreatedAt,
		})
	}

	if flagJSON {
		return printListJSON(entries)
	}

	printListText(entries)

	return nil
}

func printListJSON(entries []listEntry) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	return nil
}

func printListText(entries []listEntry) {
	headers := []string{"CURRENT", "SHORT", "NAME", "ID", "CREATED"}
	rows := make([][]string, 0, len(entries))

	for _, e := range entries {
		marker := ""
		if e.Current {
			marker = "*"
		}

		rows = append(rows, []string{marker, e.Short, e.Name, e.ID, formatTime(e.CreatedAt)})
	}

	printTable(os.Stdout, headers, rows)
}

// findProfile resolves a profile argument against the catalog with a
// friendlier message than the raw store error.
func findProfile(store *catalog.Store, idOrName string) (profile.Profile, error) {
	p, err := store.Find(idOrName)
	if errors.Is(err, catalog.ErrNotFound) {
		return profile.Profile{}, fmt.Errorf("profile %q not found (try 'profilectl list')", idOrName)
	}

	if err != nil {
		return profile.Profile{}, err
	}

	return p, nil
}
