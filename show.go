package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [profile]",
		Short: "Show profile details",
		Long: `Show the full record of a profile, addressed by id or name.

Without an argument, shows the current profile.`,
		RunE: runShow,
		Args: cobra.MaximumNArgs(1),
	}
}

// showDetail is the JSON shape of the show command output.
type showDetail struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name,omitempty"`
	Short     string `json:"short"`
	Default   bool   `json:"default,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	Workspace string `json:"workspace"`
	Current   bool   `json:"current"`
}

func runShow(cmd *cobra.Command, args []string) error {
	logger := buildLogger()
	store := newStore(logger)
	manager := newWorkspaceManager(logger)

	profiles, err := store.Load()
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	current := manager.ResolveInitial(profiles)

	target := current
	if len(args) > 0 {
		target, err = findProfile(store, args[0])
		if err != nil {
			return err
		}
	}

	detail := showDetail{
		ID:        target.ID,
		Name:      target.Name,
		ShortName: target.ShortName,
		Short:     target.Short(),
		Default:   target.IsDefault,
		Workspace: manager.Dir(target),
		Current:   target.ID == current.ID,
	}

	if !target.CreatedAt.IsZero() {
		detail.CreatedAt = target.CreatedAt.Format("2006-01-02 15:04:05 MST")
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if err := enc.Encode(detail); err != nil {
			return fmt.Errorf("encoding JSON output: %w", err)
		}

		return nil
	}

	printShowText(detail)

	return nil
}

func printShowText(d showDetail) {
	fmt.Printf("Name:       %s\n", d.Name)
	fmt.Printf("ID:         %s\n", d.ID)
	fmt.Printf("Short:      %s\n", d.Short)

	if d.ShortName != "" {
		fmt.Printf("Short name: %s\n", d.ShortName)
	}

	fmt.Printf("Default:    %s\n", yesNo(d.Default))

	if d.CreatedAt != "" {
		fmt.Printf("Created:    %s\n", d.CreatedAt)
	}

	fmt.Printf("Workspace:  %s\n", d.Workspace)
	fmt.Printf("Current:    %s\n", yesNo(d.Current))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}

	return "no"
}
