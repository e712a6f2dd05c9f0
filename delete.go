package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagPurge bool

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <profile>",
		Aliases: []string{"rm"},
		Short:   "Delete a profile",
		Long: `Remove a profile from the catalog, addressed by id or name.

The current profile cannot be deleted; switch away first. The profile's
workspace directory is kept unless --purge is given. The default profile
cannot be deleted.`,
		RunE: runDelete,
		Args: cobra.ExactArgs(1),
	}

	cmd.Flags().BoolVar(&flagPurge, "purge", false, "also remove the profile's workspace directory")

	return cmd
}

func runDelete(cmd *cobra.Command, args []string) error {
	logger := buildLogger()
	store := newStore(logger)
	manager := newWorkspaceManager(logger)

	target, err := findProfile(store, args[0])
	if err != nil {
		return err
	}

	profiles, err := store.Load()
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	if target.ID == manager.ResolveInitial(profiles).ID {
		return fmt.Errorf("profile %q is the current profile; switch away before deleting it", target.Name)
	}

	removed, err := store.Remove(target.ID)
	if err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}

	if flagPurge {
		dir := manager.Dir(removed)
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("removing workspace %s: %w", dir, err)
		}

		statusf(flagQuiet, "Deleted profile %q and its workspace\n", removed.Name)

		return nil
	}

	statusf(flagQuiet, "Deleted profile %q (workspace kept, use --purge to remove)\n", removed.Name)

	return nil
}
