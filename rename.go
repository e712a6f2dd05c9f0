package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/profilectl/internal/profile"
)

func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <profile> <new-name>",
		Short: "Rename a profile",
		Long: `Rename a profile, addressed by id or current name.

Renaming the current profile refreshes the persisted active-profile record
and adds an update entry to the journal. The default profile cannot be
renamed.`,
		RunE: runRename,
		Args: cobra.ExactArgs(2),
	}
}

func runRename(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := buildLogger()

	sess, err := newSession(ctx, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	target, err := findProfile(sess.Store, args[0])
	if err != nil {
		return err
	}

	renamed, err := sess.Store.Rename(target.ID, args[1])
	if err != nil {
		return fmt.Errorf("renaming profile: %w", err)
	}

	// A rename of the current profile is an in-place update: the
	// coordinator refreshes its snapshot and update listeners re-persist
	// the active-profile record.
	if renamed.ID == sess.Coordinator.Current().ID {
		sess.Coordinator.Reconcile(profile.ChangeSet{
			Updated: []profile.Profile{renamed},
		})

		if err := sess.Journal.RecordUpdate(ctx, renamed); err != nil {
			logger.Warn("recording update in journal failed",
				"profile_id", renamed.ID,
				"error", err.Error(),
			)
		}
	}

	statusf(flagQuiet, "Renamed %q to %q\n", target.Name, renamed.Name)

	return nil
}
