package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tonimelisma/profilectl/internal/journal"
	"github.com/tonimelisma/profilectl/internal/profile"
)

var (
	flagPreserveData bool
	flagTransient    bool
)

func newUseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use <profile>",
		Short: "Switch to a profile",
		Long: `Switch the current profile, addressed by id or name.

The switch commits immediately; the workspace for the target profile is then
prepared and the result is recorded in the journal. With --preserve-data, the
previous profile's workspace files are copied into the target's workspace.

With --transient, the argument names a throwaway profile that is not added
to the catalog and is forgotten after this process exits.

Examples:
  profilectl use work
  profilectl use work --preserve-data
  profilectl use scratch --transient`,
		RunE: runUse,
		Args: cobra.ExactArgs(1),
	}

	cmd.Flags().BoolVar(&flagPreserveData, "preserve-data", false, "copy the previous profile's workspace into the target")
	cmd.Flags().BoolVar(&flagTransient, "transient", false, "switch to a throwaway profile not stored in the catalog")

	return cmd
}

func runUse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := buildLogger()

	sess, err := newSession(ctx, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	var target profile.Profile
	if flagTransient {
		target = profile.Profile{
			ID:          uuid.NewString(),
			Name:        args[0],
			IsTransient: true,
			CreatedAt:   time.Now().UTC(),
		}
	} else {
		target, err = findProfile(sess.Store, args[0])
		if err != nil {
			return err
		}
	}

	previous := sess.Coordinator.Current()
	if target.ID == previous.ID {
		statusf(flagQuiet, "Already on %q\n", target.Name)

		return nil
	}

	switchErr := sess.Coordinator.Switch(ctx, target, flagPreserveData)

	outcome := journal.OutcomeOK
	detail := ""

	if switchErr != nil {
		outcome = journal.OutcomeFailed
		detail = switchErr.Error()
	}

	if err := sess.Journal.RecordSwitch(ctx, previous, target, outcome, detail); err != nil {
		logger.Warn("recording switch in journal failed",
			"profile_id", target.ID,
			"error", err.Error(),
		)
	}

	if switchErr != nil {
		return fmt.Errorf("switch committed but not fully applied: %w", switchErr)
	}

	statusf(flagQuiet, "Switched to %q\n", target.Name)

	return nil
}
