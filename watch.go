package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/profilectl/internal/daemon"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream profile events from the daemon",
		Long: `Connect to a running daemon and print profile events as they happen.

Each switch or in-place update of the current profile produces one line.
With --json, events are printed as one JSON object per line. Requires
'profilectl serve' to be running on the configured listen address.`,
		RunE: runWatch,
		Args: cobra.NoArgs,
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	logger := buildLogger()
	ctx := shutdownContext(cmd.Context(), logger)

	statusf(flagQuiet, "Watching %s (Ctrl-C to stop)\n", resolvedCfg.Listen)

	enc := json.NewEncoder(os.Stdout)

	return daemon.WatchEvents(ctx, resolvedCfg.Listen, logger, func(ev daemon.Event) {
		if flagJSON {
			if err := enc.Encode(ev); err != nil {
				logger.Warn("encoding event failed", "error", err.Error())
			}

			return
		}

		printEventText(ev)
	})
}

func printEventText(ev daemon.Event) {
	switch ev.Type {
	case daemon.EventSwitch:
		from := ""
		if ev.Previous != nil {
			from = fmt.Sprintf(" (from %q)", ev.Previous.Name)
		}

		fmt.Printf("%s  switch  %q%s\n", ev.At.Local().Format("15:04:05"), ev.Profile.Name, from)
	case daemon.EventUpdate:
		fmt.Printf("%s  update  %q\n", ev.At.Local().Format("15:04:05"), ev.Profile.Name)
	default:
		fmt.Printf("%s  %s  %q\n", ev.At.Local().Format("15:04:05"), ev.Type, ev.Profile.Name)
	}
}
