package main

import (
	"github.com/spf13/cobra"

	"github.com/tonimelisma/profilectl/internal/daemon"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the profile daemon",
		Long: `Run the local daemon: an HTTP API for listing, switching, and watching
profiles, plus a catalog watcher that picks up edits to the profiles file.

The daemon binds to the configured listen address (loopback by default) and
shuts down gracefully on SIGINT/SIGTERM. A second signal forces exit.`,
		RunE: runServe,
		Args: cobra.NoArgs,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := buildLogger()
	ctx := shutdownContext(cmd.Context(), logger)

	sess, err := newSession(ctx, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	srv := daemon.NewServer(daemon.ServerConfig{
		Coordinator:    sess.Coordinator,
		Store:          sess.Store,
		Journal:        sess.Journal,
		Logger:         logger,
		Listen:         sess.Config.Listen,
		EventBuffer:    sess.Config.EventBuffer,
		WatchDebounce:  sess.Config.WatchDebounce,
		RescanInterval: sess.Config.RescanInterval,
	})

	statusf(flagQuiet, "Serving on http://%s (Ctrl-C to stop)\n", sess.Config.Listen)

	return srv.Run(ctx)
}
