package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
)

// shutdownContext cancels the returned context on the first SIGINT or
// SIGTERM so in-flight work can drain. Signal delivery then reverts to the
// default disposition, so a second signal terminates the process
// immediately instead of waiting on the drain.
func shutdownContext(parent context.Context, logger *slog.Logger) context.Context {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-ctx.Done()
		stop()

		if parent.Err() == nil {
			logger.Info("shutting down, send the signal again to force exit")
		}
	}()

	return ctx
}
