package config

import (
	"fmt"
	"io"
)

// RenderEffective writes the resolved configuration as a human-readable
// annotated summary to w. This powers the "config show" command, giving
// users visibility into the effective values after all four override layers
// (defaults -> file -> env -> CLI) have been applied.
func RenderEffective(r *Resolved, w io.Writer) error {
	ew := &errWriter{w: w}

	ew.printf("# Effective configuration (config file: %s)\n\n", r.ConfigPath)

	renderLoggingSection(ew, r)
	renderCatalogSection(ew, r)
	renderWorkspaceSection(ew, r)
	renderJournalSection(ew, r)
	renderDaemonSection(ew, r)

	return ew.err
}

// errWriter wraps an io.Writer and captures the first write error.
// Subsequent writes after an error are no-ops, so callers can chain
// printf calls without checking each one individually.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}

	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func renderLoggingSection(ew *errWriter, r *Resolved) {
	ew.printf("[logging]\n")
	ew.printf("  log_level  = %q\n", r.LogLevel)
	ew.printf("  log_format = %q\n", r.LogFormat)
	ew.printf("\n")
}

func renderCatalogSection(ew *errWriter, r *Resolved) {
	ew.printf("[catalog]\n")
	ew.printf("  path            = %q\n", r.CatalogPath)
	ew.printf("  watch_debounce  = %q\n", r.WatchDebounce.String())
	ew.printf("  rescan_interval = %q\n", r.RescanInterval.String())
	ew.printf("\n")
}

func renderWorkspaceSection(ew *errWriter, r *Resolved) {
	ew.printf("[workspace]\n")
	ew.printf("  data_dir      = %q\n", r.DataDir)
	ew.printf("  clone_workers = %d\n", r.CloneWorkers)
	ew.printf("\n")
}

func renderJournalSection(ew *errWriter, r *Resolved) {
	ew.printf("[journal]\n")
	ew.printf("  path = %q\n", r.JournalPath)
	ew.printf("\n")
}

func renderDaemonSection(ew *errWriter, r *Resolved) {
	ew.printf("[daemon]\n")
	ew.printf("  listen       = %q\n", r.Listen)
	ew.printf("  event_buffer = %d\n", r.EventBuffer)
}
