package config

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// Validation range constants.
const (
	minCloneWorkers  = 1
	maxCloneWorkers  = 32
	minEventBuffer   = 1
	maxEventBuffer   = 1024
	maxWatchDebounce = 10 * time.Second
)

// validLogLevels are the accepted log_level values.
var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// validLogFormats are the accepted log_format values. "auto" picks text on
// a terminal and JSON otherwise.
var validLogFormats = map[string]bool{
	"auto": true, "text": true, "json": true,
}

// Validate checks all configuration values and returns all errors found.
// It accumulates every error rather than stopping at the first, so users
// see a complete report and can fix all issues in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateCatalog(&cfg.Catalog)...)
	errs = append(errs, validateWorkspace(&cfg.Workspace)...)
	errs = append(errs, validateDaemon(&cfg.Daemon)...)

	return errors.Join(errs...)
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	if l.LogLevel != "" && !validLogLevels[l.LogLevel] {
		errs = append(errs, fmt.Errorf("log_level: must be debug, info, warn, or error, got %q", l.LogLevel))
	}

	if l.LogFormat != "" && !validLogFormats[l.LogFormat] {
		errs = append(errs, fmt.Errorf("log_format: must be auto, text, or json, got %q", l.LogFormat))
	}

	return errs
}

func validateCatalog(c *CatalogConfig) []error {
	var errs []error

	if c.WatchDebounce != "" {
		d, err := time.ParseDuration(c.WatchDebounce)

		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("watch_debounce: %w", err))
		case d < 0:
			errs = append(errs, fmt.Errorf("watch_debounce: must not be negative, got %q", c.WatchDebounce))
		case d > maxWatchDebounce:
			errs = append(errs, fmt.Errorf("watch_debounce: must be at most %s, got %q", maxWatchDebounce, c.WatchDebounce))
		}
	}

	if c.RescanInterval != "" {
		d, err := time.ParseDuration(c.RescanInterval)

		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("rescan_interval: %w", err))
		case d < 0:
			errs = append(errs, fmt.Errorf("rescan_interval: must not be negative, got %q", c.RescanInterval))
		}
	}

	return errs
}

func validateWorkspace(w *WorkspaceConfig) []error {
	var errs []error

	if w.CloneWorkers < minCloneWorkers || w.CloneWorkers > maxCloneWorkers {
		errs = append(errs, fmt.Errorf("clone_workers: must be between %d and %d, got %d",
			minCloneWorkers, maxCloneWorkers, w.CloneWorkers))
	}

	return errs
}

func validateDaemon(d *DaemonConfig) []error {
	var errs []error

	if d.Listen != "" {
		if _, _, err := net.SplitHostPort(d.Listen); err != nil {
			errs = append(errs, fmt.Errorf("listen: must be host:port, got %q", d.Listen))
		}
	}

	if d.EventBuffer < minEventBuffer || d.EventBuffer > maxEventBuffer {
		errs = append(errs, fmt.Errorf("event_buffer: must be between %d and %d, got %d",
			minEventBuffer, maxEventBuffer, d.EventBuffer))
	}

	return errs
}
