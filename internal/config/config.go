// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for profilectl. It supports a
// four-layer override chain (defaults -> config file -> environment -> CLI
// flags) and rejects unknown keys with "did you mean?" suggestions.
package config

// Config is the top-level configuration structure parsed from a TOML file.
// Every section is optional; unset fields keep their defaults.
type Config struct {
	Logging   LoggingConfig   `toml:"logging"`
	Catalog   CatalogConfig   `toml:"catalog"`
	Workspace WorkspaceConfig `toml:"workspace"`
	Journal   JournalConfig   `toml:"journal"`
	Daemon    DaemonConfig    `toml:"daemon"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// CatalogConfig controls where the profile catalog lives and how the
// daemon watches it for external edits.
type CatalogConfig struct {
	Path           string `toml:"path"`
	WatchDebounce  string `toml:"watch_debounce"`
	RescanInterval string `toml:"rescan_interval"`
}

// WorkspaceConfig controls per-profile workspace directories and the
// worker count used when cloning workspace data between profiles.
type WorkspaceConfig struct {
	DataDir      string `toml:"data_dir"`
	CloneWorkers int    `toml:"clone_workers"`
}

// JournalConfig controls the switch history database.
type JournalConfig struct {
	Path string `toml:"path"`
}

// DaemonConfig controls the local HTTP API server.
type DaemonConfig struct {
	Listen      string `toml:"listen"`
	EventBuffer int    `toml:"event_buffer"`
}

// CLIOverrides holds values from CLI flags that override config file and
// environment settings. Pointer fields distinguish "not specified" (nil)
// from "explicitly set to zero value".
type CLIOverrides struct {
	ConfigPath string  // --config flag (empty = use default)
	LogLevel   string  // derived from --verbose / --quiet (empty = use config)
	DataDir    *string // --data-dir flag
	Listen     *string // --listen flag
}
