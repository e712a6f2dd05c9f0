package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// configFilePermissions is the standard permission mode for config files.
// Owner read/write, group and others read-only.
const configFilePermissions = 0o644

// configDirPermissions is the standard permission mode for config directories.
const configDirPermissions = 0o755

// ErrConfigExists is returned by WriteDefaultConfig when the target file
// already exists. Existing files are never overwritten.
var ErrConfigExists = errors.New("config: file already exists")

// configTemplate is the default config file content written by
// "profilectl config init". All settings are present as commented-out
// defaults so users can discover every option without reading docs.
const configTemplate = `# profilectl configuration

[logging]
# Log verbosity: debug, info, warn, error
# log_level = "info"

# Log output format: auto, text, json
# log_format = "auto"

[catalog]
# Path to the profile catalog (default: <data_dir>/profiles.toml)
# path = ""

# How long to wait after a catalog file event before reloading
# watch_debounce = "250ms"

# How often to rescan the catalog even without file events (0 disables)
# rescan_interval = "1m"

[workspace]
# Directory for profile workspaces and state (default: platform data dir)
# data_dir = ""

# Parallel workers used when cloning workspace data between profiles
# clone_workers = 4

[journal]
# Path to the switch history database (default: <data_dir>/journal.db)
# path = ""

[daemon]
# Address the local API server binds to
# listen = "127.0.0.1:7487"

# Buffered events per subscriber before the daemon drops them
# event_buffer = 16
`

// WriteDefaultConfig writes the commented default config template to path.
// It creates parent directories as needed and refuses to overwrite an
// existing file so user edits are never lost.
func WriteDefaultConfig(path string, logger *slog.Logger) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), configDirPermissions); err != nil {
		return fmt.Errorf("config: creating directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(configTemplate), configFilePermissions); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}

	logger.Info("wrote default config", slog.String("path", path))

	return nil
}
