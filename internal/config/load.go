package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Resolved is the fully merged configuration after the four-layer override
// chain has been applied. Paths are absolute, durations are parsed, and all
// values have been validated. The rest of the program consumes this struct
// rather than the raw Config.
type Resolved struct {
	ConfigPath     string        `json:"config_path"`
	DataDir        string        `json:"data_dir"`
	CatalogPath    string        `json:"catalog_path"`
	JournalPath    string        `json:"journal_path"`
	LogLevel       string        `json:"log_level"`
	LogFormat      string        `json:"log_format"`
	WatchDebounce  time.Duration `json:"watch_debounce"`
	RescanInterval time.Duration `json:"rescan_interval"`
	CloneWorkers   int           `json:"clone_workers"`
	Listen         string        `json:"listen"`
	EventBuffer    int           `json:"event_buffer"`
}

// Load reads and parses a TOML config file, validates it, and returns the
// resulting Config. Unknown keys are treated as fatal errors with "did you
// mean?" suggestions. This strictness is deliberate because silently
// ignoring a typo in a config file leads to hard-to-debug behavior.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(&md); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns
// a Config populated with all default values. This supports the zero-config
// first-run experience: users can start without creating a config file.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// ResolveConfigPath applies the config-path precedence chain on its own:
// CLI flag > environment > platform default. Exposed for commands that
// need the path without loading the file (config path, config init).
func ResolveConfigPath(env EnvOverrides, cli CLIOverrides) string {
	cfgPath := DefaultConfigPath()
	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
	}

	if cli.ConfigPath != "" {
		cfgPath = cli.ConfigPath
	}

	return cfgPath
}

// Resolve loads configuration and applies the four-layer override chain:
// defaults -> config file -> environment variables -> CLI flags.
// It returns a fully resolved and validated configuration ready for use.
// The precedence order ensures CLI flags always win, matching user
// expectations for one-off overrides without editing the config file.
func Resolve(env EnvOverrides, cli CLIOverrides) (*Resolved, error) {
	// 1. Resolve config path: CLI > env > default
	cfgPath := ResolveConfigPath(env, cli)

	// 2. Load config file (returns defaults if no file exists)
	cfg, err := LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}

	// 3. Apply env overrides
	if env.LogLevel != "" {
		cfg.Logging.LogLevel = env.LogLevel
	}

	if env.DataDir != "" {
		cfg.Workspace.DataDir = env.DataDir
	}

	if env.Listen != "" {
		cfg.Daemon.Listen = env.Listen
	}

	// 4. Apply CLI overrides (pointer fields: nil = not specified)
	if cli.LogLevel != "" {
		cfg.Logging.LogLevel = cli.LogLevel
	}

	if cli.DataDir != nil {
		cfg.Workspace.DataDir = *cli.DataDir
	}

	if cli.Listen != nil {
		cfg.Daemon.Listen = *cli.Listen
	}

	// 5. Resolve the data directory, falling back to the platform default
	dataDir := expandTilde(cfg.Workspace.DataDir)
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}

	// 6. Derive catalog and journal paths from the data directory unless
	// the config pins them explicitly
	catalogPath := expandTilde(cfg.Catalog.Path)
	if catalogPath == "" {
		catalogPath = filepath.Join(dataDir, catalogFileName)
	}

	journalPath := expandTilde(cfg.Journal.Path)
	if journalPath == "" {
		journalPath = filepath.Join(dataDir, journalFileName)
	}

	// 7. Parse duration strings (already validated by Load, but overrides
	// may have introduced new values)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	if cfg.Catalog.WatchDebounce == "" {
		cfg.Catalog.WatchDebounce = defaultWatchDebounce
	}

	if cfg.Catalog.RescanInterval == "" {
		cfg.Catalog.RescanInterval = defaultRescanInterval
	}

	debounce, err := time.ParseDuration(cfg.Catalog.WatchDebounce)
	if err != nil {
		return nil, fmt.Errorf("config: parsing watch_debounce: %w", err)
	}

	rescan, err := time.ParseDuration(cfg.Catalog.RescanInterval)
	if err != nil {
		return nil, fmt.Errorf("config: parsing rescan_interval: %w", err)
	}

	resolved := &Resolved{
		ConfigPath:     cfgPath,
		DataDir:        dataDir,
		CatalogPath:    catalogPath,
		JournalPath:    journalPath,
		LogLevel:       cfg.Logging.LogLevel,
		LogFormat:      cfg.Logging.LogFormat,
		WatchDebounce:  debounce,
		RescanInterval: rescan,
		CloneWorkers:   cfg.Workspace.CloneWorkers,
		Listen:         cfg.Daemon.Listen,
		EventBuffer:    cfg.Daemon.EventBuffer,
	}

	// 8. Validate cross-field constraints on the final merged result
	if err := ValidateResolved(resolved); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return resolved, nil
}

// ValidateResolved checks constraints that only make sense on the final
// merged result, after the four-layer override chain has been applied.
func ValidateResolved(r *Resolved) error {
	var errs []error

	// DataDir must be absolute after tilde expansion and env/CLI overrides.
	// Relative paths would resolve differently depending on cwd.
	if r.DataDir != "" && !filepath.IsAbs(r.DataDir) {
		errs = append(errs, fmt.Errorf("data_dir: must be absolute after expansion, got %q", r.DataDir))
	}

	return errors.Join(errs...)
}
