package config

// Default values for configuration options. These represent the "layer 0"
// of the four-layer override chain and are chosen so that profilectl works
// for most users without any config file.
const (
	defaultLogLevel       = "info"
	defaultLogFormat      = "auto"
	defaultWatchDebounce  = "250ms"
	defaultRescanInterval = "1m"
	defaultCloneWorkers   = 4
	defaultListen         = "127.0.0.1:7487"
	defaultEventBuffer    = 16
)

// DefaultConfig returns a Config populated with all default values.
// This is used both as the starting point for TOML decoding (so unset
// fields retain defaults) and as the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Logging:   defaultLoggingConfig(),
		Catalog:   defaultCatalogConfig(),
		Workspace: defaultWorkspaceConfig(),
		Journal:   JournalConfig{},
		Daemon:    defaultDaemonConfig(),
	}
}

func defaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
	}
}

func defaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		WatchDebounce:  defaultWatchDebounce,
		RescanInterval: defaultRescanInterval,
	}
}

func defaultWorkspaceConfig() WorkspaceConfig {
	return WorkspaceConfig{
		CloneWorkers: defaultCloneWorkers,
	}
}

func defaultDaemonConfig() DaemonConfig {
	return DaemonConfig{
		Listen:      defaultListen,
		EventBuffer: defaultEventBuffer,
	}
}
