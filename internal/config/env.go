package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig   = "PROFILECTL_CONFIG"
	EnvLogLevel = "PROFILECTL_LOG_LEVEL"
	EnvDataDir  = "PROFILECTL_DATA_DIR"
	EnvListen   = "PROFILECTL_LISTEN"
)

// EnvOverrides holds values derived from environment variables.
// These are resolved by Resolve and made available to callers.
type EnvOverrides struct {
	ConfigPath string // PROFILECTL_CONFIG: override config file path
	LogLevel   string // PROFILECTL_LOG_LEVEL: override log level
	DataDir    string // PROFILECTL_DATA_DIR: override data directory
	Listen     string // PROFILECTL_LISTEN: override daemon listen address
}

// ReadEnvOverrides reads environment variables and returns any overrides found.
// This does not modify the Config; callers apply the relevant fields.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
		LogLevel:   os.Getenv(EnvLogLevel),
		DataDir:    os.Getenv(EnvDataDir),
		Listen:     os.Getenv(EnvListen),
	}
}
