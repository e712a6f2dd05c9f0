package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigPathCommand_FlagWins(t *testing.T) {
	dataDir := t.TempDir()
	cfgPath := filepath.Join(dataDir, "custom.toml")

	// config path answers even though the file doesn't exist.
	out, err := runCommand(t, dataDir, "--config", cfgPath, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, cfgPath+"\n", out)
}

func TestConfigPathCommand_EnvWins(t *testing.T) {
	dataDir := t.TempDir()
	envPath := filepath.Join(dataDir, "env.toml")

	clearEnvOverrides(t)
	t.Setenv("PROFILECTL_CONFIG", envPath)

	oldCfg := resolvedCfg
	t.Cleanup(func() { resolvedCfg = oldCfg })

	cmd := newRootCmd()
	cmd.SetArgs([]string{"config", "path"})

	out := captureStdout(t, func() {
		require.NoError(t, cmd.Execute())
	})

	assert.Equal(t, envPath+"\n", out)
}

func TestConfigInitCommand_WritesStarterFile(t *testing.T) {
	dataDir := t.TempDir()
	cfgPath := filepath.Join(dataDir, "sub", "config.toml")

	_, err := runCommand(t, dataDir, "--config", cfgPath, "config", "init")
	require.NoError(t, err)

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[daemon]")

	// Second init refuses to overwrite.
	_, err = runCommand(t, dataDir, "--config", cfgPath, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestConfigShowCommand_PrintsSections(t *testing.T) {
	dataDir := t.TempDir()

	out, err := runCommand(t, dataDir, "config", "show")
	require.NoError(t, err)

	for _, section := range []string{"[logging]", "[catalog]", "[workspace]", "[journal]", "[daemon]"} {
		assert.Contains(t, out, section)
	}

	assert.Contains(t, out, dataDir)
}

func TestConfigShowCommand_JSON(t *testing.T) {
	dataDir := t.TempDir()

	out, err := runCommand(t, dataDir, "--json", "config", "show")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "{"))
	assert.Contains(t, out, `"listen"`)
	assert.Contains(t, out, `"data_dir"`)
}
