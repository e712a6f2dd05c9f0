package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryCommand_RejectsBadLimit(t *testing.T) {
	dataDir := t.TempDir()

	_, err := runCommand(t, dataDir, "history", "--limit", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")
}

func TestHistoryCommand_EmptyJournal(t *testing.T) {
	dataDir := t.TempDir()

	out, err := runCommand(t, dataDir, "history")
	require.NoError(t, err)

	// Nothing on stdout; the "no entries" note goes to stderr and --quiet
	// suppresses it.
	assert.Empty(t, out)
}

func TestHistoryCommand_TableOutput(t *testing.T) {
	dataDir := t.TempDir()

	_, err := runCommand(t, dataDir, "create", "work")
	require.NoError(t, err)
	_, err = runCommand(t, dataDir, "use", "work")
	require.NoError(t, err)

	out, err := runCommand(t, dataDir, "history")
	require.NoError(t, err)

	assert.Contains(t, out, "KIND")
	assert.Contains(t, out, "OUTCOME")
	assert.Contains(t, out, "switch")
	assert.Contains(t, out, "work")
	assert.Contains(t, out, "ok")
}

func TestNewServeCmd_Structure(t *testing.T) {
	cmd := newServeCmd()
	assert.Equal(t, "serve", cmd.Name())
	assert.NotEmpty(t, cmd.Short)
	assert.NotNil(t, cmd.RunE)
}

func TestNewWatchCmd_Structure(t *testing.T) {
	cmd := newWatchCmd()
	assert.Equal(t, "watch", cmd.Name())
	assert.NotEmpty(t, cmd.Short)
	assert.NotNil(t, cmd.RunE)
}
