package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowCommand_CurrentByDefault(t *testing.T) {
	dataDir := t.TempDir()

	out, err := runCommand(t, dataDir, "show")
	require.NoError(t, err)

	assert.Contains(t, out, "Name:       Default")
	assert.Contains(t, out, "Short:      *")
	assert.Contains(t, out, "Default:    yes")
	assert.Contains(t, out, "Current:    yes")
	assert.Contains(t, out, "Workspace:")
}

func TestShowCommand_ByName(t *testing.T) {
	dataDir := t.TempDir()

	_, err := runCommand(t, dataDir, "create", "work")
	require.NoError(t, err)

	out, err := runCommand(t, dataDir, "show", "work")
	require.NoError(t, err)

	assert.Contains(t, out, "Name:       work")
	assert.Contains(t, out, "Short:      WO")
	assert.Contains(t, out, "Current:    no")
}

func TestShowCommand_JSON(t *testing.T) {
	dataDir := t.TempDir()

	_, err := runCommand(t, dataDir, "create", "work")
	require.NoError(t, err)

	out, err := runCommand(t, dataDir, "--json", "show", "work")
	require.NoError(t, err)

	var detail showDetail
	require.NoError(t, json.Unmarshal([]byte(out), &detail))

	assert.Equal(t, "work", detail.Name)
	assert.Equal(t, "WO", detail.Short)
	assert.False(t, detail.Current)
	assert.NotEmpty(t, detail.Workspace)
}

func TestShowCommand_Unknown(t *testing.T) {
	dataDir := t.TempDir()

	_, err := runCommand(t, dataDir, "show", "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
