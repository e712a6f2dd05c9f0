package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCommand_AddsProfile(t *testing.T) {
	dataDir := t.TempDir()

	out, err := runCommand(t, dataDir, "--json", "create", "Client X", "--short-name", "CX")
	require.NoError(t, err)

	var created struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		ShortName string `json:"short_name"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &created))

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Client X", created.Name)
	assert.Equal(t, "CX", created.ShortName)

	stored, err := testStore(t, dataDir).Find("Client X")
	require.NoError(t, err)
	assert.Equal(t, created.ID, stored.ID)
	assert.Equal(t, "CX", stored.Short())
}

func TestCreateCommand_DuplicateName(t *testing.T) {
	dataDir := t.TempDir()

	_, err := runCommand(t, dataDir, "create", "work")
	require.NoError(t, err)

	_, err = runCommand(t, dataDir, "create", "WORK")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already in use")
}

func TestCreateCommand_EmptyName(t *testing.T) {
	dataDir := t.TempDir()

	_, err := runCommand(t, dataDir, "create", "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}
