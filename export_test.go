package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportImport_RoundTrip(t *testing.T) {
	srcDir := t.TempDir()

	_, err := runCommand(t, srcDir, "create", "work", "--short-name", "WK")
	require.NoError(t, err)
	_, err = runCommand(t, srcDir, "create", "home")
	require.NoError(t, err)

	out, err := runCommand(t, srcDir, "export")
	require.NoError(t, err)
	assert.Contains(t, out, "profiles:")
	assert.Contains(t, out, "work")
	assert.Contains(t, out, "short_name: WK")

	// Import into a fresh data dir.
	dstDir := t.TempDir()
	docPath := filepath.Join(dstDir, "export.yaml")
	require.NoError(t, os.WriteFile(docPath, []byte(out), 0o644))

	_, err = runCommand(t, dstDir, "import", docPath)
	require.NoError(t, err)

	store := testStore(t, dstDir)

	work, err := store.Find("work")
	require.NoError(t, err)
	assert.Equal(t, "WK", work.ShortName)

	_, err = store.Find("home")
	assert.NoError(t, err)
}

func TestExportCommand_OutputFile(t *testing.T) {
	dataDir := t.TempDir()

	_, err := runCommand(t, dataDir, "create", "work")
	require.NoError(t, err)

	outPath := filepath.Join(dataDir, "backup.yaml")
	_, err = runCommand(t, dataDir, "export", "--output", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "work")
}

func TestImportCommand_SkipsCollisions(t *testing.T) {
	dataDir := t.TempDir()

	_, err := runCommand(t, dataDir, "create", "work")
	require.NoError(t, err)

	doc := `profiles:
  - id: fresh-1
    name: staging
  - id: collide-1
    name: WORK
`
	docPath := filepath.Join(dataDir, "import.yaml")
	require.NoError(t, os.WriteFile(docPath, []byte(doc), 0o644))

	_, err = runCommand(t, dataDir, "import", docPath)
	require.NoError(t, err)

	store := testStore(t, dataDir)

	// staging landed; the name collision was skipped, so WORK's id never
	// entered the catalog.
	_, err = store.Find("staging")
	assert.NoError(t, err)

	_, err = store.Find("collide-1")
	assert.Error(t, err)
}

func TestImportCommand_Replace(t *testing.T) {
	dataDir := t.TempDir()

	_, err := runCommand(t, dataDir, "create", "doomed")
	require.NoError(t, err)

	doc := `profiles:
  - id: fresh-1
    name: staging
`
	docPath := filepath.Join(dataDir, "import.yaml")
	require.NoError(t, os.WriteFile(docPath, []byte(doc), 0o644))

	_, err = runCommand(t, dataDir, "import", docPath, "--replace")
	require.NoError(t, err)

	store := testStore(t, dataDir)

	_, err = store.Find("doomed")
	assert.Error(t, err)

	_, err = store.Find("staging")
	assert.NoError(t, err)

	// The default profile survives a replace.
	_, err = store.Find("default")
	assert.NoError(t, err)
}

func TestExportProfile_RoundTrip(t *testing.T) {
	store := testStore(t, t.TempDir())

	created, err := store.Create("Work", "WK")
	require.NoError(t, err)

	back := toExportProfile(created).profile()
	assert.True(t, created.Equal(back))
}
