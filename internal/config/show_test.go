package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResolved() *Resolved {
	return &Resolved{
		ConfigPath:     "/etc/profilectl/config.toml",
		DataDir:        "/var/lib/profilectl",
		CatalogPath:    "/var/lib/profilectl/profiles.toml",
		JournalPath:    "/var/lib/profilectl/journal.db",
		LogLevel:       "info",
		LogFormat:      "auto",
		WatchDebounce:  250 * time.Millisecond,
		RescanInterval: time.Minute,
		CloneWorkers:   4,
		Listen:         "127.0.0.1:7487",
		EventBuffer:    16,
	}
}

func TestRenderEffective_ContainsAllSections(t *testing.T) {
	var sb strings.Builder

	err := RenderEffective(testResolved(), &sb)
	require.NoError(t, err)

	out := sb.String()
	for _, section := range []string{"[logging]", "[catalog]", "[workspace]", "[journal]", "[daemon]"} {
		assert.Contains(t, out, section)
	}

	assert.Contains(t, out, `log_level  = "info"`)
	assert.Contains(t, out, `watch_debounce  = "250ms"`)
	assert.Contains(t, out, `data_dir      = "/var/lib/profilectl"`)
	assert.Contains(t, out, `listen       = "127.0.0.1:7487"`)
}

func TestRenderEffective_PropagatesWriteError(t *testing.T) {
	err := RenderEffective(testResolved(), failingWriter{})
	require.Error(t, err)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, assert.AnError
}
