// Package workspace owns per-profile state on disk: each profile gets a
// directory for its data, and the active profile is persisted so the next
// process start resumes where the last one left off. It plugs into the
// coordinator as a change listener, doing its work through the switch
// event's join barrier.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/tonimelisma/profilectl/internal/profile"
)

// Layout and permission constants.
const (
	workspacesDirName = "workspaces"
	activeFileName    = "active.toml"

	dirPermissions  = 0o755
	filePermissions = 0o644
)

// defaultCloneWorkers bounds the parallel file copies during a
// preserve-data clone.
const defaultCloneWorkers = 4

// activeFile is the on-disk TOML shape of the persisted active profile.
type activeFile struct {
	ID         string    `toml:"id"`
	Name       string    `toml:"name"`
	SwitchedAt time.Time `toml:"switched_at"`
}

// ManagerConfig carries construction parameters for NewManager.
type ManagerConfig struct {
	// Root is the data directory (workspaces and the active-profile file
	// live under it).
	Root string

	// Logger receives workspace logging. Required.
	Logger *slog.Logger

	// CloneWorkers bounds parallel file copies. Zero means
	// defaultCloneWorkers.
	CloneWorkers int
}

// Manager materializes profiles on disk. The coordinator stays free of
// persistence; the manager subscribes to it instead.
type Manager struct {
	root         string
	logger       *slog.Logger
	cloneWorkers int
}

// NewManager creates a Manager rooted at cfg.Root. No filesystem work
// happens until a profile is ensured or persisted.
func NewManager(cfg ManagerConfig) *Manager {
	workers := cfg.CloneWorkers
	if workers <= 0 {
		workers = defaultCloneWorkers
	}

	return &Manager{
		root:         cfg.Root,
		logger:       cfg.Logger,
		cloneWorkers: workers,
	}
}

// Dir returns the profile's state directory. It is not created here.
func (m *Manager) Dir(p profile.Profile) string {
	return filepath.Join(m.root, workspacesDirName, p.ID)
}

// Ensure creates the profile's state directory if missing and returns it.
func (m *Manager) Ensure(p profile.Profile) (string, error) {
	dir := m.Dir(p)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return "", fmt.Errorf("workspace: creating %s: %w", dir, err)
	}

	return dir, nil
}

// activePath returns the active-profile file location.
func (m *Manager) activePath() string {
	return filepath.Join(m.root, activeFileName)
}

// SaveActive persists p as the active profile. Transient profiles are
// deliberately not persisted: they exist for one process lifetime, and the
// next start falls back to whatever was active before (or the default).
func (m *Manager) SaveActive(p profile.Profile) error {
	if p.IsTransient {
		m.logger.Debug("not persisting transient profile as active",
			slog.String("profile_id", p.ID),
		)

		return nil
	}

	data, err := toml.Marshal(activeFile{
		ID:         p.ID,
		Name:       p.Name,
		SwitchedAt: time.Now().UTC().Truncate(time.Second),
	})
	if err != nil {
		return fmt.Errorf("workspace: encoding active profile: %w", err)
	}

	if err := atomicWriteFile(m.activePath(), data); err != nil {
		return fmt.Errorf("workspace: writing active profile: %w", err)
	}

	return nil
}

// LoadActiveID returns the persisted active profile id, or empty when
// nothing has been persisted yet.
func (m *Manager) LoadActiveID() (string, error) {
	var af activeFile

	_, err := toml.DecodeFile(m.activePath(), &af)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("workspace: reading active profile: %w", err)
	}

	return af.ID, nil
}

// ResolveInitial picks the profile a new process should consider current:
// the persisted active profile when the catalog still knows its id,
// otherwise the catalog's default. A stale or unreadable active file is
// not an error; startup always succeeds with the default.
func (m *Manager) ResolveInitial(profiles []profile.Profile) profile.Profile {
	id, err := m.LoadActiveID()
	if err != nil {
		m.logger.Warn("ignoring unreadable active-profile file",
			slog.String("error", err.Error()),
		)
	}

	if id != "" {
		for _, p := range profiles {
			if p.ID == id {
				return p
			}
		}

		m.logger.Info("persisted active profile no longer in catalog, falling back to default",
			slog.String("profile_id", id),
		)
	}

	for _, p := range profiles {
		if p.IsDefault {
			return p
		}
	}

	// The catalog guarantees a default; an empty catalog slice is a
	// programming error upstream. Degrade to a zero profile rather than
	// panic.
	return profile.Profile{}
}

// HandleSwitch is the manager's change listener. It joins the work that
// makes a switch durable: ensuring the target's state directory and
// persisting the active profile, plus cloning the previous profile's state
// when the event asks for data preservation. Registered via
// Coordinator.OnSwitch.
func (m *Manager) HandleSwitch(e *profile.SwitchEvent) {
	target := e.Profile
	previous := e.Previous

	e.Join(func(context.Context) error {
		if _, err := m.Ensure(target); err != nil {
			return err
		}

		return m.SaveActive(target)
	})

	if e.PreserveData {
		e.Join(func(ctx context.Context) error {
			return m.Clone(ctx, previous, target)
		})
	}
}

// HandleUpdate re-persists the active profile after an in-place update
// (e.g. a rename of the current profile). Update listeners cannot fail, so
// errors are logged and swallowed.
func (m *Manager) HandleUpdate(current profile.Profile) {
	if err := m.SaveActive(current); err != nil {
		m.logger.Warn("refreshing active profile after update failed",
			slog.String("profile_id", current.ID),
			slog.String("error", err.Error()),
		)
	}
}
