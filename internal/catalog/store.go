// Package catalog persists the profile catalog, an ordered TOML file of
// profiles, and turns file mutations into change batches for the
// coordinator. The file is the source of truth: ids are stable uuids,
// names are NFC-normalized and unique, and exactly one profile is the
// default. Transient profiles are never written to disk.
package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/tonimelisma/profilectl/internal/profile"
)

// Stable identity of the built-in default profile. It exists even when the
// catalog file does not.
const (
	DefaultProfileID   = "default"
	DefaultProfileName = "Default"
)

// File and directory permissions for the catalog file.
const (
	catalogFilePermissions = 0o644
	catalogDirPermissions  = 0o755
)

// Sentinel errors for catalog operations.
var (
	ErrNotFound       = errors.New("catalog: profile not found")
	ErrDuplicateName  = errors.New("catalog: profile name already in use")
	ErrEmptyName      = errors.New("catalog: profile name is empty")
	ErrDefaultProfile = errors.New("catalog: the default profile cannot be renamed or removed")
)

// fileCatalog is the on-disk TOML shape: an ordered array of [[profile]]
// tables. File order is catalog order.
type fileCatalog struct {
	Profiles []profile.Profile `toml:"profile"`
}

// StoreConfig carries construction parameters for NewStore.
type StoreConfig struct {
	// Path is the catalog file location (usually profiles.toml under the
	// config directory).
	Path string

	// Logger receives store logging. Required.
	Logger *slog.Logger
}

// Store reads and writes the catalog file. All mutations rewrite the whole
// file atomically (temp file + rename), so watchers never observe a
// partial catalog. Store methods are safe for concurrent use within one
// process; cross-process writers are reconciled through the Watcher.
type Store struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex
}

// NewStore creates a Store for the catalog file at cfg.Path.
func NewStore(cfg StoreConfig) *Store {
	return &Store{
		path:   cfg.Path,
		logger: cfg.Logger,
	}
}

// Path returns the catalog file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the catalog. A missing file is not an error: the built-in
// default profile is returned, supporting the zero-config first run. The
// default profile is guaranteed present (prepended when the file lacks
// one) so the slice is never empty.
func (s *Store) Load() ([]profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

// load is the lock-free inner loader shared by the mutating operations.
func (s *Store) load() ([]profile.Profile, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		s.logger.Debug("catalog file missing, using built-in default",
			slog.String("path", s.path),
		)

		return []profile.Profile{builtinDefault()}, nil
	}

	var fc fileCatalog

	md, err := toml.DecodeFile(s.path, &fc)
	if err != nil {
		return nil, fmt.Errorf("catalog: parsing %s: %w", s.path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}

		return nil, fmt.Errorf("catalog: unknown keys in %s: %s", s.path, strings.Join(keys, ", "))
	}

	profiles := fc.Profiles

	if err := validateCatalog(profiles); err != nil {
		return nil, err
	}

	if !hasDefault(profiles) {
		profiles = append([]profile.Profile{builtinDefault()}, profiles...)
	}

	return profiles, nil
}

// Save writes the catalog atomically. Transient profiles are filtered out:
// they live only in process memory.
func (s *Store) Save(profiles []profile.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(profiles)
}

func (s *Store) save(profiles []profile.Profile) error {
	durable := make([]profile.Profile, 0, len(profiles))
	for _, p := range profiles {
		if p.IsTransient {
			continue
		}

		durable = append(durable, p)
	}

	data, err := toml.Marshal(fileCatalog{Profiles: durable})
	if err != nil {
		return fmt.Errorf("catalog: encoding: %w", err)
	}

	if err := atomicWriteFile(s.path, data); err != nil {
		return fmt.Errorf("catalog: writing %s: %w", s.path, err)
	}

	s.logger.Debug("catalog saved",
		slog.String("path", s.path),
		slog.Int("profiles", len(durable)),
	)

	return nil
}

// Create adds a profile with the given display name and optional short
// name, persists the catalog, and returns the new profile. The name is
// NFC-normalized and must not collide with an existing one.
func (s *Store) Create(name, shortName string) (profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = normalizeName(name)
	if name == "" {
		return profile.Profile{}, ErrEmptyName
	}

	profiles, err := s.load()
	if err != nil {
		return profile.Profile{}, err
	}

	if _, ok := findByName(profiles, name); ok {
		return profile.Profile{}, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	p := profile.Profile{
		ID:        uuid.NewString(),
		Name:      name,
		ShortName: shortName,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	profiles = append(profiles, p)

	if err := s.save(profiles); err != nil {
		return profile.Profile{}, err
	}

	s.logger.Info("profile created",
		slog.String("profile_id", p.ID),
		slog.String("name", p.Name),
	)

	return p, nil
}

// Rename changes a profile's display name. The default profile keeps its
// name; renaming it is refused.
func (s *Store) Rename(id, newName string) (profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newName = normalizeName(newName)
	if newName == "" {
		return profile.Profile{}, ErrEmptyName
	}

	profiles, err := s.load()
	if err != nil {
		return profile.Profile{}, err
	}

	idx := indexByID(profiles, id)
	if idx < 0 {
		return profile.Profile{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	if profiles[idx].IsDefault {
		return profile.Profile{}, ErrDefaultProfile
	}

	if other, ok := findByName(profiles, newName); ok && other.ID != id {
		return profile.Profile{}, fmt.Errorf("%w: %q", ErrDuplicateName, newName)
	}

	old := profiles[idx].Name
	profiles[idx].Name = newName

	if err := s.save(profiles); err != nil {
		return profile.Profile{}, err
	}

	s.logger.Info("profile renamed",
		slog.String("profile_id", id),
		slog.String("from", old),
		slog.String("to", newName),
	)

	return profiles[idx], nil
}

// SetShortName assigns (or clears, with an empty string) a profile's short
// display name.
func (s *Store) SetShortName(id, shortName string) (profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.load()
	if err != nil {
		return profile.Profile{}, err
	}

	idx := indexByID(profiles, id)
	if idx < 0 {
		return profile.Profile{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	profiles[idx].ShortName = shortName

	if err := s.save(profiles); err != nil {
		return profile.Profile{}, err
	}

	return profiles[idx], nil
}

// Remove deletes a profile and returns the removed value. The default
// profile cannot be removed.
func (s *Store) Remove(id string) (profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.load()
	if err != nil {
		return profile.Profile{}, err
	}

	idx := indexByID(profiles, id)
	if idx < 0 {
		return profile.Profile{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	if profiles[idx].IsDefault {
		return profile.Profile{}, ErrDefaultProfile
	}

	removed := profiles[idx]
	profiles = append(profiles[:idx], profiles[idx+1:]...)

	if err := s.save(profiles); err != nil {
		return profile.Profile{}, err
	}

	s.logger.Info("profile removed",
		slog.String("profile_id", removed.ID),
		slog.String("name", removed.Name),
	)

	return removed, nil
}

// Find resolves a profile by id first, then by NFC-normalized,
// case-insensitive name.
func (s *Store) Find(idOrName string) (profile.Profile, error) {
	profiles, err := s.Load()
	if err != nil {
		return profile.Profile{}, err
	}

	if idx := indexByID(profiles, idOrName); idx >= 0 {
		return profiles[idx], nil
	}

	if p, ok := findByName(profiles, idOrName); ok {
		return p, nil
	}

	return profile.Profile{}, fmt.Errorf("%w: %q", ErrNotFound, idOrName)
}

// Replace overwrites the whole catalog with the given profiles. A default
// profile is prepended when the incoming set has none. Used by catalog
// imports in replace mode.
func (s *Store) Replace(profiles []profile.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !hasDefault(profiles) {
		profiles = append([]profile.Profile{builtinDefault()}, profiles...)
	}

	if err := validateCatalog(profiles); err != nil {
		return err
	}

	if err := s.save(profiles); err != nil {
		return err
	}

	s.logger.Info("catalog replaced", slog.Int("profiles", len(profiles)))

	return nil
}

// Import merges incoming profiles into the catalog. Entries whose id or
// normalized name already exists are skipped rather than overwritten.
// Returns how many profiles were added and how many were skipped.
func (s *Store) Import(incoming []profile.Profile) (added, skipped int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.load()
	if err != nil {
		return 0, 0, err
	}

	for _, p := range incoming {
		p.Name = normalizeName(p.Name)

		_, nameTaken := findByName(profiles, p.Name)
		if indexByID(profiles, p.ID) >= 0 || nameTaken {
			skipped++

			continue
		}

		profiles = append(profiles, p)
		added++
	}

	if added == 0 {
		return added, skipped, nil
	}

	if err := validateCatalog(profiles); err != nil {
		return 0, 0, err
	}

	if err := s.save(profiles); err != nil {
		return 0, 0, err
	}

	s.logger.Info("catalog imported",
		slog.Int("added", added),
		slog.Int("skipped", skipped),
	)

	return added, skipped, nil
}

// builtinDefault is the profile used when the catalog has no default.
func builtinDefault() profile.Profile {
	return profile.Profile{
		ID:        DefaultProfileID,
		Name:      DefaultProfileName,
		IsDefault: true,
	}
}

// normalizeName puts a display name into NFC form with surrounding
// whitespace removed, so visually identical names compare equal regardless
// of how the terminal composed them.
func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

func hasDefault(profiles []profile.Profile) bool {
	for i := range profiles {
		if profiles[i].IsDefault {
			return true
		}
	}

	return false
}

func indexByID(profiles []profile.Profile, id string) int {
	for i := range profiles {
		if profiles[i].ID == id {
			return i
		}
	}

	return -1
}

func findByName(profiles []profile.Profile, name string) (profile.Profile, bool) {
	want := normalizeName(name)
	for _, p := range profiles {
		if strings.EqualFold(normalizeName(p.Name), want) {
			return p, true
		}
	}

	return profile.Profile{}, false
}

// validateCatalog rejects files that violate catalog invariants: duplicate
// ids, duplicate normalized names, more than one default, or entries
// without an id or name.
func validateCatalog(profiles []profile.Profile) error {
	ids := make(map[string]bool, len(profiles))
	names := make(map[string]bool, len(profiles))
	defaults := 0

	for _, p := range profiles {
		if p.ID == "" {
			return fmt.Errorf("catalog: profile %q has no id", p.Name)
		}

		if normalizeName(p.Name) == "" {
			return fmt.Errorf("catalog: profile %q has no name", p.ID)
		}

		if ids[p.ID] {
			return fmt.Errorf("catalog: duplicate profile id %q", p.ID)
		}

		ids[p.ID] = true

		lowered := strings.ToLower(normalizeName(p.Name))
		if names[lowered] {
			return fmt.Errorf("catalog: duplicate profile name %q", p.Name)
		}

		names[lowered] = true

		if p.IsDefault {
			defaults++
		}
	}

	if defaults > 1 {
		return fmt.Errorf("catalog: %d profiles marked default, want at most one", defaults)
	}

	return nil
}

// atomicWriteFile writes data to a temporary file in the same directory
// and renames it over the target, so readers and the fsnotify watcher only
// ever see complete catalogs.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, catalogDirPermissions); err != nil {
		return fmt.Errorf("creating catalog directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".catalog-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tempPath := f.Name()

	// Clean up the temp file on any error path.
	succeeded := false
	defer func() {
		if !succeeded {
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()

		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tempPath, catalogFilePermissions); err != nil {
		return fmt.Errorf("setting file permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	succeeded = true

	return nil
}
