package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tonimelisma/profilectl/internal/catalog"
	"github.com/tonimelisma/profilectl/internal/config"
	"github.com/tonimelisma/profilectl/internal/journal"
	"github.com/tonimelisma/profilectl/internal/profile"
	"github.com/tonimelisma/profilectl/internal/workspace"
)

// Session holds the wired profile stack for a single command invocation:
// catalog store, workspace manager, coordinator seeded from the persisted
// active profile, and the switch journal. Replaces ad-hoc per-command
// construction with a single type so listener registration happens in
// exactly one place.
type Session struct {
	Config      *config.Resolved
	Logger      *slog.Logger
	Store       *catalog.Store
	Workspaces  *workspace.Manager
	Coordinator *profile.Coordinator
	Journal     *journal.Journal
}

// newSession builds a Session from resolved config. The workspace manager
// is registered on the coordinator before the session is returned, so every
// switch made through it is durable.
func newSession(ctx context.Context, logger *slog.Logger) (*Session, error) {
	store := newStore(logger)

	profiles, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	manager := newWorkspaceManager(logger)

	coord := profile.NewCoordinator(profile.CoordinatorConfig{
		Initial: manager.ResolveInitial(profiles),
		Logger:  logger,
	})

	coord.OnSwitch(manager.HandleSwitch)
	coord.OnUpdate(func() {
		manager.HandleUpdate(coord.Current())
	})

	jnl, err := journal.Open(ctx, journal.Config{
		Path:   resolvedCfg.JournalPath,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	return &Session{
		Config:      resolvedCfg,
		Logger:      logger,
		Store:       store,
		Workspaces:  manager,
		Coordinator: coord,
		Journal:     jnl,
	}, nil
}

// Close releases session resources.
func (s *Session) Close() error {
	return s.Journal.Close()
}

// newStore builds the catalog store on its own, for read-mostly commands
// that don't need the coordinator or the journal.
func newStore(logger *slog.Logger) *catalog.Store {
	return catalog.NewStore(catalog.StoreConfig{
		Path:   resolvedCfg.CatalogPath,
		Logger: logger,
	})
}

// newWorkspaceManager builds the workspace manager on its own.
func newWorkspaceManager(logger *slog.Logger) *workspace.Manager {
	return workspace.NewManager(workspace.ManagerConfig{
		Root:         resolvedCfg.DataDir,
		Logger:       logger,
		CloneWorkers: resolvedCfg.CloneWorkers,
	})
}
