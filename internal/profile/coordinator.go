package profile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tonimelisma/profilectl/pkg/registry"
)

// ChangeSet is one batch from the catalog change feed. Added and Updated
// carry full profile snapshots in catalog order; Removed carries ids.
type ChangeSet struct {
	Added   []Profile
	Updated []Profile
	Removed []string
}

// Empty reports whether the batch carries no changes at all.
func (c ChangeSet) Empty() bool {
	return len(c.Added) == 0 && len(c.Updated) == 0 && len(c.Removed) == 0
}

// CoordinatorConfig carries construction parameters for NewCoordinator.
type CoordinatorConfig struct {
	// Initial is the profile considered current at startup.
	Initial Profile

	// Logger receives coordinator lifecycle logging. Required.
	Logger *slog.Logger
}

// Coordinator owns the process-wide notion of "current profile". It
// executes switches requested by callers, announcing each one to change
// listeners and waiting for the asynchronous work they join, and it
// reconciles in-place catalog updates to the current profile. It holds no
// policy: whether a switch should happen, and persistence of the result,
// are the caller's concern.
//
// Switch calls on the same Coordinator must not overlap; the embedding
// system serializes them (the daemon holds a mutex around Switch, the CLI
// is single-shot).
type Coordinator struct {
	logger *slog.Logger

	mu      sync.RWMutex
	current Profile

	switchListeners *registry.Registry[func(*SwitchEvent)]
	updateListeners *registry.Registry[func()]
}

// NewCoordinator creates a Coordinator holding cfg.Initial as the current
// profile.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	return &Coordinator{
		logger:          cfg.Logger,
		current:         cfg.Initial,
		switchListeners: registry.New[func(*SwitchEvent)](),
		updateListeners: registry.New[func()](),
	}
}

// Current returns the profile that is current right now. It never blocks
// beyond the read lock and is safe from any goroutine.
func (c *Coordinator) Current() Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.current
}

// OnSwitch registers a change listener, invoked synchronously for every
// non-no-op switch in registration order, exactly once per switch. The
// returned function removes the listener and is idempotent.
func (c *Coordinator) OnSwitch(fn func(*SwitchEvent)) (remove func()) {
	return c.switchListeners.Add(fn)
}

// OnUpdate registers a listener for in-place updates of the current
// profile. Update listeners receive no payload; they re-read Current for
// the new value. The returned function removes the listener.
func (c *Coordinator) OnUpdate(fn func()) (remove func()) {
	return c.updateListeners.Add(fn)
}

// Switch makes target the current profile.
//
// Switching to the already-current profile (same ID) is a silent no-op:
// no listeners fire, no work runs, nil is returned regardless of
// preserveData.
//
// Otherwise the new value is committed immediately: Current observes
// target before any listener or joined task runs. Change listeners are
// then invoked synchronously in registration order, each receiving the
// same SwitchEvent and optionally joining tasks. Switch waits for every
// joined task to settle, even when some fail, and returns the aggregated
// failures. The commit is never rolled back: a non-nil return means one
// or more listeners failed to acknowledge the switch, not that the switch
// didn't happen.
//
// ctx is handed through to joined tasks. The wait itself has no timeout
// and no cancellation; Switch returns only after every task has settled.
func (c *Coordinator) Switch(ctx context.Context, target Profile, preserveData bool) error {
	c.mu.Lock()
	if target.ID == c.current.ID {
		c.mu.Unlock()

		c.logger.Debug("switch target is already current",
			slog.String("profile_id", target.ID),
		)

		return nil
	}

	previous := c.current
	c.current = target
	c.mu.Unlock()

	c.logger.Info("switching profile",
		slog.String("from", previous.Name),
		slog.String("to", target.Name),
		slog.String("profile_id", target.ID),
		slog.Bool("preserve_data", preserveData),
	)

	event := &SwitchEvent{
		Previous:     previous,
		Profile:      target,
		PreserveData: preserveData,
		joiner:       newJoiner(c.logger),
	}

	for _, listener := range c.switchListeners.Snapshot() {
		listener(event)
	}

	tasks := event.joiner.seal()

	if err := event.joiner.settle(ctx, tasks); err != nil {
		return fmt.Errorf("profile: switch to %q: %w", target.Name, err)
	}

	c.logger.Debug("switch complete",
		slog.String("profile_id", target.ID),
		slog.Int("tasks", len(tasks)),
	)

	return nil
}

// Reconcile applies one catalog change batch. If an updated entry matches
// the current profile's ID, the first such entry in catalog order replaces
// the current value, and every update listener is then invoked
// synchronously with no payload. This is a passive attribute refresh, not
// a switch: change listeners never fire and there is nothing to join.
//
// Reconcile never fails. A panicking update listener is recovered and
// logged, and the remaining listeners still run. Batches whose updates
// don't touch the current profile cause no state change and no dispatch;
// Added and Removed entries are ignored here (consumers such as the
// daemon react to those).
func (c *Coordinator) Reconcile(changes ChangeSet) {
	var updated *Profile

	c.mu.Lock()
	for i := range changes.Updated {
		if changes.Updated[i].ID == c.current.ID {
			c.current = changes.Updated[i]
			updated = &changes.Updated[i]

			break
		}
	}
	c.mu.Unlock()

	if updated == nil {
		return
	}

	c.logger.Info("current profile updated in place",
		slog.String("profile_id", updated.ID),
		slog.String("name", updated.Name),
	)

	for _, listener := range c.updateListeners.Snapshot() {
		c.notifyUpdate(listener)
	}
}

// notifyUpdate shields the reconciliation path from a misbehaving
// listener: its panic must not reach the catalog feed or block the other
// listeners.
func (c *Coordinator) notifyUpdate(listener func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("update listener panicked",
				slog.Any("panic", r),
			)
		}
	}()

	listener()
}
