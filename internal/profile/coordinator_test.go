package profile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCoordinator(initial Profile) *Coordinator {
	return NewCoordinator(CoordinatorConfig{
		Initial: initial,
		Logger:  testLogger(),
	})
}

func TestSwitchToCurrentIDIsSilentNoOp(t *testing.T) {
	initial := Profile{ID: "p1", Name: "Work"}
	c := newTestCoordinator(initial)

	var calls int
	c.OnSwitch(func(*SwitchEvent) { calls++ })

	// Same ID with different attributes is still the same profile: the
	// idempotence check is by identity, not by value.
	target := Profile{ID: "p1", Name: "Renamed"}

	require.NoError(t, c.Switch(context.Background(), target, true))
	assert.Zero(t, calls)
	assert.Equal(t, "Work", c.Current().Name)
}

func TestSwitchCommitsBeforeListenersRun(t *testing.T) {
	c := newTestCoordinator(Profile{ID: "p1", Name: "Work"})
	target := Profile{ID: "p2", Name: "Home"}

	var seenInListener, seenInTask string
	c.OnSwitch(func(e *SwitchEvent) {
		seenInListener = c.Current().ID

		e.Join(func(context.Context) error {
			seenInTask = c.Current().ID
			return nil
		})
	})

	require.NoError(t, c.Switch(context.Background(), target, false))
	assert.Equal(t, "p2", seenInListener)
	assert.Equal(t, "p2", seenInTask)
}

func TestSwitchEventCarriesPreviousAndTarget(t *testing.T) {
	c := newTestCoordinator(Profile{ID: "p1", Name: "Work"})

	var got *SwitchEvent
	c.OnSwitch(func(e *SwitchEvent) { got = e })

	require.NoError(t, c.Switch(context.Background(), Profile{ID: "p2", Name: "Home"}, true))

	require.NotNil(t, got)
	assert.Equal(t, "p1", got.Previous.ID)
	assert.Equal(t, "p2", got.Profile.ID)
	assert.True(t, got.PreserveData)
}

func TestSwitchInvokesListenersInRegistrationOrder(t *testing.T) {
	c := newTestCoordinator(Profile{ID: "p1"})

	var order []string
	c.OnSwitch(func(*SwitchEvent) { order = append(order, "L1") })
	c.OnSwitch(func(*SwitchEvent) { order = append(order, "L2") })
	c.OnSwitch(func(*SwitchEvent) { order = append(order, "L3") })

	require.NoError(t, c.Switch(context.Background(), Profile{ID: "p2"}, false))
	assert.Equal(t, []string{"L1", "L2", "L3"}, order)

	// A second switch repeats the same wave exactly once more.
	require.NoError(t, c.Switch(context.Background(), Profile{ID: "p3"}, false))
	assert.Equal(t, []string{"L1", "L2", "L3", "L1", "L2", "L3"}, order)
}

func TestSwitchWaitsForEveryJoinedTask(t *testing.T) {
	c := newTestCoordinator(Profile{ID: "p1"})

	var settled atomic.Int32
	slowTask := func(d time.Duration) Task {
		return func(context.Context) error {
			time.Sleep(d)
			settled.Add(1)

			return nil
		}
	}

	c.OnSwitch(func(e *SwitchEvent) {
		e.Join(slowTask(30 * time.Millisecond))
		e.Join(slowTask(5 * time.Millisecond))
	})
	c.OnSwitch(func(e *SwitchEvent) {
		e.Join(slowTask(15 * time.Millisecond))
	})

	require.NoError(t, c.Switch(context.Background(), Profile{ID: "p2"}, false))
	assert.Equal(t, int32(3), settled.Load())
}

func TestSwitchAggregatesAllTaskFailures(t *testing.T) {
	c := newTestCoordinator(Profile{ID: "p1"})

	errFlush := errors.New("flush failed")
	errCopy := errors.New("copy failed")

	var succeeded atomic.Bool
	c.OnSwitch(func(e *SwitchEvent) {
		e.Join(func(context.Context) error { return errFlush })
		e.Join(func(context.Context) error {
			time.Sleep(10 * time.Millisecond)
			succeeded.Store(true)

			return nil
		})
		e.Join(func(context.Context) error { return errCopy })
	})

	err := c.Switch(context.Background(), Profile{ID: "p2", Name: "Home"}, false)

	// Both failures surface; the task between them still ran to completion.
	require.Error(t, err)
	assert.ErrorIs(t, err, errFlush)
	assert.ErrorIs(t, err, errCopy)
	assert.True(t, succeeded.Load())

	// The commit is never rolled back.
	assert.Equal(t, "p2", c.Current().ID)
}

func TestJoinAfterDispatchIsDropped(t *testing.T) {
	c := newTestCoordinator(Profile{ID: "p1"})

	var escaped *SwitchEvent
	c.OnSwitch(func(e *SwitchEvent) { escaped = e })

	require.NoError(t, c.Switch(context.Background(), Profile{ID: "p2"}, false))
	require.NotNil(t, escaped)

	var ran atomic.Bool
	escaped.Join(func(context.Context) error {
		ran.Store(true)
		return nil
	})

	time.Sleep(20 * time.Millisecond)
	assert.False(t, ran.Load(), "task joined after dispatch must not run")
}

func TestOnSwitchRemoveStopsDelivery(t *testing.T) {
	c := newTestCoordinator(Profile{ID: "p1"})

	var first, second int
	remove := c.OnSwitch(func(*SwitchEvent) { first++ })
	c.OnSwitch(func(*SwitchEvent) { second++ })

	remove()
	remove() // idempotent

	require.NoError(t, c.Switch(context.Background(), Profile{ID: "p2"}, false))
	assert.Zero(t, first)
	assert.Equal(t, 1, second)
}

func TestSwitchWithoutListeners(t *testing.T) {
	c := newTestCoordinator(Profile{ID: "p1"})

	require.NoError(t, c.Switch(context.Background(), Profile{ID: "p2", Name: "Home"}, false))
	assert.Equal(t, "Home", c.Current().Name)
}

func TestReconcileReplacesCurrentInPlace(t *testing.T) {
	c := newTestCoordinator(Profile{ID: "p1", Name: "Work"})

	var updates, switches int
	c.OnUpdate(func() { updates++ })
	c.OnSwitch(func(*SwitchEvent) { switches++ })

	c.Reconcile(ChangeSet{
		Updated: []Profile{
			{ID: "p9", Name: "Other"},
			{ID: "p1", Name: "Work (renamed)"},
		},
	})

	assert.Equal(t, "Work (renamed)", c.Current().Name)
	assert.Equal(t, 1, updates)
	assert.Zero(t, switches, "reconciliation must not fire change listeners")
}

func TestReconcileFirstMatchInCatalogOrderWins(t *testing.T) {
	c := newTestCoordinator(Profile{ID: "p1", Name: "Work"})

	c.Reconcile(ChangeSet{
		Updated: []Profile{
			{ID: "p1", Name: "First"},
			{ID: "p1", Name: "Second"},
		},
	})

	assert.Equal(t, "First", c.Current().Name)
}

func TestReconcileIgnoresNonMatchingBatches(t *testing.T) {
	c := newTestCoordinator(Profile{ID: "p1", Name: "Work"})

	var updates int
	c.OnUpdate(func() { updates++ })

	c.Reconcile(ChangeSet{
		Added:   []Profile{{ID: "p7", Name: "New"}},
		Updated: []Profile{{ID: "p9", Name: "Other"}},
		Removed: []string{"p8"},
	})

	assert.Zero(t, updates)
	assert.Equal(t, "Work", c.Current().Name)
}

func TestReconcileIsolatesPanickingListener(t *testing.T) {
	c := newTestCoordinator(Profile{ID: "p1", Name: "Work"})

	var survived int
	c.OnUpdate(func() { panic("listener bug") })
	c.OnUpdate(func() { survived++ })

	require.NotPanics(t, func() {
		c.Reconcile(ChangeSet{Updated: []Profile{{ID: "p1", Name: "Work v2"}}})
	})

	assert.Equal(t, 1, survived)
	assert.Equal(t, "Work v2", c.Current().Name)
}

func TestOnUpdateRemoveStopsDelivery(t *testing.T) {
	c := newTestCoordinator(Profile{ID: "p1"})

	var calls int
	remove := c.OnUpdate(func() { calls++ })
	remove()

	c.Reconcile(ChangeSet{Updated: []Profile{{ID: "p1", Name: "v2"}}})
	assert.Zero(t, calls)
}

func TestChangeSetEmpty(t *testing.T) {
	assert.True(t, ChangeSet{}.Empty())
	assert.False(t, ChangeSet{Removed: []string{"p1"}}.Empty())
}
