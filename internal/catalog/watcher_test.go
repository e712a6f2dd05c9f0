package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/profilectl/internal/profile"
)

// startWatcher runs a Watcher against the store with a short debounce and
// returns a channel of delivered batches plus a stop function.
func startWatcher(t *testing.T, s *Store) (<-chan profile.ChangeSet, func()) {
	t.Helper()

	batches := make(chan profile.ChangeSet, 16)

	w := NewWatcher(WatcherConfig{
		Store:    s,
		Logger:   testLogger(),
		Debounce: 20 * time.Millisecond,
		Rescan:   time.Hour, // keep the safety net out of timing-sensitive tests
		Notify: func(changes profile.ChangeSet, _ []profile.Profile) {
			batches <- changes
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- w.Watch(ctx) }()

	// Give the watcher a moment to take its initial snapshot and arm the
	// fs watch before the test mutates the catalog.
	time.Sleep(50 * time.Millisecond)

	stop := func() {
		cancel()
		require.NoError(t, <-done)
	}

	return batches, stop
}

func waitForBatch(t *testing.T, batches <-chan profile.ChangeSet) profile.ChangeSet {
	t.Helper()

	select {
	case changes := <-batches:
		return changes
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for catalog change batch")
		return profile.ChangeSet{}
	}
}

func TestWatcherReportsCreate(t *testing.T) {
	s := newTestStore(t)

	batches, stop := startWatcher(t, s)
	defer stop()

	created, err := s.Create("Work", "")
	require.NoError(t, err)

	changes := waitForBatch(t, batches)

	require.Len(t, changes.Added, 1)
	assert.Equal(t, created.ID, changes.Added[0].ID)
	assert.Empty(t, changes.Removed)
}

func TestWatcherReportsUpdateAndRemove(t *testing.T) {
	s := newTestStore(t)

	created, err := s.Create("Work", "")
	require.NoError(t, err)

	batches, stop := startWatcher(t, s)
	defer stop()

	_, err = s.Rename(created.ID, "Deep Work")
	require.NoError(t, err)

	changes := waitForBatch(t, batches)
	require.Len(t, changes.Updated, 1)
	assert.Equal(t, "Deep Work", changes.Updated[0].Name)

	_, err = s.Remove(created.ID)
	require.NoError(t, err)

	changes = waitForBatch(t, batches)
	assert.Equal(t, []string{created.ID}, changes.Removed)
}

func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	s := newTestStore(t)

	batches, stop := startWatcher(t, s)
	defer stop()

	// A sibling file in the watched directory must not produce a batch.
	require.NoError(t, atomicWriteFile(s.Path()+".bak", []byte("x = 1\n")))

	select {
	case changes := <-batches:
		t.Fatalf("unexpected batch: %+v", changes)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestTimeSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := timeSleep(ctx, time.Hour)

	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
