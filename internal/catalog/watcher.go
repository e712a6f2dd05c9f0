package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tonimelisma/profilectl/internal/profile"
)

// Watch loop tuning.
const (
	defaultDebounce = 250 * time.Millisecond
	defaultRescan   = time.Minute

	watchErrInitBackoff = 100 * time.Millisecond
	watchErrMaxBackoff  = 5 * time.Second
	watchErrBackoffMult = 2
)

// NotifyFunc receives every non-empty change batch together with the full
// snapshot it produced. Called from the watcher's goroutine; implementations
// decide their own dispatch.
type NotifyFunc func(changes profile.ChangeSet, profiles []profile.Profile)

// WatcherConfig carries construction parameters for NewWatcher.
type WatcherConfig struct {
	// Store is the catalog being watched.
	Store *Store

	// Logger receives watcher logging. Required.
	Logger *slog.Logger

	// Debounce is how long to wait after the last file event before
	// reloading. Zero means defaultDebounce. Editors and atomic renames
	// produce event bursts; one reload per burst is enough.
	Debounce time.Duration

	// Rescan is the safety-net interval for a full reload even without
	// file events (covers missed events, e.g. on network filesystems).
	// Zero means defaultRescan.
	Rescan time.Duration

	// Notify receives change batches. Required.
	Notify NotifyFunc
}

// Watcher tails the catalog file and reports changes as diffs against the
// last snapshot it delivered.
type Watcher struct {
	store    *Store
	logger   *slog.Logger
	debounce time.Duration
	rescan   time.Duration
	notify   NotifyFunc

	prev []profile.Profile
}

// NewWatcher creates a Watcher. Call Watch to start it.
func NewWatcher(cfg WatcherConfig) *Watcher {
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	rescan := cfg.Rescan
	if rescan <= 0 {
		rescan = defaultRescan
	}

	return &Watcher{
		store:    cfg.Store,
		logger:   cfg.Logger,
		debounce: debounce,
		rescan:   rescan,
		notify:   cfg.Notify,
	}
}

// Watch loads the initial snapshot and then blocks, reloading the catalog
// after file events (debounced) and on the rescan interval, until ctx is
// done. The catalog file's directory is watched rather than the file
// itself because atomic writes replace the file by rename.
func (w *Watcher) Watch(ctx context.Context) error {
	initial, err := w.store.Load()
	if err != nil {
		return fmt.Errorf("catalog: initial load: %w", err)
	}

	w.prev = initial

	dir := filepath.Dir(w.store.Path())
	if err := os.MkdirAll(dir, catalogDirPermissions); err != nil {
		return fmt.Errorf("catalog: creating watch directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("catalog: creating fs watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("catalog: watching %s: %w", dir, err)
	}

	w.logger.Info("catalog watcher started",
		slog.String("path", w.store.Path()),
		slog.Duration("debounce", w.debounce),
		slog.Duration("rescan", w.rescan),
	)

	return w.watchLoop(ctx, fsw)
}

// watchLoop is the main select loop for Watch. It debounces file events,
// runs the periodic rescan, and backs off on watcher errors.
func (w *Watcher) watchLoop(ctx context.Context, fsw *fsnotify.Watcher) error {
	rescanTicker := time.NewTicker(w.rescan)
	defer rescanTicker.Stop()

	// The debounce timer starts stopped; each relevant event re-arms it.
	debounce := time.NewTimer(w.debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	errBackoff := watchErrInitBackoff

	base := filepath.Base(w.store.Path())

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("catalog watcher stopping")
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}

			if filepath.Base(ev.Name) != base {
				continue
			}

			// Mode changes alone don't alter catalog content.
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}

			w.logger.Debug("catalog file event",
				slog.String("op", ev.Op.String()),
			)

			debounce.Reset(w.debounce)
			errBackoff = watchErrInitBackoff

		case <-debounce.C:
			w.reload(false)

		case <-rescanTicker.C:
			w.reload(true)

		case watchErr, ok := <-fsw.Errors:
			if !ok {
				return nil
			}

			w.logger.Warn("catalog watcher error",
				slog.String("error", watchErr.Error()),
				slog.Duration("backoff", errBackoff),
			)

			// Exponential backoff prevents a tight loop under sustained
			// errors (e.g. kernel event buffer overflow).
			if sleepErr := timeSleep(ctx, errBackoff); sleepErr != nil {
				return nil
			}

			errBackoff *= watchErrBackoffMult
			if errBackoff > watchErrMaxBackoff {
				errBackoff = watchErrMaxBackoff
			}
		}
	}
}

// reload re-reads the catalog, diffs it against the last delivered
// snapshot, and notifies when anything changed. Load failures keep the
// previous snapshot: a half-written file (non-atomic external editor) will
// be picked up by a later event or the rescan.
func (w *Watcher) reload(rescan bool) {
	next, err := w.store.Load()
	if err != nil {
		w.logger.Warn("catalog reload failed, keeping previous snapshot",
			slog.String("error", err.Error()),
		)

		return
	}

	changes := Diff(w.prev, next)
	if changes.Empty() {
		if !rescan {
			w.logger.Debug("catalog reload found no changes")
		}

		return
	}

	w.prev = next

	w.logger.Info("catalog changed",
		slog.Int("added", len(changes.Added)),
		slog.Int("updated", len(changes.Updated)),
		slog.Int("removed", len(changes.Removed)),
		slog.Bool("rescan", rescan),
	)

	w.notify(changes, next)
}

// timeSleep sleeps for d unless ctx is done first, in which case it
// returns the context's error.
func timeSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
