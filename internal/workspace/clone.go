package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/tonimelisma/profilectl/internal/profile"
)

// Clone copies the previous profile's state directory into the target's.
// It is the preserve-data half of a switch and is shaped by two rules:
//
//   - nothing to copy is success: a previous profile that never
//     materialized state has nothing worth preserving
//   - an already-populated target is left alone: preservation seeds a new
//     workspace, it never overwrites one
//
// Files are copied in parallel (bounded by CloneWorkers); symlinks are
// skipped. The first copy error cancels the remaining work.
func (m *Manager) Clone(ctx context.Context, from, to profile.Profile) error {
	srcDir := m.Dir(from)
	dstDir := m.Dir(to)

	if _, err := os.Stat(srcDir); errors.Is(err, os.ErrNotExist) {
		m.logger.Debug("previous profile has no state directory, nothing to preserve",
			slog.String("profile_id", from.ID),
		)

		return nil
	}

	empty, err := isEmptyDir(dstDir)
	if err != nil {
		return fmt.Errorf("workspace: checking %s: %w", dstDir, err)
	}

	if !empty {
		m.logger.Debug("target workspace already has data, skipping clone",
			slog.String("profile_id", to.ID),
		)

		return nil
	}

	var files, bytes atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cloneWorkers)

	walkErr := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}

		if rel == "." {
			return nil
		}

		dst := filepath.Join(dstDir, rel)

		// Symlinks are not preserved; workspace state is plain files.
		if d.Type()&fs.ModeSymlink != 0 {
			m.logger.Debug("skipping symlink during clone", slog.String("path", rel))
			return nil
		}

		if d.IsDir() {
			return os.MkdirAll(dst, dirPermissions)
		}

		g.Go(func() error {
			n, err := copyFile(path, dst)
			if err != nil {
				return err
			}

			files.Add(1)
			bytes.Add(n)

			return nil
		})

		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("workspace: cloning %s into %s: %w", from.Name, to.Name, err)
	}

	if walkErr != nil {
		return fmt.Errorf("workspace: walking %s: %w", srcDir, walkErr)
	}

	m.logger.Info("workspace cloned",
		slog.String("from", from.Name),
		slog.String("to", to.Name),
		slog.Int64("files", files.Load()),
		slog.Int64("bytes", bytes.Load()),
	)

	return nil
}

// copyFile copies one regular file, preserving its permission bits, and
// returns the byte count.
func copyFile(src, dst string) (int64, error) {
	info, err := os.Stat(src)
	if err != nil {
		return 0, err
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), dirPermissions); err != nil {
		return 0, err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()

		return n, err
	}

	return n, out.Close()
}

// isEmptyDir reports whether dir has no entries. A missing directory
// counts as empty.
func isEmptyDir(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}

	if err != nil {
		return false, err
	}

	return len(entries) == 0, nil
}

// atomicWriteFile writes data to a temporary file in the same directory
// and renames it over the target. The active-profile file must never be
// observed half-written.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".active-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tempPath := f.Name()

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

	if err := os.Chmod(tempPath, filePermissions); err != nil {
		return fmt.Errorf("setting file permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	succeeded = true

	return nil
}
