// Package fsops provides the single transactional write primitive that all
// generators and orchestrators route mutations through. Every write honors
// dry-run, can preview a unified diff instead of silently overwriting, and
// backs up the pre-mutation state into the active backup session.
package fsops

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog"

	"github.com/agentstation/rulesync/internal/backup"
	"github.com/agentstation/rulesync/internal/constants"
	"github.com/agentstation/rulesync/internal/options"
)

// Writer performs backed-up, dry-run-aware filesystem mutations. The
// Mutations counter records how many real filesystem changes happened,
// which makes idempotence observable: a reconciliation pass that changes
// nothing leaves the counter untouched.
type Writer struct {
	// Session receives pre-mutation backups. May be nil when the command
	// performs no destructive overwrites (e.g. pure dry-run previews).
	Session *backup.Session

	// Opts is the uniform run configuration.
	Opts options.Options

	// Log receives per-file progress.
	Log zerolog.Logger

	// Out receives unified diff previews. Defaults to os.Stdout.
	Out io.Writer

	// Mutations counts real filesystem changes performed by this writer.
	Mutations int
}

func (w *Writer) out() io.Writer {
	if w.Out != nil {
		return w.Out
	}
	return os.Stdout
}

// WriteFile writes content to path. In dry-run mode the intended write is
// logged and no I/O happens. In diff-preview mode a unified diff against
// the existing file is printed first and the write is skipped when the
// diff is empty. An existing destination is backed up before overwrite.
func (w *Writer) WriteFile(path, content string) error {
	if w.Opts.DryRun {
		w.Log.Info().Str("path", path).Int("bytes", len(content)).Msg("dry-run: would write")
		return nil
	}

	existing, err := os.ReadFile(path)
	exists := err == nil

	if w.Opts.ShowDiff && exists {
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(existing)),
			B:        difflib.SplitLines(content),
			FromFile: path,
			ToFile:   path + " (new)",
			Context:  3,
		})
		if err != nil {
			return fmt.Errorf("diffing %s: %w", path, err)
		}
		if diff == "" {
			w.Log.Debug().Str("path", path).Msg("unchanged")
			return nil
		}
		fmt.Fprint(w.out(), diff)
	}

	if exists && w.Session != nil {
		if err := w.Session.File(path); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return fmt.Errorf("creating parent of %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), constants.FilePermissions); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	w.Mutations++
	w.Log.Debug().Str("path", path).Int("bytes", len(content)).Msg("wrote")
	return nil
}

// RemoveFile removes path, backing up regular files first. Symlinks are
// removed without backup; missing paths are a no-op.
func (w *Writer) RemoveFile(path string) error {
	if w.Opts.DryRun {
		w.Log.Info().Str("path", path).Msg("dry-run: would remove")
		return nil
	}

	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("inspecting %s: %w", path, err)
	}
	if info.Mode()&os.ModeSymlink == 0 && w.Session != nil {
		if err := w.Session.File(path); err != nil {
			return err
		}
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	w.Mutations++
	w.Log.Debug().Str("path", path).Msg("removed")
	return nil
}

// Symlink creates a symlink at link pointing to target.
func (w *Writer) Symlink(target, link string) error {
	if w.Opts.DryRun {
		w.Log.Info().Str("link", link).Str("target", target).Msg("dry-run: would symlink")
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(link), constants.DirPermissions); err != nil {
		return fmt.Errorf("creating parent of %s: %w", link, err)
	}
	if err := os.Symlink(target, link); err != nil {
		return fmt.Errorf("symlinking %s: %w", link, err)
	}
	w.Mutations++
	w.Log.Debug().Str("link", link).Str("target", target).Msg("symlinked")
	return nil
}
