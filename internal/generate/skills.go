package generate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/rulesync/internal/constants"
	"github.com/agentstation/rulesync/internal/fsops"
)

// SyncSkills reconciles a consumer's skills directory against the canonical
// skill store: stale or retargeted symlinks pointing into the store are
// pruned, missing links are created, and anything that is not a symlink
// into the store (real directories, user files, foreign links) is left
// alone. Running it twice in a row performs no work on the second pass.
func SyncSkills(targetDir, canonicalDir string, w *fsops.Writer, log zerolog.Logger) error {
	names, err := canonicalSkillNames(canonicalDir)
	if err != nil {
		return err
	}
	if names == nil {
		log.Debug().Str("dir", canonicalDir).Msg("no canonical skills, nothing to link")
		return nil
	}

	if !w.Opts.DryRun {
		if err := os.MkdirAll(targetDir, constants.DirPermissions); err != nil {
			return fmt.Errorf("creating %s: %w", targetDir, err)
		}
	}

	if err := pruneLinks(targetDir, canonicalDir, names, w, log); err != nil {
		return err
	}
	return createLinks(targetDir, canonicalDir, names, w, log)
}

// canonicalSkillNames returns the managed skill set, or a nil map when the
// canonical store does not exist.
func canonicalSkillNames(canonicalDir string) (map[string]bool, error) {
	entries, err := os.ReadDir(canonicalDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", canonicalDir, err)
	}
	names := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			names[entry.Name()] = true
		}
	}
	return names, nil
}

// pruneLinks removes symlinks that resolve into the canonical store but no
// longer match a managed skill, or that point at the wrong store entry.
func pruneLinks(targetDir, canonicalDir string, names map[string]bool, w *fsops.Writer, log zerolog.Logger) error {
	entries, err := os.ReadDir(targetDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", targetDir, err)
	}
	for _, entry := range entries {
		if entry.Type()&os.ModeSymlink == 0 {
			continue
		}
		link := filepath.Join(targetDir, entry.Name())
		resolved, err := resolveLink(link, targetDir)
		if err != nil {
			continue
		}
		if !underDir(resolved, canonicalDir) {
			continue
		}
		want := filepath.Join(canonicalDir, entry.Name())
		if names[entry.Name()] && resolved == want {
			continue
		}
		log.Info().Str("link", link).Msg("pruning stale skill link")
		if err := w.RemoveFile(link); err != nil {
			return err
		}
	}
	return nil
}

// createLinks ensures every managed skill has a symlink in the target
// directory, never displacing a non-symlink entry of the same name.
func createLinks(targetDir, canonicalDir string, names map[string]bool, w *fsops.Writer, log zerolog.Logger) error {
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	for _, name := range sorted {
		link := filepath.Join(targetDir, name)
		want := filepath.Join(canonicalDir, name)

		info, err := os.Lstat(link)
		switch {
		case err == nil && info.Mode()&os.ModeSymlink != 0:
			resolved, rerr := resolveLink(link, targetDir)
			if rerr == nil && resolved == want {
				continue
			}
			if err := w.RemoveFile(link); err != nil {
				return err
			}
		case err == nil:
			log.Warn().Str("path", link).Msg("exists and is not a symlink, leaving as-is")
			continue
		case !os.IsNotExist(err):
			return fmt.Errorf("checking %s: %w", link, err)
		}

		if err := w.Symlink(want, link); err != nil {
			return err
		}
	}
	return nil
}

// ManagedLinks returns the symlinks in dir that resolve into canonicalDir,
// sorted by name. These are the links the engine owns and may remove.
func ManagedLinks(dir, canonicalDir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var out []string
	for _, entry := range entries {
		if entry.Type()&os.ModeSymlink == 0 {
			continue
		}
		link := filepath.Join(dir, entry.Name())
		resolved, err := resolveLink(link, dir)
		if err != nil {
			continue
		}
		if underDir(resolved, canonicalDir) {
			out = append(out, link)
		}
	}
	sort.Strings(out)
	return out, nil
}

// resolveLink returns the symlink destination as an absolute cleaned path,
// interpreting relative targets against the link's directory.
func resolveLink(link, dir string) (string, error) {
	dest, err := os.Readlink(link)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(dir, dest)
	}
	return filepath.Clean(dest), nil
}

func underDir(path, dir string) bool {
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}
