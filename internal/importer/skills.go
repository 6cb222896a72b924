package importer

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/rulesync/internal/constants"
	"github.com/agentstation/rulesync/internal/options"
)

// Reserved skill directory names that are never imported: tool-internal
// state, not user content.
var skipSkillDirs = map[string]bool{
	".system":              true,
	"cursor-migration-map": true,
}

// skipSkillPrefixes excludes machine-managed skill families by name prefix.
var skipSkillPrefixes = []string{"pattern-"}

// ScanSkills enumerates candidate skill directories inside a consumer's
// skills directory: immediate subdirectories, excluding symlinks (already
// engine-managed), reserved names, and reserved prefixes. Sorted by name.
func ScanSkills(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading skills dir %s: %w", dir, err)
	}
	var out []string
	for _, entry := range entries {
		if !entry.IsDir() || entry.Type()&os.ModeSymlink != 0 {
			continue
		}
		name := entry.Name()
		if skipSkillDirs[name] {
			continue
		}
		if hasSkipPrefix(name) {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out, nil
}

func hasSkipPrefix(name string) bool {
	for _, prefix := range skipSkillPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// CopySkills copies discovered skill directories into the canonical skills
// store. This is the one-time copy at initial import; afterwards consumers
// only ever receive symlinks. Existing names are skipped. Returns the
// number of skills imported.
func CopySkills(skillDirs []string, canonicalSkillsDir string, opts options.Options, log zerolog.Logger) (int, error) {
	if len(skillDirs) > 0 && !opts.DryRun {
		if err := os.MkdirAll(canonicalSkillsDir, constants.DirPermissions); err != nil {
			return 0, fmt.Errorf("creating skills dir: %w", err)
		}
	}
	count := 0
	for _, src := range skillDirs {
		name := filepath.Base(src)
		dest := filepath.Join(canonicalSkillsDir, name)
		if _, err := os.Stat(dest); err == nil {
			log.Debug().Str("skill", name).Msg("skill already exists, skipping")
			continue
		}
		if opts.DryRun {
			log.Info().Str("skill", name).Msg("dry-run: would copy skill")
			count++
			continue
		}
		if err := copyTree(src, dest); err != nil {
			return count, fmt.Errorf("copying skill %s: %w", name, err)
		}
		log.Info().Str("skill", name).Msg("copied skill")
		count++
	}
	return count, nil
}

// copyTree copies a directory tree, skipping symlinked entries.
func copyTree(src, dest string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, constants.DirPermissions)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, constants.FilePermissions)
	})
}
