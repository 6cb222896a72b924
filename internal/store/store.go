// Package store owns the canonical on-disk layout: the manifest, the rules
// directory, the skills directory tree, and the backups root. It is a pure
// filesystem accessor; all mutating writes route through the transactional
// writer so they are backed up and dry-run aware.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/agentstation/utc"
	"github.com/goccy/go-yaml"

	"github.com/agentstation/rulesync/internal/constants"
	"github.com/agentstation/rulesync/internal/fsops"
	"github.com/agentstation/rulesync/pkg/errors"
)

// Layout resolves the fixed paths of the canonical store relative to its
// root directory.
type Layout struct {
	Root string
}

// ManifestPath is the manifest file.
func (l Layout) ManifestPath() string {
	return filepath.Join(l.Root, constants.ManifestName)
}

// RulesDir holds one file per rule.
func (l Layout) RulesDir() string {
	return filepath.Join(l.Root, constants.RulesDirName)
}

// RuleFile resolves a manifest-relative rule filename.
func (l Layout) RuleFile(name string) string {
	return filepath.Join(l.RulesDir(), name)
}

// SkillsDir holds one directory per skill.
func (l Layout) SkillsDir() string {
	return filepath.Join(l.Root, constants.SkillsDirName)
}

// SkillDir resolves one skill directory by name.
func (l Layout) SkillDir(name string) string {
	return filepath.Join(l.SkillsDir(), name)
}

// BackupsDir holds timestamped backup sessions.
func (l Layout) BackupsDir() string {
	return filepath.Join(l.Root, constants.BackupsDirName)
}

// Store reads and writes the canonical store.
type Store struct {
	layout Layout
}

// New returns a store rooted at the given canonical directory.
func New(root string) *Store {
	return &Store{layout: Layout{Root: root}}
}

// Layout returns the store's path layout.
func (s *Store) Layout() Layout {
	return s.layout
}

// ReadManifest loads the manifest, failing with ErrNotInitialized when the
// manifest file is absent.
func (s *Store) ReadManifest() (*Manifest, error) {
	data, err := os.ReadFile(s.layout.ManifestPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w (run 'rulesync init' first)",
				s.layout.ManifestPath(), errors.ErrNotInitialized)
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return &m, nil
}

// WriteManifest stamps the current date and persists the manifest through
// the transactional writer, so the previous manifest is backed up and
// dry-run is honored.
func (s *Store) WriteManifest(m *Manifest, w *fsops.Writer) error {
	m.Updated = utc.Now().Format("2006-01-02")
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return w.WriteFile(s.layout.ManifestPath(), string(data))
}

// ReadRule returns the content of a rule file named in the manifest.
func (s *Store) ReadRule(file string) (string, error) {
	data, err := os.ReadFile(s.layout.RuleFile(file))
	if err != nil {
		return "", fmt.Errorf("reading rule %s: %w", file, err)
	}
	return string(data), nil
}

// WriteRule writes rule content through the transactional writer.
func (s *Store) WriteRule(file, content string, w *fsops.Writer) error {
	return w.WriteFile(s.layout.RuleFile(file), content)
}

// RuleFileExists reports whether a canonical rule file is already on disk.
func (s *Store) RuleFileExists(file string) bool {
	_, err := os.Stat(s.layout.RuleFile(file))
	return err == nil
}

// SkillNames returns the immediate subdirectories of the canonical skills
// store, sorted by name.
func (s *Store) SkillNames() ([]string, error) {
	entries, err := os.ReadDir(s.layout.SkillsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading skills dir: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
