package engine

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/agentstation/rulesync/internal/backup"
	"github.com/agentstation/rulesync/internal/consumers"
	"github.com/agentstation/rulesync/internal/generate"
	"github.com/agentstation/rulesync/internal/store"
	"github.com/agentstation/rulesync/pkg/errors"
)

// ConsumerStatus is the observed state of one consumer's artifacts.
type ConsumerStatus struct {
	ID    string
	Label string

	RulesActive  bool
	SkillsActive bool

	// Path is the consumer's rules artifact location, empty for
	// skills-only consumers.
	Path string

	// GeneratedFiles counts artifacts on disk carrying the sentinel.
	GeneratedFiles int

	// SkillLinks counts symlinks resolving into the canonical store.
	SkillLinks int
}

// RuleInfo is the status view of one manifest rule.
type RuleInfo struct {
	ID          string
	Source      string
	Description string
	AlwaysApply bool
	Exclude     []string
}

// Status is a read-only snapshot of the whole installation.
type Status struct {
	Root          string
	Initialized   bool
	Updated       string
	ImportedFrom  []string
	Rules         []RuleInfo
	Skills        []string
	Consumers     []ConsumerStatus
	AgentsMDPaths []string
	LatestBackup  string
}

// RuleCount returns the number of manifest rules.
func (s *Status) RuleCount() int {
	return len(s.Rules)
}

// Status inspects the canonical store and every consumer without mutating
// anything. An uninitialized store yields Initialized=false, not an error.
func (e *Engine) Status() (*Status, error) {
	st := &Status{Root: e.Store.Layout().Root}

	m, err := e.Store.ReadManifest()
	if err != nil {
		if errors.IsNotInitialized(err) {
			return st, nil
		}
		return nil, err
	}
	st.Initialized = true
	st.Updated = m.Updated
	st.ImportedFrom = m.ImportedFrom
	st.AgentsMDPaths = m.AgentsMD.Paths
	for _, rule := range m.Rules {
		info := RuleInfo{ID: rule.ID, Source: rule.ImportedFrom, Exclude: rule.Exclude}
		if rule.Cursor != nil {
			info.Description = rule.Cursor.Description
			info.AlwaysApply = rule.Cursor.AlwaysApply != nil && *rule.Cursor.AlwaysApply
		}
		st.Rules = append(st.Rules, info)
	}

	if st.Skills, err = e.Store.SkillNames(); err != nil {
		return nil, err
	}

	activeRules := make(map[string]bool, len(m.ActiveTargets.Rules))
	for _, id := range m.ActiveTargets.Rules {
		activeRules[id] = true
	}
	activeSkills := make(map[string]bool, len(m.ActiveTargets.Skills))
	for _, name := range m.ActiveTargets.SkillNames() {
		activeSkills[name] = true
	}

	canonical := e.Store.Layout().SkillsDir()
	for _, id := range e.Reg.IDs() {
		target, err := e.Reg.Get(id)
		if err != nil {
			return nil, err
		}
		cs := ConsumerStatus{
			ID:           id,
			Label:        target.Label,
			RulesActive:  activeRules[id],
			SkillsActive: activeSkills[id],
			Path:         rulesPath(target),
		}
		if cs.GeneratedFiles, err = e.countGenerated(m, target); err != nil {
			return nil, err
		}
		if target.HasSkills() {
			links, err := generate.ManagedLinks(target.SkillsDir, canonical)
			if err != nil {
				return nil, err
			}
			cs.SkillLinks = len(links)
		}
		st.Consumers = append(st.Consumers, cs)
	}

	if st.LatestBackup, err = backup.Latest(e.Store.Layout().BackupsDir()); err != nil {
		return nil, err
	}
	return st, nil
}

func rulesPath(target consumers.Target) string {
	if target.RulesDir != "" {
		return target.RulesDir
	}
	return target.RulesFile
}

// countGenerated counts this consumer's on-disk artifacts that carry the
// sentinel, whichever shape the consumer uses.
func (e *Engine) countGenerated(m *store.Manifest, target consumers.Target) (int, error) {
	switch {
	case target.RulesDir != "":
		return countGeneratedInDir(target.RulesDir, target.RulesExt)
	case target.RulesFile != "":
		return countGeneratedFile(target.RulesFile), nil
	case target.ID == consumers.AgentsMD:
		count := 0
		for _, path := range generate.ExpandPaths(m.AgentsMD.Paths, e.UserHome, e.Log) {
			count += countGeneratedFile(path)
		}
		return count, nil
	}
	return 0, nil
}

func countGeneratedInDir(dir, ext string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		count += countGeneratedFile(filepath.Join(dir, entry.Name()))
	}
	return count, nil
}

func countGeneratedFile(path string) int {
	if isGeneratedFile(path) {
		return 1
	}
	return 0
}
