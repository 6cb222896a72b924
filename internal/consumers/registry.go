// Package consumers defines the static registry of consumer tools this
// engine reconciles against. The registry is configuration baked into the
// engine, not user state: adding a consumer means adding one entry here
// plus an importer/generator pair keyed by its id.
package consumers

import (
	"path/filepath"

	"github.com/agentstation/rulesync/pkg/errors"
)

// Consumer ids. These double as manifest target names and exclude tags.
const (
	Cursor      = "cursor"
	Codex       = "codex"
	Claude      = "claude"
	Gemini      = "gemini"
	Kiro        = "kiro"
	Antigravity = "antigravity"
	AgentsMD    = "agents-md"
)

// Target describes where one consumer expects rules and skills on disk.
// Exactly one of RulesDir (per-rule files with RulesExt) or RulesFile
// (single concatenated file) is set for rule-bearing consumers; SkillsDir
// is set for consumers that accept skill symlinks.
type Target struct {
	ID          string
	Label       string
	Description string

	// RulesDir is a directory of per-rule files with RulesExt.
	RulesDir string
	RulesExt string

	// RulesFile is a single concatenated rules file.
	RulesFile string

	// SkillsDir receives skill symlinks.
	SkillsDir string
}

// HasSkills reports whether the consumer accepts skill symlinks.
func (t Target) HasSkills() bool {
	return t.SkillsDir != ""
}

// Registry maps consumer ids to their on-disk expectations, rooted at a
// user home directory. Iteration orders are fixed so that importers and
// generators run deterministically.
type Registry struct {
	targets map[string]Target
	order   []string
}

// New builds the registry rooted at the given user home directory.
func New(userHome string) *Registry {
	targets := []Target{
		{
			ID:          Cursor,
			Label:       "Cursor",
			Description: "rules as .mdc + skill symlinks",
			RulesDir:    filepath.Join(userHome, ".cursor", "rules"),
			RulesExt:    ".mdc",
			SkillsDir:   filepath.Join(userHome, ".cursor", "skills"),
		},
		{
			ID:          Codex,
			Label:       "Codex",
			Description: "rules as model-instructions.md + skill symlinks",
			RulesFile:   filepath.Join(userHome, ".codex", "model-instructions.md"),
			SkillsDir:   filepath.Join(userHome, ".codex", "skills"),
		},
		{
			ID:          Claude,
			Label:       "Claude Code",
			Description: "rules as CLAUDE.md",
			RulesFile:   filepath.Join(userHome, ".claude", "CLAUDE.md"),
		},
		{
			ID:          Gemini,
			Label:       "Gemini CLI",
			Description: "rules as GEMINI.md + skill symlinks",
			RulesFile:   filepath.Join(userHome, ".gemini", "GEMINI.md"),
			SkillsDir:   filepath.Join(userHome, ".gemini", "skills"),
		},
		{
			ID:          Kiro,
			Label:       "Kiro",
			Description: "rules as steering/conventions.md",
			RulesFile:   filepath.Join(userHome, ".kiro", "steering", "conventions.md"),
		},
		{
			ID:          Antigravity,
			Label:       "Antigravity",
			Description: "skill symlinks only",
			SkillsDir:   filepath.Join(userHome, ".gemini", "antigravity", "skills"),
		},
		{
			ID:          AgentsMD,
			Label:       "AGENTS.md",
			Description: "condensed rules for cross-tool standard",
		},
	}

	r := &Registry{targets: make(map[string]Target, len(targets))}
	for _, t := range targets {
		r.targets[t.ID] = t
		r.order = append(r.order, t.ID)
	}
	return r
}

// Get returns the target for a consumer id.
func (r *Registry) Get(id string) (Target, error) {
	t, ok := r.targets[id]
	if !ok {
		return Target{}, errors.NewUnknownConsumerError(id, r.IDs())
	}
	return t, nil
}

// Has reports whether id names a registered consumer.
func (r *Registry) Has(id string) bool {
	_, ok := r.targets[id]
	return ok
}

// IDs returns all consumer ids in registry order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// RuleTargets returns the ids of consumers that accept rules, in registry
// order. Antigravity is skills-only.
func (r *Registry) RuleTargets() []string {
	var out []string
	for _, id := range r.order {
		if id == Antigravity {
			continue
		}
		out = append(out, id)
	}
	return out
}

// SkillTargets returns the ids of consumers with a skills directory, in
// registry order.
func (r *Registry) SkillTargets() []string {
	var out []string
	for _, id := range r.order {
		if r.targets[id].HasSkills() {
			out = append(out, id)
		}
	}
	return out
}

// ImportSources returns the ids of consumers whose existing files can be
// imported at init time: everything except the synthetic agents-md target
// and the skills-only antigravity target.
func (r *Registry) ImportSources() []string {
	var out []string
	for _, id := range r.order {
		if id == AgentsMD || id == Antigravity {
			continue
		}
		out = append(out, id)
	}
	return out
}
