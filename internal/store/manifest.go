package store

// CursorMeta is the optional structured metadata carried by rules imported
// from frontmatter-bearing consumers. All fields are optional; AlwaysApply
// uses a pointer so that "unset" survives round-trips.
type CursorMeta struct {
	AlwaysApply *bool  `yaml:"alwaysApply,omitempty"`
	Description string `yaml:"description,omitempty"`
	Globs       string `yaml:"globs,omitempty"`
}

// Rule is one canonical rule record. Content lives in one file per rule
// under the canonical rules directory; the manifest stores only metadata
// plus the relative filename pointer.
type Rule struct {
	ID           string      `yaml:"id"`
	File         string      `yaml:"file"`
	ImportedFrom string      `yaml:"imported_from"`
	Cursor       *CursorMeta `yaml:"cursor,omitempty"`
	Exclude      []string    `yaml:"exclude,omitempty"`
}

// AppliesTo reports whether the rule should be rendered for a consumer.
func (r Rule) AppliesTo(consumer string) bool {
	for _, excluded := range r.Exclude {
		if excluded == consumer {
			return false
		}
	}
	return true
}

// SkillTarget is one active skill-target selection.
type SkillTarget struct {
	Name             string `yaml:"name"`
	SyncMode         string `yaml:"sync_mode,omitempty"`
	ConflictStrategy string `yaml:"conflict_strategy,omitempty"`
}

// Default skill-target behavior: consumers receive symlinks and real
// files already present in a target directory are preserved.
const (
	SyncModeSymlink          = "symlink"
	ConflictStrategyPreserve = "preserve"
)

// NewSkillTarget returns a skill target with default mode and strategy.
func NewSkillTarget(name string) SkillTarget {
	return SkillTarget{
		Name:             name,
		SyncMode:         SyncModeSymlink,
		ConflictStrategy: ConflictStrategyPreserve,
	}
}

// ActiveTargets records which consumers receive rules and skills.
type ActiveTargets struct {
	Rules  []string      `yaml:"rules"`
	Skills []SkillTarget `yaml:"skills"`
}

// SkillNames returns the active skill-target consumer ids in order.
func (a ActiveTargets) SkillNames() []string {
	out := make([]string, 0, len(a.Skills))
	for _, s := range a.Skills {
		out = append(out, s.Name)
	}
	return out
}

// AgentsMDConfig configures the condensed AGENTS.md fan-out generator.
type AgentsMDConfig struct {
	Paths    []string `yaml:"paths"`
	Header   string   `yaml:"header"`
	Preamble string   `yaml:"preamble"`
}

// ManifestVersion is the current manifest schema version. There is no
// migration between versions.
const ManifestVersion = "1.0"

// Manifest is the single source of truth: the rule list, active target
// selections, and output-path configuration. It is rewritten on every
// mutating command and always ends with a refreshed updated date.
type Manifest struct {
	Version       string         `yaml:"version"`
	Updated       string         `yaml:"updated"`
	ImportedFrom  []string       `yaml:"imported_from"`
	ActiveTargets ActiveTargets  `yaml:"active_targets"`
	Rules         []Rule         `yaml:"rules"`
	AgentsMD      AgentsMDConfig `yaml:"agents_md"`
}

// NewManifest returns an empty manifest with defaults for the condensed
// AGENTS.md output.
func NewManifest() *Manifest {
	return &Manifest{
		Version: ManifestVersion,
		AgentsMD: AgentsMDConfig{
			Header:   "# Workspace AGENTS Rules",
			Preamble: "These rules apply across this workspace unless explicitly overridden.",
		},
	}
}

// Rule returns the rule with the given id.
func (m *Manifest) Rule(id string) (Rule, bool) {
	for _, r := range m.Rules {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}

// HasRule reports whether a rule id exists in the manifest.
func (m *Manifest) HasRule(id string) bool {
	_, ok := m.Rule(id)
	return ok
}

// RulesFor returns the rules active for a consumer, in manifest order.
func (m *Manifest) RulesFor(consumer string) []Rule {
	var out []Rule
	for _, r := range m.Rules {
		if r.AppliesTo(consumer) {
			out = append(out, r)
		}
	}
	return out
}

// RemoveRule drops the rule with the given id. It reports whether a rule
// was removed.
func (m *Manifest) RemoveRule(id string) bool {
	for i, r := range m.Rules {
		if r.ID == id {
			m.Rules = append(m.Rules[:i], m.Rules[i+1:]...)
			return true
		}
	}
	return false
}
