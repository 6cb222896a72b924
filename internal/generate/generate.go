// Package generate renders the canonical rule set into each consumer's
// expected artifacts and reconciles consumer skill-symlink directories.
// Every variant routes its writes through the transactional writer, so
// generation is dry-run aware, diff-previewable, and undoable.
package generate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentstation/utc"
	"github.com/rs/zerolog"

	"github.com/agentstation/rulesync/internal/consumers"
	"github.com/agentstation/rulesync/internal/constants"
	"github.com/agentstation/rulesync/internal/fsops"
	"github.com/agentstation/rulesync/internal/marker"
	"github.com/agentstation/rulesync/internal/store"
	"github.com/agentstation/rulesync/pkg/frontmatter"
)

// Context carries everything a generator needs for one sync pass.
type Context struct {
	Manifest *store.Manifest
	Store    *store.Store
	Writer   *fsops.Writer
	UserHome string
	Now      utc.Time
	Log      zerolog.Logger
}

// Generator renders the rule set (and, if applicable, reconciles the
// skill symlink directory) for one consumer.
type Generator interface {
	// Consumer returns the consumer id this generator writes for.
	Consumer() string

	// Generate renders this consumer's artifacts.
	Generate(ctx *Context) error
}

// For returns the generator registry for all rule-bearing consumers. The
// registry is the single extension point: adding a consumer means one
// entry here plus a variant below. Skills-only consumers have no rule
// generator; their skill directories are reconciled by SyncSkills during
// the skills phase.
func For(reg *consumers.Registry) (map[string]Generator, error) {
	out := make(map[string]Generator)
	for _, id := range reg.RuleTargets() {
		target, err := reg.Get(id)
		if err != nil {
			return nil, err
		}
		switch id {
		case consumers.Cursor:
			out[id] = &perFileGenerator{target: target}
		case consumers.Codex:
			out[id] = &sectionedFileGenerator{target: target}
		case consumers.Claude, consumers.Gemini, consumers.Kiro:
			out[id] = &concatFileGenerator{target: target}
		case consumers.AgentsMD:
			out[id] = &agentsMDGenerator{target: target}
		default:
			return nil, fmt.Errorf("consumer %s has no generator", id)
		}
	}
	return out, nil
}

// perFileGenerator writes one file per active rule, each carrying the
// rule's rebuilt frontmatter, the sentinel block, and the body. Stale
// generated files for retired rule ids are cleaned up; files not marked
// generated are left untouched even when their id is no longer active.
type perFileGenerator struct {
	target consumers.Target
}

func (g *perFileGenerator) Consumer() string { return g.target.ID }

func (g *perFileGenerator) Generate(ctx *Context) error {
	rules := ctx.Manifest.RulesFor(g.target.ID)
	active := make(map[string]bool, len(rules))

	for _, rule := range rules {
		active[rule.ID] = true
		content, err := ctx.Store.ReadRule(rule.File)
		if err != nil {
			return err
		}
		fm := buildRuleFrontmatter(rule.Cursor)
		full := fm + "\n\n" + marker.Header(ctx.Now) + "\n" + content
		path := filepath.Join(g.target.RulesDir, rule.ID+g.target.RulesExt)
		if err := ctx.Writer.WriteFile(path, full); err != nil {
			return err
		}
	}

	return g.cleanStale(ctx, active)
}

func (g *perFileGenerator) cleanStale(ctx *Context, active map[string]bool) error {
	entries, err := os.ReadDir(g.target.RulesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("scanning %s: %w", g.target.RulesDir, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, g.target.RulesExt) {
			continue
		}
		id := strings.TrimSuffix(name, g.target.RulesExt)
		if active[id] {
			continue
		}
		path := filepath.Join(g.target.RulesDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		_, body := frontmatter.Parse(string(data))
		if !marker.IsGenerated(body) {
			continue
		}
		if err := ctx.Writer.RemoveFile(path); err != nil {
			return err
		}
	}
	return nil
}

// buildRuleFrontmatter rebuilds the metadata block from a rule's
// recognized cursor metadata, or an empty block when there is none.
func buildRuleFrontmatter(cm *store.CursorMeta) string {
	meta := frontmatter.NewMeta()
	if cm != nil {
		if cm.Description != "" {
			meta.Set("description", cm.Description)
		}
		if cm.AlwaysApply != nil {
			meta.Set("alwaysApply", *cm.AlwaysApply)
		}
		if cm.Globs != "" {
			meta.Set("globs", cm.Globs)
		}
	}
	if meta.Len() == 0 {
		return frontmatter.Delimiter + "\n" + frontmatter.Delimiter
	}
	return frontmatter.Build(meta)
}

// sectionedFileGenerator writes one concatenated file with a "## Rule:"
// heading per active rule.
type sectionedFileGenerator struct {
	target consumers.Target
}

func (g *sectionedFileGenerator) Consumer() string { return g.target.ID }

func (g *sectionedFileGenerator) Generate(ctx *Context) error {
	parts := []string{marker.Header(ctx.Now), ""}
	for _, rule := range ctx.Manifest.RulesFor(g.target.ID) {
		content, err := ctx.Store.ReadRule(rule.File)
		if err != nil {
			return err
		}
		parts = append(parts, "## Rule: "+rule.ID+"\n", content, "")
	}
	return ctx.Writer.WriteFile(g.target.RulesFile, strings.Join(parts, "\n"))
}

// concatFileGenerator writes one concatenated file with no per-rule
// headings: the sentinel block first, then rule bodies separated by
// blank lines.
type concatFileGenerator struct {
	target consumers.Target
}

func (g *concatFileGenerator) Consumer() string { return g.target.ID }

func (g *concatFileGenerator) Generate(ctx *Context) error {
	parts := []string{marker.Header(ctx.Now), ""}
	for _, rule := range ctx.Manifest.RulesFor(g.target.ID) {
		content, err := ctx.Store.ReadRule(rule.File)
		if err != nil {
			return err
		}
		parts = append(parts, content, "")
	}
	return ctx.Writer.WriteFile(g.target.RulesFile, strings.Join(parts, "\n"))
}

// Summary returns the one-line summary used for a rule in condensed
// output: the configured description if present, else the first
// non-heading non-empty line of the canonical file truncated, else the id.
func Summary(rule store.Rule, st *store.Store) string {
	if rule.Cursor != nil && rule.Cursor.Description != "" {
		return rule.Cursor.Description
	}
	if content, err := st.ReadRule(rule.File); err == nil {
		if line := firstContentLine(content, constants.SummaryLength); line != "" {
			return line
		}
	}
	return rule.ID
}

// Preview returns the short preview of imported rule content shown during
// selection.
func Preview(content string) string {
	if line := firstContentLine(content, constants.PreviewLength); line != "" {
		return line
	}
	return "(empty)"
}

func firstContentLine(content string, limit int) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if len(line) > limit {
			return line[:limit]
		}
		return line
	}
	return ""
}
