package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentstation/rulesync/internal/backup"
	"github.com/agentstation/rulesync/internal/consumers"
	"github.com/agentstation/rulesync/internal/generate"
	"github.com/agentstation/rulesync/internal/marker"
	"github.com/agentstation/rulesync/internal/store"
	"github.com/agentstation/rulesync/pkg/frontmatter"
)

// CleanReport summarizes one clean pass.
type CleanReport struct {
	// Files are the generated rule artifacts that were (or would be)
	// removed; Links the managed skill symlinks.
	Files []string
	Links []string

	// Restored counts originals copied back from the pre-engine backup
	// session, when one exists.
	Restored int

	BackupDir string
	Aborted   bool
}

// Planned reports whether the discovery phase found anything to remove.
func (r *CleanReport) Planned() bool {
	return len(r.Files)+len(r.Links) > 0
}

// Clean removes every generated artifact and managed skill symlink from
// all consumers, backing each file up first, then restores the originals
// preserved in the most recent prior backup session. Only files carrying
// the sentinel and symlinks resolving into the canonical store are
// touched; user-authored files are never candidates.
func (e *Engine) Clean() (*CleanReport, error) {
	m, err := e.Store.ReadManifest()
	if err != nil {
		return nil, err
	}

	report := &CleanReport{}
	if err := e.discoverGenerated(m, report); err != nil {
		return nil, err
	}
	if !report.Planned() {
		e.Log.Info().Msg("nothing to clean")
		return report, nil
	}

	// The restore source must be resolved before the clean session is
	// created, or the clean session itself would be the latest.
	latest, err := backup.Latest(e.Store.Layout().BackupsDir())
	if err != nil {
		return nil, err
	}

	e.printPlan(report, latest)
	if !e.confirm(fmt.Sprintf("Remove %d generated files and %d skill links?",
		len(report.Files), len(report.Links)), false) {
		report.Aborted = true
		e.Log.Info().Msg("clean aborted")
		return report, nil
	}

	session, err := e.session("clean")
	if err != nil {
		return nil, err
	}
	report.BackupDir = session.Dir()
	w := e.writer(session)

	for _, path := range append(append([]string{}, report.Files...), report.Links...) {
		if err := w.RemoveFile(path); err != nil {
			return nil, err
		}
	}

	if latest != "" {
		targets := make(map[string]bool, len(report.Files)+len(report.Links))
		for _, path := range append(append([]string{}, report.Files...), report.Links...) {
			targets[path] = true
		}
		restored, err := backup.Restore(latest, e.UserHome, targets, e.Opts, e.Log)
		if err != nil {
			return nil, err
		}
		report.Restored = restored
	}

	e.Log.Info().Int("files", len(report.Files)).Int("links", len(report.Links)).
		Int("restored", report.Restored).Msg("clean complete")
	return report, nil
}

// discoverGenerated fills the report with every sentinel-bearing artifact
// and managed symlink belonging to the manifest's active targets. A
// deselected consumer keeps its last generated files.
func (e *Engine) discoverGenerated(m *store.Manifest, report *CleanReport) error {
	for _, id := range m.ActiveTargets.Rules {
		target, err := e.Reg.Get(id)
		if err != nil {
			return err
		}
		switch {
		case target.RulesDir != "":
			if err := e.discoverInDir(target.RulesDir, target.RulesExt, report); err != nil {
				return err
			}
		case target.RulesFile != "":
			if isGeneratedFile(target.RulesFile) {
				report.Files = append(report.Files, target.RulesFile)
			}
		case id == consumers.AgentsMD:
			for _, path := range generate.ExpandPaths(m.AgentsMD.Paths, e.UserHome, e.Log) {
				if isGeneratedFile(path) {
					report.Files = append(report.Files, path)
				}
			}
		}
	}
	for _, id := range m.ActiveTargets.SkillNames() {
		target, err := e.Reg.Get(id)
		if err != nil || !target.HasSkills() {
			continue
		}
		links, err := generate.ManagedLinks(target.SkillsDir, e.Store.Layout().SkillsDir())
		if err != nil {
			return err
		}
		report.Links = append(report.Links, links...)
	}
	return nil
}

func (e *Engine) discoverInDir(dir, ext string, report *CleanReport) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("scanning %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if isGeneratedFile(path) {
			report.Files = append(report.Files, path)
		}
	}
	return nil
}

func (e *Engine) printPlan(report *CleanReport, latest string) {
	fmt.Fprintln(e.out(), "Generated files to remove:")
	for _, path := range report.Files {
		tag := ""
		if latest != "" && backup.Contains(latest, e.UserHome, path) {
			tag = "  (original will be restored)"
		}
		fmt.Fprintf(e.out(), "  %s%s\n", path, tag)
	}
	if len(report.Links) > 0 {
		fmt.Fprintln(e.out(), "Managed skill links to remove:")
		for _, path := range report.Links {
			fmt.Fprintf(e.out(), "  %s\n", path)
		}
	}
}

func isGeneratedFile(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	_, body := frontmatter.Parse(string(data))
	return marker.IsGenerated(body)
}
