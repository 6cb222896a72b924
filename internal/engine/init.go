package engine

import (
	"fmt"
	"os"
	"strings"

	"github.com/agentstation/rulesync/internal/constants"
	"github.com/agentstation/rulesync/internal/dedup"
	"github.com/agentstation/rulesync/internal/generate"
	"github.com/agentstation/rulesync/internal/importer"
	"github.com/agentstation/rulesync/internal/store"
)

// Init bootstraps the canonical store from the consumers' existing files:
// import, deduplicate, write the canonical rules and skills, persist the
// manifest, then chain a full sync. Re-running against an initialized
// store asks before overwriting; a declined overwrite returns a nil
// report and no error.
func (e *Engine) Init(sources []string) (*SyncReport, error) {
	if _, err := os.Stat(e.Store.Layout().ManifestPath()); err == nil {
		e.Log.Warn().Str("path", e.Store.Layout().ManifestPath()).
			Msg("already initialized, reinitializing replaces the manifest")
		if !e.confirm("Reinitialize and replace the existing manifest?", false) {
			e.Log.Info().Msg("init aborted")
			return nil, nil
		}
	}

	if len(sources) == 0 {
		sources = e.Reg.ImportSources()
	}
	imps, err := importer.ForSources(e.Reg, sources)
	if err != nil {
		return nil, err
	}

	var rules []importer.Imported
	var skills []string
	for _, imp := range imps {
		result, err := imp.Import(e.Log)
		if err != nil {
			return nil, fmt.Errorf("importing from %s: %w", imp.Source(), err)
		}
		rules = append(rules, result.Rules...)
		skills = append(skills, result.Skills...)
	}

	deduper := &dedup.Deduplicator{Decider: e.decider(), Out: e.Out, Log: e.Log}
	rules = deduper.Deduplicate(rules)
	for _, rule := range rules {
		e.Log.Debug().Str("rule", rule.ID).Str("source", rule.Source).
			Str("preview", generate.Preview(rule.Content)).Msg("selected")
	}

	session, err := e.session("init")
	if err != nil {
		return nil, err
	}
	w := e.writer(session)

	m := store.NewManifest()
	m.ImportedFrom = sources
	m.ActiveTargets.Rules = e.Reg.RuleTargets()
	for _, id := range e.Reg.SkillTargets() {
		m.ActiveTargets.Skills = append(m.ActiveTargets.Skills, store.NewSkillTarget(id))
	}

	for _, rule := range rules {
		file := rule.ID + constants.RuleExt
		content := strings.TrimRight(rule.Content, "\n") + "\n"
		if err := e.Store.WriteRule(file, content, w); err != nil {
			return nil, err
		}
		m.Rules = append(m.Rules, store.Rule{
			ID:           rule.ID,
			File:         file,
			ImportedFrom: rule.Source,
			Cursor:       rule.Cursor,
		})
	}

	copied, err := importer.CopySkills(skills, e.Store.Layout().SkillsDir(), e.Opts, e.Log)
	if err != nil {
		return nil, err
	}
	e.Log.Info().Int("rules", len(m.Rules)).Int("skills", copied).Msg("canonical store initialized")

	if err := e.Store.WriteManifest(m, w); err != nil {
		return nil, err
	}
	if e.Opts.DryRun {
		return &SyncReport{BackupDir: session.Dir(), DryRun: true}, nil
	}
	return e.syncWith(m, w, session.Dir(), nil)
}

// Reconfigure re-asks which consumers receive rules and skills, preserving
// per-target settings for selections that stay active, then chains a sync.
// Non-interactive runs keep the current selection.
func (e *Engine) Reconfigure() (*SyncReport, error) {
	m, err := e.Store.ReadManifest()
	if err != nil {
		return nil, err
	}

	activeRules := make(map[string]bool, len(m.ActiveTargets.Rules))
	for _, id := range m.ActiveTargets.Rules {
		activeRules[id] = true
	}
	var newRules []string
	for _, id := range e.Reg.RuleTargets() {
		target, err := e.Reg.Get(id)
		if err != nil {
			return nil, err
		}
		if e.confirm(fmt.Sprintf("Sync rules to %s?", target.Label), activeRules[id]) {
			newRules = append(newRules, id)
		}
	}

	existing := make(map[string]store.SkillTarget, len(m.ActiveTargets.Skills))
	for _, st := range m.ActiveTargets.Skills {
		existing[st.Name] = st
	}
	var newSkills []store.SkillTarget
	for _, id := range e.Reg.SkillTargets() {
		target, err := e.Reg.Get(id)
		if err != nil {
			return nil, err
		}
		st, wasActive := existing[id]
		if !e.confirm(fmt.Sprintf("Link skills into %s?", target.Label), wasActive) {
			continue
		}
		if !wasActive {
			st = store.NewSkillTarget(id)
		}
		newSkills = append(newSkills, st)
	}

	m.ActiveTargets = store.ActiveTargets{Rules: newRules, Skills: newSkills}

	session, err := e.session("reconfigure")
	if err != nil {
		return nil, err
	}
	return e.syncWith(m, e.writer(session), session.Dir(), nil)
}
