package engine_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/rulesync/internal/engine"
	"github.com/agentstation/rulesync/internal/generate"
	"github.com/agentstation/rulesync/internal/marker"
	"github.com/agentstation/rulesync/internal/options"
	"github.com/agentstation/rulesync/internal/prompt"
	"github.com/agentstation/rulesync/pkg/errors"
	"github.com/agentstation/rulesync/pkg/logging"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func newEngine(t *testing.T, home string, opts options.Options) *engine.Engine {
	t.Helper()
	e := engine.New(home, opts, prompt.Auto{}, *logging.NewNopLogger())
	e.Out = &bytes.Buffer{}
	return e
}

// countingDecider answers every question with no and records how often it
// was consulted.
type countingDecider struct{ asked int }

func (d *countingDecider) Confirm(_ string, _ bool) bool {
	d.asked++
	return false
}

func (d *countingDecider) Interactive() bool { return true }

// denyingDecider answers no to questions containing one of the deny
// substrings and takes the default otherwise.
type denyingDecider struct{ deny []string }

func (d denyingDecider) Confirm(question string, def bool) bool {
	for _, s := range d.deny {
		if strings.Contains(question, s) {
			return false
		}
	}
	return def
}

func (d denyingDecider) Interactive() bool { return true }

// seedConsumers lays out pre-existing tool files the way a user who never
// ran the engine would have them.
func seedConsumers(t *testing.T, home string) {
	t.Helper()
	writeFile(t, filepath.Join(home, ".cursor", "rules", "go-style.mdc"),
		"---\ndescription: Go style\nalwaysApply: true\n---\n# Go Style\n\nUse gofmt.\n")
	writeFile(t, filepath.Join(home, ".claude", "CLAUDE.md"),
		"# Testing\n\nWrite table tests.\n")
	writeFile(t, filepath.Join(home, ".cursor", "skills", "writing", "SKILL.md"),
		"How to write.\n")
}

func TestInitImportsAndGeneratesEverywhere(t *testing.T) {
	home := t.TempDir()
	seedConsumers(t, home)

	e := newEngine(t, home, options.Options{})
	report, err := e.Init(nil)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.False(t, report.Failed())

	// Canonical store.
	assert.FileExists(t, filepath.Join(home, ".ai-agent", "manifest.yaml"))
	assert.FileExists(t, filepath.Join(home, ".ai-agent", "rules", "go-style.md"))
	assert.FileExists(t, filepath.Join(home, ".ai-agent", "rules", "testing.md"))
	assert.FileExists(t, filepath.Join(home, ".ai-agent", "skills", "writing", "SKILL.md"))

	// Every rule-bearing consumer got regenerated artifacts.
	for _, path := range []string{
		filepath.Join(home, ".cursor", "rules", "go-style.mdc"),
		filepath.Join(home, ".cursor", "rules", "testing.mdc"),
		filepath.Join(home, ".claude", "CLAUDE.md"),
		filepath.Join(home, ".codex", "model-instructions.md"),
		filepath.Join(home, ".gemini", "GEMINI.md"),
		filepath.Join(home, ".kiro", "steering", "conventions.md"),
	} {
		assert.Contains(t, readFile(t, path), marker.Sentinel, path)
	}
	claude := readFile(t, filepath.Join(home, ".claude", "CLAUDE.md"))
	assert.Contains(t, claude, "Use gofmt.")
	assert.Contains(t, claude, "Write table tests.")

	// Skill links for skill-bearing consumers; cursor keeps its real
	// directory untouched.
	for _, dir := range []string{
		filepath.Join(home, ".codex", "skills"),
		filepath.Join(home, ".gemini", "skills"),
		filepath.Join(home, ".gemini", "antigravity", "skills"),
	} {
		dest, err := os.Readlink(filepath.Join(dir, "writing"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".ai-agent", "skills", "writing"), dest)
	}
	info, err := os.Lstat(filepath.Join(home, ".cursor", "skills", "writing"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Originals were backed up before being overwritten.
	require.NotEmpty(t, report.BackupDir)
	backed := readFile(t, filepath.Join(report.BackupDir, "files", ".claude", "CLAUDE.md"))
	assert.NotContains(t, backed, marker.Sentinel)
}

func TestInitDryRunTouchesNothing(t *testing.T) {
	home := t.TempDir()
	seedConsumers(t, home)
	before := readFile(t, filepath.Join(home, ".claude", "CLAUDE.md"))

	e := newEngine(t, home, options.Options{DryRun: true})
	report, err := e.Init(nil)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.True(t, report.DryRun)

	assert.NoDirExists(t, filepath.Join(home, ".ai-agent"))
	assert.Equal(t, before, readFile(t, filepath.Join(home, ".claude", "CLAUDE.md")))
}

func TestInitDeclinedOverwrite(t *testing.T) {
	home := t.TempDir()
	e := newEngine(t, home, options.Options{})
	_, err := e.Init(nil)
	require.NoError(t, err)

	// Auto decider answers the overwrite question with its default: no.
	report, err := e.Init(nil)
	require.NoError(t, err)
	assert.Nil(t, report)
}

func TestInitAutoConfirmNeverPromptsOnConflict(t *testing.T) {
	home := t.TempDir()
	writeFile(t, filepath.Join(home, ".cursor", "rules", "shared.mdc"),
		"---\ndescription: Shared\n---\n# Shared\n\nCompletely different A.\n")
	writeFile(t, filepath.Join(home, ".claude", "CLAUDE.md"),
		"# Shared\n\nNothing alike whatsoever B!\n")

	// An interactive decider that would replace the first-seen version
	// must never be consulted under --yes.
	d := &countingDecider{}
	e := engine.New(home, options.Options{AutoConfirm: true}, d, *logging.NewNopLogger())
	e.Out = &bytes.Buffer{}

	_, err := e.Init(nil)
	require.NoError(t, err)

	assert.Zero(t, d.asked)
	canonical := readFile(t, filepath.Join(home, ".ai-agent", "rules", "shared.md"))
	assert.Contains(t, canonical, "Completely different A.")
	assert.NotContains(t, canonical, "Nothing alike whatsoever B!")
}

func TestSyncRequiresInit(t *testing.T) {
	e := newEngine(t, t.TempDir(), options.Options{})
	_, err := e.Sync(nil)
	assert.True(t, errors.IsNotInitialized(err))
}

func TestSyncUnknownConsumer(t *testing.T) {
	home := t.TempDir()
	e := newEngine(t, home, options.Options{})
	_, err := e.Init(nil)
	require.NoError(t, err)

	_, err = e.Sync([]string{"vscode"})
	assert.True(t, errors.IsUnknownConsumer(err))
}

func TestSyncOnlyRestrictsConsumers(t *testing.T) {
	home := t.TempDir()
	seedConsumers(t, home)
	e := newEngine(t, home, options.Options{})
	_, err := e.Init(nil)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(home, ".claude", "CLAUDE.md")))
	require.NoError(t, os.Remove(filepath.Join(home, ".kiro", "steering", "conventions.md")))

	report, err := e.Sync([]string{"claude"})
	require.NoError(t, err)
	assert.Equal(t, []string{"claude"}, report.RuleConsumers)

	assert.FileExists(t, filepath.Join(home, ".claude", "CLAUDE.md"))
	assert.NoFileExists(t, filepath.Join(home, ".kiro", "steering", "conventions.md"))
}

func TestSyncIsStable(t *testing.T) {
	home := t.TempDir()
	seedConsumers(t, home)
	e := newEngine(t, home, options.Options{})
	_, err := e.Init(nil)
	require.NoError(t, err)

	report, err := e.Sync(nil)
	require.NoError(t, err)
	assert.False(t, report.Failed())

	// Repeated syncs never duplicate content or links.
	claude := readFile(t, filepath.Join(home, ".claude", "CLAUDE.md"))
	assert.Equal(t, 1, strings.Count(claude, marker.Sentinel))
	assert.Equal(t, 1, strings.Count(claude, "Use gofmt."))

	links, err := generate.ManagedLinks(
		filepath.Join(home, ".codex", "skills"),
		filepath.Join(home, ".ai-agent", "skills"))
	require.NoError(t, err)
	assert.Len(t, links, 1)
}

func TestAddRule(t *testing.T) {
	home := t.TempDir()
	e := newEngine(t, home, options.Options{})
	_, err := e.Init(nil)
	require.NoError(t, err)

	report, err := e.AddRule("Code Review!", engine.AddRuleOptions{})
	require.NoError(t, err)
	assert.False(t, report.Failed())

	canonical := readFile(t, filepath.Join(home, ".ai-agent", "rules", "code-review.md"))
	assert.Contains(t, canonical, "# Code Review")

	mdc := readFile(t, filepath.Join(home, ".cursor", "rules", "code-review.mdc"))
	assert.Contains(t, mdc, "alwaysApply: true")
	assert.Contains(t, mdc, marker.Sentinel)

	_, err = e.AddRule("code review", engine.AddRuleOptions{})
	assert.True(t, errors.IsAlreadyExists(err))
}

func TestAddRuleOptions(t *testing.T) {
	home := t.TempDir()
	e := newEngine(t, home, options.Options{})
	_, err := e.Init(nil)
	require.NoError(t, err)

	seed := filepath.Join(home, "seed.md")
	writeFile(t, seed, "# Deploys\n\nNever on Fridays.\n")

	_, err = e.AddRule("deploys", engine.AddRuleOptions{
		Description:   "Deployment etiquette",
		NoAlwaysApply: true,
		FromFile:      seed,
		Exclude:       []string{"cursor"},
	})
	require.NoError(t, err)

	canonical := readFile(t, filepath.Join(home, ".ai-agent", "rules", "deploys.md"))
	assert.Contains(t, canonical, "Never on Fridays.")
	assert.NoFileExists(t, filepath.Join(home, ".cursor", "rules", "deploys.mdc"))
	assert.Contains(t, readFile(t, filepath.Join(home, ".claude", "CLAUDE.md")), "Never on Fridays.")

	_, err = e.AddRule("ghost", engine.AddRuleOptions{Exclude: []string{"vscode"}})
	assert.True(t, errors.IsUnknownConsumer(err))
}

func TestRemoveRule(t *testing.T) {
	home := t.TempDir()
	seedConsumers(t, home)
	e := newEngine(t, home, options.Options{})
	_, err := e.Init(nil)
	require.NoError(t, err)

	report, err := e.RemoveRule("go-style")
	require.NoError(t, err)
	assert.False(t, report.Failed())

	assert.NoFileExists(t, filepath.Join(home, ".ai-agent", "rules", "go-style.md"))
	assert.NoFileExists(t, filepath.Join(home, ".cursor", "rules", "go-style.mdc"))
	assert.NotContains(t, readFile(t, filepath.Join(home, ".claude", "CLAUDE.md")), "Use gofmt.")

	_, err = e.RemoveRule("go-style")
	assert.True(t, errors.IsNotFound(err))
}

func TestSetAgentsMDPaths(t *testing.T) {
	home := t.TempDir()
	seedConsumers(t, home)
	e := newEngine(t, home, options.Options{})
	_, err := e.Init(nil)
	require.NoError(t, err)

	project := filepath.Join(home, "work")
	require.NoError(t, os.MkdirAll(project, 0o755))
	require.NoError(t, e.Set("agents_md.paths", []string{project}))

	_, err = e.Sync(nil)
	require.NoError(t, err)

	agents := readFile(t, filepath.Join(project, "AGENTS.md"))
	assert.Contains(t, agents, marker.Sentinel)
	assert.Contains(t, agents, "**go-style**")
}

func TestSetPathsSplitsCommaValues(t *testing.T) {
	home := t.TempDir()
	e := newEngine(t, home, options.Options{})
	_, err := e.Init(nil)
	require.NoError(t, err)

	require.NoError(t, e.Set("agents_md.paths", []string{"~/a, ~/b", "~/c"}))

	st, err := e.Status()
	require.NoError(t, err)
	assert.Equal(t, []string{"~/a", "~/b", "~/c"}, st.AgentsMDPaths)
}

func TestSetUnsupportedKey(t *testing.T) {
	home := t.TempDir()
	e := newEngine(t, home, options.Options{})
	_, err := e.Init(nil)
	require.NoError(t, err)

	err = e.Set("agents_md.bogus", []string{"x"})
	assert.True(t, errors.IsUnsupportedKey(err))
}

func TestCleanRestoresOriginals(t *testing.T) {
	home := t.TempDir()
	seedConsumers(t, home)
	original := readFile(t, filepath.Join(home, ".claude", "CLAUDE.md"))

	e := newEngine(t, home, options.Options{})
	_, err := e.Init(nil)
	require.NoError(t, err)
	require.Contains(t, readFile(t, filepath.Join(home, ".claude", "CLAUDE.md")), marker.Sentinel)

	e.Opts.AutoConfirm = true
	report, err := e.Clean()
	require.NoError(t, err)
	assert.False(t, report.Aborted)
	assert.True(t, report.Planned())

	// Generated-only artifacts are gone; overwritten originals are back.
	assert.NoFileExists(t, filepath.Join(home, ".codex", "model-instructions.md"))
	assert.NoFileExists(t, filepath.Join(home, ".cursor", "rules", "testing.mdc"))
	assert.Equal(t, original, readFile(t, filepath.Join(home, ".claude", "CLAUDE.md")))

	// Managed skill links removed, user's real skill directory preserved.
	_, err = os.Lstat(filepath.Join(home, ".codex", "skills", "writing"))
	assert.True(t, os.IsNotExist(err))
	assert.DirExists(t, filepath.Join(home, ".cursor", "skills", "writing"))
}

func TestCleanSkipsDeselectedConsumers(t *testing.T) {
	home := t.TempDir()
	seedConsumers(t, home)
	e := newEngine(t, home, options.Options{})
	_, err := e.Init(nil)
	require.NoError(t, err)

	// Deselect kiro rules and codex skills; their last generated
	// artifacts stay on disk.
	e.Decider = denyingDecider{deny: []string{"Sync rules to Kiro", "Link skills into Codex"}}
	_, err = e.Reconfigure()
	require.NoError(t, err)

	kiroFile := filepath.Join(home, ".kiro", "steering", "conventions.md")
	codexLink := filepath.Join(home, ".codex", "skills", "writing")
	require.FileExists(t, kiroFile)

	e.Opts.AutoConfirm = true
	report, err := e.Clean()
	require.NoError(t, err)

	assert.NotContains(t, report.Files, kiroFile)
	assert.NotContains(t, report.Links, codexLink)
	assert.Contains(t, report.Files, filepath.Join(home, ".claude", "CLAUDE.md"))
	assert.Contains(t, report.Links, filepath.Join(home, ".gemini", "skills", "writing"))

	assert.FileExists(t, kiroFile)
	_, err = os.Lstat(codexLink)
	require.NoError(t, err)
}

func TestCleanDeclinedLeavesEverything(t *testing.T) {
	home := t.TempDir()
	seedConsumers(t, home)
	e := newEngine(t, home, options.Options{})
	_, err := e.Init(nil)
	require.NoError(t, err)

	report, err := e.Clean()
	require.NoError(t, err)
	assert.True(t, report.Aborted)
	assert.FileExists(t, filepath.Join(home, ".codex", "model-instructions.md"))
}

func TestStatus(t *testing.T) {
	home := t.TempDir()
	seedConsumers(t, home)
	e := newEngine(t, home, options.Options{})

	st, err := e.Status()
	require.NoError(t, err)
	assert.False(t, st.Initialized)

	_, err = e.Init(nil)
	require.NoError(t, err)

	st, err = e.Status()
	require.NoError(t, err)
	assert.True(t, st.Initialized)
	assert.Equal(t, 2, st.RuleCount())
	assert.Equal(t, "go-style", st.Rules[0].ID)
	assert.Equal(t, "cursor", st.Rules[0].Source)
	assert.True(t, st.Rules[0].AlwaysApply)
	assert.Equal(t, []string{"writing"}, st.Skills)
	assert.NotEmpty(t, st.LatestBackup)

	byID := make(map[string]engine.ConsumerStatus)
	for _, cs := range st.Consumers {
		byID[cs.ID] = cs
	}
	assert.True(t, byID["claude"].RulesActive)
	assert.Equal(t, 1, byID["claude"].GeneratedFiles)
	assert.Equal(t, 2, byID["cursor"].GeneratedFiles)
	assert.Equal(t, 1, byID["codex"].SkillLinks)
	assert.Equal(t, 1, byID["antigravity"].SkillLinks)
}
