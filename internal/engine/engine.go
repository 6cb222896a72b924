// Package engine orchestrates the top-level commands. Each operation wires
// the same machinery together: the consumer registry, the canonical store,
// a per-invocation backup session, and a transactional writer that every
// mutation flows through.
package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/agentstation/utc"
	"github.com/rs/zerolog"

	"github.com/agentstation/rulesync/internal/backup"
	"github.com/agentstation/rulesync/internal/consumers"
	"github.com/agentstation/rulesync/internal/constants"
	"github.com/agentstation/rulesync/internal/fsops"
	"github.com/agentstation/rulesync/internal/generate"
	"github.com/agentstation/rulesync/internal/options"
	"github.com/agentstation/rulesync/internal/prompt"
	"github.com/agentstation/rulesync/internal/store"
	"github.com/agentstation/rulesync/pkg/errors"
)

// Engine executes commands against one user home directory.
type Engine struct {
	Reg      *consumers.Registry
	Store    *store.Store
	UserHome string
	Opts     options.Options
	Decider  prompt.Decider
	Out      io.Writer
	Log      zerolog.Logger
}

// New returns an engine rooted at the canonical store inside userHome.
func New(userHome string, opts options.Options, decider prompt.Decider, log zerolog.Logger) *Engine {
	return &Engine{
		Reg:      consumers.New(userHome),
		Store:    store.New(filepath.Join(userHome, constants.DefaultHome)),
		UserHome: userHome,
		Opts:     opts,
		Decider:  decider,
		Out:      os.Stdout,
		Log:      log,
	}
}

func (e *Engine) out() io.Writer {
	if e.Out != nil {
		return e.Out
	}
	return os.Stdout
}

// session opens the backup session for one command invocation.
func (e *Engine) session(command string) (*backup.Session, error) {
	return backup.Init(e.Store.Layout().BackupsDir(), e.UserHome, command, e.Opts, e.Log)
}

// writer returns the transactional writer backed by the given session.
func (e *Engine) writer(s *backup.Session) *fsops.Writer {
	return &fsops.Writer{Session: s, Opts: e.Opts, Log: e.Log, Out: e.Out}
}

// confirm asks the decider, short-circuiting to yes under --yes.
func (e *Engine) confirm(question string, def bool) bool {
	if e.Opts.AutoConfirm {
		return true
	}
	return e.Decider.Confirm(question, def)
}

// decider returns the conflict decider, substituting the defaults-taking
// one under --yes so a terminal decider is never consulted.
func (e *Engine) decider() prompt.Decider {
	if e.Opts.AutoConfirm {
		return prompt.Auto{}
	}
	return e.Decider
}

// SyncReport summarizes one synchronization pass.
type SyncReport struct {
	RuleConsumers  []string
	SkillConsumers []string

	// Failures maps consumer id to the error that stopped its phase.
	// A failed consumer never aborts the others.
	Failures map[string]error

	Mutations int
	BackupDir string
	DryRun    bool
}

// Failed reports whether any consumer phase failed.
func (r *SyncReport) Failed() bool {
	return len(r.Failures) > 0
}

// Sync regenerates every active consumer's artifacts from the canonical
// store: first the rules phase, then the skills phase, then the manifest
// is re-persisted. A non-empty only list restricts both phases to the
// named consumers; an unknown name fails before anything runs.
func (e *Engine) Sync(only []string) (*SyncReport, error) {
	m, err := e.Store.ReadManifest()
	if err != nil {
		return nil, err
	}
	for _, id := range only {
		if !e.Reg.Has(id) {
			return nil, errors.NewUnknownConsumerError(id, e.Reg.IDs())
		}
	}

	session, err := e.session("sync")
	if err != nil {
		return nil, err
	}
	return e.syncWith(m, e.writer(session), session.Dir(), only)
}

// syncWith runs both phases against an already-open writer, so mutating
// commands can chain a regeneration into their own backup session.
func (e *Engine) syncWith(m *store.Manifest, w *fsops.Writer, backupDir string, only []string) (*SyncReport, error) {
	report := &SyncReport{
		Failures:  make(map[string]error),
		BackupDir: backupDir,
		DryRun:    e.Opts.DryRun,
	}

	if err := e.syncRules(m, w, only, report); err != nil {
		return nil, err
	}
	e.syncSkills(m, w, only, report)

	if err := e.Store.WriteManifest(m, w); err != nil {
		return nil, err
	}
	report.Mutations = w.Mutations
	return report, nil
}

// syncRules runs every active rule generator, collecting per-consumer
// failures instead of aborting the pass.
func (e *Engine) syncRules(m *store.Manifest, w *fsops.Writer, only []string, report *SyncReport) error {
	gens, err := generate.For(e.Reg)
	if err != nil {
		return err
	}
	ctx := &generate.Context{
		Manifest: m,
		Store:    e.Store,
		Writer:   w,
		UserHome: e.UserHome,
		Now:      utc.Now(),
		Log:      e.Log,
	}
	for _, id := range selected(m.ActiveTargets.Rules, only) {
		gen, ok := gens[id]
		if !ok {
			report.Failures[id] = fmt.Errorf("consumer %s has no generator", id)
			continue
		}
		log := e.Log.With().Str("consumer", id).Logger()
		log.Info().Msg("syncing rules")
		if err := gen.Generate(ctx); err != nil {
			log.Error().Err(err).Msg("rules sync failed")
			report.Failures[id] = errors.NewSyncError(id, err)
			continue
		}
		report.RuleConsumers = append(report.RuleConsumers, id)
	}
	return nil
}

// syncSkills reconciles each active skill target's symlink directory.
func (e *Engine) syncSkills(m *store.Manifest, w *fsops.Writer, only []string, report *SyncReport) {
	for _, id := range selected(m.ActiveTargets.SkillNames(), only) {
		target, err := e.Reg.Get(id)
		if err != nil || !target.HasSkills() {
			continue
		}
		log := e.Log.With().Str("consumer", id).Logger()
		log.Info().Msg("syncing skills")
		if err := generate.SyncSkills(target.SkillsDir, e.Store.Layout().SkillsDir(), w, log); err != nil {
			log.Error().Err(err).Msg("skills sync failed")
			if _, dup := report.Failures[id]; !dup {
				report.Failures[id] = errors.NewSyncError(id, err)
			}
			continue
		}
		report.SkillConsumers = append(report.SkillConsumers, id)
	}
}

// selected filters ids by the only list, preserving order. An empty only
// list selects everything.
func selected(ids, only []string) []string {
	if len(only) == 0 {
		return ids
	}
	want := make(map[string]bool, len(only))
	for _, id := range only {
		want[id] = true
	}
	var out []string
	for _, id := range ids {
		if want[id] {
			out = append(out, id)
		}
	}
	return out
}
