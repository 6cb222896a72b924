package engine

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/rulesync/internal/constants"
	"github.com/agentstation/rulesync/internal/importer"
	"github.com/agentstation/rulesync/internal/store"
	"github.com/agentstation/rulesync/pkg/errors"
)

// ManualSource marks rules created by add-rule rather than imported.
const ManualSource = "manual"

var titleCaser = cases.Title(language.English)

// AddRuleOptions refines what add-rule creates.
type AddRuleOptions struct {
	// Description becomes the rule's cursor description.
	Description string

	// NoAlwaysApply clears the alwaysApply default.
	NoAlwaysApply bool

	// FromFile seeds the rule content from an existing file instead of
	// the scaffold.
	FromFile string

	// Exclude lists consumer ids the rule is not rendered for.
	Exclude []string
}

// AddRule creates a new canonical rule and chains a sync. The name is
// slugified into the rule id; a colliding id in the manifest or on disk
// fails before anything is written.
func (e *Engine) AddRule(name string, o AddRuleOptions) (*SyncReport, error) {
	m, err := e.Store.ReadManifest()
	if err != nil {
		return nil, err
	}

	id := importer.Slugify(name)
	if id == "" {
		return nil, fmt.Errorf("%w: rule name %q", errors.ErrInvalidInput, name)
	}
	file := id + constants.RuleExt
	if m.HasRule(id) || e.Store.RuleFileExists(file) {
		return nil, errors.NewAlreadyExistsError("rule", id)
	}
	for _, excluded := range o.Exclude {
		if !e.Reg.Has(excluded) {
			return nil, errors.NewUnknownConsumerError(excluded, e.Reg.IDs())
		}
	}

	content, err := e.ruleContent(id, o)
	if err != nil {
		return nil, err
	}

	session, err := e.session("add-rule")
	if err != nil {
		return nil, err
	}
	w := e.writer(session)

	if err := e.Store.WriteRule(file, content, w); err != nil {
		return nil, err
	}

	always := !o.NoAlwaysApply
	m.Rules = append(m.Rules, store.Rule{
		ID:           id,
		File:         file,
		ImportedFrom: ManualSource,
		Cursor:       &store.CursorMeta{AlwaysApply: &always, Description: o.Description},
		Exclude:      o.Exclude,
	})
	e.Log.Info().Str("rule", id).Msg("rule added")
	return e.syncWith(m, w, session.Dir(), nil)
}

// ruleContent returns the new rule's body: the seed file when given,
// otherwise a titled scaffold.
func (e *Engine) ruleContent(id string, o AddRuleOptions) (string, error) {
	if o.FromFile != "" {
		data, err := os.ReadFile(o.FromFile)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", o.FromFile, err)
		}
		return strings.TrimRight(string(data), "\n") + "\n", nil
	}
	title := titleCaser.String(strings.ReplaceAll(id, "-", " "))
	return "# " + title + "\n\nTODO: describe this rule.\n", nil
}

// RemoveRule deletes a rule from the manifest and the canonical store,
// then chains a sync so generated artifacts drop it too.
func (e *Engine) RemoveRule(id string) (*SyncReport, error) {
	m, err := e.Store.ReadManifest()
	if err != nil {
		return nil, err
	}
	rule, ok := m.Rule(id)
	if !ok {
		return nil, errors.NewNotFoundError("rule", id)
	}

	session, err := e.session("remove-rule")
	if err != nil {
		return nil, err
	}
	w := e.writer(session)

	if err := w.RemoveFile(e.Store.Layout().RuleFile(rule.File)); err != nil {
		return nil, err
	}
	m.RemoveRule(id)
	e.Log.Info().Str("rule", id).Msg("rule removed")
	return e.syncWith(m, w, session.Dir(), nil)
}

// Settable configuration keys. Everything else is rejected; there is no
// free-form configuration surface.
var settableKeys = []string{
	"agents_md.paths",
	"agents_md.header",
	"agents_md.preamble",
}

// Set updates one settable manifest key and persists the manifest. It does
// not regenerate artifacts; a later sync picks the change up.
func (e *Engine) Set(key string, values []string) error {
	switch key {
	case "agents_md.paths", "agents_md.header", "agents_md.preamble":
	default:
		return errors.NewUnsupportedKeyError(key, settableKeys)
	}

	m, err := e.Store.ReadManifest()
	if err != nil {
		return err
	}

	switch key {
	case "agents_md.paths":
		m.AgentsMD.Paths = splitList(values)
	case "agents_md.header":
		if len(values) != 1 {
			return fmt.Errorf("%w: %s takes exactly one value", errors.ErrInvalidInput, key)
		}
		m.AgentsMD.Header = values[0]
	case "agents_md.preamble":
		if len(values) != 1 {
			return fmt.Errorf("%w: %s takes exactly one value", errors.ErrInvalidInput, key)
		}
		m.AgentsMD.Preamble = values[0]
	}

	session, err := e.session("set")
	if err != nil {
		return err
	}
	if err := e.Store.WriteManifest(m, e.writer(session)); err != nil {
		return err
	}
	e.Log.Info().Str("key", key).Msg("updated, run 'rulesync sync' to regenerate")
	return nil
}

// splitList flattens comma-separated entries in array values, matching
// how list flags accept them.
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
