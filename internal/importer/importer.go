// Package importer scans each consumer's existing rule and skill storage
// and converts it into normalized transient rule records. Every variant
// applies the generated-file check so engine output is never re-imported,
// and missing sources are logged and skipped rather than treated as errors.
package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/rulesync/internal/consumers"
	"github.com/agentstation/rulesync/internal/marker"
	"github.com/agentstation/rulesync/internal/store"
	"github.com/agentstation/rulesync/pkg/frontmatter"
)

// Imported is a transient rule record produced by the import pipeline. It
// is never persisted directly; once selected it becomes a manifest rule
// plus a canonical file.
type Imported struct {
	ID      string
	Content string
	Source  string
	Cursor  *store.CursorMeta
}

// Result is what one importer discovered: normalized rules plus the
// absolute paths of candidate skill directories.
type Result struct {
	Rules  []Imported
	Skills []string
}

// Importer scans one consumer's existing storage.
type Importer interface {
	// Source returns the consumer id this importer reads from.
	Source() string

	// Import scans the consumer's files. A missing source yields an
	// empty result, not an error.
	Import(log zerolog.Logger) (Result, error)
}

// ForSources returns importers for the given consumer ids, in the given
// order. The order is what makes deduplication's first-seen-wins rule
// deterministic.
func ForSources(reg *consumers.Registry, sources []string) ([]Importer, error) {
	var out []Importer
	for _, id := range sources {
		target, err := reg.Get(id)
		if err != nil {
			return nil, err
		}
		switch id {
		case consumers.Cursor:
			out = append(out, &frontmatterDirImporter{target: target})
		case consumers.Codex:
			out = append(out, &sourceSectionImporter{target: target})
		case consumers.Claude, consumers.Gemini:
			out = append(out, &headingSectionImporter{target: target})
		case consumers.Kiro:
			out = append(out, &flatDirImporter{target: target})
		default:
			return nil, fmt.Errorf("consumer %s has no importer", id)
		}
	}
	return out, nil
}

// frontmatterDirImporter reads a directory of per-rule files whose leading
// frontmatter block carries cursor metadata. Only the recognized keys
// (alwaysApply, description, globs) are carried forward.
type frontmatterDirImporter struct {
	target consumers.Target
}

func (i *frontmatterDirImporter) Source() string { return i.target.ID }

func (i *frontmatterDirImporter) Import(log zerolog.Logger) (Result, error) {
	var result Result
	files, ok, err := listFiles(i.target.RulesDir, i.target.RulesExt)
	if err != nil {
		return result, err
	}
	if !ok {
		log.Info().Str("consumer", i.target.ID).Msg("no rules directory found, skipping")
		return scanTargetSkills(i.target, result, log)
	}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return result, fmt.Errorf("reading %s: %w", file, err)
		}
		meta, body := frontmatter.Parse(string(data))
		if marker.IsGenerated(body) {
			log.Debug().Str("consumer", i.target.ID).Str("file", filepath.Base(file)).
				Msg("skipping generated file")
			continue
		}
		id := stem(file, i.target.RulesExt)
		result.Rules = append(result.Rules, Imported{
			ID:      id,
			Content: body,
			Source:  i.target.ID,
			Cursor:  cursorMeta(meta),
		})
		log.Info().Str("consumer", i.target.ID).Str("rule", id).Msg("imported")
	}
	return scanTargetSkills(i.target, result, log)
}

// cursorMeta extracts the recognized metadata keys. Unrecognized keys are
// dropped, not preserved.
func cursorMeta(meta *frontmatter.Meta) *store.CursorMeta {
	var cm store.CursorMeta
	found := false
	if apply, ok := meta.Bool("alwaysApply"); ok {
		cm.AlwaysApply = &apply
		found = true
	}
	if meta.Has("description") {
		cm.Description = meta.String("description")
		found = true
	}
	if meta.Has("globs") {
		cm.Globs = meta.String("globs")
		found = true
	}
	if !found {
		return nil
	}
	return &cm
}

var sourceSectionRe = regexp.MustCompile(`(?m)^## Source:\s*(.+)$`)

// sourceSectionImporter splits a single concatenated file on "## Source:"
// marker lines; the rule id is the marker's text with a trailing .mdc
// suffix stripped.
type sourceSectionImporter struct {
	target consumers.Target
}

func (i *sourceSectionImporter) Source() string { return i.target.ID }

func (i *sourceSectionImporter) Import(log zerolog.Logger) (Result, error) {
	var result Result
	text, ok, err := readOptional(i.target.RulesFile)
	if err != nil {
		return result, err
	}
	if !ok {
		log.Info().Str("consumer", i.target.ID).Msg("no rules file found, skipping")
		return scanTargetSkills(i.target, result, log)
	}
	if marker.IsGenerated(text) {
		log.Debug().Str("consumer", i.target.ID).Msg("skipping generated rules file")
		return scanTargetSkills(i.target, result, log)
	}
	for _, sec := range splitSections(text, sourceSectionRe) {
		id := strings.TrimSuffix(strings.TrimSpace(sec.heading), ".mdc")
		result.Rules = append(result.Rules, Imported{
			ID:      id,
			Content: strings.TrimSpace(sec.content),
			Source:  i.target.ID,
		})
		log.Info().Str("consumer", i.target.ID).Str("rule", id).Msg("imported section")
	}
	return scanTargetSkills(i.target, result, log)
}

var topHeadingRe = regexp.MustCompile(`(?m)^# (.+)$`)

// headingSectionImporter splits a single concatenated file on top-level
// markdown headings; the id is the slugified heading and the stored
// content re-prepends the heading line so round-tripping preserves it.
type headingSectionImporter struct {
	target consumers.Target
}

func (i *headingSectionImporter) Source() string { return i.target.ID }

func (i *headingSectionImporter) Import(log zerolog.Logger) (Result, error) {
	var result Result
	text, ok, err := readOptional(i.target.RulesFile)
	if err != nil {
		return result, err
	}
	if !ok {
		log.Info().Str("consumer", i.target.ID).Msg("no rules file found, skipping")
		return scanTargetSkills(i.target, result, log)
	}
	if marker.IsGenerated(text) {
		log.Debug().Str("consumer", i.target.ID).Msg("skipping generated rules file")
		return scanTargetSkills(i.target, result, log)
	}
	for _, sec := range splitSections(text, topHeadingRe) {
		heading := strings.TrimSpace(sec.heading)
		content := "# " + heading + "\n" + strings.TrimSpace(sec.content)
		result.Rules = append(result.Rules, Imported{
			ID:      Slugify(heading),
			Content: strings.TrimSpace(content),
			Source:  i.target.ID,
		})
		log.Info().Str("consumer", i.target.ID).Str("heading", heading).Msg("imported section")
	}
	return scanTargetSkills(i.target, result, log)
}

// flatDirImporter reads a flat directory of independent markdown files:
// one rule per file, no section splitting.
type flatDirImporter struct {
	target consumers.Target
}

func (i *flatDirImporter) Source() string { return i.target.ID }

func (i *flatDirImporter) Import(log zerolog.Logger) (Result, error) {
	var result Result
	dir := filepath.Dir(i.target.RulesFile)
	files, ok, err := listFiles(dir, ".md")
	if err != nil {
		return result, err
	}
	if !ok {
		log.Info().Str("consumer", i.target.ID).Msg("no rules directory found, skipping")
		return result, nil
	}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return result, fmt.Errorf("reading %s: %w", file, err)
		}
		text := string(data)
		if marker.IsGenerated(text) {
			log.Debug().Str("consumer", i.target.ID).Str("file", filepath.Base(file)).
				Msg("skipping generated file")
			continue
		}
		id := stem(file, ".md")
		result.Rules = append(result.Rules, Imported{
			ID:      id,
			Content: strings.TrimSpace(text),
			Source:  i.target.ID,
		})
		log.Info().Str("consumer", i.target.ID).Str("rule", id).Msg("imported")
	}
	return result, nil
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases a heading and collapses every run of non-alphanumeric
// characters to a single hyphen, trimming hyphens from both ends.
func Slugify(heading string) string {
	slug := nonAlnumRe.ReplaceAllString(strings.ToLower(heading), "-")
	return strings.Trim(slug, "-")
}

// section is one heading-delimited segment of a concatenated file.
type section struct {
	heading string
	content string
}

// splitSections slices text at every match of re, which must capture the
// heading text in its first group. Content runs from the end of a marker
// line to the start of the next.
func splitSections(text string, re *regexp.Regexp) []section {
	matches := re.FindAllStringSubmatchIndex(text, -1)
	out := make([]section, 0, len(matches))
	for i, loc := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		out = append(out, section{
			heading: text[loc[2]:loc[3]],
			content: text[loc[1]:end],
		})
	}
	return out
}

// listFiles enumerates files in dir with the given extension, sorted by
// name for determinism. The second result reports whether dir exists.
func listFiles(dir, ext string) ([]string, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading %s: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, true, nil
}

// readOptional reads a file that is allowed to be absent.
func readOptional(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), true, nil
}

// stem returns the filename without its extension.
func stem(path, ext string) string {
	return strings.TrimSuffix(filepath.Base(path), ext)
}

func scanTargetSkills(target consumers.Target, result Result, log zerolog.Logger) (Result, error) {
	if !target.HasSkills() {
		return result, nil
	}
	skills, err := ScanSkills(target.SkillsDir)
	if err != nil {
		return result, err
	}
	if len(skills) > 0 {
		log.Debug().Str("consumer", target.ID).Int("count", len(skills)).Msg("discovered skills")
	}
	result.Skills = append(result.Skills, skills...)
	return result, nil
}
