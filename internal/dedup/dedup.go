// Package dedup merges imported rules sharing an id across consumers using
// textual similarity. The first-seen record wins; near-identical later
// records are silently dropped, and genuinely conflicting ones are resolved
// through the injected decider.
package dedup

import (
	"fmt"
	"io"
	"os"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog"

	"github.com/agentstation/rulesync/internal/importer"
	"github.com/agentstation/rulesync/internal/prompt"
)

// SimilarityThreshold is the ratio above which two rule bodies sharing an
// id are treated as duplicates of each other.
const SimilarityThreshold = 0.8

// Deduplicator resolves id collisions across an ordered import sequence.
type Deduplicator struct {
	// Decider resolves genuine conflicts (similarity at or below the
	// threshold). A prompt.Auto decider keeps the first-seen version.
	Decider prompt.Decider

	// Out receives conflict diffs in interactive mode. Defaults to
	// os.Stdout.
	Out io.Writer

	// Log receives duplicate and conflict notices.
	Log zerolog.Logger
}

func (d *Deduplicator) out() io.Writer {
	if d.Out != nil {
		return d.Out
	}
	return os.Stdout
}

// Deduplicate returns rules in first-occurrence order with at most one
// entry per id. Running it on an already-deduplicated sequence returns the
// sequence unchanged.
func (d *Deduplicator) Deduplicate(all []importer.Imported) []importer.Imported {
	seen := make(map[string]importer.Imported)
	result := make([]importer.Imported, 0, len(all))

	for _, rule := range all {
		existing, dup := seen[rule.ID]
		if !dup {
			seen[rule.ID] = rule
			result = append(result, rule)
			continue
		}

		ratio := Similarity(existing.Content, rule.Content)
		if ratio > SimilarityThreshold {
			d.Log.Debug().
				Str("rule", rule.ID).
				Str("source", rule.Source).
				Str("kept", existing.Source).
				Float64("ratio", ratio).
				Msg("duplicate rule, skipping")
			continue
		}

		d.Log.Warn().
			Str("rule", rule.ID).
			Str("source", rule.Source).
			Str("kept", existing.Source).
			Float64("ratio", ratio).
			Msg("conflicting rule content")

		if d.Decider != nil && d.Decider.Interactive() {
			diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
				A:        difflib.SplitLines(existing.Content),
				B:        difflib.SplitLines(rule.Content),
				FromFile: existing.Source + "/" + rule.ID,
				ToFile:   rule.Source + "/" + rule.ID,
				Context:  3,
			})
			if err == nil {
				fmt.Fprint(d.out(), diff)
			}
			keep := d.Decider.Confirm(
				fmt.Sprintf("Keep version from %s?", existing.Source), true)
			if !keep {
				seen[rule.ID] = rule
				result = replace(result, rule)
			}
		}
		// Auto-confirm keeps the first-seen version.
	}
	return result
}

// replace swaps the entry sharing the rule's id, preserving order by
// removing the old entry and appending the replacement.
func replace(rules []importer.Imported, rule importer.Imported) []importer.Imported {
	out := rules[:0]
	for _, r := range rules {
		if r.ID != rule.ID {
			out = append(out, r)
		}
	}
	return append(out, rule)
}

// Similarity computes a normalized edit-similarity ratio in [0,1] between
// two rule bodies. Identical strings yield 1.0; disjoint strings approach
// 0.0.
func Similarity(a, b string) float64 {
	matcher := difflib.NewMatcher(difflib.SplitLines(a), difflib.SplitLines(b))
	return matcher.Ratio()
}
