// Package marker owns the generated-file sentinel that distinguishes
// engine-owned artifacts from user-authored files. Importers use it to
// avoid re-importing engine output and clean-up uses it to avoid touching
// hand-written files.
package marker

import (
	"strings"
	"unicode"

	"github.com/agentstation/utc"
)

// Sentinel is the exact first line of every artifact this engine writes.
const Sentinel = "# Generated from ~/.ai-agent/ -- do not edit directly"

// regenerateHint tells readers how to rebuild the artifact.
const regenerateHint = "# Run: rulesync sync"

// IsGenerated reports whether text is an engine-owned artifact. The check
// tolerates leading whitespace but otherwise matches the sentinel exactly.
func IsGenerated(text string) bool {
	return strings.HasPrefix(strings.TrimLeftFunc(text, unicode.IsSpace), Sentinel)
}

// Header renders the full sentinel block: sentinel line, regenerate hint,
// and a last-synced timestamp line.
func Header(now utc.Time) string {
	return Sentinel + "\n" +
		regenerateHint + "\n" +
		"# Last synced: " + now.Format("2006-01-02T15:04:05Z") + "\n"
}
