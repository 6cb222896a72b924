package generate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/agentstation/rulesync/internal/consumers"
	"github.com/agentstation/rulesync/internal/marker"
)

// agentsMDGenerator fans a condensed one-line-per-rule digest out to the
// AGENTS.md locations configured in the manifest. It is the only generator
// driven entirely by user-configured paths; with none configured it is a
// logged no-op rather than an error.
type agentsMDGenerator struct {
	target consumers.Target
}

func (g *agentsMDGenerator) Consumer() string { return g.target.ID }

func (g *agentsMDGenerator) Generate(ctx *Context) error {
	cfg := ctx.Manifest.AgentsMD
	paths := ExpandPaths(cfg.Paths, ctx.UserHome, ctx.Log)
	if len(paths) == 0 {
		ctx.Log.Info().Msg("no agents-md paths configured, skipping")
		return nil
	}

	rules := ctx.Manifest.RulesFor(g.target.ID)
	lines := []string{marker.Header(ctx.Now), cfg.Header, ""}
	if cfg.Preamble != "" {
		lines = append(lines, cfg.Preamble, "")
	}
	for i, rule := range rules {
		lines = append(lines, fmt.Sprintf("%d. **%s** -- %s", i+1, rule.ID, Summary(rule, ctx.Store)))
	}
	lines = append(lines, "")
	content := strings.Join(lines, "\n")

	for _, path := range paths {
		if err := ctx.Writer.WriteFile(path, content); err != nil {
			return err
		}
	}
	return nil
}

// ExpandPaths resolves configured agents-md path entries into concrete file
// paths: "~/" prefixes expand against the user home, glob patterns expand
// via doublestar, and directories resolve to an AGENTS.md inside them.
// Patterns matching nothing are logged and skipped.
func ExpandPaths(raw []string, userHome string, log zerolog.Logger) []string {
	var out []string
	for _, entry := range raw {
		expanded := expandHome(entry, userHome)
		if strings.ContainsAny(expanded, "*?[") {
			matches, err := doublestar.FilepathGlob(expanded)
			if err != nil || len(matches) == 0 {
				log.Warn().Str("pattern", entry).Msg("agents-md pattern matched nothing")
				continue
			}
			sort.Strings(matches)
			for _, match := range matches {
				out = append(out, fileOrDefault(match))
			}
			continue
		}
		out = append(out, fileOrDefault(expanded))
	}
	return out
}

func expandHome(path, userHome string) string {
	if path == "~" {
		return userHome
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(userHome, path[2:])
	}
	return path
}

// fileOrDefault maps a directory to the AGENTS.md inside it and leaves
// file paths (existing or not) untouched.
func fileOrDefault(path string) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, "AGENTS.md")
	}
	return path
}
