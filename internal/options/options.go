// Package options defines the uniform run configuration shared by every
// rulesync operation.
package options

// Options is the per-invocation configuration accepted by all engine
// operations. A zero value is a plain, non-interactive, mutating run.
type Options struct {
	// DryRun previews mutations without touching the filesystem.
	DryRun bool

	// ShowDiff prints a unified diff against existing files before writes.
	ShowDiff bool

	// Verbose enables detailed per-file progress output.
	Verbose bool

	// AutoConfirm skips confirmation prompts, accepting defaults.
	AutoConfirm bool
}
