// Package constants provides shared constants used throughout the rulesync
// codebase: canonical layout names, file permissions, and format strings
// that must stay consistent across components.
package constants

// Canonical store layout, relative to the rulesync home directory.
const (
	// DefaultHome is the canonical store root, relative to the user home.
	DefaultHome = ".ai-agent"

	// ManifestName is the manifest file inside the canonical store.
	ManifestName = "manifest.yaml"

	// RulesDirName holds one markdown file per rule.
	RulesDirName = "rules"

	// SkillsDirName holds one directory per skill.
	SkillsDirName = "skills"

	// BackupsDirName holds timestamped backup sessions.
	BackupsDirName = "backups"

	// RuleExt is the extension of canonical rule files.
	RuleExt = ".md"
)

// Backup session layout.
const (
	// SessionMetaName is the metadata record marking a valid session.
	SessionMetaName = "meta.yaml"

	// SessionFilesDirName mirrors backed-up originals inside a session.
	SessionFilesDirName = "files"

	// SessionTimestampFormat names session directories. Lexicographic
	// order of names equals chronological order.
	SessionTimestampFormat = "20060102T150405Z"
)

// File permission constants define standard Unix file permissions.
const (
	// DirPermissions is the default permission for created directories.
	DirPermissions = 0o755

	// FilePermissions is the default permission for created files.
	FilePermissions = 0o644
)

// Summary truncation lengths for rule previews.
const (
	// PreviewLength truncates rule previews shown during import selection.
	PreviewLength = 80

	// SummaryLength truncates rule summaries in condensed output.
	SummaryLength = 120
)
