package backup_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/rulesync/internal/backup"
	"github.com/agentstation/rulesync/internal/options"
	"github.com/agentstation/rulesync/pkg/logging"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestInitCreatesSessionWithMeta(t *testing.T) {
	home := t.TempDir()
	root := filepath.Join(home, ".ai-agent", "backups")
	log := logging.NewTestLogger(t)

	session, err := backup.Init(root, home, "sync", options.Options{}, *log.Logger)
	require.NoError(t, err)

	assert.DirExists(t, session.Dir())
	assert.FileExists(t, filepath.Join(session.Dir(), "meta.yaml"))
}

func TestInitDryRunCreatesNothing(t *testing.T) {
	home := t.TempDir()
	root := filepath.Join(home, ".ai-agent", "backups")
	log := logging.NewTestLogger(t)

	session, err := backup.Init(root, home, "sync", options.Options{DryRun: true}, *log.Logger)
	require.NoError(t, err)

	assert.NoDirExists(t, session.Dir())
	assert.NoDirExists(t, root)
}

func TestFileMirrorsHomeRelativePath(t *testing.T) {
	home := t.TempDir()
	root := filepath.Join(home, ".ai-agent", "backups")
	log := logging.NewTestLogger(t)
	original := filepath.Join(home, ".cursor", "rules", "style.mdc")
	writeFile(t, original, "original content")

	session, err := backup.Init(root, home, "sync", options.Options{}, *log.Logger)
	require.NoError(t, err)
	require.NoError(t, session.File(original))

	mirrored := filepath.Join(session.Dir(), "files", ".cursor", "rules", "style.mdc")
	data, err := os.ReadFile(mirrored)
	require.NoError(t, err)
	assert.Equal(t, "original content", string(data))
}

func TestFileBacksUpOncePerSession(t *testing.T) {
	home := t.TempDir()
	root := filepath.Join(home, ".ai-agent", "backups")
	log := logging.NewTestLogger(t)
	original := filepath.Join(home, ".claude", "CLAUDE.md")
	writeFile(t, original, "original content")

	session, err := backup.Init(root, home, "sync", options.Options{}, *log.Logger)
	require.NoError(t, err)
	require.NoError(t, session.File(original))

	// A second backup of the same path, after the command's own write,
	// must not clobber the preserved original.
	writeFile(t, original, "generated content")
	require.NoError(t, session.File(original))

	data, err := os.ReadFile(filepath.Join(session.Dir(), "files", ".claude", "CLAUDE.md"))
	require.NoError(t, err)
	assert.Equal(t, "original content", string(data))
}

func TestFileSkipsSymlinksAndMissing(t *testing.T) {
	home := t.TempDir()
	root := filepath.Join(home, ".ai-agent", "backups")
	log := logging.NewTestLogger(t)
	target := filepath.Join(home, "real.txt")
	link := filepath.Join(home, "link.txt")
	writeFile(t, target, "x")
	require.NoError(t, os.Symlink(target, link))

	session, err := backup.Init(root, home, "sync", options.Options{}, *log.Logger)
	require.NoError(t, err)

	require.NoError(t, session.File(link))
	require.NoError(t, session.File(filepath.Join(home, "absent.txt")))

	assert.NoFileExists(t, filepath.Join(session.Dir(), "files", "link.txt"))
	assert.NoFileExists(t, filepath.Join(session.Dir(), "files", "absent.txt"))
}

func TestDirectoryMirrorsTree(t *testing.T) {
	home := t.TempDir()
	root := filepath.Join(home, ".ai-agent", "backups")
	log := logging.NewTestLogger(t)
	dir := filepath.Join(home, ".ai-agent", "rules")
	writeFile(t, filepath.Join(dir, "a.md"), "A")
	writeFile(t, filepath.Join(dir, "nested", "b.md"), "B")

	session, err := backup.Init(root, home, "init", options.Options{}, *log.Logger)
	require.NoError(t, err)
	require.NoError(t, session.Directory(dir))

	mirror := filepath.Join(session.Dir(), "files", ".ai-agent", "rules")
	assert.FileExists(t, filepath.Join(mirror, "a.md"))
	assert.FileExists(t, filepath.Join(mirror, "nested", "b.md"))
}

func TestLatestPicksGreatestValidSession(t *testing.T) {
	home := t.TempDir()
	root := filepath.Join(home, "backups")

	// Two valid sessions plus one without a meta record.
	writeFile(t, filepath.Join(root, "20240101T000000Z", "meta.yaml"), "created: x")
	writeFile(t, filepath.Join(root, "20250101T000000Z", "meta.yaml"), "created: y")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "20260101T000000Z"), 0o755))

	latest, err := backup.Latest(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "20250101T000000Z"), latest)
}

func TestLatestEmptyRoot(t *testing.T) {
	latest, err := backup.Latest(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, latest)
}

func TestRestoreOnlyTargets(t *testing.T) {
	home := t.TempDir()
	root := filepath.Join(home, ".ai-agent", "backups")
	log := logging.NewTestLogger(t)
	wanted := filepath.Join(home, ".claude", "CLAUDE.md")
	ignored := filepath.Join(home, ".gemini", "GEMINI.md")
	writeFile(t, wanted, "claude original")
	writeFile(t, ignored, "gemini original")

	session, err := backup.Init(root, home, "sync", options.Options{}, *log.Logger)
	require.NoError(t, err)
	require.NoError(t, session.File(wanted))
	require.NoError(t, session.File(ignored))

	// Simulate the generator overwriting, then restore just one target.
	writeFile(t, wanted, "generated")
	writeFile(t, ignored, "generated")

	count, err := backup.Restore(session.Dir(), home, map[string]bool{wanted: true},
		options.Options{}, *log.Logger)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	data, err := os.ReadFile(wanted)
	require.NoError(t, err)
	assert.Equal(t, "claude original", string(data))

	data, err = os.ReadFile(ignored)
	require.NoError(t, err)
	assert.Equal(t, "generated", string(data))
}

func TestRestoreDryRunTouchesNothing(t *testing.T) {
	home := t.TempDir()
	root := filepath.Join(home, ".ai-agent", "backups")
	log := logging.NewTestLogger(t)
	target := filepath.Join(home, ".claude", "CLAUDE.md")
	writeFile(t, target, "original")

	session, err := backup.Init(root, home, "sync", options.Options{}, *log.Logger)
	require.NoError(t, err)
	require.NoError(t, session.File(target))
	writeFile(t, target, "overwritten")

	count, err := backup.Restore(session.Dir(), home, map[string]bool{target: true},
		options.Options{DryRun: true}, *log.Logger)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "overwritten", string(data))
}
