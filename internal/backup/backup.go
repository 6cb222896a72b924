// Package backup wraps every mutating filesystem operation in a recoverable
// session. A session is a timestamped directory under the canonical backups
// root holding a metadata record plus a mirror of every original file as it
// looked immediately before the command ran, so that a synchronization pass
// can always be undone.
package backup

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agentstation/utc"
	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog"

	"github.com/agentstation/rulesync/internal/constants"
	"github.com/agentstation/rulesync/internal/options"
)

// Meta is the session metadata record. Its presence marks a directory under
// the backups root as a valid session.
type Meta struct {
	Created string `yaml:"created"`
	Command string `yaml:"command"`
}

// Session is an explicit handle to one backup session. Orchestrators create
// one session per command invocation, lazily, before the first mutation, and
// thread the handle through every component that mutates the filesystem.
type Session struct {
	dir      string
	userHome string
	opts     options.Options
	log      zerolog.Logger

	// backed tracks paths already mirrored, so a second write to the
	// same path within one command never clobbers the preserved
	// original.
	backed map[string]bool
}

// Init creates a timestamped session directory under backupsRoot and writes
// its metadata record. In dry-run mode nothing is created; the returned
// handle logs instead of copying.
func Init(backupsRoot, userHome, command string, opts options.Options, log zerolog.Logger) (*Session, error) {
	ts := utc.Now().Format(constants.SessionTimestampFormat)
	s := &Session{
		dir:      sessionDir(backupsRoot, ts),
		userHome: userHome,
		opts:     opts,
		log:      log,
	}
	if opts.DryRun {
		log.Debug().Str("command", command).Msg("dry-run: skipping backup session creation")
		return s, nil
	}
	if err := os.MkdirAll(s.dir, constants.DirPermissions); err != nil {
		return nil, fmt.Errorf("creating backup session: %w", err)
	}
	data, err := yaml.Marshal(Meta{Created: ts, Command: command})
	if err != nil {
		return nil, fmt.Errorf("encoding session meta: %w", err)
	}
	metaPath := filepath.Join(s.dir, constants.SessionMetaName)
	if err := os.WriteFile(metaPath, data, constants.FilePermissions); err != nil {
		return nil, fmt.Errorf("writing session meta: %w", err)
	}
	log.Debug().Str("session", s.dir).Str("command", command).Msg("backup session created")
	return s, nil
}

// sessionDir picks a session directory name that does not collide with an
// existing session from the same second. The numeric suffix sorts after
// the bare timestamp, so Latest still returns the newest session.
func sessionDir(backupsRoot, ts string) string {
	dir := filepath.Join(backupsRoot, ts)
	for i := 2; ; i++ {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return dir
		}
		dir = filepath.Join(backupsRoot, fmt.Sprintf("%s-%d", ts, i))
	}
}

// Dir returns the session directory.
func (s *Session) Dir() string {
	return s.dir
}

// dest maps an absolute original path to its mirror location inside the
// session.
func (s *Session) dest(original string) string {
	return mirrorPath(s.dir, s.userHome, original)
}

// mirrorPath maps an original path into a session's files mirror. Paths
// under the user home mirror their home-relative path; anything else
// mirrors a sanitized form of the absolute path.
func mirrorPath(sessionDir, userHome, original string) string {
	rel, err := filepath.Rel(userHome, original)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = strings.TrimLeft(filepath.ToSlash(original), "/")
		rel = filepath.FromSlash(rel)
	}
	return filepath.Join(sessionDir, constants.SessionFilesDirName, rel)
}

// Contains reports whether the session preserves an original for path.
func Contains(sessionDir, userHome, path string) bool {
	_, err := os.Stat(mirrorPath(sessionDir, userHome, path))
	return err == nil
}

// File copies the current on-disk state of path into the session before it
// is modified, at most once per session. Missing files and symlinks are
// skipped; symlinks are never originals worth preserving.
func (s *Session) File(path string) error {
	if s.backed[path] {
		return nil
	}
	info, err := os.Lstat(path)
	if err != nil || info.Mode()&os.ModeSymlink != 0 || info.IsDir() {
		return nil
	}
	if s.opts.DryRun {
		s.log.Debug().Str("path", path).Msg("dry-run: would backup")
		return nil
	}
	dest := s.dest(path)
	if err := copyFile(path, dest); err != nil {
		return fmt.Errorf("backing up %s: %w", path, err)
	}
	if s.backed == nil {
		s.backed = make(map[string]bool)
	}
	s.backed[path] = true
	s.log.Debug().Str("path", path).Msg("backed up")
	return nil
}

// Directory copies a directory tree into the session. Symlinked entries are
// skipped rather than followed.
func (s *Session) Directory(path string) error {
	info, err := os.Lstat(path)
	if err != nil || !info.IsDir() {
		return nil
	}
	if s.opts.DryRun {
		s.log.Debug().Str("path", path).Msg("dry-run: would backup directory")
		return nil
	}
	dest := s.dest(path)
	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("clearing backup mirror %s: %w", dest, err)
	}
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type()&os.ModeSymlink != 0 || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}
		return copyFile(p, filepath.Join(dest, rel))
	})
	if err != nil {
		return fmt.Errorf("backing up directory %s: %w", path, err)
	}
	s.log.Debug().Str("path", path).Msg("backed up directory")
	return nil
}

// Latest scans backupsRoot for valid session directories and returns the
// one with the lexicographically greatest timestamp name, or "" if none
// exist. The timestamp format guarantees lexicographic order equals
// chronological order.
func Latest(backupsRoot string) (string, error) {
	entries, err := os.ReadDir(backupsRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading backups root: %w", err)
	}
	var sessions []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		metaPath := filepath.Join(backupsRoot, entry.Name(), constants.SessionMetaName)
		if _, err := os.Stat(metaPath); err != nil {
			continue
		}
		sessions = append(sessions, entry.Name())
	}
	if len(sessions) == 0 {
		return "", nil
	}
	sort.Strings(sessions)
	return filepath.Join(backupsRoot, sessions[len(sessions)-1]), nil
}

// Restore walks a session's file mirror and copies back every file whose
// restored original path is in targets. Returns the number of restored
// files. Writes are skipped under dry-run but still counted, so the
// reported plan matches a real run.
func Restore(sessionDir, userHome string, targets map[string]bool, opts options.Options, log zerolog.Logger) (int, error) {
	filesRoot := filepath.Join(sessionDir, constants.SessionFilesDirName)
	if _, err := os.Stat(filesRoot); err != nil {
		return 0, nil
	}
	count := 0
	err := filepath.WalkDir(filesRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(filesRoot, p)
		if err != nil {
			return err
		}
		original := filepath.Join(userHome, rel)
		if !targets[original] {
			return nil
		}
		if opts.DryRun {
			log.Debug().Str("path", original).Msg("dry-run: would restore")
			count++
			return nil
		}
		if err := copyFile(p, original); err != nil {
			return fmt.Errorf("restoring %s: %w", original, err)
		}
		log.Debug().Str("path", original).Msg("restored")
		count++
		return nil
	})
	if err != nil {
		return count, err
	}
	return count, nil
}

// copyFile copies src to dst, creating parent directories as needed.
func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), constants.DirPermissions); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
