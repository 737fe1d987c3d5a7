// Package backup implements the backup store: timestamped, home-relative
// copies of destination content, captured before any destructive step, plus
// listing, restore, and retention-based pruning.
//
// Layout on disk is load-bearing:
//
//	<backup_root>/<YYYYMMDD_HHMMSS>/<path relative to $HOME>
//
// Listing and pruning parse the timestamp out of the directory name and
// silently ignore anything that does not match the pattern.
package backup

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/arthur-debert/homelink/pkg/effects"
	"github.com/arthur-debert/homelink/pkg/errors"
	"github.com/arthur-debert/homelink/pkg/logging"
	"github.com/arthur-debert/homelink/pkg/paths"
	"github.com/arthur-debert/homelink/pkg/types"
)

// Store manages the backup root directory.
type Store struct {
	eff   *effects.Layer
	paths paths.Paths
}

// NewStore creates a backup store rooted at p.BackupRoot().
func NewStore(eff *effects.Layer, p paths.Paths) *Store {
	return &Store{eff: eff, paths: p}
}

// Root returns the backup root directory.
func (s *Store) Root() string {
	return s.paths.BackupRoot()
}

// Run is one reconciliation run's backup scope. All files backed up during
// the run land under a single timestamped root; the root directory is only
// created when the first file is actually copied.
type Run struct {
	store *Store
	dir   string
}

// NewRun scopes backups to a timestamped root named after now.
func (s *Store) NewRun(now time.Time) *Run {
	return &Run{
		store: s,
		dir:   filepath.Join(s.paths.BackupRoot(), now.Format(paths.BackupTimestampLayout)),
	}
}

// Dir returns the run's backup root.
func (r *Run) Dir() string {
	return r.dir
}

// PathFor returns where path would be backed up within this run, without
// copying anything. Used to pre-compute BackupAndReplace operations.
func (r *Run) PathFor(path string) string {
	return filepath.Join(r.dir, r.store.paths.RelativeToHome(path))
}

// Backup preserves path's current resolved content under the run root and
// returns the backup path. A symlinked path is followed (relative targets
// resolve against the link's own parent) and the resolved target's content
// is what gets copied; the link itself is worthless as a recovery artifact.
//
// Returns "" with a nil error when there is nothing to preserve: the path is
// absent, the link is broken, or the source already lives inside the backup
// tree (backing up a backup would recurse forever). Returns an
// ErrFileLocked error when another process holds the destination open; the
// caller skips the file rather than copy a file mid-write.
func (r *Run) Backup(path string) (string, error) {
	logger := logging.GetLogger("backup")
	eff := r.store.eff

	source := path
	if info, err := eff.Lstat(path); err != nil {
		return "", nil
	} else if info.Mode()&fs.ModeSymlink != 0 {
		target, err := eff.Readlink(path)
		if err != nil {
			logger.Debug().Str("path", path).Msg("unreadable symlink, nothing to back up")
			return "", nil
		}
		source = paths.ResolveLinkTarget(path, target)
		if _, err := eff.Stat(source); err != nil {
			logger.Debug().Str("path", path).Str("target", source).
				Msg("broken symlink, nothing to back up")
			return "", nil
		}
	}

	canonicalRoot := paths.Normalize(r.store.paths.BackupRoot())
	canonicalSource := paths.Normalize(source)
	if canonicalSource == canonicalRoot ||
		strings.HasPrefix(canonicalSource, canonicalRoot+string(filepath.Separator)) {
		logger.Debug().Str("path", path).Msg("source already inside backup tree, skipping")
		return "", nil
	}

	if paths.IsLocked(source) {
		return "", errors.Newf(errors.ErrFileLocked, "%s is locked (may be in use)", source)
	}

	backupPath := r.PathFor(path)
	if err := eff.MkdirAll(filepath.Dir(backupPath), 0755); err != nil {
		return "", errors.Wrapf(err, errors.ErrBackupCreate, "cannot create backup directory for %s", path)
	}

	info, err := eff.Stat(source)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrBackupCreate, "cannot stat %s", source)
	}
	if info.IsDir() {
		if err := eff.CopyDir(source, backupPath); err != nil {
			return "", errors.Wrapf(err, errors.ErrBackupCreate, "cannot back up directory %s", source)
		}
	} else {
		if err := eff.CopyFile(source, backupPath); err != nil {
			return "", errors.Wrapf(err, errors.ErrBackupCreate, "cannot back up %s", source)
		}
	}

	// Backups may hold secrets the original exposed more widely; clamp the
	// copy to owner-only regardless of source permissions.
	if err := r.secureCopy(backupPath); err != nil {
		return "", err
	}

	logger.Info().Str("path", path).Str("backup", backupPath).Msg("Backed up")
	return backupPath, nil
}

func (r *Run) secureCopy(backupPath string) error {
	eff := r.store.eff
	info, err := eff.Stat(backupPath)
	if err != nil {
		if eff.DryRun() {
			return nil
		}
		return errors.Wrapf(err, errors.ErrBackupCreate, "cannot stat backup %s", backupPath)
	}
	if !info.IsDir() {
		return eff.Chmod(backupPath, 0600)
	}
	entries, err := eff.ReadDir(backupPath)
	if err != nil {
		return errors.Wrapf(err, errors.ErrBackupCreate, "cannot read backup dir %s", backupPath)
	}
	for _, entry := range entries {
		if err := r.secureCopy(filepath.Join(backupPath, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// List returns all backups under the root, newest first. Directories whose
// name does not parse as a capture timestamp are ignored.
func (s *Store) List() ([]types.BackupInfo, error) {
	root := s.paths.BackupRoot()
	entries, err := s.eff.ReadDir(root)
	if err != nil {
		// No backup root yet means no backups.
		return nil, nil
	}

	var backups []types.BackupInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		ts, err := time.ParseInLocation(paths.BackupTimestampLayout, entry.Name(), time.Local)
		if err != nil {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		files, err := s.collectFiles(dir)
		if err != nil {
			return nil, err
		}
		backups = append(backups, types.BackupInfo{
			Path:      dir,
			Timestamp: ts,
			Files:     files,
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

func (s *Store) collectFiles(dir string) ([]string, error) {
	entries, err := s.eff.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", dir)
	}
	var files []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			sub, err := s.collectFiles(path)
			if err != nil {
				return nil, err
			}
			files = append(files, sub...)
			continue
		}
		files = append(files, path)
	}
	return files, nil
}
