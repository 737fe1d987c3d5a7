package backup

import (
	"path/filepath"

	"github.com/arthur-debert/homelink/pkg/errors"
	"github.com/arthur-debert/homelink/pkg/logging"
	"github.com/arthur-debert/homelink/pkg/types"
)

// FileFor locates the copy of targetPath inside a backup. The primary key is
// the home-relative location; when the target lies outside home (so no
// relative location was recorded) a basename match over the backup's file
// list is tried instead.
func (s *Store) FileFor(b types.BackupInfo, targetPath string) (string, error) {
	rel := s.paths.RelativeToHome(targetPath)
	if !filepath.IsAbs(rel) {
		candidate := filepath.Join(b.Path, rel)
		if _, err := s.eff.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	base := filepath.Base(targetPath)
	for _, f := range b.Files {
		if filepath.Base(f) == base {
			return f, nil
		}
	}
	return "", errors.Newf(errors.ErrBackupMissing, "file not found in backup: %s", targetPath)
}

// Restore copies a backed-up file back over targetPath, replacing whatever
// is there. The target's parent is created when absent; an existing file,
// directory, or symlink at the target is removed first.
func (s *Store) Restore(b types.BackupInfo, targetPath string) error {
	logger := logging.GetLogger("backup")

	backupFile, err := s.FileFor(b, targetPath)
	if err != nil {
		return err
	}

	if err := s.eff.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "cannot create parent of %s", targetPath)
	}

	if info, err := s.eff.Lstat(targetPath); err == nil {
		if info.IsDir() {
			if err := s.eff.RemoveAll(targetPath); err != nil {
				return errors.Wrapf(err, errors.ErrFileAccess, "cannot remove %s", targetPath)
			}
		} else if err := s.eff.Remove(targetPath); err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "cannot remove %s", targetPath)
		}
	}

	info, err := s.eff.Stat(backupFile)
	if err != nil {
		return errors.Wrapf(err, errors.ErrBackupMissing, "backup file unreadable: %s", backupFile)
	}
	if info.IsDir() {
		err = s.eff.CopyDir(backupFile, targetPath)
	} else {
		err = s.eff.CopyFile(backupFile, targetPath)
	}
	if err != nil {
		return err
	}

	logger.Info().Str("backup", backupFile).Str("target", targetPath).Msg("Restored")
	return nil
}
