// Package restore drives recovery flows over the backup store: selecting a
// backup, putting a file back at its destination, and importing backup
// content into the dotfiles repo with VCS staging.
package restore

import (
	"path/filepath"
	"strconv"

	"github.com/arthur-debert/homelink/pkg/backup"
	"github.com/arthur-debert/homelink/pkg/effects"
	"github.com/arthur-debert/homelink/pkg/errors"
	"github.com/arthur-debert/homelink/pkg/logging"
	"github.com/arthur-debert/homelink/pkg/paths"
	"github.com/arthur-debert/homelink/pkg/types"
	"github.com/arthur-debert/homelink/pkg/vcs"
)

// SelectorLatest selects the most recent backup.
const SelectorLatest = "latest"

// Service coordinates restore flows.
type Service struct {
	eff   *effects.Layer
	store *backup.Store
	paths paths.Paths
}

// NewService creates a restore service over the given backup store.
func NewService(eff *effects.Layer, store *backup.Store, p paths.Paths) *Service {
	return &Service{eff: eff, store: store, paths: p}
}

// Select resolves a backup selector: "latest" or a 1-based index into the
// newest-first listing (so "1" is the most recent backup).
func (s *Service) Select(selector string) (types.BackupInfo, error) {
	backups, err := s.store.List()
	if err != nil {
		return types.BackupInfo{}, err
	}
	if len(backups) == 0 {
		return types.BackupInfo{}, errors.New(errors.ErrBackupMissing, "no backups found")
	}

	if selector == "" || selector == SelectorLatest {
		return backups[0], nil
	}

	idx, err := strconv.Atoi(selector)
	if err != nil {
		return types.BackupInfo{}, errors.Newf(errors.ErrInvalidInput,
			"invalid backup selector %q (use %q or an index)", selector, SelectorLatest)
	}
	if idx < 1 || idx > len(backups) {
		return types.BackupInfo{}, errors.Newf(errors.ErrInvalidInput,
			"backup index %d out of range (1-%d)", idx, len(backups))
	}
	return backups[idx-1], nil
}

// ToDest restores targetPath from b, replacing whatever is at the
// destination now.
func (s *Service) ToDest(b types.BackupInfo, targetPath string) error {
	return s.store.Restore(b, targetPath)
}

// ToRepo copies every file of b into its tracked repo location and stages
// the resulting repo changes. Each backup file is matched to a tracked file
// by its home-relative destination, with a repo-basename fallback; a backup
// file matching nothing is an error so a stray backup never silently pollutes
// the repo.
//
// Returns the repo paths that received content.
func (s *Service) ToRepo(b types.BackupInfo, tracked []types.TrackedFile, repo vcs.Repository) ([]string, error) {
	logger := logging.GetLogger("restore")

	byDest := make(map[string]types.TrackedFile, len(tracked))
	for _, tf := range tracked {
		byDest[tf.DestPath] = tf
	}

	var copied []string
	for _, backupFile := range b.Files {
		rel, err := filepath.Rel(b.Path, backupFile)
		if err != nil {
			return copied, errors.Wrapf(err, errors.ErrPathResolve,
				"backup file outside backup root: %s", backupFile)
		}

		tf, ok := byDest[filepath.Join(s.paths.Home(), rel)]
		if !ok {
			tf, ok = matchByBasename(tracked, backupFile)
		}
		if !ok {
			return copied, errors.Newf(errors.ErrNotFound,
				"no tracked file corresponds to backup file %s", backupFile)
		}

		if err := s.eff.MkdirAll(filepath.Dir(tf.RepoPath), 0755); err != nil {
			return copied, errors.Wrapf(err, errors.ErrDirCreate,
				"cannot create parent of %s", tf.RepoPath)
		}
		info, err := s.eff.Stat(backupFile)
		if err != nil {
			return copied, errors.Wrapf(err, errors.ErrBackupMissing,
				"backup file unreadable: %s", backupFile)
		}
		if info.IsDir() {
			err = s.eff.CopyDir(backupFile, tf.RepoPath)
		} else {
			err = s.eff.CopyFile(backupFile, tf.RepoPath)
		}
		if err != nil {
			return copied, err
		}

		logger.Info().Str("backup", backupFile).Str("repo", tf.RepoPath).Msg("Imported into repo")
		copied = append(copied, tf.RepoPath)
	}

	if len(copied) == 0 || repo == nil {
		return copied, nil
	}

	if err := repo.Init(); err != nil {
		return copied, err
	}
	changes, err := repo.DetectChanges()
	if err != nil {
		return copied, err
	}
	if len(changes) == 0 {
		return copied, nil
	}
	changePaths := make([]string, 0, len(changes))
	for _, c := range changes {
		changePaths = append(changePaths, c.Path)
	}
	if err := repo.Stage(changePaths); err != nil {
		return copied, err
	}
	logger.Info().Int("files", len(changePaths)).Msg("Staged repo changes")
	return copied, nil
}

func matchByBasename(tracked []types.TrackedFile, backupFile string) (types.TrackedFile, bool) {
	base := filepath.Base(backupFile)
	for _, tf := range tracked {
		if filepath.Base(tf.RepoPath) == base {
			return tf, true
		}
	}
	return types.TrackedFile{}, false
}
