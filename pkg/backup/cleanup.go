package backup

import (
	"time"

	"github.com/arthur-debert/homelink/pkg/errors"
	"github.com/arthur-debert/homelink/pkg/logging"
	"github.com/arthur-debert/homelink/pkg/types"
)

// Cleanup prunes old backups. A backup is deleted only when it is BOTH
// beyond the keepCount most recent AND older than keepDays: either condition
// alone preserves it. A backup in the most-recent N is kept even when
// ancient; one newer than the cutoff is kept even past the count.
//
// Returns the backups that were deleted (or would be, under dry run) and the
// approximate bytes they occupied.
func (s *Store) Cleanup(keepCount int, keepDays int, now time.Time) ([]types.BackupInfo, int64, error) {
	logger := logging.GetLogger("backup")

	backups, err := s.List()
	if err != nil {
		return nil, 0, err
	}

	cutoff := now.AddDate(0, 0, -keepDays)
	var deleted []types.BackupInfo
	var freed int64

	for idx, b := range backups {
		if idx < keepCount {
			continue
		}
		if b.Timestamp.After(cutoff) {
			continue
		}

		size := s.dirSize(b.Path)
		if err := s.eff.RemoveAll(b.Path); err != nil {
			return deleted, freed, errors.Wrapf(err, errors.ErrFileAccess, "cannot delete backup %s", b.Path)
		}
		logger.Info().Str("backup", b.Path).Int64("bytes", size).Msg("Deleted backup")
		deleted = append(deleted, b)
		freed += size
	}

	return deleted, freed, nil
}

func (s *Store) dirSize(dir string) int64 {
	entries, err := s.eff.ReadDir(dir)
	if err != nil {
		return 0
	}
	var size int64
	for _, entry := range entries {
		if entry.IsDir() {
			size += s.dirSize(dir + "/" + entry.Name())
			continue
		}
		if info, err := entry.Info(); err == nil {
			size += info.Size()
		}
	}
	return size
}
