// Package status implements the classifier that compares one tracked file's
// declared state against the live filesystem. Classification is a pure
// function of current state: no side effects, nothing cached, recomputed
// fresh each run.
package status

import (
	"bytes"
	"io/fs"

	"github.com/arthur-debert/homelink/pkg/logging"
	"github.com/arthur-debert/homelink/pkg/paths"
	"github.com/arthur-debert/homelink/pkg/types"
)

// Classify inspects repo/destination existence, symlink state, and content
// to produce the single status that holds for file. Rules apply in order,
// first match wins:
//
//  1. repo path absent            -> MissingRepo
//  2. destination absent entirely -> Missing
//  3. destination is a symlink    -> BrokenSymlink / WrongTarget / Synced
//  4. destination is a real entry -> NotSymlink / ContentDiffers
//
// Once a symlink correctly resolves to the repo path the content is not
// re-compared; the repo file is the content.
func Classify(fsys types.FS, file types.TrackedFile) types.FileStatus {
	logger := logging.GetLogger("status")

	if _, err := fsys.Lstat(file.RepoPath); err != nil {
		return types.StatusMissingRepo
	}

	info, err := fsys.Lstat(file.DestPath)
	if err != nil {
		return types.StatusMissing
	}

	if info.Mode()&fs.ModeSymlink != 0 {
		target, err := fsys.Readlink(file.DestPath)
		if err != nil {
			// An unreadable link is indistinguishable from a broken one for
			// our purposes.
			logger.Debug().Err(err).Str("dest", file.DestPath).Msg("readlink failed")
			return types.StatusBrokenSymlink
		}
		resolved := paths.ResolveLinkTarget(file.DestPath, target)
		if _, err := fsys.Stat(resolved); err != nil {
			return types.StatusBrokenSymlink
		}
		if paths.Normalize(resolved) != paths.Normalize(file.RepoPath) {
			return types.StatusWrongTarget
		}
		return types.StatusSynced
	}

	differ, err := FilesDiffer(fsys, file.RepoPath, file.DestPath)
	if err != nil {
		logger.Debug().Err(err).Str("dest", file.DestPath).Msg("content comparison failed")
		return types.StatusContentDiffers
	}
	if differ {
		return types.StatusContentDiffers
	}
	return types.StatusNotSymlink
}

// FilesDiffer reports whether two paths hold different content. Files are
// compared whole, byte for byte; directories only by is-a-directory
// equality, never recursively. A path that does not exist differs from
// everything.
func FilesDiffer(fsys types.FS, path1, path2 string) (bool, error) {
	info1, err1 := fsys.Stat(path1)
	info2, err2 := fsys.Stat(path2)
	if err1 != nil || err2 != nil {
		return true, nil
	}

	if info1.IsDir() || info2.IsDir() {
		return info1.IsDir() != info2.IsDir(), nil
	}

	content1, err := fsys.ReadFile(path1)
	if err != nil {
		return true, err
	}
	content2, err := fsys.ReadFile(path2)
	if err != nil {
		return true, err
	}
	return !bytes.Equal(content1, content2), nil
}

// Report classifies every tracked file and attaches a display message.
func Report(fsys types.FS, files []types.TrackedFile) []types.StatusReport {
	reports := make([]types.StatusReport, 0, len(files))
	for _, file := range files {
		st := Classify(fsys, file)
		reports = append(reports, types.StatusReport{
			File:    file,
			Status:  st,
			Message: message(file, st),
		})
	}
	return reports
}

func message(file types.TrackedFile, st types.FileStatus) string {
	switch st {
	case types.StatusSynced:
		return file.DestPath
	case types.StatusMissing:
		return "missing: " + file.DestPath
	case types.StatusMissingRepo:
		return "missing repo file: " + file.RepoPath
	case types.StatusNotSymlink:
		return "not a symlink (content matches): " + file.DestPath
	case types.StatusWrongTarget:
		return "symlink points elsewhere: " + file.DestPath
	case types.StatusBrokenSymlink:
		return "broken symlink: " + file.DestPath
	case types.StatusContentDiffers:
		return "content differs: " + file.DestPath
	default:
		return file.DestPath
	}
}
