// Package planner maps a file's classification to the action that safely
// brings it into the desired state.
package planner

import (
	"github.com/arthur-debert/homelink/pkg/logging"
	"github.com/arthur-debert/homelink/pkg/types"
)

// Plan decides the sync action for one classified file.
//
// One safety rule is independent of the classification: when the repo copy
// is an empty regular file and the destination holds non-empty regular-file
// content, the plan is forced to UpdateRepoFromDest. An accidentally
// truncated tracked file must never clobber real user data; content flows
// dest to repo, then the link is made.
func Plan(fsys types.FS, file types.TrackedFile, st types.FileStatus) types.SyncAction {
	if st != types.StatusMissingRepo && emptyRepoNonEmptyDest(fsys, file) {
		logger := logging.GetLogger("planner")
		logger.Warn().
			Str("repo", file.RepoPath).
			Str("dest", file.DestPath).
			Msg("Repo copy is empty but destination has content; refreshing repo from destination")
		return types.ActionUpdateRepoFromDest
	}

	switch st {
	case types.StatusSynced:
		return types.ActionNothing
	case types.StatusMissing, types.StatusNotSymlink:
		return types.ActionCreateSymlink
	case types.StatusWrongTarget, types.StatusBrokenSymlink, types.StatusContentDiffers:
		return types.ActionResolveConflict
	case types.StatusMissingRepo:
		return types.ActionSkip
	default:
		return types.ActionSkip
	}
}

func emptyRepoNonEmptyDest(fsys types.FS, file types.TrackedFile) bool {
	repoInfo, err := fsys.Stat(file.RepoPath)
	if err != nil || !repoInfo.Mode().IsRegular() || repoInfo.Size() != 0 {
		return false
	}
	// Stat follows symlinks, so a destination link to a real file counts by
	// its resolved content.
	destInfo, err := fsys.Stat(file.DestPath)
	if err != nil || !destInfo.Mode().IsRegular() {
		return false
	}
	return destInfo.Size() > 0
}
