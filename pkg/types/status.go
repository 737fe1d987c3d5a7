package types

import "fmt"

// FileStatus is the result of classifying one tracked file against the live
// filesystem. Exactly one status holds per file per inspection; statuses are
// computed fresh each run and never cached.
type FileStatus int

const (
	// StatusSynced means the destination is a symlink resolving to the repo
	// path (or, under replace resolution, an identical copy).
	StatusSynced FileStatus = iota

	// StatusMissing means the destination does not exist at all.
	StatusMissing

	// StatusMissingRepo means the repo file is absent. Never auto-fixable;
	// surfaced and skipped.
	StatusMissingRepo

	// StatusNotSymlink means the destination is a real file or directory
	// whose content matches the repo copy. Flagged because a symlink was
	// expected.
	StatusNotSymlink

	// StatusWrongTarget means the destination is a symlink resolving
	// somewhere other than the repo path.
	StatusWrongTarget

	// StatusBrokenSymlink means the destination is a symlink whose target is
	// absent or unreadable.
	StatusBrokenSymlink

	// StatusContentDiffers means the destination is a real file or directory
	// whose content differs from the repo copy.
	StatusContentDiffers
)

func (s FileStatus) String() string {
	switch s {
	case StatusSynced:
		return "synced"
	case StatusMissing:
		return "missing"
	case StatusMissingRepo:
		return "missing-repo"
	case StatusNotSymlink:
		return "not-symlink"
	case StatusWrongTarget:
		return "wrong-target"
	case StatusBrokenSymlink:
		return "broken-symlink"
	case StatusContentDiffers:
		return "content-differs"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// IsIssue reports whether the status requires attention.
func (s FileStatus) IsIssue() bool {
	return s != StatusSynced
}

// SyncAction is what the planner decides to do about a classified file.
// Actions are derived per run, never persisted.
type SyncAction int

const (
	// ActionNothing means the file is already in the desired state.
	ActionNothing SyncAction = iota

	// ActionCreateSymlink links the destination to the repo copy.
	ActionCreateSymlink

	// ActionUpdateRepoFromDest refreshes the repo copy from the destination
	// before linking. This is the safety escape for an empty repo file
	// facing a non-empty destination: content flows dest to repo, never the
	// reverse.
	ActionUpdateRepoFromDest

	// ActionResolveConflict defers the decision to the conflict oracle.
	ActionResolveConflict

	// ActionSkip means the file cannot be acted on (missing repo source).
	ActionSkip
)

func (a SyncAction) String() string {
	switch a {
	case ActionNothing:
		return "nothing"
	case ActionCreateSymlink:
		return "create-symlink"
	case ActionUpdateRepoFromDest:
		return "update-repo-from-dest"
	case ActionResolveConflict:
		return "resolve-conflict"
	case ActionSkip:
		return "skip"
	default:
		return fmt.Sprintf("unknown(%d)", int(a))
	}
}

// ConflictChoice is the oracle's answer for one conflicted destination.
type ConflictChoice int

const (
	// ChoiceReplace backs up the destination and replaces it with a symlink.
	ChoiceReplace ConflictChoice = iota

	// ChoiceSkip leaves the destination untouched.
	ChoiceSkip

	// ChoiceInspect displays a diff and re-asks.
	ChoiceInspect

	// ChoiceCancel aborts the entire run.
	ChoiceCancel
)

func (c ConflictChoice) String() string {
	switch c {
	case ChoiceReplace:
		return "replace"
	case ChoiceSkip:
		return "skip"
	case ChoiceInspect:
		return "inspect"
	case ChoiceCancel:
		return "cancel"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// StatusReport pairs a tracked file with its classification for display.
type StatusReport struct {
	File    TrackedFile
	Status  FileStatus
	Message string
}
