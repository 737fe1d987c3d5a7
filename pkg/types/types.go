package types

import (
	"fmt"
	"strings"
)

// TrackedFile is one declared repo-path/destination-path pair under
// reconciliation. Both paths are absolute by the time a TrackedFile leaves
// the config layer. TrackedFiles are immutable for the duration of one
// reconciliation pass.
type TrackedFile struct {
	// Tool is the logical group the file belongs to (e.g. "nvim", "zsh").
	Tool string

	// RepoPath is the absolute path of the file inside the dotfiles repo.
	RepoPath string

	// DestPath is the absolute path of the destination, under home.
	DestPath string

	// Profile scopes the entry to a named profile. Empty means the entry
	// applies to every profile; a profile-specific entry overrides a base
	// entry with the same destination.
	Profile string
}

func (t TrackedFile) String() string {
	if t.Profile != "" {
		return fmt.Sprintf("%s: %s -> %s [%s]", t.Tool, t.RepoPath, t.DestPath, t.Profile)
	}
	return fmt.Sprintf("%s: %s -> %s", t.Tool, t.RepoPath, t.DestPath)
}

// SymlinkResolution is the declared policy for computing a symlink's
// on-disk target string.
type SymlinkResolution int

const (
	// ResolutionAuto tries a relative target and falls back to absolute.
	ResolutionAuto SymlinkResolution = iota

	// ResolutionRelative prefers a relative target, computed from the
	// destination's parent; falls back to absolute when none exists.
	ResolutionRelative

	// ResolutionAbsolute uses the source path verbatim.
	ResolutionAbsolute

	// ResolutionFollow is accepted for compatibility and treated as Auto.
	ResolutionFollow

	// ResolutionReplace copies the source instead of symlinking. This breaks
	// the "repo is source of truth" link but is supported for destinations
	// that must be real files.
	ResolutionReplace
)

func (r SymlinkResolution) String() string {
	switch r {
	case ResolutionAuto:
		return "auto"
	case ResolutionRelative:
		return "relative"
	case ResolutionAbsolute:
		return "absolute"
	case ResolutionFollow:
		return "follow"
	case ResolutionReplace:
		return "replace"
	default:
		return fmt.Sprintf("unknown(%d)", int(r))
	}
}

// ParseSymlinkResolution parses a config value into a SymlinkResolution.
func ParseSymlinkResolution(s string) (SymlinkResolution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto", "":
		return ResolutionAuto, nil
	case "relative":
		return ResolutionRelative, nil
	case "absolute":
		return ResolutionAbsolute, nil
	case "follow":
		return ResolutionFollow, nil
	case "replace":
		return ResolutionReplace, nil
	default:
		return ResolutionAuto, fmt.Errorf("invalid symlink resolution: %q", s)
	}
}

// FileChange describes one path reported by the VCS collaborator.
type FileChange struct {
	Path string
	Kind ChangeKind
}

// ChangeKind classifies a FileChange.
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeModified
	ChangeDeleted
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeModified:
		return "modified"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
