// Package paths provides centralized path handling for homelink. It
// implements XDG Base Directory compliance for homelink's own files and the
// path arithmetic the engine needs: canonicalization, home-relative
// locations, and symlink target resolution.
package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/homelink/pkg/errors"
)

// Environment variable names
const (
	// EnvDotfilesRoot is the primary environment variable for dotfiles location
	EnvDotfilesRoot = "DOTFILES_ROOT"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Default directories and files
const (
	// DefaultDotfilesDir is the default directory name for dotfiles
	DefaultDotfilesDir = ".dotfiles"

	// BackupsDirName is the directory name for backup roots
	BackupsDirName = ".backups"

	// BackupTimestampLayout is the literal naming scheme for backup roots.
	// Listing and pruning parse the timestamp from the directory name and
	// silently ignore any directory whose name does not match.
	BackupTimestampLayout = "20060102_150405"
)

// Paths provides centralized path management for homelink
type Paths interface {
	Home() string
	DotfilesRoot() string
	BackupRoot() string
	StateDir() string
	RelativeToHome(path string) string
}

type paths struct {
	home         string
	dotfilesRoot string
	backupRoot   string
}

// New resolves the home directory and dotfiles root. DOTFILES_ROOT overrides
// the default ~/.dotfiles location; backupRoot may be empty to use the
// default <root>/.backups.
func New(dotfilesRoot, backupRoot string) (Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrPathResolve, "could not determine home directory")
	}

	if dotfilesRoot == "" {
		dotfilesRoot = os.Getenv(EnvDotfilesRoot)
	}
	if dotfilesRoot == "" {
		dotfilesRoot = filepath.Join(home, DefaultDotfilesDir)
	}
	if backupRoot == "" {
		backupRoot = filepath.Join(dotfilesRoot, BackupsDirName)
	}

	return &paths{
		home:         home,
		dotfilesRoot: dotfilesRoot,
		backupRoot:   backupRoot,
	}, nil
}

func (p *paths) Home() string {
	return p.home
}

func (p *paths) DotfilesRoot() string {
	return p.dotfilesRoot
}

func (p *paths) BackupRoot() string {
	return p.backupRoot
}

func (p *paths) StateDir() string {
	return filepath.Join(xdg.StateHome, "homelink")
}

// RelativeToHome returns path's location relative to the home directory, or
// the path unchanged when it lies outside home.
func (p *paths) RelativeToHome(path string) string {
	rel, err := filepath.Rel(p.home, path)
	if err != nil || rel == ".." || filepath.IsAbs(rel) || len(rel) >= 3 && rel[:3] == "../" {
		return path
	}
	return rel
}

// Normalize canonicalizes a path, resolving symlinks. Falls back to the
// cleaned path itself when resolution fails (e.g. the path does not exist).
func Normalize(path string) string {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return resolved
}

// ResolveLinkTarget makes a symlink's target absolute. Relative targets
// resolve against the symlink's own parent directory.
func ResolveLinkTarget(linkPath, target string) string {
	if filepath.IsAbs(target) {
		return target
	}
	return filepath.Join(filepath.Dir(linkPath), target)
}

// PointsTo reports whether a symlink at linkPath with the given target
// resolves to expected, comparing canonicalized paths.
func PointsTo(linkPath, target, expected string) bool {
	resolved := ResolveLinkTarget(linkPath, target)
	return Normalize(resolved) == Normalize(expected)
}

// RelativeTarget computes the relative link target from the destination's
// parent directory to source. Returns ok=false when no relative path exists
// (callers fall back to the absolute source).
func RelativeTarget(source, dest string) (string, bool) {
	rel, err := filepath.Rel(filepath.Dir(dest), source)
	if err != nil {
		return "", false
	}
	return rel, true
}
