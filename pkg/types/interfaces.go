package types

import (
	"io/fs"
	"time"
)

// FS is the filesystem interface required for homelink operations. Production
// code uses the os-backed implementation; tests use an afero-backed one.
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	Chmod(name string, mode fs.FileMode) error

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)

	// Symlink operations
	Symlink(oldname, newname string) error
	Readlink(name string) (string, error)

	// Other operations
	Remove(name string) error
	RemoveAll(path string) error
	Rename(oldpath, newpath string) error
}

// BackupInfo describes one timestamped backup root on disk. A BackupInfo is
// created per reconciliation run and never mutated afterwards; deletion is
// whole-directory.
type BackupInfo struct {
	// Path is the backup root directory, named by capture timestamp.
	Path string

	// Timestamp parsed from the directory name (YYYYMMDD_HHMMSS).
	Timestamp time.Time

	// Files is the flat list of file paths contained in the backup.
	Files []string
}
