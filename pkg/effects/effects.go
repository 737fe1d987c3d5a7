// Package effects is the single choke point through which every mutating
// filesystem call passes. Given the dry-run flag, each mutation becomes an
// append to an ordered operation log and reports success without touching
// storage; decision logic upstream is identical in both modes.
package effects

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/arthur-debert/homelink/pkg/errors"
	"github.com/arthur-debert/homelink/pkg/logging"
	"github.com/arthur-debert/homelink/pkg/types"
)

// Kind identifies one class of mutation for the dry-run log.
type Kind int

const (
	KindMkdirAll Kind = iota
	KindSymlink
	KindRemove
	KindRemoveAll
	KindRename
	KindWriteFile
	KindChmod
	KindCopyFile
	KindCopyDir
)

func (k Kind) String() string {
	switch k {
	case KindMkdirAll:
		return "mkdir"
	case KindSymlink:
		return "symlink"
	case KindRemove:
		return "remove"
	case KindRemoveAll:
		return "remove-all"
	case KindRename:
		return "rename"
	case KindWriteFile:
		return "write"
	case KindChmod:
		return "chmod"
	case KindCopyFile:
		return "copy"
	case KindCopyDir:
		return "copy-dir"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// LoggedOp is one entry in the dry-run operation log. Path is the primary
// argument; Dest is set for two-path operations (symlink, rename, copy).
type LoggedOp struct {
	Kind Kind
	Path string
	Dest string
}

func (op LoggedOp) String() string {
	if op.Dest != "" {
		return fmt.Sprintf("%s %s -> %s", op.Kind, op.Path, op.Dest)
	}
	return fmt.Sprintf("%s %s", op.Kind, op.Path)
}

// Layer funnels all filesystem mutation. Reads delegate straight to the
// underlying FS in both modes.
type Layer struct {
	fs     types.FS
	dryRun bool
	log    []LoggedOp
}

// New creates an effect layer over fs. With dryRun set, no mutating call
// reaches fs.
func New(fsys types.FS, dryRun bool) *Layer {
	return &Layer{fs: fsys, dryRun: dryRun}
}

// DryRun reports whether the layer swallows mutations.
func (l *Layer) DryRun() bool {
	return l.dryRun
}

// Log returns the ordered mutations recorded so far. Only populated in
// dry-run mode.
func (l *Layer) Log() []LoggedOp {
	return l.log
}

func (l *Layer) record(op LoggedOp) {
	logger := logging.GetLogger("effects")
	logger.Info().Str("op", op.String()).Msg("dry-run: would execute")
	l.log = append(l.log, op)
}

// Read passthroughs.

func (l *Layer) Stat(name string) (fs.FileInfo, error) {
	return l.fs.Stat(name)
}

func (l *Layer) Lstat(name string) (fs.FileInfo, error) {
	return l.fs.Lstat(name)
}

func (l *Layer) ReadFile(name string) ([]byte, error) {
	return l.fs.ReadFile(name)
}

func (l *Layer) Readlink(name string) (string, error) {
	return l.fs.Readlink(name)
}

func (l *Layer) ReadDir(name string) ([]fs.DirEntry, error) {
	return l.fs.ReadDir(name)
}

// Mutations.

func (l *Layer) MkdirAll(path string, perm fs.FileMode) error {
	if l.dryRun {
		l.record(LoggedOp{Kind: KindMkdirAll, Path: path})
		return nil
	}
	return l.fs.MkdirAll(path, perm)
}

func (l *Layer) Symlink(oldname, newname string) error {
	if l.dryRun {
		l.record(LoggedOp{Kind: KindSymlink, Path: oldname, Dest: newname})
		return nil
	}
	return l.fs.Symlink(oldname, newname)
}

func (l *Layer) Remove(name string) error {
	if l.dryRun {
		l.record(LoggedOp{Kind: KindRemove, Path: name})
		return nil
	}
	return l.fs.Remove(name)
}

func (l *Layer) RemoveAll(path string) error {
	if l.dryRun {
		l.record(LoggedOp{Kind: KindRemoveAll, Path: path})
		return nil
	}
	return l.fs.RemoveAll(path)
}

func (l *Layer) Rename(oldpath, newpath string) error {
	if l.dryRun {
		l.record(LoggedOp{Kind: KindRename, Path: oldpath, Dest: newpath})
		return nil
	}
	return l.fs.Rename(oldpath, newpath)
}

func (l *Layer) WriteFile(name string, data []byte, perm fs.FileMode) error {
	if l.dryRun {
		l.record(LoggedOp{Kind: KindWriteFile, Path: name})
		return nil
	}
	return l.fs.WriteFile(name, data, perm)
}

func (l *Layer) Chmod(name string, mode fs.FileMode) error {
	if l.dryRun {
		l.record(LoggedOp{Kind: KindChmod, Path: name})
		return nil
	}
	return l.fs.Chmod(name, mode)
}

// CopyFile copies a regular file, preserving the source's permission bits.
func (l *Layer) CopyFile(src, dst string) error {
	if l.dryRun {
		l.record(LoggedOp{Kind: KindCopyFile, Path: src, Dest: dst})
		return nil
	}
	info, err := l.fs.Stat(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot stat copy source %s", src)
	}
	data, err := l.fs.ReadFile(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot read copy source %s", src)
	}
	if err := l.fs.WriteFile(dst, data, info.Mode().Perm()); err != nil {
		return errors.Wrapf(err, errors.ErrFileCopy, "cannot write copy destination %s", dst)
	}
	return nil
}

// CopyDir recursively copies a directory tree. Symlink entries are copied as
// links, not followed.
func (l *Layer) CopyDir(src, dst string) error {
	if l.dryRun {
		l.record(LoggedOp{Kind: KindCopyDir, Path: src, Dest: dst})
		return nil
	}
	if err := l.fs.MkdirAll(dst, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "cannot create %s", dst)
	}
	entries, err := l.fs.ReadDir(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot read directory %s", src)
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		switch {
		case entry.Type()&fs.ModeSymlink != 0:
			target, err := l.fs.Readlink(srcPath)
			if err != nil {
				return errors.Wrapf(err, errors.ErrFileAccess, "cannot read link %s", srcPath)
			}
			if err := l.fs.Symlink(target, dstPath); err != nil {
				return errors.Wrapf(err, errors.ErrSymlinkCreate, "cannot recreate link %s", dstPath)
			}
		case entry.IsDir():
			if err := l.CopyDir(srcPath, dstPath); err != nil {
				return err
			}
		default:
			if err := l.CopyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}
	return nil
}
