package effects_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/homelink/pkg/effects"
	"github.com/arthur-debert/homelink/pkg/filesystem"
)

func TestDryRunRecordsWithoutMutating(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/src", []byte("data"), 0644))

	eff := effects.New(filesystem.NewAferoFS(mem), true)

	require.NoError(t, eff.MkdirAll("/new/dir", 0755))
	require.NoError(t, eff.Symlink("/src", "/link"))
	require.NoError(t, eff.CopyFile("/src", "/dst"))
	require.NoError(t, eff.Remove("/src"))

	// Nothing touched the backing filesystem.
	_, err := mem.Stat("/new/dir")
	assert.Error(t, err)
	_, err = mem.Stat("/dst")
	assert.Error(t, err)
	_, err = mem.Stat("/src")
	assert.NoError(t, err)

	// The log preserves order.
	log := eff.Log()
	require.Len(t, log, 4)
	assert.Equal(t, effects.KindMkdirAll, log[0].Kind)
	assert.Equal(t, effects.KindSymlink, log[1].Kind)
	assert.Equal(t, effects.KindCopyFile, log[2].Kind)
	assert.Equal(t, effects.KindRemove, log[3].Kind)
	assert.Equal(t, "/src", log[3].Path)
}

func TestLiveModeMutates(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/src", []byte("data"), 0600))

	eff := effects.New(filesystem.NewAferoFS(mem), false)
	require.NoError(t, eff.CopyFile("/src", "/dst"))

	data, err := afero.ReadFile(mem, "/dst")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)
	assert.Empty(t, eff.Log())
}

func TestCopyFilePreservesPermissions(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.WriteFile(src, []byte("secret"), 0600))

	eff := effects.New(filesystem.NewOS(), false)
	require.NoError(t, eff.CopyFile(src, dst))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestCopyDirCopiesSymlinksAsLinks(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "file"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "nested"), []byte("b"), 0644))
	require.NoError(t, os.Symlink("file", filepath.Join(src, "link")))

	dst := filepath.Join(dir, "dst")
	eff := effects.New(filesystem.NewOS(), false)
	require.NoError(t, eff.CopyDir(src, dst))

	data, err := os.ReadFile(filepath.Join(dst, "sub", "nested"))
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), data)

	target, err := os.Readlink(filepath.Join(dst, "link"))
	require.NoError(t, err)
	assert.Equal(t, "file", target)
}
