package paths

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Run("explicit roots", func(t *testing.T) {
		p, err := New("/tmp/dotfiles", "/tmp/backups")
		require.NoError(t, err)
		assert.Equal(t, "/tmp/dotfiles", p.DotfilesRoot())
		assert.Equal(t, "/tmp/backups", p.BackupRoot())
		assert.Equal(t, home, p.Home())
	})

	t.Run("defaults", func(t *testing.T) {
		t.Setenv(EnvDotfilesRoot, "")
		p, err := New("", "")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, DefaultDotfilesDir), p.DotfilesRoot())
		assert.Equal(t, filepath.Join(home, DefaultDotfilesDir, BackupsDirName), p.BackupRoot())
	})

	t.Run("env override", func(t *testing.T) {
		t.Setenv(EnvDotfilesRoot, "/env/dotfiles")
		p, err := New("", "")
		require.NoError(t, err)
		assert.Equal(t, "/env/dotfiles", p.DotfilesRoot())
		assert.Equal(t, filepath.Join("/env/dotfiles", BackupsDirName), p.BackupRoot())
	})
}

func TestRelativeToHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	p, err := New("/tmp/dotfiles", "")
	require.NoError(t, err)

	assert.Equal(t, ".vimrc", p.RelativeToHome(filepath.Join(home, ".vimrc")))
	assert.Equal(t, filepath.Join(".config", "nvim", "init.lua"),
		p.RelativeToHome(filepath.Join(home, ".config", "nvim", "init.lua")))

	// Outside home the path comes back unchanged.
	assert.Equal(t, "/etc/hosts", p.RelativeToHome("/etc/hosts"))
}

func TestResolveLinkTarget(t *testing.T) {
	assert.Equal(t, "/abs/target", ResolveLinkTarget("/home/u/.vimrc", "/abs/target"))
	assert.Equal(t, "/home/u/dotfiles/vimrc",
		ResolveLinkTarget("/home/u/.vimrc", "dotfiles/vimrc"))
	assert.Equal(t, "/home/dotfiles/vimrc",
		ResolveLinkTarget("/home/u/.vimrc", "../dotfiles/vimrc"))
}

func TestRelativeTarget(t *testing.T) {
	rel, ok := RelativeTarget("/home/u/.dotfiles/vim/vimrc", "/home/u/.vimrc")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(".dotfiles", "vim", "vimrc"), rel)

	rel, ok = RelativeTarget("/home/u/.dotfiles/zshrc", "/home/u/.config/zsh/.zshrc")
	require.True(t, ok)
	assert.Equal(t, filepath.Join("..", "..", ".dotfiles", "zshrc"), rel)
}

func TestPointsTo(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink("target", link))

	assert.True(t, PointsTo(link, "target", target))
	assert.False(t, PointsTo(link, "target", filepath.Join(dir, "other")))
}

func TestNormalizeFallsBackForMissingPaths(t *testing.T) {
	assert.Equal(t, "/no/such/path", Normalize("/no/such//path/"))
}

func TestBackupTimestampLayout(t *testing.T) {
	ts := time.Date(2026, 3, 14, 15, 9, 26, 0, time.Local)
	name := ts.Format(BackupTimestampLayout)
	assert.Equal(t, "20260314_150926", name)

	parsed, err := time.ParseInLocation(BackupTimestampLayout, name, time.Local)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(ts))
}

func TestIsLocked(t *testing.T) {
	// An absent path is never locked.
	assert.False(t, IsLocked("/no/such/file"))

	dir := t.TempDir()
	path := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	assert.False(t, IsLocked(path))
}
