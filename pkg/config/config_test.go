package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/homelink/pkg/config"
	"github.com/arthur-debert/homelink/pkg/errors"
	"github.com/arthur-debert/homelink/pkg/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromDefaultsOnly(t *testing.T) {
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "config.toml"), false)
	require.NoError(t, err)

	assert.Equal(t, "~/.dotfiles", cfg.General.RepoPath)
	assert.Equal(t, "default", cfg.General.CurrentProfile)
	assert.Equal(t, "auto", cfg.General.SymlinkResolution)
	assert.Equal(t, 10, cfg.General.BackupKeepCount)
	assert.Equal(t, 7, cfg.General.BackupKeepDays)
	assert.Equal(t, types.ResolutionAuto, cfg.SymlinkResolution())
	assert.Empty(t, cfg.Tools)
}

func TestLoadFromMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
[general]
repo_path = "~/dots"
symlink_resolution = "absolute"
backup_keep_count = 3

[tools.vim]
files = [
  { repo = "vimrc", dest = ".vimrc" },
]

[tools.zsh]
files = [
  { repo = "zshrc", dest = ".zshrc" },
  { repo = "zshrc-work", dest = ".zshrc", profile = "work" },
]
`)
	cfg, err := config.LoadFrom(path, true)
	require.NoError(t, err)

	assert.Equal(t, "~/dots", cfg.General.RepoPath)
	assert.Equal(t, types.ResolutionAbsolute, cfg.SymlinkResolution())
	assert.Equal(t, 3, cfg.General.BackupKeepCount)
	// Untouched keys keep their defaults.
	assert.Equal(t, 7, cfg.General.BackupKeepDays)
	assert.Len(t, cfg.Tools, 2)
}

func TestLoadFromRejectsBadResolution(t *testing.T) {
	path := writeConfig(t, `
[general]
symlink_resolution = "sideways"
`)
	_, err := config.LoadFrom(path, true)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfigValid))
}

func TestTrackedFilesBaseEntries(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
[general]
repo_path = "~/dots"

[tools.vim]
files = [
  { repo = "vimrc", dest = ".vimrc" },
]
`)
	cfg, err := config.LoadFrom(path, true)
	require.NoError(t, err)

	files, err := cfg.TrackedFiles("")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "vim", files[0].Tool)
	assert.Equal(t, filepath.Join(home, "dots", "vimrc"), files[0].RepoPath)
	assert.Equal(t, filepath.Join(home, ".vimrc"), files[0].DestPath)
}

func TestTrackedFilesProfileOverride(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
[general]
repo_path = "~/dots"
current_profile = "work"

[tools.zsh]
files = [
  { repo = "zshrc", dest = ".zshrc" },
  { repo = "zshrc", dest = ".zshrc", profile = "work" },
  { repo = "aliases", dest = ".aliases", profile = "home" },
]
`)
	cfg, err := config.LoadFrom(path, true)
	require.NoError(t, err)

	// Empty profile resolves to the configured current profile.
	files, err := cfg.TrackedFiles("")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "work", files[0].Profile)
	assert.Equal(t,
		filepath.Join(home, "dots", "profiles", "work", "zsh", "zshrc"),
		files[0].RepoPath)

	// A different profile sees only the base entry for that dest.
	files, err = cfg.TrackedFiles("home")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Empty(t, files[0].Profile)
	assert.Equal(t, filepath.Join(home, "dots", "zshrc"), files[0].RepoPath)
	assert.Equal(t, "home", files[1].Profile)
}

func TestAddFileAndSaveRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
[general]
repo_path = "~/dots"
`)
	cfg, err := config.LoadFrom(path, true)
	require.NoError(t, err)

	cfg.AddFile("tmux", "tmux.conf", ".tmux.conf", "")
	require.NoError(t, cfg.Save())

	reloaded, err := config.LoadFrom(path, true)
	require.NoError(t, err)
	files, err := reloaded.TrackedFiles("")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "tmux", files[0].Tool)
	assert.Equal(t, filepath.Join(home, ".tmux.conf"), files[0].DestPath)
}

func TestBackupDirDefaultsUnderRepo(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := config.LoadFrom(filepath.Join(home, "config.toml"), false)
	require.NoError(t, err)

	dir, err := cfg.BackupDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".dotfiles", ".backups"), dir)

	cfg.General.BackupDir = "~/custom-backups"
	dir, err = cfg.BackupDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "custom-backups"), dir)
}
