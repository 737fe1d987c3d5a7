package transaction_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/homelink/pkg/backup"
	"github.com/arthur-debert/homelink/pkg/effects"
	"github.com/arthur-debert/homelink/pkg/errors"
	"github.com/arthur-debert/homelink/pkg/filesystem"
	"github.com/arthur-debert/homelink/pkg/paths"
	"github.com/arthur-debert/homelink/pkg/transaction"
	"github.com/arthur-debert/homelink/pkg/types"
)

type fixture struct {
	eff  *effects.Layer
	run  *backup.Run
	home string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	p, err := paths.New(filepath.Join(home, ".dotfiles"), filepath.Join(home, ".backups"))
	require.NoError(t, err)
	eff := effects.New(filesystem.NewOS(), false)
	store := backup.NewStore(eff, p)
	return &fixture{eff: eff, run: store.NewRun(time.Now()), home: home}
}

func (f *fixture) begin(t *testing.T) *transaction.Transaction {
	t.Helper()
	tx, err := transaction.Begin(f.eff, t.TempDir(), f.run)
	require.NoError(t, err)
	return tx
}

func (f *fixture) repoFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.home, ".dotfiles", name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runAll(t *testing.T, tx *transaction.Transaction, eff *effects.Layer, ops ...types.FileOperation) error {
	t.Helper()
	for _, op := range ops {
		require.NoError(t, tx.AddOperation(op))
	}
	if err := tx.Validate(eff); err != nil {
		return err
	}
	if err := tx.Prepare(); err != nil {
		return err
	}
	if err := tx.Commit(eff); err != nil {
		return err
	}
	return tx.Verify(eff)
}

func TestCommitCreatesSymlink(t *testing.T) {
	f := newFixture(t)
	repo := f.repoFile(t, "vim/vimrc", "set nocompatible")
	dest := filepath.Join(f.home, ".vimrc")

	tx := f.begin(t)
	err := runAll(t, tx, f.eff, types.FileOperation{
		Type:       types.OpCreateSymlink,
		Source:     repo,
		Target:     dest,
		Resolution: types.ResolutionAuto,
	})
	require.NoError(t, err)
	assert.Equal(t, types.TxVerified, tx.State())
	assert.NotEmpty(t, tx.ID)

	target, err := os.Readlink(dest)
	require.NoError(t, err)
	assert.False(t, filepath.IsAbs(target), "auto resolution prefers a relative target")
	assert.Equal(t, paths.Normalize(repo), paths.Normalize(paths.ResolveLinkTarget(dest, target)))

	results := tx.Results()
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
}

func TestCommitAbsoluteResolution(t *testing.T) {
	f := newFixture(t)
	repo := f.repoFile(t, "zsh/zshrc", "export A=1")
	dest := filepath.Join(f.home, ".zshrc")

	tx := f.begin(t)
	require.NoError(t, runAll(t, tx, f.eff, types.FileOperation{
		Type:       types.OpCreateSymlink,
		Source:     repo,
		Target:     dest,
		Resolution: types.ResolutionAbsolute,
	}))

	target, err := os.Readlink(dest)
	require.NoError(t, err)
	assert.Equal(t, repo, target)
}

func TestCommitReplaceResolutionCopies(t *testing.T) {
	f := newFixture(t)
	repo := f.repoFile(t, "app/config", "real content")
	dest := filepath.Join(f.home, ".appconfig")

	tx := f.begin(t)
	require.NoError(t, runAll(t, tx, f.eff, types.FileOperation{
		Type:       types.OpCreateSymlink,
		Source:     repo,
		Target:     dest,
		Resolution: types.ResolutionReplace,
	}))

	info, err := os.Lstat(dest)
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular(), "replace resolution installs a copy, not a link")
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("real content"), data)
}

func TestInstallLinkRemovesStaleTemp(t *testing.T) {
	f := newFixture(t)
	repo := f.repoFile(t, "git/gitconfig", "[core]")
	dest := filepath.Join(f.home, ".gitconfig")

	// Leftover from an interrupted earlier run.
	stale := dest + ".homelink-tmp"
	require.NoError(t, os.Symlink("/nowhere", stale))

	require.NoError(t, transaction.InstallLink(f.eff, repo, dest, types.ResolutionAuto))

	_, err := os.Lstat(stale)
	assert.True(t, os.IsNotExist(err), "stale temp must be gone")
	_, err = os.Lstat(dest)
	assert.NoError(t, err)
}

func TestBackupAndReplacePreservesContent(t *testing.T) {
	f := newFixture(t)
	repo := f.repoFile(t, "tmux/tmux.conf", "new version")
	dest := filepath.Join(f.home, ".tmux.conf")
	require.NoError(t, os.WriteFile(dest, []byte("old version"), 0644))

	tx := f.begin(t)
	require.NoError(t, runAll(t, tx, f.eff, types.FileOperation{
		Type:       types.OpBackupAndReplace,
		Source:     repo,
		Target:     dest,
		Resolution: types.ResolutionAuto,
	}))

	// Destination is now the link.
	_, err := os.Readlink(dest)
	require.NoError(t, err)

	// The old content survives in the backup.
	backups := tx.Backups()
	require.Len(t, backups, 1)
	data, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Equal(t, []byte("old version"), data)
}

func TestValidateRejectsMissingSource(t *testing.T) {
	f := newFixture(t)
	dest := filepath.Join(f.home, ".missing")

	tx := f.begin(t)
	require.NoError(t, tx.AddOperation(types.FileOperation{
		Type:   types.OpCreateSymlink,
		Source: filepath.Join(f.home, ".dotfiles", "absent"),
		Target: dest,
	}))

	err := tx.Validate(f.eff)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrTxValidate))

	// Nothing was mutated.
	_, err = os.Lstat(dest)
	assert.True(t, os.IsNotExist(err))
}

func TestCommitFailureRollsBackEarlierOps(t *testing.T) {
	f := newFixture(t)
	repoA := f.repoFile(t, "a/file", "a")
	repoB := f.repoFile(t, "b/file", "b")
	destA := filepath.Join(f.home, ".filea")
	// The second target's parent component is a regular file, so its
	// MkdirAll fails mid-commit.
	blocker := filepath.Join(f.home, "blocked")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	destB := filepath.Join(blocker, "deep", ".fileb")

	tx := f.begin(t)
	err := runAll(t, tx, f.eff,
		types.FileOperation{Type: types.OpCreateSymlink, Source: repoA, Target: destA},
		types.FileOperation{Type: types.OpCreateSymlink, Source: repoB, Target: destB},
	)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrTxCommit))
	assert.Equal(t, types.TxRolledBack, tx.State())

	// The first op's link was rolled back.
	_, lerr := os.Lstat(destA)
	assert.True(t, os.IsNotExist(lerr))
}

func TestRollbackRestoresReplacedContent(t *testing.T) {
	f := newFixture(t)
	repoA := f.repoFile(t, "x/one", "repo one")
	repoB := f.repoFile(t, "x/two", "repo two")
	destA := filepath.Join(f.home, ".one")
	require.NoError(t, os.WriteFile(destA, []byte("precious"), 0644))

	blocker := filepath.Join(f.home, "blocked")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	destB := filepath.Join(blocker, "deep", ".two")

	tx := f.begin(t)
	err := runAll(t, tx, f.eff,
		types.FileOperation{Type: types.OpBackupAndReplace, Source: repoA, Target: destA},
		types.FileOperation{Type: types.OpCreateSymlink, Source: repoB, Target: destB},
	)
	require.Error(t, err)
	assert.Equal(t, types.TxRolledBack, tx.State())

	// destA is a real file with its original content again.
	info, err := os.Lstat(destA)
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular())
	data, err := os.ReadFile(destA)
	require.NoError(t, err)
	assert.Equal(t, []byte("precious"), data)
}

func TestRollbackIsIdempotent(t *testing.T) {
	f := newFixture(t)
	repo := f.repoFile(t, "y/file", "y")
	dest := filepath.Join(f.home, ".y")

	tx := f.begin(t)
	require.NoError(t, tx.AddOperation(types.FileOperation{
		Type: types.OpCreateSymlink, Source: repo, Target: dest,
	}))
	require.NoError(t, tx.Validate(f.eff))
	require.NoError(t, tx.Prepare())
	require.NoError(t, tx.Commit(f.eff))

	require.NoError(t, tx.Rollback(f.eff))
	assert.Equal(t, types.TxRolledBack, tx.State())
	require.NoError(t, tx.Rollback(f.eff))
	assert.Equal(t, types.TxRolledBack, tx.State())

	_, err := os.Lstat(dest)
	assert.True(t, os.IsNotExist(err))
}

func TestVerifySkipsRemoveWhenTargetRecreated(t *testing.T) {
	f := newFixture(t)
	repo := f.repoFile(t, "z/file", "z")
	dest := filepath.Join(f.home, ".z")
	require.NoError(t, os.Symlink(repo, dest))

	tx := f.begin(t)
	err := runAll(t, tx, f.eff,
		types.FileOperation{Type: types.OpRemoveSymlink, Target: dest},
		types.FileOperation{Type: types.OpCreateSymlink, Source: repo, Target: dest},
	)
	require.NoError(t, err)
	assert.Equal(t, types.TxVerified, tx.State())
}

func TestVerifyDetectsExternalTampering(t *testing.T) {
	f := newFixture(t)
	repo := f.repoFile(t, "w/file", "w")
	dest := filepath.Join(f.home, ".w")

	tx := f.begin(t)
	require.NoError(t, tx.AddOperation(types.FileOperation{
		Type: types.OpCreateSymlink, Source: repo, Target: dest,
	}))
	require.NoError(t, tx.Validate(f.eff))
	require.NoError(t, tx.Prepare())
	require.NoError(t, tx.Commit(f.eff))

	// Someone else removes the link between commit and verify.
	require.NoError(t, os.Remove(dest))

	err := tx.Verify(f.eff)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrTxVerify))
}

func TestStateMachineEnforcesOrder(t *testing.T) {
	f := newFixture(t)
	tx := f.begin(t)

	assert.True(t, errors.IsCode(tx.Commit(f.eff), errors.ErrTxState))
	assert.True(t, errors.IsCode(tx.Verify(f.eff), errors.ErrTxState))
	assert.True(t, errors.IsCode(tx.Prepare(), errors.ErrTxState))

	require.NoError(t, tx.Validate(f.eff))
	assert.True(t, errors.IsCode(tx.Validate(f.eff), errors.ErrTxState))
	assert.True(t, errors.IsCode(tx.AddOperation(types.FileOperation{}), errors.ErrTxState))
}

func TestCleanupRemovesStagingDir(t *testing.T) {
	f := newFixture(t)
	parent := t.TempDir()
	tx, err := transaction.Begin(f.eff, parent, f.run)
	require.NoError(t, err)

	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, tx.Cleanup(f.eff))
	require.NoError(t, tx.Cleanup(f.eff))

	entries, err = os.ReadDir(parent)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLinkTarget(t *testing.T) {
	source := "/home/u/.dotfiles/vim/vimrc"
	target := "/home/u/.vimrc"

	assert.Equal(t, source, transaction.LinkTarget(source, target, types.ResolutionAbsolute))
	assert.Equal(t, filepath.Join(".dotfiles", "vim", "vimrc"),
		transaction.LinkTarget(source, target, types.ResolutionRelative))
	assert.Equal(t, filepath.Join(".dotfiles", "vim", "vimrc"),
		transaction.LinkTarget(source, target, types.ResolutionAuto))
	assert.Equal(t, filepath.Join(".dotfiles", "vim", "vimrc"),
		transaction.LinkTarget(source, target, types.ResolutionFollow))
}
