package prompt_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/homelink/pkg/filesystem"
	"github.com/arthur-debert/homelink/pkg/prompt"
	"github.com/arthur-debert/homelink/pkg/types"
)

func TestAutoResolverAlwaysReplaces(t *testing.T) {
	r := prompt.NewAuto()
	for _, path := range []string{"/a", "/b", "/a"} {
		choice, err := r.Resolve(path)
		require.NoError(t, err)
		assert.Equal(t, types.ChoiceReplace, choice)
	}
}

func TestUnifiedDiff(t *testing.T) {
	dir := t.TempDir()
	repo := filepath.Join(dir, "repo")
	dest := filepath.Join(dir, "dest")
	require.NoError(t, os.WriteFile(repo, []byte("line one\nline two\n"), 0644))
	require.NoError(t, os.WriteFile(dest, []byte("line one\nline 2\n"), 0644))

	diff, err := prompt.UnifiedDiff(filesystem.NewOS(), repo, dest)
	require.NoError(t, err)
	assert.Contains(t, diff, "--- "+repo)
	assert.Contains(t, diff, "+++ "+dest)
	assert.Contains(t, diff, "-line two")
	assert.Contains(t, diff, "+line 2")
}

func TestUnifiedDiffIdenticalFilesIsEmpty(t *testing.T) {
	dir := t.TempDir()
	repo := filepath.Join(dir, "repo")
	dest := filepath.Join(dir, "dest")
	require.NoError(t, os.WriteFile(repo, []byte("same\n"), 0644))
	require.NoError(t, os.WriteFile(dest, []byte("same\n"), 0644))

	diff, err := prompt.UnifiedDiff(filesystem.NewOS(), repo, dest)
	require.NoError(t, err)
	assert.Empty(t, diff)
}

func TestUnifiedDiffMissingFileErrors(t *testing.T) {
	dir := t.TempDir()
	repo := filepath.Join(dir, "repo")
	require.NoError(t, os.WriteFile(repo, []byte("x"), 0644))

	_, err := prompt.UnifiedDiff(filesystem.NewOS(), repo, filepath.Join(dir, "gone"))
	assert.Error(t, err)
}
