package prompt

import (
	"github.com/pmezard/go-difflib/difflib"

	"github.com/arthur-debert/homelink/pkg/errors"
	"github.com/arthur-debert/homelink/pkg/types"
)

// UnifiedDiff renders a unified diff between the repo copy and the
// destination content, for the oracle's inspect choice.
func UnifiedDiff(fsys types.FS, repoPath, destPath string) (string, error) {
	repo, err := fsys.ReadFile(repoPath)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", repoPath)
	}
	dest, err := fsys.ReadFile(destPath)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", destPath)
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(repo)),
		B:        difflib.SplitLines(string(dest)),
		FromFile: repoPath,
		ToFile:   destPath,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "diff generation failed")
	}
	return text, nil
}
