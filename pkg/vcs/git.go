// Package vcs versions the dotfiles repo itself. The engine treats version
// control as a collaborator behind a small interface: detect what changed,
// stage it, commit it. The implementation shells out to the git binary; no
// git on PATH means vcs features degrade gracefully rather than block a
// sync.
package vcs

import (
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/homelink/pkg/errors"
	"github.com/arthur-debert/homelink/pkg/logging"
	"github.com/arthur-debert/homelink/pkg/types"
)

// Repository is the version-control surface the engine depends on.
type Repository interface {
	// Root returns the working tree root.
	Root() string

	// IsRepo reports whether the root is inside a work tree.
	IsRepo() bool

	// Init creates a repository at the root when none exists. Idempotent.
	Init() error

	// DetectChanges lists paths that differ from HEAD, untracked included.
	DetectChanges() ([]types.FileChange, error)

	// Stage adds (or, for deleted paths, removes) the given paths in the
	// index. Paths may be absolute or root-relative.
	Stage(paths []string) error

	// Commit records the staged changes. Committing with nothing staged is
	// not an error.
	Commit(message string) error

	// Push publishes commits to the configured remote. A repository with no
	// remote is not an error; there is simply nowhere to push.
	Push() error

	// CurrentBranch returns the checked-out branch's short name.
	CurrentBranch() (string, error)
}

type gitCLI struct {
	root   string
	dryRun bool
}

// NewGit returns a Repository backed by the git binary, rooted at root. With
// dryRun set, mutating commands are logged and not executed.
func NewGit(root string, dryRun bool) Repository {
	return &gitCLI{root: root, dryRun: dryRun}
}

// Available reports whether a git binary is on PATH.
func Available() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

func (g *gitCLI) Root() string {
	return g.root
}

func (g *gitCLI) run(args ...string) (string, error) {
	full := append([]string{"-C", g.root}, args...)
	out, err := exec.Command("git", full...).CombinedOutput()
	if err != nil {
		return "", errors.Newf(errors.ErrVCSCommand, "git %s: %s",
			strings.Join(args, " "), strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

func (g *gitCLI) mutate(args ...string) error {
	if g.dryRun {
		logger := logging.GetLogger("vcs")
		logger.Info().
			Str("cmd", "git "+strings.Join(args, " ")).
			Msg("dry-run: would execute")
		return nil
	}
	_, err := g.run(args...)
	return err
}

func (g *gitCLI) IsRepo() bool {
	out, err := g.run("rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

func (g *gitCLI) Init() error {
	if g.IsRepo() {
		return nil
	}
	return g.mutate("init", "--initial-branch=main")
}

// DetectChanges parses `git status --porcelain`. Rename entries count as a
// modification of the new path.
func (g *gitCLI) DetectChanges() ([]types.FileChange, error) {
	out, err := g.run("status", "--porcelain", "--untracked-files=all")
	if err != nil {
		return nil, err
	}

	var changes []types.FileChange
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		code := line[:2]
		path := strings.TrimSpace(line[3:])
		if idx := strings.Index(path, " -> "); idx >= 0 {
			path = path[idx+4:]
		}
		path = strings.Trim(path, `"`)

		var kind types.ChangeKind
		switch {
		case code == "??" || strings.ContainsAny(code, "A"):
			kind = types.ChangeAdded
		case strings.ContainsAny(code, "D"):
			kind = types.ChangeDeleted
		default:
			kind = types.ChangeModified
		}
		changes = append(changes, types.FileChange{
			Path: filepath.Join(g.root, path),
			Kind: kind,
		})
	}
	return changes, nil
}

func (g *gitCLI) Stage(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	rels := make([]string, 0, len(paths))
	for _, p := range paths {
		if filepath.IsAbs(p) {
			rel, err := filepath.Rel(g.root, p)
			if err != nil {
				return errors.Wrapf(err, errors.ErrPathResolve, "%s is outside the repo", p)
			}
			p = rel
		}
		rels = append(rels, p)
	}
	// `git add -A` on explicit paths stages deletions too.
	return g.mutate(append([]string{"add", "-A", "--"}, rels...)...)
}

func (g *gitCLI) Commit(message string) error {
	if g.dryRun {
		return g.mutate("commit", "-m", message)
	}
	out, err := g.run("status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return err
	}
	staged := false
	for _, line := range strings.Split(out, "\n") {
		if len(line) >= 2 && line[0] != ' ' && line[0] != '?' {
			staged = true
			break
		}
	}
	if !staged {
		logger := logging.GetLogger("vcs")
		logger.Debug().Msg("Nothing staged, skipping commit")
		return nil
	}
	return g.mutate("commit", "-m", message)
}

func (g *gitCLI) Push() error {
	out, err := g.run("remote")
	if err != nil {
		return err
	}
	if strings.TrimSpace(out) == "" {
		logger := logging.GetLogger("vcs")
		logger.Debug().Msg("No remote configured, skipping push")
		return nil
	}
	return g.mutate("push")
}

func (g *gitCLI) CurrentBranch() (string, error) {
	out, err := g.run("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
