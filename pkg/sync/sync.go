// Package sync orchestrates one reconciliation run: classify every tracked
// file, plan the safe action, consult the conflict oracle where content
// would be discarded, then apply the surviving operations in a single
// transaction.
//
// Planning never mutates. All questions are asked and answered before the
// first operation executes, so a cancel during planning leaves the
// filesystem untouched.
package sync

import (
	"os"
	"time"

	"github.com/arthur-debert/homelink/pkg/backup"
	"github.com/arthur-debert/homelink/pkg/effects"
	"github.com/arthur-debert/homelink/pkg/errors"
	"github.com/arthur-debert/homelink/pkg/logging"
	"github.com/arthur-debert/homelink/pkg/paths"
	"github.com/arthur-debert/homelink/pkg/planner"
	"github.com/arthur-debert/homelink/pkg/prompt"
	"github.com/arthur-debert/homelink/pkg/status"
	"github.com/arthur-debert/homelink/pkg/transaction"
	"github.com/arthur-debert/homelink/pkg/types"
)

// Outcome is what happened to one tracked file during a run.
type Outcome int

const (
	// OutcomeSynced means the file ended the run linked to its repo copy.
	OutcomeSynced Outcome = iota

	// OutcomeAlready means the file was already in the desired state.
	OutcomeAlready

	// OutcomeUpdatedRepo means destination content was copied back into the
	// repo before linking.
	OutcomeUpdatedRepo

	// OutcomeSkipped means the file was left alone.
	OutcomeSkipped
)

// FileResult pairs a tracked file with its run outcome.
type FileResult struct {
	File    types.TrackedFile
	Status  types.FileStatus
	Outcome Outcome
	Message string
}

// Result summarizes a completed run.
type Result struct {
	Files   []FileResult
	Synced  int
	Already int
	Updated int
	Skipped int

	// TxID is set when a transaction was committed; empty when every file
	// was already in place.
	TxID string

	// Backups lists backup paths created during the run.
	Backups []string
}

// Options configures one run.
type Options struct {
	// Resolution is the symlink target policy for created links.
	Resolution types.SymlinkResolution

	// Resolver answers conflict questions. Required.
	Resolver prompt.Resolver

	// OnDiff receives the unified diff text when the oracle answers Inspect.
	// Nil means diffs are silently discarded.
	OnDiff func(diff string)
}

// Syncer runs reconciliation over a set of tracked files.
type Syncer struct {
	eff   *effects.Layer
	paths paths.Paths
	store *backup.Store
}

// New creates a syncer. Mutations flow through eff; backups land in store.
func New(eff *effects.Layer, p paths.Paths, store *backup.Store) *Syncer {
	return &Syncer{eff: eff, paths: p, store: store}
}

// plannedOp pairs a pending operation with the file it serves, so results
// can be attributed after commit.
type plannedOp struct {
	op      types.FileOperation
	fileIdx int
	outcome Outcome
}

// Sync reconciles files. Classification, planning, and conflict resolution
// all complete before the transaction begins; a Cancel answer aborts with
// ErrCancelled and no mutation. Commit failures roll back every operation
// of the run.
func (s *Syncer) Sync(files []types.TrackedFile, opts Options) (*Result, error) {
	logger := logging.GetLogger("sync")
	if opts.Resolver == nil {
		return nil, errors.New(errors.ErrInvalidInput, "sync requires a conflict resolver")
	}

	run := s.store.NewRun(time.Now())
	result := &Result{}
	var planned []plannedOp

	for _, file := range files {
		st := status.Classify(s.eff, file)
		action := planner.Plan(s.eff, file, st)
		logger.Debug().
			Str("dest", file.DestPath).
			Str("status", st.String()).
			Str("action", action.String()).
			Msg("Planned")

		fr := FileResult{File: file, Status: st}

		switch action {
		case types.ActionNothing:
			fr.Outcome = OutcomeAlready
			fr.Message = "up to date"

		case types.ActionCreateSymlink:
			fr.Outcome = OutcomeSynced
			fr.Message = "linked"
			planned = append(planned, plannedOp{
				op: types.FileOperation{
					Type:       types.OpCreateSymlink,
					Source:     file.RepoPath,
					Target:     file.DestPath,
					Resolution: opts.Resolution,
				},
				fileIdx: len(result.Files),
				outcome: OutcomeSynced,
			})

		case types.ActionUpdateRepoFromDest:
			// Destination content wins over an empty repo copy. The repo
			// refresh happens before the link so nothing is lost even if the
			// transaction never commits.
			if err := s.eff.CopyFile(file.DestPath, file.RepoPath); err != nil {
				return nil, errors.Wrapf(err, errors.ErrFileCopy,
					"cannot refresh repo copy from %s", file.DestPath)
			}
			fr.Outcome = OutcomeUpdatedRepo
			fr.Message = "repo refreshed from destination"
			planned = append(planned, plannedOp{
				op: types.FileOperation{
					Type:       types.OpBackupAndReplace,
					Source:     file.RepoPath,
					Target:     file.DestPath,
					BackupPath: run.PathFor(file.DestPath),
					Resolution: opts.Resolution,
				},
				fileIdx: len(result.Files),
				outcome: OutcomeUpdatedRepo,
			})

		case types.ActionResolveConflict:
			choice, err := s.resolve(file, opts)
			if err != nil {
				return nil, err
			}
			switch choice {
			case types.ChoiceReplace:
				fr.Outcome = OutcomeSynced
				fr.Message = "backed up and replaced"
				planned = append(planned, plannedOp{
					op: types.FileOperation{
						Type:       types.OpBackupAndReplace,
						Source:     file.RepoPath,
						Target:     file.DestPath,
						BackupPath: run.PathFor(file.DestPath),
						Resolution: opts.Resolution,
					},
					fileIdx: len(result.Files),
					outcome: OutcomeSynced,
				})
			case types.ChoiceSkip:
				fr.Outcome = OutcomeSkipped
				fr.Message = "skipped (conflict)"
			default:
				return nil, errors.New(errors.ErrCancelled, "sync cancelled")
			}

		case types.ActionSkip:
			fr.Outcome = OutcomeSkipped
			fr.Message = "skipped: " + status.Report(s.eff, []types.TrackedFile{file})[0].Message

		default:
			fr.Outcome = OutcomeSkipped
			fr.Message = "skipped"
		}

		result.Files = append(result.Files, fr)
	}

	if len(planned) > 0 {
		if err := s.apply(run, planned, result); err != nil {
			return nil, err
		}
	}

	for _, fr := range result.Files {
		switch fr.Outcome {
		case OutcomeSynced:
			result.Synced++
		case OutcomeAlready:
			result.Already++
		case OutcomeUpdatedRepo:
			result.Updated++
		case OutcomeSkipped:
			result.Skipped++
		}
	}

	logger.Info().
		Int("synced", result.Synced).
		Int("already", result.Already).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Msg("Sync complete")
	return result, nil
}

// resolve runs the oracle loop for one conflicted file. Inspect re-asks
// after showing the diff; a locked destination forces Skip without asking.
func (s *Syncer) resolve(file types.TrackedFile, opts Options) (types.ConflictChoice, error) {
	logger := logging.GetLogger("sync")

	if paths.IsLocked(file.DestPath) {
		logger.Warn().Str("dest", file.DestPath).Msg("Destination is in use, skipping")
		return types.ChoiceSkip, nil
	}

	for {
		choice, err := opts.Resolver.Resolve(file.DestPath)
		if err != nil {
			return types.ChoiceCancel, err
		}
		if choice != types.ChoiceInspect {
			return choice, nil
		}

		diff, err := prompt.UnifiedDiff(s.eff, file.RepoPath, file.DestPath)
		if err != nil {
			diff = "diff unavailable: " + err.Error()
		}
		if opts.OnDiff != nil {
			opts.OnDiff(diff)
		}
	}
}

// apply commits the planned operations in one transaction and reconciles
// per-file outcomes with what actually executed.
func (s *Syncer) apply(run *backup.Run, planned []plannedOp, result *Result) error {
	ops := make([]types.FileOperation, len(planned))
	for i, p := range planned {
		ops[i] = p.op
	}

	tx, err := transaction.Begin(s.eff, os.TempDir(), run)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Cleanup(s.eff) }()

	for _, op := range ops {
		if err := tx.AddOperation(op); err != nil {
			return err
		}
	}
	if err := tx.Validate(s.eff); err != nil {
		return err
	}
	if err := tx.Prepare(); err != nil {
		return err
	}
	if err := tx.Commit(s.eff); err != nil {
		// Everything rolled back; nothing from this run survived.
		for _, p := range planned {
			result.Files[p.fileIdx].Outcome = OutcomeSkipped
			result.Files[p.fileIdx].Message = "rolled back: " + err.Error()
		}
		return err
	}
	if err := tx.Verify(s.eff); err != nil {
		return err
	}

	result.TxID = tx.ID
	result.Backups = tx.Backups()
	return nil
}
