package sync

import (
	"os"
	"time"

	"github.com/arthur-debert/homelink/pkg/planner"
	"github.com/arthur-debert/homelink/pkg/status"
	"github.com/arthur-debert/homelink/pkg/transaction"
	"github.com/arthur-debert/homelink/pkg/types"
)

// Plan is a pre-built batch: everything the apply flow will do, computed
// without asking questions and without mutating anything. Conflicts plan as
// backup-and-replace; the caller confirms the whole batch at once instead of
// answering per file.
type Plan struct {
	// RepoRefreshes lists files whose destination content must be copied
	// into the repo before the transaction runs (the empty-repo safety rule).
	RepoRefreshes []types.TrackedFile

	// Ops is the ordered operation list for the transaction.
	Ops []types.FileOperation

	// Skipped lists files the batch will not touch, with the reason.
	Skipped []FileResult
}

// Empty reports whether the plan changes nothing.
func (p *Plan) Empty() bool {
	return len(p.RepoRefreshes) == 0 && len(p.Ops) == 0
}

// BuildPlan classifies and plans every file without prompting. Backup paths
// are pre-computed against a run rooted at now.
func (s *Syncer) BuildPlan(files []types.TrackedFile, resolution types.SymlinkResolution, now time.Time) *Plan {
	run := s.store.NewRun(now)
	plan := &Plan{}

	for _, file := range files {
		st := status.Classify(s.eff, file)
		switch planner.Plan(s.eff, file, st) {
		case types.ActionNothing:
			// up to date

		case types.ActionCreateSymlink:
			plan.Ops = append(plan.Ops, types.FileOperation{
				Type:       types.OpCreateSymlink,
				Source:     file.RepoPath,
				Target:     file.DestPath,
				Resolution: resolution,
			})

		case types.ActionUpdateRepoFromDest:
			plan.RepoRefreshes = append(plan.RepoRefreshes, file)
			plan.Ops = append(plan.Ops, types.FileOperation{
				Type:       types.OpBackupAndReplace,
				Source:     file.RepoPath,
				Target:     file.DestPath,
				BackupPath: run.PathFor(file.DestPath),
				Resolution: resolution,
			})

		case types.ActionResolveConflict:
			plan.Ops = append(plan.Ops, types.FileOperation{
				Type:       types.OpBackupAndReplace,
				Source:     file.RepoPath,
				Target:     file.DestPath,
				BackupPath: run.PathFor(file.DestPath),
				Resolution: resolution,
			})

		default:
			plan.Skipped = append(plan.Skipped, FileResult{
				File:    file,
				Status:  st,
				Outcome: OutcomeSkipped,
				Message: "skipped: " + st.String(),
			})
		}
	}

	return plan
}

// Apply commits a pre-built operation list in one transaction and returns
// the transaction id alongside the per-operation results. Repo refreshes
// from the plan must already have been performed (see Execute).
func (s *Syncer) Apply(ops []types.FileOperation, now time.Time) (string, []types.OperationResult, error) {
	run := s.store.NewRun(now)

	tx, err := transaction.Begin(s.eff, os.TempDir(), run)
	if err != nil {
		return "", nil, err
	}
	defer func() { _ = tx.Cleanup(s.eff) }()

	for _, op := range ops {
		if err := tx.AddOperation(op); err != nil {
			return tx.ID, tx.Results(), err
		}
	}
	if err := tx.Validate(s.eff); err != nil {
		return tx.ID, tx.Results(), err
	}
	if err := tx.Prepare(); err != nil {
		return tx.ID, tx.Results(), err
	}
	if err := tx.Commit(s.eff); err != nil {
		return tx.ID, tx.Results(), err
	}
	if err := tx.Verify(s.eff); err != nil {
		return tx.ID, tx.Results(), err
	}
	return tx.ID, tx.Results(), nil
}

// Execute runs a plan end to end: repo refreshes first, then the
// transaction.
func (s *Syncer) Execute(plan *Plan, now time.Time) (string, []types.OperationResult, error) {
	for _, file := range plan.RepoRefreshes {
		if err := s.eff.CopyFile(file.DestPath, file.RepoPath); err != nil {
			return "", nil, err
		}
	}
	if len(plan.Ops) == 0 {
		return "", nil, nil
	}
	return s.Apply(plan.Ops, now)
}
