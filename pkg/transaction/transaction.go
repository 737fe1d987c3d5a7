// Package transaction executes a batch of file operations atomically. A
// transaction moves through Started -> Prepared -> Committed -> Verified,
// with a RolledBack escape from Committed or from any failure. Commit is
// fail-fast: the first failed operation triggers rollback of everything
// committed so far and nothing later is attempted.
//
// Symlinks are never created directly at their final destination. The link
// is built at a sibling temporary path and renamed into place, so the
// destination is, at every observable instant, either the old state or the
// fully formed new state.
package transaction

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/arthur-debert/homelink/pkg/effects"
	"github.com/arthur-debert/homelink/pkg/errors"
	"github.com/arthur-debert/homelink/pkg/logging"
	"github.com/arthur-debert/homelink/pkg/paths"
	"github.com/arthur-debert/homelink/pkg/types"
)

// tempSuffix names the sibling staging path used for atomic installation.
// A leftover from an interrupted run is removed before reuse.
const tempSuffix = ".homelink-tmp"

// Backuper preserves a path's current content before a destructive step.
// Returns the backup path, or "" when nothing recoverable exists.
type Backuper interface {
	Backup(path string) (string, error)
}

// Transaction is one atomic batch of file operations.
type Transaction struct {
	// ID is an opaque unique token identifying this transaction.
	ID string

	// Metadata carries free-form annotations (profile, description, ...).
	Metadata map[string]string

	state      types.TransactionState
	stagingDir string
	operations []types.FileOperation
	results    []types.OperationResult
	backups    []string
	backuper   Backuper
}

// Begin allocates a transaction with a unique id and an empty staging
// directory under stagingParent.
func Begin(eff *effects.Layer, stagingParent string, backuper Backuper) (*Transaction, error) {
	id := uuid.NewString()
	stagingDir := filepath.Join(stagingParent, "homelink-tx-"+id)
	if err := eff.MkdirAll(stagingDir, 0700); err != nil {
		return nil, errors.Wrapf(err, errors.ErrDirCreate, "cannot create staging directory %s", stagingDir)
	}

	logger := logging.GetLogger("transaction")
	logger.Debug().Str("id", id).Msg("Transaction started")
	return &Transaction{
		ID:         id,
		Metadata:   make(map[string]string),
		state:      types.TxStarted,
		stagingDir: stagingDir,
		backuper:   backuper,
	}, nil
}

// State returns the transaction's lifecycle position.
func (t *Transaction) State() types.TransactionState {
	return t.state
}

// Operations returns the pending operation list.
func (t *Transaction) Operations() []types.FileOperation {
	return t.operations
}

// Results returns the results of executed operations, 1:1 with the
// operations that ran.
func (t *Transaction) Results() []types.OperationResult {
	return t.results
}

// Backups returns the backup paths accumulated during commit.
func (t *Transaction) Backups() []string {
	return t.backups
}

// AddOperation appends op to the pending list. Only legal before validation.
func (t *Transaction) AddOperation(op types.FileOperation) error {
	if t.state != types.TxStarted {
		return errors.Newf(errors.ErrTxState,
			"cannot add operations in state %s", t.state)
	}
	t.operations = append(t.operations, op)
	return nil
}

// Validate checks static preconditions for every operation without mutating
// anything: any operation that reads a source requires the source to exist.
// Failing any check aborts before the first mutation. Transitions
// Started -> Prepared.
func (t *Transaction) Validate(eff *effects.Layer) error {
	if t.state != types.TxStarted {
		return errors.Newf(errors.ErrTxState,
			"transaction must be in started state to validate, is %s", t.state)
	}

	for _, op := range t.operations {
		switch op.Type {
		case types.OpCreateSymlink, types.OpBackupAndReplace:
			if _, err := eff.Lstat(op.Source); err != nil {
				return errors.Newf(errors.ErrTxValidate,
					"source file does not exist: %s", op.Source)
			}
		case types.OpRemoveSymlink:
			// Removing an absent target is idempotent; nothing to check.
		}
	}

	t.state = types.TxPrepared
	return nil
}

// Prepare is the staging hook. Currently a pass-through gate: it requires
// the Prepared state but performs no mutation.
func (t *Transaction) Prepare() error {
	if t.state != types.TxPrepared {
		return errors.Newf(errors.ErrTxState,
			"transaction must be in prepared state to prepare, is %s", t.state)
	}
	return nil
}

// Commit executes the operations in list order. Each result is appended
// before its success is evaluated, so a failed operation's partial effects
// are visible to rollback. The first failure rolls back everything committed
// so far and commit returns; later operations are never attempted.
func (t *Transaction) Commit(eff *effects.Layer) error {
	if t.state != types.TxPrepared {
		return errors.Newf(errors.ErrTxState,
			"transaction must be in prepared state to commit, is %s", t.state)
	}
	logger := logging.GetLogger("transaction").With().Str("id", t.ID).Logger()

	for _, op := range t.operations {
		logger.Debug().Str("op", op.String()).Msg("Executing operation")
		result := t.execute(eff, op)
		t.results = append(t.results, result)

		if !result.Success {
			logger.Error().Err(result.Err).Str("op", op.String()).Msg("Operation failed, rolling back")
			if rbErr := t.Rollback(eff); rbErr != nil {
				return errors.Wrapf(result.Err, errors.ErrTxCommit,
					"operation failed and rollback also failed (%v)", rbErr)
			}
			return errors.Wrapf(result.Err, errors.ErrTxCommit,
				"transaction failed at %s", op.Target)
		}
	}

	t.state = types.TxCommitted
	return nil
}

// Verify re-inspects the live filesystem against every successful result.
// CreateSymlink targets must exist; RemoveSymlink targets must be gone,
// unless the immediately following operation recreated the same target. Any
// mismatch means the filesystem changed concurrently with the transaction;
// that is fatal and non-retriable.
func (t *Transaction) Verify(eff *effects.Layer) error {
	if t.state != types.TxCommitted {
		return errors.Newf(errors.ErrTxState,
			"transaction must be in committed state to verify, is %s", t.state)
	}

	if eff.DryRun() {
		t.state = types.TxVerified
		return nil
	}

	for i, result := range t.results {
		if !result.Success {
			return errors.Newf(errors.ErrTxVerify,
				"operation did not succeed: %s", result.Message)
		}

		switch result.Operation.Type {
		case types.OpCreateSymlink, types.OpBackupAndReplace:
			if _, err := eff.Lstat(result.Operation.Target); err != nil {
				return errors.Newf(errors.ErrTxVerify,
					"expected entry missing at %s", result.Operation.Target)
			}
		case types.OpRemoveSymlink:
			if t.recreatedNext(i, result.Operation.Target) {
				continue
			}
			if _, err := eff.Lstat(result.Operation.Target); err == nil {
				return errors.Newf(errors.ErrTxVerify,
					"entry still present at %s", result.Operation.Target)
			}
		}
	}

	t.state = types.TxVerified
	return nil
}

// recreatedNext reports whether the operation after index i recreated the
// same target, in which case the removal check must be skipped.
func (t *Transaction) recreatedNext(i int, target string) bool {
	if i+1 >= len(t.results) {
		return false
	}
	next := t.results[i+1].Operation
	return (next.Type == types.OpCreateSymlink || next.Type == types.OpBackupAndReplace) &&
		next.Target == target
}

// Rollback reverts completed results in reverse order. Idempotent: calling
// it on a rolled-back transaction is a no-op. A successful CreateSymlink is
// undone by removing the created entry; a BackupAndReplace by restoring the
// target from its backup. A RemoveSymlink has no stored pre-image and is
// intentionally left unreversed, a known gap of the flat result list; a
// proper undo log would record one undo action per committed operation.
func (t *Transaction) Rollback(eff *effects.Layer) error {
	if t.state == types.TxRolledBack {
		return nil
	}
	logger := logging.GetLogger("transaction").With().Str("id", t.ID).Logger()

	for i := len(t.results) - 1; i >= 0; i-- {
		result := t.results[i]
		if !result.Success {
			continue
		}

		switch result.Operation.Type {
		case types.OpCreateSymlink:
			if _, err := eff.Lstat(result.Operation.Target); err == nil {
				if err := eff.Remove(result.Operation.Target); err != nil {
					logger.Warn().Err(err).Str("target", result.Operation.Target).
						Msg("Rollback could not remove created link")
				}
			}

		case types.OpBackupAndReplace:
			t.restoreFromBackup(eff, result)

		case types.OpRemoveSymlink:
			logger.Warn().Str("target", result.Operation.Target).
				Msg("Removed symlink cannot be restored, no pre-image stored")
		}
	}

	t.state = types.TxRolledBack
	return nil
}

func (t *Transaction) restoreFromBackup(eff *effects.Layer, result types.OperationResult) {
	logger := logging.GetLogger("transaction").With().Str("id", t.ID).Logger()
	target := result.Operation.Target
	backupPath := result.Operation.BackupPath

	if backupPath == "" {
		// Nothing was preserved (broken link, absent target); undo the link.
		if _, err := eff.Lstat(target); err == nil {
			if err := eff.Remove(target); err != nil {
				logger.Warn().Err(err).Str("target", target).Msg("Rollback could not remove link")
			}
		}
		return
	}

	info, err := eff.Stat(backupPath)
	if err != nil {
		logger.Warn().Err(err).Str("backup", backupPath).Msg("Rollback backup unreadable")
		return
	}
	if _, err := eff.Lstat(target); err == nil {
		if err := eff.Remove(target); err != nil {
			logger.Warn().Err(err).Str("target", target).Msg("Rollback could not clear target")
			return
		}
	}
	if err := eff.MkdirAll(filepath.Dir(target), 0755); err != nil {
		logger.Warn().Err(err).Str("target", target).Msg("Rollback could not create parent")
		return
	}
	if info.IsDir() {
		err = eff.CopyDir(backupPath, target)
	} else {
		err = eff.CopyFile(backupPath, target)
	}
	if err != nil {
		logger.Warn().Err(err).Str("target", target).Msg("Rollback restore failed")
	}
}

// Cleanup removes the staging directory. Safe to call from any terminal
// state, and more than once.
func (t *Transaction) Cleanup(eff *effects.Layer) error {
	if t.stagingDir == "" {
		return nil
	}
	if err := eff.RemoveAll(t.stagingDir); err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot remove staging directory %s", t.stagingDir)
	}
	t.stagingDir = ""
	return nil
}

// execute runs one operation and reports its outcome.
func (t *Transaction) execute(eff *effects.Layer, op types.FileOperation) types.OperationResult {
	switch op.Type {
	case types.OpCreateSymlink:
		if err := eff.MkdirAll(filepath.Dir(op.Target), 0755); err != nil {
			return failure(op, errors.Wrapf(err, errors.ErrDirCreate,
				"cannot create parent of %s", op.Target))
		}
		if err := InstallLink(eff, op.Source, op.Target, op.Resolution); err != nil {
			return failure(op, err)
		}
		return success(op, fmt.Sprintf("linked %s -> %s", op.Target, op.Source))

	case types.OpRemoveSymlink:
		if err := eff.Remove(op.Target); err != nil {
			return failure(op, errors.Wrapf(err, errors.ErrFileAccess,
				"cannot remove %s", op.Target))
		}
		return success(op, fmt.Sprintf("removed %s", op.Target))

	case types.OpBackupAndReplace:
		backupPath, err := t.backuper.Backup(op.Target)
		if err != nil {
			return failure(op, err)
		}
		if backupPath != "" {
			t.backups = append(t.backups, backupPath)
		}
		// Record the actual backup location so rollback restores from what
		// really exists, not from the planner's precomputed path.
		op.BackupPath = backupPath

		if err := eff.MkdirAll(filepath.Dir(op.Target), 0755); err != nil {
			return failure(op, errors.Wrapf(err, errors.ErrDirCreate,
				"cannot create parent of %s", op.Target))
		}
		if err := InstallLink(eff, op.Source, op.Target, op.Resolution); err != nil {
			return failure(op, err)
		}
		msg := fmt.Sprintf("replaced %s -> %s", op.Target, op.Source)
		if backupPath != "" {
			msg += fmt.Sprintf(" (backup %s)", backupPath)
		}
		return success(op, msg)

	default:
		return failure(op, errors.Newf(errors.ErrInternal, "unknown operation type: %d", op.Type))
	}
}

// InstallLink installs the desired entry at target atomically. The link
// target string is computed per the resolution policy; the entry is built at
// a sibling temporary path and renamed over the destination. Replace mode
// copies the source to the temp path instead; no symlink is ever created.
func InstallLink(eff *effects.Layer, source, target string, resolution types.SymlinkResolution) error {
	tempPath := target + tempSuffix

	// A stale temp entry from a previous interrupted run must not make the
	// symlink call fail.
	if _, err := eff.Lstat(tempPath); err == nil {
		if err := eff.Remove(tempPath); err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "cannot remove stale temp %s", tempPath)
		}
	}

	if resolution == types.ResolutionReplace {
		if err := eff.CopyFile(source, tempPath); err != nil {
			return err
		}
		if err := eff.Rename(tempPath, target); err != nil {
			return errors.Wrapf(err, errors.ErrFileCopy, "cannot rename %s over %s", tempPath, target)
		}
		return nil
	}

	linkTarget := LinkTarget(source, target, resolution)
	if err := eff.Symlink(linkTarget, tempPath); err != nil {
		return errors.Wrapf(err, errors.ErrSymlinkCreate, "cannot create symlink at %s", tempPath)
	}
	if err := eff.Rename(tempPath, target); err != nil {
		return errors.Wrapf(err, errors.ErrSymlinkCreate, "cannot rename %s over %s", tempPath, target)
	}
	return nil
}

// LinkTarget computes the on-disk target string for a symlink at target
// pointing at source, per the resolution policy. Relative targets are the
// path difference from target's parent to source; when no relative path
// exists the absolute source is used. Follow is treated as Auto.
func LinkTarget(source, target string, resolution types.SymlinkResolution) string {
	switch resolution {
	case types.ResolutionAbsolute:
		return source
	case types.ResolutionAuto, types.ResolutionRelative, types.ResolutionFollow:
		if rel, ok := paths.RelativeTarget(source, target); ok {
			return rel
		}
		return source
	default:
		return source
	}
}

func success(op types.FileOperation, msg string) types.OperationResult {
	return types.OperationResult{Operation: op, Success: true, Message: msg}
}

func failure(op types.FileOperation, err error) types.OperationResult {
	return types.OperationResult{Operation: op, Success: false, Message: err.Error(), Err: err}
}
