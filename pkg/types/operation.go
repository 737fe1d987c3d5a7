package types

import "fmt"

// OperationType discriminates FileOperation variants.
type OperationType int

const (
	// OpCreateSymlink installs a symlink at Target pointing at Source.
	OpCreateSymlink OperationType = iota

	// OpRemoveSymlink removes the entry at Target.
	OpRemoveSymlink

	// OpBackupAndReplace copies Target's current content to BackupPath, then
	// installs a symlink at Target pointing at Source.
	OpBackupAndReplace
)

func (t OperationType) String() string {
	switch t {
	case OpCreateSymlink:
		return "create-symlink"
	case OpRemoveSymlink:
		return "remove-symlink"
	case OpBackupAndReplace:
		return "backup-and-replace"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// FileOperation is one declarative unit of work consumed by the transaction
// engine. Fields are interpreted per Type; unused fields stay zero.
type FileOperation struct {
	Type       OperationType
	Source     string
	Target     string
	BackupPath string
	Resolution SymlinkResolution
}

func (op FileOperation) String() string {
	switch op.Type {
	case OpCreateSymlink:
		return fmt.Sprintf("create-symlink %s -> %s (%s)", op.Target, op.Source, op.Resolution)
	case OpRemoveSymlink:
		return fmt.Sprintf("remove-symlink %s", op.Target)
	case OpBackupAndReplace:
		return fmt.Sprintf("backup-and-replace %s -> %s (backup %s)", op.Target, op.Source, op.BackupPath)
	default:
		return op.Type.String()
	}
}

// OperationResult records the outcome of one executed operation. The result
// list is 1:1 with executed operations and is what rollback walks in reverse.
type OperationResult struct {
	Operation FileOperation
	Success   bool
	Message   string
	Err       error
}

// TransactionState is the lifecycle position of a transaction.
type TransactionState int

const (
	// TxStarted means the transaction accepts operations.
	TxStarted TransactionState = iota

	// TxPrepared means all operations passed static validation.
	TxPrepared

	// TxCommitted means every operation executed successfully.
	TxCommitted

	// TxVerified means post-commit filesystem state matched expectations.
	// Terminal success state.
	TxVerified

	// TxRolledBack means committed effects were reverted. Terminal failure
	// state.
	TxRolledBack
)

func (s TransactionState) String() string {
	switch s {
	case TxStarted:
		return "started"
	case TxPrepared:
		return "prepared"
	case TxCommitted:
		return "committed"
	case TxVerified:
		return "verified"
	case TxRolledBack:
		return "rolled-back"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}
