// Package prompt is the conflict resolution oracle: the single decision
// point for destinations that cannot be synced without discarding content.
// Dry-run uses the deterministic resolver so output reflects the worst case
// of what would happen; live runs ask a human.
package prompt

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"

	"github.com/arthur-debert/homelink/pkg/errors"
	"github.com/arthur-debert/homelink/pkg/types"
)

// Resolver decides what to do about one conflicted destination.
type Resolver interface {
	Resolve(path string) (types.ConflictChoice, error)
}

// autoResolver always chooses replace, without prompting.
type autoResolver struct{}

// NewAuto returns the deterministic resolver used for dry runs.
func NewAuto() Resolver {
	return autoResolver{}
}

func (autoResolver) Resolve(path string) (types.ConflictChoice, error) {
	return types.ChoiceReplace, nil
}

const (
	labelReplace = "Backup and replace"
	labelSkip    = "Skip"
	labelInspect = "View diff"
	labelCancel  = "Cancel"
)

// interactiveResolver presents the choice to a human via pterm. There is no
// timeout; a human may wait indefinitely, and Cancel is the only escape.
type interactiveResolver struct{}

// NewInteractive returns a resolver that prompts on the terminal.
func NewInteractive() Resolver {
	return interactiveResolver{}
}

func (interactiveResolver) Resolve(path string) (types.ConflictChoice, error) {
	selected, err := pterm.DefaultInteractiveSelect.
		WithOptions([]string{labelReplace, labelSkip, labelInspect, labelCancel}).
		WithDefaultOption(labelReplace).
		Show("Conflict detected at " + path)
	if err != nil {
		return types.ChoiceCancel, errors.Wrap(err, errors.ErrCancelled, "conflict prompt aborted")
	}

	switch selected {
	case labelReplace:
		return types.ChoiceReplace, nil
	case labelSkip:
		return types.ChoiceSkip, nil
	case labelInspect:
		return types.ChoiceInspect, nil
	default:
		return types.ChoiceCancel, nil
	}
}

// IsInteractive reports whether stdin is a terminal a human can answer on.
func IsInteractive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// ConfirmYesNo asks a yes/no question, defaulting to yes.
func ConfirmYesNo(question string) (bool, error) {
	ok, err := pterm.DefaultInteractiveConfirm.
		WithDefaultValue(true).
		Show(question)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCancelled, "confirmation prompt aborted")
	}
	return ok, nil
}
