package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/homelink/pkg/display"
	"github.com/arthur-debert/homelink/pkg/prompt"
	"github.com/arthur-debert/homelink/pkg/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile tracked files with the repository",
	Long: `Classifies every tracked file against the live filesystem and applies the
changes needed to bring it in sync. Conflicting destinations prompt for a
decision; everything replaced is backed up first. All changes commit as one
transaction.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine()
		if err != nil {
			return err
		}
		files, err := eng.cfg.TrackedFiles(profile)
		if err != nil {
			return err
		}

		resolver := prompt.NewAuto()
		if !dryRun && prompt.IsInteractive() {
			resolver = prompt.NewInteractive()
		}

		result, err := eng.syncer.Sync(files, sync.Options{
			Resolution: eng.cfg.SymlinkResolution(),
			Resolver:   resolver,
			OnDiff:     func(diff string) { pterm.Println(diff) },
		})
		if err != nil {
			return err
		}

		pterm.Print(display.RenderSyncResult(result))
		if dryRun {
			pterm.Print(display.RenderDryRunLog(eng.eff.Log()))
		}
		return nil
	},
}
