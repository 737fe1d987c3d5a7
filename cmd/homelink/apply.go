package main

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/homelink/pkg/display"
	"github.com/arthur-debert/homelink/pkg/errors"
	"github.com/arthur-debert/homelink/pkg/prompt"
)

var applyYes bool

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply the full declared state as one confirmed batch",
	Long: `Builds the complete operation batch up front (conflicts resolve as
backup-and-replace), shows it, and applies it after a single confirmation.
Unlike sync, apply never asks per file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine()
		if err != nil {
			return err
		}
		files, err := eng.cfg.TrackedFiles(profile)
		if err != nil {
			return err
		}

		now := time.Now()
		plan := eng.syncer.BuildPlan(files, eng.cfg.SymlinkResolution(), now)
		if plan.Empty() {
			pterm.Println("Everything is already in sync.")
			return nil
		}

		for _, file := range plan.RepoRefreshes {
			pterm.Printf("  refresh  %s <- %s\n", file.RepoPath, file.DestPath)
		}
		for _, op := range plan.Ops {
			pterm.Printf("  %s\n", op)
		}
		for _, fr := range plan.Skipped {
			pterm.Printf("  skip     %s (%s)\n", fr.File.DestPath, fr.Status)
		}

		if !applyYes && !dryRun {
			ok, err := prompt.ConfirmYesNo("Apply these changes?")
			if err != nil {
				return err
			}
			if !ok {
				return errors.New(errors.ErrCancelled, "apply cancelled")
			}
		}

		txID, results, err := eng.syncer.Execute(plan, now)
		if err != nil {
			return err
		}

		if dryRun {
			pterm.Print(display.RenderDryRunLog(eng.eff.Log()))
			return nil
		}
		for _, r := range results {
			pterm.Printf("  done     %s\n", r.Message)
		}
		if txID != "" {
			pterm.Printf("\nTransaction %s applied, %d operation(s).\n", txID, len(results))
		}
		return nil
	},
}

func init() {
	applyCmd.Flags().BoolVarP(&applyYes, "yes", "y", false, "Apply without confirmation")
}
