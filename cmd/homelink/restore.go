package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/homelink/pkg/display"
	"github.com/arthur-debert/homelink/pkg/errors"
	"github.com/arthur-debert/homelink/pkg/restore"
	"github.com/arthur-debert/homelink/pkg/vcs"
)

var (
	restoreTarget string
	restoreToRepo bool
)

var restoreCmd = &cobra.Command{
	Use:   "restore [selector]",
	Short: "Restore from a backup",
	Long: `Restores content from a backup. The selector is "latest" (the default) or
a 1-based index into the listing shown by "homelink backup list".

With --target, the named file is put back at its destination. With
--to-repo, every file of the backup is copied into its tracked repo
location and staged in git.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine()
		if err != nil {
			return err
		}
		svc := restore.NewService(eng.eff, eng.store, eng.paths)

		selector := restore.SelectorLatest
		if len(args) == 1 {
			selector = args[0]
		}
		b, err := svc.Select(selector)
		if err != nil {
			return err
		}

		switch {
		case restoreToRepo:
			files, err := eng.cfg.TrackedFiles(profile)
			if err != nil {
				return err
			}
			var repo vcs.Repository
			if vcs.Available() {
				repo = vcs.NewGit(eng.paths.DotfilesRoot(), dryRun)
			}
			copied, err := svc.ToRepo(b, files, repo)
			if err != nil {
				return err
			}
			pterm.Printf("Imported %d file(s) into the repo.\n", len(copied))

		case restoreTarget != "":
			if err := svc.ToDest(b, restoreTarget); err != nil {
				return err
			}
			pterm.Printf("Restored %s from %s.\n",
				restoreTarget, b.Timestamp.Format("2006-01-02 15:04:05"))

		default:
			return errors.New(errors.ErrInvalidInput,
				"restore needs --target <path> or --to-repo")
		}

		if dryRun {
			pterm.Print(display.RenderDryRunLog(eng.eff.Log()))
		}
		return nil
	},
}

func init() {
	restoreCmd.Flags().StringVar(&restoreTarget, "target", "",
		"Destination path to restore from the backup")
	restoreCmd.Flags().BoolVar(&restoreToRepo, "to-repo", false,
		"Copy the backup's files into the repo and stage them")
}
