package main

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/homelink/pkg/display"
)

var (
	cleanupKeepCount int
	cleanupKeepDays  int
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Prune old backups",
	Long: `Deletes backups that are both beyond the keep-count most recent and older
than keep-days. A backup survives as long as either condition protects it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine()
		if err != nil {
			return err
		}

		keepCount := cleanupKeepCount
		if !cmd.Flags().Changed("keep-count") {
			keepCount = eng.cfg.General.BackupKeepCount
		}
		keepDays := cleanupKeepDays
		if !cmd.Flags().Changed("keep-days") {
			keepDays = eng.cfg.General.BackupKeepDays
		}

		deleted, freed, err := eng.store.Cleanup(keepCount, keepDays, time.Now())
		if err != nil {
			return err
		}

		if len(deleted) == 0 {
			pterm.Println("Nothing to prune.")
			return nil
		}
		for _, b := range deleted {
			pterm.Printf("  deleted %s\n", b.Path)
		}
		pterm.Printf("\nPruned %d backup(s), freed %s.\n", len(deleted), display.FreedSize(freed))
		if dryRun {
			pterm.Print(display.RenderDryRunLog(eng.eff.Log()))
		}
		return nil
	},
}

func init() {
	cleanupCmd.Flags().IntVar(&cleanupKeepCount, "keep-count", 10,
		"Always keep this many most recent backups")
	cleanupCmd.Flags().IntVar(&cleanupKeepDays, "keep-days", 7,
		"Always keep backups newer than this many days")
}
