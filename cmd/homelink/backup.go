package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/homelink/pkg/display"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Inspect the backup store",
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available backups, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine()
		if err != nil {
			return err
		}
		backups, err := eng.store.List()
		if err != nil {
			return err
		}
		pterm.Print(display.RenderBackups(backups))
		return nil
	},
}

func init() {
	backupCmd.AddCommand(backupListCmd)
}
