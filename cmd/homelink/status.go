package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/homelink/pkg/display"
	"github.com/arthur-debert/homelink/pkg/status"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the sync state of every tracked file",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine()
		if err != nil {
			return err
		}
		files, err := eng.cfg.TrackedFiles(profile)
		if err != nil {
			return err
		}

		reports := status.Report(eng.eff, files)
		pterm.Print(display.RenderStatusReports(reports))
		return nil
	},
}
