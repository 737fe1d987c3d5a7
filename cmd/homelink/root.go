package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/homelink/pkg/backup"
	"github.com/arthur-debert/homelink/pkg/config"
	"github.com/arthur-debert/homelink/pkg/effects"
	"github.com/arthur-debert/homelink/pkg/errors"
	"github.com/arthur-debert/homelink/pkg/filesystem"
	"github.com/arthur-debert/homelink/pkg/logging"
	"github.com/arthur-debert/homelink/pkg/paths"
	"github.com/arthur-debert/homelink/pkg/sync"
)

// Set via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	verbosity int
	dryRun    bool
	profile   string

	rootCmd = &cobra.Command{
		Use:   "homelink",
		Short: "A dotfiles synchronizer with transactional apply",
		Long: `homelink keeps your configuration files in a versioned repository and
symlinks them into place. Every destructive step is preceded by a backup,
and changes apply as a single transaction that rolls back on failure.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command. Called once from main.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		if errors.IsCancelled(err) {
			pterm.Println(pterm.NewStyle(pterm.FgYellow).Sprint("Cancelled."))
		} else {
			pterm.Println(pterm.NewStyle(pterm.FgRed).Sprint("Error: " + err.Error()))
		}
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false,
		"Preview changes without executing them")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "",
		"Profile to resolve tracked files against (default: configured profile)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(cleanupCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("homelink version %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

// engine bundles the wired-up collaborators every command needs.
type engine struct {
	cfg    *config.Config
	paths  paths.Paths
	eff    *effects.Layer
	store  *backup.Store
	syncer *sync.Syncer
}

// buildEngine loads config and wires the effect layer, backup store, and
// syncer. The dry-run flag decides whether mutations reach the disk.
func buildEngine() (*engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	repoPath, err := cfg.RepoPath()
	if err != nil {
		return nil, err
	}
	backupDir, err := cfg.BackupDir()
	if err != nil {
		return nil, err
	}
	p, err := paths.New(repoPath, backupDir)
	if err != nil {
		return nil, err
	}

	eff := effects.New(filesystem.NewOS(), dryRun)
	store := backup.NewStore(eff, p)
	return &engine{
		cfg:    cfg,
		paths:  p,
		eff:    eff,
		store:  store,
		syncer: sync.New(eff, p, store),
	}, nil
}
