package main

import (
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/homelink/pkg/errors"
	"github.com/arthur-debert/homelink/pkg/prompt"
	"github.com/arthur-debert/homelink/pkg/sync"
	"github.com/arthur-debert/homelink/pkg/types"
)

var addProfile string

var addCmd = &cobra.Command{
	Use:   "add <tool> <path>",
	Short: "Start tracking an existing file",
	Long: `Copies an existing file from your home directory into the repo under the
given tool, registers the mapping in the configuration, and syncs it so the
original becomes a symlink.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tool, path := args[0], args[1]

		eng, err := buildEngine()
		if err != nil {
			return err
		}

		destPath, err := filepath.Abs(path)
		if err != nil {
			return errors.Wrapf(err, errors.ErrPathResolve, "cannot resolve %s", path)
		}
		if _, err := eng.eff.Lstat(destPath); err != nil {
			return errors.Newf(errors.ErrFileNotFound, "%s does not exist", destPath)
		}

		destRel := eng.paths.RelativeToHome(destPath)
		if filepath.IsAbs(destRel) {
			return errors.Newf(errors.ErrInvalidInput,
				"%s is outside the home directory", destPath)
		}

		repoRel := filepath.Join(tool, filepath.Base(destPath))
		repoPath := filepath.Join(eng.paths.DotfilesRoot(), repoRel)
		if _, err := eng.eff.Lstat(repoPath); err == nil {
			return errors.Newf(errors.ErrInvalidInput,
				"%s already exists in the repo", repoRel)
		}

		if err := eng.eff.MkdirAll(filepath.Dir(repoPath), 0755); err != nil {
			return err
		}
		info, err := eng.eff.Stat(destPath)
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", destPath)
		}
		if info.IsDir() {
			err = eng.eff.CopyDir(destPath, repoPath)
		} else {
			err = eng.eff.CopyFile(destPath, repoPath)
		}
		if err != nil {
			return err
		}

		eng.cfg.AddFile(tool, repoRel, destRel, addProfile)
		if !dryRun {
			if err := eng.cfg.Save(); err != nil {
				return err
			}
		}

		result, err := eng.syncer.Sync([]types.TrackedFile{{
			Tool:     tool,
			RepoPath: repoPath,
			DestPath: destPath,
			Profile:  addProfile,
		}}, sync.Options{
			Resolution: eng.cfg.SymlinkResolution(),
			Resolver:   prompt.NewAuto(),
		})
		if err != nil {
			return err
		}

		pterm.Printf("Tracking %s as %s (%d linked)\n", destPath, repoRel, result.Synced)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addProfile, "profile-entry", "",
		"Register the mapping under a profile instead of the base set")
}
