package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var backupProfile string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Archive the instance's GameData",
	Long: `Write a timestamped zip archive of the instance's GameData into the
backup directory. The archive is labelled with the active profile unless
--profile names another.

Examples:
  kpm backup
  kpm backup -i test --profile before-upgrade`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

func init() {
	backupCmd.Flags().StringVarP(&backupProfile, "profile", "p", "", "profile name for the archive label (default: active profile)")

	rootCmd.AddCommand(backupCmd)
}

type backupJSON struct {
	Path  string `json:"path"`
	Files int    `json:"files"`
	Bytes int64  `json:"bytes"`
}

func runBackup(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return err
	}
	defer service.Close()

	name, err := resolveInstance(service)
	if err != nil {
		return err
	}
	label := backupProfile
	if label == "" {
		inst, err := service.GetInstance(name)
		if err != nil {
			return err
		}
		label = inst.ActiveProfile
	}

	out := cmd.OutOrStdout()
	result, err := service.Backup(cmd.Context(), name, label, progressPrinter(out))
	if err != nil {
		return fmt.Errorf("backing up: %w", err)
	}

	if jsonOutput {
		return printJSON(out, backupJSON{Path: result.Path, Files: result.Files, Bytes: result.Bytes})
	}
	printOK(out, "Backed up %d files (%s) to %s", result.Files, humanize.Bytes(uint64(result.Bytes)), result.Path)
	return nil
}
