package main

import (
	"kpm/internal/tui"

	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive interface",
	Long: `Start a full-screen interface to pick an instance and apply, update,
back up or edit its profiles, and to clear orphaned mods.

Keybindings follow the 'keybindings' setting (vim or standard).`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return err
	}
	defer service.Close()

	return tui.Run(service)
}
