package main

import (
	"fmt"

	"kpm/internal/domain"

	"github.com/spf13/cobra"
)

var (
	cleanupYes    bool
	cleanupDryRun bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove cached mods no profile uses",
	Long: `Find mods in the cache that no profile of any instance names and
delete them after confirmation.

Examples:
  kpm cleanup --dry-run
  kpm cleanup --yes`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().BoolVarP(&cleanupYes, "yes", "y", false, "skip confirmation prompt")
	cleanupCmd.Flags().BoolVarP(&cleanupDryRun, "dry-run", "n", false, "only list orphaned mods")

	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return err
	}
	defer service.Close()

	out := cmd.OutOrStdout()
	progress := progressPrinter(out)
	scan, err := service.FindOrphans(progress)
	if err != nil {
		return fmt.Errorf("finding orphans: %w", err)
	}
	orphans := scan.Orphans

	if jsonOutput && cleanupDryRun {
		return printJSON(out, nonNil(orphans))
	}

	for _, name := range scan.Skipped {
		printWarn(out, "Skipped unreadable profile %s", name)
	}
	if len(orphans) == 0 {
		printOK(out, "No orphaned mods in the cache.")
		return nil
	}

	fmt.Fprintf(out, "%d cached mods are not used by any profile:\n", len(orphans))
	for _, name := range orphans {
		fmt.Fprintf(out, "  %s\n", name)
	}
	if cleanupDryRun {
		return nil
	}

	if !scan.Complete() {
		return fmt.Errorf("refusing to delete: %d profiles could not be read and may use these mods; fix or delete them first", len(scan.Skipped))
	}

	if !cleanupYes && !confirm(cmd.InOrStdin(), out, "\nDelete them from the cache?") {
		fmt.Fprintln(out, "Aborted.")
		return ErrCancelled
	}

	result := service.Cleanup(cmd.Context(), orphans, progress)
	for _, f := range result.Failed {
		printFail(out, "%s: %v", f.Name, f.Err)
	}
	printOK(out, "Removed %d of %d orphaned mods", len(result.Removed), len(orphans))
	if len(result.Failed) > 0 {
		return fmt.Errorf("could not remove %v", domain.ItemNames(result.Failed))
	}
	return nil
}
