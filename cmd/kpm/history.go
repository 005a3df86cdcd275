package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"kpm/internal/storage/db"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent apply, update, backup, cleanup and import runs",
	Long: `Show the journal of past operations, newest first. Without --instance
every instance is shown.

Examples:
  kpm history
  kpm history -i main --limit 5`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum entries to show (0 for all)")

	rootCmd.AddCommand(historyCmd)
}

type operationJSON struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Instance   string    `json:"instance,omitempty"`
	Profile    string    `json:"profile,omitempty"`
	Applied    int       `json:"applied"`
	Total      int       `json:"total"`
	Missing    []string  `json:"missing"`
	Failed     []string  `json:"failed"`
	Archive    string    `json:"archive,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return err
	}
	defer service.Close()

	ops, err := service.History(instanceName, historyLimit)
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		list := make([]operationJSON, 0, len(ops))
		for _, op := range ops {
			list = append(list, operationJSON{
				ID:         op.ID,
				Kind:       string(op.Kind),
				Instance:   op.Instance,
				Profile:    op.Profile,
				Applied:    op.Applied,
				Total:      op.Total,
				Missing:    nonNil(op.Missing),
				Failed:     nonNil(op.Failed),
				Archive:    op.Archive,
				Error:      op.Error,
				StartedAt:  op.StartedAt,
				FinishedAt: op.FinishedAt,
			})
		}
		return printJSON(out, list)
	}

	if len(ops) == 0 {
		fmt.Fprintln(out, "No operations recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tKIND\tINSTANCE\tPROFILE\tRESULT\tTOOK")
	fmt.Fprintln(w, "----\t----\t--------\t-------\t------\t----")
	for _, op := range ops {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			humanize.Time(op.StartedAt),
			op.Kind,
			dash(op.Instance),
			dash(op.Profile),
			operationSummary(op),
			op.Duration().Round(time.Millisecond),
		)
	}
	return w.Flush()
}

// operationSummary condenses an entry's outcome into one column
func operationSummary(op db.Operation) string {
	if op.Error != "" {
		return failMark("✗") + " " + truncate(op.Error, 40)
	}

	var parts []string
	switch op.Kind {
	case db.KindApply:
		parts = append(parts, fmt.Sprintf("%d/%d mods", op.Applied, op.Total))
	case db.KindBackup:
		parts = append(parts, fmt.Sprintf("%d files", op.Applied))
	default:
		parts = append(parts, fmt.Sprintf("%d mods", op.Applied))
	}
	if len(op.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("%d missing", len(op.Missing)))
	}
	if len(op.Failed) > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", len(op.Failed)))
	}

	mark := okMark("✓")
	if !op.Succeeded() {
		mark = warnMark("⚠")
	}
	return mark + " " + strings.Join(parts, ", ")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate shortens s to limit runes, marking the cut with "..."
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}
