package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"kpm/internal/domain"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"
)

var (
	applyBackup bool
	updateYes   bool
)

var profileApplyCmd = &cobra.Command{
	Use:   "apply <name>",
	Short: "Make GameData match a profile",
	Long: `Apply a profile to the instance.

Everything in GameData except the stock folders is removed, then each mod of
the profile is copied in from the cache. Mods missing from the cache are
reported and the command exits with status 3.

Examples:
  kpm profile apply career
  kpm profile apply career --backup`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileApply,
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update <name>",
	Short: "Save GameData as a profile",
	Long: `Rebuild a profile from what is in GameData now.

Entries not yet in the cache are copied there first. Overwriting an existing
profile asks for confirmation unless --yes is given.

Examples:
  kpm profile update career
  kpm profile update experimental --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileUpdate,
}

var profileDiffCmd = &cobra.Command{
	Use:   "diff <name>",
	Short: "Compare a profile with GameData",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileDiff,
}

func init() {
	profileApplyCmd.Flags().BoolVar(&applyBackup, "backup", false, "back up GameData before applying")
	profileUpdateCmd.Flags().BoolVarP(&updateYes, "yes", "y", false, "overwrite an existing profile without asking")
}

type itemErrorJSON struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

func itemErrors(errs []domain.ItemError) []itemErrorJSON {
	list := make([]itemErrorJSON, 0, len(errs))
	for _, e := range errs {
		list = append(list, itemErrorJSON{Name: e.Name, Error: e.Err.Error()})
	}
	return list
}

type applyJSON struct {
	Instance string          `json:"instance"`
	Profile  string          `json:"profile"`
	Applied  int             `json:"applied"`
	Total    int             `json:"total"`
	Missing  []string        `json:"missing"`
	Failed   []itemErrorJSON `json:"failed"`
	Warnings []string        `json:"warnings"`
	Backup   string          `json:"backup,omitempty"`
}

func runProfileApply(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return err
	}
	defer service.Close()

	name, err := resolveInstance(service)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	progress := progressPrinter(out)

	var backupPath string
	if applyBackup {
		inst, err := service.GetInstance(name)
		if err != nil {
			return err
		}
		backup, err := service.Backup(ctx, name, inst.ActiveProfile, progress)
		if err != nil {
			return fmt.Errorf("backing up before apply: %w", err)
		}
		backupPath = backup.Path
		if !jsonOutput {
			printOK(out, "Backed up GameData to %s", backup.Path)
		}
	}

	result, err := service.Apply(ctx, name, args[0], progress)
	if err != nil {
		return fmt.Errorf("applying profile: %w", err)
	}

	if jsonOutput {
		if err := printJSON(out, applyJSON{
			Instance: result.Instance,
			Profile:  result.Profile,
			Applied:  result.Applied,
			Total:    result.Total,
			Missing:  nonNil(result.Missing),
			Failed:   itemErrors(result.Failed),
			Warnings: nonNil(result.Warnings),
			Backup:   backupPath,
		}); err != nil {
			return err
		}
	} else {
		printApplyResult(out, result)
	}

	if !result.Success() {
		return ErrPartial
	}
	return nil
}

func printApplyResult(out io.Writer, result *domain.ApplyResult) {
	for _, w := range result.Warnings {
		printWarn(out, "%s", w)
	}
	for _, mod := range result.Missing {
		printFail(out, "%s is not in the mod cache", mod)
	}
	for _, f := range result.Failed {
		printFail(out, "%s: %v", f.Name, f.Err)
	}

	if result.Success() {
		printOK(out, "Applied %s to %s (%d mods)", result.Profile, result.Instance, result.Applied)
		return
	}
	printWarn(out, "Applied %s to %s partially: %d of %d mods", result.Profile, result.Instance, result.Applied, result.Total)
}

type updateJSON struct {
	Instance string          `json:"instance"`
	Profile  string          `json:"profile"`
	Mods     []string        `json:"mods"`
	Added    []string        `json:"added"`
	Failed   []itemErrorJSON `json:"failed"`
	Warnings []string        `json:"warnings"`
}

func runProfileUpdate(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return err
	}
	defer service.Close()

	name, err := resolveInstance(service)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	overwrite := func(profile string) bool {
		if updateYes {
			return true
		}
		return confirm(cmd.InOrStdin(), out, fmt.Sprintf("Profile %s exists. Overwrite it with the current GameData?", profile))
	}

	result, err := service.Update(cmd.Context(), name, args[0], overwrite, progressPrinter(out))
	if errors.Is(err, domain.ErrUpdateCancelled) {
		fmt.Fprintln(out, "Aborted.")
		return ErrCancelled
	}
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}

	if jsonOutput {
		return printJSON(out, updateJSON{
			Instance: result.Instance,
			Profile:  result.Profile,
			Mods:     nonNil(result.Mods),
			Added:    nonNil(result.Added),
			Failed:   itemErrors(result.Failed),
			Warnings: nonNil(result.Warnings),
		})
	}

	for _, mod := range result.Added {
		printOK(out, "Cached %s", mod)
	}
	for _, f := range result.Failed {
		printWarn(out, "%s could not be cached: %v", f.Name, f.Err)
	}
	for _, w := range result.Warnings {
		printWarn(out, "%s", w)
	}
	printOK(out, "Saved %s with %d mods", result.Profile, len(result.Mods))
	return nil
}

type diffJSON struct {
	Profile       string   `json:"profile"`
	InSync        bool     `json:"in_sync"`
	OnlyInProfile []string `json:"only_in_profile"`
	OnlyInLive    []string `json:"only_in_gamedata"`
}

func runProfileDiff(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return err
	}
	defer service.Close()

	name, err := resolveInstance(service)
	if err != nil {
		return err
	}
	diff, err := service.DiffProfile(name, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, diffJSON{
			Profile:       args[0],
			InSync:        diff.InSync(),
			OnlyInProfile: nonNil(diff.OnlyInProfile),
			OnlyInLive:    nonNil(diff.OnlyInLive),
		})
	}

	if diff.InSync() {
		printOK(out, "%s matches %s", service.Config().DataFolder, args[0])
		return nil
	}

	text, err := unifiedDiff(diff.Profile, diff.Live, "profile/"+args[0], service.Config().DataFolder)
	if err != nil {
		return err
	}
	fmt.Fprint(out, text)
	return nil
}

// unifiedDiff renders two name lists as a unified diff
func unifiedDiff(a, b []string, fromFile, toFile string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        nameLines(a),
		B:        nameLines(b),
		FromFile: fromFile,
		ToFile:   toFile,
		Context:  3,
	})
}

func nameLines(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	return difflib.SplitLines(strings.Join(names, "\n"))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
