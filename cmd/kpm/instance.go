package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"kpm/internal/source/steam"

	"github.com/spf13/cobra"
)

var (
	detectAdd string
)

var instanceCmd = &cobra.Command{
	Use:   "instance",
	Short: "Manage KSP instances",
	Long: `Manage registered KSP installations.

An instance is a name for one KSP installation directory. Profiles belong to
an instance; mods in the cache are shared by all instances.`,
}

var instanceAddCmd = &cobra.Command{
	Use:   "add <name> <path>",
	Short: "Register a KSP installation",
	Long: `Register a KSP installation under a name.

<path> is either the installation directory or the game executable inside it.
The directory must contain GameData (or the configured data_folder).

Examples:
  kpm instance add main ~/.steam/steam/steamapps/common/Kerbal\ Space\ Program
  kpm instance add test /games/ksp-test/KSP.x86_64`,
	Args: cobra.ExactArgs(2),
	RunE: runInstanceAdd,
}

var instanceRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Forget a KSP installation",
	Long: `Forget a registered installation and delete its profiles.

The installation itself is never touched.`,
	Args: cobra.ExactArgs(1),
	RunE: runInstanceRemove,
}

var instanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered instances",
	RunE:  runInstanceList,
}

var instanceDetectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Find KSP in Steam libraries",
	Long: `Search Steam libraries for KSP installations.

Examples:
  kpm instance detect
  kpm instance detect --add main`,
	RunE: runInstanceDetect,
}

var instanceValidateCmd = &cobra.Command{
	Use:   "validate <executable>",
	Short: "Check a KSP executable and its installation",
	Args:  cobra.ExactArgs(1),
	RunE:  runInstanceValidate,
}

func init() {
	instanceDetectCmd.Flags().StringVar(&detectAdd, "add", "", "register the first install found under this name")

	instanceCmd.AddCommand(instanceAddCmd)
	instanceCmd.AddCommand(instanceRemoveCmd)
	instanceCmd.AddCommand(instanceListCmd)
	instanceCmd.AddCommand(instanceDetectCmd)
	instanceCmd.AddCommand(instanceValidateCmd)

	rootCmd.AddCommand(instanceCmd)
}

func runInstanceAdd(cmd *cobra.Command, args []string) error {
	name, path := args[0], args[1]

	service, err := initService()
	if err != nil {
		return err
	}
	defer service.Close()

	out := cmd.OutOrStdout()
	path, err = filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	// A launcher path is resolved to its installation directory
	if info, statErr := os.Stat(path); statErr == nil && (!info.IsDir() || strings.EqualFold(filepath.Ext(path), ".app")) {
		v, err := steam.ValidateExecutable(path, service.Config().DataFolder)
		if err != nil {
			return err
		}
		for _, w := range v.Warnings {
			printWarn(out, "%s", w)
		}
		path = v.InstallDir
	}

	inst, err := service.AddInstance(name, path)
	if err != nil {
		return fmt.Errorf("adding instance: %w", err)
	}

	printOK(out, "Registered %s at %s", inst.Name, inst.Path)
	return nil
}

func runInstanceRemove(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return err
	}
	defer service.Close()

	if err := service.RemoveInstance(args[0]); err != nil {
		return fmt.Errorf("removing instance: %w", err)
	}

	printOK(cmd.OutOrStdout(), "Removed instance %s (installation left in place)", args[0])
	return nil
}

type instanceJSON struct {
	Name          string `json:"name"`
	Path          string `json:"path"`
	ActiveProfile string `json:"active_profile,omitempty"`
}

func runInstanceList(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return err
	}
	defer service.Close()

	out := cmd.OutOrStdout()
	instances := service.ListInstances()

	if jsonOutput {
		list := make([]instanceJSON, 0, len(instances))
		for _, inst := range instances {
			list = append(list, instanceJSON{Name: inst.Name, Path: inst.Path, ActiveProfile: inst.ActiveProfile})
		}
		return printJSON(out, list)
	}

	if len(instances) == 0 {
		fmt.Fprintln(out, "No instances registered.")
		fmt.Fprintln(out, "\nUse 'kpm instance add' or 'kpm instance detect' to add one.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tACTIVE PROFILE\tPATH")
	fmt.Fprintln(w, "----\t--------------\t----")
	for _, inst := range instances {
		active := inst.ActiveProfile
		if active == "" {
			active = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", inst.Name, active, inst.Path)
	}
	return w.Flush()
}

func runInstanceDetect(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return err
	}
	defer service.Close()

	out := cmd.OutOrStdout()
	installs, err := steam.DetectInstalls(service.Config().DataFolder)
	if err != nil {
		return fmt.Errorf("detecting installs: %w", err)
	}

	if jsonOutput && detectAdd == "" {
		return printJSON(out, installs)
	}

	if len(installs) == 0 {
		fmt.Fprintln(out, "No KSP installation found in Steam libraries.")
		return nil
	}

	for _, in := range installs {
		fmt.Fprintf(out, "%s\n  %s\n", in.Name, in.Path)
	}

	if detectAdd == "" {
		fmt.Fprintln(out, "\nRegister one with 'kpm instance add <name> <path>' or 'kpm instance detect --add <name>'.")
		return nil
	}

	inst, err := service.AddInstance(detectAdd, installs[0].Path)
	if err != nil {
		return fmt.Errorf("adding instance: %w", err)
	}
	printOK(out, "Registered %s at %s", inst.Name, inst.Path)
	return nil
}

func runInstanceValidate(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return err
	}
	defer service.Close()

	out := cmd.OutOrStdout()
	v, err := steam.ValidateExecutable(args[0], service.Config().DataFolder)
	if err != nil {
		return err
	}

	for _, w := range v.Warnings {
		printWarn(out, "%s", w)
	}
	printOK(out, "Installation directory: %s", v.InstallDir)
	return nil
}
