package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"kpm/internal/domain"

	"github.com/spf13/cobra"
)

var (
	createMods      []string
	createFromCache bool
	createForce     bool
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage mod profiles",
	Long: `Manage mod profiles for a KSP instance.

A profile is a named list of mods from the cache. Applying it makes the
instance's GameData hold exactly those mods next to the stock folders.`,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the instance's profiles",
	Long: `List the profiles of an instance, the active profile first.

Examples:
  kpm profile list
  kpm profile list -i test`,
	RunE: runProfileList,
}

var profileShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show the mods of a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileShow,
}

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new profile",
	Long: `Create a profile from mods in the cache.

Without flags the profile is empty. Every name given with --mods must exist
in the cache.

Examples:
  kpm profile create sandbox
  kpm profile create career --mods MechJeb2,KerbalEngineer
  kpm profile create everything --from-cache`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileCreate,
}

var profileDeleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Aliases: []string{"rm"},
	Short:   "Delete a profile",
	Long: `Delete a profile file.

Mods stay in the cache and in GameData; use 'kpm cleanup' to remove mods no
profile uses any more.`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileDelete,
}

func init() {
	profileCreateCmd.Flags().StringSliceVar(&createMods, "mods", nil, "comma-separated cached mod names")
	profileCreateCmd.Flags().BoolVar(&createFromCache, "from-cache", false, "include every cached mod")
	profileCreateCmd.Flags().BoolVarP(&createForce, "force", "f", false, "overwrite an existing profile")
	profileCreateCmd.MarkFlagsMutuallyExclusive("mods", "from-cache")

	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileCreateCmd)
	profileCmd.AddCommand(profileDeleteCmd)
	profileCmd.AddCommand(profileApplyCmd)
	profileCmd.AddCommand(profileUpdateCmd)
	profileCmd.AddCommand(profileDiffCmd)

	rootCmd.AddCommand(profileCmd)
}

type profileJSON struct {
	Name   string   `json:"name"`
	Active bool     `json:"active"`
	Mods   []string `json:"mods"`
}

func runProfileList(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return err
	}
	defer service.Close()

	name, err := resolveInstance(service)
	if err != nil {
		return err
	}
	inst, err := service.GetInstance(name)
	if err != nil {
		return err
	}
	names, err := service.ListProfiles(name)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var list []profileJSON
	for _, n := range names {
		p := profileJSON{Name: n, Active: n == inst.ActiveProfile}
		if profile, err := service.Profiles().Get(name, n); err == nil {
			p.Mods = profile.Mods
		}
		list = append(list, p)
	}

	if jsonOutput {
		if list == nil {
			list = []profileJSON{}
		}
		return printJSON(out, list)
	}

	if len(list) == 0 {
		fmt.Fprintf(out, "No profiles for %s.\n", name)
		fmt.Fprintln(out, "\nUse 'kpm profile update <name>' to save the current GameData as a profile.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMODS\tACTIVE")
	fmt.Fprintln(w, "----\t----\t------")
	for _, p := range list {
		mods := "?"
		if p.Mods != nil {
			mods = fmt.Sprint(len(p.Mods))
		}
		active := ""
		if p.Active {
			active = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, mods, active)
	}
	return w.Flush()
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return err
	}
	defer service.Close()

	name, err := resolveInstance(service)
	if err != nil {
		return err
	}
	inst, err := service.GetInstance(name)
	if err != nil {
		return err
	}
	profile, err := service.Profiles().Get(name, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, profileJSON{
			Name:   profile.Name,
			Active: profile.Name == inst.ActiveProfile,
			Mods:   profile.Mods,
		})
	}

	fmt.Fprintf(out, "%s (%s, %d mods)\n", profile.Name, name, len(profile.Mods))
	for _, mod := range profile.Mods {
		marker := " "
		if !service.Cache().Exists(mod) {
			marker = warnMark("!")
		}
		fmt.Fprintf(out, " %s %s\n", marker, mod)
	}
	return nil
}

func runProfileCreate(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return err
	}
	defer service.Close()

	name, err := resolveInstance(service)
	if err != nil {
		return err
	}
	if _, err := service.GetInstance(name); err != nil {
		return err
	}

	mods := createMods
	if createFromCache {
		mods, err = service.Profiles().AvailableMods()
		if err != nil {
			return fmt.Errorf("listing cache: %w", err)
		}
	}

	profile, err := service.Profiles().CreateFromCache(name, args[0], mods, createForce)
	if err != nil {
		if errors.Is(err, domain.ErrProfileExists) {
			return fmt.Errorf("%w (use --force to overwrite)", err)
		}
		return fmt.Errorf("creating profile: %w", err)
	}

	printOK(cmd.OutOrStdout(), "Created profile %s with %d mods", profile.Name, len(profile.Mods))
	return nil
}

func runProfileDelete(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return err
	}
	defer service.Close()

	name, err := resolveInstance(service)
	if err != nil {
		return err
	}
	if err := service.DeleteProfile(name, args[0]); err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}

	printOK(cmd.OutOrStdout(), "Deleted profile %s", args[0])
	return nil
}
