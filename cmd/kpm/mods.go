package main

import (
	"fmt"
	"text/tabwriter"

	"kpm/internal/core"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var importForce bool

var modsCmd = &cobra.Command{
	Use:   "mods",
	Short: "Inspect and fill the mod cache",
}

var modsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached mods",
	Long: `List the mods in the shared cache with their size and how many
profiles use them.`,
	Args: cobra.NoArgs,
	RunE: runModsList,
}

var modsImportCmd = &cobra.Command{
	Use:   "import <archive>",
	Short: "Add the mods of an archive to the cache",
	Long: `Extract a mod archive and copy its GameData folders into the cache.

Archives that ship a GameData folder (at the top or one level down) have
each folder inside it cached; other archives have each top-level entry
cached. Existing cache entries are kept unless --force is given.

Examples:
  kpm mods import ~/Downloads/MechJeb2-2.14.3.0.zip
  kpm mods import KerbalEngineer.7z --force`,
	Args: cobra.ExactArgs(1),
	RunE: runModsImport,
}

func init() {
	modsImportCmd.Flags().BoolVarP(&importForce, "force", "f", false, "replace mods already in the cache")

	modsCmd.AddCommand(modsListCmd)
	modsCmd.AddCommand(modsImportCmd)

	rootCmd.AddCommand(modsCmd)
}

type modJSON struct {
	Name     string `json:"name"`
	Bytes    int64  `json:"bytes"`
	Profiles int    `json:"profiles"`
}

// modUsage counts the profiles across all instances naming each mod.
// Unreadable profiles are ignored.
func modUsage(service *core.Service) map[string]int {
	usage := make(map[string]int)
	for _, inst := range service.ListInstances() {
		names, err := service.Profiles().List(inst)
		if err != nil {
			continue
		}
		for _, name := range names {
			profile, err := service.Profiles().Get(inst.Name, name)
			if err != nil {
				continue
			}
			for _, mod := range profile.Mods {
				usage[mod]++
			}
		}
	}
	return usage
}

func runModsList(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return err
	}
	defer service.Close()

	mods, err := service.Cache().List()
	if err != nil {
		return fmt.Errorf("listing cache: %w", err)
	}
	usage := modUsage(service)

	list := make([]modJSON, 0, len(mods))
	var total int64
	for _, name := range mods {
		size, err := service.Cache().Size(name)
		if err != nil {
			size = -1
		}
		total += max(size, 0)
		list = append(list, modJSON{Name: name, Bytes: size, Profiles: usage[name]})
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, list)
	}

	if len(list) == 0 {
		fmt.Fprintf(out, "The mod cache at %s is empty.\n", service.Cache().Dir())
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MOD\tSIZE\tPROFILES")
	fmt.Fprintln(w, "---\t----\t--------")
	for _, m := range list {
		size := "?"
		if m.Bytes >= 0 {
			size = humanize.Bytes(uint64(m.Bytes))
		}
		fmt.Fprintf(w, "%s\t%s\t%d\n", m.Name, size, m.Profiles)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d mods, %s in %s\n", len(list), humanize.Bytes(uint64(total)), service.Cache().Dir())
	return nil
}

func runModsImport(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return err
	}
	defer service.Close()

	out := cmd.OutOrStdout()
	result, err := service.ImportArchive(cmd.Context(), args[0], importForce, progressPrinter(out))
	if err != nil {
		return fmt.Errorf("importing archive: %w", err)
	}

	if jsonOutput {
		return printJSON(out, struct {
			Archive  string          `json:"archive"`
			Release  string          `json:"release"`
			Version  string          `json:"version,omitempty"`
			Added    []string        `json:"added"`
			Replaced []string        `json:"replaced"`
			Skipped  []string        `json:"skipped"`
			Failed   []itemErrorJSON `json:"failed"`
		}{result.Archive, result.Release, result.Version, nonNil(result.Added), nonNil(result.Replaced), nonNil(result.Skipped), itemErrors(result.Failed)})
	}

	release := result.Release
	if result.Version != "" {
		release += " " + result.Version
	}
	fmt.Fprintf(out, "%s:\n", release)

	for _, mod := range result.Added {
		printOK(out, "Added %s", mod)
	}
	for _, mod := range result.Replaced {
		printOK(out, "Replaced %s", mod)
	}
	for _, mod := range result.Skipped {
		printWarn(out, "%s is already cached (use --force to replace)", mod)
	}
	for _, f := range result.Failed {
		printFail(out, "%s: %v", f.Name, f.Err)
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d of the archive's mods could not be cached", len(result.Failed))
	}
	return nil
}
