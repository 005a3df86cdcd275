package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"kpm/internal/core"
	"kpm/internal/domain"
	"kpm/internal/logging"
	"kpm/internal/storage/config"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// ErrCancelled is returned when the user cancels an operation (e.g. prompt declined).
// When returned from a command, Execute exits with code 2.
var ErrCancelled = errors.New("cancelled")

// ErrPartial is returned when apply finished but left declared mods out.
// Execute exits with code 3.
var ErrPartial = errors.New("profile applied partially")

var (
	version = "0.4.0"

	// Global flags
	configDir    string
	dataDir      string
	instanceName string
	verbosity    int
	noHooks      bool
	jsonOutput   bool
	noColor      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kpm",
	Short: "KSP profile manager - switch Kerbal Space Program mod sets",
	Long: `kpm manages named mod profiles for Kerbal Space Program installations.

A profile is a list of mod folder names. Applying a profile clears the
instance's GameData (stock folders excepted) and copies the profile's mods
in from a shared mod cache. Updating a profile records what is in GameData
right now and adds anything new to the cache.

Use subcommands for operations. Run 'kpm --help' for available commands.`,
	Version:       version,
	SilenceUsage:  true, // Runtime errors should not print usage
	SilenceErrors: true, // We handle error output in Execute()
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		color.NoColor = !colorEnabled()
		logging.Setup(verbosity, !colorEnabled())
	},
}

func init() {
	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default: $XDG_CONFIG_HOME/kpm)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default: $XDG_DATA_HOME/kpm)")
	rootCmd.PersistentFlags().StringVarP(&instanceName, "instance", "i", "", "instance to operate on (default: the only registered instance)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().BoolVar(&noHooks, "no-hooks", false, "disable all hooks")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format (list, show, diff, history, apply, update)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// colorEnabled returns true if colored output should be used (respects --no-color and NO_COLOR env).
// NO_COLOR: if set (any value), color is disabled per https://no-color.org
func colorEnabled() bool {
	if noColor {
		return false
	}
	return os.Getenv("NO_COLOR") == ""
}

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	warnMark = color.New(color.FgYellow).SprintFunc()
	failMark = color.New(color.FgRed).SprintFunc()
	faint    = color.New(color.Faint).SprintFunc()
)

func printOK(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", okMark("✓"), fmt.Sprintf(format, args...))
}

func printWarn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", warnMark("⚠"), fmt.Sprintf(format, args...))
}

func printFail(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", failMark("✗"), fmt.Sprintf(format, args...))
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitCode maps a command error to the process exit status
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrCancelled):
		return 2
	case errors.Is(err, ErrPartial):
		return 3
	default:
		return 1
	}
}

// Execute runs the root command. Exit codes: 0 = success, 1 = error, 2 = user cancelled,
// 3 = profile applied partially.
// When --json is set and an error occurs, prints {"error":"..."} to stdout before exiting.
// Cancellation and partial apply print no error; the command has already reported.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	code := exitCode(err)
	if code == 1 {
		if jsonOutput {
			fmt.Printf(`{"error":%q}`+"\n", err.Error())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	os.Exit(code)
}

// initService creates and initializes the core service
func initService() (*core.Service, error) {
	svc, err := core.NewService(getServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initializing service: %w", err)
	}

	for _, healed := range svc.Healed() {
		printWarn(os.Stderr, "cleared missing active profile of %s", healed)
	}
	return svc, nil
}

// getServiceConfig returns the service configuration with defaults
func getServiceConfig() core.ServiceConfig {
	cfg := core.ServiceConfig{
		ConfigDir: config.ExpandPath(configDir),
		DataDir:   config.ExpandPath(dataDir),
		NoHooks:   noHooks,
	}
	if cfg.ConfigDir == "" {
		cfg.ConfigDir = config.DefaultConfigDir()
	}
	if cfg.DataDir == "" {
		cfg.DataDir = config.DefaultDataDir()
	}
	return cfg
}

// resolveInstance returns the --instance flag, or the only registered
// instance when the flag is unset
func resolveInstance(svc *core.Service) (string, error) {
	if instanceName != "" {
		return instanceName, nil
	}

	instances := svc.ListInstances()
	switch len(instances) {
	case 0:
		return "", fmt.Errorf("no instances registered; add one with 'kpm instance add <name> <path>'")
	case 1:
		return instances[0].Name, nil
	}
	return "", fmt.Errorf("several instances registered; choose one with --instance or -i")
}

// confirm asks a yes/no question on out and reads the answer from in.
// Anything but y/yes declines.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// progressPrinter reports operation progress on w at -v and above
func progressPrinter(w io.Writer) domain.ProgressFunc {
	if verbosity < 1 || jsonOutput {
		return nil
	}
	return func(msg string) {
		fmt.Fprintln(w, faint("  "+msg))
	}
}
