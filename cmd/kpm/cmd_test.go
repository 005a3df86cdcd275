package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// cliEnv is a throwaway KSP installation plus kpm config and data dirs
type cliEnv struct {
	root      string
	configDir string
	dataDir   string
	install   string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	root := t.TempDir()
	env := &cliEnv{
		root:      root,
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
		install:   filepath.Join(root, "ksp"),
	}
	env.write(t, "ksp/GameData/Squad/Parts/part.cfg", "stock")
	require.NoError(t, os.MkdirAll(env.cacheDir(), 0755))
	return env
}

func (e *cliEnv) gameData() string {
	return filepath.Join(e.install, "GameData")
}

func (e *cliEnv) cacheDir() string {
	return filepath.Join(e.dataDir, "mods")
}

// write creates a file below the environment root
func (e *cliEnv) write(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(e.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// cacheMod places a mod folder in the cache
func (e *cliEnv) cacheMod(t *testing.T, name string) {
	t.Helper()
	e.write(t, "data/mods/"+name+"/"+name+".dll", name)
}

// run executes kpm with args, feeding stdin to prompts
func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--config", e.configDir, "--data", e.dataDir}, args...))

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// mustRun is run for commands expected to succeed
func (e *cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, "", args...)
	require.NoError(t, err, out)
	return out
}

// resetFlags restores every flag variable between executions of the shared
// command tree
func resetFlags() {
	configDir, dataDir, instanceName = "", "", ""
	verbosity = 0
	noHooks, jsonOutput, noColor = false, false, false

	detectAdd = ""
	createMods, createFromCache, createForce = nil, false, false
	applyBackup, updateYes = false, false
	backupProfile = ""
	importForce = false
	cleanupYes, cleanupDryRun = false, false
	historyLimit = 20

	var walk func(cmd *cobra.Command)
	walk = func(cmd *cobra.Command) {
		unset := func(f *pflag.Flag) { f.Changed = false }
		cmd.Flags().VisitAll(unset)
		cmd.PersistentFlags().VisitAll(unset)
		for _, sub := range cmd.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
}
