package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Structure(t *testing.T) {
	var subCmds []string
	for _, cmd := range rootCmd.Commands() {
		subCmds = append(subCmds, cmd.Name())
	}

	for _, name := range []string{"instance", "profile", "backup", "mods", "cleanup", "history", "tui"} {
		assert.Contains(t, subCmds, name)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"error", fmt.Errorf("boom"), 1},
		{"cancelled", ErrCancelled, 2},
		{"wrapped cancel", fmt.Errorf("update: %w", ErrCancelled), 2},
		{"partial apply", ErrPartial, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestGetServiceConfig_Flags(t *testing.T) {
	resetFlags()
	configDir = "/tmp/kpm-config"
	dataDir = "/tmp/kpm-data"
	noHooks = true
	t.Cleanup(resetFlags)

	cfg := getServiceConfig()
	assert.Equal(t, "/tmp/kpm-config", cfg.ConfigDir)
	assert.Equal(t, "/tmp/kpm-data", cfg.DataDir)
	assert.True(t, cfg.NoHooks)
}

func TestGetServiceConfig_EnvDefaults(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	t.Setenv("KPM_CONFIG_DIR", filepath.Join(dir, "c"))
	t.Setenv("KPM_DATA_DIR", filepath.Join(dir, "d"))

	cfg := getServiceConfig()
	assert.Equal(t, filepath.Join(dir, "c"), cfg.ConfigDir)
	assert.Equal(t, filepath.Join(dir, "d"), cfg.DataDir)
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" y \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			out := new(bytes.Buffer)
			assert.Equal(t, tt.want, confirm(strings.NewReader(tt.input), out, "Proceed?"))
			assert.Contains(t, out.String(), "Proceed? [y/N]")
		})
	}
}

func TestResolveInstance(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "", "profile", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no instances registered")

	env.mustRun(t, "instance", "add", "main", env.install)
	env.write(t, "ksp2/GameData/Squad/x.cfg", "stock")
	env.mustRun(t, "instance", "add", "second", filepath.Join(env.root, "ksp2"))

	_, err = env.run(t, "", "profile", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--instance")

	out := env.mustRun(t, "profile", "list", "-i", "second")
	assert.Contains(t, out, "No profiles for second")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdef...", truncate("abcdefghijkl", 9))
}
