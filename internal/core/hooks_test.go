package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"kpm/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func TestHookRunner_Success(t *testing.T) {
	scriptPath := writeScript(t, t.TempDir(), "success.sh", `echo "stdout message"
echo "stderr message" >&2
exit 0
`)

	runner := NewHookRunner(60 * time.Second)
	hc := HookContext{
		Instance:    "main",
		InstallPath: "/games/ksp",
		DataDir:     "/games/ksp/GameData",
		Profile:     "career",
		HookName:    HookApplyBefore,
	}

	result, err := runner.Run(context.Background(), scriptPath, hc)
	require.NoError(t, err)
	assert.Contains(t, result.Stdout, "stdout message")
	assert.Contains(t, result.Stderr, "stderr message")
	assert.Equal(t, 0, result.ExitCode)
}

func TestHookRunner_NonZeroExit(t *testing.T) {
	scriptPath := writeScript(t, t.TempDir(), "fail.sh", `echo "error occurred" >&2
exit 42
`)

	runner := NewHookRunner(60 * time.Second)
	result, err := runner.Run(context.Background(), scriptPath, HookContext{HookName: "test.hook"})
	require.Error(t, err)
	assert.Equal(t, 42, result.ExitCode)
	assert.Contains(t, result.Stderr, "error occurred")
	assert.Contains(t, err.Error(), "error occurred")
}

func TestHookRunner_Timeout(t *testing.T) {
	scriptPath := writeScript(t, t.TempDir(), "slow.sh", "sleep 10\n")

	runner := NewHookRunner(100 * time.Millisecond)
	_, err := runner.Run(context.Background(), scriptPath, HookContext{HookName: "test.hook"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestHookRunner_NotFound(t *testing.T) {
	runner := NewHookRunner(60 * time.Second)
	_, err := runner.Run(context.Background(), "/nonexistent/script.sh", HookContext{HookName: "test.hook"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestHookRunner_NotExecutable(t *testing.T) {
	scriptPath := filepath.Join(t.TempDir(), "noexec.sh")
	require.NoError(t, os.WriteFile(scriptPath, []byte("#!/bin/sh\necho hi"), 0644))

	runner := NewHookRunner(60 * time.Second)
	_, err := runner.Run(context.Background(), scriptPath, HookContext{HookName: "test.hook"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not executable")
}

func TestHookRunner_EnvVars(t *testing.T) {
	scriptPath := writeScript(t, t.TempDir(), "env.sh", `echo "INSTANCE=$KPM_INSTANCE"
echo "INSTALL=$KPM_INSTALL_PATH"
echo "DATA=$KPM_DATA_DIR"
echo "PROFILE=$KPM_PROFILE"
echo "HOOK=$KPM_HOOK"
`)

	runner := NewHookRunner(60 * time.Second)
	hc := HookContext{
		Instance:    "main",
		InstallPath: "/games/ksp",
		DataDir:     "/games/ksp/GameData",
		Profile:     "career",
		HookName:    HookUpdateAfter,
	}

	result, err := runner.Run(context.Background(), scriptPath, hc)
	require.NoError(t, err)
	assert.Contains(t, result.Stdout, "INSTANCE=main")
	assert.Contains(t, result.Stdout, "INSTALL=/games/ksp")
	assert.Contains(t, result.Stdout, "DATA=/games/ksp/GameData")
	assert.Contains(t, result.Stdout, "PROFILE=career")
	assert.Contains(t, result.Stdout, "HOOK=update.after")
}

func TestHookFor(t *testing.T) {
	hooks := domain.Hooks{
		Apply:  domain.HookConfig{Before: "/a/before", After: "/a/after"},
		Update: domain.HookConfig{Before: "/u/before"},
	}

	assert.Equal(t, "/a/before", hookFor(hooks, HookApplyBefore))
	assert.Equal(t, "/a/after", hookFor(hooks, HookApplyAfter))
	assert.Equal(t, "/u/before", hookFor(hooks, HookUpdateBefore))
	assert.Empty(t, hookFor(hooks, HookUpdateAfter))
	assert.Empty(t, hookFor(hooks, "install.before"))
}
