package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"kpm/internal/domain"
)

// Hook names exposed to scripts through KPM_HOOK
const (
	HookApplyBefore  = "apply.before"
	HookApplyAfter   = "apply.after"
	HookUpdateBefore = "update.before"
	HookUpdateAfter  = "update.after"
)

// HookContext provides environment information for hook scripts
type HookContext struct {
	Instance    string
	InstallPath string
	DataDir     string
	Profile     string
	HookName    string // e.g. "apply.before"
}

// Env returns the KPM_* variables describing the context
func (hc HookContext) Env() []string {
	return []string{
		"KPM_INSTANCE=" + hc.Instance,
		"KPM_INSTALL_PATH=" + hc.InstallPath,
		"KPM_DATA_DIR=" + hc.DataDir,
		"KPM_PROFILE=" + hc.Profile,
		"KPM_HOOK=" + hc.HookName,
	}
}

// HookResult contains the output from running a hook
type HookResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// HookRunner executes hook scripts with timeout and environment
type HookRunner struct {
	timeout time.Duration
}

// NewHookRunner creates a new hook runner with the given timeout
func NewHookRunner(timeout time.Duration) *HookRunner {
	return &HookRunner{timeout: timeout}
}

// Run executes a hook script and returns its output
func (r *HookRunner) Run(ctx context.Context, scriptPath string, hc HookContext) (*HookResult, error) {
	result := &HookResult{}

	info, err := os.Stat(scriptPath)
	if os.IsNotExist(err) {
		return result, fmt.Errorf("hook script not found: %s", scriptPath)
	}
	if err != nil {
		return result, fmt.Errorf("checking hook script: %w", err)
	}

	if info.IsDir() || info.Mode()&0111 == 0 {
		return result, fmt.Errorf("hook script not executable: %s", scriptPath)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, scriptPath)
	cmd.WaitDelay = 100 * time.Millisecond // Allow graceful shutdown after context cancel
	cmd.Env = append(os.Environ(), hc.Env()...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return result, fmt.Errorf("hook timed out after %v: %s", r.timeout, scriptPath)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			msg := fmt.Sprintf("hook failed with exit code %d: %s", result.ExitCode, scriptPath)
			if stderrText := strings.TrimSpace(result.Stderr); stderrText != "" {
				msg += ": " + stderrText
			}
			return result, errors.New(msg)
		}
		return result, fmt.Errorf("running hook: %w", err)
	}

	return result, nil
}

// hookFor returns the script configured for a hook name, or ""
func hookFor(hooks domain.Hooks, name string) string {
	switch name {
	case HookApplyBefore:
		return hooks.Apply.Before
	case HookApplyAfter:
		return hooks.Apply.After
	case HookUpdateBefore:
		return hooks.Update.Before
	case HookUpdateAfter:
		return hooks.Update.After
	}
	return ""
}
