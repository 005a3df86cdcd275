package core_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"kpm/internal/core"
	"kpm/internal/domain"
	"kpm/internal/storage/config"
	"kpm/internal/storage/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewService_HealsDanglingActiveProfile(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Profiles().Save("main", "kept", nil)
	require.NoError(t, err)
	_, err = env.svc.AddInstance("second", env.installDir)
	require.NoError(t, err)

	require.NoError(t, config.SaveInstances(env.configDir, map[string]*domain.Instance{
		"main":   {Name: "main", Path: env.installDir, ActiveProfile: "ghost"},
		"second": {Name: "second", Path: env.installDir, ActiveProfile: ""},
		"third":  {Name: "third", Path: env.installDir, ActiveProfile: "kept"},
	}))
	require.NoError(t, config.SaveProfile(env.configDir, &domain.Profile{Name: "kept", Instance: "third"}))

	svc := env.open(t)
	assert.Equal(t, []string{"main"}, svc.Healed())

	inst, err := svc.GetInstance("main")
	require.NoError(t, err)
	assert.False(t, inst.HasActiveProfile())
	third, err := svc.GetInstance("third")
	require.NoError(t, err)
	assert.Equal(t, "kept", third.ActiveProfile)

	stored, err := config.LoadInstances(env.configDir)
	require.NoError(t, err)
	assert.Empty(t, stored["main"].ActiveProfile)
}

func TestNewService_CorruptStore(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(env.configDir, "instances.yaml"), []byte("version: 9\ninstances: {}\n"), 0644))

	_, err := core.NewService(core.ServiceConfig{ConfigDir: env.configDir, DataDir: env.dataDir})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStoreCorrupt))
}

func TestAddInstance_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.AddInstance("main", env.installDir)
	assert.True(t, errors.Is(err, domain.ErrInstanceExists))

	_, err = env.svc.AddInstance("", env.installDir)
	assert.True(t, errors.Is(err, domain.ErrInvalidName))

	_, err = env.svc.AddInstance("relative", "ksp")
	assert.Error(t, err)

	_, err = env.svc.AddInstance("empty", t.TempDir())
	assert.True(t, errors.Is(err, domain.ErrDataDirMissing))

	assert.Len(t, env.svc.ListInstances(), 1)
}

func TestListInstances_Sorted(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.AddInstance("beta", env.installDir)
	require.NoError(t, err)
	_, err = env.svc.AddInstance("alpha", env.installDir)
	require.NoError(t, err)

	var names []string
	for _, inst := range env.svc.ListInstances() {
		names = append(names, inst.Name)
	}
	assert.Equal(t, []string{"alpha", "beta", "main"}, names)
}

func TestRemoveInstance_KeepsInstallation(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Profiles().Save("main", "p", []string{"A"})
	require.NoError(t, err)

	require.NoError(t, env.svc.RemoveInstance("main"))

	_, err = env.svc.GetInstance("main")
	assert.True(t, errors.Is(err, domain.ErrInstanceNotFound))
	assert.False(t, exists(config.ProfilesDir(env.configDir, "main")))
	assert.True(t, exists(filepath.Join(env.gameData(), "Squad")))

	err = env.svc.RemoveInstance("main")
	assert.True(t, errors.Is(err, domain.ErrInstanceNotFound))
}

func TestFindOrphans(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"A", "B", "C", "D"} {
		env.cacheMod(t, name)
	}
	_, err := env.svc.AddInstance("other", env.installDir)
	require.NoError(t, err)

	_, err = env.svc.Profiles().Save("main", "p1", []string{"A"})
	require.NoError(t, err)
	_, err = env.svc.Profiles().Save("other", "p2", []string{"C", "Gone"})
	require.NoError(t, err)

	scan, err := env.svc.FindOrphans(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "D"}, scan.Orphans)
	assert.True(t, scan.Complete())
}

func TestFindOrphans_SkipsUnreadableProfile(t *testing.T) {
	env := newTestEnv(t)
	env.cacheMod(t, "A")
	require.NoError(t, os.MkdirAll(config.ProfilesDir(env.configDir, "main"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(config.ProfilesDir(env.configDir, "main"), "bad.yaml"), []byte("nope"), 0644))

	var messages []string
	scan, err := env.svc.FindOrphans(func(msg string) { messages = append(messages, msg) })
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, scan.Orphans)
	assert.Equal(t, []string{"main/bad"}, scan.Skipped)
	assert.False(t, scan.Complete())
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "main/bad")
}

func TestCleanup_ContinuesOnFailure(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"A", "B", "C"} {
		env.cacheMod(t, name)
	}
	env.fs.failRemove["B"] = true

	result := env.svc.Cleanup(context.Background(), []string{"A", "B", "C", "Absent"}, nil)
	assert.Equal(t, []string{"A", "C"}, result.Removed)
	assert.Equal(t, []string{"B", "Absent"}, domain.ItemNames(result.Failed))
	assert.True(t, errors.Is(result.Failed[1].Err, domain.ErrModNotFound))
	assert.Equal(t, []string{"B"}, dirNames(t, env.cacheDir()))
}

func TestHistory_RecordsOperations(t *testing.T) {
	env := newTestEnv(t)
	env.cacheMod(t, "A")
	_, err := env.svc.Profiles().Save("main", "p", []string{"A", "Missing"})
	require.NoError(t, err)

	_, err = env.svc.Apply(context.Background(), "main", "p", nil)
	require.NoError(t, err)
	_, err = env.svc.Backup(context.Background(), "main", "p", nil)
	require.NoError(t, err)

	ops, err := env.svc.History("main", 0)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, db.KindBackup, ops[0].Kind)
	assert.Equal(t, db.KindApply, ops[1].Kind)
	assert.Equal(t, 1, ops[1].Applied)
	assert.Equal(t, 2, ops[1].Total)
	assert.Equal(t, []string{"Missing"}, ops[1].Missing)
	assert.NotEmpty(t, ops[0].Archive)
}

func TestHooks_BeforeAbortsAfterWarns(t *testing.T) {
	env := newTestEnv(t)
	env.cacheMod(t, "A")
	writeTree(t, env.gameData(), map[string]string{"X/x.cfg": "x"})

	hookDir := t.TempDir()
	failing := filepath.Join(hookDir, "fail.sh")
	require.NoError(t, os.WriteFile(failing, []byte("#!/bin/sh\necho nope >&2\nexit 1\n"), 0755))
	marker := filepath.Join(hookDir, "marker")
	recording := filepath.Join(hookDir, "record.sh")
	require.NoError(t, os.WriteFile(recording, []byte("#!/bin/sh\necho \"$KPM_HOOK $KPM_PROFILE\" > "+marker+"\n"), 0755))

	cfg := config.Default()
	cfg.Hooks.Apply.Before = failing
	require.NoError(t, cfg.Save(env.configDir))
	svc := env.open(t)

	_, err := svc.Profiles().Save("main", "p", []string{"A"})
	require.NoError(t, err)

	_, err = svc.Apply(context.Background(), "main", "p", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply.before")
	assert.True(t, exists(filepath.Join(env.gameData(), "X")))

	cfg.Hooks.Apply.Before = recording
	cfg.Hooks.Apply.After = failing
	require.NoError(t, cfg.Save(env.configDir))
	svc = env.open(t)

	result, err := svc.Apply(context.Background(), "main", "p", nil)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "apply.after")

	content, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, "apply.before p\n", string(content))
}

func TestHooks_Disabled(t *testing.T) {
	env := newTestEnv(t)

	failing := filepath.Join(t.TempDir(), "fail.sh")
	require.NoError(t, os.WriteFile(failing, []byte("#!/bin/sh\nexit 1\n"), 0755))
	cfg := config.Default()
	cfg.Hooks.Update.Before = failing
	require.NoError(t, cfg.Save(env.configDir))

	svc, err := core.NewService(core.ServiceConfig{ConfigDir: env.configDir, DataDir: env.dataDir, NoHooks: true})
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Update(context.Background(), "main", "snap", nil, nil)
	assert.NoError(t, err)
}

func TestDiffProfile(t *testing.T) {
	env := newTestEnv(t)
	writeTree(t, env.gameData(), map[string]string{"A/a.cfg": "a", "Extra/e.cfg": "e"})
	_, err := env.svc.Profiles().Save("main", "p", []string{"A", "B"})
	require.NoError(t, err)

	diff, err := env.svc.DiffProfile("main", "p")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, diff.OnlyInProfile)
	assert.Equal(t, []string{"Extra"}, diff.OnlyInLive)
	assert.Equal(t, []string{"A", "Extra"}, diff.Live)
	assert.False(t, diff.InSync())
}
