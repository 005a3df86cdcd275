package core_test

import (
	"os"
	"path/filepath"
	"testing"

	"kpm/internal/core"
	"kpm/internal/domain"
	"kpm/internal/transfer"

	"github.com/stretchr/testify/require"
)

// faultyFS fails Copy or Remove for selected base names
type faultyFS struct {
	*transfer.FS
	failRemove map[string]bool
	failCopy   map[string]bool
}

func newFaultyFS() *faultyFS {
	return &faultyFS{
		FS:         transfer.New(),
		failRemove: make(map[string]bool),
		failCopy:   make(map[string]bool),
	}
}

func (f *faultyFS) Remove(path string) error {
	if f.failRemove[filepath.Base(path)] {
		return &domain.TransferError{Op: "remove", Path: path, Err: os.ErrPermission}
	}
	return f.FS.Remove(path)
}

func (f *faultyFS) Copy(src, dst string) error {
	if f.failCopy[filepath.Base(src)] {
		return &domain.TransferError{Op: "copy", Path: src, Err: os.ErrPermission}
	}
	return f.FS.Copy(src, dst)
}

type testEnv struct {
	configDir  string
	dataDir    string
	installDir string
	fs         *faultyFS
	svc        *core.Service
}

func (e *testEnv) gameData() string {
	return filepath.Join(e.installDir, "GameData")
}

func (e *testEnv) cacheDir() string {
	return filepath.Join(e.dataDir, "mods")
}

// newTestEnv registers instance "main" whose GameData holds Squad and SquadExpansion
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		configDir:  filepath.Join(root, "config"),
		dataDir:    filepath.Join(root, "data"),
		installDir: filepath.Join(root, "ksp"),
		fs:         newFaultyFS(),
	}

	writeTree(t, env.gameData(), map[string]string{
		"Squad/Parts/part.cfg":        "stock",
		"SquadExpansion/Serenity.cfg": "dlc",
	})
	require.NoError(t, os.MkdirAll(env.cacheDir(), 0755))

	env.svc = env.open(t)
	_, err := env.svc.AddInstance("main", env.installDir)
	require.NoError(t, err)
	return env
}

// open starts a service on the environment's directories
func (e *testEnv) open(t *testing.T) *core.Service {
	t.Helper()
	svc, err := core.NewService(core.ServiceConfig{
		ConfigDir:  e.configDir,
		DataDir:    e.dataDir,
		Transferer: e.fs,
	})
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

// cacheMod places a mod directory with a single marker file in the cache
func (e *testEnv) cacheMod(t *testing.T, name string) {
	t.Helper()
	writeTree(t, filepath.Join(e.cacheDir(), name), map[string]string{
		"Plugins/" + name + ".dll": "cached " + name,
	})
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return domain.SortedNatural(names)
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
