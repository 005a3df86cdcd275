package cache_test

import (
	"os"
	"path/filepath"
	"testing"

	"kpm/internal/storage/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_Path(t *testing.T) {
	dir := t.TempDir()
	c := cache.New(dir)

	assert.Equal(t, filepath.Join(dir, "MechJeb2"), c.Path("MechJeb2"))
	assert.Equal(t, dir, c.Dir())
}

func TestCache_ListNatural(t *testing.T) {
	dir := t.TempDir()
	c := cache.New(dir)

	for _, name := range []string{"Mod10", "Mod2", "mod1"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, name), 0755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ModuleManager.4.2.3.dll"), []byte("dll"), 0644))

	names, err := c.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"mod1", "Mod2", "Mod10", "ModuleManager.4.2.3.dll"}, names)
}

func TestCache_ListMissingDir(t *testing.T) {
	c := cache.New(filepath.Join(t.TempDir(), "absent"))

	names, err := c.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestCache_Exists(t *testing.T) {
	dir := t.TempDir()
	c := cache.New(dir)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "MechJeb2"), 0755))
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone"), filepath.Join(dir, "Dangling")))

	assert.True(t, c.Exists("MechJeb2"))
	assert.True(t, c.Exists("Dangling"))
	assert.False(t, c.Exists("KerbalEngineer"))
	assert.False(t, c.Exists(""))
}

func TestCache_ExistsRejectsPaths(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "mods")
	c := cache.New(dir)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "MechJeb2", "Plugins"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(root, "Ships"), 0755))

	for _, name := range []string{".", "..", "../Ships", "MechJeb2/Plugins"} {
		assert.False(t, c.Exists(name), name)
	}
}

func TestCache_Size(t *testing.T) {
	dir := t.TempDir()
	c := cache.New(dir)

	modDir := filepath.Join(dir, "MechJeb2", "Plugins")
	require.NoError(t, os.MkdirAll(modDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(modDir, "a.dll"), make([]byte, 100), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(modDir, "b.dll"), make([]byte, 50), 0644))

	size, err := c.Size("MechJeb2")
	require.NoError(t, err)
	assert.Equal(t, int64(150), size)

	_, err = c.Size("missing")
	assert.Error(t, err)
}

func TestCache_EnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data", "mods")
	c := cache.New(dir)

	require.NoError(t, c.EnsureDir())
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
