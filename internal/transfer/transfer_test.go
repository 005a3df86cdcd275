package transfer_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"kpm/internal/domain"
	"kpm/internal/transfer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestRemove_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.cfg")
	writeFile(t, path, "x")

	require.NoError(t, transfer.New().Remove(path))

	_, err := os.Lstat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestRemove_ReadOnlyTree(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "MechJeb2")
	writeFile(t, filepath.Join(root, "Plugins", "MechJeb2.dll"), "dll")
	writeFile(t, filepath.Join(root, "readme.txt"), "hi")
	require.NoError(t, os.Chmod(filepath.Join(root, "Plugins", "MechJeb2.dll"), 0444))
	require.NoError(t, os.Chmod(filepath.Join(root, "Plugins"), 0555))
	require.NoError(t, os.Chmod(root, 0555))

	require.NoError(t, transfer.New().Remove(root))

	_, err := os.Lstat(root)
	assert.True(t, os.IsNotExist(err))
}

func TestRemove_SymlinkLeavesTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	writeFile(t, filepath.Join(target, "part.cfg"), "x")
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(target, link))

	require.NoError(t, transfer.New().Remove(link))

	_, err := os.Lstat(link)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(target, "part.cfg"))
	assert.NoError(t, err)
}

func TestRemove_MissingPathFails(t *testing.T) {
	err := transfer.New().Remove(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)

	var te *domain.TransferError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "remove", te.Op)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestCopy_Directory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "KerbalEngineer")
	writeFile(t, filepath.Join(src, "Plugins", "KER.dll"), "dll")
	writeFile(t, filepath.Join(src, "Settings", "a.cfg"), "cfg")
	dst := filepath.Join(dir, "dst", "nested", "KerbalEngineer")

	require.NoError(t, transfer.New().Copy(src, dst))

	data, err := os.ReadFile(filepath.Join(dst, "Plugins", "KER.dll"))
	require.NoError(t, err)
	assert.Equal(t, "dll", string(data))
	data, err = os.ReadFile(filepath.Join(dst, "Settings", "a.cfg"))
	require.NoError(t, err)
	assert.Equal(t, "cfg", string(data))

	// Source untouched
	_, err = os.Stat(filepath.Join(src, "Plugins", "KER.dll"))
	assert.NoError(t, err)
}

func TestCopy_ReplacesExistingDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeFile(t, filepath.Join(src, "new.cfg"), "new")
	dst := filepath.Join(dir, "dst")
	writeFile(t, filepath.Join(dst, "stale.cfg"), "old")

	require.NoError(t, transfer.New().Copy(src, dst))

	_, err := os.Stat(filepath.Join(dst, "stale.cfg"))
	assert.True(t, os.IsNotExist(err), "stale content must not survive a copy")
	_, err = os.Stat(filepath.Join(dst, "new.cfg"))
	assert.NoError(t, err)
}

func TestCopy_FilePreservesModeAndTime(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "ModuleManager.4.2.3.dll")
	writeFile(t, src, "mm")
	require.NoError(t, os.Chmod(src, 0640))
	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, mtime, mtime))

	dst := filepath.Join(dir, "out", "ModuleManager.4.2.3.dll")
	require.NoError(t, transfer.New().Copy(src, dst))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), info.Mode().Perm())
	assert.True(t, info.ModTime().Equal(mtime))
}

func TestCopy_ReadOnlySourceCanBeCopiedTwice(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeFile(t, filepath.Join(src, "locked.cfg"), "x")
	require.NoError(t, os.Chmod(filepath.Join(src, "locked.cfg"), 0444))
	require.NoError(t, os.Chmod(src, 0555))
	t.Cleanup(func() { _ = os.Chmod(src, 0755) })

	dst := filepath.Join(dir, "dst")
	tr := transfer.New()
	t.Cleanup(func() { _ = tr.Remove(dst) })
	require.NoError(t, tr.Copy(src, dst))
	require.NoError(t, tr.Copy(src, dst))

	info, err := os.Stat(filepath.Join(dst, "locked.cfg"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0444), info.Mode().Perm())
}

func TestCopy_SymlinkRecreated(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeFile(t, filepath.Join(src, "real.cfg"), "x")
	require.NoError(t, os.Symlink("real.cfg", filepath.Join(src, "alias.cfg")))

	dst := filepath.Join(dir, "dst")
	require.NoError(t, transfer.New().Copy(src, dst))

	target, err := os.Readlink(filepath.Join(dst, "alias.cfg"))
	require.NoError(t, err)
	assert.Equal(t, "real.cfg", target)
}

func TestCopy_MissingSourceFails(t *testing.T) {
	dir := t.TempDir()
	err := transfer.New().Copy(filepath.Join(dir, "nope"), filepath.Join(dir, "dst"))

	var te *domain.TransferError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "copy", te.Op)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}
