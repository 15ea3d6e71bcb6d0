package opruntime

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"reorgwal/internal/wal"
)

func noneClaimed(string) bool { return false }

func TestCreateFolderIsIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	rt := New()

	_, err := rt.Execute(wal.NewCreateFolder(dir), PolicyFail, noneClaimed)
	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())

	_, err = rt.Execute(wal.NewCreateFolder(dir), PolicyFail, noneClaimed)
	require.NoError(t, err)
}

func TestMoveFile(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("hi"), 0o644))
	dst := filepath.Join(root, "sub", "a.txt")

	rt := New()
	outcome, err := rt.Execute(wal.NewMove(src, dst), PolicyFail, noneClaimed)
	require.NoError(t, err)
	require.False(t, outcome.Renamed)

	_, err = os.Stat(src)
	require.True(t, os.IsNotExist(err))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "hi", string(data))
}

func TestMoveSourceMissingDestinationExistsSkips(t *testing.T) {
	root := t.TempDir()
	dst := filepath.Join(root, "b.txt")
	require.NoError(t, os.WriteFile(dst, []byte("already here"), 0o644))

	rt := New()
	outcome, err := rt.Execute(wal.NewMove(filepath.Join(root, "missing.txt"), dst), PolicyFail, noneClaimed)
	require.NoError(t, err)
	require.True(t, outcome.Skipped)
}

func TestMoveSourceAndDestinationMissingFails(t *testing.T) {
	root := t.TempDir()
	rt := New()
	_, err := rt.Execute(
		wal.NewMove(filepath.Join(root, "missing.txt"), filepath.Join(root, "also-missing.txt")),
		PolicyFail, noneClaimed,
	)
	require.ErrorIs(t, err, ErrSourceMissing)
}

func TestMoveDestinationExistsPolicyFail(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "a.txt")
	dst := filepath.Join(root, "b.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("y"), 0o644))

	rt := New()
	_, err := rt.Execute(wal.NewMove(src, dst), PolicyFail, noneClaimed)
	require.ErrorIs(t, err, ErrDestinationExists)
}

func TestMoveDestinationExistsPolicyAutoRename(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "a.txt")
	dst := filepath.Join(root, "b.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("y"), 0o644))

	rt := New()
	outcome, err := rt.Execute(wal.NewMove(src, dst), PolicyAutoRename, noneClaimed)
	require.NoError(t, err)
	require.True(t, outcome.Renamed)
	require.NotEqual(t, dst, outcome.NewPath)
	_, err = os.Stat(outcome.NewPath)
	require.NoError(t, err)
}

func TestCopyPreservesSource(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "a.txt")
	dst := filepath.Join(root, "copy.txt")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	rt := New()
	_, err := rt.Execute(wal.NewCopy(src, dst), PolicyFail, noneClaimed)
	require.NoError(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "payload", string(data))
	_, err = os.Stat(src)
	require.NoError(t, err)
}

func TestRenameIntraDirectory(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "old.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	rt := New()
	outcome, err := rt.Execute(wal.NewRename(src, "new.txt"), PolicyFail, noneClaimed)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "new.txt"), outcome.NewPath)
}

func TestDeleteFolderAbsentIsSuccess(t *testing.T) {
	rt := New()
	err := rt.deleteFolder(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
}

func TestDeleteFolderEmptyDirectory(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "empty")
	require.NoError(t, os.Mkdir(dir, 0o755))

	rt := New()
	require.NoError(t, rt.deleteFolder(dir))
	_, err := os.Stat(dir)
	require.True(t, os.IsNotExist(err))
}

func TestDeleteFolderNonEmptyDirectory(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "full")
	require.NoError(t, os.Mkdir(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte("x"), 0o644))

	rt := New()
	require.NoError(t, rt.deleteFolder(dir))
	_, err := os.Stat(dir)
	require.True(t, os.IsNotExist(err))
}
