package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"reorgwal/internal/journalstore"
	"reorgwal/internal/logging"
	"reorgwal/internal/opruntime"
	"reorgwal/internal/wal"
)

func newTestExecutor(t *testing.T) (*Executor, *journalstore.Manager) {
	t.Helper()
	store, err := journalstore.New(t.TempDir())
	require.NoError(t, err)
	log, err := logging.New(logging.LogSettings{NoLogs: true, Level: logging.LevelError})
	require.NoError(t, err)
	return New(opruntime.New(), store, log), store
}

func TestExecuteRunsLevelsInOrder(t *testing.T) {
	root := t.TempDir()
	ex, _ := newTestExecutor(t)

	j := wal.New("job-1", root)
	createDir := wal.NewEntry(wal.NewCreateFolder(filepath.Join(root, "archive")), nil)
	require.NoError(t, j.Append(createDir))

	src := filepath.Join(root, "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))
	move := wal.NewEntry(wal.NewMove(src, filepath.Join(root, "archive", "a.txt")), nil)
	require.NoError(t, j.Append(move, createDir.ID))

	result, err := ex.Execute(context.Background(), j, Options{Policy: opruntime.PolicyAutoRename})
	require.NoError(t, err)
	require.True(t, result.Success())
	require.Equal(t, 2, result.Completed)

	_, err = os.Stat(filepath.Join(root, "archive", "a.txt"))
	require.NoError(t, err)
}

func TestExecuteHaltsRemainingLevelsOnFailure(t *testing.T) {
	root := t.TempDir()
	ex, _ := newTestExecutor(t)

	j := wal.New("job-1", root)
	// This move's source never exists, so it fails.
	failing := wal.NewEntry(wal.NewMove(filepath.Join(root, "missing.txt"), filepath.Join(root, "dest.txt")), nil)
	require.NoError(t, j.Append(failing))

	// Depends on the failing entry, so it sits in level 2 and must never run.
	dependent := wal.NewEntry(wal.NewCreateFolder(filepath.Join(root, "never")), nil)
	require.NoError(t, j.Append(dependent, failing.ID))

	result, err := ex.Execute(context.Background(), j, Options{Policy: opruntime.PolicyFail})
	require.NoError(t, err)
	require.False(t, result.Success())
	require.Equal(t, 1, result.Failed)

	_, statErr := os.Stat(filepath.Join(root, "never"))
	require.True(t, os.IsNotExist(statErr))
	require.Equal(t, wal.StatusPending, dependent.Status)
}

func TestExecutePersistsJournalAfterEachTransition(t *testing.T) {
	root := t.TempDir()
	ex, store := newTestExecutor(t)

	j := wal.New("job-1", root)
	e := wal.NewEntry(wal.NewCreateFolder(filepath.Join(root, "a")), nil)
	require.NoError(t, j.Append(e))
	require.NoError(t, store.Save(j))

	_, err := ex.Execute(context.Background(), j, Options{Policy: opruntime.PolicyFail})
	require.NoError(t, err)

	// The journal completed, so the executor's caller (app.Execute) would
	// discard it; the executor itself leaves it on disk with the final
	// status flushed.
	require.True(t, j.Complete())
	loaded, err := store.Load("job-1")
	require.NoError(t, err)
	require.Equal(t, wal.StatusComplete, loaded.Entries[0].Status)
}
