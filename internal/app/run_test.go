package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"reorgwal/internal/config"
	"reorgwal/internal/logging"
	"reorgwal/internal/translate"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Default()
	cfg.StateDir = t.TempDir()
	cfg.Log.NoLogs = true

	log, err := logging.New(cfg.LogSettings())
	require.NoError(t, err)

	a, err := New(cfg, log)
	require.NoError(t, err)
	return a
}

func TestPlanThenExecute(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	a := newTestApp(t)

	plan := translate.Plan{
		TargetFolder: root,
		Intents: []translate.Intent{
			{Kind: translate.Move, Source: src, Destination: filepath.Join(root, "archive", "a.txt")},
		},
	}

	j, err := a.Plan(plan)
	require.NoError(t, err)
	require.Len(t, j.Entries, 2)

	result, err := a.Execute(context.Background(), j, nil)
	require.NoError(t, err)
	require.True(t, result.Success())

	_, err = os.Stat(filepath.Join(root, "archive", "a.txt"))
	require.NoError(t, err)

	// Execute discarded the completed journal.
	_, err = a.Load(j.JobID)
	require.Error(t, err)
}

func TestDiscoverAfterIncompletePlan(t *testing.T) {
	root := t.TempDir()
	a := newTestApp(t)

	plan := translate.Plan{
		TargetFolder: root,
		Intents: []translate.Intent{
			{Kind: translate.CreateFolder, Path: filepath.Join(root, "a")},
		},
	}
	j, err := a.Plan(plan)
	require.NoError(t, err)

	found, info, err := a.Discover()
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, j.JobID, info.JobID)
}
