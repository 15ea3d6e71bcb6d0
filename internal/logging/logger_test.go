package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNameToLevel(t *testing.T) {
	level, ok := NameToLevel("debug")
	require.True(t, ok)
	require.Equal(t, LevelDebug, level)

	_, ok = NameToLevel("bogus")
	require.False(t, ok)
}

func TestNewRequiresLogDirUnlessNoLogs(t *testing.T) {
	_, err := New(LogSettings{NoLogs: false, LogDir: ""})
	require.Error(t, err)

	_, err = New(LogSettings{NoLogs: true})
	require.NoError(t, err)
}

func TestLogWritesToFileAndGatesByLevel(t *testing.T) {
	dir := t.TempDir()
	log, err := New(LogSettings{LogDir: dir, Level: LevelWarn})
	require.NoError(t, err)

	log.Debug("should be suppressed")
	log.Error("boom", F("job_id", "abc"))

	date := time.Now().Format("2006-01-02")
	mainData, err := os.ReadFile(filepath.Join(dir, "reorg_"+date+".log"))
	require.NoError(t, err)
	require.NotContains(t, string(mainData), "should be suppressed")
	require.Contains(t, string(mainData), "boom")
	require.Contains(t, string(mainData), "job_id=abc")

	errData, err := os.ReadFile(filepath.Join(dir, "errors_"+date+".log"))
	require.NoError(t, err)
	require.Contains(t, string(errData), "boom")
}

func TestPruneOldLogsRemovesOnlyStaleFiles(t *testing.T) {
	dir := t.TempDir()
	fresh := filepath.Join(dir, "fresh.log")
	stale := filepath.Join(dir, "stale.log")
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))

	old := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(stale, old, old))

	require.NoError(t, PruneOldLogs(dir, 7))

	_, err := os.Stat(fresh)
	require.NoError(t, err)
	_, err = os.Stat(stale)
	require.True(t, os.IsNotExist(err))
}

func TestPruneOldLogsMissingDirIsNotError(t *testing.T) {
	require.NoError(t, PruneOldLogs(filepath.Join(t.TempDir(), "nope"), 7))
}
