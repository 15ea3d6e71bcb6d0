// Package journalstore lays out journal files on disk and persists them
// atomically: write-temp-then-rename, so a crash mid-write never leaves a
// half-written journal where a reader might mistake it for the real thing.
package journalstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"reorgwal/internal/wal"
)

const journalsDirName = "journals"

// Manager owns the on-disk layout under <stateDir>/journals/<job_id>.json.
type Manager struct {
	stateDir string
}

// New returns a Manager rooted at stateDir, creating the journals
// subdirectory if it does not already exist.
func New(stateDir string) (*Manager, error) {
	dir := filepath.Join(stateDir, journalsDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create journals directory: %s", dir)
	}
	return &Manager{stateDir: stateDir}, nil
}

func (m *Manager) path(jobID string) string {
	return filepath.Join(m.stateDir, journalsDirName, jobID+".json")
}

// CheckWritable probes the journals directory with a real temp-file
// write: a directory can exist and still be read-only (an expired SMB
// credential, a mounted read-only volume), and that must surface at
// startup rather than on the first journal flush mid-execution.
func (m *Manager) CheckWritable() error {
	dir := filepath.Join(m.stateDir, journalsDirName)
	f, err := os.CreateTemp(dir, ".writable_test_*")
	if err != nil {
		return errors.Wrapf(err, "journals directory is not writable: %s", dir)
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return nil
}

// Save serializes j to <job_id>.json via write-temp-then-rename: the
// temp file is written and fsynced in the same directory as the target,
// then renamed over it, so readers never observe a partially written file.
func (m *Manager) Save(j *wal.Journal) error {
	final := m.path(j.JobID)
	tmp := final + ".tmp"

	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal journal")
	}

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open temp journal file: %s", tmp)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrapf(err, "write temp journal file: %s", tmp)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrapf(err, "fsync temp journal file: %s", tmp)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "close temp journal file: %s", tmp)
	}

	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "rename %s to %s", tmp, final)
	}
	return nil
}

// ErrJournalMissing is returned by Load when no journal exists for jobID.
var ErrJournalMissing = errors.New("journal missing")

// ErrJournalCorrupt wraps any decode failure (malformed JSON, unknown
// operation tag) so callers can distinguish "nothing here" from "something
// here but it's broken".
var ErrJournalCorrupt = errors.New("journal corrupt")

// Load reads and decodes the journal for jobID.
func (m *Manager) Load(jobID string) (*wal.Journal, error) {
	data, err := os.ReadFile(m.path(jobID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrJournalMissing, "job %s", jobID)
		}
		return nil, errors.Wrapf(err, "read journal: %s", jobID)
	}
	var j wal.Journal
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, errors.Wrapf(ErrJournalCorrupt, "%s: %v", jobID, err)
	}
	return &j, nil
}

// List returns the job ids of every journal currently on disk, regardless
// of completeness, sorted for deterministic iteration.
func (m *Manager) List() ([]string, error) {
	dir := filepath.Join(m.stateDir, journalsDirName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read journals directory: %s", dir)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".tmp") {
			continue
		}
		if ext := filepath.Ext(name); ext == ".json" {
			ids = append(ids, strings.TrimSuffix(name, ext))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// FindLatestIncomplete scans the journals directory and returns the most
// recently modified journal whose Complete() is false. It returns (nil,
// nil) — not an error — when none exists.
func (m *Manager) FindLatestIncomplete() (*wal.Journal, error) {
	dir := filepath.Join(m.stateDir, journalsDirName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read journals directory: %s", dir)
	}

	type candidate struct {
		jobID   string
		modTime int64
	}
	var candidates []candidate
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), ".tmp") || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{
			jobID:   strings.TrimSuffix(e.Name(), ".json"),
			modTime: info.ModTime().UnixNano(),
		})
	}
	sort.Slice(candidates, func(a, b int) bool { return candidates[a].modTime > candidates[b].modTime })

	for _, c := range candidates {
		j, err := m.Load(c.jobID)
		if err != nil {
			// A corrupt or unreadable journal is skipped rather than
			// aborting discovery for every other job lineage.
			continue
		}
		if !j.Complete() {
			return j, nil
		}
	}
	return nil, nil
}

// Discard removes the journal file for jobID. A missing file is success,
// matching the idempotent "absent file -> success" contract every
// delete-style operation in this package follows.
func (m *Manager) Discard(jobID string) error {
	if err := os.Remove(m.path(jobID)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "discard journal: %s", jobID)
	}
	return nil
}
