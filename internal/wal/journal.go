package wal

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// MaxEntries bounds how large a single journal may grow. It exists to stop
// an adversarial or buggy planner from exhausting memory on a huge folder
// tree.
const MaxEntries = 5000

// ErrPlanSizeExceeded is returned by Append once a journal already holds
// MaxEntries entries.
var ErrPlanSizeExceeded = errors.New("plan size exceeded")

// ErrUnknownDependency is returned when an entry names a depends_on id that
// is not present in the same journal.
var ErrUnknownDependency = errors.New("depends_on references unknown entry")

// Journal is the persisted write-ahead log for one plan: an ordered set of
// Entries plus the destination registry used to catch in-plan collisions
// during planning.
type Journal struct {
	JobID               string            `json:"job_id"`
	TargetFolder        string            `json:"target_folder"`
	StartedAt           time.Time         `json:"started_at"`
	Entries             []*Entry          `json:"entries"`
	DestinationRegistry map[string]string `json:"destination_registry,omitempty"`
	Version             int               `json:"version,omitempty"`

	byID    map[string]*Entry
	nextSeq int
}

// New creates an empty journal rooted at targetFolder.
func New(jobID, targetFolder string) *Journal {
	return &Journal{
		JobID:               jobID,
		TargetFolder:        targetFolder,
		StartedAt:           timeNow(),
		Entries:             nil,
		DestinationRegistry: make(map[string]string),
		Version:             1,
		byID:                make(map[string]*Entry),
		nextSeq:             1,
	}
}

// journalWire mirrors Journal's exported fields for decoding; unknown
// fields are ignored by encoding/json by default, which is the forward
// compatibility a persisted journal should keep — only unknown Operation tags,
// handled in operation.go, are a hard error.
type journalWire struct {
	JobID               string            `json:"job_id"`
	TargetFolder        string            `json:"target_folder"`
	StartedAt           time.Time         `json:"started_at"`
	Entries             []*Entry          `json:"entries"`
	DestinationRegistry map[string]string `json:"destination_registry,omitempty"`
	Version             int               `json:"version,omitempty"`
}

// UnmarshalJSON decodes a journal and rebuilds its in-memory indices so it
// is immediately usable for Append/Get without a separate reindex call.
func (j *Journal) UnmarshalJSON(data []byte) error {
	var w journalWire
	if err := json.Unmarshal(data, &w); err != nil {
		return errors.Wrap(err, "decode journal")
	}
	j.JobID = w.JobID
	j.TargetFolder = w.TargetFolder
	j.StartedAt = w.StartedAt
	j.Entries = w.Entries
	j.DestinationRegistry = w.DestinationRegistry
	j.Version = w.Version
	j.reindex()
	return nil
}

// reindex rebuilds the in-memory id index and next-sequence counter. Called
// after loading a journal from disk, where byID starts nil.
func (j *Journal) reindex() {
	j.byID = make(map[string]*Entry, len(j.Entries))
	j.nextSeq = 1
	for _, e := range j.Entries {
		j.byID[e.ID] = e
		if e.Sequence >= j.nextSeq {
			j.nextSeq = e.Sequence + 1
		}
	}
	if j.DestinationRegistry == nil {
		j.DestinationRegistry = make(map[string]string)
	}
}

// Append assigns e the next sequence number, validates its dependencies
// reference earlier entries already in the journal, and adds it. It
// refuses to grow the journal past MaxEntries.
func (j *Journal) Append(e *Entry, dependsOn ...string) error {
	if j.byID == nil {
		j.reindex()
	}
	if len(j.Entries) >= MaxEntries {
		return errors.Wrapf(ErrPlanSizeExceeded, "cap is %d", MaxEntries)
	}
	for _, dep := range dependsOn {
		if _, ok := j.byID[dep]; !ok {
			return errors.Wrapf(ErrUnknownDependency, "entry %s depends on %s", e.ID, dep)
		}
	}
	e.Sequence = j.nextSeq
	j.nextSeq++
	e.DependsOn = append([]string{}, dependsOn...)
	j.Entries = append(j.Entries, e)
	j.byID[e.ID] = e
	return nil
}

// Get looks up an entry by id.
func (j *Journal) Get(id string) (*Entry, bool) {
	if j.byID == nil {
		j.reindex()
	}
	e, ok := j.byID[id]
	return e, ok
}

// BySequence returns entries ordered by ascending sequence. The slice is a
// fresh copy, but the *Entry values in it are the journal's own.
func (j *Journal) BySequence() []*Entry {
	out := append([]*Entry{}, j.Entries...)
	sort.Slice(out, func(a, b int) bool { return out[a].Sequence < out[b].Sequence })
	return out
}

// BySequenceDescending returns entries ordered by descending sequence, the
// order rollback replays undo operations in.
func (j *Journal) BySequenceDescending() []*Entry {
	out := j.BySequence()
	for i, k := 0, len(out)-1; i < k; i, k = i+1, k-1 {
		out[i], out[k] = out[k], out[i]
	}
	return out
}

// WithStatus returns entries whose status is one of the given statuses, in
// sequence order.
func (j *Journal) WithStatus(statuses ...Status) []*Entry {
	want := make(map[Status]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	var out []*Entry
	for _, e := range j.BySequence() {
		if want[e.Status] {
			out = append(out, e)
		}
	}
	return out
}

// Complete reports whether every entry has reached a terminal status: no
// entry is Pending or InProgress. A journal with zero entries is complete.
func (j *Journal) Complete() bool {
	for _, e := range j.Entries {
		if e.Status == StatusPending || e.Status == StatusInProgress {
			return false
		}
	}
	return true
}

// RegisterDestination records that dest is claimed by the entry whose
// source is src, returning false if dest was already claimed by a
// different source (an in-plan collision the translator must resolve
// before calling RegisterDestination again with a renamed path).
func (j *Journal) RegisterDestination(dest, src string) bool {
	if j.DestinationRegistry == nil {
		j.DestinationRegistry = make(map[string]string)
	}
	if existing, ok := j.DestinationRegistry[dest]; ok && existing != src {
		return false
	}
	j.DestinationRegistry[dest] = src
	return true
}

// DestinationClaimed reports whether dest is already present in the
// registry, for use as an opruntime.Claimed / pathsafe.Claimed callback.
func (j *Journal) DestinationClaimed(dest string) bool {
	if j.DestinationRegistry == nil {
		return false
	}
	_, ok := j.DestinationRegistry[dest]
	return ok
}

// Counts summarizes entry statuses, used by recovery.Info and CLI reporting.
type Counts struct {
	Pending    int
	InProgress int
	Complete   int
	Failed     int
	Skipped    int
	RolledBack int
}

func (j *Journal) Counts() Counts {
	var c Counts
	for _, e := range j.Entries {
		switch e.Status {
		case StatusPending:
			c.Pending++
		case StatusInProgress:
			c.InProgress++
		case StatusComplete:
			if e.Skipped {
				c.Skipped++
			} else {
				c.Complete++
			}
		case StatusFailed:
			c.Failed++
		case StatusRolledBack:
			c.RolledBack++
		}
	}
	return c
}
