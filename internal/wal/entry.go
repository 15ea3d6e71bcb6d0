package wal

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Status is an Entry's position in the status machine: Pending ->
// InProgress -> (Complete | Failed) -> optionally RolledBack. InProgress
// is treated as Pending by the recoverer, so it never needs an explicit
// "regress" transition. This is a closed five-value enum persisted
// directly to the journal file; a skip or an auto-rename on the forward
// pass is recorded as an annotation on a Complete entry (see Skipped,
// SkipReason, and RenamedToDestination below), never as a sixth or
// seventh status value.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
	StatusRolledBack Status = "rolled_back"
)

// ErrInvalidTransition is returned when a caller asks for a status change
// the machine does not allow from the entry's current state.
var ErrInvalidTransition = errors.New("invalid status transition")

// allowedFrom lists the statuses an entry may transition to directly from
// a given status. Both Pending and InProgress may go straight to
// RolledBack, since rolling back an entry that never finished needs no
// filesystem operation.
var allowedFrom = map[Status]map[Status]bool{
	StatusPending: {
		StatusInProgress: true,
		StatusRolledBack: true, // rollback of Pending/InProgress entries needs no fs op
	},
	StatusInProgress: {
		StatusComplete:   true,
		StatusFailed:     true,
		StatusRolledBack: true,
	},
	StatusComplete: {
		StatusRolledBack: true,
	},
	StatusFailed: {
		StatusRolledBack: true,
	},
}

// Terminal reports whether a status represents a finished entry that no
// longer blocks journal completeness.
func (s Status) Terminal() bool {
	switch s {
	case StatusComplete, StatusFailed, StatusRolledBack:
		return true
	default:
		return false
	}
}

// Entry is one planned mutation: its forward Operation, its pre-computed
// inverse, its place in the dependency DAG, and its current status.
// Skipped, SkipReason, and RenamedToDestination annotate a Complete entry
// with what actually happened on the forward pass without adding a new
// on-disk status: a skip or an auto-rename is an execution-time outcome,
// not a distinct status.
type Entry struct {
	ID                   string     `json:"id"`
	Sequence             int        `json:"sequence"`
	Operation            Operation  `json:"operation"`
	UndoOperation        *Operation `json:"undo_operation,omitempty"`
	Status               Status     `json:"status"`
	DependsOn            []string   `json:"depends_on"`
	TimestampCreated     time.Time  `json:"timestamp_created"`
	TimestampLastUpdate  time.Time  `json:"timestamp_last_update"`
	Error                string     `json:"error,omitempty"`
	Skipped              bool       `json:"skipped,omitempty"`
	SkipReason           string     `json:"skip_reason,omitempty"`
	RenamedToDestination string     `json:"renamed_to_destination,omitempty"`
}

// NewEntry constructs an Entry with a fresh id and Pending status. sequence
// and dependsOn are assigned by the Journal at append time so callers never
// have to coordinate sequence numbers themselves.
func NewEntry(op Operation, undo *Operation) *Entry {
	now := timeNow()
	return &Entry{
		ID:                  uuid.NewString(),
		Operation:           op,
		UndoOperation:       undo,
		Status:              StatusPending,
		DependsOn:           []string{},
		TimestampCreated:    now,
		TimestampLastUpdate: now,
	}
}

// Transition advances e to next if the move is legal, stamping
// TimestampLastUpdate. It is the caller's responsibility to flush the
// owning journal immediately afterward.
func (e *Entry) Transition(next Status) error {
	allowed := allowedFrom[e.Status]
	if !allowed[next] {
		return errors.Wrapf(ErrInvalidTransition, "%s -> %s (entry %s)", e.Status, next, e.ID)
	}
	e.Status = next
	e.TimestampLastUpdate = timeNow()
	return nil
}

// Fail transitions e to Failed and records the error text.
func (e *Entry) Fail(err error) error {
	if transErr := e.Transition(StatusFailed); transErr != nil {
		return transErr
	}
	e.Error = err.Error()
	return nil
}

// MarkSkipped transitions e to Complete, recording that the forward pass
// skipped the operation (e.g. a conflicting destination under the Skip
// policy) rather than performing it. Skipped entries are Complete on
// disk, not a separate status, so a reader walking the journal file sees
// only the five closed status values.
func (e *Entry) MarkSkipped(reason string) error {
	if err := e.Transition(StatusComplete); err != nil {
		return err
	}
	e.Skipped = true
	e.SkipReason = reason
	return nil
}

// MarkRenamed transitions e to Complete, recording the auto-renamed path
// actually used in place of the originally planned destination.
func (e *Entry) MarkRenamed(newPath string) error {
	if err := e.Transition(StatusComplete); err != nil {
		return err
	}
	e.RenamedToDestination = newPath
	return nil
}

// RollBack transitions e to RolledBack, recording an undo error (if any)
// rather than returning it, so recovery can continue past a failed undo
// instead of aborting partway through.
func (e *Entry) RollBack(undoErr error) error {
	if err := e.Transition(StatusRolledBack); err != nil {
		return err
	}
	if undoErr != nil {
		e.Error = undoErr.Error()
	}
	return nil
}

// timeNow is a var so tests can pin it; production code never overrides it.
var timeNow = time.Now
