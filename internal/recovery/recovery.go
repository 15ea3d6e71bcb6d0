// Package recovery implements startup discovery of an interrupted journal
// and the resume/rollback/discard choices a host makes about it.
package recovery

import (
	"context"

	"github.com/pkg/errors"

	"reorgwal/internal/journalstore"
	"reorgwal/internal/logging"
	"reorgwal/internal/opruntime"
	"reorgwal/internal/wal"
)

// Info describes an incomplete journal to a host application so it can
// decide resume/rollback/discard without needing to understand Entry
// internals. PendingDescriptions carries the human-readable per-entry
// descriptions alongside the plain counts, so a CLI or UI can list what
// is still outstanding without re-walking the journal itself.
type Info struct {
	JobID               string
	TargetFolder        string
	Counts              wal.Counts
	PendingDescriptions []string
}

// Discover calls store.FindLatestIncomplete and, if one exists, summarizes
// it as Info. A nil Info with a nil error means there is nothing to
// recover.
func Discover(store *journalstore.Manager) (*wal.Journal, *Info, error) {
	j, err := store.FindLatestIncomplete()
	if err != nil {
		return nil, nil, err
	}
	if j == nil {
		return nil, nil, nil
	}

	var descriptions []string
	for _, e := range j.WithStatus(wal.StatusPending, wal.StatusInProgress) {
		descriptions = append(descriptions, e.Operation.Description)
	}

	return j, &Info{
		JobID:               j.JobID,
		TargetFolder:        j.TargetFolder,
		Counts:              j.Counts(),
		PendingDescriptions: descriptions,
	}, nil
}

// Recoverer replays or undoes an incomplete journal using the same
// Runtime the executor drives during normal execution.
type Recoverer struct {
	runtime *opruntime.Runtime
	store   *journalstore.Manager
	log     *logging.Logger
}

func New(runtime *opruntime.Runtime, store *journalstore.Manager, log *logging.Logger) *Recoverer {
	return &Recoverer{runtime: runtime, store: store, log: log}
}

// Resume re-executes every Pending or InProgress entry in ascending
// sequence order. InProgress is treated as Pending: a crash between
// "mark InProgress" and "run the op" must not be distinguishable from a
// crash before starting. If the journal becomes complete, it is
// discarded.
func (r *Recoverer) Resume(ctx context.Context, j *wal.Journal) (wal.Counts, error) {
	for _, e := range j.WithStatus(wal.StatusPending, wal.StatusInProgress) {
		if ctx.Err() != nil {
			return j.Counts(), ctx.Err()
		}

		if e.Status == wal.StatusPending {
			if err := e.Transition(wal.StatusInProgress); err != nil {
				return j.Counts(), err
			}
			if err := r.store.Save(j); err != nil {
				return j.Counts(), errors.Wrap(err, "flush journal before resume op")
			}
		}

		outcome, opErr := r.runtime.Execute(e.Operation, opruntime.PolicyAutoRename, j.DestinationClaimed)
		switch {
		case opErr != nil:
			if err := e.Fail(opErr); err != nil {
				return j.Counts(), err
			}
			r.log.Errorf("resume failed id=%s op=%s err=%v job=%s", e.ID, e.Operation.Kind, opErr, j.JobID)
		case outcome.Skipped:
			if err := e.MarkSkipped(outcome.SkipReason); err != nil {
				return j.Counts(), err
			}
		case outcome.Renamed:
			j.RegisterDestination(outcome.NewPath, e.Operation.Source)
			if err := e.MarkRenamed(outcome.NewPath); err != nil {
				return j.Counts(), err
			}
		default:
			if err := e.Transition(wal.StatusComplete); err != nil {
				return j.Counts(), err
			}
		}

		if err := r.store.Save(j); err != nil {
			return j.Counts(), errors.Wrap(err, "flush journal after resume transition")
		}
	}

	if j.Complete() {
		if err := r.store.Discard(j.JobID); err != nil {
			return j.Counts(), err
		}
	}
	return j.Counts(), nil
}

// Rollback undoes every Complete entry (including ones completed with a
// skip or an auto-rename) in descending sequence order by executing its
// pre-computed undo operation, then marks any still-Pending/InProgress
// entries RolledBack without touching the filesystem (they never ran).
// An undo failure is recorded on the entry rather than aborting the
// rollback, so one bad undo does not strand the rest of the plan.
func (r *Recoverer) Rollback(ctx context.Context, j *wal.Journal) error {
	for _, e := range j.BySequenceDescending() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if e.Status != wal.StatusComplete {
			continue
		}
		if e.UndoOperation == nil {
			// DeleteFolder entries without a recorded undo are, by
			// construction, ones the translator decided were not safely
			// reversible; leave status as-is for the operator to inspect.
			continue
		}

		_, undoErr := r.runtime.Execute(*e.UndoOperation, opruntime.PolicyFail, j.DestinationClaimed)
		if err := e.RollBack(undoErr); err != nil {
			return err
		}
		if undoErr != nil {
			r.log.Errorf("undo failed id=%s op=%s err=%v job=%s", e.ID, e.UndoOperation.Kind, undoErr, j.JobID)
		}
		if err := r.store.Save(j); err != nil {
			return errors.Wrap(err, "flush journal after rollback transition")
		}
	}

	for _, e := range j.WithStatus(wal.StatusPending, wal.StatusInProgress) {
		if err := e.Transition(wal.StatusRolledBack); err != nil {
			return err
		}
		if err := r.store.Save(j); err != nil {
			return errors.Wrap(err, "flush journal after rollback transition")
		}
	}

	return r.store.Discard(j.JobID)
}

// Discard deletes j's journal without touching the filesystem.
func (r *Recoverer) Discard(j *wal.Journal) error {
	return r.store.Discard(j.JobID)
}
