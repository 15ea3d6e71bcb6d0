// Package executor drives a journal's DAG to completion: levels run
// strictly sequentially, operations within a level run in parallel, every
// status transition is flushed before a dependent can observe it, and a
// level with any failure halts subsequent levels.
package executor

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"reorgwal/internal/dag"
	"reorgwal/internal/journalstore"
	"reorgwal/internal/logging"
	"reorgwal/internal/opruntime"
	"reorgwal/internal/wal"
)

// ProgressFunc is invoked once per completed level with
// (processed, total). Implementations must be non-blocking and cheap;
// a caller needing more should hand off to its own goroutine.
type ProgressFunc func(processed, total uint64)

// Options configures one Execute call.
type Options struct {
	// Policy controls how destination collisions are resolved. The zero
	// value is PolicyFail; callers should set opruntime.PolicyAutoRename
	// explicitly to get the documented default, since Go zero-values a
	// plain int to 0 and we don't want a silent policy downgrade.
	Policy opruntime.Policy
	// Concurrency bounds how many operations in a level run at once. Zero
	// means unbounded (errgroup.SetLimit(-1)), limited in practice by the
	// pool the host configures.
	Concurrency int
	// Progress is called after each level completes. May be nil.
	Progress ProgressFunc
	// Cancel is checked between levels only; an in-flight operation is
	// always allowed to finish.
	Cancel *atomic.Bool
}

// Result is the aggregate outcome of one Execute call.
type Result struct {
	Completed int
	Failed    int
	Skipped   int
	Renamed   int
	Errors    []string
	SkipNotes []string
}

// Success reports failed == 0.
func (r Result) Success() bool { return r.Failed == 0 }

// Executor runs journals against a Runtime, persisting every status
// transition through a journalstore.Manager before a dependent entry can
// observe it.
type Executor struct {
	runtime *opruntime.Runtime
	store   *journalstore.Manager
	log     *logging.Logger
}

func New(runtime *opruntime.Runtime, store *journalstore.Manager, log *logging.Logger) *Executor {
	return &Executor{runtime: runtime, store: store, log: log}
}

// Execute builds the DAG for j's entries and runs it level by level.
func (ex *Executor) Execute(ctx context.Context, j *wal.Journal, opts Options) (Result, error) {
	levels, err := dag.Build(j.Entries)
	if err != nil {
		return Result{}, err
	}

	total := uint64(len(j.Entries))
	var processed uint64
	var result Result
	var mu sync.Mutex // guards result and journal mutation/flush together

	for levelIdx, level := range levels {
		if opts.Cancel != nil && opts.Cancel.Load() {
			ex.log.Infof("execution cancelled before level %d", levelIdx)
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		if opts.Concurrency > 0 {
			g.SetLimit(opts.Concurrency)
		}

		for _, entry := range level {
			entry := entry
			g.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = errors.Errorf("panic executing entry %s: %v", entry.ID, r)
					}
				}()
				return ex.runEntry(gctx, j, entry, opts, &mu, &result)
			})
		}

		// The join barrier: no entry in level k+1 starts before every
		// entry in level k has reached a terminal status.
		_ = g.Wait()

		processed += uint64(len(level))
		if opts.Progress != nil {
			opts.Progress(processed, total)
		}

		mu.Lock()
		levelFailed := result.Failed
		mu.Unlock()
		if levelFailed > 0 {
			ex.log.Warnf("level %d had failures, halting remaining levels job=%s", levelIdx, j.JobID)
			break
		}
	}

	return result, nil
}

// runEntry executes a single entry's pipeline: InProgress -> run -> a
// terminal status, flushing the journal after each transition.
func (ex *Executor) runEntry(ctx context.Context, j *wal.Journal, entry *wal.Entry, opts Options, mu *sync.Mutex, result *Result) error {
	if err := ctx.Err(); err != nil {
		return nil
	}

	mu.Lock()
	if err := entry.Transition(wal.StatusInProgress); err != nil {
		mu.Unlock()
		return err
	}
	flushErr := ex.store.Save(j)
	mu.Unlock()
	if flushErr != nil {
		return errors.Wrap(flushErr, "flush journal after InProgress transition")
	}
	ex.log.Info("entry in_progress",
		logging.F("job_id", j.JobID), logging.F("entry_id", entry.ID),
		logging.F("sequence", entry.Sequence), logging.F("op", entry.Operation.Kind))

	outcome, opErr := ex.runtime.Execute(entry.Operation, opts.Policy, j.DestinationClaimed)

	mu.Lock()
	defer mu.Unlock()

	switch {
	case opErr != nil:
		if err := entry.Fail(opErr); err != nil {
			return err
		}
		result.Failed++
		result.Errors = append(result.Errors, entry.ID+": "+opErr.Error())
		ex.log.Error("entry failed",
			logging.F("job_id", j.JobID), logging.F("entry_id", entry.ID),
			logging.F("sequence", entry.Sequence), logging.F("op", entry.Operation.Kind), logging.F("err", opErr))

	case outcome.Skipped:
		if err := entry.MarkSkipped(outcome.SkipReason); err != nil {
			return err
		}
		result.Skipped++
		result.SkipNotes = append(result.SkipNotes, entry.ID+": "+outcome.SkipReason)
		ex.log.Infof("entry skipped id=%s reason=%q job=%s", entry.ID, outcome.SkipReason, j.JobID)

	case outcome.Renamed:
		j.RegisterDestination(outcome.NewPath, entry.Operation.Source)
		if err := entry.MarkRenamed(outcome.NewPath); err != nil {
			return err
		}
		result.Completed++
		result.Renamed++
		ex.log.Infof("entry completed_with_rename id=%s new_path=%s job=%s", entry.ID, outcome.NewPath, j.JobID)

	default:
		if err := entry.Transition(wal.StatusComplete); err != nil {
			return err
		}
		result.Completed++
		ex.log.Infof("entry complete id=%s seq=%d job=%s", entry.ID, entry.Sequence, j.JobID)
	}

	if err := ex.store.Save(j); err != nil {
		return errors.Wrap(err, "flush journal after terminal transition")
	}
	return nil
}
