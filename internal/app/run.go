// Package app wires the library layers into the operations a host (the
// reorgctl CLI, or any other embedder) actually calls: build a journal from
// a plan and run it, or discover and resolve an interrupted one. It is the
// same "thin orchestration over the real packages" role any host app
// wiring a library together plays.
package app

import (
	"context"

	"github.com/pkg/errors"

	"reorgwal/internal/config"
	"reorgwal/internal/executor"
	"reorgwal/internal/journalstore"
	"reorgwal/internal/logging"
	"reorgwal/internal/opruntime"
	"reorgwal/internal/recovery"
	"reorgwal/internal/translate"
	"reorgwal/internal/wal"
)

// App bundles the components every operation needs, constructed once at
// startup and reused across an Execute/Recover/Rollback call.
type App struct {
	cfg     *config.Config
	log     *logging.Logger
	store   *journalstore.Manager
	runtime *opruntime.Runtime
}

// New validates the configured state directory is writable, then
// constructs the App. Failing fast here means a bad state dir (a stale
// SMB mount, a read-only volume) surfaces before any plan is built rather
// than on the first journal flush mid-execution.
func New(cfg *config.Config, log *logging.Logger) (*App, error) {
	store, err := journalstore.New(cfg.StateDir)
	if err != nil {
		return nil, errors.Wrap(err, "open journal store")
	}
	if err := store.CheckWritable(); err != nil {
		return nil, err
	}
	return &App{
		cfg:     cfg,
		log:     log,
		store:   store,
		runtime: opruntime.New(),
	}, nil
}

// Plan translates plan into a journal and persists it, returning the
// journal so the caller can inspect it (or hand it straight to Execute)
// before anything touches the filesystem.
func (a *App) Plan(plan translate.Plan) (*wal.Journal, error) {
	j, err := translate.Translate(plan)
	if err != nil {
		return nil, errors.Wrap(err, "translate plan")
	}
	if err := a.store.Save(j); err != nil {
		return nil, errors.Wrap(err, "persist journal")
	}
	a.log.Info("journal planned",
		logging.F("job_id", j.JobID), logging.F("entries", len(j.Entries)))
	return j, nil
}

// Execute runs j to completion (or first failure) via the executor,
// reporting progress through progress if non-nil.
func (a *App) Execute(ctx context.Context, j *wal.Journal, progress executor.ProgressFunc) (executor.Result, error) {
	ex := executor.New(a.runtime, a.store, a.log)
	opts := executor.Options{
		Policy:      a.cfg.Policy(),
		Concurrency: a.cfg.WorkerPoolSize,
		Progress:    progress,
	}
	result, err := ex.Execute(ctx, j, opts)
	if err != nil {
		return result, errors.Wrap(err, "execute journal")
	}
	if result.Success() && j.Complete() {
		if err := a.store.Discard(j.JobID); err != nil {
			return result, errors.Wrap(err, "discard completed journal")
		}
	}
	return result, nil
}

// Load fetches a previously planned journal by job id.
func (a *App) Load(jobID string) (*wal.Journal, error) {
	return a.store.Load(jobID)
}

// Discover looks for the most recently touched incomplete journal, if
// any, so a host can prompt an operator for resume/rollback/discard
// before doing anything else at startup.
func (a *App) Discover() (*wal.Journal, *recovery.Info, error) {
	return recovery.Discover(a.store)
}

// Resume re-runs an incomplete journal's unfinished entries forward.
func (a *App) Resume(ctx context.Context, j *wal.Journal) (wal.Counts, error) {
	r := recovery.New(a.runtime, a.store, a.log)
	return r.Resume(ctx, j)
}

// Rollback undoes an incomplete journal's completed entries.
func (a *App) Rollback(ctx context.Context, j *wal.Journal) error {
	r := recovery.New(a.runtime, a.store, a.log)
	return r.Rollback(ctx, j)
}

// Discard deletes an incomplete journal without touching the filesystem.
func (a *App) Discard(j *wal.Journal) error {
	r := recovery.New(a.runtime, a.store, a.log)
	return r.Discard(j)
}

// PruneLogs removes files in the configured log directory older than days.
// A no-op when file logging is disabled.
func (a *App) PruneLogs(days int) error {
	settings := a.cfg.LogSettings()
	if settings.NoLogs || settings.LogDir == "" {
		return nil
	}
	return logging.PruneOldLogs(settings.LogDir, days)
}
