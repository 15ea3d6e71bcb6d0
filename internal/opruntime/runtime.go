// Package opruntime implements the actual filesystem primitives behind
// each Operation kind: the parent-exists invariants, the rename-then-
// copy-then-unlink fallback for cross-filesystem moves, and the recursive
// copy helper. Nothing here knows about journals or levels — it executes
// one Operation and reports what happened.
package opruntime

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"reorgwal/internal/pathsafe"
	"reorgwal/internal/wal"
)

// Policy controls how a destination collision is handled.
type Policy int

const (
	PolicyFail Policy = iota
	PolicySkip
	PolicyAutoRename
)

// ErrSourceMissing and ErrDestinationExists are the execution-layer
// sentinel errors every operation reports through; other filesystem
// failures are wrapped with github.com/pkg/errors instead of a dedicated
// sentinel since their cause varies by errno.
var (
	ErrSourceMissing     = errors.New("source missing")
	ErrDestinationExists = errors.New("destination exists")
)

// Claimed reports whether a candidate destination is already taken by
// another entry in the same journal (the planning-time registry). It has
// the same shape as pathsafe.Claimed so the two compose directly.
type Claimed = pathsafe.Claimed

// Outcome describes what actually happened for an entry that did not
// fail outright: a plain success, a skip (with a human reason), or a
// completion against an auto-renamed destination.
type Outcome struct {
	Skipped    bool
	SkipReason string
	Renamed    bool
	NewPath    string
}

// Runtime executes Operations against the real filesystem.
type Runtime struct {
	validator *pathsafe.Validator
}

// New returns a ready-to-use Runtime.
func New() *Runtime {
	return &Runtime{validator: pathsafe.NewValidator()}
}

// Execute runs op to completion (or skip, or failure) and reports the
// outcome. policy and claimed are only consulted for operations that
// write to a destination that might already be taken (Move, Rename,
// Copy, Quarantine); CreateFolder and DeleteFolder ignore them.
func (rt *Runtime) Execute(op wal.Operation, policy Policy, claimed Claimed) (Outcome, error) {
	switch op.Kind {
	case wal.KindCreateFolder:
		return Outcome{}, rt.createFolder(op.Path)
	case wal.KindMove:
		return rt.move(op.Source, op.Destination, policy, claimed)
	case wal.KindRename:
		return rt.rename(op.Path, op.NewName, policy, claimed)
	case wal.KindCopy:
		return rt.copy(op.Source, op.Destination, policy, claimed)
	case wal.KindQuarantine:
		return rt.move(op.Path, op.QuarantinePath, policy, claimed)
	case wal.KindDeleteFolder:
		return Outcome{}, rt.deleteFolder(op.Path)
	default:
		return Outcome{}, errors.Errorf("opruntime: unhandled operation kind %q", op.Kind)
	}
}

// createFolder is idempotent: an already-existing folder is success, so a
// resumed CreateFolder entry never fails just because a prior attempt
// already finished the work before a crash.
func (rt *Runtime) createFolder(path string) error {
	if fi, err := os.Stat(path); err == nil {
		if !fi.IsDir() {
			return errors.Errorf("create folder: %s exists and is not a directory", path)
		}
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return errors.Wrapf(err, "create folder: %s", path)
	}
	return nil
}

// move implements the Move contract plus the source-missing /
// destination-exists heuristics, which live here rather than in the
// executor because only the runtime can cheaply stat both paths.
func (rt *Runtime) move(source, destination string, policy Policy, claimed Claimed) (Outcome, error) {
	if rt.validator.IsProtected(source) {
		return Outcome{}, errors.Wrapf(pathsafe.ErrProtectedPath, "move source: %s", source)
	}

	sourceExists := pathExists(source)
	destExists := pathExists(destination)

	if !sourceExists {
		if destExists {
			return Outcome{Skipped: true, SkipReason: "Source missing but destination exists"}, nil
		}
		return Outcome{}, errors.Wrapf(ErrSourceMissing, "move source: %s", source)
	}

	finalDest := destination
	renamed := false
	if destExists {
		switch policy {
		case PolicyFail:
			return Outcome{}, errors.Wrapf(ErrDestinationExists, "move destination: %s", destination)
		case PolicySkip:
			return Outcome{Skipped: true, SkipReason: "destination already exists"}, nil
		case PolicyAutoRename:
			finalDest = pathsafe.UniqueDestination(destination, claimed)
			renamed = true
		}
	}

	if err := ensureParent(finalDest); err != nil {
		return Outcome{}, err
	}

	if err := os.Rename(source, finalDest); err != nil {
		if err := recursiveCopy(source, finalDest); err != nil {
			return Outcome{}, errors.Wrapf(err, "copy fallback for move: %s -> %s", source, finalDest)
		}
		if err := os.RemoveAll(source); err != nil {
			return Outcome{}, errors.Wrapf(err, "remove source after copy fallback: %s", source)
		}
	}

	return Outcome{Renamed: renamed, NewPath: finalDest}, nil
}

// rename is purely intra-directory: compute parent(p)/n and apply the
// conflict policy against that single target.
func (rt *Runtime) rename(path, newName string, policy Policy, claimed Claimed) (Outcome, error) {
	if rt.validator.IsProtected(path) {
		return Outcome{}, errors.Wrapf(pathsafe.ErrProtectedPath, "rename: %s", path)
	}
	if !pathExists(path) {
		return Outcome{}, errors.Wrapf(ErrSourceMissing, "rename source: %s", path)
	}

	target := wal.Operation{Path: path, NewName: newName}.RenamedPath()
	finalTarget := target
	renamed := false
	if pathExists(target) {
		switch policy {
		case PolicyFail:
			return Outcome{}, errors.Wrapf(ErrDestinationExists, "rename target: %s", target)
		case PolicySkip:
			return Outcome{Skipped: true, SkipReason: "destination already exists"}, nil
		case PolicyAutoRename:
			finalTarget = pathsafe.UniqueDestination(target, claimed)
			renamed = true
		}
	}

	if err := os.Rename(path, finalTarget); err != nil {
		return Outcome{}, errors.Wrapf(err, "rename %s -> %s", path, finalTarget)
	}
	return Outcome{Renamed: renamed, NewPath: finalTarget}, nil
}

// copy implements the Copy contract: source must exist, destination
// must not (subject to policy), deep-copy directories and byte-copy
// files.
func (rt *Runtime) copy(source, destination string, policy Policy, claimed Claimed) (Outcome, error) {
	if !pathExists(source) {
		return Outcome{}, errors.Wrapf(ErrSourceMissing, "copy source: %s", source)
	}

	finalDest := destination
	renamed := false
	if pathExists(destination) {
		switch policy {
		case PolicyFail:
			return Outcome{}, errors.Wrapf(ErrDestinationExists, "copy destination: %s", destination)
		case PolicySkip:
			return Outcome{Skipped: true, SkipReason: "destination already exists"}, nil
		case PolicyAutoRename:
			finalDest = pathsafe.UniqueDestination(destination, claimed)
			renamed = true
		}
	}

	if err := ensureParent(finalDest); err != nil {
		return Outcome{}, err
	}
	if err := recursiveCopy(source, finalDest); err != nil {
		return Outcome{}, errors.Wrapf(err, "copy %s -> %s", source, finalDest)
	}
	return Outcome{Renamed: renamed, NewPath: finalDest}, nil
}

// deleteFolder implements the DeleteFolder contract: absent is
// success, a file is unlinked, an empty directory uses the rmdir fast
// path, and a non-empty directory is recursively removed unless it is a
// protected root.
func (rt *Runtime) deleteFolder(path string) error {
	fi, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "stat for delete: %s", path)
	}

	if !fi.IsDir() {
		if err := os.Remove(path); err != nil {
			return errors.Wrapf(err, "delete file: %s", path)
		}
		return nil
	}

	empty, err := dirEmpty(path)
	if err != nil {
		return errors.Wrapf(err, "read directory for delete: %s", path)
	}
	if empty {
		if err := os.Remove(path); err != nil {
			return errors.Wrapf(err, "rmdir: %s", path)
		}
		return nil
	}

	if rt.validator.IsProtected(path) {
		return errors.Wrapf(pathsafe.ErrProtectedPath, "refusing recursive delete: %s", path)
	}
	if err := os.RemoveAll(path); err != nil {
		return errors.Wrapf(err, "recursive delete: %s", path)
	}
	return nil
}

// pathExists reports existence the same conservative way
// this repo wants it: a permission error (or any
// error other than "not found") is treated as "exists" so callers don't
// clobber something they can't fully see.
func pathExists(path string) bool {
	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	return !os.IsNotExist(err)
}

// dirEmpty reports whether path has zero entries.
func dirEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

// ensureParent creates dest's parent directory tree if it does not
// already exist, enforcing the "destination parent must exist" invariant
// every write operation relies on.
func ensureParent(dest string) error {
	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return errors.Wrapf(err, "create parent directory: %s", parent)
	}
	return nil
}
