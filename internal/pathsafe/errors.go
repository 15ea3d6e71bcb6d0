// Package pathsafe classifies and validates filesystem paths before any
// mutating operation touches them: protected-root refusal, traversal-safe
// destination resolution, symlink-loop detection, and move-cycle checks.
package pathsafe

import "github.com/pkg/errors"

// Sentinel error kinds. Validation errors wrap one of these so callers can
// use errors.Is(err, pathsafe.ErrProtectedPath) regardless of which path or
// operation produced it.
var (
	ErrProtectedPath      = errors.New("protected path")
	ErrPathTraversal      = errors.New("path escapes root")
	ErrSymlinkLoop        = errors.New("symlink loop")
	ErrSameDirectory      = errors.New("source and target are the same directory")
	ErrTargetIsDescendant = errors.New("target is a descendant of source")
	ErrTargetIsSource     = errors.New("target is one of the sources")
	ErrSourceNotFound     = errors.New("source not found")
	ErrTargetNotFound     = errors.New("target not found")
)

// ValidationError wraps one of the sentinels above with the offending path
// (and, for cycle errors, a second path) so messages stay specific while
// errors.Is() keeps working against the sentinel.
type ValidationError struct {
	Kind  error
	Path  string
	Other string
}

func (e *ValidationError) Error() string {
	if e.Other != "" {
		return e.Kind.Error() + ": " + e.Path + " -> " + e.Other
	}
	return e.Kind.Error() + ": " + e.Path
}

func (e *ValidationError) Unwrap() error { return e.Kind }

func newErr(kind error, path string) error {
	return &ValidationError{Kind: kind, Path: path}
}

func newPairErr(kind error, path, other string) error {
	return &ValidationError{Kind: kind, Path: path, Other: other}
}
