// Package wal defines the durable operation log: the typed Operation
// variants, the Entry status machine, and the Journal that orders entries
// by sequence and tracks dependency edges and the destination registry.
//
// Nothing in this package touches the filesystem. It is pure data plus the
// state-transition rules that govern it; internal/opruntime performs the
// actual moves, copies, and deletes that Operations describe.
package wal

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
)

// Kind identifies which variant an Operation carries. It is a closed set:
// loading a journal with an unrecognized Kind is a hard error rather than
// a silently skipped operation (spec: never execute an unrecognized op).
type Kind string

const (
	KindCreateFolder Kind = "create_folder"
	KindMove         Kind = "move"
	KindRename       Kind = "rename"
	KindCopy         Kind = "copy"
	KindQuarantine   Kind = "quarantine"
	KindDeleteFolder Kind = "delete_folder"
)

func (k Kind) valid() bool {
	switch k {
	case KindCreateFolder, KindMove, KindRename, KindCopy, KindQuarantine, KindDeleteFolder:
		return true
	default:
		return false
	}
}

// ErrUnknownOperationTag is returned when a journal on disk names an
// Operation Kind this build does not recognize.
var ErrUnknownOperationTag = errors.New("unknown operation tag")

// Operation is a tagged variant over the six mutations this system knows
// how to plan and execute. Only the fields relevant to Kind are populated;
// callers should use the constructors below rather than building Operation
// literals by hand so Description stays consistent.
type Operation struct {
	Kind           Kind   `json:"type"`
	Path           string `json:"path,omitempty"`
	Source         string `json:"source,omitempty"`
	Destination    string `json:"destination,omitempty"`
	NewName        string `json:"new_name,omitempty"`
	QuarantinePath string `json:"quarantine_path,omitempty"`
	Description    string `json:"description"`
}

// operationWire mirrors Operation for JSON decoding so UnmarshalJSON can
// validate Kind before accepting the rest of the payload.
type operationWire Operation

// UnmarshalJSON rejects tags outside the closed Kind set. This is the one
// place in the codebase where an unrecognized on-disk value must become a
// hard load error instead of being ignored or defaulted.
func (o *Operation) UnmarshalJSON(data []byte) error {
	var w operationWire
	if err := json.Unmarshal(data, &w); err != nil {
		return errors.Wrap(err, "decode operation")
	}
	if !Kind(w.Kind).valid() {
		return errors.Wrapf(ErrUnknownOperationTag, "%q", w.Kind)
	}
	*o = Operation(w)
	return nil
}

func NewCreateFolder(path string) Operation {
	return Operation{
		Kind:        KindCreateFolder,
		Path:        path,
		Description: fmt.Sprintf("create folder %s", path),
	}
}

func NewMove(source, destination string) Operation {
	return Operation{
		Kind:        KindMove,
		Source:      source,
		Destination: destination,
		Description: fmt.Sprintf("move %s to %s", source, destination),
	}
}

func NewRename(path, newName string) Operation {
	return Operation{
		Kind:        KindRename,
		Path:        path,
		NewName:     newName,
		Description: fmt.Sprintf("rename %s to %s", path, newName),
	}
}

func NewCopy(source, destination string) Operation {
	return Operation{
		Kind:        KindCopy,
		Source:      source,
		Destination: destination,
		Description: fmt.Sprintf("copy %s to %s", source, destination),
	}
}

func NewQuarantine(path, quarantinePath string) Operation {
	return Operation{
		Kind:           KindQuarantine,
		Path:           path,
		QuarantinePath: quarantinePath,
		Description:    fmt.Sprintf("quarantine %s to %s", path, quarantinePath),
	}
}

func NewDeleteFolder(path string) Operation {
	return Operation{
		Kind:        KindDeleteFolder,
		Path:        path,
		Description: fmt.Sprintf("delete folder %s", path),
	}
}

// RenamedPath returns the path a Rename operation's target occupies after
// it runs: parent(path)/new_name. Used both by the runtime and by Inverse.
func (o Operation) RenamedPath() string {
	return filepath.Join(filepath.Dir(o.Path), o.NewName)
}

// Inverse returns the deterministic inverse of op, per the forward/inverse
// table below. DeleteFolder has no unconditional inverse: whether a
// delete is undoable depends on whether the deleted folder was created by
// this same plan, a fact only the translator knows, so callers that build
// DeleteFolder entries must supply their own undo operation (or none).
func Inverse(op Operation) (Operation, bool) {
	switch op.Kind {
	case KindCreateFolder:
		return NewDeleteFolder(op.Path), true
	case KindMove:
		return NewMove(op.Destination, op.Source), true
	case KindRename:
		return NewRename(op.RenamedPath(), filepath.Base(op.Path)), true
	case KindCopy:
		return NewDeleteFolder(op.Destination), true
	case KindQuarantine:
		return NewMove(op.QuarantinePath, op.Path), true
	case KindDeleteFolder:
		return Operation{}, false
	default:
		return Operation{}, false
	}
}
