// Package translate is the planner/executor boundary: it turns an
// external planner's flat list of intents (create-folder / move / rename
// / copy / quarantine / delete, each carrying a human description, in the
// shape of a ReorganizationPlan/Move from the Go rendition of the same
// split other implementations use) into a wal.Journal with dependency
// edges and a populated destination registry. Nothing upstream of this
// package is in scope: the AI planner that produced the Intents is an
// external collaborator specified only by this input shape.
package translate

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"reorgwal/internal/pathsafe"
	"reorgwal/internal/wal"
)

// IntentKind mirrors wal.Kind at the planner boundary so callers building
// a Plan never need to import the wal package directly.
type IntentKind = wal.Kind

const (
	CreateFolder = wal.KindCreateFolder
	Move         = wal.KindMove
	Rename       = wal.KindRename
	Copy         = wal.KindCopy
	Quarantine   = wal.KindQuarantine
	DeleteFolder = wal.KindDeleteFolder
)

// Intent is one planner-proposed mutation, prior to sequencing,
// dependency wiring, or collision resolution.
type Intent struct {
	Kind           IntentKind `json:"type"`
	Path           string     `json:"path,omitempty"`
	Source         string     `json:"source,omitempty"`
	Destination    string     `json:"destination,omitempty"`
	NewName        string     `json:"new_name,omitempty"`
	QuarantinePath string     `json:"quarantine_path,omitempty"`
	// Reason, if set, overrides the default generated Description —
	// planners (human or AI) often have a better explanation than a
	// templated one.
	Reason string `json:"reason,omitempty"`
}

// Plan is the translator's input: a target root every destination must
// resolve under, plus the flat list of intents a planner produced. Its
// JSON shape is what an external planner (human-authored or AI-proposed,
// per the dackerman-curator ReorganizationPlan precedent) writes to a
// plan file for reorgctl plan to consume.
type Plan struct {
	JobID        string   `json:"job_id,omitempty"`
	TargetFolder string   `json:"target_folder"`
	Intents      []Intent `json:"intents"`
}

// Translate validates every intent, resolves in-plan destination
// collisions, wires dependency edges (a move/copy/quarantine whose
// destination folder does not exist yet depends on the CreateFolder entry
// for that folder; a rename has no dependency), and returns a
// ready-to-persist journal. No filesystem mutation happens here or in
// anything this function calls — only the Journal's validator passes over
// paths that already exist.
func Translate(plan Plan) (*wal.Journal, error) {
	validator := pathsafe.NewValidator()

	root, err := filepath.Abs(plan.TargetFolder)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve target folder: %s", plan.TargetFolder)
	}
	if _, err := os.Stat(root); err != nil {
		return nil, errors.Wrapf(err, "target folder does not exist: %s", root)
	}

	jobID := plan.JobID
	if jobID == "" {
		jobID = uuid.NewString()
	}
	j := wal.New(jobID, root)

	// createdByPlan tracks folders this plan itself introduces via
	// CreateFolder intents, so a later DeleteFolder intent against one of
	// them can carry a real CreateFolder undo while deletes of pre-existing folders cannot.
	createdByPlan := make(map[string]bool)
	// folderEntry maps a folder path to the id of the entry that creates
	// it (ours or the planner's own CreateFolder intent), so dependent
	// entries can wire depends_on correctly without a second pass.
	folderEntry := make(map[string]string)

	var ensureParentFolder func(path string) (string, error)
	ensureParentFolder = func(path string) (string, error) {
		parent := filepath.Dir(path)
		if parent == root || len(parent) <= len(root) {
			return "", nil
		}
		if id, ok := folderEntry[parent]; ok {
			return id, nil
		}
		if _, err := os.Stat(parent); err == nil {
			return "", nil
		}

		// Recursively ensure the grandparent exists first so dependency
		// edges chain correctly for deeply nested destinations.
		grandparentID, err := ensureParentFolder(parent)
		if err != nil {
			return "", err
		}

		entry := wal.NewEntry(wal.NewCreateFolder(parent), undoPtr(wal.NewDeleteFolder(parent)))
		var deps []string
		if grandparentID != "" {
			deps = append(deps, grandparentID)
		}
		if err := j.Append(entry, deps...); err != nil {
			return "", err
		}
		createdByPlan[parent] = true
		folderEntry[parent] = entry.ID
		return entry.ID, nil
	}

	for _, intent := range plan.Intents {
		if err := appendIntent(j, validator, root, intent, folderEntry, createdByPlan, ensureParentFolder); err != nil {
			return nil, err
		}
	}

	return j, nil
}

func undoPtr(op wal.Operation) *wal.Operation { return &op }

func appendIntent(
	j *wal.Journal,
	validator *pathsafe.Validator,
	root string,
	intent Intent,
	folderEntry map[string]string,
	createdByPlan map[string]bool,
	ensureParentFolder func(string) (string, error),
) error {
	switch intent.Kind {
	case wal.KindCreateFolder:
		dest, err := validator.ValidateDestination(intent.Path, root, true)
		if err != nil {
			return err
		}
		entry := wal.NewEntry(wal.NewCreateFolder(dest), undoPtr(wal.NewDeleteFolder(dest)))
		applyReason(&entry.Operation, intent.Reason)
		if err := j.Append(entry); err != nil {
			return err
		}
		createdByPlan[dest] = true
		folderEntry[dest] = entry.ID
		return nil

	case wal.KindMove, wal.KindCopy, wal.KindQuarantine:
		source := intent.Source
		dest := intent.Destination
		if intent.Kind == wal.KindQuarantine {
			source = intent.Path
			dest = intent.QuarantinePath
		}

		if intent.Kind == wal.KindMove || intent.Kind == wal.KindQuarantine {
			// The destination usually does not exist yet, so the cycle
			// check runs against its nearest existing ancestor; reaching
			// the source itself that way means dest lies inside source.
			target := dest
			for {
				if _, err := os.Stat(target); err == nil || filepath.Dir(target) == target {
					break
				}
				target = filepath.Dir(target)
			}
			if err := validator.WouldCreateCycle(source, target); err != nil {
				if target != dest && errors.Is(err, pathsafe.ErrSameDirectory) {
					return errors.Wrapf(pathsafe.ErrTargetIsDescendant, "%s -> %s", source, dest)
				}
				return err
			}
		}

		dest, err := validator.ValidateDestination(dest, root, true)
		if err != nil {
			return err
		}
		dest = resolveCollision(j, dest, source)

		depID, err := ensureParentFolder(dest)
		if err != nil {
			return err
		}

		var op wal.Operation
		switch intent.Kind {
		case wal.KindMove:
			op = wal.NewMove(source, dest)
		case wal.KindCopy:
			op = wal.NewCopy(source, dest)
		case wal.KindQuarantine:
			op = wal.NewQuarantine(source, dest)
		}
		applyReason(&op, intent.Reason)

		undo, _ := wal.Inverse(op)
		entry := wal.NewEntry(op, &undo)
		var deps []string
		if depID != "" {
			deps = append(deps, depID)
		}
		if err := j.Append(entry, deps...); err != nil {
			return err
		}
		j.RegisterDestination(dest, source)
		return nil

	case wal.KindRename:
		if _, err := os.Stat(intent.Path); err != nil {
			return errors.Wrapf(err, "rename source does not exist: %s", intent.Path)
		}
		if validator.IsProtected(intent.Path) {
			return errors.Wrapf(pathsafe.ErrProtectedPath, "rename source: %s", intent.Path)
		}
		dest := filepath.Join(filepath.Dir(intent.Path), intent.NewName)
		dest = resolveCollision(j, dest, intent.Path)
		newName := filepath.Base(dest)

		op := wal.NewRename(intent.Path, newName)
		applyReason(&op, intent.Reason)
		undo, _ := wal.Inverse(op)
		entry := wal.NewEntry(op, &undo)
		if err := j.Append(entry); err != nil {
			return err
		}
		j.RegisterDestination(dest, intent.Path)
		return nil

	case wal.KindDeleteFolder:
		dest, err := validator.ValidateDestination(intent.Path, root, true)
		if err != nil {
			return err
		}
		op := wal.NewDeleteFolder(dest)
		applyReason(&op, intent.Reason)

		var undo *wal.Operation
		if createdByPlan[dest] {
			createOp := wal.NewCreateFolder(dest)
			undo = &createOp
		}
		entry := wal.NewEntry(op, undo)
		var deps []string
		if id, ok := folderEntry[dest]; ok {
			deps = append(deps, id)
		}
		return j.Append(entry, deps...)

	default:
		return errors.Wrapf(wal.ErrUnknownOperationTag, "%q", intent.Kind)
	}
}

func applyReason(op *wal.Operation, reason string) {
	if reason != "" {
		op.Description = reason
	}
}

// resolveCollision rewrites dest with a numeric (then UUID) suffix when it
// is already claimed by an earlier entry in the same journal. src is
// unused once rewritten but kept for symmetry with RegisterDestination's
// (dest, src) signature.
func resolveCollision(j *wal.Journal, dest, src string) string {
	if !j.DestinationClaimed(dest) {
		return dest
	}
	return pathsafe.UniqueDestination(dest, j.DestinationClaimed)
}
