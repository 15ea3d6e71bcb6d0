package translate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"reorgwal/internal/wal"
)

func TestTranslateSimpleMove(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))

	plan := Plan{
		TargetFolder: root,
		Intents: []Intent{
			{Kind: Move, Source: filepath.Join(root, "a.txt"), Destination: filepath.Join(root, "archive", "a.txt")},
		},
	}

	j, err := Translate(plan)
	require.NoError(t, err)
	require.Len(t, j.Entries, 2) // CreateFolder(archive) + Move

	create := j.Entries[0]
	require.Equal(t, wal.KindCreateFolder, create.Operation.Kind)
	move := j.Entries[1]
	require.Equal(t, wal.KindMove, move.Operation.Kind)
	require.Equal(t, []string{create.ID}, move.DependsOn)
}

func TestTranslateRenameSource(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "old.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	plan := Plan{
		TargetFolder: root,
		Intents: []Intent{
			{Kind: Rename, Path: src, NewName: "new.txt"},
		},
	}

	j, err := Translate(plan)
	require.NoError(t, err)
	require.Len(t, j.Entries, 1)
	require.Equal(t, "new.txt", j.Entries[0].Operation.NewName)
}

func TestTranslateRenameMissingSourceFails(t *testing.T) {
	root := t.TempDir()
	plan := Plan{
		TargetFolder: root,
		Intents: []Intent{
			{Kind: Rename, Path: filepath.Join(root, "missing.txt"), NewName: "new.txt"},
		},
	}
	_, err := Translate(plan)
	require.Error(t, err)
}

func TestTranslateCollisionAutoRenamesInPlan(t *testing.T) {
	root := t.TempDir()
	src1 := filepath.Join(root, "a.txt")
	src2 := filepath.Join(root, "b.txt")
	require.NoError(t, os.WriteFile(src1, []byte("1"), 0o644))
	require.NoError(t, os.WriteFile(src2, []byte("2"), 0o644))
	dest := filepath.Join(root, "archive", "out.txt")

	plan := Plan{
		TargetFolder: root,
		Intents: []Intent{
			{Kind: Move, Source: src1, Destination: dest},
			{Kind: Move, Source: src2, Destination: dest},
		},
	}

	j, err := Translate(plan)
	require.NoError(t, err)

	var moveOps []string
	for _, e := range j.Entries {
		if e.Operation.Kind == wal.KindMove {
			moveOps = append(moveOps, e.Operation.Destination)
		}
	}
	require.Len(t, moveOps, 2)
	require.NotEqual(t, moveOps[0], moveOps[1])
}

func TestTranslateDeleteFolderCreatedByPlanHasUndo(t *testing.T) {
	root := t.TempDir()
	plan := Plan{
		TargetFolder: root,
		Intents: []Intent{
			{Kind: CreateFolder, Path: filepath.Join(root, "tmp")},
			{Kind: DeleteFolder, Path: filepath.Join(root, "tmp")},
		},
	}

	j, err := Translate(plan)
	require.NoError(t, err)
	require.Len(t, j.Entries, 2)
	del := j.Entries[1]
	require.Equal(t, wal.KindDeleteFolder, del.Operation.Kind)
	require.NotNil(t, del.UndoOperation)
	require.Equal(t, wal.KindCreateFolder, del.UndoOperation.Kind)
}

func TestTranslateDeleteFolderPreexistingHasNoUndo(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "preexisting")
	require.NoError(t, os.Mkdir(existing, 0o755))

	plan := Plan{
		TargetFolder: root,
		Intents: []Intent{
			{Kind: DeleteFolder, Path: existing},
		},
	}

	j, err := Translate(plan)
	require.NoError(t, err)
	require.Len(t, j.Entries, 1)
	require.Nil(t, j.Entries[0].UndoOperation)
}
