package wal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOperationRoundTrip(t *testing.T) {
	op := NewMove("/src/a.txt", "/dst/a.txt")
	data, err := json.Marshal(op)
	require.NoError(t, err)

	var out Operation
	require.NoError(t, json.Unmarshal(data, &out))
	require.Equal(t, op, out)
}

func TestUnmarshalUnknownKindFails(t *testing.T) {
	var op Operation
	err := json.Unmarshal([]byte(`{"type":"teleport","path":"/x"}`), &op)
	require.ErrorIs(t, err, ErrUnknownOperationTag)
}

func TestInverse(t *testing.T) {
	cases := []struct {
		name string
		op   Operation
		want Operation
		ok   bool
	}{
		{
			name: "move inverts to reverse move",
			op:   NewMove("/a", "/b"),
			want: NewMove("/b", "/a"),
			ok:   true,
		},
		{
			name: "rename inverts to reverse rename",
			op:   NewRename("/dir/old.txt", "new.txt"),
			want: NewRename("/dir/new.txt", "old.txt"),
			ok:   true,
		},
		{
			name: "copy inverts to delete of the copy",
			op:   NewCopy("/a", "/b"),
			want: NewDeleteFolder("/b"),
			ok:   true,
		},
		{
			name: "quarantine inverts to reverse move",
			op:   NewQuarantine("/a", "/quarantine/a"),
			want: NewMove("/quarantine/a", "/a"),
			ok:   true,
		},
		{
			name: "create_folder inverts to delete_folder",
			op:   NewCreateFolder("/a/new"),
			want: NewDeleteFolder("/a/new"),
			ok:   true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Inverse(tc.op)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.want.Kind, got.Kind)
			require.Equal(t, tc.want.Source, got.Source)
			require.Equal(t, tc.want.Destination, got.Destination)
			require.Equal(t, tc.want.Path, got.Path)
			require.Equal(t, tc.want.NewName, got.NewName)
		})
	}

	t.Run("delete_folder has no unconditional inverse", func(t *testing.T) {
		_, ok := Inverse(NewDeleteFolder("/a"))
		require.False(t, ok)
	})
}

func TestRenamedPath(t *testing.T) {
	op := NewRename("/dir/old.txt", "new.txt")
	require.Equal(t, "/dir/new.txt", op.RenamedPath())
}
