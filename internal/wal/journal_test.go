package wal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJournalAppendAssignsSequence(t *testing.T) {
	j := New("job-1", "/target")

	e1 := NewEntry(NewCreateFolder("/target/a"), nil)
	require.NoError(t, j.Append(e1))
	require.Equal(t, 1, e1.Sequence)

	e2 := NewEntry(NewMove("/target/a/x", "/target/b/x"), nil)
	require.NoError(t, j.Append(e2, e1.ID))
	require.Equal(t, 2, e2.Sequence)
	require.Equal(t, []string{e1.ID}, e2.DependsOn)
}

func TestJournalAppendUnknownDependencyFails(t *testing.T) {
	j := New("job-1", "/target")
	e := NewEntry(NewCreateFolder("/target/a"), nil)
	err := j.Append(e, "does-not-exist")
	require.ErrorIs(t, err, ErrUnknownDependency)
}

func TestJournalCompleteAndCounts(t *testing.T) {
	j := New("job-1", "/target")
	e1 := NewEntry(NewCreateFolder("/target/a"), nil)
	e2 := NewEntry(NewCreateFolder("/target/b"), nil)
	require.NoError(t, j.Append(e1))
	require.NoError(t, j.Append(e2))

	require.False(t, j.Complete())

	require.NoError(t, e1.Transition(StatusInProgress))
	require.NoError(t, e1.Transition(StatusComplete))
	require.False(t, j.Complete())

	require.NoError(t, e2.Transition(StatusInProgress))
	require.NoError(t, e2.Transition(StatusFailed))
	require.True(t, j.Complete())

	counts := j.Counts()
	require.Equal(t, 1, counts.Complete)
	require.Equal(t, 1, counts.Failed)
}

func TestJournalDestinationRegistry(t *testing.T) {
	j := New("job-1", "/target")
	require.False(t, j.DestinationClaimed("/target/a"))
	require.True(t, j.RegisterDestination("/target/a", "/src/a"))
	require.True(t, j.DestinationClaimed("/target/a"))
	require.False(t, j.RegisterDestination("/target/a", "/src/b"))
}

func TestJournalRoundTripRebuildsIndex(t *testing.T) {
	j := New("job-1", "/target")
	e1 := NewEntry(NewCreateFolder("/target/a"), nil)
	require.NoError(t, j.Append(e1))
	e2 := NewEntry(NewMove("/target/a/x", "/target/b/x"), nil)
	require.NoError(t, j.Append(e2, e1.ID))

	data, err := json.Marshal(j)
	require.NoError(t, err)

	var loaded Journal
	require.NoError(t, json.Unmarshal(data, &loaded))

	got, ok := loaded.Get(e2.ID)
	require.True(t, ok)
	require.Equal(t, e2.Sequence, got.Sequence)

	e3 := NewEntry(NewCreateFolder("/target/c"), nil)
	require.NoError(t, loaded.Append(e3))
	require.Equal(t, 3, e3.Sequence)
}

func TestJournalPlanSizeExceeded(t *testing.T) {
	j := New("job-1", "/target")
	// Fill the journal to its cap directly rather than appending MaxEntries
	// real entries one at a time.
	for i := 0; i < MaxEntries; i++ {
		dummy := NewEntry(NewCreateFolder("/target/x"), nil)
		dummy.Sequence = i
		j.Entries = append(j.Entries, dummy)
		j.byID[dummy.ID] = dummy
	}
	j.nextSeq = MaxEntries

	e := NewEntry(NewCreateFolder("/target/over"), nil)
	err := j.Append(e)
	require.ErrorIs(t, err, ErrPlanSizeExceeded)
}
