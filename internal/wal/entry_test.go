package wal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEntryTransitions(t *testing.T) {
	e := NewEntry(NewCreateFolder("/a"), nil)
	require.Equal(t, StatusPending, e.Status)

	require.NoError(t, e.Transition(StatusInProgress))
	require.NoError(t, e.Transition(StatusComplete))
	require.True(t, e.Status.Terminal())

	err := e.Transition(StatusInProgress)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestEntryFail(t *testing.T) {
	e := NewEntry(NewMove("/a", "/b"), nil)
	require.NoError(t, e.Transition(StatusInProgress))

	cause := errors.New("disk full")
	require.NoError(t, e.Fail(cause))
	require.Equal(t, StatusFailed, e.Status)
	require.Contains(t, e.Error, "disk full")
}

func TestEntryRollBackFromComplete(t *testing.T) {
	e := NewEntry(NewMove("/a", "/b"), nil)
	require.NoError(t, e.Transition(StatusInProgress))
	require.NoError(t, e.Transition(StatusComplete))
	require.NoError(t, e.RollBack(nil))
	require.Equal(t, StatusRolledBack, e.Status)
}

func TestPendingCanRollBackDirectly(t *testing.T) {
	e := NewEntry(NewCreateFolder("/a"), nil)
	require.NoError(t, e.RollBack(nil))
	require.Equal(t, StatusRolledBack, e.Status)
}
