// Package dag turns a journal's flat entry list plus dependency edges into
// topologically ordered levels, using Kahn's algorithm: level 0 is every
// entry with no unresolved dependency, then each subsequent level is
// whatever becomes free once the previous level is removed. A residual
// non-empty graph after the algorithm terminates means a cycle.
package dag

import (
	"sort"

	"github.com/pkg/errors"

	"reorgwal/internal/wal"
)

// ErrCycle is returned when entries form a dependency cycle; at least one
// involved entry id is named in the wrapped message.
var ErrCycle = errors.New("cycle in dependencies")

// Level is a maximal set of entries with no dependency on one another;
// the executor runs every entry in a level concurrently.
type Level []*wal.Entry

// Build computes the levels for entries. It owns its output: each Level is
// an independent slice of entries already present in the journal, so the
// caller can hand levels to a scheduler without holding any lock on the
// journal itself.
func Build(entries []*wal.Entry) ([]Level, error) {
	inDegree := make(map[string]int, len(entries))
	dependents := make(map[string][]string, len(entries))
	byID := make(map[string]*wal.Entry, len(entries))

	for _, e := range entries {
		byID[e.ID] = e
		inDegree[e.ID] = len(e.DependsOn)
	}
	for _, e := range entries {
		for _, dep := range e.DependsOn {
			dependents[dep] = append(dependents[dep], e.ID)
		}
	}

	var levels []Level
	remaining := len(entries)

	// frontier holds ids whose in-degree is currently zero but have not
	// yet been placed in a level.
	var frontier []string
	for id, deg := range inDegree {
		if deg == 0 {
			frontier = append(frontier, id)
		}
	}

	for len(frontier) > 0 {
		sort.Strings(frontier) // deterministic level ordering for tests/logs
		level := make(Level, 0, len(frontier))
		for _, id := range frontier {
			level = append(level, byID[id])
		}
		levels = append(levels, level)
		remaining -= len(frontier)

		var next []string
		for _, id := range frontier {
			for _, child := range dependents[id] {
				inDegree[child]--
				if inDegree[child] == 0 {
					next = append(next, child)
				}
			}
		}
		frontier = next
	}

	if remaining > 0 {
		var stuck []string
		for id, deg := range inDegree {
			if deg > 0 {
				stuck = append(stuck, id)
			}
		}
		sort.Strings(stuck)
		return nil, errors.Wrapf(ErrCycle, "entries: %v", stuck)
	}

	return levels, nil
}
