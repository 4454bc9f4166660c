// Package layout implements the auto-arrangement engine for 3D mind maps.
//
// Given a root entry, a flat entry list, and an undirected connection
// list, [Arrange] recursively computes new positions for every entry
// reachable from the root. Each node's direct children are spread around
// it — deterministically on the coordinate axes for small sibling sets,
// with an iterative force simulation for larger ones — inside a bounding
// sphere of radius [BoundingRadius] and outside [MinDistance], so children
// neither crowd their parent nor drift away from it.
//
// The engine is pure computation: it holds no state between invocations,
// never mutates its inputs, uses no randomness, and has no dependency on
// any threading primitive. Run it directly for synchronous arrangement or
// behind an arranger handle for background execution with progress
// streaming.
package layout

import (
	"fmt"
	"slices"
	"time"

	"github.com/orbweave/orbweave/pkg/geom"
	"github.com/orbweave/orbweave/pkg/mindmap"
)

// AxisThreshold is the largest sibling count placed on the coordinate
// axes; anything above it goes through the force simulation.
const AxisThreshold = 6

// Scheduler overhead bounds for large graphs. Beyond sortSkipThreshold
// total entries, the subtree-size ordering of siblings is abandoned once
// sortBudget has elapsed and remaining batches recurse in connection-list
// order instead. Either ordering yields a valid layout; the sort only
// improves which branches are finished first.
const (
	sortSkipThreshold = 100
	sortBudget        = 250 * time.Millisecond
)

// ProgressFunc receives arrangement progress as a fraction in [0, 1].
// Reported values are monotonically non-decreasing within one invocation.
type ProgressFunc func(fraction float64)

// Result is the output of an arrangement: the newly computed positions
// for every repositioned entry (the root is never repositioned and is not
// in the map), and a full copy of the input entry list with those
// positions applied.
type Result struct {
	NewPositions   map[string]geom.Vec3 `json:"newPositions"`
	UpdatedEntries []mindmap.Entry      `json:"updatedEntries"`
}

// Arrange computes new positions for every entry reachable from root
// through conns. Entries not reachable from the root are left untouched.
//
// The entry list is deep-copied before any work, so the caller's slice and
// positions are never mutated. The connection graph does not need to be a
// tree: cycles and entries reachable through multiple paths are handled by
// a visited set — the first path to reach an entry decides its position,
// and recursion terminates in O(entries + connections).
//
// progress may be nil. Arrange is deterministic: the same input always
// produces bit-identical positions.
func Arrange(root mindmap.Entry, entries []mindmap.Entry, conns []mindmap.Connection, progress ProgressFunc) (*Result, error) {
	working := make([]mindmap.Entry, len(entries))
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		working[i] = e.Clone()
		if _, dup := index[e.ID]; dup {
			return nil, fmt.Errorf("%w: %s", mindmap.ErrDuplicateEntryID, e.ID)
		}
		index[e.ID] = i
	}

	for _, c := range conns {
		for _, id := range []string{c.SourceID, c.TargetID} {
			if _, ok := index[id]; !ok && id != root.ID {
				return nil, fmt.Errorf("%w: %s", mindmap.ErrUnknownEndpoint, id)
			}
		}
	}

	total := len(entries)
	if total == 0 {
		total = 1
	}

	a := &arrangement{
		entries:      working,
		index:        index,
		adj:          mindmap.Adjacency(conns),
		visited:      make(map[string]struct{}, len(entries)),
		positions:    make(map[string]geom.Vec3),
		total:        total,
		progress:     progress,
		sortDeadline: time.Now().Add(sortBudget),
	}

	// The root anchors the layout and is never repositioned; marking it
	// visited up front also keeps a cyclic connection from treating it as
	// its own descendant.
	a.markVisited(root.ID)
	a.step(root.ID, root.Position)
	a.emit(1)

	return &Result{NewPositions: a.positions, UpdatedEntries: a.entries}, nil
}

// ArrangeMap arranges a mind map around its designated root.
func ArrangeMap(m *mindmap.MindMap, progress ProgressFunc) (*Result, error) {
	root, ok := m.Root()
	if !ok {
		return nil, fmt.Errorf("%w: %q", mindmap.ErrUnknownRoot, m.RootID)
	}
	return Arrange(root, m.Entries, m.Connections, progress)
}

// arrangement carries the state threaded through the recursion: the
// mutable working copy of the entry list, the visited set, and the
// accumulating position map.
type arrangement struct {
	entries   []mindmap.Entry
	index     map[string]int
	adj       map[string][]string
	visited   map[string]struct{}
	positions map[string]geom.Vec3

	total    int
	done     int
	progress ProgressFunc
	last     float64

	sortDeadline time.Time
}

func (a *arrangement) markVisited(id string) {
	if _, ok := a.visited[id]; ok {
		return
	}
	a.visited[id] = struct{}{}
	a.done++
}

// emit reports overall progress, clamped so the stream stays monotone.
func (a *arrangement) emit(fraction float64) {
	if a.progress == nil {
		return
	}
	if fraction > 1 {
		fraction = 1
	}
	if fraction < a.last {
		fraction = a.last
	}
	a.last = fraction
	a.progress(fraction)
}

// step lays out the unvisited children of the current node and recurses
// into each of them, largest subtree first.
func (a *arrangement) step(currentID string, currentPos geom.Vec3) {
	children := a.unvisitedNeighbors(currentID)
	if len(children) == 0 {
		return
	}

	var positions map[string]geom.Vec3
	if len(children) <= AxisThreshold {
		positions = placeOnAxes(currentPos, children)
	} else {
		base := a.done
		positions = simulate(currentPos, children, func(f float64) {
			a.emit((float64(base) + f*float64(len(children))) / float64(a.total))
		})
	}

	// Children are marked visited the moment their position is recorded:
	// the first path to reach an entry wins, and a sibling's recursion
	// cannot reposition it.
	for _, child := range children {
		a.markVisited(child.ID)
		pos := positions[child.ID]
		a.positions[child.ID] = pos
		a.entries[a.index[child.ID]].Position = pos
	}
	a.emit(float64(a.done) / float64(a.total))

	// Largest branches first, so when a consumer time-boxes the stream the
	// bulk of the map is already arranged.
	a.orderBySubtreeSize(children)
	for _, child := range children {
		a.step(child.ID, a.positions[child.ID])
	}
}

// unvisitedNeighbors collects the entries connected to id, in either
// connection role, that have not been positioned yet. Duplicate
// connections contribute one child.
func (a *arrangement) unvisitedNeighbors(id string) []mindmap.Entry {
	var children []mindmap.Entry
	seen := make(map[string]struct{})
	for _, n := range a.adj[id] {
		if _, ok := a.visited[n]; ok {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		children = append(children, a.entries[a.index[n]])
	}
	return children
}

// orderBySubtreeSize sorts children by their unvisited descendant count,
// descending, keeping connection-list order for ties. On graphs beyond
// sortSkipThreshold entries the sort is skipped once sortBudget has
// elapsed, bounding scheduler overhead.
func (a *arrangement) orderBySubtreeSize(children []mindmap.Entry) {
	if len(children) < 2 {
		return
	}
	if a.total > sortSkipThreshold && time.Now().After(a.sortDeadline) {
		return
	}

	sizes := make(map[string]int, len(children))
	for _, c := range children {
		sizes[c.ID] = a.subtreeSize(c.ID)
	}
	slices.SortStableFunc(children, func(x, y mindmap.Entry) int {
		return sizes[y.ID] - sizes[x.ID]
	})
}

// subtreeSize counts the entries reachable from start through nodes not
// yet visited by the scheduler. Siblings are already visited when this
// runs, so each count covers only the branch the child would own.
func (a *arrangement) subtreeSize(start string) int {
	seen := map[string]struct{}{start: {}}
	stack := []string{start}
	count := 0
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, n := range a.adj[id] {
			if _, ok := a.visited[n]; ok {
				continue
			}
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			count++
			stack = append(stack, n)
		}
	}
	return count
}
