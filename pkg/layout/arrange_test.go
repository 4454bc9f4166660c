package layout

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/orbweave/orbweave/pkg/geom"
	"github.com/orbweave/orbweave/pkg/mindmap"
)

func entry(id string, x, y, z float64) mindmap.Entry {
	return mindmap.Entry{ID: id, Position: geom.New(x, y, z)}
}

func conn(a, b string) mindmap.Connection {
	return mindmap.Connection{SourceID: a, TargetID: b}
}

func dist(a, b geom.Vec3) float64 {
	d := a
	d.Sub(b)
	return d.Length()
}

func TestArrangeSimpleTree(t *testing.T) {
	root := entry("R", 0, 0, 0)
	entries := []mindmap.Entry{
		root,
		entry("A", 0, 0, 0),
		entry("B", 0, 0, 0),
		entry("A1", 0, 0, 0),
		entry("B1", 0, 0, 0),
	}
	conns := []mindmap.Connection{
		conn("R", "A"), conn("R", "B"),
		conn("A", "A1"), conn("B", "B1"),
	}

	res, err := Arrange(root, entries, conns, nil)
	if err != nil {
		t.Fatalf("Arrange: %v", err)
	}

	if len(res.NewPositions) != 4 {
		t.Fatalf("len(NewPositions) = %d, want 4", len(res.NewPositions))
	}
	if _, ok := res.NewPositions["R"]; ok {
		t.Error("root must not be repositioned")
	}

	parents := map[string]string{"A": "R", "B": "R", "A1": "A", "B1": "B"}
	positions := map[string]geom.Vec3{"R": root.Position}
	for id, p := range res.NewPositions {
		positions[id] = p
	}
	for child, parent := range parents {
		if d := dist(positions[child], positions[parent]); d > BoundingRadius {
			t.Errorf("%s is %.2f from %s, want <= %v", child, d, parent, BoundingRadius)
		}
	}
}

func TestArrangeReachabilityClosure(t *testing.T) {
	root := entry("R", 0, 0, 0)
	entries := []mindmap.Entry{root, entry("A", 1, 1, 1), entry("B", 9, 9, 9)}
	conns := []mindmap.Connection{conn("R", "A")} // B is disconnected

	res, err := Arrange(root, entries, conns, nil)
	if err != nil {
		t.Fatalf("Arrange: %v", err)
	}

	if _, ok := res.NewPositions["A"]; !ok {
		t.Error("A is reachable and must be repositioned")
	}
	if _, ok := res.NewPositions["B"]; ok {
		t.Error("B is disconnected and must not appear in NewPositions")
	}
	if _, ok := res.NewPositions["R"]; ok {
		t.Error("root must not appear in NewPositions")
	}

	// Disconnected entries keep their original position in the updated list.
	for _, e := range res.UpdatedEntries {
		if e.ID == "B" && e.Position != geom.New(9, 9, 9) {
			t.Errorf("B moved to %v, want untouched", e.Position)
		}
	}
}

func TestArrangeDiamondVisitsOnce(t *testing.T) {
	root := entry("R", 0, 0, 0)
	entries := []mindmap.Entry{root, entry("A", 0, 0, 0), entry("B", 0, 0, 0), entry("C", 0, 0, 0)}
	conns := []mindmap.Connection{
		conn("R", "A"), conn("R", "B"),
		conn("A", "C"), conn("B", "C"),
	}

	res, err := Arrange(root, entries, conns, nil)
	if err != nil {
		t.Fatalf("Arrange: %v", err)
	}
	if len(res.NewPositions) != 3 {
		t.Fatalf("len(NewPositions) = %d, want 3 (A, B, C once)", len(res.NewPositions))
	}
	if _, ok := res.NewPositions["C"]; !ok {
		t.Error("C missing from NewPositions")
	}
}

func TestArrangeCycleTerminates(t *testing.T) {
	root := entry("R", 0, 0, 0)
	entries := []mindmap.Entry{root, entry("A", 0, 0, 0), entry("B", 0, 0, 0)}
	conns := []mindmap.Connection{conn("R", "A"), conn("A", "B"), conn("B", "R")}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := Arrange(root, entries, conns, nil); err != nil {
			t.Errorf("Arrange: %v", err)
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Arrange did not terminate on cyclic graph")
	}
}

func TestArrangeDeterminism(t *testing.T) {
	root := entry("R", 0, 0, 0)
	entries := []mindmap.Entry{root}
	var conns []mindmap.Connection
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("c%02d", i)
		entries = append(entries, entry(id, float64(i), 0, 0))
		conns = append(conns, conn("R", id))
	}

	first, err := Arrange(root, entries, conns, nil)
	if err != nil {
		t.Fatalf("Arrange: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := Arrange(root, entries, conns, nil)
		if err != nil {
			t.Fatalf("Arrange: %v", err)
		}
		if !reflect.DeepEqual(first.NewPositions, again.NewPositions) {
			t.Fatal("repeated invocations produced different positions")
		}
	}
}

func TestArrangeThresholdBoundary(t *testing.T) {
	axisSet := map[geom.Vec3]bool{
		geom.New(5, 0, 0): true, geom.New(-5, 0, 0): true,
		geom.New(0, 5, 0): true, geom.New(0, -5, 0): true,
		geom.New(0, 0, 5): true, geom.New(0, 0, -5): true,
	}

	build := func(n int) ([]mindmap.Entry, []mindmap.Connection) {
		root := entry("R", 0, 0, 0)
		entries := []mindmap.Entry{root}
		var conns []mindmap.Connection
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("c%d", i)
			entries = append(entries, entry(id, 0, 0, 0))
			conns = append(conns, conn("R", id))
		}
		return entries, conns
	}

	// Exactly 6 children take the axis path: all six canonical offsets.
	entries, conns := build(6)
	res, err := Arrange(entries[0], entries, conns, nil)
	if err != nil {
		t.Fatalf("Arrange: %v", err)
	}
	for id, pos := range res.NewPositions {
		if !axisSet[pos] {
			t.Errorf("%s at %v, want an axis-aligned offset", id, pos)
		}
	}

	// 7 children take the simulation path: none land exactly on an axis
	// offset, but all satisfy the shell invariant.
	entries, conns = build(7)
	res, err = Arrange(entries[0], entries, conns, nil)
	if err != nil {
		t.Fatalf("Arrange: %v", err)
	}
	onAxis := 0
	for id, pos := range res.NewPositions {
		if axisSet[pos] {
			onAxis++
		}
		d := dist(pos, geom.Vec3{})
		if d < MinDistance || d > BoundingRadius {
			t.Errorf("%s at distance %.3f, want within [%v, %v]", id, d, MinDistance, BoundingRadius)
		}
	}
	if onAxis == 7 {
		t.Error("7 children appear to have taken the axis path")
	}
}

func TestArrangeProgressMonotonic(t *testing.T) {
	root := entry("R", 0, 0, 0)
	entries := []mindmap.Entry{root}
	var conns []mindmap.Connection
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("c%d", i)
		entries = append(entries, entry(id, 0, 0, 0))
		conns = append(conns, conn("R", id))
	}

	var reported []float64
	_, err := Arrange(root, entries, conns, func(f float64) {
		reported = append(reported, f)
	})
	if err != nil {
		t.Fatalf("Arrange: %v", err)
	}
	if len(reported) == 0 {
		t.Fatal("no progress reported")
	}
	for i := 1; i < len(reported); i++ {
		if reported[i] < reported[i-1] {
			t.Fatalf("progress decreased: %v -> %v at index %d", reported[i-1], reported[i], i)
		}
	}
	if last := reported[len(reported)-1]; last != 1 {
		t.Errorf("final progress = %v, want 1", last)
	}
}

func TestArrangeLargeFanOut(t *testing.T) {
	root := entry("R", 0, 0, 0)
	entries := []mindmap.Entry{root}
	var conns []mindmap.Connection
	for i := 0; i < 150; i++ {
		id := fmt.Sprintf("c%03d", i)
		entries = append(entries, entry(id, 10+float64(i), 0, 0))
		conns = append(conns, conn("R", id))
	}

	start := time.Now()
	res, err := Arrange(root, entries, conns, nil)
	if err != nil {
		t.Fatalf("Arrange: %v", err)
	}
	elapsed := time.Since(start)

	if len(res.NewPositions) != 150 {
		t.Fatalf("len(NewPositions) = %d, want 150", len(res.NewPositions))
	}
	for id, pos := range res.NewPositions {
		d := dist(pos, root.Position)
		if d < MinDistance || d > BoundingRadius {
			t.Errorf("%s at distance %.3f, want within [%v, %v]", id, d, MinDistance, BoundingRadius)
		}
	}

	// Regression guard, not an exactness bound.
	if elapsed > 30*time.Second {
		t.Errorf("arrangement took %v", elapsed)
	}
}

func TestArrangeUnknownEndpoint(t *testing.T) {
	root := entry("R", 0, 0, 0)
	entries := []mindmap.Entry{root, entry("A", 0, 0, 0)}
	conns := []mindmap.Connection{conn("R", "ghost")}

	if _, err := Arrange(root, entries, conns, nil); err == nil {
		t.Fatal("Arrange succeeded with a connection to a missing entry")
	}
}

func TestArrangeEmptyGraph(t *testing.T) {
	root := entry("R", 1, 2, 3)
	res, err := Arrange(root, nil, nil, nil)
	if err != nil {
		t.Fatalf("Arrange: %v", err)
	}
	if len(res.NewPositions) != 0 || len(res.UpdatedEntries) != 0 {
		t.Errorf("expected empty result, got %d positions, %d entries",
			len(res.NewPositions), len(res.UpdatedEntries))
	}
}

func TestArrangeDoesNotMutateInput(t *testing.T) {
	root := entry("R", 0, 0, 0)
	entries := []mindmap.Entry{root, entry("A", 7, 8, 9)}
	conns := []mindmap.Connection{conn("R", "A")}

	if _, err := Arrange(root, entries, conns, nil); err != nil {
		t.Fatalf("Arrange: %v", err)
	}
	if entries[1].Position != geom.New(7, 8, 9) {
		t.Errorf("caller's entry mutated to %v", entries[1].Position)
	}
}

func TestOrderBySubtreeSize(t *testing.T) {
	// S owns 1 descendant, L owns 3; L must come first after ordering even
	// though S precedes it in the connection list.
	entries := []mindmap.Entry{
		entry("R", 0, 0, 0),
		entry("S", 0, 0, 0), entry("S1", 0, 0, 0),
		entry("L", 0, 0, 0), entry("L1", 0, 0, 0), entry("L2", 0, 0, 0), entry("L3", 0, 0, 0),
	}
	conns := []mindmap.Connection{
		conn("R", "S"), conn("S", "S1"),
		conn("R", "L"), conn("L", "L1"), conn("L1", "L2"), conn("L2", "L3"),
	}

	index := make(map[string]int, len(entries))
	for i, e := range entries {
		index[e.ID] = i
	}
	a := &arrangement{
		entries:      entries,
		index:        index,
		adj:          mindmap.Adjacency(conns),
		visited:      map[string]struct{}{"R": {}, "S": {}, "L": {}},
		total:        len(entries),
		sortDeadline: time.Now().Add(time.Minute),
	}

	batch := []mindmap.Entry{entries[index["S"]], entries[index["L"]]}
	a.orderBySubtreeSize(batch)
	if batch[0].ID != "L" || batch[1].ID != "S" {
		t.Errorf("order = [%s %s], want [L S]", batch[0].ID, batch[1].ID)
	}
}
