package layout

import (
	"fmt"
	"testing"

	"github.com/orbweave/orbweave/pkg/geom"
	"github.com/orbweave/orbweave/pkg/mindmap"
)

func TestPlaceOnAxesExactPositions(t *testing.T) {
	parent := geom.New(1, 2, 3)
	children := []mindmap.Entry{
		entry("a", 0, 0, 0),
		entry("b", 0, 0, 0),
		entry("c", 0, 0, 0),
	}

	got := placeOnAxes(parent, children)

	want := map[string]geom.Vec3{
		"a": geom.New(6, 2, 3),
		"b": geom.New(-4, 2, 3),
		"c": geom.New(1, 7, 3),
	}
	for id, w := range want {
		if got[id] != w {
			t.Errorf("%s = %v, want %v", id, got[id], w)
		}
	}
}

func TestPlaceOnAxesAllSix(t *testing.T) {
	var children []mindmap.Entry
	for i := 0; i < 6; i++ {
		children = append(children, entry(fmt.Sprintf("c%d", i), 0, 0, 0))
	}

	got := placeOnAxes(geom.Vec3{}, children)

	want := []geom.Vec3{
		geom.New(5, 0, 0), geom.New(-5, 0, 0),
		geom.New(0, 5, 0), geom.New(0, -5, 0),
		geom.New(0, 0, 5), geom.New(0, 0, -5),
	}
	for i, w := range want {
		id := fmt.Sprintf("c%d", i)
		if got[id] != w {
			t.Errorf("%s = %v, want %v", id, got[id], w)
		}
	}
}

func TestPlaceOnAxesCyclesPastSix(t *testing.T) {
	var children []mindmap.Entry
	for i := 0; i < 7; i++ {
		children = append(children, entry(fmt.Sprintf("c%d", i), 0, 0, 0))
	}

	got := placeOnAxes(geom.Vec3{}, children)

	// The seventh child aliases the first axis.
	if got["c6"] != got["c0"] {
		t.Errorf("c6 = %v, want same as c0 = %v", got["c6"], got["c0"])
	}
}

func TestPlaceOnAxesEmpty(t *testing.T) {
	if got := placeOnAxes(geom.Vec3{}, nil); len(got) != 0 {
		t.Errorf("placeOnAxes(nil) = %v, want empty", got)
	}
}
