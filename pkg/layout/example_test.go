package layout_test

import (
	"fmt"

	"github.com/orbweave/orbweave/pkg/layout"
	"github.com/orbweave/orbweave/pkg/mindmap"
)

// ExampleArrange arranges a tiny map: two children land on the first two
// signed axes, five units from the root.
func ExampleArrange() {
	root := mindmap.Entry{ID: "center"}
	entries := []mindmap.Entry{
		root,
		{ID: "left"},
		{ID: "right"},
	}
	conns := []mindmap.Connection{
		{SourceID: "center", TargetID: "left"},
		{SourceID: "center", TargetID: "right"},
	}

	res, err := layout.Arrange(root, entries, conns, nil)
	if err != nil {
		panic(err)
	}

	fmt.Println(res.NewPositions["left"])
	fmt.Println(res.NewPositions["right"])
	// Output:
	// {5 0 0}
	// {-5 0 0}
}

// ExampleArrangeMap uses the serialized mind-map form directly.
func ExampleArrangeMap() {
	m := &mindmap.MindMap{
		RootID: "r",
		Entries: []mindmap.Entry{
			{ID: "r"},
			{ID: "a"},
		},
		Connections: []mindmap.Connection{
			{SourceID: "r", TargetID: "a"},
		},
	}

	res, err := layout.ArrangeMap(m, nil)
	if err != nil {
		panic(err)
	}
	fmt.Println(len(res.NewPositions))
	// Output: 1
}
