package mindmap_test

import (
	"fmt"

	"github.com/orbweave/orbweave/pkg/mindmap"
)

func ExampleMindMap_Validate() {
	m := &mindmap.MindMap{
		RootID:  "ideas",
		Entries: []mindmap.Entry{{ID: "ideas"}, {ID: "travel"}},
		Connections: []mindmap.Connection{
			{SourceID: "ideas", TargetID: "travel"},
		},
	}
	fmt.Println(m.Validate())
	// Output: <nil>
}

func ExampleAdjacency() {
	conns := []mindmap.Connection{
		{SourceID: "a", TargetID: "b"},
		{SourceID: "a", TargetID: "c"},
	}
	adj := mindmap.Adjacency(conns)
	fmt.Println(adj["a"])
	fmt.Println(adj["b"])
	// Output:
	// [b c]
	// [a]
}
