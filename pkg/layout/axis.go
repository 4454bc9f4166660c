package layout

import (
	"github.com/orbweave/orbweave/pkg/geom"
	"github.com/orbweave/orbweave/pkg/mindmap"
)

// AxisDistance is the offset, in scene units, at which axis-placed
// children sit from their parent.
const AxisDistance = 5.0

// axisOffsets are the six signed unit axes, consumed in order. The order
// is part of the layout contract: the first child of a sparse node always
// lands on +x, the second on −x, and so on.
var axisOffsets = [6]geom.Vec3{
	{X: 1}, {X: -1},
	{Y: 1}, {Y: -1},
	{Z: 1}, {Z: -1},
}

// placeOnAxes positions children deterministically on the signed
// coordinate axes around parent, AxisDistance units out, cycling through
// the six axes in child order. It is the fast path for small sibling sets
// where a force simulation would be overkill; a seventh child would alias
// the first axis, so callers route larger sets to the simulator.
func placeOnAxes(parent geom.Vec3, children []mindmap.Entry) map[string]geom.Vec3 {
	positions := make(map[string]geom.Vec3, len(children))
	for i, child := range children {
		offset := axisOffsets[i%len(axisOffsets)]
		offset.Scale(AxisDistance)

		pos := parent
		pos.Add(offset)
		positions[child.ID] = pos
	}
	return positions
}
