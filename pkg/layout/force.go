package layout

import (
	"math"

	"github.com/orbweave/orbweave/pkg/geom"
	"github.com/orbweave/orbweave/pkg/mindmap"
)

// Force simulation constants. These are part of the layout contract:
// changing any of them changes every computed position.
const (
	// BoundingRadius is the maximum distance of a child from its parent
	// after arrangement.
	BoundingRadius = 5.0

	// MinDistance is the minimum distance of a child from its parent
	// after arrangement.
	MinDistance = 1.5

	repulsionStrength  = 1.0
	attractionStrength = 0.05
	velocityDamping    = 0.9
	maxSpeed           = 0.5
	iterations         = 100

	// initRadiusFactor shrinks the initial sphere inside the bounding
	// radius so the simulation starts with slack to expand into.
	initRadiusFactor = 0.8
)

// goldenAngle is the spherical-spiral increment π(1+√5) used for the
// Fibonacci distribution of starting positions.
var goldenAngle = math.Pi * (1 + math.Sqrt(5))

// simulate spreads children around parent with an iterative force
// simulation: each child is attracted to the parent and repelled by its
// siblings and by the parent itself, with damped, speed-clamped velocity
// integration over a fixed number of iterations.
//
// Children start on a Fibonacci sphere of radius BoundingRadius×0.8 so
// starting points are well separated for any child count; the simulation
// is fully deterministic. Within one iteration the shared position map is
// updated child by child, so later children see earlier children's already
// moved positions. That ordering bias is kept deliberately: it matches the
// behavior clients have animated against since the first release.
//
// After the final iteration every child is clamped into the spherical
// shell [MinDistance, BoundingRadius] around the parent.
//
// progress, if non-nil, is invoked with (i+1)/iterations after each
// iteration.
func simulate(parent geom.Vec3, children []mindmap.Entry, progress ProgressFunc) map[string]geom.Vec3 {
	positions := make(map[string]geom.Vec3, len(children))
	velocities := make(map[string]geom.Vec3, len(children))
	if len(children) == 0 {
		return positions
	}

	n := len(children)
	initRadius := BoundingRadius * initRadiusFactor
	for i, child := range children {
		phi := math.Acos(1 - 2*(float64(i)+0.5)/float64(n))
		theta := goldenAngle * float64(i)

		offset := geom.New(
			math.Sin(phi)*math.Cos(theta),
			math.Sin(phi)*math.Sin(theta),
			math.Cos(phi),
		)
		offset.Scale(initRadius)

		pos := parent
		pos.Add(offset)
		positions[child.ID] = pos
		velocities[child.ID] = geom.Vec3{}
	}

	for iter := 0; iter < iterations; iter++ {
		for _, child := range children {
			pos := positions[child.ID]
			var total geom.Vec3

			// Attraction toward the parent.
			attraction := parent
			attraction.Sub(pos)
			attraction.Scale(attractionStrength)
			total.Add(attraction)

			// Inverse-square repulsion from every sibling.
			for _, other := range children {
				if other.ID == child.ID {
					continue
				}
				total.Add(repulsion(pos, positions[other.ID]))
			}

			// Same repulsion from the parent keeps the center clear.
			total.Add(repulsion(pos, parent))

			vel := velocities[child.ID]
			vel.Add(total)
			vel.Scale(velocityDamping)
			if vel.Length() > maxSpeed {
				vel.Normalize()
				vel.Scale(maxSpeed)
			}
			velocities[child.ID] = vel

			pos.Add(vel)
			positions[child.ID] = pos
		}

		if progress != nil {
			progress(float64(iter+1) / iterations)
		}
	}

	for _, child := range children {
		positions[child.ID] = clampToShell(parent, positions[child.ID])
	}
	return positions
}

// repulsion returns the inverse-square force pushing pos away from from.
// Coincident points produce no force; the shell clamp resolves them later.
func repulsion(pos, from geom.Vec3) geom.Vec3 {
	dir := pos
	dir.Sub(from)
	dist := dir.Length()
	if dist == 0 {
		return geom.Vec3{}
	}
	dir.Normalize()
	dir.Scale(repulsionStrength / (dist * dist))
	return dir
}

// clampToShell projects pos into the shell [MinDistance, BoundingRadius]
// around parent. A child sitting exactly on the parent is pushed out along
// +x, the engine's fixed fallback direction.
func clampToShell(parent, pos geom.Vec3) geom.Vec3 {
	dir := pos
	dir.Sub(parent)
	dist := dir.Length()

	switch {
	case dist < MinDistance:
		if dist == 0 {
			dir = geom.New(1, 0, 0)
		} else {
			dir.Normalize()
		}
		dir.Scale(MinDistance)
	case dist > BoundingRadius:
		dir.Normalize()
		dir.Scale(BoundingRadius)
	default:
		return pos
	}

	out := parent
	out.Add(dir)
	return out
}
