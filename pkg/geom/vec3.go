// Package geom provides the 3D vector arithmetic used by the layout engine.
//
// Vec3 is deliberately minimal: the engine only needs construction, copying,
// in-place add/subtract/scale, length, and normalization. All geometry in
// the arrangement algorithms is composed from these operations.
package geom

import (
	"encoding/json"
	"fmt"
	"math"
)

// Vec3 is a 3-component vector with float64 precision.
//
// The zero value is the origin and is ready to use. Mutating methods use
// pointer receivers and modify the vector in place; use plain assignment
// to copy a Vec3 (it contains no references).
type Vec3 struct {
	X, Y, Z float64
}

// New creates a vector from three scalars.
func New(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add adds o to v in place.
func (v *Vec3) Add(o Vec3) {
	v.X += o.X
	v.Y += o.Y
	v.Z += o.Z
}

// Sub subtracts o from v in place.
func (v *Vec3) Sub(o Vec3) {
	v.X -= o.X
	v.Y -= o.Y
	v.Z -= o.Z
}

// Scale multiplies each component by s in place.
func (v *Vec3) Scale(s float64) {
	v.X *= s
	v.Y *= s
	v.Z *= s
}

// Length returns the Euclidean length of v.
func (v *Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize scales v to unit length in place.
// A zero-length vector is left unchanged; callers that need a direction
// must guard against the zero vector themselves.
func (v *Vec3) Normalize() {
	l := v.Length()
	if l == 0 {
		return
	}
	v.Scale(1 / l)
}

// MarshalJSON encodes the vector as a 3-element array [x, y, z].
// This matches the wire format used by mind-map clients.
func (v Vec3) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{v.X, v.Y, v.Z})
}

// UnmarshalJSON decodes a 3-element array [x, y, z].
func (v *Vec3) UnmarshalJSON(data []byte) error {
	var arr []float64
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) != 3 {
		return fmt.Errorf("position must have exactly 3 components, got %d", len(arr))
	}
	v.X, v.Y, v.Z = arr[0], arr[1], arr[2]
	return nil
}
