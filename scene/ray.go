package scene

import (
	"math"

	"github.com/ajgappmark/RGK/types"
)

// A Ray is parametrized as origin + t*dir for t in [Near, Far].
//
// Rays built with New carry a unit direction; segment rays built with
// NewSegment keep the unnormalized direction so that t=1 lands exactly
// on the target point.
type Ray struct {
	Origin types.Vec3
	Dir    types.Vec3

	Near float32
	Far  float32
}

// Create a ray with a normalized direction and an unbounded far clip.
func New(origin, dir types.Vec3) Ray {
	return Ray{
		Origin: origin,
		Dir:    dir.Normalize(),
		Near:   0,
		Far:    float32(math.Inf(1)),
	}
}

// Create a segment ray from one point to another. The direction is left
// unnormalized; t=0 is from, t=1 is to. near clips hits right at the
// origin (shadow acne).
func NewSegment(from, to types.Vec3, near float32) Ray {
	return Ray{
		Origin: from,
		Dir:    to.Sub(from),
		Near:   near,
		Far:    1.0,
	}
}

// Point at parameter t.
func (r Ray) At(t float32) types.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}
