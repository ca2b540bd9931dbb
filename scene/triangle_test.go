package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajgappmark/RGK/types"
)

func unitTriangle() Triangle {
	return Triangle{
		V: [3]types.Vec3{
			types.XYZ(0, 0, 0),
			types.XYZ(1, 0, 0),
			types.XYZ(0, 1, 0),
		},
	}
}

func TestTriangleIntersectHit(t *testing.T) {
	tri := unitTriangle()
	r := New(types.XYZ(0.25, 0.25, -1), types.XYZ(0, 0, 1))

	ht, a, b, ok := tri.Intersect(r)
	require.True(t, ok)
	assert.InDelta(t, 1.0, float64(ht), 1e-6)

	// The hit point reconstructed from the barycentric weights must land
	// back on the intersection.
	p := tri.V[0].Mul(a).Add(tri.V[1].Mul(b)).Add(tri.V[2].Mul(1.0 - a - b))
	assert.InDelta(t, 0.25, float64(p[0]), 1e-5)
	assert.InDelta(t, 0.25, float64(p[1]), 1e-5)
}

func TestTriangleIntersectMiss(t *testing.T) {
	tri := unitTriangle()

	// Outside the triangle.
	_, _, _, ok := tri.Intersect(New(types.XYZ(0.9, 0.9, -1), types.XYZ(0, 0, 1)))
	assert.False(t, ok)

	// Pointing away from the plane.
	_, _, _, ok = tri.Intersect(New(types.XYZ(0.25, 0.25, -1), types.XYZ(0, 0, -1)))
	assert.False(t, ok)

	// Parallel to the plane.
	_, _, _, ok = tri.Intersect(New(types.XYZ(0.25, 0.25, -1), types.XYZ(1, 0, 0)))
	assert.False(t, ok)
}

func TestTriangleIntersectClipping(t *testing.T) {
	tri := unitTriangle()

	r := New(types.XYZ(0.25, 0.25, -1), types.XYZ(0, 0, 1))
	r.Far = 0.5
	_, _, _, ok := tri.Intersect(r)
	assert.False(t, ok, "hit beyond Far must be rejected")

	r = New(types.XYZ(0.25, 0.25, -1), types.XYZ(0, 0, 1))
	r.Near = 1.5
	_, _, _, ok = tri.Intersect(r)
	assert.False(t, ok, "hit before Near must be rejected")
}

func TestTriangleIntersectSegment(t *testing.T) {
	tri := unitTriangle()

	// A segment ray keeps its unnormalized direction, so t=1 lands on
	// the target.
	seg := NewSegment(types.XYZ(0.25, 0.25, -2), types.XYZ(0.25, 0.25, 2), 1e-4)
	ht, _, _, ok := tri.Intersect(seg)
	require.True(t, ok)
	assert.InDelta(t, 0.5, float64(ht), 1e-6)
}

func TestTriangleBBoxCenter(t *testing.T) {
	tri := unitTriangle()
	bmin, bmax := tri.BBox()
	assert.Equal(t, types.XYZ(0, 0, 0), bmin)
	assert.Equal(t, types.XYZ(1, 1, 0), bmax)

	c := tri.Center()
	assert.InDelta(t, 1.0/3.0, float64(c[0]), 1e-6)
	assert.InDelta(t, 1.0/3.0, float64(c[1]), 1e-6)
}

func TestTriangleDegenerate(t *testing.T) {
	assert.False(t, (&Triangle{V: [3]types.Vec3{
		types.XYZ(0, 0, 0), types.XYZ(1, 0, 0), types.XYZ(0, 1, 0),
	}}).IsDegenerate())

	// Collinear vertices.
	assert.True(t, (&Triangle{V: [3]types.Vec3{
		types.XYZ(0, 0, 0), types.XYZ(1, 0, 0), types.XYZ(2, 0, 0),
	}}).IsDegenerate())

	// Coincident vertices.
	assert.True(t, (&Triangle{V: [3]types.Vec3{
		types.XYZ(1, 1, 1), types.XYZ(1, 1, 1), types.XYZ(1, 1, 1),
	}}).IsDegenerate())
}

func TestIntersectionInterpolate(t *testing.T) {
	isect := Intersection{Triangle: 0, A: 0.5, B: 0.25}
	v := isect.Interpolate(types.XYZ(1, 0, 0), types.XYZ(0, 1, 0), types.XYZ(0, 0, 1))
	assert.InDelta(t, 0.5, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.25, float64(v[1]), 1e-6)
	assert.InDelta(t, 0.25, float64(v[2]), 1e-6)

	uv := isect.InterpolateUV(types.XY(1, 0), types.XY(0, 1), types.XY(0, 0))
	assert.InDelta(t, 0.5, float64(uv[0]), 1e-6)
	assert.InDelta(t, 0.25, float64(uv[1]), 1e-6)
}

func TestNoHit(t *testing.T) {
	isect := NoHit()
	assert.False(t, isect.Hit())
}
