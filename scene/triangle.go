package scene

import "github.com/ajgappmark/RGK/types"

const (
	// Intersection determinant threshold below which a ray is treated
	// as parallel to the triangle plane.
	detEpsilon float32 = 1e-8

	// Barycentric tolerance; hits slightly outside the triangle are
	// still accepted to avoid cracks between adjacent faces.
	baryEpsilon float32 = 1e-6
)

// A Triangle stores its vertex data inline and references the owning
// material by index into the scene material list.
type Triangle struct {
	// Vertex positions.
	V [3]types.Vec3

	// Per-vertex shading normals.
	N [3]types.Vec3

	// Per-vertex tangents (for bump mapping).
	T [3]types.Vec3

	// Per-vertex texture coordinates.
	UV [3]types.Vec2

	// Index into Scene.Materials.
	Material int

	// Unit geometric normal, derived at Commit time.
	faceNormal types.Vec3
}

// GenericNormal returns the unit face normal. Unlike the interpolated
// shading normal it is always well defined for non-degenerate
// triangles.
func (t *Triangle) GenericNormal() types.Vec3 {
	return t.faceNormal
}

// Axis-aligned bounds of the triangle.
func (t *Triangle) BBox() (types.Vec3, types.Vec3) {
	bmin := types.MinVec3(t.V[0], types.MinVec3(t.V[1], t.V[2]))
	bmax := types.MaxVec3(t.V[0], types.MaxVec3(t.V[1], t.V[2]))
	return bmin, bmax
}

// Centroid of the triangle.
func (t *Triangle) Center() types.Vec3 {
	return t.V[0].Add(t.V[1]).Add(t.V[2]).Mul(1.0 / 3.0)
}

// IsDegenerate reports whether the triangle has (near) zero area.
func (t *Triangle) IsDegenerate() bool {
	e1 := t.V[1].Sub(t.V[0])
	e2 := t.V[2].Sub(t.V[0])
	return e1.Cross(e2).Len2() < 1e-18
}

// Intersect runs the Möller-Trumbore test against ray. On success the
// returned barycentric weights (a, b) are the weights of vertices 0 and
// 1; vertex 2 carries the implicit 1-a-b. t is clipped to
// [ray.Near, ray.Far]. NaNs never escape into the out params of a
// successful test.
func (tr *Triangle) Intersect(r Ray) (t, a, b float32, ok bool) {
	e1 := tr.V[1].Sub(tr.V[0])
	e2 := tr.V[2].Sub(tr.V[0])

	pvec := r.Dir.Cross(e2)
	det := e1.Dot(pvec)
	if det > -detEpsilon && det < detEpsilon {
		return 0, 0, 0, false
	}
	invDet := 1.0 / det

	tvec := r.Origin.Sub(tr.V[0])
	u := tvec.Dot(pvec) * invDet
	if u < -baryEpsilon || u > 1.0+baryEpsilon {
		return 0, 0, 0, false
	}

	qvec := tvec.Cross(e1)
	v := r.Dir.Dot(qvec) * invDet
	if v < -baryEpsilon || u+v > 1.0+baryEpsilon {
		return 0, 0, 0, false
	}

	t = e2.Dot(qvec) * invDet
	if t != t || t < r.Near || t > r.Far {
		return 0, 0, 0, false
	}

	// Map the (u, v) edge weights to vertex weights: the hit point is
	// (1-u-v)*V0 + u*V1 + v*V2.
	return t, 1.0 - u - v, u, true
}
