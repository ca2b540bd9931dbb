package scene

import "github.com/ajgappmark/RGK/types"

// A thin-glass triangle crossed by a ray and the parameter at which it
// was crossed.
type ThinglassIsect struct {
	Triangle int
	T        float32
}

// Intersection describes the closest hit found by a scene query.
// Triangle is an index into Scene.Triangles, or -1 when the ray escaped
// to the sky.
type Intersection struct {
	Triangle int
	T        float32

	// Barycentric weights of vertices 0 and 1; vertex 2 has weight
	// 1-A-B.
	A, B float32

	// Thin-glass triangles crossed on the way to the hit, in traversal
	// order (unsorted).
	Thinglass []ThinglassIsect
}

// NoHit is the zero-value miss.
func NoHit() Intersection {
	return Intersection{Triangle: -1}
}

// Hit reports whether the query found a triangle.
func (i *Intersection) Hit() bool {
	return i.Triangle >= 0
}

// Interpolate a per-vertex vector quantity at the hit point.
func (i *Intersection) Interpolate(a, b, c types.Vec3) types.Vec3 {
	w := 1.0 - i.A - i.B
	return a.Mul(i.A).Add(b.Mul(i.B)).Add(c.Mul(w))
}

// Interpolate a per-vertex uv quantity at the hit point.
func (i *Intersection) InterpolateUV(a, b, c types.Vec2) types.Vec2 {
	w := 1.0 - i.A - i.B
	return a.Mul(i.A).Add(b.Mul(i.B)).Add(c.Mul(w))
}
