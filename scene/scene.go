// Package scene holds the render-time scene representation: triangle
// soup, materials, lights, sky and the kd-tree accelerating ray
// queries. The scene owns all of it; every other component keeps
// read-only access and refers to triangles and materials by index.
package scene

import (
	"math"

	"github.com/ajgappmark/RGK/asset/texture"
	"github.com/ajgappmark/RGK/log"
	"github.com/ajgappmark/RGK/types"
)

type Scene struct {
	Triangles []Triangle
	Materials []Material
	Lights    []Light

	// Flat sky color, or an equirectangular environment map when set.
	SkyColor   types.Vec3
	SkyTexture *texture.Texture

	// Offset applied to secondary/shadow ray origins to escape the
	// originating surface.
	Epsilon float32

	// Indices of thin-glass triangles. Non-empty thinglass switches
	// the tracers to the filter-collecting query variants.
	ThinglassTris []int32

	tree   *KdTree
	logger log.Logger
}

func NewScene() *Scene {
	return &Scene{
		Epsilon: 1e-5,
		logger:  log.New("scene"),
	}
}

// Commit freezes the triangle set: degenerate triangles are dropped,
// face normals derived, thin-glass triangles indexed and the kd-tree
// built. No triangles may be added afterwards.
func (s *Scene) Commit() {
	kept := s.Triangles[:0]
	dropped := 0
	for i := range s.Triangles {
		if s.Triangles[i].IsDegenerate() {
			dropped++
			continue
		}
		kept = append(kept, s.Triangles[i])
	}
	s.Triangles = kept
	if dropped > 0 {
		s.logger.Noticef("dropped %d degenerate triangles", dropped)
	}

	thinglass := make([]bool, len(s.Triangles))
	s.ThinglassTris = s.ThinglassTris[:0]
	for i := range s.Triangles {
		t := &s.Triangles[i]
		e1 := t.V[1].Sub(t.V[0])
		e2 := t.V[2].Sub(t.V[0])
		t.faceNormal = e1.Cross(e2).Normalize()

		if s.Materials[t.Material].ThinGlass {
			thinglass[i] = true
			s.ThinglassTris = append(s.ThinglassTris, int32(i))
		}
	}

	s.tree = newKdTree(s.Triangles, thinglass)
	if len(s.Triangles) > 0 {
		root := s.tree.nodes[0]
		diag := root.max.Sub(root.min).Len()
		if diag > 0 && s.Epsilon < diag*1e-6 {
			s.Epsilon = diag * 1e-6
		}
		s.logger.Infof("committed %d triangles, %d kd nodes, epsilon %g",
			len(s.Triangles), len(s.tree.nodes), s.Epsilon)
	}
}

// HasThinglass reports whether any committed triangle is a thin-glass
// filter.
func (s *Scene) HasThinglass() bool {
	return len(s.ThinglassTris) > 0
}

// FindIntersectKd returns the closest hit for r.
func (s *Scene) FindIntersectKd(r Ray) Intersection {
	return s.tree.FindClosest(r, -1, false)
}

// FindIntersectKdAny returns the index of any triangle blocking r, or
// -1. Used for shadow rays; traversal may exit early.
func (s *Scene) FindIntersectKdAny(r Ray) int {
	return s.tree.AnyHit(r, false, nil)
}

// FindIntersectKdOtherThan returns the closest hit ignoring the given
// triangle, so rays spawned exactly on a surface cannot re-hit it.
func (s *Scene) FindIntersectKdOtherThan(r Ray, excluded int) Intersection {
	return s.tree.FindClosest(r, excluded, false)
}

// FindIntersectKdOtherThanWithThinglass behaves like
// FindIntersectKdOtherThan but lets the ray pass through thin-glass
// triangles, recording each crossing on the intersection.
func (s *Scene) FindIntersectKdOtherThanWithThinglass(r Ray, excluded int) Intersection {
	return s.tree.FindClosest(r, excluded, true)
}

// Visibility reports whether the open segment between a and b is
// unobstructed by any triangle.
func (s *Scene) Visibility(a, b types.Vec3) bool {
	dist := a.Distance(b)
	if dist < s.Epsilon {
		return true
	}
	r := NewSegment(a, b, s.Epsilon*2.0/dist)
	r.Far = 1.0 - r.Near
	return s.tree.AnyHit(r, false, nil) < 0
}

// VisibilityWithThinglass reports whether the segment is unobstructed
// by any non-thin-glass triangle; thin-glass crossings are appended to
// out.
func (s *Scene) VisibilityWithThinglass(a, b types.Vec3, out *[]ThinglassIsect) bool {
	dist := a.Distance(b)
	if dist < s.Epsilon {
		return true
	}
	r := NewSegment(a, b, s.Epsilon*2.0/dist)
	r.Far = 1.0 - r.Near
	return s.tree.AnyHit(r, true, out) < 0
}

// GetSkyboxRay returns the sky radiance for a direction pointing away
// from the scene.
func (s *Scene) GetSkyboxRay(dir types.Vec3) types.Vec3 {
	if s.SkyTexture == nil {
		return s.SkyColor
	}
	d := dir.Normalize()
	u := 0.5 + float32(math.Atan2(float64(d[2]), float64(d[0])))/(2.0*math.Pi)
	v := 0.5 - float32(math.Asin(float64(d[1])))/math.Pi
	return s.SkyTexture.GetPixelInterpolated(types.XY(u, v))
}

// GetRandomLight picks a light uniformly with sel and, for disc
// lights, offsets the returned copy to a point sampled on the disc.
// Sphere lights are surface sampled by the caller, which also needs
// the sampled direction.
func (s *Scene) GetRandomLight(sel float32, arealSample types.Vec2) Light {
	n := len(s.Lights)
	idx := int(sel * float32(n))
	if idx >= n {
		idx = n - 1
	}
	light := s.Lights[idx]

	if light.Type == ArealLight {
		r := float32(math.Sqrt(float64(arealSample[0]))) * light.Size
		phi := 2.0 * math.Pi * float64(arealSample[1])
		dx := r * float32(math.Cos(phi))
		dy := r * float32(math.Sin(phi))

		var t, b types.Vec3
		if light.Normal[0] > -0.5 && light.Normal[0] < 0.5 {
			t = types.XYZ(1, 0, 0)
		} else {
			t = types.XYZ(0, 1, 0)
		}
		b = light.Normal.Cross(t).Normalize()
		t = b.Cross(light.Normal).Normalize()
		light.Pos = light.Pos.Add(t.Mul(dx)).Add(b.Mul(dy))
	}
	return light
}

// Bounds returns the scene bounding box. Valid after Commit.
func (s *Scene) Bounds() (types.Vec3, types.Vec3) {
	if s.tree == nil || len(s.tree.nodes) == 0 {
		return types.Vec3{}, types.Vec3{}
	}
	return s.tree.nodes[0].min, s.tree.nodes[0].max
}
