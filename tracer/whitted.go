package tracer

import (
	"math"

	"github.com/ajgappmark/RGK/log"
	"github.com/ajgappmark/RGK/scene"
	"github.com/ajgappmark/RGK/types"
)

const (
	// Entries per light in the shadow cache. Occluders are strongly
	// coherent between neighboring subpixels, so a handful suffices.
	shadowCacheSize = 5

	ambientWeight = 0.1

	reflNear = 0.01
	reflFar  = 1000.0
)

// Whitted is the classic deterministic ray tracer: direct lighting
// with hard shadows plus recursive reflection blending on near-zero
// exponent materials.
type Whitted struct {
	ctx       Context
	maxDepth  int
	bumpScale float32

	// Per-light MRU of recent occluders, probed before the full tree.
	shadowCache []*lruBuffer[int]

	rays   uint64
	logger log.Logger
}

func NewWhitted(ctx Context, maxDepth int, bumpScale float32) *Whitted {
	w := &Whitted{
		ctx:       ctx,
		maxDepth:  maxDepth,
		bumpScale: bumpScale,
		logger:    log.New("whitted"),
	}
	for range ctx.Scene.Lights {
		w.shadowCache = append(w.shadowCache, newLRUBuffer[int](shadowCacheSize))
	}
	return w
}

// RenderPixel averages an m-by-m subpixel grid. Rows alternate
// direction so consecutive shadow rays stay spatially coherent and the
// occluder cache keeps hitting.
func (w *Whitted) RenderPixel(x, y int, debug bool) PixelResult {
	w.rays = 0

	m := w.ctx.Multisample
	var total types.Vec3
	for my := 0; my < m; my++ {
		for mx := 0; mx < m; mx++ {
			mx2 := mx
			if my%2 == 0 {
				mx2 = m - mx - 1
			}
			r := w.ctx.Camera.GetSubpixelRay(x, y, w.ctx.XRes, w.ctx.YRes, mx2, my, m)
			total = total.Add(w.traceRay(r, w.maxDepth, debug))
		}
	}

	total = total.Mul(1.0 / float32(m*m))
	if debug {
		w.logger.Noticef("pixel (%d,%d): %d samples, %d rays, radiance %v",
			x, y, m*m, w.rays, total)
	}
	return PixelResult{Color: total, Rays: w.rays}
}

func (w *Whitted) traceRay(r scene.Ray, depth int, debug bool) types.Vec3 {
	w.rays++
	s := w.ctx.Scene

	isect := s.FindIntersectKd(r)
	if !isect.Hit() {
		return s.GetSkyboxRay(r.Dir)
	}

	tri := &s.Triangles[isect.Triangle]
	mat := &s.Materials[tri.Material]
	pos := r.At(isect.T)
	n := isect.Interpolate(tri.N[0], tri.N[1], tri.N[2]).Normalize()
	if n.HasNaN() {
		n = tri.GenericNormal()
	}
	v := r.Dir.Neg()

	var uv types.Vec2
	if mat.HasTextures() {
		uv = isect.InterpolateUV(tri.UV[0], tri.UV[1], tri.UV[2])
	}
	diffuse := mat.DiffuseAt(uv)
	specular := mat.SpecularAt(uv)
	ambient := mat.AmbientAt(uv)

	if mat.BumpTexture != nil {
		right := mat.BumpTexture.GetSlopeRight(uv)
		bottom := mat.BumpTexture.GetSlopeBottom(uv)
		tangent := isect.Interpolate(tri.T[0], tri.T[1], tri.T[2])
		bitangent := n.Cross(tangent).Normalize()
		bumped := n.Add(tangent.Mul(right).Add(bitangent.Mul(bottom)).Mul(w.bumpScale)).Normalize()
		if !bumped.HasNaN() {
			n = bumped
		}
	}

	var total types.Vec3
	for li := range s.Lights {
		light := &s.Lights[li]
		if depth > 0 && !w.lightVisible(pos, light.Pos, li) {
			continue
		}

		toLight := light.Pos.Sub(pos)
		dist := toLight.Len()
		if dist < 1e-6 {
			continue
		}
		l := toLight.Mul(1.0 / dist)

		// Inverse-square falloff with a softened core.
		d := dist * dist
		falloff := 1.0 / (3.0 + d) / 4.85
		power := light.Intensity * falloff

		kd := n.Dot(l)
		if kd < 0 {
			kd = 0
		}
		total = total.Add(diffuse.MulComp(light.Color).Mul(power * kd))

		if mat.Exponent > 1 {
			refl := l.Reflect(n)
			ks := refl.Dot(v)
			if ks < 0 {
				ks = 0
			}
			ks = float32(math.Pow(float64(ks), float64(mat.Exponent)))
			total = total.Add(specular.MulComp(light.Color).Mul(power * ks))
		}
	}

	// Unlit scenes still show their geometry.
	if len(s.Lights) == 0 {
		total = total.Add(diffuse)
	}

	total = total.Add(ambient.Mul(ambientWeight))

	// Exponents below one mark reflective surfaces; the exponent doubles
	// as the blend weight of the mirror image.
	if depth >= 2 && mat.Exponent < 1 {
		dir := v.Reflect(n)
		refl := scene.Ray{Origin: pos, Dir: dir, Near: reflNear, Far: reflFar}
		rc := w.traceRay(refl, depth-1, debug)
		total = rc.Mul(mat.Exponent).Add(total.Mul(1.0 - mat.Exponent))
	}

	return total
}

// lightVisible tests the shadow segment from p to lightPos, probing
// the cached occluders for light li before the full tree query.
func (w *Whitted) lightVisible(p, lightPos types.Vec3, li int) bool {
	s := w.ctx.Scene

	seg := scene.NewSegment(p, lightPos, s.Epsilon*2.0)

	cache := w.shadowCache[li]
	for _, ti := range cache.Items() {
		w.rays++
		if _, _, _, ok := s.Triangles[ti].Intersect(seg); ok {
			cache.Use(ti)
			return false
		}
	}

	w.rays++
	blocker := s.FindIntersectKdAny(seg)
	if blocker >= 0 {
		cache.Use(blocker)
		return false
	}
	return true
}
