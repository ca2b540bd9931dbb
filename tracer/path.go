package tracer

import (
	"math"
	"sort"

	"github.com/ajgappmark/RGK/brdf"
	"github.com/ajgappmark/RGK/log"
	"github.com/ajgappmark/RGK/scene"
	"github.com/ajgappmark/RGK/types"
)

// Paths never exceed this many vertices regardless of configuration.
const pathHardLimit = 20

type pointType int

const (
	// Diffuse or glossy bounce sampled from the BRDF.
	pointScattered pointType = iota

	// Specular mirror bounce.
	pointReflected

	// Refraction into a translucent medium.
	pointEntered

	// Refraction out of a translucent medium.
	pointLeft
)

// pathPoint is one vertex of a camera or light subpath. vr points back
// toward the previous vertex, vi toward the next one.
type pathPoint struct {
	infinity bool
	backside bool
	kind     pointType

	pos    types.Vec3
	faceN  types.Vec3
	lightN types.Vec3
	vi, vr types.Vec3

	diffuse  types.Vec3
	specular types.Vec3
	mat      *scene.Material

	// Per-vertex weight for radiance arriving from the next vertex.
	transfer     types.Vec3
	russianCoeff float32

	// Filled during the light-carry phase of light subpaths.
	lightFromSource types.Vec3

	thinglass []scene.ThinglassIsect
}

// PathConfig tunes the path tracer.
type PathConfig struct {
	// Camera subpath length. Ignored when Russian is non-negative.
	MaxDepth int

	// Per-vertex radiance clamp; trades bias for reduced firefly noise.
	Clamp float32

	// Continuation probability for russian roulette termination.
	// Negative disables roulette in favor of the fixed MaxDepth.
	Russian float32

	// Light subpath length. Zero disables bidirectional transport.
	Reverse int

	BumpScale float32

	// Probabilistically treat specular reflection on opaque materials
	// according to the Fresnel equations.
	ForceFresnel bool

	// Apply the cosine factor under BRDF-proportional sampling. The
	// tabulated lobes already approximate the cosine-weighted BRDF, so
	// this stays off by default.
	CosineOnBRDF bool
}

// Path is the bidirectional Monte-Carlo path tracer.
type Path struct {
	ctx     Context
	cfg     PathConfig
	sampler Sampler

	rays   uint64
	logger log.Logger
}

func NewPath(ctx Context, cfg PathConfig, sampler Sampler) *Path {
	return &Path{
		ctx:     ctx,
		cfg:     cfg,
		sampler: sampler,
		logger:  log.New("path"),
	}
}

// RenderPixel averages Multisample independent paths through the
// pixel. Splats onto other pixels are returned unscaled; the renderer
// divides them by the sample count when compositing.
func (t *Path) RenderPixel(x, y int, debug bool) PixelResult {
	t.rays = 0

	var result PixelResult
	for i := 0; i < t.ctx.Multisample; i++ {
		t.sampler.Advance()

		coords := t.sampler.Get2D()
		var r scene.Ray
		if t.ctx.Camera.IsSimple() {
			r = t.ctx.Camera.GetPixelRay(x, y, t.ctx.XRes, t.ctx.YRes, coords)
		} else {
			r = t.ctx.Camera.GetPixelRayLens(x, y, t.ctx.XRes, t.ctx.YRes, coords, t.sampler.Get2D())
		}

		q := t.tracePath(r, debug)
		result.Color = result.Color.Add(q.Color)
		result.Splats = append(result.Splats, q.Splats...)
		if debug {
			t.logger.Noticef("sample %d: %d sampler dims used", i, t.sampler.GetUsage())
		}
	}

	result.Color = result.Color.Mul(1.0 / float32(t.ctx.Multisample))
	result.Rays = t.rays
	if debug {
		t.logger.Noticef("pixel (%d,%d): %d rays, %d splats, radiance %v",
			x, y, t.rays, len(result.Splats), result.Color)
	}
	return result
}

// applyThinglass runs radiance through the filter surfaces crossed by
// a ray. Crossings are deduplicated within epsilon because straddling
// triangles can be reported from both kd-tree children.
func (t *Path) applyThinglass(in types.Vec3, isects []scene.ThinglassIsect, rayDir types.Vec3) types.Vec3 {
	if len(isects) == 0 {
		return in
	}
	s := t.ctx.Scene

	sorted := append([]scene.ThinglassIsect(nil), isects...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].T < sorted[j].T })

	result := in
	last := float32(math.Inf(-1))
	for _, tg := range sorted {
		if tg.T <= last+s.Epsilon {
			continue
		}
		last = tg.T

		tri := &s.Triangles[tg.Triangle]
		// Orientation check so the filter is applied only when the ray
		// enters the glass.
		if tri.GenericNormal().Dot(rayDir) >= 0 {
			// TODO: use a translucency filter color instead of diffuse.
			result = result.MulComp(s.Materials[tri.Material].Diffuse)
		}
	}
	return result
}

// generatePath traces a subpath starting at r. With russian >= 0 the
// path terminates by roulette with the given continuation probability,
// otherwise after maxDepth scattering vertices. Specular and
// refractive bounces are free: they count toward neither limit.
func (t *Path) generatePath(r scene.Ray, maxDepth int, russian float32, debug bool) []pathPoint {
	s := t.ctx.Scene

	var path []pathPoint
	currentRay := r
	n, n2 := 0, 0
	skipRussian := false
	lastTriangle := -1

	for {
		n++
		n2++
		if n2 >= pathHardLimit {
			break
		}
		if russian >= 0 {
			if n > 1 && !skipRussian && t.sampler.Get1D() > russian {
				break
			}
			skipRussian = false
		} else if n > maxDepth {
			break
		}

		t.rays++
		var isect scene.Intersection
		if !s.HasThinglass() {
			isect = s.FindIntersectKdOtherThan(currentRay, lastTriangle)
		} else {
			isect = s.FindIntersectKdOtherThanWithThinglass(currentRay, lastTriangle)
		}

		var p pathPoint
		p.thinglass = isect.Thinglass
		if !isect.Hit() {
			p.infinity = true
			p.vr = currentRay.Dir.Neg()
			path = append(path, p)
			break
		}

		tri := &s.Triangles[isect.Triangle]
		p.pos = currentRay.At(isect.T)
		p.faceN = isect.Interpolate(tri.N[0], tri.N[1], tri.N[2])
		if p.faceN.HasNaN() {
			// Some models carry broken vertex normals; fall back to any
			// valid one.
			for _, cand := range tri.N {
				p.faceN = cand
				if !p.faceN.HasNaN() {
					break
				}
			}
			if p.faceN.HasNaN() {
				return path
			}
		}
		if p.faceN.Len() <= 0 {
			// Zero-length normals interpolate to nothing useful.
			return path
		}
		p.faceN = p.faceN.Normalize()
		p.vr = currentRay.Dir.Neg()

		mat := &s.Materials[tri.Material]
		p.mat = mat

		fromInside := false
		if p.faceN.Dot(p.vr) < 0 {
			fromInside = true
			p.faceN = p.faceN.Neg()
			p.backside = true
		}

		var texUV types.Vec2
		if mat.HasTextures() {
			texUV = isect.InterpolateUV(tri.UV[0], tri.UV[1], tri.UV[2])
		}
		p.diffuse = mat.DiffuseAt(texUV)
		p.specular = mat.SpecularAt(texUV)

		p.lightN = p.faceN
		if mat.BumpTexture != nil {
			right := mat.BumpTexture.GetSlopeRight(texUV)
			bottom := mat.BumpTexture.GetSlopeBottom(texUV)
			tangent := isect.Interpolate(tri.T[0], tri.T[1], tri.T[2])
			// Tangents at coincident vertices can interpolate to zero;
			// skip the bump map at such points.
			if tangent.Len2() >= 0.001 {
				tangent = tangent.Normalize()
				bitangent := p.faceN.Cross(tangent).Normalize()
				tangent2 := bitangent.Cross(p.faceN)
				p.lightN = p.faceN.Add(tangent2.Mul(right).Add(bitangent.Mul(bottom)).Mul(t.cfg.BumpScale)).Normalize()
				if p.lightN.HasNaN() {
					p.lightN = p.faceN
				}
			}
		}

		// Classify the vertex.
		ptypeSample := t.sampler.Get1D()
		p.kind = pointScattered
		if mat.Translucency > 0.001 {
			if fromInside {
				p.kind = pointLeft
			} else {
				q := fresnel(p.vr, p.lightN, 1.0/mat.RefractionIndex)
				if brdf.DecideAndRescale(&ptypeSample, q) {
					p.kind = pointReflected
				} else if brdf.DecideAndRescale(&ptypeSample, mat.Translucency) {
					p.kind = pointEntered
				}
			}
		} else if t.cfg.ForceFresnel {
			specSum := p.specular.Sum()
			total := p.diffuse.Sum() + specSum
			if total > 0 {
				strength := specSum / total
				if brdf.DecideAndRescale(&ptypeSample, strength) &&
					brdf.DecideAndRescale(&ptypeSample, fresnel(p.vr, p.lightN, 1.0/mat.RefractionIndex)) {
					p.kind = pointReflected
				}
			}
		}

		// Specular and refractive bounces count toward neither the
		// depth limit nor roulette.
		if p.kind != pointScattered {
			n--
			skipRussian = true
		}

		samplingType := brdf.SamplingCosine
		p.transfer = types.XYZ(1, 1, 1)

		var dir types.Vec3
		scatterSample := p.kind == pointScattered
		if p.kind == pointReflected {
			dir = p.vr.Reflect(p.lightN)
			if dir.Dot(p.faceN) <= 0 {
				// The mirror ray would enter the face; sample a scatter
				// direction instead.
				scatterSample = true
			}
		}
		if scatterSample {
			if p.lightN.Dot(p.vr) <= 0 {
				p.lightN = p.faceN
			}
			sample := t.sampler.Get2D()
			dir, p.transfer, samplingType = mat.BRDF.Sample(p.lightN, p.vr, p.diffuse, p.specular, sample)
			if dir.Dot(p.faceN) <= 0 {
				dir, p.transfer, samplingType = mat.BRDF.Sample(p.faceN, p.vr, p.diffuse, p.specular, t.sampler.Get2D())
				if dir.Dot(p.faceN) <= 0 {
					return path
				}
			}
		}
		if p.kind == pointEntered {
			var ok bool
			dir, ok = refract(p.vr, p.lightN, mat.RefractionIndex)
			if !ok {
				p.kind = pointReflected
				dir = p.vr.Reflect(p.lightN)
			}
		} else if p.kind == pointLeft {
			var ok bool
			dir, ok = refract(p.vr, p.lightN, 1.0/mat.RefractionIndex)
			if !ok {
				p.kind = pointReflected
				dir = p.vr.Reflect(p.lightN)
			}
		}
		p.vi = dir

		if russian > 0 && !skipRussian {
			p.russianCoeff = 1.0 / russian
		} else {
			p.russianCoeff = 1.0
		}

		if p.kind == pointScattered {
			if samplingType != brdf.SamplingCosine {
				// Every strategy owes the cosine factor; cosine sampling
				// cancels it against its own density.
				cos := p.lightN.Dot(p.vi)
				if samplingType != brdf.SamplingBRDF || t.cfg.CosineOnBRDF {
					p.transfer = p.transfer.Mul(cos)
				}
			} else {
				// Cosine density is cos/pi, so only pi remains.
				p.transfer = p.transfer.Mul(math.Pi)
			}
			if samplingType != brdf.SamplingBRDF {
				f := mat.BRDF.Apply(p.diffuse, p.specular, p.lightN, p.vi, p.vr)
				p.transfer = p.transfer.MulComp(f)
			}
			if samplingType == brdf.SamplingUniform {
				p.transfer = p.transfer.Mul(2.0 * math.Pi)
			}
		}

		path = append(path, p)

		offset := s.Epsilon * 10.0
		if p.kind == pointEntered || p.kind == pointLeft {
			offset = -offset
		}
		currentRay = scene.New(p.pos.Add(p.faceN.Mul(offset)), dir)
		lastTriangle = isect.Triangle
	}

	return path
}

// tracePath integrates one camera path bidirectionally: a camera
// subpath, a light subpath, their mutual connections plus direct light
// sampling at every scattering vertex, and lens connections emitted as
// splats.
func (t *Path) tracePath(r scene.Ray, debug bool) PixelResult {
	var result PixelResult
	s := t.ctx.Scene
	cameraPos := r.Origin

	path := t.generatePath(r, t.cfg.MaxDepth, t.cfg.Russian, debug)

	var lights []scene.Light
	var lightPath []pathPoint

	if len(s.Lights) > 0 {
		arealSample := t.sampler.Get2D()
		lightdirSample := t.sampler.Get2D()
		mainLight := s.GetRandomLight(t.sampler.Get1D(), arealSample)

		var mainLightDir types.Vec3
		if mainLight.Type == scene.FullSphereLight {
			dir := brdf.UniformSphere(arealSample)
			mainLight.Pos = mainLight.Pos.Add(dir.Mul(mainLight.Size))
			mainLight.Normal = dir
			mainLightDir = brdf.CosineHemisphereDirected(lightdirSample, dir)
		} else {
			mainLightDir = brdf.CosineHemisphereDirected(lightdirSample, mainLight.Normal)
		}
		lights = append(lights, mainLight)

		lightRay := scene.New(mainLight.Pos.Add(mainLight.Normal.Mul(s.Epsilon*100.0)), mainLightDir)
		lightPath = t.generatePath(lightRay, t.cfg.Reverse, -1.0, debug)

		// Carry radiance along the light subpath, splatting lens
		// connections as we go.
		var carried types.Vec3
		for i := range lightPath {
			p := &lightPath[i]
			if i == 0 {
				carried = mainLight.Color.Mul(mainLight.Intensity * mainLight.GetDirectionalFactor(mainLightDir))
			}
			carried = t.applyThinglass(carried, p.thinglass, p.vr)
			p.lightFromSource = carried

			switch p.kind {
			case pointScattered:
				carried = carried.MulComp(p.transfer).Mul(p.russianCoeff)
			case pointEntered:
				carried = carried.MulComp(p.diffuse)
			}

			if p.kind != pointScattered || p.infinity {
				continue
			}
			if !s.Visibility(p.pos, cameraPos) {
				continue
			}
			direction := p.pos.Sub(cameraPos).Normalize()
			q := p.lightFromSource.MulComp(
				p.mat.BRDF.Apply(p.diffuse, p.specular, p.lightN, p.vr, direction.Neg()))
			g := p.lightN.Dot(direction.Neg())
			if g < 0 {
				g = 0
			}
			g /= cameraPos.Distance2(p.pos)
			if g < 0.00001 || q.HasNaN() {
				continue
			}
			q = q.Mul(g)
			if x2, y2, ok := t.ctx.Camera.GetCoordsFromDirection(direction, t.ctx.XRes, t.ctx.YRes); ok {
				result.Splats = append(result.Splats, Splat{X: x2, Y: y2, Radiance: q})
			}
		}
	}

	// Gather radiance back to front along the camera subpath.
	var fromNext types.Vec3
	for n := len(path) - 1; n >= 0; n-- {
		last := n == len(path)-1
		p := &path[n]

		if p.infinity {
			sky := s.GetSkyboxRay(p.vr.Neg())
			fromNext = t.applyThinglass(sky, p.thinglass, p.vr.Neg())
			continue
		}

		mat := p.mat
		var total types.Vec3

		switch p.kind {
		case pointScattered:
			// Direct lighting.
			for li := range lights {
				light := &lights[li]

				var tgIsect []scene.ThinglassIsect
				visible := false
				if !s.HasThinglass() {
					visible = s.Visibility(light.Pos, p.pos)
				} else {
					visible = s.VisibilityWithThinglass(light.Pos, p.pos, &tgIsect)
				}
				if !visible {
					continue
				}

				vi := light.Pos.Sub(p.pos).Normalize()
				f := mat.BRDF.Apply(p.diffuse, p.specular, p.lightN, vi, p.vr)
				g := p.lightN.Dot(vi)
				if g < 0 {
					g = 0
				}
				g /= light.Pos.Distance2(p.pos)
				incoming := light.Color.Mul(light.Intensity * light.GetDirectionalFactor(vi.Neg()))
				incoming = t.applyThinglass(incoming, tgIsect, vi)
				total = total.Add(incoming.MulComp(f).Mul(g))
			}

			// Connections to the light subpath.
			for q := range lightPath {
				l := &lightPath[q]
				if l.infinity || !s.Visibility(l.pos, p.pos) {
					continue
				}
				lightToP := p.pos.Sub(l.pos).Normalize()
				pToLight := lightToP.Neg()
				fLight := l.mat.BRDF.Apply(l.diffuse, l.specular, l.lightN, lightToP, l.vr)
				fPoint := mat.BRDF.Apply(p.diffuse, p.specular, p.lightN, p.vr, pToLight)
				g := p.lightN.Dot(pToLight)
				if g < 0 {
					g = 0
				}
				g /= l.pos.Distance2(p.pos)
				total = total.Add(l.lightFromSource.MulComp(fLight).MulComp(fPoint).Mul(g))
			}

			// Indirect lighting from the rest of the subpath.
			if !last {
				total = total.Add(fromNext.Mul(p.russianCoeff).MulComp(p.transfer))
			}

		case pointReflected, pointLeft:
			total = total.Add(fromNext)

		case pointEntered:
			total = total.Add(fromNext.MulComp(p.diffuse))
		}

		if mat.Emissive && !p.backside {
			total = total.Add(mat.Emission)
		}

		total = t.applyThinglass(total, p.thinglass, p.vr)

		for c := 0; c < 3; c++ {
			if total[c] > t.cfg.Clamp {
				total[c] = t.cfg.Clamp
			}
			if total[c] != total[c] || total[c] < 0 {
				total[c] = 0
			}
		}

		fromNext = total
	}

	result.Color = fromNext
	return result
}
