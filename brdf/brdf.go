// Package brdf implements the reflectance models used by both tracers.
// Models are capability values implementing the BRDF interface, not an
// inheritance hierarchy; materials pick one at scene load time.
package brdf

import (
	"math"

	"github.com/ajgappmark/RGK/brdf/ltc"
	"github.com/ajgappmark/RGK/types"
)

// A BRDF evaluates and samples a reflectance model.
//
// Apply returns the reflected radiance per unit incident irradiance for
// the incoming direction vi and outgoing direction vr around shading
// normal n (all unit vectors pointing away from the surface).
//
// Sample draws an outgoing direction for a path continuation. The
// returned transfer coefficient and sampling type together tell the
// path tracer which pdf/cosine corrections remain to be applied.
type BRDF interface {
	Apply(diffuse, specular types.Vec3, n, vi, vr types.Vec3) types.Vec3
	Sample(n, vr types.Vec3, diffuse, specular types.Vec3, sample types.Vec2) (dir types.Vec3, coeff types.Vec3, st SamplingType)
}

var white = types.XYZ(1, 1, 1)

// Lambertian reflects Kd/pi regardless of direction.
type Lambertian struct{}

func (Lambertian) Apply(diffuse, specular types.Vec3, n, vi, vr types.Vec3) types.Vec3 {
	return diffuse.Mul(1.0 / math.Pi)
}

func (Lambertian) Sample(n, vr types.Vec3, diffuse, specular types.Vec3, sample types.Vec2) (types.Vec3, types.Vec3, SamplingType) {
	return CosineHemisphereDirected(sample, n), white, SamplingCosine
}

// Phong adds a glossy lobe around the mirror direction:
// Kd/pi + Ks*max(0, cos(vr, mirror(vi)))^exponent.
type Phong struct {
	Exponent float32
}

func (p Phong) Apply(diffuse, specular types.Vec3, n, vi, vr types.Vec3) types.Vec3 {
	mirror := vi.Reflect(n)
	c := vr.Dot(mirror)
	if c < 0 {
		c = 0
	}
	c = float32(math.Pow(float64(c), float64(p.Exponent)))
	return diffuse.Mul(1.0 / math.Pi).Add(specular.Mul(c))
}

func (p Phong) Sample(n, vr types.Vec3, diffuse, specular types.Vec3, sample types.Vec2) (types.Vec3, types.Vec3, SamplingType) {
	return CosineHemisphereDirected(sample, n), white, SamplingCosine
}

// PhongEnergyConserving is the same lobe with the (n+2)/(2*pi)
// normalization so total reflected energy stays bounded by Ks.
type PhongEnergyConserving struct {
	Exponent float32
}

func (p PhongEnergyConserving) Apply(diffuse, specular types.Vec3, n, vi, vr types.Vec3) types.Vec3 {
	mirror := vi.Reflect(n)
	c := vr.Dot(mirror)
	if c < 0 {
		c = 0
	}
	c = float32(math.Pow(float64(c), float64(p.Exponent)))
	cosI := vi.Dot(n)
	if cosI > 1e-6 {
		c /= cosI
	}
	norm := (p.Exponent + 2.0) / (2.0 * math.Pi)
	return diffuse.Mul(1.0 / math.Pi).Add(specular.Mul(norm * c))
}

func (p PhongEnergyConserving) Sample(n, vr types.Vec3, diffuse, specular types.Vec3, sample types.Vec2) (types.Vec3, types.Vec3, SamplingType) {
	return CosineHemisphereDirected(sample, n), white, SamplingCosine
}

// Beckmann is a rough specular lobe importance sampled through the
// tabulated LTC representation.
type Beckmann struct {
	Roughness float32
}

// RoughnessFromExponent converts a Phong exponent to an equivalent
// Beckmann roughness.
func RoughnessFromExponent(exponent float32) float32 {
	if exponent <= 0 {
		return 1.0
	}
	a := float32(math.Sqrt(2.0 / (float64(exponent) + 2.0)))
	if a > 1 {
		a = 1
	}
	return a
}

func (b Beckmann) Apply(diffuse, specular types.Vec3, n, vi, vr types.Vec3) types.Vec3 {
	spec := ltc.Eval(n, vr, vi, b.Roughness)
	return diffuse.Mul(1.0 / math.Pi).Add(specular.Mul(spec))
}

func (b Beckmann) Sample(n, vr types.Vec3, diffuse, specular types.Vec3, sample types.Vec2) (types.Vec3, types.Vec3, SamplingType) {
	dir := ltc.Sample(n, vr, b.Roughness, CosineHemisphere(sample))
	if dir.Dot(n) <= 0 {
		// The warped lobe can dip under the horizon at grazing angles;
		// fall back to a cosine draw which is always valid.
		return CosineHemisphereDirected(sample, n), white, SamplingCosine
	}

	pdf := ltc.PDF(n, dir, vr, b.Roughness)
	if pdf < 1e-6 {
		return CosineHemisphereDirected(sample, n), white, SamplingCosine
	}

	// With BRDF-proportional sampling the tracer applies no further
	// corrections, so fold f/pdf into the coefficient here.
	f := b.Apply(diffuse, specular, n, dir, vr)
	return dir, f.Mul(1.0 / pdf), SamplingBRDF
}
