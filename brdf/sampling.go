package brdf

import (
	"math"

	"github.com/ajgappmark/RGK/types"
)

// How a BRDF picked its outgoing direction. The path tracer uses this
// to decide which pdf/cosine corrections still need to be applied.
type SamplingType int

const (
	// Direction drawn from a cosine-weighted hemisphere; pdf = cos/pi.
	SamplingCosine SamplingType = iota

	// Direction drawn proportionally to the BRDF itself; the returned
	// transfer coefficient already folds in f/pdf.
	SamplingBRDF

	// Direction drawn uniformly over the hemisphere; pdf = 1/(2*pi).
	SamplingUniform
)

// OrthoBasis builds two unit vectors orthogonal to n and to each other.
func OrthoBasis(n types.Vec3) (types.Vec3, types.Vec3) {
	var t types.Vec3
	if n[0] < 0.5 && n[0] > -0.5 {
		t = types.XYZ(1, 0, 0)
	} else {
		t = types.XYZ(0, 1, 0)
	}
	b := n.Cross(t).Normalize()
	return b.Cross(n).Normalize(), b
}

// CosineHemisphere maps a unit square sample to a cosine-weighted
// direction in the canonical hemisphere around +z.
func CosineHemisphere(sample types.Vec2) types.Vec3 {
	r := float32(math.Sqrt(float64(sample[0])))
	phi := 2.0 * math.Pi * float64(sample[1])
	x := r * float32(math.Cos(phi))
	y := r * float32(math.Sin(phi))
	z := float32(math.Sqrt(math.Max(0.0, 1.0-float64(sample[0]))))
	return types.XYZ(x, y, z)
}

// CosineHemisphereDirected maps a unit square sample to a
// cosine-weighted direction around an arbitrary unit axis.
func CosineHemisphereDirected(sample types.Vec2, axis types.Vec3) types.Vec3 {
	local := CosineHemisphere(sample)
	t, b := OrthoBasis(axis)
	return t.Mul(local[0]).Add(b.Mul(local[1])).Add(axis.Mul(local[2])).Normalize()
}

// UniformSphere maps a unit square sample to a uniformly distributed
// direction on the unit sphere.
func UniformSphere(sample types.Vec2) types.Vec3 {
	z := 1.0 - 2.0*sample[0]
	r := float32(math.Sqrt(math.Max(0.0, 1.0-float64(z*z))))
	phi := 2.0 * math.Pi * float64(sample[1])
	return types.XYZ(r*float32(math.Cos(phi)), r*float32(math.Sin(phi)), z)
}

// UniformDisc maps a unit square sample to a point on the unit disc
// (concentric-free polar mapping).
func UniformDisc(sample types.Vec2) types.Vec2 {
	r := float32(math.Sqrt(float64(sample[0])))
	phi := 2.0 * math.Pi * float64(sample[1])
	return types.XY(r*float32(math.Cos(phi)), r*float32(math.Sin(phi)))
}

// DecideAndRescale makes a probability-p decision using *sample and
// rescales the remainder back to [0,1) so the same sample can feed
// several sequential decisions without extra dimensions.
func DecideAndRescale(sample *float32, p float32) bool {
	if *sample < p {
		if p > 0 {
			*sample = *sample / p
		}
		return true
	}
	if p < 1 {
		*sample = (*sample - p) / (1.0 - p)
	}
	return false
}
