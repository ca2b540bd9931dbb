package tracer

import (
	"math"

	"github.com/ajgappmark/RGK/types"
)

// fresnel returns the dielectric reflectance for a ray meeting a
// surface of relative refraction index ior. vi points away from the
// surface toward the arriving ray; a positive cosine against n means
// the ray leaves the denser medium. Total internal reflection yields 1.
func fresnel(vi, n types.Vec3, ior float32) float32 {
	cosI := vi.Dot(n)
	etaI, etaT := float32(1.0), ior
	if cosI > 0 {
		etaI, etaT = etaT, etaI
	}

	sinT := etaI / etaT * float32(math.Sqrt(math.Max(0, 1.0-float64(cosI*cosI))))
	if sinT >= 1 {
		return 1.0
	}

	cosT := float32(math.Sqrt(math.Max(0, 1.0-float64(sinT*sinT))))
	if cosI < 0 {
		cosI = -cosI
	}
	rs := (etaT*cosI - etaI*cosT) / (etaT*cosI + etaI*cosT)
	rp := (etaI*cosI - etaT*cosT) / (etaI*cosI + etaT*cosT)
	return (rs*rs + rp*rp) / 2.0
}

// refract bends the incoming direction through a surface of relative
// index ior. vi points away from the surface toward the arriving ray
// and n is the surface normal on the same side. The second return is
// false on total internal reflection.
func refract(vi, n types.Vec3, ior float32) (types.Vec3, bool) {
	if vi.Dot(n) > 0.999 {
		// Head-on; passes straight through.
		return vi.Neg(), true
	}

	axis := n.Cross(vi)
	sinI := axis.Len()
	if sinI < 1e-6 {
		return vi.Neg(), true
	}
	axis = axis.Mul(1.0 / sinI)

	sinT := sinI / ior
	if sinT >= 1 {
		return types.Vec3{}, false
	}
	thetaT := float32(math.Asin(float64(sinT)))
	return types.RotateAroundAxis(n.Neg(), axis, thetaT), true
}
