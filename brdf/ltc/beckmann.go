// Package ltc provides a linearly-transformed-cosine representation of
// the Beckmann specular lobe. A (view angle, roughness) grid of 3x3
// transform matrices plus per-cell amplitudes is interpolated
// bilinearly; sampling draws a cosine-hemisphere vector and warps it
// through the matrix, evaluation inverts the warp and applies the
// transform Jacobian.
package ltc

import (
	"math"

	"github.com/ajgappmark/RGK/types"
)

// Table resolution along each axis. Lookups are parametrized by
// t = theta/(pi/2) and a = sqrt(alpha) so that grazing angles and low
// roughness get the densest coverage.
const tableSize = 16

var (
	tabM         [(tableSize + 1) * (tableSize + 1)]types.Mat3
	tabAmplitude [(tableSize + 1) * (tableSize + 1)]float32
)

// The original tables for this representation come from an offline
// fitting run. The generator below produces an analytic stand-in on the
// same grid: the cosine lobe is steered from the mirror direction
// toward the normal and compressed as roughness falls off, which
// matches the qualitative shape of the fitted Beckmann data.
func init() {
	for ti := 0; ti <= tableSize; ti++ {
		theta := float32(ti) / tableSize * (0.5 * math.Pi)
		for ai := 0; ai <= tableSize; ai++ {
			a := float32(ai) / tableSize
			alpha := a * a

			tabM[ai+ti*(tableSize+1)] = fitMatrix(theta, alpha)
			tabAmplitude[ai+ti*(tableSize+1)] = 1.0
		}
	}
}

// fitMatrix builds the transform for a view angle theta and roughness
// alpha in the local frame where z is the surface normal and the view
// direction lies in the xz plane at (sin theta, 0, cos theta).
func fitMatrix(theta, alpha float32) types.Mat3 {
	sin := float32(math.Sin(float64(theta)))
	cos := float32(math.Cos(float64(theta)))

	// Mirror direction of the view vector about the normal.
	mirror := types.XYZ(-sin, 0, cos)

	// Steer the lobe axis from the mirror direction toward the normal
	// as the surface gets rougher.
	axis := types.LerpVec3(mirror, types.XYZ(0, 0, 1), alpha).Normalize()

	// Angular compression of the cosine lobe. Beckmann RMS slope is
	// alpha; never collapse fully or the matrix becomes singular.
	spread := alpha
	if spread < 0.005 {
		spread = 0.005
	}

	// Basis around the lobe axis with x kept in the incidence plane.
	y := types.XYZ(0, 1, 0)
	x := y.Cross(axis).Normalize()
	y = axis.Cross(x)

	return types.Mat3FromCols(x.Mul(spread), y.Mul(spread), axis)
}

func lookup(ti, ai int) (types.Mat3, float32) {
	return tabM[ai+ti*(tableSize+1)], tabAmplitude[ai+ti*(tableSize+1)]
}

// GetBilinear interpolates the transform and amplitude at an arbitrary
// view angle and roughness.
func GetBilinear(theta, alpha float32) (types.Mat3, float32) {
	t := theta / (0.5 * math.Pi)
	if t < 0 {
		t = 0
	}
	if t >= 1 {
		t = 0.999
	}
	a := float32(math.Sqrt(float64(alpha)))
	if a < 0 {
		a = 0
	}
	if a >= 1 {
		a = 0.999
	}

	t1 := int(t * tableSize)
	a1 := int(a * tableSize)
	t2 := t1 + 1
	a2 := a1 + 1

	dt := t*tableSize - float32(t1)
	da := a*tableSize - float32(a1)

	m11, amp11 := lookup(t1, a1)
	m12, amp12 := lookup(t1, a2)
	m21, amp21 := lookup(t2, a1)
	m22, amp22 := lookup(t2, a2)

	m := m11.Scale((1 - dt) * (1 - da)).
		Add(m12.Scale((1 - dt) * da)).
		Add(m21.Scale(dt * (1 - da))).
		Add(m22.Scale(dt * da))
	amp := amp11*(1-dt)*(1-da) +
		amp12*(1-dt)*da +
		amp21*dt*(1-da) +
		amp22*dt*da

	return m, amp
}

// localFrame returns the rotation whose columns map local x to the
// in-plane component of v, y to the tangent and z to n.
func localFrame(n, v types.Vec3) (types.Mat3, bool) {
	tangent := n.Cross(v)
	if tangent.Len2() < 1e-12 {
		// View direction parallel to the normal; any tangent works.
		var t types.Vec3
		if n[0] < 0.5 && n[0] > -0.5 {
			t = types.XYZ(1, 0, 0)
		} else {
			t = types.XYZ(0, 1, 0)
		}
		b := n.Cross(t).Normalize()
		return types.Mat3FromCols(b.Cross(n).Normalize(), b, n), true
	}
	tangent = tangent.Normalize()
	vCast := tangent.Cross(n).Normalize()
	return types.Mat3FromCols(vCast, tangent, n), true
}

// Sample warps a cosine-hemisphere vector hscos through the tabulated
// transform for view direction v and returns a world-space unit
// direction.
func Sample(n, v types.Vec3, roughness float32, hscos types.Vec3) types.Vec3 {
	rotate, _ := localFrame(n, v)

	theta := v.Angle(n)
	// Below 45 degrees the fitted lobes barely change; clamping keeps
	// the near-normal rows of the table from being oversampled.
	if theta < math.Pi/4.0 {
		theta = math.Pi / 4.0
	}
	m, _ := GetBilinear(theta, roughness)

	s := m.Mul3x1(hscos)
	return rotate.Mul3x1(s).Normalize()
}

// Eval returns the lobe density for outgoing direction vr given
// incoming direction vi, including the table amplitude.
func Eval(n, vr, vi types.Vec3, alpha float32) float32 {
	return density(n, vr, vi, alpha, true)
}

// PDF returns the sampling density of Sample for direction vr.
func PDF(n, vr, vi types.Vec3, alpha float32) float32 {
	return density(n, vr, vi, alpha, false)
}

func density(n, vr, vi types.Vec3, alpha float32, withAmplitude bool) float32 {
	rotate, _ := localFrame(n, vi)
	unrotate := rotate.Inv()
	vrLocal := unrotate.Mul3x1(vr)

	theta := vi.Angle(n)
	m, amplitude := GetBilinear(theta, alpha)

	p := m.Inv().Mul3x1(vrLocal).Normalize()
	warped := m.Mul3x1(p)
	l := warped.Len()
	if l < 1e-12 {
		return 0
	}
	jacobian := m.Det() / (l * l * l)
	if jacobian != jacobian || jacobian == 0 {
		return 0
	}

	d := float32(math.Max(0.0, float64(p[2]))) / math.Pi
	res := d / jacobian
	if res < 0 {
		res = -res
	}
	if withAmplitude {
		res *= amplitude
	}
	return res
}
