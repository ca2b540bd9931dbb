package ltc

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajgappmark/RGK/types"
)

func cosineDir(rng *rand.Rand) types.Vec3 {
	r := float32(math.Sqrt(float64(rng.Float32())))
	phi := 2.0 * math.Pi * float64(rng.Float32())
	x := r * float32(math.Cos(phi))
	y := r * float32(math.Sin(phi))
	z := float32(math.Sqrt(math.Max(0, 1.0-float64(x*x+y*y))))
	return types.XYZ(x, y, z)
}

func TestGetBilinear(t *testing.T) {
	m, amp := GetBilinear(0.5, 0.25)
	assert.InDelta(t, 1.0, float64(amp), 1e-5)

	// The transform must be invertible everywhere on the table.
	assert.NotEqual(t, float32(0), m.Det())

	// Out-of-range lookups clamp instead of indexing out of bounds.
	_, _ = GetBilinear(-1, 0.5)
	_, _ = GetBilinear(10, 0.5)
	_, _ = GetBilinear(0.5, -1)
	_, _ = GetBilinear(0.5, 10)
}

func TestSampleReturnsUnitDirections(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	n := types.XYZ(0, 0, 1)

	for i := 0; i < 300; i++ {
		v := types.XYZ(rng.Float32()*2-1, rng.Float32()*2-1, rng.Float32()).Normalize()
		if v.Dot(n) < 0.05 {
			continue
		}
		roughness := rng.Float32()*0.9 + 0.05

		dir := Sample(n, v, roughness, cosineDir(rng))
		require.InDelta(t, 1.0, float64(dir.Len()), 1e-4, "sample %d", i)
		require.False(t, dir.HasNaN(), "sample %d", i)
	}
}

func TestSampleFollowsMirrorAtLowRoughness(t *testing.T) {
	n := types.XYZ(0, 0, 1)
	v := types.XYZ(1, 0, 1).Normalize()
	mirror := v.Reflect(n)

	// A smooth lobe concentrates samples around the mirror direction.
	rng := rand.New(rand.NewSource(22))
	var mean types.Vec3
	for i := 0; i < 500; i++ {
		mean = mean.Add(Sample(n, v, 0.05, cosineDir(rng)))
	}
	mean = mean.Normalize()
	assert.Greater(t, float64(mean.Dot(mirror)), 0.9)
}

func TestEvalAndPDFNonNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	n := types.XYZ(0, 0, 1)

	for i := 0; i < 300; i++ {
		vi := types.XYZ(rng.Float32()*2-1, rng.Float32()*2-1, rng.Float32()+0.05).Normalize()
		vr := types.XYZ(rng.Float32()*2-1, rng.Float32()*2-1, rng.Float32()+0.05).Normalize()
		alpha := rng.Float32()*0.9 + 0.05

		e := Eval(n, vr, vi, alpha)
		p := PDF(n, vr, vi, alpha)
		require.False(t, e != e, "eval %d NaN", i)
		require.False(t, p != p, "pdf %d NaN", i)
		require.GreaterOrEqual(t, float64(e), 0.0, "eval %d", i)
		require.GreaterOrEqual(t, float64(p), 0.0, "pdf %d", i)
	}
}

func TestPDFPositiveAroundSampledDirections(t *testing.T) {
	rng := rand.New(rand.NewSource(24))
	n := types.XYZ(0, 0, 1)
	v := types.XYZ(1, 0, 1).Normalize()

	positive := 0
	for i := 0; i < 200; i++ {
		roughness := rng.Float32()*0.5 + 0.2
		dir := Sample(n, v, roughness, cosineDir(rng))
		if dir.Dot(n) <= 0 {
			continue
		}
		if PDF(n, dir, v, roughness) > 0 {
			positive++
		}
	}
	// The sampler and its density must agree on the bulk of the lobe.
	assert.Greater(t, positive, 150)
}
