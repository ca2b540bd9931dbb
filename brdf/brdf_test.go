package brdf

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajgappmark/RGK/types"
)

func randomHemisphereDir(rng *rand.Rand, n types.Vec3) types.Vec3 {
	for {
		v := types.XYZ(rng.Float32()*2-1, rng.Float32()*2-1, rng.Float32()*2-1)
		if v.Len() < 1e-3 {
			continue
		}
		v = v.Normalize()
		if v.Dot(n) > 1e-3 {
			return v
		}
	}
}

func TestLambertianApply(t *testing.T) {
	diffuse := types.XYZ(0.5, 0.25, 0.125)
	f := Lambertian{}.Apply(diffuse, types.Vec3{}, types.XYZ(0, 0, 1), types.XYZ(0, 0, 1), types.XYZ(0, 0, 1))
	assert.InDelta(t, 0.5/math.Pi, float64(f[0]), 1e-6)
	assert.InDelta(t, 0.25/math.Pi, float64(f[1]), 1e-6)
	assert.InDelta(t, 0.125/math.Pi, float64(f[2]), 1e-6)
}

func TestPhongMirrorLobe(t *testing.T) {
	n := types.XYZ(0, 0, 1)
	vi := types.XYZ(1, 0, 1).Normalize()
	mirror := vi.Reflect(n)

	p := Phong{Exponent: 50}
	diffuse := types.XYZ(0.2, 0.2, 0.2)
	specular := types.XYZ(1, 1, 1)

	atMirror := p.Apply(diffuse, specular, n, vi, mirror)
	offMirror := p.Apply(diffuse, specular, n, vi, types.XYZ(0, 0, 1))
	assert.Greater(t, float64(atMirror[0]), float64(offMirror[0]))

	// Behind the mirror lobe only the diffuse term remains.
	back := p.Apply(diffuse, specular, n, vi, types.XYZ(1, 0, 0.1).Normalize())
	assert.InDelta(t, 0.2/math.Pi, float64(back[0]), 1e-5)
}

func TestApplyNonNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	n := types.XYZ(0, 0, 1)
	diffuse := types.XYZ(0.5, 0.4, 0.3)
	specular := types.XYZ(0.8, 0.8, 0.8)

	models := []BRDF{
		Lambertian{},
		Phong{Exponent: 10},
		PhongEnergyConserving{Exponent: 10},
		Beckmann{Roughness: 0.3},
	}

	for mi, m := range models {
		for i := 0; i < 100; i++ {
			vi := randomHemisphereDir(rng, n)
			vr := randomHemisphereDir(rng, n)
			f := m.Apply(diffuse, specular, n, vi, vr)
			for c := 0; c < 3; c++ {
				require.False(t, f[c] != f[c], "model %d sample %d produced NaN", mi, i)
				require.GreaterOrEqual(t, float64(f[c]), 0.0, "model %d sample %d", mi, i)
			}
		}
	}
}

func TestSampleStaysAboveSurface(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	diffuse := types.XYZ(0.5, 0.5, 0.5)
	specular := types.XYZ(0.5, 0.5, 0.5)

	models := []BRDF{
		Lambertian{},
		Phong{Exponent: 20},
		PhongEnergyConserving{Exponent: 20},
		Beckmann{Roughness: 0.4},
	}

	for mi, m := range models {
		for i := 0; i < 200; i++ {
			n := randomHemisphereDir(rng, types.XYZ(0, 0, 1))
			vr := randomHemisphereDir(rng, n)
			sample := types.XY(rng.Float32(), rng.Float32())

			dir, coeff, _ := m.Sample(n, vr, diffuse, specular, sample)
			require.Greater(t, float64(dir.Dot(n)), 0.0, "model %d sample %d went under the surface", mi, i)
			require.InDelta(t, 1.0, float64(dir.Len()), 1e-4, "model %d sample %d", mi, i)
			for c := 0; c < 3; c++ {
				require.False(t, coeff[c] != coeff[c], "model %d sample %d coeff NaN", mi, i)
				require.GreaterOrEqual(t, float64(coeff[c]), 0.0, "model %d sample %d", mi, i)
			}
		}
	}
}

func TestRoughnessFromExponent(t *testing.T) {
	assert.Equal(t, float32(1.0), RoughnessFromExponent(0))
	assert.Equal(t, float32(1.0), RoughnessFromExponent(-5))

	// Higher exponents mean smoother surfaces.
	low := RoughnessFromExponent(5)
	high := RoughnessFromExponent(500)
	assert.Greater(t, float64(low), float64(high))
	assert.LessOrEqual(t, float64(low), 1.0)
	assert.Greater(t, float64(high), 0.0)
}

func TestOrthoBasis(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 50; i++ {
		n := randomHemisphereDir(rng, types.XYZ(0, 0, 1))
		a, b := OrthoBasis(n)

		assert.InDelta(t, 1.0, float64(a.Len()), 1e-5)
		assert.InDelta(t, 1.0, float64(b.Len()), 1e-5)
		assert.InDelta(t, 0.0, float64(a.Dot(b)), 1e-5)
		assert.InDelta(t, 0.0, float64(a.Dot(n)), 1e-5)
		assert.InDelta(t, 0.0, float64(b.Dot(n)), 1e-5)
	}
}

func TestCosineHemisphere(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	var meanZ float64
	const count = 2000
	for i := 0; i < count; i++ {
		v := CosineHemisphere(types.XY(rng.Float32(), rng.Float32()))
		require.GreaterOrEqual(t, float64(v[2]), 0.0)
		require.InDelta(t, 1.0, float64(v.Len()), 1e-4)
		meanZ += float64(v[2])
	}
	// E[cos(theta)] = 2/3 for a cosine-weighted hemisphere.
	assert.InDelta(t, 2.0/3.0, meanZ/count, 0.02)
}

func TestCosineHemisphereDirected(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	axis := types.XYZ(1, 2, -1).Normalize()
	for i := 0; i < 200; i++ {
		v := CosineHemisphereDirected(types.XY(rng.Float32(), rng.Float32()), axis)
		require.GreaterOrEqual(t, float64(v.Dot(axis)), 0.0)
		require.InDelta(t, 1.0, float64(v.Len()), 1e-4)
	}
}

func TestUniformSphere(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	var mean types.Vec3
	const count = 2000
	for i := 0; i < count; i++ {
		v := UniformSphere(types.XY(rng.Float32(), rng.Float32()))
		require.InDelta(t, 1.0, float64(v.Len()), 1e-4)
		mean = mean.Add(v)
	}
	// Uniform directions average out to roughly zero.
	mean = mean.Mul(1.0 / count)
	assert.InDelta(t, 0.0, float64(mean.Len()), 0.05)
}

func TestUniformDisc(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	for i := 0; i < 200; i++ {
		p := UniformDisc(types.XY(rng.Float32(), rng.Float32()))
		require.LessOrEqual(t, float64(p.Len()), 1.0+1e-5)
	}
}

func TestDecideAndRescale(t *testing.T) {
	sample := float32(0.3)
	assert.True(t, DecideAndRescale(&sample, 0.5))
	assert.InDelta(t, 0.6, float64(sample), 1e-6)

	sample = 0.8
	assert.False(t, DecideAndRescale(&sample, 0.5))
	assert.InDelta(t, 0.6, float64(sample), 1e-6)

	// Degenerate probabilities.
	sample = 0.4
	assert.False(t, DecideAndRescale(&sample, 0.0))
	assert.InDelta(t, 0.4, float64(sample), 1e-6)

	sample = 0.4
	assert.True(t, DecideAndRescale(&sample, 1.0))
	assert.InDelta(t, 0.4, float64(sample), 1e-6)
}

func TestDecideAndRescaleChained(t *testing.T) {
	// Chained decisions on one sample stay inside [0,1).
	rng := rand.New(rand.NewSource(12))
	for i := 0; i < 200; i++ {
		sample := rng.Float32()
		DecideAndRescale(&sample, 0.3)
		require.GreaterOrEqual(t, float64(sample), 0.0)
		require.Less(t, float64(sample), 1.0+1e-6)
		DecideAndRescale(&sample, 0.7)
		require.GreaterOrEqual(t, float64(sample), 0.0)
		require.Less(t, float64(sample), 1.0+1e-6)
	}
}
