package tracer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndependentSamplerRange(t *testing.T) {
	s := NewIndependentSampler(1)
	for i := 0; i < 200; i++ {
		v := s.Get1D()
		require.GreaterOrEqual(t, float64(v), 0.0)
		require.Less(t, float64(v), 1.0)

		p := s.Get2D()
		require.GreaterOrEqual(t, float64(p[0]), 0.0)
		require.Less(t, float64(p[0]), 1.0)
		require.GreaterOrEqual(t, float64(p[1]), 0.0)
		require.Less(t, float64(p[1]), 1.0)
	}
}

func TestIndependentSamplerDeterministic(t *testing.T) {
	a := NewIndependentSampler(99)
	b := NewIndependentSampler(99)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Get1D(), b.Get1D())
		assert.Equal(t, a.Get2D(), b.Get2D())
	}

	c := NewIndependentSampler(100)
	same := true
	for i := 0; i < 10; i++ {
		if a.Get1D() != c.Get1D() {
			same = false
		}
	}
	assert.False(t, same, "different seeds must produce different streams")
}

func TestSamplerUsageTracking(t *testing.T) {
	for name, s := range map[string]Sampler{
		"independent": NewIndependentSampler(1),
		"stratified":  NewStratifiedSampler(1, 16),
	} {
		assert.Equal(t, 0, s.GetUsage(), name)

		s.Advance()
		assert.Equal(t, 0, s.GetUsage(), name)

		// A 1D draw consumes one dimension, a 2D draw two.
		s.Get1D()
		assert.Equal(t, 1, s.GetUsage(), name)
		s.Get2D()
		assert.Equal(t, 3, s.GetUsage(), name)
		s.Get2D()
		assert.Equal(t, 5, s.GetUsage(), name)

		// Advance starts the next path's count from zero.
		s.Advance()
		assert.Equal(t, 0, s.GetUsage(), name)
	}
}

func TestStratifiedSamplerCoversGrid(t *testing.T) {
	s := NewStratifiedSampler(5, 16)

	// The first 2D draw of each of 16 paths lands in a distinct cell of
	// the 4x4 grid.
	cells := make(map[int]bool)
	for i := 0; i < 16; i++ {
		s.Advance()
		p := s.Get2D()
		cx := int(p[0] * 4)
		cy := int(p[1] * 4)
		require.GreaterOrEqual(t, cx, 0)
		require.Less(t, cx, 4)
		require.GreaterOrEqual(t, cy, 0)
		require.Less(t, cy, 4)
		cells[cy*4+cx] = true
	}
	assert.Len(t, cells, 16)
}

func TestStratifiedSamplerLaterDrawsUnconstrained(t *testing.T) {
	s := NewStratifiedSampler(6, 4)
	s.Advance()
	first := s.Get2D()

	// The first draw is pinned to the current cell of a 2x2 grid.
	assert.Less(t, float64(first[0]), 0.5)
	assert.Less(t, float64(first[1]), 0.5)

	// Later draws are plain uniform samples in [0,1).
	for i := 0; i < 50; i++ {
		p := s.Get2D()
		require.GreaterOrEqual(t, float64(p[0]), 0.0)
		require.Less(t, float64(p[0]), 1.0)
	}
}

func TestStratifiedSamplerCellCycling(t *testing.T) {
	s := NewStratifiedSampler(7, 4)

	// With 4 cells, path 5 reuses the first cell.
	var firstCell [2]int
	for i := 0; i < 5; i++ {
		s.Advance()
		p := s.Get2D()
		if i == 0 {
			firstCell = [2]int{int(p[0] * 2), int(p[1] * 2)}
		}
		if i == 4 {
			assert.Equal(t, firstCell, [2]int{int(p[0] * 2), int(p[1] * 2)})
		}
	}
}

func TestStratifiedSamplerNonSquareCount(t *testing.T) {
	// 10 samples stratify over the largest square grid that fits (3x3).
	s := NewStratifiedSampler(8, 10)
	cells := make(map[int]bool)
	for i := 0; i < 9; i++ {
		s.Advance()
		p := s.Get2D()
		cells[int(p[1]*3)*3+int(p[0]*3)] = true
	}
	assert.Len(t, cells, 9)
}
