package tracer

import (
	"math/rand"

	"github.com/ajgappmark/RGK/types"
)

// Sampler hands out the random numbers driving one path. Advance marks
// the start of a new path so stratified implementations can move to
// the next stratum. GetUsage reports how many random dimensions the
// current path has consumed since the last Advance.
type Sampler interface {
	Advance()
	Get1D() float32
	Get2D() types.Vec2
	GetUsage() int
}

// IndependentSampler draws every dimension independently from a
// per-worker generator.
type IndependentSampler struct {
	rng  *rand.Rand
	used int
}

func NewIndependentSampler(seed int64) *IndependentSampler {
	return &IndependentSampler{rng: rand.New(rand.NewSource(seed))}
}

func (s *IndependentSampler) Advance() {
	s.used = 0
}

func (s *IndependentSampler) Get1D() float32 {
	s.used++
	return s.rng.Float32()
}

func (s *IndependentSampler) Get2D() types.Vec2 {
	s.used += 2
	return types.XY(s.rng.Float32(), s.rng.Float32())
}

func (s *IndependentSampler) GetUsage() int {
	return s.used
}

// StratifiedSampler stratifies the first 2D draw of each path over a
// grid covering the pixel, so primary rays spread evenly; every later
// draw is independent. Only the first draw is stratified because it
// selects the subpixel position, the dimension with the most visible
// variance; later dimensions address different scattering decisions
// each path, so strata would not line up between paths.
type StratifiedSampler struct {
	rng  *rand.Rand
	used int

	gridX, gridY int
	cell         int
	firstUsed    bool
}

// NewStratifiedSampler stratifies samplesPerPixel paths. The grid is
// the largest square not exceeding the sample count; leftover paths
// reuse cells from the start.
func NewStratifiedSampler(seed int64, samplesPerPixel int) *StratifiedSampler {
	g := 1
	for (g+1)*(g+1) <= samplesPerPixel {
		g++
	}
	return &StratifiedSampler{
		rng:   rand.New(rand.NewSource(seed)),
		gridX: g,
		gridY: g,
		cell:  -1,
	}
}

func (s *StratifiedSampler) Advance() {
	s.cell = (s.cell + 1) % (s.gridX * s.gridY)
	s.firstUsed = false
	s.used = 0
}

func (s *StratifiedSampler) Get1D() float32 {
	s.used++
	return s.rng.Float32()
}

func (s *StratifiedSampler) GetUsage() int {
	return s.used
}

func (s *StratifiedSampler) Get2D() types.Vec2 {
	s.used += 2
	if s.firstUsed || s.cell < 0 {
		return types.XY(s.rng.Float32(), s.rng.Float32())
	}
	s.firstUsed = true
	cx := s.cell % s.gridX
	cy := s.cell / s.gridX
	u := (float32(cx) + s.rng.Float32()) / float32(s.gridX)
	v := (float32(cy) + s.rng.Float32()) / float32(s.gridY)
	return types.XY(u, v)
}
