package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajgappmark/RGK/asset/texture"
	"github.com/ajgappmark/RGK/tracer"
	"github.com/ajgappmark/RGK/types"
)

// stubTracer paints each pixel with a color derived from its
// coordinates and splats a fixed amount onto the frame origin.
type stubTracer struct {
	splat bool
}

func (s *stubTracer) RenderPixel(x, y int, debug bool) tracer.PixelResult {
	res := tracer.PixelResult{
		Color: types.XYZ(float32(x), float32(y), 1),
		Rays:  3,
	}
	if s.splat {
		res.Splats = []tracer.Splat{
			{X: 0, Y: 0, Radiance: types.XYZ(1, 0, 0)},
			{X: -5, Y: 2, Radiance: types.XYZ(9, 9, 9)},
		}
	}
	return res
}

func stubFactory(splat bool) TracerFactory {
	return func(seed int64) tracer.Tracer {
		return &stubTracer{splat: splat}
	}
}

func TestNewValidation(t *testing.T) {
	_, err := New(Options{FrameW: 10, FrameH: 10}, nil)
	assert.Equal(t, ErrNoTracerFactory, err)

	_, err = New(Options{FrameW: 0, FrameH: 10}, stubFactory(false))
	assert.Equal(t, ErrInvalidFrameDims, err)

	_, err = New(Options{FrameW: 10, FrameH: 10, TileSize: -1}, stubFactory(false))
	assert.Equal(t, ErrInvalidTileSize, err)
}

func TestRenderRejectsMismatchedFramebuffer(t *testing.T) {
	r, err := New(Options{FrameW: 16, FrameH: 16, Seed: 1}, stubFactory(false))
	require.NoError(t, err)
	assert.Equal(t, ErrInvalidFrameDims, r.Render(texture.New(8, 8)))
}

func TestRenderCoversEveryPixelOnce(t *testing.T) {
	// Frame dimensions that do not divide evenly into tiles, so edge
	// tiles are clipped.
	const w, h = 101, 53
	r, err := New(Options{
		FrameW:     w,
		FrameH:     h,
		TileSize:   16,
		NumWorkers: 4,
		Seed:       1,
	}, stubFactory(false))
	require.NoError(t, err)

	fb := texture.New(w, h)
	require.NoError(t, r.Render(fb))

	// Every pixel carries exactly the stub's color: missed pixels would
	// be zero, double-rendered ones can not occur with SetPixel but a
	// wrong tile split would show as a shifted pattern.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := fb.GetPixel(x, y)
			require.Equal(t, float32(x), c[0], "pixel %d,%d", x, y)
			require.Equal(t, float32(y), c[1], "pixel %d,%d", x, y)
			require.Equal(t, float32(1), c[2], "pixel %d,%d", x, y)
		}
	}

	stats := r.Stats()
	assert.Equal(t, w*h, stats.PixelsRendered)
	assert.Equal(t, uint64(w*h*3), stats.Rays)
	assert.Equal(t, 7*4, stats.TilesRendered)
	assert.Equal(t, 4, stats.Workers)
	assert.Equal(t, 0, stats.SplatsApplied)
}

func TestRenderAppliesSplats(t *testing.T) {
	const w, h = 10, 10
	r, err := New(Options{
		FrameW:      w,
		FrameH:      h,
		Multisample: 4,
		TileSize:    8,
		NumWorkers:  2,
		Seed:        1,
	}, stubFactory(true))
	require.NoError(t, err)

	fb := texture.New(w, h)
	require.NoError(t, r.Render(fb))

	// One in-bounds splat per pixel, scaled by 1/Multisample, lands on
	// the origin pixel on top of its own color. The out-of-bounds splat
	// is dropped.
	c := fb.GetPixel(0, 0)
	assert.InDelta(t, float64(w*h)*0.25, float64(c[0]), 1e-3)

	assert.Equal(t, w*h, r.Stats().SplatsApplied)
}

func TestMakeTasksOrderedCenterFirst(t *testing.T) {
	r, err := New(Options{FrameW: 100, FrameH: 100, TileSize: 10, Seed: 1}, stubFactory(false))
	require.NoError(t, err)

	tasks := r.makeTasks()
	require.Len(t, tasks, 100)

	dist2 := func(tk renderTask) float64 {
		dx := float64(tk.x0+tk.x1)/2 - 50
		dy := float64(tk.y0+tk.y1)/2 - 50
		return dx*dx + dy*dy
	}
	for i := 1; i < len(tasks); i++ {
		assert.LessOrEqual(t, dist2(tasks[i-1]), dist2(tasks[i]), "task %d out of order", i)
	}

	// Tiles stay inside the frame.
	for _, tk := range tasks {
		assert.GreaterOrEqual(t, tk.x0, 0)
		assert.GreaterOrEqual(t, tk.y0, 0)
		assert.LessOrEqual(t, tk.x1, 100)
		assert.LessOrEqual(t, tk.y1, 100)
	}
}

func TestStatsRaysPerSec(t *testing.T) {
	s := FrameStats{Rays: 1000}
	assert.Equal(t, 0.0, s.RaysPerSec())

	s.RenderTime = 2e9
	assert.InDelta(t, 500.0, s.RaysPerSec(), 1e-6)
}
