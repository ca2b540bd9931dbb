package texture

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajgappmark/RGK/types"
)

func TestSetGetAddPixel(t *testing.T) {
	tex := New(4, 3)
	assert.Equal(t, 4, tex.Width)
	assert.Equal(t, 3, tex.Height)
	assert.Equal(t, types.Vec3{}, tex.GetPixel(2, 1))

	tex.SetPixel(2, 1, types.XYZ(0.5, 0.25, 1))
	assert.Equal(t, types.XYZ(0.5, 0.25, 1), tex.GetPixel(2, 1))

	tex.AddPixel(2, 1, types.XYZ(0.5, 0.25, 1))
	assert.Equal(t, types.XYZ(1, 0.5, 2), tex.GetPixel(2, 1))
}

func TestGetPixelInterpolated(t *testing.T) {
	tex := New(2, 2)
	tex.SetPixel(0, 0, types.XYZ(1, 0, 0))
	tex.SetPixel(1, 0, types.XYZ(0, 1, 0))
	tex.SetPixel(0, 1, types.XYZ(0, 0, 1))
	tex.SetPixel(1, 1, types.XYZ(1, 1, 1))

	// Sampling at a pixel center returns the pixel.
	c := tex.GetPixelInterpolated(types.XY(0.25, 0.25))
	assert.InDelta(t, 1.0, float64(c[0]), 1e-5)
	assert.InDelta(t, 0.0, float64(c[1]), 1e-5)

	// The midpoint blends all four corners equally.
	c = tex.GetPixelInterpolated(types.XY(0.5, 0.5))
	assert.InDelta(t, 0.5, float64(c[0]), 1e-5)
	assert.InDelta(t, 0.5, float64(c[1]), 1e-5)
	assert.InDelta(t, 0.5, float64(c[2]), 1e-5)
}

func TestGetPixelInterpolatedWraps(t *testing.T) {
	tex := New(2, 1)
	tex.SetPixel(0, 0, types.XYZ(1, 0, 0))
	tex.SetPixel(1, 0, types.XYZ(0, 1, 0))

	// Out-of-range coordinates repeat.
	a := tex.GetPixelInterpolated(types.XY(0.25, 0.5))
	b := tex.GetPixelInterpolated(types.XY(1.25, 0.5))
	c := tex.GetPixelInterpolated(types.XY(-0.75, 0.5))
	for i := 0; i < 3; i++ {
		assert.InDelta(t, float64(a[i]), float64(b[i]), 1e-5)
		assert.InDelta(t, float64(a[i]), float64(c[i]), 1e-5)
	}
}

func TestSlopes(t *testing.T) {
	// A horizontal grayscale ramp slopes right, not down.
	tex := New(4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			v := float32(x) * 0.1
			tex.SetPixel(x, y, types.XYZ(v, v, v))
		}
	}

	uv := types.XY(0.3, 0.3)
	assert.InDelta(t, 0.1, float64(tex.GetSlopeRight(uv)), 1e-5)
	assert.InDelta(t, 0.0, float64(tex.GetSlopeBottom(uv)), 1e-5)
}

func TestFillStripes(t *testing.T) {
	tex := New(2, 8)
	c1 := types.XYZ(0.6, 0.6, 0.6)
	c2 := types.XYZ(0.5, 0.5, 0.5)
	tex.FillStripes(2, c1, c2)

	assert.Equal(t, c1, tex.GetPixel(0, 0))
	assert.Equal(t, c1, tex.GetPixel(0, 1))
	assert.Equal(t, c2, tex.GetPixel(0, 2))
	assert.Equal(t, c2, tex.GetPixel(0, 3))
	assert.Equal(t, c1, tex.GetPixel(0, 4))
}

func TestWriteLoadRoundTrip(t *testing.T) {
	tex := New(8, 8)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			tex.SetPixel(x, y, types.XYZ(float32(x)/8.0, float32(y)/8.0, 0.5))
		}
	}

	for _, name := range []string{"out.png", "out.bmp", "out.jpg"} {
		path := filepath.Join(t.TempDir(), name)
		require.NoError(t, tex.Write(path), name)

		loaded, err := Load(path)
		require.NoError(t, err, name)
		require.Equal(t, 8, loaded.Width, name)
		require.Equal(t, 8, loaded.Height, name)

		// Gamma encode/decode plus 8-bit quantization loses precision;
		// jpeg loses a bit more.
		tolerance := 0.02
		if name == "out.jpg" {
			tolerance = 0.1
		}
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				want := tex.GetPixel(x, y)
				got := loaded.GetPixel(x, y)
				for i := 0; i < 3; i++ {
					require.InDelta(t, float64(want[i]), float64(got[i]), tolerance,
						"%s pixel %d,%d channel %d", name, x, y, i)
				}
			}
		}
	}
}

func TestWriteClampsBadValues(t *testing.T) {
	tex := New(2, 1)
	tex.SetPixel(0, 0, types.XYZ(-1, 2, float32(math.NaN())))
	tex.SetPixel(1, 0, types.XYZ(0, 0, 0))

	path := filepath.Join(t.TempDir(), "clamp.png")
	require.NoError(t, tex.Write(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	c := loaded.GetPixel(0, 0)
	assert.InDelta(t, 0.0, float64(c[0]), 1e-3)
	assert.InDelta(t, 1.0, float64(c[1]), 1e-3)
	assert.InDelta(t, 0.0, float64(c[2]), 1e-3)
}
