// Package texture implements the float RGB pixel grids used both for
// material maps (diffuse/specular/ambient/bump) and for the render
// framebuffer itself.
package texture

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	// Register decoders for the formats commonly referenced by mtl files.
	_ "image/gif"

	"golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/ajgappmark/RGK/types"
)

// A Texture is a WxH grid of linear RGB colors. Pixel (0, 0) is the top
// left corner.
type Texture struct {
	Width  int
	Height int

	data []types.Vec3
}

// Create a new zero-filled texture.
func New(width, height int) *Texture {
	return &Texture{
		Width:  width,
		Height: height,
		data:   make([]types.Vec3, width*height),
	}
}

// Load a texture from an image file. The pixel values are converted to
// linear space assuming the file stores sRGB-like gamma 2.2 data.
func Load(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("texture: could not decode %s: %s", path, err.Error())
	}

	bounds := img.Bounds()
	tex := New(bounds.Dx(), bounds.Dy())
	for y := 0; y < tex.Height; y++ {
		for x := 0; x < tex.Width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			tex.SetPixel(x, y, types.Vec3{
				toLinear(float32(r) / 65535.0),
				toLinear(float32(g) / 65535.0),
				toLinear(float32(b) / 65535.0),
			})
		}
	}
	return tex, nil
}

// Set the color of a single pixel.
func (t *Texture) SetPixel(x, y int, c types.Vec3) {
	t.data[y*t.Width+x] = c
}

// Get the color of a single pixel.
func (t *Texture) GetPixel(x, y int) types.Vec3 {
	return t.data[y*t.Width+x]
}

// Add a color to a single pixel. The framebuffer uses this for light
// path contributions that land outside the pixel owning the sample.
func (t *Texture) AddPixel(x, y int, c types.Vec3) {
	t.data[y*t.Width+x] = t.data[y*t.Width+x].Add(c)
}

// wrap converts a float uv coordinate to a pixel index with repeat
// addressing.
func wrap(v float32, size int) int {
	v = v - float32(math.Floor(float64(v)))
	p := int(v * float32(size))
	if p >= size {
		p = size - 1
	}
	return p
}

// Sample the texture at uv with bilinear filtering and wrap-around
// addressing. uv is in [0,1)^2 with v pointing down the image.
func (t *Texture) GetPixelInterpolated(uv types.Vec2) types.Vec3 {
	fx := float64(uv[0])*float64(t.Width) - 0.5
	fy := float64(uv[1])*float64(t.Height) - 0.5

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	dx := float32(fx - math.Floor(fx))
	dy := float32(fy - math.Floor(fy))

	c00 := t.GetPixel(mod(x0, t.Width), mod(y0, t.Height))
	c10 := t.GetPixel(mod(x0+1, t.Width), mod(y0, t.Height))
	c01 := t.GetPixel(mod(x0, t.Width), mod(y0+1, t.Height))
	c11 := t.GetPixel(mod(x0+1, t.Width), mod(y0+1, t.Height))

	top := types.LerpVec3(c00, c10, dx)
	bottom := types.LerpVec3(c01, c11, dx)
	return types.LerpVec3(top, bottom, dy)
}

func mod(v, size int) int {
	v = v % size
	if v < 0 {
		v += size
	}
	return v
}

func grayscale(c types.Vec3) float32 {
	return (c[0] + c[1] + c[2]) / 3.0
}

// Bump-map slope to the right neighbour (finite difference in
// grayscale).
func (t *Texture) GetSlopeRight(uv types.Vec2) float32 {
	x := wrap(uv[0], t.Width)
	y := wrap(uv[1], t.Height)
	here := grayscale(t.GetPixel(x, y))
	right := grayscale(t.GetPixel(mod(x+1, t.Width), y))
	return right - here
}

// Bump-map slope to the bottom neighbour.
func (t *Texture) GetSlopeBottom(uv types.Vec2) float32 {
	x := wrap(uv[0], t.Width)
	y := wrap(uv[1], t.Height)
	here := grayscale(t.GetPixel(x, y))
	bottom := grayscale(t.GetPixel(x, mod(y+1, t.Height)))
	return bottom - here
}

// Fill the texture with horizontal stripes of the given height. Used to
// pre-fill the framebuffer so preview images show render progress
// against a recognizable background.
func (t *Texture) FillStripes(stripeHeight int, c1, c2 types.Vec3) {
	for y := 0; y < t.Height; y++ {
		c := c1
		if (y/stripeHeight)%2 == 1 {
			c = c2
		}
		for x := 0; x < t.Width; x++ {
			t.SetPixel(x, y, c)
		}
	}
}

// Write encodes the texture to path. The encoder is chosen from the
// file extension (png, jpg, bmp); linear values are clamped and gamma
// encoded.
func (t *Texture) Write(path string) error {
	img := image.NewRGBA(image.Rect(0, 0, t.Width, t.Height))
	for y := 0; y < t.Height; y++ {
		for x := 0; x < t.Width; x++ {
			c := t.GetPixel(x, y)
			img.Set(x, y, color.RGBA{
				R: toByte(c[0]),
				G: toByte(c[1]),
				B: toByte(c[2]),
				A: 255,
			})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
	case ".bmp":
		return bmp.Encode(f, img)
	default:
		return png.Encode(f, img)
	}
}

func toByte(v float32) uint8 {
	if v != v || v < 0.0 {
		v = 0.0
	}
	v = toGamma(v)
	if v > 1.0 {
		v = 1.0
	}
	return uint8(v*255.0 + 0.5)
}

func toGamma(v float32) float32 {
	return float32(math.Pow(float64(v), 1.0/2.2))
}

func toLinear(v float32) float32 {
	return float32(math.Pow(float64(v), 2.2))
}
