package scene

import (
	"math"

	"github.com/ajgappmark/RGK/types"
)

// Camera maps pixel coordinates to world-space rays and back. With a
// zero lens radius it is a pinhole camera; otherwise rays originate on
// a thin lens disc and converge on the focus plane.
type Camera struct {
	Origin types.Vec3
	LookAt types.Vec3

	dir  types.Vec3
	left types.Vec3
	up   types.Vec3

	// View plane origin (top-left-ish corner) and its two spanning
	// vectors; a pixel maps to viewScreen + fx*viewX + fy*viewY.
	viewScreen types.Vec3
	viewX      types.Vec3
	viewY      types.Vec3

	focusDist float32
	lensSize  float32
}

// NewCamera constructs a camera at pos looking at lookAt. yview and
// xview are the view plane extents (the horizontal one is normally
// yview*xres/yres). focusDist and lensSize configure the thin lens;
// lensSize 0 keeps the camera a pinhole.
func NewCamera(pos, lookAt, up types.Vec3, yview, xview, focusDist, lensSize float32) *Camera {
	c := &Camera{
		Origin:    pos,
		LookAt:    lookAt,
		focusDist: focusDist,
		lensSize:  lensSize,
	}

	c.dir = lookAt.Sub(pos).Normalize()
	c.left = c.dir.Cross(up).Normalize()
	c.up = c.dir.Cross(c.left).Normalize()

	c.viewX = c.left.Mul(-xview)
	c.viewY = c.up.Mul(yview)
	c.viewScreen = pos.Add(c.dir).Sub(c.viewY.Mul(0.5)).Sub(c.viewX.Mul(0.5))
	return c
}

// IsSimple reports whether the camera is a pinhole (no lens blur).
func (c *Camera) IsSimple() bool {
	return c.lensSize == 0
}

// screenPoint maps a jittered pixel to a point on the view plane.
func (c *Camera) screenPoint(x, y, xres, yres int, jitter types.Vec2) types.Vec3 {
	fx := (float32(x) + jitter[0]) / float32(xres)
	fy := (float32(y) + jitter[1]) / float32(yres)
	return c.viewScreen.Add(c.viewX.Mul(fx)).Add(c.viewY.Mul(fy))
}

// GetPixelRay returns the normalized primary ray through pixel (x, y)
// jittered inside the pixel footprint by jitter in [0,1)^2.
func (c *Camera) GetPixelRay(x, y, xres, yres int, jitter types.Vec2) Ray {
	p := c.screenPoint(x, y, xres, yres, jitter)
	return New(c.Origin, p.Sub(c.Origin))
}

// GetSubpixelRay returns the primary ray through the (sx, sy) cell of
// an m-by-m subpixel grid. Used by the Whitted multisample loop.
func (c *Camera) GetSubpixelRay(x, y, xres, yres, sx, sy, m int) Ray {
	jitter := types.XY((float32(sx)+0.5)/float32(m), (float32(sy)+0.5)/float32(m))
	return c.GetPixelRay(x, y, xres, yres, jitter)
}

// GetPixelRayLens returns a depth-of-field ray: the pinhole ray is
// re-aimed at the focus plane and its origin displaced by lensJitter
// mapped onto the lens disc.
func (c *Camera) GetPixelRayLens(x, y, xres, yres int, jitter, lensJitter types.Vec2) Ray {
	pinhole := c.GetPixelRay(x, y, xres, yres, jitter)

	// Point the pinhole ray focuses on.
	cosAngle := pinhole.Dir.Dot(c.dir)
	focus := c.Origin.Add(pinhole.Dir.Mul(c.focusDist / cosAngle))

	r := float32(math.Sqrt(float64(lensJitter[0]))) * c.lensSize
	phi := 2.0 * math.Pi * float64(lensJitter[1])
	dx := r * float32(math.Cos(phi))
	dy := r * float32(math.Sin(phi))

	origin := c.Origin.Add(c.left.Mul(dx)).Add(c.up.Mul(dy))
	return New(origin, focus.Sub(origin))
}

// GetCoordsFromDirection projects a world-space direction from the
// camera position back to pixel coordinates. Returns false when the
// direction lies outside the view frustum.
func (c *Camera) GetCoordsFromDirection(dir types.Vec3, xres, yres int) (int, int, bool) {
	denom := dir.Dot(c.dir)
	if denom <= 1e-6 {
		return 0, 0, false
	}

	// Intersect the ray with the view plane (one unit along dir from
	// the origin).
	t := 1.0 / denom
	p := c.Origin.Add(dir.Mul(t))
	offset := p.Sub(c.viewScreen)

	fx := offset.Dot(c.viewX) / c.viewX.Len2()
	fy := offset.Dot(c.viewY) / c.viewY.Len2()
	if fx < 0 || fx >= 1 || fy < 0 || fy >= 1 {
		return 0, 0, false
	}

	x := int(fx * float32(xres))
	y := int(fy * float32(yres))
	if x < 0 || x >= xres || y < 0 || y >= yres {
		return 0, 0, false
	}
	return x, y, true
}
