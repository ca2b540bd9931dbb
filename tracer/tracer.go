// Package tracer implements the per-pixel integrators: a classic
// Whitted-style ray tracer and a bidirectional Monte-Carlo path
// tracer. Tracers are stateful per worker; the renderer creates one
// instance per goroutine and never shares them.
package tracer

import (
	"github.com/ajgappmark/RGK/scene"
	"github.com/ajgappmark/RGK/types"
)

// Splat is radiance destined for a pixel other than the one being
// rendered. Light subpaths connect to the camera lens and deposit
// their contribution wherever the connection projects.
type Splat struct {
	X, Y     int
	Radiance types.Vec3
}

// PixelResult is the outcome of rendering one pixel: its own radiance
// plus any splats onto foreign pixels, and the number of rays cast.
type PixelResult struct {
	Color  types.Vec3
	Splats []Splat
	Rays   uint64
}

// Tracer renders single pixels. Implementations are not safe for
// concurrent use; each worker owns its own instance.
type Tracer interface {
	// RenderPixel integrates pixel (x, y). With debug set the tracer
	// logs its sampling decisions for that pixel.
	RenderPixel(x, y int, debug bool) PixelResult
}

// Context carries the read-only render inputs shared by all tracers.
type Context struct {
	Scene  *scene.Scene
	Camera *scene.Camera

	XRes, YRes int

	// Samples per pixel along each axis for the Whitted tracer, total
	// paths per pixel for the path tracer.
	Multisample int
}
