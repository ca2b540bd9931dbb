package renderer

import "runtime"

const defaultTileSize = 200

type Options struct {
	// Frame dims.
	FrameW int
	FrameH int

	// Samples per pixel; splats are scaled down by this factor when
	// composited.
	Multisample int

	// Tile edge length in pixels. Defaults to 200.
	TileSize int

	// Worker goroutines. Defaults to NumCPU-1 with one core left for
	// the monitor and the OS.
	NumWorkers int

	// Base seed for the per-worker samplers. Zero picks one from the
	// clock.
	Seed int64

	// Path the live preview is periodically written to. Empty disables
	// previews.
	PreviewFile string

	// Progress reporting to stdout.
	ShowProgress bool
}

// fill replaces zero values with their defaults.
func (o *Options) fill() {
	if o.TileSize == 0 {
		o.TileSize = defaultTileSize
	}
	if o.NumWorkers == 0 {
		o.NumWorkers = runtime.NumCPU() - 1
		if o.NumWorkers < 1 {
			o.NumWorkers = 1
		}
	}
	if o.Multisample < 1 {
		o.Multisample = 1
	}
}
