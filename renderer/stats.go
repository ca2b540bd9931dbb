package renderer

import "time"

type FrameStats struct {
	// Total render time for the entire frame.
	RenderTime time.Duration

	// Primary, secondary and shadow rays cast.
	Rays uint64

	PixelsRendered int
	TilesRendered  int

	// Light subpath connections deposited outside their home pixel.
	SplatsApplied int

	Workers int
}

// RaysPerSec averages the ray throughput over the frame time.
func (s FrameStats) RaysPerSec() float64 {
	secs := s.RenderTime.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.Rays) / secs
}
