package renderer

import "errors"

var (
	ErrNoTracerFactory  = errors.New("renderer: no tracer factory attached")
	ErrInvalidFrameDims = errors.New("renderer: invalid frame dimensions")
	ErrInvalidTileSize  = errors.New("renderer: invalid tile size")
)
