// Package config loads render job descriptions from ini files. A job
// names the model to load, the camera placement, the sampling strategy
// and the set of lights.
package config

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/ajgappmark/RGK/scene"
	"github.com/ajgappmark/RGK/types"
)

const ExampleRenderFile = `[Scene]

#######################
# Required Parameters #
#######################

# Model to render, relative to this file.
ModelFile = scene.obj

# Rendered image destination. The extension selects the encoder;
# png, jpg and bmp are supported. A live preview is periodically
# written next to it as <name>.preview.<ext>.
OutputFile = render.png

#######################
# Optional Parameters #
#######################

# Flat background color (linear RGB), or an equirectangular environment
# map. The texture takes precedence when both are set.
# SkyColor = 0.1 0.1 0.2
# SkyTexture = sky.png

# Strength of bump mapping. 1.0 uses bump maps as authored.
# BumpmapScale = 1.0

[Camera]

XRes = 800
YRes = 600

ViewPoint = 0 1 4
LookAt    = 0 1 0
UpVector  = 0 1 0

# Height of the view plane at unit distance from the camera. The width
# is derived from the image aspect ratio.
# YView = 1.0

# Thin lens depth of field. LensSize 0 keeps a pinhole camera.
# FocusPlane = 4.0
# LensSize = 0

[Sampling]

# Tracer is one of [ whitted | path ].
Tracer = path

# Brdf applies to scattering surfaces and is one of
# [ diffuse | phong | phongenergy | ltcbeckmann ].
# Brdf = phongenergy

# Whitted: subpixel grid side, the tracer casts Multisample^2 primary
# rays per pixel. Path: number of paths traced per pixel.
Multisample = 4

# Whitted: recursion depth. Path: camera subpath length when roulette
# is disabled. Zero renders direct geometry only, with lights ignored.
RecursionLevel = 3

# Path tracer options.

# Per-vertex radiance clamp; lower values trade bias for less firefly
# noise.
# Clamp = 10000

# Russian roulette continuation probability. Negative disables roulette
# and uses the fixed RecursionLevel instead.
# Russian = -1

# Light subpath length for bidirectional transport. Zero traces from
# the camera only.
# Reverse = 0

# Probabilistically treat specular reflection on opaque materials
# according to the Fresnel equations.
# ForceFresnell = false

[Light "key"]
# Type is one of [ point | areal | sphere ].
Type = point
Position = 1 3 2
Color = 1 1 1
Intensity = 100

# Areal and sphere lights take a radius; areal lights emit around
# their normal.
# Size = 0.5
# Normal = 0 -1 0
`

// Vec3 is a gcfg-parsable vector; components are whitespace separated.
type Vec3 types.Vec3

func (v *Vec3) UnmarshalText(text []byte) error {
	fields := strings.Fields(string(text))
	if len(fields) != 3 {
		return fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	for i, f := range fields {
		if _, err := fmt.Sscanf(f, "%g", &v[i]); err != nil {
			return fmt.Errorf("component %d: %v", i, err)
		}
	}
	return nil
}

func (v Vec3) Vec() types.Vec3 {
	return types.Vec3(v)
}

type SceneConfig struct {
	// Required
	ModelFile  string
	OutputFile string

	// Optional
	SkyColor     Vec3
	SkyTexture   string
	BumpmapScale float64
}

func (c *SceneConfig) ValidModelFile() bool {
	return c.ModelFile != ""
}

func (c *SceneConfig) ValidOutputFile() bool {
	return c.OutputFile != ""
}

type CameraConfig struct {
	// Required
	XRes, YRes int

	ViewPoint Vec3
	LookAt    Vec3
	UpVector  Vec3

	// Optional
	YView      float64
	FocusPlane float64
	LensSize   float64
}

func (c *CameraConfig) ValidRes() bool {
	return c.XRes > 0 && c.YRes > 0
}

func (c *CameraConfig) ValidUpVector() bool {
	return c.UpVector.Vec().Len() > 0
}

func (c *CameraConfig) ValidView() bool {
	return c.ViewPoint.Vec().Distance(c.LookAt.Vec()) > 0
}

type SamplingConfig struct {
	Tracer string
	Brdf   string

	Multisample    int
	RecursionLevel int

	Clamp         float64
	Russian       float64
	Reverse       int
	ForceFresnell bool
}

func (c *SamplingConfig) ValidTracer() bool {
	switch c.Tracer {
	case "whitted", "path":
		return true
	}
	return false
}

func (c *SamplingConfig) ValidBrdf() bool {
	switch c.Brdf {
	case "diffuse", "phong", "phongenergy", "ltcbeckmann":
		return true
	}
	return false
}

func (c *SamplingConfig) ValidMultisample() bool {
	return c.Multisample > 0
}

type LightConfig struct {
	Type      string
	Position  Vec3
	Normal    Vec3
	Size      float64
	Color     Vec3
	Intensity float64
}

func (c *LightConfig) ValidType() bool {
	switch c.Type {
	case "point", "areal", "sphere":
		return true
	}
	return false
}

type Config struct {
	Scene    SceneConfig
	Camera   CameraConfig
	Sampling SamplingConfig
	Light    map[string]*LightConfig
}

// defaults returns a config with every optional parameter filled in.
func defaults() Config {
	return Config{
		Scene: SceneConfig{
			BumpmapScale: 1.0,
		},
		Camera: CameraConfig{
			YView:    1.0,
			UpVector: Vec3{0, 1, 0},
		},
		Sampling: SamplingConfig{
			Tracer:         "path",
			Brdf:           "phongenergy",
			Multisample:    1,
			RecursionLevel: 3,
			Clamp:          10000.0,
			Russian:        -1.0,
		},
	}
}

// Read loads and validates a render job description.
func Read(path string) (*Config, error) {
	cfg := defaults()
	if err := gcfg.ReadFileInto(&cfg, path); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if !c.Scene.ValidModelFile() {
		return fmt.Errorf("config: Scene.ModelFile is required")
	}
	if !c.Scene.ValidOutputFile() {
		return fmt.Errorf("config: Scene.OutputFile is required")
	}
	if !c.Camera.ValidRes() {
		return fmt.Errorf("config: Camera.XRes and Camera.YRes must be positive")
	}
	if !c.Camera.ValidUpVector() {
		return fmt.Errorf("config: Camera.UpVector must be non-zero")
	}
	if !c.Camera.ValidView() {
		return fmt.Errorf("config: Camera.ViewPoint and Camera.LookAt must differ")
	}
	if !c.Sampling.ValidTracer() {
		return fmt.Errorf("config: Sampling.Tracer must be one of [whitted | path], got %q", c.Sampling.Tracer)
	}
	if !c.Sampling.ValidBrdf() {
		return fmt.Errorf("config: Sampling.Brdf must be one of [diffuse | phong | phongenergy | ltcbeckmann], got %q", c.Sampling.Brdf)
	}
	if !c.Sampling.ValidMultisample() {
		return fmt.Errorf("config: Sampling.Multisample must be positive")
	}
	for name, l := range c.Light {
		if !l.ValidType() {
			return fmt.Errorf("config: light %q: Type must be one of [point | areal | sphere], got %q", name, l.Type)
		}
	}
	return nil
}

// Lights converts the configured light sections to scene lights, in
// section name order so runs are reproducible.
func (c *Config) Lights() []scene.Light {
	names := make([]string, 0, len(c.Light))
	for name := range c.Light {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []scene.Light
	for _, name := range names {
		l := c.Light[name]
		light := scene.Light{
			Pos:       l.Position.Vec(),
			Normal:    l.Normal.Vec(),
			Size:      float32(l.Size),
			Color:     l.Color.Vec(),
			Intensity: float32(l.Intensity),
		}
		switch l.Type {
		case "areal":
			light.Type = scene.ArealLight
			if light.Normal.Len() > 0 {
				light.Normal = light.Normal.Normalize()
			}
		case "sphere":
			light.Type = scene.FullSphereLight
		default:
			light.Type = scene.PointLight
		}
		out = append(out, light)
	}
	return out
}
