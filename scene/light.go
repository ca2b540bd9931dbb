package scene

import "github.com/ajgappmark/RGK/types"

type LightType int

const (
	// Point emitter radiating equally in all directions.
	PointLight LightType = iota

	// Disc emitter with a normal and a radius; emission is
	// cosine-weighted about the normal.
	ArealLight

	// Spherical emitter of a given radius radiating uniformly outward.
	FullSphereLight
)

type Light struct {
	Type LightType

	Pos    types.Vec3
	Normal types.Vec3
	Size   float32

	Color     types.Vec3
	Intensity float32
}

// GetDirectionalFactor weights emission leaving the light along
// outgoing. Point and sphere lights are isotropic; disc lights fall off
// with the cosine against their normal.
func (l *Light) GetDirectionalFactor(outgoing types.Vec3) float32 {
	if l.Type != ArealLight {
		return 1.0
	}
	d := l.Normal.Dot(outgoing)
	if d < 0 {
		return 0
	}
	return d
}
