package scene

import (
	"strings"

	"github.com/ajgappmark/RGK/asset/texture"
	"github.com/ajgappmark/RGK/brdf"
	"github.com/ajgappmark/RGK/types"
)

// Prefix marking a material as a thin, purely transmissive color
// filter. Rays cross such surfaces unrefracted; their radiance is
// multiplied by the material diffuse.
const ThinglassPrefix = "thinglass"

// Material groups the shading inputs of a triangle. Texture references
// override the flat colors when present.
type Material struct {
	Name string

	Ambient  types.Vec3
	Diffuse  types.Vec3
	Specular types.Vec3

	AmbientTexture  *texture.Texture
	DiffuseTexture  *texture.Texture
	SpecularTexture *texture.Texture
	BumpTexture     *texture.Texture

	// Phong exponent. Values below 1 mark a mirror-blend surface for
	// the Whitted tracer.
	Exponent float32

	RefractionIndex float32

	// Translucency weight in [0,1]; 0 is opaque.
	Translucency float32

	Emission types.Vec3
	Emissive bool

	// Thin transmissive filter surface (see ThinglassPrefix).
	ThinGlass bool

	BRDF brdf.BRDF
}

// IsThinglassName reports whether a material name requests thin-glass
// treatment.
func IsThinglassName(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), ThinglassPrefix)
}

// DiffuseAt returns the diffuse color at uv, preferring the texture.
func (m *Material) DiffuseAt(uv types.Vec2) types.Vec3 {
	if m.DiffuseTexture != nil {
		return m.DiffuseTexture.GetPixelInterpolated(uv)
	}
	return m.Diffuse
}

// SpecularAt returns the specular color at uv, preferring the texture.
func (m *Material) SpecularAt(uv types.Vec2) types.Vec3 {
	if m.SpecularTexture != nil {
		return m.SpecularTexture.GetPixelInterpolated(uv)
	}
	return m.Specular
}

// AmbientAt returns the ambient color at uv, preferring the texture.
func (m *Material) AmbientAt(uv types.Vec2) types.Vec3 {
	if m.AmbientTexture != nil {
		return m.AmbientTexture.GetPixelInterpolated(uv)
	}
	return m.Ambient
}

// HasTextures reports whether any map requires uv interpolation at the
// hit point.
func (m *Material) HasTextures() bool {
	return m.AmbientTexture != nil || m.DiffuseTexture != nil ||
		m.SpecularTexture != nil || m.BumpTexture != nil
}
