package material

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor is an option builder that sets the RGBA multiplier of the albedo map.
//
// Parameters:
//   - color: the base color as RGBA values
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color mgl32.Vec4) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = color
	}
}

// WithMetallic is an option builder that sets the metallic factor of the material.
//
// Parameters:
//   - metallic: the metallic factor (0.0 = dielectric, 1.0 = metal)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the metallic option to a material
func WithMetallic(metallic float32) MaterialBuilderOption {
	return func(m *material) {
		m.metallic = metallic
	}
}

// WithRoughness is an option builder that sets the roughness factor of the material.
//
// Parameters:
//   - roughness: the roughness factor (0.0 = smooth, 1.0 = rough)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the roughness option to a material
func WithRoughness(roughness float32) MaterialBuilderOption {
	return func(m *material) {
		m.roughness = roughness
	}
}

// WithAmbientOcclusion sets the ambient occlusion multiplier.
func WithAmbientOcclusion(ao float32) MaterialBuilderOption {
	return func(m *material) {
		m.ao = ao
	}
}

// WithEmissive sets the emissive color multiplier.
func WithEmissive(emissive mgl32.Vec3) MaterialBuilderOption {
	return func(m *material) {
		m.emissive = emissive
	}
}

// WithHeightScale sets the parallax height scale.
func WithHeightScale(scale float32) MaterialBuilderOption {
	return func(m *material) {
		m.heightScale = scale
	}
}

// WithMaps is an option builder that sets the four texture map handles.
// Zero handles are left unset and fall back to a white texture at draw time.
//
// Parameters:
//   - albedo: the albedo map
//   - normal: the tangent-space normal map
//   - orm: the packed occlusion/roughness/metallic/height map
//   - emissive: the emissive map
//
// Returns:
//   - MaterialBuilderOption: a function that applies the maps to a material
func WithMaps(albedo, normal, orm, emissive gpu.Handle) MaterialBuilderOption {
	return func(m *material) {
		m.albedoMap = albedo
		m.normalMap = normal
		m.ormMap = orm
		m.emissiveMap = emissive
	}
}

// WithAlbedoMap sets only the albedo map handle.
func WithAlbedoMap(h gpu.Handle) MaterialBuilderOption {
	return func(m *material) {
		m.albedoMap = h
	}
}

// WithAlphaMode is an option builder that sets how alpha is treated.
//
// Parameters:
//   - mode: opaque, masked or blend
//   - cutoff: the discard threshold for masked mode; values <= 0 keep the default
//
// Returns:
//   - MaterialBuilderOption: a function that applies the alpha mode to a material
func WithAlphaMode(mode AlphaMode, cutoff float32) MaterialBuilderOption {
	return func(m *material) {
		m.alphaMode = mode
		if cutoff > 0 {
			m.alphaCutoff = cutoff
		}
	}
}
