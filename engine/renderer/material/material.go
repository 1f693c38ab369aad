package material

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
)

// AlphaMode selects how a material's alpha channel is treated.
type AlphaMode uint8

const (
	// AlphaOpaque ignores alpha.
	AlphaOpaque AlphaMode = iota
	// AlphaMasked discards fragments whose alpha is below the cutoff.
	AlphaMasked
	// AlphaBlend composites back-to-front with alpha blending.
	AlphaBlend
)

// String returns the lower-case name of the alpha mode.
func (a AlphaMode) String() string {
	switch a {
	case AlphaMasked:
		return "masked"
	case AlphaBlend:
		return "blend"
	default:
		return "opaque"
	}
}

// DefaultBatchEpsilon is the metallic/roughness tolerance under which two materials share a batch.
const DefaultBatchEpsilon float32 = 1e-3

// material is the implementation of the Material interface.
type material struct {
	name string

	albedoMap   gpu.Handle
	normalMap   gpu.Handle
	ormMap      gpu.Handle
	emissiveMap gpu.Handle

	baseColor   mgl32.Vec4
	metallic    float32
	roughness   float32
	ao          float32
	emissive    mgl32.Vec3
	heightScale float32

	alphaMode   AlphaMode
	alphaCutoff float32
}

// Material defines the interface for a render material: texture map handles, scalar PBR
// parameters and an alpha mode. Map handles are zero when unset; the renderer substitutes a
// 1x1 white texture for them.
//
// The ORM map packs ambient occlusion (R), roughness (G), metallic (B) and height (A).
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// AlbedoMap retrieves the albedo texture handle, or zero if unset.
	AlbedoMap() gpu.Handle

	// NormalMap retrieves the tangent-space normal map handle, or zero if unset.
	NormalMap() gpu.Handle

	// ORMMap retrieves the packed occlusion/roughness/metallic/height map handle, or zero if unset.
	ORMMap() gpu.Handle

	// EmissiveMap retrieves the emissive texture handle, or zero if unset.
	EmissiveMap() gpu.Handle

	// BaseColor retrieves the RGBA multiplier applied to the albedo map.
	//
	// Returns:
	//   - mgl32.Vec4: the base color
	BaseColor() mgl32.Vec4

	// Metallic retrieves the metallic factor (0 dielectric, 1 metal).
	Metallic() float32

	// Roughness retrieves the roughness factor (0 smooth, 1 rough).
	Roughness() float32

	// AmbientOcclusion retrieves the ambient occlusion multiplier.
	AmbientOcclusion() float32

	// Emissive retrieves the emissive color multiplier.
	Emissive() mgl32.Vec3

	// HeightScale retrieves the parallax height scale; zero disables parallax.
	HeightScale() float32

	// AlphaMode retrieves how alpha is treated.
	AlphaMode() AlphaMode

	// AlphaCutoff retrieves the masked-mode discard threshold.
	AlphaCutoff() float32

	// SameBatch reports whether two materials can be drawn in the same batch: all four map
	// handles are equal and metallic and roughness each differ by less than epsilon.
	//
	// Parameters:
	//   - other: the material to compare against
	//   - epsilon: the scalar tolerance
	//
	// Returns:
	//   - bool: true if both materials share a batching key
	SameBatch(other Material, epsilon float32) bool

	// Release frees the material's texture maps on the device and clears the handles.
	//
	// Parameters:
	//   - device: the device owning the maps
	Release(device gpu.Device)
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
// Defaults: white base color, metallic 0, roughness 1, ambient occlusion 1, opaque, cutoff 0.5.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		baseColor:   mgl32.Vec4{1, 1, 1, 1},
		metallic:    0.0,
		roughness:   1.0,
		ao:          1.0,
		alphaCutoff: 0.5,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) AlbedoMap() gpu.Handle {
	return m.albedoMap
}

func (m *material) NormalMap() gpu.Handle {
	return m.normalMap
}

func (m *material) ORMMap() gpu.Handle {
	return m.ormMap
}

func (m *material) EmissiveMap() gpu.Handle {
	return m.emissiveMap
}

func (m *material) BaseColor() mgl32.Vec4 {
	return m.baseColor
}

func (m *material) Metallic() float32 {
	return m.metallic
}

func (m *material) Roughness() float32 {
	return m.roughness
}

func (m *material) AmbientOcclusion() float32 {
	return m.ao
}

func (m *material) Emissive() mgl32.Vec3 {
	return m.emissive
}

func (m *material) HeightScale() float32 {
	return m.heightScale
}

func (m *material) AlphaMode() AlphaMode {
	return m.alphaMode
}

func (m *material) AlphaCutoff() float32 {
	return m.alphaCutoff
}

func (m *material) SameBatch(other Material, epsilon float32) bool {
	if other == nil {
		return false
	}
	return m.albedoMap == other.AlbedoMap() &&
		m.normalMap == other.NormalMap() &&
		m.ormMap == other.ORMMap() &&
		m.emissiveMap == other.EmissiveMap() &&
		math32.Abs(m.metallic-other.Metallic()) < epsilon &&
		math32.Abs(m.roughness-other.Roughness()) < epsilon
}

func (m *material) Release(device gpu.Device) {
	for _, h := range []*gpu.Handle{&m.albedoMap, &m.normalMap, &m.ormMap, &m.emissiveMap} {
		if !h.IsZero() {
			device.Release(*h)
			*h = 0
		}
	}
}
