package entity

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
)

// EntityBuilderOption is a functional option for configuring an Entity via New.
type EntityBuilderOption func(*Entity)

// WithPosition is an option builder that sets the world position of the Entity.
//
// Parameters:
//   - position: the world position
//
// Returns:
//   - EntityBuilderOption: a function that applies the position option to an entity
func WithPosition(position mgl32.Vec3) EntityBuilderOption {
	return func(e *Entity) {
		e.Position = position
	}
}

// WithRotation is an option builder that sets the Euler rotation of the Entity in degrees.
//
// Parameters:
//   - degrees: rotation around X, Y and Z
//
// Returns:
//   - EntityBuilderOption: a function that applies the rotation option to an entity
func WithRotation(degrees mgl32.Vec3) EntityBuilderOption {
	return func(e *Entity) {
		e.Rotation = degrees
	}
}

// WithScale is an option builder that sets the scale of the Entity.
//
// Parameters:
//   - scale: the per-axis scale
//
// Returns:
//   - EntityBuilderOption: a function that applies the scale option to an entity
func WithScale(scale mgl32.Vec3) EntityBuilderOption {
	return func(e *Entity) {
		e.Scale = scale
	}
}

// WithCullModes sets per-mesh cull overrides, indexed by mesh position inside a level.
func WithCullModes(modes ...gpu.CullMode) EntityBuilderOption {
	return func(e *Entity) {
		e.CullModes = append([]gpu.CullMode(nil), modes...)
	}
}

// WithLightVisual marks the entity as the decorative visual of a light.
func WithLightVisual() EntityBuilderOption {
	return func(e *Entity) {
		e.LightVisual = true
	}
}
