// Package entity holds scene entities: a transform, an ordered list of LOD levels and the
// per-mesh cull overrides used when their meshes are batched.
package entity

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/common"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/mesh"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
)

// DefaultRadiusScale is the bounding-radius multiplier applied to the length of an entity's scale.
const DefaultRadiusScale float32 = 5

// ErrLODOrder is returned when LOD thresholds are not strictly increasing.
var ErrLODOrder = errors.New("lod levels must have strictly increasing max distance")

// Unbounded is a LOD threshold that covers every distance.
var Unbounded = math32.Inf(1)

// LODLevel is the mesh set an entity draws up to MaxDistance from the camera.
type LODLevel struct {
	MaxDistance float32
	Meshes      []mesh.Mesh
}

// Entity is a positioned, LOD-levelled group of meshes.
// Entities live in the scene's arena and are mutated in place; they are never removed, only deactivated.
type Entity struct {
	Name string

	Position mgl32.Vec3
	// Rotation holds Euler angles in degrees.
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3

	LODs []LODLevel
	// CullModes overrides the cull mode of the mesh at the same position inside a level.
	CullModes []gpu.CullMode

	Active bool
	// LightVisual marks the decorative entity of a light. Visuals are drawn unlit and never cast shadows.
	LightVisual bool
}

// New creates an active Entity with unit scale.
//
// Parameters:
//   - name: the unique entity name
//   - lods: the LOD levels ordered by strictly increasing MaxDistance
//   - options: functional options (transform, cull overrides, light visual)
//
// Returns:
//   - Entity: the entity
//   - error: ErrLODOrder if the thresholds are not strictly increasing
func New(name string, lods []LODLevel, options ...EntityBuilderOption) (Entity, error) {
	for i := 1; i < len(lods); i++ {
		if !(lods[i].MaxDistance > lods[i-1].MaxDistance) {
			return Entity{}, fmt.Errorf("entity %q: level %d (%g) after %g: %w",
				name, i, lods[i].MaxDistance, lods[i-1].MaxDistance, ErrLODOrder)
		}
	}
	e := Entity{
		Name:   name,
		Scale:  mgl32.Vec3{1, 1, 1},
		LODs:   lods,
		Active: true,
	}
	for _, opt := range options {
		opt(&e)
	}
	return e, nil
}

// SelectLOD returns the first level whose MaxDistance is at least distance, or the last level when
// distance is beyond every threshold. An entity without levels yields (-1, nil).
//
// Parameters:
//   - distance: the camera-to-entity distance
//
// Returns:
//   - int: the selected level index
//   - []mesh.Mesh: the meshes of the selected level
func (e *Entity) SelectLOD(distance float32) (int, []mesh.Mesh) {
	if len(e.LODs) == 0 {
		return -1, nil
	}
	for i, lvl := range e.LODs {
		if lvl.MaxDistance >= distance {
			return i, lvl.Meshes
		}
	}
	last := len(e.LODs) - 1
	return last, e.LODs[last].Meshes
}

// BoundingRadius returns the conservative culling radius length(Scale) * radiusScale.
// It is not a tight bound on the meshes.
func (e *Entity) BoundingRadius(radiusScale float32) float32 {
	return e.Scale.Len() * radiusScale
}

// ModelMatrix returns the world transform T * Ry * Rx * Rz * S.
func (e *Entity) ModelMatrix() mgl32.Mat4 {
	return common.ModelMatrix(e.Position, e.Rotation, e.Scale)
}

// EffectiveCull returns the cull override for the mesh at index i of a level, or the mesh's own mode.
func (e *Entity) EffectiveCull(i int, m mesh.Mesh) gpu.CullMode {
	if i >= 0 && i < len(e.CullModes) {
		return e.CullModes[i]
	}
	return m.CullMode()
}

// Deactivate clears the active flag and drops the mesh references. The entity keeps its slot.
func (e *Entity) Deactivate() {
	e.Active = false
	e.LODs = nil
}
