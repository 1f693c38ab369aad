package mesh

import (
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/material"
)

// MeshBuilderOption is a functional option for configuring a Mesh via New.
type MeshBuilderOption func(*mesh)

// WithName is an option builder that sets the name of the Mesh.
//
// Parameters:
//   - name: the mesh identifier
//
// Returns:
//   - MeshBuilderOption: a function that applies the name option to a mesh
func WithName(name string) MeshBuilderOption {
	return func(m *mesh) {
		m.name = name
	}
}

// WithMaterial is an option builder that sets the material of the Mesh.
// A mesh without a material is drawn with a default white material.
//
// Parameters:
//   - mat: the material to draw the mesh with
//
// Returns:
//   - MeshBuilderOption: a function that applies the material option to a mesh
func WithMaterial(mat material.Material) MeshBuilderOption {
	return func(m *mesh) {
		m.material = mat
	}
}

// WithCullMode is an option builder that sets the face culling mode. The default is back-face culling.
//
// Parameters:
//   - mode: the cull mode
//
// Returns:
//   - MeshBuilderOption: a function that applies the cull mode option to a mesh
func WithCullMode(mode gpu.CullMode) MeshBuilderOption {
	return func(m *mesh) {
		m.cullMode = mode
	}
}

// WithMaxInstances sets the instance capacity of the mesh. Values below 1 keep the default.
func WithMaxInstances(n int) MeshBuilderOption {
	return func(m *mesh) {
		if n > 0 {
			m.maxInstances = n
		}
	}
}
