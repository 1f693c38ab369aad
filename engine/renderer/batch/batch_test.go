package batch

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/mesh"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/material"
)

func newMesh(t *testing.T, dev gpu.Device, mat material.Material, opts ...mesh.MeshBuilderOption) mesh.Mesh {
	t.Helper()
	m, err := mesh.New(dev, mesh.Cube(1), append([]mesh.MeshBuilderOption{mesh.WithMaterial(mat)}, opts...)...)
	require.NoError(t, err)
	return m
}

func at(x float32) mgl32.Mat4 {
	return mgl32.Translate3D(x, 0, 0)
}

func TestSharedMeshBecomesOneBatch(t *testing.T) {
	dev := gpu.NewRecorder()
	tree := newMesh(t, dev, material.NewMaterial())

	c := NewCompiler()
	c.Add(Instance{Mesh: tree, Model: at(1), Cull: gpu.CullBack})
	c.Add(Instance{Mesh: tree, Model: at(2), Cull: gpu.CullBack})
	f := c.Compile()

	require.Len(t, f.Opaque, 1)
	require.Len(t, f.Opaque[0].Meshes, 1)
	assert.Equal(t, []mgl32.Mat4{at(1), at(2)}, f.Opaque[0].Meshes[0].Transforms)
	assert.Equal(t, 2, f.Instances())
	assert.Empty(t, f.Skipped)
}

func TestMaterialsGroupByBatchKey(t *testing.T) {
	dev := gpu.NewRecorder()
	a := newMesh(t, dev, material.NewMaterial(material.WithRoughness(0.5)))
	b := newMesh(t, dev, material.NewMaterial(material.WithRoughness(0.5004), material.WithBaseColor(mgl32.Vec4{1, 0, 0, 1})))
	c := newMesh(t, dev, material.NewMaterial(material.WithRoughness(0.9)))

	comp := NewCompiler()
	comp.Add(Instance{Mesh: a, Model: at(0), Cull: gpu.CullBack})
	comp.Add(Instance{Mesh: c, Model: at(1), Cull: gpu.CullBack})
	comp.Add(Instance{Mesh: b, Model: at(2), Cull: gpu.CullBack})
	comp.Add(Instance{Mesh: a, Model: at(3), Cull: gpu.CullNone})
	f := comp.Compile()

	require.Len(t, f.Opaque, 2)
	assert.Same(t, a.Material(), f.Opaque[0].Material, "first inserted material keys the group")
	require.Len(t, f.Opaque[0].Meshes, 3, "a/back, b/back and a/none are distinct mesh groups")
	assert.Same(t, a, f.Opaque[0].Meshes[0].Mesh)
	assert.Same(t, b, f.Opaque[0].Meshes[1].Mesh)
	assert.Equal(t, gpu.CullNone, f.Opaque[0].Meshes[2].Cull)
	assert.Same(t, c, f.Opaque[1].Meshes[0].Mesh)
}

func TestBlendSortedBackToFront(t *testing.T) {
	dev := gpu.NewRecorder()
	glass := newMesh(t, dev, material.NewMaterial(material.WithAlphaMode(material.AlphaBlend, 0)))

	c := NewCompiler()
	c.Add(Instance{Mesh: glass, Model: at(5), Distance: 5})
	c.Add(Instance{Mesh: glass, Model: at(10), Distance: 10})
	c.Add(Instance{Mesh: glass, Model: at(7), Distance: 7})
	c.Add(Instance{Mesh: glass, Model: at(-7), Distance: 7})
	f := c.Compile()

	require.Len(t, f.Blend, 4)
	assert.Empty(t, f.Opaque)
	assert.Equal(t, []float32{10, 7, 7, 5}, []float32{f.Blend[0].Distance, f.Blend[1].Distance, f.Blend[2].Distance, f.Blend[3].Distance})
	assert.Equal(t, at(7), f.Blend[1].Model, "equal distances keep insertion order")
	assert.Equal(t, at(-7), f.Blend[2].Model)
}

func TestOverCapacityBatchIsSkipped(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	dev := gpu.NewRecorder()
	small := newMesh(t, dev, material.NewMaterial(), mesh.WithMaxInstances(2), mesh.WithName("small"))
	other := newMesh(t, dev, material.NewMaterial())

	c := NewCompiler(WithLogger(zap.New(core)))
	for frame := 0; frame < 2; frame++ {
		c.Reset()
		for i := 0; i < 3; i++ {
			c.Add(Instance{Mesh: small, Model: at(float32(i))})
		}
		c.Add(Instance{Mesh: other, Model: at(9)})
		f := c.Compile()

		require.Len(t, f.Skipped, 1)
		assert.Same(t, small, f.Skipped[0].Mesh)
		require.Len(t, f.Opaque, 1)
		require.Len(t, f.Opaque[0].Meshes, 1)
		assert.Same(t, other, f.Opaque[0].Meshes[0].Mesh)
		for _, mb := range f.Opaque {
			for _, b := range mb.Meshes {
				assert.LessOrEqual(t, len(b.Transforms), b.Mesh.MaxInstances())
			}
		}
	}
	assert.Equal(t, 1, logs.Len(), "warned once per mesh")
}

func TestVisualsAndShadowCasters(t *testing.T) {
	dev := gpu.NewRecorder()
	solid := newMesh(t, dev, material.NewMaterial())
	glass := newMesh(t, dev, material.NewMaterial(material.WithAlphaMode(material.AlphaBlend, 0)))
	bulb := newMesh(t, dev, material.NewMaterial(material.WithEmissive(mgl32.Vec3{1, 1, 1})))

	c := NewCompiler()
	c.Add(Instance{Mesh: bulb, Model: at(0), LightVisual: true})
	c.AddShadowCaster(Instance{Mesh: bulb, Model: at(0), LightVisual: true})
	c.AddShadowCaster(Instance{Mesh: glass, Model: at(1)})
	c.AddShadowCaster(Instance{Mesh: solid, Model: at(2)})
	c.AddShadowCaster(Instance{Mesh: solid, Model: at(3)})
	f := c.Compile()

	require.Len(t, f.Visuals, 1)
	assert.Same(t, bulb, f.Visuals[0].Mesh)
	assert.Empty(t, f.Opaque)
	require.Len(t, f.Shadow, 1)
	assert.Same(t, solid, f.Shadow[0].Mesh)
	assert.Len(t, f.Shadow[0].Transforms, 2)
}

func TestResetClearsFrame(t *testing.T) {
	dev := gpu.NewRecorder()
	m := newMesh(t, dev, material.NewMaterial())

	c := NewCompiler()
	c.Add(Instance{Mesh: m})
	c.Reset()
	f := c.Compile()
	assert.Empty(t, f.Opaque)
	assert.Empty(t, f.Skipped)
}
