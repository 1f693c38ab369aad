package renderer

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/common"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/camera"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/config"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/entity"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/light"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/mesh"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/material"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/shader"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/scene"
)

var (
	one  = mgl32.Vec3{1, 1, 1}
	zero = mgl32.Vec3{}
)

func newTestRenderer(t *testing.T, options ...RendererBuilderOption) (*gpu.Recorder, Renderer) {
	t.Helper()
	dev := gpu.NewRecorder()
	r, err := NewRenderer(dev, options...)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return dev, r
}

func newTestMesh(t *testing.T, dev gpu.Device, data mesh.Data, options ...mesh.MeshBuilderOption) mesh.Mesh {
	t.Helper()
	m, err := mesh.New(dev, data, options...)
	require.NoError(t, err)
	return m
}

func single(m mesh.Mesh) []entity.LODLevel {
	return []entity.LODLevel{{MaxDistance: entity.Unbounded, Meshes: []mesh.Mesh{m}}}
}

func testCamera() camera.Camera {
	return camera.NewCamera(camera.WithLookAt(mgl32.Vec3{0, 0, 10}, zero), camera.WithAspect(1))
}

// blendDrawPositions returns the translation of the model uniform in effect at every blended
// color-pass draw, in submission order.
func blendDrawPositions(cmds []gpu.Command) []mgl32.Vec3 {
	var model mgl32.Mat4
	var out []mgl32.Vec3
	for _, c := range cmds {
		if c.Pass != PassColor {
			continue
		}
		switch {
		case c.Op == gpu.OpSetUniform && c.Uniform == shader.UModel:
			model = c.Value.(mgl32.Mat4)
		case c.Op == gpu.OpDraw && c.State.Blend:
			out = append(out, model.Col(3).Vec3())
		}
	}
	return out
}

func TestSharedMeshIsOneInstancedDraw(t *testing.T) {
	dev, r := newTestRenderer(t)
	tree := newTestMesh(t, dev, mesh.Cube(1), mesh.WithName("tree"))

	sc := scene.NewScene("forest")
	_, err := sc.CreateEntity("a", single(tree), mgl32.Vec3{-1, 0, 0}, zero, one)
	require.NoError(t, err)
	_, err = sc.CreateEntity("b", single(tree), mgl32.Vec3{1, 0, 0}, zero, one)
	require.NoError(t, err)
	_, err = sc.CreateDirLight("sun", mgl32.Vec3{-0.3, -1, -0.2}, one, 1)
	require.NoError(t, err)

	require.NoError(t, r.RenderFrame(sc, testCamera()))

	shadow := dev.Draws(PassShadow)
	require.Len(t, shadow, 1)
	assert.True(t, shadow[0].Instanced)
	assert.Equal(t, 2, shadow[0].Instances)
	assert.Equal(t, tree.InstanceBuffer(), shadow[0].Instance)

	draws := dev.Draws(PassColor)
	require.Len(t, draws, 1)
	assert.True(t, draws[0].Instanced)
	assert.Equal(t, 2, draws[0].Instances)
	assert.Equal(t, tree.InstanceBuffer(), draws[0].Instance)
	assert.Equal(t, gpu.CompareEqual, draws[0].State.DepthFunc)
	assert.False(t, draws[0].State.DepthWrite)

	prepass := dev.Draws(PassPrepass)
	require.Len(t, prepass, 1)
	assert.False(t, prepass[0].State.ColorWrite)
	assert.True(t, prepass[0].State.DepthWrite)
	assert.Equal(t, gpu.CompareLess, prepass[0].State.DepthFunc)

	models := []mgl32.Mat4{
		common.ModelMatrix(mgl32.Vec3{-1, 0, 0}, zero, one),
		common.ModelMatrix(mgl32.Vec3{1, 0, 0}, zero, one),
	}
	assert.Equal(t, common.SliceToBytes(models), dev.BufferData(tree.InstanceBuffer())[:2*gpu.InstanceStride])

	stats := r.Stats()
	assert.Equal(t, 2, stats.EntitiesTotal)
	assert.Equal(t, 2, stats.EntitiesRendered)
	assert.Equal(t, 0, stats.EntitiesCulled)
	assert.Equal(t, 1, stats.DrawCalls)
	assert.Equal(t, 1, stats.InstancedDrawCalls)
	assert.Equal(t, 2, stats.InstancesRendered)
	assert.Equal(t, 1, stats.MaterialChanges)
	assert.Equal(t, 2*tree.TriangleCount(), stats.TrianglesRendered)
	assert.Equal(t, 1, stats.DepthPrepassDrawCalls)
	assert.Equal(t, 1, stats.ShadowDrawCalls)
	assert.Equal(t, 1, dev.Frames())
}

func TestEntityBehindCameraIsCulled(t *testing.T) {
	dev, r := newTestRenderer(t)
	m := newTestMesh(t, dev, mesh.Cube(1))

	sc := scene.NewScene("test")
	_, err := sc.CreateEntity("front", single(m), zero, zero, one)
	require.NoError(t, err)
	_, err = sc.CreateEntity("behind", single(m), mgl32.Vec3{0, 0, 100}, zero, one)
	require.NoError(t, err)

	require.NoError(t, r.RenderFrame(sc, testCamera()))

	stats := r.Stats()
	assert.Equal(t, 2, stats.EntitiesTotal)
	assert.Equal(t, 1, stats.EntitiesCulled)
	assert.Equal(t, 1, stats.EntitiesRendered)
	require.Len(t, dev.Draws(PassColor), 1)
	assert.False(t, dev.Draws(PassColor)[0].Instanced)
}

func TestInactiveEntitiesAreIgnored(t *testing.T) {
	dev, r := newTestRenderer(t)
	m := newTestMesh(t, dev, mesh.Cube(1))

	sc := scene.NewScene("test")
	_, err := sc.CreateEntity("gone", single(m), zero, zero, one)
	require.NoError(t, err)
	require.NoError(t, sc.DeactivateEntity("gone"))

	require.NoError(t, r.RenderFrame(sc, testCamera()))
	assert.Equal(t, 0, r.Stats().EntitiesTotal)
	assert.Empty(t, dev.Draws(""))
}

func TestBlendDrawsBackToFront(t *testing.T) {
	dev, r := newTestRenderer(t)
	glass := newTestMesh(t, dev, mesh.Plane(2, 1, 1),
		mesh.WithMaterial(material.NewMaterial(material.WithAlphaMode(material.AlphaBlend, 0))),
		mesh.WithCullMode(gpu.CullNone),
	)

	sc := scene.NewScene("test")
	for i, z := range []float32{0, -20, -10} {
		_, err := sc.CreateEntity(string(rune('a'+i)), single(glass), mgl32.Vec3{0, 0, z}, zero, one)
		require.NoError(t, err)
	}

	require.NoError(t, r.RenderFrame(sc, testCamera()))

	assert.Equal(t, []mgl32.Vec3{{0, 0, -20}, {0, 0, -10}, {0, 0, 0}}, blendDrawPositions(dev.Commands()))
	assert.Empty(t, dev.Draws(PassPrepass), "blended geometry writes no depth")
	for _, d := range dev.Draws(PassColor) {
		assert.False(t, d.Instanced)
		assert.False(t, d.State.DepthWrite)
		assert.Equal(t, gpu.CompareLess, d.State.DepthFunc)
	}
	assert.Equal(t, 3, r.Stats().DrawCalls)
	assert.Equal(t, 1, r.Stats().MaterialChanges)
}

func TestOverCapacityBatchIsSkipped(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	dev, r := newTestRenderer(t, WithLogger(zap.New(core)))
	m := newTestMesh(t, dev, mesh.Cube(1), mesh.WithMaxInstances(2))

	sc := scene.NewScene("test")
	for i := range 3 {
		_, err := sc.CreateEntity(string(rune('a'+i)), single(m), mgl32.Vec3{float32(i), 0, 0}, zero, one)
		require.NoError(t, err)
	}

	require.NoError(t, r.RenderFrame(sc, testCamera()))
	require.NoError(t, r.RenderFrame(sc, testCamera()))

	assert.Empty(t, dev.Draws(PassColor))
	assert.Equal(t, 1, r.Stats().SkippedBatches)
	assert.Equal(t, 3, r.Stats().EntitiesRendered)
	assert.Equal(t, 1, logs.FilterMessage("batch skipped: instance count exceeds mesh capacity").Len())
}

func TestProgramFailureIsFatal(t *testing.T) {
	dev := gpu.NewRecorder()
	dev.FailPrograms[shader.ProgramDepth] = errors.New("link failed")

	r, err := NewRenderer(dev)
	require.Error(t, err)
	assert.Nil(t, r)
	assert.Contains(t, err.Error(), `"depth"`)
	assert.Equal(t, 0, dev.Live())
}

func TestShadowPassFrontCullsBackFacedMeshes(t *testing.T) {
	dev, r := newTestRenderer(t)
	cube := newTestMesh(t, dev, mesh.Cube(1))
	ground := newTestMesh(t, dev, mesh.Plane(10, 1, 1), mesh.WithCullMode(gpu.CullNone))

	sc := scene.NewScene("test")
	_, err := sc.CreateEntity("cube", single(cube), zero, zero, one)
	require.NoError(t, err)
	_, err = sc.CreateEntity("ground", single(ground), mgl32.Vec3{0, -1, 0}, zero, one)
	require.NoError(t, err)
	_, err = sc.CreateDirLight("sun", mgl32.Vec3{-0.3, -1, -0.2}, one, 1)
	require.NoError(t, err)

	require.NoError(t, r.RenderFrame(sc, testCamera()))

	shadow := dev.Draws(PassShadow)
	require.Len(t, shadow, 2)
	assert.Equal(t, gpu.CullFront, shadow[0].State.Cull)
	assert.Equal(t, gpu.CullNone, shadow[1].State.Cull)
	for _, d := range shadow {
		assert.False(t, d.State.ColorWrite)
		assert.True(t, d.State.DepthWrite)
	}
	assert.Equal(t, 2, r.Stats().ShadowDrawCalls)

	var shadowEnabled any
	for _, c := range dev.Commands() {
		if c.Op == gpu.OpSetUniform && c.Uniform == shader.UShadowEnabled {
			shadowEnabled = c.Value
		}
	}
	assert.Equal(t, true, shadowEnabled)
}

func TestLightsWithoutShadowsSkipShadowPass(t *testing.T) {
	dev, r := newTestRenderer(t)
	cube := newTestMesh(t, dev, mesh.Cube(1))

	sc := scene.NewScene("test")
	_, err := sc.CreateEntity("cube", single(cube), zero, zero, one)
	require.NoError(t, err)
	_, err = sc.CreateDirLight("sun", mgl32.Vec3{0, -1, 0}, one, 1, light.WithShadows(false))
	require.NoError(t, err)

	require.NoError(t, r.RenderFrame(sc, testCamera()))
	assert.Empty(t, dev.Draws(PassShadow))
	assert.Len(t, dev.Draws(PassColor), 1)
}

func TestLightVisualDrawnUnlitWithoutShadow(t *testing.T) {
	dev, r := newTestRenderer(t)
	cube := newTestMesh(t, dev, mesh.Cube(1))
	bulb := newTestMesh(t, dev, mesh.UVSphere(0.2, 8, 8),
		mesh.WithMaterial(material.NewMaterial(material.WithEmissive(mgl32.Vec3{1, 0.8, 0.4}))),
	)

	sc := scene.NewScene("test")
	_, err := sc.CreateEntity("cube", single(cube), zero, zero, one)
	require.NoError(t, err)
	_, err = sc.CreateEntity("bulb", single(bulb), zero, zero, one)
	require.NoError(t, err)
	_, err = sc.CreatePointLight("lamp", mgl32.Vec3{0, 5, 0}, one, 2, light.WithVisual("bulb"))
	require.NoError(t, err)

	require.NoError(t, r.RenderFrame(sc, testCamera()))

	stats := r.Stats()
	assert.Equal(t, 1, stats.ShadowDrawCalls)
	assert.Equal(t, 1, stats.DepthPrepassDrawCalls)
	assert.Equal(t, 2, stats.DrawCalls)

	var color any
	for _, c := range dev.Commands() {
		if c.Op == gpu.OpSetUniform && c.Uniform == shader.UColor {
			color = c.Value
		}
	}
	assert.Equal(t, mgl32.Vec4{1, 0.8, 0.4, 1}, color)

	draws := dev.Draws(PassColor)
	require.Len(t, draws, 2)
	assert.Equal(t, gpu.CompareLess, draws[1].State.DepthFunc)
	assert.True(t, draws[1].State.DepthWrite)
}

func TestUnsetMapsFallBackToWhite(t *testing.T) {
	dev, r := newTestRenderer(t)
	m := newTestMesh(t, dev, mesh.Cube(1))

	sc := scene.NewScene("test")
	_, err := sc.CreateEntity("cube", single(m), zero, zero, one)
	require.NoError(t, err)
	require.NoError(t, r.RenderFrame(sc, testCamera()))

	draws := dev.Draws(PassColor)
	require.Len(t, draws, 1)
	white := draws[0].Textures[gpu.SlotAlbedo]
	assert.False(t, white.IsZero())
	for _, slot := range []int{gpu.SlotNormal, gpu.SlotORM, gpu.SlotEmissive} {
		assert.Equal(t, white, draws[0].Textures[slot])
	}
	assert.NotEqual(t, white, draws[0].Textures[gpu.SlotShadow])
}

func TestDistinctMaterialsBindSeparately(t *testing.T) {
	dev, r := newTestRenderer(t)
	rough := newTestMesh(t, dev, mesh.Cube(1), mesh.WithMaterial(material.NewMaterial(material.WithRoughness(0.9))))
	shiny := newTestMesh(t, dev, mesh.Cube(1), mesh.WithMaterial(material.NewMaterial(material.WithRoughness(0.1))))
	alsoRough := newTestMesh(t, dev, mesh.Cube(1), mesh.WithMaterial(material.NewMaterial(material.WithRoughness(0.9005))))

	sc := scene.NewScene("test")
	for i, m := range []mesh.Mesh{rough, shiny, alsoRough} {
		_, err := sc.CreateEntity(string(rune('a'+i)), single(m), mgl32.Vec3{float32(i), 0, 0}, zero, one)
		require.NoError(t, err)
	}
	require.NoError(t, r.RenderFrame(sc, testCamera()))

	stats := r.Stats()
	assert.Equal(t, 2, stats.MaterialChanges)
	assert.Equal(t, 3, stats.DrawCalls)
	assert.Equal(t, 0, stats.InstancedDrawCalls)
}

func TestReleasedMeshIsSkipped(t *testing.T) {
	dev, r := newTestRenderer(t)
	m := newTestMesh(t, dev, mesh.Cube(1))

	sc := scene.NewScene("test")
	_, err := sc.CreateEntity("cube", single(m), zero, zero, one)
	require.NoError(t, err)
	m.Release(dev)

	require.NoError(t, r.RenderFrame(sc, testCamera()))
	assert.Empty(t, dev.Draws(""))
	assert.Equal(t, 0, r.Stats().DrawCalls)
}

func TestApplyConfig(t *testing.T) {
	dev, r := newTestRenderer(t)
	cube := newTestMesh(t, dev, mesh.Cube(1))
	live := dev.Live()

	cfg := config.Default()
	cfg.Shadow.Resolution = 1024
	require.NoError(t, r.ApplyConfig(cfg))
	assert.Equal(t, live, dev.Live(), "the old shadow map is released")

	cfg.Shadow.Enabled = false
	require.NoError(t, r.ApplyConfig(cfg))

	sc := scene.NewScene("test")
	_, err := sc.CreateEntity("cube", single(cube), zero, zero, one)
	require.NoError(t, err)
	_, err = sc.CreateDirLight("sun", mgl32.Vec3{0, -1, 0}, one, 1)
	require.NoError(t, err)

	require.NoError(t, r.RenderFrame(sc, testCamera()))
	assert.Empty(t, dev.Draws(PassShadow))
}

func TestParseBackendType(t *testing.T) {
	bt, err := ParseBackendType("WGPU")
	require.NoError(t, err)
	assert.Equal(t, BackendTypeWGPU, bt)
	assert.Equal(t, "headless", BackendTypeHeadless.String())

	_, err = ParseBackendType("vulkan")
	assert.Error(t, err)
}
