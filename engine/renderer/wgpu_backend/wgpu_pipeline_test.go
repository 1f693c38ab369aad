package wgpu_backend

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
)

func TestCompareFunc(t *testing.T) {
	assert.Equal(t, wgpu.CompareFunctionLess, compareFunc(gpu.CompareLess))
	assert.Equal(t, wgpu.CompareFunctionLessEqual, compareFunc(gpu.CompareLessEqual))
	assert.Equal(t, wgpu.CompareFunctionEqual, compareFunc(gpu.CompareEqual))
	assert.Equal(t, wgpu.CompareFunctionAlways, compareFunc(gpu.CompareAlways))
}

func TestCullMode(t *testing.T) {
	assert.Equal(t, wgpu.CullModeNone, cullMode(gpu.CullNone))
	assert.Equal(t, wgpu.CullModeBack, cullMode(gpu.CullBack))
	assert.Equal(t, wgpu.CullModeFront, cullMode(gpu.CullFront))
}

func TestDepthStencilIgnoresFuncWithoutDepthTest(t *testing.T) {
	ds := depthStencil(gpu.RenderState{DepthTest: false, DepthFunc: gpu.CompareEqual, DepthWrite: true})
	assert.Equal(t, wgpu.CompareFunctionAlways, ds.DepthCompare)
	assert.True(t, ds.DepthWriteEnabled)
	assert.Equal(t, depthFormat, ds.Format)

	ds = depthStencil(gpu.RenderState{DepthTest: true, DepthFunc: gpu.CompareEqual})
	assert.Equal(t, wgpu.CompareFunctionEqual, ds.DepthCompare)
	assert.False(t, ds.DepthWriteEnabled)
}

func TestColorTarget(t *testing.T) {
	opaque := colorTarget(wgpu.TextureFormatBGRA8UnormSrgb, gpu.RenderState{ColorWrite: true})
	assert.Equal(t, wgpu.ColorWriteMaskAll, opaque.WriteMask)
	assert.Nil(t, opaque.Blend)

	prepass := colorTarget(wgpu.TextureFormatBGRA8UnormSrgb, gpu.RenderState{})
	assert.Equal(t, wgpu.ColorWriteMaskNone, prepass.WriteMask)

	blended := colorTarget(wgpu.TextureFormatBGRA8UnormSrgb, gpu.RenderState{ColorWrite: true, Blend: true})
	require.NotNil(t, blended.Blend)
	assert.Equal(t, wgpu.BlendFactorSrcAlpha, blended.Blend.Color.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOneMinusSrcAlpha, blended.Blend.Color.DstFactor)
}

func TestVertexLayoutsMatchStrides(t *testing.T) {
	layouts := vertexLayouts()
	require.Len(t, layouts, 2)
	assert.Equal(t, uint64(gpu.VertexStride), layouts[0].ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeVertex, layouts[0].StepMode)
	assert.Equal(t, uint64(gpu.InstanceStride), layouts[1].ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeInstance, layouts[1].StepMode)

	var locations []uint32
	for _, l := range layouts {
		for _, a := range l.Attributes {
			locations = append(locations, a.ShaderLocation)
		}
	}
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5, 6}, locations)
}

func TestUniformStride(t *testing.T) {
	assert.Equal(t, uint64(256), uniformStride(16))
	assert.Equal(t, uint64(256), uniformStride(256))
	assert.Equal(t, uint64(1024), uniformStride(800))
}

func TestTextureLayoutEntries(t *testing.T) {
	entries := textureLayoutEntries([]gpu.TextureDecl{
		{Name: "u_albedoMap", Slot: gpu.SlotAlbedo},
		{Name: "u_shadowMap", Slot: gpu.SlotShadow, Depth: true},
	})
	require.Len(t, entries, 4)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, entries[0].Texture.SampleType)
	assert.Equal(t, uint32(gpu.SlotShadow), entries[1].Binding)
	assert.Equal(t, wgpu.TextureSampleTypeDepth, entries[1].Texture.SampleType)
	assert.Equal(t, uint32(gpu.LinearSamplerBinding), entries[2].Binding)
	assert.Equal(t, wgpu.SamplerBindingTypeComparison, entries[3].Sampler.Type)
}

func TestPickSurfaceFormatPrefersSRGB(t *testing.T) {
	assert.Equal(t, wgpu.TextureFormatBGRA8UnormSrgb,
		pickSurfaceFormat([]wgpu.TextureFormat{wgpu.TextureFormatBGRA8Unorm, wgpu.TextureFormatBGRA8UnormSrgb}))
	assert.Equal(t, wgpu.TextureFormatBGRA8Unorm,
		pickSurfaceFormat([]wgpu.TextureFormat{wgpu.TextureFormatBGRA8Unorm}))
}

func TestIdentityBytesAndPadding(t *testing.T) {
	b := identityBytes()
	require.Len(t, b, gpu.InstanceStride)
	for i := 0; i < 16; i++ {
		want := float32(0)
		if i%5 == 0 {
			want = 1
		}
		assert.Equal(t, want, math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:])), i)
	}

	assert.Len(t, pad4([]byte{1, 2, 3, 4, 5}), 8)
	data := []byte{1, 2, 3, 4}
	assert.Equal(t, data, pad4(data))
}
