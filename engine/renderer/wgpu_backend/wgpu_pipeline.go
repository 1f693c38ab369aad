package wgpu_backend

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
)

// pipelineKey identifies a cached render pipeline.
type pipelineKey struct {
	program   gpu.Handle
	state     gpu.RenderState
	depthOnly bool
}

// pipeline returns the cached render pipeline for the bound program and state, creating it on first use.
func (d *device) pipeline(key pipelineKey, p *wgpuProgram) (*wgpu.RenderPipeline, error) {
	if rp, ok := d.pipelines[key]; ok {
		return rp, nil
	}

	fragment := &wgpu.FragmentState{
		Module:     p.module,
		EntryPoint: "fs_main",
	}
	if !key.depthOnly {
		fragment.Targets = []wgpu.ColorTargetState{colorTarget(d.surfaceFormat, key.state)}
	}

	rp, err := d.dev.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  fmt.Sprintf("%s %s", p.name, describeState(key)),
		Layout: p.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     p.module,
			EntryPoint: "vs_main",
			Buffers:    vertexLayouts(),
		},
		Fragment: fragment,
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  cullMode(key.state.Cull),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencil(key.state),
	})
	if err != nil {
		return nil, fmt.Errorf("render pipeline %s: %w", p.name, err)
	}
	d.pipelines[key] = rp
	return rp, nil
}

// vertexLayouts describes the interleaved mesh buffer at slot 0 and the per-instance model matrix at slot 1.
func vertexLayouts() []wgpu.VertexBufferLayout {
	return []wgpu.VertexBufferLayout{
		{
			ArrayStride: gpu.VertexStride,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes: []wgpu.VertexAttribute{
				{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
				{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
				{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
			},
		},
		{
			ArrayStride: gpu.InstanceStride,
			StepMode:    wgpu.VertexStepModeInstance,
			Attributes: []wgpu.VertexAttribute{
				{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 3},
				{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 4},
				{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 5},
				{Format: wgpu.VertexFormatFloat32x4, Offset: 48, ShaderLocation: 6},
			},
		},
	}
}

func colorTarget(format wgpu.TextureFormat, s gpu.RenderState) wgpu.ColorTargetState {
	target := wgpu.ColorTargetState{
		Format:    format,
		WriteMask: wgpu.ColorWriteMaskNone,
	}
	if s.ColorWrite {
		target.WriteMask = wgpu.ColorWriteMaskAll
	}
	if s.Blend {
		target.Blend = &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	}
	return target
}

func depthStencil(s gpu.RenderState) *wgpu.DepthStencilState {
	compare := wgpu.CompareFunctionAlways
	if s.DepthTest {
		compare = compareFunc(s.DepthFunc)
	}
	return &wgpu.DepthStencilState{
		Format:            depthFormat,
		DepthWriteEnabled: s.DepthWrite,
		DepthCompare:      compare,
		StencilFront: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
		StencilBack: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
		StencilReadMask:  0xFFFFFFFF,
		StencilWriteMask: 0xFFFFFFFF,
	}
}

func cullMode(c gpu.CullMode) wgpu.CullMode {
	switch c {
	case gpu.CullBack:
		return wgpu.CullModeBack
	case gpu.CullFront:
		return wgpu.CullModeFront
	default:
		return wgpu.CullModeNone
	}
}

func compareFunc(f gpu.CompareFunc) wgpu.CompareFunction {
	switch f {
	case gpu.CompareLessEqual:
		return wgpu.CompareFunctionLessEqual
	case gpu.CompareEqual:
		return wgpu.CompareFunctionEqual
	case gpu.CompareAlways:
		return wgpu.CompareFunctionAlways
	default:
		return wgpu.CompareFunctionLess
	}
}

func describeState(key pipelineKey) string {
	target := "color"
	if key.depthOnly {
		target = "depth"
	}
	return fmt.Sprintf("[%s cull=%s depth=%t/%d write=%t color=%t blend=%t]",
		target, key.state.Cull, key.state.DepthTest, key.state.DepthFunc,
		key.state.DepthWrite, key.state.ColorWrite, key.state.Blend)
}
