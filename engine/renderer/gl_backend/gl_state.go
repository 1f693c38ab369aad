package gl_backend

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
)

func (d *device) SetState(state gpu.RenderState) {
	prev := d.state
	force := !d.stateOK
	d.state, d.stateOK = state, true

	if force || prev.Cull != state.Cull {
		if state.Cull == gpu.CullNone {
			gl.Disable(gl.CULL_FACE)
		} else {
			gl.Enable(gl.CULL_FACE)
			gl.CullFace(cullFace(state.Cull))
		}
	}
	if force || prev.DepthTest != state.DepthTest {
		enable(gl.DEPTH_TEST, state.DepthTest)
	}
	if force || prev.DepthFunc != state.DepthFunc {
		gl.DepthFunc(depthFunc(state.DepthFunc))
	}
	if force || prev.DepthWrite != state.DepthWrite {
		gl.DepthMask(state.DepthWrite)
	}
	if force || prev.ColorWrite != state.ColorWrite {
		w := state.ColorWrite
		gl.ColorMask(w, w, w, w)
	}
	if force || prev.Blend != state.Blend {
		enable(gl.BLEND, state.Blend)
	}
}

func (d *device) BeginPass(desc gpu.PassDescriptor) error {
	if desc.Target.IsZero() {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		gl.Viewport(0, 0, d.width, d.height)
	} else {
		res, ok := d.resources.Lookup(desc.Target, gpu.KindShadowMap)
		if !ok {
			return fmt.Errorf("begin pass %q: %w", desc.Label, gpu.ErrInvalidHandle)
		}
		gl.BindFramebuffer(gl.FRAMEBUFFER, res.fbo)
		gl.Viewport(0, 0, res.resolution, res.resolution)
		// The target is about to be written; unbind it from the shadow slot.
		gl.ActiveTexture(gl.TEXTURE0 + gpu.SlotShadow)
		gl.BindTexture(gl.TEXTURE_2D, 0)
	}

	var mask uint32
	if desc.ClearColorEnabled {
		c := desc.ClearColor
		gl.ClearColor(c[0], c[1], c[2], c[3])
		gl.ColorMask(true, true, true, true)
		mask |= gl.COLOR_BUFFER_BIT
	}
	if desc.ClearDepth {
		gl.DepthMask(true)
		mask |= gl.DEPTH_BUFFER_BIT
	}
	if mask != 0 {
		gl.Clear(mask)
		d.stateOK = false
	}
	return nil
}

func (d *device) EndPass() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

func (d *device) BindMesh(vertex, index, instance gpu.Handle) {
	vb, ok := d.resources.Lookup(vertex, gpu.KindBuffer)
	if !ok {
		return
	}
	ib, ok := d.resources.Lookup(index, gpu.KindBuffer)
	if !ok {
		return
	}

	gl.BindVertexArray(d.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, vb.id)
	stride := int32(gpu.VertexStride)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, stride, 6*4)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ib.id)

	// The instance model matrix occupies four vec4 attributes starting at location 3.
	inst, ok := d.resources.Lookup(instance, gpu.KindBuffer)
	if !ok {
		for i := uint32(0); i < 4; i++ {
			gl.DisableVertexAttribArray(3 + i)
		}
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, inst.id)
	for i := uint32(0); i < 4; i++ {
		gl.EnableVertexAttribArray(3 + i)
		gl.VertexAttribPointerWithOffset(3+i, 4, gl.FLOAT, false, gpu.InstanceStride, uintptr(i*16))
		gl.VertexAttribDivisor(3+i, 1)
	}
}

func (d *device) DrawIndexed(indexCount int) {
	gl.DrawElements(gl.TRIANGLES, int32(indexCount), gl.UNSIGNED_INT, nil)
}

func (d *device) DrawIndexedInstanced(indexCount, instanceCount int) {
	gl.DrawElementsInstanced(gl.TRIANGLES, int32(indexCount), gl.UNSIGNED_INT, nil, int32(instanceCount))
}

func enable(capability uint32, on bool) {
	if on {
		gl.Enable(capability)
	} else {
		gl.Disable(capability)
	}
}

func cullFace(c gpu.CullMode) uint32 {
	if c == gpu.CullFront {
		return gl.FRONT
	}
	return gl.BACK
}

func depthFunc(f gpu.CompareFunc) uint32 {
	switch f {
	case gpu.CompareLessEqual:
		return gl.LEQUAL
	case gpu.CompareEqual:
		return gl.EQUAL
	case gpu.CompareAlways:
		return gl.ALWAYS
	}
	return gl.LESS
}
