package wgpu_backend

import (
	"fmt"

	set "github.com/ErikKalkoken/go-set"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
)

func (d *device) SetState(state gpu.RenderState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = state
}

func (d *device) BeginPass(desc gpu.PassDescriptor) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pass != nil {
		return fmt.Errorf("begin pass %q: pass %q is still open", desc.Label, d.passDesc.Label)
	}
	if d.encoder == nil {
		enc, err := d.dev.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "Frame Encoder"})
		if err != nil {
			return fmt.Errorf("begin pass %q: %w", desc.Label, err)
		}
		d.encoder = enc
	}
	return d.openPass(desc)
}

// openPass begins a render pass on the current encoder.
func (d *device) openPass(desc gpu.PassDescriptor) error {
	depthLoad := wgpu.LoadOpLoad
	if desc.ClearDepth {
		depthLoad = wgpu.LoadOpClear
	}

	if !desc.Target.IsZero() {
		res, ok := d.resources.Lookup(desc.Target, gpu.KindShadowMap)
		if !ok {
			return fmt.Errorf("begin pass %q: target %d: %w", desc.Label, desc.Target, gpu.ErrInvalidHandle)
		}
		d.pass = d.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			Label: desc.Label,
			DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
				View:            res.view,
				DepthLoadOp:     depthLoad,
				DepthStoreOp:    wgpu.StoreOpStore,
				DepthClearValue: 1.0,
			},
		})
		d.passDesc = desc
		return nil
	}

	if err := d.acquireFrame(); err != nil {
		return fmt.Errorf("begin pass %q: %w", desc.Label, err)
	}
	colorLoad := wgpu.LoadOpLoad
	if desc.ClearColorEnabled {
		colorLoad = wgpu.LoadOpClear
	}
	c := desc.ClearColor
	d.pass = d.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: desc.Label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       d.frameView,
			LoadOp:     colorLoad,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])},
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            d.depthView,
			DepthLoadOp:     depthLoad,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})
	d.passDesc = desc
	return nil
}

// acquireFrame acquires the swapchain texture once per frame.
func (d *device) acquireFrame() error {
	if d.frameTexture != nil {
		return nil
	}
	if !d.configured {
		return ErrSurfaceUnavailable
	}
	tex, err := d.surface.GetCurrentTexture()
	if err != nil {
		// The surface is stale after a resize the window has not reported yet.
		d.configure(d.width, d.height)
		return fmt.Errorf("%w: %v", ErrSurfaceUnavailable, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("frame view: %w", err)
	}
	d.frameTexture, d.frameView = tex, view
	return nil
}

func (d *device) EndPass() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closePass()
}

func (d *device) closePass() {
	if d.pass == nil {
		return
	}
	d.pass.End()
	d.pass.Release()
	d.pass = nil
}

func (d *device) BindMesh(vertex, index, instance gpu.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.vertex, d.index, d.instanceBound = vertex, index, instance
}

func (d *device) DrawIndexed(indexCount int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.draw(indexCount, 0)
}

func (d *device) DrawIndexedInstanced(indexCount, instanceCount int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.draw(indexCount, instanceCount)
}

// draw snapshots the program's uniform block into the ring and encodes one indexed draw.
func (d *device) draw(indexCount, instanceCount int) {
	if d.pass == nil || d.program == nil || indexCount <= 0 {
		d.warnOnce("draw outside a pass or without a program")
		return
	}
	vb, okV := d.resources.Lookup(d.vertex, gpu.KindBuffer)
	ib, okI := d.resources.Lookup(d.index, gpu.KindBuffer)
	if !okV || !okI {
		d.warnOnce("draw with released mesh buffers")
		return
	}
	instanceBuf := d.identity
	if instanceCount > 0 {
		res, ok := d.resources.Lookup(d.instanceBound, gpu.KindBuffer)
		if !ok {
			d.warnOnce("instanced draw without an instance buffer")
			return
		}
		instanceBuf = res.buffer
	}

	p := d.program
	key := pipelineKey{program: p.handle, state: d.state, depthOnly: !d.passDesc.Target.IsZero()}
	rp, err := d.pipeline(key, p)
	if err != nil {
		d.warnOnce(err.Error())
		return
	}

	if d.ringOffset+p.stride > d.ringSize {
		if err := d.flush(); err != nil {
			d.logger.Error("uniform ring flush", zap.Error(err))
			return
		}
	}
	offset := d.ringOffset
	d.queue.WriteBuffer(d.ring, offset, p.staging)
	d.ringOffset += p.stride

	d.pass.SetPipeline(rp)
	d.pass.SetBindGroup(0, p.uniformGroup, []uint32{uint32(offset)})
	if p.textureLayout != nil {
		g, err := d.textureGroup(p)
		if err != nil {
			d.warnOnce(fmt.Sprintf("texture bind group: %v", err))
			return
		}
		d.pass.SetBindGroup(1, g, nil)
	}
	d.pass.SetVertexBuffer(0, vb.buffer, 0, wgpu.WholeSize)
	d.pass.SetVertexBuffer(1, instanceBuf, 0, wgpu.WholeSize)
	d.pass.SetIndexBuffer(ib.buffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	d.pass.DrawIndexed(uint32(indexCount), uint32(max(instanceCount, 1)), 0, 0, 0)

	d.pending.Add(d.vertex)
	d.pending.Add(d.index)
	if instanceCount > 0 {
		d.pending.Add(d.instanceBound)
	}
}

// flush submits the commands recorded so far and, if a pass was open, resumes it without clearing.
func (d *device) flush() error {
	resume := d.pass != nil
	desc := d.passDesc
	if err := d.submit(); err != nil {
		return err
	}
	if !resume {
		return nil
	}
	enc, err := d.dev.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "Frame Encoder"})
	if err != nil {
		return err
	}
	d.encoder = enc
	desc.ClearColorEnabled = false
	desc.ClearDepth = false
	return d.openPass(desc)
}

// submit closes any open pass and submits the current encoder.
func (d *device) submit() error {
	d.closePass()
	d.ringOffset = 0
	d.pending = set.Set[gpu.Handle]{}
	if d.encoder == nil {
		return nil
	}
	enc := d.encoder
	d.encoder = nil
	defer enc.Release()

	cmd, err := enc.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish command encoder: %w", err)
	}
	defer cmd.Release()
	d.queue.Submit(cmd)
	return nil
}

func (d *device) warnOnce(msg string) {
	if d.warned.Contains(msg) {
		return
	}
	d.warned.Add(msg)
	d.logger.Warn(msg, zap.String("pass", d.passDesc.Label))
}
