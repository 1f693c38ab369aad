// Package wgpu_backend implements gpu.Device on WebGPU through cogentcore/webgpu.
//
// WebGPU has no mutable uniform state, so the device emulates the OpenGL-style uniform model of
// gpu.Device: each program keeps a CPU staging copy of its uniform block, and every draw copies
// the current block into a per-frame uniform ring addressed with a dynamic offset. Render
// pipelines are created lazily per program and render state. Queue writes always land before
// the commands of the next submission, so rewriting a buffer that pending commands still read
// first submits those commands and resumes the pass.
package wgpu_backend

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"

	set "github.com/ErikKalkoken/go-set"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
)

var (
	// ErrNoAdapter is returned when no WebGPU adapter is compatible with the surface.
	ErrNoAdapter = errors.New("no compatible webgpu adapter")
	// ErrSurfaceUnavailable is returned when a pass targets a zero-sized or unconfigured surface.
	ErrSurfaceUnavailable = errors.New("surface unavailable")
)

const (
	depthFormat = wgpu.TextureFormatDepth32Float

	// uniformAlignment is the minimum dynamic uniform buffer offset alignment of WebGPU.
	uniformAlignment = 256
	defaultRingSize  = 4 << 20
)

// wgpuResource is one WebGPU object behind a gpu.Handle.
type wgpuResource struct {
	kind gpu.ResourceKind

	// buffers
	buffer *wgpu.Buffer
	size   int

	// textures and shadow maps
	texture *wgpu.Texture
	view    *wgpu.TextureView
	depth   bool

	program *wgpuProgram
}

// device is the WebGPU implementation of gpu.Device.
type device struct {
	mu     *sync.Mutex
	logger *zap.Logger

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	dev      *wgpu.Device
	queue    *wgpu.Queue

	resources *gpu.Registry[*wgpuResource]
	pipelines map[pipelineKey]*wgpu.RenderPipeline
	programs  map[gpu.Handle]*wgpuProgram
	warned    set.Set[string]

	surfaceFormat wgpu.TextureFormat
	alphaMode     wgpu.CompositeAlphaMode
	vsync         bool
	fallback      bool
	configured    bool
	width, height int

	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView

	linearSampler *wgpu.Sampler
	shadowSampler *wgpu.Sampler
	white         *wgpu.Texture
	whiteView     *wgpu.TextureView
	depthDummy    *wgpu.Texture
	depthDummyVw  *wgpu.TextureView
	identity      *wgpu.Buffer

	ring       *wgpu.Buffer
	ringSize   uint64
	ringOffset uint64

	// frame state
	encoder      *wgpu.CommandEncoder
	pass         *wgpu.RenderPassEncoder
	passDesc     gpu.PassDescriptor
	frameTexture *wgpu.Texture
	frameView    *wgpu.TextureView
	pending      set.Set[gpu.Handle]

	// bound state
	program  *wgpuProgram
	state    gpu.RenderState
	textures [gpu.MaxTextureSlots]gpu.Handle
	vertex        gpu.Handle
	index         gpu.Handle
	instanceBound gpu.Handle
}

var _ gpu.Device = &device{}

// New creates a WebGPU device presenting to the given surface.
// The caller's goroutine is locked to its OS thread, as the window system requires.
//
// Parameters:
//   - surfaceDescriptor: the platform surface, typically from wgpuglfw.GetSurfaceDescriptor
//   - width: the initial framebuffer width
//   - height: the initial framebuffer height
//   - options: functional options (logger, vsync, fallback adapter)
//
// Returns:
//   - gpu.Device: the WebGPU device
//   - error: ErrNoAdapter or a wrapped device creation error
func New(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, options ...WGPUBackendBuilderOption) (gpu.Device, error) {
	runtime.LockOSThread()
	d := &device{
		mu:        &sync.Mutex{},
		logger:    zap.NewNop(),
		resources: gpu.NewRegistry[*wgpuResource](),
		pipelines: make(map[pipelineKey]*wgpu.RenderPipeline),
		programs:  make(map[gpu.Handle]*wgpuProgram),
		ringSize:  defaultRingSize,
	}
	for _, opt := range options {
		opt(d)
	}

	d.instance = wgpu.CreateInstance(nil)
	d.surface = d.instance.CreateSurface(surfaceDescriptor)

	adapter, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: d.fallback,
		CompatibleSurface:    d.surface,
	})
	if err != nil || adapter == nil {
		d.Close()
		return nil, fmt.Errorf("%w: %v", ErrNoAdapter, err)
	}
	d.adapter = adapter

	dev, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("request device: %w", err)
	}
	d.dev = dev
	d.queue = dev.GetQueue()

	caps := d.surface.GetCapabilities(d.adapter)
	if len(caps.Formats) == 0 {
		d.Close()
		return nil, fmt.Errorf("%w: surface reports no formats", ErrNoAdapter)
	}
	d.surfaceFormat = pickSurfaceFormat(caps.Formats)
	if len(caps.AlphaModes) > 0 {
		d.alphaMode = caps.AlphaModes[0]
	}
	if !d.vsync && !slices.Contains(caps.PresentModes, wgpu.PresentModeImmediate) {
		d.logger.Warn("immediate present mode unsupported, using fifo")
		d.vsync = true
	}

	if err := d.createShared(); err != nil {
		d.Close()
		return nil, err
	}
	d.configure(width, height)

	d.logger.Info("webgpu initialized",
		zap.Uint32("surface_format", uint32(d.surfaceFormat)),
		zap.Bool("vsync", d.vsync),
	)
	return d, nil
}

// createShared allocates the samplers, fallback textures, identity instance buffer and uniform ring.
func (d *device) createShared() error {
	var err error
	d.linearSampler, err = d.dev.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Linear Sampler",
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("linear sampler: %w", err)
	}
	d.shadowSampler, err = d.dev.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Shadow Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
		Compare:       wgpu.CompareFunctionLessEqual,
	})
	if err != nil {
		return fmt.Errorf("shadow sampler: %w", err)
	}

	d.white, d.whiteView, err = d.colorTexture("White Texture", []byte{255, 255, 255, 255}, 1, 1, false)
	if err != nil {
		return err
	}
	d.depthDummy, d.depthDummyVw, err = d.depthTarget("Fallback Depth", 1, 1)
	if err != nil {
		return err
	}

	d.identity, err = d.dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Identity Instance Buffer",
		Size:  gpu.InstanceStride,
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("identity buffer: %w", err)
	}
	d.queue.WriteBuffer(d.identity, 0, identityBytes())

	d.ring, err = d.dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Uniform Ring",
		Size:  d.ringSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("uniform ring: %w", err)
	}
	return nil
}

// configure (re)configures the surface and the depth attachment for the given size.
// A zero-sized surface stays unconfigured until the next resize.
func (d *device) configure(width, height int) {
	d.width, d.height = width, height
	if d.depthView != nil {
		d.depthView.Release()
		d.depthTexture.Release()
		d.depthView, d.depthTexture = nil, nil
	}
	if width <= 0 || height <= 0 {
		d.configured = false
		return
	}

	mode := wgpu.PresentModeImmediate
	if d.vsync {
		mode = wgpu.PresentModeFifo
	}
	d.surface.Configure(d.adapter, d.dev, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      d.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: mode,
		AlphaMode:   d.alphaMode,
	})

	var err error
	d.depthTexture, d.depthView, err = d.depthTarget("Depth Texture", width, height)
	if err != nil {
		d.logger.Error("depth texture", zap.Error(err))
		d.configured = false
		return
	}
	d.configured = true
}

func (d *device) Resize(width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if width == d.width && height == d.height && d.configured {
		return
	}
	d.configure(width, height)
}

func (d *device) Present() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.submit()
	if d.frameTexture != nil {
		d.surface.Present()
		d.frameView.Release()
		d.frameTexture.Release()
		d.frameView, d.frameTexture = nil, nil
	}
	return err
}

func (d *device) Valid(h gpu.Handle) bool {
	_, ok := d.resources.Get(h)
	return ok
}

func (d *device) Release(h gpu.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	res, ok := d.resources.Remove(h)
	if !ok {
		return
	}
	d.free(h, res)
}

func (d *device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pass != nil {
		d.pass.End()
		d.pass.Release()
		d.pass = nil
	}
	if d.encoder != nil {
		d.encoder.Release()
		d.encoder = nil
	}
	if d.frameTexture != nil {
		d.frameView.Release()
		d.frameTexture.Release()
		d.frameView, d.frameTexture = nil, nil
	}

	d.resources.Drain(func(h gpu.Handle, _ gpu.ResourceKind, res *wgpuResource) {
		d.free(h, res)
	})
	for key, p := range d.pipelines {
		p.Release()
		delete(d.pipelines, key)
	}

	for _, release := range []func(){
		releaser(d.ring), releaser(d.identity),
		releaser(d.depthDummyVw), releaser(d.depthDummy),
		releaser(d.whiteView), releaser(d.white),
		releaser(d.depthView), releaser(d.depthTexture),
		releaser(d.shadowSampler), releaser(d.linearSampler),
		releaser(d.queue), releaser(d.dev), releaser(d.adapter),
		releaser(d.surface), releaser(d.instance),
	} {
		release()
	}
	d.ring, d.identity, d.queue, d.dev, d.adapter, d.surface, d.instance = nil, nil, nil, nil, nil, nil, nil
}

// free releases the WebGPU objects of a removed resource.
func (d *device) free(h gpu.Handle, res *wgpuResource) {
	switch res.kind {
	case gpu.KindBuffer:
		res.buffer.Release()
	case gpu.KindTexture, gpu.KindShadowMap:
		d.forgetTexture(h)
		res.view.Release()
		res.texture.Release()
	case gpu.KindProgram:
		if d.program == res.program {
			d.program = nil
		}
		delete(d.programs, h)
		for key, p := range d.pipelines {
			if key.program == h {
				p.Release()
				delete(d.pipelines, key)
			}
		}
		res.program.release()
	}
}

// releasable is implemented by every cogentcore/webgpu object.
type releasable interface {
	comparable
	Release()
}

// releaser returns a function releasing obj when it is non-nil.
func releaser[T releasable](obj T) func() {
	return func() {
		var zero T
		if obj != zero {
			obj.Release()
		}
	}
}
