package wgpu_backend

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/common"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
)

func (d *device) CreateBuffer(kind gpu.BufferKind, data []byte, size int) (gpu.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	size = max(size, len(data))
	if size <= 0 {
		return 0, fmt.Errorf("create buffer: size must be positive")
	}

	usage := wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst
	label := "Vertex Buffer"
	switch kind {
	case gpu.BufferIndex:
		usage = wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst
		label = "Index Buffer"
	case gpu.BufferInstance:
		label = "Instance Buffer"
	}

	buf, err := d.dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(align4(size)),
		Usage: usage,
	})
	if err != nil {
		return 0, fmt.Errorf("create buffer: %w", err)
	}
	if len(data) > 0 {
		d.queue.WriteBuffer(buf, 0, pad4(data))
	}
	return d.resources.Add(gpu.KindBuffer, &wgpuResource{
		kind:   gpu.KindBuffer,
		buffer: buf,
		size:   size,
	}), nil
}

func (d *device) UpdateBuffer(h gpu.Handle, offset int, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	res, ok := d.resources.Lookup(h, gpu.KindBuffer)
	if !ok {
		return fmt.Errorf("update buffer %d: %w", h, gpu.ErrInvalidHandle)
	}
	if offset < 0 || offset+len(data) > res.size {
		return fmt.Errorf("update buffer %d: range [%d, %d) exceeds size %d", h, offset, offset+len(data), res.size)
	}
	if offset%4 != 0 {
		return fmt.Errorf("update buffer %d: offset %d is not 4-byte aligned", h, offset)
	}
	if len(data) == 0 {
		return nil
	}
	// Pending commands still read the old contents.
	if d.pending.Contains(h) {
		if err := d.flush(); err != nil {
			return fmt.Errorf("update buffer %d: %w", h, err)
		}
	}
	d.queue.WriteBuffer(res.buffer, uint64(offset), pad4(data))
	return nil
}

func (d *device) CreateTexture(img common.TextureData) (gpu.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !img.Valid() {
		return 0, fmt.Errorf("create texture: %dx%d with %d bytes", img.Width, img.Height, len(img.Pixels))
	}
	tex, view, err := d.colorTexture("Texture", img.Pixels, img.Width, img.Height, img.Linear)
	if err != nil {
		return 0, err
	}
	return d.resources.Add(gpu.KindTexture, &wgpuResource{
		kind:    gpu.KindTexture,
		texture: tex,
		view:    view,
	}), nil
}

func (d *device) CreateShadowMap(resolution int) (gpu.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if resolution <= 0 {
		return 0, fmt.Errorf("create shadow map: resolution %d", resolution)
	}
	tex, view, err := d.depthTarget("Shadow Map", resolution, resolution)
	if err != nil {
		return 0, err
	}
	return d.resources.Add(gpu.KindShadowMap, &wgpuResource{
		kind:    gpu.KindShadowMap,
		texture: tex,
		view:    view,
		depth:   true,
	}), nil
}

func (d *device) BindTexture(slot int, tex gpu.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if slot < 0 || slot >= gpu.MaxTextureSlots {
		return
	}
	d.textures[slot] = tex
}

// colorTexture creates an RGBA8 texture and uploads its pixels.
func (d *device) colorTexture(label string, pixels []byte, width, height uint32, linear bool) (*wgpu.Texture, *wgpu.TextureView, error) {
	format := wgpu.TextureFormatRGBA8UnormSrgb
	if linear {
		format = wgpu.TextureFormatRGBA8Unorm
	}
	size := wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1}

	tex, err := d.dev.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          size,
		Format:        format,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create texture: %w", err)
	}

	d.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  width * 4,
			RowsPerImage: height,
		},
		&size,
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("create texture view: %w", err)
	}
	return tex, view, nil
}

// depthTarget creates a depth texture usable both as a render attachment and as a sampled texture.
func (d *device) depthTarget(label string, width, height int) (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := d.dev.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("%s view: %w", label, err)
	}
	return tex, view, nil
}

// textureView resolves the view bound to a slot, falling back to a 1x1 texture of the right kind.
func (d *device) textureView(slot int, depth bool) *wgpu.TextureView {
	kind := gpu.KindTexture
	if depth {
		kind = gpu.KindShadowMap
	}
	if res, ok := d.resources.Lookup(d.textures[slot], kind); ok {
		return res.view
	}
	if depth {
		return d.depthDummyVw
	}
	return d.whiteView
}

// forgetTexture drops every cached bind group that references h.
func (d *device) forgetTexture(h gpu.Handle) {
	for _, p := range d.programs {
		p.forget(h)
	}
}

// pickSurfaceFormat prefers an sRGB swapchain format; the WGSL programs write linear color.
func pickSurfaceFormat(formats []wgpu.TextureFormat) wgpu.TextureFormat {
	for _, f := range formats {
		if f == wgpu.TextureFormatBGRA8UnormSrgb || f == wgpu.TextureFormatRGBA8UnormSrgb {
			return f
		}
	}
	return formats[0]
}

func identityBytes() []byte {
	m := mgl32.Ident4()
	out := make([]byte, gpu.InstanceStride)
	for i, f := range m {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

func align4(n int) int {
	return (n + 3) &^ 3
}

// pad4 extends data to a multiple of four bytes, as queue writes require.
func pad4(data []byte) []byte {
	if len(data)%4 == 0 {
		return data
	}
	out := make([]byte, align4(len(data)))
	copy(out, data)
	return out
}
