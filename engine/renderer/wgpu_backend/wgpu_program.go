package wgpu_backend

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
)

// wgpuProgram is a WGSL module with its layouts and the CPU staging copy of its uniform block.
type wgpuProgram struct {
	handle   gpu.Handle
	name     string
	module   *wgpu.ShaderModule
	layout   gpu.BlockLayout
	decls    []gpu.UniformDecl
	names    map[string]gpu.UniformLocation
	staging  []byte
	stride   uint64
	textures []gpu.TextureDecl

	uniformLayout  *wgpu.BindGroupLayout
	textureLayout  *wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout
	uniformGroup   *wgpu.BindGroup
	textureGroups  map[[gpu.MaxTextureSlots]gpu.Handle]*wgpu.BindGroup
}

func (d *device) CreateProgram(src gpu.ProgramSource) (gpu.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if src.WGSL == "" {
		return 0, fmt.Errorf("program %q has no WGSL module", src.Name)
	}

	p := &wgpuProgram{
		name:          src.Name,
		layout:        gpu.LayoutUniforms(src.Uniforms),
		decls:         src.Uniforms,
		names:         make(map[string]gpu.UniformLocation, len(src.Uniforms)),
		textures:      src.Textures,
		textureGroups: make(map[[gpu.MaxTextureSlots]gpu.Handle]*wgpu.BindGroup),
	}
	for i, u := range src.Uniforms {
		p.names[u.Name] = gpu.UniformLocation(i)
	}
	p.staging = make([]byte, p.layout.Size)
	p.stride = uniformStride(p.layout.Size)
	if p.stride > d.ringSize {
		return 0, fmt.Errorf("program %q: uniform block of %d bytes exceeds the uniform ring", src.Name, p.layout.Size)
	}

	if err := d.buildProgram(p, src); err != nil {
		p.release()
		return 0, fmt.Errorf("program %q: %w", src.Name, err)
	}

	h := d.resources.Add(gpu.KindProgram, &wgpuResource{
		kind:    gpu.KindProgram,
		program: p,
	})
	p.handle = h
	d.programs[h] = p
	return h, nil
}

func (d *device) buildProgram(p *wgpuProgram, src gpu.ProgramSource) error {
	var err error
	p.module, err = d.dev.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: src.Name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: src.WGSL,
		},
	})
	if err != nil {
		return fmt.Errorf("shader module: %w", err)
	}

	p.uniformLayout, err = d.dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: src.Name + " Uniforms",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer: wgpu.BufferBindingLayout{
				Type:             wgpu.BufferBindingTypeUniform,
				HasDynamicOffset: true,
				MinBindingSize:   uint64(p.layout.Size),
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("uniform layout: %w", err)
	}
	layouts := []*wgpu.BindGroupLayout{p.uniformLayout}

	if len(p.textures) > 0 {
		p.textureLayout, err = d.dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   src.Name + " Textures",
			Entries: textureLayoutEntries(p.textures),
		})
		if err != nil {
			return fmt.Errorf("texture layout: %w", err)
		}
		layouts = append(layouts, p.textureLayout)
	}

	p.pipelineLayout, err = d.dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            src.Name,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return fmt.Errorf("pipeline layout: %w", err)
	}

	p.uniformGroup, err = d.dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  src.Name + " Uniforms",
		Layout: p.uniformLayout,
		Entries: []wgpu.BindGroupEntry{{
			Binding: 0,
			Buffer:  d.ring,
			Offset:  0,
			Size:    uint64(p.layout.Size),
		}},
	})
	if err != nil {
		return fmt.Errorf("uniform bind group: %w", err)
	}
	return nil
}

func (d *device) UniformLocation(program gpu.Handle, name string) (gpu.UniformLocation, bool) {
	res, ok := d.resources.Lookup(program, gpu.KindProgram)
	if !ok {
		return -1, false
	}
	loc, ok := res.program.names[name]
	return loc, ok
}

func (d *device) UseProgram(program gpu.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	res, ok := d.resources.Lookup(program, gpu.KindProgram)
	if !ok {
		d.program = nil
		return
	}
	d.program = res.program
}

func (d *device) SetUniform(loc gpu.UniformLocation, value any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p := d.program
	if p == nil {
		return gpu.ErrNoProgram
	}
	if loc < 0 || int(loc) >= len(p.decls) {
		return fmt.Errorf("program %q: uniform location %d out of range", p.name, loc)
	}
	decl := p.decls[loc]
	return gpu.EncodeUniform(p.staging, p.layout.Offsets[decl.Name], decl, value)
}

// textureGroup returns the bind group for the textures currently bound to the program's slots.
func (d *device) textureGroup(p *wgpuProgram) (*wgpu.BindGroup, error) {
	var key [gpu.MaxTextureSlots]gpu.Handle
	for _, t := range p.textures {
		key[t.Slot] = d.textures[t.Slot]
	}
	if g, ok := p.textureGroups[key]; ok {
		return g, nil
	}

	entries := make([]wgpu.BindGroupEntry, 0, len(p.textures)+2)
	for _, t := range p.textures {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding:     uint32(t.Slot),
			TextureView: d.textureView(t.Slot, t.Depth),
		})
	}
	entries = append(entries,
		wgpu.BindGroupEntry{Binding: gpu.LinearSamplerBinding, Sampler: d.linearSampler},
		wgpu.BindGroupEntry{Binding: gpu.ShadowSamplerBinding, Sampler: d.shadowSampler},
	)

	g, err := d.dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.name + " Textures",
		Layout:  p.textureLayout,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	p.textureGroups[key] = g
	return g, nil
}

// forget drops cached texture bind groups that reference h.
func (p *wgpuProgram) forget(h gpu.Handle) {
	for key, g := range p.textureGroups {
		for _, t := range key {
			if t == h {
				g.Release()
				delete(p.textureGroups, key)
				break
			}
		}
	}
}

func (p *wgpuProgram) release() {
	for key, g := range p.textureGroups {
		g.Release()
		delete(p.textureGroups, key)
	}
	for _, release := range []func(){
		releaser(p.uniformGroup), releaser(p.pipelineLayout),
		releaser(p.textureLayout), releaser(p.uniformLayout), releaser(p.module),
	} {
		release()
	}
}

// textureLayoutEntries describes group 1: one texture per declared slot plus the two samplers.
func textureLayoutEntries(textures []gpu.TextureDecl) []wgpu.BindGroupLayoutEntry {
	entries := make([]wgpu.BindGroupLayoutEntry, 0, len(textures)+2)
	for _, t := range textures {
		sample := wgpu.TextureSampleTypeFloat
		if t.Depth {
			sample = wgpu.TextureSampleTypeDepth
		}
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding:    uint32(t.Slot),
			Visibility: wgpu.ShaderStageFragment,
			Texture: wgpu.TextureBindingLayout{
				SampleType:    sample,
				ViewDimension: wgpu.TextureViewDimension2D,
			},
		})
	}
	return append(entries,
		wgpu.BindGroupLayoutEntry{
			Binding:    gpu.LinearSamplerBinding,
			Visibility: wgpu.ShaderStageFragment,
			Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
		},
		wgpu.BindGroupLayoutEntry{
			Binding:    gpu.ShadowSamplerBinding,
			Visibility: wgpu.ShaderStageFragment,
			Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeComparison},
		},
	)
}

// uniformStride rounds a uniform block size up to the dynamic offset alignment.
func uniformStride(size int) uint64 {
	return uint64((size + uniformAlignment - 1) / uniformAlignment * uniformAlignment)
}
