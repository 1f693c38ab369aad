package gl_backend

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/common"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
)

func (d *device) CreateBuffer(kind gpu.BufferKind, data []byte, size int) (gpu.Handle, error) {
	size = max(size, len(data))
	if size <= 0 {
		return 0, fmt.Errorf("create buffer: size must be positive")
	}

	target, usage := uint32(gl.ARRAY_BUFFER), uint32(gl.STATIC_DRAW)
	switch kind {
	case gpu.BufferIndex:
		target = gl.ELEMENT_ARRAY_BUFFER
	case gpu.BufferInstance:
		usage = gl.DYNAMIC_DRAW
	}

	var id uint32
	gl.GenBuffers(1, &id)
	gl.BindBuffer(target, id)
	gl.BufferData(target, size, nil, usage)
	if len(data) > 0 {
		gl.BufferSubData(target, 0, len(data), gl.Ptr(data))
	}
	gl.BindBuffer(target, 0)

	return d.resources.Add(gpu.KindBuffer, &glResource{
		id:     id,
		kind:   gpu.KindBuffer,
		target: target,
		size:   size,
	}), nil
}

func (d *device) UpdateBuffer(h gpu.Handle, offset int, data []byte) error {
	res, ok := d.resources.Lookup(h, gpu.KindBuffer)
	if !ok {
		return fmt.Errorf("update buffer %d: %w", h, gpu.ErrInvalidHandle)
	}
	if offset < 0 || offset+len(data) > res.size {
		return fmt.Errorf("update buffer %d: range [%d, %d) exceeds size %d", h, offset, offset+len(data), res.size)
	}
	if len(data) == 0 {
		return nil
	}
	// Instance buffers are written between draws; a copy binding avoids disturbing the VAO.
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, res.id)
	gl.BufferSubData(gl.COPY_WRITE_BUFFER, offset, len(data), gl.Ptr(data))
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)
	return nil
}

func (d *device) CreateTexture(img common.TextureData) (gpu.Handle, error) {
	if !img.Valid() {
		return 0, fmt.Errorf("create texture: %dx%d with %d bytes", img.Width, img.Height, len(img.Pixels))
	}
	internal := int32(gl.SRGB8_ALPHA8)
	if img.Linear {
		internal = gl.RGBA8
	}

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(img.Width), int32(img.Height), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pixels))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return d.resources.Add(gpu.KindTexture, &glResource{id: id, kind: gpu.KindTexture}), nil
}

func (d *device) CreateShadowMap(resolution int) (gpu.Handle, error) {
	if resolution <= 0 {
		return 0, fmt.Errorf("create shadow map: invalid resolution %d", resolution)
	}
	res := &glResource{kind: gpu.KindShadowMap, resolution: int32(resolution)}

	gl.GenTextures(1, &res.id)
	gl.BindTexture(gl.TEXTURE_2D, res.id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, res.resolution, res.resolution, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
	border := [4]float32{1, 1, 1, 1}
	gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &border[0])
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_FUNC, gl.LEQUAL)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	gl.GenFramebuffers(1, &res.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, res.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, res.id, 0)
	gl.DrawBuffer(gl.NONE)
	gl.ReadBuffer(gl.NONE)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		d.free(res)
		return 0, fmt.Errorf("create shadow map: framebuffer status 0x%x", status)
	}
	return d.resources.Add(gpu.KindShadowMap, res), nil
}

func (d *device) CreateProgram(src gpu.ProgramSource) (gpu.Handle, error) {
	vs, err := compileShader(src.Vertex, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("program %q: vertex shader: %w", src.Name, err)
	}
	defer gl.DeleteShader(vs)
	fs, err := compileShader(src.Fragment, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("program %q: fragment shader: %w", src.Name, err)
	}
	defer gl.DeleteShader(fs)

	id := gl.CreateProgram()
	gl.AttachShader(id, vs)
	gl.AttachShader(id, fs)
	gl.LinkProgram(id)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(id, logLength, nil, gl.Str(log))
		gl.DeleteProgram(id)
		return 0, fmt.Errorf("program %q: link failed: %s", src.Name, strings.TrimRight(log, "\x00"))
	}

	res := &glResource{
		id:    id,
		kind:  gpu.KindProgram,
		decls: make(map[gpu.UniformLocation]gpu.UniformDecl, len(src.Uniforms)),
		names: make(map[string]gpu.UniformLocation, len(src.Uniforms)),
	}
	for _, u := range src.Uniforms {
		loc := gl.GetUniformLocation(id, gl.Str(u.Name+"\x00"))
		if loc < 0 {
			// Declared but optimized out by the driver.
			continue
		}
		res.decls[gpu.UniformLocation(loc)] = u
		res.names[u.Name] = gpu.UniformLocation(loc)
	}

	// Sampler uniforms read fixed texture units.
	gl.UseProgram(id)
	for _, t := range src.Textures {
		if loc := gl.GetUniformLocation(id, gl.Str(t.Name+"\x00")); loc >= 0 {
			gl.Uniform1i(loc, int32(t.Slot))
		}
	}
	if d.program != nil {
		gl.UseProgram(d.program.id)
	} else {
		gl.UseProgram(0)
	}

	return d.resources.Add(gpu.KindProgram, res), nil
}

func (d *device) UniformLocation(program gpu.Handle, name string) (gpu.UniformLocation, bool) {
	res, ok := d.resources.Lookup(program, gpu.KindProgram)
	if !ok {
		return -1, false
	}
	loc, ok := res.names[name]
	if !ok {
		return -1, false
	}
	return loc, true
}

func (d *device) UseProgram(program gpu.Handle) {
	res, ok := d.resources.Lookup(program, gpu.KindProgram)
	if !ok {
		d.program = nil
		gl.UseProgram(0)
		return
	}
	d.program = res
	gl.UseProgram(res.id)
}

func (d *device) SetUniform(loc gpu.UniformLocation, value any) error {
	if d.program == nil {
		return gpu.ErrNoProgram
	}
	decl, ok := d.program.decls[loc]
	if !ok {
		return fmt.Errorf("set uniform: location %d: %w", loc, gpu.ErrInvalidHandle)
	}
	if err := gpu.CheckUniformValue(decl, value); err != nil {
		return err
	}

	l := int32(loc)
	switch v := value.(type) {
	case float32:
		gl.Uniform1f(l, v)
	case int32:
		gl.Uniform1i(l, v)
	case bool:
		var i int32
		if v {
			i = 1
		}
		gl.Uniform1i(l, i)
	case mgl32.Vec3:
		gl.Uniform3f(l, v[0], v[1], v[2])
	case mgl32.Vec4:
		gl.Uniform4f(l, v[0], v[1], v[2], v[3])
	case mgl32.Mat4:
		gl.UniformMatrix4fv(l, 1, false, &v[0])
	case []mgl32.Vec4:
		if len(v) > 0 {
			gl.Uniform4fv(l, int32(len(v)), &v[0][0])
		}
	}
	return nil
}

func (d *device) BindTexture(slot int, tex gpu.Handle) {
	if slot < 0 || slot >= gpu.MaxTextureSlots {
		return
	}
	var id uint32
	if kind, ok := d.resources.Kind(tex); ok && (kind == gpu.KindTexture || kind == gpu.KindShadowMap) {
		res, _ := d.resources.Get(tex)
		id = res.id
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(slot))
	gl.BindTexture(gl.TEXTURE_2D, id)
}

// compileShader compiles one stage and returns the driver's info log on failure.
func compileShader(source string, stage uint32) (uint32, error) {
	shader := gl.CreateShader(stage)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %s", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}
