package gpu

import (
	"fmt"
	"sync"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/common"
)

// Op identifies a recorded device call.
type Op uint8

const (
	OpBeginPass Op = iota
	OpEndPass
	OpUseProgram
	OpSetUniform
	OpBindTexture
	OpSetState
	OpBindMesh
	OpDraw
	OpUpdateBuffer
	OpPresent
)

// Command is one recorded device call together with the state that was current when it was issued.
type Command struct {
	Op      Op
	Pass    string
	Program Handle
	State   RenderState

	Uniform string
	Value   any

	Slot     int
	Texture  Handle
	Textures [MaxTextureSlots]Handle

	Vertex, Index, Instance Handle
	Buffer                  Handle
	Offset, Bytes           int

	IndexCount int
	Instances  int
	Instanced  bool
}

type recordedResource struct {
	bufferKind BufferKind
	data       []byte
	texture    common.TextureData
	resolution int
	program    ProgramSource
	uniforms   map[string]UniformLocation
}

// Recorder is a headless Device that keeps every resource in memory and records every call.
// It backs the headless backend and the renderer tests.
type Recorder struct {
	mu        *sync.Mutex
	resources *Registry[*recordedResource]
	commands  []Command

	// FailPrograms makes CreateProgram fail for the named programs.
	FailPrograms map[string]error
	// Discard drops recorded commands on every Present.
	Discard bool

	pass     string
	program  Handle
	state    RenderState
	textures [MaxTextureSlots]Handle
	vertex   Handle
	index    Handle
	instance Handle
	width    int
	height   int
	frames   int
}

var _ Device = &Recorder{}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		mu:           &sync.Mutex{},
		resources:    NewRegistry[*recordedResource](),
		FailPrograms: make(map[string]error),
	}
}

// Commands returns a copy of every recorded command.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Draws returns the recorded draw commands issued in the named pass.
// An empty pass name matches every pass.
func (r *Recorder) Draws(pass string) []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Command
	for _, c := range r.commands {
		if c.Op == OpDraw && (pass == "" || c.Pass == pass) {
			out = append(out, c)
		}
	}
	return out
}

// Reset discards recorded commands but keeps resources.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = r.commands[:0]
}

// BufferData returns a copy of the current contents of a buffer.
func (r *Recorder) BufferData(h Handle) []byte {
	res, ok := r.resources.Lookup(h, KindBuffer)
	if !ok {
		return nil
	}
	out := make([]byte, len(res.data))
	copy(out, res.data)
	return out
}

// Live returns the number of unreleased resources.
func (r *Recorder) Live() int {
	return r.resources.Len()
}

// Frames returns how many times Present was called.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func (r *Recorder) record(c Command) {
	c.Pass = r.pass
	c.Program = r.program
	c.State = r.state
	c.Textures = r.textures
	r.commands = append(r.commands, c)
}

func (r *Recorder) CreateBuffer(kind BufferKind, data []byte, size int) (Handle, error) {
	if size < len(data) {
		size = len(data)
	}
	if size <= 0 {
		return 0, fmt.Errorf("create buffer: size must be positive")
	}
	buf := make([]byte, size)
	copy(buf, data)
	return r.resources.Add(KindBuffer, &recordedResource{bufferKind: kind, data: buf}), nil
}

func (r *Recorder) UpdateBuffer(h Handle, offset int, data []byte) error {
	res, ok := r.resources.Lookup(h, KindBuffer)
	if !ok {
		return fmt.Errorf("update buffer %d: %w", h, ErrInvalidHandle)
	}
	if offset < 0 || offset+len(data) > len(res.data) {
		return fmt.Errorf("update buffer %d: range [%d, %d) exceeds size %d", h, offset, offset+len(data), len(res.data))
	}
	copy(res.data[offset:], data)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Command{Op: OpUpdateBuffer, Buffer: h, Offset: offset, Bytes: len(data)})
	return nil
}

func (r *Recorder) CreateTexture(img common.TextureData) (Handle, error) {
	if !img.Valid() {
		return 0, fmt.Errorf("create texture: %dx%d with %d bytes", img.Width, img.Height, len(img.Pixels))
	}
	return r.resources.Add(KindTexture, &recordedResource{texture: img}), nil
}

func (r *Recorder) CreateShadowMap(resolution int) (Handle, error) {
	if resolution <= 0 {
		return 0, fmt.Errorf("create shadow map: invalid resolution %d", resolution)
	}
	return r.resources.Add(KindShadowMap, &recordedResource{resolution: resolution}), nil
}

func (r *Recorder) CreateProgram(src ProgramSource) (Handle, error) {
	if err, ok := r.FailPrograms[src.Name]; ok {
		return 0, fmt.Errorf("link program %q: %w", src.Name, err)
	}
	res := &recordedResource{
		program:  src,
		uniforms: make(map[string]UniformLocation, len(src.Uniforms)),
	}
	for i, u := range src.Uniforms {
		res.uniforms[u.Name] = UniformLocation(i)
	}
	return r.resources.Add(KindProgram, res), nil
}

func (r *Recorder) UniformLocation(program Handle, name string) (UniformLocation, bool) {
	res, ok := r.resources.Lookup(program, KindProgram)
	if !ok {
		return -1, false
	}
	loc, ok := res.uniforms[name]
	if !ok {
		return -1, false
	}
	return loc, true
}

func (r *Recorder) UseProgram(program Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.program = program
	r.record(Command{Op: OpUseProgram})
}

func (r *Recorder) SetUniform(loc UniformLocation, value any) error {
	r.mu.Lock()
	program := r.program
	r.mu.Unlock()

	res, ok := r.resources.Lookup(program, KindProgram)
	if !ok {
		return ErrNoProgram
	}
	if loc < 0 || int(loc) >= len(res.program.Uniforms) {
		return fmt.Errorf("set uniform: location %d: %w", loc, ErrInvalidHandle)
	}
	decl := res.program.Uniforms[loc]
	if err := CheckUniformValue(decl, value); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Command{Op: OpSetUniform, Uniform: decl.Name, Value: value})
	return nil
}

func (r *Recorder) BindTexture(slot int, tex Handle) {
	if slot < 0 || slot >= MaxTextureSlots {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.textures[slot] = tex
	r.record(Command{Op: OpBindTexture, Slot: slot, Texture: tex})
}

func (r *Recorder) SetState(state RenderState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
	r.record(Command{Op: OpSetState})
}

func (r *Recorder) BeginPass(desc PassDescriptor) error {
	if !desc.Target.IsZero() {
		if _, ok := r.resources.Lookup(desc.Target, KindShadowMap); !ok {
			return fmt.Errorf("begin pass %q: %w", desc.Label, ErrInvalidHandle)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pass = desc.Label
	r.record(Command{Op: OpBeginPass})
	return nil
}

func (r *Recorder) EndPass() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Command{Op: OpEndPass})
	r.pass = ""
}

func (r *Recorder) BindMesh(vertex, index, instance Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vertex, r.index, r.instance = vertex, index, instance
	r.record(Command{Op: OpBindMesh, Vertex: vertex, Index: index, Instance: instance})
}

func (r *Recorder) DrawIndexed(indexCount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Command{
		Op: OpDraw, Vertex: r.vertex, Index: r.index,
		IndexCount: indexCount, Instances: 1,
	})
}

func (r *Recorder) DrawIndexedInstanced(indexCount, instanceCount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Command{
		Op: OpDraw, Vertex: r.vertex, Index: r.index, Instance: r.instance,
		IndexCount: indexCount, Instances: instanceCount, Instanced: true,
	})
}

func (r *Recorder) Valid(h Handle) bool {
	_, ok := r.resources.Get(h)
	return ok
}

func (r *Recorder) Release(h Handle) {
	r.resources.Remove(h)
}

func (r *Recorder) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width, r.height = width, height
}

func (r *Recorder) Present() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames++
	if r.Discard {
		r.commands = r.commands[:0]
		return nil
	}
	r.record(Command{Op: OpPresent})
	return nil
}

func (r *Recorder) Close() {
	r.resources.Drain(func(Handle, ResourceKind, *recordedResource) {})
}
