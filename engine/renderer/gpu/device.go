// Package gpu defines the GPU resource layer consumed by the renderer: opaque resource handles,
// render state, program sources and the Device interface implemented by every backend.
package gpu

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/common"
)

var (
	// ErrInvalidHandle is returned when a handle is zero, released, or of the wrong kind.
	ErrInvalidHandle = errors.New("invalid gpu handle")
	// ErrUniformType is returned when a uniform value does not match its declared type.
	ErrUniformType = errors.New("uniform value type mismatch")
	// ErrNoProgram is returned when a uniform is set without a bound program.
	ErrNoProgram = errors.New("no program in use")
)

// Handle is an opaque reference to a GPU resource owned by a Device.
// The zero value never refers to a live resource.
type Handle uint32

// IsZero reports whether the handle is unset.
func (h Handle) IsZero() bool {
	return h == 0
}

// ResourceKind classifies the resource behind a Handle.
type ResourceKind uint8

const (
	KindBuffer ResourceKind = iota + 1
	KindTexture
	KindShadowMap
	KindProgram
)

// BufferKind selects the binding role of a buffer.
type BufferKind uint8

const (
	BufferVertex BufferKind = iota
	BufferIndex
	BufferInstance
)

// CullMode selects which triangle faces are discarded during rasterization.
type CullMode uint8

const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

// String returns the lower-case name of the cull mode.
func (c CullMode) String() string {
	switch c {
	case CullBack:
		return "back"
	case CullFront:
		return "front"
	default:
		return "none"
	}
}

// CompareFunc selects the depth comparison.
type CompareFunc uint8

const (
	CompareLess CompareFunc = iota
	CompareLessEqual
	CompareEqual
	CompareAlways
)

// Texture slots shared by every program.
const (
	SlotAlbedo = iota
	SlotNormal
	SlotORM
	SlotEmissive
	SlotShadow

	MaxTextureSlots
)

// Sampler bindings of the texture bind group used by WGSL programs. Texture slots bind at their slot index.
const (
	LinearSamplerBinding = MaxTextureSlots
	ShadowSamplerBinding = MaxTextureSlots + 1
)

// InstanceStride is the byte size of one per-instance model matrix.
const InstanceStride = 64

// VertexStride is the byte size of one interleaved vertex: position(3) normal(3) uv(2).
const VertexStride = 32

// RenderState is the fixed-function state applied to subsequent draws.
type RenderState struct {
	Cull       CullMode
	DepthTest  bool
	DepthFunc  CompareFunc
	DepthWrite bool
	ColorWrite bool
	Blend      bool
}

// PassDescriptor describes a render pass target and its clear behavior.
type PassDescriptor struct {
	// Label names the pass for debugging and recording.
	Label string
	// Target is a shadow map handle, or zero for the default framebuffer.
	Target Handle
	// ClearColor is used when ClearColorEnabled is true.
	ClearColor        mgl32.Vec4
	ClearColorEnabled bool
	// ClearDepth clears the depth attachment to 1.0.
	ClearDepth bool
}

// TextureDecl names a sampler uniform and the slot it reads.
type TextureDecl struct {
	Name  string
	Slot  int
	Depth bool
}

// ProgramSource holds everything a backend needs to build a program.
type ProgramSource struct {
	Name string
	// GLSL vertex and fragment stages for the OpenGL backend.
	Vertex   string
	Fragment string
	// WGSL module with vs_main/fs_main entry points for the WebGPU backend.
	WGSL string
	// Uniforms declares the uniform block in declaration order.
	Uniforms []UniformDecl
	Textures []TextureDecl
}

// UniformLocation is a backend-specific uniform slot; negative values are invalid.
type UniformLocation int32

// Device is the GPU resource layer. All methods must be called from the thread owning the GPU context.
type Device interface {
	// CreateBuffer allocates a buffer of size bytes and optionally fills it with data.
	//
	// Parameters:
	//   - kind: the binding role of the buffer
	//   - data: initial contents, may be nil
	//   - size: total size in bytes, at least len(data)
	//
	// Returns:
	//   - Handle: the new buffer
	//   - error: error if allocation fails
	CreateBuffer(kind BufferKind, data []byte, size int) (Handle, error)

	// UpdateBuffer overwrites part of an existing buffer without reallocating it.
	//
	// Parameters:
	//   - h: the buffer handle
	//   - offset: byte offset into the buffer
	//   - data: bytes to write
	//
	// Returns:
	//   - error: ErrInvalidHandle or a range error
	UpdateBuffer(h Handle, offset int, data []byte) error

	// CreateTexture uploads an RGBA8 texture with repeat addressing and linear filtering.
	CreateTexture(img common.TextureData) (Handle, error)

	// CreateShadowMap allocates a depth-only render target sampled with depth comparison
	// and border clamping (outside texels compare as lit).
	CreateShadowMap(resolution int) (Handle, error)

	// CreateProgram compiles and links a program.
	//
	// Parameters:
	//   - src: the program source
	//
	// Returns:
	//   - Handle: the program handle
	//   - error: the compile or link log wrapped in an error
	CreateProgram(src ProgramSource) (Handle, error)

	// UniformLocation looks up a uniform by name in a program.
	//
	// Returns:
	//   - UniformLocation: the location
	//   - bool: false if the program does not declare the uniform
	UniformLocation(program Handle, name string) (UniformLocation, bool)

	// UseProgram binds the program for subsequent uniform updates and draws.
	UseProgram(program Handle)

	// SetUniform writes a value to a location of the program in use.
	// Supported values: float32, int32, bool, mgl32.Vec3, mgl32.Vec4, mgl32.Mat4 and []mgl32.Vec4.
	SetUniform(loc UniformLocation, value any) error

	// BindTexture binds a texture or shadow map to a numbered slot.
	BindTexture(slot int, tex Handle)

	// SetState applies fixed-function state to subsequent draws.
	SetState(state RenderState)

	// BeginPass starts a render pass.
	BeginPass(desc PassDescriptor) error

	// EndPass finishes the current render pass.
	EndPass()

	// BindMesh binds the vertex, index and instance buffers for subsequent draws.
	// The instance buffer may be zero for non-instanced draws.
	BindMesh(vertex, index, instance Handle)

	// DrawIndexed draws indexCount indices with the current model uniform.
	DrawIndexed(indexCount int)

	// DrawIndexedInstanced draws instanceCount instances reading model matrices from the instance buffer.
	DrawIndexedInstanced(indexCount, instanceCount int)

	// Valid reports whether h refers to a live resource.
	Valid(h Handle) bool

	// Release frees the resource behind h. Releasing a zero or already released handle is a no-op.
	Release(h Handle)

	// Resize updates the default framebuffer size.
	Resize(width, height int)

	// Present displays the finished frame.
	Present() error

	// Close releases every remaining resource.
	Close()
}
