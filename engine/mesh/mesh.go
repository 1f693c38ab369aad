package mesh

import (
	"errors"
	"fmt"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/common"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/material"
)

// DefaultMaxInstances is the instance capacity of a mesh when none is configured.
const DefaultMaxInstances = 1000

// FloatsPerVertex is the number of float32 values in one interleaved vertex.
const FloatsPerVertex = gpu.VertexStride / 4

var (
	// ErrEmptyMesh is returned when mesh data has no vertices or no indices.
	ErrEmptyMesh = errors.New("mesh data is empty")
	// ErrVertexLayout is returned when vertex data is not a multiple of the vertex stride.
	ErrVertexLayout = errors.New("vertex data does not match the vertex layout")
)

// Data is CPU-side mesh geometry.
type Data struct {
	// Vertices holds interleaved position(3) normal(3) uv(2) values.
	Vertices []float32
	// Indices holds triangle list indices into Vertices.
	Indices []uint32
}

// VertexCount returns the number of vertices in the data.
func (d Data) VertexCount() int {
	return len(d.Vertices) / FloatsPerVertex
}

// mesh is the implementation of the Mesh interface.
type mesh struct {
	name         string
	vertex       gpu.Handle
	index        gpu.Handle
	instance     gpu.Handle
	indexCount   int
	material     material.Material
	cullMode     gpu.CullMode
	maxInstances int
	released     bool
}

// Mesh defines the interface for a GPU-resident triangle mesh with a single material.
// A Mesh may be shared read-only by many entities; its per-mesh instance buffer holds the
// model matrices of one instanced batch and is overwritten every frame.
type Mesh interface {
	// Name retrieves the mesh identifier.
	//
	// Returns:
	//   - string: the mesh name
	Name() string

	// VertexBuffer retrieves the interleaved vertex buffer handle.
	//
	// Returns:
	//   - gpu.Handle: the vertex buffer
	VertexBuffer() gpu.Handle

	// IndexBuffer retrieves the index buffer handle.
	//
	// Returns:
	//   - gpu.Handle: the index buffer
	IndexBuffer() gpu.Handle

	// InstanceBuffer retrieves the per-mesh instance buffer handle.
	// The buffer holds MaxInstances model matrices.
	//
	// Returns:
	//   - gpu.Handle: the instance buffer
	InstanceBuffer() gpu.Handle

	// IndexCount returns the number of indices drawn per instance.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// TriangleCount returns the number of triangles drawn per instance.
	//
	// Returns:
	//   - int: the triangle count
	TriangleCount() int

	// Material retrieves the material the mesh is drawn with.
	//
	// Returns:
	//   - material.Material: the mesh material
	Material() material.Material

	// CullMode retrieves the face culling mode of the mesh.
	//
	// Returns:
	//   - gpu.CullMode: none, back or front
	CullMode() gpu.CullMode

	// MaxInstances returns the largest instance count one instanced draw may use.
	//
	// Returns:
	//   - int: the instance capacity
	MaxInstances() int

	// Valid reports whether the mesh can be drawn: it has triangles and all of its buffers are
	// live on the device.
	//
	// Parameters:
	//   - device: the device owning the buffers
	//
	// Returns:
	//   - bool: true if the mesh is drawable
	Valid(device gpu.Device) bool

	// Release frees the mesh buffers. Calling Release more than once is a no-op.
	// The material is not released; materials may be shared between meshes.
	//
	// Parameters:
	//   - device: the device owning the buffers
	Release(device gpu.Device)
}

var _ Mesh = &mesh{}

// New uploads data to the device and returns the resulting Mesh.
// The instance buffer is allocated once with room for MaxInstances model matrices.
//
// Parameters:
//   - device: the GPU device
//   - data: the mesh geometry
//   - options: functional options (name, material, cull mode, instance capacity)
//
// Returns:
//   - Mesh: the uploaded mesh
//   - error: ErrEmptyMesh, ErrVertexLayout or a wrapped device error
func New(device gpu.Device, data Data, options ...MeshBuilderOption) (Mesh, error) {
	m := &mesh{
		cullMode:     gpu.CullBack,
		maxInstances: DefaultMaxInstances,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.material == nil {
		m.material = material.NewMaterial(material.WithName(m.name))
	}

	if len(data.Vertices) == 0 || len(data.Indices) == 0 {
		return nil, fmt.Errorf("mesh %q: %w", m.name, ErrEmptyMesh)
	}
	if len(data.Vertices)%FloatsPerVertex != 0 {
		return nil, fmt.Errorf("mesh %q: %d floats: %w", m.name, len(data.Vertices), ErrVertexLayout)
	}

	vb := common.SliceToBytes(data.Vertices)
	vertex, err := device.CreateBuffer(gpu.BufferVertex, vb, len(vb))
	if err != nil {
		return nil, fmt.Errorf("mesh %q: vertex buffer: %w", m.name, err)
	}
	ib := common.SliceToBytes(data.Indices)
	index, err := device.CreateBuffer(gpu.BufferIndex, ib, len(ib))
	if err != nil {
		device.Release(vertex)
		return nil, fmt.Errorf("mesh %q: index buffer: %w", m.name, err)
	}
	instance, err := device.CreateBuffer(gpu.BufferInstance, nil, m.maxInstances*gpu.InstanceStride)
	if err != nil {
		device.Release(vertex)
		device.Release(index)
		return nil, fmt.Errorf("mesh %q: instance buffer: %w", m.name, err)
	}

	m.vertex = vertex
	m.index = index
	m.instance = instance
	m.indexCount = len(data.Indices)
	return m, nil
}

func (m *mesh) Name() string {
	return m.name
}

func (m *mesh) VertexBuffer() gpu.Handle {
	return m.vertex
}

func (m *mesh) IndexBuffer() gpu.Handle {
	return m.index
}

func (m *mesh) InstanceBuffer() gpu.Handle {
	return m.instance
}

func (m *mesh) IndexCount() int {
	return m.indexCount
}

func (m *mesh) TriangleCount() int {
	return m.indexCount / 3
}

func (m *mesh) Material() material.Material {
	return m.material
}

func (m *mesh) CullMode() gpu.CullMode {
	return m.cullMode
}

func (m *mesh) MaxInstances() int {
	return m.maxInstances
}

func (m *mesh) Valid(device gpu.Device) bool {
	if m.released || m.TriangleCount() == 0 {
		return false
	}
	return device.Valid(m.vertex) && device.Valid(m.index) && device.Valid(m.instance)
}

func (m *mesh) Release(device gpu.Device) {
	if m.released {
		return
	}
	m.released = true
	device.Release(m.vertex)
	device.Release(m.index)
	device.Release(m.instance)
	m.vertex, m.index, m.instance = 0, 0, 0
}
