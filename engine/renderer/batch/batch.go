// Package batch groups the visible mesh instances of a frame into draw batches.
//
// Opaque and masked instances are grouped by material, then by mesh and cull mode, so each group
// becomes one instanced draw. Blended instances stay individual and are sorted back to front.
// Groups keep first-insertion order, which makes the submitted frame deterministic.
package batch

import (
	"slices"

	set "github.com/ErikKalkoken/go-set"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/mesh"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/material"
)

// Instance is one visible, LOD-resolved mesh placement.
type Instance struct {
	Mesh  mesh.Mesh
	Model mgl32.Mat4
	// Distance is the camera-to-entity distance, used to order blended draws.
	Distance float32
	// Cull is the effective cull mode of the mesh in its entity.
	Cull gpu.CullMode
	// LightVisual routes the instance to the unlit visual list.
	LightVisual bool
}

// MeshBatch holds the transforms of every instance of one mesh drawn with one cull mode.
type MeshBatch struct {
	Mesh       mesh.Mesh
	Cull       gpu.CullMode
	Transforms []mgl32.Mat4
}

// MaterialBatch groups the mesh batches sharing a batching key with Material.
type MaterialBatch struct {
	Material material.Material
	Meshes   []MeshBatch
}

// BlendDraw is a single blended draw.
type BlendDraw struct {
	Distance float32
	Mesh     mesh.Mesh
	Cull     gpu.CullMode
	Model    mgl32.Mat4
}

// Frame is the compiled draw list of one frame.
type Frame struct {
	// Opaque holds opaque and masked batches for the depth pre-pass and the color pass.
	Opaque []MaterialBatch
	// Blend holds blended draws sorted by decreasing distance.
	Blend []BlendDraw
	// Visuals holds light-visual batches drawn unlit.
	Visuals []MeshBatch
	// Shadow holds shadow-caster batches.
	Shadow []MeshBatch
	// Skipped lists batches dropped because their count was zero or above the mesh capacity.
	Skipped []MeshBatch
}

// Instances returns the total number of opaque instances in the frame.
func (f *Frame) Instances() int {
	n := 0
	for _, mb := range f.Opaque {
		for _, b := range mb.Meshes {
			n += len(b.Transforms)
		}
	}
	return n
}

type compiler struct {
	logger  *zap.Logger
	epsilon float32
	warned  set.Set[mesh.Mesh]

	opaque  []MaterialBatch
	blend   []BlendDraw
	visuals []MeshBatch
	shadow  []MeshBatch
}

// Compiler collects the instances of one frame and compiles them into a Frame.
// A Compiler is reused across frames; Reset starts a new frame.
type Compiler interface {
	// Reset discards the instances of the previous frame.
	Reset()

	// Add classifies a visible instance by its material's alpha mode.
	// Light visuals go to the visual list, blended materials to the blend list and everything
	// else to the material batches.
	//
	// Parameters:
	//   - inst: the instance
	Add(inst Instance)

	// AddShadowCaster records an instance for the shadow pass.
	// Light visuals and blended materials are ignored.
	//
	// Parameters:
	//   - inst: the instance, already culled against the light frustum
	AddShadowCaster(inst Instance)

	// Compile sorts the blend list back to front and drops batches whose instance count is zero or
	// exceeds the mesh's MaxInstances. Dropped batches are reported in Frame.Skipped and logged
	// once per mesh.
	//
	// Returns:
	//   - Frame: the compiled frame
	Compile() Frame
}

var _ Compiler = &compiler{}

// NewCompiler creates a Compiler.
//
// Parameters:
//   - options: functional options (epsilon, logger)
//
// Returns:
//   - Compiler: the compiler
func NewCompiler(options ...CompilerBuilderOption) Compiler {
	c := &compiler{
		logger:  zap.NewNop(),
		epsilon: material.DefaultBatchEpsilon,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *compiler) Reset() {
	c.opaque = nil
	c.blend = nil
	c.visuals = nil
	c.shadow = nil
}

func (c *compiler) Add(inst Instance) {
	if inst.Mesh == nil {
		return
	}
	if inst.LightVisual {
		c.visuals = appendMesh(c.visuals, inst)
		return
	}

	mat := inst.Mesh.Material()
	if mat.AlphaMode() == material.AlphaBlend {
		c.blend = append(c.blend, BlendDraw{
			Distance: inst.Distance,
			Mesh:     inst.Mesh,
			Cull:     inst.Cull,
			Model:    inst.Model,
		})
		return
	}

	for i := range c.opaque {
		if c.opaque[i].Material.SameBatch(mat, c.epsilon) {
			c.opaque[i].Meshes = appendMesh(c.opaque[i].Meshes, inst)
			return
		}
	}
	c.opaque = append(c.opaque, MaterialBatch{
		Material: mat,
		Meshes:   appendMesh(nil, inst),
	})
}

func (c *compiler) AddShadowCaster(inst Instance) {
	if inst.Mesh == nil || inst.LightVisual || inst.Mesh.Material().AlphaMode() == material.AlphaBlend {
		return
	}
	c.shadow = appendMesh(c.shadow, inst)
}

func (c *compiler) Compile() Frame {
	f := Frame{
		Blend: c.blend,
	}
	slices.SortStableFunc(f.Blend, func(a, b BlendDraw) int {
		switch {
		case a.Distance > b.Distance:
			return -1
		case a.Distance < b.Distance:
			return 1
		}
		return 0
	})

	for _, mb := range c.opaque {
		kept := c.filter(mb.Meshes, &f.Skipped)
		if len(kept) > 0 {
			f.Opaque = append(f.Opaque, MaterialBatch{Material: mb.Material, Meshes: kept})
		}
	}
	f.Visuals = c.filter(c.visuals, &f.Skipped)
	f.Shadow = c.filter(c.shadow, &f.Skipped)
	return f
}

// filter keeps the batches a single instanced draw can cover.
func (c *compiler) filter(batches []MeshBatch, skipped *[]MeshBatch) []MeshBatch {
	var kept []MeshBatch
	for _, b := range batches {
		n := len(b.Transforms)
		if n > 0 && n <= b.Mesh.MaxInstances() {
			kept = append(kept, b)
			continue
		}
		*skipped = append(*skipped, b)
		if !c.warned.Contains(b.Mesh) {
			c.warned.Add(b.Mesh)
			c.logger.Warn("batch skipped: instance count exceeds mesh capacity",
				zap.String("mesh", b.Mesh.Name()),
				zap.Int("instances", n),
				zap.Int("max_instances", b.Mesh.MaxInstances()),
			)
		}
	}
	return kept
}

// appendMesh adds inst to the batch of its mesh and cull mode, creating the batch on first use.
func appendMesh(batches []MeshBatch, inst Instance) []MeshBatch {
	for i := range batches {
		if batches[i].Mesh == inst.Mesh && batches[i].Cull == inst.Cull {
			batches[i].Transforms = append(batches[i].Transforms, inst.Model)
			return batches
		}
	}
	return append(batches, MeshBatch{
		Mesh:       inst.Mesh,
		Cull:       inst.Cull,
		Transforms: []mgl32.Mat4{inst.Model},
	})
}
