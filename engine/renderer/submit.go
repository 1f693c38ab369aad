package renderer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/common"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/camera"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/light"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/mesh"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/batch"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/material"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/shader"
)

// shadowPass renders the shadow casters into the shadow map from the light's point of view.
// Back-culled meshes are drawn front-culled to push acne onto back faces.
func (r *renderer) shadowPass(frame batch.Frame, shadow light.ShadowView) error {
	err := r.device.BeginPass(gpu.PassDescriptor{
		Label:      PassShadow,
		Target:     r.shadowMap,
		ClearDepth: true,
	})
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	defer r.device.EndPass()

	r.depth.Use()
	r.depth.SetUniform(shader.UViewProj, shadow.LightSpace)

	var bound material.Material
	for _, b := range frame.Shadow {
		if mat := b.Mesh.Material(); mat != bound {
			r.bindDepthMaterial(mat)
			bound = mat
		}
		cull := b.Cull
		if cull == gpu.CullBack {
			cull = gpu.CullFront
		}
		r.device.SetState(gpu.RenderState{
			Cull:       cull,
			DepthTest:  true,
			DepthFunc:  gpu.CompareLess,
			DepthWrite: true,
		})
		if r.draw(r.depth, b.Mesh, b.Transforms) {
			r.stats.ShadowDrawCalls++
		}
	}
	return nil
}

// prepass clears the framebuffer and lays down the depth of every opaque and masked batch.
func (r *renderer) prepass(frame batch.Frame, cam camera.Camera) error {
	err := r.device.BeginPass(gpu.PassDescriptor{
		Label:             PassPrepass,
		ClearColor:        r.clearColor,
		ClearColorEnabled: true,
		ClearDepth:        true,
	})
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	defer r.device.EndPass()

	r.depth.Use()
	r.depth.SetUniform(shader.UViewProj, cam.ViewProjection())

	for _, mb := range frame.Opaque {
		r.bindDepthMaterial(mb.Material)
		for _, b := range mb.Meshes {
			r.device.SetState(gpu.RenderState{
				Cull:       b.Cull,
				DepthTest:  true,
				DepthFunc:  gpu.CompareLess,
				DepthWrite: true,
			})
			if r.draw(r.depth, b.Mesh, b.Transforms) {
				r.stats.DepthPrepassDrawCalls++
			}
		}
	}
	return nil
}

// colorPass shades the opaque batches against the pre-pass depth, then draws light visuals unlit
// and finally the blended draws back to front.
func (r *renderer) colorPass(frame batch.Frame, cam camera.Camera, shadow light.ShadowView, shadowIndex int, hasShadow bool, lightCount int) error {
	if err := r.device.BeginPass(gpu.PassDescriptor{Label: PassColor}); err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	defer r.device.EndPass()

	viewProj := cam.ViewProjection()
	r.lit.Use()
	r.lit.SetUniform(shader.UViewProj, viewProj)
	r.lit.SetUniform(shader.UCameraPos, cam.Position())
	r.lit.SetUniform(shader.ULightSpace, shadow.LightSpace)
	r.lit.SetUniform(shader.UShadowEnabled, hasShadow)
	r.lit.SetUniform(shader.UShadowLight, int32(max(shadowIndex, 0)))
	r.lit.SetUniform(shader.ULightCount, int32(lightCount))
	r.lit.SetUniform(shader.ULights, r.lights)
	r.device.BindTexture(gpu.SlotShadow, r.shadowMap)

	for _, mb := range frame.Opaque {
		r.bindMaterial(mb.Material)
		for _, b := range mb.Meshes {
			r.device.SetState(gpu.RenderState{
				Cull:       b.Cull,
				DepthTest:  true,
				DepthFunc:  gpu.CompareEqual,
				ColorWrite: true,
			})
			r.drawColor(r.lit, b.Mesh, b.Transforms)
		}
	}

	if len(frame.Visuals) > 0 {
		r.unlit.Use()
		r.unlit.SetUniform(shader.UViewProj, viewProj)
		for _, b := range frame.Visuals {
			mat := b.Mesh.Material()
			r.unlit.SetUniform(shader.UColor, common.Coalesce(mat.Emissive(), mat.BaseColor().Vec3()).Vec4(1))
			r.device.SetState(gpu.RenderState{
				Cull:       b.Cull,
				DepthTest:  true,
				DepthFunc:  gpu.CompareLess,
				DepthWrite: true,
				ColorWrite: true,
			})
			r.drawColor(r.unlit, b.Mesh, b.Transforms)
		}
	}

	if len(frame.Blend) > 0 {
		r.lit.Use()
		var bound material.Material
		for _, d := range frame.Blend {
			if mat := d.Mesh.Material(); mat != bound {
				r.bindMaterial(mat)
				bound = mat
			}
			r.device.SetState(gpu.RenderState{
				Cull:       d.Cull,
				DepthTest:  true,
				DepthFunc:  gpu.CompareLess,
				ColorWrite: true,
				Blend:      true,
			})
			r.drawColor(r.lit, d.Mesh, []mgl32.Mat4{d.Model})
		}
	}
	return nil
}

// bindMaterial binds a material's maps and scalars for the lit program.
func (r *renderer) bindMaterial(m material.Material) {
	r.stats.MaterialChanges++
	r.device.BindTexture(gpu.SlotAlbedo, r.texture(m.AlbedoMap()))
	r.device.BindTexture(gpu.SlotNormal, r.texture(m.NormalMap()))
	r.device.BindTexture(gpu.SlotORM, r.texture(m.ORMMap()))
	r.device.BindTexture(gpu.SlotEmissive, r.texture(m.EmissiveMap()))

	r.lit.SetUniform(shader.UBaseColor, m.BaseColor())
	r.lit.SetUniform(shader.UMetallic, m.Metallic())
	r.lit.SetUniform(shader.URoughness, m.Roughness())
	r.lit.SetUniform(shader.UAO, m.AmbientOcclusion())
	r.lit.SetUniform(shader.UEmissive, m.Emissive())
	r.lit.SetUniform(shader.UHeightScale, m.HeightScale())
	r.lit.SetUniform(shader.UAlphaMode, int32(m.AlphaMode()))
	r.lit.SetUniform(shader.UAlphaCutoff, m.AlphaCutoff())
	r.lit.SetUniform(shader.UHasNormalMap, !m.NormalMap().IsZero())
}

// bindDepthMaterial binds what the depth program needs for the alpha test.
func (r *renderer) bindDepthMaterial(m material.Material) {
	r.device.BindTexture(gpu.SlotAlbedo, r.texture(m.AlbedoMap()))
	r.depth.SetUniform(shader.UBaseColor, m.BaseColor())
	r.depth.SetUniform(shader.UAlphaMode, int32(m.AlphaMode()))
	r.depth.SetUniform(shader.UAlphaCutoff, m.AlphaCutoff())
}

// texture substitutes the white texture for unset or released maps.
func (r *renderer) texture(h gpu.Handle) gpu.Handle {
	if h.IsZero() || !r.device.Valid(h) {
		return r.white
	}
	return h
}

// drawColor draws in the color pass and updates the color-pass counters.
func (r *renderer) drawColor(prog shader.Program, m mesh.Mesh, transforms []mgl32.Mat4) {
	if !r.draw(prog, m, transforms) {
		return
	}
	n := len(transforms)
	r.stats.DrawCalls++
	if n > 1 {
		r.stats.InstancedDrawCalls++
	}
	r.stats.InstancesRendered += n
	r.stats.TrianglesRendered += m.TriangleCount() * n
}

// draw issues one draw for transforms: a single draw with the model uniform for one transform,
// otherwise an instanced draw reading the transforms from the mesh's instance buffer.
//
// Returns false when the mesh has no triangles, its buffers are gone or the upload fails.
func (r *renderer) draw(prog shader.Program, m mesh.Mesh, transforms []mgl32.Mat4) bool {
	if len(transforms) == 0 {
		return false
	}
	if m.TriangleCount() == 0 || !m.Valid(r.device) {
		r.warnMesh(m, "mesh skipped: no triangles or released buffers", nil)
		return false
	}

	if len(transforms) == 1 {
		prog.SetUniform(shader.UInstanced, false)
		prog.SetUniform(shader.UModel, transforms[0])
		r.device.BindMesh(m.VertexBuffer(), m.IndexBuffer(), 0)
		r.device.DrawIndexed(m.IndexCount())
		return true
	}

	if err := r.device.UpdateBuffer(m.InstanceBuffer(), 0, common.SliceToBytes(transforms)); err != nil {
		r.warnMesh(m, "instance upload failed", err)
		return false
	}
	prog.SetUniform(shader.UInstanced, true)
	r.device.BindMesh(m.VertexBuffer(), m.IndexBuffer(), m.InstanceBuffer())
	r.device.DrawIndexedInstanced(m.IndexCount(), len(transforms))
	return true
}

// warnMesh logs a mesh problem once per mesh.
func (r *renderer) warnMesh(m mesh.Mesh, msg string, err error) {
	if r.warned.Contains(m) {
		return
	}
	r.warned.Add(m)
	fields := []zap.Field{zap.String("mesh", m.Name())}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	r.logger.Warn(msg, fields...)
}
