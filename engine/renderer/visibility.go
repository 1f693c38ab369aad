package renderer

import (
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/common"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/camera"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/light"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/batch"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/scene"
)

// planShadow picks the first active light that casts shadows and plans its view.
// The returned index is the light's slot in the encoded light array.
func (r *renderer) planShadow(sc scene.Scene, cam camera.Camera) (light.ShadowView, int, bool) {
	if !r.shadowEnabled {
		return light.ShadowView{}, -1, false
	}
	lights := sc.Lights()
	slot := 0
	for i := range lights {
		l := &lights[i]
		if !l.Active || l.Source == nil {
			continue
		}
		if slot == light.MaxLights {
			break
		}
		if l.CastsShadows {
			view, ok := r.planner.Plan(l, cam.FrustumCorners(r.planner.DirectionalDistance))
			return view, slot, ok
		}
		slot++
	}
	return light.ShadowView{}, -1, false
}

// collect culls every active entity, resolves its LOD against the camera distance and feeds the
// resulting mesh instances to the compiler. Camera-visible instances are drawn; instances inside
// the light frustum cast shadows whether or not the camera sees them.
func (r *renderer) collect(sc scene.Scene, cam camera.Camera, shadow light.ShadowView, hasShadow bool) {
	frustum := common.ExtractFrustum(cam.ViewProjection())
	var lightFrustum common.Frustum
	if hasShadow {
		lightFrustum = common.ExtractFrustum(shadow.LightSpace)
	}
	eye := cam.Position()

	entities := sc.Entities()
	for i := range entities {
		e := &entities[i]
		if !e.Active {
			continue
		}
		r.stats.EntitiesTotal++

		radius := e.BoundingRadius(r.radiusScale)
		distance := e.Position.Sub(eye).Len()
		_, meshes := e.SelectLOD(distance)
		model := e.ModelMatrix()

		if frustum.IsVisible(e.Position, radius) {
			r.stats.EntitiesRendered++
			for j, m := range meshes {
				if m == nil {
					continue
				}
				r.compiler.Add(batch.Instance{
					Mesh:        m,
					Model:       model,
					Distance:    distance,
					Cull:        e.EffectiveCull(j, m),
					LightVisual: e.LightVisual,
				})
			}
		} else {
			r.stats.EntitiesCulled++
		}

		if !hasShadow || e.LightVisual {
			continue
		}
		if !lightFrustum.IsVisible(e.Position, radius) {
			r.stats.ShadowCastersCulled++
			continue
		}
		for j, m := range meshes {
			if m == nil {
				continue
			}
			r.compiler.AddShadowCaster(batch.Instance{
				Mesh:     m,
				Model:    model,
				Distance: distance,
				Cull:     e.EffectiveCull(j, m),
			})
		}
	}
}
