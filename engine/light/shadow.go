package light

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/common"
)

// Shadow planning defaults.
const (
	// DefaultShadowResolution is the width and height in texels of the shadow map.
	DefaultShadowResolution = 2048

	// DefaultDirectionalDistance is the shortened camera far plane used to bound the
	// directional shadow frustum.
	DefaultDirectionalDistance float32 = 50

	DefaultSpotNear float32 = 0.5
	DefaultSpotFar  float32 = 100

	// DefaultPointFov is the vertical field of view in degrees of the single point-light face.
	DefaultPointFov float32 = 90
)

// extentSteps quantizes the directional half-extent to 1/16 world unit.
const extentSteps = 16

// ShadowView is the light-space camera of the shadow pass.
type ShadowView struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	// LightSpace is Projection * View; it is used by the shadow pass and for shadow lookups.
	LightSpace mgl32.Mat4
}

// Planner computes the light-space view of the shadow-casting light.
// Output uses OpenGL clip conventions (depth in [-1, 1]).
type Planner struct {
	Resolution          int
	DirectionalDistance float32
	SpotNear            float32
	SpotFar             float32
	PointFov            float32
}

// DefaultPlanner returns a Planner with the default shadow settings.
func DefaultPlanner() Planner {
	return Planner{
		Resolution:          DefaultShadowResolution,
		DirectionalDistance: DefaultDirectionalDistance,
		SpotNear:            DefaultSpotNear,
		SpotFar:             DefaultSpotFar,
		PointFov:            DefaultPointFov,
	}
}

// Plan computes the shadow view of l.
//
// Directional lights fit an orthographic box around corners, the world-space corners of the camera
// frustum cut at DirectionalDistance, and are texel-snapped. Spot lights use a perspective cone
// along their axis. Point lights render a single perspective face toward the world origin, so
// they only shadow geometry in that direction.
//
// Parameters:
//   - l: the shadow-casting light
//   - corners: the camera frustum corners in world space, used by directional lights
//
// Returns:
//   - ShadowView: the light-space view
//   - bool: false if the light has no source
func (p Planner) Plan(l *Light, corners [8]mgl32.Vec3) (ShadowView, bool) {
	var view, proj mgl32.Mat4
	switch s := l.Source.(type) {
	case Directional:
		view, proj = p.directional(s, corners)
	case Spot:
		view = mgl32.LookAtV(s.Position, s.Position.Add(s.Direction), common.UpVectorFor(s.Direction))
		fov := 2 * math32.Acos(mgl32.Clamp(s.OuterCutoff, -1, 1))
		proj = mgl32.Perspective(fov, 1, p.SpotNear, p.SpotFar)
	case Point:
		dir := common.NormalizeOr(common.WorldOrigin.Sub(s.Position), common.WorldUp.Mul(-1))
		view = mgl32.LookAtV(s.Position, s.Position.Add(dir), common.UpVectorFor(dir))
		proj = mgl32.Perspective(mgl32.DegToRad(p.PointFov), 1, p.SpotNear, p.SpotFar)
	default:
		return ShadowView{}, false
	}
	return ShadowView{View: view, Projection: proj, LightSpace: proj.Mul4(view)}, true
}

func (p Planner) directional(s Directional, corners [8]mgl32.Vec3) (mgl32.Mat4, mgl32.Mat4) {
	var centroid mgl32.Vec3
	for _, c := range corners {
		centroid = centroid.Add(c)
	}
	centroid = centroid.Mul(1.0 / float32(len(corners)))

	var maxDist float32
	for _, c := range corners {
		maxDist = math32.Max(maxDist, c.Sub(centroid).Len())
	}
	r := common.RoundUpTo(maxDist, extentSteps)
	if r == 0 {
		r = 1.0 / extentSteps
	}

	view := mgl32.LookAtV(centroid.Sub(s.Direction.Mul(r)), centroid, common.UpVectorFor(s.Direction))
	proj := mgl32.Ortho(-r, r, -r, r, -5*r, 5*r)
	return view, SnapToTexel(proj, view, p.Resolution)
}

// SnapToTexel moves the projection by a sub-texel offset so the world origin lands on a whole
// shadow-map texel. Camera motion then shifts the shadow map by whole texels only.
//
// Parameters:
//   - proj: the orthographic light projection
//   - view: the light view
//   - resolution: the shadow map size in texels
//
// Returns:
//   - mgl32.Mat4: proj with the rounding offset added to its X/Y translation
func SnapToTexel(proj, view mgl32.Mat4, resolution int) mgl32.Mat4 {
	offset := TexelOffset(proj.Mul4(view), resolution)
	proj[12] += offset[0]
	proj[13] += offset[1]
	return proj
}

// TexelOffset returns the X/Y clip-space offset that moves the projected world origin onto the
// nearest whole texel: (round(o) - o) * 2 / resolution, with o in texel units.
func TexelOffset(lightSpace mgl32.Mat4, resolution int) mgl32.Vec2 {
	half := float32(resolution) / 2
	origin := lightSpace.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	ox, oy := origin.X()*half, origin.Y()*half
	return mgl32.Vec2{(math32.Round(ox) - ox) / half, (math32.Round(oy) - oy) / half}
}
