package camera

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/common"
)

func TestViewProjectionCombinesMatrices(t *testing.T) {
	c := NewCamera(WithLookAt(mgl32.Vec3{0, 5, 20}, mgl32.Vec3{}), WithAspect(16.0/9), WithClip(0.1, 200))
	assert.True(t, c.ViewProjection().ApproxEqualThreshold(c.Projection().Mul4(c.View()), 1e-6))

	// The target projects to the screen center.
	ndc := mgl32.TransformCoordinate(mgl32.Vec3{}, c.ViewProjection())
	assert.InDelta(t, 0, ndc.X(), 1e-5)
	assert.InDelta(t, 0, ndc.Y(), 1e-5)
}

func TestFrustumCornersFitFarPlane(t *testing.T) {
	c := NewCamera(WithLookAt(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}), WithFov(90), WithAspect(1), WithClip(1, 500))

	corners := c.FrustumCorners(50)
	for i := 0; i < 4; i++ {
		assert.InDelta(t, -1, corners[i].Z(), 1e-3, "near corner %d", i)
	}
	for i := 4; i < 8; i++ {
		assert.InDelta(t, -50, corners[i].Z(), 1e-2, "far corner %d", i)
		// 90 degree fov: the far plane half-width equals its distance.
		assert.InDelta(t, 50, math32.Abs(corners[i].X()), 1e-2)
		assert.InDelta(t, 50, math32.Abs(corners[i].Y()), 1e-2)
	}
}

func TestFrustumCornersAreInsideCameraFrustum(t *testing.T) {
	c := NewCamera(WithLookAt(mgl32.Vec3{3, 4, 5}, mgl32.Vec3{-1, 0, 2}), WithClip(0.5, 100))
	f := common.ExtractFrustum(c.ViewProjection())
	for _, corner := range c.FrustumCorners(50) {
		assert.True(t, f.IsVisible(corner, 0.01))
	}
}

func TestControllerDrivesCamera(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(10), WithElevation(0.1), WithTarget(mgl32.Vec3{1, 0, 0}))
	c := NewCamera(WithController(ctrl))
	require.Equal(t, ctrl.Position(), c.Position())
	assert.InDelta(t, 10, c.Position().Sub(c.Target()).Len(), 1e-4)

	ctrl.Orbit(0.5, 0)
	assert.NotEqual(t, ctrl.Position(), c.Position(), "camera only moves on Update")
	c.Update()
	assert.Equal(t, ctrl.Position(), c.Position())
}

func TestControllerClamps(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(10), WithRadiusLimits(5, 20))
	ctrl.Zoom(1000)
	assert.Equal(t, float32(5), ctrl.Radius())
	ctrl.Zoom(-1000)
	assert.Equal(t, float32(20), ctrl.Radius())

	ctrl.Orbit(0, 10)
	assert.Less(t, ctrl.Elevation(), float32(1.571))
	ctrl.Orbit(0, -10)
	assert.Greater(t, ctrl.Elevation(), float32(0))
}

func TestPanMovesTargetAndEye(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(10))
	before := ctrl.Position().Sub(ctrl.Target())
	ctrl.Pan(3, 1)
	after := ctrl.Position().Sub(ctrl.Target())
	assert.True(t, before.ApproxEqualThreshold(after, 1e-4))
	assert.InDelta(t, 3.1623, ctrl.Target().Len(), 1e-3)
}
