package common

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Fixed world axes (right-handed, Y up).
var (
	WorldUp     = mgl32.Vec3{0, 1, 0}
	WorldZ      = mgl32.Vec3{0, 0, 1}
	WorldOrigin = mgl32.Vec3{}
)

// ModelMatrix constructs a 4x4 model matrix from position, Euler rotation in degrees, and scale.
// The rotation order is Y * X * Z (yaw-pitch-roll), applied after scaling.
//
// Parameters:
//   - position: translation in world space
//   - rotationDeg: rotation angles in degrees around X, Y and Z
//   - scale: scale factors along each axis
//
// Returns:
//   - mgl32.Mat4: T * Ry * Rx * Rz * S
func ModelMatrix(position, rotationDeg, scale mgl32.Vec3) mgl32.Mat4 {
	t := mgl32.Translate3D(position[0], position[1], position[2])
	ry := mgl32.HomogRotate3DY(mgl32.DegToRad(rotationDeg[1]))
	rx := mgl32.HomogRotate3DX(mgl32.DegToRad(rotationDeg[0]))
	rz := mgl32.HomogRotate3DZ(mgl32.DegToRad(rotationDeg[2]))
	s := mgl32.Scale3D(scale[0], scale[1], scale[2])
	return t.Mul4(ry).Mul4(rx).Mul4(rz).Mul4(s)
}

// RoundUpTo rounds v up to the next multiple of 1/steps.
// RoundUpTo(1.01, 16) returns 1.0625.
func RoundUpTo(v float32, steps float32) float32 {
	return math32.Ceil(v*steps) / steps
}

// UpVectorFor picks the world-space up vector for a look-at along dir.
// World Z is used when dir is near-vertical, world Y otherwise.
func UpVectorFor(dir mgl32.Vec3) mgl32.Vec3 {
	if math32.Abs(dir.Normalize().Dot(WorldUp)) > 0.99 {
		return WorldZ
	}
	return WorldUp
}

// NormalizeOr returns v normalized, or fallback when v has zero length.
func NormalizeOr(v, fallback mgl32.Vec3) mgl32.Vec3 {
	if v.Len() == 0 {
		return fallback
	}
	return v.Normalize()
}
