package camera

import "github.com/go-gl/mathgl/mgl32"

// Controller drives a Camera's pose. The orbit controller keeps the eye on a sphere around a
// target and translates both eye and target when panning.
type Controller interface {
	// Position returns the eye position derived from the orbit state.
	//
	// Returns:
	//   - mgl32.Vec3: the eye position
	Position() mgl32.Vec3

	// Target returns the orbit pivot.
	//
	// Returns:
	//   - mgl32.Vec3: the pivot point
	Target() mgl32.Vec3

	// SetTarget moves the orbit pivot and recomputes the eye position.
	//
	// Parameters:
	//   - target: the new pivot
	SetTarget(target mgl32.Vec3)

	// Orbit rotates the eye around the pivot. Elevation is clamped to the configured range.
	//
	// Parameters:
	//   - dAzimuth: horizontal angle delta in radians
	//   - dElevation: vertical angle delta in radians
	Orbit(dAzimuth, dElevation float32)

	// Zoom moves the eye toward (positive delta) or away from the pivot, scaled by the zoom speed.
	// The radius is clamped to the configured range.
	//
	// Parameters:
	//   - delta: zoom amount
	Zoom(delta float32)

	// Pan translates eye and pivot along the camera's right and up axes, scaled by the pan speed.
	//
	// Parameters:
	//   - right: distance along the right axis
	//   - up: distance along the up axis
	Pan(right, up float32)

	// Radius returns the current eye-to-pivot distance.
	Radius() float32

	// Azimuth returns the horizontal angle in radians (0 = +Z axis).
	Azimuth() float32

	// Elevation returns the vertical angle in radians (0 = horizontal).
	Elevation() float32

	// OrbitSpeed returns the angle in radians a single key press orbits by.
	OrbitSpeed() float32
}
