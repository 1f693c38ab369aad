package camera

import "github.com/go-gl/mathgl/mgl32"

// ControllerOption is a functional option for configuring a Controller.
type ControllerOption func(*orbitController)

// WithRadius sets the initial orbit radius (distance from target).
//
// Parameters:
//   - radius: distance from the orbit target
//
// Returns:
//   - ControllerOption: functional option to set the radius
func WithRadius(radius float32) ControllerOption {
	return func(cc *orbitController) {
		cc.radius = radius
	}
}

// WithRadiusLimits sets the zoom range.
func WithRadiusLimits(minRadius, maxRadius float32) ControllerOption {
	return func(cc *orbitController) {
		cc.minRadius = minRadius
		cc.maxRadius = maxRadius
	}
}

// WithAzimuth sets the initial horizontal angle around the Y axis.
//
// Parameters:
//   - azimuth: horizontal angle in radians (0 = +Z axis)
//
// Returns:
//   - ControllerOption: functional option to set the azimuth
func WithAzimuth(azimuth float32) ControllerOption {
	return func(cc *orbitController) {
		cc.azimuth = azimuth
	}
}

// WithElevation sets the initial vertical angle from the horizontal plane.
//
// Parameters:
//   - elevation: vertical angle in radians (0 = horizontal)
//
// Returns:
//   - ControllerOption: functional option to set the elevation
func WithElevation(elevation float32) ControllerOption {
	return func(cc *orbitController) {
		cc.elevation = elevation
	}
}

// WithTarget sets the look-at/pivot point.
//
// Parameters:
//   - target: the pivot point
//
// Returns:
//   - ControllerOption: functional option to set the target
func WithTarget(target mgl32.Vec3) ControllerOption {
	return func(cc *orbitController) {
		cc.target = target
	}
}

// WithSpeeds sets the orbit step in radians, the zoom multiplier and the pan multiplier.
func WithSpeeds(orbit, zoom, pan float32) ControllerOption {
	return func(cc *orbitController) {
		cc.orbitSpeed = orbit
		cc.zoomSpeed = zoom
		cc.panSpeed = pan
	}
}
