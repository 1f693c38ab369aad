package camera

import "github.com/go-gl/mathgl/mgl32"

type CameraBuilderOption func(*cameraImpl)

// WithFov sets the camera's vertical field of view in degrees.
//
// Parameters:
//   - degrees: field of view in degrees
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(degrees float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = mgl32.DegToRad(degrees)
	}
}

// WithAspect sets the camera's aspect ratio (width / height).
//
// Parameters:
//   - aspect: the aspect ratio to set
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's aspect ratio
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.aspect = aspect
	}
}

// WithClip sets the near and far clipping plane distances.
//
// Parameters:
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the clip planes
func WithClip(near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
		c.far = far
	}
}

// WithLookAt sets the initial eye position and target.
func WithLookAt(position, target mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.position = position
		c.target = target
	}
}

// WithController attaches a controller to the camera.
// After all options are applied, the camera takes its pose from the controller.
//
// Parameters:
//   - ctrl: the controller to attach
//
// Returns:
//   - CameraBuilderOption: functional option to set the controller
func WithController(ctrl Controller) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.controller = ctrl
	}
}
