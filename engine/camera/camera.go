package camera

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/common"
)

type cameraImpl struct {
	mu *sync.Mutex

	position mgl32.Vec3
	target   mgl32.Vec3
	up       mgl32.Vec3

	fov    float32
	aspect float32
	near   float32
	far    float32

	view           mgl32.Mat4
	projection     mgl32.Mat4
	viewProjection mgl32.Mat4

	controller Controller
}

// Camera defines the interface for the perspective camera.
// The camera holds a look-at pose and perspective settings and caches its view, projection and
// view-projection matrices. With a Controller attached, Update copies the controller's pose.
type Camera interface {
	// Position returns the world-space eye position.
	//
	// Returns:
	//   - mgl32.Vec3: the eye position
	Position() mgl32.Vec3

	// Target returns the world-space point the camera looks at.
	//
	// Returns:
	//   - mgl32.Vec3: the look-at target
	Target() mgl32.Vec3

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// View returns the current view matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix
	View() mgl32.Mat4

	// Projection returns the current perspective projection matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	Projection() mgl32.Mat4

	// ViewProjection returns Projection * View.
	//
	// Returns:
	//   - mgl32.Mat4: the combined matrix
	ViewProjection() mgl32.Mat4

	// FrustumCorners returns the eight world-space corners of the view frustum with the far plane
	// moved to far. The first four corners lie on the near plane.
	//
	// Parameters:
	//   - far: the far plane distance to use instead of the camera's own
	//
	// Returns:
	//   - [8]mgl32.Vec3: the corners
	FrustumCorners(far float32) [8]mgl32.Vec3

	// LookAt places the camera at position looking at target and recomputes matrices.
	//
	// Parameters:
	//   - position: the eye position
	//   - target: the look-at point
	LookAt(position, target mgl32.Vec3)

	// SetAspect sets the aspect ratio (width / height) and recomputes matrices.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// Controller returns the attached Controller, or nil.
	Controller() Controller

	// Update copies the pose of the attached controller and recomputes matrices.
	// It does nothing without a controller.
	Update()
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with default perspective settings, looking from (0, 0, 10) at the origin.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:       &sync.Mutex{},
		position: mgl32.Vec3{0, 0, 10},
		up:       common.WorldUp,
		fov:      mgl32.DegToRad(45),
		aspect:   1,
		near:     0.1,
		far:      500,
	}
	for _, option := range options {
		option(c)
	}
	if c.controller != nil {
		c.position, c.target = c.controller.Position(), c.controller.Target()
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) Target() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) View() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *cameraImpl) Projection() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projection
}

func (c *cameraImpl) ViewProjection() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjection
}

func (c *cameraImpl) FrustumCorners(far float32) [8]mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()

	far = max(far, c.near+1e-3)
	inv := mgl32.Perspective(c.fov, c.aspect, c.near, far).Mul4(c.view).Inv()

	var out [8]mgl32.Vec3
	i := 0
	for _, z := range []float32{-1, 1} {
		for _, y := range []float32{-1, 1} {
			for _, x := range []float32{-1, 1} {
				out[i] = mgl32.TransformCoordinate(mgl32.Vec3{x, y, z}, inv)
				i++
			}
		}
	}
	return out
}

func (c *cameraImpl) LookAt(position, target mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position, c.target = position, target
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if aspect > 0 {
		c.aspect = aspect
	}
	c.updateMatrices()
}

func (c *cameraImpl) Controller() Controller {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controller == nil {
		return
	}
	c.position, c.target = c.controller.Position(), c.controller.Target()
	c.updateMatrices()
}

// updateMatrices recalculates the view, projection and view-projection matrices.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	up := c.up
	if c.target.Sub(c.position).Len() > 0 {
		up = common.UpVectorFor(c.target.Sub(c.position))
	}
	c.view = mgl32.LookAtV(c.position, c.target, up)
	c.projection = mgl32.Perspective(c.fov, c.aspect, c.near, c.far)
	c.viewProjection = c.projection.Mul4(c.view)
}
