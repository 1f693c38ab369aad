package camera

import (
	"sync"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/common"
)

// orbitController is the implementation of Controller.
type orbitController struct {
	mu *sync.Mutex

	position mgl32.Vec3
	target   mgl32.Vec3

	radius    float32
	azimuth   float32
	elevation float32

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	orbitSpeed float32
	zoomSpeed  float32
	panSpeed   float32
}

var _ Controller = &orbitController{}

// NewOrbitController creates an orbit controller with sensible defaults.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - Controller: the newly created controller
func NewOrbitController(options ...ControllerOption) Controller {
	cc := &orbitController{
		mu: &sync.Mutex{},

		radius:    40,
		elevation: math32.Pi / 6,

		minRadius:    2,
		maxRadius:    400,
		minElevation: 0.05,
		maxElevation: math32.Pi/2 - 0.1,

		orbitSpeed: 0.03,
		zoomSpeed:  2,
		panSpeed:   1,
	}
	for _, option := range options {
		option(cc)
	}
	cc.radius = mgl32.Clamp(cc.radius, cc.minRadius, cc.maxRadius)
	cc.elevation = mgl32.Clamp(cc.elevation, cc.minElevation, cc.maxElevation)
	cc.updatePosition()
	return cc
}

// updatePosition recomputes the eye position from spherical coordinates.
// Caller must hold the mutex.
func (cc *orbitController) updatePosition() {
	cosElev, sinElev := math32.Cos(cc.elevation), math32.Sin(cc.elevation)
	cosAzim, sinAzim := math32.Cos(cc.azimuth), math32.Sin(cc.azimuth)
	cc.position = cc.target.Add(mgl32.Vec3{
		cc.radius * cosElev * sinAzim,
		cc.radius * sinElev,
		cc.radius * cosElev * cosAzim,
	})
}

func (cc *orbitController) Position() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *orbitController) Target() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.target
}

func (cc *orbitController) SetTarget(target mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.target = target
	cc.updatePosition()
}

func (cc *orbitController) Orbit(dAzimuth, dElevation float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.azimuth += dAzimuth
	cc.elevation = mgl32.Clamp(cc.elevation+dElevation, cc.minElevation, cc.maxElevation)
	cc.updatePosition()
}

func (cc *orbitController) Zoom(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius = mgl32.Clamp(cc.radius-delta*cc.zoomSpeed, cc.minRadius, cc.maxRadius)
	cc.updatePosition()
}

func (cc *orbitController) Pan(right, up float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	back := cc.position.Sub(cc.target)
	if back.Len() < 1e-6 {
		return
	}
	back = back.Normalize()
	r := common.NormalizeOr(common.WorldUp.Cross(back), mgl32.Vec3{1, 0, 0})
	u := back.Cross(r)

	offset := r.Mul(right * cc.panSpeed).Add(u.Mul(up * cc.panSpeed))
	cc.target = cc.target.Add(offset)
	cc.position = cc.position.Add(offset)
}

func (cc *orbitController) Radius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.radius
}

func (cc *orbitController) Azimuth() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.azimuth
}

func (cc *orbitController) Elevation() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.elevation
}

func (cc *orbitController) OrbitSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.orbitSpeed
}
