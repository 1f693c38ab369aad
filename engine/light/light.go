package light

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/common"
)

// Kind identifies the kind of light source. The values match the type tag read by the lit shader.
type Kind int

const (
	// KindDirectional is a light with no position, only direction, such as the sun.
	KindDirectional Kind = iota
	// KindPoint emits in all directions from a position.
	KindPoint
	// KindSpot emits in a cone from a position along a direction.
	KindSpot
)

// String returns the lower-case name of the light kind.
func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindSpot:
		return "spot"
	default:
		return "directional"
	}
}

// Source is the type-specific payload of a Light: Directional, Point or Spot.
type Source interface {
	// Kind returns the light kind of the payload.
	//
	// Returns:
	//   - Kind: the light kind
	Kind() Kind

	source()
}

// Directional is a light source infinitely far away along Direction.
type Directional struct {
	// Direction is the normalized direction the light travels.
	Direction mgl32.Vec3
}

// Point is an omnidirectional light source.
type Point struct {
	Position mgl32.Vec3
}

// Spot is a cone-shaped light source. Cutoffs are stored as cosines of the half-angles,
// so InnerCutoff >= OuterCutoff.
type Spot struct {
	Position    mgl32.Vec3
	Direction   mgl32.Vec3
	InnerCutoff float32
	OuterCutoff float32
}

func (Directional) Kind() Kind { return KindDirectional }
func (Point) Kind() Kind       { return KindPoint }
func (Spot) Kind() Kind        { return KindSpot }

func (Directional) source() {}
func (Point) source()       {}
func (Spot) source()        {}

// NewSpot builds a Spot payload from cone half-angles in degrees.
// The wider angle always becomes the outer cutoff.
//
// Parameters:
//   - position: the world-space position
//   - direction: the cone axis, normalized here
//   - innerDeg: the full-intensity half-angle
//   - outerDeg: the zero-intensity half-angle
//
// Returns:
//   - Spot: the spot payload
func NewSpot(position, direction mgl32.Vec3, innerDeg, outerDeg float32) Spot {
	if innerDeg > outerDeg {
		innerDeg, outerDeg = outerDeg, innerDeg
	}
	return Spot{
		Position:    position,
		Direction:   common.NormalizeOr(direction, common.WorldUp.Mul(-1)),
		InnerCutoff: math32.Cos(mgl32.DegToRad(innerDeg)),
		OuterCutoff: math32.Cos(mgl32.DegToRad(outerDeg)),
	}
}

// Light is a scene light: a Source payload plus the fields shared by every kind.
// Lights live in the scene's arena and are updated in place.
type Light struct {
	Name      string
	Source    Source
	Color     mgl32.Vec3
	Intensity float32

	// Visual names the decorative entity drawn at the light's position, if any.
	Visual       string
	CastsShadows bool
	Active       bool
}

// New creates an active, shadow-casting Light. Directions in the payload are normalized.
//
// Parameters:
//   - name: the unique light name
//   - src: the type-specific payload
//   - color: the RGB color
//   - intensity: the scalar intensity
//   - options: functional options (shadows, visual)
//
// Returns:
//   - Light: the light
func New(name string, src Source, color mgl32.Vec3, intensity float32, options ...LightBuilderOption) Light {
	l := Light{
		Name:         name,
		Source:       normalized(src),
		Color:        color,
		Intensity:    intensity,
		CastsShadows: true,
		Active:       true,
	}
	for _, opt := range options {
		opt(&l)
	}
	return l
}

// Kind returns the kind of the light's source.
func (l *Light) Kind() Kind {
	if l.Source == nil {
		return KindDirectional
	}
	return l.Source.Kind()
}

// Position returns the light position. Directional lights report false.
func (l *Light) Position() (mgl32.Vec3, bool) {
	switch s := l.Source.(type) {
	case Point:
		return s.Position, true
	case Spot:
		return s.Position, true
	}
	return mgl32.Vec3{}, false
}

// Direction returns the normalized light direction. Point lights report false.
func (l *Light) Direction() (mgl32.Vec3, bool) {
	switch s := l.Source.(type) {
	case Directional:
		return s.Direction, true
	case Spot:
		return s.Direction, true
	}
	return mgl32.Vec3{}, false
}

// SetPosition moves a point or spot light. It is a no-op for directional lights.
func (l *Light) SetPosition(p mgl32.Vec3) {
	switch s := l.Source.(type) {
	case Point:
		s.Position = p
		l.Source = s
	case Spot:
		s.Position = p
		l.Source = s
	}
}

// SetDirection re-aims a directional or spot light. It is a no-op for point lights.
func (l *Light) SetDirection(d mgl32.Vec3) {
	switch s := l.Source.(type) {
	case Directional:
		s.Direction = d
		l.Source = normalized(s)
	case Spot:
		s.Direction = d
		l.Source = normalized(s)
	}
}

func normalized(src Source) Source {
	down := common.WorldUp.Mul(-1)
	switch s := src.(type) {
	case Directional:
		s.Direction = common.NormalizeOr(s.Direction, down)
		return s
	case Spot:
		s.Direction = common.NormalizeOr(s.Direction, down)
		return s
	}
	return src
}
