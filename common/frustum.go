package common

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// SignedDistance returns the signed distance from the plane to a point.
// Positive values lie on the inside of a frustum plane.
func (p Plane) SignedDistance(point mgl32.Vec3) float32 {
	return p.Normal.Dot(point) + p.Distance
}

// Frustum represents the six planes of a view frustum for culling.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// ExtractFrustum extracts the frustum planes from a combined Projection * View matrix
// using the Gribb/Hartmann method. Every plane is normalized so the signed distance
// returned by Plane.SignedDistance is in world units.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: the view-projection matrix (mgl32 matrices are column-major)
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustum(viewProj mgl32.Mat4) Frustum {
	var f Frustum

	row0 := viewProj.Row(0)
	row1 := viewProj.Row(1)
	row2 := viewProj.Row(2)
	row3 := viewProj.Row(3)

	f.Planes[FrustumLeft] = planeFromRow(row3.Add(row0))
	f.Planes[FrustumRight] = planeFromRow(row3.Sub(row0))
	f.Planes[FrustumBottom] = planeFromRow(row3.Add(row1))
	f.Planes[FrustumTop] = planeFromRow(row3.Sub(row1))
	f.Planes[FrustumNear] = planeFromRow(row3.Add(row2))
	f.Planes[FrustumFar] = planeFromRow(row3.Sub(row2))

	return f
}

// IsVisible performs the bounding-sphere test against all six planes.
// The sphere is reported invisible only when it lies entirely on the outside of at least one plane,
// so spheres inside or straddling the frustum are never culled.
//
// Parameters:
//   - center: world-space sphere center
//   - radius: sphere radius in world units
//
// Returns:
//   - bool: false if the sphere is fully outside the frustum
func (f *Frustum) IsVisible(center mgl32.Vec3, radius float32) bool {
	for i := range f.Planes {
		if f.Planes[i].SignedDistance(center) < -radius {
			return false
		}
	}
	return true
}

// planeFromRow builds a normalized plane from a combined matrix row (a, b, c, d).
func planeFromRow(r mgl32.Vec4) Plane {
	p := Plane{
		Normal:   mgl32.Vec3{r[0], r[1], r[2]},
		Distance: r[3],
	}
	length := math32.Sqrt(p.Normal.Dot(p.Normal))
	if length > 0 {
		invLen := 1.0 / length
		p.Normal = p.Normal.Mul(invLen)
		p.Distance *= invLen
	}
	return p
}
