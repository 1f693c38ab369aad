package mesh

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Procedural geometry. All primitives are centered on the origin, use counter-clockwise front
// faces and fit in a unit bounding box unless sized otherwise.

// builder accumulates interleaved vertices and indices.
type builder struct {
	data Data
}

func (b *builder) vertex(p, n mgl32.Vec3, u, v float32) uint32 {
	idx := uint32(b.data.VertexCount())
	b.data.Vertices = append(b.data.Vertices, p[0], p[1], p[2], n[0], n[1], n[2], u, v)
	return idx
}

func (b *builder) quad(a, c, d, e uint32) {
	b.data.Indices = append(b.data.Indices, a, c, d, a, d, e)
}

// Cube returns an axis-aligned cube with edge length size and one flat-shaded quad per face.
//
// Parameters:
//   - size: the edge length
//
// Returns:
//   - Data: 24 vertices and 36 indices
func Cube(size float32) Data {
	h := size / 2
	faces := []struct {
		n, u, v mgl32.Vec3
	}{
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	}

	var b builder
	for _, f := range faces {
		c := f.n.Mul(h)
		u := f.u.Mul(h)
		v := f.v.Mul(h)
		i0 := b.vertex(c.Sub(u).Sub(v), f.n, 0, 1)
		i1 := b.vertex(c.Add(u).Sub(v), f.n, 1, 1)
		i2 := b.vertex(c.Add(u).Add(v), f.n, 1, 0)
		i3 := b.vertex(c.Sub(u).Add(v), f.n, 0, 0)
		b.quad(i0, i1, i2, i3)
	}
	return b.data
}

// Plane returns a square in the XZ plane facing +Y, subdivided into segments x segments quads.
// Texture coordinates repeat tile times across the plane.
//
// Parameters:
//   - size: the edge length
//   - segments: the subdivisions per edge, at least 1
//   - tile: the texture repeat count
//
// Returns:
//   - Data: the plane geometry
func Plane(size float32, segments int, tile float32) Data {
	segments = max(segments, 1)
	h := size / 2
	step := size / float32(segments)
	up := mgl32.Vec3{0, 1, 0}

	var b builder
	row := uint32(segments + 1)
	for z := 0; z <= segments; z++ {
		for x := 0; x <= segments; x++ {
			fx := float32(x) / float32(segments)
			fz := float32(z) / float32(segments)
			b.vertex(mgl32.Vec3{-h + float32(x)*step, 0, -h + float32(z)*step}, up, fx*tile, fz*tile)
		}
	}
	for z := uint32(0); z < uint32(segments); z++ {
		for x := uint32(0); x < uint32(segments); x++ {
			i := z*row + x
			// Counter-clockwise seen from +Y.
			b.quad(i, i+row, i+row+1, i+1)
		}
	}
	return b.data
}

// UVSphere returns a latitude/longitude sphere.
//
// Parameters:
//   - radius: the sphere radius
//   - rings: latitude bands, at least 2
//   - sectors: longitude bands, at least 3
//
// Returns:
//   - Data: the sphere geometry
func UVSphere(radius float32, rings, sectors int) Data {
	rings = max(rings, 2)
	sectors = max(sectors, 3)

	var b builder
	for r := 0; r <= rings; r++ {
		v := float32(r) / float32(rings)
		phi := v * math32.Pi
		for s := 0; s <= sectors; s++ {
			u := float32(s) / float32(sectors)
			theta := u * 2 * math32.Pi
			n := mgl32.Vec3{
				math32.Sin(phi) * math32.Cos(theta),
				math32.Cos(phi),
				-math32.Sin(phi) * math32.Sin(theta),
			}
			b.vertex(n.Mul(radius), n, u, v)
		}
	}

	row := uint32(sectors + 1)
	for r := uint32(0); r < uint32(rings); r++ {
		for s := uint32(0); s < uint32(sectors); s++ {
			i := r*row + s
			b.quad(i, i+row, i+row+1, i+1)
		}
	}
	return b.data
}

// Cone returns a cone with its base centered at y = -height/2 and its apex at y = height/2.
//
// Parameters:
//   - radius: the base radius
//   - height: the cone height
//   - sectors: the number of side segments, at least 3
//
// Returns:
//   - Data: the cone geometry with a capped base
func Cone(radius, height float32, sectors int) Data {
	sectors = max(sectors, 3)
	h := height / 2
	slope := radius / height

	var b builder
	apex := mgl32.Vec3{0, h, 0}
	for s := 0; s < sectors; s++ {
		a0 := float32(s) / float32(sectors) * 2 * math32.Pi
		a1 := float32(s+1) / float32(sectors) * 2 * math32.Pi
		am := (a0 + a1) / 2

		p0 := mgl32.Vec3{radius * math32.Cos(a0), -h, -radius * math32.Sin(a0)}
		p1 := mgl32.Vec3{radius * math32.Cos(a1), -h, -radius * math32.Sin(a1)}
		n0 := mgl32.Vec3{math32.Cos(a0), slope, -math32.Sin(a0)}.Normalize()
		n1 := mgl32.Vec3{math32.Cos(a1), slope, -math32.Sin(a1)}.Normalize()
		nm := mgl32.Vec3{math32.Cos(am), slope, -math32.Sin(am)}.Normalize()

		u0 := float32(s) / float32(sectors)
		u1 := float32(s+1) / float32(sectors)
		i0 := b.vertex(p0, n0, u0, 1)
		i1 := b.vertex(p1, n1, u1, 1)
		i2 := b.vertex(apex, nm, (u0+u1)/2, 0)
		b.data.Indices = append(b.data.Indices, i0, i1, i2)
	}

	down := mgl32.Vec3{0, -1, 0}
	center := b.vertex(mgl32.Vec3{0, -h, 0}, down, 0.5, 0.5)
	first := uint32(b.data.VertexCount())
	for s := 0; s <= sectors; s++ {
		a := float32(s) / float32(sectors) * 2 * math32.Pi
		c, sn := math32.Cos(a), math32.Sin(a)
		b.vertex(mgl32.Vec3{radius * c, -h, -radius * sn}, down, 0.5+c/2, 0.5+sn/2)
	}
	for s := uint32(0); s < uint32(sectors); s++ {
		b.data.Indices = append(b.data.Indices, center, first+s+1, first+s)
	}
	return b.data
}
