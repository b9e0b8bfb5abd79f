package linden

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis-aligned bounding box. An empty box has Min > Max on every
// axis so that combining it with any box yields that box.
type AABB struct {
	Min, Max mgl32.Vec3
}

// EmptyAABB returns a box that contains nothing.
func EmptyAABB() AABB {
	inf := float32(math.Inf(1))
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether the box contains no points.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Combine returns the smallest box enclosing both b and o.
func (b AABB) Combine(o AABB) AABB {
	if o.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return o
	}
	for i := 0; i < 3; i++ {
		b.Min[i] = min(b.Min[i], o.Min[i])
		b.Max[i] = max(b.Max[i], o.Max[i])
	}
	return b
}

// Center returns the midpoint of the box.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the extent of the box along each axis.
func (b AABB) Size() mgl32.Vec3 {
	if b.IsEmpty() {
		return mgl32.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Corners returns the eight corners of the box.
func (b AABB) Corners() [8]mgl32.Vec3 {
	var c [8]mgl32.Vec3
	for i := range c {
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				c[i][axis] = b.Max[axis]
			} else {
				c[i][axis] = b.Min[axis]
			}
		}
	}
	return c
}

// Transform returns the axis-aligned box enclosing b after applying m.
func (b AABB) Transform(m mgl32.Mat4) AABB {
	if b.IsEmpty() {
		return b
	}
	out := EmptyAABB()
	for _, c := range b.Corners() {
		p := mgl32.TransformCoordinate(c, m)
		for i := 0; i < 3; i++ {
			out.Min[i] = min(out.Min[i], p[i])
			out.Max[i] = max(out.Max[i], p[i])
		}
	}
	return out
}

// Frustum holds six normalized clip planes (left, right, bottom, top, near,
// far) as (nx, ny, nz, d) with the normals pointing inside.
type Frustum struct {
	Planes [6]mgl32.Vec4
}

// FrustumFromMatrix extracts the clip planes of a projection*view matrix.
func FrustumFromMatrix(m mgl32.Mat4) Frustum {
	r0, r1, r2, r3 := m.Row(0), m.Row(1), m.Row(2), m.Row(3)
	f := Frustum{Planes: [6]mgl32.Vec4{
		r3.Add(r0),
		r3.Sub(r0),
		r3.Add(r1),
		r3.Sub(r1),
		r3.Add(r2),
		r3.Sub(r2),
	}}
	for i := range f.Planes {
		f.Planes[i] = normalizePlane(f.Planes[i])
	}
	return f
}

// IntersectsAABB reports whether any part of b lies inside the frustum.
// Boxes straddling a plane count as inside.
func (f Frustum) IntersectsAABB(b AABB) bool {
	if b.IsEmpty() {
		return false
	}
	for _, p := range f.Planes {
		// farthest corner along the plane normal
		var v mgl32.Vec3
		for i := 0; i < 3; i++ {
			if p[i] >= 0 {
				v[i] = b.Max[i]
			} else {
				v[i] = b.Min[i]
			}
		}
		if p[0]*v[0]+p[1]*v[1]+p[2]*v[2]+p[3] < 0 {
			return false
		}
	}
	return true
}

func normalizePlane(p mgl32.Vec4) mgl32.Vec4 {
	l := p.Vec3().Len()
	if l == 0 {
		return p
	}
	return p.Mul(1 / l)
}

// MirrorMatrix returns the reflection through plane (nx, ny, nz, d), where
// points on the plane satisfy n·x + d = 0.
func MirrorMatrix(plane mgl32.Vec4) mgl32.Mat4 {
	p := normalizePlane(plane)
	nx, ny, nz, d := p[0], p[1], p[2], p[3]
	return mgl32.Mat4{
		1 - 2*nx*nx, -2 * nx * ny, -2 * nx * nz, 0,
		-2 * nx * ny, 1 - 2*ny*ny, -2 * ny * nz, 0,
		-2 * nx * nz, -2 * ny * nz, 1 - 2*nz*nz, 0,
		-2 * d * nx, -2 * d * ny, -2 * d * nz, 1,
	}
}

// planesEqual compares two planes component-wise within eps.
func planesEqual(a, b mgl32.Vec4, eps float32) bool {
	for i := 0; i < 4; i++ {
		if float32(math.Abs(float64(a[i]-b[i]))) > eps {
			return false
		}
	}
	return true
}
