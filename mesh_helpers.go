package linden

import (
	"github.com/go-gl/mathgl/mgl32"
)

// --- Box ---

// boxFaces lists the outward normal and the two in-plane axes of each cube
// face, ordered so that (u x v) == normal and triangles wind
// counter-clockwise seen from outside.
var boxFaces = [6][3]mgl32.Vec3{
	{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
	{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}},
	{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
	{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
	{{0, 0, -1}, {-1, 0, 0}, {0, 1, 0}},
}

// NewBoxMesh builds an axis-aligned box centered on the origin with the
// given half extents. Each face has its own four vertices so normals stay
// flat.
func NewBoxMesh(half mgl32.Vec3) *EbitenMesh {
	verts := make([]MeshVertex, 0, 24)
	inds := make([]uint16, 0, 36)
	for _, f := range boxFaces {
		n, u, v := f[0], f[1], f[2]
		center := mulElem(n, half)
		du := mulElem(u, half)
		dv := mulElem(v, half)
		base := uint16(len(verts))
		verts = append(verts,
			MeshVertex{Position: center.Sub(du).Sub(dv), Normal: n, UV: mgl32.Vec2{0, 1}},
			MeshVertex{Position: center.Add(du).Sub(dv), Normal: n, UV: mgl32.Vec2{1, 1}},
			MeshVertex{Position: center.Add(du).Add(dv), Normal: n, UV: mgl32.Vec2{1, 0}},
			MeshVertex{Position: center.Sub(du).Add(dv), Normal: n, UV: mgl32.Vec2{0, 0}},
		)
		inds = append(inds, base, base+1, base+2, base, base+2, base+3)
	}
	return NewEbitenMesh(verts, inds)
}

// NewCubeMesh builds a cube with edge length size.
func NewCubeMesh(size float32) *EbitenMesh {
	h := size / 2
	return NewBoxMesh(mgl32.Vec3{h, h, h})
}

// --- Plane ---

// NewPlaneMesh builds a grid on the XZ plane facing +Y, centered on the
// origin and split into cols x rows quads.
func NewPlaneMesh(width, depth float32, cols, rows int) *EbitenMesh {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	verts := make([]MeshVertex, 0, (cols+1)*(rows+1))
	for r := 0; r <= rows; r++ {
		fv := float32(r) / float32(rows)
		for c := 0; c <= cols; c++ {
			fu := float32(c) / float32(cols)
			verts = append(verts, MeshVertex{
				Position: mgl32.Vec3{(fu - 0.5) * width, 0, (fv - 0.5) * depth},
				Normal:   mgl32.Vec3{0, 1, 0},
				UV:       mgl32.Vec2{fu, fv},
			})
		}
	}
	inds := make([]uint16, 0, cols*rows*6)
	stride := uint16(cols + 1)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := uint16(r)*stride + uint16(c)
			inds = append(inds, i, i+stride, i+1, i+1, i+stride, i+stride+1)
		}
	}
	return NewEbitenMesh(verts, inds)
}

func mulElem(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}
