package linden

import (
	"github.com/go-gl/mathgl/mgl32"
)

// MeshVertex is one vertex of an EbitenMesh.
type MeshVertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

// EbitenMesh is an indexed triangle list drawn by EbitenContext. It is both
// the VertexArray and the MeshRigid of a model part.
type EbitenMesh struct {
	Vertices []MeshVertex
	Indices  []uint16

	// Frames optionally holds per-frame vertex positions for morph
	// animation. Only their bounds are used; the context draws Vertices.
	Frames [][]mgl32.Vec3

	NoCastShadow    bool
	NoReceiveShadow bool

	bounds      AABB
	frameBounds []AABB
}

// NewEbitenMesh creates a mesh from vertices and triangle indices and
// computes its bounds.
func NewEbitenMesh(verts []MeshVertex, indices []uint16) *EbitenMesh {
	m := &EbitenMesh{Vertices: verts, Indices: indices}
	m.RecomputeBounds()
	return m
}

// RecomputeBounds refreshes the cached boxes after Vertices or Frames
// changed.
func (m *EbitenMesh) RecomputeBounds() {
	m.bounds = computeMeshAABB(m.Vertices)
	m.frameBounds = m.frameBounds[:0]
	for _, f := range m.Frames {
		b := EmptyAABB()
		for _, p := range f {
			b = b.Combine(AABB{Min: p, Max: p})
		}
		m.frameBounds = append(m.frameBounds, b)
	}
}

// computeMeshAABB returns the box around all vertex positions.
func computeMeshAABB(verts []MeshVertex) AABB {
	b := EmptyAABB()
	for i := range verts {
		p := verts[i].Position
		b = b.Combine(AABB{Min: p, Max: p})
	}
	return b
}

func (m *EbitenMesh) VertexCount() int { return len(m.Vertices) }

func (m *EbitenMesh) BoundingBox() AABB { return m.bounds }

// BoundingBoxInterpolated blends the boxes of two animation frames. A mesh
// without frames returns its static box.
func (m *EbitenMesh) BoundingBoxInterpolated(frame, next int, lerp float32) AABB {
	n := len(m.frameBounds)
	if n == 0 {
		return m.bounds
	}
	a := m.frameBounds[clampIndex(frame, n)]
	b := m.frameBounds[clampIndex(next, n)]
	return AABB{
		Min: a.Min.Add(b.Min.Sub(a.Min).Mul(lerp)),
		Max: a.Max.Add(b.Max.Sub(a.Max).Mul(lerp)),
	}
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (m *EbitenMesh) SkeletonFramesCount() int { return 0 }
func (m *EbitenMesh) CastShadow() bool         { return !m.NoCastShadow }
func (m *EbitenMesh) ReceiveShadow() bool      { return !m.NoReceiveShadow }

// ModelPart is one rigid part of a Model.
type ModelPart struct {
	Mesh     *EbitenMesh
	Local    mgl32.Mat4
	Parent   int // index of the parent part, or -1
	Material *MaterialDesc
}

// Model is a Mesh assembled from EbitenMesh parts.
type Model struct {
	Parts []ModelPart
	Anims map[string]AnimSequence
}

// NewModel returns a model with a single part and no parent.
func NewModel(mesh *EbitenMesh, mtl *MaterialDesc) *Model {
	return &Model{Parts: []ModelPart{{Mesh: mesh, Local: mgl32.Ident4(), Parent: -1, Material: mtl}}}
}

// AddPart appends a part and returns its index.
func (m *Model) AddPart(p ModelPart) int {
	m.Parts = append(m.Parts, p)
	return len(m.Parts) - 1
}

func (m *Model) RigidsCount() int                { return len(m.Parts) }
func (m *Model) Rigid(i int) MeshRigid           { return m.Parts[i].Mesh }
func (m *Model) VertexArray(i int) VertexArray   { return m.Parts[i].Mesh }
func (m *Model) LocalTransform(i int) mgl32.Mat4 { return m.Parts[i].Local }
func (m *Model) ParentRef(i int) int             { return m.Parts[i].Parent }
func (m *Model) Material(i int) *MaterialDesc    { return m.Parts[i].Material }
func (m *Model) PackedSkeleton(i int) Texture    { return nil }

func (m *Model) AnimSequence(name string) (AnimSequence, bool) {
	a, ok := m.Anims[name]
	return a, ok
}

// StaticGeom is an in-memory Geom. Reload swaps its model and notifies the
// scenes holding it.
type StaticGeom struct {
	model     *Model
	listeners []func()
}

// NewStaticGeom wraps m.
func NewStaticGeom(m *Model) *StaticGeom {
	return &StaticGeom{model: m}
}

// WaitLoad returns immediately; static geoms are always loaded.
func (g *StaticGeom) WaitLoad() {}

func (g *StaticGeom) CurrentMesh() Mesh {
	if g.model == nil {
		return nil
	}
	return g.model
}

// OnChange registers fn to run after Reload.
func (g *StaticGeom) OnChange(fn func()) {
	g.listeners = append(g.listeners, fn)
}

// Reload replaces the model and fires the change callbacks.
func (g *StaticGeom) Reload(m *Model) {
	g.model = m
	for _, fn := range g.listeners {
		fn()
	}
}
