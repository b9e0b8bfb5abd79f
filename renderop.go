package linden

import (
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// RenderOperation is one draw: a rigid, the passes it takes part in and
// the GPU handles needed to submit it.
type RenderOperation struct {
	SortKey          uint64
	Rigid            int
	Mask             Pass
	VertexArray      VertexArray
	PackedSkeleton   Texture
	PlanarReflection Texture
	Skinned          bool
	ReceiveShadow    bool // the mesh part accepts shadows
}

// addRenderOperation queues a draw for rigid idx. Synthetic, invisible and
// material-less rigids are skipped.
func (s *Scene) addRenderOperation(idx int) {
	r := s.rigids.Ptr(idx)
	if r.MaterialRef < 0 || r.ID.Rigid < 0 || !r.Visible {
		return
	}
	mesh := s.geoms[r.ID.Geom].CurrentMesh()
	if mesh == nil {
		return
	}
	part := mesh.Rigid(r.ID.Rigid)

	mask := DefaultPassMask
	if !part.CastShadow() || !r.CastShadow {
		mask &^= shadowPasses
	}
	op := RenderOperation{
		Rigid:          idx,
		Mask:           mask,
		VertexArray:    mesh.VertexArray(r.ID.Rigid),
		PackedSkeleton: mesh.PackedSkeleton(r.ID.Rigid),
		Skinned:        part.SkeletonFramesCount() > 0,
		ReceiveShadow:  part.ReceiveShadow(),
	}
	op.SortKey = s.sortKey(idx, s.camera.Eye())
	s.renderOps.Push(op)
}

// RebuildRenderOperations regenerates the operation list from the rigid
// array when a structural change requested it.
func (s *Scene) RebuildRenderOperations() {
	if !s.needsRebuild {
		return
	}
	s.rebuildRenderOperations()
}

func (s *Scene) rebuildRenderOperations() {
	s.renderOps.Clear()
	for i := 0; i < s.rigids.Len(); i++ {
		s.addRenderOperation(i)
	}
	s.needsRebuild = false
	s.sortDirty = true
	Logger().Debug("render operations rebuilt", slog.Int("operations", s.renderOps.Len()))
}

// SortScene refreshes every sort key and reorders the operation list when
// something affecting the order changed. Opaque operations come first,
// grouped by shader then texture then near to far; blended operations
// follow in rigid order.
func (s *Scene) SortScene() {
	s.RebuildRenderOperations()
	if !s.sortDirty {
		return
	}
	start := time.Now()
	s.RecalculateGlobalTransforms()

	eye := s.camera.Eye()
	ops := s.renderOps.Slice()
	for i := range ops {
		ops[i].SortKey = s.sortKey(ops[i].Rigid, eye)
	}
	if cap(s.sortBuf) < len(ops) {
		s.sortBuf = make([]RenderOperation, len(ops))
	}
	radixSortOps(ops, s.sortBuf[:len(ops)])
	clear(s.sortBuf)

	s.sortDirty = false
	s.frameStats.sortTime += time.Since(start)
	Logger().Debug("scene sorted", slog.Int("operations", len(ops)))
}

// sortKey computes the key of rigid idx from its material's normal state.
func (s *Scene) sortKey(idx int, eye mgl32.Vec3) uint64 {
	r := s.rigids.Ptr(idx)
	st := s.states.At(r.MaterialRef)[slotNormal]
	depth := r.Global.Col(3).Vec3().Sub(eye).Len()
	if st == nil {
		return MakeSortKey(false, 0, 0, depth)
	}
	if st.Blended() {
		return BlendedSortKey
	}
	return MakeSortKey(false, s.keys.shaderID(st.Program()), s.keys.textureID(st.Texture(0)), depth)
}
