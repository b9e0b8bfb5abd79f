package linden

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// pickingHash spreads consecutive rigid indices over the 24-bit color
// space so neighbours are easy to tell apart by eye in the picking buffer.
// Indices up to (1<<24)/pickingHash-2 round-trip.
const pickingHash = 557

// PickingColor returns the color rigid idx is written with into the
// picking attachment.
func PickingColor(idx int) mgl32.Vec4 {
	n := uint32(idx+1) * pickingHash
	return mgl32.Vec4{
		float32(n&0xFF) / 255,
		float32(n>>8&0xFF) / 255,
		float32(n>>16&0xFF) / 255,
		0,
	}
}

// DecodePickingColor turns a pixel packed as 0xAABBGGRR back into a rigid
// index. The background decodes to -1.
func DecodePickingColor(pixel uint32) int {
	return int((pixel&0xFFFFFF)/pickingHash) - 1
}

// SetUseOffscreenBuffer routes rendering into an owned offscreen buffer of
// the given size. With picking set the buffer gets a second attachment
// holding picking colors, which PickObject reads. An owned buffer is
// recreated when the size or the picking request changes; a buffer set
// with SetRenderBuffer is kept as is.
func (s *Scene) SetUseOffscreenBuffer(use, picking bool, width, height int) {
	s.useOffscreen = use
	if !use {
		return
	}
	if s.renderBuffer != nil {
		if !s.ownsRenderBuffer {
			return
		}
		if s.usePicking == picking && s.renderBufferSize == [2]int{width, height} {
			return
		}
		s.renderBuffer.Dispose()
	}
	bits := []int{16}
	if picking {
		bits = append(bits, 8)
	}
	s.renderBuffer = s.rc.CreateRenderTarget(RenderTargetDesc{
		Width:          width,
		Height:         height,
		BitsPerChannel: bits,
		HasDepth:       true,
	})
	s.ownsRenderBuffer = true
	s.renderBufferSize = [2]int{width, height}
	s.usePicking = picking
}

// UseOffscreenBuffer reports whether rendering goes to the offscreen
// buffer.
func (s *Scene) UseOffscreenBuffer() bool { return s.useOffscreen }

// SetRenderBuffer replaces the offscreen buffer with a caller-owned
// target. The scene will not dispose it.
func (s *Scene) SetRenderBuffer(rt RenderTarget, picking bool) {
	if s.ownsRenderBuffer && s.renderBuffer != nil && s.renderBuffer != rt {
		s.renderBuffer.Dispose()
	}
	s.renderBuffer = rt
	s.ownsRenderBuffer = false
	s.usePicking = picking
}

// RenderTarget returns the offscreen buffer, or nil.
func (s *Scene) RenderTarget() RenderTarget { return s.renderBuffer }

// PickPair returns the index of the rigid drawn at normalized screen point
// p by the last frame, or -1 when nothing was drawn there or picking is
// not enabled.
func (s *Scene) PickPair(p mgl32.Vec2) int {
	if !s.useOffscreen || !s.usePicking || s.renderBuffer == nil {
		return InvalidHandle
	}
	start := time.Now()
	s.renderBuffer.BindReadFrom(1)
	pixel := s.rc.GetPixel(p)
	s.renderBuffer.Unbind()

	idx := DecodePickingColor(pixel)
	if idx < 0 || idx >= s.rigids.Len() {
		idx = InvalidHandle
	}
	s.stats.PickingTime += time.Since(start)
	return idx
}

// PickObject returns the owner of the rigid at p, or nil.
func (s *Scene) PickObject(p mgl32.Vec2) any {
	idx := s.PickPair(p)
	if idx < 0 {
		return nil
	}
	return s.rigids.At(idx).Owner
}

// PickVA returns the mesh part drawn at p, or nil.
func (s *Scene) PickVA(p mgl32.Vec2) MeshRigid {
	idx := s.PickPair(p)
	if idx < 0 {
		return nil
	}
	r := s.rigids.Ptr(idx)
	if r.ID.Rigid < 0 {
		return nil
	}
	mesh := s.geoms[r.ID.Geom].CurrentMesh()
	if mesh == nil {
		return nil
	}
	return mesh.Rigid(r.ID.Rigid)
}

// PickInstance returns the geometry handle owning the rigid at p, or -1.
func (s *Scene) PickInstance(p mgl32.Vec2) int {
	idx := s.PickPair(p)
	if idx < 0 {
		return InvalidHandle
	}
	return s.rigids.At(idx).Instance
}
