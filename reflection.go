package linden

import "github.com/go-gl/mathgl/mgl32"

// reflectionPlaneEpsilon is the per-component tolerance under which two
// material planes share one reflection map.
const reflectionPlaneEpsilon = 1e-3

type reflectionPlane struct {
	plane    mgl32.Vec4
	target   RenderTarget
	rendered bool
}

// addReflectionPlane returns the index of the reflection map for plane,
// creating one if no existing plane matches.
func (s *Scene) addReflectionPlane(plane mgl32.Vec4) int {
	for i := range s.reflections {
		if planesEqual(s.reflections[i].plane, plane, reflectionPlaneEpsilon) {
			return i
		}
	}
	size := s.cfg.ReflectionMapSize
	s.reflections = append(s.reflections, reflectionPlane{
		plane: plane,
		target: s.rc.CreateRenderTarget(RenderTargetDesc{
			Width:          size,
			Height:         size,
			BitsPerChannel: []int{16},
			HasDepth:       true,
		}),
	})
	return len(s.reflections) - 1
}

// ReflectionPlanesCount returns the number of distinct reflection planes
// seen so far.
func (s *Scene) ReflectionPlanesCount() int { return len(s.reflections) }

// updateReflections renders one reflection map per distinct plane used by
// a planar-reflective material and hands the map to every operation using
// that material.
func (s *Scene) updateReflections() {
	for i := range s.reflections {
		s.reflections[i].rendered = false
	}
	ops := s.renderOps.Slice()
	for i := range ops {
		mtl := s.rigids.At(ops[i].Rigid).MaterialRef
		desc := s.materials.Ptr(mtl)
		if !desc.PlanarReflection {
			continue
		}
		ri := s.addReflectionPlane(desc.ReflectionPlane)
		ops[i].PlanarReflection = s.reflections[ri].target.ColorTexture(0)
		if s.reflections[ri].rendered {
			continue
		}
		s.renderReflectionMap(ri, mtl)
		s.reflections[ri].rendered = true
	}
}

// renderReflectionMap draws the scene mirrored through the plane, clipped
// to the plane, into its map. The reflecting material itself is left out.
func (s *Scene) renderReflectionMap(ri, mtl int) {
	rp := &s.reflections[ri]
	savedView := s.camera.View
	savedMask := s.masks.At(mtl)

	s.masks.Set(mtl, savedMask&^PassReflection)
	s.camera.View = savedView.Mul4(MirrorMatrix(rp.plane))

	rp.target.Bind()
	s.rc.ClearRenderTarget(true, true, true)
	s.renderSortedScene(rp.plane, true, PassReflection, false)
	rp.target.Unbind()

	s.camera.View = savedView
	s.masks.Set(mtl, savedMask)
}

// disposeReflections releases every reflection map.
func (s *Scene) disposeReflections() {
	for _, rp := range s.reflections {
		rp.target.Dispose()
	}
	s.reflections = nil
}
