package linden

import "github.com/go-gl/mathgl/mgl32"

// ComposeTransform builds a local matrix from translation, rotation and
// scale, applied in the order Scale -> Rotate -> Translate.
func ComposeTransform(t mgl32.Vec3, r mgl32.Quat, scale mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(t[0], t[1], t[2]).
		Mul4(r.Mat4()).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}

// RecalculateGlobalTransforms refreshes the cached global matrix of every
// rigid when a local transform or an attachment changed since the last
// call. Global = ParentGlobal * Local, with matrices acting on column
// vectors.
func (s *Scene) RecalculateGlobalTransforms() {
	if !s.transformsDirty {
		return
	}
	rigids := s.rigids.Slice()
	for i := range rigids {
		r := &rigids[i]
		p := r.ParentRef
		if p < 0 {
			r.Global = r.Local
			continue
		}
		if p < i {
			// parent already refreshed in this pass
			r.Global = rigids[p].Global.Mul4(r.Local)
			continue
		}
		m := r.Local
		for ; p >= 0; p = rigids[p].ParentRef {
			m = rigids[p].Local.Mul4(m)
		}
		r.Global = m
	}
	s.transformsDirty = false
}

// SetLocalTransform sets the placement of instance h.
func (s *Scene) SetLocalTransform(h int, m mgl32.Mat4) error {
	inst, err := s.instance("set local transform", h)
	if err != nil {
		return err
	}
	s.rigids.Ptr(inst.Start).Local = m
	s.transformsDirty = true
	return nil
}

// LocalTransform returns the placement of instance h.
func (s *Scene) LocalTransform(h int) (mgl32.Mat4, error) {
	inst, err := s.instance("local transform", h)
	if err != nil {
		return mgl32.Mat4{}, err
	}
	return s.rigids.At(inst.Start).Local, nil
}

// SetScaleTransform sets the scale node of instance h, applied beneath
// the placement.
func (s *Scene) SetScaleTransform(h int, m mgl32.Mat4) error {
	inst, err := s.instance("set scale transform", h)
	if err != nil {
		return err
	}
	s.rigids.Ptr(inst.Start + 1).Local = m
	s.transformsDirty = true
	return nil
}

// ScaleTransform returns the scale node of instance h.
func (s *Scene) ScaleTransform(h int) (mgl32.Mat4, error) {
	inst, err := s.instance("scale transform", h)
	if err != nil {
		return mgl32.Mat4{}, err
	}
	return s.rigids.At(inst.Start + 1).Local, nil
}

// GlobalTransform returns the world matrix of instance h's placement,
// recalculating transforms first if needed.
func (s *Scene) GlobalTransform(h int) (mgl32.Mat4, error) {
	inst, err := s.instance("global transform", h)
	if err != nil {
		return mgl32.Mat4{}, err
	}
	s.RecalculateGlobalTransforms()
	return s.rigids.At(inst.Start).Global, nil
}

// RigidGlobalTransform returns the cached world matrix of rigid i. It is
// only current after RecalculateGlobalTransforms.
func (s *Scene) RigidGlobalTransform(i int) mgl32.Mat4 {
	return s.rigids.At(i).Global
}
