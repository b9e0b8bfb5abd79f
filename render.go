package linden

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Texture units reserved by the passes.
const (
	unitPackedSkeleton   = 0
	unitPlanarReflection = 7
	unitShadowMap        = 8
)

// RenderForward draws one frame with forward shading: shadow maps,
// reflection maps, then the normal pass. In stereo mode the scene is drawn
// once per eye and the two images are mixed.
func (s *Scene) RenderForward() {
	start := time.Now()
	if s.stereo.mode != StereoNone && s.stereo.ready() {
		s.renderStereo()
	} else {
		s.renderForwardInternal(s.outputTarget())
	}
	s.finishFrame(start)
}

// outputTarget returns the offscreen buffer when enabled, or nil for the
// default target.
func (s *Scene) outputTarget() RenderTarget {
	if s.useOffscreen {
		return s.renderBuffer
	}
	return nil
}

func (s *Scene) renderForwardInternal(target RenderTarget) {
	s.RecalculateGlobalTransforms()
	s.SortScene()
	s.updateLights()

	if s.cfg.EnableShadowPass {
		s.updateShadows()
	}
	if s.cfg.EnableReflectionPass {
		s.updateReflections()
	}

	if target != nil {
		target.Bind()
	}
	s.rc.ClearRenderTarget(s.cfg.ClearColor, s.cfg.ClearDepth, s.cfg.ClearStencil)
	s.emit(SceneEvent{Type: EventPreRender, Handle: InvalidHandle})

	s.renderSortedScene(mgl32.Vec4{}, false, PassNormal, s.cfg.ShowNormals)
	s.renderDebug()

	if target != nil {
		target.Unbind()
	}
	s.emit(SceneEvent{Type: EventPostRender, Handle: InvalidHandle})
}

// updateShadows renders the shadow pass into every enabled light's shadow
// map from the light's point of view.
func (s *Scene) updateShadows() {
	saved := s.camera
	for i := 0; i < s.lights.Len(); i++ {
		rt := s.lights.ShadowMaps[i]
		if !s.lights.Enabled[i] || rt == nil {
			continue
		}
		s.camera.View = s.lights.Transforms[i]
		s.camera.Projection = s.lights.Projections[i]

		rt.Bind()
		s.rc.ClearRenderTarget(true, true, true)
		s.renderSortedScene(mgl32.Vec4{}, false, PassShadow, false)
		rt.Unbind()
	}
	s.camera = saved
}

// shadowMapTexture returns the texture shaders sample shadows from: the
// depth attachment of the first light's map, or its color attachment when
// maps have no depth.
func (s *Scene) shadowMapTexture() Texture {
	if s.lights.Len() == 0 || s.lights.ShadowMaps[0] == nil {
		return nil
	}
	rt := s.lights.ShadowMaps[0]
	if t := rt.DepthTexture(); t != nil {
		return t
	}
	return rt.ColorTexture(0)
}

// updateShaders uploads the per-program uniforms shared by every draw of
// one pass.
func (s *Scene) updateShaders(clip mgl32.Vec4, clipEnabled bool, slot stateSlot, pass Pass, showNormals bool) {
	clear(s.programSet)
	s.programs = s.programs[:0]

	shadowMap := s.shadowMapTexture()
	u := &s.sceneUniforms
	*u = SceneUniforms{
		Pass:        pass,
		Lights:      &s.lights,
		ShadowMap:   shadowMap,
		ClipPlane:   clip,
		ClipEnabled: clipEnabled,
		ShowNormals: showNormals,
	}
	if shadowMap != nil {
		u.ShadowMatrix = s.lights.ShadowMatrices[0]
	}

	ops := s.renderOps.Slice()
	for i := range ops {
		st := s.states.At(s.rigids.At(ops[i].Rigid).MaterialRef)[slot]
		if st == nil {
			continue
		}
		st.SetTexture(unitShadowMap, shadowMap, false)
		p := st.Program()
		if p == nil {
			continue
		}
		if _, seen := s.programSet[p.ProgramID()]; seen {
			continue
		}
		s.programSet[p.ProgramID()] = struct{}{}
		s.programs = append(s.programs, p)
	}
	for _, p := range s.programs {
		p.SetSceneUniforms(u)
	}
}

// renderSortedScene submits every operation taking part in pass, in
// sorted order, with the current camera.
func (s *Scene) renderSortedScene(clip mgl32.Vec4, clipEnabled bool, pass Pass, showNormals bool) {
	if s.cfg.DisableRendering || s.renderOps.Len() == 0 {
		return
	}
	slot, ok := slotForPass(pass)
	if !ok {
		return
	}
	s.updateShaders(clip, clipEnabled, slot, pass, showNormals)

	cull := s.cfg.FrustumCulling
	var frustum Frustum
	if cull {
		frustum = FrustumFromMatrix(s.camera.ViewProjection())
		s.resetCullCache()
	}

	ops := s.renderOps.Slice()
	for i := range ops {
		op := &ops[i]
		r := s.rigids.Ptr(op.Rigid)
		if s.masks.At(r.MaterialRef)&pass == 0 || op.Mask&pass == 0 {
			continue
		}
		if cull && !s.instanceInFrustum(r.Instance, frustum) {
			s.frameStats.culled++
			continue
		}
		state := s.states.At(r.MaterialRef)[slot]
		if state == nil {
			continue
		}
		desc := s.materials.Ptr(r.MaterialRef)
		prog := state.Program()

		if prog != nil {
			s.rigidUniforms = RigidUniforms{
				Material:      desc,
				PickingColor:  PickingColor(op.Rigid),
				Keyframe:      r.Keyframer.Vec(),
				Skinned:       op.Skinned,
				ReceiveShadow: op.ReceiveShadow && r.ReceiveShadow,
			}
			prog.SetRigidUniforms(&s.rigidUniforms)
		}
		if op.PackedSkeleton != nil {
			state.SetTexture(unitPackedSkeleton, op.PackedSkeleton, false)
		}
		if op.PlanarReflection != nil {
			state.SetTexture(unitPlanarReflection, op.PlanarReflection, false)
		}

		s.camera.Model = r.Global
		if s.preAddBuffer != nil {
			s.preAddBuffer(state, r)
		}
		if prog != nil {
			prog.SetTransformUniforms(&s.camera)
		}
		s.rc.AddBuffer(op.VertexArray, state, 1, desc.Wireframe)
		s.frameStats.drawCalls++
	}
	s.camera.Model = mgl32.Ident4()
}

func (s *Scene) resetCullCache() {
	n := s.instances.Len()
	if cap(s.cullBoxes) < n {
		s.cullBoxes = make([]AABB, n)
		s.cullDone = make([]bool, n)
	}
	s.cullBoxes = s.cullBoxes[:n]
	s.cullDone = s.cullDone[:n]
	clear(s.cullDone)
}

// instanceInFrustum tests the whole interpolated box of instance h once
// per pass; every part of the instance shares the verdict.
func (s *Scene) instanceInFrustum(h int, f Frustum) bool {
	if !s.cullDone[h] {
		s.cullBoxes[h] = s.interpolatedBox(s.instances.Ptr(h))
		s.cullDone[h] = true
	}
	return f.IntersectsAABB(s.cullBoxes[h])
}

// renderDebug draws the overlays enabled in the config when the render
// context supports it.
func (s *Scene) renderDebug() {
	canvas, ok := s.rc.(DebugCanvas)
	if !ok {
		return
	}
	vp := s.camera.ViewProjection()

	if s.cfg.RenderBoxes {
		insts := s.instances.Slice()
		for h := range insts {
			if !insts[h].Free() {
				canvas.DrawBox(s.interpolatedBox(&insts[h]), vp, Color{1, 1, 0, 1})
			}
		}
	}
	if s.cfg.RenderLights {
		for i := 0; i < s.lights.Len(); i++ {
			if s.lights.Types[i] == LightDirectional {
				continue
			}
			d := s.lights.Diffuse[i]
			canvas.DrawPoint(s.lights.Positions[i].Vec3(), vp, Color{d[0], d[1], d[2], 1})
		}
	}

	const thumb = 0.2
	if s.cfg.RenderReflections {
		for i, rp := range s.reflections {
			canvas.DrawTexturedRect(float32(i)*thumb, 0, thumb, thumb, rp.target.ColorTexture(0))
		}
	}
	if s.cfg.RenderShadowMaps {
		for i, rt := range s.lights.ShadowMaps {
			if rt != nil {
				canvas.DrawTexturedRect(float32(i)*thumb, 1-thumb, thumb, thumb, rt.ColorTexture(0))
			}
		}
	}
}
