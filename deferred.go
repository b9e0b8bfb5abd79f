package linden

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// CompositionShader is the shader that combines the deferred attachments
// into the final image.
const CompositionShader = "MaterialSystem/default_pass2.shader"

// deferredAttachmentBits lists the G-buffer attachments: ambient, diffuse,
// normal and depth.
var deferredAttachmentBits = []int{16, 8, 32, 32}

// ErrDeferredNotAllocated is returned by RenderDeferred before
// AllocateDeferredBuffers.
var ErrDeferredNotAllocated = errors.New("linden: deferred buffers not allocated")

// AllocateDeferredBuffers creates the G-buffer and loads the composition
// shader. Calling it again while allocated does nothing.
func (s *Scene) AllocateDeferredBuffers(width, height int) error {
	if s.deferredBuffer != nil {
		return nil
	}
	st, err := s.res.LoadShader(CompositionShader)
	if err != nil {
		return fmt.Errorf("allocate deferred buffers: %w", err)
	}
	rt := s.rc.CreateRenderTarget(RenderTargetDesc{
		Width:          width,
		Height:         height,
		BitsPerChannel: deferredAttachmentBits,
		HasDepth:       true,
	})
	for i := range deferredAttachmentBits {
		st.SetTexture(i, rt.ColorTexture(i), false)
	}
	s.deferredBuffer = rt
	s.compositionState = st
	Logger().Info("deferred buffers allocated", slog.Int("width", width), slog.Int("height", height))
	return nil
}

// DeallocateDeferredBuffers releases the G-buffer.
func (s *Scene) DeallocateDeferredBuffers() {
	if s.deferredBuffer == nil {
		return
	}
	s.deferredBuffer.Dispose()
	s.deferredBuffer = nil
	s.compositionState = nil
}

// RenderDeferred draws one frame in two stages: the deferred-normal pass
// fills the G-buffer, then a full-screen composition pass writes the
// output.
func (s *Scene) RenderDeferred() error {
	if s.deferredBuffer == nil {
		return ErrDeferredNotAllocated
	}
	start := time.Now()

	s.RecalculateGlobalTransforms()
	s.SortScene()
	s.updateLights()

	s.emit(SceneEvent{Type: EventPreRender, Handle: InvalidHandle})

	s.deferredBuffer.Bind()
	s.rc.ClearRenderTarget(s.cfg.ClearColor, s.cfg.ClearDepth, s.cfg.ClearStencil)
	s.renderSortedScene(mgl32.Vec4{}, false, PassDeferredNormal, s.cfg.ShowNormals)
	s.deferredBuffer.Unbind()

	target := s.outputTarget()
	if target != nil {
		target.Bind()
	}
	s.rc.ClearRenderTarget(s.cfg.ClearColor, s.cfg.ClearDepth, s.cfg.ClearStencil)
	if !s.cfg.DisableRendering {
		if p := s.compositionState.Program(); p != nil {
			s.sceneUniforms = SceneUniforms{Pass: PassDeferredNormal, Lights: &s.lights}
			p.SetSceneUniforms(&s.sceneUniforms)
		}
		s.rc.FullscreenRect(s.compositionState)
		s.frameStats.drawCalls++
	}
	if target != nil {
		target.Unbind()
	}

	s.emit(SceneEvent{Type: EventPostRender, Handle: InvalidHandle})
	s.finishFrame(start)
	return nil
}
