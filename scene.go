package linden

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Scene owns the geometry instances, their flattened rigid hierarchy, the
// material registry, the lights and the sorted render operation list, and
// runs every rendering pass over them.
//
// A Scene is not safe for concurrent use. All calls must come from the
// thread that owns the render context.
type Scene struct {
	rc  RenderContext
	res Resources
	cfg SceneConfig

	geoms     []Geom
	instances Stream[GeomInstance]
	rigids    Stream[RigidInstance]
	renderOps Stream[RenderOperation]
	sortBuf   []RenderOperation

	materials Stream[MaterialDesc]
	masks     Stream[Pass]
	shadowOff Stream[Pass] // shadow bits removed because CastShadow is false
	states    Stream[passStates]

	lights LightArrays
	camera Matrices

	transformsDirty bool
	sortDirty       bool
	needsRebuild    bool

	keys        keyRegistry
	reflections []reflectionPlane

	renderBuffer     RenderTarget
	ownsRenderBuffer bool
	renderBufferSize [2]int
	useOffscreen     bool
	usePicking       bool

	deferredBuffer   RenderTarget
	compositionState RenderState

	stereo stereoState

	updaters  []updaterEntry
	updateBuf []updaterEntry
	paused    bool

	events       EventSink
	preAddBuffer func(state RenderState, r *RigidInstance)

	stats      Stats
	frameStats debugStats

	// scratch reused across frames
	sceneUniforms SceneUniforms
	rigidUniforms RigidUniforms
	programSet    map[uint32]struct{}
	programs      []ShaderProgram
	cullBoxes     []AABB
	cullDone      []bool
}

// NewScene creates an empty scene drawing through rc and compiling
// materials with res. A zero cfg selects DefaultSceneConfig.
func NewScene(rc RenderContext, res Resources, cfg SceneConfig) *Scene {
	if rc == nil || res == nil {
		panic("linden: NewScene requires a RenderContext and Resources")
	}
	if cfg.isZero() {
		cfg = DefaultSceneConfig()
	}
	s := &Scene{
		rc:              rc,
		res:             res,
		cfg:             cfg,
		transformsDirty: true,
		sortDirty:       true,
		programSet:      make(map[uint32]struct{}),
		stereo:          newStereoState(cfg),
	}
	s.camera.Projection = mgl32.Perspective(mgl32.DegToRad(45), rc.AspectRatio(), 0.1, 1000)
	s.camera.View = mgl32.Ident4()
	s.camera.Model = mgl32.Ident4()

	// material 0 is the default material
	def := DefaultMaterialDesc()
	s.pushNewMaterial(&def)
	return s
}

// Config returns the scene's current configuration.
func (s *Scene) Config() SceneConfig { return s.cfg }

// SetDebugMode enables structural invariant checks and per-frame stats
// logging.
func (s *Scene) SetDebugMode(enabled bool) { s.cfg.Debug = enabled }

// SetCameraProjection sets the camera projection matrix.
func (s *Scene) SetCameraProjection(m mgl32.Mat4) {
	s.camera.Projection = m
	s.sortDirty = true
}

// CameraProjection returns the camera projection matrix.
func (s *Scene) CameraProjection() mgl32.Mat4 { return s.camera.Projection }

// SetCameraTransform sets the camera view matrix. Depth in the sort keys
// is measured from this camera, so moving it marks the sort dirty.
func (s *Scene) SetCameraTransform(view mgl32.Mat4) {
	s.camera.View = view
	s.sortDirty = true
}

// CameraTransform returns the camera view matrix.
func (s *Scene) CameraTransform() mgl32.Mat4 { return s.camera.View }

// SetClearFlags selects which buffers are cleared before the normal pass.
func (s *Scene) SetClearFlags(color, depth, stencil bool) {
	s.cfg.ClearColor, s.cfg.ClearDepth, s.cfg.ClearStencil = color, depth, stencil
}

// ClearFlags returns the buffers cleared before the normal pass.
func (s *Scene) ClearFlags() (color, depth, stencil bool) {
	return s.cfg.ClearColor, s.cfg.ClearDepth, s.cfg.ClearStencil
}

// SetDepthBasedShadows switches between dedicated shadow states and
// reusing the normal state. Only materials added afterwards are affected.
func (s *Scene) SetDepthBasedShadows(enabled bool) { s.cfg.DepthBasedShadows = enabled }

// DepthBasedShadows reports whether dedicated shadow states are compiled.
func (s *Scene) DepthBasedShadows() bool { return s.cfg.DepthBasedShadows }

// SetFrustumCulling enables culling of instances outside the camera
// frustum.
func (s *Scene) SetFrustumCulling(enabled bool) { s.cfg.FrustumCulling = enabled }

// FrustumCulling reports whether frustum culling is enabled.
func (s *Scene) FrustumCulling() bool { return s.cfg.FrustumCulling }

// SetShadowPass enables or disables shadow map rendering.
func (s *Scene) SetShadowPass(enabled bool) { s.cfg.EnableShadowPass = enabled }

// SetReflectionPass enables or disables planar reflection rendering.
func (s *Scene) SetReflectionPass(enabled bool) { s.cfg.EnableReflectionPass = enabled }

// SetRenderingDisabled turns every draw into a no-op while keeping
// transforms and sorting up to date.
func (s *Scene) SetRenderingDisabled(disabled bool) { s.cfg.DisableRendering = disabled }

// SetPreAddBufferCallback installs fn to be called right before each
// submission, after all uniforms are set.
func (s *Scene) SetPreAddBufferCallback(fn func(state RenderState, r *RigidInstance)) {
	s.preAddBuffer = fn
}

// SetEventSink routes render and reload events to sink. Pass nil to stop.
func (s *Scene) SetEventSink(sink EventSink) { s.events = sink }

// RenderOperations returns the current render operation list. After
// SortScene it is in draw order. Callers must not modify it.
func (s *Scene) RenderOperations() []RenderOperation { return s.renderOps.Slice() }

// Rigids returns the flattened rigid array. Callers must not modify it.
func (s *Scene) Rigids() []RigidInstance { return s.rigids.Slice() }

// RigidsCount returns the number of rigids, including the two synthetic
// rigids of every instance.
func (s *Scene) RigidsCount() int { return s.rigids.Len() }

// NeedsSort reports whether the next SortScene will re-sort.
func (s *Scene) NeedsSort() bool { return s.sortDirty }

// NeedsRebuild reports whether render operations are stale.
func (s *Scene) NeedsRebuild() bool { return s.needsRebuild }

// TransformsDirty reports whether global transforms are stale.
func (s *Scene) TransformsDirty() bool { return s.transformsDirty }

// Dispose releases every render target the scene created: shadow maps,
// reflection maps, eye buffers, the G-buffer and an owned offscreen
// buffer. The scene must not be rendered afterwards.
func (s *Scene) Dispose() {
	s.ClearLights()
	s.disposeReflections()
	s.stereo.dispose()
	s.DeallocateDeferredBuffers()
	if s.ownsRenderBuffer && s.renderBuffer != nil {
		s.renderBuffer.Dispose()
	}
	s.renderBuffer = nil
}
