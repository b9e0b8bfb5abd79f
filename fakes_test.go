package linden

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

const epsilon = 1e-4

// near compares with an absolute tolerance that scales up for large values.
// mgl32's ApproxEqualThreshold turns into epsilon² when one side is zero.
func near(a, b float32) bool {
	scale := max(1, math.Abs(float64(a)), math.Abs(float64(b)))
	return math.Abs(float64(a-b)) <= epsilon*scale
}

func assertNear(t *testing.T, name string, got, want float32) {
	t.Helper()
	if !near(got, want) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertMatrix(t *testing.T, name string, got, want mgl32.Mat4) {
	t.Helper()
	if !got.ApproxFuncEqual(want, near) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertVec3(t *testing.T, name string, got, want mgl32.Vec3) {
	t.Helper()
	if !got.ApproxFuncEqual(want, near) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

// mustHandle returns a checker for (handle, error) pairs:
// mustHandle(t)(s.AddGeom(g)).
func mustHandle(t *testing.T) func(int, error) int {
	return func(h int, err error) int {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return h
	}
}

func assertErrorIs(t *testing.T, name string, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Errorf("%s error = %v, want %v", name, err, target)
	}
}

// --- textures and vertex arrays ---

type fakeTexture struct{ id uint32 }

func (t *fakeTexture) TextureID() uint32 { return t.id }

type fakeVA struct{ n int }

func (v *fakeVA) VertexCount() int { return v.n }

// --- mesh and geom ---

type fakePart struct {
	box       AABB
	frames    int
	noCast    bool
	noReceive bool
}

func (p *fakePart) BoundingBox() AABB { return p.box }

// BoundingBoxInterpolated grows the box by frame+lerp along +X so tests
// can tell animated boxes apart.
func (p *fakePart) BoundingBoxInterpolated(frame, next int, lerp float32) AABB {
	d := float32(frame) + lerp
	return AABB{Min: p.box.Min, Max: p.box.Max.Add(mgl32.Vec3{d, 0, 0})}
}

func (p *fakePart) SkeletonFramesCount() int { return p.frames }
func (p *fakePart) CastShadow() bool         { return !p.noCast }
func (p *fakePart) ReceiveShadow() bool      { return !p.noReceive }

type fakeMesh struct {
	parts   []*fakePart
	vas     []*fakeVA
	locals  []mgl32.Mat4
	parents []int
	mtls    []*MaterialDesc
	skins   []Texture
	anims   map[string]AnimSequence
}

// newFakeMesh returns a mesh of n unit-box parts hanging off the scale
// node with the default material.
func newFakeMesh(n int) *fakeMesh {
	m := &fakeMesh{anims: map[string]AnimSequence{}}
	for i := 0; i < n; i++ {
		m.parts = append(m.parts, &fakePart{box: AABB{Min: mgl32.Vec3{-0.5, -0.5, -0.5}, Max: mgl32.Vec3{0.5, 0.5, 0.5}}})
		m.vas = append(m.vas, &fakeVA{n: 36})
		m.locals = append(m.locals, mgl32.Ident4())
		m.parents = append(m.parents, -1)
		m.mtls = append(m.mtls, nil)
		m.skins = append(m.skins, nil)
	}
	return m
}

func (m *fakeMesh) RigidsCount() int                { return len(m.parts) }
func (m *fakeMesh) Rigid(i int) MeshRigid           { return m.parts[i] }
func (m *fakeMesh) VertexArray(i int) VertexArray   { return m.vas[i] }
func (m *fakeMesh) LocalTransform(i int) mgl32.Mat4 { return m.locals[i] }
func (m *fakeMesh) ParentRef(i int) int             { return m.parents[i] }
func (m *fakeMesh) Material(i int) *MaterialDesc    { return m.mtls[i] }
func (m *fakeMesh) PackedSkeleton(i int) Texture    { return m.skins[i] }

func (m *fakeMesh) AnimSequence(name string) (AnimSequence, bool) {
	a, ok := m.anims[name]
	return a, ok
}

type fakeGeom struct {
	mesh      *fakeMesh
	waits     int
	listeners []func()
}

func newFakeGeom(parts int) *fakeGeom {
	return &fakeGeom{mesh: newFakeMesh(parts)}
}

func (g *fakeGeom) WaitLoad() { g.waits++ }

func (g *fakeGeom) CurrentMesh() Mesh {
	if g.mesh == nil {
		return nil
	}
	return g.mesh
}

func (g *fakeGeom) OnChange(fn func()) { g.listeners = append(g.listeners, fn) }

func (g *fakeGeom) reload(m *fakeMesh) {
	g.mesh = m
	for _, fn := range g.listeners {
		fn()
	}
}

// --- programs and states ---

type fakeProgram struct {
	id          uint32
	sceneCalls  int
	scene       SceneUniforms
	rigid       RigidUniforms
	matrices    Matrices
	uniformMat4 map[string]mgl32.Mat4
}

func (p *fakeProgram) ProgramID() uint32 { return p.id }

func (p *fakeProgram) SetSceneUniforms(u *SceneUniforms) {
	p.sceneCalls++
	p.scene = *u
}

func (p *fakeProgram) SetRigidUniforms(u *RigidUniforms) { p.rigid = *u }
func (p *fakeProgram) SetTransformUniforms(m *Matrices)  { p.matrices = *m }

func (p *fakeProgram) SetUniformMat4(name string, m mgl32.Mat4) {
	if p.uniformMat4 == nil {
		p.uniformMat4 = make(map[string]mgl32.Mat4)
	}
	p.uniformMat4[name] = m
}

type fakeState struct {
	prog    *fakeProgram
	blended bool
	pass    Pass
	desc    *MaterialDesc
	tex     [16]Texture
}

func (s *fakeState) Program() ShaderProgram {
	if s.prog == nil {
		return nil
	}
	return s.prog
}

func (s *fakeState) Blended() bool { return s.blended }

func (s *fakeState) Texture(unit int) Texture { return s.tex[unit] }

func (s *fakeState) SetTexture(unit int, tex Texture, mipmap bool) { s.tex[unit] = tex }

// fakeResources gives every pass its own program. Blended materials are
// those with AlphaTransparency; DiffuseMapOverride lands in unit 0.
type fakeResources struct {
	nextID   uint32
	programs map[Pass]*fakeProgram
	compiled int
	loaded   []string
	loadErr  error
}

func newFakeResources() *fakeResources {
	return &fakeResources{programs: make(map[Pass]*fakeProgram)}
}

func (r *fakeResources) newProgram() *fakeProgram {
	r.nextID++
	return &fakeProgram{id: r.nextID}
}

func (r *fakeResources) RenderStateForPass(desc *MaterialDesc, pass Pass) RenderState {
	r.compiled++
	p, ok := r.programs[pass]
	if !ok {
		p = r.newProgram()
		r.programs[pass] = p
	}
	st := &fakeState{prog: p, pass: pass, desc: desc}
	if desc != nil {
		st.blended = desc.AlphaTransparency
		st.tex[0] = desc.DiffuseMapOverride
	}
	return st
}

func (r *fakeResources) LoadShader(name string) (RenderState, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	r.loaded = append(r.loaded, name)
	return &fakeState{prog: r.newProgram()}, nil
}

// --- render context ---

type fakeTarget struct {
	rc       *fakeRC
	desc     RenderTargetDesc
	colors   []*fakeTexture
	depth    *fakeTexture
	disposed bool
	binds    int
	readFrom int
}

func (t *fakeTarget) Bind() {
	t.binds++
	t.rc.bound = t
}

func (t *fakeTarget) Unbind() {
	if t.rc.bound == t {
		t.rc.bound = nil
	}
}

func (t *fakeTarget) BindReadFrom(att int) {
	t.readFrom = att
	t.rc.read = t
}

func (t *fakeTarget) ColorTexture(att int) Texture {
	if att < 0 || att >= len(t.colors) {
		return nil
	}
	return t.colors[att]
}

func (t *fakeTarget) DepthTexture() Texture {
	if t.depth == nil {
		return nil
	}
	return t.depth
}

func (t *fakeTarget) Dispose() { t.disposed = true }

type drawCall struct {
	va        VertexArray
	state     *fakeState
	target    *fakeTarget
	pass      Pass
	rigid     RigidUniforms
	matrices  Matrices
	wireframe bool
}

type fakeRC struct {
	nextTex    uint32
	targets    []*fakeTarget
	bound      *fakeTarget
	read       *fakeTarget
	draws      []drawCall
	clears     []*fakeTarget
	fullscreen []*fakeTarget
	pixel      uint32
	pixelAt    mgl32.Vec2
	aspect     float32
}

func newFakeRC() *fakeRC { return &fakeRC{aspect: 4.0 / 3.0} }

func (rc *fakeRC) newTexture() *fakeTexture {
	rc.nextTex++
	return &fakeTexture{id: 1000 + rc.nextTex}
}

func (rc *fakeRC) CreateRenderTarget(desc RenderTargetDesc) RenderTarget {
	t := &fakeTarget{rc: rc, desc: desc, readFrom: -1}
	for range desc.BitsPerChannel {
		t.colors = append(t.colors, rc.newTexture())
	}
	if desc.HasDepth {
		t.depth = rc.newTexture()
	}
	rc.targets = append(rc.targets, t)
	return t
}

func (rc *fakeRC) AddBuffer(va VertexArray, state RenderState, instances int, wireframe bool) {
	st := state.(*fakeState)
	d := drawCall{va: va, state: st, target: rc.bound, wireframe: wireframe}
	if st.prog != nil {
		d.pass = st.prog.scene.Pass
		d.rigid = st.prog.rigid
		d.matrices = st.prog.matrices
	}
	rc.draws = append(rc.draws, d)
}

func (rc *fakeRC) ClearRenderTarget(color, depth, stencil bool) {
	rc.clears = append(rc.clears, rc.bound)
}

func (rc *fakeRC) GetPixel(p mgl32.Vec2) uint32 {
	rc.pixelAt = p
	return rc.pixel
}

func (rc *fakeRC) FullscreenRect(state RenderState) {
	rc.fullscreen = append(rc.fullscreen, rc.bound)
}

func (rc *fakeRC) AspectRatio() float32 { return rc.aspect }

// drawsFor returns the draws recorded for pass.
func (rc *fakeRC) drawsFor(pass Pass) []drawCall {
	var out []drawCall
	for _, d := range rc.draws {
		if d.pass == pass {
			out = append(out, d)
		}
	}
	return out
}

// fakeCanvasRC adds DebugCanvas to fakeRC.
type fakeCanvasRC struct {
	*fakeRC
	boxes, points, rects int
}

func (c *fakeCanvasRC) DrawBox(box AABB, viewProj mgl32.Mat4, col Color)       { c.boxes++ }
func (c *fakeCanvasRC) DrawPoint(p mgl32.Vec3, viewProj mgl32.Mat4, col Color) { c.points++ }
func (c *fakeCanvasRC) DrawTexturedRect(x, y, w, h float32, tex Texture)       { c.rects++ }

// newTestScene returns a scene over recording fakes with the default
// configuration.
func newTestScene(t *testing.T) (*Scene, *fakeRC, *fakeResources) {
	t.Helper()
	rc := newFakeRC()
	res := newFakeResources()
	return NewScene(rc, res, DefaultSceneConfig()), rc, res
}

// eventRecorder is an EventSink collecting every event.
type eventRecorder struct {
	events []SceneEvent
}

func (r *eventRecorder) EmitEvent(e SceneEvent) { r.events = append(r.events, e) }
