package linden

import "github.com/go-gl/mathgl/mgl32"

// The scene core drives the GPU, the resource loaders and the material
// compiler through the interfaces in this file. EbitenContext is one
// implementation; tests use recording fakes.

// Texture is a GPU texture handle. TextureID must be stable and unique for
// the lifetime of the texture; the scene maps it to a dense sort-key ID.
type Texture interface {
	TextureID() uint32
}

// VertexArray is an uploaded vertex buffer ready to be submitted.
type VertexArray interface {
	VertexCount() int
}

// MeshRigid describes the vertex attributes of one mesh part: its bounds,
// skinning and shadow flags.
type MeshRigid interface {
	BoundingBox() AABB
	// BoundingBoxInterpolated returns the box of the part at a point
	// between two animation frames.
	BoundingBoxInterpolated(frame, next int, lerp float32) AABB
	SkeletonFramesCount() int
	CastShadow() bool
	ReceiveShadow() bool
}

// AnimSequence is a named range of animation frames.
type AnimSequence struct {
	Name          string
	FirstFrame    int
	Frames        int
	LoopingFrames int
	FPS           float32
}

// Mesh is the current, fully loaded shape of a Geom: a list of rigid parts
// with their own local transforms, materials and optional internal parents.
type Mesh interface {
	RigidsCount() int
	Rigid(i int) MeshRigid
	VertexArray(i int) VertexArray
	LocalTransform(i int) mgl32.Mat4
	// ParentRef returns the index of the part's parent within the mesh, or
	// -1 when the part hangs off the instance scale node.
	ParentRef(i int) int
	// Material returns the part's material description, or nil for the
	// default material.
	Material(i int) *MaterialDesc
	AnimSequence(name string) (AnimSequence, bool)
	// PackedSkeleton returns the skinning texture of part i, or nil.
	PackedSkeleton(i int) Texture
}

// Geom is a geometry resource. Geoms are compared by identity, so
// implementations should be pointer types.
type Geom interface {
	// WaitLoad blocks until the resource is fully loaded.
	WaitLoad()
	CurrentMesh() Mesh
}

// ChangeNotifier is implemented by geoms that can be reloaded. The scene
// registers one callback per unique geom and re-adds every instance of
// it when the callback fires.
type ChangeNotifier interface {
	OnChange(fn func())
}

// ShaderProgram is a compiled GPU program. ProgramID must be stable and
// unique; the scene maps it to a dense sort-key ID.
type ShaderProgram interface {
	ProgramID() uint32
	SetSceneUniforms(u *SceneUniforms)
	SetRigidUniforms(u *RigidUniforms)
	SetTransformUniforms(m *Matrices)
	SetUniformMat4(name string, m mgl32.Mat4)
}

// RenderState is a shader program plus its fixed-function state and
// texture bindings, compiled for one material and one pass.
type RenderState interface {
	Program() ShaderProgram
	Blended() bool
	Texture(unit int) Texture
	SetTexture(unit int, tex Texture, mipmap bool)
}

// RenderTargetDesc describes an offscreen buffer. Each entry of
// BitsPerChannel adds one color attachment.
type RenderTargetDesc struct {
	Width, Height  int
	BitsPerChannel []int
	HasDepth       bool
}

// RenderTarget is an offscreen framebuffer with one or more color
// attachments.
type RenderTarget interface {
	// Bind directs subsequent drawing into all attachments.
	Bind()
	Unbind()
	// BindReadFrom selects the attachment read by RenderContext.GetPixel.
	BindReadFrom(attachment int)
	ColorTexture(attachment int) Texture
	DepthTexture() Texture
	Dispose()
}

// RenderContext is the GPU facade used by the passes.
type RenderContext interface {
	CreateRenderTarget(desc RenderTargetDesc) RenderTarget
	// AddBuffer submits a vertex array drawn with state. The program's
	// uniforms have already been set by the scene.
	AddBuffer(va VertexArray, state RenderState, instances int, wireframe bool)
	ClearRenderTarget(color, depth, stencil bool)
	// GetPixel reads the pixel at normalized coordinates of the target
	// selected with BindReadFrom, packed as 0xAABBGGRR.
	GetPixel(p mgl32.Vec2) uint32
	// FullscreenRect draws a screen-covering quad with state.
	FullscreenRect(state RenderState)
	// AspectRatio returns width/height of the default target.
	AspectRatio() float32
}

// DebugCanvas is optionally implemented by a RenderContext to draw the
// debug overlays enabled in SceneConfig.
type DebugCanvas interface {
	DrawBox(box AABB, viewProj mgl32.Mat4, c Color)
	DrawPoint(p mgl32.Vec3, viewProj mgl32.Mat4, c Color)
	DrawTexturedRect(x, y, w, h float32, tex Texture)
}

// Resources compiles materials into render states and loads named shaders.
type Resources interface {
	// RenderStateForPass compiles desc for one pass. A nil desc asks for
	// the default material.
	RenderStateForPass(desc *MaterialDesc, pass Pass) RenderState
	LoadShader(name string) (RenderState, error)
}

// SceneUniforms are uploaded once per shader program per pass.
type SceneUniforms struct {
	Pass         Pass
	Lights       *LightArrays
	ShadowMap    Texture
	ShadowMatrix mgl32.Mat4
	ClipPlane    mgl32.Vec4
	ClipEnabled  bool
	ShowNormals  bool
}

// RigidUniforms are uploaded before each draw.
type RigidUniforms struct {
	Material      *MaterialDesc
	PickingColor  mgl32.Vec4
	Keyframe      mgl32.Vec4
	Skinned       bool
	ReceiveShadow bool
}

// Matrices is the camera projection and view plus the current model
// matrix.
type Matrices struct {
	Projection mgl32.Mat4
	View       mgl32.Mat4
	Model      mgl32.Mat4
}

// ModelView returns View*Model.
func (m *Matrices) ModelView() mgl32.Mat4 {
	return m.View.Mul4(m.Model)
}

// MVP returns Projection*View*Model.
func (m *Matrices) MVP() mgl32.Mat4 {
	return m.Projection.Mul4(m.View).Mul4(m.Model)
}

// ViewProjection returns Projection*View.
func (m *Matrices) ViewProjection() mgl32.Mat4 {
	return m.Projection.Mul4(m.View)
}

// Eye returns the camera position in world space.
func (m *Matrices) Eye() mgl32.Vec3 {
	return m.View.Inv().Col(3).Vec3()
}
