package linden

import (
	"fmt"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
)

const (
	maxTextureUnits = 16
	// ebitenDiffuseUnit is the unit EbitenContext samples for the diffuse
	// map. It is also the unit the sort key reads.
	ebitenDiffuseUnit = 0
)

var nextProgramID atomic.Uint32

// EbitenProgram is the ShaderProgram of EbitenContext. A program without a
// Kage shader drives the built-in triangle rasterizer; one with a shader
// runs it over a full-screen rect.
type EbitenProgram struct {
	id       uint32
	shader   *ebiten.Shader
	uniforms map[string]any

	scene    SceneUniforms
	rigid    RigidUniforms
	matrices Matrices
}

func newEbitenProgram(shader *ebiten.Shader) *EbitenProgram {
	return &EbitenProgram{
		id:       nextProgramID.Add(1),
		shader:   shader,
		uniforms: make(map[string]any, 4),
		matrices: Matrices{Projection: mgl32.Ident4(), View: mgl32.Ident4(), Model: mgl32.Ident4()},
	}
}

func (p *EbitenProgram) ProgramID() uint32 { return p.id }

func (p *EbitenProgram) SetSceneUniforms(u *SceneUniforms) { p.scene = *u }
func (p *EbitenProgram) SetRigidUniforms(u *RigidUniforms) { p.rigid = *u }
func (p *EbitenProgram) SetTransformUniforms(m *Matrices)  { p.matrices = *m }

// SetUniformMat4 stores a Kage mat4 uniform. The backing slice is reused
// across calls.
func (p *EbitenProgram) SetUniformMat4(name string, m mgl32.Mat4) {
	p.setFloats(name, m[:])
}

// SetUniformVec3 stores a Kage vec3 uniform.
func (p *EbitenProgram) SetUniformVec3(name string, v mgl32.Vec3) {
	p.setFloats(name, v[:])
}

func (p *EbitenProgram) setFloats(name string, v []float32) {
	buf, ok := p.uniforms[name].([]float32)
	if !ok || len(buf) != len(v) {
		buf = make([]float32, len(v))
		p.uniforms[name] = buf
	}
	copy(buf, v)
}

// syncLightUniforms exposes the first enabled light to Kage shaders as
// LightDir (towards the light) and LightColor.
func (p *EbitenProgram) syncLightUniforms() {
	dir := mgl32.Vec3{}
	col := mgl32.Vec3{1, 1, 1}
	if l := p.scene.Lights; l != nil {
		for i := 0; i < l.Len(); i++ {
			if !l.Enabled[i] {
				continue
			}
			dir = lightDirection(l, i, mgl32.Vec3{})
			col = l.Diffuse[i].Vec3()
			break
		}
	}
	p.SetUniformVec3("LightDir", dir)
	p.SetUniformVec3("LightColor", col)
}

// lightDirection returns the unit vector from world towards light i, or
// zero when it is undefined.
func lightDirection(l *LightArrays, i int, world mgl32.Vec3) mgl32.Vec3 {
	pos := l.Positions[i]
	var d mgl32.Vec3
	if l.Types[i] == LightDirectional || pos.W() == 0 {
		d = pos.Vec3().Mul(-1)
	} else {
		d = pos.Vec3().Sub(world)
	}
	if d.Len() == 0 {
		return mgl32.Vec3{}
	}
	return d.Normalize()
}

// EbitenState is the RenderState of EbitenContext.
type EbitenState struct {
	program  *EbitenProgram
	blended  bool
	textures [maxTextureUnits]Texture
}

func (s *EbitenState) Program() ShaderProgram {
	if s.program == nil {
		return nil
	}
	return s.program
}

func (s *EbitenState) Blended() bool { return s.blended }

func (s *EbitenState) Texture(unit int) Texture {
	if unit < 0 || unit >= maxTextureUnits {
		return nil
	}
	return s.textures[unit]
}

// SetTexture binds tex to unit. Ebiten images carry no mipmaps, so mipmap
// is ignored.
func (s *EbitenState) SetTexture(unit int, tex Texture, mipmap bool) {
	if unit < 0 || unit >= maxTextureUnits {
		return
	}
	s.textures[unit] = tex
}

// image returns the ebiten image bound to unit, or nil.
func (s *EbitenState) image(unit int) *ebiten.Image {
	if t, ok := s.Texture(unit).(*EbitenTexture); ok && t != nil {
		return t.img
	}
	return nil
}

// EbitenResources compiles materials for EbitenContext. Every material of
// a pass shares that pass's program, so the sort key orders them by
// diffuse texture. Named Kage shaders are compiled on first load.
type EbitenResources struct {
	passPrograms map[Pass]*EbitenProgram
	shaders      map[string]string
	compiled     map[string]*ebiten.Shader
	textures     map[string]Texture
}

// NewEbitenResources returns resources with the stereo and deferred
// composition shaders registered.
func NewEbitenResources() *EbitenResources {
	r := &EbitenResources{
		passPrograms: make(map[Pass]*EbitenProgram),
		shaders:      make(map[string]string, len(builtinShaders)),
		compiled:     make(map[string]*ebiten.Shader),
		textures:     make(map[string]Texture),
	}
	for name, src := range builtinShaders {
		r.shaders[name] = src
	}
	return r
}

// RegisterShader makes a Kage source loadable under name, replacing any
// earlier source with that name.
func (r *EbitenResources) RegisterShader(name, src string) {
	r.shaders[name] = src
	delete(r.compiled, name)
}

// RegisterTexture makes tex available to materials whose Maps.Diffuse is
// name.
func (r *EbitenResources) RegisterTexture(name string, tex Texture) {
	r.textures[name] = tex
}

func (r *EbitenResources) passProgram(pass Pass) *EbitenProgram {
	p, ok := r.passPrograms[pass]
	if !ok {
		p = newEbitenProgram(nil)
		r.passPrograms[pass] = p
	}
	return p
}

// RenderStateForPass returns a fresh state bound to the pass program.
func (r *EbitenResources) RenderStateForPass(desc *MaterialDesc, pass Pass) RenderState {
	if desc == nil {
		d := DefaultMaterialDesc()
		desc = &d
	}
	st := &EbitenState{
		program: r.passProgram(pass),
		blended: desc.AlphaTransparency || desc.Properties.Transparency > 0,
	}
	tex := desc.DiffuseMapOverride
	if tex == nil && desc.Maps.Diffuse != "" {
		tex = r.textures[desc.Maps.Diffuse]
	}
	st.textures[ebitenDiffuseUnit] = tex
	return st
}

// LoadShader compiles the Kage shader registered under name.
func (r *EbitenResources) LoadShader(name string) (RenderState, error) {
	src, ok := r.shaders[name]
	if !ok {
		return nil, fmt.Errorf("load shader %q: %w", name, ErrUnknownShader)
	}
	sh, ok := r.compiled[name]
	if !ok {
		var err error
		sh, err = compileShader(name, []byte(src))
		if err != nil {
			return nil, fmt.Errorf("load shader %q: %w", name, err)
		}
		r.compiled[name] = sh
	}
	return &EbitenState{program: newEbitenProgram(sh)}, nil
}
