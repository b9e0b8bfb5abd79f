package linden

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// LightArrays stores the lights as parallel arrays, the layout uploaded to
// the shaders. Index i of every slice describes light i. The arrays are
// only changed through push, removeAt and reset so they never go out of
// step.
type LightArrays struct {
	Types          []LightType
	Enabled        []bool
	Positions      []mgl32.Vec4
	Transforms     []mgl32.Mat4 // light view matrix
	Projections    []mgl32.Mat4
	ShadowMatrices []mgl32.Mat4 // Projection * Transform
	Attenuations   []mgl32.Vec4
	SpotDirections []mgl32.Vec4
	SpotParams     []mgl32.Vec4
	Ambient        []mgl32.Vec4
	Diffuse        []mgl32.Vec4
	Specular       []mgl32.Vec4
	ShadowMaps     []RenderTarget
}

// Len returns the number of lights.
func (a *LightArrays) Len() int { return len(a.Types) }

type lightParams struct {
	typ         LightType
	enabled     bool
	position    mgl32.Vec4
	transform   mgl32.Mat4
	projection  mgl32.Mat4
	attenuation mgl32.Vec4
	spotDir     mgl32.Vec4
	spotParams  mgl32.Vec4
	color       mgl32.Vec4
	shadowMap   RenderTarget
}

func (a *LightArrays) push(p lightParams) int {
	a.Types = append(a.Types, p.typ)
	a.Enabled = append(a.Enabled, p.enabled)
	a.Positions = append(a.Positions, p.position)
	a.Transforms = append(a.Transforms, p.transform)
	a.Projections = append(a.Projections, p.projection)
	a.ShadowMatrices = append(a.ShadowMatrices, p.projection.Mul4(p.transform))
	a.Attenuations = append(a.Attenuations, p.attenuation)
	a.SpotDirections = append(a.SpotDirections, p.spotDir)
	a.SpotParams = append(a.SpotParams, p.spotParams)
	a.Ambient = append(a.Ambient, p.color)
	a.Diffuse = append(a.Diffuse, p.color)
	a.Specular = append(a.Specular, p.color)
	a.ShadowMaps = append(a.ShadowMaps, p.shadowMap)
	return len(a.Types) - 1
}

// removeAt deletes light i from every array and returns its shadow map.
func (a *LightArrays) removeAt(i int) RenderTarget {
	rt := a.ShadowMaps[i]
	a.Types = removeIndex(a.Types, i)
	a.Enabled = removeIndex(a.Enabled, i)
	a.Positions = removeIndex(a.Positions, i)
	a.Transforms = removeIndex(a.Transforms, i)
	a.Projections = removeIndex(a.Projections, i)
	a.ShadowMatrices = removeIndex(a.ShadowMatrices, i)
	a.Attenuations = removeIndex(a.Attenuations, i)
	a.SpotDirections = removeIndex(a.SpotDirections, i)
	a.SpotParams = removeIndex(a.SpotParams, i)
	a.Ambient = removeIndex(a.Ambient, i)
	a.Diffuse = removeIndex(a.Diffuse, i)
	a.Specular = removeIndex(a.Specular, i)
	a.ShadowMaps = removeIndex(a.ShadowMaps, i)
	return rt
}

func (a *LightArrays) reset() {
	*a = LightArrays{}
}

func removeIndex[T any](s []T, i int) []T {
	copy(s[i:], s[i+1:])
	var zero T
	s[len(s)-1] = zero
	return s[:len(s)-1]
}

// AddNewLight adds a light at pos whose ambient, diffuse and specular
// colors are all color, and returns its index. Each light gets its own
// shadow map.
func (s *Scene) AddNewLight(t LightType, enabled bool, pos mgl32.Vec3, color Color, attenuation mgl32.Vec4) int {
	return s.lights.push(lightParams{
		typ:         t,
		enabled:     enabled,
		position:    pos.Vec4(1),
		transform:   mgl32.Translate3D(-pos[0], -pos[1], -pos[2]),
		projection:  s.lightProjection(),
		attenuation: attenuation,
		color:       color.Vec4(),
		shadowMap:   s.newShadowMap(),
	})
}

// AddPointLight adds an enabled omni light.
func (s *Scene) AddPointLight(pos mgl32.Vec3, color Color, attenuation mgl32.Vec4) int {
	return s.AddNewLight(LightOmni, true, pos, color, attenuation)
}

// AddDirLight adds an enabled directional light shining along dir. Its
// view matrix is an orthonormal basis looking down dir.
func (s *Scene) AddDirLight(dir mgl32.Vec3, color Color, attenuation mgl32.Vec4) int {
	d := dir.Normalize()
	up := mgl32.Vec3{0, 1, 0}
	if abs32(d.Dot(up)) > 0.99 {
		up = mgl32.Vec3{1, 0, 0}
	}
	side := d.Cross(up).Normalize()
	camUp := side.Cross(d)
	basis := mgl32.Mat4FromRows(side.Vec4(0), camUp.Vec4(0), d.Mul(-1).Vec4(0), mgl32.Vec4{0, 0, 0, 1})

	i := s.AddNewLight(LightDirectional, true, mgl32.Vec3{}, color, attenuation)
	s.lights.Positions[i] = d.Vec4(0)
	s.lights.Transforms[i] = basis
	s.lights.SpotDirections[i] = d.Vec4(0)
	s.updateLight(i)
	return i
}

// AddSpotLight adds an enabled spot light at pos aimed along dir.
// spotParams carries the cone parameters through to the shaders.
func (s *Scene) AddSpotLight(pos, dir mgl32.Vec3, color Color, attenuation, spotParams mgl32.Vec4) int {
	d := dir.Normalize()
	up := mgl32.Vec3{0, 1, 0}
	if abs32(d.Dot(up)) > 0.99 {
		up = mgl32.Vec3{1, 0, 0}
	}
	i := s.AddNewLight(LightSpot, true, pos, color, attenuation)
	s.lights.Transforms[i] = mgl32.LookAtV(pos, pos.Add(d), up)
	s.lights.SpotDirections[i] = d.Vec4(0)
	s.lights.SpotParams[i] = spotParams
	s.updateLight(i)
	return i
}

// RemoveLight deletes light i and disposes its shadow map. Later lights
// shift down by one.
func (s *Scene) RemoveLight(i int) error {
	if i < 0 || i >= s.lights.Len() {
		return fmt.Errorf("remove light %d: %w", i, ErrInvalidLight)
	}
	if rt := s.lights.removeAt(i); rt != nil {
		rt.Dispose()
	}
	return nil
}

// ClearLights removes every light.
func (s *Scene) ClearLights() {
	for _, rt := range s.lights.ShadowMaps {
		if rt != nil {
			rt.Dispose()
		}
	}
	s.lights.reset()
}

// NumLights returns the number of lights.
func (s *Scene) NumLights() int { return s.lights.Len() }

// Lights returns the light arrays. Callers must not resize them.
func (s *Scene) Lights() *LightArrays { return &s.lights }

// SetLightEnabled switches light i on or off.
func (s *Scene) SetLightEnabled(i int, enabled bool) error {
	if i < 0 || i >= s.lights.Len() {
		return fmt.Errorf("light %d: %w", i, ErrInvalidLight)
	}
	s.lights.Enabled[i] = enabled
	return nil
}

// SetLightTransform replaces the view matrix of light i.
func (s *Scene) SetLightTransform(i int, view mgl32.Mat4) error {
	if i < 0 || i >= s.lights.Len() {
		return fmt.Errorf("light %d: %w", i, ErrInvalidLight)
	}
	s.lights.Transforms[i] = view
	if s.lights.Types[i] != LightDirectional {
		s.lights.Positions[i] = view.Inv().Col(3)
	}
	s.updateLight(i)
	return nil
}

func (s *Scene) lightProjection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(s.cfg.LightFOV), s.rc.AspectRatio(), s.cfg.LightNear, s.cfg.LightFar)
}

func (s *Scene) newShadowMap() RenderTarget {
	size := s.cfg.ShadowMapSize
	return s.rc.CreateRenderTarget(RenderTargetDesc{
		Width:          size,
		Height:         size,
		BitsPerChannel: []int{8},
		HasDepth:       s.cfg.DepthBasedShadows,
	})
}

func (s *Scene) updateLight(i int) {
	s.lights.ShadowMatrices[i] = s.lights.Projections[i].Mul4(s.lights.Transforms[i])
}

// updateLights refreshes every shadow matrix before a frame.
func (s *Scene) updateLights() {
	for i := 0; i < s.lights.Len(); i++ {
		s.updateLight(i)
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
