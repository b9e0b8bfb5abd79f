package linden

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// --- Kage shader sources ---
// All shaders use //kage:unit pixels. Every source image of a full-screen
// pass has the size of the destination, so src addresses all of them.

// anaglyphShaderSrc mixes the two eye images through a pair of 4x4 color
// matrices.
const anaglyphShaderSrc = `//kage:unit pixels
package main

var LeftEyeCoefs mat4
var RightEyeCoefs mat4

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	l := imageSrc0At(src)
	r := imageSrc1At(src)
	c := LeftEyeCoefs*vec4(l.rgb, 0) + RightEyeCoefs*vec4(r.rgb, 0)
	return vec4(clamp(c.rgb, vec3(0), vec3(1)), 1)
}
`

// sideBySideShaderSrc squeezes the left eye into the left half and the
// right eye into the right half.
const sideBySideShaderSrc = `//kage:unit pixels
package main

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	origin := imageSrc0Origin()
	size := imageSrc0Size()
	p := src - origin
	half := size.x / 2
	if p.x < half {
		return imageSrc0At(origin + vec2(p.x*2, p.y))
	}
	return imageSrc1At(origin + vec2((p.x-half)*2, p.y))
}
`

// compositionShaderSrc lights the G-buffer: 0 ambient, 1 albedo,
// 2 packed normal, 3 depth.
const compositionShaderSrc = `//kage:unit pixels
package main

var LightDir vec3
var LightColor vec3

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	amb := imageSrc0At(src)
	alb := imageSrc1At(src)
	if alb.a == 0 {
		return amb
	}
	n := imageSrc2At(src).xyz*2 - 1
	lit := 1.0
	if length(LightDir) > 0 && length(n) > 0 {
		lit = max(dot(normalize(n), normalize(LightDir)), 0)
	}
	return vec4(clamp(amb.rgb+alb.rgb*LightColor*lit, vec3(0), vec3(1)), 1)
}
`

// builtinShaders maps the shader names loaded by the scene to Kage sources.
var builtinShaders = map[string]string{
	AnaglyphShader:    anaglyphShaderSrc,
	SideBySideShader:  sideBySideShaderSrc,
	CompositionShader: compositionShaderSrc,
}

// compileShader compiles a Kage source.
func compileShader(name string, src []byte) (*ebiten.Shader, error) {
	s, err := ebiten.NewShader(src)
	if err != nil {
		return nil, &ShaderError{Name: name, Err: err}
	}
	return s, nil
}

// ShaderError reports a Kage compilation failure.
type ShaderError struct {
	Name string
	Err  error
}

func (e *ShaderError) Error() string { return "compile shader " + e.Name + ": " + e.Err.Error() }
func (e *ShaderError) Unwrap() error { return e.Err }
