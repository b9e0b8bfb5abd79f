package linden

import (
	"image/color"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// InvalidHandle is returned by lookups that find nothing and marks free
// geometry slots and root rigids.
const InvalidHandle = -1

// Color represents an RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// ColorWhite is the default light and debug color.
var ColorWhite = Color{1, 1, 1, 1}

// Vec4 returns the color as an mgl32.Vec4 in RGBA order.
func (c Color) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{c.R, c.G, c.B, c.A}
}

// rgba converts to a premultiplied color.RGBA.
func (c Color) rgba() color.RGBA {
	a := mgl32.Clamp(c.A, 0, 1)
	return color.RGBA{
		R: uint8(mgl32.Clamp(c.R, 0, 1)*a*255 + 0.5),
		G: uint8(mgl32.Clamp(c.G, 0, 1)*a*255 + 0.5),
		B: uint8(mgl32.Clamp(c.B, 0, 1)*a*255 + 0.5),
		A: uint8(a*255 + 0.5),
	}
}

// Pass identifies one rendering pass. Passes combine into bitmasks that
// materials and render operations use to opt in or out of each pass.
type Pass uint32

const (
	PassNormal         Pass = 1 << iota // forward color pass
	PassShadow                          // shadow map generation, once per light
	PassReflection                      // planar reflection maps
	PassDeferredNormal                  // deferred stage 1 (G-buffer fill)
	PassDeferredShadow                  // deferred shadow pass
)

// DefaultPassMask enables every pass. New materials start with it.
const DefaultPassMask = PassNormal | PassShadow | PassReflection | PassDeferredNormal | PassDeferredShadow

// shadowPasses are the passes that render into shadow maps.
const shadowPasses = PassShadow | PassDeferredShadow

var passNames = [...]string{"normal", "shadow", "reflection", "deferred-normal", "deferred-shadow"}

// String returns the pass names joined with "|", e.g. "normal|shadow".
func (p Pass) String() string {
	if p == 0 {
		return "none"
	}
	var parts []string
	for i, name := range passNames {
		if p&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

// LightType selects the light model used by the shaders.
type LightType uint8

const (
	LightSpot        LightType = iota // cone light with direction and spot params
	LightOmni                         // point light
	LightDirectional                  // infinitely distant light
)

func (t LightType) String() string {
	switch t {
	case LightSpot:
		return "spot"
	case LightOmni:
		return "omni"
	case LightDirectional:
		return "directional"
	default:
		return "unknown"
	}
}
