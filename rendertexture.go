package linden

import (
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
)

var nextTextureID atomic.Uint32

// EbitenTexture wraps an ebiten.Image as a Texture.
type EbitenTexture struct {
	id  uint32
	img *ebiten.Image
}

// NewEbitenTexture wraps img with a fresh texture ID.
func NewEbitenTexture(img *ebiten.Image) *EbitenTexture {
	return &EbitenTexture{id: nextTextureID.Add(1), img: img}
}

// TextureID returns the texture's unique ID.
func (t *EbitenTexture) TextureID() uint32 { return t.id }

// Image returns the underlying *ebiten.Image.
func (t *EbitenTexture) Image() *ebiten.Image { return t.img }

// Width returns the texture width in pixels.
func (t *EbitenTexture) Width() int { return t.img.Bounds().Dx() }

// Height returns the texture height in pixels.
func (t *EbitenTexture) Height() int { return t.img.Bounds().Dy() }
