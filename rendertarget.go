package linden

import (
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// --- Render texture pool ---

// renderTexturePool manages reusable offscreen ebiten.Images keyed by
// power-of-two dimensions. After warmup, Acquire/Release are zero-alloc.
type renderTexturePool struct {
	buckets map[uint64][]*ebiten.Image
}

// poolKey packs power-of-two width and height into a single uint64.
func poolKey(w, h int) uint64 {
	return uint64(w)<<32 | uint64(h)
}

// Acquire returns a cleared offscreen image with at least (w, h) pixels.
// Dimensions are rounded up to the next power of two.
func (p *renderTexturePool) Acquire(w, h int) *ebiten.Image {
	key := poolKey(nextPowerOfTwo(w), nextPowerOfTwo(h))
	if p.buckets != nil {
		if stack := p.buckets[key]; len(stack) > 0 {
			img := stack[len(stack)-1]
			p.buckets[key] = stack[:len(stack)-1]
			img.Clear()
			return img
		}
	}
	return ebiten.NewImageWithOptions(
		image.Rect(0, 0, nextPowerOfTwo(w), nextPowerOfTwo(h)),
		&ebiten.NewImageOptions{Unmanaged: true},
	)
}

// Release returns an image to the pool. It is cleared on the next Acquire.
func (p *renderTexturePool) Release(img *ebiten.Image) {
	if img == nil {
		return
	}
	b := img.Bounds()
	if p.buckets == nil {
		p.buckets = make(map[uint64][]*ebiten.Image)
	}
	key := poolKey(b.Dx(), b.Dy())
	p.buckets[key] = append(p.buckets[key], img)
}

// nextPowerOfTwo returns the smallest power of two >= n (minimum 1).
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << int(math.Ceil(math.Log2(float64(n))))
}

// ebitenTarget is a RenderTarget made of pooled images, one per color
// attachment. Ebiten has no depth buffers, so DepthTexture is always nil
// and triangles are ordered by the context instead.
type ebitenTarget struct {
	ctx         *EbitenContext
	w, h        int
	backing     []*ebiten.Image // pooled power-of-two images
	imgs        []*ebiten.Image // w x h views into backing
	attachments []*EbitenTexture
	disposed    bool
}

func (t *ebitenTarget) Bind() {
	t.ctx.bind(t)
}

func (t *ebitenTarget) Unbind() {
	t.ctx.unbind(t)
}

func (t *ebitenTarget) BindReadFrom(attachment int) {
	t.ctx.read = t
	t.ctx.readAttachment = attachment
}

func (t *ebitenTarget) ColorTexture(attachment int) Texture {
	if attachment < 0 || attachment >= len(t.attachments) {
		return nil
	}
	return t.attachments[attachment]
}

func (t *ebitenTarget) DepthTexture() Texture { return nil }

// Dispose returns the attachments to the context's pool.
func (t *ebitenTarget) Dispose() {
	if t.disposed {
		return
	}
	t.disposed = true
	t.ctx.unbind(t)
	for _, img := range t.backing {
		t.ctx.pool.Release(img)
	}
	t.backing = nil
	t.imgs = nil
	t.attachments = nil
}
