package linden

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// NamedTexture is an intermediate buffer of the last frame.
type NamedTexture struct {
	Label   string
	Texture Texture
}

// DebugTextures lists the attachments the last frame rendered into:
// shadow maps, reflection maps, the G-buffer, the eye buffers and the
// offscreen buffer. Missing attachments are skipped.
func (s *Scene) DebugTextures() []NamedTexture {
	var out []NamedTexture
	add := func(label string, rt RenderTarget, n int) {
		if rt == nil {
			return
		}
		for i := range n {
			if tex := rt.ColorTexture(i); tex != nil {
				out = append(out, NamedTexture{Label: fmt.Sprintf("%s-%d", label, i), Texture: tex})
			}
		}
	}
	for i, rt := range s.lights.ShadowMaps {
		add(fmt.Sprintf("shadow%d", i), rt, 1)
	}
	for i, rp := range s.reflections {
		add(fmt.Sprintf("reflection%d", i), rp.target, 1)
	}
	add("gbuffer", s.deferredBuffer, len(deferredAttachmentBits))
	add("left", s.stereo.left, 1)
	add("right", s.stereo.right, 1)
	if s.useOffscreen {
		n := 1
		if s.usePicking {
			n = 2
		}
		add("output", s.renderBuffer, n)
	}
	return out
}

// DumpBuffers saves every texture of DebugTextures to dir and returns the
// written paths. It stops at the first failure. Must be called from Draw.
func (s *Scene) DumpBuffers(dir string) ([]string, error) {
	var paths []string
	for _, nt := range s.DebugTextures() {
		path, err := SaveTexturePNG(nt.Texture, dir, nt.Label)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	Logger().Info("buffers dumped", slog.String("dir", dir), slog.Int("count", len(paths)))
	return paths, nil
}

// SaveTexturePNG writes tex to dir as a timestamped PNG named after label
// and returns the path. Only textures created by an EbitenContext can be
// saved.
func SaveTexturePNG(tex Texture, dir, label string) (string, error) {
	t, ok := tex.(*EbitenTexture)
	if !ok || t == nil || t.img == nil {
		return "", fmt.Errorf("save texture %q: not an ebiten texture", label)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("save texture %q: %w", label, err)
	}

	b := t.img.Bounds()
	pixels := make([]byte, 4*b.Dx()*b.Dy())
	t.img.ReadPixels(pixels)
	img := unpremultiply(pixels, b.Dx(), b.Dy())

	stamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, stamp+"_"+sanitizeLabel(label)+".png")
	if err := writePNG(path, img); err != nil {
		return "", err
	}
	Logger().Debug("texture saved", slog.String("path", path))
	return path, nil
}

// unpremultiply converts premultiplied RGBA pixels to straight alpha.
// Fully transparent pixels are copied unchanged.
func unpremultiply(pixels []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	copy(img.Pix, pixels)
	for i := 0; i+3 < len(img.Pix); i += 4 {
		a := int(img.Pix[i+3])
		if a == 0 || a == 255 {
			continue
		}
		for k := range 3 {
			img.Pix[i+k] = uint8(min(int(img.Pix[i+k])*255/a, 255))
		}
	}
	return img
}

// writePNG encodes an image to a PNG file at the given path.
func writePNG(path string, img *image.NRGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "unlabeled" for empty strings.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
