package linden

import (
	"image"
	"image/color"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// maxBatchVertices keeps a DrawTriangles batch within uint16 indices.
const maxBatchVertices = 65532

// nearW drops triangles with a vertex behind or on the camera plane.
const nearW = 1e-4

// pendingTri is a projected triangle waiting for the painter's sort.
type pendingTri struct {
	depth  float32
	attach int
	wire   bool
	src    *ebiten.Image
	v      [3]ebiten.Vertex
}

// projVertex is a mesh vertex after the vertex stage.
type projVertex struct {
	x, y, z, w float32
	world      mgl32.Vec3
	normal     mgl32.Vec3
	srcX, srcY float32
}

// EbitenContext is a RenderContext that rasterizes meshes on the CPU-side
// vertex stage and draws them with ebiten.DrawTriangles. It has no depth
// buffer: triangles are collected per target and drawn back to front when
// the target is unbound or Flush is called. Back faces are culled.
//
// Every attachment is 8 bits per channel regardless of the requested
// format.
type EbitenContext struct {
	width, height int
	screen        *ebiten.Image

	bound          *ebitenTarget
	read           *ebitenTarget
	readAttachment int

	pool  renderTexturePool
	white *ebiten.Image

	pending []pendingTri
	proj    []projVertex
	verts   []ebiten.Vertex
	inds    []uint16
	screens [1]*ebiten.Image

	triOpts    ebiten.DrawTrianglesOptions
	shaderOpts ebiten.DrawRectShaderOptions
	imgOpts    ebiten.DrawImageOptions
}

// NewEbitenContext returns a context whose default target has the given
// size. Call Frame from ebiten.Game.Draw to render into the screen.
func NewEbitenContext(width, height int) *EbitenContext {
	return &EbitenContext{width: width, height: height}
}

// Resize changes the size reported for the default target.
func (c *EbitenContext) Resize(width, height int) {
	c.width, c.height = width, height
}

// Frame makes screen the default target, runs render and flushes.
func (c *EbitenContext) Frame(screen *ebiten.Image, render func()) {
	c.screen = screen
	if screen != nil {
		b := screen.Bounds()
		c.width, c.height = b.Dx(), b.Dy()
	}
	render()
	c.Flush()
	c.screen = nil
}

// Flush draws the triangles queued for the current target.
func (c *EbitenContext) Flush() {
	c.flush()
}

func (c *EbitenContext) bind(t *ebitenTarget) {
	if c.bound == t {
		return
	}
	c.flush()
	c.bound = t
}

func (c *EbitenContext) unbind(t *ebitenTarget) {
	if c.bound == t {
		c.flush()
		c.bound = nil
	}
	if c.read == t {
		c.read = nil
	}
}

// destinations returns the images drawn by AddBuffer: every attachment of
// the bound target, or the screen.
func (c *EbitenContext) destinations() []*ebiten.Image {
	if c.bound != nil {
		return c.bound.imgs
	}
	if c.screen == nil {
		return nil
	}
	c.screens[0] = c.screen
	return c.screens[:]
}

func (c *EbitenContext) whitePixel() *ebiten.Image {
	if c.white == nil {
		c.white = ebiten.NewImage(1, 1)
		c.white.Fill(color.White)
	}
	return c.white
}

// CreateRenderTarget acquires one pooled image per color attachment.
func (c *EbitenContext) CreateRenderTarget(desc RenderTargetDesc) RenderTarget {
	t := &ebitenTarget{ctx: c, w: desc.Width, h: desc.Height}
	n := max(len(desc.BitsPerChannel), 1)
	for range n {
		back := c.pool.Acquire(desc.Width, desc.Height)
		img := back.SubImage(image.Rect(0, 0, desc.Width, desc.Height)).(*ebiten.Image)
		t.backing = append(t.backing, back)
		t.imgs = append(t.imgs, img)
		t.attachments = append(t.attachments, NewEbitenTexture(img))
	}
	return t
}

// ClearRenderTarget clears the current target. Clearing depth alone ends
// the painter's sort so later triangles draw over earlier ones.
func (c *EbitenContext) ClearRenderTarget(clearColor, depth, stencil bool) {
	if clearColor {
		c.pending = c.pending[:0]
		for _, img := range c.destinations() {
			img.Clear()
		}
		return
	}
	if depth {
		c.flush()
	}
}

// AddBuffer runs the vertex stage for an *EbitenMesh drawn with an
// *EbitenState and queues its triangles. Other types are ignored.
func (c *EbitenContext) AddBuffer(va VertexArray, state RenderState, instances int, wireframe bool) {
	mesh, ok := va.(*EbitenMesh)
	if !ok || mesh == nil {
		return
	}
	st, ok := state.(*EbitenState)
	if !ok || st.program == nil {
		return
	}
	dsts := c.destinations()
	if len(dsts) == 0 || instances <= 0 {
		return
	}
	p := st.program
	b := dsts[0].Bounds()
	w, h := float32(b.Dx()), float32(b.Dy())

	src := st.image(ebitenDiffuseUnit)
	if src == nil {
		src = c.whitePixel()
	}
	sb := src.Bounds()
	sw, sh := float32(sb.Dx()), float32(sb.Dy())

	mvp := p.matrices.MVP()
	model := p.matrices.Model
	nm := model.Mat3()
	flip := p.matrices.ModelView().Mat3().Det() < 0

	c.proj = c.proj[:0]
	for i := range mesh.Vertices {
		mv := &mesh.Vertices[i]
		clip := mvp.Mul4x1(mv.Position.Vec4(1))
		pv := projVertex{
			w:     clip.W(),
			world: model.Mul4x1(mv.Position.Vec4(1)).Vec3(),
			srcX:  float32(sb.Min.X) + mv.UV.X()*sw,
			srcY:  float32(sb.Min.Y) + mv.UV.Y()*sh,
		}
		if n := nm.Mul3x1(mv.Normal); n.Len() > 0 {
			pv.normal = n.Normalize()
		}
		if pv.w > nearW {
			ndc := clip.Vec3().Mul(1 / pv.w)
			pv.x = float32(b.Min.X) + (ndc.X()*0.5+0.5)*w
			pv.y = float32(b.Min.Y) + (0.5-ndc.Y()*0.5)*h
			pv.z = ndc.Z()*0.5 + 0.5
		}
		c.proj = append(c.proj, pv)
	}

	for t := 0; t+2 < len(mesh.Indices); t += 3 {
		a := &c.proj[mesh.Indices[t]]
		bv := &c.proj[mesh.Indices[t+1]]
		cv := &c.proj[mesh.Indices[t+2]]
		if a.w <= nearW || bv.w <= nearW || cv.w <= nearW {
			continue
		}
		if p.scene.ClipEnabled && clipped(p.scene.ClipPlane, a, bv, cv) {
			continue
		}
		area := (bv.x-a.x)*(cv.y-a.y) - (cv.x-a.x)*(bv.y-a.y)
		front := area < 0
		if flip {
			front = !front
		}
		if !front && !wireframe {
			continue
		}
		depth := (a.w + bv.w + cv.w) / 3
		for att := range dsts {
			tri := pendingTri{depth: depth, attach: att, wire: wireframe, src: src}
			written := true
			for k, pv := range [3]*projVertex{a, bv, cv} {
				col, ok := c.vertexColor(p, att, pv)
				if !ok {
					written = false
					break
				}
				tri.v[k] = ebiten.Vertex{
					DstX: pv.x, DstY: pv.y,
					SrcX: pv.srcX, SrcY: pv.srcY,
					ColorR: col[0], ColorG: col[1], ColorB: col[2], ColorA: col[3],
				}
			}
			if written {
				c.pending = append(c.pending, tri)
			}
		}
	}
}

// clipped reports whether the triangle lies entirely behind plane.
func clipped(plane mgl32.Vec4, a, b, c *projVertex) bool {
	return plane.Dot(a.world.Vec4(1)) < 0 &&
		plane.Dot(b.world.Vec4(1)) < 0 &&
		plane.Dot(c.world.Vec4(1)) < 0
}

// vertexColor returns the color written to attachment att, or false when
// the pass does not write that attachment.
//
// Forward passes: 0 lit color, 1 picking color.
// Deferred-normal pass: 0 ambient, 1 albedo, 2 packed normal, 3 depth.
// Shadow passes: 0 depth.
func (c *EbitenContext) vertexColor(p *EbitenProgram, att int, v *projVertex) (mgl32.Vec4, bool) {
	switch p.scene.Pass {
	case PassShadow, PassDeferredShadow:
		if att != 0 {
			return mgl32.Vec4{}, false
		}
		return mgl32.Vec4{v.z, v.z, v.z, 1}, true
	case PassDeferredNormal:
		amb, dif, alpha := materialColors(p.rigid.Material)
		switch att {
		case 0:
			return amb.Vec4(1), true
		case 1:
			return dif.Vec4(alpha), true
		case 2:
			return packNormal(v.normal).Vec4(1), true
		case 3:
			return mgl32.Vec4{v.z, v.z, v.z, 1}, true
		}
		return mgl32.Vec4{}, false
	}
	switch att {
	case 0:
		if p.scene.ShowNormals {
			return packNormal(v.normal).Vec4(1), true
		}
		return shade(p, v), true
	case 1:
		pick := p.rigid.PickingColor
		pick[3] = 1
		return pick, true
	}
	return mgl32.Vec4{}, false
}

// packNormal maps a unit normal into [0, 1] color space.
func packNormal(n mgl32.Vec3) mgl32.Vec3 {
	return n.Mul(0.5).Add(mgl32.Vec3{0.5, 0.5, 0.5})
}

// materialColors returns the ambient and diffuse colors and the opacity of
// desc, substituting gray ambient and white diffuse for unset colors.
func materialColors(desc *MaterialDesc) (amb, dif mgl32.Vec3, alpha float32) {
	amb = mgl32.Vec3{0.2, 0.2, 0.2}
	dif = mgl32.Vec3{1, 1, 1}
	alpha = 1
	if desc == nil {
		return
	}
	if desc.Properties.Ambient != (mgl32.Vec4{}) {
		amb = desc.Properties.Ambient.Vec3()
	}
	if desc.Properties.Diffuse != (mgl32.Vec4{}) {
		dif = desc.Properties.Diffuse.Vec3()
	}
	alpha = 1 - desc.Properties.Transparency
	return
}

// shade applies Lambert lighting from every enabled light. Without lights
// the diffuse color is returned unlit.
func shade(p *EbitenProgram, v *projVertex) mgl32.Vec4 {
	amb, dif, alpha := materialColors(p.rigid.Material)
	if p.rigid.Material != nil && p.rigid.Material.UseAmbientOnly {
		return amb.Vec4(alpha)
	}
	l := p.scene.Lights
	if l == nil || l.Len() == 0 {
		return dif.Vec4(alpha)
	}
	col := amb
	for i := 0; i < l.Len(); i++ {
		if !l.Enabled[i] {
			continue
		}
		d := v.normal.Dot(lightDirection(l, i, v.world))
		if d <= 0 {
			continue
		}
		col = col.Add(mulElem(dif, l.Diffuse[i].Vec3()).Mul(d))
	}
	for k := range col {
		col[k] = mgl32.Clamp(col[k], 0, 1)
	}
	return col.Vec4(alpha)
}

// flush draws the queued triangles of the current target back to front.
func (c *EbitenContext) flush() {
	if len(c.pending) == 0 {
		return
	}
	dsts := c.destinations()
	slices.SortStableFunc(c.pending, func(a, b pendingTri) int {
		switch {
		case a.depth > b.depth:
			return -1
		case a.depth < b.depth:
			return 1
		}
		return 0
	})
	for att, dst := range dsts {
		var src *ebiten.Image
		for i := range c.pending {
			t := &c.pending[i]
			if t.attach != att {
				continue
			}
			if t.wire {
				c.drawBatch(dst, src)
				strokeTriangle(dst, &t.v)
				continue
			}
			if t.src != src || len(c.verts)+3 > maxBatchVertices {
				c.drawBatch(dst, src)
				src = t.src
			}
			base := uint16(len(c.verts))
			c.verts = append(c.verts, t.v[:]...)
			c.inds = append(c.inds, base, base+1, base+2)
		}
		c.drawBatch(dst, src)
	}
	c.pending = c.pending[:0]
}

func (c *EbitenContext) drawBatch(dst, src *ebiten.Image) {
	if len(c.verts) == 0 || src == nil {
		c.verts = c.verts[:0]
		c.inds = c.inds[:0]
		return
	}
	dst.DrawTriangles(c.verts, c.inds, src, &c.triOpts)
	c.verts = c.verts[:0]
	c.inds = c.inds[:0]
}

func strokeTriangle(dst *ebiten.Image, v *[3]ebiten.Vertex) {
	for k := range 3 {
		a, b := &v[k], &v[(k+1)%3]
		vector.StrokeLine(dst, a.DstX, a.DstY, b.DstX, b.DstY, 1, vertexRGBA(a), false)
	}
}

func vertexRGBA(v *ebiten.Vertex) color.RGBA {
	return color.RGBA{
		R: uint8(mgl32.Clamp(v.ColorR*v.ColorA, 0, 1) * 255),
		G: uint8(mgl32.Clamp(v.ColorG*v.ColorA, 0, 1) * 255),
		B: uint8(mgl32.Clamp(v.ColorB*v.ColorA, 0, 1) * 255),
		A: uint8(mgl32.Clamp(v.ColorA, 0, 1) * 255),
	}
}

// GetPixel reads the attachment selected with BindReadFrom at normalized
// coordinates with a top-left origin.
func (c *EbitenContext) GetPixel(p mgl32.Vec2) uint32 {
	t := c.read
	if t == nil || c.readAttachment < 0 || c.readAttachment >= len(t.imgs) {
		return 0
	}
	if c.bound == t {
		c.flush()
	}
	img := t.imgs[c.readAttachment]
	b := img.Bounds()
	x := b.Min.X + min(max(int(p.X()*float32(b.Dx())), 0), b.Dx()-1)
	y := b.Min.Y + min(max(int(p.Y()*float32(b.Dy())), 0), b.Dy()-1)
	r, g, bl, a := img.At(x, y).RGBA()
	return uint32(r>>8) | uint32(g>>8)<<8 | uint32(bl>>8)<<16 | uint32(a>>8)<<24
}

// FullscreenRect runs the state's Kage shader over the current target with
// texture units 0-3 as source images. A state without a shader copies
// unit 0 stretched to the target.
func (c *EbitenContext) FullscreenRect(state RenderState) {
	st, ok := state.(*EbitenState)
	if !ok {
		return
	}
	c.flush()
	dsts := c.destinations()
	if len(dsts) == 0 {
		return
	}
	dst := dsts[0]
	db := dst.Bounds()

	if st.program == nil || st.program.shader == nil {
		src := st.image(0)
		if src == nil {
			return
		}
		sb := src.Bounds()
		c.imgOpts.GeoM.Reset()
		c.imgOpts.GeoM.Scale(float64(db.Dx())/float64(sb.Dx()), float64(db.Dy())/float64(sb.Dy()))
		c.imgOpts.GeoM.Translate(float64(db.Min.X), float64(db.Min.Y))
		dst.DrawImage(src, &c.imgOpts)
		return
	}

	p := st.program
	p.syncLightUniforms()
	w, h := db.Dx(), db.Dy()
	if src := st.image(0); src != nil {
		w, h = src.Bounds().Dx(), src.Bounds().Dy()
	}
	for i := range c.shaderOpts.Images {
		img := st.image(i)
		if img != nil && (img.Bounds().Dx() != w || img.Bounds().Dy() != h) {
			img = nil
		}
		c.shaderOpts.Images[i] = img
	}
	c.shaderOpts.Uniforms = p.uniforms
	c.shaderOpts.GeoM.Reset()
	c.shaderOpts.GeoM.Scale(float64(db.Dx())/float64(w), float64(db.Dy())/float64(h))
	c.shaderOpts.GeoM.Translate(float64(db.Min.X), float64(db.Min.Y))
	dst.DrawRectShader(w, h, p.shader, &c.shaderOpts)
}

// AspectRatio returns width/height of the default target.
func (c *EbitenContext) AspectRatio() float32 {
	if c.height == 0 {
		return 1
	}
	return float32(c.width) / float32(c.height)
}

// --- DebugCanvas ---

// project maps a world point to target pixels. ok is false behind the
// camera.
func (c *EbitenContext) project(dst *ebiten.Image, p mgl32.Vec3, viewProj mgl32.Mat4) (x, y float32, ok bool) {
	clip := viewProj.Mul4x1(p.Vec4(1))
	if clip.W() <= nearW {
		return 0, 0, false
	}
	b := dst.Bounds()
	ndc := clip.Vec3().Mul(1 / clip.W())
	x = float32(b.Min.X) + (ndc.X()*0.5+0.5)*float32(b.Dx())
	y = float32(b.Min.Y) + (0.5-ndc.Y()*0.5)*float32(b.Dy())
	return x, y, true
}

func (c *EbitenContext) debugTarget() *ebiten.Image {
	c.flush()
	dsts := c.destinations()
	if len(dsts) == 0 {
		return nil
	}
	return dsts[0]
}

// DrawBox outlines box.
func (c *EbitenContext) DrawBox(box AABB, viewProj mgl32.Mat4, col Color) {
	dst := c.debugTarget()
	if dst == nil || box.IsEmpty() {
		return
	}
	corners := box.Corners()
	var xs, ys [8]float32
	for i, p := range corners {
		x, y, ok := c.project(dst, p, viewProj)
		if !ok {
			return
		}
		xs[i], ys[i] = x, y
	}
	clr := col.rgba()
	for i := range 8 {
		for axis := range 3 {
			j := i | 1<<axis
			if j == i {
				continue
			}
			vector.StrokeLine(dst, xs[i], ys[i], xs[j], ys[j], 1, clr, false)
		}
	}
}

// DrawPoint draws a small dot at p.
func (c *EbitenContext) DrawPoint(p mgl32.Vec3, viewProj mgl32.Mat4, col Color) {
	dst := c.debugTarget()
	if dst == nil {
		return
	}
	x, y, ok := c.project(dst, p, viewProj)
	if !ok {
		return
	}
	vector.DrawFilledCircle(dst, x, y, 3, col.rgba(), false)
}

// DrawTexturedRect draws tex into a rect given in normalized target
// coordinates with a top-left origin.
func (c *EbitenContext) DrawTexturedRect(x, y, w, h float32, tex Texture) {
	dst := c.debugTarget()
	t, ok := tex.(*EbitenTexture)
	if dst == nil || !ok || t == nil {
		return
	}
	db := dst.Bounds()
	sb := t.img.Bounds()
	c.imgOpts.GeoM.Reset()
	c.imgOpts.GeoM.Scale(float64(w)*float64(db.Dx())/float64(sb.Dx()), float64(h)*float64(db.Dy())/float64(sb.Dy()))
	c.imgOpts.GeoM.Translate(float64(db.Min.X)+float64(x)*float64(db.Dx()), float64(db.Min.Y)+float64(y)*float64(db.Dy()))
	dst.DrawImage(t.img, &c.imgOpts)
}
