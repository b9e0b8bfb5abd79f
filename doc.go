// Package linden is a retained-mode 3D scene graph and render-operation
// pipeline.
//
// A [Scene] holds geometry instances. Each instance flattens into a
// contiguous block of rigids: a placement root, a scale node and one rigid
// per mesh part. Every visible part queues a [RenderOperation], and the
// operations are sorted by a 64-bit key (shader, texture, depth) before
// each pass submits them through a [RenderContext].
//
// # Quick start
//
// The scene drives the GPU only through the interfaces in collaborators.go.
// [EbitenContext] and [EbitenResources] implement them on top of
// [Ebitengine]:
//
//	ctx := linden.NewEbitenContext(640, 480)
//	scene := linden.NewScene(ctx, linden.NewEbitenResources(), linden.SceneConfig{})
//
//	cube := linden.NewStaticGeom(linden.NewModel(linden.NewCubeMesh(1), nil))
//	h, _ := scene.AddGeom(cube)
//	scene.SetLocalTransform(h, mgl32.Translate3D(0, 0, -5))
//	scene.AddPointLight(mgl32.Vec3{0, 5, 0}, linden.ColorWhite, mgl32.Vec4{})
//
//	func (g *Game) Draw(screen *ebiten.Image) {
//		g.ctx.Frame(screen, g.scene.RenderForward)
//	}
//
// # Materials
//
// Materials are deduplicated by value. Each one is compiled into a render
// state per pass and carries a pass mask. [Scene.GeomMaterialDesc] gives an
// instance a private copy before it is edited.
//
// # Passes
//
// [Scene.RenderForward] renders shadow maps for every enabled light, one
// reflection map per distinct planar-reflection plane, then the normal
// pass. [Scene.RenderDeferred] fills a G-buffer and composites it.
// [Scene.SetAnaglyphStereoRendering] renders each eye separately and mixes
// them. With an offscreen buffer and picking enabled, [Scene.PickInstance]
// reads back which instance was drawn at a screen point.
//
// # Animation
//
// Per-rigid [Keyframer] state is advanced by [Updater]s registered on an
// instance. Tweened moves use [gween]. The ecs subpackage mirrors scene
// events into a [Donburi] world.
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
// [Donburi]: https://github.com/yohamta/donburi
package linden
