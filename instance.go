package linden

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
)

// GeomInstance is one placement of a geometry resource in the scene. Its
// rigids occupy the contiguous block [Start, Start+NumRigids) of the rigid
// array. The block starts with two synthetic rigids: the placement root
// and the scale node parented to it.
type GeomInstance struct {
	Geom               int // index into the unique geom collection, -1 when the slot is free
	Start              int
	NumRigids          int
	HasPrivateMaterial bool
	Parent             int // handle this instance is attached to, or -1
}

// Free reports whether the slot holds no instance.
func (g GeomInstance) Free() bool { return g.Geom < 0 }

// RigidID identifies the mesh part a rigid was created from. Rigid is -1
// for the two synthetic rigids of an instance.
type RigidID struct {
	Geom  int
	Rigid int
}

// RigidInstance is one node of the flattened hierarchy.
type RigidInstance struct {
	ID          RigidID
	Instance    int // owning geometry handle
	ParentRef   int // index of the parent rigid, or -1
	MaterialRef int // -1 for synthetic rigids
	Local       mgl32.Mat4
	Global      mgl32.Mat4
	Keyframer   Keyframer
	Owner       any
	Tag         int

	Visible       bool
	ReceiveShadow bool
	CastShadow    bool
}

// instance validates h and returns its slot.
func (s *Scene) instance(op string, h int) (*GeomInstance, error) {
	if h < 0 || h >= s.instances.Len() || s.instances.At(h).Free() {
		return nil, &HandleError{Op: op, Handle: h, Err: ErrInvalidHandle}
	}
	return s.instances.Ptr(h), nil
}

// GeomsCount returns the number of geometry slots, free ones included.
func (s *Scene) GeomsCount() int { return s.instances.Len() }

// Instance returns a copy of the instance record of h.
func (s *Scene) Instance(h int) (GeomInstance, error) {
	inst, err := s.instance("instance", h)
	if err != nil {
		return GeomInstance{}, err
	}
	return *inst, nil
}

// Geom returns the geometry resource placed by h.
func (s *Scene) Geom(h int) (Geom, error) {
	inst, err := s.instance("geom", h)
	if err != nil {
		return nil, err
	}
	return s.geoms[inst.Geom], nil
}

// UniqueGeomsCount returns the number of distinct geometry resources ever
// added.
func (s *Scene) UniqueGeomsCount() int { return len(s.geoms) }

// UniqueGeom returns the i-th distinct geometry resource.
func (s *Scene) UniqueGeom(i int) Geom { return s.geoms[i] }

// FindGeomInstance returns the index of g among the unique geometry
// resources, or -1 when g was never added.
func (s *Scene) FindGeomInstance(g Geom) int {
	for i, known := range s.geoms {
		if known == g {
			return i
		}
	}
	return InvalidHandle
}

// FindAllGeomInstances returns the handles of every live instance of g in
// handle order.
func (s *Scene) FindAllGeomInstances(g Geom) []int {
	gi := s.FindGeomInstance(g)
	if gi < 0 {
		return nil
	}
	var handles []int
	for h, inst := range s.instances.Slice() {
		if !inst.Free() && inst.Geom == gi {
			handles = append(handles, h)
		}
	}
	return handles
}

// AddGeom places g in the scene with the materials of its mesh and returns
// its handle.
func (s *Scene) AddGeom(g Geom) (int, error) {
	return s.addGeomIntoSlot(g, -1, -1)
}

// AddGeomMtl places g in the scene with every part using material mtl.
func (s *Scene) AddGeomMtl(g Geom, mtl int) (int, error) {
	if mtl < 0 || mtl >= s.materials.Len() {
		return InvalidHandle, &HandleError{Op: "add geom", Handle: InvalidHandle, Err: ErrInvalidMaterial}
	}
	return s.addGeomIntoSlot(g, -1, mtl)
}

// AddGeomToParent places g and attaches it to instance parent.
func (s *Scene) AddGeomToParent(g Geom, parent int) (int, error) {
	if _, err := s.instance("add geom", parent); err != nil {
		return InvalidHandle, err
	}
	h, err := s.AddGeom(g)
	if err != nil {
		return InvalidHandle, err
	}
	return h, s.Attach(h, parent)
}

// addGeomIntoSlot places g into slot, or into the first free slot when
// slot is negative. A negative mtl takes materials from the mesh.
func (s *Scene) addGeomIntoSlot(g Geom, slot, mtl int) (int, error) {
	if g == nil {
		return InvalidHandle, ErrNilGeom
	}
	g.WaitLoad()
	s.sortDirty = true

	gi := s.registerGeom(g)

	if slot < 0 {
		slot = s.firstFreeSlot()
	}
	for slot >= s.instances.Len() {
		s.instances.Push(GeomInstance{Geom: -1, Start: -1, Parent: -1})
	}

	start, num := s.pushRigidInstances(gi, slot, mtl)
	s.instances.Set(slot, GeomInstance{Geom: gi, Start: start, NumRigids: num, Parent: -1})
	s.transformsDirty = true
	s.debugCheckInstances("add geom")
	return slot, nil
}

func (s *Scene) firstFreeSlot() int {
	insts := s.instances.Slice()
	for i := range insts {
		if insts[i].Free() {
			return i
		}
	}
	return len(insts)
}

// registerGeom returns the collection index of g, adding it and
// subscribing to its change notification on first sight.
func (s *Scene) registerGeom(g Geom) int {
	if i := s.FindGeomInstance(g); i >= 0 {
		return i
	}
	s.geoms = append(s.geoms, g)
	if n, ok := g.(ChangeNotifier); ok {
		n.OnChange(func() { s.geomChanged(g) })
	}
	return len(s.geoms) - 1
}

func (s *Scene) pushRigid(geom, part, h, parent, mtl int) int {
	return s.rigids.Push(RigidInstance{
		ID:            RigidID{Geom: geom, Rigid: part},
		Instance:      h,
		ParentRef:     parent,
		MaterialRef:   mtl,
		Local:         mgl32.Ident4(),
		Global:        mgl32.Ident4(),
		Visible:       true,
		ReceiveShadow: true,
		CastShadow:    true,
	})
}

// pushRigidInstances appends the rigid block of geom collection entry gi
// for handle h and queues a render operation per mesh part.
func (s *Scene) pushRigidInstances(gi, h, mtl int) (start, num int) {
	start = s.rigids.Len()
	root := s.pushRigid(gi, -1, h, -1, -1)
	scale := s.pushRigid(gi, -1, h, root, -1)

	mesh := s.geoms[gi].CurrentMesh()
	if mesh == nil {
		return start, 2
	}
	n := mesh.RigidsCount()
	for i := 0; i < n; i++ {
		parent := scale
		if p := mesh.ParentRef(i); p >= 0 {
			parent = start + p + 2
		}
		m := mtl
		if m < 0 {
			m = s.AddMaterial(mesh.Material(i))
		}
		idx := s.pushRigid(gi, i, h, parent, m)
		s.rigids.Ptr(idx).Local = mesh.LocalTransform(i)
		s.addRenderOperation(idx)
	}
	return start, n + 2
}

// RemoveItem removes instance h. Negative handles are ignored. The slot
// becomes free and is reused by the next AddGeom.
func (s *Scene) RemoveItem(h int) error {
	if h < 0 {
		return nil
	}
	inst, err := s.instance("remove item", h)
	if err != nil {
		return err
	}
	s.sortDirty = true
	s.needsRebuild = true
	s.transformsDirty = true

	s.RemoveUpdater(h, nil)

	insts := s.instances.Slice()
	for i := range insts {
		if insts[i].Parent == h {
			insts[i].Parent = -1
		}
	}

	start, num := inst.Start, inst.NumRigids
	end := start + num
	s.rigids.RemoveRange(start, num)

	rigids := s.rigids.Slice()
	for i := range rigids {
		switch p := rigids[i].ParentRef; {
		case p >= end:
			rigids[i].ParentRef = p - num
		case p >= start:
			rigids[i].ParentRef = -1
		}
	}

	insts[h] = GeomInstance{Geom: -1, Start: -1, Parent: -1}
	for i := range insts {
		if !insts[i].Free() && insts[i].Start > start {
			insts[i].Start -= num
		}
	}
	s.debugCheckInstances("remove item")
	return nil
}

// Attach parents instance child to instance parent. Every parentless rigid
// of child, normally just its placement root, hangs off the parent's
// placement root afterwards.
func (s *Scene) Attach(child, parent int) error {
	ci, err := s.instance("attach", child)
	if err != nil {
		return err
	}
	pi, err := s.instance("attach", parent)
	if err != nil {
		return err
	}
	for p := parent; p >= 0; p = s.instances.At(p).Parent {
		if p == child {
			return &HandleError{Op: "attach", Handle: child, Err: ErrCyclicAttach}
		}
	}
	if ci.Parent >= 0 {
		s.detach(ci)
	}
	s.transformsDirty = true
	ci.Parent = parent
	rigids := s.rigids.Slice()[ci.Start : ci.Start+ci.NumRigids]
	for i := range rigids {
		if rigids[i].ParentRef == -1 {
			rigids[i].ParentRef = pi.Start
		}
	}
	return nil
}

// Detach undoes Attach for instance child.
func (s *Scene) Detach(child int) error {
	ci, err := s.instance("detach", child)
	if err != nil {
		return err
	}
	if ci.Parent >= 0 {
		s.detach(ci)
	}
	return nil
}

func (s *Scene) detach(ci *GeomInstance) {
	s.transformsDirty = true
	ci.Parent = -1
	s.rigids.Ptr(ci.Start).ParentRef = -1
}

// RebuildSceneRigids regenerates the rigid array and the render operations
// from scratch when a structural change requested it. Placement and scale
// transforms survive, as do per-rigid material, owner, flags and animation
// state of instances whose mesh shape did not change.
func (s *Scene) RebuildSceneRigids() {
	if !s.needsRebuild {
		return
	}
	old := make([]RigidInstance, s.rigids.Len())
	copy(old, s.rigids.Slice())

	s.rigids.Clear()
	s.renderOps.Clear()
	insts := s.instances.Slice()
	for h := range insts {
		inst := &insts[h]
		if inst.Free() {
			continue
		}
		prev := old[inst.Start : inst.Start+inst.NumRigids]
		start, num := s.pushRigidInstances(inst.Geom, h, -1)
		inst.Start, inst.NumRigids = start, num
		restoreRigidState(s.rigids.Slice()[start:start+num], prev)
	}
	for h := range insts {
		if inst := &insts[h]; !inst.Free() && inst.Parent >= 0 {
			s.rigids.Ptr(inst.Start).ParentRef = insts[inst.Parent].Start
		}
	}

	s.rebuildRenderOperations()
	s.transformsDirty = true
	s.sortDirty = true
	s.debugCheckInstances("rebuild rigids")
}

func restoreRigidState(dst, prev []RigidInstance) {
	for i := 0; i < 2 && i < len(prev) && i < len(dst); i++ {
		dst[i].Local = prev[i].Local
		restoreUserState(&dst[i], &prev[i])
	}
	if len(dst) != len(prev) {
		return
	}
	for i := 2; i < len(dst); i++ {
		dst[i].MaterialRef = prev[i].MaterialRef
		restoreUserState(&dst[i], &prev[i])
	}
}

// restoreUserState copies the per-rigid state set through the scene API.
func restoreUserState(dst, prev *RigidInstance) {
	dst.Keyframer = prev.Keyframer
	dst.Owner = prev.Owner
	dst.Tag = prev.Tag
	dst.Visible = prev.Visible
	dst.CastShadow = prev.CastShadow
	dst.ReceiveShadow = prev.ReceiveShadow
}

// geomChanged re-adds every instance of g after the resource reloaded.
// Each instance keeps its handle, placement, attachments and updaters.
func (s *Scene) geomChanged(g Geom) {
	type saved struct {
		handle   int
		local    mgl32.Mat4
		scale    mgl32.Mat4
		parent   int
		updaters []updaterEntry
	}
	var reloaded []saved
	insts := s.instances.Slice()
	for _, h := range s.FindAllGeomInstances(g) {
		reloaded = append(reloaded, saved{
			handle:   h,
			local:    s.rigids.At(insts[h].Start).Local,
			scale:    s.rigids.At(insts[h].Start + 1).Local,
			parent:   insts[h].Parent,
			updaters: s.updatersOf(h),
		})
	}
	if len(reloaded) == 0 {
		return
	}

	isReloaded := func(h int) bool {
		for _, r := range reloaded {
			if r.handle == h {
				return true
			}
		}
		return false
	}
	type link struct{ child, parent int }
	var children []link
	for h := range insts {
		if !insts[h].Free() && insts[h].Parent >= 0 && !isReloaded(h) && isReloaded(insts[h].Parent) {
			children = append(children, link{h, insts[h].Parent})
		}
	}

	for _, r := range reloaded {
		_ = s.RemoveItem(r.handle)
	}
	s.RebuildSceneRigids()

	for _, r := range reloaded {
		if _, err := s.addGeomIntoSlot(g, r.handle, -1); err != nil {
			Logger().Warn("geom reload failed", slog.Int("handle", r.handle), slog.Any("err", err))
			continue
		}
		start := s.instances.At(r.handle).Start
		s.rigids.Ptr(start).Local = r.local
		s.rigids.Ptr(start + 1).Local = r.scale
		s.updaters = append(s.updaters, r.updaters...)
	}
	for _, r := range reloaded {
		if r.parent >= 0 {
			_ = s.Attach(r.handle, r.parent)
		}
	}
	for _, l := range children {
		_ = s.Attach(l.child, l.parent)
	}

	Logger().Info("geom reloaded", slog.Int("instances", len(reloaded)))
	for _, r := range reloaded {
		s.emit(SceneEvent{Type: EventGeomReloaded, Handle: r.handle})
	}
}

// forEachRigid calls fn for every rigid of instance h.
func (s *Scene) forEachRigid(op string, h int, fn func(r *RigidInstance)) error {
	inst, err := s.instance(op, h)
	if err != nil {
		return err
	}
	rigids := s.rigids.Slice()[inst.Start : inst.Start+inst.NumRigids]
	for i := range rigids {
		fn(&rigids[i])
	}
	return nil
}

// SetVisible shows or hides every part of instance h. Hidden parts get no
// render operation, so a change also rebuilds the operation list.
func (s *Scene) SetVisible(h int, visible bool) error {
	return s.forEachRigid("set visible", h, func(r *RigidInstance) {
		if r.Visible != visible {
			r.Visible = visible
			s.sortDirty = true
			s.needsRebuild = true
		}
	})
}

// IsVisible reports whether the placement root of h is visible.
func (s *Scene) IsVisible(h int) (bool, error) {
	inst, err := s.instance("is visible", h)
	if err != nil {
		return false, err
	}
	return s.rigids.At(inst.Start).Visible, nil
}

// SetCastShadow sets whether the parts of h appear in shadow maps.
func (s *Scene) SetCastShadow(h int, cast bool) error {
	return s.forEachRigid("set cast shadow", h, func(r *RigidInstance) {
		if r.CastShadow != cast {
			r.CastShadow = cast
			s.sortDirty = true
			s.needsRebuild = true
		}
	})
}

// SetReceiveShadow sets whether the parts of h are shadowed.
func (s *Scene) SetReceiveShadow(h int, receive bool) error {
	return s.forEachRigid("set receive shadow", h, func(r *RigidInstance) {
		if r.ReceiveShadow != receive {
			r.ReceiveShadow = receive
			s.sortDirty = true
		}
	})
}

// SetOwner stores an arbitrary value on every rigid of h, returned by
// picking.
func (s *Scene) SetOwner(h int, owner any) error {
	return s.forEachRigid("set owner", h, func(r *RigidInstance) { r.Owner = owner })
}

// SetTag stores an integer tag on every rigid of h.
func (s *Scene) SetTag(h int, tag int) error {
	return s.forEachRigid("set tag", h, func(r *RigidInstance) { r.Tag = tag })
}

// BoundingBox returns the box of instance h: the part boxes under their
// local transforms, placed by the instance placement.
func (s *Scene) BoundingBox(h int) (AABB, error) {
	inst, err := s.instance("bounding box", h)
	if err != nil {
		return AABB{}, err
	}
	return s.localBoundingBox(inst).Transform(s.rigids.At(inst.Start).Local), nil
}

func (s *Scene) localBoundingBox(inst *GeomInstance) AABB {
	box := EmptyAABB()
	mesh := s.geoms[inst.Geom].CurrentMesh()
	if mesh == nil {
		return box
	}
	for i := inst.Start + 2; i < inst.Start+inst.NumRigids; i++ {
		r := s.rigids.Ptr(i)
		box = box.Combine(mesh.Rigid(r.ID.Rigid).BoundingBox().Transform(r.Local))
	}
	return box
}

// BoundingBoxInterpolated returns the world-space box of instance h at its
// current animation position.
func (s *Scene) BoundingBoxInterpolated(h int) (AABB, error) {
	inst, err := s.instance("bounding box", h)
	if err != nil {
		return AABB{}, err
	}
	s.RecalculateGlobalTransforms()
	return s.interpolatedBox(inst), nil
}

func (s *Scene) interpolatedBox(inst *GeomInstance) AABB {
	box := EmptyAABB()
	mesh := s.geoms[inst.Geom].CurrentMesh()
	if mesh == nil {
		return box
	}
	for i := inst.Start + 2; i < inst.Start+inst.NumRigids; i++ {
		r := s.rigids.Ptr(i)
		k := &r.Keyframer
		part := mesh.Rigid(r.ID.Rigid).BoundingBoxInterpolated(k.Frame, k.NextFrame, k.Lerp)
		box = box.Combine(part.Transform(r.Global))
	}
	return box
}

// Scale sets the scale node of h to a uniform scale by coef. With center
// set the instance's local box is centered on the placement origin
// first.
func (s *Scene) Scale(h int, coef float32, center bool) error {
	inst, err := s.instance("scale", h)
	if err != nil {
		return err
	}
	m := mgl32.Scale3D(coef, coef, coef)
	if center {
		c := s.localBoundingBox(inst).Center()
		m = m.Mul4(mgl32.Translate3D(-c[0], -c[1], -c[2]))
	}
	s.rigids.Ptr(inst.Start + 1).Local = m
	s.transformsDirty = true
	return nil
}

// Resize scales h uniformly so that its local box is dimZ tall along Z.
func (s *Scene) Resize(h int, dimZ float32, center bool) error {
	inst, err := s.instance("resize", h)
	if err != nil {
		return err
	}
	size := s.localBoundingBox(inst).Size()
	if size[2] <= 0 {
		return nil
	}
	return s.Scale(h, dimZ/size[2], center)
}
