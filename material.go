package linden

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// MaterialProperties are the lighting coefficients of a material.
type MaterialProperties struct {
	Ambient       mgl32.Vec4
	Diffuse       mgl32.Vec4
	Specular      mgl32.Vec4
	Transparency  float32
	Reflectivity  float32
	Shine         mgl32.Vec4
	ShineStrength float32
	Roughness     float32 // Cook-Torrance
}

// MaterialMaps names the texture files of a material.
type MaterialMaps struct {
	Ambient    string
	Diffuse    string
	Specular   string
	Bump       string
	Reflection string
}

// MaterialDesc describes a material. It is a comparable value: two
// descriptions are the same material when they are ==.
type MaterialDesc struct {
	Name      string
	Class     string
	ScaleCoef float32

	CastShadow    bool
	ReceiveShadow bool

	Tesselation    float32
	RenderingOrder int

	// ReflectionPlane is (nx, ny, nz, d). Used when PlanarReflection is set.
	ReflectionPlane  mgl32.Vec4
	PlanarReflection bool

	AlphaTransparency bool
	UseAmbientOnly    bool
	Wireframe         bool

	Properties MaterialProperties
	Maps       MaterialMaps

	// DiffuseMapOverride replaces the texture loaded from Maps.Diffuse.
	DiffuseMapOverride Texture
}

// DefaultMaterialDesc returns the description of the default material.
func DefaultMaterialDesc() MaterialDesc {
	return MaterialDesc{
		Name:          "unknown",
		Class:         "default",
		ScaleCoef:     1,
		CastShadow:    true,
		ReceiveShadow: true,
	}
}

// stateSlot indexes the compiled render states of a material.
type stateSlot uint8

const (
	slotNormal stateSlot = iota
	slotShadow
	slotReflection
	slotDeferredNormal
	numStateSlots
)

// passStates holds one compiled render state per slot.
type passStates [numStateSlots]RenderState

// slotForPass maps a single pass to its state slot. The deferred shadow
// pass shares the shadow state.
func slotForPass(p Pass) (stateSlot, bool) {
	switch p {
	case PassNormal:
		return slotNormal, true
	case PassShadow, PassDeferredShadow:
		return slotShadow, true
	case PassReflection:
		return slotReflection, true
	case PassDeferredNormal:
		return slotDeferredNormal, true
	default:
		return 0, false
	}
}

// AddMaterial returns the index of a material equal to desc, adding one if
// none exists. A nil desc is the default material, index 0.
func (s *Scene) AddMaterial(desc *MaterialDesc) int {
	if desc == nil {
		return 0
	}
	mats := s.materials.Slice()
	for i := range mats {
		if mats[i] == *desc {
			return i
		}
	}
	return s.pushNewMaterial(desc)
}

// AddMtl is AddMaterial.
func (s *Scene) AddMtl(desc *MaterialDesc) int { return s.AddMaterial(desc) }

// pushNewMaterial appends a material unconditionally and compiles its
// states.
func (s *Scene) pushNewMaterial(desc *MaterialDesc) int {
	idx := s.materials.Push(*desc)
	mask, off := DefaultPassMask, Pass(0)
	if !desc.CastShadow {
		off = mask & shadowPasses
		mask &^= shadowPasses
	}
	s.masks.Push(mask)
	s.shadowOff.Push(off)
	s.states.Push(s.compileStates(desc))
	return idx
}

func (s *Scene) compileStates(desc *MaterialDesc) passStates {
	var st passStates
	st[slotNormal] = s.res.RenderStateForPass(desc, PassNormal)
	if s.cfg.DepthBasedShadows {
		st[slotShadow] = s.res.RenderStateForPass(desc, PassShadow)
	} else {
		st[slotShadow] = st[slotNormal]
	}
	st[slotReflection] = s.res.RenderStateForPass(desc, PassReflection)
	st[slotDeferredNormal] = s.res.RenderStateForPass(desc, PassDeferredNormal)
	return st
}

// MaterialsCount returns the number of registered materials.
func (s *Scene) MaterialsCount() int { return s.materials.Len() }

// MaterialDesc returns the description of material id. The returned
// pointer stays valid until the next material is added.
func (s *Scene) MaterialDesc(id int) (*MaterialDesc, error) {
	if id < 0 || id >= s.materials.Len() {
		return nil, fmt.Errorf("material %d: %w", id, ErrInvalidMaterial)
	}
	return s.materials.Ptr(id), nil
}

// MaterialMask returns the passes material id takes part in.
func (s *Scene) MaterialMask(id int) (Pass, error) {
	if id < 0 || id >= s.masks.Len() {
		return 0, fmt.Errorf("material %d: %w", id, ErrInvalidMaterial)
	}
	return s.masks.At(id), nil
}

// SetMaterialMask replaces the pass mask of material id. RefreshMaterial
// still strips the shadow passes while the material does not cast shadows.
func (s *Scene) SetMaterialMask(id int, mask Pass) error {
	if id < 0 || id >= s.masks.Len() {
		return fmt.Errorf("material %d: %w", id, ErrInvalidMaterial)
	}
	s.masks.Set(id, mask)
	s.shadowOff.Set(id, 0)
	return nil
}

// Shader returns the compiled state of material id for pass.
func (s *Scene) Shader(id int, pass Pass) (RenderState, error) {
	if id < 0 || id >= s.states.Len() {
		return nil, fmt.Errorf("material %d: %w", id, ErrInvalidMaterial)
	}
	slot, ok := slotForPass(pass)
	if !ok {
		return nil, fmt.Errorf("material %d: pass %v has no render state", id, pass)
	}
	return s.states.At(id)[slot], nil
}

// SetShader replaces the compiled state of material id for pass.
func (s *Scene) SetShader(id int, pass Pass, state RenderState) error {
	if id < 0 || id >= s.states.Len() {
		return fmt.Errorf("material %d: %w", id, ErrInvalidMaterial)
	}
	slot, ok := slotForPass(pass)
	if !ok {
		return fmt.Errorf("material %d: pass %v has no render state", id, pass)
	}
	s.states.Ptr(id)[slot] = state
	s.sortDirty = true
	return nil
}

// SetMtlIndex points every rigid of instance h at material mtl. The
// instance no longer owns a private material afterwards.
func (s *Scene) SetMtlIndex(h, mtl int) error {
	if mtl < 0 || mtl >= s.materials.Len() {
		return &HandleError{Op: "set material", Handle: h, Err: ErrInvalidMaterial}
	}
	inst, err := s.instance("set material", h)
	if err != nil {
		return err
	}
	s.setMtlIndex(inst, mtl)
	inst.HasPrivateMaterial = false
	return nil
}

func (s *Scene) setMtlIndex(inst *GeomInstance, mtl int) {
	s.sortDirty = true
	rigids := s.rigids.Slice()[inst.Start : inst.Start+inst.NumRigids]
	for i := range rigids {
		rigids[i].MaterialRef = mtl
	}
}

// SetMtl points every rigid of instance h at the material equal to desc,
// registering it if needed.
func (s *Scene) SetMtl(h int, desc *MaterialDesc) error {
	if _, err := s.instance("set material", h); err != nil {
		return err
	}
	return s.SetMtlIndex(h, s.AddMaterial(desc))
}

// SetMtlFromShader gives instance h a material built from explicit
// states. Nil shadow or reflection states fall back to normal. A material
// with exactly these states is reused.
func (s *Scene) SetMtlFromShader(h int, normal, shadow, reflection RenderState) error {
	if _, err := s.instance("set material", h); err != nil {
		return err
	}
	if shadow == nil {
		shadow = normal
	}
	if reflection == nil {
		reflection = normal
	}
	states := s.states.Slice()
	for i := range states {
		st := &states[i]
		if st[slotNormal] == normal && st[slotShadow] == shadow && st[slotReflection] == reflection {
			return s.SetMtlIndex(h, i)
		}
	}
	idx := s.materials.Push(DefaultMaterialDesc())
	s.masks.Push(DefaultPassMask)
	s.shadowOff.Push(0)
	s.states.Push(passStates{normal, shadow, reflection, normal})
	return s.SetMtlIndex(h, idx)
}

// GeomMaterialDesc returns a material description private to instance h.
// The first call copies the instance's current material into a new entry
// and repoints the instance at it, so edits never leak into other
// instances sharing the original. Call RefreshMaterial after editing to
// recompile its states.
func (s *Scene) GeomMaterialDesc(h int) (*MaterialDesc, error) {
	inst, err := s.instance("geom material", h)
	if err != nil {
		return nil, err
	}
	if !inst.HasPrivateMaterial {
		cur := s.instanceMaterial(inst)
		desc := DefaultMaterialDesc()
		if cur >= 0 {
			desc = s.materials.At(cur)
		}
		mtl := s.pushNewMaterial(&desc)
		s.setMtlIndex(inst, mtl)
		inst.HasPrivateMaterial = true
	}
	return s.materials.Ptr(s.instanceMaterial(inst)), nil
}

// instanceMaterial returns the material of the first materialed rigid of
// inst, or -1.
func (s *Scene) instanceMaterial(inst *GeomInstance) int {
	for i := inst.Start; i < inst.Start+inst.NumRigids; i++ {
		if m := s.rigids.At(i).MaterialRef; m >= 0 {
			return m
		}
	}
	return -1
}

// RefreshMaterial recompiles the states and mask of material id from its
// current description.
func (s *Scene) RefreshMaterial(id int) error {
	if id < 0 || id >= s.materials.Len() {
		return fmt.Errorf("material %d: %w", id, ErrInvalidMaterial)
	}
	desc := s.materials.Ptr(id)
	mask, off := s.masks.At(id), s.shadowOff.At(id)
	if desc.CastShadow {
		mask |= off
		off = 0
	} else {
		off |= mask & shadowPasses
		mask &^= shadowPasses
	}
	s.masks.Set(id, mask)
	s.shadowOff.Set(id, off)
	s.states.Set(id, s.compileStates(desc))
	s.sortDirty = true
	return nil
}
