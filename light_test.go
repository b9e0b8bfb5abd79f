package linden

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// --- Lights ---

func TestAddNewLightFillsArrays(t *testing.T) {
	s, rc, _ := newTestScene(t)
	col := Color{1, 0.5, 0.25, 1}
	i := s.AddNewLight(LightOmni, true, mgl32.Vec3{1, 2, 3}, col, mgl32.Vec4{1, 0, 0, 0})
	if i != 0 || s.NumLights() != 1 {
		t.Fatalf("index = %d, NumLights = %d", i, s.NumLights())
	}
	l := s.Lights()
	if l.Positions[0] != (mgl32.Vec4{1, 2, 3, 1}) {
		t.Errorf("Position = %v, want {1 2 3 1}", l.Positions[0])
	}
	assertMatrix(t, "Transform", l.Transforms[0], mgl32.Translate3D(-1, -2, -3))
	assertMatrix(t, "ShadowMatrix", l.ShadowMatrices[0], l.Projections[0].Mul4(l.Transforms[0]))
	if l.Diffuse[0] != col.Vec4() || l.Ambient[0] != col.Vec4() || l.Specular[0] != col.Vec4() {
		t.Error("ambient, diffuse and specular should all be the light color")
	}

	if len(rc.targets) != 1 {
		t.Fatalf("render targets = %d, want 1 shadow map", len(rc.targets))
	}
	desc := rc.targets[0].desc
	if desc.Width != 512 || desc.Height != 512 || !desc.HasDepth {
		t.Errorf("shadow map desc = %+v", desc)
	}
	if l.ShadowMaps[0] != rc.targets[0] {
		t.Error("light should own the created shadow map")
	}
}

func TestAddDirLight(t *testing.T) {
	s, _, _ := newTestScene(t)
	i := s.AddDirLight(mgl32.Vec3{0, -2, 0}, ColorWhite, mgl32.Vec4{})
	l := s.Lights()
	if l.Types[i] != LightDirectional {
		t.Errorf("Type = %v, want directional", l.Types[i])
	}
	if l.Positions[i] != (mgl32.Vec4{0, -1, 0, 0}) {
		t.Errorf("Position = %v, want normalized direction with w 0", l.Positions[i])
	}
	// the view basis maps the shine direction onto -Z
	got := l.Transforms[i].Mul4x1(mgl32.Vec4{0, -1, 0, 0}).Vec3()
	assertVec3(t, "view(dir)", got, mgl32.Vec3{0, 0, -1})
	assertNear(t, "det", l.Transforms[i].Det(), 1)
}

func TestAddSpotLight(t *testing.T) {
	s, _, _ := newTestScene(t)
	pos := mgl32.Vec3{0, 5, 0}
	i := s.AddSpotLight(pos, mgl32.Vec3{0, 0, -1}, ColorWhite, mgl32.Vec4{}, mgl32.Vec4{30, 2, 0, 0})
	l := s.Lights()
	if l.Types[i] != LightSpot {
		t.Errorf("Type = %v, want spot", l.Types[i])
	}
	if l.SpotParams[i] != (mgl32.Vec4{30, 2, 0, 0}) {
		t.Errorf("SpotParams = %v", l.SpotParams[i])
	}
	eye := mgl32.TransformCoordinate(pos, l.Transforms[i])
	assertVec3(t, "light origin in view", eye, mgl32.Vec3{})
	assertMatrix(t, "ShadowMatrix", l.ShadowMatrices[i], l.Projections[i].Mul4(l.Transforms[i]))
}

func TestRemoveLightShiftsAndDisposes(t *testing.T) {
	s, rc, _ := newTestScene(t)
	s.AddPointLight(mgl32.Vec3{1, 0, 0}, ColorWhite, mgl32.Vec4{})
	s.AddPointLight(mgl32.Vec3{2, 0, 0}, ColorWhite, mgl32.Vec4{})
	s.AddPointLight(mgl32.Vec3{3, 0, 0}, ColorWhite, mgl32.Vec4{})

	if err := s.RemoveLight(1); err != nil {
		t.Fatal(err)
	}
	if s.NumLights() != 2 {
		t.Fatalf("NumLights = %d, want 2", s.NumLights())
	}
	l := s.Lights()
	if l.Positions[1].X() != 3 {
		t.Errorf("light 1 X = %v, want 3", l.Positions[1].X())
	}
	for name, n := range map[string]int{
		"Types": len(l.Types), "Enabled": len(l.Enabled), "Transforms": len(l.Transforms),
		"Projections": len(l.Projections), "ShadowMatrices": len(l.ShadowMatrices),
		"Attenuations": len(l.Attenuations), "SpotDirections": len(l.SpotDirections),
		"SpotParams": len(l.SpotParams), "Ambient": len(l.Ambient), "Diffuse": len(l.Diffuse),
		"Specular": len(l.Specular), "ShadowMaps": len(l.ShadowMaps),
	} {
		if n != 2 {
			t.Errorf("len(%s) = %d, want 2", name, n)
		}
	}
	if !rc.targets[1].disposed {
		t.Error("removed light's shadow map should be disposed")
	}
	if rc.targets[0].disposed || rc.targets[2].disposed {
		t.Error("other shadow maps should survive")
	}
	if l.ShadowMaps[1] != rc.targets[2] {
		t.Error("shadow maps should shift with their lights")
	}
}

func TestRemoveLightInvalid(t *testing.T) {
	s, _, _ := newTestScene(t)
	for _, i := range []int{-1, 0, 3} {
		if err := s.RemoveLight(i); !errors.Is(err, ErrInvalidLight) {
			t.Errorf("RemoveLight(%d) = %v, want ErrInvalidLight", i, err)
		}
	}
	if err := s.SetLightEnabled(0, true); !errors.Is(err, ErrInvalidLight) {
		t.Errorf("SetLightEnabled err = %v, want ErrInvalidLight", err)
	}
	if err := s.SetLightTransform(0, mgl32.Ident4()); !errors.Is(err, ErrInvalidLight) {
		t.Errorf("SetLightTransform err = %v, want ErrInvalidLight", err)
	}
}

func TestClearLights(t *testing.T) {
	s, rc, _ := newTestScene(t)
	s.AddPointLight(mgl32.Vec3{}, ColorWhite, mgl32.Vec4{})
	s.AddDirLight(mgl32.Vec3{0, -1, 0}, ColorWhite, mgl32.Vec4{})
	s.ClearLights()
	if s.NumLights() != 0 {
		t.Errorf("NumLights = %d, want 0", s.NumLights())
	}
	for i, rt := range rc.targets {
		if !rt.disposed {
			t.Errorf("shadow map %d not disposed", i)
		}
	}
}

func TestSetLightTransform(t *testing.T) {
	s, _, _ := newTestScene(t)
	i := s.AddPointLight(mgl32.Vec3{}, ColorWhite, mgl32.Vec4{})
	view := mgl32.LookAtV(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{}, mgl32.Vec3{0, 0, -1})
	if err := s.SetLightTransform(i, view); err != nil {
		t.Fatal(err)
	}
	l := s.Lights()
	assertVec3(t, "position", l.Positions[i].Vec3(), mgl32.Vec3{0, 10, 0})
	assertMatrix(t, "ShadowMatrix", l.ShadowMatrices[i], l.Projections[i].Mul4(view))

	d := s.AddDirLight(mgl32.Vec3{1, 0, 0}, ColorWhite, mgl32.Vec4{})
	_ = s.SetLightTransform(d, view)
	if l.Positions[d] != (mgl32.Vec4{1, 0, 0, 0}) {
		t.Errorf("directional Position = %v, want direction unchanged", l.Positions[d])
	}
}

func TestSetLightEnabled(t *testing.T) {
	s, _, _ := newTestScene(t)
	i := s.AddNewLight(LightOmni, false, mgl32.Vec3{}, ColorWhite, mgl32.Vec4{})
	if s.Lights().Enabled[i] {
		t.Fatal("light should start disabled")
	}
	_ = s.SetLightEnabled(i, true)
	if !s.Lights().Enabled[i] {
		t.Error("light should be enabled")
	}
}

func TestLightTypeString(t *testing.T) {
	tests := []struct {
		lt   LightType
		want string
	}{
		{LightSpot, "spot"},
		{LightOmni, "omni"},
		{LightDirectional, "directional"},
		{LightType(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.lt.String(); got != tt.want {
			t.Errorf("LightType(%d).String() = %q, want %q", tt.lt, got, tt.want)
		}
	}
}
