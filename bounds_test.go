package linden

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func unitBox() AABB {
	return AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
}

// --- AABB ---

func TestEmptyAABB(t *testing.T) {
	e := EmptyAABB()
	if !e.IsEmpty() {
		t.Error("EmptyAABB should be empty")
	}
	if got := e.Size(); got != (mgl32.Vec3{}) {
		t.Errorf("Size = %v, want zero", got)
	}
	if unitBox().IsEmpty() {
		t.Error("unit box should not be empty")
	}
}

func TestAABBCombine(t *testing.T) {
	a := AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1, 1, 1}}
	b := AABB{Min: mgl32.Vec3{-2, 0.5, 0}, Max: mgl32.Vec3{0, 3, 0.5}}
	got := a.Combine(b)
	assertVec3(t, "Min", got.Min, mgl32.Vec3{-2, 0, 0})
	assertVec3(t, "Max", got.Max, mgl32.Vec3{1, 3, 1})

	if EmptyAABB().Combine(a) != a {
		t.Error("empty.Combine(a) should be a")
	}
	if a.Combine(EmptyAABB()) != a {
		t.Error("a.Combine(empty) should be a")
	}
}

func TestAABBCenterSize(t *testing.T) {
	b := AABB{Min: mgl32.Vec3{0, 2, -4}, Max: mgl32.Vec3{2, 6, 4}}
	assertVec3(t, "Center", b.Center(), mgl32.Vec3{1, 4, 0})
	assertVec3(t, "Size", b.Size(), mgl32.Vec3{2, 4, 8})
}

func TestAABBCorners(t *testing.T) {
	c := unitBox().Corners()
	if c[0] != (mgl32.Vec3{-1, -1, -1}) {
		t.Errorf("corner 0 = %v, want min", c[0])
	}
	if c[7] != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("corner 7 = %v, want max", c[7])
	}
	if c[1] != (mgl32.Vec3{1, -1, -1}) {
		t.Errorf("corner 1 = %v, want {1 -1 -1}", c[1])
	}
}

func TestAABBTransformTranslateScale(t *testing.T) {
	m := mgl32.Translate3D(5, 0, 0).Mul4(mgl32.Scale3D(2, 1, 1))
	got := unitBox().Transform(m)
	assertVec3(t, "Min", got.Min, mgl32.Vec3{3, -1, -1})
	assertVec3(t, "Max", got.Max, mgl32.Vec3{7, 1, 1})
}

func TestAABBTransformRotationGrows(t *testing.T) {
	m := mgl32.HomogRotate3DY(mgl32.DegToRad(45))
	got := unitBox().Transform(m)
	r := float32(1.41421356)
	assertNear(t, "Max.X", got.Max.X(), r)
	assertNear(t, "Max.Z", got.Max.Z(), r)
	assertNear(t, "Max.Y", got.Max.Y(), 1)
}

func TestAABBTransformEmptyStaysEmpty(t *testing.T) {
	if !EmptyAABB().Transform(mgl32.Translate3D(1, 2, 3)).IsEmpty() {
		t.Error("transformed empty box should stay empty")
	}
}

// --- Frustum ---

func testFrustum() Frustum {
	proj := mgl32.Perspective(mgl32.DegToRad(90), 1, 1, 100)
	return FrustumFromMatrix(proj)
}

func TestFrustumContainsBoxInFront(t *testing.T) {
	f := testFrustum()
	b := AABB{Min: mgl32.Vec3{-1, -1, -11}, Max: mgl32.Vec3{1, 1, -9}}
	if !f.IntersectsAABB(b) {
		t.Error("box in front of the camera should intersect")
	}
}

func TestFrustumRejectsBoxBehind(t *testing.T) {
	f := testFrustum()
	b := AABB{Min: mgl32.Vec3{-1, -1, 5}, Max: mgl32.Vec3{1, 1, 7}}
	if f.IntersectsAABB(b) {
		t.Error("box behind the camera should not intersect")
	}
}

func TestFrustumRejectsBoxBeyondFar(t *testing.T) {
	f := testFrustum()
	b := AABB{Min: mgl32.Vec3{-1, -1, -300}, Max: mgl32.Vec3{1, 1, -200}}
	if f.IntersectsAABB(b) {
		t.Error("box beyond the far plane should not intersect")
	}
}

func TestFrustumRejectsBoxOffToTheSide(t *testing.T) {
	f := testFrustum()
	// at depth 10 the half width is 10 with a 90 degree fov
	b := AABB{Min: mgl32.Vec3{20, -1, -11}, Max: mgl32.Vec3{22, 1, -9}}
	if f.IntersectsAABB(b) {
		t.Error("box outside the side plane should not intersect")
	}
}

func TestFrustumStraddlingBoxIntersects(t *testing.T) {
	f := testFrustum()
	b := AABB{Min: mgl32.Vec3{9, -1, -11}, Max: mgl32.Vec3{12, 1, -9}}
	if !f.IntersectsAABB(b) {
		t.Error("box straddling a plane should count as inside")
	}
}

func TestFrustumRejectsEmptyBox(t *testing.T) {
	if testFrustum().IntersectsAABB(EmptyAABB()) {
		t.Error("empty box should never intersect")
	}
}

func TestFrustumPlanesNormalized(t *testing.T) {
	for _, p := range testFrustum().Planes {
		assertNear(t, "plane normal length", p.Vec3().Len(), 1)
	}
}

// --- Mirror ---

func TestMirrorMatrixFloor(t *testing.T) {
	m := MirrorMatrix(mgl32.Vec4{0, 1, 0, 0})
	got := mgl32.TransformCoordinate(mgl32.Vec3{1, 2, 3}, m)
	assertVec3(t, "mirror(1,2,3)", got, mgl32.Vec3{1, -2, 3})
}

func TestMirrorMatrixOffsetPlane(t *testing.T) {
	// plane y = 1 written as (0, 1, 0, -1)
	m := MirrorMatrix(mgl32.Vec4{0, 1, 0, -1})
	got := mgl32.TransformCoordinate(mgl32.Vec3{0, 3, 0}, m)
	assertVec3(t, "mirror(0,3,0)", got, mgl32.Vec3{0, -1, 0})
}

func TestMirrorMatrixUnnormalizedPlane(t *testing.T) {
	a := MirrorMatrix(mgl32.Vec4{0, 2, 0, -2})
	b := MirrorMatrix(mgl32.Vec4{0, 1, 0, -1})
	assertMatrix(t, "mirror", a, b)
}

func TestMirrorMatrixIsInvolution(t *testing.T) {
	m := MirrorMatrix(mgl32.Vec4{1, 1, 0, 3})
	assertMatrix(t, "M*M", m.Mul4(m), mgl32.Ident4())
	assertNear(t, "det", m.Det(), -1)
}

func TestNearToleratesRoundOffAroundZero(t *testing.T) {
	m := MirrorMatrix(mgl32.Vec4{1, 1, 0, 3})
	mm := m.Mul4(m)
	if !mm.ApproxFuncEqual(mgl32.Ident4(), near) {
		t.Errorf("M*M = %v, want identity within %v", mm, epsilon)
	}
	if !near(1e-7, 0) || !near(-3e-6, 0) {
		t.Error("float32 round-off near zero should compare equal")
	}
	if near(1e-3, 0) || near(1000, 1000.5) {
		t.Error("differences beyond the tolerance should not compare equal")
	}
	if !near(1000, 1000.05) {
		t.Error("tolerance should scale with magnitude")
	}
}

func TestPlanesEqual(t *testing.T) {
	a := mgl32.Vec4{0, 1, 0, 2}
	if !planesEqual(a, mgl32.Vec4{0, 1.0005, 0, 2}, 1e-3) {
		t.Error("planes within eps should be equal")
	}
	if planesEqual(a, mgl32.Vec4{0, 1, 0, 2.01}, 1e-3) {
		t.Error("planes beyond eps should differ")
	}
}
