package math

import (
	"testing"
)

const epsilon = 1e-5

func almostEqual(a, b float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 10); got != 5 {
		t.Errorf("Clamp(5, 0, 10) = %d", got)
	}
	if got := Clamp(-3, 0, 10); got != 0 {
		t.Errorf("Clamp(-3, 0, 10) = %d", got)
	}
	if got := Clamp(42, 0, 10); got != 10 {
		t.Errorf("Clamp(42, 0, 10) = %d", got)
	}
	if got := Clamp(float32(0.5), 0.0, 1.0); got != 0.5 {
		t.Errorf("Clamp(0.5, 0, 1) = %f", got)
	}
}

func TestVec3Ops(t *testing.T) {
	v := NewVec3(3, 4, 0)
	if !almostEqual(v.Length(), 5) {
		t.Errorf("Length = %f, want 5", v.Length())
	}
	if !almostEqual(v.Normalized().Length(), 1) {
		t.Errorf("Normalized length = %f, want 1", v.Normalized().Length())
	}

	x := NewVec3(1, 0, 0)
	y := NewVec3(0, 1, 0)
	z := x.Cross(y)
	if !almostEqual(z.Z, 1) || !almostEqual(z.X, 0) || !almostEqual(z.Y, 0) {
		t.Errorf("x cross y = %+v, want +z", z)
	}
	if !almostEqual(x.Dot(y), 0) {
		t.Errorf("x dot y = %f, want 0", x.Dot(y))
	}
}

func TestMat4MulIdentity(t *testing.T) {
	identity := NewMat4Identity()
	translation := NewMat4Translation(NewVec3(1, 2, 3))

	got := translation.Mul(identity)
	for i := range got.Data {
		if !almostEqual(got.Data[i], translation.Data[i]) {
			t.Fatalf("M*I differs from M at element %d: %f vs %f", i, got.Data[i], translation.Data[i])
		}
	}
}

func TestMat4TranslationMovesPoint(t *testing.T) {
	translation := NewMat4Translation(NewVec3(1, 2, 3))
	p := NewVec3(0, 0, 0).Transform(translation)
	if !almostEqual(p.X, 1) || !almostEqual(p.Y, 2) || !almostEqual(p.Z, 3) {
		t.Errorf("translated origin = %+v, want (1, 2, 3)", p)
	}
}

func TestMat4EulerYQuarterTurn(t *testing.T) {
	rotation := NewMat4EulerY(DegToRad(90))
	// +X rotates towards -Z for a Y axis quarter turn.
	p := NewVec3(1, 0, 0).Transform(rotation)
	if !almostEqual(p.X, 0) || !almostEqual(p.Y, 0) || !almostEqual(p.Z, -1) {
		t.Errorf("rotated +x = %+v, want (0, 0, -1)", p)
	}
}

func TestPerspectiveDepthRange(t *testing.T) {
	const near, far = 0.1, 100.0
	projection := NewMat4Perspective(DegToRad(50), 16.0/9.0, near, far)

	// W column must carry +z, the Vulkan clip convention.
	if !almostEqual(projection.Data[11], 1) {
		t.Fatalf("Data[11] = %f, want 1", projection.Data[11])
	}

	projectDepth := func(z float32) float32 {
		clipZ := projection.Data[10]*z + projection.Data[14]
		clipW := projection.Data[11] * z
		return clipZ / clipW
	}

	// Depth maps to [0, 1], not OpenGL's [-1, 1].
	if got := projectDepth(near); !almostEqual(got, 0) {
		t.Errorf("depth at near plane = %f, want 0", got)
	}
	if got := projectDepth(far); !almostEqual(got, 1) {
		t.Errorf("depth at far plane = %f, want 1", got)
	}
}

func TestTransformIdentity(t *testing.T) {
	transform := NewTransform()
	matrix := transform.Matrix()
	identity := NewMat4Identity()
	for i := range matrix.Data {
		if !almostEqual(matrix.Data[i], identity.Data[i]) {
			t.Fatalf("default transform matrix differs from identity at element %d", i)
		}
	}
}

func TestTransformTranslationLandsInLastColumn(t *testing.T) {
	transform := NewTransform()
	transform.Translation = NewVec3(4, 5, 6)

	matrix := transform.Matrix()
	if !almostEqual(matrix.Data[12], 4) || !almostEqual(matrix.Data[13], 5) || !almostEqual(matrix.Data[14], 6) {
		t.Errorf("translation column = (%f, %f, %f), want (4, 5, 6)",
			matrix.Data[12], matrix.Data[13], matrix.Data[14])
	}
}

func TestMod(t *testing.T) {
	if got := Mod(7, 2*Pi); !almostEqual(got, 7-2*Pi) {
		t.Errorf("Mod(7, 2pi) = %f", got)
	}
}
