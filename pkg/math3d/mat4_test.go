package math3d

import (
	"math"
	"testing"
)

func vecNear(a, b Vec3, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps && math.Abs(a.Z-b.Z) <= eps
}

func TestViewport(t *testing.T) {
	vp := Viewport(200, 100)

	tests := []struct {
		name string
		ndc  Vec3
		want Vec3
	}{
		{"bottom left", V3(-1, -1, 0.5), V3(0, 0, 0.5)},
		{"top right", V3(1, 1, -0.5), V3(200, 100, -0.5)},
		{"center", V3(0, 0, 0), V3(100, 50, 0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := vp.MulVec3(tc.ndc)
			if !vecNear(got, tc.want, 1e-9) {
				t.Errorf("Viewport(200,100) * %v = %v, want %v", tc.ndc, got, tc.want)
			}
		})
	}
}

func TestLookAtPutsTargetOnNegativeZ(t *testing.T) {
	view := LookAt(V3(0, 0, 10), Zero3(), Up())
	got := view.MulVec3(Zero3())
	if !vecNear(got, V3(0, 0, -10), 1e-9) {
		t.Errorf("target in view space = %v, want (0, 0, -10)", got)
	}

	eye := view.MulVec3(V3(0, 0, 10))
	if !vecNear(eye, Zero3(), 1e-9) {
		t.Errorf("eye in view space = %v, want origin", eye)
	}
}

func TestPerspectiveDepthRange(t *testing.T) {
	proj := Perspective(math.Pi/2, 1, 1, 10)

	near := proj.MulVec4(V4(0, 0, -1, 1)).Homogenize()
	far := proj.MulVec4(V4(0, 0, -10, 1)).Homogenize()

	if math.Abs(near.Z+1) > 1e-9 {
		t.Errorf("near plane NDC z = %v, want -1", near.Z)
	}
	if math.Abs(far.Z-1) > 1e-9 {
		t.Errorf("far plane NDC z = %v, want 1", far.Z)
	}
}

func TestMulAssociatesWithVectors(t *testing.T) {
	a := Translate(V3(1, -2, 3))
	b := RotateY(0.7).Mul(ScaleUniform(2))
	p := V3(0.5, 1.5, -2)

	got := a.Mul(b).MulVec3(p)
	want := a.MulVec3(b.MulVec3(p))
	if !vecNear(got, want, 1e-9) {
		t.Errorf("(a*b)p = %v, a(bp) = %v", got, want)
	}
}

func TestMulVec3DirIgnoresTranslation(t *testing.T) {
	m := Translate(V3(5, 5, 5)).Mul(RotateZ(math.Pi / 2))
	got := m.MulVec3Dir(V3(1, 0, 0))
	if !vecNear(got, V3(0, 1, 0), 1e-9) {
		t.Errorf("direction = %v, want (0, 1, 0)", got)
	}
}

func TestHomogenize(t *testing.T) {
	got := V4(2, 4, 6, 2).Homogenize()
	if got != V4(1, 2, 3, 1) {
		t.Errorf("Homogenize = %v, want (1, 2, 3, 1)", got)
	}
}

func TestReflect(t *testing.T) {
	// incoming at 45 degrees onto the XZ plane
	got := V3(1, -1, 0).Reflect(Up())
	if !vecNear(got, V3(1, 1, 0), 1e-12) {
		t.Errorf("Reflect = %v, want (1, 1, 0)", got)
	}
}

func TestBlend3(t *testing.T) {
	a, b, c := V3(0, 0, 0), V3(3, 0, 0), V3(0, 3, 0)
	got := Blend3(a, b, c, 1.0/3, 1.0/3, 1.0/3)
	if !vecNear(got, V3(1, 1, 0), 1e-12) {
		t.Errorf("centroid = %v, want (1, 1, 0)", got)
	}
}
