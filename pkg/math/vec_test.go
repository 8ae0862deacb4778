package math

import (
	"math"
	"testing"
)

func TestVec3Bits_SignedZero(t *testing.T) {
	pos := Vec3{0, 1, 2}
	neg := Vec3{float32(math.Copysign(0, -1)), 1, 2}

	if pos != neg {
		t.Fatalf("expected 0 and -0 to compare equal as floats")
	}
	if pos.Bits() == neg.Bits() {
		t.Errorf("Bits() should distinguish 0 from -0")
	}
}

func TestVec3FromBits_RoundTrip(t *testing.T) {
	tests := []Vec3{
		{1, 2, 3},
		{-0.5, 1e-30, 3.4e38},
		{float32(math.Inf(1)), float32(math.Inf(-1)), 0},
	}

	for _, v := range tests {
		if got := Vec3FromBits(v.Bits()); got != v {
			t.Errorf("Vec3FromBits(%v.Bits()) = %v", v, got)
		}
	}
}

func TestVec2FlipV(t *testing.T) {
	got := Vec2{0.25, 0.75}.FlipV()
	want := Vec2{0.25, 0.25}
	if got != want {
		t.Errorf("FlipV() = %v, want %v", got, want)
	}
}

func TestVec4Swizzle(t *testing.T) {
	v := Vec4{1, 2, 3, 4}
	if got := v.XYZ(); got != (Vec3{1, 2, 3}) {
		t.Errorf("XYZ() = %v", got)
	}
	if got := v.XY(); got != (Vec2{1, 2}) {
		t.Errorf("XY() = %v", got)
	}
	if got := Vec4FromArray(v.Array()); got != v {
		t.Errorf("Vec4FromArray(Array()) = %v, want %v", got, v)
	}
}

func TestBoundsOf(t *testing.T) {
	points := []Vec3{
		{-1, 0, 2},
		{3, 4, -2},
		{1, 2, 0},
	}

	b := BoundsOf(points)

	if b.Center != (Vec3{1, 2, 0}) {
		t.Errorf("Center = %v, want {1 2 0}", b.Center)
	}
	if b.Extents != (Vec3{2, 2, 2}) {
		t.Errorf("Extents = %v, want {2 2 2}", b.Extents)
	}
	if b.Min() != (Vec3{-1, 0, -2}) {
		t.Errorf("Min() = %v", b.Min())
	}
	if b.Max() != (Vec3{3, 4, 2}) {
		t.Errorf("Max() = %v", b.Max())
	}
}

func TestBoundsOf_Empty(t *testing.T) {
	if b := BoundsOf(nil); b != (Bounds{}) {
		t.Errorf("BoundsOf(nil) = %v, want zero", b)
	}
}
