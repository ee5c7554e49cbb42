package vista

import (
	"math"
	"testing"
)

func assertAffine(t *testing.T, name string, got, want [6]float64) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
		}
	}
}

func TestMarkerAffinePlain(t *testing.T) {
	// Anchor at the marker center, no scale or rotation: the top-left lands
	// half a marker up and left of the anchor's screen point.
	m := markerAffine(Vec2{X: 100, Y: 50}, Vec2{X: 16, Y: 16}, 1, 0)
	assertAffine(t, "plain", m, [6]float64{1, 0, 0, 1, 84, 34})

	x, y := transformPoint(m, 16, 16)
	assertNear(t, "anchor.x", x, 100)
	assertNear(t, "anchor.y", y, 50)
}

func TestMarkerAffineScaleAroundAnchor(t *testing.T) {
	m := markerAffine(Vec2{X: 100, Y: 50}, Vec2{X: 16, Y: 16}, 2, 0)

	// The anchor stays fixed while corners spread out around it.
	x, y := transformPoint(m, 16, 16)
	assertNear(t, "anchor.x", x, 100)
	assertNear(t, "anchor.y", y, 50)
	x, y = transformPoint(m, 0, 0)
	assertNear(t, "corner.x", x, 68)
	assertNear(t, "corner.y", y, 18)
}

func TestMarkerAffineRotation90(t *testing.T) {
	m := markerAffine(Vec2{X: 100, Y: 50}, Vec2{}, 1, math.Pi/2)
	// cos(90)=0, sin(90)=1 → a=0, b=1, c=-1, d=0
	assertAffine(t, "rot90", m, [6]float64{0, 1, -1, 0, 100, 50})

	// Local +X maps to screen +Y.
	x, y := transformPoint(m, 10, 0)
	assertNear(t, "rotated.x", x, 100)
	assertNear(t, "rotated.y", y, 60)
}

func TestInvertAffineRoundtrip(t *testing.T) {
	m := markerAffine(Vec2{X: 30, Y: 40}, Vec2{X: 8, Y: 4}, 1.5, math.Pi/6)
	inv := invertAffine(m)

	x, y := transformPoint(m, 12, 7)
	lx, ly := transformPoint(inv, x, y)
	assertNear(t, "roundtrip.x", lx, 12)
	assertNear(t, "roundtrip.y", ly, 7)
}

func TestInvertAffineSingularReturnsIdentity(t *testing.T) {
	// Scale 0 produces a singular matrix (determinant 0).
	m := markerAffine(Vec2{X: 10, Y: 20}, Vec2{}, 0, 0)
	assertAffine(t, "singular→identity", invertAffine(m), identityAffine)
}

func TestAffineAABB(t *testing.T) {
	// A 10×20 box rotated 90° around its top-left corner at (100, 50)
	// sweeps into x ∈ [80, 100], y ∈ [50, 60].
	m := markerAffine(Vec2{X: 100, Y: 50}, Vec2{}, 1, math.Pi/2)
	box := affineAABB(m, 10, 20)
	assertNear(t, "x", box.X, 80)
	assertNear(t, "y", box.Y, 50)
	assertNear(t, "width", box.Width, 20)
	assertNear(t, "height", box.Height, 10)
}

func TestAffineAABBScaled(t *testing.T) {
	m := markerAffine(Vec2{X: 50, Y: 50}, Vec2{X: 5, Y: 5}, 3, 0)
	box := affineAABB(m, 10, 10)
	assertNear(t, "x", box.X, 35)
	assertNear(t, "y", box.Y, 35)
	assertNear(t, "width", box.Width, 30)
	assertNear(t, "height", box.Height, 30)
}

func BenchmarkMarkerAffine(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		_ = markerAffine(Vec2{X: 100, Y: 50}, Vec2{X: 16, Y: 16}, 1.5, 0.3)
	}
}
