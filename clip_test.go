package vista

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
)

var lookZ = r3.Vector{X: 0, Y: 0, Z: 10}

func TestFrontHemisphere(t *testing.T) {
	cases := []struct {
		name string
		v    r3.Vector
		want bool
	}{
		{"ahead", r3.Vector{X: 0, Y: 0, Z: 10}, true},
		{"behind", r3.Vector{X: 0, Y: 0, Z: -10}, false},
		{"on boundary", r3.Vector{X: 10, Y: 0, Z: 0}, false},
		{"slightly ahead", r3.Vector{X: 10, Y: 0, Z: 0.001}, true},
	}
	for _, c := range cases {
		if got := frontHemisphere(c.v, lookZ); got != c.want {
			t.Errorf("%s: frontHemisphere = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestBoundaryIntersection(t *testing.T) {
	// Chord from the view axis to the boundary in the XZ plane: the great
	// circle meets the boundary at +X, and the nudge tilts the result
	// clipEpsilon toward the camera.
	p1 := r3.Vector{X: 0, Y: 0, Z: 10}
	p2 := r3.Vector{X: 10, Y: 0, Z: 0}
	got := boundaryIntersection(p1, p2, lookZ, 10)
	want := r3.Vector{X: 10 * math.Cos(clipEpsilon), Y: 0, Z: 10 * math.Sin(clipEpsilon)}
	assertVec(t, "intersection", got, want)

	if !frontHemisphere(got, lookZ) {
		t.Error("intersection should land on the visible side")
	}
	assertNear(t, "radius", got.Norm(), 10)
}

func TestBoundaryIntersectionDegenerate(t *testing.T) {
	// Equal endpoints have no unique great circle; the fallback must still
	// return a finite point on the sphere.
	p := r3.Vector{X: 0, Y: 0, Z: 10}
	got := boundaryIntersection(p, p, lookZ, 10)
	assertNear(t, "radius", got.Norm(), 10)
	if math.IsNaN(got.X) || math.IsNaN(got.Y) || math.IsNaN(got.Z) {
		t.Fatalf("degenerate intersection produced NaN: %v", got)
	}
}

func TestClipOpenChain(t *testing.T) {
	chain := []r3.Vector{
		{X: 0, Y: 0, Z: 10},  // visible
		{X: 10, Y: 0, Z: 0},  // on the boundary, hidden
		{X: 0, Y: 0, Z: -10}, // behind
	}
	out := clipToHemisphere(chain, lookZ, 10, false)
	if len(out) != 2 {
		t.Fatalf("clipped chain has %d points, want 2", len(out))
	}
	assertVec(t, "kept vertex", out[0], chain[0])
	if !frontHemisphere(out[1], lookZ) {
		t.Error("synthesized point should be visible")
	}
}

func TestClipClosedWrapsLastEdge(t *testing.T) {
	// One visible vertex between two hidden ones. Open: one crossing on the
	// first edge only (the hidden-to-hidden edge never crosses). Closed: the
	// wrap edge from the last hidden vertex back to the visible one adds a
	// second synthesized point.
	a := 2.2 // past the boundary on both sides
	loop := []r3.Vector{
		{X: 0, Y: 0, Z: 10},
		{X: 10 * math.Sin(a), Y: 0, Z: 10 * math.Cos(a)},
		{X: -10 * math.Sin(a), Y: 0, Z: 10 * math.Cos(a)},
	}
	open := clipToHemisphere(loop, lookZ, 10, false)
	if len(open) != 2 {
		t.Fatalf("open chain clipped to %d points, want 2", len(open))
	}
	closed := clipToHemisphere(loop, lookZ, 10, true)
	if len(closed) != 3 {
		t.Fatalf("closed loop clipped to %d points, want 3", len(closed))
	}
	for i, v := range closed {
		if !frontHemisphere(v, lookZ) {
			t.Errorf("point %d is not on the visible side: %v", i, v)
		}
		assertNear(t, "radius", v.Norm(), 10)
	}
}

func TestClipAllHidden(t *testing.T) {
	loop := []r3.Vector{
		{X: 0, Y: 0, Z: -10},
		{X: 1, Y: 0, Z: -9},
		{X: -1, Y: 0, Z: -9},
	}
	if out := clipToHemisphere(loop, lookZ, 10, true); len(out) != 0 {
		t.Fatalf("fully hidden loop clipped to %d points, want 0", len(out))
	}
}

func TestClipAllVisible(t *testing.T) {
	loop := []r3.Vector{
		{X: 0, Y: 0, Z: 10},
		{X: 1, Y: 0, Z: 9},
		{X: -1, Y: 1, Z: 9},
	}
	out := clipToHemisphere(loop, lookZ, 10, true)
	if len(out) != len(loop) {
		t.Fatalf("fully visible loop clipped to %d points, want %d", len(out), len(loop))
	}
	for i := range loop {
		assertVec(t, "order preserved", out[i], loop[i])
	}
}

func TestClipEmpty(t *testing.T) {
	if out := clipToHemisphere(nil, lookZ, 10, true); out != nil {
		t.Fatalf("clipping nil returned %v", out)
	}
}
