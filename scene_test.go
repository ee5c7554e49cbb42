package vista

import (
	"image"
	"math"
	"testing"

	"github.com/golang/geo/r3"
)

// testView returns a 1280x720 view looking along +Z with the given fov.
func testView(vfov float64) View {
	return View{
		VFov:      vfov,
		HFov:      2 * math.Atan(math.Tan(vfov/2)*1280.0/720.0),
		Viewport:  Size{Width: 1280, Height: 720},
		Direction: r3.Vector{Z: 10},
	}
}

func TestSceneProjectCenter(t *testing.T) {
	s := NewRectilinearScene(10)
	s.ApplyView(testView(math.Pi / 2))

	ndc, ok := s.Project(r3.Vector{Z: 10})
	if !ok {
		t.Fatal("center point not projected")
	}
	assertNear(t, "ndc x", ndc.X, 0)
	assertNear(t, "ndc y", ndc.Y, 0)
}

func TestSceneProjectDirections(t *testing.T) {
	s := NewRectilinearScene(10)
	s.ApplyView(testView(math.Pi / 2))
	conv := NewConverter(0, 0, 10)

	// A point at a slightly larger longitude sits right of center.
	right, ok := s.Project(conv.SphericalToVector(Position{Longitude: 0.1}))
	if !ok {
		t.Fatal("right point not projected")
	}
	if right.X <= 0 {
		t.Errorf("larger longitude should project right of center, ndc x = %v", right.X)
	}
	assertNear(t, "right ndc y", right.Y, 0)

	// A point above the horizon sits above center.
	above, ok := s.Project(conv.SphericalToVector(Position{Latitude: 0.1}))
	if !ok {
		t.Fatal("upper point not projected")
	}
	if above.Y <= 0 {
		t.Errorf("positive latitude should project above center, ndc y = %v", above.Y)
	}
	assertNear(t, "above ndc x", above.X, 0)
}

func TestSceneProjectFovEdge(t *testing.T) {
	s := NewRectilinearScene(10)
	s.ApplyView(testView(math.Pi / 2))

	// With a 90 degree vertical fov, latitude 45 degrees is exactly the top
	// edge of the viewport.
	edge := r3.Vector{Y: 10 * math.Sin(math.Pi/4), Z: 10 * math.Cos(math.Pi/4)}
	ndc, ok := s.Project(edge)
	if !ok {
		t.Fatal("edge point not projected")
	}
	assertNear(t, "ndc y at fov edge", ndc.Y, 1)
}

func TestSceneProjectBehind(t *testing.T) {
	s := NewRectilinearScene(10)
	s.ApplyView(testView(math.Pi / 2))

	if _, ok := s.Project(r3.Vector{Z: -10}); ok {
		t.Fatal("point behind the camera should not project")
	}
}

func TestSceneProjectRoll(t *testing.T) {
	s := NewRectilinearScene(10)
	v := testView(math.Pi / 2)
	v.Roll = math.Pi / 2
	s.ApplyView(v)

	// With a quarter roll, a point above the horizon lands on a horizontal
	// screen axis instead of the vertical one.
	ndc, ok := s.Project(r3.Vector{Y: 1, Z: 10})
	if !ok {
		t.Fatal("point not projected")
	}
	assertNear(t, "rolled ndc y", ndc.Y, 0)
	if math.Abs(ndc.X) < 1e-6 {
		t.Errorf("rolled projection should move off the vertical axis, ndc x = %v", ndc.X)
	}
}

func TestSceneRaycastCenter(t *testing.T) {
	s := NewRectilinearScene(10)
	s.ApplyView(testView(math.Pi / 2))

	v, ok := s.Raycast(image.Point{X: 640, Y: 360})
	if !ok {
		t.Fatal("center pixel missed")
	}
	assertVec(t, "center ray", v, r3.Vector{Z: 10})
}

func TestSceneRaycastRoundTrip(t *testing.T) {
	s := NewRectilinearScene(10)
	s.ApplyView(testView(math.Pi / 2))
	conv := NewConverter(0, 0, 10)

	want := Position{Longitude: 0.3, Latitude: 0.2}
	pt, ok := conv.VectorToViewport(conv.SphericalToVector(want), s)
	if !ok {
		t.Fatal("position not projected")
	}
	v, ok := s.Raycast(pt)
	if !ok {
		t.Fatal("projected pixel missed the sphere")
	}
	got := conv.VectorToSpherical(v)

	// Pixel rounding moves the ray by up to half a pixel, about a
	// milliradian at this viewport size.
	const tol = 5e-3
	if math.Abs(got.Longitude-want.Longitude) > tol {
		t.Errorf("longitude = %v, want %v", got.Longitude, want.Longitude)
	}
	if math.Abs(got.Latitude-want.Latitude) > tol {
		t.Errorf("latitude = %v, want %v", got.Latitude, want.Latitude)
	}
	assertNear(t, "radius", v.Norm(), 10)
}

func TestSceneApplyViewRecomputes(t *testing.T) {
	s := NewRectilinearScene(10)
	s.ApplyView(testView(math.Pi / 2))

	front := r3.Vector{Z: 10}
	if _, ok := s.Project(front); !ok {
		t.Fatal("point ahead of the first view should project")
	}

	// Turn the camera around: the same point is now behind it.
	v := testView(math.Pi / 2)
	v.Direction = r3.Vector{Z: -10}
	s.ApplyView(v)
	if _, ok := s.Project(front); ok {
		t.Fatal("stale matrices: point should be behind the turned camera")
	}
}

func TestSceneRaycastDegenerateViewport(t *testing.T) {
	s := NewRectilinearScene(10)
	v := testView(math.Pi / 2)
	v.Viewport = Size{}
	s.ApplyView(v)

	if _, ok := s.Raycast(image.Point{}); ok {
		t.Fatal("degenerate viewport should not raycast")
	}
}
