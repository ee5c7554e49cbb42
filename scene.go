package vista

import (
	"image"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// Scene is the projection backend the viewer drives. Implementations own
// the camera matrices; the viewer pushes a complete View before reading any
// projection back.
type Scene interface {
	// Project maps a world point to normalized device coordinates.
	// ok is false when the point is on or behind the camera plane.
	Project(v r3.Vector) (Vec2, bool)
	// Raycast returns where the ray through a viewport pixel meets the
	// panorama sphere.
	Raycast(p image.Point) (r3.Vector, bool)
	// Direction is the camera orientation vector, scaled to the sphere
	// radius.
	Direction() r3.Vector
	ViewportSize() Size
	// ApplyView installs the camera state for the coming frame.
	ApplyView(View)
}

// MarkerTransform is the screen placement of a visible marker: translate
// the content's local origin to Translate, then rotate and scale about
// that origin.
type MarkerTransform struct {
	Translate Vec2
	Scale     float64
	Rotate    float64
}

// Compositor receives marker placement from the visibility pass. Hosts
// implement it to drive whatever draws the markers (DOM nodes, sprite
// batches, SVG). SetTransform fires for every visible marker on every
// pass; SetMarkerVisible only when visibility changes.
type Compositor interface {
	// Measure returns the content size of a marker with no declared size.
	// ok is false when the compositor cannot measure it.
	Measure(m *Marker) (Size, bool)
	SetTransform(m *Marker, t MarkerTransform)
	SetMarkerVisible(m *Marker, visible bool)
}

// NopCompositor ignores every call. It keeps a headless viewer (tests,
// server-side tour tooling) running without a host renderer.
type NopCompositor struct{}

func (NopCompositor) Measure(*Marker) (Size, bool)          { return Size{}, false }
func (NopCompositor) SetTransform(*Marker, MarkerTransform) {}
func (NopCompositor) SetMarkerVisible(*Marker, bool)        {}

// PanoramaLoader resolves a panorama source (path, URL, asset key) into a
// Panorama carrying the host's texture handle. Load runs on a worker
// goroutine, so it must be safe to call off the frame loop.
type PanoramaLoader interface {
	Load(source string) (*Panorama, error)
}

// OrientationSource feeds device orientation into the viewer. ok is false
// when no fresh reading is available this frame.
type OrientationSource interface {
	Orientation() (yaw, pitch, roll float64, ok bool)
}

// StereoRenderer switches the host in and out of side-by-side stereo.
type StereoRenderer interface {
	EnterStereo() error
	ExitStereo()
}

// --- Default Scene ---

// RectilinearScene projects through a standard perspective camera sitting
// at the sphere center. The view-projection matrix is cached and only
// recomputed after ApplyView.
type RectilinearScene struct {
	view   View
	radius float64

	viewProj    mgl64.Mat4
	invViewProj mgl64.Mat4
	dirty       bool
}

// NewRectilinearScene creates a scene for a sphere of the given radius.
// Zero means the package default radius.
func NewRectilinearScene(radius float64) *RectilinearScene {
	if radius == 0 {
		radius = defaultRadius
	}
	return &RectilinearScene{
		radius: radius,
		view: View{
			VFov:      DefaultMaxFov,
			Viewport:  Size{Width: 1, Height: 1},
			Direction: r3.Vector{Z: radius},
		},
		dirty: true,
	}
}

// ApplyView installs the camera state for the coming frame.
func (s *RectilinearScene) ApplyView(v View) {
	s.view = v
	s.dirty = true
}

// View returns the last applied camera state.
func (s *RectilinearScene) View() View { return s.view }

// Direction returns the camera orientation vector, scaled to the sphere
// radius.
func (s *RectilinearScene) Direction() r3.Vector { return s.view.Direction }

// ViewportSize returns the viewport of the last applied view.
func (s *RectilinearScene) ViewportSize() Size { return s.view.Viewport }

// compute refreshes the cached matrices if dirty.
func (s *RectilinearScene) compute() {
	if !s.dirty {
		return
	}
	s.dirty = false

	proj := mgl64.Perspective(s.view.VFov, s.view.Viewport.Aspect(), 0.1, 2*s.radius)

	center := mgl64.Vec3{s.view.Direction.X, s.view.Direction.Y, s.view.Direction.Z}
	up := mgl64.Vec3{0, 1, 0}
	if s.view.Roll != 0 {
		up = mgl64.QuatRotate(s.view.Roll, center.Normalize()).Rotate(up)
	}
	view := mgl64.LookAtV(mgl64.Vec3{}, center, up)

	s.viewProj = proj.Mul4(view)
	s.invViewProj = s.viewProj.Inv()
}

// Project maps a world point to normalized device coordinates. ok is false
// when the point is on or behind the camera plane.
func (s *RectilinearScene) Project(v r3.Vector) (Vec2, bool) {
	s.compute()
	p := s.viewProj.Mul4x1(mgl64.Vec4{v.X, v.Y, v.Z, 1})
	if p.W() <= 0 {
		return Vec2{}, false
	}
	return Vec2{X: p.X() / p.W(), Y: p.Y() / p.W()}, true
}

// Raycast returns where the ray through a viewport pixel meets the
// panorama sphere. The camera sits at the sphere center, so the hit is the
// ray direction scaled to the radius; ok is false only for a degenerate
// viewport.
func (s *RectilinearScene) Raycast(p image.Point) (r3.Vector, bool) {
	s.compute()
	size := s.view.Viewport
	if size.Width <= 0 || size.Height <= 0 {
		return r3.Vector{}, false
	}

	ndc := mgl64.Vec4{
		2*float64(p.X)/size.Width - 1,
		1 - 2*float64(p.Y)/size.Height,
		0.5,
		1,
	}
	world := s.invViewProj.Mul4x1(ndc)
	if world.W() == 0 {
		return r3.Vector{}, false
	}
	dir := r3.Vector{
		X: world.X() / world.W(),
		Y: world.Y() / world.W(),
		Z: world.Z() / world.W(),
	}
	n := dir.Norm()
	if n == 0 {
		return r3.Vector{}, false
	}
	return dir.Mul(s.radius / n), true
}
