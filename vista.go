package vista

import (
	"math"

	"github.com/golang/geo/r3"
)

// Vec2 is a 2D vector used for positions, offsets, sizes, and directions
// throughout the API.
type Vec2 struct {
	X, Y float64
}

// Size is a width/height pair in device pixels. Fractional sizes are allowed
// so hosts with non-integer scale factors do not have to round.
type Size struct {
	Width, Height float64
}

// Aspect returns Width/Height, or 1 for a degenerate size.
func (s Size) Aspect() float64 {
	if s.Height == 0 {
		return 1
	}
	return s.Width / s.Height
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Range is a general-purpose min/max range.
// Used by Ranges to constrain camera longitude and latitude.
type Range struct {
	Min, Max float64
}

// Position is a point on the panorama sphere. Longitude is in [0, 2π) with 0
// at the panorama center and values increasing to the right; Latitude is in
// [−π/2, π/2] with positive values above the horizon. Radians throughout.
type Position struct {
	Longitude, Latitude float64
}

// wrapLongitude folds an arbitrary angle into [0, 2π).
func wrapLongitude(l float64) float64 {
	l = math.Mod(l, 2*math.Pi)
	if l < 0 {
		l += 2 * math.Pi
	}
	return l
}

// clampLatitude clamps an angle to [−π/2, π/2].
func clampLatitude(l float64) float64 {
	return math.Max(-math.Pi/2, math.Min(math.Pi/2, l))
}

// sanitize returns the position with longitude wrapped and latitude clamped.
func (p Position) sanitize() Position {
	return Position{
		Longitude: wrapLongitude(p.Longitude),
		Latitude:  clampLatitude(p.Latitude),
	}
}

// Side identifies which edge of a configured range a movement was clamped
// against.
type Side uint8

const (
	SideLeft   Side = iota // clamped against the longitude range minimum
	SideRight              // clamped against the longitude range maximum
	SideTop                // clamped against the latitude range maximum
	SideBottom             // clamped against the latitude range minimum
)

// String returns the side name used in logs and events.
func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	case SideTop:
		return "top"
	case SideBottom:
		return "bottom"
	default:
		return "unknown"
	}
}

// Projection identifies how a panorama texture maps onto the sphere.
type Projection uint8

const (
	Equirectangular Projection = iota // single equirectangular texture
	Cubemap                           // six cube faces; no texture coordinate space
)

// String returns the projection name used in logs and tour files.
func (p Projection) String() string {
	switch p {
	case Equirectangular:
		return "equirectangular"
	case Cubemap:
		return "cubemap"
	default:
		return "unknown"
	}
}

// CropRect describes how a partial equirectangular texture sits inside the
// full sphere. FullWidth and FullHeight are the dimensions the texture would
// have if it covered the whole sphere; X and Y are the offset of the cropped
// texture's top-left corner inside that full image. All values in pixels.
type CropRect struct {
	FullWidth, FullHeight int
	X, Y                  int
}

// Panorama describes a loaded panorama. Texture is an opaque handle owned by
// the host (the core never decodes or draws image data).
type Panorama struct {
	Source     string
	Projection Projection
	Crop       CropRect
	Texture    any
}

// View is the camera state the orchestrator pushes to the Scene each frame.
// HFov and Direction are derived from the other fields; they are recomputed
// whenever the position, zoom, or viewport changes, so a Scene may trust them.
type View struct {
	Position  Position
	Roll      float64 // radians, nonzero only while an orientation source is active
	VFov      float64 // vertical field of view, radians
	HFov      float64 // horizontal field of view, derived from VFov and aspect
	Viewport  Size
	Direction r3.Vector // orientation vector, scaled to the sphere radius
}

// --- Defaults ---

const (
	// DefaultMinFov is the narrowest vertical field of view (zoom level 100).
	DefaultMinFov = math.Pi / 6
	// DefaultMaxFov is the widest vertical field of view (zoom level 0).
	DefaultMaxFov = math.Pi / 2
	// DefaultZoom is the zoom level applied when none is configured.
	DefaultZoom = 50.0

	// defaultRadius is the panorama sphere radius. Any positive value works
	// as long as every 3D quantity uses the same one.
	defaultRadius = 10.0
)
