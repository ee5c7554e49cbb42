package vista

import (
	"image"
	"math"

	"github.com/golang/geo/r3"
)

// Converter translates between the coordinate spaces of a panorama: zoom
// levels and vertical fields of view, texture pixels, spherical positions,
// and 3D vectors on the sphere. It is stateless apart from the FOV bounds,
// the sphere radius, and the crop metadata of the current panorama.
//
// All angles are radians. Zoom levels run from 0 (widest FOV) to 100
// (narrowest FOV).
type Converter struct {
	minFov, maxFov float64
	radius         float64

	projection Projection
	crop       CropRect
	hasPano    bool
}

// NewConverter creates a Converter with the given FOV bounds and sphere
// radius. Zero values fall back to the package defaults.
func NewConverter(minFov, maxFov, radius float64) *Converter {
	if minFov == 0 {
		minFov = DefaultMinFov
	}
	if maxFov == 0 {
		maxFov = DefaultMaxFov
	}
	if radius == 0 {
		radius = defaultRadius
	}
	return &Converter{minFov: minFov, maxFov: maxFov, radius: radius}
}

// SetPanorama installs the crop metadata and projection kind of a panorama.
// Texture conversions fail with ErrNoPanorama until this has been called.
func (c *Converter) SetPanorama(p *Panorama) {
	if p == nil {
		c.hasPano = false
		return
	}
	c.projection = p.Projection
	c.crop = p.Crop
	c.hasPano = true
}

// Radius returns the sphere radius every 3D vector is scaled to.
func (c *Converter) Radius() float64 { return c.radius }

// --- Zoom and field of view ---

// ZoomLevelToFov returns the vertical field of view for a zoom level.
// Level 0 maps to the maximum FOV, level 100 to the minimum.
func (c *Converter) ZoomLevelToFov(level float64) float64 {
	return c.maxFov + (level/100)*(c.minFov-c.maxFov)
}

// FovToZoomLevel returns the zoom level for a vertical field of view.
// The intermediate ratio is rounded to a whole level before the scale is
// flipped, so FovToZoomLevel(ZoomLevelToFov(l)) == l for integer levels.
func (c *Converter) FovToZoomLevel(fov float64) float64 {
	level := math.Round((fov - c.minFov) / (c.maxFov - c.minFov) * 100)
	return level - 2*(level-50)
}

// HorizontalFov derives the horizontal field of view from a vertical one
// and the viewport aspect ratio.
func (c *Converter) HorizontalFov(vfov, aspect float64) float64 {
	return 2 * math.Atan(math.Tan(vfov/2)*aspect)
}

// --- Texture pixels and spherical positions ---

// TextureToSpherical converts a pixel on the panorama texture to the
// spherical position it covers. Fails with ErrCubemapTexture for cubemap
// panoramas and ErrNoPanorama before any panorama is set.
func (c *Converter) TextureToSpherical(p image.Point) (Position, error) {
	if !c.hasPano {
		return Position{}, ErrNoPanorama
	}
	if c.projection == Cubemap {
		return Position{}, ErrCubemapTexture
	}
	relX := float64(p.X+c.crop.X) / float64(c.crop.FullWidth) * 2 * math.Pi
	relY := float64(p.Y+c.crop.Y) / float64(c.crop.FullHeight) * math.Pi

	longitude := relX + math.Pi
	if relX >= math.Pi {
		longitude = relX - math.Pi
	}
	return Position{
		Longitude: longitude,
		Latitude:  math.Pi/2 - relY,
	}, nil
}

// SphericalToTexture converts a spherical position to the texture pixel
// covering it, rounded to whole pixels. Fails with ErrCubemapTexture for
// cubemap panoramas and ErrNoPanorama before any panorama is set.
func (c *Converter) SphericalToTexture(pos Position) (image.Point, error) {
	if !c.hasPano {
		return image.Point{}, ErrNoPanorama
	}
	if c.projection == Cubemap {
		return image.Point{}, ErrCubemapTexture
	}
	relLong := pos.Longitude / (2 * math.Pi) * float64(c.crop.FullWidth)
	relLat := pos.Latitude / math.Pi * float64(c.crop.FullHeight)

	half := float64(c.crop.FullWidth) / 2
	x := relLong - half
	if pos.Longitude < math.Pi {
		x = relLong + half
	}
	return image.Point{
		X: int(math.Round(x)) - c.crop.X,
		Y: int(math.Round(float64(c.crop.FullHeight)/2-relLat)) - c.crop.Y,
	}, nil
}

// --- Spherical positions and sphere vectors ---

// SphericalToVector converts a spherical position to a 3D point on the
// sphere, scaled to the sphere radius.
func (c *Converter) SphericalToVector(pos Position) r3.Vector {
	return r3.Vector{
		X: c.radius * -math.Cos(pos.Latitude) * math.Sin(pos.Longitude),
		Y: c.radius * math.Sin(pos.Latitude),
		Z: c.radius * math.Cos(pos.Latitude) * math.Cos(pos.Longitude),
	}
}

// VectorToSpherical converts a 3D point back to its spherical position.
// The vector does not have to lie exactly on the sphere.
func (c *Converter) VectorToSpherical(v r3.Vector) Position {
	phi := math.Acos(v.Y / v.Norm())
	theta := math.Atan2(v.X, v.Z)

	longitude := 2*math.Pi - theta
	if theta < 0 {
		longitude = -theta
	}
	return Position{
		Longitude: longitude,
		Latitude:  math.Pi/2 - phi,
	}
}

// --- Viewport projection ---

// VectorToViewport projects a 3D point to viewport pixels through the
// scene. The second result is false when the point is behind the camera.
func (c *Converter) VectorToViewport(v r3.Vector, scene Scene) (image.Point, bool) {
	ndc, ok := scene.Project(v)
	if !ok {
		return image.Point{}, false
	}
	size := scene.ViewportSize()
	return image.Point{
		X: int(math.Round((ndc.X + 1) / 2 * size.Width)),
		Y: int(math.Round((1 - ndc.Y) / 2 * size.Height)),
	}, true
}

// ViewportToVector casts a ray through a viewport pixel and returns where
// it meets the panorama sphere. The second result is false when the pixel
// misses the sphere.
func (c *Converter) ViewportToVector(p image.Point, scene Scene) (r3.Vector, bool) {
	return scene.Raycast(p)
}

// --- Mixed position configs ---

// CleanPosition resolves a config's position, given either as texture
// pixels or as spherical angles. Pixel positions go through
// TextureToSpherical; spherical ones get their longitude wrapped and
// latitude clamped.
func (c *Converter) CleanPosition(cfg *MarkerConfig) (Position, error) {
	if cfg.X != nil && cfg.Y != nil {
		return c.TextureToSpherical(image.Point{X: *cfg.X, Y: *cfg.Y})
	}
	if cfg.Longitude == nil || cfg.Latitude == nil {
		return Position{}, configErrorf("position", "needs x/y pixels or longitude/latitude angles")
	}
	return Position{Longitude: *cfg.Longitude, Latitude: *cfg.Latitude}.sanitize(), nil
}
