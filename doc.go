// Package vista is the core of a spherical panorama viewer: coordinate
// conversion, camera constraints, marker geometry, visibility clipping, and
// frame-driven animation.
//
// Vista renders nothing itself. It computes where everything goes — which
// markers are on screen, their 2D transforms, the camera's field of view —
// and hands the results to a host through two narrow seams: a [Scene] that
// projects 3D points, and a [Compositor] that places marker content. A
// default [RectilinearScene] covers the projection side; the compositor is
// whatever draws for you (DOM nodes, sprite batches, SVG).
//
// # Quick start
//
// Create a [Viewer], add markers, and call [Viewer.Update] once per frame
// from your host loop:
//
//	v, err := vista.New(vista.Options{
//		Viewport:   vista.Size{Width: 1280, Height: 720},
//		Compositor: myCompositor,
//	})
//	if err != nil {
//		return err
//	}
//	v.Markers().Add(vista.MarkerConfig{
//		ID: "pin", Image: "pin.png", Width: 32, Height: 32,
//		Longitude: &lon, Latitude: &lat,
//	})
//
//	// each frame:
//	v.Update(dt)
//
// # Coordinates
//
// All angles are radians. A [Position] is a longitude in [0, 2π) and a
// latitude in [−π/2, π/2]; longitudes wrap, latitudes clamp. Zoom levels
// run from 0 (widest field of view) to 100 (narrowest). The [Converter]
// translates between texture pixels, spherical positions, sphere vectors,
// and viewport pixels.
//
// # Markers
//
// A marker's content kind — image, html, a shape, or a polygon/polyline
// vertex list — is fixed when it is created; exactly one content field of
// [MarkerConfig] must be set. Polygons and polylines are clipped against
// the visible hemisphere with great-circle boundary points, so outlines
// that wrap behind the camera stay drawable.
//
// # Animation
//
// Camera motion, zoom, autorotate ramps, and panorama cross-fades all run
// through one [Scheduler] of named-channel tweens (via [gween]). At most
// one camera animation is active at a time; starting a new one cancels the
// old, and every handle settles exactly once.
//
// Whole setups — panorama, camera options, marker set — can be loaded from
// YAML tour files with [LoadTour] and applied with [Viewer.ApplyTour].
//
// [gween]: https://github.com/tanema/gween
package vista
