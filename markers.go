package vista

import (
	"fmt"
	"image"
	"math"

	"github.com/golang/geo/r3"
	"github.com/rs/zerolog"
)

// polylineHitSlop is the hit distance around a polyline, in pixels.
const polylineHitSlop = 4.0

// MarkerLayer owns the markers on a panorama and the visibility pass that
// projects them onto the viewport. Like the rest of the package it expects
// a single logical writer (the viewer's frame loop) and is not safe for
// concurrent use.
type MarkerLayer struct {
	conv *Converter
	log  zerolog.Logger

	markers map[string]*Marker
	order   []string // paint order: insertion order, last drawn on top

	current *Marker // marker under the pointer
	dirty   bool    // set by mutations, cleared by Render
}

// NewMarkerLayer creates an empty layer deriving geometry through conv.
func NewMarkerLayer(conv *Converter, log zerolog.Logger) *MarkerLayer {
	return &MarkerLayer{
		conv:    conv,
		log:     log.With().Str("component", "markers").Logger(),
		markers: make(map[string]*Marker),
	}
}

// --- Registry ---

// Add registers a marker. Fails with ErrMarkerExists when the id is taken
// and with ErrInvalidConfig when the config does not validate.
func (l *MarkerLayer) Add(cfg MarkerConfig) (*Marker, error) {
	if _, ok := l.markers[cfg.ID]; ok {
		return nil, fmt.Errorf("%w: %q", ErrMarkerExists, cfg.ID)
	}
	m, err := newMarker(cfg, l.conv)
	if err != nil {
		return nil, err
	}
	l.markers[m.id] = m
	l.order = append(l.order, m.id)
	l.dirty = true
	l.log.Debug().Str("id", m.id).Stringer("type", m.typ).Msg("marker added")
	return m, nil
}

// Get returns a marker by id. Fails with ErrMarkerNotFound.
func (l *MarkerLayer) Get(id string) (*Marker, error) {
	m, ok := l.markers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMarkerNotFound, id)
	}
	return m, nil
}

// Update merges cfg into an existing marker and re-derives its geometry.
// The marker is unchanged when the merge fails.
func (l *MarkerLayer) Update(id string, cfg MarkerConfig) error {
	m, err := l.Get(id)
	if err != nil {
		return err
	}
	if err := m.update(cfg, l.conv); err != nil {
		return err
	}
	l.dirty = true
	return nil
}

// Remove unregisters a marker and returns it, so the caller can retire any
// host-side resources it still owns.
func (l *MarkerLayer) Remove(id string) (*Marker, error) {
	m, err := l.Get(id)
	if err != nil {
		return nil, err
	}
	delete(l.markers, id)
	for i, oid := range l.order {
		if oid == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	if l.current == m {
		l.current = nil
	}
	l.dirty = true
	return m, nil
}

// Clear unregisters every marker and returns them in paint order.
func (l *MarkerLayer) Clear() []*Marker {
	removed := make([]*Marker, 0, len(l.order))
	for _, id := range l.order {
		removed = append(removed, l.markers[id])
	}
	l.markers = make(map[string]*Marker)
	l.order = l.order[:0]
	l.current = nil
	l.dirty = true
	return removed
}

// SetAll replaces the whole marker set in one step. The swap is atomic:
// when any config fails validation the existing set is kept. Returns the
// replaced markers in their old paint order.
func (l *MarkerLayer) SetAll(cfgs []MarkerConfig) ([]*Marker, error) {
	markers := make(map[string]*Marker, len(cfgs))
	order := make([]string, 0, len(cfgs))
	for _, cfg := range cfgs {
		if _, ok := markers[cfg.ID]; ok {
			return nil, fmt.Errorf("%w: %q", ErrMarkerExists, cfg.ID)
		}
		m, err := newMarker(cfg, l.conv)
		if err != nil {
			return nil, err
		}
		markers[m.id] = m
		order = append(order, m.id)
	}
	removed := l.Clear()
	l.markers, l.order = markers, order
	return removed, nil
}

// Hide makes a marker invisible without removing it.
func (l *MarkerLayer) Hide(id string) error { return l.setVisible(id, false) }

// Show makes a hidden marker visible again.
func (l *MarkerLayer) Show(id string) error { return l.setVisible(id, true) }

// Toggle flips a marker's visibility and reports the new state.
func (l *MarkerLayer) Toggle(id string) (bool, error) {
	m, err := l.Get(id)
	if err != nil {
		return false, err
	}
	if err := l.setVisible(id, !m.visible); err != nil {
		return false, err
	}
	return m.visible, nil
}

func (l *MarkerLayer) setVisible(id string, visible bool) error {
	m, err := l.Get(id)
	if err != nil {
		return err
	}
	if m.visible != visible {
		m.visible = visible
		v := visible
		m.config.Visible = &v
		l.dirty = true
	}
	return nil
}

// List returns the markers in paint order. The slice is fresh on every
// call; the markers themselves are the live objects.
func (l *MarkerLayer) List() []*Marker {
	out := make([]*Marker, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.markers[id])
	}
	return out
}

// Count returns the number of registered markers.
func (l *MarkerLayer) Count() int { return len(l.markers) }

// Current returns the marker under the pointer, nil when there is none.
func (l *MarkerLayer) Current() *Marker { return l.current }

// SetCurrent records the marker under the pointer.
func (l *MarkerLayer) SetCurrent(m *Marker) { l.current = m }

// Dirty reports whether markers changed since the last Render.
func (l *MarkerLayer) Dirty() bool { return l.dirty }

// --- Visibility pass ---

// Render runs the visibility pass: hemisphere test, viewport projection,
// outline clipping, scale and rotation, with the results pushed through the
// compositor. SetTransform fires for every visible marker each pass;
// SetMarkerVisible fires only on changes. Returns the markers whose
// visibility flipped, nil when none did.
//
// zoom drives marker scale; roll is applied as marker rotation unless the
// marker locks it.
func (l *MarkerLayer) Render(scene Scene, comp Compositor, zoom, roll float64) []*Marker {
	l.dirty = false

	size := scene.ViewportSize()
	viewport := Rect{Width: size.Width, Height: size.Height}
	direction := scene.Direction()

	var changed []*Marker
	var shown, probed int
	for _, id := range l.order {
		m := l.markers[id]

		var xform MarkerTransform
		visible := m.visible
		if visible {
			if m.needsMeasure() {
				if sz, ok := comp.Measure(m); ok && sz.Width > 0 && sz.Height > 0 {
					m.setMeasured(sz)
				}
				probed++
			}
			if m.typ.IsPoly() {
				xform, visible = l.placePoly(m, scene, viewport, direction)
			} else {
				xform, visible = l.placePoint(m, scene, viewport, direction, zoom, roll)
			}
		}

		if visible {
			comp.SetTransform(m, xform)
			shown++
		}
		if visible != m.frameVisible {
			m.frameVisible = visible
			comp.SetMarkerVisible(m, visible)
			changed = append(changed, m)
		}
	}

	l.log.Debug().
		Int("markers", len(l.order)).
		Int("visible", shown).
		Int("changed", len(changed)).
		Int("probed", probed).
		Msg("visibility pass")
	return changed
}

// placePoint projects a point marker's anchor and builds its screen box.
func (l *MarkerLayer) placePoint(m *Marker, scene Scene, viewport Rect, direction r3.Vector, zoom, roll float64) (MarkerTransform, bool) {
	if !frontHemisphere(m.vectors[0], direction) {
		return MarkerTransform{}, false
	}
	if m.width <= 0 || m.height <= 0 {
		// Dynamic content that has not been measured cannot be placed.
		return MarkerTransform{}, false
	}
	pt, ok := l.conv.VectorToViewport(m.vectors[0], scene)
	if !ok {
		return MarkerTransform{}, false
	}

	scale := m.Scale(zoom)
	rotation := roll
	if m.config.LockRotation {
		rotation = 0
	}
	anchorLocal := Vec2{X: m.anchor.X * m.width, Y: m.anchor.Y * m.height}
	affine := markerAffine(Vec2{X: float64(pt.X), Y: float64(pt.Y)}, anchorLocal, scale, rotation)
	bbox := affineAABB(affine, m.width, m.height)
	if !bbox.Intersects(viewport) {
		return MarkerTransform{}, false
	}

	m.screen = pt
	m.bbox = bbox
	m.transform = affine
	m.outline = nil
	return MarkerTransform{
		Translate: Vec2{X: affine[4], Y: affine[5]},
		Scale:     scale,
		Rotate:    rotation,
	}, true
}

// placePoly clips a poly marker to the visible hemisphere and projects
// what survives. The outline is stored relative to the bounding box.
func (l *MarkerLayer) placePoly(m *Marker, scene Scene, viewport Rect, direction r3.Vector) (MarkerTransform, bool) {
	// A polygon needs more than two surviving vertices, a polyline more
	// than one; fewer can't span any area or length on screen.
	minVerts := 2
	if m.typ.IsPolygon() {
		minVerts = 3
	}
	clipped := clipToHemisphere(m.vectors, direction, l.conv.Radius(), m.typ.IsPolygon())
	if len(clipped) < minVerts {
		return MarkerTransform{}, false
	}

	outline := m.outline[:0]
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, v := range clipped {
		pt, ok := l.conv.VectorToViewport(v, scene)
		if !ok {
			continue
		}
		p := Vec2{X: float64(pt.X), Y: float64(pt.Y)}
		outline = append(outline, p)
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	m.outline = outline
	if len(outline) < minVerts {
		return MarkerTransform{}, false
	}

	bbox := Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
	if !bbox.Intersects(viewport) {
		return MarkerTransform{}, false
	}
	for i := range outline {
		outline[i].X -= bbox.X
		outline[i].Y -= bbox.Y
	}

	m.screen = image.Point{X: int(math.Round(bbox.X)), Y: int(math.Round(bbox.Y))}
	m.bbox = bbox
	m.transform = identityAffine
	m.transform[4], m.transform[5] = bbox.X, bbox.Y
	return MarkerTransform{Translate: Vec2{X: bbox.X, Y: bbox.Y}, Scale: 1}, true
}

// --- Hit testing ---

// MarkerAt returns the topmost visible marker containing the viewport
// point, nil when none does. Circles and ellipses test their inscribed
// ellipse, polygons the even-odd rule, polylines a small band around each
// segment, everything else its projected box.
func (l *MarkerLayer) MarkerAt(p image.Point) *Marker {
	x, y := float64(p.X), float64(p.Y)
	for i := len(l.order) - 1; i >= 0; i-- {
		m := l.markers[l.order[i]]
		if !m.frameVisible {
			continue
		}
		if markerContains(m, x, y) {
			return m
		}
	}
	return nil
}

// markerContains tests a viewport point against a placed marker's shape.
func markerContains(m *Marker, x, y float64) bool {
	switch m.typ {
	case MarkerCircle, MarkerEllipse:
		return ellipseContains(m.bbox, x, y)
	case MarkerPolygonPx, MarkerPolygonRad:
		return pointInPolygon(m.outline, x-m.bbox.X, y-m.bbox.Y)
	case MarkerPolylinePx, MarkerPolylineRad:
		return pointNearChain(m.outline, x-m.bbox.X, y-m.bbox.Y, polylineHitSlop)
	default:
		// Map the point back to unscaled marker pixels, so hits stay exact
		// under scale and rotation.
		lx, ly := transformPoint(invertAffine(m.transform), x, y)
		return lx >= 0 && lx <= m.width && ly >= 0 && ly <= m.height
	}
}

// ellipseContains reports whether (x, y) lies inside the ellipse inscribed
// in the rectangle.
func ellipseContains(r Rect, x, y float64) bool {
	rx, ry := r.Width/2, r.Height/2
	if rx <= 0 || ry <= 0 {
		return false
	}
	dx := (x - (r.X + rx)) / rx
	dy := (y - (r.Y + ry)) / ry
	return dx*dx+dy*dy <= 1
}

// pointInPolygon tests a point against a polygon outline with the even-odd
// crossing rule, so concave outlines work.
func pointInPolygon(points []Vec2, x, y float64) bool {
	n := len(points)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := points[i].X, points[i].Y
		xj, yj := points[j].X, points[j].Y
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}

// pointNearChain reports whether (x, y) is within slop of any segment of
// an open chain.
func pointNearChain(points []Vec2, x, y, slop float64) bool {
	for i := 0; i+1 < len(points); i++ {
		if pointSegmentDistSq(points[i], points[i+1], x, y) <= slop*slop {
			return true
		}
	}
	return false
}

// pointSegmentDistSq returns the squared distance from (x, y) to the
// segment from a to b.
func pointSegmentDistSq(a, b Vec2, x, y float64) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	t := 0.0
	if lenSq > 1e-10 {
		t = ((x-a.X)*dx + (y-a.Y)*dy) / lenSq
		t = math.Max(0, math.Min(1, t))
	}
	px := a.X + t*dx - x
	py := a.Y + t*dy - y
	return px*px + py*py
}
