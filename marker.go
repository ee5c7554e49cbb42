package vista

import (
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/tanema/gween/ease"
	"gopkg.in/yaml.v3"
)

// MarkerType identifies the content kind of a marker. The kind is resolved
// once when the marker is created and can never change afterwards.
type MarkerType uint8

const (
	MarkerImage       MarkerType = iota // image file shown at the position
	MarkerHTML                          // free-form host content
	MarkerSquare                        // square of a given size
	MarkerRect                          // rectangle of a given width/height
	MarkerCircle                        // circle of a given radius
	MarkerEllipse                       // ellipse of given radii
	MarkerPath                          // SVG path data
	MarkerPolygonPx                     // closed outline, texture pixels
	MarkerPolygonRad                    // closed outline, spherical angles
	MarkerPolylinePx                    // open chain, texture pixels
	MarkerPolylineRad                   // open chain, spherical angles
)

var markerTypeNames = [...]string{
	"image", "html", "square", "rect", "circle", "ellipse", "path",
	"polygonPx", "polygonRad", "polylinePx", "polylineRad",
}

// String returns the config field name of the marker type.
func (t MarkerType) String() string {
	if int(t) < len(markerTypeNames) {
		return markerTypeNames[t]
	}
	return "unknown"
}

// IsPoly reports whether the marker is drawn from a vertex list rather
// than placed at a single position.
func (t MarkerType) IsPoly() bool { return t >= MarkerPolygonPx }

// IsPolygon reports whether the marker is a closed outline.
func (t MarkerType) IsPolygon() bool { return t == MarkerPolygonPx || t == MarkerPolygonRad }

// --- Config unions ---

// Coords is a list of coordinate pairs. YAML accepts either a flat numeric
// sequence or a sequence of pairs; both decode to pairs.
type Coords [][2]float64

// CoordsFromFlat converts a flat, even-length value list to pairs.
func CoordsFromFlat(flat []float64) (Coords, error) {
	if len(flat)%2 != 0 {
		return nil, configErrorf("coordinates", "odd number of values")
	}
	coords := make(Coords, len(flat)/2)
	for i := range coords {
		coords[i] = [2]float64{flat[2*i], flat[2*i+1]}
	}
	return coords, nil
}

func (c *Coords) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return configErrorf("coordinates", "expected a sequence")
	}
	if len(value.Content) == 0 {
		*c = nil
		return nil
	}
	if value.Content[0].Kind == yaml.SequenceNode {
		var pairs [][2]float64
		if err := value.Decode(&pairs); err != nil {
			return err
		}
		*c = pairs
		return nil
	}
	var flat []float64
	if err := value.Decode(&flat); err != nil {
		return err
	}
	coords, err := CoordsFromFlat(flat)
	if err != nil {
		return err
	}
	*c = coords
	return nil
}

// ScaleSpec controls how a marker scales with the zoom level. Func wins
// when set, then the [zoom 0, zoom 100] Range, then the Fixed factor
// riding the eased zoom fraction (Fixed at zoom 100, shrinking toward 0).
// The zero value means no scaling (factor 1 at every zoom level).
type ScaleSpec struct {
	Fixed float64
	Range *[2]float64
	Func  func(zoom float64) float64
}

func (s *ScaleSpec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var f float64
		if err := value.Decode(&f); err != nil {
			return err
		}
		s.Fixed = f
	case yaml.SequenceNode:
		var r [2]float64
		if err := value.Decode(&r); err != nil {
			return err
		}
		s.Range = &r
	default:
		return configErrorf("scale", "expected a number or [min, max]")
	}
	return nil
}

// Anchor is the point of the marker, as fractions of its size, that sits on
// the marker's projected position. The zero value is the top-left corner;
// markers default to the center.
type Anchor struct {
	X, Y float64
}

var anchorCenter = Anchor{X: 0.5, Y: 0.5}

// ParseAnchor parses a CSS-style anchor expression: the keywords "left",
// "center", "right", "top", "bottom" in either order, or percentages
// positionally ("20% 80%"). Unnamed axes stay centered.
func ParseAnchor(s string) (Anchor, error) {
	a := anchorCenter
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 || len(fields) > 2 {
		return a, configErrorf("anchor", "expected one or two tokens in %q", s)
	}
	xFilled := false
	for _, f := range fields {
		switch f {
		case "left":
			a.X, xFilled = 0, true
		case "right":
			a.X, xFilled = 1, true
		case "top":
			a.Y = 0
		case "bottom":
			a.Y = 1
		case "center":
			// already centered on both axes
		default:
			v, err := strconv.ParseFloat(strings.TrimSuffix(f, "%"), 64)
			if err != nil || !strings.HasSuffix(f, "%") {
				return anchorCenter, configErrorf("anchor", "bad token %q", f)
			}
			if !xFilled {
				a.X, xFilled = v/100, true
			} else {
				a.Y = v / 100
			}
		}
	}
	return a, nil
}

func (a *Anchor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		parsed, err := ParseAnchor(value.Value)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	}
	var raw struct {
		X float64 `yaml:"x"`
		Y float64 `yaml:"y"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*a = Anchor{X: raw.X, Y: raw.Y}
	return nil
}

// Tooltip is the hover content attached to a marker. The core only carries
// it; rendering is the host's concern.
type Tooltip struct {
	Content  string
	Position string
}

func (tp *Tooltip) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		tp.Content = value.Value
		return nil
	}
	var raw struct {
		Content  string `yaml:"content"`
		Position string `yaml:"position"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	tp.Content, tp.Position = raw.Content, raw.Position
	return nil
}

// --- MarkerConfig ---

// MarkerConfig describes a marker. Exactly one content field must be set;
// it fixes the marker type for the marker's whole life. Point markers need
// a position as either texture pixels (X/Y) or spherical angles
// (Longitude/Latitude); poly markers carry their vertices in the content
// field itself.
type MarkerConfig struct {
	ID string `yaml:"id"`

	// Position (point markers only).
	X         *int     `yaml:"x,omitempty"`
	Y         *int     `yaml:"y,omitempty"`
	Longitude *float64 `yaml:"longitude,omitempty"`
	Latitude  *float64 `yaml:"latitude,omitempty"`

	// Content: exactly one.
	Image       string      `yaml:"image,omitempty"`
	HTML        string      `yaml:"html,omitempty"`
	Square      float64     `yaml:"square,omitempty"`
	Rect        *[2]float64 `yaml:"rect,omitempty,flow"`
	Circle      float64     `yaml:"circle,omitempty"`
	Ellipse     *[2]float64 `yaml:"ellipse,omitempty,flow"`
	Path        string      `yaml:"path,omitempty"`
	PolygonPx   Coords      `yaml:"polygonPx,omitempty"`
	PolygonRad  Coords      `yaml:"polygonRad,omitempty"`
	PolylinePx  Coords      `yaml:"polylinePx,omitempty"`
	PolylineRad Coords      `yaml:"polylineRad,omitempty"`

	// Presentation.
	Width        float64           `yaml:"width,omitempty"`
	Height       float64           `yaml:"height,omitempty"`
	Scale        *ScaleSpec        `yaml:"scale,omitempty"`
	Anchor       *Anchor           `yaml:"anchor,omitempty"`
	Visible      *bool             `yaml:"visible,omitempty"`
	LockRotation bool              `yaml:"lockRotation,omitempty"`
	Tooltip      *Tooltip          `yaml:"tooltip,omitempty"`
	Style        map[string]string `yaml:"style,omitempty"`
	SVGStyle     map[string]string `yaml:"svgStyle,omitempty"`
	ClassName    string            `yaml:"className,omitempty"`
	Data         any               `yaml:"data,omitempty"`
}

// contentType returns the marker type selected by the config's content
// fields. ok is false when no content field is set.
func (cfg *MarkerConfig) contentType() (typ MarkerType, ok bool, err error) {
	set := func(t MarkerType) {
		if ok {
			err = configErrorf("content", "both %s and %s set", typ, t)
			return
		}
		typ, ok = t, true
	}
	if cfg.Image != "" {
		set(MarkerImage)
	}
	if cfg.HTML != "" {
		set(MarkerHTML)
	}
	if cfg.Square != 0 {
		set(MarkerSquare)
	}
	if cfg.Rect != nil {
		set(MarkerRect)
	}
	if cfg.Circle != 0 {
		set(MarkerCircle)
	}
	if cfg.Ellipse != nil {
		set(MarkerEllipse)
	}
	if cfg.Path != "" {
		set(MarkerPath)
	}
	if len(cfg.PolygonPx) > 0 {
		set(MarkerPolygonPx)
	}
	if len(cfg.PolygonRad) > 0 {
		set(MarkerPolygonRad)
	}
	if len(cfg.PolylinePx) > 0 {
		set(MarkerPolylinePx)
	}
	if len(cfg.PolylineRad) > 0 {
		set(MarkerPolylineRad)
	}
	return typ, ok, err
}

// --- Marker ---

// Marker is a registered marker with its derived geometry. Derived fields
// are recomputed from the config whenever it changes; the per-frame fields
// are owned by the MarkerLayer visibility pass.
type Marker struct {
	id     string
	typ    MarkerType
	config MarkerConfig

	// Derived geometry.
	position  Position    // point markers: the position; polys: first vertex
	positions []Position  // poly markers: every vertex
	vectors   []r3.Vector // scaled to the sphere radius

	// Shape definition, by type.
	rectSize     [2]float64 // square, rect
	ellipseRadii [2]float64 // circle, ellipse

	// Presentation.
	anchor        Anchor
	width, height float64
	dynamicSize   bool // size comes from a compositor measurement
	measured      Size
	visible       bool

	// Per-frame state, written by the visibility pass.
	frameVisible bool
	screen       image.Point
	outline      []Vec2
	bbox         Rect
	transform    [6]float64
}

// newMarker validates a config, resolves its type, and derives the
// marker's geometry through the converter.
func newMarker(cfg MarkerConfig, conv *Converter) (*Marker, error) {
	if cfg.ID == "" {
		return nil, configErrorf("id", "a marker needs an id")
	}
	typ, ok, err := cfg.contentType()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, configErrorf("content", "a marker needs exactly one content field")
	}
	m := &Marker{id: cfg.ID, typ: typ, config: cfg}
	if err := m.derive(conv); err != nil {
		return nil, err
	}
	return m, nil
}

// derive recomputes geometry, shape and presentation from the config.
// It touches m only on success.
func (m *Marker) derive(conv *Converter) error {
	d := *m

	d.anchor = anchorCenter
	if cfg := &d.config; cfg.Anchor != nil {
		d.anchor = *cfg.Anchor
	}
	d.visible = d.config.Visible == nil || *d.config.Visible

	var err error
	if d.typ.IsPoly() {
		err = d.derivePoly(conv)
	} else {
		err = d.derivePoint(conv)
	}
	if err != nil {
		return err
	}

	*m = d
	return nil
}

func (m *Marker) derivePoint(conv *Converter) error {
	cfg := &m.config
	pos, err := conv.CleanPosition(cfg)
	if err != nil {
		return err
	}
	m.position = pos
	m.positions = nil
	m.vectors = []r3.Vector{conv.SphericalToVector(pos)}
	m.dynamicSize = false

	switch m.typ {
	case MarkerImage:
		if cfg.Width <= 0 || cfg.Height <= 0 {
			return configErrorf("size", "image markers need an explicit width and height")
		}
		m.width, m.height = cfg.Width, cfg.Height
	case MarkerHTML, MarkerPath:
		if cfg.Width > 0 && cfg.Height > 0 {
			m.width, m.height = cfg.Width, cfg.Height
		} else {
			m.dynamicSize = true
			m.width, m.height = m.measured.Width, m.measured.Height
		}
	case MarkerSquare:
		if cfg.Square < 0 {
			return configErrorf("square", "negative size")
		}
		m.rectSize = [2]float64{cfg.Square, cfg.Square}
		m.width, m.height = cfg.Square, cfg.Square
	case MarkerRect:
		if cfg.Rect[0] <= 0 || cfg.Rect[1] <= 0 {
			return configErrorf("rect", "needs a positive width and height")
		}
		m.rectSize = *cfg.Rect
		m.width, m.height = cfg.Rect[0], cfg.Rect[1]
	case MarkerCircle:
		if cfg.Circle < 0 {
			return configErrorf("circle", "negative radius")
		}
		m.ellipseRadii = [2]float64{cfg.Circle, cfg.Circle}
		m.width, m.height = 2*cfg.Circle, 2*cfg.Circle
	case MarkerEllipse:
		rx, ry := cfg.Ellipse[0], cfg.Ellipse[1]
		if ry == 0 {
			ry = rx
		}
		if rx <= 0 || ry <= 0 {
			return configErrorf("ellipse", "needs positive radii")
		}
		m.ellipseRadii = [2]float64{rx, ry}
		m.width, m.height = 2*rx, 2*ry
	}
	return nil
}

func (m *Marker) derivePoly(conv *Converter) error {
	cfg := &m.config
	var coords Coords
	pixels := false
	switch m.typ {
	case MarkerPolygonPx:
		coords, pixels = cfg.PolygonPx, true
	case MarkerPolygonRad:
		coords = cfg.PolygonRad
	case MarkerPolylinePx:
		coords, pixels = cfg.PolylinePx, true
	case MarkerPolylineRad:
		coords = cfg.PolylineRad
	}
	if len(coords) == 0 {
		return configErrorf("coordinates", "empty vertex list")
	}

	m.positions = make([]Position, len(coords))
	m.vectors = make([]r3.Vector, len(coords))
	for i, pair := range coords {
		var pos Position
		if pixels {
			p := image.Point{X: int(math.Round(pair[0])), Y: int(math.Round(pair[1]))}
			var err error
			if pos, err = conv.TextureToSpherical(p); err != nil {
				return err
			}
		} else {
			pos = Position{Longitude: pair[0], Latitude: pair[1]}.sanitize()
		}
		m.positions[i] = pos
		m.vectors[i] = conv.SphericalToVector(pos)
	}
	// The reference position of a poly marker is its first vertex.
	m.position = m.positions[0]
	m.width, m.height = 0, 0
	m.dynamicSize = false
	return nil
}

// update merges cfg into the marker's config and re-derives. Zero or nil
// fields keep their existing values; a content field of a different kind
// fails with ErrInvalidConfig. The marker is unchanged on error.
func (m *Marker) update(cfg MarkerConfig, conv *Converter) error {
	newType, hasContent, err := cfg.contentType()
	if err != nil {
		return err
	}
	if hasContent && newType != m.typ {
		return configErrorf("content", "cannot change a %s marker into %s", m.typ, newType)
	}

	trial := *m
	trial.config = mergeMarkerConfig(m.config, cfg)
	if err := trial.derive(conv); err != nil {
		return err
	}
	*m = trial

	// Content changes invalidate a measured size.
	if hasContent && m.dynamicSize {
		m.measured = Size{}
		m.width, m.height = 0, 0
	}
	return nil
}

// mergeMarkerConfig overlays src on dst: zero and nil fields of src keep
// the value in dst.
func mergeMarkerConfig(dst, src MarkerConfig) MarkerConfig {
	out := dst
	if src.X != nil {
		out.X = src.X
	}
	if src.Y != nil {
		out.Y = src.Y
	}
	if src.Longitude != nil {
		out.Longitude = src.Longitude
	}
	if src.Latitude != nil {
		out.Latitude = src.Latitude
	}
	if src.Image != "" {
		out.Image = src.Image
	}
	if src.HTML != "" {
		out.HTML = src.HTML
	}
	if src.Square != 0 {
		out.Square = src.Square
	}
	if src.Rect != nil {
		out.Rect = src.Rect
	}
	if src.Circle != 0 {
		out.Circle = src.Circle
	}
	if src.Ellipse != nil {
		out.Ellipse = src.Ellipse
	}
	if src.Path != "" {
		out.Path = src.Path
	}
	if src.PolygonPx != nil {
		out.PolygonPx = src.PolygonPx
	}
	if src.PolygonRad != nil {
		out.PolygonRad = src.PolygonRad
	}
	if src.PolylinePx != nil {
		out.PolylinePx = src.PolylinePx
	}
	if src.PolylineRad != nil {
		out.PolylineRad = src.PolylineRad
	}
	if src.Width != 0 {
		out.Width = src.Width
	}
	if src.Height != 0 {
		out.Height = src.Height
	}
	if src.Scale != nil {
		out.Scale = src.Scale
	}
	if src.Anchor != nil {
		out.Anchor = src.Anchor
	}
	if src.Visible != nil {
		out.Visible = src.Visible
	}
	if src.LockRotation {
		out.LockRotation = true
	}
	if src.Tooltip != nil {
		out.Tooltip = src.Tooltip
	}
	if src.Style != nil {
		out.Style = src.Style
	}
	if src.SVGStyle != nil {
		out.SVGStyle = src.SVGStyle
	}
	if src.ClassName != "" {
		out.ClassName = src.ClassName
	}
	if src.Data != nil {
		out.Data = src.Data
	}
	return out
}

// --- Accessors ---

// ID returns the marker id.
func (m *Marker) ID() string { return m.id }

// Type returns the content kind resolved at creation.
func (m *Marker) Type() MarkerType { return m.typ }

// Config returns the marker's current config. Slices and maps share
// backing data with the marker and MUST NOT be mutated.
func (m *Marker) Config() MarkerConfig { return m.config }

// Position returns the marker's spherical position. For poly markers this
// is the first vertex.
func (m *Marker) Position() Position { return m.position }

// Positions returns the vertex positions of a poly marker, nil otherwise.
// The returned slice MUST NOT be mutated.
func (m *Marker) Positions() []Position { return m.positions }

// Vectors returns the marker's 3D points, scaled to the sphere radius.
// The returned slice MUST NOT be mutated.
func (m *Marker) Vectors() []r3.Vector { return m.vectors }

// Visible reports the configured visibility, regardless of whether the
// marker is currently on screen.
func (m *Marker) Visible() bool { return m.visible }

// FrameVisible reports whether the last visibility pass found the marker
// on screen.
func (m *Marker) FrameVisible() bool { return m.frameVisible }

// ScreenPoint returns where the marker's position projects on the
// viewport, valid after a visibility pass that found it visible.
func (m *Marker) ScreenPoint() image.Point { return m.screen }

// Outline returns the projected vertices of a poly marker, relative to
// the transform translation. The returned slice MUST NOT be mutated.
func (m *Marker) Outline() []Vec2 { return m.outline }

// BBox returns the marker's projected bounding box from the last
// visibility pass.
func (m *Marker) BBox() Rect { return m.bbox }

// Size returns the marker's unscaled size: the declared or measured size
// for point markers, the projected bounding box for poly markers.
func (m *Marker) Size() Size {
	if m.typ.IsPoly() {
		return Size{Width: m.bbox.Width, Height: m.bbox.Height}
	}
	return Size{Width: m.width, Height: m.height}
}

// Anchor returns the marker's anchor.
func (m *Marker) Anchor() Anchor { return m.anchor }

// Scale returns the scale factor at a zoom level: Func when set, the
// [zoom 0, zoom 100] range eased with inQuad, the fixed factor times the
// eased zoom fraction, or 1.
func (m *Marker) Scale(zoom float64) float64 {
	spec := m.config.Scale
	switch {
	case spec == nil:
		return 1
	case spec.Func != nil:
		return spec.Func(zoom)
	case spec.Range != nil:
		t := float64(ease.InQuad(float32(zoom), 0, 1, 100))
		return spec.Range[0] + (spec.Range[1]-spec.Range[0])*t
	case spec.Fixed != 0:
		return spec.Fixed * float64(ease.InQuad(float32(zoom), 0, 1, 100))
	default:
		return 1
	}
}

// setMeasured records a size probed through the compositor.
func (m *Marker) setMeasured(size Size) {
	m.measured = size
	m.width, m.height = size.Width, size.Height
}

// needsMeasure reports whether the marker wants a compositor measurement.
func (m *Marker) needsMeasure() bool {
	return m.dynamicSize && (m.measured.Width == 0 || m.measured.Height == 0)
}
