package vista

import (
	"image"
	"math"
	"time"

	"github.com/golang/geo/r3"
	"github.com/rs/zerolog"
)

const (
	// DefaultZoomStep is the zoom level increment used by ZoomIn and ZoomOut.
	DefaultZoomStep = 10.0
	// DefaultAutorotateSpeed is the autorotate speed when none is configured.
	DefaultAutorotateSpeed = "2rpm"

	// reverseRampTime is how long each half of an autorotate reversal takes:
	// ramp the speed down to zero, then back up in the other direction.
	reverseRampTime = 300 * time.Millisecond
	// autorotateLatRate is the fraction of the remaining latitude drift
	// covered per second while autorotating.
	autorotateLatRate = 0.3
)

// Events is the viewer's callback table. Every field is optional; nil
// callbacks are skipped. Callbacks run synchronously on the frame loop,
// so they must not block.
type Events struct {
	// PositionUpdated fires at most once per Update when the camera
	// position changed, with the clamped position.
	PositionUpdated func(pos Position)
	// ZoomUpdated fires at most once per Update when the zoom level changed.
	ZoomUpdated func(level float64)
	// RangeReached fires when a movement was clamped against a configured
	// range side it was not already pinned to.
	RangeReached func(side Side)
	// AutorotateChanged fires when autorotate starts or stops.
	AutorotateChanged func(running bool)
	// PanoramaLoaded fires when a SetPanorama load settles. pano is nil
	// when the load failed.
	PanoramaLoaded func(pano *Panorama, err error)
	// MarkerVisibilityChanged fires for each marker whose frame visibility
	// flipped during a visibility pass.
	MarkerVisibilityChanged func(m *Marker, visible bool)
	// GotoMarkerDone fires when a GotoMarker animation settles.
	GotoMarkerDone func(m *Marker, completed bool)
	// MarkerSelected fires when Click lands on a marker.
	MarkerSelected func(m *Marker)
}

// Capabilities reports which optional host collaborators were provided.
// It is computed once when the viewer is created and never changes.
type Capabilities struct {
	Loader    bool // SetPanorama is available
	Gyroscope bool // StartGyroscope is available
	Stereo    bool // StartStereo is available
}

// Options configures a Viewer. The zero value is usable: a headless viewer
// with the default scene, no compositor output, and no optional hosts.
type Options struct {
	// Scene projects world points for the visibility pass. Defaults to a
	// RectilinearScene on the configured sphere radius.
	Scene Scene
	// Compositor receives marker placement. Defaults to NopCompositor.
	Compositor Compositor
	// Loader resolves panorama sources for SetPanorama. Optional.
	Loader PanoramaLoader
	// Orientation feeds yaw/pitch/roll while the gyroscope is on. Optional.
	Orientation OrientationSource
	// Stereo switches the host in and out of stereo rendering. Optional.
	Stereo StereoRenderer

	Viewport Size      // initial viewport, defaults to 1280x720
	Position *Position // initial camera position, defaults to {0, 0}
	Zoom     *float64  // initial zoom level, defaults to DefaultZoom
	MinFov   float64   // narrowest vertical FOV, defaults to DefaultMinFov
	MaxFov   float64   // widest vertical FOV, defaults to DefaultMaxFov
	Radius   float64   // sphere radius, defaults to the package default
	Ranges   Ranges    // optional camera constraints

	// ZoomStep is the ZoomIn/ZoomOut increment. Defaults to DefaultZoomStep.
	ZoomStep float64

	// Autorotate starts the camera rotating as soon as the viewer exists.
	Autorotate bool
	// AutorotateSpeed is a ParseSpeed expression. Defaults to "2rpm".
	AutorotateSpeed string
	// AutorotateLat is the latitude the camera drifts to while
	// autorotating. Defaults to the initial latitude.
	AutorotateLat *float64
	// AutorotateDelay (re)starts autorotate after this much idle time.
	// Zero disables the idle restart.
	AutorotateDelay time.Duration

	Logger zerolog.Logger
	// Debug keeps per-pass debug logging enabled. Off, the logger is capped
	// at info level.
	Debug bool

	Events Events
}

func (o Options) withDefaults() Options {
	if o.Viewport.Width <= 0 || o.Viewport.Height <= 0 {
		o.Viewport = Size{Width: 1280, Height: 720}
	}
	if o.MinFov == 0 {
		o.MinFov = DefaultMinFov
	}
	if o.MaxFov == 0 {
		o.MaxFov = DefaultMaxFov
	}
	if o.Radius == 0 {
		o.Radius = defaultRadius
	}
	if o.ZoomStep == 0 {
		o.ZoomStep = DefaultZoomStep
	}
	if o.AutorotateSpeed == "" {
		o.AutorotateSpeed = DefaultAutorotateSpeed
	}
	return o
}

// loadResult carries a finished panorama load back to the frame loop.
type loadResult struct {
	source string
	pano   *Panorama
	err    error
	opts   panoramaOptions
}

// Viewer is the camera orchestrator: it owns the camera state, the tween
// scheduler, and the marker layer, and pushes derived views to the Scene
// every frame. All methods must be called from the frame loop goroutine;
// only panorama loads leave it.
type Viewer struct {
	log  zerolog.Logger
	caps Capabilities

	conv    *Converter
	sched   *Scheduler
	markers *MarkerLayer
	scene   Scene
	comp    Compositor

	loader      PanoramaLoader
	orientation OrientationSource
	stereoHost  StereoRenderer
	events      Events

	ranges   Ranges
	position Position
	zoom     float64
	roll     float64
	viewport Size
	zoomStep float64

	direction    r3.Vector
	viewDirty    bool
	markersStale bool
	lastSides    uint8
	notifiedPos  Position
	notifiedZoom float64

	autorotate      bool
	autorotateSpeed float64 // rad/s, sign is the direction of travel
	autorotateLat   float64
	autorotateDelay time.Duration
	autorotateRamp  *Animation
	idle            float64 // seconds since the last user interaction

	gyro   bool
	stereo bool

	pano    *Panorama
	loading bool
	loadCh  chan loadResult
}

// New creates a Viewer. The zero Options value gives a headless viewer;
// fields that stay zero fall back to package defaults.
func New(opts Options) (*Viewer, error) {
	o := opts.withDefaults()
	if o.MinFov >= o.MaxFov {
		return nil, configErrorf("fov", "min fov %v must be below max fov %v", o.MinFov, o.MaxFov)
	}
	if o.Radius < 0 {
		return nil, configErrorf("radius", "sphere radius must be positive")
	}
	speed, err := ParseSpeed(o.AutorotateSpeed)
	if err != nil {
		return nil, err
	}

	log := o.Logger
	if !o.Debug {
		log = log.Level(zerolog.InfoLevel)
	}
	log = log.With().Str("component", "viewer").Logger()

	conv := NewConverter(o.MinFov, o.MaxFov, o.Radius)
	scene := o.Scene
	if scene == nil {
		scene = NewRectilinearScene(o.Radius)
	}
	comp := o.Compositor
	if comp == nil {
		comp = NopCompositor{}
	}

	v := &Viewer{
		log:     log,
		conv:    conv,
		sched:   &Scheduler{},
		markers: NewMarkerLayer(conv, log),
		scene:   scene,
		comp:    comp,

		loader:      o.Loader,
		orientation: o.Orientation,
		stereoHost:  o.Stereo,
		events:      o.Events,

		ranges:   o.Ranges,
		zoom:     DefaultZoom,
		viewport: o.Viewport,
		zoomStep: o.ZoomStep,

		autorotateSpeed: speed,
		autorotateDelay: o.AutorotateDelay,

		viewDirty:    true,
		markersStale: true,
		loadCh:       make(chan loadResult, 1),
	}
	v.caps = Capabilities{
		Loader:    o.Loader != nil,
		Gyroscope: o.Orientation != nil,
		Stereo:    o.Stereo != nil,
	}
	log.Debug().
		Bool("loader", v.caps.Loader).
		Bool("gyroscope", v.caps.Gyroscope).
		Bool("stereo", v.caps.Stereo).
		Msg("capabilities probed")

	if o.Zoom != nil {
		v.zoom = clampZoom(*o.Zoom)
	}
	pos := Position{}
	if o.Position != nil {
		pos = *o.Position
	}
	// Clamp the starting position without firing range events.
	vfov, hfov := v.fov()
	v.position, _ = v.ranges.Apply(pos.sanitize(), hfov, vfov)
	v.lastSides = 0
	v.direction = conv.SphericalToVector(v.position)
	v.notifiedPos = v.position
	v.notifiedZoom = v.zoom

	v.autorotateLat = v.position.Latitude
	if o.AutorotateLat != nil {
		v.autorotateLat = clampLatitude(*o.AutorotateLat)
	}
	if o.Autorotate {
		v.StartAutorotate()
	}
	return v, nil
}

// --- Accessors ---

// Position returns the current camera position, clamped and wrapped.
func (v *Viewer) Position() Position { return v.position }

// ZoomLevel returns the current zoom level in [0, 100].
func (v *Viewer) ZoomLevel() float64 { return v.zoom }

// Size returns the current viewport size.
func (v *Viewer) Size() Size { return v.viewport }

// Direction returns the camera orientation vector, scaled to the sphere
// radius.
func (v *Viewer) Direction() r3.Vector { return v.direction }

// Markers returns the viewer's marker layer.
func (v *Viewer) Markers() *MarkerLayer { return v.markers }

// Converter returns the viewer's coordinate converter.
func (v *Viewer) Converter() *Converter { return v.conv }

// Scene returns the scene the viewer projects through.
func (v *Viewer) Scene() Scene { return v.scene }

// Panorama returns the currently applied panorama, nil before the first
// load settles.
func (v *Viewer) Panorama() *Panorama { return v.pano }

// Capabilities reports which optional host collaborators are available.
func (v *Viewer) Capabilities() Capabilities { return v.caps }

// Loading reports whether a panorama load is in flight.
func (v *Viewer) Loading() bool { return v.loading }

// Autorotating reports whether autorotate is currently running.
func (v *Viewer) Autorotating() bool { return v.autorotate }

// --- Camera operations ---

// Rotate moves the camera to pos, wrapped and clamped against the
// configured ranges. Stops autorotate.
func (v *Viewer) Rotate(pos Position) {
	v.interrupt()
	v.moveTo(pos)
}

// Zoom sets the zoom level, clamped to [0, 100]. Stops autorotate.
func (v *Viewer) Zoom(level float64) {
	level = clampZoom(level)
	if level == v.zoom {
		return
	}
	v.interrupt()
	v.zoom = level
	v.viewDirty = true
	// The horizontal FOV changed, so the position may need a new clamp.
	v.moveTo(v.position)
}

// ZoomIn raises the zoom level by the configured step.
func (v *Viewer) ZoomIn() { v.Zoom(v.zoom + v.zoomStep) }

// ZoomOut lowers the zoom level by the configured step.
func (v *Viewer) ZoomOut() { v.Zoom(v.zoom - v.zoomStep) }

// Animate moves the camera to target and zoom over duration, easing in and
// out. The longitude travels the short way around the sphere. At most one
// camera animation runs at a time; starting a new one cancels the previous
// one. Stops autorotate.
func (v *Viewer) Animate(target Position, zoom float64, duration time.Duration) *Animation {
	v.interrupt()
	return v.animate(target, zoom, duration)
}

// StopAnimation cancels the outstanding camera animation, if any.
func (v *Viewer) StopAnimation() { v.sched.StopCamera() }

// GotoMarker animates the camera to a marker's position. speed is a
// ParseSpeed expression; the duration is derived from the angular distance.
// The returned handle settles when the camera arrives or the animation is
// cancelled; Events.GotoMarkerDone fires either way.
func (v *Viewer) GotoMarker(id, speed string) (*Animation, error) {
	m, err := v.markers.Get(id)
	if err != nil {
		return nil, err
	}
	radPerSec, err := ParseSpeed(speed)
	if err != nil {
		return nil, err
	}
	v.interrupt()

	current := v.conv.SphericalToVector(v.position)
	angle := float64(current.Angle(m.Vectors()[0]))
	a := v.animate(m.Position(), v.zoom, SpeedToDuration(radPerSec, angle))
	if v.events.GotoMarkerDone != nil {
		a.Then(func(completed bool) { v.events.GotoMarkerDone(m, completed) })
	}
	return a, nil
}

func (v *Viewer) animate(target Position, zoom float64, duration time.Duration) *Animation {
	from := v.position
	to := target.sanitize()
	if to.Longitude-from.Longitude > math.Pi {
		to.Longitude -= 2 * math.Pi
	} else if from.Longitude-to.Longitude > math.Pi {
		to.Longitude += 2 * math.Pi
	}
	return v.sched.StartCamera(AnimateSpec{
		Channels: map[string]Channel{
			"longitude": {Start: from.Longitude, End: to.Longitude},
			"latitude":  {Start: from.Latitude, End: to.Latitude},
			"zoom":      {Start: v.zoom, End: clampZoom(zoom)},
		},
		Duration: duration,
		Easing:   "inOutSine",
		OnTick: func(values map[string]float64) {
			if z := clampZoom(values["zoom"]); z != v.zoom {
				v.zoom = z
				v.viewDirty = true
			}
			v.moveTo(Position{Longitude: values["longitude"], Latitude: values["latitude"]})
		},
	})
}

// moveTo wraps, clamps, and applies a candidate position, reporting any
// range sides that were hit.
func (v *Viewer) moveTo(pos Position) {
	vfov, hfov := v.fov()
	clamped, sides := v.ranges.Apply(pos.sanitize(), hfov, vfov)
	if clamped != v.position {
		v.position = clamped
		v.viewDirty = true
	}
	v.handleSides(sides)
}

func (v *Viewer) fov() (vfov, hfov float64) {
	vfov = v.conv.ZoomLevelToFov(v.zoom)
	hfov = v.conv.HorizontalFov(vfov, v.viewport.Aspect())
	return vfov, hfov
}

// handleSides fires RangeReached for sides the camera was not already
// pinned to and reverses autorotate on a longitude side.
func (v *Viewer) handleSides(sides []Side) {
	var mask uint8
	for _, s := range sides {
		mask |= 1 << s
	}
	for _, s := range sides {
		if v.lastSides&(1<<s) == 0 && v.events.RangeReached != nil {
			v.events.RangeReached(s)
		}
		if v.autorotate && (s == SideLeft || s == SideRight) {
			v.reverseAutorotate()
		}
	}
	v.lastSides = mask
}

// interrupt marks a user interaction: autorotate stops and the idle clock
// restarts.
func (v *Viewer) interrupt() {
	v.idle = 0
	if v.autorotate {
		v.StopAutorotate()
	}
}

// --- Autorotate ---

// StartAutorotate begins rotating the camera at the configured speed.
// No-op when already running.
func (v *Viewer) StartAutorotate() {
	if v.autorotate {
		return
	}
	v.autorotate = true
	v.idle = 0
	v.log.Debug().Float64("speed", v.autorotateSpeed).Msg("autorotate started")
	if v.events.AutorotateChanged != nil {
		v.events.AutorotateChanged(true)
	}
}

// StopAutorotate stops the camera rotation. A reversal ramp in progress is
// cancelled and the suspended range restored. No-op when not running.
func (v *Viewer) StopAutorotate() {
	if !v.autorotate {
		return
	}
	v.autorotate = false
	v.idle = 0
	if ramp := v.autorotateRamp; ramp != nil {
		ramp.Cancel()
	}
	v.log.Debug().Msg("autorotate stopped")
	if v.events.AutorotateChanged != nil {
		v.events.AutorotateChanged(false)
	}
}

// ToggleAutorotate flips autorotate and reports the new state.
func (v *Viewer) ToggleAutorotate() bool {
	if v.autorotate {
		v.StopAutorotate()
	} else {
		v.StartAutorotate()
	}
	return v.autorotate
}

// reverseAutorotate flips the travel direction with a two-stage speed ramp:
// ease the speed down to zero, then back up reversed. The longitude range
// is suspended during the ramp so the camera can ease off the boundary.
func (v *Viewer) reverseAutorotate() {
	if v.autorotateRamp != nil {
		return
	}
	speed := v.autorotateSpeed
	suspended := v.ranges.Longitude
	v.ranges.Longitude = nil
	restore := func() {
		v.ranges.Longitude = suspended
		v.autorotateRamp = nil
	}
	v.log.Debug().Float64("speed", speed).Msg("autorotate reversing")

	down := v.sched.Start(AnimateSpec{
		Channels: map[string]Channel{"speed": {Start: speed, End: 0}},
		Duration: reverseRampTime,
		Easing:   "inSine",
		OnTick:   v.rampTick,
	})
	v.autorotateRamp = down
	down.Then(func(completed bool) {
		if !completed {
			v.autorotateSpeed = speed
			restore()
			return
		}
		up := v.sched.Start(AnimateSpec{
			Channels: map[string]Channel{"speed": {Start: 0, End: -speed}},
			Duration: reverseRampTime,
			Easing:   "outSine",
			OnTick:   v.rampTick,
		})
		v.autorotateRamp = up
		up.Then(func(completed bool) {
			if !completed {
				v.autorotateSpeed = -speed
			}
			restore()
		})
	})
}

func (v *Viewer) rampTick(values map[string]float64) {
	v.autorotateSpeed = values["speed"]
}

// stepAutorotate advances the camera by the autorotate speed and drifts the
// latitude toward the configured target. Skipped while a camera animation
// owns the camera.
func (v *Viewer) stepAutorotate(dt float64) {
	if !v.autorotate || v.sched.CameraActive() {
		return
	}
	pos := v.position
	pos.Longitude += v.autorotateSpeed * dt
	pos.Latitude += (v.autorotateLat - pos.Latitude) * math.Min(1, autorotateLatRate*dt)
	v.moveTo(pos)
}

// resumeAutorotate restarts autorotate after the configured idle delay.
func (v *Viewer) resumeAutorotate(dt float64) {
	if v.autorotate || v.autorotateDelay <= 0 {
		return
	}
	v.idle += dt
	if v.idle >= v.autorotateDelay.Seconds() && !v.sched.CameraActive() {
		v.StartAutorotate()
	}
}

// --- Gyroscope and stereo ---

// StartGyroscope begins steering the camera from the orientation source.
// Fails with ErrCapability when no source was provided.
func (v *Viewer) StartGyroscope() error {
	if !v.caps.Gyroscope {
		v.log.Warn().Msg("no orientation source; gyroscope unavailable")
		return &CapabilityError{Capability: "gyroscope"}
	}
	if !v.gyro {
		v.interrupt()
		v.gyro = true
	}
	return nil
}

// StopGyroscope stops steering from the orientation source and levels the
// camera roll.
func (v *Viewer) StopGyroscope() {
	if !v.gyro {
		return
	}
	v.gyro = false
	if v.roll != 0 {
		v.roll = 0
		v.viewDirty = true
	}
}

// StartStereo switches the host into stereo rendering. Fails with
// ErrCapability when no stereo renderer was provided.
func (v *Viewer) StartStereo() error {
	if !v.caps.Stereo {
		v.log.Warn().Msg("no stereo renderer; stereo unavailable")
		return &CapabilityError{Capability: "stereo"}
	}
	if v.stereo {
		return nil
	}
	if err := v.stereoHost.EnterStereo(); err != nil {
		return err
	}
	v.stereo = true
	return nil
}

// StopStereo switches the host back to flat rendering.
func (v *Viewer) StopStereo() {
	if !v.stereo {
		return
	}
	v.stereoHost.ExitStereo()
	v.stereo = false
}

func (v *Viewer) pollOrientation() {
	if !v.gyro {
		return
	}
	yaw, pitch, roll, ok := v.orientation.Orientation()
	if !ok {
		return
	}
	if roll != v.roll {
		v.roll = roll
		v.viewDirty = true
	}
	v.moveTo(Position{Longitude: yaw, Latitude: pitch})
}

// --- Panorama loading ---

// panoramaOptions collects the optional SetPanorama parameters.
type panoramaOptions struct {
	position     *Position
	zoom         *float64
	transition   time.Duration
	onTransition func(opacity float64)
}

// SetPanoramaOption customizes a SetPanorama call.
type SetPanoramaOption func(*panoramaOptions)

// WithPanoramaPosition moves the camera when the new panorama is applied.
func WithPanoramaPosition(pos Position) SetPanoramaOption {
	return func(o *panoramaOptions) { o.position = &pos }
}

// WithPanoramaZoom sets the zoom level when the new panorama is applied.
func WithPanoramaZoom(level float64) SetPanoramaOption {
	return func(o *panoramaOptions) { o.zoom = &level }
}

// WithTransition cross-fades the new panorama in over d, reporting the
// opacity ramp to fn, which the host applies to its render surface.
func WithTransition(d time.Duration, fn func(opacity float64)) SetPanoramaOption {
	return func(o *panoramaOptions) {
		o.transition = d
		o.onTransition = fn
	}
}

// SetPanorama loads a panorama source through the configured loader. The
// load runs on its own goroutine; the result is applied at the next frame
// boundary inside Update, then Events.PanoramaLoaded fires. Only one load
// may be in flight: starting another fails with ErrLoadInProgress.
func (v *Viewer) SetPanorama(source string, opts ...SetPanoramaOption) error {
	if !v.caps.Loader {
		v.log.Warn().Msg("no panorama loader; SetPanorama unavailable")
		return &CapabilityError{Capability: "loader"}
	}
	if v.loading {
		return ErrLoadInProgress
	}
	var po panoramaOptions
	for _, opt := range opts {
		opt(&po)
	}

	v.loading = true
	v.log.Info().Str("source", source).Msg("panorama load started")
	go func() {
		pano, err := v.loader.Load(source)
		v.loadCh <- loadResult{source: source, pano: pano, err: err, opts: po}
	}()
	return nil
}

// applyPendingPanorama installs a finished load at the frame boundary.
func (v *Viewer) applyPendingPanorama() {
	if !v.loading {
		return
	}
	select {
	case res := <-v.loadCh:
		v.loading = false
		if res.err != nil {
			v.log.Error().Err(res.err).Str("source", res.source).Msg("panorama load failed")
			if v.events.PanoramaLoaded != nil {
				v.events.PanoramaLoaded(nil, res.err)
			}
			return
		}
		v.pano = res.pano
		v.conv.SetPanorama(res.pano)
		if res.opts.position != nil {
			v.position = res.opts.position.sanitize()
		}
		if res.opts.zoom != nil {
			v.zoom = clampZoom(*res.opts.zoom)
		}
		v.viewDirty = true
		if res.opts.onTransition != nil {
			fn := res.opts.onTransition
			v.sched.Start(AnimateSpec{
				Channels: map[string]Channel{"opacity": {Start: 0, End: 1}},
				Duration: res.opts.transition,
				Easing:   "linear",
				OnTick:   func(values map[string]float64) { fn(values["opacity"]) },
			})
		}
		v.log.Info().Str("source", res.source).Msg("panorama loaded")
		if v.events.PanoramaLoaded != nil {
			v.events.PanoramaLoaded(res.pano, nil)
		}
	default:
	}
}

// --- Frame loop ---

// Update advances the viewer by dt seconds: pending panorama loads are
// applied, animations step, the orientation source is polled, autorotate
// advances, the derived view is pushed to the scene, and a dirty-gated
// marker visibility pass runs. The host calls this once per frame.
func (v *Viewer) Update(dt float64) {
	v.applyPendingPanorama()
	v.sched.Step(dt)
	v.pollOrientation()
	v.resumeAutorotate(dt)
	v.stepAutorotate(dt)
	v.refreshView()
	v.renderMarkers()
}

// Resize updates the viewport size.
func (v *Viewer) Resize(size Size) {
	if size == v.viewport || size.Width <= 0 || size.Height <= 0 {
		return
	}
	v.viewport = size
	v.viewDirty = true
	// The aspect ratio changed, so the position may need a new clamp.
	v.moveTo(v.position)
}

// refreshView recomputes the derived view state and pushes it to the
// scene. The horizontal FOV is rederived from the vertical FOV and aspect
// every time, so projections never see a stale pairing.
func (v *Viewer) refreshView() {
	if !v.viewDirty {
		return
	}
	v.viewDirty = false

	vfov, hfov := v.fov()
	v.direction = v.conv.SphericalToVector(v.position)
	v.scene.ApplyView(View{
		Position:  v.position,
		Roll:      v.roll,
		VFov:      vfov,
		HFov:      hfov,
		Viewport:  v.viewport,
		Direction: v.direction,
	})
	v.markersStale = true

	if v.position != v.notifiedPos {
		v.notifiedPos = v.position
		if v.events.PositionUpdated != nil {
			v.events.PositionUpdated(v.position)
		}
	}
	if v.zoom != v.notifiedZoom {
		v.notifiedZoom = v.zoom
		if v.events.ZoomUpdated != nil {
			v.events.ZoomUpdated(v.zoom)
		}
	}
}

// renderMarkers runs the marker visibility pass when the camera moved or
// the marker set changed.
func (v *Viewer) renderMarkers() {
	if !v.markersStale && !v.markers.Dirty() {
		return
	}
	v.markersStale = false
	changed := v.markers.Render(v.scene, v.comp, v.zoom, v.roll)
	if v.events.MarkerVisibilityChanged != nil {
		for _, m := range changed {
			v.events.MarkerVisibilityChanged(m, m.FrameVisible())
		}
	}
}

// --- Pointer ---

// PointerMove records the marker under the pointer, nil when there is
// none, and returns it.
func (v *Viewer) PointerMove(p image.Point) *Marker {
	m := v.markers.MarkerAt(p)
	v.markers.SetCurrent(m)
	return m
}

// Click selects the marker at p. Fires Events.MarkerSelected on a hit.
// Stops autorotate either way.
func (v *Viewer) Click(p image.Point) *Marker {
	v.interrupt()
	m := v.markers.MarkerAt(p)
	v.markers.SetCurrent(m)
	if m != nil && v.events.MarkerSelected != nil {
		v.events.MarkerSelected(m)
	}
	return m
}

func clampZoom(level float64) float64 {
	return math.Max(0, math.Min(100, level))
}
