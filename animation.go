package vista

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Channel is one named value animated from Start to End.
type Channel struct {
	Start, End float64
}

// AnimateSpec describes an animation: any number of named channels advanced
// together over Duration with a shared easing curve.
//
// Easing selects a curve by name ("linear", "inQuad", "outCubic",
// "inOutSine", ...); unknown or empty names fall back to inOutSine.
// EasingFunc overrides Easing when set.
type AnimateSpec struct {
	Channels   map[string]Channel
	Duration   time.Duration
	Easing     string
	EasingFunc ease.TweenFunc

	// OnTick runs once per scheduler step with the current channel values,
	// including a final call with the exact end values. The map is reused
	// across ticks and MUST NOT be retained.
	OnTick func(values map[string]float64)
	// OnDone runs when the animation settles. completed is false when the
	// animation was cancelled.
	OnDone func(completed bool)
}

// --- Animation handle ---

// Animation is the handle for a running or settled animation. A handle
// settles exactly once, either completed or cancelled, and never resurrects.
type Animation struct {
	names  []string
	tweens []*gween.Tween
	ends   []float64
	values map[string]float64
	onTick func(map[string]float64)

	done      []func(completed bool)
	settled   bool
	completed bool
}

// step advances all channels by dt seconds and reports whether every
// channel has reached its end value.
func (a *Animation) step(dt float32) bool {
	all := true
	for i, tw := range a.tweens {
		v, finished := tw.Update(dt)
		if finished {
			// The tween interpolates in float32; land on the exact end.
			a.values[a.names[i]] = a.ends[i]
		} else {
			a.values[a.names[i]] = float64(v)
			all = false
		}
	}
	if a.onTick != nil {
		a.onTick(a.values)
	}
	return all
}

// settle resolves the handle once and runs the registered callbacks.
func (a *Animation) settle(completed bool) {
	if a.settled {
		return
	}
	a.settled = true
	a.completed = completed
	cbs := a.done
	a.done = nil
	for _, cb := range cbs {
		cb(completed)
	}
}

// Cancel stops the animation and settles the handle as not-completed
// before returning. When called from inside a tick callback the handle is
// settled immediately as well; the scheduler skips it for the rest of the
// step. Cancelling a settled animation is a no-op.
func (a *Animation) Cancel() { a.settle(false) }

// Settled reports whether the animation has resolved, either way.
func (a *Animation) Settled() bool { return a.settled }

// Completed reports whether the animation ran to its end values.
// False while running and after cancellation.
func (a *Animation) Completed() bool { return a.settled && a.completed }

// Then registers fn to run when the animation settles; fn receives true
// when the animation ran to completion. If the handle has already settled,
// fn runs immediately. Returns the same handle.
func (a *Animation) Then(fn func(completed bool)) *Animation {
	if fn == nil {
		return a
	}
	if a.settled {
		fn(a.completed)
		return a
	}
	a.done = append(a.done, fn)
	return a
}

// CompletedAnimation returns an already-settled handle reporting
// completion, for code paths that must hand out a handle but have nothing
// to animate.
func CompletedAnimation() *Animation {
	return &Animation{settled: true, completed: true}
}

// --- Scheduler ---

// Scheduler advances animations in lock step with the host frame loop.
// The zero value is ready to use. The Viewer owns one and steps it from
// Update — there is no global scheduler.
type Scheduler struct {
	active []*Animation
	camera *Animation
}

// Start begins an animation and returns its handle. Specs with no channels
// or a non-positive duration settle immediately at their end values.
func (s *Scheduler) Start(spec AnimateSpec) *Animation {
	a := &Animation{
		values: make(map[string]float64, len(spec.Channels)),
		onTick: spec.OnTick,
	}
	if spec.OnDone != nil {
		a.done = append(a.done, spec.OnDone)
	}

	// Sorted channel order keeps ticks deterministic.
	a.names = make([]string, 0, len(spec.Channels))
	for name := range spec.Channels {
		a.names = append(a.names, name)
	}
	sort.Strings(a.names)

	if len(a.names) == 0 {
		a.settle(true)
		return a
	}
	if spec.Duration <= 0 {
		for _, name := range a.names {
			a.values[name] = spec.Channels[name].End
		}
		if a.onTick != nil {
			a.onTick(a.values)
		}
		a.settle(true)
		return a
	}

	fn := spec.EasingFunc
	if fn == nil {
		fn = easingByName(spec.Easing)
	}
	duration := float32(spec.Duration.Seconds())
	a.tweens = make([]*gween.Tween, len(a.names))
	a.ends = make([]float64, len(a.names))
	for i, name := range a.names {
		ch := spec.Channels[name]
		a.tweens[i] = gween.New(float32(ch.Start), float32(ch.End), duration, fn)
		a.ends[i] = ch.End
		a.values[name] = ch.Start
	}

	s.active = append(s.active, a)
	return a
}

// StartCamera begins the single camera animation, cancelling and settling
// any outstanding one first. At most one camera animation runs at a time.
func (s *Scheduler) StartCamera(spec AnimateSpec) *Animation {
	if s.camera != nil {
		s.camera.Cancel()
	}
	s.camera = s.Start(spec)
	return s.camera
}

// CameraActive reports whether a camera animation is still running.
func (s *Scheduler) CameraActive() bool {
	return s.camera != nil && !s.camera.settled
}

// StopCamera cancels the outstanding camera animation, if any.
func (s *Scheduler) StopCamera() {
	if s.camera != nil {
		s.camera.Cancel()
		s.camera = nil
	}
}

// StopAll cancels every active animation.
func (s *Scheduler) StopAll() {
	stopping := s.active
	s.active = nil
	for _, a := range stopping {
		a.Cancel()
	}
	s.camera = nil
}

// Step advances all active animations by dt seconds. Animations that
// finish settle as completed during the step; their callbacks may start
// new animations, which begin on the next step.
func (s *Scheduler) Step(dt float64) {
	if len(s.active) == 0 {
		return
	}
	stepping := s.active
	s.active = nil

	var still []*Animation
	for _, a := range stepping {
		if a.settled {
			continue
		}
		if a.step(float32(dt)) {
			a.settle(true)
		}
		if !a.settled {
			still = append(still, a)
		}
	}
	// Animations started by callbacks during this step were appended to
	// s.active; keep them behind the survivors.
	s.active = append(still, s.active...)
}

// --- Easing table ---

// easings maps curve names to gween easing functions. Names follow the
// lowerCamel convention used in tour files.
var easings = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"inQuad":       ease.InQuad,
	"outQuad":      ease.OutQuad,
	"inOutQuad":    ease.InOutQuad,
	"inCubic":      ease.InCubic,
	"outCubic":     ease.OutCubic,
	"inOutCubic":   ease.InOutCubic,
	"inQuart":      ease.InQuart,
	"outQuart":     ease.OutQuart,
	"inOutQuart":   ease.InOutQuart,
	"inQuint":      ease.InQuint,
	"outQuint":     ease.OutQuint,
	"inOutQuint":   ease.InOutQuint,
	"inSine":       ease.InSine,
	"outSine":      ease.OutSine,
	"inOutSine":    ease.InOutSine,
	"inExpo":       ease.InExpo,
	"outExpo":      ease.OutExpo,
	"inOutExpo":    ease.InOutExpo,
	"inCirc":       ease.InCirc,
	"outCirc":      ease.OutCirc,
	"inOutCirc":    ease.InOutCirc,
	"inBack":       ease.InBack,
	"outBack":      ease.OutBack,
	"inOutBack":    ease.InOutBack,
	"inBounce":     ease.InBounce,
	"outBounce":    ease.OutBounce,
	"inOutBounce":  ease.InOutBounce,
	"inElastic":    ease.InElastic,
	"outElastic":   ease.OutElastic,
	"inOutElastic": ease.InOutElastic,
}

func easingByName(name string) ease.TweenFunc {
	if fn, ok := easings[name]; ok {
		return fn
	}
	return ease.InOutSine
}

// --- Speeds ---

// ParseSpeed converts a speed expression to radians per second. Accepted
// units: "dpm"/"dps" (degrees), "rpm"/"rps" (revolutions), "rad per
// minute"/"rad per second" and their long forms. A bare number is radians
// per second.
func ParseSpeed(s string) (float64, error) {
	str := strings.TrimSpace(s)
	cut := len(str)
	for i, r := range str {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '+' {
			continue
		}
		cut = i
		break
	}
	value, err := strconv.ParseFloat(str[:cut], 64)
	if err != nil {
		return 0, configErrorf("speed", "no numeric value in %q", s)
	}

	unit := strings.ToLower(strings.TrimSpace(str[cut:]))
	if strings.HasSuffix(unit, "pm") || strings.HasSuffix(unit, "per minute") {
		value /= 60
	}
	switch unit {
	case "":
		// radians per second
	case "dpm", "degrees per minute", "dps", "degrees per second":
		value *= math.Pi / 180
	case "rad per minute", "radians per minute", "rad per second", "radians per second":
		// already radians
	case "rpm", "revolutions per minute", "rps", "revolutions per second":
		value *= 2 * math.Pi
	default:
		return 0, configErrorf("speed", "unknown unit %q", unit)
	}
	return value, nil
}

// SpeedToDuration converts a speed in radians per second to the time
// needed to travel angle radians.
func SpeedToDuration(speed, angle float64) time.Duration {
	if speed == 0 {
		return 0
	}
	return time.Duration(angle / math.Abs(speed) * float64(time.Second))
}
