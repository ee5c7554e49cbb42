package vista

import (
	"math"
	"testing"
	"time"
)

// assertNear32 allows for the float32 easing arithmetic inside gween.
func assertNear32(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-5 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestAnimationChannels(t *testing.T) {
	var s Scheduler
	var longitude, zoom float64
	a := s.Start(AnimateSpec{
		Channels: map[string]Channel{
			"longitude": {Start: 0, End: 10},
			"zoom":      {Start: 100, End: 0},
		},
		Duration: time.Second,
		Easing:   "linear",
		OnTick: func(values map[string]float64) {
			longitude, zoom = values["longitude"], values["zoom"]
		},
	})

	// Exact halves avoid float32 accumulation drift.
	s.Step(0.5)
	assertNear32(t, "longitude@0.5", longitude, 5)
	assertNear32(t, "zoom@0.5", zoom, 50)
	if a.Settled() {
		t.Fatal("animation settled early")
	}

	s.Step(0.5)
	assertNear32(t, "longitude@1", longitude, 10)
	assertNear32(t, "zoom@1", zoom, 0)
	if !a.Completed() {
		t.Fatal("expected completion after full duration")
	}
}

func TestAnimationOvershootClampsToEnd(t *testing.T) {
	var s Scheduler
	var last float64
	a := s.Start(AnimateSpec{
		Channels: map[string]Channel{"v": {Start: 2, End: 8}},
		Duration: 250 * time.Millisecond,
		Easing:   "linear",
		OnTick:   func(values map[string]float64) { last = values["v"] },
	})

	// A single oversized step still delivers the exact end value.
	s.Step(3)
	assertNear32(t, "end value", last, 8)
	if !a.Completed() {
		t.Fatal("expected completion after overshoot")
	}
}

func TestAnimationFinalTickExactEnds(t *testing.T) {
	var s Scheduler
	last := map[string]float64{}
	s.Start(AnimateSpec{
		// 0.3 and 6.083185307179586 have no exact float32 representation,
		// so a tween-rounded final tick would miss them.
		Channels: map[string]Channel{
			"lat": {Start: 0, End: 0.3},
			"lon": {Start: 5, End: 2*math.Pi - 0.2},
		},
		Duration: 100 * time.Millisecond,
		Easing:   "linear",
		OnTick: func(values map[string]float64) {
			for k, v := range values {
				last[k] = v
			}
		},
	})

	s.Step(0.06)
	s.Step(0.06)
	if last["lat"] != 0.3 {
		t.Errorf("lat = %v, want exactly 0.3", last["lat"])
	}
	if last["lon"] != 2*math.Pi-0.2 {
		t.Errorf("lon = %v, want exactly %v", last["lon"], 2*math.Pi-0.2)
	}
}

func TestAnimationDefaultEasing(t *testing.T) {
	var s Scheduler
	var last float64
	s.Start(AnimateSpec{
		Channels: map[string]Channel{"v": {Start: 0, End: 10}},
		Duration: time.Second,
		Easing:   "no-such-curve",
		OnTick:   func(values map[string]float64) { last = values["v"] },
	})

	s.Step(0.25)
	// Falls back to inOutSine: 10/2 · (1 − cos(π/4)).
	assertNear32(t, "quarter", last, 5*(1-math.Cos(math.Pi/4)))
}

func TestAnimationCancelSettlesOnce(t *testing.T) {
	var s Scheduler
	doneCalls := 0
	completedArg := true
	a := s.Start(AnimateSpec{
		Channels: map[string]Channel{"v": {Start: 0, End: 1}},
		Duration: time.Second,
		OnDone: func(completed bool) {
			doneCalls++
			completedArg = completed
		},
	})

	a.Cancel()
	a.Cancel()
	if doneCalls != 1 {
		t.Fatalf("OnDone ran %d times, want 1", doneCalls)
	}
	if completedArg {
		t.Error("cancelled animation reported completed")
	}

	// Then on a settled handle fires immediately.
	fired := false
	a.Then(func(completed bool) { fired = !completed })
	if !fired {
		t.Error("Then on settled handle did not fire")
	}

	// A cancelled animation takes no further ticks.
	s.Step(0.5)
	if a.Completed() {
		t.Error("cancelled animation resurrected")
	}
}

func TestAnimationCancelFromTick(t *testing.T) {
	var s Scheduler
	var a *Animation
	ticks := 0
	a = s.Start(AnimateSpec{
		Channels: map[string]Channel{"v": {Start: 0, End: 1}},
		Duration: time.Second,
		OnTick:   func(map[string]float64) { ticks++; a.Cancel() },
	})

	s.Step(0.1)
	if !a.Settled() || a.Completed() {
		t.Fatal("cancel from a tick should settle before Step returns")
	}
	s.Step(0.1)
	if ticks != 1 {
		t.Fatalf("ticks = %d, want 1", ticks)
	}
}

func TestAnimationChainStartsNext(t *testing.T) {
	var s Scheduler
	var second *Animation
	var last float64

	s.Start(AnimateSpec{
		Channels: map[string]Channel{"v": {Start: 0, End: 1}},
		Duration: 100 * time.Millisecond,
		Easing:   "linear",
	}).Then(func(completed bool) {
		if !completed {
			return
		}
		second = s.Start(AnimateSpec{
			Channels: map[string]Channel{"v": {Start: 0, End: 1}},
			Duration: time.Second,
			Easing:   "linear",
			OnTick:   func(values map[string]float64) { last = values["v"] },
		})
	})

	s.Step(0.2) // finishes the first, chains the second
	if second == nil {
		t.Fatal("chained animation not started")
	}
	s.Step(0.5)
	assertNear32(t, "chained progress", last, 0.5)
}

func TestCameraAnimationReplaces(t *testing.T) {
	var s Scheduler
	first := s.StartCamera(AnimateSpec{
		Channels: map[string]Channel{"longitude": {Start: 0, End: 1}},
		Duration: time.Second,
	})
	second := s.StartCamera(AnimateSpec{
		Channels: map[string]Channel{"longitude": {Start: 1, End: 2}},
		Duration: time.Second,
	})

	if !first.Settled() || first.Completed() {
		t.Error("first camera animation should settle cancelled")
	}
	if second.Settled() {
		t.Error("second camera animation should be running")
	}
	if !s.CameraActive() {
		t.Error("CameraActive should report the replacement")
	}

	s.StopCamera()
	if s.CameraActive() {
		t.Error("CameraActive after StopCamera")
	}
	if second.Completed() {
		t.Error("stopped camera animation reported completed")
	}
}

func TestSchedulerStopAll(t *testing.T) {
	var s Scheduler
	a := s.Start(AnimateSpec{
		Channels: map[string]Channel{"v": {Start: 0, End: 1}},
		Duration: time.Second,
	})
	b := s.StartCamera(AnimateSpec{
		Channels: map[string]Channel{"longitude": {Start: 0, End: 1}},
		Duration: time.Second,
	})

	s.StopAll()
	if !a.Settled() || !b.Settled() {
		t.Fatal("StopAll must settle everything")
	}
	if a.Completed() || b.Completed() {
		t.Error("StopAll settles as cancelled")
	}
}

func TestZeroDurationSettlesImmediately(t *testing.T) {
	var s Scheduler
	var last float64
	a := s.Start(AnimateSpec{
		Channels: map[string]Channel{"v": {Start: 3, End: 7}},
		OnTick:   func(values map[string]float64) { last = values["v"] },
	})

	if !a.Completed() {
		t.Fatal("zero-duration animation should settle on Start")
	}
	assertNear(t, "end value", last, 7)
}

func TestEmptySpecSettles(t *testing.T) {
	var s Scheduler
	if a := s.Start(AnimateSpec{}); !a.Completed() {
		t.Fatal("empty spec should settle completed")
	}
	if got := CompletedAnimation(); !got.Completed() {
		t.Fatal("CompletedAnimation should report completed")
	}
}

// --- ParseSpeed ---

func TestParseSpeed(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"2rpm", 2 * 2 * math.Pi / 60},
		{"-2rpm", -2 * 2 * math.Pi / 60},
		{"1rps", 2 * math.Pi},
		{"720dpm", 12 * math.Pi / 180},
		{"0.5dps", 0.5 * math.Pi / 180},
		{"6rad per minute", 0.1},
		{"0.1rad per second", 0.1},
		{"3.5", 3.5},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseSpeed(tc.in)
			if err != nil {
				t.Fatalf("ParseSpeed(%q): %v", tc.in, err)
			}
			assertNear(t, tc.in, got, tc.want)
		})
	}
}

func TestParseSpeedErrors(t *testing.T) {
	for _, in := range []string{"", "fast", "1 knots"} {
		if _, err := ParseSpeed(in); err == nil {
			t.Errorf("ParseSpeed(%q) should fail", in)
		}
	}
}

func TestSpeedToDuration(t *testing.T) {
	if got := SpeedToDuration(math.Pi/2, math.Pi); got != 2*time.Second {
		t.Errorf("duration = %v, want 2s", got)
	}
	if got := SpeedToDuration(0, math.Pi); got != 0 {
		t.Errorf("zero speed duration = %v, want 0", got)
	}
}
