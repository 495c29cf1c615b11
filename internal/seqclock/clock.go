// Package seqclock implements the polymetric clock and Euclidean step
// sequencer of spec §4.10, grounded on the teacher's Sequencer tick-advance
// loop (internal/sequencer/sequencer.go) and MultiEngine's per-subscriber
// registration (internal/sequencer/multi_engine.go), generalized from a
// single MML voice engine driving ticks into a clock broadcasting step
// events to multiple independently-barred subscriber apps.
package seqclock

import "sync"

// StepEvent is broadcast to every subscriber on each clock step (spec
// §4.10: "{type: step, audioTime, stepIndex, isBarStart, perAppState}").
type StepEvent struct {
	AudioTime  float64
	StepIndex  int
	IsBarStart bool
	AppState   any
}

// appSub is one subscriber's private bar-length state; each app's bar
// boundary is computed independently from the shared step counter (spec
// §4.10: "each subscribing app has its own bar length").
type appSub struct {
	barLengthSteps int
	onStep         func(StepEvent)
}

// Clock drives the polymetric step counter and Euclidean pattern engine.
type Clock struct {
	mu sync.Mutex

	stepsPerBeat int
	barLengthApp int // default bar length used for isBarStart when no subscriber overrides it
	swingPercent float64
	msPerStep    float64

	stepCounter int
	subs        []*appSub

	gatePattern   []bool
	accentPattern []bool
	slidePattern  []bool
	trillPattern  []bool
	probability   float64 // [0,100]

	rng uint64
}

func New(stepsPerBeat, barLengthApp int, msPerStep float64) *Clock {
	return &Clock{
		stepsPerBeat: stepsPerBeat,
		barLengthApp: barLengthApp,
		msPerStep:    msPerStep,
		probability:  100,
		rng:          0xda3e39cb94b95bdb,
	}
}

// Subscribe registers an app with its own bar length (spec §4.10).
func (c *Clock) Subscribe(barLengthSteps int, onStep func(StepEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, &appSub{barLengthSteps: barLengthSteps, onStep: onStep})
}

// SetPatterns installs the gate/accent/slide/trill patterns for the current
// sequence (spec §4.10/§4.11).
func (c *Clock) SetPatterns(gate, accent, slide, trill []bool, probability float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gatePattern = gate
	c.accentPattern = accent
	c.slidePattern = slide
	c.trillPattern = trill
	c.probability = probability
}

// swingOffsetMs returns the ±(swing/100)*0.5*msPerStep applied on alternate
// steps (spec §4.10).
func (c *Clock) swingOffsetMs(step int) float64 {
	if step%2 == 0 {
		return 0
	}
	return (c.swingPercent / 100) * 0.5 * c.msPerStep
}

// SetSwing sets the swing percentage, [0,100].
func (c *Clock) SetSwing(percent float64) { c.swingPercent = percent }

// Advance moves the clock forward one step at audioTime (already including
// any swing offset the caller applied upstream) and broadcasts to every
// subscriber (spec §4.10).
func (c *Clock) Advance(audioTime float64) {
	c.mu.Lock()
	period := c.stepsPerBeat * c.barLengthApp
	if period <= 0 {
		period = 1
	}
	c.stepCounter = (c.stepCounter + 1) % period
	step := c.stepCounter
	subs := append([]*appSub(nil), c.subs...)
	c.mu.Unlock()

	for _, sub := range subs {
		isBarStart := sub.barLengthSteps > 0 && step%sub.barLengthSteps == 0
		sub.onStep(StepEvent{AudioTime: audioTime, StepIndex: step, IsBarStart: isBarStart})
	}
}

// StepIndex returns the current step counter value.
func (c *Clock) StepIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stepCounter
}

// StepDurationSeconds returns the nominal (pre-swing) duration of one step.
func (c *Clock) StepDurationSeconds() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.msPerStep / 1000
}

func (c *Clock) uniform01() float64 {
	c.rng ^= c.rng << 13
	c.rng ^= c.rng >> 7
	c.rng ^= c.rng << 17
	return float64(c.rng>>11) / float64(1<<53)
}

// Trigger describes one pattern-driven note trigger derived from the
// current step (spec §4.10 "On a step event").
type Trigger struct {
	IsAccented        bool
	ShouldSlide       bool
	IsTrill           bool
	ReleaseDelaySec   float64 // poly-mode autoRelease delay
	GateLengthPercent float64
}

// Evaluate checks gatePattern/probability for currentStep and, when it
// fires, derives the accent/slide/trill flags per spec §4.10. prevFilledSlide
// is the slide flag of the previous *filled* step (TB-303 "slide from N to
// N+1" convention: a landed note inherits the slide of the step before it).
func (c *Clock) Evaluate(currentStep int, prevFilledSlide bool, gateLengthPercent float64, isPoly bool) (Trigger, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if currentStep < 0 || currentStep >= len(c.gatePattern) || !c.gatePattern[currentStep] {
		return Trigger{}, false
	}
	if c.uniform01()*100 > c.probability {
		return Trigger{}, false
	}

	trig := Trigger{GateLengthPercent: gateLengthPercent}
	if currentStep < len(c.accentPattern) {
		trig.IsAccented = c.accentPattern[currentStep]
	}
	trig.ShouldSlide = prevFilledSlide
	if currentStep < len(c.trillPattern) {
		trig.IsTrill = c.trillPattern[currentStep]
	}
	if isPoly {
		trig.ReleaseDelaySec = c.msPerStep * (gateLengthPercent / 100) / 1000
	}
	return trig, true
}

// PrevFilledSlide returns the slide flag belonging to the filled step
// immediately preceding currentStep. It does not wrap across the pattern
// boundary: with no filled step before currentStep it returns false, per
// the "no-slide at wrap" decision (SPEC_FULL.md §9).
func (c *Clock) PrevFilledSlide(currentStep int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.gatePattern)
	if n == 0 {
		return false
	}
	for back := 1; back <= n; back++ {
		i := currentStep - back
		if i < 0 {
			return false // wrap boundary: no slide, per SPEC_FULL.md §9
		}
		if c.gatePattern[i] {
			if i < len(c.slidePattern) {
				return c.slidePattern[i]
			}
			return false
		}
	}
	return false
}
