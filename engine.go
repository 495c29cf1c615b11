// Package ringforge composes the synthesis engine's subsystems (voice pool,
// Part orchestrator, clock/sequencer, modulation bus, onset detector, and
// telemetry) into the single audio-thread entry point external hosts
// drive. Grounded on the teacher's Player (PlayerOption functional-options
// construction, Watch() event channel) and offline.go (WAV rendering),
// generalized from one MML voice engine to the full resonator/sequencer
// stack.
package ringforge

import (
	"errors"
	"sync"

	"ringforge/internal/clouds"
	"ringforge/internal/message"
	"ringforge/internal/modbus"
	"ringforge/internal/modmatrix"
	"ringforge/internal/onset"
	"ringforge/internal/part"
	"ringforge/internal/seqclock"
	"ringforge/internal/telemetry"
	"ringforge/internal/voicepool"
)

// cloudsBufferFrames sizes the granular capture buffer clouds.Buffer feeds;
// the grain scheduler itself is out-of-core (spec: granular synthesis is a
// non-goal), so Engine only keeps the capture/freeze boundary alive.
const cloudsBufferFrames = 1 << 17

const blockSize = 24

// Event mirrors the teacher's PlaybackEvent for external Watch() consumers.
type Event struct {
	Kind      EventKind
	VoiceID   uint64
	StepIndex int
}

type EventKind int

const (
	EventVoiceTriggered EventKind = iota
	EventVoiceReleased
	EventStep
)

// Option configures an Engine at construction time.
type Option func(*config)

type config struct {
	polyphony         int
	model             part.Model
	mode              voicepool.Mode
	stepsPerBeat      int
	barLengthSteps    int
	msPerStep         float64
	queueCapacity     int
	telemetryRingSize int
}

func defaultConfig() config {
	return config{
		polyphony:         2,
		model:             part.ModelModal,
		mode:              voicepool.ModePoly,
		stepsPerBeat:      4,
		barLengthSteps:    16,
		msPerStep:         125,
		queueCapacity:     256,
		telemetryRingSize: 256,
	}
}

func WithPolyphony(n int) Option { return func(c *config) { c.polyphony = n } }
func WithModel(m part.Model) Option { return func(c *config) { c.model = m } }
func WithVoiceMode(m voicepool.Mode) Option { return func(c *config) { c.mode = m } }
func WithStepTiming(stepsPerBeat, barLengthSteps int, msPerStep float64) Option {
	return func(c *config) {
		c.stepsPerBeat = stepsPerBeat
		c.barLengthSteps = barLengthSteps
		c.msPerStep = msPerStep
	}
}

// Engine is the root composition; every method except Process/Submit/Watch
// runs on the control thread. Process must only ever be called from the
// single dedicated audio-rendering thread (spec §5).
type Engine struct {
	mu sync.Mutex

	sampleRate float64
	parts      []*part.Part
	pool       *voicepool.Pool
	clock      *seqclock.Clock
	bus        *modbus.Bus
	matrix     *modmatrix.Matrix
	det        *onset.Detector
	capture    *clouds.Buffer
	queue      *message.Queue
	ring       *telemetry.Ring

	audioTime float64
	eventCh   chan Event
	eventMu   sync.Mutex

	patch Patch
	tonic int
	scale seqclock.Scale
}

// Patch is the live physical-model knob set applied to every Part.
type Patch struct {
	Structure, Brightness, Damping, Position float64
}

// New builds an Engine ready to Process audio at sampleRate.
func New(sampleRate float64, opts ...Option) *Engine {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	e := &Engine{
		sampleRate: sampleRate,
		pool:       voicepool.NewPool(cfg.mode),
		clock:      seqclock.New(cfg.stepsPerBeat, cfg.barLengthSteps, cfg.msPerStep),
		bus:        modbus.NewBus(),
		matrix:     modmatrix.New(2, modmatrix.WaveSine),
		det:        onset.NewDetector(200, 2000, sampleRate, sampleRate/blockSize),
		capture:    clouds.New(cloudsBufferFrames),
		queue:      message.NewQueue(cfg.queueCapacity),
		ring:       telemetry.NewRing(cfg.telemetryRingSize),
		patch:      Patch{Structure: 0.5, Brightness: 0.5, Damping: 0.5, Position: 0.5},
		tonic:      60,
		scale:      seqclock.ScaleMajor,
	}
	e.parts = append(e.parts, part.New(sampleRate, cfg.polyphony, cfg.model))

	e.clock.Subscribe(cfg.barLengthSteps, func(ev seqclock.StepEvent) {
		e.onStep(ev)
	})

	// Fan the shared global LFO out to its three fixed destinations (spec
	// §4.13); renderSlice reads Apply() once per block and folds the
	// results into the Part's Patch.
	e.matrix.SetRoutes([]modmatrix.Route{
		{Destination: modmatrix.DestPWM, Depth: 0.2, Bipolar: true},
		{Destination: modmatrix.DestPitch, Depth: 0.5, Bipolar: true},
		{Destination: modmatrix.DestFilterCutoff, Depth: 0.1, Bipolar: true},
	})

	// Register the per-parameter modulation bus's demonstrable source: the
	// patch's Structure knob breathes on a slow LFO (spec §4.11), same as a
	// UI would register any other declared Param.
	e.bus.Register(&modbus.Param{
		ID:     "patch.structure",
		Module: "patch",
		Label:  "Structure",
		Min:    0,
		Max:    1,
		Source: modbus.SourceLFO,
		Depth:  0.15,
		LFO:    modbus.LFOConfig{RateHz: 0.15, Waveform: modbus.WaveSine},
		Apply: func(id string, value float64) {
			e.mu.Lock()
			e.patch.Structure = value
			e.mu.Unlock()
		},
	}, e.patch.Structure)

	return e
}

// Submit enqueues a control-thread message for the audio thread to apply.
// Never blocks; returns false if the queue is full, in which case the
// message is dropped (spec §7).
func (e *Engine) Submit(m message.Message) bool {
	ok := e.queue.Push(m)
	if !ok {
		e.ring.Push(telemetry.Event{Kind: telemetry.EventQueueOverflow, Timestamp: e.audioTime})
	}
	return ok
}

// Watch returns a channel receiving lifecycle events (voice triggers,
// releases, sequencer steps). Buffered; only the most recent Watch()
// channel receives events, mirroring the teacher's Player.Watch().
func (e *Engine) Watch() <-chan Event {
	ch := make(chan Event, 32)
	e.eventMu.Lock()
	e.eventCh = ch
	e.eventMu.Unlock()
	return ch
}

func (e *Engine) sendEvent(ev Event) {
	e.eventMu.Lock()
	ch := e.eventCh
	e.eventMu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- ev:
	default:
	}
}

func (e *Engine) onStep(ev seqclock.StepEvent) {
	e.sendEvent(Event{Kind: EventStep, StepIndex: ev.StepIndex})
}

// Reporter returns a telemetry.Reporter draining this engine's diagnostic
// ring; call Drain() periodically from a control-thread goroutine.
func (e *Engine) Reporter(w interface{ Write([]byte) (int, error) }) *telemetry.Reporter {
	return telemetry.NewReporter(e.ring, w)
}

// SetPatch updates the live physical-model knobs applied to every Part.
func (e *Engine) SetPatch(p Patch) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.patch = p
}

func (e *Engine) drainMessages() {
	for {
		m, ok := e.queue.Pop()
		if !ok {
			return
		}
		switch m.Kind {
		case message.KindTriggerNote:
			// A poly trigger steals a voice only when every slot is active.
			e.pool.CheckReleased(m.AudioTime)
			stolen := e.pool.ModeIsPoly()
			for _, s := range e.pool.Slots() {
				if s.State != voicepool.StateActive {
					stolen = false
				}
			}
			e.pool.TriggerNote(m.VoiceID, m.Note, m.Velocity, m.Accented, m.ShouldSlide, m.IsTrill, m.AudioTime, m.StepIndex, m.TrillTargetSemis, m.StepDurationSec)
			if stolen {
				e.ring.Push(telemetry.Event{Kind: telemetry.EventVoiceStolen, VoiceID: m.VoiceID, Timestamp: m.AudioTime})
			}
			e.sendEvent(Event{Kind: EventVoiceTriggered, VoiceID: m.VoiceID})
		case message.KindReleaseVoice:
			e.pool.ReleaseVoice(m.VoiceID, m.AudioTime, 0.2)
			e.sendEvent(Event{Kind: EventVoiceReleased, VoiceID: m.VoiceID})
		case message.KindReleaseVoiceByIndex:
			e.pool.ReleaseVoiceByIndex(int(m.VoiceID), m.AudioTime, 0.2)
		case message.KindReleaseAllVoices:
			e.pool.ReleaseAllVoices()
		case message.KindSetParam:
			e.bus.SetBaseValue(m.ParamID, m.Value)
		}
	}
}

// Process renders one block of audio. len(outL) must equal len(outR); both
// are overwritten. input is the external excitation buffer, sample-aligned
// with outL/outR (zero-length is valid — silence is substituted). Must run
// on the dedicated audio-rendering thread (spec §5): it takes no lock that a
// control-thread call could hold for long and never blocks on I/O. It is not
// allocation-free: a nil input allocates a silent slice per block, and each
// block allocates the modulation matrix's route map and each Part's
// chord-frequency slice.
func (e *Engine) Process(outL, outR []float32, input []float32) error {
	if len(outL) != len(outR) {
		return errors.New("ringforge: outL and outR length mismatch")
	}
	e.drainMessages()

	n := len(outL)
	for off := 0; off < n; off += blockSize {
		end := off + blockSize
		if end > n {
			end = n
		}
		e.renderSlice(outL[off:end], outR[off:end], sliceOrZero(input, off, end))
	}

	dt := float64(n) / e.sampleRate
	e.audioTime += dt
	e.pool.Advance(dt)
	e.pool.CheckReleased(e.audioTime)
	e.matrix.Advance(dt)
	e.bus.Tick(dt, false, false, false, nil)

	return nil
}

func sliceOrZero(buf []float32, off, end int) []float32 {
	if buf == nil {
		return make([]float32, end-off)
	}
	if end > len(buf) {
		end = len(buf)
	}
	if off > len(buf) {
		off = len(buf)
	}
	return buf[off:end]
}

// convertPitchPlan translates a voicepool.PitchPlan into a part.PitchPlan.
// part deliberately does not import voicepool (it would invert the
// control-thread/audio-thread dependency direction), so Engine is the one
// place that bridges the two structurally identical shapes.
func convertPitchPlan(p voicepool.PitchPlan) part.PitchPlan {
	return part.PitchPlan{
		Kind:          part.PitchPlanKind(p.Kind),
		StartRatio:    p.StartRatio,
		RampSeconds:   p.RampSeconds,
		TrillSegments: p.TrillSegments,
		TrillBase:     p.TrillBase,
		TrillTarget:   p.TrillTarget,
		StepDuration:  p.StepDuration,
	}
}

func (e *Engine) renderSlice(outL, outR, input []float32) {
	slots := e.pool.Slots()
	note := e.tonic
	gate := false
	var plan voicepool.PitchPlan
	for i := range slots {
		if slots[i].State == voicepool.StateActive {
			note = slots[i].MIDINote
			plan = slots[i].Pitch
			gate = slots[i].Gate.Gate || slots[i].Gate.Retrigger
			break
		}
	}

	mod := e.matrix.Apply()

	p := e.parts[0]
	p.SetPitchPlan(convertPitchPlan(plan))
	p.RenderBlock(outL, outR, input, float64(note), gate, part.Patch{
		Structure:          e.patch.Structure,
		Brightness:         e.patch.Brightness,
		Damping:            e.patch.Damping,
		Position:           e.patch.Position,
		PWMDuty:            mod[modmatrix.DestPWM],
		PitchOffsetSemis:   mod[modmatrix.DestPitch],
		FilterCutoffOffset: mod[modmatrix.DestFilterCutoff],
	}, 0)

	for _, x := range input {
		if e.det.Process(float64(x)) {
			e.ring.Push(telemetry.Event{Kind: telemetry.EventOnsetDetected, Timestamp: e.audioTime})
		}
	}

	for i := range outL {
		e.capture.Capture(outL[i], outR[i])
	}
}

// SetCloudsParams updates the granular capture buffer's freeze/scheduling
// controls (spec §2 row 8); the grain scheduler reading ReadGrainSeed is an
// external collaborator, out-of-core per spec.
func (e *Engine) SetCloudsParams(p clouds.Params) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.capture.SetParams(p)
}

// ReadGrainSeed exposes the capture buffer's Hermite-interpolated read for an
// external grain scheduler.
func (e *Engine) ReadGrainSeed(delayFrames float64) (l, r float32) {
	return e.capture.ReadGrainSeed(delayFrames)
}

// AdvanceClock steps the polymetric clock once; call at the sequencer's
// step rate from the control thread (spec §4.10). Steps that land on a
// gated position call back into TriggerNote via Submit so the actual voice
// allocation still happens on the audio thread's queue-drain pass.
func (e *Engine) AdvanceClock(audioTime float64, gatePattern, accentPattern, slidePattern, trillPattern []bool, probability, gateLengthPercent float64) {
	e.clock.SetPatterns(gatePattern, accentPattern, slidePattern, trillPattern, probability)
	e.clock.Advance(audioTime)

	step := e.clock.StepIndex()
	prevSlide := e.clock.PrevFilledSlide(step)
	trig, fired := e.clock.Evaluate(step, prevSlide, gateLengthPercent, e.pool.ModeIsPoly())
	if !fired {
		return
	}

	lfoVal := e.matrix.Value()
	note := seqclock.MapLFOToNote(lfoVal, e.tonic, e.scale)
	voiceID := uint64(step) + 1
	trillTargetSemis := float64(seqclock.NextScaleDegree(note, e.tonic, e.scale) - note)
	stepDurationSec := e.clock.StepDurationSeconds()
	e.Submit(message.TriggerNote(voiceID, note, 1.0, trig.IsAccented, trig.ShouldSlide, trig.IsTrill, audioTime, step, trillTargetSemis, stepDurationSec))
	if e.pool.ModeIsPoly() {
		// scheduleAutoRelease happens on the audio thread's own clock in a
		// full implementation; here the control thread computes the target
		// time and enqueues a release directly.
		e.Submit(message.ReleaseVoice(voiceID, audioTime+trig.ReleaseDelaySec))
	}
}
