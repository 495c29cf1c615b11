// Package voicepool implements the 8-slot subtractive voice pool of spec
// §4.9: slot lifecycle, voice stealing, portamento/slide-into/trill pitch
// planning, and gate/retrigger signalling. Grounded on the teacher's
// Sequencer note-on/note-off bookkeeping (internal/sequencer/sequencer.go)
// generalized from a single mono voice engine to an 8-slot scored-steal
// pool.
package voicepool

import (
	"math"

	"ringforge/internal/dsptables"
)

const numSlots = 8

// SlotState is the lifecycle state of one voice slot.
type SlotState int

const (
	StateInactive SlotState = iota
	StateActive
	StateReleasing
	StateQuickReleasing
)

// Mode selects mono or poly allocation behavior.
type Mode int

const (
	ModeMono Mode = iota
	ModePoly
)

// PitchPlanKind identifies which pitch automation a trigger produced.
type PitchPlanKind int

const (
	PlanDirect PitchPlanKind = iota
	PlanPortamento
	PlanSlideInto
	PlanTrill
)

// PitchPlan describes the frequency automation scheduled for a slot.
type PitchPlan struct {
	Kind         PitchPlanKind
	StartRatio   float64 // multiple of target frequency to start from
	RampSeconds  float64
	TrillSegments int // 3 for downbeat, 2 for offbeat
	TrillBase    float64
	TrillTarget  float64
	StepDuration float64
}

// GateSignal describes the mutually-exclusive gate/retrigger pulse for a
// slot (spec §4.9 step 5).
type GateSignal struct {
	Retrigger bool // mono: pulse 0->1->0 over 5ms
	Gate      bool // poly: pulse 0->1, stays high until noteOff
}

// Slot is one voice pool slot.
type Slot struct {
	State            SlotState
	VoiceID          uint64
	MIDINote         int
	Velocity         float64
	Accented         bool
	Age              float64 // seconds since triggered
	ReleaseEndSec    float64
	QuickReleaseEndSec float64
	AutoReleaseEndSec  float64
	HasAutoRelease     bool
	DriftCents       float64
	Pitch            PitchPlan
	Gate             GateSignal
}

// Pool is the fixed 8-slot voice allocator.
type Pool struct {
	slots     [numSlots]Slot
	mode      Mode
	glideSec  float64 // 0 disables glide portamento; >0 uses [1ms,1s] ramp
	rng       uint64  // xorshift state for drift-cents generation
	nextVoice uint64
}

func NewPool(mode Mode) *Pool {
	return &Pool{mode: mode, rng: 0x9e3779b97f4a7c15}
}

func (p *Pool) SetMode(mode Mode) { p.mode = mode }
func (p *Pool) ModeIsPoly() bool  { return p.mode == ModePoly }
func (p *Pool) SetGlideSeconds(sec float64) { p.glideSec = sec }

// CheckReleased promotes slots whose scheduled release/auto-release time has
// passed, given the current audio-clock time (spec §4.9 step 1).
func (p *Pool) CheckReleased(audioTime float64) {
	for i := range p.slots {
		s := &p.slots[i]
		switch s.State {
		case StateReleasing:
			if audioTime >= s.ReleaseEndSec {
				s.State = StateInactive
			}
		case StateQuickReleasing:
			if audioTime >= s.QuickReleaseEndSec {
				s.State = StateInactive
			}
		}
		if s.HasAutoRelease && audioTime >= s.AutoReleaseEndSec && s.State == StateActive {
			p.beginRelease(i, audioTime, 0)
			s.HasAutoRelease = false
		}
	}
}

// TriggerNote allocates a slot for a new note and computes its pitch plan
// and gate signal (spec §4.9). trillTargetSemis is the semitone offset to
// the scale-relative trill target (caller resolves it against the current
// scale/root via seqclock.NextScaleDegree, spec §8 scenario 6); it is
// ignored unless isTrill is true. stepDurationSec is the current sequencer
// step's nominal duration, used to pace the trill segments.
func (p *Pool) TriggerNote(voiceID uint64, note int, velocity float64, accented, shouldSlide, isTrill bool, audioTime float64, stepIndex int, trillTargetSemis, stepDurationSec float64) int {
	p.CheckReleased(audioTime)

	idx := p.selectSlot(note)
	s := &p.slots[idx]

	priorSounding := s.State == StateActive || s.State == StateReleasing
	priorNote := s.MIDINote

	s.State = StateActive
	s.VoiceID = voiceID
	s.MIDINote = note
	s.Age = 0
	s.Accented = accented
	if accented {
		s.Velocity = velocity
	} else {
		s.Velocity = 0.5 * velocity
	}
	s.DriftCents = p.nextDriftCents()
	s.HasAutoRelease = false

	switch {
	case p.mode == ModeMono && priorSounding && (shouldSlide || p.glideSec > 0):
		ramp := 0.080
		if p.glideSec > 0 {
			ramp = clamp(p.glideSec, 0.001, 1.0)
		}
		s.Pitch = PitchPlan{Kind: PlanPortamento, StartRatio: ratioForSemitones(float64(priorNote - note)), RampSeconds: ramp}
		s.Gate = GateSignal{}
	case p.mode == ModePoly && shouldSlide:
		s.Pitch = PitchPlan{Kind: PlanSlideInto, StartRatio: 0.97, RampSeconds: 0.040}
		s.Gate = GateSignal{Gate: true}
	case isTrill:
		segments := 2
		if stepIndex%2 == 0 {
			segments = 3
		}
		s.Pitch = PitchPlan{
			Kind:          PlanTrill,
			TrillSegments: segments,
			TrillBase:     ratioForSemitones(0),
			TrillTarget:   ratioForSemitones(trillTargetSemis),
			StepDuration:  stepDurationSec,
		}
		if p.mode == ModeMono {
			s.Gate = GateSignal{Retrigger: true}
		} else {
			s.Gate = GateSignal{Gate: true}
		}
	default:
		s.Pitch = PitchPlan{Kind: PlanDirect}
		if p.mode == ModeMono {
			s.Gate = GateSignal{Retrigger: true}
		} else {
			s.Gate = GateSignal{Gate: true}
		}
	}

	p.nextVoice++
	return idx
}

// selectSlot implements spec §4.9 step 2/3.
func (p *Pool) selectSlot(note int) int {
	if p.mode == ModeMono {
		p.slots[0].State = StateInactive // clear releasing so it can be retriggered
		return 0
	}

	for i := range p.slots {
		if p.slots[i].State == StateInactive {
			return i
		}
	}
	for i := range p.slots {
		if p.slots[i].State == StateReleasing {
			return i
		}
	}
	for i := range p.slots {
		if p.slots[i].State == StateQuickReleasing {
			return i
		}
	}
	return p.stealSlot()
}

// stealSlot scores every active candidate (spec §4.9 step 3) and returns the
// highest-scoring index, falling back to the oldest slot on a tie-free
// degenerate case.
func (p *Pool) stealSlot() int {
	best := -1
	bestScore := math.Inf(-1)
	oldest := 0
	oldestAge := -1.0
	for i := range p.slots {
		s := &p.slots[i]
		score := s.Age + 0.5*(1-s.Velocity)
		if s.Accented {
			score -= 2
		}
		if s.MIDINote < 48 {
			score -= 0.3
		}
		if score > bestScore {
			bestScore = score
			best = i
		}
		if s.Age > oldestAge {
			oldestAge = s.Age
			oldest = i
		}
	}
	if best < 0 {
		return oldest
	}
	return best
}

func (p *Pool) nextDriftCents() float64 {
	p.rng ^= p.rng << 13
	p.rng ^= p.rng >> 7
	p.rng ^= p.rng << 17
	u := float64(p.rng>>11) / float64(1<<53)
	return (u*2 - 1) * 3.0 // +-3 cents
}

func ratioForSemitones(semitones float64) float64 {
	return dsptables.RatioForSemitones(semitones)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// ReleaseVoice begins release for the slot currently holding voiceID, if
// any (spec §4.9: releaseVoice).
func (p *Pool) ReleaseVoice(voiceID uint64, audioTime, releaseSeconds float64) {
	for i := range p.slots {
		if p.slots[i].VoiceID == voiceID && p.slots[i].State == StateActive {
			p.beginRelease(i, audioTime, releaseSeconds)
			return
		}
	}
}

// ReleaseVoiceByIndex releases slot i directly, bypassing the VoiceID
// lookup (spec §4.9: required because fast sequences may have already
// reused the voice).
func (p *Pool) ReleaseVoiceByIndex(i int, audioTime, releaseSeconds float64) {
	if i < 0 || i >= numSlots {
		return
	}
	p.beginRelease(i, audioTime, releaseSeconds)
}

func (p *Pool) beginRelease(i int, audioTime, releaseSeconds float64) {
	s := &p.slots[i]
	s.Gate = GateSignal{}
	s.State = StateReleasing
	s.ReleaseEndSec = audioTime + releaseSeconds + 0.100
}

// ScheduleAutoRelease arms an automatic release at time t without any other
// side effect (spec §4.9: scheduleAutoRelease).
func (p *Pool) ScheduleAutoRelease(i int, t float64) {
	if i < 0 || i >= numSlots {
		return
	}
	p.slots[i].HasAutoRelease = true
	p.slots[i].AutoReleaseEndSec = t
}

// ReleaseAllVoices is the panic-stop: cancel all automation and reset every
// slot to inactive (spec §4.9: releaseAllVoices).
func (p *Pool) ReleaseAllVoices() {
	for i := range p.slots {
		p.slots[i] = Slot{}
	}
}

// Slots exposes the slot array for the Part orchestrator to read per-block
// (render side is read-only from the pool's perspective).
func (p *Pool) Slots() *[numSlots]Slot { return &p.slots }

// Advance ages every slot by dt seconds; call once per audio block.
func (p *Pool) Advance(dt float64) {
	for i := range p.slots {
		if p.slots[i].State != StateInactive {
			p.slots[i].Age += dt
		}
	}
}
