// Package part implements the voice orchestrator of spec §4.8: chord
// dispatch, per-voice model routing, NoteFilter edge-suppression, and the
// final limiter/reverb signal chain. Grounded on the teacher's Sequencer
// per-track render loop for the block-at-a-time mixing discipline,
// generalized from one MML voice engine to six selectable resonator models.
package part

import (
	"math"

	"ringforge/internal/dsptables"
	"ringforge/internal/ensemble"
	"ringforge/internal/filter"
	"ringforge/internal/limiter"
	"ringforge/internal/osc"
	"ringforge/internal/resonator"
	"ringforge/internal/reverb"
)

const maxBlockSize = 24

// Model selects which resonator engine a voice slot renders through (spec
// §2 row 9/10: "6 models").
type Model int

const (
	ModelModal Model = iota
	ModelSympatheticString
	ModelPluckedString
	ModelFMVoice
	ModelQuantizedSympathetic
	ModelStringAndReverb
)

// pingPattern is the interleaved voice-advance order for odd polyphony
// counts (spec §4.8 step 2).
var pingPattern = [8]int{1, 0, 2, 1, 0, 2, 1, 0}

// noteTable is the hand-built detuned-chord interpolation table relative to
// tonic (spec §4.8 step 4).
var noteTable = [9]float64{0, -12, -7.02, 0, 7.02, 12, 19.02, 24, 24}

// stringDetunes are the small per-string detunings applied to higher
// strings in sympathetic-string chord voicing (spec §4.8 step 4).
var stringDetunes = [4]float64{0.013, 0.011, 0.007, 0.017}

// chordTable indexed by (polyphony-1, chord) giving semitone offsets from
// tonic for up to 4 voices; chord 0 is unison/octave-doubled, others are
// common triad/seventh voicings.
var chordTable = [4][8][4]float64{
	{{0, 12, 24, 36}, {0, 7, 12, 19}, {0, 4, 7, 12}, {0, 3, 7, 10}, {0, 5, 7, 12}, {0, 4, 7, 11}, {0, 2, 7, 9}, {0, 7, 14, 21}},
	{{0, 7, 12, 19}, {0, 4, 7, 12}, {0, 3, 7, 10}, {0, 4, 7, 11}, {0, 2, 9, 16}, {0, 5, 9, 14}, {0, 3, 10, 15}, {0, 7, 12, 24}},
	{{0, 4, 7, 12}, {0, 3, 7, 10}, {0, 4, 7, 11}, {0, 3, 6, 10}, {0, 2, 7, 11}, {0, 5, 9, 12}, {0, 4, 9, 14}, {0, 7, 11, 16}},
	{{0, 3, 7, 10}, {0, 4, 7, 11}, {0, 3, 6, 9}, {0, 4, 8, 11}, {0, 2, 5, 9}, {0, 5, 7, 10}, {0, 3, 9, 12}, {0, 7, 10, 14}},
}

// NoteFilter suppresses note-triggering edge artifacts via a 4-sample
// median plus two exponential smoothers and a delayed stable-note output
// (spec §4.8: "NoteFilter").
type NoteFilter struct {
	history    [4]float64
	idx        int
	smooth1    float64
	smooth2    float64
	stableNote float64
	delayLine  [4]float64
	delayIdx   int
}

func NewNoteFilter() *NoteFilter { return &NoteFilter{} }

// Process pushes one {note} sample through the median/smoother/delay chain
// and returns the stabilized note plus a pass-through strum flag.
func (f *NoteFilter) Process(note float64, strum bool) (stableNote float64, strumOut bool) {
	f.history[f.idx] = note
	f.idx = (f.idx + 1) % len(f.history)
	med := median4(f.history)

	f.smooth1 += 0.5 * (med - f.smooth1)
	f.smooth2 += 0.25 * (f.smooth1 - f.smooth2)

	f.delayLine[f.delayIdx] = f.smooth2
	delayed := f.delayLine[(f.delayIdx+1)%len(f.delayLine)]
	f.delayIdx = (f.delayIdx + 1) % len(f.delayLine)

	f.stableNote = delayed
	return f.stableNote, strum
}

func median4(v [4]float64) float64 {
	s := v
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
	return (s[1] + s[2]) / 2
}

// Voice is one of the (polyphony, up-to-8-strings) resonator voices.
type Voice struct {
	Modal      *resonator.Modal
	Strings    [2]*resonator.String
	FM         *resonator.FMVoice
	Plucker    *resonator.Plucker
	DC         *filter.DCBlocker
	Cutoff     *filter.SVF
	Exciter    *osc.Square
	SawExciter *osc.Saw
	ExciterEnv *osc.SegmentEnvelope
	Note       float64
}

func newVoice() *Voice {
	return &Voice{
		Modal:      resonator.NewModal(),
		Strings:    [2]*resonator.String{resonator.NewString(), resonator.NewString()},
		FM:         resonator.NewFMVoice(),
		Plucker:    resonator.NewPlucker(),
		DC:         filter.NewDCBlocker(0.995),
		Cutoff:     filter.NewSVF(),
		Exciter:    osc.NewSquare(0.5),
		SawExciter: &osc.Saw{},
		ExciterEnv: osc.NewAD(0.001, 0.05, true),
	}
}

// Patch is the per-block physical-model knob set (spec §3: "Patch"),
// extended with the global modulation matrix's fan-out (spec §4.13): each
// field defaults to zero (no modulation) when the caller never routes it.
type Patch struct {
	Structure  float64
	Brightness float64
	Damping    float64
	Position   float64

	PWMDuty            float64 // modmatrix DestPWM, added to the internal exciter's duty cycle
	PitchOffsetSemis   float64 // modmatrix DestPitch, semitone offset stacked on the scheduled PitchPlan ratio
	FilterCutoffOffset float64 // modmatrix DestFilterCutoff, added to the excitation lowpass's normalized cutoff
}

// PitchPlanKind mirrors voicepool.PitchPlanKind; Part is kept decoupled from
// the voice pool package (Pitch automation is scheduled there, per spec
// §4.9, but rendered here).
type PitchPlanKind int

const (
	PitchDirect PitchPlanKind = iota
	PitchPortamento
	PitchSlideInto
	PitchTrill
)

// PitchPlan is the frequency automation scheduled for the voice(s) a strum
// triggers (spec §4.9: portamento glide, slide-into, trill). Ratios are
// relative to the target frequency computed from the stabilized note.
type PitchPlan struct {
	Kind          PitchPlanKind
	StartRatio    float64
	RampSeconds   float64
	TrillSegments int
	TrillBase     float64
	TrillTarget   float64
	StepDuration  float64
}

// Part is the voice orchestrator.
type Part struct {
	polyphony   int
	model       Model
	voices      []*Voice
	noteFilter  *NoteFilter
	activeVoice int
	reverb      *reverb.Reverb
	ensemble    *ensemble.Ensemble
	limiter     *limiter.Limiter
	sampleRate  float64
	tonic       float64

	pendingPlan PitchPlan
	pitchPlan   PitchPlan
	pitchRatio  float64
	planElapsed float64
}

// New builds a Part with the given polyphony (1-4) and model.
func New(sampleRate float64, polyphony int, model Model) *Part {
	if polyphony < 1 {
		polyphony = 1
	}
	if polyphony > 4 {
		polyphony = 4
	}
	voices := make([]*Voice, polyphony)
	for i := range voices {
		voices[i] = newVoice()
	}
	return &Part{
		polyphony:  polyphony,
		model:      model,
		voices:     voices,
		noteFilter: NewNoteFilter(),
		reverb:     reverb.New(sampleRate),
		ensemble:   ensemble.New(sampleRate, 0.6, 2.5, 0.18),
		limiter:    limiter.Default(sampleRate),
		sampleRate: sampleRate,
		pitchRatio: 1.0,
	}
}

func (p *Part) SetModel(m Model) { p.model = m }
func (p *Part) SetTonic(t float64) { p.tonic = t }

// SetPitchPlan arms the frequency automation applied on the next strum (spec
// §4.9: portamento/slide-into/trill). Callers that never schedule plan
// automation may leave this unset; the zero value renders as PitchDirect
// (ratio fixed at 1, no audible effect).
func (p *Part) SetPitchPlan(plan PitchPlan) { p.pendingPlan = plan }

// applyPitchPlan resets the ramp/trill state for a freshly triggered plan.
func (p *Part) applyPitchPlan(plan PitchPlan) {
	p.pitchPlan = plan
	p.planElapsed = 0
	switch plan.Kind {
	case PitchPortamento, PitchSlideInto:
		p.pitchRatio = plan.StartRatio
	case PitchTrill:
		p.pitchRatio = plan.TrillBase
	default:
		p.pitchRatio = 1.0
	}
}

// advancePitchRatio steps the scheduled pitch automation forward by dt
// seconds and returns the current frequency ratio (spec §4.9): an
// exponential ramp from StartRatio that reaches 1.0 after RampSeconds for
// portamento/slide-into, or a segment alternation between
// TrillBase/TrillTarget for trills.
func (p *Part) advancePitchRatio(dt float64) float64 {
	switch p.pitchPlan.Kind {
	case PitchPortamento, PitchSlideInto:
		p.planElapsed += dt
		if p.pitchPlan.RampSeconds > 0 && p.planElapsed < p.pitchPlan.RampSeconds && p.pitchPlan.StartRatio > 0 {
			p.pitchRatio = math.Pow(p.pitchPlan.StartRatio, 1-p.planElapsed/p.pitchPlan.RampSeconds)
		} else {
			p.pitchRatio = 1.0
		}
	case PitchTrill:
		p.planElapsed += dt
		segDur := p.pitchPlan.StepDuration / math.Max(float64(p.pitchPlan.TrillSegments), 1)
		seg := int(p.planElapsed / math.Max(segDur, 1e-6))
		if seg%2 == 0 {
			p.pitchRatio = p.pitchPlan.TrillBase
		} else {
			p.pitchRatio = p.pitchPlan.TrillTarget
		}
	default:
		p.pitchRatio = 1.0
	}
	return p.pitchRatio
}

// advanceActiveVoice applies the PING_PATTERN for odd polyphony, round-robin
// otherwise (spec §4.8 step 2).
func (p *Part) advanceActiveVoice() {
	if p.polyphony%2 == 1 && p.polyphony > 1 {
		idx := (p.activeVoice + 1) % len(pingPattern)
		p.activeVoice = pingPattern[idx] % p.polyphony
	} else {
		p.activeVoice = (p.activeVoice + 1) % p.polyphony
	}
}

// chordFrequencies computes per-voice detuned frequencies for the
// sympathetic-string models (spec §4.8 step 4). structure is the patch's
// raw [0,1] knob; below 0.5 the voices are spread across the hand-built
// note table (interpolated via a squash S-curve), otherwise they're pulled
// from the chord table indexed by (polyphony-1, chord).
func (p *Part) chordFrequencies(note, structure float64, chord int) []float64 {
	out := make([]float64, p.polyphony)
	if p.model != ModelSympatheticString && p.model != ModelQuantizedSympathetic && p.model != ModelStringAndReverb {
		for i := range out {
			out[i] = note
		}
		return out
	}

	if structure < 0.5 {
		t := squash(structure * 2)
		for i := range out {
			frac := float64(i) / float64(maxi(p.polyphony-1, 1))
			idx := int((t + frac) / 2 * float64(len(noteTable)-1))
			if idx >= len(noteTable) {
				idx = len(noteTable) - 1
			}
			out[i] = note + noteTable[idx]
		}
	} else {
		row := clampi(p.polyphony-1, 0, 3)
		col := ((chord % 8) + 8) % 8
		for i := range out {
			out[i] = note + chordTable[row][col][i%4]
		}
	}
	for i := 1; i < len(out) && i-1 < len(stringDetunes); i++ {
		out[i] += stringDetunes[i-1]
	}
	return out
}

func maxi(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clampi(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func squash(x float64) float64 {
	if x < 0 {
		x = 0
	}
	if x > 1 {
		x = 1
	}
	return x * x * (3 - 2*x)
}

// RenderBlock renders up to maxBlockSize stereo frames into outL/outR,
// implementing spec §4.8 steps 1-7. input is the external excitation signal
// (copied only into the active voice per step 3); note is the raw,
// possibly-jittery MIDI-ish pitch from the sequencer/keyboard; strum
// requests a new pluck/chord advance this block.
func (p *Part) RenderBlock(outL, outR []float32, input []float32, note float64, strum bool, patch Patch, chord int) {
	n := len(outL)
	if n > maxBlockSize {
		n = maxBlockSize
	}

	stableNote, strumOut := p.noteFilter.Process(note, strum)
	isStringModel := p.model == ModelPluckedString || p.model == ModelSympatheticString ||
		p.model == ModelQuantizedSympathetic || p.model == ModelStringAndReverb
	if strumOut {
		p.advanceActiveVoice()
		p.applyPitchPlan(p.pendingPlan)
		for _, v := range p.voices {
			v.Note = stableNote
			if isStringModel {
				burstLen := (0.002 + 0.018*(1-patch.Damping)) * p.sampleRate
				v.Plucker.Trigger(burstLen, patch.Position)
			} else {
				v.ExciterEnv.Trigger()
			}
		}
	}

	freqs := p.chordFrequencies(440*dsptables.RatioForSemitones(stableNote-69), patch.Structure, chord)

	cutoffNorm := clamp01(0.02 + 0.45*patch.Brightness + patch.FilterCutoffOffset)
	pwmDuty := clamp01(0.5 + patch.PWMDuty)
	pitchOffsetRatio := dsptables.RatioForSemitones(patch.PitchOffsetSemis)
	dt := 1.0 / p.sampleRate

	for i := 0; i < n; i++ {
		ratio := p.advancePitchRatio(dt) * pitchOffsetRatio
		var mixL, mixR float64
		for vi, v := range p.voices {
			x := 0.0
			if vi == p.activeVoice && i < len(input) {
				x = float64(input[i])
			}
			if !isStringModel {
				env := v.ExciterEnv.Next(p.sampleRate)
				if p.model == ModelFMVoice {
					// FM voice wants a harmonically-dense click; the saw's
					// full sawtooth spectrum excites more operator sidebands
					// than the square's odd-harmonics-only click.
					x += v.SawExciter.Next(freqs[vi]*2, p.sampleRate) * env * 0.3
				} else {
					v.Exciter.SetDuty(pwmDuty)
					x += v.Exciter.Next(freqs[vi]*2, p.sampleRate) * env * 0.3
				}
			}

			v.Cutoff.SetFQ(cutoffNorm, 0.6)
			out := p.renderVoice(v, x, freqs[vi]*ratio, patch)
			out = v.Cutoff.Process(out, filter.LP)
			out = v.DC.Process(out)

			if p.polyphony == 1 {
				mixL += out
				mixR += out
			} else if vi%2 == 0 {
				mixL += out
			} else {
				mixR += out
			}
		}

		preGain := preGainFor(p.model)

		if p.model == ModelStringAndReverb {
			posWeight := patch.Position
			crossL := mixL*(1-posWeight) + mixR*posWeight
			crossR := mixR*(1-posWeight) + mixL*posWeight
			wetL, wetR := p.reverb.Process(float32(crossL), float32(crossR))
			mixL = float64(wetL)
			mixR = -float64(wetR)
		}

		wideL, wideR := p.ensemble.Process(float32(mixL), float32(mixR))
		mixL, mixR = float64(wideL), float64(wideR)

		l, r := p.limiter.Process(mixL, mixR, preGain)
		outL[i] = float32(l)
		outR[i] = float32(r)
	}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func preGainFor(m Model) float64 {
	switch m {
	case ModelModal, ModelPluckedString:
		return 1.4
	case ModelSympatheticString, ModelQuantizedSympathetic, ModelStringAndReverb:
		return 1.0
	case ModelFMVoice:
		return 0.7
	default:
		return 1.0
	}
}

func (p *Part) renderVoice(v *Voice, x, freq float64, patch Patch) float64 {
	switch p.model {
	case ModelModal:
		v.Modal.ConfigureBlock(patch.Structure, patch.Brightness, patch.Damping, patch.Position, freq/p.sampleRate)
		return v.Modal.Process(x)
	case ModelPluckedString, ModelSympatheticString, ModelQuantizedSympathetic, ModelStringAndReverb:
		if v.Plucker.Active() {
			x += v.Plucker.Next()
		}
		delaySamples := p.sampleRate / math.Max(freq, 1)
		rt60 := 0.2 + 5*patch.Damping
		dispersion := patch.Structure*2 - 1
		var sum float64
		for _, s := range v.Strings {
			out, _ := s.Tick(x, delaySamples, patch.Brightness, rt60, dispersion, patch.Position)
			sum += out
		}
		return sum / float64(len(v.Strings))
	case ModelFMVoice:
		ratio := 1 + patch.Structure*7
		v.FM.Configure(ratio, patch.Damping, p.sampleRate)
		energy, _ := v.FM.Energy(x)
		fmAmount := patch.Brightness * (0.3 + 0.7*math.Min(energy, 1))
		out, _ := v.FM.Process(freq, p.sampleRate, fmAmount, 1.0)
		return out
	default:
		return 0
	}
}

func (p *Part) Reset() {
	for _, v := range p.voices {
		v.Modal.Reset()
		for _, s := range v.Strings {
			s.Reset()
		}
		v.FM.Reset()
		v.Plucker.Reset()
		v.Cutoff.Reset()
		v.Exciter.Reset()
		v.SawExciter.Reset()
	}
	p.ensemble.Reset()
	p.limiter.Reset()
}
