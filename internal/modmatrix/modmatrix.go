// Package modmatrix implements the global modulation LFO of spec §4.13,
// generalizing the teacher's internal/lfo.LFO (which only drove pitch/amp/
// filter for one voice engine) into a shared oscillator whose single value
// is both broadcast to the step sequencer's pitch mapping (seqclock.
// MapLFOToNote) and routed through per-destination depth/polarity knobs to
// PWM, pitch, and filter-cutoff targets.
package modmatrix

import "math"

// Waveform selects the global LFO's shape; sine and sample-and-hold are
// carried over unchanged from the teacher's lfo.LFO, with square/ramp kept
// for parity and a few aliases removed since the matrix only fans one
// oscillator out to many destinations instead of one-LFO-per-voice.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveRamp
	WaveSquare
	WaveSampleHold
)

// Destination identifies one routed target.
type Destination int

const (
	DestPWM Destination = iota
	DestPitch
	DestFilterCutoff
)

// Route is one destination's depth and polarity.
type Route struct {
	Destination Destination
	Depth       float64 // units depend on destination: duty fraction, semitones, normalized cutoff offset
	Bipolar     bool    // false folds the LFO into [0,1] before scaling
}

// Matrix is the single shared global LFO plus its fan-out routes.
type Matrix struct {
	rateHz   float64
	waveform Waveform
	phase    float64
	rng      uint64
	held     float64
	routes   []Route
}

func New(rateHz float64, waveform Waveform) *Matrix {
	return &Matrix{rateHz: rateHz, waveform: waveform, rng: 0x853c49e6748fea9b}
}

func (m *Matrix) SetRoutes(routes []Route) { m.routes = routes }
func (m *Matrix) SetRate(hz float64)       { m.rateHz = hz }
func (m *Matrix) SetWaveform(w Waveform)   { m.waveform = w }

// Value returns the current bipolar LFO value in [-1,1] without advancing
// phase, for consumers (e.g. the sequencer's MapLFOToNote) that sample once
// per block rather than per-destination.
func (m *Matrix) Value() float64 {
	switch m.waveform {
	case WaveSine:
		return math.Sin(m.phase * 2 * math.Pi)
	case WaveRamp:
		return 1 - 2*m.phase
	case WaveSquare:
		if m.phase < 0.5 {
			return 1
		}
		return -1
	case WaveSampleHold:
		return m.held
	default:
		return 0
	}
}

// Advance steps the LFO's phase by dt seconds (call once per audio block or
// per k-rate tick, matching the teacher's per-sample lfo.Sample cadence
// generalized to whatever rate the caller drives it at).
func (m *Matrix) Advance(dt float64) {
	if m.rateHz <= 0 {
		return
	}
	prev := m.phase
	m.phase += m.rateHz * dt
	for m.phase >= 1 {
		m.phase -= 1
	}
	if m.waveform == WaveSampleHold && m.phase < prev {
		m.rng ^= m.rng << 13
		m.rng ^= m.rng >> 7
		m.rng ^= m.rng << 17
		m.held = float64(m.rng>>11)/float64(1<<53)*2 - 1
	}
}

// Apply returns the scaled modulation amount for every registered route,
// keyed by destination (spec §4.13: routing to PWM/pitch/filter).
func (m *Matrix) Apply() map[Destination]float64 {
	v := m.Value()
	out := make(map[Destination]float64, len(m.routes))
	for _, r := range m.routes {
		x := v
		if !r.Bipolar {
			x = (v + 1) / 2
		}
		out[r.Destination] += x * r.Depth
	}
	return out
}

func (m *Matrix) Reset() {
	m.phase = 0
	m.held = 0
}
