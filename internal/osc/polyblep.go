package osc

import "math"

// PolyBLEP reduces aliasing at waveform discontinuities, grounded verbatim
// on the teacher's internal/chiptune and internal/nesapu polyBLEP helper.
// t is the phase position in [0,1), dt is the phase increment per sample.
func PolyBLEP(t, dt float64) float64 {
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

// Square is a band-limited square/pulse oscillator with a PWM duty cycle,
// the antialiased oscillator named in spec §2 row 4 ("PolyBLEP square/saw").
type Square struct {
	phase float64
	duty  float64
}

func NewSquare(duty float64) *Square {
	if duty <= 0 || duty >= 1 {
		duty = 0.5
	}
	return &Square{duty: duty}
}

func (s *Square) SetDuty(duty float64) {
	if duty > 0 && duty < 1 {
		s.duty = duty
	}
}

// Next advances by freq/sampleRate and returns a sample in roughly [-1,1].
func (s *Square) Next(freq, sampleRate float64) float64 {
	dt := freq / sampleRate
	s.phase += dt
	if s.phase >= 1 {
		s.phase -= 1
	}
	out := -1.0
	if s.phase < s.duty {
		out = 1
	}
	out += PolyBLEP(s.phase, dt)
	out -= PolyBLEP(math.Mod(s.phase-s.duty+1, 1), dt)
	return out
}

func (s *Square) Reset() { s.phase = 0 }

// Saw is a band-limited sawtooth oscillator.
type Saw struct {
	phase float64
}

func (s *Saw) Next(freq, sampleRate float64) float64 {
	dt := freq / sampleRate
	s.phase += dt
	if s.phase >= 1 {
		s.phase -= 1
	}
	out := 2*s.phase - 1
	out -= PolyBLEP(s.phase, dt)
	return out
}

func (s *Saw) Reset() { s.phase = 0 }
