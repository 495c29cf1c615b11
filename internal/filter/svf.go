// Package filter implements the state-variable filter topology (spec
// §4.2), a naive (unnormalized) SVF for the onset detector's band splits,
// and a 1-pole DC blocker, grounded on the teacher's chiptune/nesapu
// dcBlockL/R pattern.
package filter

import "ringforge/internal/dsptables"

// Output selects which SVF output tap to read.
type Output int

const (
	LP Output = iota
	BP
	BPNormalized
	HP
)

// SVF is the zero-delay-feedback state-variable filter of spec §4.2:
//
//	hp = (x - r*s1 - g*s1 - s2) * h
//	bp = g*hp + s1; s1 = g*hp + bp
//	lp = g*bp + s2; s2 = g*bp + lp
//
// h = 1/(1 + r*g + g^2), refreshed whenever g or r changes.
type SVF struct {
	g, r, h float64
	s1, s2  float64
	tanMode dsptables.TanMode
}

// NewSVF creates an SVF with the DIRTY tan approximation (spec default).
func NewSVF() *SVF {
	return &SVF{tanMode: dsptables.TanDirty}
}

// SetTanMode overrides the tan(pi*f) approximation used by SetFQ.
func (f *SVF) SetTanMode(m dsptables.TanMode) { f.tanMode = m }

// SetFQ sets normalized frequency f (cycles/sample) and resonance as Q.
// f is clamped to 0.497 near Nyquist (spec §4.2/§8).
func (f *SVF) SetFQ(freq, q float64) {
	if freq >= 0.497 {
		freq = 0.497
	}
	if freq < 0 {
		freq = 0
	}
	g := dsptables.Tan(freq, f.tanMode)
	r := 1.0
	if q > 1e-9 {
		r = 1.0 / q
	}
	f.setGR(g, r)
}

// SetGR sets g and r directly and refreshes h; exported for callers (e.g.
// the modal resonator) that compute g/r themselves.
func (f *SVF) SetGR(g, r float64) { f.setGR(g, r) }

func (f *SVF) setGR(g, r float64) {
	f.g = g
	f.r = r
	f.h = 1.0 / (1 + r*g + g*g)
}

// G/R/H expose the current coefficients (for the §8 invariant check).
func (f *SVF) G() float64 { return f.g }
func (f *SVF) R() float64 { return f.r }
func (f *SVF) H() float64 { return f.h }

// Process runs one sample through the filter, returning the requested tap.
func (f *SVF) Process(x float64, out Output) float64 {
	hp := (x - f.r*f.s1 - f.g*f.s1 - f.s2) * f.h
	bp := f.g*hp + f.s1
	f.s1 = f.g*hp + bp
	lp := f.g*bp + f.s2
	f.s2 = f.g*bp + lp
	switch out {
	case LP:
		return lp
	case BP:
		return bp
	case BPNormalized:
		return bp * f.r
	default:
		return hp
	}
}

// Reset zeroes the filter state (not the coefficients).
func (f *SVF) Reset() {
	f.s1, f.s2 = 0, 0
}
