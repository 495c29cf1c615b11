// Package resonator implements the physical-modelling resonator models of
// spec §4.5-§4.7: a 64-mode SVF bank, a Karplus-Strong string with
// dispersion, a 2-operator FM voice, and the Plucker excitation generator
// shared by the string-family models.
package resonator

import (
	"math"

	"ringforge/internal/dsptables"
	"ringforge/internal/filter"
	"ringforge/internal/osc"
)

const maxModes = 64

// Modal is the 64-mode SVF bank resonator (spec §4.5).
type Modal struct {
	svf      [maxModes]filter.SVF
	active   int
	position float64 // current block's interpolated position [0,1]
	posPrev  float64
	posCos   osc.Cosine
}

func NewModal() *Modal {
	m := &Modal{}
	for i := range m.svf {
		m.svf[i] = *filter.NewSVF()
	}
	return m
}

// ConfigureBlock recomputes all SVF coefficients from the patch knobs,
// following the recurrence of spec §4.5 exactly.
func (m *Modal) ConfigureBlock(structure, brightness, damping, position, fundamental float64) {
	m.posPrev = m.position
	m.position = position

	sigma := dsptables.LookupStiffness(structure)
	q := dsptables.LookupFourDecades(damping) * 500

	attenuation := math.Pow(1-structure, 8)
	b := brightness * (1 - 0.2*attenuation)
	qLoss := 0.85*b*(2-b) + 0.15
	rate := 0.1 * structure * (2 - structure)

	stretch := 1.0
	harmonic := fundamental
	m.active = maxModes
	for i := 0; i < maxModes; i++ {
		partial := harmonic * stretch
		last := partial >= 0.49
		if partial > 0.4999 {
			partial = 0.4999
		}
		m.svf[i].SetFQ(partial, 1+partial*q)
		stretch += sigma
		if sigma < 0 {
			sigma *= 0.93
		} else {
			sigma *= 0.98
		}
		qLoss += rate * (1 - qLoss)
		harmonic += fundamental
		q *= qLoss
		if last {
			m.active = i + 1
			break
		}
	}
}

// Process renders one sample, driving the bank with x*0.125 and mixing
// even/odd partial pairs weighted by a position-dependent coefficient that
// produces position-dependent harmonic cancellation — the defining
// modal-bank timbre (spec §4.5). The weighting is generated by stepping
// osc.Cosine's approximate recurrence once per mode rather than calling
// math.Cos per mode per sample: posCos is reconfigured to frequency
// pos/2 at the top of every call and Next() is stepped mode-by-mode, so
// mode i's weight carries the folded-polynomial approximation error
// instead of an exact trig call.
func (m *Modal) Process(x float64) float64 {
	drive := x * 0.125
	pos := (m.position + m.posPrev) * 0.5
	m.posCos.SetFreqApprox(pos * 0.5)
	var even, odd float64
	for i := 0; i < m.active; i++ {
		out := m.svf[i].Process(drive, filter.BP)
		weight := m.posCos.Next()
		if i%2 == 0 {
			even += out * weight
		} else {
			odd += out * (1 - weight)
		}
	}
	return even + odd
}

func (m *Modal) Reset() {
	for i := range m.svf {
		m.svf[i].Reset()
	}
}
