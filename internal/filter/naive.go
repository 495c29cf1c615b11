package filter

import "math"

// NaiveSVF is an unnormalized state-variable filter used by the onset
// detector's 3-band crossover split (spec §4.12), where the extra phase
// error of the naive topology is immaterial and the simpler update is
// cheaper to run per-band per-sample.
type NaiveSVF struct {
	f, q   float64
	low, band float64
}

// NewNaiveSVF creates a naive SVF for the given cutoff (cycles/sample) and Q.
func NewNaiveSVF(freq, q float64) *NaiveSVF {
	n := &NaiveSVF{q: q}
	n.SetFreq(freq)
	return n
}

func (n *NaiveSVF) SetFreq(freq float64) {
	if freq > 0.497 {
		freq = 0.497
	}
	n.f = 2 * math.Sin(math.Pi*freq)
}

func (n *NaiveSVF) Process(x float64) (low, band, high float64) {
	n.low += n.f * n.band
	high = x - n.low - n.q*n.band
	n.band += n.f * high
	return n.low, n.band, high
}

func (n *NaiveSVF) Reset() {
	n.low, n.band = 0, 0
}
