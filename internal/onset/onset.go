// Package onset implements the three-band onset detector and Strummer of
// spec §4.12, built on internal/filter.NaiveSVF for the low/low-mid/mid-high
// crossovers.
package onset

import (
	"math"

	"ringforge/internal/filter"
)

// band tracks one crossover's rising/falling envelope and running energy.
type band struct {
	attack, decay float64
	envelope      float64
	prevEnergy    float64
}

func (b *band) update(x float64) (energy, delta float64) {
	x2 := x * x
	if x2 > b.envelope {
		b.envelope += b.attack * (x2 - b.envelope)
	} else {
		b.envelope += b.decay * (x2 - b.envelope)
	}
	energy = math.Sqrt(b.envelope)
	delta = energy - b.prevEnergy
	b.prevEnergy = energy
	return energy, delta
}

// Detector is the 3-band onset function evaluator (spec §4.12).
type Detector struct {
	lowSplit    *filter.NaiveSVF
	midSplit    *filter.NaiveSVF
	lowBand     band
	midBand     band
	highBand    band
	odfSmoothed float64
	odfAlpha    float64

	zMean, zVar float64
	ioiFactor   float64

	threshold        float64
	inhibitThreshold float64
	inhibitCounter   int
	blockRate        float64
	sampleRateHz     float64
	lowHz, midHz     float64
	ioiSeconds       float64
}

// NewDetector builds a detector with crossovers at lowHz and midHz, sampled
// at sampleRateHz (spec §4.12: "low / low-mid / mid-high crossovers").
func NewDetector(lowHz, midHz, sampleRateHz, blockRate float64) *Detector {
	return &Detector{
		lowSplit:  filter.NewNaiveSVF(lowHz/sampleRateHz, 0.7),
		midSplit:  filter.NewNaiveSVF(midHz/sampleRateHz, 0.7),
		lowBand:   band{attack: 0.3, decay: 0.05},
		midBand:   band{attack: 0.3, decay: 0.05},
		highBand:  band{attack: 0.3, decay: 0.05},
		odfAlpha:     0.2,
		ioiFactor:    0.05,
		threshold:    1.5,
		blockRate:    blockRate,
		sampleRateHz: sampleRateHz,
		lowHz:        lowHz,
		midHz:        midHz,
		ioiSeconds:   0.1,
	}
}

// Process runs one sample through the crossovers and band envelopes,
// returning whether an onset is declared this sample (spec §4.12).
func (d *Detector) Process(x float64) bool {
	low, _, rest := d.lowSplit.Process(x)
	_, mid, high := d.midSplit.Process(rest)

	lowE, lowD := d.lowBand.update(low)
	midE, midD := d.midBand.update(mid)
	highE, highD := d.highBand.update(high)

	odf := (lowD + math.Abs(lowD)) + (midD + math.Abs(midD)) + (highD + math.Abs(highD))
	d.odfSmoothed += d.odfAlpha * (odf - d.odfSmoothed)

	d.zMean += d.ioiFactor * (d.odfSmoothed - d.zMean)
	diff := d.odfSmoothed - d.zMean
	d.zVar += d.ioiFactor * (diff*diff - d.zVar)
	sigma := math.Sqrt(math.Max(d.zVar, 1e-12))

	totalEnergy := lowE + midE + highE

	if d.inhibitCounter > 0 {
		d.inhibitCounter--
	}

	declared := d.odfSmoothed > d.zMean+sigma*d.threshold &&
		totalEnergy >= d.inhibitThreshold &&
		d.inhibitCounter == 0

	if declared {
		d.inhibitThreshold = 1.5 * totalEnergy
		d.inhibitCounter = int(d.ioiSeconds * d.blockRate)
	}
	return declared
}

// SetIOISeconds sets the minimum inter-onset interval used to derive the
// inhibit-counter reload.
func (d *Detector) SetIOISeconds(sec float64) { d.ioiSeconds = sec }

func (d *Detector) Reset() {
	*d = *NewDetector(d.lowHz, d.midHz, d.sampleRateHz, d.blockRate)
}

// Strummer drives performanceState.strum from either an onset flag (when an
// external exciter is in use) or a note-change flag (when driven by an
// external note CV), spec §4.12.
type Strummer struct {
	hasExternalExciter bool
	lastNote           int
	hasLastNote        bool
	strum              bool
}

func NewStrummer(hasExternalExciter bool) *Strummer {
	return &Strummer{hasExternalExciter: hasExternalExciter, lastNote: -1}
}

// Update evaluates the strum flag for the current block. onset is the
// Detector's declaration this block; note is the external note CV's pitch,
// valid only when noteValid is true.
func (s *Strummer) Update(onset bool, note int, noteValid bool) bool {
	if s.hasExternalExciter {
		s.strum = onset
		return s.strum
	}
	if noteValid {
		changed := !s.hasLastNote || note != s.lastNote
		s.lastNote = note
		s.hasLastNote = true
		s.strum = changed
		return s.strum
	}
	s.strum = false
	return false
}
